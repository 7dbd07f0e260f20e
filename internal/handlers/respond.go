package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/core/transaction"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errBadRequest marks request decoding and shape failures.
var errBadRequest = errors.New("bad request")

// requestError is a body that could not be read as the expected request.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return "bad request: " + e.msg
}

func (e *requestError) Unwrap() error {
	return errBadRequest
}

// validationError lists the offending fields of a request body.
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.fields)
}

func (e *validationError) Unwrap() error {
	return errBadRequest
}

// decode reads a JSON body into T and checks its validate tags.
func decode[T any](r *http.Request) (T, error) {
	var req T

	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return req, &requestError{msg: "request must be a json"}
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return req, &requestError{msg: fmt.Sprintf("invalid data type for field %q", typeErr.Field)}
		}
		return req, &requestError{msg: fmt.Sprintf("failed to parse json: %v", err)}
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return req, fmt.Errorf("validate: %w", err)
		}

		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				fields[fe.Field()] = "this field is required"
			case "max":
				fields[fe.Field()] = fmt.Sprintf("at most %s characters", fe.Param())
			default:
				fields[fe.Field()] = "invalid value"
			}
		}
		return req, &validationError{fields: fields}
	}

	return req, nil
}

// pageFromQuery reads limit and offset, defaulting to the first page.
func pageFromQuery(r *http.Request) (ledger.Page, error) {
	page := ledger.DefaultPage()
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ledger.Page{}, ledger.ErrInvalidPage
		}
		page.Limit = n
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ledger.Page{}, ledger.ErrInvalidPage
		}
		page.Offset = n
	}

	return page, page.Validate()
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respond(w http.ResponseWriter, code int, data any) {
	bs, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(bs)
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respond(w, code, ErrorResponse{Error: msg})
}

// respondList writes items, or 204 when there are none.
func respondList[T any](w http.ResponseWriter, items []T) {
	if len(items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respond(w, http.StatusOK, items)
}

// statusOf maps the error kinds of the cores to a status code. Unknown
// errors are internal.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, ledger.ErrMalformedIdentifier),
		errors.Is(err, ledger.ErrInvalidPage),
		errors.Is(err, client.ErrInvalidArgument),
		errors.Is(err, transaction.ErrInvalidArgument),
		errors.Is(err, transaction.ErrSelfTransfer),
		errors.Is(err, transaction.ErrNonPositiveAmount),
		errors.Is(err, transaction.ErrInsufficientBalance):
		return http.StatusBadRequest

	case errors.Is(err, client.ErrNotFound),
		errors.Is(err, transaction.ErrNotFound),
		errors.Is(err, transaction.ErrSenderNotFound),
		errors.Is(err, transaction.ErrRecipientNotFound):
		return http.StatusNotFound

	case errors.Is(err, client.ErrDuplicateWallet),
		errors.Is(err, client.ErrHasTransactions),
		errors.Is(err, transaction.ErrDuplicateIdentifier),
		errors.Is(err, transaction.ErrDuplicateTransaction):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// fail logs err and writes its response. Internal errors are reported
// without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)

	if code == http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed", "ERROR", err)
		respondError(w, code, "internal error")
		return
	}

	s.log.InfoContext(r.Context(), "request rejected", "status", code, "ERROR", err)

	var verr *validationError
	if errors.As(err, &verr) {
		respond(w, code, ErrorResponse{Error: "validation failed", Fields: verr.fields})
		return
	}

	respondError(w, code, reason(err))
}

// reason is the message of the most specific known error kind in err.
func reason(err error) string {
	kinds := []error{
		ledger.ErrMalformedIdentifier,
		ledger.ErrInvalidPage,
		transaction.ErrSelfTransfer,
		transaction.ErrNonPositiveAmount,
		transaction.ErrSenderNotFound,
		transaction.ErrRecipientNotFound,
		transaction.ErrDuplicateIdentifier,
		transaction.ErrDuplicateTransaction,
		transaction.ErrInsufficientBalance,
		transaction.ErrNotFound,
		client.ErrNotFound,
		client.ErrDuplicateWallet,
		client.ErrHasTransactions,
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k.Error()
		}
	}

	var fe *ledger.FieldError
	if errors.As(err, &fe) {
		return fe.Error()
	}

	var re *requestError
	if errors.As(err, &re) {
		return re.Error()
	}

	return http.StatusText(statusOf(err))
}
