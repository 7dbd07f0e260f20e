package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/core/transaction"
)

func TestFail(t *testing.T) {
	s := Server{log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		name string
		err  error
		code int
		want ErrorResponse
	}{
		{
			name: "transaction field",
			err: fmt.Errorf("create: guid[x]: %w", &ledger.FieldError{
				Err: transaction.ErrInvalidArgument, Field: "timestamp", Msg: "must have 1 to 50 characters",
			}),
			code: http.StatusBadRequest,
			want: ErrorResponse{Error: "transaction invalid argument: timestamp must have 1 to 50 characters"},
		},
		{
			name: "client field",
			err: fmt.Errorf("update: wallet[x]: %w", &ledger.FieldError{
				Err: client.ErrInvalidArgument, Field: "surname", Msg: "must have 1 to 50 characters",
			}),
			code: http.StatusBadRequest,
			want: ErrorResponse{Error: "client invalid argument: surname must have 1 to 50 characters"},
		},
		{
			name: "undecodable body",
			err:  &requestError{msg: "request must be a json"},
			code: http.StatusBadRequest,
			want: ErrorResponse{Error: "bad request: request must be a json"},
		},
		{
			name: "validation",
			err:  &validationError{fields: map[string]string{"name": "this field is required"}},
			code: http.StatusBadRequest,
			want: ErrorResponse{Error: "validation failed", Fields: map[string]string{"name": "this field is required"}},
		},
		{
			name: "wrapped sentinel",
			err:  fmt.Errorf("create: guid[x]: %w", transaction.ErrInsufficientBalance),
			code: http.StatusBadRequest,
			want: ErrorResponse{Error: transaction.ErrInsufficientBalance.Error()},
		},
		{
			name: "conflict",
			err:  fmt.Errorf("delete: wallet[x]: %w", client.ErrHasTransactions),
			code: http.StatusConflict,
			want: ErrorResponse{Error: client.ErrHasTransactions.Error()},
		},
		{
			name: "internal",
			err:  errors.New("connection refused"),
			code: http.StatusInternalServerError,
			want: ErrorResponse{Error: "internal error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			s.fail(w, r, tt.err)

			if w.Code != tt.code {
				t.Fatalf("got status %d, want %d", w.Code, tt.code)
			}

			var got ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("wrong body (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"not json", "text/plain", `{}`, "bad request: request must be a json"},
		{"wrong type", "application/json", `{"surname":1,"name":"N"}`, `bad request: invalid data type for field "surname"`},
		{"broken json", "application/json", `{"surname":`, "bad request: failed to parse json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)

			_, err := decode[NewClientReq](r)

			var re *requestError
			if !errors.As(err, &re) {
				t.Fatalf("got %T %v, want *requestError", err, err)
			}
			if !errors.Is(err, errBadRequest) {
				t.Errorf("%v does not match errBadRequest", err)
			}
			if !strings.HasPrefix(re.Error(), tt.want) {
				t.Errorf("got %q, want prefix %q", re.Error(), tt.want)
			}
		})
	}
}
