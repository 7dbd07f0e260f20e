// Package walletapi is a typed client of the wallet ledger HTTP API.
package walletapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/handlers"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Set of errors reported by the API.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error is a non successful response. It unwraps to one of the package
// errors when the status code is known.
type Error struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%d: %s: %v", e.StatusCode, e.Message, e.Fields)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return nil
}

// ClientFilter selects clients by substrings of their names.
type ClientFilter struct {
	Surname    string
	Name       string
	Patronymic string
}

// TransactionFilter selects transactions by substrings of their signature.
type TransactionFilter struct {
	Timestamp       string
	SenderWallet    string
	RecipientWallet string
}

// Client talks to a wallet ledger service.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option changes the defaults of a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every call, response body included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New returns a client of the API served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *Client) ListClients(ctx context.Context, f ClientFilter, page ledger.Page) ([]handlers.Client, error) {
	q := pageQuery(page)
	setIf(q, "surname", f.Surname)
	setIf(q, "name", f.Name)
	setIf(q, "patronymic", f.Patronymic)

	var cs []handlers.Client
	if err := c.do(ctx, http.MethodGet, "/api/clients?"+q.Encode(), nil, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

func (c *Client) GetClient(ctx context.Context, wallet string) (handlers.Client, error) {
	var cl handlers.Client
	err := c.do(ctx, http.MethodGet, "/api/clients/"+url.PathEscape(wallet), nil, &cl)
	return cl, err
}

func (c *Client) CreateClient(ctx context.Context, nc handlers.NewClientReq) (handlers.Client, error) {
	var cl handlers.Client
	err := c.do(ctx, http.MethodPost, "/api/clients", nc, &cl)
	return cl, err
}

func (c *Client) ReplaceClient(ctx context.Context, wallet string, rc handlers.ReplaceClientReq) (handlers.Client, error) {
	var cl handlers.Client
	err := c.do(ctx, http.MethodPut, "/api/clients/"+url.PathEscape(wallet), rc, &cl)
	return cl, err
}

func (c *Client) PatchClient(ctx context.Context, wallet string, pc handlers.PatchClientReq) (handlers.Client, error) {
	var cl handlers.Client
	err := c.do(ctx, http.MethodPatch, "/api/clients/"+url.PathEscape(wallet), pc, &cl)
	return cl, err
}

func (c *Client) DeleteClient(ctx context.Context, wallet string) (handlers.Client, error) {
	var cl handlers.Client
	err := c.do(ctx, http.MethodDelete, "/api/clients/"+url.PathEscape(wallet), nil, &cl)
	return cl, err
}

func (c *Client) ClientTransactions(ctx context.Context, wallet string, page ledger.Page) ([]handlers.Transaction, error) {
	path := "/api/clients/" + url.PathEscape(wallet) + "/transactions?" + pageQuery(page).Encode()

	var ts []handlers.Transaction
	if err := c.do(ctx, http.MethodGet, path, nil, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (c *Client) ListTransactions(ctx context.Context, f TransactionFilter, page ledger.Page) ([]handlers.Transaction, error) {
	q := pageQuery(page)
	setIf(q, "timeStamp", f.Timestamp)
	setIf(q, "senderWallet", f.SenderWallet)
	setIf(q, "recipientWallet", f.RecipientWallet)

	var ts []handlers.Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions?"+q.Encode(), nil, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (c *Client) GetTransaction(ctx context.Context, guid string) (handlers.TransactionDetailed, error) {
	var t handlers.TransactionDetailed
	err := c.do(ctx, http.MethodGet, "/api/transactions/"+url.PathEscape(guid), nil, &t)
	return t, err
}

func (c *Client) CreateTransaction(ctx context.Context, nt handlers.NewTransactionReq) (handlers.Transaction, error) {
	var t handlers.Transaction
	err := c.do(ctx, http.MethodPost, "/api/transactions", nt, &t)
	return t, err
}

func (c *Client) DeleteTransaction(ctx context.Context, guid string) (handlers.Transaction, error) {
	var t handlers.Transaction
	err := c.do(ctx, http.MethodDelete, "/api/transactions/"+url.PathEscape(guid), nil, &t)
	return t, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(bs)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode >= http.StatusBadRequest:
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var er handlers.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Error != "" {
		apiErr.Message = er.Error
		apiErr.Fields = er.Fields
	}

	return &apiErr
}

func pageQuery(page ledger.Page) url.Values {
	q := make(url.Values)
	if page.Limit != 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.Offset != 0 {
		q.Set("offset", strconv.Itoa(page.Offset))
	}
	return q
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
