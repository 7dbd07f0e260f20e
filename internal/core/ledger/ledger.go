// Package ledger holds the pieces shared by the client and transaction
// cores: identifiers, paging and per-key locking.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Set of errors shared by the ledger cores.
var (
	ErrMalformedIdentifier = errors.New("malformed identifier")
	ErrInvalidPage         = errors.New("limit must be in [1, 100] and offset must not be negative")
)

// FieldError reports a field that failed validation. It unwraps to Err,
// the invalid argument error of the package that rejected the field.
type FieldError struct {
	Err   error
	Field string
	Msg   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s %s", e.Err, e.Field, e.Msg)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// IDGen produces a new unique identifier in canonical GUID form.
type IDGen func() string

// NewID returns a time ordered GUID (UUIDv7).
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// guidLen is the length of the hyphenated form xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx.
const guidLen = 36

// ParseID validates that s is a GUID in hyphenated form and returns it in
// lowercase. The urn, braced and bare hex forms are rejected.
func ParseID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) != guidLen {
		return "", ErrMalformedIdentifier
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return "", ErrMalformedIdentifier
	}
	return id.String(), nil
}

// Paging bounds.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page selects a window of a listing.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPage is the page used when the caller does not pick one.
func DefaultPage() Page {
	return Page{Limit: DefaultLimit}
}

// Validate reports ErrInvalidPage when the page is out of bounds.
func (p Page) Validate() error {
	if p.Limit < 1 || p.Limit > MaxLimit || p.Offset < 0 {
		return ErrInvalidPage
	}
	return nil
}

// Locker grants exclusive sections over a set of keys. The returned
// function releases every key and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

// ClientKey is the lock key guarding a client record and its balance.
func ClientKey(wallet string) string {
	return "client:" + wallet
}

// TransactionKey is the lock key guarding a transaction record.
func TransactionKey(guid string) string {
	return "transaction:" + guid
}
