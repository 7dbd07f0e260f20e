// Package transaction provides the business logic of transfers between
// wallets.
package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/web"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// Set of errors for transaction API.
var (
	ErrNotFound             = errors.New("transaction not found")
	ErrInvalidArgument      = errors.New("transaction invalid argument")
	ErrSelfTransfer         = errors.New("sender and recipient wallets must differ")
	ErrNonPositiveAmount    = errors.New("amount must be positive")
	ErrSenderNotFound       = errors.New("sender wallet not found")
	ErrRecipientNotFound    = errors.New("recipient wallet not found")
	ErrDuplicateIdentifier  = errors.New("transaction guid already exists")
	ErrDuplicateTransaction = errors.New("transaction with the same timestamp, sender and recipient already exists")
	ErrInsufficientBalance  = errors.New("sender balance is lower than the amount")
)

// Store is used to persist transaction's data.
type Store interface {
	Lookup

	// ExecUnderTx executes the fn function under a transaction. If fn returns
	// an error the transaction is rolled back and the error is returned.
	ExecUnderTx(ctx context.Context, fn func(tx Store) error) error

	// Debit subtracts amount from the wallet balance only when the balance
	// covers it. It returns ErrInsufficientBalance otherwise, or
	// ErrSenderNotFound when the wallet is unknown.
	Debit(ctx context.Context, wallet string, amount decimal.Decimal) error
	// Credit returns ErrRecipientNotFound when the wallet is unknown.
	Credit(ctx context.Context, wallet string, amount decimal.Decimal) error
	// Add stores the transaction record. Constraint violations are reported
	// with the matching validation error.
	Add(ctx context.Context, t Transaction) error
	Delete(ctx context.Context, guid string) error

	Query(ctx context.Context, filter Filter, page ledger.Page) ([]Transaction, error)
	QueryByClient(ctx context.Context, wallet string, page ledger.Page) ([]Transaction, error)
}

// Apply debits the sender, credits the recipient and stores t. tx must be
// a transactional store so that all three effects commit together. The
// balances are touched in wallet order so concurrent transfers between the
// same pair lock rows in the same sequence.
func Apply(ctx context.Context, tx Store, t Transaction) error {
	steps := []func() error{
		func() error { return tx.Debit(ctx, t.SenderWallet, t.Amount) },
		func() error { return tx.Credit(ctx, t.RecipientWallet, t.Amount) },
	}
	if t.RecipientWallet < t.SenderWallet {
		steps[0], steps[1] = steps[1], steps[0]
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	return tx.Add(ctx, t)
}

// Core deals with transaction's business logic.
type Core struct {
	store  Store
	locker ledger.Locker
	newID  ledger.IDGen
}

// Option changes the defaults of a Core.
type Option func(*Core)

// WithIDGen sets the generator of transaction GUIDs.
func WithIDGen(gen ledger.IDGen) Option {
	return func(c *Core) { c.newID = gen }
}

func NewCore(store Store, locker ledger.Locker, opts ...Option) *Core {
	c := Core{
		store:  store,
		locker: locker,
		newID:  ledger.NewID,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Create validates the transfer and applies it atomically. Nothing is
// changed when an error is returned.
func (c *Core) Create(ctx context.Context, nt NewTransaction) (Transaction, error) {
	ctx, span := web.AddSpan(ctx, "core.transaction.Create",
		attribute.String("sender", nt.SenderWallet),
		attribute.String("recipient", nt.RecipientWallet))
	defer span.End()

	t := Transaction{
		GUID:            nt.GUID,
		Timestamp:       nt.Timestamp,
		SenderWallet:    nt.SenderWallet,
		RecipientWallet: nt.RecipientWallet,
		Amount:          nt.Amount,
		CurrencyType:    nt.CurrencyType,
		TransactionType: nt.TransactionType,
	}
	if t.GUID == "" {
		t.GUID = c.newID()
	}

	t, err := t.checkShape()
	if err != nil {
		return Transaction{}, err
	}

	unlock, err := c.locker.Lock(ctx, ledger.ClientKey(t.SenderWallet), ledger.ClientKey(t.RecipientWallet))
	if err != nil {
		return Transaction{}, fmt.Errorf("lock wallets: %w", err)
	}
	defer unlock()

	fn := func(tx Store) error {
		if err := Validate(ctx, t, tx); err != nil {
			return err
		}
		return Apply(ctx, tx, t)
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Transaction{}, fmt.Errorf("create: guid[%s]: %w", t.GUID, err)
	}

	return t, nil
}

// QueryByGUID finds a transaction by its GUID.
func (c *Core) QueryByGUID(ctx context.Context, guid string) (Transaction, error) {
	ctx, span := web.AddSpan(ctx, "core.transaction.QueryByGUID")
	defer span.End()

	id, err := ledger.ParseID(guid)
	if err != nil {
		return Transaction{}, err
	}

	t, err := c.store.QueryByGUID(ctx, id)
	if err != nil {
		return Transaction{}, fmt.Errorf("query: guid[%s]: %w", id, err)
	}

	return t, nil
}

// QueryDetailed finds a transaction and the clients it moved value
// between.
func (c *Core) QueryDetailed(ctx context.Context, guid string) (Detailed, error) {
	ctx, span := web.AddSpan(ctx, "core.transaction.QueryDetailed")
	defer span.End()

	t, err := c.QueryByGUID(ctx, guid)
	if err != nil {
		return Detailed{}, err
	}

	sender, err := c.store.QueryClient(ctx, t.SenderWallet)
	if err != nil {
		return Detailed{}, fmt.Errorf("query sender: wallet[%s]: %w", t.SenderWallet, err)
	}

	recipient, err := c.store.QueryClient(ctx, t.RecipientWallet)
	if err != nil {
		return Detailed{}, fmt.Errorf("query recipient: wallet[%s]: %w", t.RecipientWallet, err)
	}

	return Detailed{
		Transaction: t,
		Sender:      sender,
		Recipient:   recipient,
	}, nil
}

// Query lists transactions matching the filter ordered by timestamp.
func (c *Core) Query(ctx context.Context, filter Filter, page ledger.Page) ([]Transaction, error) {
	ctx, span := web.AddSpan(ctx, "core.transaction.Query",
		attribute.Int("limit", page.Limit), attribute.Int("offset", page.Offset))
	defer span.End()

	if err := page.Validate(); err != nil {
		return nil, err
	}

	ts, err := c.store.Query(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return ts, nil
}

// QueryByClient lists the transactions a client sent or received ordered
// by timestamp. It returns client.ErrNotFound for an unknown wallet.
func (c *Core) QueryByClient(ctx context.Context, wallet string, page ledger.Page) ([]Transaction, error) {
	ctx, span := web.AddSpan(ctx, "core.transaction.QueryByClient",
		attribute.Int("limit", page.Limit), attribute.Int("offset", page.Offset))
	defer span.End()

	w, err := ledger.ParseID(wallet)
	if err != nil {
		return nil, err
	}

	if err := page.Validate(); err != nil {
		return nil, err
	}

	if _, err := c.store.QueryClient(ctx, w); err != nil {
		return nil, fmt.Errorf("query client: wallet[%s]: %w", w, err)
	}

	ts, err := c.store.QueryByClient(ctx, w, page)
	if err != nil {
		return nil, fmt.Errorf("query: wallet[%s]: %w", w, err)
	}

	return ts, nil
}

// Delete removes the transaction record. Balances are left as they are.
func (c *Core) Delete(ctx context.Context, guid string) (Transaction, error) {
	ctx, span := web.AddSpan(ctx, "core.transaction.Delete")
	defer span.End()

	id, err := ledger.ParseID(guid)
	if err != nil {
		return Transaction{}, err
	}

	unlock, err := c.locker.Lock(ctx, ledger.TransactionKey(id))
	if err != nil {
		return Transaction{}, fmt.Errorf("lock transaction: %w", err)
	}
	defer unlock()

	var deleted Transaction
	fn := func(tx Store) error {
		t, err := tx.QueryByGUID(ctx, id)
		if err != nil {
			return err
		}
		deleted = t

		return tx.Delete(ctx, id)
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Transaction{}, fmt.Errorf("delete: guid[%s]: %w", id, err)
	}

	return deleted, nil
}
