// Package client provides the business logic of wallet holders.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/web"
	"go.opentelemetry.io/otel/attribute"
)

// Set of errors for client API.
var (
	ErrNotFound        = errors.New("client not found")
	ErrInvalidArgument = errors.New("client invalid argument")
	ErrDuplicateWallet = errors.New("client wallet number already exists")
	ErrHasTransactions = errors.New("client has transactions")
)

// Store is used to persist client's data.
type Store interface {
	// ExecUnderTx executes the fn function under a transaction. If fn returns
	// an error the transaction is rolled back and the error is returned.
	ExecUnderTx(ctx context.Context, fn func(tx Store) error) error

	// Create returns ErrDuplicateWallet when the wallet number is taken.
	Create(ctx context.Context, c Client) error
	// Update writes the personal fields only, never the balance.
	Update(ctx context.Context, c Client) error
	// Delete returns ErrHasTransactions when a transaction references the
	// client.
	Delete(ctx context.Context, wallet string) error

	QueryByWallet(ctx context.Context, wallet string) (Client, error)
	Query(ctx context.Context, filter Filter, page ledger.Page) ([]Client, error)
}

// Core deals with client's business logic.
type Core struct {
	store  Store
	locker ledger.Locker
	newID  ledger.IDGen
}

// Option changes the defaults of a Core.
type Option func(*Core)

// WithIDGen sets the generator of wallet numbers.
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

// Create opens a wallet.
func (c *Core) Create(ctx context.Context, nc NewClient) (Client, error) {
	ctx, span := web.AddSpan(ctx, "core.client.Create")
	defer span.End()

	wallet := c.newID()
	if nc.WalletNumber != "" {
		w, err := ledger.ParseID(nc.WalletNumber)
		if err != nil {
			return Client{}, err
		}
		wallet = w
	}

	cl := Client{
		WalletNumber: wallet,
		Surname:      nc.Surname,
		Name:         nc.Name,
		Patronymic:   nc.Patronymic,
		Balance:      nc.Balance,
	}
	if err := cl.validate(); err != nil {
		return Client{}, err
	}

	unlock, err := c.locker.Lock(ctx, ledger.ClientKey(wallet))
	if err != nil {
		return Client{}, fmt.Errorf("lock client: %w", err)
	}
	defer unlock()

	if err := c.store.Create(ctx, cl); err != nil {
		return Client{}, fmt.Errorf("create: %w", err)
	}

	return cl, nil
}

// QueryByWallet finds a client by its wallet number.
func (c *Core) QueryByWallet(ctx context.Context, wallet string) (Client, error) {
	ctx, span := web.AddSpan(ctx, "core.client.QueryByWallet")
	defer span.End()

	w, err := ledger.ParseID(wallet)
	if err != nil {
		return Client{}, err
	}

	cl, err := c.store.QueryByWallet(ctx, w)
	if err != nil {
		return Client{}, fmt.Errorf("query: wallet[%s]: %w", w, err)
	}

	return cl, nil
}

// Query lists clients matching the filter. An empty result is not an error.
func (c *Core) Query(ctx context.Context, filter Filter, page ledger.Page) ([]Client, error) {
	ctx, span := web.AddSpan(ctx, "core.client.Query",
		attribute.Int("limit", page.Limit), attribute.Int("offset", page.Offset))
	defer span.End()

	if err := page.Validate(); err != nil {
		return nil, err
	}

	cls, err := c.store.Query(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return cls, nil
}

// Update edits the personal fields of a client. The balance is kept.
func (c *Core) Update(ctx context.Context, wallet string, uc UpdateClient) (Client, error) {
	ctx, span := web.AddSpan(ctx, "core.client.Update")
	defer span.End()

	w, err := ledger.ParseID(wallet)
	if err != nil {
		return Client{}, err
	}

	unlock, err := c.locker.Lock(ctx, ledger.ClientKey(w))
	if err != nil {
		return Client{}, fmt.Errorf("lock client: %w", err)
	}
	defer unlock()

	var updated Client
	fn := func(tx Store) error {
		cl, err := tx.QueryByWallet(ctx, w)
		if err != nil {
			return err
		}

		updated = uc.apply(cl)
		if err := updated.validate(); err != nil {
			return err
		}

		return tx.Update(ctx, updated)
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Client{}, fmt.Errorf("update: wallet[%s]: %w", w, err)
	}

	return updated, nil
}

// Delete removes a client that owns no transaction. It returns
// ErrHasTransactions otherwise and leaves the ledger untouched.
func (c *Core) Delete(ctx context.Context, wallet string) (Client, error) {
	ctx, span := web.AddSpan(ctx, "core.client.Delete")
	defer span.End()

	w, err := ledger.ParseID(wallet)
	if err != nil {
		return Client{}, err
	}

	unlock, err := c.locker.Lock(ctx, ledger.ClientKey(w))
	if err != nil {
		return Client{}, fmt.Errorf("lock client: %w", err)
	}
	defer unlock()

	var deleted Client
	fn := func(tx Store) error {
		cl, err := tx.QueryByWallet(ctx, w)
		if err != nil {
			return err
		}
		deleted = cl

		return tx.Delete(ctx, w)
	}

	if err := c.store.ExecUnderTx(ctx, fn); err != nil {
		return Client{}, fmt.Errorf("delete: wallet[%s]: %w", w, err)
	}

	return deleted, nil
}
