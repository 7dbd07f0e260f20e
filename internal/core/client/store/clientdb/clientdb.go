// Package clientdb contains client related CRUD functionality on Postgres.
package clientdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/ledger"
	db "github.com/rschio/walletledger/internal/data/dbsql/pgx"
)

type Store struct {
	log *slog.Logger
	db  db.DB
}

func NewStore(log *slog.Logger, database db.DB) *Store {
	return &Store{
		log: log,
		db:  database,
	}
}

func (s *Store) ExecUnderTx(ctx context.Context, fn func(txStore client.Store) error) error {
	return db.WithinTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(NewStore(s.log, tx))
	})
}

func (s *Store) Create(ctx context.Context, c client.Client) error {
	const q = `
	INSERT INTO clients
		(wallet_number, surname, name, patronymic, balance)
	VALUES
		(@wallet_number, @surname, @name, @patronymic, @balance)`

	if err := db.NamedExec(ctx, s.log, s.db, q, toDBClient(c)); err != nil {
		if errors.Is(err, db.ErrDBDuplicatedEntry) {
			return client.ErrDuplicateWallet
		}
		return fmt.Errorf("namedexec: %w", err)
	}

	return nil
}

func (s *Store) Update(ctx context.Context, c client.Client) error {
	const q = `
	UPDATE
		clients
	SET
		surname = @surname,
		name = @name,
		patronymic = @patronymic
	WHERE
		wallet_number = @wallet_number`

	n, err := db.NamedExecRows(ctx, s.log, s.db, q, toDBClient(c))
	if err != nil {
		return fmt.Errorf("namedexec: %w", err)
	}
	if n == 0 {
		return client.ErrNotFound
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, wallet string) error {
	data := struct {
		WalletNumber string `db:"wallet_number"`
	}{
		WalletNumber: wallet,
	}

	const q = `
	DELETE FROM
		clients
	WHERE
		wallet_number = @wallet_number`

	n, err := db.NamedExecRows(ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBForeignKey) {
			return client.ErrHasTransactions
		}
		return fmt.Errorf("namedexec: %w", err)
	}
	if n == 0 {
		return client.ErrNotFound
	}

	return nil
}

func (s *Store) QueryByWallet(ctx context.Context, wallet string) (client.Client, error) {
	data := struct {
		WalletNumber string `db:"wallet_number"`
	}{
		WalletNumber: wallet,
	}

	const q = `
	SELECT
		wallet_number, surname, name, patronymic, balance
	FROM
		clients
	WHERE
		wallet_number = @wallet_number`

	c, err := db.NamedQueryStruct[dbClient](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return client.Client{}, client.ErrNotFound
		}
		return client.Client{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toClient(c), nil
}

func (s *Store) Query(ctx context.Context, filter client.Filter, page ledger.Page) ([]client.Client, error) {
	data := struct {
		Surname    string `db:"surname"`
		Name       string `db:"name"`
		Patronymic string `db:"patronymic"`
		Limit      int    `db:"limit"`
		Offset     int    `db:"offset"`
	}{
		Surname:    db.LikePattern(filter.Surname),
		Name:       db.LikePattern(filter.Name),
		Patronymic: db.LikePattern(filter.Patronymic),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}

	const (
		selectQ = `
	SELECT
		wallet_number, surname, name, patronymic, balance
	FROM
		clients`
		whereQ = `
	WHERE
		surname ILIKE @surname AND
		name ILIKE @name AND
		patronymic ILIKE @patronymic`
		orderQ = `
	ORDER BY
		surname, name, wallet_number
	LIMIT @limit OFFSET @offset`
	)

	q := selectQ + whereQ + orderQ
	if filter.IsEmpty() {
		q = selectQ + orderQ
	}

	cs, err := db.NamedQuerySlice[dbClient](ctx, s.log, s.db, q, data)
	if err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toClients(cs), nil
}
