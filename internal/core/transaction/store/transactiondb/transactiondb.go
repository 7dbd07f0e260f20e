// Package transactiondb contains transaction related CRUD functionality on
// Postgres.
package transactiondb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/client/store/clientdb"
	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/core/transaction"
	db "github.com/rschio/walletledger/internal/data/dbsql/pgx"
	"github.com/shopspring/decimal"
)

type Store struct {
	log     *slog.Logger
	db      db.DB
	clients *clientdb.Store
}

func NewStore(log *slog.Logger, database db.DB) *Store {
	return &Store{
		log:     log,
		db:      database,
		clients: clientdb.NewStore(log, database),
	}
}

func (s *Store) ExecUnderTx(ctx context.Context, fn func(txStore transaction.Store) error) error {
	return db.WithinTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(NewStore(s.log, tx))
	})
}

func (s *Store) QueryClient(ctx context.Context, wallet string) (client.Client, error) {
	return s.clients.QueryByWallet(ctx, wallet)
}

func (s *Store) Debit(ctx context.Context, wallet string, amount decimal.Decimal) error {
	data := struct {
		WalletNumber string          `db:"wallet_number"`
		Amount       decimal.Decimal `db:"amount"`
	}{
		WalletNumber: wallet,
		Amount:       amount,
	}

	const q = `
	UPDATE
		clients
	SET
		balance = balance - @amount
	WHERE
		wallet_number = @wallet_number AND
		balance >= @amount`

	n, err := db.NamedExecRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("namedexec: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Either the wallet is gone or the balance does not cover the amount.
	if _, err := s.clients.QueryByWallet(ctx, wallet); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return transaction.ErrSenderNotFound
		}
		return err
	}

	return transaction.ErrInsufficientBalance
}

func (s *Store) Credit(ctx context.Context, wallet string, amount decimal.Decimal) error {
	data := struct {
		WalletNumber string          `db:"wallet_number"`
		Amount       decimal.Decimal `db:"amount"`
	}{
		WalletNumber: wallet,
		Amount:       amount,
	}

	const q = `
	UPDATE
		clients
	SET
		balance = balance + @amount
	WHERE
		wallet_number = @wallet_number`

	n, err := db.NamedExecRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("namedexec: %w", err)
	}
	if n == 0 {
		return transaction.ErrRecipientNotFound
	}

	return nil
}

func (s *Store) Add(ctx context.Context, t transaction.Transaction) error {
	const q = `
	INSERT INTO transactions
		(guid, time_stamp, sender_wallet, recipient_wallet, amount, currency_type, transaction_type)
	VALUES
		(@guid, @time_stamp, @sender_wallet, @recipient_wallet, @amount, @currency_type, @transaction_type)`

	if err := db.NamedExec(ctx, s.log, s.db, q, toDBTransaction(t)); err != nil {
		switch db.Constraint(err) {
		case "transactions_pkey":
			return transaction.ErrDuplicateIdentifier
		case "transactions_signature_key":
			return transaction.ErrDuplicateTransaction
		case "transactions_sender_fkey":
			return transaction.ErrSenderNotFound
		case "transactions_recipient_fkey":
			return transaction.ErrRecipientNotFound
		}
		return fmt.Errorf("namedexec: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, guid string) error {
	data := struct {
		GUID string `db:"guid"`
	}{
		GUID: guid,
	}

	const q = `
	DELETE FROM
		transactions
	WHERE
		guid = @guid`

	n, err := db.NamedExecRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("namedexec: %w", err)
	}
	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

func (s *Store) QueryByGUID(ctx context.Context, guid string) (transaction.Transaction, error) {
	data := struct {
		GUID string `db:"guid"`
	}{
		GUID: guid,
	}

	const q = `
	SELECT
		guid, time_stamp, sender_wallet, recipient_wallet, amount, currency_type, transaction_type
	FROM
		transactions
	WHERE
		guid = @guid`

	t, err := db.NamedQueryStruct[dbTransaction](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return transaction.Transaction{}, transaction.ErrNotFound
		}
		return transaction.Transaction{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toTransaction(t), nil
}

func (s *Store) QueryBySignature(ctx context.Context, sig transaction.Signature) (transaction.Transaction, error) {
	data := struct {
		Timestamp       string `db:"time_stamp"`
		SenderWallet    string `db:"sender_wallet"`
		RecipientWallet string `db:"recipient_wallet"`
	}{
		Timestamp:       sig.Timestamp,
		SenderWallet:    sig.SenderWallet,
		RecipientWallet: sig.RecipientWallet,
	}

	const q = `
	SELECT
		guid, time_stamp, sender_wallet, recipient_wallet, amount, currency_type, transaction_type
	FROM
		transactions
	WHERE
		time_stamp = @time_stamp AND
		sender_wallet = @sender_wallet AND
		recipient_wallet = @recipient_wallet`

	t, err := db.NamedQueryStruct[dbTransaction](ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, db.ErrDBNotFound) {
			return transaction.Transaction{}, transaction.ErrNotFound
		}
		return transaction.Transaction{}, fmt.Errorf("namedquerystruct: %w", err)
	}

	return toTransaction(t), nil
}

func (s *Store) Query(ctx context.Context, filter transaction.Filter, page ledger.Page) ([]transaction.Transaction, error) {
	data := struct {
		Timestamp       string `db:"time_stamp"`
		SenderWallet    string `db:"sender_wallet"`
		RecipientWallet string `db:"recipient_wallet"`
		Limit           int    `db:"limit"`
		Offset          int    `db:"offset"`
	}{
		Timestamp:       db.LikePattern(filter.Timestamp),
		SenderWallet:    db.LikePattern(filter.SenderWallet),
		RecipientWallet: db.LikePattern(filter.RecipientWallet),
		Limit:           page.Limit,
		Offset:          page.Offset,
	}

	const q = `
	SELECT
		guid, time_stamp, sender_wallet, recipient_wallet, amount, currency_type, transaction_type
	FROM
		transactions
	WHERE
		time_stamp LIKE @time_stamp AND
		sender_wallet::text LIKE @sender_wallet AND
		recipient_wallet::text LIKE @recipient_wallet
	ORDER BY
		time_stamp, guid
	LIMIT @limit OFFSET @offset`

	ts, err := db.NamedQuerySlice[dbTransaction](ctx, s.log, s.db, q, data)
	if err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toTransactions(ts), nil
}

func (s *Store) QueryByClient(ctx context.Context, wallet string, page ledger.Page) ([]transaction.Transaction, error) {
	data := struct {
		WalletNumber string `db:"wallet_number"`
		Limit        int    `db:"limit"`
		Offset       int    `db:"offset"`
	}{
		WalletNumber: wallet,
		Limit:        page.Limit,
		Offset:       page.Offset,
	}

	const q = `
	SELECT
		guid, time_stamp, sender_wallet, recipient_wallet, amount, currency_type, transaction_type
	FROM
		transactions
	WHERE
		sender_wallet = @wallet_number OR
		recipient_wallet = @wallet_number
	ORDER BY
		time_stamp, guid
	LIMIT @limit OFFSET @offset`

	ts, err := db.NamedQuerySlice[dbTransaction](ctx, s.log, s.db, q, data)
	if err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toTransactions(ts), nil
}
