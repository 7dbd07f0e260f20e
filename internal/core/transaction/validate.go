package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/ledger"
)

// Lookup is the read side of the ledger used to admit a transaction.
type Lookup interface {
	// QueryClient returns client.ErrNotFound when the wallet is unknown.
	QueryClient(ctx context.Context, wallet string) (client.Client, error)
	// QueryByGUID and QueryBySignature return ErrNotFound when nothing
	// matches.
	QueryByGUID(ctx context.Context, guid string) (Transaction, error)
	QueryBySignature(ctx context.Context, sig Signature) (Transaction, error)
}

// Validate decides whether t may be admitted to the ledger. The checks run
// in a fixed order and the first failure is returned:
//
//  1. wallets (and GUID) are GUIDs: ledger.ErrMalformedIdentifier
//  2. sender differs from recipient: ErrSelfTransfer
//  3. amount is positive: ErrNonPositiveAmount
//  4. descriptive fields are present and short enough: ErrInvalidArgument
//  5. sender exists: ErrSenderNotFound
//  6. recipient exists: ErrRecipientNotFound
//  7. GUID is unused: ErrDuplicateIdentifier
//  8. signature is unused: ErrDuplicateTransaction
//  9. sender balance covers the amount: ErrInsufficientBalance
//
// Validate only reads through lookup.
func Validate(ctx context.Context, t Transaction, lookup Lookup) error {
	t, err := t.checkShape()
	if err != nil {
		return err
	}

	sender, err := lookup.QueryClient(ctx, t.SenderWallet)
	switch {
	case errors.Is(err, client.ErrNotFound):
		return ErrSenderNotFound
	case err != nil:
		return fmt.Errorf("query sender: %w", err)
	}

	_, err = lookup.QueryClient(ctx, t.RecipientWallet)
	switch {
	case errors.Is(err, client.ErrNotFound):
		return ErrRecipientNotFound
	case err != nil:
		return fmt.Errorf("query recipient: %w", err)
	}

	_, err = lookup.QueryByGUID(ctx, t.GUID)
	switch {
	case err == nil:
		return ErrDuplicateIdentifier
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("query guid: %w", err)
	}

	_, err = lookup.QueryBySignature(ctx, t.Signature())
	switch {
	case err == nil:
		return ErrDuplicateTransaction
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("query signature: %w", err)
	}

	if sender.Balance.LessThan(t.Amount) {
		return ErrInsufficientBalance
	}

	return nil
}

// checkShape runs the checks that need no ledger state and returns t with
// its identifiers in canonical form.
func (t Transaction) checkShape() (Transaction, error) {
	for _, id := range []*string{&t.SenderWallet, &t.RecipientWallet, &t.GUID} {
		canonical, err := ledger.ParseID(*id)
		if err != nil {
			return Transaction{}, err
		}
		*id = canonical
	}

	if t.SenderWallet == t.RecipientWallet {
		return Transaction{}, ErrSelfTransfer
	}

	if !t.Amount.IsPositive() {
		return Transaction{}, ErrNonPositiveAmount
	}

	if err := t.validateFields(); err != nil {
		return Transaction{}, err
	}

	return t, nil
}
