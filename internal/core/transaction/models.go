package transaction

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/shopspring/decimal"
)

const (
	maxTimestampLen = 50
	maxTypeLen      = 75
)

// Transaction is a transfer of Amount from SenderWallet to RecipientWallet.
// It is never changed once stored.
type Transaction struct {
	GUID            string
	Timestamp       string
	SenderWallet    string
	RecipientWallet string
	Amount          decimal.Decimal
	CurrencyType    string
	TransactionType string
}

// NewTransaction is the data required to record a transfer. GUID is
// optional; a fresh one is generated when it is empty.
type NewTransaction struct {
	GUID            string
	Timestamp       string
	SenderWallet    string
	RecipientWallet string
	Amount          decimal.Decimal
	CurrencyType    string
	TransactionType string
}

// Signature identifies a transfer regardless of its GUID. Two transactions
// with the same signature are duplicates.
type Signature struct {
	Timestamp       string
	SenderWallet    string
	RecipientWallet string
}

func (t Transaction) Signature() Signature {
	return Signature{
		Timestamp:       t.Timestamp,
		SenderWallet:    t.SenderWallet,
		RecipientWallet: t.RecipientWallet,
	}
}

// Detailed is a transaction along with its sender and recipient.
type Detailed struct {
	Transaction
	Sender    client.Client
	Recipient client.Client
}

// Filter selects transactions whose fields contain every non empty value.
type Filter struct {
	Timestamp       string
	SenderWallet    string
	RecipientWallet string
}

func (t Transaction) validateFields() error {
	switch {
	case strings.TrimSpace(t.Timestamp) == "" || utf8.RuneCountInString(t.Timestamp) > maxTimestampLen:
		return fieldError("timestamp", fmt.Sprintf("must have 1 to %d characters", maxTimestampLen))
	case strings.TrimSpace(t.CurrencyType) == "" || utf8.RuneCountInString(t.CurrencyType) > maxTypeLen:
		return fieldError("currency type", fmt.Sprintf("must have 1 to %d characters", maxTypeLen))
	case strings.TrimSpace(t.TransactionType) == "" || utf8.RuneCountInString(t.TransactionType) > maxTypeLen:
		return fieldError("transaction type", fmt.Sprintf("must have 1 to %d characters", maxTypeLen))
	}

	return nil
}

func fieldError(field, msg string) error {
	return &ledger.FieldError{Err: ErrInvalidArgument, Field: field, Msg: msg}
}
