package transactiondb

import (
	"github.com/rschio/walletledger/internal/core/transaction"
	"github.com/shopspring/decimal"
)

type dbTransaction struct {
	GUID            string          `db:"guid"`
	Timestamp       string          `db:"time_stamp"`
	SenderWallet    string          `db:"sender_wallet"`
	RecipientWallet string          `db:"recipient_wallet"`
	Amount          decimal.Decimal `db:"amount"`
	CurrencyType    string          `db:"currency_type"`
	TransactionType string          `db:"transaction_type"`
}

func toDBTransaction(t transaction.Transaction) dbTransaction {
	return dbTransaction(t)
}

func toTransaction(t dbTransaction) transaction.Transaction {
	return transaction.Transaction(t)
}

func toTransactions(ts []dbTransaction) []transaction.Transaction {
	slice := make([]transaction.Transaction, len(ts))
	for i, t := range ts {
		slice[i] = toTransaction(t)
	}
	return slice
}
