package handlers

import (
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/transaction"
	"github.com/shopspring/decimal"
)

type Client struct {
	WalletNumber string          `json:"walletNumber"`
	Surname      string          `json:"surname"`
	Name         string          `json:"name"`
	Patronymic   string          `json:"patronymic"`
	Balance      decimal.Decimal `json:"balance"`
}

type NewClientReq struct {
	WalletNumber string          `json:"walletNumber"`
	Surname      string          `json:"surname" validate:"required,max=50"`
	Name         string          `json:"name" validate:"required,max=50"`
	Patronymic   string          `json:"patronymic" validate:"max=50"`
	Balance      decimal.Decimal `json:"balance"`
}

// ReplaceClientReq replaces every personal field of a client.
type ReplaceClientReq struct {
	Surname    string `json:"surname" validate:"required,max=50"`
	Name       string `json:"name" validate:"required,max=50"`
	Patronymic string `json:"patronymic" validate:"max=50"`
}

// PatchClientReq edits the fields present in the body.
type PatchClientReq struct {
	Surname    *string `json:"surname,omitempty" validate:"omitempty,max=50"`
	Name       *string `json:"name,omitempty" validate:"omitempty,max=50"`
	Patronymic *string `json:"patronymic,omitempty" validate:"omitempty,max=50"`
}

type Transaction struct {
	GUID            string          `json:"guid"`
	Timestamp       string          `json:"timeStamp"`
	SenderWallet    string          `json:"senderWallet"`
	RecipientWallet string          `json:"recipientWallet"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyType    string          `json:"currencyType"`
	TransactionType string          `json:"transactionType"`
}

type TransactionDetailed struct {
	Transaction
	Sender    Client `json:"sender"`
	Recipient Client `json:"recipient"`
}

type NewTransactionReq struct {
	GUID            string          `json:"guid"`
	Timestamp       string          `json:"timeStamp" validate:"required,max=50"`
	SenderWallet    string          `json:"senderWallet" validate:"required"`
	RecipientWallet string          `json:"recipientWallet" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyType    string          `json:"currencyType" validate:"required,max=75"`
	TransactionType string          `json:"transactionType" validate:"required,max=75"`
}

func toClient(c client.Client) Client {
	return Client(c)
}

func toClients(cs []client.Client) []Client {
	slice := make([]Client, len(cs))
	for i, c := range cs {
		slice[i] = toClient(c)
	}
	return slice
}

func toNewClient(req NewClientReq) client.NewClient {
	return client.NewClient(req)
}

func toUpdateClient(req PatchClientReq) client.UpdateClient {
	return client.UpdateClient(req)
}

func toTransaction(t transaction.Transaction) Transaction {
	return Transaction(t)
}

func toTransactions(ts []transaction.Transaction) []Transaction {
	slice := make([]Transaction, len(ts))
	for i, t := range ts {
		slice[i] = toTransaction(t)
	}
	return slice
}

func toTransactionDetailed(d transaction.Detailed) TransactionDetailed {
	return TransactionDetailed{
		Transaction: toTransaction(d.Transaction),
		Sender:      toClient(d.Sender),
		Recipient:   toClient(d.Recipient),
	}
}

func toNewTransaction(req NewTransactionReq) transaction.NewTransaction {
	return transaction.NewTransaction(req)
}
