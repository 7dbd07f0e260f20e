package clientdb

import (
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/shopspring/decimal"
)

type dbClient struct {
	WalletNumber string          `db:"wallet_number"`
	Surname      string          `db:"surname"`
	Name         string          `db:"name"`
	Patronymic   string          `db:"patronymic"`
	Balance      decimal.Decimal `db:"balance"`
}

func toDBClient(c client.Client) dbClient {
	return dbClient(c)
}

func toClient(c dbClient) client.Client {
	return client.Client(c)
}

func toClients(cs []dbClient) []client.Client {
	slice := make([]client.Client, len(cs))
	for i, c := range cs {
		slice[i] = toClient(c)
	}
	return slice
}
