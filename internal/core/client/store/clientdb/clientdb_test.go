package clientdb

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/data/dbtest"
	"github.com/shopspring/decimal"
)

func TestQueryByWallet(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	c, err := store.QueryByWallet(ctx, dbtest.SeedSmith)
	if err != nil {
		t.Fatalf("failed to query client by wallet[%s]: %v", dbtest.SeedSmith, err)
	}

	want := client.Client{
		WalletNumber: dbtest.SeedSmith,
		Surname:      "Smith",
		Name:         "John",
		Balance:      decimal.NewFromInt(500),
	}
	if diff := cmp.Diff(want, c, cmp.Comparer(decimal.Decimal.Equal)); diff != "" {
		t.Errorf("wrong client (-want +got):\n%s", diff)
	}

	_, err = store.QueryByWallet(ctx, ledger.NewID())
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("got %v, want %v", err, client.ErrNotFound)
	}
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	cs, err := store.Query(ctx, client.Filter{Surname: "smith"}, ledger.DefaultPage())
	if err != nil {
		t.Fatalf("failed to query clients: %v", err)
	}
	if len(cs) != 1 || cs[0].WalletNumber != dbtest.SeedSmith {
		t.Fatalf("got %+v, want only John Smith", cs)
	}

	cs, err = store.Query(ctx, client.Filter{Patronymic: "ovich"}, ledger.DefaultPage())
	if err != nil {
		t.Fatalf("failed to query clients: %v", err)
	}
	got := make([]string, len(cs))
	for i, c := range cs {
		got[i] = c.Surname
	}
	if diff := cmp.Diff([]string{"Ivanov", "Kuznets"}, got); diff != "" {
		t.Errorf("wrong clients (-want +got):\n%s", diff)
	}

	cs, err = store.Query(ctx, client.Filter{Surname: "%"}, ledger.DefaultPage())
	if err != nil {
		t.Fatalf("failed to query clients: %v", err)
	}
	if len(cs) != 0 {
		t.Errorf("wildcard must be matched literally, got %d clients", len(cs))
	}

	cs, err = store.Query(ctx, client.Filter{}, ledger.DefaultPage())
	if err != nil {
		t.Fatalf("failed to query clients: %v", err)
	}
	got = make([]string, len(cs))
	for i, c := range cs {
		got[i] = c.Surname
	}
	if diff := cmp.Diff([]string{"Doe", "Ivanov", "Kuznets", "Petrova", "Smith"}, got); diff != "" {
		t.Errorf("wrong clients without filter (-want +got):\n%s", diff)
	}

	cs, err = store.Query(ctx, client.Filter{}, ledger.Page{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("failed to query clients: %v", err)
	}
	if len(cs) != 1 {
		t.Errorf("got %d clients on last page, want 1", len(cs))
	}
}

func TestCreateUpdate(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	err := store.Create(ctx, client.Client{WalletNumber: dbtest.SeedSmith, Surname: "X", Name: "Y"})
	if !errors.Is(err, client.ErrDuplicateWallet) {
		t.Fatalf("got %v, want %v", err, client.ErrDuplicateWallet)
	}

	c := client.Client{
		WalletNumber: ledger.NewID(),
		Surname:      "Sidorov",
		Name:         "Petr",
		Balance:      decimal.RequireFromString("12.5"),
	}
	if err := store.Create(ctx, c); err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	upd := c
	upd.Name = "Pyotr"
	upd.Balance = decimal.NewFromInt(1_000_000)
	if err := store.Update(ctx, upd); err != nil {
		t.Fatalf("failed to update client: %v", err)
	}

	got, err := store.QueryByWallet(ctx, c.WalletNumber)
	if err != nil {
		t.Fatalf("failed to query client: %v", err)
	}
	if got.Name != "Pyotr" {
		t.Errorf("got name %q, want %q", got.Name, "Pyotr")
	}
	if !got.Balance.Equal(c.Balance) {
		t.Errorf("update must keep the balance, got %s want %s", got.Balance, c.Balance)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	store := NewStore(log, database)

	if err := store.Delete(ctx, dbtest.SeedPetrova); !errors.Is(err, client.ErrHasTransactions) {
		t.Fatalf("got %v, want %v", err, client.ErrHasTransactions)
	}
	if _, err := store.QueryByWallet(ctx, dbtest.SeedPetrova); err != nil {
		t.Fatalf("referenced client must survive: %v", err)
	}

	if err := store.Delete(ctx, dbtest.SeedDoe); err != nil {
		t.Fatalf("failed to delete client: %v", err)
	}
	if err := store.Delete(ctx, dbtest.SeedDoe); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("got %v, want %v", err, client.ErrNotFound)
	}
}
