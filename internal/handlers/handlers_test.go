package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/client/store/clientdb"
	"github.com/rschio/walletledger/internal/core/transaction"
	"github.com/rschio/walletledger/internal/core/transaction/store/transactiondb"
	db "github.com/rschio/walletledger/internal/data/dbsql/pgx"
	"github.com/rschio/walletledger/internal/data/dbtest"
	"github.com/rschio/walletledger/internal/data/keylock"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log, database, teardown := dbtest.NewUnit(t, dbtest.WithMigrations(), dbtest.WithSeed())
	t.Cleanup(teardown)

	locker := keylock.New()
	server := NewServer(log,
		client.NewCore(clientdb.NewStore(log, database), locker),
		transaction.NewCore(transactiondb.NewStore(log, database), locker),
		func(ctx context.Context) error { return db.StatusCheck(ctx, database) },
	)

	httpServer := httptest.NewServer(APIMux(server, otel.GetTracerProvider().Tracer("")))
	t.Cleanup(httpServer.Close)

	return httpServer
}

// noRedirect is a client that reports redirects instead of following them.
var noRedirect = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := noRedirect.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	return resp, bs
}

func TestClients(t *testing.T) {
	srv := newTestServer(t)
	api := srv.URL + "/api/clients"

	t.Run("filter smith", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, api+"?surname=Smith", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var cs []Client
		if err := json.Unmarshal(body, &cs); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if len(cs) != 1 || cs[0].Name != "John" || cs[0].WalletNumber != dbtest.SeedSmith {
			t.Fatalf("got %+v, want only John Smith", cs)
		}
	})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"empty list", http.MethodGet, "?surname=nobody", "", http.StatusNoContent},
		{"limit too big", http.MethodGet, "?limit=101", "", http.StatusBadRequest},
		{"limit zero", http.MethodGet, "?limit=0", "", http.StatusBadRequest},
		{"negative offset", http.MethodGet, "?offset=-1", "", http.StatusBadRequest},
		{"limit not a number", http.MethodGet, "?limit=ten", "", http.StatusBadRequest},
		{"get malformed", http.MethodGet, "/not-a-guid", "", http.StatusBadRequest},
		{"get unknown", http.MethodGet, "/dfff0000-5d0f-0015-2872-08da3058ad5a", "", http.StatusNotFound},
		{"get", http.MethodGet, "/" + dbtest.SeedIvanov, "", http.StatusOK},
		{"create missing name", http.MethodPost, "", `{"surname":"Sidorov"}`, http.StatusBadRequest},
		{"create long surname", http.MethodPost, "", `{"surname":"` + strings.Repeat("a", 51) + `","name":"P"}`, http.StatusBadRequest},
		{"create duplicate wallet", http.MethodPost, "", `{"walletNumber":"` + dbtest.SeedDoe + `","surname":"S","name":"N"}`, http.StatusConflict},
		{"create malformed wallet", http.MethodPost, "", `{"walletNumber":"abc","surname":"S","name":"N"}`, http.StatusBadRequest},
		{"create", http.MethodPost, "", `{"surname":"Sidorov","name":"Petr","balance":10}`, http.StatusCreated},
		{"replace", http.MethodPut, "/" + dbtest.SeedIvanov, `{"surname":"Ivanov","name":"Ivan","patronymic":"Ivanovich"}`, http.StatusAccepted},
		{"replace unknown", http.MethodPut, "/dfff0000-5d0f-0015-2872-08da3058ad5a", `{"surname":"S","name":"N"}`, http.StatusNotFound},
		{"patch", http.MethodPatch, "/" + dbtest.SeedDoe, `{"name":"Janet"}`, http.StatusAccepted},
		{"delete with transactions", http.MethodDelete, "/" + dbtest.SeedPetrova, "", http.StatusConflict},
		{"delete", http.MethodDelete, "/" + dbtest.SeedSmith, "", http.StatusAccepted},
		{"delete again", http.MethodDelete, "/" + dbtest.SeedSmith, "", http.StatusNotFound},
		{"transactions", http.MethodGet, "/" + dbtest.SeedKuznets + "/transactions", "", http.StatusOK},
		{"transactions none", http.MethodGet, "/" + dbtest.SeedDoe + "/transactions", "", http.StatusNoContent},
		{"transactions unknown", http.MethodGet, "/dfff0000-5d0f-0015-2872-08da3058ad5a/transactions", "", http.StatusNotFound},
		{"transaction redirect", http.MethodGet, "/" + dbtest.SeedKuznets + "/transactions/" + dbtest.SeedTransaction, "", http.StatusFound},
		{"transaction of other client", http.MethodGet, "/" + dbtest.SeedDoe + "/transactions/" + dbtest.SeedTransaction, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, api+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("got status %d, want %d: %s", resp.StatusCode, tt.want, body)
			}
		})
	}

	t.Run("patch keeps other fields", func(t *testing.T) {
		_, body := do(t, http.MethodGet, api+"/"+dbtest.SeedDoe, "")

		var c Client
		if err := json.Unmarshal(body, &c); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if c.Name != "Janet" || c.Surname != "Doe" {
			t.Fatalf("got %+v", c)
		}
	})
}

func TestTransactions(t *testing.T) {
	srv := newTestServer(t)
	api := srv.URL + "/api/transactions"

	newTx := func(ts, sender, recipient, amount string) string {
		return `{"timeStamp":"` + ts + `","senderWallet":"` + sender + `","recipientWallet":"` + recipient +
			`","amount":` + amount + `,"currencyType":"Bitcoin","transactionType":"Transaction"}`
	}

	balance := func(t *testing.T, wallet string) decimal.Decimal {
		_, body := do(t, http.MethodGet, srv.URL+"/api/clients/"+wallet, "")
		var c Client
		if err := json.Unmarshal(body, &c); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		return c.Balance
	}

	resp, body := do(t, http.MethodPost, api, newTx("2023-01-01 10:00:00", dbtest.SeedSmith, dbtest.SeedDoe, "500"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("got status %d, want %d: %s", resp.StatusCode, http.StatusCreated, body)
	}

	var created Transaction
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if got := resp.Header.Get("Location"); got != "/api/transactions/"+created.GUID {
		t.Errorf("got location %q", got)
	}
	if b := balance(t, dbtest.SeedSmith); !b.IsZero() {
		t.Fatalf("got sender balance %s, want 0", b)
	}
	if b := balance(t, dbtest.SeedDoe); !b.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("got recipient balance %s, want 500", b)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"insufficient balance", newTx("2023-01-01 10:00:01", dbtest.SeedSmith, dbtest.SeedDoe, "1"), http.StatusBadRequest},
		{"self transfer", newTx("2023-01-01 10:00:02", dbtest.SeedDoe, dbtest.SeedDoe, "1"), http.StatusBadRequest},
		{"zero amount", newTx("2023-01-01 10:00:03", dbtest.SeedDoe, dbtest.SeedSmith, "0"), http.StatusBadRequest},
		{"malformed sender", newTx("2023-01-01 10:00:04", "12345", dbtest.SeedSmith, "1"), http.StatusBadRequest},
		{"unknown sender", newTx("2023-01-01 10:00:05", "dfff0000-5d0f-0015-2872-08da3058ad5a", dbtest.SeedSmith, "1"), http.StatusNotFound},
		{"unknown recipient", newTx("2023-01-01 10:00:06", dbtest.SeedDoe, "dfff0000-5d0f-0015-2872-08da3058ad5a", "1"), http.StatusNotFound},
		{"duplicate signature", newTx("2023-01-01 10:00:00", dbtest.SeedSmith, dbtest.SeedDoe, "1"), http.StatusConflict},
		{"duplicate guid", `{"guid":"` + dbtest.SeedTransaction + `",` + newTx("2023-01-01 10:00:07", dbtest.SeedDoe, dbtest.SeedSmith, "1")[1:], http.StatusConflict},
		{"missing currency", `{"timeStamp":"x","senderWallet":"` + dbtest.SeedDoe + `","recipientWallet":"` + dbtest.SeedSmith + `","amount":1,"transactionType":"T"}`, http.StatusBadRequest},
		{"not json", `amount=1`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, api, tt.body)
			if resp.StatusCode != tt.want {
				t.Fatalf("got status %d, want %d: %s", resp.StatusCode, tt.want, body)
			}
		})
	}

	if b := balance(t, dbtest.SeedSmith); !b.IsZero() {
		t.Fatalf("rejected transfers changed sender balance to %s", b)
	}

	t.Run("list", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, api+"?senderWallet="+dbtest.SeedSmith, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusOK)
		}
		var ts []Transaction
		if err := json.Unmarshal(body, &ts); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if len(ts) != 1 || ts[0].GUID != created.GUID {
			t.Fatalf("got %+v, want the created transaction", ts)
		}
	})

	t.Run("detailed", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, api+"/"+created.GUID, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusOK)
		}
		var d TransactionDetailed
		if err := json.Unmarshal(body, &d); err != nil {
			t.Fatalf("failed to unmarshal: %v", err)
		}
		if d.Sender.Surname != "Smith" || d.Recipient.Surname != "Doe" {
			t.Fatalf("got sender %q recipient %q", d.Sender.Surname, d.Recipient.Surname)
		}
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := do(t, http.MethodDelete, api+"/"+created.GUID, "")
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusAccepted)
		}
		resp, _ = do(t, http.MethodGet, api+"/"+created.GUID, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusNotFound)
		}
		resp, _ = do(t, http.MethodDelete, api+"/not-a-guid", "")
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})
}

func TestReadiness(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/readiness", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want %d", resp.StatusCode, http.StatusOK)
	}
}
