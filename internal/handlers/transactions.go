package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rschio/walletledger/internal/core/transaction"
)

func (s *Server) ListTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := transaction.Filter{
		Timestamp:       q.Get("timeStamp"),
		SenderWallet:    q.Get("senderWallet"),
		RecipientWallet: q.Get("recipientWallet"),
	}

	ts, err := s.transaction.Query(r.Context(), filter, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondList(w, toTransactions(ts))
}

func (s *Server) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := decode[NewTransactionReq](r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	t, err := s.transaction.Create(r.Context(), toNewTransaction(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/transactions/"+t.GUID)
	respond(w, http.StatusCreated, toTransaction(t))
}

func (s *Server) GetTransaction(w http.ResponseWriter, r *http.Request) {
	d, err := s.transaction.QueryDetailed(r.Context(), chi.URLParam(r, "guid"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respond(w, http.StatusOK, toTransactionDetailed(d))
}

func (s *Server) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.transaction.Delete(r.Context(), chi.URLParam(r, "guid"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respond(w, http.StatusAccepted, toTransaction(t))
}
