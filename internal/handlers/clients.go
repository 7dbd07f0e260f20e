package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rschio/walletledger/internal/core/client"
	"github.com/rschio/walletledger/internal/core/ledger"
	"github.com/rschio/walletledger/internal/core/transaction"
)

func (s *Server) ListClients(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	filter := client.Filter{
		Surname:    q.Get("surname"),
		Name:       q.Get("name"),
		Patronymic: q.Get("patronymic"),
	}

	cs, err := s.client.Query(r.Context(), filter, page)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondList(w, toClients(cs))
}

func (s *Server) CreateClient(w http.ResponseWriter, r *http.Request) {
	req, err := decode[NewClientReq](r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.client.Create(r.Context(), toNewClient(req))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/clients/"+c.WalletNumber)
	respond(w, http.StatusCreated, toClient(c))
}

func (s *Server) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.client.QueryByWallet(r.Context(), chi.URLParam(r, "wallet"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respond(w, http.StatusOK, toClient(c))
}

func (s *Server) ReplaceClient(w http.ResponseWriter, r *http.Request) {
	req, err := decode[ReplaceClientReq](r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	uc := client.UpdateClient{
		Surname:    &req.Surname,
		Name:       &req.Name,
		Patronymic: &req.Patronymic,
	}
	s.updateClient(w, r, uc)
}

func (s *Server) PatchClient(w http.ResponseWriter, r *http.Request) {
	req, err := decode[PatchClientReq](r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.updateClient(w, r, toUpdateClient(req))
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request, uc client.UpdateClient) {
	c, err := s.client.Update(r.Context(), chi.URLParam(r, "wallet"), uc)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/clients/"+c.WalletNumber)
	respond(w, http.StatusAccepted, toClient(c))
}

func (s *Server) DeleteClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.client.Delete(r.Context(), chi.URLParam(r, "wallet"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respond(w, http.StatusAccepted, toClient(c))
}

func (s *Server) ListClientTransactions(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ts, err := s.transaction.QueryByClient(r.Context(), chi.URLParam(r, "wallet"), page)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	respondList(w, toTransactions(ts))
}

// RedirectClientTransaction sends the caller to the transaction resource
// when the client took part in it.
func (s *Server) RedirectClientTransaction(w http.ResponseWriter, r *http.Request) {
	wallet, err := ledger.ParseID(chi.URLParam(r, "wallet"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	t, err := s.transaction.QueryByGUID(r.Context(), chi.URLParam(r, "guid"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if t.SenderWallet != wallet && t.RecipientWallet != wallet {
		s.fail(w, r, fmt.Errorf("wallet[%s] guid[%s]: %w", wallet, t.GUID, transaction.ErrNotFound))
		return
	}

	http.Redirect(w, r, "/api/transactions/"+t.GUID, http.StatusFound)
}
