package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"margin-gateway/internal/hypermedia"
	"margin-gateway/pkg/crypto"
	"margin-gateway/pkg/db"
)

type createAccountRequest struct {
	AccountName string `json:"accountname"`
	APIPublic   string `json:"api_public"`
	APISecret   string `json:"api_secret"`
}

// accountData never includes secret material.
func accountData(a db.Account) map[string]any {
	return map[string]any{
		"accountname": a.DisplayName,
		"api_public":  a.PublicID,
	}
}

func (s *Server) getEntry(c *gin.Context) {
	doc := hypermedia.New(map[string]any{"name": "margin gateway"}).
		With(
			hypermedia.Self(hypermedia.EntryPath()),
			hypermedia.AccountsAll(),
			hypermedia.PriceAction(""),
			hypermedia.OrderBook(),
		)
	respond(c, http.StatusOK, doc)
}

func (s *Server) listAccounts(c *gin.Context) {
	accounts, err := s.Accounts.ListAccounts(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	items := make([]hypermedia.Document, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, hypermedia.New(accountData(a)).
			With(hypermedia.Self(hypermedia.AccountPath(a.PublicID))))
	}
	doc := hypermedia.New(nil).
		With(hypermedia.Self(hypermedia.AccountsPath()), hypermedia.AddAccount()).
		WithItems(items...)
	respond(c, http.StatusOK, doc)
}

func (s *Server) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := decodeBody(c, hypermedia.AccountSchema, &req); err != nil {
		s.fail(c, err)
		return
	}

	hash, err := crypto.HashSecret(req.APISecret, s.opts.BcryptCost)
	if err != nil {
		s.fail(c, err)
		return
	}
	sealed, err := s.Secrets.Seal(req.APISecret, req.APIPublic)
	if err != nil {
		s.fail(c, err)
		return
	}

	acc := db.Account{
		PublicID:     req.APIPublic,
		DisplayName:  req.AccountName,
		SecretHash:   hash,
		SecretSealed: sealed,
		KeyVersion:   s.Secrets.CurrentVersion(),
	}
	if err := s.Accounts.CreateAccount(c.Request.Context(), acc); err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Location", hypermedia.AccountPath(acc.PublicID))
	c.Status(http.StatusCreated)
}

func (s *Server) getAccount(c *gin.Context) {
	acc := accountFrom(c)
	id := acc.PublicID
	doc := hypermedia.New(accountData(*acc)).
		With(
			hypermedia.Self(hypermedia.AccountPath(id)),
			hypermedia.Collection(hypermedia.AccountsPath()),
			hypermedia.OrdersAll(id),
			hypermedia.PositionsAll(id),
			hypermedia.Balance(id),
			hypermedia.History(id),
			hypermedia.DeleteAccount(id),
		)
	respond(c, http.StatusOK, doc)
}

func (s *Server) deleteAccount(c *gin.Context) {
	if err := s.Accounts.DeleteAccount(c.Request.Context(), accountFrom(c).PublicID); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// notImplemented backs resources that are advertised but not served yet.
func (s *Server) notImplemented(c *gin.Context) {
	s.fail(c, errNotImplemented)
}
