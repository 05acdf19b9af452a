package http

import (
	"context"
	"net/http"
	"strconv"

	"horizon/internal/domain/account"
	"horizon/internal/shared/result"
)

// AccountReader is the part of account.Reader the handler uses.
type AccountReader interface {
	GetAccounts(ctx context.Context, userID string) result.Result[account.AccountsSummary]
	GetAccount(ctx context.Context, userID, itemID string) result.Result[*account.AccountDetail]
}

type AccountHandler struct {
	reader      AccountReader
	rowsPerPage int
}

func NewAccountHandler(reader AccountReader, rowsPerPage int) *AccountHandler {
	return &AccountHandler{reader: reader, rowsPerPage: rowsPerPage}
}

// AccountPage is one account with a page of its merged transactions.
type AccountPage struct {
	Account account.Account `json:"account"`
	account.Page
}

// HandleListAccounts handles GET /api/accounts. Provider failures are
// reported in the body's error field with a 200 status.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.reader.GetAccounts(r.Context(), userID))
}

// HandleGetAccount handles GET /api/accounts/{id}?page=N
func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "page must be a number")
			return
		}
		page = p
	}

	res := h.reader.GetAccount(r.Context(), userID, r.PathValue("id"))
	out := result.Map(res, func(d *account.AccountDetail) *AccountPage {
		if d == nil {
			return nil
		}
		return &AccountPage{
			Account: d.Account,
			Page:    account.Paginate(d.Transactions, page, h.rowsPerPage),
		}
	})
	writeJSON(w, http.StatusOK, out)
}
