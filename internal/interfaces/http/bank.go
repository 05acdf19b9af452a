package http

import (
	"context"
	"net/http"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/user"
)

// BankService is the part of bank.Service the handler uses.
type BankService interface {
	CreateLinkToken(ctx context.Context, u *user.User) (string, error)
	ExchangePublicToken(ctx context.Context, u *user.User, publicToken string) (*bank.Bank, error)
	ListBanks(ctx context.Context, userID string) []*bank.Bank
}

type BankHandler struct {
	banks BankService
	users UserService
}

func NewBankHandler(banks BankService, users UserService) *BankHandler {
	return &BankHandler{banks: banks, users: users}
}

type LinkTokenResponse struct {
	LinkToken string `json:"linkToken"`
}

type ExchangeRequest struct {
	PublicToken string `json:"publicToken"`
}

type ExchangeResponse struct {
	PublicTokenExchange string     `json:"publicTokenExchange"`
	Bank                *bank.Bank `json:"bank"`
}

type BanksResponse struct {
	Banks []*bank.Bank `json:"banks"`
}

// currentUser loads the authenticated user's document or writes an error.
func (h *BankHandler) currentUser(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	u := h.users.GetUserInfo(r.Context(), userID)
	if u == nil {
		writeErrorMessage(w, http.StatusNotFound, "User profile not found")
		return nil, false
	}
	return u, true
}

// HandleLinkToken handles POST /api/banks/link-token
func (h *BankHandler) HandleLinkToken(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	token, err := h.banks.CreateLinkToken(r.Context(), u)
	if err != nil {
		writeError(w, err, "Failed to create link token")
		return
	}
	writeJSON(w, http.StatusOK, LinkTokenResponse{LinkToken: token})
}

// HandleExchange handles POST /api/banks/exchange
func (h *BankHandler) HandleExchange(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req ExchangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PublicToken == "" {
		writeErrorMessage(w, http.StatusBadRequest, "publicToken is required")
		return
	}

	b, err := h.banks.ExchangePublicToken(r.Context(), u, req.PublicToken)
	if err != nil {
		writeError(w, err, "Failed to link bank account")
		return
	}
	writeJSON(w, http.StatusCreated, ExchangeResponse{PublicTokenExchange: "complete", Bank: b})
}

// HandleListBanks handles GET /api/banks
func (h *BankHandler) HandleListBanks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, BanksResponse{Banks: h.banks.ListBanks(r.Context(), userID)})
}
