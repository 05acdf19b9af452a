package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"horizon/internal/domain/account"
	"horizon/internal/shared/result"
)

// MockAccountReader is a mock implementation of AccountReader
type MockAccountReader struct {
	GetAccountsFunc func(ctx context.Context, userID string) result.Result[account.AccountsSummary]
	GetAccountFunc  func(ctx context.Context, userID, itemID string) result.Result[*account.AccountDetail]
}

func (m *MockAccountReader) GetAccounts(ctx context.Context, userID string) result.Result[account.AccountsSummary] {
	if m.GetAccountsFunc != nil {
		return m.GetAccountsFunc(ctx, userID)
	}
	return result.Ok(account.EmptySummary())
}

func (m *MockAccountReader) GetAccount(ctx context.Context, userID, itemID string) result.Result[*account.AccountDetail] {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, userID, itemID)
	}
	return result.Ok[*account.AccountDetail](nil)
}

type accountsEnvelope struct {
	Data  account.AccountsSummary `json:"data"`
	Error string                  `json:"error"`
}

func TestHandleListAccounts(t *testing.T) {
	tests := []struct {
		name      string
		res       result.Result[account.AccountsSummary]
		wantTotal string
		wantError string
	}{
		{
			name: "ok",
			res: result.Ok(account.AccountsSummary{
				Accounts:            []account.Account{{ID: "acc-1", CurrentBalance: decimal.RequireFromString("12.5")}},
				TotalBanks:          1,
				TotalCurrentBalance: decimal.RequireFromString("12.5"),
			}),
			wantTotal: "12.5",
		},
		{
			name:      "provider failure still renders",
			res:       result.Err("We couldn't load your accounts right now. Please try again.", account.EmptySummary()),
			wantTotal: "0",
			wantError: "We couldn't load your accounts right now. Please try again.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &MockAccountReader{
				GetAccountsFunc: func(ctx context.Context, userID string) result.Result[account.AccountsSummary] {
					return tt.res
				},
			}
			h := NewAccountHandler(reader, 10)
			rec := httptest.NewRecorder()
			h.HandleListAccounts(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/accounts", nil), "user-1"))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var env accountsEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !env.Data.TotalCurrentBalance.Equal(decimal.RequireFromString(tt.wantTotal)) {
				t.Errorf("total = %s, want %s", env.Data.TotalCurrentBalance, tt.wantTotal)
			}
			if env.Error != tt.wantError {
				t.Errorf("error = %q, want %q", env.Error, tt.wantError)
			}
			if env.Data.Accounts == nil {
				t.Error("accounts must be a list, not null")
			}
		})
	}
}

type accountPageEnvelope struct {
	Data  *AccountPage `json:"data"`
	Error string       `json:"error"`
}

func TestHandleGetAccount(t *testing.T) {
	txs := make([]account.Transaction, 15)
	for i := range txs {
		txs[i] = account.Transaction{ID: fmt.Sprintf("t%d", i), Date: time.Date(2024, 3, 15-i, 0, 0, 0, 0, time.UTC)}
	}
	var gotItem string
	reader := &MockAccountReader{
		GetAccountFunc: func(ctx context.Context, userID, itemID string) result.Result[*account.AccountDetail] {
			gotItem = itemID
			if itemID != "bank-1" {
				return result.Ok[*account.AccountDetail](nil)
			}
			return result.Ok(&account.AccountDetail{Account: account.Account{ID: "acc-1"}, Transactions: txs})
		},
	}
	h := NewAccountHandler(reader, 10)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/accounts/{id}", h.HandleGetAccount)

	tests := []struct {
		name      string
		url       string
		wantNull  bool
		wantLen   int
		wantFirst string
		wantCode  int
	}{
		{name: "first page", url: "/api/accounts/bank-1", wantLen: 10, wantFirst: "t0", wantCode: http.StatusOK},
		{name: "second page", url: "/api/accounts/bank-1?page=2", wantLen: 5, wantFirst: "t10", wantCode: http.StatusOK},
		{name: "past the end", url: "/api/accounts/bank-1?page=9", wantLen: 0, wantCode: http.StatusOK},
		{name: "max int page", url: "/api/accounts/bank-1?page=9223372036854775807", wantLen: 0, wantCode: http.StatusOK},
		{name: "unknown bank", url: "/api/accounts/bank-x", wantNull: true, wantCode: http.StatusOK},
		{name: "bad page", url: "/api/accounts/bank-1?page=abc", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withUser(httptest.NewRequest(http.MethodGet, tt.url, nil), "user-1")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var env accountPageEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if tt.wantNull {
				if env.Data != nil {
					t.Errorf("expected null data, got %+v", env.Data)
				}
				return
			}
			if gotItem != "bank-1" {
				t.Errorf("itemID = %q", gotItem)
			}
			if len(env.Data.Transactions) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(env.Data.Transactions), tt.wantLen)
			}
			if tt.wantLen > 0 && env.Data.Transactions[0].ID != tt.wantFirst {
				t.Errorf("first = %s, want %s", env.Data.Transactions[0].ID, tt.wantFirst)
			}
			if env.Data.TotalPages != 2 || env.Data.Total != 15 {
				t.Errorf("pagination = %+v", env.Data.Page)
			}
		})
	}
}
