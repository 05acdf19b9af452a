package account

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/transfer"
	"horizon/internal/infrastructure/plaid"
	"horizon/internal/infrastructure/plaid/plaidtest"
)

// MockBankRepository is a mock implementation of bank.Repository
type MockBankRepository struct {
	GetByIDFunc      func(ctx context.Context, id string) (*bank.Bank, error)
	ListByUserIDFunc func(ctx context.Context, userID string) ([]*bank.Bank, error)
}

func (m *MockBankRepository) Create(ctx context.Context, params bank.CreateParams) (*bank.Bank, error) {
	return nil, errors.New("not implemented")
}

func (m *MockBankRepository) GetByID(ctx context.Context, id string) (*bank.Bank, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, bank.ErrNotFound
}

func (m *MockBankRepository) ListByUserID(ctx context.Context, userID string) ([]*bank.Bank, error) {
	if m.ListByUserIDFunc != nil {
		return m.ListByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockBankRepository) GetByAccountID(ctx context.Context, accountID string) (*bank.Bank, error) {
	return nil, bank.ErrNotFound
}

// MockTransferRepository is a mock implementation of transfer.Repository
type MockTransferRepository struct {
	ListByBankIDFunc func(ctx context.Context, bankID string) ([]*transfer.Transfer, error)
}

func (m *MockTransferRepository) Create(ctx context.Context, params transfer.CreateParams) (*transfer.Transfer, error) {
	return nil, errors.New("not implemented")
}

func (m *MockTransferRepository) GetByPaymentURL(ctx context.Context, paymentURL string) (*transfer.Transfer, error) {
	return nil, transfer.ErrNotFound
}

func (m *MockTransferRepository) ListByBankID(ctx context.Context, bankID string) ([]*transfer.Transfer, error) {
	if m.ListByBankIDFunc != nil {
		return m.ListByBankIDFunc(ctx, bankID)
	}
	return nil, nil
}

func banksFor(n int) []*bank.Bank {
	banks := make([]*bank.Bank, n)
	for i := range banks {
		banks[i] = &bank.Bank{
			ID:          fmt.Sprintf("bank-%d", i),
			UserID:      "user-1",
			AccountID:   fmt.Sprintf("acc-%d", i),
			AccessToken: fmt.Sprintf("access-%d", i),
			ShareableID: fmt.Sprintf("share-%d", i),
		}
	}
	return banks
}

// balancesByToken answers GetAccounts with a fixed current balance per token.
func balancesByToken(balances map[string]string) func(ctx context.Context, token string) (*plaid.AccountsResponse, error) {
	return func(ctx context.Context, token string) (*plaid.AccountsResponse, error) {
		bal, ok := balances[token]
		if !ok {
			return nil, fmt.Errorf("unknown token %s", token)
		}
		id := "acc-" + token[len("access-"):]
		return plaidtest.Checking(id, "item-"+id, bal), nil
	}
}

func TestGetAccounts_NoUser(t *testing.T) {
	r := NewReader(&MockBankRepository{}, &MockTransferRepository{}, &plaidtest.MockClient{})

	res := r.GetAccounts(context.Background(), "")
	require.True(t, res.IsOk())
	summary, _ := res.Value()
	assert.Empty(t, summary.Accounts)
	assert.Equal(t, 0, summary.TotalBanks)
	assert.True(t, summary.TotalCurrentBalance.IsZero())
}

func TestGetAccounts_ZeroBanks(t *testing.T) {
	r := NewReader(&MockBankRepository{}, &MockTransferRepository{}, &plaidtest.MockClient{})

	res := r.GetAccounts(context.Background(), "user-1")
	require.True(t, res.IsOk())
	summary, _ := res.Value()
	assert.NotNil(t, summary.Accounts)
	assert.Empty(t, summary.Accounts)
	assert.Equal(t, 0, summary.TotalBanks)
	assert.True(t, summary.TotalCurrentBalance.IsZero())
}

func TestGetAccounts_SumsCurrentBalances(t *testing.T) {
	tests := []struct {
		name     string
		balances []string
		want     string
	}{
		{"one bank", []string{"100.25"}, "100.25"},
		{"three banks", []string{"0.10", "0.20", "0.30"}, "0.60"},
		{"negative balance", []string{"50", "-75.5"}, "-25.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			banks := banksFor(len(tt.balances))
			tokens := map[string]string{}
			for i, b := range banks {
				tokens[b.AccessToken] = tt.balances[i]
			}
			repo := &MockBankRepository{
				ListByUserIDFunc: func(ctx context.Context, userID string) ([]*bank.Bank, error) {
					return banks, nil
				},
			}
			pc := &plaidtest.MockClient{GetAccountsFunc: balancesByToken(tokens)}
			r := NewReader(repo, &MockTransferRepository{}, pc)

			res := r.GetAccounts(context.Background(), "user-1")
			require.True(t, res.IsOk(), res.Reason())
			summary, _ := res.Value()
			assert.Equal(t, len(tt.balances), summary.TotalBanks)
			assert.True(t, summary.TotalCurrentBalance.Equal(decimal.RequireFromString(tt.want)),
				"total = %s, want %s", summary.TotalCurrentBalance, tt.want)

			for i, a := range summary.Accounts {
				assert.Equal(t, banks[i].ID, a.ItemID)
				assert.Equal(t, banks[i].ShareableID, a.ShareableID)
				assert.Equal(t, "First Platypus Bank", a.InstitutionName)
			}
		})
	}
}

func TestGetAccounts_OneFailureFailsBatch(t *testing.T) {
	banks := banksFor(3)
	repo := &MockBankRepository{
		ListByUserIDFunc: func(ctx context.Context, userID string) ([]*bank.Bank, error) {
			return banks, nil
		},
	}
	pc := &plaidtest.MockClient{GetAccountsFunc: balancesByToken(map[string]string{
		"access-0": "10",
		"access-2": "30",
	})}
	r := NewReader(repo, &MockTransferRepository{}, pc)

	res := r.GetAccounts(context.Background(), "user-1")
	require.False(t, res.IsOk())
	assert.Equal(t, msgAccountsFailed, res.Reason())
	summary := res.Fallback()
	assert.Empty(t, summary.Accounts)
	assert.True(t, summary.TotalCurrentBalance.IsZero())
}

func TestGetAccounts_ListFailure(t *testing.T) {
	repo := &MockBankRepository{
		ListByUserIDFunc: func(ctx context.Context, userID string) ([]*bank.Bank, error) {
			return nil, errors.New("db down")
		},
	}
	r := NewReader(repo, &MockTransferRepository{}, &plaidtest.MockClient{})

	res := r.GetAccounts(context.Background(), "user-1")
	assert.False(t, res.IsOk())
	assert.Empty(t, res.Fallback().Accounts)
}

func TestGetAccounts_FansOutPerBank(t *testing.T) {
	banks := banksFor(5)
	var calls atomic.Int32
	repo := &MockBankRepository{
		ListByUserIDFunc: func(ctx context.Context, userID string) ([]*bank.Bank, error) {
			return banks, nil
		},
	}
	pc := &plaidtest.MockClient{
		GetAccountsFunc: func(ctx context.Context, token string) (*plaid.AccountsResponse, error) {
			calls.Add(1)
			return plaidtest.Checking("acc", "item", "1"), nil
		},
	}
	r := NewReader(repo, &MockTransferRepository{}, pc)

	res := r.GetAccounts(context.Background(), "user-1")
	require.True(t, res.IsOk())
	assert.Equal(t, int32(5), calls.Load())
	assert.True(t, res.Fallback().TotalCurrentBalance.Equal(decimal.NewFromInt(5)))
}

func TestGetAccounts_UnknownInstitution(t *testing.T) {
	repo := &MockBankRepository{
		ListByUserIDFunc: func(ctx context.Context, userID string) ([]*bank.Bank, error) {
			return banksFor(1), nil
		},
	}
	pc := &plaidtest.MockClient{
		GetInstitutionFunc: func(ctx context.Context, id string) (*plaid.Institution, error) {
			return nil, errors.New("institution lookup failed")
		},
	}
	r := NewReader(repo, &MockTransferRepository{}, pc)

	res := r.GetAccounts(context.Background(), "user-1")
	require.True(t, res.IsOk())
	assert.Equal(t, UnknownInstitution, res.Fallback().Accounts[0].InstitutionName)
}

func singleBankRepo() *MockBankRepository {
	b := banksFor(1)[0]
	return &MockBankRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*bank.Bank, error) {
			if id == b.ID {
				return b, nil
			}
			return nil, bank.ErrNotFound
		},
	}
}

func TestGetAccount_NullResults(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		itemID string
	}{
		{"missing item id", "user-1", ""},
		{"unknown bank", "user-1", "bank-x"},
		{"bank owned by someone else", "user-2", "bank-0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(singleBankRepo(), &MockTransferRepository{}, &plaidtest.MockClient{})
			res := r.GetAccount(context.Background(), tt.userID, tt.itemID)
			require.True(t, res.IsOk())
			detail, _ := res.Value()
			assert.Nil(t, detail)
		})
	}
}

func TestGetAccount_MergesTransactions(t *testing.T) {
	pc := &plaidtest.MockClient{
		GetAccountsFunc: func(ctx context.Context, token string) (*plaid.AccountsResponse, error) {
			return plaidtest.Checking("acc-0", "item-0", "250"), nil
		},
		SyncTransactionsFunc: func(ctx context.Context, token string) ([]plaid.Transaction, error) {
			return []plaid.Transaction{
				{TransactionID: "p1", AccountID: "acc-0", DateString: "2024-03-01", Amount: decimal.NewFromInt(5)},
				{TransactionID: "p3", AccountID: "acc-0", DateString: "2024-03-03", Amount: decimal.NewFromInt(7)},
				{TransactionID: "other", AccountID: "acc-9", DateString: "2024-03-09"},
			}, nil
		},
	}
	transfers := &MockTransferRepository{
		ListByBankIDFunc: func(ctx context.Context, bankID string) ([]*transfer.Transfer, error) {
			return []*transfer.Transfer{
				{ID: "t2", SenderBankID: "bank-0", ReceiverBankID: "bank-9", CreatedAt: day(2)},
				{ID: "t4", SenderBankID: "bank-9", ReceiverBankID: "bank-0", CreatedAt: day(4)},
			}, nil
		},
	}
	r := NewReader(singleBankRepo(), transfers, pc)

	res := r.GetAccount(context.Background(), "user-1", "bank-0")
	require.True(t, res.IsOk())
	detail, _ := res.Value()
	require.NotNil(t, detail)

	assert.Equal(t, "acc-0", detail.Account.ID)
	assert.Equal(t, "bank-0", detail.Account.ItemID)
	assert.Equal(t, []string{"t4", "p3", "t2", "p1"}, ids(detail.Transactions))
	assert.Equal(t, TypeCredit, detail.Transactions[0].Type)
	assert.Equal(t, TypeDebit, detail.Transactions[2].Type)
}

func TestGetAccount_DegradesTransactionSources(t *testing.T) {
	pc := &plaidtest.MockClient{
		SyncTransactionsFunc: func(ctx context.Context, token string) ([]plaid.Transaction, error) {
			return nil, errors.New("sync failed")
		},
	}
	transfers := &MockTransferRepository{
		ListByBankIDFunc: func(ctx context.Context, bankID string) ([]*transfer.Transfer, error) {
			return nil, errors.New("db down")
		},
	}
	r := NewReader(singleBankRepo(), transfers, pc)

	res := r.GetAccount(context.Background(), "user-1", "bank-0")
	require.True(t, res.IsOk())
	detail, _ := res.Value()
	require.NotNil(t, detail)
	assert.NotNil(t, detail.Transactions)
	assert.Empty(t, detail.Transactions)
}

func TestGetAccount_AccountFetchFailure(t *testing.T) {
	pc := &plaidtest.MockClient{
		GetAccountsFunc: func(ctx context.Context, token string) (*plaid.AccountsResponse, error) {
			return nil, &plaid.Error{ErrorCode: plaid.CodeItemLoginRequired}
		},
	}
	r := NewReader(singleBankRepo(), &MockTransferRepository{}, pc)

	res := r.GetAccount(context.Background(), "user-1", "bank-0")
	assert.False(t, res.IsOk())
	assert.Equal(t, msgAccountFailed, res.Reason())
	assert.Nil(t, res.Fallback())
}
