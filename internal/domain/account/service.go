package account

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/transfer"
	"horizon/internal/infrastructure/plaid"
	"horizon/internal/shared/result"
)

const (
	msgAccountsFailed = "We couldn't load your accounts right now. Please try again."
	msgAccountFailed  = "We couldn't load this account right now. Please try again."
)

// Reader builds account views. It never returns a Go error: failures become
// an Err result carrying a message and an empty fallback.
type Reader struct {
	banks     bank.Repository
	transfers transfer.Repository
	plaid     plaid.ClientInterface
}

func NewReader(banks bank.Repository, transfers transfer.Repository, plaidClient plaid.ClientInterface) *Reader {
	return &Reader{banks: banks, transfers: transfers, plaid: plaidClient}
}

// GetAccounts fetches a balance snapshot for every bank linked by the user.
// One failing bank fails the whole summary.
func (r *Reader) GetAccounts(ctx context.Context, userID string) result.Result[AccountsSummary] {
	if userID == "" {
		log.Println("GetAccounts: userID is required")
		return result.Ok(EmptySummary())
	}

	banks, err := r.banks.ListByUserID(ctx, userID)
	if err != nil {
		log.Printf("GetAccounts: listing banks for user %s failed: %v", userID, err)
		return result.Err(msgAccountsFailed, EmptySummary())
	}
	if len(banks) == 0 {
		return result.Ok(EmptySummary())
	}

	accounts := make([]Account, len(banks))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range banks {
		g.Go(func() error {
			acc, err := r.snapshot(gctx, b)
			if err != nil {
				return fmt.Errorf("bank %s: %w", b.ID, err)
			}
			accounts[i] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("GetAccounts for user %s failed: %v", userID, err)
		return result.Err(msgAccountsFailed, EmptySummary())
	}

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.CurrentBalance)
	}
	return result.Ok(AccountsSummary{
		Accounts:            accounts,
		TotalBanks:          len(accounts),
		TotalCurrentBalance: total,
	})
}

// GetAccount returns one bank's account and its merged transactions. A
// missing or foreign bank yields Ok(nil).
func (r *Reader) GetAccount(ctx context.Context, userID, itemID string) result.Result[*AccountDetail] {
	if itemID == "" {
		log.Println("GetAccount: itemID is required")
		return result.Ok[*AccountDetail](nil)
	}

	b, err := r.banks.GetByID(ctx, itemID)
	if err != nil {
		if !errors.Is(err, bank.ErrNotFound) {
			log.Printf("GetAccount: loading bank %s failed: %v", itemID, err)
		}
		return result.Ok[*AccountDetail](nil)
	}
	if b.UserID != userID {
		log.Printf("GetAccount: bank %s is not owned by user %s", itemID, userID)
		return result.Ok[*AccountDetail](nil)
	}

	acc, err := r.snapshot(ctx, b)
	if err != nil {
		log.Printf("GetAccount: bank %s failed: %v", itemID, err)
		return result.Err[*AccountDetail](msgAccountFailed, nil)
	}

	var aggregatorTxs, transferTxs []Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		aggregatorTxs = r.aggregatorTransactions(gctx, b, acc.ID)
		return nil
	})
	g.Go(func() error {
		transferTxs = r.transferTransactions(gctx, b.ID)
		return nil
	})
	_ = g.Wait()

	return result.Ok(&AccountDetail{
		Account:      acc,
		Transactions: Merge(aggregatorTxs, transferTxs),
	})
}

// snapshot fetches the bank's account balance and institution.
func (r *Reader) snapshot(ctx context.Context, b *bank.Bank) (Account, error) {
	resp, err := r.plaid.GetAccounts(ctx, b.AccessToken)
	if err != nil {
		return Account{}, err
	}
	if len(resp.Accounts) == 0 {
		return Account{}, errors.New("no accounts returned")
	}

	pa := resp.Accounts[0]
	for _, a := range resp.Accounts {
		if a.AccountID == b.AccountID {
			pa = a
			break
		}
	}

	acc := fromPlaidAccount(pa)
	acc.ItemID = b.ID
	acc.ShareableID = b.ShareableID
	acc.InstitutionID = resp.Item.InstitutionID
	acc.InstitutionName = r.institutionName(ctx, resp.Item.InstitutionID)
	return acc, nil
}

func (r *Reader) institutionName(ctx context.Context, institutionID string) string {
	if institutionID == "" {
		return UnknownInstitution
	}
	inst, err := r.plaid.GetInstitution(ctx, institutionID)
	if err != nil || inst == nil || inst.Name == "" {
		if err != nil {
			log.Printf("Institution lookup %s failed: %v", institutionID, err)
		}
		return UnknownInstitution
	}
	return inst.Name
}

func (r *Reader) aggregatorTransactions(ctx context.Context, b *bank.Bank, accountID string) []Transaction {
	raw, err := r.plaid.SyncTransactions(ctx, b.AccessToken)
	if err != nil {
		log.Printf("Transactions for bank %s unavailable: %v", b.ID, err)
		return []Transaction{}
	}
	txs := make([]Transaction, 0, len(raw))
	for _, t := range raw {
		if t.AccountID != "" && accountID != "" && t.AccountID != accountID {
			continue
		}
		txs = append(txs, FromPlaid(t))
	}
	return txs
}

func (r *Reader) transferTransactions(ctx context.Context, bankID string) []Transaction {
	transfers, err := r.transfers.ListByBankID(ctx, bankID)
	if err != nil {
		log.Printf("Transfers for bank %s unavailable: %v", bankID, err)
		return []Transaction{}
	}
	txs := make([]Transaction, 0, len(transfers))
	for _, t := range transfers {
		txs = append(txs, TransferToTransaction(t, bankID))
	}
	return txs
}
