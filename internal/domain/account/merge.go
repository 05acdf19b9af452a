package account

import (
	"log"
	"sort"

	"horizon/internal/domain/transfer"
	"horizon/internal/infrastructure/plaid"
)

// Merge concatenates aggregator rows and transfer rows and orders them most
// recent first. Rows with equal dates keep their concatenation order.
func Merge(aggregator, transfers []Transaction) []Transaction {
	merged := make([]Transaction, 0, len(aggregator)+len(transfers))
	merged = append(merged, aggregator...)
	merged = append(merged, transfers...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})
	return merged
}

// Paginate returns page (1-based) of txs. Pages past the end are empty.
func Paginate(txs []Transaction, page, rowsPerPage int) Page {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	if page < 1 {
		page = 1
	}
	total := len(txs)
	p := Page{
		Transactions: []Transaction{},
		Page:         page,
		RowsPerPage:  rowsPerPage,
		TotalPages:   (total + rowsPerPage - 1) / rowsPerPage,
		Total:        total,
	}
	// Compare page counts before multiplying so huge page numbers cannot overflow.
	if page > p.TotalPages {
		return p
	}
	start := (page - 1) * rowsPerPage
	end := min(start+rowsPerPage, total)
	p.Transactions = txs[start:end]
	return p
}

// TransferToTransaction renders a transfer from the point of view of bankID.
func TransferToTransaction(t *transfer.Transfer, bankID string) Transaction {
	kind := TypeCredit
	if t.SenderBankID == bankID {
		kind = TypeDebit
	}
	channel := t.Channel
	if channel == "" {
		channel = transfer.DefaultChannel
	}
	category := t.Category
	if category == "" {
		category = transfer.DefaultCategory
	}
	return Transaction{
		ID:             t.ID,
		Name:           t.Name,
		PaymentChannel: channel,
		Type:           kind,
		Amount:         t.Amount,
		Category:       category,
		Date:           t.CreatedAt,
		Source:         SourceTransfer,
	}
}

// FromPlaid converts an aggregator transaction. An unparseable date sorts last.
func FromPlaid(t plaid.Transaction) Transaction {
	date, err := t.GetDate()
	if err != nil {
		log.Printf("Transaction %s: %v", t.TransactionID, err)
	}
	tx := Transaction{
		ID:             t.TransactionID,
		Name:           t.Name,
		PaymentChannel: t.PaymentChannel,
		Type:           t.PaymentChannel,
		AccountID:      t.AccountID,
		Amount:         t.Amount,
		Pending:        t.Pending,
		Category:       t.PrimaryCategory(),
		Date:           date,
		Source:         SourceAggregator,
	}
	if t.LogoURL != nil {
		tx.Image = *t.LogoURL
	}
	return tx
}

func fromPlaidAccount(a plaid.Account) Account {
	return Account{
		ID:               a.AccountID,
		AvailableBalance: a.Balances.Available,
		CurrentBalance:   a.Balances.Current.Decimal,
		Name:             a.Name,
		OfficialName:     a.OfficialName,
		Mask:             a.Mask,
		Type:             a.Type,
		Subtype:          a.Subtype,
	}
}
