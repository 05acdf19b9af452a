// Package account assembles account snapshots and transaction histories from
// the aggregator and the local transfer records. Nothing here is persisted.
package account

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultRowsPerPage is the transaction page size when none is configured.
	DefaultRowsPerPage = 10

	UnknownInstitution = "Unknown Institution"
)

// Transaction sources
const (
	SourceAggregator = "aggregator"
	SourceTransfer   = "transfer"
)

// Transfer directions as seen from the viewed bank
const (
	TypeDebit  = "debit"
	TypeCredit = "credit"
)

// Account is a balance snapshot of one linked account, fetched per request.
type Account struct {
	ID               string              `json:"id"`
	AvailableBalance decimal.NullDecimal `json:"availableBalance"`
	CurrentBalance   decimal.Decimal     `json:"currentBalance"`
	InstitutionID    string              `json:"institutionId"`
	InstitutionName  string              `json:"institutionName"`
	Name             string              `json:"name"`
	OfficialName     string              `json:"officialName"`
	Mask             string              `json:"mask"`
	Type             string              `json:"type"`
	Subtype          string              `json:"subtype"`
	// ItemID is the id of the local bank record the account belongs to.
	ItemID      string `json:"itemId"`
	ShareableID string `json:"shareableId"`
}

type AccountsSummary struct {
	Accounts            []Account       `json:"accounts"`
	TotalBanks          int             `json:"totalBanks"`
	TotalCurrentBalance decimal.Decimal `json:"totalCurrentBalance"`
}

// EmptySummary is returned when there is nothing, or nothing reliable, to show.
func EmptySummary() AccountsSummary {
	return AccountsSummary{Accounts: []Account{}, TotalCurrentBalance: decimal.Zero}
}

type Transaction struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	PaymentChannel string          `json:"paymentChannel"`
	Type           string          `json:"type"`
	AccountID      string          `json:"accountId,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Pending        bool            `json:"pending"`
	Category       string          `json:"category"`
	Date           time.Time       `json:"date"`
	Image          string          `json:"image,omitempty"`
	Source         string          `json:"source"`
}

// AccountDetail is one account with its merged transaction history.
type AccountDetail struct {
	Account      Account       `json:"data"`
	Transactions []Transaction `json:"transactions"`
}

// Page is a slice of a merged transaction list.
type Page struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page"`
	RowsPerPage  int           `json:"rowsPerPage"`
	TotalPages   int           `json:"totalPages"`
	Total        int           `json:"total"`
}
