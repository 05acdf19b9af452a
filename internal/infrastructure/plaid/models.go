package plaid

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type LinkTokenRequest struct {
	ClientUserID string
	ClientName   string
}

type LinkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
	RequestID  string `json:"request_id"`
}

type ExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
	RequestID   string `json:"request_id"`
}

// AccountsResponse is the payload of /accounts/get
type AccountsResponse struct {
	Accounts  []Account `json:"accounts"`
	Item      Item      `json:"item"`
	RequestID string    `json:"request_id"`
}

type Item struct {
	ItemID        string `json:"item_id"`
	InstitutionID string `json:"institution_id"`
}

type Account struct {
	AccountID    string   `json:"account_id"`
	Balances     Balances `json:"balances"`
	Mask         string   `json:"mask"`
	Name         string   `json:"name"`
	OfficialName string   `json:"official_name"`
	Type         string   `json:"type"`
	Subtype      string   `json:"subtype"`
}

type Balances struct {
	Available       decimal.NullDecimal `json:"available"`
	Current         decimal.NullDecimal `json:"current"`
	ISOCurrencyCode string              `json:"iso_currency_code"`
}

type Institution struct {
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
}

type institutionResponse struct {
	Institution Institution `json:"institution"`
}

// Transaction is an entry from the "added" list of /transactions/sync
type Transaction struct {
	TransactionID  string          `json:"transaction_id"`
	AccountID      string          `json:"account_id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Pending        bool            `json:"pending"`
	DateString     string          `json:"date"` // "2024-03-01"
	PaymentChannel string          `json:"payment_channel"`
	Category       []string        `json:"category"`
	LogoURL        *string         `json:"logo_url"`
}

// GetDate parses the posting date
func (t *Transaction) GetDate() (time.Time, error) {
	d, err := time.Parse("2006-01-02", t.DateString)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", t.DateString, err)
	}
	return d, nil
}

// PrimaryCategory returns the first category or "".
func (t *Transaction) PrimaryCategory() string {
	if len(t.Category) == 0 {
		return ""
	}
	return t.Category[0]
}

type syncResponse struct {
	Added      []Transaction `json:"added"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}

type processorTokenResponse struct {
	ProcessorToken string `json:"processor_token"`
}
