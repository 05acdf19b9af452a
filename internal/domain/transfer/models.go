// Package transfer records ACH transfers between linked banks.
package transfer

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultChannel  = "online"
	DefaultCategory = "Transfer"
)

// Transfer is the local record of a payments-provider transfer.
type Transfer struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Channel        string          `json:"channel"`
	Category       string          `json:"category"`
	SenderID       string          `json:"senderId"`
	SenderBankID   string          `json:"senderBankId"`
	ReceiverID     string          `json:"receiverId"`
	ReceiverBankID string          `json:"receiverBankId"`
	Email          string          `json:"email"`
	PaymentURL     string          `json:"paymentUrl"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type CreateParams struct {
	Name           string
	Amount         decimal.Decimal
	Channel        string
	Category       string
	SenderID       string
	SenderBankID   string
	ReceiverID     string
	ReceiverBankID string
	Email          string
	PaymentURL     string
}

// WithDefaults fills in channel and category.
func (p CreateParams) WithDefaults() CreateParams {
	if p.Channel == "" {
		p.Channel = DefaultChannel
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	return p
}

// CreateTransferParams is the payment transfer form.
type CreateTransferParams struct {
	SenderBankID        string `json:"senderBankId" validate:"required"`
	ReceiverShareableID string `json:"shareableId" validate:"required"`
	Amount              string `json:"amount" validate:"required"`
	Name                string `json:"name" validate:"max=100"`
	Email               string `json:"email" validate:"required,email"`
	IdempotencyKey      string `json:"-"`
}
