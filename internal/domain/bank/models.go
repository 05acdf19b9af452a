// Package bank binds aggregator items to users and their payment funding sources.
package bank

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("bank not found")
	ErrAlreadyLinked = errors.New("bank account already linked")
	ErrInvalidBank   = errors.New("invalid bank record")
)

// Bank records one linked aggregator item. It is written once and never mutated.
type Bank struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	BankID           string    `json:"bankId"`
	AccountID        string    `json:"accountId"`
	AccessToken      string    `json:"-"`
	FundingSourceURL string    `json:"fundingSourceUrl"`
	ShareableID      string    `json:"shareableId"`
	CreatedAt        time.Time `json:"createdAt"`
}

type CreateParams struct {
	UserID           string
	BankID           string
	AccountID        string
	AccessToken      string
	FundingSourceURL string
	ShareableID      string
}

func (p CreateParams) Validate() error {
	if p.UserID == "" || p.BankID == "" || p.AccountID == "" || p.AccessToken == "" || p.FundingSourceURL == "" || p.ShareableID == "" {
		return ErrInvalidBank
	}
	return nil
}
