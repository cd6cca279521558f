package model

import (
	"time"

	"github.com/ericlagergren/decimal/sql/postgres"
	"github.com/qgatssdev/nika/conv"
)

// Wallet holds the balance of a user in a single token.
// There is at most one wallet per (user, token) pair and the balance never drops below zero.
type Wallet struct {
	ID            uint64            `sql:"type:bigint" gorm:"primary_key" json:"id"`
	UserID        uint64            `gorm:"column:user_id" json:"userId"`
	TokenType     TokenType         `gorm:"column:token_type" json:"tokenType"`
	Balance       *postgres.Decimal `gorm:"column:balance" sql:"type:decimal(36,18)" json:"balance"`
	ClaimedAmount *postgres.Decimal `gorm:"column:claimed_amount" sql:"type:decimal(36,18)" json:"claimedAmount"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// NewWallet creates an empty wallet
func NewWallet(userID uint64, token TokenType) *Wallet {
	return &Wallet{
		UserID:        userID,
		TokenType:     token,
		Balance:       &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
		ClaimedAmount: &postgres.Decimal{V: conv.NewDecimalWithPrecision()},
	}
}

// MarshalJSON JSON encoding of a wallet
func (w Wallet) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":            w.ID,
		"userId":        w.UserID,
		"tokenType":     w.TokenType,
		"balance":       formatColumn(w.Balance),
		"claimedAmount": formatColumn(w.ClaimedAmount),
		"createdAt":     w.CreatedAt,
		"updatedAt":     w.UpdatedAt,
	})
}
