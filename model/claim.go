package model

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"github.com/qgatssdev/nika/conv"
)

// Claim records a single aggregated withdrawal of commissions for one token
type Claim struct {
	ID          uint64            `sql:"type:bigint" gorm:"primary_key" json:"id"`
	UserID      uint64            `gorm:"column:user_id" json:"userId"`
	TokenType   TokenType         `gorm:"column:token_type" json:"tokenType"`
	TotalAmount *postgres.Decimal `gorm:"column:total_amount" sql:"type:decimal(36,18)" json:"totalAmount"`
	ClaimedAt   time.Time         `gorm:"column:claimed_at" json:"claimedAt"`
}

// NewClaim godoc
func NewClaim(userID uint64, token TokenType, total *decimal.Big) *Claim {
	return &Claim{
		UserID:      userID,
		TokenType:   token,
		TotalAmount: &postgres.Decimal{V: conv.CloneToPrecision(total)},
		ClaimedAt:   time.Now(),
	}
}

// MarshalJSON godoc
func (c Claim) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":          c.ID,
		"userId":      c.UserID,
		"tokenType":   c.TokenType,
		"totalAmount": formatColumn(c.TotalAmount),
		"claimedAt":   c.ClaimedAt,
	})
}

// ClaimList structure
type ClaimList struct {
	Claims []Claim    `json:"claims"`
	Meta   PagingMeta `json:"meta"`
}

// ClaimRequest structure
type ClaimRequest struct {
	TokenType TokenType `json:"tokenType" binding:"required"`
}

// ClaimResult is returned after a successful claim
type ClaimResult struct {
	Message   string       `json:"message"`
	Amount    *decimal.Big `json:"-"`
	TokenType TokenType    `json:"tokenType"`
}

// MarshalJSON godoc
func (r ClaimResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"message":   r.Message,
		"amount":    conv.Format(r.Amount),
		"tokenType": r.TokenType,
	})
}
