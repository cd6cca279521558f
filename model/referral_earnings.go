package model

import (
	"time"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"
	"github.com/qgatssdev/nika/conv"
)

// Commission is an immutable ledger row granted to a referrer for a fee paid by one of their referees.
// IsClaimed goes from false to true exactly once.
type Commission struct {
	ID           uint64            `sql:"type:bigint" gorm:"primary_key" json:"id"`
	UserID       uint64            `gorm:"column:user_id" json:"userId"`
	SourceUserID uint64            `gorm:"column:source_user_id" json:"sourceUserId"`
	Level        ReferralLevel     `gorm:"column:level" json:"level"`
	Amount       *postgres.Decimal `gorm:"column:amount" sql:"type:decimal(36,18)" json:"amount"`
	TokenType    TokenType         `gorm:"column:token_type" json:"tokenType"`
	IsClaimed    bool              `gorm:"column:is_claimed" json:"isClaimed"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// NewCommission creates an unclaimed commission row
func NewCommission(userID, sourceUserID uint64, level ReferralLevel, amount *decimal.Big, token TokenType) *Commission {
	return &Commission{
		UserID:       userID,
		SourceUserID: sourceUserID,
		Level:        level,
		Amount:       &postgres.Decimal{V: conv.CloneToPrecision(amount)},
		TokenType:    token,
	}
}

// MarshalJSON JSON encoding of a commission entry
func (c Commission) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":           c.ID,
		"userId":       c.UserID,
		"sourceUserId": c.SourceUserID,
		"level":        c.Level,
		"amount":       formatColumn(c.Amount),
		"tokenType":    c.TokenType,
		"isClaimed":    c.IsClaimed,
		"createdAt":    c.CreatedAt,
	})
}

// CommissionList structure
type CommissionList struct {
	Commissions []Commission `json:"commissions"`
	Meta        PagingMeta   `json:"meta"`
}

// ClaimableAmount is the unclaimed commission total of a user for one token
type ClaimableAmount struct {
	TokenType TokenType         `gorm:"column:token_type" json:"tokenType"`
	Amount    *postgres.Decimal `gorm:"column:amount" sql:"type:decimal(36,18)" json:"amount"`
}

// MarshalJSON godoc
func (c ClaimableAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"tokenType": c.TokenType,
		"amount":    formatColumn(c.Amount),
	})
}
