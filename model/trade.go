package model

import (
	"strings"

	"github.com/ericlagergren/decimal"
	"github.com/qgatssdev/nika/conv"
)

// CommissionGrant is the share of a fee attributed to one referrer of the paying user
type CommissionGrant struct {
	Level   ReferralLevel
	UserID  uint64
	Percent *decimal.Big
	Amount  *decimal.Big
}

// MarshalJSON godoc
func (g CommissionGrant) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"userId":  g.UserID,
		"percent": g.Percent.String(),
		"amount":  conv.Format(g.Amount),
	})
}

// FeeBreakdown splits a fee into cashback, commissions and the treasury residual.
// Cashback + treasury + sum of commission amounts always equals TotalFee.
type FeeBreakdown struct {
	TotalFee    *decimal.Big
	Cashback    *decimal.Big
	Treasury    *decimal.Big
	Commissions map[ReferralLevel]*CommissionGrant
}

// Grants returns the populated commission levels in level order
func (b *FeeBreakdown) Grants() []*CommissionGrant {
	grants := make([]*CommissionGrant, 0, len(b.Commissions))
	for level := ReferralLevel1; level <= MaxReferralDepth; level++ {
		if grant, ok := b.Commissions[level]; ok {
			grants = append(grants, grant)
		}
	}
	return grants
}

// TotalCommissions godoc
func (b *FeeBreakdown) TotalCommissions() *decimal.Big {
	total := conv.NewDecimalWithPrecision()
	for _, grant := range b.Commissions {
		total.Add(total, grant.Amount)
	}
	return total
}

// MarshalJSON godoc
func (b FeeBreakdown) MarshalJSON() ([]byte, error) {
	commissions := map[string]*CommissionGrant{}
	for level, grant := range b.Commissions {
		commissions[levelKey(level)] = grant
	}
	return json.Marshal(map[string]interface{}{
		"totalFee":    conv.Format(b.TotalFee),
		"cashback":    conv.Format(b.Cashback),
		"treasury":    conv.Format(b.Treasury),
		"commissions": commissions,
	})
}

func levelKey(level ReferralLevel) string {
	switch level {
	case ReferralLevel1:
		return "level1"
	case ReferralLevel2:
		return "level2"
	case ReferralLevel3:
		return "level3"
	}
	return "unknown"
}

// TradeRequest is a settled trade reported by the execution layer
type TradeRequest struct {
	UserID       uint64
	Volume       *decimal.Big
	Fees         *decimal.Big // nil when the fee must be derived from the user's fee tier
	PayTokenType TokenType    // optional, empty when the trade does not debit a wallet
	GetTokenType TokenType
}

// TradeResult is returned once a trade has been settled
type TradeResult struct {
	Message   string
	Volume    *decimal.Big
	Fees      *decimal.Big
	FeeRate   *decimal.Big
	Breakdown *FeeBreakdown
}

// MarshalJSON godoc
func (r TradeResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"message":   r.Message,
		"volume":    conv.Format(r.Volume),
		"fees":      conv.Format(r.Fees),
		"feeRate":   r.FeeRate.String(),
		"breakdown": r.Breakdown,
	})
}

// DecimalInput accepts an amount sent either as a JSON number or as a numeric string
type DecimalInput struct {
	V *decimal.Big
}

// UnmarshalJSON godoc
func (d *DecimalInput) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		d.V = nil
		return nil
	}
	value, ok := conv.Parse(raw)
	if !ok {
		return InvalidInput("invalid amount %q", raw)
	}
	d.V = value
	return nil
}

// TradeWebhookRequest is the payload posted by the execution layer once a trade is filled
type TradeWebhookRequest struct {
	UserID       uint64        `json:"userId" binding:"required"`
	Volume       *DecimalInput `json:"volume"`
	Fees         *DecimalInput `json:"fees"`
	TokenType    string        `json:"tokenType"`
	PayTokenType string        `json:"payTokenType"`
	GetTokenType string        `json:"getTokenType"`
}

// ToTradeRequest converts the webhook payload and rejects the single token shape
func (r *TradeWebhookRequest) ToTradeRequest() (*TradeRequest, error) {
	if r.TokenType != "" {
		return nil, InvalidInput("tokenType is not supported, use payTokenType and getTokenType")
	}
	if r.Volume == nil || r.Volume.V == nil {
		return nil, InvalidInput("Invalid trade volume")
	}
	request := &TradeRequest{
		UserID:       r.UserID,
		Volume:       r.Volume.V,
		PayTokenType: TokenType(strings.ToUpper(strings.TrimSpace(r.PayTokenType))),
		GetTokenType: TokenType(strings.ToUpper(strings.TrimSpace(r.GetTokenType))),
	}
	if r.Fees != nil {
		request.Fees = r.Fees.V
	}
	return request, nil
}
