package fms

import (
	"errors"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
)

var ErrInvalidAmount = errors.New("INVALID_AMOUNT")

func checkNaNs(amount *decimal.Big) error {
	if amount == nil || conv.NewDecimalWithPrecision().CheckNaNs(amount, nil) {
		return ErrInvalidAmount
	}
	return nil
}

func copyFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func copyStructure(structure *model.CustomCommissionStructure) *model.CustomCommissionStructure {
	if structure == nil {
		return nil
	}
	next := *structure
	next.DirectCommission = copyFloat(structure.DirectCommission)
	if structure.LevelCommissions != nil {
		next.LevelCommissions = &model.LevelCommissions{
			Level2: copyFloat(structure.LevelCommissions.Level2),
			Level3: copyFloat(structure.LevelCommissions.Level3),
		}
	}
	return &next
}

func copyUser(user *model.User) *model.User {
	next := *user
	if user.ReferralCode != nil {
		code := *user.ReferralCode
		next.ReferralCode = &code
	}
	if user.ReferrerID != nil {
		referrerID := *user.ReferrerID
		next.ReferrerID = &referrerID
	}
	next.FeeTier = copyFloat(user.FeeTier)
	next.CashbackPercent = copyFloat(user.CashbackPercent)
	next.CustomCommissionStructure = copyStructure(user.CustomCommissionStructure)
	return &next
}

func copyColumn(amount *postgres.Decimal) *postgres.Decimal {
	if amount == nil || amount.V == nil {
		return &postgres.Decimal{V: conv.NewDecimalWithPrecision()}
	}
	return &postgres.Decimal{V: conv.CloneToPrecision(amount.V)}
}

func copyCommission(commission *model.Commission) *model.Commission {
	next := *commission
	next.Amount = copyColumn(commission.Amount)
	return &next
}

func copyClaim(claim *model.Claim) *model.Claim {
	next := *claim
	next.TotalAmount = copyColumn(claim.TotalAmount)
	return &next
}
