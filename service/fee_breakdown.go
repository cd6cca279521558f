package service

import (
	"context"

	"github.com/ericlagergren/decimal"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
	"github.com/qgatssdev/nika/queries"
)

// CalculateFeeBreakdown splits a fee paid by userID into cashback, referrer commissions and treasury.
// defaultCashback is used when the user has no cashback override; nil means the configured default.
func (service *Service) CalculateFeeBreakdown(ctx context.Context, userID uint64, fee, defaultCashback *decimal.Big) (*model.FeeBreakdown, error) {
	user, err := service.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return service.calculateFeeBreakdown(ctx, service.repo, user, fee, defaultCashback)
}

func (service *Service) calculateFeeBreakdown(ctx context.Context, store queries.Store, user *model.User, fee, defaultCashback *decimal.Big) (*model.FeeBreakdown, error) {
	if fee == nil {
		fee = conv.NewDecimalWithPrecision()
	}
	if defaultCashback == nil {
		defaultCashback = service.cfg.Fee.GetDefaultCashback()
	}
	breakdown := &model.FeeBreakdown{
		TotalFee:    conv.NewDecimalWithPrecision().Copy(fee),
		Cashback:    conv.NewDecimalWithPrecision(),
		Treasury:    conv.NewDecimalWithPrecision().Copy(fee),
		Commissions: map[model.ReferralLevel]*model.CommissionGrant{},
	}
	if user.HasWaivedFees() || fee.Sign() <= 0 {
		return breakdown, nil
	}

	cashbackRate := defaultCashback
	if user.CashbackPercent != nil {
		cashbackRate = conv.FromFloat(*user.CashbackPercent)
	}
	breakdown.Cashback = share(fee, cashbackRate)

	chain, err := store.GetReferrerChain(ctx, user.ID, model.MaxReferralDepth)
	if err != nil {
		return nil, err
	}
	for i, referrer := range chain {
		level := model.ReferralLevel(i + 1)
		rate := service.commissionRate(user, level)
		breakdown.Commissions[level] = &model.CommissionGrant{
			Level:   level,
			UserID:  referrer.ID,
			Percent: rate,
			Amount:  share(fee, rate),
		}
	}

	breakdown.Treasury = conv.NewDecimalWithPrecision().Sub(fee, conv.Sum(breakdown.Cashback, breakdown.TotalCommissions()))
	return breakdown, nil
}

// commissionRate resolves the rate of a level from the paying user's overrides, then the configured default
func (service *Service) commissionRate(user *model.User, level model.ReferralLevel) *decimal.Big {
	var override *float64
	if level == model.ReferralLevel1 {
		override = user.DirectCommissionOverride()
	} else {
		override = user.LevelCommissionOverride(level)
	}
	if override != nil {
		return conv.FromFloat(*override)
	}
	return service.cfg.ReferralConfig.GetRate(level.Int())
}

// share returns amount × rate truncated to the distribution precision
func share(amount, rate *decimal.Big) *decimal.Big {
	return conv.CloneToPrecision(conv.NewDecimalWithPrecision().Mul(amount, rate))
}
