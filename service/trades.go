package service

import (
	"context"
	"sort"
	"strconv"

	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/events"
	"github.com/qgatssdev/nika/model"
	"github.com/qgatssdev/nika/monitor"
	"github.com/qgatssdev/nika/queries"
)

type walletOp struct {
	userID uint64
	token  model.TokenType
	amount *decimal.Big
	debit  bool
}

// sortWalletOps orders wallet statements by (user, token) so concurrent settlements lock rows in the same order
func sortWalletOps(ops []walletOp) {
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].userID != ops[j].userID {
			return ops[i].userID < ops[j].userID
		}
		return ops[i].token < ops[j].token
	})
}

// ProcessTrade settles the fee of a trade reported by the execution layer.
// Every wallet change and commission row is written in a single transaction.
func (service *Service) ProcessTrade(ctx context.Context, request *model.TradeRequest) (*model.TradeResult, error) {
	logger := log.With().
		Str("section", "service").
		Str("method", "ProcessTrade").
		Uint64("user_id", request.UserID).
		Logger()

	var (
		result      *model.TradeResult
		commissions []*model.Commission
		rejected    bool
	)
	err := service.repo.Transaction(ctx, func(tx queries.Store) error {
		user, err := tx.GetUserForUpdate(ctx, request.UserID)
		if err != nil {
			return err
		}
		if err := service.validateTrade(request); err != nil {
			rejected = true
			return err
		}

		fees := request.Fees
		if fees == nil {
			fees = service.deriveFee(user, request.Volume)
		}
		breakdown, err := service.calculateFeeBreakdown(ctx, tx, user, fees, nil)
		if err != nil {
			return err
		}

		ops := []walletOp{}
		if request.PayTokenType != "" {
			ops = append(ops, walletOp{userID: user.ID, token: request.PayTokenType, amount: request.Volume, debit: true})
		}
		if breakdown.Cashback.Sign() > 0 {
			ops = append(ops, walletOp{userID: user.ID, token: request.GetTokenType, amount: breakdown.Cashback})
		}
		commissions = commissions[:0]
		for _, grant := range breakdown.Grants() {
			if grant.Amount.Sign() <= 0 {
				continue
			}
			commission := model.NewCommission(grant.UserID, user.ID, grant.Level, grant.Amount, request.GetTokenType)
			if err := tx.CreateCommission(ctx, commission); err != nil {
				return err
			}
			commissions = append(commissions, commission)
			ops = append(ops, walletOp{userID: grant.UserID, token: request.GetTokenType, amount: grant.Amount})
		}

		sortWalletOps(ops)
		for _, op := range ops {
			if op.debit {
				err = tx.DecrementWallet(ctx, op.userID, op.token, op.amount)
			} else {
				err = tx.IncrementWallet(ctx, op.userID, op.token, op.amount)
			}
			if err != nil {
				return err
			}
		}

		result = &model.TradeResult{
			Message:   "Trade processed successfully",
			Volume:    request.Volume,
			Fees:      fees,
			FeeRate:   feeRate(fees, request.Volume),
			Breakdown: breakdown,
		}
		return nil
	})
	if rejected {
		monitor.TradesSettled.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if err != nil {
		monitor.TradesSettled.WithLabelValues("failed").Inc()
		logger.Warn().Err(err).Msg("Unable to settle trade")
		return nil, err
	}

	token := request.GetTokenType.String()
	monitor.TradesSettled.WithLabelValues("settled").Inc()
	for _, commission := range commissions {
		monitor.CommissionsGranted.WithLabelValues(strconv.Itoa(commission.Level.Int()), token).Inc()
		monitor.CommissionAmount.WithLabelValues(token).Add(toFloat(commission.Amount.V))
	}
	if result.Breakdown.Treasury.Sign() > 0 {
		monitor.TreasuryRetained.WithLabelValues(token).Add(toFloat(result.Breakdown.Treasury))
	}
	logger.Info().
		Str("volume", conv.Format(result.Volume)).
		Str("fees", conv.Format(result.Fees)).
		Str("treasury", conv.Format(result.Breakdown.Treasury)).
		Str("token", token).
		Int("commissions", len(commissions)).
		Msg("Trade settled")

	service.publish(events.TradeSettled, strconv.FormatUint(request.UserID, 10), map[string]interface{}{
		"userId":       request.UserID,
		"payTokenType": request.PayTokenType,
		"getTokenType": request.GetTokenType,
		"result":       result,
	})
	return result, nil
}

func (service *Service) validateTrade(request *model.TradeRequest) error {
	if request.Volume == nil || request.Volume.Sign() <= 0 {
		return model.InvalidInput("Invalid trade volume")
	}
	if request.Fees != nil && request.Fees.Sign() <= 0 {
		return model.InvalidInput("Invalid fee amount")
	}
	if err := service.validateToken(request.GetTokenType, "getTokenType"); err != nil {
		return err
	}
	if request.PayTokenType != "" {
		if err := service.validateToken(request.PayTokenType, "payTokenType"); err != nil {
			return err
		}
		if request.PayTokenType == request.GetTokenType {
			return model.InvalidInput("payTokenType and getTokenType must differ")
		}
	}
	return nil
}

// deriveFee computes the fee of a trade from the user's fee tier or the default rate
func (service *Service) deriveFee(user *model.User, volume *decimal.Big) *decimal.Big {
	rate := service.cfg.Fee.GetDefaultRate()
	if user.FeeTier != nil {
		rate = conv.FromFloat(*user.FeeTier)
	}
	return share(volume, rate)
}

func feeRate(fees, volume *decimal.Big) *decimal.Big {
	rate := conv.NewDecimalWithPrecision()
	rate.Context.RoundingMode = decimal.ToNearestEven
	rate.Quo(fees, volume)
	return rate
}

func toFloat(amount *decimal.Big) float64 {
	value, _ := amount.Float64()
	return value
}
