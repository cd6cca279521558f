package service

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/events"
	"github.com/qgatssdev/nika/model"
	"github.com/qgatssdev/nika/monitor"
	"github.com/qgatssdev/nika/queries"
)

// ClaimCommission withdraws every unclaimed commission of the user in the given token.
// Concurrent claims for the same user and token pay out each commission exactly once.
func (service *Service) ClaimCommission(ctx context.Context, userID uint64, token model.TokenType) (*model.ClaimResult, error) {
	logger := log.With().
		Str("section", "service").
		Str("method", "ClaimCommission").
		Uint64("user_id", userID).
		Str("token", token.String()).
		Logger()

	if err := service.validateToken(token, "tokenType"); err != nil {
		return nil, err
	}

	var claim *model.Claim
	err := service.repo.Transaction(ctx, func(tx queries.Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		rows, err := tx.ClaimCommissions(ctx, userID, token)
		if err != nil {
			return err
		}
		total := conv.NewDecimalWithPrecision()
		for _, row := range rows {
			total.Add(total, row.Amount.V)
		}
		if total.Sign() <= 0 {
			return model.InvalidInput("no claimable commissions")
		}

		claim = model.NewClaim(userID, token, total)
		if err := tx.CreateClaim(ctx, claim); err != nil {
			return err
		}
		return tx.SettleClaim(ctx, userID, token, total)
	})
	if err != nil {
		monitor.ClaimsProcessed.WithLabelValues(token.String(), "rejected").Inc()
		logger.Warn().Err(err).Msg("Claim rejected")
		return nil, err
	}

	monitor.ClaimsProcessed.WithLabelValues(token.String(), "claimed").Inc()
	logger.Info().Str("amount", conv.Format(claim.TotalAmount.V)).Uint64("claim_id", claim.ID).Msg("Commissions claimed")
	service.publish(events.CommissionClaimed, strconv.FormatUint(userID, 10), claim)

	return &model.ClaimResult{
		Message:   "Commissions claimed successfully",
		Amount:    claim.TotalAmount.V,
		TokenType: token,
	}, nil
}

// GetClaimable returns the unclaimed commission totals of the user per token
func (service *Service) GetClaimable(ctx context.Context, userID uint64) ([]model.ClaimableAmount, error) {
	if _, err := service.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return service.repo.GetClaimable(ctx, userID)
}

// GetClaims returns the claim history of the user, newest first
func (service *Service) GetClaims(ctx context.Context, userID uint64, limit, page int) (*model.ClaimList, error) {
	meta := model.NewPagingMeta(page, limit)
	claims, count, err := service.repo.ListClaims(ctx, userID, meta)
	if err != nil {
		return nil, err
	}
	meta.Count = count
	return &model.ClaimList{Claims: claims, Meta: meta}, nil
}
