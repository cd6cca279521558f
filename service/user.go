package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
	"github.com/qgatssdev/nika/queries"
)

const signupAttempts = 3

// Signup creates a user with a referral code and one empty wallet per token, and registers the
// optional referral, all in one transaction
func (service *Service) Signup(ctx context.Context, request *model.SignupRequest) (*model.SignupResult, error) {
	logger := log.With().
		Str("section", "service").
		Str("method", "Signup").
		Logger()

	code := strings.TrimSpace(request.ReferralCode)
	if code != "" {
		if _, err := service.repo.GetUserByReferralCode(ctx, code); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, model.InvalidInput("Invalid referral code")
			}
			return nil, err
		}
	}

	user := model.NewUser(request.FirstName, request.LastName, request.Email, request.Password)
	if err := user.EncodePass(); err != nil {
		return nil, errors.Wrap(err, "unable to hash password")
	}
	password := user.Password

	var (
		result *model.SignupResult
		err    error
	)
	// a collision on the generated referral code aborts the transaction, so the whole signup is retried
	for attempt := 0; attempt < signupAttempts; attempt++ {
		result, err = service.signup(ctx, user, code)
		if err == nil || !errors.Is(err, model.ErrConflict) {
			break
		}
		user = model.NewUser(request.FirstName, request.LastName, request.Email, password)
	}
	if err != nil {
		logger.Warn().Err(err).Str("email", user.Email).Msg("Signup failed")
		return nil, err
	}

	logger.Info().Uint64("user_id", result.User.ID).Msg("User created")
	service.afterReferral(result.User.ID, result.Referral)
	return result, nil
}

func (service *Service) signup(ctx context.Context, user *model.User, code string) (*model.SignupResult, error) {
	result := &model.SignupResult{Message: "User created successfully", User: user}
	err := service.repo.Transaction(ctx, func(tx queries.Store) error {
		_, err := tx.GetUserByEmail(ctx, user.Email)
		if err == nil {
			return model.InvalidInput("User already exists")
		}
		if !errors.Is(err, model.ErrNotFound) {
			return err
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		if err := tx.SeedWallets(ctx, user.ID, service.tokens.List()); err != nil {
			return err
		}
		if code == "" {
			return nil
		}
		result.Referral, err = service.registerReferral(ctx, tx, code, user.ID)
		if err != nil {
			return err
		}
		result.User, err = tx.GetUser(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetProfile returns the user together with its wallets
func (service *Service) GetProfile(ctx context.Context, userID uint64) (*model.UserProfile, error) {
	user, err := service.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	wallets, err := service.repo.GetWallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.UserProfile{User: *user, Wallets: wallets}, nil
}

// UpdateCommissionStructure changes the commission overrides of a user.
// Every rate must lie in [0, 1] and the resulting distribution may not exceed the whole fee.
func (service *Service) UpdateCommissionStructure(ctx context.Context, userID uint64, request *model.UpdateCommissionStructureRequest) (*model.User, error) {
	for field, rate := range request.Rates() {
		if rate != nil && (*rate < 0 || *rate > 1) {
			return nil, model.InvalidInput("%s must be between 0 and 1", field)
		}
	}

	var updated *model.User
	err := service.repo.Transaction(ctx, func(tx queries.Store) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		next := *user
		next.CustomCommissionStructure = request.Apply(user.CustomCommissionStructure)
		if request.CashbackPercent != nil {
			next.CashbackPercent = request.CashbackPercent
		}
		if request.FeeTier != nil {
			next.FeeTier = request.FeeTier
		}
		if err := service.validateDistribution(&next); err != nil {
			return err
		}
		if err := tx.UpdateUserOverrides(ctx, userID, next.CustomCommissionStructure, request.CashbackPercent, request.FeeTier); err != nil {
			return err
		}
		updated, err = tx.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("section", "service").
		Str("method", "UpdateCommissionStructure").
		Uint64("user_id", userID).
		Msg("Commission structure updated")
	return updated, nil
}

// validateDistribution rejects overrides whose cashback and commissions add up to more than the fee
func (service *Service) validateDistribution(user *model.User) error {
	cashback := service.cfg.Fee.GetDefaultCashback()
	if user.CashbackPercent != nil {
		cashback = conv.FromFloat(*user.CashbackPercent)
	}
	total := conv.Sum(
		cashback,
		service.commissionRate(user, model.ReferralLevel1),
		service.commissionRate(user, model.ReferralLevel2),
		service.commissionRate(user, model.ReferralLevel3),
	)
	if total.Cmp(conv.FromFloat(1)) > 0 {
		return model.InvalidInput("cashback and commission rates add up to more than the fee")
	}
	return nil
}
