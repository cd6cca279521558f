package service

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	cache "github.com/qgatssdev/nika/cache/user_referrals"
	"github.com/qgatssdev/nika/events"
	"github.com/qgatssdev/nika/model"
	"github.com/qgatssdev/nika/monitor"
	"github.com/qgatssdev/nika/queries"
)

const (
	referralCodeAttempts = 5
	registerAttempts     = 3
)

// RegisterReferral links userID below the owner of the referral code.
// A referrer already three levels deep yields a successful registration without any link.
func (service *Service) RegisterReferral(ctx context.Context, code string, userID uint64) (*model.ReferralRegistration, error) {
	var (
		registration *model.ReferralRegistration
		err          error
	)
	// a registration aborted by a concurrent one sees the committed links on the next attempt
	for attempt := 0; attempt < registerAttempts; attempt++ {
		err = service.repo.Transaction(ctx, func(tx queries.Store) error {
			var err error
			registration, err = service.registerReferral(ctx, tx, code, userID)
			return err
		})
		if err == nil || !errors.Is(err, model.ErrConflict) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	service.afterReferral(userID, registration)
	return registration, nil
}

func (service *Service) registerReferral(ctx context.Context, tx queries.Store, code string, userID uint64) (*model.ReferralRegistration, error) {
	logger := log.With().
		Str("section", "service").
		Str("method", "RegisterReferral").
		Uint64("user_id", userID).
		Logger()

	referrer, err := tx.GetUserByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.InvalidInput("Invalid referral code")
		}
		return nil, err
	}
	user, err := tx.GetUserForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if referrer.ID == user.ID {
		return nil, model.InvalidInput("You cannot refer yourself")
	}
	if user.HasReferrer() {
		return nil, model.InvalidInput("User already has a referrer")
	}

	// share locks on the referrer chain serialize registrations that could close a cycle
	chain, err := tx.LockReferrerChain(ctx, referrer.ID, model.MaxReferralDepth)
	if err != nil {
		return nil, err
	}
	for _, ancestor := range chain {
		if ancestor.ID == user.ID {
			return nil, model.InvalidInput("Referral would create a cycle")
		}
	}

	level := len(chain) + 1
	if level > model.MaxReferralDepth {
		logger.Warn().Uint64("referrer_id", referrer.ID).Msg("Referral depth exceeded, proceeding without referral link")
		return &model.ReferralRegistration{
			Message:           "Referral depth limit reached. User registered without referral link.",
			DepthLimitReached: true,
		}, nil
	}

	referral := &model.Referral{ReferrerID: referrer.ID, RefereeID: user.ID, Level: model.ReferralLevel(level)}
	if err := tx.CreateReferral(ctx, referral); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, model.InvalidInput("User already has a referrer")
		}
		return nil, err
	}
	ok, err := tx.SetReferrer(ctx, user.ID, referrer.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.InvalidInput("User already has a referrer")
	}

	return &model.ReferralRegistration{
		Message:    "Referral registered successfully",
		ReferrerID: referrer.ID,
		Level:      referral.Level,
	}, nil
}

// afterReferral publishes a committed registration to the read cache, metrics and the broker
func (service *Service) afterReferral(userID uint64, registration *model.ReferralRegistration) {
	if registration == nil || registration.DepthLimitReached {
		monitor.ReferralsRegistered.WithLabelValues("limit").Inc()
		return
	}
	cache.AddReferralUser(registration.ReferrerID, userID)
	monitor.ReferralsRegistered.WithLabelValues(strconv.Itoa(registration.Level.Int())).Inc()
	service.publish(events.ReferralRegistered, strconv.FormatUint(userID, 10), map[string]interface{}{
		"refereeId":  userID,
		"referrerId": registration.ReferrerID,
		"level":      registration.Level,
	})
}

// GenerateReferralCode returns the referral code of the user, creating one when missing
func (service *Service) GenerateReferralCode(ctx context.Context, userID uint64) (string, error) {
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		user, err := service.repo.GetUser(ctx, userID)
		if err != nil {
			return "", err
		}
		if user.ReferralCode != nil {
			return *user.ReferralCode, nil
		}
		code := model.NewReferralCode()
		ok, err := service.repo.SetReferralCode(ctx, userID, code)
		if errors.Is(err, model.ErrConflict) {
			continue
		}
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
		// a concurrent request stored a code first; read it back on the next attempt
	}
	return "", errors.New("unable to generate a unique referral code")
}

// GetReferralEarnings returns the commission rows granted to the user, newest first
func (service *Service) GetReferralEarnings(ctx context.Context, userID uint64, limit, page int) (*model.CommissionList, error) {
	meta := model.NewPagingMeta(page, limit)
	commissions, count, err := service.repo.ListCommissions(ctx, userID, meta)
	if err != nil {
		return nil, err
	}
	meta.Count = count
	return &model.CommissionList{Commissions: commissions, Meta: meta}, nil
}

// GetReferralNetwork returns the users referred by userID grouped by level
func (service *Service) GetReferralNetwork(ctx context.Context, userID uint64) (*model.ReferralNetwork, error) {
	user, err := service.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	referees := cache.GetReferees(userID)
	return &model.ReferralNetwork{
		UserID:     user.ID,
		ReferrerID: user.ReferrerID,
		Referees:   *referees,
		Total:      len(referees.L1) + len(referees.L2) + len(referees.L3),
	}, nil
}
