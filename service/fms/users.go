package fms

import (
	"context"
	"strings"

	"github.com/qgatssdev/nika/model"
)

func (tx *ledgerTx) GetUser(ctx context.Context, userID uint64) (*model.User, error) {
	user, ok := tx.state.users[userID]
	if !ok {
		return nil, model.NotFound("user not found")
	}
	return copyUser(user), nil
}

// GetUserForUpdate needs no row lock since transactions are serialized
func (tx *ledgerTx) GetUserForUpdate(ctx context.Context, userID uint64) (*model.User, error) {
	return tx.GetUser(ctx, userID)
}

func (tx *ledgerTx) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	userID, ok := tx.state.emails[strings.ToLower(email)]
	if !ok {
		return nil, model.NotFound("user not found")
	}
	return tx.GetUser(ctx, userID)
}

func (tx *ledgerTx) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	userID, ok := tx.state.codes[code]
	if !ok {
		return nil, model.NotFound("invalid referral code")
	}
	return tx.GetUser(ctx, userID)
}

func (tx *ledgerTx) CreateUser(ctx context.Context, user *model.User) error {
	email := strings.ToLower(user.Email)
	if _, ok := tx.state.emails[email]; ok {
		return model.Conflict("user already exists")
	}
	if user.ReferralCode != nil {
		if _, ok := tx.state.codes[*user.ReferralCode]; ok {
			return model.Conflict("referral code already in use")
		}
	}
	tx.state.seq.user++
	now := tx.engine.now()
	user.ID = tx.state.seq.user
	user.CreatedAt = now
	user.UpdatedAt = now

	tx.state.users[user.ID] = copyUser(user)
	tx.state.emails[email] = user.ID
	if user.ReferralCode != nil {
		tx.state.codes[*user.ReferralCode] = user.ID
	}
	return nil
}

func (tx *ledgerTx) SetReferralCode(ctx context.Context, userID uint64, code string) (bool, error) {
	user, ok := tx.state.users[userID]
	if !ok || user.ReferralCode != nil {
		return false, nil
	}
	if _, used := tx.state.codes[code]; used {
		return false, model.Conflict("referral code already in use")
	}
	next := copyUser(user)
	next.ReferralCode = &code
	next.UpdatedAt = tx.engine.now()
	tx.state.users[userID] = next
	tx.state.codes[code] = userID
	return true, nil
}

func (tx *ledgerTx) SetReferrer(ctx context.Context, userID, referrerID uint64) (bool, error) {
	user, ok := tx.state.users[userID]
	if !ok || user.ReferrerID != nil || userID == referrerID {
		return false, nil
	}
	next := copyUser(user)
	next.ReferrerID = &referrerID
	next.UpdatedAt = tx.engine.now()
	tx.state.users[userID] = next
	return true, nil
}

func (tx *ledgerTx) UpdateUserOverrides(ctx context.Context, userID uint64, structure *model.CustomCommissionStructure, cashbackPercent, feeTier *float64) error {
	user, ok := tx.state.users[userID]
	if !ok {
		return model.NotFound("user not found")
	}
	next := copyUser(user)
	if structure != nil {
		next.CustomCommissionStructure = copyStructure(structure)
	}
	if cashbackPercent != nil {
		next.CashbackPercent = copyFloat(cashbackPercent)
	}
	if feeTier != nil {
		next.FeeTier = copyFloat(feeTier)
	}
	next.UpdatedAt = tx.engine.now()
	tx.state.users[userID] = next
	return nil
}

func (tx *ledgerTx) GetReferrerChain(ctx context.Context, userID uint64, depth int) ([]*model.User, error) {
	chain := []*model.User{}
	user, ok := tx.state.users[userID]
	if !ok {
		return chain, nil
	}
	seen := map[uint64]struct{}{userID: {}}
	for len(chain) < depth && user.ReferrerID != nil {
		parent, ok := tx.state.users[*user.ReferrerID]
		if !ok {
			break
		}
		if _, loop := seen[parent.ID]; loop {
			break
		}
		seen[parent.ID] = struct{}{}
		chain = append(chain, copyUser(parent))
		user = parent
	}
	return chain, nil
}

// LockReferrerChain needs no share locks since transactions are serialized
func (tx *ledgerTx) LockReferrerChain(ctx context.Context, userID uint64, depth int) ([]*model.User, error) {
	if _, ok := tx.state.users[userID]; !ok {
		return nil, model.NotFound("user not found")
	}
	return tx.GetReferrerChain(ctx, userID, depth)
}

func (tx *ledgerTx) CreateReferral(ctx context.Context, referral *model.Referral) error {
	if _, ok := tx.state.referees[referral.RefereeID]; ok {
		return model.Conflict("user already has a referrer")
	}
	tx.state.seq.referral++
	referral.ID = tx.state.seq.referral
	referral.CreatedAt = tx.engine.now()
	stored := *referral
	tx.state.referrals = append(tx.state.referrals, &stored)
	tx.state.referees[referral.RefereeID] = struct{}{}
	return nil
}

func (tx *ledgerTx) ListReferrals(ctx context.Context) ([]*model.Referral, error) {
	referrals := make([]*model.Referral, 0, len(tx.state.referrals))
	for _, referral := range tx.state.referrals {
		stored := *referral
		referrals = append(referrals, &stored)
	}
	return referrals, nil
}

func (fe *FundsEngine) GetUser(ctx context.Context, userID uint64) (*model.User, error) {
	return view(fe, func(tx *ledgerTx) (*model.User, error) { return tx.GetUser(ctx, userID) })
}

func (fe *FundsEngine) GetUserForUpdate(ctx context.Context, userID uint64) (*model.User, error) {
	return fe.GetUser(ctx, userID)
}

func (fe *FundsEngine) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return view(fe, func(tx *ledgerTx) (*model.User, error) { return tx.GetUserByEmail(ctx, email) })
}

func (fe *FundsEngine) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	return view(fe, func(tx *ledgerTx) (*model.User, error) { return tx.GetUserByReferralCode(ctx, code) })
}

func (fe *FundsEngine) CreateUser(ctx context.Context, user *model.User) error {
	_, err := update(ctx, fe, func(tx *ledgerTx) (struct{}, error) { return struct{}{}, tx.CreateUser(ctx, user) })
	return err
}

func (fe *FundsEngine) SetReferralCode(ctx context.Context, userID uint64, code string) (bool, error) {
	return update(ctx, fe, func(tx *ledgerTx) (bool, error) { return tx.SetReferralCode(ctx, userID, code) })
}

func (fe *FundsEngine) SetReferrer(ctx context.Context, userID, referrerID uint64) (bool, error) {
	return update(ctx, fe, func(tx *ledgerTx) (bool, error) { return tx.SetReferrer(ctx, userID, referrerID) })
}

func (fe *FundsEngine) UpdateUserOverrides(ctx context.Context, userID uint64, structure *model.CustomCommissionStructure, cashbackPercent, feeTier *float64) error {
	_, err := update(ctx, fe, func(tx *ledgerTx) (struct{}, error) {
		return struct{}{}, tx.UpdateUserOverrides(ctx, userID, structure, cashbackPercent, feeTier)
	})
	return err
}

func (fe *FundsEngine) GetReferrerChain(ctx context.Context, userID uint64, depth int) ([]*model.User, error) {
	return view(fe, func(tx *ledgerTx) ([]*model.User, error) { return tx.GetReferrerChain(ctx, userID, depth) })
}

func (fe *FundsEngine) LockReferrerChain(ctx context.Context, userID uint64, depth int) ([]*model.User, error) {
	return view(fe, func(tx *ledgerTx) ([]*model.User, error) { return tx.LockReferrerChain(ctx, userID, depth) })
}

func (fe *FundsEngine) CreateReferral(ctx context.Context, referral *model.Referral) error {
	_, err := update(ctx, fe, func(tx *ledgerTx) (struct{}, error) { return struct{}{}, tx.CreateReferral(ctx, referral) })
	return err
}

func (fe *FundsEngine) ListReferrals(ctx context.Context) ([]*model.Referral, error) {
	return view(fe, func(tx *ledgerTx) ([]*model.Referral, error) { return tx.ListReferrals(ctx) })
}
