package queries

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm/clause"

	"github.com/qgatssdev/nika/model"
)

const referrerChainQuery = `
WITH RECURSIVE chain AS (
	SELECT u.*, 1 AS depth, ARRAY[CAST(? AS bigint), u.id] AS path FROM users u
	WHERE u.id = (SELECT referrer_id FROM users WHERE id = ?)
	UNION ALL
	SELECT u.*, chain.depth + 1, chain.path || u.id FROM users u
	INNER JOIN chain ON u.id = chain.referrer_id
	WHERE chain.depth < ? AND u.id <> ALL(chain.path)
)
SELECT * FROM chain ORDER BY depth`

// GetUser godoc
func (repo *Repo) GetUser(ctx context.Context, userID uint64) (*model.User, error) {
	user := model.User{}
	err := repo.reader(ctx).First(&user, userID).Error
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	return &user, nil
}

// GetUserForUpdate loads the user and locks its row until the end of the transaction.
// NO KEY UPDATE leaves the row free for the foreign key checks of commissions paid to the user.
func (repo *Repo) GetUserForUpdate(ctx context.Context, userID uint64) (*model.User, error) {
	user := model.User{}
	err := repo.writer(ctx).Clauses(clause.Locking{Strength: "NO KEY UPDATE"}).First(&user, userID).Error
	if err != nil {
		return nil, lockError(notFound(err, "user not found"))
	}
	return &user, nil
}

// GetUserByEmail godoc
func (repo *Repo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user := model.User{}
	err := repo.reader(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, notFound(err, "user not found")
	}
	return &user, nil
}

// GetUserByReferralCode godoc
func (repo *Repo) GetUserByReferralCode(ctx context.Context, code string) (*model.User, error) {
	user := model.User{}
	err := repo.reader(ctx).Where("referral_code = ?", code).First(&user).Error
	if err != nil {
		return nil, notFound(err, "invalid referral code")
	}
	return &user, nil
}

// CreateUser godoc
func (repo *Repo) CreateUser(ctx context.Context, user *model.User) error {
	return conflict(repo.writer(ctx).Create(user).Error, "user already exists")
}

// SetReferralCode stores the code only when the user has none yet
func (repo *Repo) SetReferralCode(ctx context.Context, userID uint64, code string) (bool, error) {
	db := repo.writer(ctx).Exec(
		"UPDATE users SET referral_code = ?, updated_at = NOW() WHERE id = ? AND referral_code IS NULL",
		code, userID,
	)
	if db.Error != nil {
		return false, conflict(db.Error, "referral code already in use")
	}
	return db.RowsAffected == 1, nil
}

// SetReferrer assigns the referrer only when the user has none yet
func (repo *Repo) SetReferrer(ctx context.Context, userID, referrerID uint64) (bool, error) {
	db := repo.writer(ctx).Exec(
		"UPDATE users SET referrer_id = ?, updated_at = NOW() WHERE id = ? AND referrer_id IS NULL AND id <> ?",
		referrerID, userID, referrerID,
	)
	if db.Error != nil {
		return false, errors.WithStack(db.Error)
	}
	return db.RowsAffected == 1, nil
}

// UpdateUserOverrides godoc
func (repo *Repo) UpdateUserOverrides(ctx context.Context, userID uint64, structure *model.CustomCommissionStructure, cashbackPercent, feeTier *float64) error {
	fields := map[string]interface{}{}
	if structure != nil {
		fields["custom_commission_structure"] = *structure
	}
	if cashbackPercent != nil {
		fields["cashback_percent"] = *cashbackPercent
	}
	if feeTier != nil {
		fields["fee_tier"] = *feeTier
	}
	if len(fields) == 0 {
		return nil
	}
	db := repo.writer(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(fields)
	if db.Error != nil {
		return errors.WithStack(db.Error)
	}
	if db.RowsAffected == 0 {
		return model.NotFound("user not found")
	}
	return nil
}

// GetReferrerChain godoc
func (repo *Repo) GetReferrerChain(ctx context.Context, userID uint64, depth int) ([]*model.User, error) {
	chain := []*model.User{}
	if depth <= 0 {
		return chain, nil
	}
	if err := repo.reader(ctx).Raw(referrerChainQuery, userID, userID, depth).Scan(&chain).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return chain, nil
}

// LockReferrerChain share locks the user and its ancestors, nearest first, and returns at most depth ancestors.
// A concurrent registration of any locked user waits for the transaction, so the chain it returns stays current.
func (repo *Repo) LockReferrerChain(ctx context.Context, userID uint64, depth int) ([]*model.User, error) {
	chain := []*model.User{}
	seen := map[uint64]struct{}{}
	next := userID
	for len(chain) <= depth {
		user := model.User{}
		err := repo.writer(ctx).Clauses(clause.Locking{Strength: "SHARE"}).First(&user, next).Error
		if err != nil {
			return nil, lockError(notFound(err, "user not found"))
		}
		seen[user.ID] = struct{}{}
		if user.ID != userID {
			chain = append(chain, &user)
		}
		if user.ReferrerID == nil || len(chain) == depth {
			break
		}
		if _, loop := seen[*user.ReferrerID]; loop {
			break
		}
		next = *user.ReferrerID
	}
	return chain, nil
}
