package queries

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/qgatssdev/nika/model"
)

const claimCommissionsQuery = `
UPDATE commissions SET is_claimed = true
WHERE user_id = ? AND token_type = ? AND is_claimed = false
RETURNING *`

const claimableQuery = `
SELECT token_type, SUM(amount) AS amount FROM commissions
WHERE user_id = ? AND is_claimed = false
GROUP BY token_type
ORDER BY token_type`

// CreateCommission godoc
func (repo *Repo) CreateCommission(ctx context.Context, commission *model.Commission) error {
	return errors.WithStack(repo.writer(ctx).Create(commission).Error)
}

// ClaimCommissions flips the claim flag with a conditional update.
// A concurrent claim waits on the row locks and then matches none of the rows already flipped.
func (repo *Repo) ClaimCommissions(ctx context.Context, userID uint64, token model.TokenType) ([]*model.Commission, error) {
	commissions := []*model.Commission{}
	if err := repo.writer(ctx).Raw(claimCommissionsQuery, userID, token).Scan(&commissions).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return commissions, nil
}

// GetClaimable godoc
func (repo *Repo) GetClaimable(ctx context.Context, userID uint64) ([]model.ClaimableAmount, error) {
	list := []model.ClaimableAmount{}
	if err := repo.reader(ctx).Raw(claimableQuery, userID).Scan(&list).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return list, nil
}

// ListCommissions godoc
func (repo *Repo) ListCommissions(ctx context.Context, userID uint64, meta model.PagingMeta) ([]model.Commission, int64, error) {
	var count int64
	commissions := []model.Commission{}
	q := repo.reader(ctx).Model(&model.Commission{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}
	err := q.Order("created_at DESC, id DESC").Limit(meta.Limit).Offset(meta.Offset()).Find(&commissions).Error
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return commissions, count, nil
}
