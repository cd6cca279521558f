package queries

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/qgatssdev/nika/model"
)

// CreateClaim godoc
func (repo *Repo) CreateClaim(ctx context.Context, claim *model.Claim) error {
	return errors.WithStack(repo.writer(ctx).Create(claim).Error)
}

// ListClaims godoc
func (repo *Repo) ListClaims(ctx context.Context, userID uint64, meta model.PagingMeta) ([]model.Claim, int64, error) {
	var count int64
	claims := []model.Claim{}
	q := repo.reader(ctx).Model(&model.Claim{}).Where("user_id = ?", userID).Session(&gorm.Session{})
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, errors.WithStack(err)
	}
	err := q.Order("claimed_at DESC, id DESC").Limit(meta.Limit).Offset(meta.Offset()).Find(&claims).Error
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}
	return claims, count, nil
}
