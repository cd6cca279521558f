package queries

import (
	"context"

	"github.com/pkg/errors"

	"github.com/qgatssdev/nika/model"
)

// CreateReferral godoc
func (repo *Repo) CreateReferral(ctx context.Context, referral *model.Referral) error {
	return conflict(repo.writer(ctx).Create(referral).Error, "user already has a referrer")
}

// ListReferrals loads every referral link, oldest first
func (repo *Repo) ListReferrals(ctx context.Context) ([]*model.Referral, error) {
	referrals := []*model.Referral{}
	if err := repo.reader(ctx).Order("id ASC").Find(&referrals).Error; err != nil {
		return nil, errors.WithStack(err)
	}
	return referrals, nil
}
