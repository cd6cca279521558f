package queries

import (
	"context"

	"github.com/ericlagergren/decimal"
	"github.com/pkg/errors"
	"gorm.io/gorm/clause"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
)

const incrementWalletQuery = `
INSERT INTO wallets (user_id, token_type, balance, claimed_amount, created_at, updated_at)
VALUES (?, ?, ?, 0, NOW(), NOW())
ON CONFLICT (user_id, token_type)
DO UPDATE SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()`

const decrementWalletQuery = `
INSERT INTO wallets (user_id, token_type, balance, claimed_amount, created_at, updated_at)
VALUES (?, ?, 0, 0, NOW(), NOW())
ON CONFLICT (user_id, token_type)
DO UPDATE SET balance = GREATEST(wallets.balance - ?, 0), updated_at = NOW()`

const settleClaimQuery = `
UPDATE wallets
SET balance = ROUND(GREATEST(balance - ?, 0), 8), claimed_amount = ROUND(claimed_amount + ?, 8), updated_at = NOW()
WHERE user_id = ? AND token_type = ?`

// SeedWallets creates an empty wallet for every token the user does not hold yet
func (repo *Repo) SeedWallets(ctx context.Context, userID uint64, tokens []model.TokenType) error {
	if len(tokens) == 0 {
		return nil
	}
	wallets := make([]*model.Wallet, 0, len(tokens))
	for _, token := range tokens {
		wallets = append(wallets, model.NewWallet(userID, token))
	}
	err := repo.writer(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "token_type"}}, DoNothing: true}).
		Create(&wallets).Error
	return errors.WithStack(err)
}

// GetWallets godoc
func (repo *Repo) GetWallets(ctx context.Context, userID uint64) ([]*model.Wallet, error) {
	wallets := []*model.Wallet{}
	err := repo.reader(ctx).Where("user_id = ?", userID).Order("token_type ASC").Find(&wallets).Error
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return wallets, nil
}

// IncrementWallet adds the amount in a single statement, creating the wallet when missing
func (repo *Repo) IncrementWallet(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	err := repo.writer(ctx).Exec(incrementWalletQuery, userID, token, conv.Format(amount)).Error
	return errors.WithStack(err)
}

// DecrementWallet godoc
func (repo *Repo) DecrementWallet(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	err := repo.writer(ctx).Exec(decrementWalletQuery, userID, token, conv.Format(amount)).Error
	return errors.WithStack(err)
}

// SettleClaim godoc
func (repo *Repo) SettleClaim(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	value := conv.Format(amount)
	db := repo.writer(ctx).Exec(settleClaimQuery, value, value, userID, token)
	if db.Error != nil {
		return errors.WithStack(db.Error)
	}
	if db.RowsAffected == 0 {
		return model.NotFound("wallet not found for token %s", token)
	}
	return nil
}
