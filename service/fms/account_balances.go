package fms

import (
	"context"
	"sort"

	"github.com/ericlagergren/decimal"
	"github.com/ericlagergren/decimal/sql/postgres"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
)

func (tx *ledgerTx) wallet(userID uint64, token model.TokenType) *walletEntry {
	key := walletKey{userID: userID, token: token}
	if entry, ok := tx.state.wallets[key]; ok {
		return entry
	}
	tx.state.seq.wallet++
	now := tx.engine.now()
	return &walletEntry{
		id:        tx.state.seq.wallet,
		balance:   conv.NewDecimalWithPrecision(),
		claimed:   conv.NewDecimalWithPrecision(),
		createdAt: now,
		updatedAt: now,
	}
}

func (tx *ledgerTx) store(userID uint64, token model.TokenType, balance, claimed *decimal.Big, prev *walletEntry) {
	tx.state.wallets[walletKey{userID: userID, token: token}] = &walletEntry{
		id:        prev.id,
		balance:   conv.RoundToPrecision(balance),
		claimed:   conv.RoundToPrecision(claimed),
		createdAt: prev.createdAt,
		updatedAt: tx.engine.now(),
	}
}

func (tx *ledgerTx) SeedWallets(ctx context.Context, userID uint64, tokens []model.TokenType) error {
	for _, token := range tokens {
		if _, ok := tx.state.wallets[walletKey{userID: userID, token: token}]; ok {
			continue
		}
		entry := tx.wallet(userID, token)
		tx.state.wallets[walletKey{userID: userID, token: token}] = entry
	}
	return nil
}

func (tx *ledgerTx) GetWallets(ctx context.Context, userID uint64) ([]*model.Wallet, error) {
	wallets := []*model.Wallet{}
	for key, entry := range tx.state.wallets {
		if key.userID != userID {
			continue
		}
		wallets = append(wallets, &model.Wallet{
			ID:            entry.id,
			UserID:        key.userID,
			TokenType:     key.token,
			Balance:       &postgres.Decimal{V: conv.CloneToPrecision(entry.balance)},
			ClaimedAmount: &postgres.Decimal{V: conv.CloneToPrecision(entry.claimed)},
			CreatedAt:     entry.createdAt,
			UpdatedAt:     entry.updatedAt,
		})
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].TokenType < wallets[j].TokenType })
	return wallets, nil
}

func (tx *ledgerTx) IncrementWallet(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	if err := checkNaNs(amount); err != nil {
		return err
	}
	entry := tx.wallet(userID, token)
	balance := conv.NewDecimalWithPrecision().Add(entry.balance, amount)
	tx.store(userID, token, balance, conv.CloneToPrecision(entry.claimed), entry)
	return nil
}

func (tx *ledgerTx) DecrementWallet(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	if err := checkNaNs(amount); err != nil {
		return err
	}
	entry := tx.wallet(userID, token)
	tx.store(userID, token, floorSub(entry.balance, amount), conv.CloneToPrecision(entry.claimed), entry)
	return nil
}

func (tx *ledgerTx) SettleClaim(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	if err := checkNaNs(amount); err != nil {
		return err
	}
	entry, ok := tx.state.wallets[walletKey{userID: userID, token: token}]
	if !ok {
		return model.NotFound("wallet not found for token %s", token)
	}
	claimed := conv.NewDecimalWithPrecision().Add(entry.claimed, amount)
	tx.store(userID, token, floorSub(entry.balance, amount), claimed, entry)
	return nil
}

// floorSub returns max(balance - amount, 0)
func floorSub(balance, amount *decimal.Big) *decimal.Big {
	next := conv.NewDecimalWithPrecision().Sub(balance, amount)
	if next.Sign() < 0 {
		return conv.NewDecimalWithPrecision()
	}
	return next
}

func (fe *FundsEngine) SeedWallets(ctx context.Context, userID uint64, tokens []model.TokenType) error {
	_, err := update(ctx, fe, func(tx *ledgerTx) (struct{}, error) { return struct{}{}, tx.SeedWallets(ctx, userID, tokens) })
	return err
}

func (fe *FundsEngine) GetWallets(ctx context.Context, userID uint64) ([]*model.Wallet, error) {
	return view(fe, func(tx *ledgerTx) ([]*model.Wallet, error) { return tx.GetWallets(ctx, userID) })
}

func (fe *FundsEngine) IncrementWallet(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	_, err := update(ctx, fe, func(tx *ledgerTx) (struct{}, error) {
		return struct{}{}, tx.IncrementWallet(ctx, userID, token, amount)
	})
	return err
}

func (fe *FundsEngine) DecrementWallet(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	_, err := update(ctx, fe, func(tx *ledgerTx) (struct{}, error) {
		return struct{}{}, tx.DecrementWallet(ctx, userID, token, amount)
	})
	return err
}

func (fe *FundsEngine) SettleClaim(ctx context.Context, userID uint64, token model.TokenType, amount *decimal.Big) error {
	_, err := update(ctx, fe, func(tx *ledgerTx) (struct{}, error) {
		return struct{}{}, tx.SettleClaim(ctx, userID, token, amount)
	})
	return err
}
