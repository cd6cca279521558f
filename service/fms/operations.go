package fms

import (
	"context"
	"sort"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
)

func (tx *ledgerTx) CreateCommission(ctx context.Context, commission *model.Commission) error {
	if commission.Amount == nil {
		return ErrInvalidAmount
	}
	if err := checkNaNs(commission.Amount.V); err != nil {
		return err
	}
	tx.state.seq.commission++
	commission.ID = tx.state.seq.commission
	commission.CreatedAt = tx.engine.now()
	tx.state.commissions = append(tx.state.commissions, copyCommission(commission))
	return nil
}

func (tx *ledgerTx) ClaimCommissions(ctx context.Context, userID uint64, token model.TokenType) ([]*model.Commission, error) {
	flipped := []*model.Commission{}
	for i, commission := range tx.state.commissions {
		if commission.UserID != userID || commission.TokenType != token || commission.IsClaimed {
			continue
		}
		next := copyCommission(commission)
		next.IsClaimed = true
		tx.state.commissions[i] = next
		flipped = append(flipped, copyCommission(next))
	}
	return flipped, nil
}

func (tx *ledgerTx) GetClaimable(ctx context.Context, userID uint64) ([]model.ClaimableAmount, error) {
	totals := map[model.TokenType]*model.ClaimableAmount{}
	for _, commission := range tx.state.commissions {
		if commission.UserID != userID || commission.IsClaimed {
			continue
		}
		total, ok := totals[commission.TokenType]
		if !ok {
			total = &model.ClaimableAmount{TokenType: commission.TokenType, Amount: copyColumn(nil)}
			totals[commission.TokenType] = total
		}
		total.Amount.V.Add(total.Amount.V, commission.Amount.V)
	}
	list := make([]model.ClaimableAmount, 0, len(totals))
	for _, total := range totals {
		list = append(list, *total)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].TokenType < list[j].TokenType })
	return list, nil
}

func (tx *ledgerTx) ListCommissions(ctx context.Context, userID uint64, meta model.PagingMeta) ([]model.Commission, int64, error) {
	matching := []model.Commission{}
	// newest first
	for i := len(tx.state.commissions) - 1; i >= 0; i-- {
		if tx.state.commissions[i].UserID == userID {
			matching = append(matching, *copyCommission(tx.state.commissions[i]))
		}
	}
	return page(matching, meta), int64(len(matching)), nil
}

func (tx *ledgerTx) CreateClaim(ctx context.Context, claim *model.Claim) error {
	if claim.TotalAmount == nil {
		return ErrInvalidAmount
	}
	tx.state.seq.claim++
	claim.ID = tx.state.seq.claim
	if claim.ClaimedAt.IsZero() {
		claim.ClaimedAt = tx.engine.now()
	}
	tx.state.claims = append(tx.state.claims, copyClaim(claim))
	return nil
}

func (tx *ledgerTx) ListClaims(ctx context.Context, userID uint64, meta model.PagingMeta) ([]model.Claim, int64, error) {
	matching := []model.Claim{}
	for i := len(tx.state.claims) - 1; i >= 0; i-- {
		if tx.state.claims[i].UserID == userID {
			matching = append(matching, *copyClaim(tx.state.claims[i]))
		}
	}
	return page(matching, meta), int64(len(matching)), nil
}

func page[T any](items []T, meta model.PagingMeta) []T {
	start := meta.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := len(items)
	if meta.Limit > 0 && start+meta.Limit < end {
		end = start + meta.Limit
	}
	return items[start:end]
}

func (fe *FundsEngine) CreateCommission(ctx context.Context, commission *model.Commission) error {
	_, err := update(ctx, fe, func(tx *ledgerTx) (struct{}, error) { return struct{}{}, tx.CreateCommission(ctx, commission) })
	return err
}

func (fe *FundsEngine) ClaimCommissions(ctx context.Context, userID uint64, token model.TokenType) ([]*model.Commission, error) {
	return update(ctx, fe, func(tx *ledgerTx) ([]*model.Commission, error) { return tx.ClaimCommissions(ctx, userID, token) })
}

func (fe *FundsEngine) GetClaimable(ctx context.Context, userID uint64) ([]model.ClaimableAmount, error) {
	return view(fe, func(tx *ledgerTx) ([]model.ClaimableAmount, error) { return tx.GetClaimable(ctx, userID) })
}

func (fe *FundsEngine) ListCommissions(ctx context.Context, userID uint64, meta model.PagingMeta) ([]model.Commission, int64, error) {
	var count int64
	list, err := view(fe, func(tx *ledgerTx) ([]model.Commission, error) {
		var (
			list []model.Commission
			err  error
		)
		list, count, err = tx.ListCommissions(ctx, userID, meta)
		return list, err
	})
	return list, count, err
}

func (fe *FundsEngine) CreateClaim(ctx context.Context, claim *model.Claim) error {
	_, err := update(ctx, fe, func(tx *ledgerTx) (struct{}, error) { return struct{}{}, tx.CreateClaim(ctx, claim) })
	return err
}

func (fe *FundsEngine) ListClaims(ctx context.Context, userID uint64, meta model.PagingMeta) ([]model.Claim, int64, error) {
	var count int64
	list, err := view(fe, func(tx *ledgerTx) ([]model.Claim, error) {
		var (
			list []model.Claim
			err  error
		)
		list, count, err = tx.ListClaims(ctx, userID, meta)
		return list, err
	})
	return list, count, err
}

// TotalBalance sums the balance of every wallet in the token. It is used to reconcile the ledger.
func (fe *FundsEngine) TotalBalance(token model.TokenType) string {
	fe.stateLock.RLock()
	defer fe.stateLock.RUnlock()
	total := conv.NewDecimalWithPrecision()
	for key, entry := range fe.state.wallets {
		if key.token == token {
			total.Add(total, entry.balance)
		}
	}
	return conv.Format(total)
}
