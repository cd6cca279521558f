package fms

import (
	"context"
	"errors"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
	"github.com/qgatssdev/nika/queries"
)

var errForced = errors.New("forced failure")

func initTestFE(ctx context.Context, users ...string) *FundsEngine {
	fe := Init()
	for _, email := range users {
		user := model.NewUser("test", "user", email, "password")
		if err := fe.CreateUser(ctx, user); err != nil {
			panic(err)
		}
		if err := fe.SeedWallets(ctx, user.ID, model.DefaultTokens); err != nil {
			panic(err)
		}
	}
	return fe
}

func balanceOf(fe *FundsEngine, userID uint64, token model.TokenType) string {
	wallets, _ := fe.GetWallets(context.TODO(), userID)
	for _, wallet := range wallets {
		if wallet.TokenType == token {
			return conv.Format(wallet.Balance.V)
		}
	}
	return ""
}

func TestFundsEngine_Transaction(t *testing.T) {
	ctx := context.TODO()

	Convey("It should publish every change of a successful transaction", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		err := fe.Transaction(ctx, func(tx queries.Store) error {
			if err := tx.IncrementWallet(ctx, 1, model.TokenUSDC, conv.FromFloat(3)); err != nil {
				return err
			}
			return tx.IncrementWallet(ctx, 1, model.TokenETH, conv.FromFloat(1.5))
		})
		So(err, ShouldBeNil)
		So(balanceOf(fe, 1, model.TokenUSDC), ShouldEqual, "3.00000000")
		So(balanceOf(fe, 1, model.TokenETH), ShouldEqual, "1.50000000")
	})

	Convey("It should discard every change when the transaction fails", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		err := fe.Transaction(ctx, func(tx queries.Store) error {
			if err := tx.IncrementWallet(ctx, 1, model.TokenUSDC, conv.FromFloat(3)); err != nil {
				return err
			}
			if err := tx.CreateCommission(ctx, model.NewCommission(1, 2, model.ReferralLevel1, conv.FromFloat(3), model.TokenUSDC)); err != nil {
				return err
			}
			return errForced
		})
		So(err, ShouldEqual, errForced)
		So(balanceOf(fe, 1, model.TokenUSDC), ShouldEqual, "0.00000000")
		claimable, err := fe.GetClaimable(ctx, 1)
		So(err, ShouldBeNil)
		So(claimable, ShouldBeEmpty)
	})

	Convey("It should hide uncommitted changes from readers", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		err := fe.Transaction(ctx, func(tx queries.Store) error {
			if err := tx.IncrementWallet(ctx, 1, model.TokenUSDC, conv.FromFloat(3)); err != nil {
				return err
			}
			So(balanceOf(fe, 1, model.TokenUSDC), ShouldEqual, "0.00000000")
			return nil
		})
		So(err, ShouldBeNil)
		So(balanceOf(fe, 1, model.TokenUSDC), ShouldEqual, "3.00000000")
	})

	Convey("A nested transaction should join the open one", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		err := fe.Transaction(ctx, func(tx queries.Store) error {
			err := tx.Transaction(ctx, func(inner queries.Store) error {
				return inner.IncrementWallet(ctx, 1, model.TokenUSDC, conv.FromFloat(1))
			})
			if err != nil {
				return err
			}
			return errForced
		})
		So(err, ShouldEqual, errForced)
		So(balanceOf(fe, 1, model.TokenUSDC), ShouldEqual, "0.00000000")
	})

	Convey("It should refuse to start on a cancelled context", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := fe.Transaction(cancelled, func(tx queries.Store) error { return nil })
		So(err, ShouldEqual, context.Canceled)
	})

	Convey("Concurrent increments should all be applied", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		wg := sync.WaitGroup{}
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = fe.IncrementWallet(ctx, 1, model.TokenUSDT, conv.FromFloat(0.1))
			}()
		}
		wg.Wait()
		So(balanceOf(fe, 1, model.TokenUSDT), ShouldEqual, "5.00000000")
	})
}
