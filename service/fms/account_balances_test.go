package fms

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
)

func TestFundsEngine_SeedWallets(t *testing.T) {
	ctx := context.TODO()

	Convey("It should create one zero wallet per token", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		wallets, err := fe.GetWallets(ctx, 1)
		So(err, ShouldBeNil)
		So(len(wallets), ShouldEqual, len(model.DefaultTokens))
		for _, wallet := range wallets {
			So(conv.Format(wallet.Balance.V), ShouldEqual, "0.00000000")
			So(conv.Format(wallet.ClaimedAmount.V), ShouldEqual, "0.00000000")
		}
	})

	Convey("Seeding again should keep existing balances", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		So(fe.IncrementWallet(ctx, 1, model.TokenBTC, conv.FromFloat(2)), ShouldBeNil)
		So(fe.SeedWallets(ctx, 1, model.DefaultTokens), ShouldBeNil)
		So(balanceOf(fe, 1, model.TokenBTC), ShouldEqual, "2.00000000")
	})
}

func TestFundsEngine_IncrementWallet(t *testing.T) {
	ctx := context.TODO()

	Convey("It should add the amount to the balance", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		So(fe.IncrementWallet(ctx, 1, model.TokenUSDC, conv.FromFloat(0.1)), ShouldBeNil)
		So(fe.IncrementWallet(ctx, 1, model.TokenUSDC, conv.FromFloat(0.2)), ShouldBeNil)
		So(balanceOf(fe, 1, model.TokenUSDC), ShouldEqual, "0.30000000")
	})

	Convey("It should create the wallet when it is missing", t, func() {
		fe := Init()
		So(fe.IncrementWallet(ctx, 7, model.TokenSOL, conv.FromFloat(4)), ShouldBeNil)
		So(balanceOf(fe, 7, model.TokenSOL), ShouldEqual, "4.00000000")
	})

	Convey("It should return err on NaN amount", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		err := fe.IncrementWallet(ctx, 1, model.TokenUSDC, conv.NewDecimalWithPrecision().SetNaN(true))
		So(err, ShouldEqual, ErrInvalidAmount)
	})
}

func TestFundsEngine_DecrementWallet(t *testing.T) {
	ctx := context.TODO()

	Convey("It should subtract the amount from the balance", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		So(fe.IncrementWallet(ctx, 1, model.TokenETH, conv.FromFloat(5)), ShouldBeNil)
		So(fe.DecrementWallet(ctx, 1, model.TokenETH, conv.FromFloat(1.25)), ShouldBeNil)
		So(balanceOf(fe, 1, model.TokenETH), ShouldEqual, "3.75000000")
	})

	Convey("The balance should never go below zero", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		So(fe.IncrementWallet(ctx, 1, model.TokenETH, conv.FromFloat(1)), ShouldBeNil)
		So(fe.DecrementWallet(ctx, 1, model.TokenETH, conv.FromFloat(10)), ShouldBeNil)
		So(balanceOf(fe, 1, model.TokenETH), ShouldEqual, "0.00000000")
	})
}

func TestFundsEngine_SettleClaim(t *testing.T) {
	ctx := context.TODO()

	Convey("It should move the amount from the balance to the claimed total", t, func() {
		fe := initTestFE(ctx, "a@test.com")
		So(fe.IncrementWallet(ctx, 1, model.TokenUSDC, conv.FromFloat(3)), ShouldBeNil)
		So(fe.SettleClaim(ctx, 1, model.TokenUSDC, conv.FromFloat(3)), ShouldBeNil)

		wallets, err := fe.GetWallets(ctx, 1)
		So(err, ShouldBeNil)
		for _, wallet := range wallets {
			if wallet.TokenType == model.TokenUSDC {
				So(conv.Format(wallet.Balance.V), ShouldEqual, "0.00000000")
				So(conv.Format(wallet.ClaimedAmount.V), ShouldEqual, "3.00000000")
			}
		}
	})

	Convey("It should fail when the wallet does not exist", t, func() {
		fe := Init()
		err := fe.SettleClaim(ctx, 9, model.TokenUSDC, conv.FromFloat(1))
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "wallet not found for token USDC")
	})
}
