package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/events"
	"github.com/qgatssdev/nika/model"
)

func TestProcessTrade(t *testing.T) {
	Convey("Given user B referred by user A", t, func() {
		f := newFixture()
		a := f.signup("a@test.com", "")
		b := f.signup("b@test.com", *a.ReferralCode)
		So(f.store.IncrementWallet(f.ctx, b.ID, model.TokenETH, amount("1500")), ShouldBeNil)

		request := &model.TradeRequest{
			UserID:       b.ID,
			Volume:       amount("1000"),
			Fees:         amount("10"),
			PayTokenType: model.TokenETH,
			GetTokenType: model.TokenUSDC,
		}

		Convey("a trade should split the fee between B, A and the treasury", func() {
			result, err := f.service.ProcessTrade(f.ctx, request)
			So(err, ShouldBeNil)
			So(result.Message, ShouldEqual, "Trade processed successfully")
			So(result.FeeRate.Cmp(amount("0.01")), ShouldEqual, 0)
			So(conv.Format(result.Breakdown.Cashback), ShouldEqual, "1.00000000")
			So(conv.Format(result.Breakdown.Commissions[model.ReferralLevel1].Amount), ShouldEqual, "3.00000000")
			So(conv.Format(result.Breakdown.Treasury), ShouldEqual, "6.00000000")

			So(f.balance(b.ID, model.TokenETH), ShouldEqual, "500.00000000")
			So(f.balance(b.ID, model.TokenUSDC), ShouldEqual, "1.00000000")
			So(f.balance(a.ID, model.TokenUSDC), ShouldEqual, "3.00000000")

			earnings, err := f.service.GetReferralEarnings(f.ctx, a.ID, 10, 1)
			So(err, ShouldBeNil)
			So(earnings.Meta.Count, ShouldEqual, 1)
			commission := earnings.Commissions[0]
			So(commission.SourceUserID, ShouldEqual, b.ID)
			So(commission.Level, ShouldEqual, model.ReferralLevel1)
			So(commission.TokenType, ShouldEqual, model.TokenUSDC)
			So(commission.IsClaimed, ShouldBeFalse)
			So(conv.Format(commission.Amount.V), ShouldEqual, "3.00000000")

			So(f.publisher.types(), ShouldContain, events.TradeSettled)
		})

		Convey("the pay token debit should stop at zero", func() {
			request.Volume = amount("5000")
			request.Fees = amount("50")
			_, err := f.service.ProcessTrade(f.ctx, request)
			So(err, ShouldBeNil)
			So(f.balance(b.ID, model.TokenETH), ShouldEqual, "0.00000000")
		})

		Convey("a trade without pay token should not debit any wallet", func() {
			request.PayTokenType = ""
			_, err := f.service.ProcessTrade(f.ctx, request)
			So(err, ShouldBeNil)
			So(f.balance(b.ID, model.TokenETH), ShouldEqual, "1500.00000000")
			So(f.balance(b.ID, model.TokenUSDC), ShouldEqual, "1.00000000")
		})

		Convey("the fee should be derived from the fee tier when omitted", func() {
			request.Fees = nil
			result, err := f.service.ProcessTrade(f.ctx, request)
			So(err, ShouldBeNil)
			So(conv.Format(result.Fees), ShouldEqual, "10.00000000")

			_, err = f.service.UpdateCommissionStructure(f.ctx, b.ID, &model.UpdateCommissionStructureRequest{FeeTier: float(0.002)})
			So(err, ShouldBeNil)
			result, err = f.service.ProcessTrade(f.ctx, request)
			So(err, ShouldBeNil)
			So(conv.Format(result.Fees), ShouldEqual, "2.00000000")
		})

		Convey("a failure in the middle of the settlement should leave every balance untouched", func() {
			failing := NewService(testConfig(), newFailingStore(f.store, "IncrementWallet", 2), f.publisher)
			_, err := failing.ProcessTrade(f.ctx, request)
			So(err, ShouldEqual, errForced)

			So(f.balance(b.ID, model.TokenETH), ShouldEqual, "1500.00000000")
			So(f.balance(b.ID, model.TokenUSDC), ShouldEqual, "0.00000000")
			So(f.balance(a.ID, model.TokenUSDC), ShouldEqual, "0.00000000")
			claimable, err := f.service.GetClaimable(f.ctx, a.ID)
			So(err, ShouldBeNil)
			So(claimable, ShouldBeEmpty)
			So(f.publisher.types(), ShouldNotContain, events.TradeSettled)
		})

		Convey("concurrent trades should credit the referrer for each of them", func() {
			wg := sync.WaitGroup{}
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = f.service.ProcessTrade(f.ctx, &model.TradeRequest{
						UserID:       b.ID,
						Volume:       amount("10"),
						Fees:         amount("1"),
						PayTokenType: model.TokenETH,
						GetTokenType: model.TokenUSDC,
					})
				}()
			}
			wg.Wait()
			So(f.balance(a.ID, model.TokenUSDC), ShouldEqual, "6.00000000")
			So(f.balance(b.ID, model.TokenUSDC), ShouldEqual, "2.00000000")
			So(f.balance(b.ID, model.TokenETH), ShouldEqual, "1300.00000000")
		})
	})

	Convey("Invalid trades should be rejected without touching the ledger", t, func() {
		f := newFixture()
		user := f.signup("a@test.com", "")
		valid := func() *model.TradeRequest {
			return &model.TradeRequest{
				UserID:       user.ID,
				Volume:       amount("100"),
				Fees:         amount("1"),
				PayTokenType: model.TokenETH,
				GetTokenType: model.TokenUSDC,
			}
		}

		cases := []struct {
			name    string
			mutate  func(r *model.TradeRequest)
			message string
		}{
			{"zero volume", func(r *model.TradeRequest) { r.Volume = amount("0") }, "Invalid trade volume"},
			{"negative fee", func(r *model.TradeRequest) { r.Fees = amount("-1") }, "Invalid fee amount"},
			{"same tokens", func(r *model.TradeRequest) { r.PayTokenType = model.TokenUSDC }, "payTokenType and getTokenType must differ"},
			{"missing get token", func(r *model.TradeRequest) { r.GetTokenType = "" }, "getTokenType is required"},
			{"unknown token", func(r *model.TradeRequest) { r.GetTokenType = "DOGE" }, "unsupported getTokenType DOGE"},
		}
		for _, c := range cases {
			request := valid()
			c.mutate(request)
			_, err := f.service.ProcessTrade(f.ctx, request)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldEqual, c.message)
		}

		So(f.balance(user.ID, model.TokenUSDC), ShouldEqual, "0.00000000")
		So(f.balance(user.ID, model.TokenETH), ShouldEqual, "0.00000000")

		request := valid()
		request.UserID = 999
		_, err := f.service.ProcessTrade(f.ctx, request)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "user not found")

		Convey("an unknown user is reported before the trade is validated", func() {
			request := valid()
			request.UserID = 999
			request.Volume = amount("0")
			_, err := f.service.ProcessTrade(f.ctx, request)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestTradeEventOutlivesRequest(t *testing.T) {
	Convey("Given a client that disconnects once the trade is committed", t, func() {
		f := newFixture()
		user := f.signup("a@test.com", "")
		ctx, cancel := context.WithCancel(f.ctx)
		defer cancel()
		f.service.repo = &cancelingStore{Store: f.store, cancel: cancel}

		_, err := f.service.ProcessTrade(ctx, &model.TradeRequest{
			UserID:       user.ID,
			Volume:       amount("100"),
			Fees:         amount("1"),
			GetTokenType: model.TokenUSDC,
		})
		So(err, ShouldBeNil)
		So(ctx.Err(), ShouldNotBeNil)

		Convey("the settlement event is still published on a live context", func() {
			last := f.publisher.events[len(f.publisher.events)-1]
			So(last.eventType, ShouldEqual, events.TradeSettled)
			So(last.ctxErr, ShouldBeNil)
			So(last.deadline, ShouldBeTrue)
		})
	})
}
