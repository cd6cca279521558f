package service

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/qgatssdev/nika/conv"
	"github.com/qgatssdev/nika/model"
)

func TestCalculateFeeBreakdown(t *testing.T) {
	Convey("Given a referral chain of five users", t, func() {
		f := newFixture()
		users := f.chain(5)
		payer := users[4]

		Convey("the buckets should always add up to the fee", func() {
			for depth := 0; depth <= 4; depth++ {
				for _, fee := range []string{"0", "10", "0.00000001", "1234.56789012", "3", "999999.99999999"} {
					breakdown, err := f.service.CalculateFeeBreakdown(f.ctx, users[depth].ID, amount(fee), nil)
					So(err, ShouldBeNil)
					total := conv.Sum(breakdown.Cashback, breakdown.TotalCommissions(), breakdown.Treasury)
					So(total.Cmp(amount(fee)), ShouldEqual, 0)
					So(len(breakdown.Commissions), ShouldEqual, min(depth, 3))
				}
			}
		})

		Convey("only three levels should receive commissions", func() {
			breakdown, err := f.service.CalculateFeeBreakdown(f.ctx, payer.ID, amount("100"), nil)
			So(err, ShouldBeNil)
			So(len(breakdown.Commissions), ShouldEqual, 3)
			So(breakdown.Commissions[model.ReferralLevel1].UserID, ShouldEqual, users[3].ID)
			So(breakdown.Commissions[model.ReferralLevel2].UserID, ShouldEqual, users[2].ID)
			So(breakdown.Commissions[model.ReferralLevel3].UserID, ShouldEqual, users[1].ID)
			for _, grant := range breakdown.Commissions {
				So(grant.UserID, ShouldNotEqual, users[0].ID)
			}

			So(conv.Format(breakdown.Cashback), ShouldEqual, "10.00000000")
			So(conv.Format(breakdown.Commissions[model.ReferralLevel1].Amount), ShouldEqual, "30.00000000")
			So(conv.Format(breakdown.Commissions[model.ReferralLevel2].Amount), ShouldEqual, "3.00000000")
			So(conv.Format(breakdown.Commissions[model.ReferralLevel3].Amount), ShouldEqual, "2.00000000")
			So(conv.Format(breakdown.Treasury), ShouldEqual, "55.00000000")
		})

		Convey("waived fees should skip cashback and commissions", func() {
			_, err := f.service.UpdateCommissionStructure(f.ctx, payer.ID, &model.UpdateCommissionStructureRequest{WaivedFees: boolPtr(true)})
			So(err, ShouldBeNil)

			breakdown, err := f.service.CalculateFeeBreakdown(f.ctx, payer.ID, amount("10"), nil)
			So(err, ShouldBeNil)
			So(breakdown.Cashback.Sign(), ShouldEqual, 0)
			So(breakdown.Commissions, ShouldBeEmpty)
			So(conv.Format(breakdown.Treasury), ShouldEqual, "10.00000000")
		})

		Convey("the paying user's overrides should replace the defaults", func() {
			_, err := f.service.UpdateCommissionStructure(f.ctx, payer.ID, &model.UpdateCommissionStructureRequest{
				DirectCommission: float(0.5),
				LevelCommissions: &model.LevelCommissions{Level3: float(0.1)},
				CashbackPercent:  float(0.05),
			})
			So(err, ShouldBeNil)

			breakdown, err := f.service.CalculateFeeBreakdown(f.ctx, payer.ID, amount("10"), nil)
			So(err, ShouldBeNil)
			So(conv.Format(breakdown.Cashback), ShouldEqual, "0.50000000")
			So(conv.Format(breakdown.Commissions[model.ReferralLevel1].Amount), ShouldEqual, "5.00000000")
			So(conv.Format(breakdown.Commissions[model.ReferralLevel2].Amount), ShouldEqual, "0.30000000")
			So(conv.Format(breakdown.Commissions[model.ReferralLevel3].Amount), ShouldEqual, "1.00000000")
			So(conv.Format(breakdown.Treasury), ShouldEqual, "3.20000000")
		})

		Convey("the default cashback argument should apply when the user has no override", func() {
			breakdown, err := f.service.CalculateFeeBreakdown(f.ctx, users[0].ID, amount("10"), amount("0.25"))
			So(err, ShouldBeNil)
			So(conv.Format(breakdown.Cashback), ShouldEqual, "2.50000000")
			So(conv.Format(breakdown.Treasury), ShouldEqual, "7.50000000")
		})

		Convey("distributed amounts should be truncated to eight decimals", func() {
			breakdown, err := f.service.CalculateFeeBreakdown(f.ctx, users[1].ID, amount("0.00000009"), nil)
			So(err, ShouldBeNil)
			So(conv.Format(breakdown.Cashback), ShouldEqual, "0.00000000")
			So(conv.Format(breakdown.Commissions[model.ReferralLevel1].Amount), ShouldEqual, "0.00000002")
			So(conv.Format(breakdown.Treasury), ShouldEqual, "0.00000007")
		})

		Convey("a negative fee should not be distributed", func() {
			breakdown, err := f.service.CalculateFeeBreakdown(f.ctx, payer.ID, amount("-5"), nil)
			So(err, ShouldBeNil)
			So(breakdown.Cashback.Sign(), ShouldEqual, 0)
			So(breakdown.Commissions, ShouldBeEmpty)
			So(breakdown.Treasury.Cmp(amount("-5")), ShouldEqual, 0)
		})
	})

	Convey("An unknown user should be reported as not found", t, func() {
		f := newFixture()
		_, err := f.service.CalculateFeeBreakdown(f.ctx, 42, amount("10"), nil)
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldEqual, "user not found")
	})
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func boolPtr(value bool) *bool {
	return &value
}
