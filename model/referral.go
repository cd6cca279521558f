package model

import "time"

// ReferralLevel is the distance between a referrer and a referee in the referral graph
type ReferralLevel int

func (r ReferralLevel) Int() int {
	return int(r)
}

const (
	ReferralLevel1 ReferralLevel = 1
	ReferralLevel2 ReferralLevel = 2
	ReferralLevel3 ReferralLevel = 3
)

// MaxReferralDepth is the deepest level that can receive commissions or be registered
const MaxReferralDepth = 3

// Referral records that a user joined under a referrer. Rows are never updated.
type Referral struct {
	ID         uint64        `sql:"type:bigint" gorm:"primary_key" json:"id"`
	ReferrerID uint64        `gorm:"column:referrer_id" json:"referrerId"`
	RefereeID  uint64        `gorm:"column:referee_id" json:"refereeId"`
	Level      ReferralLevel `gorm:"column:level" json:"level"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// ReferralTree lists the users referred directly (L1) or transitively (L2, L3)
type ReferralTree struct {
	L1 []uint64 `json:"L1"`
	L2 []uint64 `json:"L2"`
	L3 []uint64 `json:"L3"`
}

// ReferralNetwork is the network view of a single user
type ReferralNetwork struct {
	UserID     uint64       `json:"userId"`
	ReferrerID *uint64      `json:"referrerId"`
	Referees   ReferralTree `json:"referees"`
	Total      int          `json:"total"`
}

// RegisterReferralRequest structure
type RegisterReferralRequest struct {
	ReferralCode string `json:"referralCode" binding:"required"`
	UserID       uint64 `json:"userId" binding:"required"`
}

// ReferralRegistration is the outcome of a referral registration
type ReferralRegistration struct {
	Message           string        `json:"message"`
	ReferrerID        uint64        `json:"referrerId,omitempty"`
	Level             ReferralLevel `json:"level,omitempty"`
	DepthLimitReached bool          `json:"depthLimitReached"`
}
