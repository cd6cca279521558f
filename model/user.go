package model

/*
 * Copyright © 2018-2019 Around25 SRL <office@around25.com>
 *
 * Licensed under the Around25 Wallet License Agreement (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.around25.com/licenses/EXCHANGE_LICENSE
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 * @author		Cosmin Harangus <cosmin@around25.com>
 * @copyright 2018-2019 Around25 SRL <office@around25.com>
 * @license 	EXCHANGE_LICENSE
 */

import (
	"database/sql/driver"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User structure
type User struct {
	ID uint64 `sql:"type: bigint" gorm:"primary_key" json:"id"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `gorm:"unique;" json:"email"`
	Password  string `gorm:"not null" json:"-"`

	// ReferralCode is assigned once and never changes afterwards
	ReferralCode *string `gorm:"column:referral_code" json:"referralCode"`
	// ReferrerID is set at most once and never points to the user itself
	ReferrerID *uint64 `gorm:"column:referrer_id" json:"referrerId"`

	FeeTier                   *float64                   `gorm:"column:fee_tier" json:"feeTier"`
	CashbackPercent           *float64                   `gorm:"column:cashback_percent" json:"cashbackPercent"`
	CustomCommissionStructure *CustomCommissionStructure `gorm:"column:custom_commission_structure" sql:"type:jsonb" json:"customCommissionStructure"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LevelCommissions overrides the default rates of the upper referral levels
type LevelCommissions struct {
	Level2 *float64 `json:"level2,omitempty"`
	Level3 *float64 `json:"level3,omitempty"`
}

// CustomCommissionStructure holds the per user overrides applied on the fee breakdown
type CustomCommissionStructure struct {
	IsKOL            bool              `json:"isKOL"`
	WaivedFees       bool              `json:"waivedFees"`
	DirectCommission *float64          `json:"directCommission,omitempty"`
	LevelCommissions *LevelCommissions `json:"levelCommissions,omitempty"`
}

// Value stores the structure as a json document
func (s CustomCommissionStructure) Value() (driver.Value, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan loads the structure from a json column
func (s *CustomCommissionStructure) Scan(value interface{}) error {
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, s)
	case string:
		return json.Unmarshal([]byte(data), s)
	case nil:
		*s = CustomCommissionStructure{}
		return nil
	}
	return fmt.Errorf("unsupported custom commission structure type %T", value)
}

// HasWaivedFees is true when the user pays fees that are fully retained by the treasury
func (user *User) HasWaivedFees() bool {
	return user.CustomCommissionStructure != nil && user.CustomCommissionStructure.WaivedFees
}

// DirectCommissionOverride returns the level 1 rate configured for the user, if any
func (user *User) DirectCommissionOverride() *float64 {
	if user.CustomCommissionStructure == nil {
		return nil
	}
	return user.CustomCommissionStructure.DirectCommission
}

// LevelCommissionOverride returns the rate configured for level 2 or 3, if any
func (user *User) LevelCommissionOverride(level ReferralLevel) *float64 {
	if user.CustomCommissionStructure == nil || user.CustomCommissionStructure.LevelCommissions == nil {
		return nil
	}
	switch level {
	case ReferralLevel2:
		return user.CustomCommissionStructure.LevelCommissions.Level2
	case ReferralLevel3:
		return user.CustomCommissionStructure.LevelCommissions.Level3
	}
	return nil
}

// HasReferrer godoc
func (user *User) HasReferrer() bool {
	return user.ReferrerID != nil
}

// NewUser creates a new user structure with a fresh referral code
func NewUser(firstName, lastName, email, pass string) *User {
	referralCode := NewReferralCode()
	return &User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Password:     pass,
		ReferralCode: &referralCode,
	}
}

// EncodePass encode the password
func (user *User) EncodePass() error {
	// Generate "hash" to store from user password
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)
	return nil
}

// ValidatePass check if the given password matches the user
func (user *User) ValidatePass(pass string) bool {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(pass)); err != nil {
		return false
	}
	return true
}

func (user *User) FullName() string {
	return fmt.Sprintf("%s %s", user.FirstName, user.LastName)
}

// SignupRequest structure
type SignupRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	ReferralCode string `json:"referralCode"`
}

// UserProfile is the user together with the wallets they hold
type UserProfile struct {
	User
	Wallets []*Wallet `json:"wallets"`
}

var referralCodeLetters = []rune("ABCDEFGHJKLMNPQRSTUVWXYZ23456789")

func init() {
	rand.Seed(time.Now().UnixNano())
}

// NewReferralCode generates a random 8 characters referral code
func NewReferralCode() string {
	return randSeq(8)
}

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = referralCodeLetters[rand.Intn(len(referralCodeLetters))]
	}
	return string(b)
}

// SignupResult structure
type SignupResult struct {
	Message  string                `json:"message"`
	User     *User                 `json:"user"`
	Referral *ReferralRegistration `json:"referral,omitempty"`
}
