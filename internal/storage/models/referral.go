// internal/storage/models/referral.go
package models

import "time"

// ReferralAccount aggregates a referrer's lifetime earnings. The binding of a
// referred wallet to its referrer is immutable once set.
type ReferralAccount struct {
	BaseModel
	Referrer      string `gorm:"unique;not null;type:varchar(44)"`
	Code          string `gorm:"index;type:varchar(20)"`
	ReferredCount uint64 `gorm:"not null;default:0"`
	TotalEarned   uint64 `gorm:"not null;default:0"`
	Pending       uint64 `gorm:"not null;default:0"`
	Claimed       uint64 `gorm:"not null;default:0"`
}

// ReferralBinding ties a referred wallet to the referrer that recruited it.
// The first binding wins and is never rewritten.
type ReferralBinding struct {
	BaseModel
	Referred string `gorm:"unique;not null;type:varchar(44)"`
	Referrer string `gorm:"index;not null;type:varchar(44)"`
	BoundAt  time.Time
}

// ReferralEarning is one append-only earning event, produced per fee-bearing
// trade by a referred wallet.
type ReferralEarning struct {
	BaseModel
	Referrer    string    `gorm:"index;not null;type:varchar(44)"`
	Referred    string    `gorm:"index;not null;type:varchar(44)"`
	Action      string    `gorm:"not null;type:varchar(10)"` // "buy" or "sell"
	OriginalFee uint64    `gorm:"not null"`
	Earning     uint64    `gorm:"not null"`
	EarnedAt    time.Time `gorm:"index;not null"`
}
