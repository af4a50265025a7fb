// internal/storage/models/migration.go
package models

import "time"

// Migration record statuses. A record advances pending → pool_created →
// lp_locked, or lands in failed after exhausting retries. lp_locked and
// failed are terminal.
const (
	MigrationPending     = "pending"
	MigrationPoolCreated = "pool_created"
	MigrationLpLocked    = "lp_locked"
	MigrationFailed      = "failed"
)

// MigrationRecord tracks the one-shot graduation of a curve into an external
// AMM pool. Exactly one row exists per mint.
type MigrationRecord struct {
	BaseModel
	Mint            string `gorm:"unique;not null;type:varchar(44)"`
	Status          string `gorm:"index;not null;type:varchar(20)"`
	PoolAddress     string `gorm:"type:varchar(44)"`
	Creator         string `gorm:"type:varchar(44)"`
	SolExtracted    uint64
	TokensExtracted uint64
	CreatorPayout   uint64
	PayoutSignature string `gorm:"type:varchar(88)"`
	LockSignature   string `gorm:"type:varchar(88)"`
	Attempts       int    `gorm:"not null;default:0"`
	LastError      string `gorm:"type:text"`
	GraduatedAt    time.Time
	CompletedAt    *time.Time
}
