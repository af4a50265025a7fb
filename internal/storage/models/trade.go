// internal/storage/models/trade.go
package models

import "time"

// TradeRecord is one executed buy or sell. Rows are append-only: a record is
// never updated after creation.
type TradeRecord struct {
	BaseModel
	Signature   string    `gorm:"unique;not null;type:varchar(88)"`
	Mint        string    `gorm:"index;not null;type:varchar(44)"`
	User        string    `gorm:"index;not null;type:varchar(44)"`
	IsBuy       bool      `gorm:"not null"`
	SolAmount   uint64    `gorm:"not null"`
	TokenAmount uint64    `gorm:"not null"`
	Fee         uint64    `gorm:"not null"`
	Price       uint64    `gorm:"not null"` // lamports per token, scaled 1e6
	MarketCap   uint64    `gorm:"not null"`
	Slot        uint64    `gorm:"index"`
	ExecutedAt  time.Time `gorm:"index;not null"`
}
