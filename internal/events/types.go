// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventType represents the type of event.
type EventType string

const (
	// Curve lifecycle
	CurveInitialized EventType = "curve.initialized"
	TradeExecuted    EventType = "curve.trade_executed"

	// Graduation / migration lifecycle
	GraduationTriggered EventType = "migration.graduation_triggered"
	CurveCompleted      EventType = "migration.curve_completed"
	MigrationFailed     EventType = "migration.failed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps a BaseEvent with the current UTC time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now().UTC()}
}

// CurveInitializedEvent is emitted when a new token launches on the curve.
type CurveInitializedEvent struct {
	BaseEvent
	Mint    solana.PublicKey
	Creator solana.PublicKey
	Name    string
	Symbol  string
	URI     string
}

// TradeExecutedEvent is emitted once per settled buy or sell. The external
// indexer persists it as a trade record.
type TradeExecutedEvent struct {
	BaseEvent
	Signature            string
	Mint                 solana.PublicKey
	User                 solana.PublicKey
	IsBuy                bool
	SolAmount            uint64 // net SOL into the curve (buy) or gross SOL out (sell)
	TokenAmount          uint64
	Fee                  uint64
	Price                uint64 // lamports per token, scaled 1e6
	MarketCapLamports    uint64
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealSolReserves      uint64
	Slot                 uint64
}

// GraduationTriggeredEvent is emitted exactly once per curve, by the trade
// that pushes real SOL reserves over the graduation threshold.
type GraduationTriggeredEvent struct {
	BaseEvent
	Mint              solana.PublicKey
	RealSolReserves   uint64
	MarketCapLamports uint64
}

// CurveCompletedEvent is emitted after liquidity has been extracted, the
// external pool created and the LP locked.
type CurveCompletedEvent struct {
	BaseEvent
	Mint           solana.PublicKey
	PoolAddress    solana.PublicKey
	SolMigrated    uint64
	TokensMigrated uint64
	CreatorPayout  uint64
}

// MigrationFailedEvent is emitted when a migration exhausts its retries and
// requires operator intervention.
type MigrationFailedEvent struct {
	BaseEvent
	Mint   solana.PublicKey
	Reason string
}
