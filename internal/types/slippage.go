// internal/types/slippage.go
package types

import "math/bits"

// SlippageType selects how a trade's minimum-out bound is derived.
type SlippageType string

const (
	// SlippageFixed uses an exact minimum-out value supplied by the caller.
	SlippageFixed SlippageType = "fixed"
	// SlippagePercent derives the minimum from a tolerated percentage drop
	// below the quoted output.
	SlippagePercent SlippageType = "percent"
	// SlippageNone disables the bound.
	SlippageNone SlippageType = "none"
)

// SlippageConfig configures the slippage policy for a trade.
type SlippageConfig struct {
	Type SlippageType `json:"type"`
	// Value holds, for SlippageFixed, the exact minimum-out in base units;
	// for SlippagePercent, tolerated basis points of slippage (100 = 1%).
	Value uint64 `json:"value"`
}

// MinAmountOut computes the minimum acceptable output for a quoted amount.
// All math is integer basis points, floored, so the bound is permissive by at
// most one base unit.
func MinAmountOut(quoted uint64, cfg SlippageConfig) uint64 {
	switch cfg.Type {
	case SlippageFixed:
		return cfg.Value
	case SlippagePercent:
		if cfg.Value >= 10_000 {
			return 0
		}
		// quoted * (10000 - value) stays below 10000 * 2^64, so the 128-bit
		// quotient fits a uint64.
		hi, lo := bits.Mul64(quoted, 10_000-cfg.Value)
		q, _ := bits.Div64(hi, lo, 10_000)
		return q
	case SlippageNone:
		return 0
	default:
		return 0
	}
}
