package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinAmountOut(t *testing.T) {
	tests := []struct {
		name   string
		quoted uint64
		cfg    SlippageConfig
		want   uint64
	}{
		{"fixed bound", 1_000_000, SlippageConfig{Type: SlippageFixed, Value: 950_000}, 950_000},
		{"one percent", 1_000_000, SlippageConfig{Type: SlippagePercent, Value: 100}, 990_000},
		{"half percent floors", 999, SlippageConfig{Type: SlippagePercent, Value: 50}, 994},
		{"zero tolerance", 1_000_000, SlippageConfig{Type: SlippagePercent, Value: 0}, 1_000_000},
		{"full tolerance", 1_000_000, SlippageConfig{Type: SlippagePercent, Value: 10_000}, 0},
		{"disabled", 1_000_000, SlippageConfig{Type: SlippageNone}, 0},
		{"zero value defaults off", 1_000_000, SlippageConfig{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinAmountOut(tt.quoted, tt.cfg))
		})
	}
}

func TestMinAmountOutLargeQuoteNoOverflow(t *testing.T) {
	// Near the uint64 ceiling the 128-bit path must not wrap.
	quoted := uint64(1) << 63
	got := MinAmountOut(quoted, SlippageConfig{Type: SlippagePercent, Value: 100})
	assert.Equal(t, uint64(9_131_138_316_486_228_049), got)
}
