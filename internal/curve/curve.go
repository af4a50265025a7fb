// =============================
// File: internal/curve/curve.go
// =============================
package curve

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// BondingCurve is the authoritative reserve state of one launched token.
// All mutation happens under the owning registry's per-mint lock; the struct
// itself carries no synchronization.
type BondingCurve struct {
	Creator   solana.PublicKey
	TokenMint solana.PublicKey

	TokenTotalSupply uint64

	// Virtual reserves seed the constant product so the curve has a finite
	// non-zero starting price without real capital.
	VirtualSolReserves   uint64
	VirtualTokenReserves uint64

	// Real reserves track what is actually held in the vault.
	RealSolReserves   uint64
	RealTokenReserves uint64

	// Complete flips false→true exactly once, when real SOL reserves cross
	// the graduation threshold. No buy/sell succeeds afterwards.
	Complete bool

	// Migrated flips true when liquidity extraction has run. Extraction is
	// a one-shot operation; a second attempt must fail.
	Migrated bool

	// CreatorFeeAccumulated holds the creator's 20% fee cut, paid out in full
	// during migration.
	CreatorFeeAccumulated uint64

	LaunchTimestamp time.Time

	Name   string
	Symbol string
	URI    string
}

// New seeds a fresh curve for mint with the configured virtual and real reserves.
func New(p Params, creator, mint solana.PublicKey, name, symbol, uri string, launchedAt time.Time) *BondingCurve {
	return &BondingCurve{
		Creator:              creator,
		TokenMint:            mint,
		TokenTotalSupply:     p.TotalSupply,
		VirtualSolReserves:   p.VirtualSolReserves,
		VirtualTokenReserves: p.VirtualTokenReserves,
		RealSolReserves:      0,
		RealTokenReserves:    p.RealTokenReserves,
		LaunchTimestamp:      launchedAt,
		Name:                 name,
		Symbol:               symbol,
		URI:                  uri,
	}
}

// Snapshot returns a copy safe to read without the per-mint lock. Snapshots
// are for display quoting only; settlement always re-quotes under the lock.
func (c *BondingCurve) Snapshot() BondingCurve {
	return *c
}

// PriceLamports is the spot price in lamports per whole token, scaled by 1e6
// for precision (matching the on-chain event encoding).
func (c *BondingCurve) PriceLamports() uint64 {
	if c.VirtualTokenReserves == 0 {
		return 0
	}
	return mulDiv(c.VirtualSolReserves, priceScale, c.VirtualTokenReserves)
}

// MarketCapLamports derives the fully-diluted market cap from the spot price.
func (c *BondingCurve) MarketCapLamports() uint64 {
	return mulDiv(c.TokenTotalSupply, c.PriceLamports(), priceScale)
}

// TokensHeldByUsers is the supply currently outside the vault. The invariant
// RealTokenReserves + TokensHeldByUsers == TokenTotalSupply holds at all times
// while the curve is live.
func (c *BondingCurve) TokensHeldByUsers() uint64 {
	if c.Migrated {
		return c.TokenTotalSupply
	}
	return c.TokenTotalSupply - c.RealTokenReserves
}

// priceScale is the fixed-point factor for price encoding (1e6, one whole
// token at 6 decimals).
const priceScale = 1_000_000
