// =============================
// File: internal/curve/math.go
// =============================
package curve

import (
	"github.com/holiman/uint256"
)

// BuyQuote is the priced outcome of a buy before it is applied.
type BuyQuote struct {
	SolIn     uint64 // gross lamports supplied by the buyer
	Fee       uint64 // total trade fee, taken off the top
	NetSolIn  uint64 // lamports that actually enter the curve
	TokensOut uint64 // token units leaving the vault
}

// SellQuote is the priced outcome of a sell before it is applied.
type SellQuote struct {
	TokensIn    uint64 // token units returned to the vault
	GrossSolOut uint64 // lamports leaving the curve before the fee
	Fee         uint64 // total trade fee, taken from the gross output
	SolOut      uint64 // lamports the seller receives
}

// QuoteBuy prices a buy of solIn lamports against a snapshot of the curve.
// The constant-product division floors, so rounding always favors the pool.
func QuoteBuy(c *BondingCurve, p Params, solIn uint64) (BuyQuote, error) {
	if solIn == 0 {
		return BuyQuote{}, ErrInvalidAmount
	}
	if c.Complete {
		return BuyQuote{}, ErrCurveComplete
	}

	fee := mulDiv(solIn, p.FeeBasisPoints, 10_000)
	net := solIn - fee

	// tokens_out = virtual_token_reserves * net / (virtual_sol_reserves + net)
	denom, carry := add64(c.VirtualSolReserves, net)
	if carry {
		return BuyQuote{}, ErrMathOverflow
	}
	tokensOut := mulDiv(c.VirtualTokenReserves, net, denom)

	if tokensOut == 0 {
		return BuyQuote{}, ErrInvalidAmount
	}
	if tokensOut > c.RealTokenReserves || tokensOut >= c.VirtualTokenReserves {
		return BuyQuote{}, ErrInsufficientLiquidity
	}

	return BuyQuote{SolIn: solIn, Fee: fee, NetSolIn: net, TokensOut: tokensOut}, nil
}

// QuoteSell prices a sell of tokensIn units against a snapshot of the curve.
func QuoteSell(c *BondingCurve, p Params, tokensIn uint64) (SellQuote, error) {
	if tokensIn == 0 {
		return SellQuote{}, ErrInvalidAmount
	}
	if c.Complete {
		return SellQuote{}, ErrCurveComplete
	}

	// gross_sol_out = virtual_sol_reserves * tokens_in / (virtual_token_reserves + tokens_in)
	denom, carry := add64(c.VirtualTokenReserves, tokensIn)
	if carry {
		return SellQuote{}, ErrMathOverflow
	}
	gross := mulDiv(c.VirtualSolReserves, tokensIn, denom)

	if gross > c.RealSolReserves || gross >= c.VirtualSolReserves {
		return SellQuote{}, ErrInsufficientLiquidity
	}

	fee := mulDiv(gross, p.FeeBasisPoints, 10_000)
	return SellQuote{TokensIn: tokensIn, GrossSolOut: gross, Fee: fee, SolOut: gross - fee}, nil
}

// IsGraduated reports whether the curve's real SOL reserves have crossed the
// configured graduation threshold.
func IsGraduated(c *BondingCurve, p Params) bool {
	return c.RealSolReserves >= p.GraduationSolThreshold
}

// ApplyBuy mutates the curve with a previously validated quote. The caller
// holds the per-mint lock; all four reserves move in one step.
func ApplyBuy(c *BondingCurve, q BuyQuote) {
	c.VirtualSolReserves += q.NetSolIn
	c.VirtualTokenReserves -= q.TokensOut
	c.RealSolReserves += q.NetSolIn
	c.RealTokenReserves -= q.TokensOut
}

// ApplySell mutates the curve with a previously validated quote under the
// per-mint lock.
func ApplySell(c *BondingCurve, q SellQuote) {
	c.VirtualSolReserves -= q.GrossSolOut
	c.VirtualTokenReserves += q.TokensIn
	c.RealSolReserves -= q.GrossSolOut
	c.RealTokenReserves += q.TokensIn
}

// mulDiv computes floor(a*b/d) with a 256-bit intermediate so the product can
// never overflow. d must be non-zero.
func mulDiv(a, b, d uint64) uint64 {
	var x, y, z uint256.Int
	x.SetUint64(a)
	y.SetUint64(b)
	z.SetUint64(d)
	x.Mul(&x, &y)
	x.Div(&x, &z)
	return x.Uint64()
}

// add64 returns a+b and whether the addition wrapped.
func add64(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s < a
}
