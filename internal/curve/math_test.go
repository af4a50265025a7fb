package curve

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCurve(t *testing.T) (*BondingCurve, Params) {
	t.Helper()
	p := DefaultParams()
	c := New(p, solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(),
		"Test Token", "TEST", "https://ipfs.io/ipfs/QmTest", time.Now().UTC())
	return c, p
}

func TestQuoteBuy_OneSolScenario(t *testing.T) {
	c, p := newTestCurve(t)

	q, err := QuoteBuy(c, p, 1_000_000_000)
	require.NoError(t, err)

	// 1% of 1 SOL off the top, remainder priced by the constant product.
	assert.Equal(t, uint64(10_000_000), q.Fee)
	assert.Equal(t, uint64(990_000_000), q.NetSolIn)
	// floor(1_073_000_000_000_000 * 990_000_000 / 30_990_000_000)
	assert.Equal(t, uint64(34_277_831_558_567), q.TokensOut)
}

func TestQuoteBuy_Validation(t *testing.T) {
	c, p := newTestCurve(t)

	_, err := QuoteBuy(c, p, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	c.Complete = true
	_, err = QuoteBuy(c, p, 1_000_000_000)
	assert.ErrorIs(t, err, ErrCurveComplete)
}

func TestQuoteBuy_InsufficientLiquidity(t *testing.T) {
	c, p := newTestCurve(t)

	// Leave almost nothing in the vault; any meaningful buy must fail rather
	// than underflow the real reserves.
	c.RealTokenReserves = 1_000

	_, err := QuoteBuy(c, p, 1_000_000_000)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestQuoteSell_Validation(t *testing.T) {
	c, p := newTestCurve(t)

	_, err := QuoteSell(c, p, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	c.Complete = true
	_, err = QuoteSell(c, p, 1_000)
	assert.ErrorIs(t, err, ErrCurveComplete)
}

func TestQuoteSell_CannotDrainRealSol(t *testing.T) {
	c, p := newTestCurve(t)

	// Fresh curve holds zero real SOL; selling anything must be rejected.
	_, err := QuoteSell(c, p, 1_000_000_000)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestBuyThenSell_RoundTripNeverProfits(t *testing.T) {
	c, p := newTestCurve(t)

	amounts := []uint64{1_000, 1_000_000, 1_000_000_000, 10_000_000_000, 84_000_000_000}
	for _, solIn := range amounts {
		buy, err := QuoteBuy(c, p, solIn)
		require.NoError(t, err, "buy of %d lamports", solIn)
		ApplyBuy(c, buy)

		sell, err := QuoteSell(c, p, buy.TokensOut)
		require.NoError(t, err, "sell of %d tokens", buy.TokensOut)

		// Fees plus floor rounding strictly reduce round-trip value.
		assert.Less(t, sell.SolOut, solIn, "round trip of %d lamports must lose value", solIn)

		ApplySell(c, sell)
	}
}

func TestApplyBuy_ReserveConservation(t *testing.T) {
	c, p := newTestCurve(t)

	realSolBefore := c.RealSolReserves
	realTokBefore := c.RealTokenReserves

	q, err := QuoteBuy(c, p, 2_000_000_000)
	require.NoError(t, err)
	ApplyBuy(c, q)

	assert.Equal(t, realSolBefore+q.NetSolIn, c.RealSolReserves)
	assert.Equal(t, realTokBefore-q.TokensOut, c.RealTokenReserves)
	assert.Equal(t, c.TokenTotalSupply, c.RealTokenReserves+c.TokensHeldByUsers())
}

func TestApplySell_ReserveConservation(t *testing.T) {
	c, p := newTestCurve(t)

	buy, err := QuoteBuy(c, p, 2_000_000_000)
	require.NoError(t, err)
	ApplyBuy(c, buy)

	realSolBefore := c.RealSolReserves

	sell, err := QuoteSell(c, p, buy.TokensOut/2)
	require.NoError(t, err)
	ApplySell(c, sell)

	assert.Equal(t, realSolBefore-sell.GrossSolOut, c.RealSolReserves)
}

func TestIsGraduated(t *testing.T) {
	c, p := newTestCurve(t)

	assert.False(t, IsGraduated(c, p))

	c.RealSolReserves = p.GraduationSolThreshold - 1
	assert.False(t, IsGraduated(c, p))

	c.RealSolReserves = p.GraduationSolThreshold
	assert.True(t, IsGraduated(c, p))
}

func TestPriceAndMarketCap(t *testing.T) {
	c, p := newTestCurve(t)

	// Seed price: 30e9 * 1e6 / 1.073e15 = 27 (floored), ~0.000000028 SOL/token.
	assert.Equal(t, uint64(27), c.PriceLamports())

	buy, err := QuoteBuy(c, p, 50_000_000_000)
	require.NoError(t, err)
	ApplyBuy(c, buy)

	assert.Greater(t, c.PriceLamports(), uint64(27))
	assert.Equal(t, mulDiv(c.TokenTotalSupply, c.PriceLamports(), 1_000_000), c.MarketCapLamports())
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	bad := p
	bad.ProtocolFeeShare = 90
	assert.Error(t, bad.Validate())

	bad = p
	bad.FeeBasisPoints = 10_000
	assert.Error(t, bad.Validate())

	bad = p
	bad.RealTokenReserves = p.TotalSupply + 1
	assert.Error(t, bad.Validate())
}
