package fees

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
	"github.com/fuselabs/fuse-launchpad/internal/referral"
	"github.com/fuselabs/fuse-launchpad/internal/storage/memory"
)

func newTestRouter(t *testing.T) (*Router, *referral.Service) {
	t.Helper()
	store := memory.NewStorage()
	refs := referral.NewService(store, zaptest.NewLogger(t))
	return NewRouter(curve.DefaultParams(), refs, zaptest.NewLogger(t)), refs
}

func TestComputeFee(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, uint64(10_000_000), r.ComputeFee(1_000_000_000))
	assert.Equal(t, uint64(0), r.ComputeFee(99)) // below 1 lamport of fee
	assert.Equal(t, uint64(1), r.ComputeFee(100))
}

func TestSplitFeeWithoutReferrer(t *testing.T) {
	r, _ := newTestRouter(t)

	split := r.SplitFee(10_000_000, false)
	assert.Equal(t, uint64(2_000_000), split.Creator)
	assert.Equal(t, uint64(8_000_000), split.Protocol)
	assert.Equal(t, uint64(0), split.Referral)
	assert.Equal(t, split.Total, split.Protocol+split.Creator+split.Referral)
}

func TestSplitFeeWithReferrer(t *testing.T) {
	r, _ := newTestRouter(t)

	split := r.SplitFee(10_000_000, true)
	assert.Equal(t, uint64(2_000_000), split.Creator)
	assert.Equal(t, uint64(800_000), split.Referral)
	assert.Equal(t, uint64(7_200_000), split.Protocol)
	assert.Equal(t, split.Total, split.Protocol+split.Creator+split.Referral)
}

func TestSplitFeeRoundingFavorsProtocol(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, total := range []uint64{1, 3, 7, 99, 101, 12_345} {
		split := r.SplitFee(total, true)
		assert.Equal(t, total, split.Protocol+split.Creator+split.Referral,
			"split of %d must conserve every lamport", total)
	}
}

func TestRouteCreditsReferrer(t *testing.T) {
	r, refs := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, refs.Bind(ctx, "buyerWallet", "referrerWallet"))

	split := r.Route(ctx, "buyerWallet", "buy", 10_000_000)
	assert.Equal(t, uint64(800_000), split.Referral)
	assert.Equal(t, uint64(7_200_000), split.Protocol)
	assert.Equal(t, uint64(7_200_000), r.TreasuryAccrued())

	account, err := refs.Summary(ctx, "referrerWallet")
	require.NoError(t, err)
	assert.Equal(t, uint64(800_000), account.Pending)
	assert.Equal(t, uint64(800_000), account.TotalEarned)
}

func TestRouteWithoutReferrerKeepsFullProtocolShare(t *testing.T) {
	r, _ := newTestRouter(t)

	split := r.Route(context.Background(), "loneWallet", "sell", 10_000_000)
	assert.Equal(t, uint64(0), split.Referral)
	assert.Equal(t, uint64(8_000_000), split.Protocol)
	assert.Equal(t, uint64(8_000_000), r.TreasuryAccrued())
}

func TestAccrueCreationFee(t *testing.T) {
	r, _ := newTestRouter(t)

	fee := r.AccrueCreationFee()
	assert.Equal(t, curve.DefaultCreationFeeLamports, fee)
	assert.Equal(t, fee, r.TreasuryAccrued())
	assert.Equal(t, fee, r.CreationFeesAccrued())
}
