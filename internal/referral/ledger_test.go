package referral

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
	"github.com/fuselabs/fuse-launchpad/internal/storage/memory"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(memory.NewStorage(), zaptest.NewLogger(t))
}

func TestBindAndResolve(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Bind(ctx, "walletA", "walletR"))

	referrer, ok, err := svc.ReferrerOf(ctx, "walletA")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "walletR", referrer)

	account, err := svc.Summary(ctx, "walletR")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), account.ReferredCount)
}

func TestBindRejectsSelfReferral(t *testing.T) {
	svc := newTestService(t)

	err := svc.Bind(context.Background(), "walletA", "walletA")
	assert.ErrorIs(t, err, curve.ErrSelfReferral)
}

func TestBindIsSetOnce(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Bind(ctx, "walletA", "walletR1"))
	err := svc.Bind(ctx, "walletA", "walletR2")
	assert.ErrorIs(t, err, curve.ErrReferralExists)

	// First binding survives.
	referrer, ok, err := svc.ReferrerOf(ctx, "walletA")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "walletR1", referrer)
}

func TestResolveUnknownWallet(t *testing.T) {
	svc := newTestService(t)

	_, ok, err := svc.ReferrerOf(context.Background(), "stranger")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreditAccumulatesPending(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Bind(ctx, "walletA", "walletR"))
	require.NoError(t, svc.Credit(ctx, "walletA", "walletR", "buy", 10_000_000, 800_000))
	require.NoError(t, svc.Credit(ctx, "walletA", "walletR", "sell", 5_030_349, 402_427))

	account, err := svc.Summary(ctx, "walletR")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_202_427), account.Pending)
	assert.Equal(t, uint64(1_202_427), account.TotalEarned)
	assert.Equal(t, uint64(0), account.Claimed)

	earnings, err := svc.Earnings(ctx, "walletR", 10, 0)
	require.NoError(t, err)
	require.Len(t, earnings, 2)
}

func TestClaimDrainsPending(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Bind(ctx, "walletA", "walletR"))
	require.NoError(t, svc.Credit(ctx, "walletA", "walletR", "buy", 10_000_000, 800_000))

	amount, err := svc.Claim(ctx, "walletR")
	require.NoError(t, err)
	assert.Equal(t, uint64(800_000), amount)

	account, err := svc.Summary(ctx, "walletR")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), account.Pending)
	assert.Equal(t, uint64(800_000), account.Claimed)
	assert.Equal(t, uint64(800_000), account.TotalEarned)

	// A second claim has nothing to settle.
	amount, err = svc.Claim(ctx, "walletR")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), amount)
}

func TestZeroCreditIsNoOp(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, "walletA", "walletR", "buy", 10, 0))

	account, err := svc.Summary(ctx, "walletR")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), account.TotalEarned)
}
