package migration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
	"github.com/fuselabs/fuse-launchpad/internal/engine"
	"github.com/fuselabs/fuse-launchpad/internal/fees"
	"github.com/fuselabs/fuse-launchpad/internal/referral"
	"github.com/fuselabs/fuse-launchpad/internal/storage"
	"github.com/fuselabs/fuse-launchpad/internal/storage/memory"
	"github.com/fuselabs/fuse-launchpad/internal/storage/models"
)

// migrationAuthority is the wallet every test coordinator drains with.
var migrationAuthority = solana.NewWallet().PublicKey()

type fakePoolClient struct {
	mu          sync.Mutex
	createCalls int
	lockCalls   int
	payCalls    int
	paidTotal   uint64
	failCreate  error
	failLock    error
	failPay     error
	pool        solana.PublicKey
}

func newFakePoolClient() *fakePoolClient {
	return &fakePoolClient{pool: solana.NewWallet().PublicKey()}
}

func (f *fakePoolClient) CreatePool(_ context.Context, _ solana.PublicKey, _, _ uint64) (solana.PublicKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreate != nil {
		return solana.PublicKey{}, f.failCreate
	}
	return f.pool, nil
}

func (f *fakePoolClient) LockLiquidity(_ context.Context, _, _ solana.PublicKey) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockCalls++
	if f.failLock != nil {
		return "", f.failLock
	}
	return "lock-signature", nil
}

func (f *fakePoolClient) PayCreator(_ context.Context, _ solana.PublicKey, lamports uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payCalls++
	if f.failPay != nil {
		return "", f.failPay
	}
	f.paidTotal += lamports
	return "pay-signature", nil
}

// graduatedFixture launches a curve, pushes it over a low graduation
// threshold, and wires a coordinator with a fast retry policy.
func graduatedFixture(t *testing.T, pool PoolClient) (*Coordinator, *engine.Executor, storage.Storage, solana.PublicKey, curve.BondingCurve) {
	t.Helper()

	params := curve.DefaultParams()
	params.GraduationSolThreshold = 1_000_000_000
	params.SniperWindow = 0

	logger := zaptest.NewLogger(t)
	store := memory.NewStorage()
	refs := referral.NewService(store, logger)
	router := fees.NewRouter(params, refs, logger)
	executor := engine.NewExecutor(params, migrationAuthority, router, nil, logger)

	creator := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	ctx := context.Background()

	_, err := executor.Launch(ctx, creator, mint, "Grad Token", "GRAD", "")
	require.NoError(t, err)

	result, err := executor.Buy(ctx, engine.TradeRequest{
		Mint:   mint,
		User:   solana.NewWallet().PublicKey(),
		Amount: 2_000_000_000,
	})
	require.NoError(t, err)
	require.True(t, result.Graduated)

	cfg := Config{Authority: migrationAuthority, MaxTries: 2, StepTimeout: time.Second}
	coordinator := NewCoordinator(executor, pool, store, nil, cfg, logger)
	return coordinator, executor, store, mint, result.Curve
}

func TestMigrationHappyPath(t *testing.T) {
	pool := newFakePoolClient()
	coordinator, _, store, mint, snapshot := graduatedFixture(t, pool)
	ctx := context.Background()

	require.NoError(t, coordinator.HandleGraduation(ctx, mint))

	rec, err := store.GetMigration(ctx, mint.String())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.MigrationLpLocked, rec.Status)
	assert.Equal(t, pool.pool.String(), rec.PoolAddress)
	assert.Equal(t, "lock-signature", rec.LockSignature)
	assert.Equal(t, snapshot.RealSolReserves, rec.SolExtracted)
	assert.Equal(t, snapshot.RealTokenReserves, rec.TokensExtracted)
	assert.Equal(t, snapshot.CreatorFeeAccumulated, rec.CreatorPayout)
	assert.Equal(t, "pay-signature", rec.PayoutSignature)
	assert.NotNil(t, rec.CompletedAt)

	assert.Equal(t, 1, pool.createCalls)
	assert.Equal(t, 1, pool.lockCalls)
	assert.Equal(t, 1, pool.payCalls)
	assert.Equal(t, snapshot.CreatorFeeAccumulated, pool.paidTotal)
}

func TestMigrationIsIdempotent(t *testing.T) {
	pool := newFakePoolClient()
	coordinator, _, _, mint, _ := graduatedFixture(t, pool)
	ctx := context.Background()

	require.NoError(t, coordinator.HandleGraduation(ctx, mint))
	require.NoError(t, coordinator.HandleGraduation(ctx, mint))
	require.NoError(t, coordinator.HandleGraduation(ctx, mint))

	// The creator is paid exactly once and each leg runs exactly once.
	assert.Equal(t, 1, pool.createCalls)
	assert.Equal(t, 1, pool.lockCalls)
	assert.Equal(t, 1, pool.payCalls)
}

func TestMigrationResumesFromPoolCreated(t *testing.T) {
	pool := newFakePoolClient()
	coordinator, _, store, mint, _ := graduatedFixture(t, pool)
	ctx := context.Background()
	creator := solana.NewWallet().PublicKey()

	// Simulate a crash after pool creation: extraction and pool are done,
	// the creator payout and LP lock are not.
	require.NoError(t, store.CreateMigration(ctx, &models.MigrationRecord{
		Mint:            mint.String(),
		Status:          models.MigrationPoolCreated,
		PoolAddress:     pool.pool.String(),
		Creator:         creator.String(),
		SolExtracted:    1_980_000_000,
		TokensExtracted: 700_000_000_000_000,
		CreatorPayout:   4_000_000,
		GraduatedAt:     time.Now().UTC(),
	}))

	require.NoError(t, coordinator.HandleGraduation(ctx, mint))

	rec, err := store.GetMigration(ctx, mint.String())
	require.NoError(t, err)
	assert.Equal(t, models.MigrationLpLocked, rec.Status)

	// The extraction and the pool are reused, the missing legs run.
	assert.Equal(t, 0, pool.createCalls)
	assert.Equal(t, 1, pool.lockCalls)

	// The unpaid creator balance is settled on resume, exactly once.
	assert.Equal(t, 1, pool.payCalls)
	assert.Equal(t, uint64(4_000_000), pool.paidTotal)
	assert.Equal(t, "pay-signature", rec.PayoutSignature)
}

func TestMigrationResumeSkipsSettledPayout(t *testing.T) {
	pool := newFakePoolClient()
	coordinator, _, store, mint, _ := graduatedFixture(t, pool)
	ctx := context.Background()

	require.NoError(t, store.CreateMigration(ctx, &models.MigrationRecord{
		Mint:            mint.String(),
		Status:          models.MigrationPoolCreated,
		PoolAddress:     pool.pool.String(),
		Creator:         solana.NewWallet().PublicKey().String(),
		SolExtracted:    1_980_000_000,
		TokensExtracted: 700_000_000_000_000,
		CreatorPayout:   4_000_000,
		PayoutSignature: "prior-pay-signature",
		GraduatedAt:     time.Now().UTC(),
	}))

	require.NoError(t, coordinator.HandleGraduation(ctx, mint))

	// The recorded signature proves the transfer landed; no double payout.
	assert.Equal(t, 0, pool.payCalls)
	assert.Equal(t, 1, pool.lockCalls)
}

func TestRetrySettlesCreatorPayoutAfterFailure(t *testing.T) {
	pool := newFakePoolClient()
	pool.failPay = errors.New("rpc unavailable")
	coordinator, _, store, mint, snapshot := graduatedFixture(t, pool)
	ctx := context.Background()

	// Extraction succeeds, every payout attempt fails, the migration parks
	// as failed with the amounts recorded.
	require.Error(t, coordinator.HandleGraduation(ctx, mint))

	rec, err := store.GetMigration(ctx, mint.String())
	require.NoError(t, err)
	assert.Equal(t, models.MigrationFailed, rec.Status)
	assert.Equal(t, snapshot.CreatorFeeAccumulated, rec.CreatorPayout)
	assert.Empty(t, rec.PayoutSignature)
	assert.Zero(t, pool.paidTotal)

	// Operator clears the fault and retries; the creator gets the full
	// recorded balance, paid exactly once, and the migration completes.
	pool.mu.Lock()
	pool.failPay = nil
	payAttempts := pool.payCalls
	pool.mu.Unlock()

	require.NoError(t, coordinator.Retry(ctx, mint))

	rec, err = store.GetMigration(ctx, mint.String())
	require.NoError(t, err)
	assert.Equal(t, models.MigrationLpLocked, rec.Status)
	assert.Equal(t, "pay-signature", rec.PayoutSignature)
	assert.Equal(t, rec.CreatorPayout, pool.paidTotal)
	assert.Equal(t, payAttempts+1, pool.payCalls)
}

func TestMigrationFailsAfterRetryExhaustion(t *testing.T) {
	pool := newFakePoolClient()
	pool.failCreate = errors.New("rpc unavailable")
	coordinator, _, store, mint, _ := graduatedFixture(t, pool)
	ctx := context.Background()

	err := coordinator.HandleGraduation(ctx, mint)
	require.Error(t, err)

	rec, err := store.GetMigration(ctx, mint.String())
	require.NoError(t, err)
	assert.Equal(t, models.MigrationFailed, rec.Status)
	assert.Contains(t, rec.LastError, "rpc unavailable")
	assert.Equal(t, 2, pool.createCalls) // MaxTries attempts

	// The sweep skips failed migrations.
	require.NoError(t, coordinator.ProcessPending(ctx))
	assert.Equal(t, 2, pool.createCalls)
}

func TestRetryResetsFailedMigration(t *testing.T) {
	pool := newFakePoolClient()
	pool.failCreate = errors.New("rpc unavailable")
	coordinator, _, store, mint, _ := graduatedFixture(t, pool)
	ctx := context.Background()

	require.Error(t, coordinator.HandleGraduation(ctx, mint))

	// Operator fixes the underlying issue and retries.
	pool.mu.Lock()
	pool.failCreate = nil
	pool.mu.Unlock()

	require.NoError(t, coordinator.Retry(ctx, mint))

	rec, err := store.GetMigration(ctx, mint.String())
	require.NoError(t, err)
	assert.Equal(t, models.MigrationLpLocked, rec.Status)
}

func TestRetryRejectsNonFailedMigration(t *testing.T) {
	pool := newFakePoolClient()
	coordinator, _, _, mint, _ := graduatedFixture(t, pool)
	ctx := context.Background()

	require.NoError(t, coordinator.HandleGraduation(ctx, mint))

	err := coordinator.Retry(ctx, mint)
	assert.Error(t, err)
}

func TestProcessPendingPicksUpStalledMigration(t *testing.T) {
	pool := newFakePoolClient()
	coordinator, executor, store, mint, _ := graduatedFixture(t, pool)
	ctx := context.Background()

	// A record was created but the process died before any leg ran.
	require.NoError(t, store.CreateMigration(ctx, &models.MigrationRecord{
		Mint:        mint.String(),
		Status:      models.MigrationPending,
		GraduatedAt: time.Now().UTC(),
	}))

	require.NoError(t, coordinator.ProcessPending(ctx))

	rec, err := store.GetMigration(ctx, mint.String())
	require.NoError(t, err)
	assert.Equal(t, models.MigrationLpLocked, rec.Status)

	// Extraction went through the engine exactly once.
	_, err = executor.ExtractLiquidity(ctx, migrationAuthority, mint)
	assert.ErrorIs(t, err, curve.ErrAlreadyMigrated)
}
