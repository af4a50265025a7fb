// ======================================
// File: internal/migration/coordinator.go
// ======================================
package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
	"github.com/fuselabs/fuse-launchpad/internal/engine"
	"github.com/fuselabs/fuse-launchpad/internal/events"
	"github.com/fuselabs/fuse-launchpad/internal/storage"
	"github.com/fuselabs/fuse-launchpad/internal/storage/models"
)

// Config tunes the coordinator's retry behavior. Authority is the migration
// wallet the engine expects when draining a curve.
type Config struct {
	Authority   solana.PublicKey
	MaxTries    uint
	StepTimeout time.Duration
}

func DefaultCoordinatorConfig() Config {
	return Config{
		MaxTries:    5,
		StepTimeout: 90 * time.Second,
	}
}

// LiquiditySource drains a graduated curve. Satisfied by engine.Executor in
// the settlement service; the standalone migrator has no in-process curves
// and uses NoExtraction instead.
type LiquiditySource interface {
	ExtractLiquidity(ctx context.Context, authority, mint solana.PublicKey) (*engine.Extraction, error)
}

// NoExtraction rejects extraction requests. For tooling that only resumes
// migrations whose amounts are already recorded.
type NoExtraction struct{}

func (NoExtraction) ExtractLiquidity(context.Context, solana.PublicKey, solana.PublicKey) (*engine.Extraction, error) {
	return nil, errors.New("liquidity extraction must run inside the settlement service")
}

// Coordinator drives graduated curves through the migration state machine:
// pending → pool_created → lp_locked, or failed once retries are exhausted.
// The mint is the idempotency key; every step re-reads persisted state so a
// crashed migration resumes where it stopped.
type Coordinator struct {
	executor LiquiditySource
	pool     PoolClient
	store    storage.Storage
	bus      *events.Bus
	logger   *zap.Logger
	cfg      Config

	sub events.Subscription

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewCoordinator(executor LiquiditySource, pool PoolClient, store storage.Storage, bus *events.Bus, cfg Config, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		executor: executor,
		pool:     pool,
		store:    store,
		bus:      bus,
		logger:   logger.Named("migration"),
		cfg:      cfg,
		inflight: make(map[string]struct{}),
	}
}

// Attach subscribes the coordinator to graduation events.
func (c *Coordinator) Attach(bus *events.Bus) {
	c.sub = bus.SubscribeFunc(events.GraduationTriggered, func(ctx context.Context, event events.Event) error {
		grad, ok := event.(*events.GraduationTriggeredEvent)
		if !ok {
			return fmt.Errorf("unexpected event payload %T", event)
		}
		return c.HandleGraduation(ctx, grad.Mint)
	})
}

// Detach unsubscribes from the bus.
func (c *Coordinator) Detach() {
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
}

// HandleGraduation runs the full migration for a freshly graduated mint.
// Re-invocation for a mint that already completed is a no-op.
func (c *Coordinator) HandleGraduation(ctx context.Context, mint solana.PublicKey) error {
	if !c.acquire(mint.String()) {
		c.logger.Debug("migration already in flight", zap.String("mint", mint.String()))
		return nil
	}
	defer c.release(mint.String())

	return c.run(ctx, mint)
}

// ProcessPending sweeps migrations left mid-flight by a crash or restart.
// Independent mints migrate concurrently; the per-mint inflight guard keeps
// the sweep from racing the event path.
func (c *Coordinator) ProcessPending(ctx context.Context) error {
	recs, err := c.store.ListMigrationsByStatus(ctx, models.MigrationPending, models.MigrationPoolCreated)
	if err != nil {
		return fmt.Errorf("failed to list stalled migrations: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(4)
	for _, rec := range recs {
		mint, err := solana.PublicKeyFromBase58(rec.Mint)
		if err != nil {
			c.logger.Error("stored migration has invalid mint", zap.String("mint", rec.Mint), zap.Error(err))
			continue
		}
		g.Go(func() error {
			if err := c.HandleGraduation(ctx, mint); err != nil {
				c.logger.Error("stalled migration retry failed",
					zap.String("mint", mint.String()),
					zap.Error(err))
			}
			return nil
		})
	}
	return g.Wait()
}

// Retry resets a failed migration back into the state machine. Operator use.
func (c *Coordinator) Retry(ctx context.Context, mint solana.PublicKey) error {
	rec, err := c.store.GetMigration(ctx, mint.String())
	if err != nil {
		return err
	}
	if rec == nil {
		return curve.ErrCurveNotFound
	}
	if rec.Status != models.MigrationFailed {
		return fmt.Errorf("migration for %s is %s, only failed migrations can be retried", rec.Mint, rec.Status)
	}

	if rec.PoolAddress != "" {
		rec.Status = models.MigrationPoolCreated
	} else {
		rec.Status = models.MigrationPending
	}
	rec.LastError = ""
	if err := c.store.UpdateMigration(ctx, rec); err != nil {
		return err
	}
	return c.HandleGraduation(ctx, mint)
}

// Status returns the persisted migration record for a mint.
func (c *Coordinator) Status(ctx context.Context, mint solana.PublicKey) (*models.MigrationRecord, error) {
	return c.store.GetMigration(ctx, mint.String())
}

func (c *Coordinator) run(ctx context.Context, mint solana.PublicKey) error {
	rec, err := c.store.GetMigration(ctx, mint.String())
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &models.MigrationRecord{
			Mint:        mint.String(),
			Status:      models.MigrationPending,
			GraduatedAt: time.Now().UTC(),
		}
		if err := c.store.CreateMigration(ctx, rec); err != nil {
			return err
		}
		c.logger.Info("migration started", zap.String("mint", rec.Mint))
	}

	switch rec.Status {
	case models.MigrationLpLocked:
		return nil
	case models.MigrationFailed:
		return fmt.Errorf("migration for %s previously failed: %s", rec.Mint, rec.LastError)
	}

	if rec.SolExtracted == 0 && rec.TokensExtracted == 0 {
		if err := c.extract(ctx, mint, rec); err != nil {
			return c.fail(ctx, rec, err)
		}
	}

	if rec.CreatorPayout > 0 && rec.PayoutSignature == "" {
		if err := c.payCreator(ctx, rec); err != nil {
			return c.fail(ctx, rec, err)
		}
	}

	if rec.Status == models.MigrationPending {
		if err := c.createPool(ctx, mint, rec); err != nil {
			return c.fail(ctx, rec, err)
		}
	}

	if rec.Status == models.MigrationPoolCreated {
		if err := c.lockLiquidity(ctx, mint, rec); err != nil {
			return c.fail(ctx, rec, err)
		}
	}

	return nil
}

// extract drains the curve and records the amounts. The engine makes
// extraction one-shot, so everything a later resume needs, including the
// creator wallet for the payout leg, is persisted before any transfer runs.
func (c *Coordinator) extract(ctx context.Context, mint solana.PublicKey, rec *models.MigrationRecord) error {
	ext, err := c.executor.ExtractLiquidity(ctx, c.cfg.Authority, mint)
	if errors.Is(err, curve.ErrAlreadyMigrated) {
		return fmt.Errorf("curve %s already drained but no amounts recorded, operator intervention required: %w", rec.Mint, err)
	}
	if err != nil {
		return err
	}

	rec.SolExtracted = ext.SolExtracted
	rec.TokensExtracted = ext.TokensExtracted
	rec.CreatorPayout = ext.CreatorPayout
	rec.Creator = ext.Creator.String()
	return c.store.UpdateMigration(ctx, rec)
}

// payCreator transfers the creator's accumulated fees. The signature is
// persisted so a crash between extraction and payout, or between payout and
// pool creation, never drops or doubles the transfer.
func (c *Coordinator) payCreator(ctx context.Context, rec *models.MigrationRecord) error {
	creator, err := solana.PublicKeyFromBase58(rec.Creator)
	if err != nil {
		return fmt.Errorf("stored creator address %q is invalid: %w", rec.Creator, err)
	}

	sig, err := retryStep(ctx, c, "pay_creator", rec.Mint, func(stepCtx context.Context) (string, error) {
		return c.pool.PayCreator(stepCtx, creator, rec.CreatorPayout)
	})
	if err != nil {
		return fmt.Errorf("creator payout failed: %w", err)
	}

	rec.PayoutSignature = sig
	return c.store.UpdateMigration(ctx, rec)
}

func (c *Coordinator) createPool(ctx context.Context, mint solana.PublicKey, rec *models.MigrationRecord) error {
	pool, err := retryStep(ctx, c, "create_pool", rec.Mint, func(stepCtx context.Context) (solana.PublicKey, error) {
		return c.pool.CreatePool(stepCtx, mint, rec.SolExtracted, rec.TokensExtracted)
	})
	if err != nil {
		return fmt.Errorf("pool creation failed: %w", err)
	}

	rec.PoolAddress = pool.String()
	rec.Status = models.MigrationPoolCreated
	return c.store.UpdateMigration(ctx, rec)
}

func (c *Coordinator) lockLiquidity(ctx context.Context, mint solana.PublicKey, rec *models.MigrationRecord) error {
	pool, err := solana.PublicKeyFromBase58(rec.PoolAddress)
	if err != nil {
		return fmt.Errorf("stored pool address %q is invalid: %w", rec.PoolAddress, err)
	}

	sig, err := retryStep(ctx, c, "lock_liquidity", rec.Mint, func(stepCtx context.Context) (string, error) {
		return c.pool.LockLiquidity(stepCtx, pool, mint)
	})
	if err != nil {
		return fmt.Errorf("lp lock failed: %w", err)
	}

	now := time.Now().UTC()
	rec.LockSignature = sig
	rec.Status = models.MigrationLpLocked
	rec.CompletedAt = &now
	if err := c.store.UpdateMigration(ctx, rec); err != nil {
		return err
	}

	c.logger.Info("migration completed",
		zap.String("mint", rec.Mint),
		zap.String("pool", rec.PoolAddress),
		zap.Uint64("sol", rec.SolExtracted),
		zap.Uint64("tokens", rec.TokensExtracted))

	c.publish(&events.CurveCompletedEvent{
		BaseEvent:      events.NewBase(events.CurveCompleted),
		Mint:           mint,
		PoolAddress:    pool,
		SolMigrated:    rec.SolExtracted,
		TokensMigrated: rec.TokensExtracted,
		CreatorPayout:  rec.CreatorPayout,
	})
	return nil
}

// fail records the terminal failure and raises the operator alert.
func (c *Coordinator) fail(ctx context.Context, rec *models.MigrationRecord, cause error) error {
	rec.Attempts++
	rec.Status = models.MigrationFailed
	rec.LastError = cause.Error()
	if err := c.store.UpdateMigration(ctx, rec); err != nil {
		c.logger.Error("failed to persist migration failure",
			zap.String("mint", rec.Mint),
			zap.Error(err))
	}

	c.logger.Error("migration failed, operator intervention required",
		zap.String("mint", rec.Mint),
		zap.Int("attempts", rec.Attempts),
		zap.Error(cause))

	mint, err := solana.PublicKeyFromBase58(rec.Mint)
	if err == nil {
		c.publish(&events.MigrationFailedEvent{
			BaseEvent: events.NewBase(events.MigrationFailed),
			Mint:      mint,
			Reason:    cause.Error(),
		})
	}
	return cause
}

// retryStep runs one migration leg with exponential backoff and a per-attempt
// timeout.
func retryStep[T any](ctx context.Context, c *Coordinator, step, mint string, fn func(context.Context) (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second

	notify := func(err error, duration time.Duration) {
		c.logger.Warn("migration step retrying",
			zap.String("step", step),
			zap.String("mint", mint),
			zap.Duration("backoff", duration),
			zap.Error(err))
	}

	operation := func() (T, error) {
		stepCtx, cancel := context.WithTimeout(ctx, c.cfg.StepTimeout)
		defer cancel()
		return fn(stepCtx)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.cfg.MaxTries),
		backoff.WithNotify(notify))
}

func (c *Coordinator) acquire(mint string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[mint]; ok {
		return false
	}
	c.inflight[mint] = struct{}{}
	return true
}

func (c *Coordinator) release(mint string) {
	c.mu.Lock()
	delete(c.inflight, mint)
	c.mu.Unlock()
}

func (c *Coordinator) publish(event events.Event) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(event); err != nil {
		c.logger.Warn("event publish failed",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}
