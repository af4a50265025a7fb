// =================================
// File: internal/launchpad/runner.go
// =================================
package launchpad

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/fuselabs/fuse-launchpad/internal/config"
	"github.com/fuselabs/fuse-launchpad/internal/engine"
	"github.com/fuselabs/fuse-launchpad/internal/events"
	"github.com/fuselabs/fuse-launchpad/internal/fees"
	"github.com/fuselabs/fuse-launchpad/internal/migration"
	"github.com/fuselabs/fuse-launchpad/internal/referral"
	"github.com/fuselabs/fuse-launchpad/internal/storage"
	"github.com/fuselabs/fuse-launchpad/internal/storage/postgres"
	"github.com/fuselabs/fuse-launchpad/internal/utils/logger"
)

const eventBusBuffer = 4096

// Runner wires the settlement core together and manages its lifecycle.
type Runner struct {
	logger *logger.Logger
	config *config.Config

	store       storage.Storage
	bus         *events.Bus
	executor    *engine.Executor
	indexer     *engine.Indexer
	referrals   *referral.Service
	router      *fees.Router
	coordinator *migration.Coordinator
	sweepBot    *migration.Bot

	shutdownCh chan os.Signal
}

func NewRunner(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	store, err := postgres.NewStorage(cfg.PostgresURL, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run schema migrations: %w", err)
	}

	wallet, err := solana.PrivateKeyFromBase58(cfg.MigrationWallet)
	if err != nil {
		return nil, fmt.Errorf("invalid migration wallet key: %w", err)
	}

	params := cfg.CurveParams()
	bus := events.NewBus(log.Logger, eventBusBuffer)
	referrals := referral.NewService(store, log.Logger)
	router := fees.NewRouter(params, referrals, log.Logger)
	executor := engine.NewExecutor(params, wallet.PublicKey(), router, bus, log.Logger)

	indexer := engine.NewIndexer(store, log.Logger)
	indexer.Attach(bus)

	rpcClient := rpc.New(cfg.RPCList[0])
	poolClient := migration.NewMeteoraClient(rpcClient, wallet, log.Logger)

	coordinator := migration.NewCoordinator(executor, poolClient, store, bus, migration.Config{
		Authority:   wallet.PublicKey(),
		MaxTries:    uint(cfg.MigrationRetries),
		StepTimeout: time.Duration(cfg.MigrationStepTimeout) * time.Second,
	}, log.Logger)
	coordinator.Attach(bus)

	sweepInterval := time.Duration(cfg.MigrationSweepMins) * time.Minute
	sweepBot := migration.NewBot(coordinator, sweepInterval, log.Logger)

	return &Runner{
		logger:      log,
		config:      cfg,
		store:       store,
		bus:         bus,
		executor:    executor,
		indexer:     indexer,
		referrals:   referrals,
		router:      router,
		coordinator: coordinator,
		sweepBot:    sweepBot,
		shutdownCh:  make(chan os.Signal, 1),
	}, nil
}

// Executor exposes the trade path for the API surface.
func (r *Runner) Executor() *engine.Executor { return r.executor }

// Referrals exposes the referral ledger.
func (r *Runner) Referrals() *referral.Service { return r.referrals }

// Coordinator exposes the migration state machine.
func (r *Runner) Coordinator() *migration.Coordinator { return r.coordinator }

// Run starts the background workers and blocks until a signal or context
// cancellation, then shuts everything down in order.
func (r *Runner) Run(ctx context.Context) error {
	signal.Notify(r.shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := r.sweepBot.Start(runCtx); err != nil {
		return fmt.Errorf("failed to start migration sweep: %w", err)
	}

	r.logger.Info("launchpad running",
		zap.Int("workers", r.config.Workers),
		zap.Uint64("graduation_threshold", r.config.GraduationSolThreshold))

	select {
	case sig := <-r.shutdownCh:
		r.logger.Info("signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	return r.shutdown()
}

func (r *Runner) shutdown() error {
	r.logger.Info("shutting down")

	// Stop accepting trades, then drain the in-flight events so the indexer
	// persists every settled trade before the process exits.
	r.executor.Pause()
	r.sweepBot.Stop()

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.bus.Shutdown(drainCtx); err != nil {
		r.logger.Error("event bus drain timed out", zap.Error(err))
	}

	r.coordinator.Detach()
	r.indexer.Detach()

	if err := r.logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
	return nil
}
