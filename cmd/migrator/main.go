// ===========================
// File: cmd/migrator/main.go
// ===========================
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"github.com/fuselabs/fuse-launchpad/internal/config"
	"github.com/fuselabs/fuse-launchpad/internal/migration"
	"github.com/fuselabs/fuse-launchpad/internal/storage"
	"github.com/fuselabs/fuse-launchpad/internal/storage/models"
	"github.com/fuselabs/fuse-launchpad/internal/storage/postgres"
	"github.com/fuselabs/fuse-launchpad/internal/utils/logger"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "migrator",
		Short: "Operator tooling for bonding curve migrations",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.json", "path to the configuration file")

	root.AddCommand(sweepCmd(), migrateCmd(), statusCmd(), listCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type toolkit struct {
	store       storage.Storage
	coordinator *migration.Coordinator
	log         *logger.Logger
}

func setup() (*toolkit, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = "logs/migrator.log"
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := postgres.NewStorage(cfg.PostgresURL, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	wallet, err := solana.PrivateKeyFromBase58(cfg.MigrationWallet)
	if err != nil {
		return nil, fmt.Errorf("invalid migration wallet key: %w", err)
	}

	pool := migration.NewMeteoraClient(rpc.New(cfg.RPCList[0]), wallet, log.Logger)
	coordinator := migration.NewCoordinator(migration.NoExtraction{}, pool, store, nil, migration.Config{
		Authority:   wallet.PublicKey(),
		MaxTries:    uint(cfg.MigrationRetries),
		StepTimeout: time.Duration(cfg.MigrationStepTimeout) * time.Second,
	}, log.Logger)

	return &toolkit{store: store, coordinator: coordinator, log: log}, nil
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Resume every migration left mid-flight",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tk, err := setup()
			if err != nil {
				return err
			}
			return tk.coordinator.ProcessPending(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <mint>",
		Short: "Resume or retry the migration for one mint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := setup()
			if err != nil {
				return err
			}
			mint, err := solana.PublicKeyFromBase58(args[0])
			if err != nil {
				return fmt.Errorf("invalid mint address: %w", err)
			}

			rec, err := tk.store.GetMigration(cmd.Context(), mint.String())
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no migration record for %s", mint)
			}
			if rec.Status == models.MigrationFailed {
				return tk.coordinator.Retry(cmd.Context(), mint)
			}
			return tk.coordinator.HandleGraduation(cmd.Context(), mint)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <mint>",
		Short: "Show the migration record for one mint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk, err := setup()
			if err != nil {
				return err
			}
			rec, err := tk.store.GetMigration(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no migration record for %s", args[0])
			}
			printRecord(rec)
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List migrations that are not yet locked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tk, err := setup()
			if err != nil {
				return err
			}
			recs, err := tk.store.ListMigrationsByStatus(cmd.Context(),
				models.MigrationPending, models.MigrationPoolCreated, models.MigrationFailed)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				printRecord(rec)
				fmt.Println()
			}
			fmt.Printf("%d migration(s)\n", len(recs))
			return nil
		},
	}
}

func printRecord(rec *models.MigrationRecord) {
	fmt.Printf("mint:             %s\n", rec.Mint)
	fmt.Printf("status:           %s\n", rec.Status)
	fmt.Printf("pool:             %s\n", rec.PoolAddress)
	fmt.Printf("sol extracted:    %d\n", rec.SolExtracted)
	fmt.Printf("tokens extracted: %d\n", rec.TokensExtracted)
	fmt.Printf("creator payout:   %d\n", rec.CreatorPayout)
	fmt.Printf("graduated at:     %s\n", rec.GraduatedAt.Format(time.RFC3339))
	if rec.CompletedAt != nil {
		fmt.Printf("completed at:     %s\n", rec.CompletedAt.Format(time.RFC3339))
	}
	if rec.LastError != "" {
		fmt.Printf("last error:       %s\n", rec.LastError)
	}
}
