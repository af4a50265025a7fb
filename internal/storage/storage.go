// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/fuselabs/fuse-launchpad/internal/storage/models"
)

// Storage is the persistence boundary between the settlement core and the
// indexing backend.
type Storage interface {
	// Trades (append-only)
	SaveTrade(ctx context.Context, trade *models.TradeRecord) error
	GetTrade(ctx context.Context, signature string) (*models.TradeRecord, error)
	ListTrades(ctx context.Context, mint string, limit, offset int) ([]*models.TradeRecord, error)

	// Migrations
	CreateMigration(ctx context.Context, rec *models.MigrationRecord) error
	GetMigration(ctx context.Context, mint string) (*models.MigrationRecord, error)
	UpdateMigration(ctx context.Context, rec *models.MigrationRecord) error
	ListMigrationsByStatus(ctx context.Context, statuses ...string) ([]*models.MigrationRecord, error)

	// Referral ledger
	CreateReferralBinding(ctx context.Context, binding *models.ReferralBinding) error
	GetReferralBinding(ctx context.Context, referred string) (*models.ReferralBinding, error)
	SaveReferralEarning(ctx context.Context, earning *models.ReferralEarning) error
	UpsertReferralAccount(ctx context.Context, account *models.ReferralAccount) error
	GetReferralAccount(ctx context.Context, referrer string) (*models.ReferralAccount, error)
	ListReferralEarnings(ctx context.Context, referrer string, limit, offset int) ([]*models.ReferralEarning, error)

	// Schema migrations
	RunMigrations() error
}
