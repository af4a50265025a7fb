// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fuselabs/fuse-launchpad/internal/storage"
	"github.com/fuselabs/fuse-launchpad/internal/storage/models"
)

// gormLogger adapts zap to gorm's logger.Interface.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{zapLogger: zapLogger, logLevel: logger.Warn}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}
	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

// postgresStorage implements storage.Storage on gorm/postgres.
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStorage connects to postgres and returns a Storage implementation.
func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{db: db, logger: zapLogger}, nil
}

func (s *postgresStorage) RunMigrations() error {
	return s.db.AutoMigrate(
		&models.TradeRecord{},
		&models.MigrationRecord{},
		&models.ReferralAccount{},
		&models.ReferralBinding{},
		&models.ReferralEarning{},
	)
}

// ---- trades ----

func (s *postgresStorage) SaveTrade(ctx context.Context, trade *models.TradeRecord) error {
	if err := s.db.WithContext(ctx).Create(trade).Error; err != nil {
		return fmt.Errorf("failed to save trade %s: %w", trade.Signature, err)
	}
	return nil
}

func (s *postgresStorage) GetTrade(ctx context.Context, signature string) (*models.TradeRecord, error) {
	var trade models.TradeRecord
	err := s.db.WithContext(ctx).Where("signature = ?", signature).First(&trade).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", signature, err)
	}
	return &trade, nil
}

func (s *postgresStorage) ListTrades(ctx context.Context, mint string, limit, offset int) ([]*models.TradeRecord, error) {
	var trades []*models.TradeRecord
	err := s.db.WithContext(ctx).
		Where("mint = ?", mint).
		Order("executed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trades for %s: %w", mint, err)
	}
	return trades, nil
}

// ---- migrations ----

func (s *postgresStorage) CreateMigration(ctx context.Context, rec *models.MigrationRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create migration record for %s: %w", rec.Mint, err)
	}
	return nil
}

func (s *postgresStorage) GetMigration(ctx context.Context, mint string) (*models.MigrationRecord, error) {
	var rec models.MigrationRecord
	err := s.db.WithContext(ctx).Where("mint = ?", mint).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get migration record for %s: %w", mint, err)
	}
	return &rec, nil
}

func (s *postgresStorage) UpdateMigration(ctx context.Context, rec *models.MigrationRecord) error {
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to update migration record for %s: %w", rec.Mint, err)
	}
	return nil
}

func (s *postgresStorage) ListMigrationsByStatus(ctx context.Context, statuses ...string) ([]*models.MigrationRecord, error) {
	var recs []*models.MigrationRecord
	err := s.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("graduated_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	return recs, nil
}

// ---- referral ledger ----

func (s *postgresStorage) CreateReferralBinding(ctx context.Context, binding *models.ReferralBinding) error {
	if err := s.db.WithContext(ctx).Create(binding).Error; err != nil {
		return fmt.Errorf("failed to create referral binding for %s: %w", binding.Referred, err)
	}
	return nil
}

func (s *postgresStorage) GetReferralBinding(ctx context.Context, referred string) (*models.ReferralBinding, error) {
	var binding models.ReferralBinding
	err := s.db.WithContext(ctx).Where("referred = ?", referred).First(&binding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral binding for %s: %w", referred, err)
	}
	return &binding, nil
}

func (s *postgresStorage) SaveReferralEarning(ctx context.Context, earning *models.ReferralEarning) error {
	if err := s.db.WithContext(ctx).Create(earning).Error; err != nil {
		return fmt.Errorf("failed to save referral earning: %w", err)
	}
	return nil
}

func (s *postgresStorage) UpsertReferralAccount(ctx context.Context, account *models.ReferralAccount) error {
	err := s.db.WithContext(ctx).
		Where("referrer = ?", account.Referrer).
		Assign(map[string]interface{}{
			"referred_count": account.ReferredCount,
			"total_earned":   account.TotalEarned,
			"pending":        account.Pending,
			"claimed":        account.Claimed,
		}).
		FirstOrCreate(account).Error
	if err != nil {
		return fmt.Errorf("failed to upsert referral account %s: %w", account.Referrer, err)
	}
	return nil
}

func (s *postgresStorage) GetReferralAccount(ctx context.Context, referrer string) (*models.ReferralAccount, error) {
	var account models.ReferralAccount
	err := s.db.WithContext(ctx).Where("referrer = ?", referrer).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral account %s: %w", referrer, err)
	}
	return &account, nil
}

func (s *postgresStorage) ListReferralEarnings(ctx context.Context, referrer string, limit, offset int) ([]*models.ReferralEarning, error) {
	var earnings []*models.ReferralEarning
	err := s.db.WithContext(ctx).
		Where("referrer = ?", referrer).
		Order("earned_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&earnings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list referral earnings for %s: %w", referrer, err)
	}
	return earnings, nil
}
