// ==============================
// File: internal/migration/bot.go
// ==============================
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Bot periodically sweeps stalled migrations so a crash never strands a
// graduated curve.
type Bot struct {
	coordinator *Coordinator
	logger      *zap.Logger
	cron        *cron.Cron
	interval    time.Duration
}

func NewBot(coordinator *Coordinator, interval time.Duration, logger *zap.Logger) *Bot {
	return &Bot{
		coordinator: coordinator,
		logger:      logger.Named("migration_bot"),
		cron:        cron.New(),
		interval:    interval,
	}
}

// Start schedules the sweep and runs one immediately to catch anything left
// over from the previous process.
func (b *Bot) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", b.interval)
	if _, err := b.cron.AddFunc(spec, func() {
		if err := b.coordinator.ProcessPending(ctx); err != nil {
			b.logger.Error("migration sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule migration sweep: %w", err)
	}

	b.cron.Start()
	b.logger.Info("migration sweep scheduled", zap.Duration("interval", b.interval))

	go func() {
		if err := b.coordinator.ProcessPending(ctx); err != nil {
			b.logger.Error("initial migration sweep failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop halts the sweep schedule and waits for a running sweep to finish.
func (b *Bot) Stop() {
	stopCtx := b.cron.Stop()
	<-stopCtx.Done()
	b.logger.Info("migration sweep stopped")
}
