// ================================
// File: internal/engine/indexer.go
// ================================
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fuselabs/fuse-launchpad/internal/events"
	"github.com/fuselabs/fuse-launchpad/internal/storage"
	"github.com/fuselabs/fuse-launchpad/internal/storage/models"
)

// Indexer persists settled trades off the event bus so the trade path never
// waits on the database.
type Indexer struct {
	store  storage.Storage
	logger *zap.Logger
	sub    events.Subscription
}

func NewIndexer(store storage.Storage, logger *zap.Logger) *Indexer {
	return &Indexer{store: store, logger: logger.Named("indexer")}
}

// Attach subscribes the indexer to trade events on the bus.
func (i *Indexer) Attach(bus *events.Bus) {
	i.sub = bus.SubscribeFunc(events.TradeExecuted, i.handleTrade)
}

// Detach unsubscribes from the bus.
func (i *Indexer) Detach() {
	if i.sub != nil {
		i.sub.Unsubscribe()
		i.sub = nil
	}
}

func (i *Indexer) handleTrade(ctx context.Context, event events.Event) error {
	trade, ok := event.(*events.TradeExecutedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	record := &models.TradeRecord{
		Signature:   trade.Signature,
		Mint:        trade.Mint.String(),
		User:        trade.User.String(),
		IsBuy:       trade.IsBuy,
		SolAmount:   trade.SolAmount,
		TokenAmount: trade.TokenAmount,
		Fee:         trade.Fee,
		Price:       trade.Price,
		MarketCap:   trade.MarketCapLamports,
		Slot:        trade.Slot,
		ExecutedAt:  trade.Timestamp(),
	}

	if err := i.store.SaveTrade(ctx, record); err != nil {
		i.logger.Error("failed to index trade",
			zap.String("signature", trade.Signature),
			zap.Error(err))
		return err
	}
	return nil
}
