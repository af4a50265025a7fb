package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newGraduation() *GraduationTriggeredEvent {
	return &GraduationTriggeredEvent{
		BaseEvent:       NewBase(GraduationTriggered),
		Mint:            solana.NewWallet().PublicKey(),
		RealSolReserves: 85_000_000_000,
	}
}

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)

	var delivered atomic.Int64
	bus.SubscribeFunc(GraduationTriggered, func(context.Context, Event) error {
		delivered.Add(1)
		return nil
	})
	// A handler for another type never sees the event.
	bus.SubscribeFunc(TradeExecuted, func(context.Context, Event) error {
		t.Error("trade handler received a graduation event")
		return nil
	})

	require.NoError(t, bus.Publish(newGraduation()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))

	assert.Equal(t, int64(1), delivered.Load())
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)

	var delivered atomic.Int64
	sub := bus.Subscribe(GraduationTriggered, HandlerFunc(func(context.Context, Event) error {
		delivered.Add(1)
		return nil
	}))

	require.NoError(t, bus.PublishSync(context.Background(), newGraduation()))
	sub.Unsubscribe()
	require.NoError(t, bus.PublishSync(context.Background(), newGraduation()))

	assert.Equal(t, int64(1), delivered.Load())
}

func TestBusShutdownDrainsPending(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 64)

	var delivered atomic.Int64
	bus.SubscribeFunc(GraduationTriggered, func(context.Context, Event) error {
		delivered.Add(1)
		return nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(newGraduation()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))
	assert.Equal(t, int64(10), delivered.Load())

	// Publishing after shutdown is rejected.
	assert.Error(t, bus.Publish(newGraduation()))
}
