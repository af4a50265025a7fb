package engine

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
	"github.com/fuselabs/fuse-launchpad/internal/events"
	"github.com/fuselabs/fuse-launchpad/internal/storage/memory"
)

func TestIndexerPersistsTrades(t *testing.T) {
	logger := zaptest.NewLogger(t)
	bus := events.NewBus(logger, 64)
	store := memory.NewStorage()

	indexer := NewIndexer(store, logger)
	indexer.Attach(bus)
	defer indexer.Detach()

	e := newTestExecutor(t, curve.DefaultParams(), bus)
	_, mint := launchTestCurve(t, e)
	user := solana.NewWallet().PublicKey()
	ctx := context.Background()

	result, err := e.Buy(ctx, TradeRequest{
		Mint:      mint,
		User:      user,
		Amount:    1_000_000_000,
		Signature: "sig-test-buy-1",
		Slot:      42,
	})
	require.NoError(t, err)
	assert.Equal(t, "sig-test-buy-1", result.Signature)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(shutdownCtx))

	record, err := store.GetTrade(ctx, "sig-test-buy-1")
	require.NoError(t, err)
	assert.Equal(t, mint.String(), record.Mint)
	assert.Equal(t, user.String(), record.User)
	assert.True(t, record.IsBuy)
	assert.Equal(t, uint64(990_000_000), record.SolAmount)
	assert.Equal(t, uint64(34_277_831_558_567), record.TokenAmount)
	assert.Equal(t, uint64(10_000_000), record.Fee)
	assert.Equal(t, uint64(42), record.Slot)
}
