// =================================
// File: internal/engine/executor.go
// =================================
package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
	"github.com/fuselabs/fuse-launchpad/internal/events"
	"github.com/fuselabs/fuse-launchpad/internal/fees"
	"github.com/fuselabs/fuse-launchpad/internal/types"
)

// TradeRequest carries one buy or sell into the executor. Amount is lamports
// for buys, token units for sells. ExpectedOut is the output the caller was
// quoted; the slippage config bounds how far below it settlement may land.
type TradeRequest struct {
	Mint        solana.PublicKey
	User        solana.PublicKey
	Amount      uint64
	ExpectedOut uint64
	Slippage    types.SlippageConfig
	Signature   string // chain signature if known, generated otherwise
	Slot        uint64
}

// TradeResult is the settled outcome of a trade.
type TradeResult struct {
	Signature   string
	IsBuy       bool
	SolAmount   uint64 // net lamports into the curve (buy) or out of it (sell)
	TokenAmount uint64
	Fee         uint64
	FeeSplit    fees.Split
	Price       uint64 // lamports per token, scaled 1e6
	MarketCap   uint64
	Graduated   bool // true when this trade completed the curve
	Curve       curve.BondingCurve
}

// Extraction is the one-shot drain of a completed curve, consumed by the
// migration coordinator.
type Extraction struct {
	Mint            solana.PublicKey
	Creator         solana.PublicKey
	SolExtracted    uint64
	TokensExtracted uint64
	CreatorPayout   uint64
}

// ProtocolStats is a point-in-time view of the executor.
type ProtocolStats struct {
	TokensLaunched      int
	ActiveCurves        int
	CompletedCurves     int
	TotalTrades         uint64
	TotalVolumeLamports uint64
	TreasuryAccrued     uint64
	Paused              bool
}

// Executor owns every live bonding curve and serializes settlement per mint.
type Executor struct {
	params    curve.Params
	authority solana.PublicKey
	registry  *registry
	router    *fees.Router
	bus       *events.Bus
	logger    *zap.Logger

	paused      atomic.Bool
	totalTrades atomic.Uint64
	totalVolume atomic.Uint64

	// now is swappable for deterministic sniper-window tests.
	now func() time.Time
}

func NewExecutor(params curve.Params, authority solana.PublicKey, router *fees.Router, bus *events.Bus, logger *zap.Logger) *Executor {
	return &Executor{
		params:    params,
		authority: authority,
		registry:  newRegistry(),
		router:    router,
		bus:       bus,
		logger:    logger.Named("executor"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Launch creates a fresh curve for mint and charges the flat creation fee.
func (e *Executor) Launch(ctx context.Context, creator, mint solana.PublicKey, name, symbol, uri string) (curve.BondingCurve, error) {
	if e.paused.Load() {
		return curve.BondingCurve{}, curve.ErrProtocolPaused
	}

	c := curve.New(e.params, creator, mint, name, symbol, uri, e.now())
	if err := e.registry.insert(mint, c); err != nil {
		return curve.BondingCurve{}, err
	}

	e.router.AccrueCreationFee()

	e.logger.Info("curve launched",
		zap.String("mint", mint.String()),
		zap.String("creator", creator.String()),
		zap.String("symbol", symbol))

	e.publish(&events.CurveInitializedEvent{
		BaseEvent: events.NewBase(events.CurveInitialized),
		Mint:      mint,
		Creator:   creator,
		Name:      name,
		Symbol:    symbol,
		URI:       uri,
	})

	return c.Snapshot(), nil
}

// Buy settles a buy of req.Amount lamports against the curve. The quote is
// recomputed under the per-mint lock so concurrent trades cannot share a
// price.
func (e *Executor) Buy(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	if e.paused.Load() {
		return nil, curve.ErrProtocolPaused
	}

	ent, ok := e.registry.get(req.Mint)
	if !ok {
		return nil, curve.ErrCurveNotFound
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()
	c := ent.curve

	if err := e.checkSniperWindow(c, req.Amount); err != nil {
		return nil, err
	}

	quote, err := curve.QuoteBuy(c, e.params, req.Amount)
	if err != nil {
		return nil, err
	}
	if quote.TokensOut < types.MinAmountOut(req.ExpectedOut, req.Slippage) {
		return nil, curve.ErrSlippageExceeded
	}

	split := e.router.Route(ctx, req.User.String(), "buy", quote.Fee)
	c.CreatorFeeAccumulated += split.Creator

	curve.ApplyBuy(c, quote)
	graduated := e.maybeGraduate(c)

	result := &TradeResult{
		Signature:   orGenerate(req.Signature),
		IsBuy:       true,
		SolAmount:   quote.NetSolIn,
		TokenAmount: quote.TokensOut,
		Fee:         quote.Fee,
		FeeSplit:    split,
		Price:       c.PriceLamports(),
		MarketCap:   c.MarketCapLamports(),
		Graduated:   graduated,
		Curve:       c.Snapshot(),
	}

	e.recordTrade(req, result)
	return result, nil
}

// Sell settles a sell of req.Amount token units against the curve.
func (e *Executor) Sell(ctx context.Context, req TradeRequest) (*TradeResult, error) {
	if e.paused.Load() {
		return nil, curve.ErrProtocolPaused
	}

	ent, ok := e.registry.get(req.Mint)
	if !ok {
		return nil, curve.ErrCurveNotFound
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()
	c := ent.curve

	quote, err := curve.QuoteSell(c, e.params, req.Amount)
	if err != nil {
		return nil, err
	}
	if quote.SolOut < types.MinAmountOut(req.ExpectedOut, req.Slippage) {
		return nil, curve.ErrSlippageExceeded
	}

	split := e.router.Route(ctx, req.User.String(), "sell", quote.Fee)
	c.CreatorFeeAccumulated += split.Creator

	curve.ApplySell(c, quote)

	result := &TradeResult{
		Signature:   orGenerate(req.Signature),
		IsBuy:       false,
		SolAmount:   quote.GrossSolOut,
		TokenAmount: quote.TokensIn,
		Fee:         quote.Fee,
		FeeSplit:    split,
		Price:       c.PriceLamports(),
		MarketCap:   c.MarketCapLamports(),
		Curve:       c.Snapshot(),
	}

	e.recordTrade(req, result)
	return result, nil
}

// QuoteBuy prices a buy against the current state without locking. Display
// only; settlement re-quotes under the lock.
func (e *Executor) QuoteBuy(mint solana.PublicKey, solIn uint64) (curve.BuyQuote, error) {
	ent, ok := e.registry.get(mint)
	if !ok {
		return curve.BuyQuote{}, curve.ErrCurveNotFound
	}
	snap := ent.curve.Snapshot()
	return curve.QuoteBuy(&snap, e.params, solIn)
}

// QuoteSell prices a sell against the current state without locking.
func (e *Executor) QuoteSell(mint solana.PublicKey, tokensIn uint64) (curve.SellQuote, error) {
	ent, ok := e.registry.get(mint)
	if !ok {
		return curve.SellQuote{}, curve.ErrCurveNotFound
	}
	snap := ent.curve.Snapshot()
	return curve.QuoteSell(&snap, e.params, tokensIn)
}

// Curve returns a snapshot of a live curve.
func (e *Executor) Curve(mint solana.PublicKey) (curve.BondingCurve, error) {
	ent, ok := e.registry.get(mint)
	if !ok {
		return curve.BondingCurve{}, curve.ErrCurveNotFound
	}
	ent.mu.Lock()
	defer ent.mu.Unlock()
	return ent.curve.Snapshot(), nil
}

// ExtractLiquidity drains a completed curve for migration. Only the
// configured migration authority may call it. Reserves and the creator fee
// balance are zeroed in one step; a second call fails.
func (e *Executor) ExtractLiquidity(ctx context.Context, authority, mint solana.PublicKey) (*Extraction, error) {
	if !authority.Equals(e.authority) {
		e.logger.Warn("extraction rejected",
			zap.String("mint", mint.String()),
			zap.String("caller", authority.String()))
		return nil, curve.ErrUnauthorized
	}

	ent, ok := e.registry.get(mint)
	if !ok {
		return nil, curve.ErrCurveNotFound
	}

	ent.mu.Lock()
	defer ent.mu.Unlock()
	c := ent.curve

	if c.Migrated {
		return nil, curve.ErrAlreadyMigrated
	}
	if !c.Complete {
		return nil, curve.ErrNotGraduated
	}

	ext := &Extraction{
		Mint:            mint,
		Creator:         c.Creator,
		SolExtracted:    c.RealSolReserves,
		TokensExtracted: c.RealTokenReserves,
		CreatorPayout:   c.CreatorFeeAccumulated,
	}

	c.RealSolReserves = 0
	c.RealTokenReserves = 0
	c.CreatorFeeAccumulated = 0
	c.Migrated = true

	e.logger.Info("liquidity extracted",
		zap.String("mint", mint.String()),
		zap.Uint64("sol", ext.SolExtracted),
		zap.Uint64("tokens", ext.TokensExtracted),
		zap.Uint64("creator_payout", ext.CreatorPayout))

	return ext, nil
}

// Pause halts launches and trades. Quotes and reads keep working.
func (e *Executor) Pause() {
	e.paused.Store(true)
	e.logger.Warn("protocol paused")
}

// Resume lifts a pause.
func (e *Executor) Resume() {
	e.paused.Store(false)
	e.logger.Info("protocol resumed")
}

// Stats reports aggregate state across all curves.
func (e *Executor) Stats() ProtocolStats {
	completed := 0
	e.registry.rangeAll(func(_ solana.PublicKey, ent *entry) bool {
		ent.mu.Lock()
		if ent.curve.Complete {
			completed++
		}
		ent.mu.Unlock()
		return true
	})

	launched := e.registry.len()
	return ProtocolStats{
		TokensLaunched:      launched,
		ActiveCurves:        launched - completed,
		CompletedCurves:     completed,
		TotalTrades:         e.totalTrades.Load(),
		TotalVolumeLamports: e.totalVolume.Load(),
		TreasuryAccrued:     e.router.TreasuryAccrued(),
		Paused:              e.paused.Load(),
	}
}

// checkSniperWindow caps per-buy size during the launch window.
func (e *Executor) checkSniperWindow(c *curve.BondingCurve, solIn uint64) error {
	if e.params.SniperWindow <= 0 || e.params.SniperMaxBuyLamports == 0 {
		return nil
	}
	if e.now().Sub(c.LaunchTimestamp) >= e.params.SniperWindow {
		return nil
	}
	if solIn > e.params.SniperMaxBuyLamports {
		return curve.ErrSniperLimitExceeded
	}
	return nil
}

// maybeGraduate flips Complete exactly once and emits the graduation event.
// Caller holds the per-mint lock.
func (e *Executor) maybeGraduate(c *curve.BondingCurve) bool {
	if c.Complete || !curve.IsGraduated(c, e.params) {
		return false
	}
	c.Complete = true

	e.logger.Info("curve graduated",
		zap.String("mint", c.TokenMint.String()),
		zap.Uint64("real_sol_reserves", c.RealSolReserves))

	e.publish(&events.GraduationTriggeredEvent{
		BaseEvent:         events.NewBase(events.GraduationTriggered),
		Mint:              c.TokenMint,
		RealSolReserves:   c.RealSolReserves,
		MarketCapLamports: c.MarketCapLamports(),
	})
	return true
}

func (e *Executor) recordTrade(req TradeRequest, result *TradeResult) {
	e.totalTrades.Add(1)
	e.totalVolume.Add(result.SolAmount)

	e.publish(&events.TradeExecutedEvent{
		BaseEvent:            events.NewBase(events.TradeExecuted),
		Signature:            result.Signature,
		Mint:                 req.Mint,
		User:                 req.User,
		IsBuy:                result.IsBuy,
		SolAmount:            result.SolAmount,
		TokenAmount:          result.TokenAmount,
		Fee:                  result.Fee,
		Price:                result.Price,
		MarketCapLamports:    result.MarketCap,
		VirtualSolReserves:   result.Curve.VirtualSolReserves,
		VirtualTokenReserves: result.Curve.VirtualTokenReserves,
		RealSolReserves:      result.Curve.RealSolReserves,
		Slot:                 req.Slot,
	})
}

func (e *Executor) publish(event events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(event); err != nil {
		e.logger.Warn("event publish failed",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}

func orGenerate(signature string) string {
	if signature != "" {
		return signature
	}
	return uuid.New().String()
}
