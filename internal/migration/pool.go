// ===============================
// File: internal/migration/pool.go
// ===============================
package migration

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// PoolClient performs the on-chain legs of a migration. Implementations must
// be idempotent per mint: re-running a leg that already landed returns the
// existing result instead of failing.
type PoolClient interface {
	// CreatePool seeds the external AMM pool with the extracted liquidity
	// and returns the pool address.
	CreatePool(ctx context.Context, mint solana.PublicKey, solLamports, tokenAmount uint64) (solana.PublicKey, error)

	// LockLiquidity locks the migration wallet's LP position in an escrow so
	// the pooled liquidity can never be pulled. Returns the lock signature.
	LockLiquidity(ctx context.Context, pool, mint solana.PublicKey) (string, error)

	// PayCreator transfers the creator's accumulated fee payout.
	PayCreator(ctx context.Context, creator solana.PublicKey, lamports uint64) (string, error)
}
