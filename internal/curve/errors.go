// =============================
// File: internal/curve/errors.go
// =============================
package curve

import "errors"

var (
	// ErrInvalidAmount is returned when a quote or trade is requested with a zero amount.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrCurveComplete is returned when a buy/sell hits a curve that already graduated.
	ErrCurveComplete = errors.New("bonding curve is complete, trading disabled")

	// ErrSlippageExceeded is returned when the realized output falls below the caller's minimum.
	ErrSlippageExceeded = errors.New("slippage tolerance exceeded")

	// ErrInsufficientLiquidity is returned when the requested trade would drain the
	// curve below what the reserve math can support.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity in the curve")

	// ErrMathOverflow is returned when a reserve computation would overflow uint64.
	ErrMathOverflow = errors.New("math overflow in bonding curve")

	// ErrSniperLimitExceeded is returned when a buy within the protection window
	// exceeds the per-trade cap.
	ErrSniperLimitExceeded = errors.New("buy exceeds sniper protection limit")

	// ErrUnauthorized is returned when migration is attempted by a key other than
	// the configured migration authority.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyMigrated is returned on a duplicate liquidity extraction attempt.
	ErrAlreadyMigrated = errors.New("curve has already been migrated")

	// ErrNotGraduated is returned when extraction is attempted before the
	// graduation threshold is reached.
	ErrNotGraduated = errors.New("curve has not reached graduation threshold")

	// ErrProtocolPaused is returned while the emergency pause flag is set.
	ErrProtocolPaused = errors.New("protocol is paused")

	// ErrSelfReferral is returned when a wallet tries to refer itself.
	ErrSelfReferral = errors.New("cannot refer self")

	// ErrReferralExists is returned when a wallet already bound to a referrer
	// tries to bind again.
	ErrReferralExists = errors.New("wallet is already linked to a referrer")

	// ErrCurveNotFound is returned when no curve is registered for a mint.
	ErrCurveNotFound = errors.New("bonding curve not found")

	// ErrCurveExists is returned when launching a token whose mint already has a curve.
	ErrCurveExists = errors.New("bonding curve already exists for mint")
)
