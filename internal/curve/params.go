// =============================
// File: internal/curve/params.go
// =============================
package curve

import (
	"fmt"
	"time"
)

// Default launch configuration. Every value here is overridable through the
// config file; the defaults mirror the mainnet deployment.
const (
	DefaultFeeBasisPoints    uint64 = 100 // 1% total trade fee
	DefaultProtocolFeeShare  uint64 = 80  // % of the fee routed to the treasury
	DefaultCreatorFeeShare   uint64 = 20  // % of the fee accrued to the creator
	DefaultReferralFeeShare  uint64 = 10  // % of the protocol cut paid to a referrer

	DefaultVirtualSolReserves   uint64 = 30_000_000_000         // 30 SOL
	DefaultVirtualTokenReserves uint64 = 1_073_000_000_000_000  // 1.073B tokens, 6 decimals
	DefaultRealTokenReserves    uint64 = 793_100_000_000_000    // 793.1M tokens, 6 decimals
	DefaultTotalSupply          uint64 = 1_000_000_000_000_000  // 1B tokens, 6 decimals

	// 85 SOL of real reserves triggers graduation. Product copy also quotes a
	// ~$69k market-cap target; the SOL threshold is the authoritative trigger
	// and the market cap is derived for display only.
	DefaultGraduationSolThreshold uint64 = 85_000_000_000

	DefaultTokenDecimals       uint8  = 6
	DefaultCreationFeeLamports uint64 = 75_000_000 // 0.075 SOL per launch

	DefaultSniperMaxBuyLamports uint64 = 2_000_000_000 // 2 SOL per buy during the window
)

// DefaultSniperWindow is how long after launch the per-buy cap applies.
const DefaultSniperWindow = 60 * time.Second

// Params holds the numeric configuration of a bonding curve deployment.
// One Params instance is shared by every curve the engine manages.
type Params struct {
	FeeBasisPoints   uint64
	ProtocolFeeShare uint64 // percent of the total fee
	CreatorFeeShare  uint64 // percent of the total fee
	ReferralFeeShare uint64 // percent of the protocol share

	VirtualSolReserves   uint64
	VirtualTokenReserves uint64
	RealTokenReserves    uint64
	TotalSupply          uint64

	GraduationSolThreshold uint64
	TokenDecimals          uint8
	CreationFeeLamports    uint64

	SniperWindow         time.Duration
	SniperMaxBuyLamports uint64
}

// DefaultParams returns the mainnet launch parameters.
func DefaultParams() Params {
	return Params{
		FeeBasisPoints:         DefaultFeeBasisPoints,
		ProtocolFeeShare:       DefaultProtocolFeeShare,
		CreatorFeeShare:        DefaultCreatorFeeShare,
		ReferralFeeShare:       DefaultReferralFeeShare,
		VirtualSolReserves:     DefaultVirtualSolReserves,
		VirtualTokenReserves:   DefaultVirtualTokenReserves,
		RealTokenReserves:      DefaultRealTokenReserves,
		TotalSupply:            DefaultTotalSupply,
		GraduationSolThreshold: DefaultGraduationSolThreshold,
		TokenDecimals:          DefaultTokenDecimals,
		CreationFeeLamports:    DefaultCreationFeeLamports,
		SniperWindow:           DefaultSniperWindow,
		SniperMaxBuyLamports:   DefaultSniperMaxBuyLamports,
	}
}

// Validate checks internal consistency of the parameters.
func (p Params) Validate() error {
	if p.FeeBasisPoints >= 10_000 {
		return fmt.Errorf("fee_basis_points %d must be below 10000", p.FeeBasisPoints)
	}
	if p.ProtocolFeeShare+p.CreatorFeeShare != 100 {
		return fmt.Errorf("protocol_fee_share %d + creator_fee_share %d must equal 100",
			p.ProtocolFeeShare, p.CreatorFeeShare)
	}
	if p.ReferralFeeShare > 100 {
		return fmt.Errorf("referral_fee_share %d must not exceed 100", p.ReferralFeeShare)
	}
	if p.VirtualSolReserves == 0 || p.VirtualTokenReserves == 0 {
		return fmt.Errorf("virtual reserves must be non-zero")
	}
	if p.RealTokenReserves > p.TotalSupply {
		return fmt.Errorf("real_token_reserves %d exceeds total_supply %d",
			p.RealTokenReserves, p.TotalSupply)
	}
	if p.GraduationSolThreshold == 0 {
		return fmt.Errorf("graduation_sol_threshold must be non-zero")
	}
	return nil
}
