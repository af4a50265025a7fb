// =============================
// File: internal/fees/router.go
// =============================
package fees

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
	"github.com/fuselabs/fuse-launchpad/internal/referral"
)

// Split is the lamport breakdown of a single trade fee. Protocol absorbs
// every rounding remainder so the parts always sum to Total.
type Split struct {
	Total    uint64
	Protocol uint64
	Creator  uint64
	Referral uint64
}

// Router divides trade fees between the treasury, the curve creator, and an
// optional referrer.
type Router struct {
	params    curve.Params
	referrals *referral.Service
	logger    *zap.Logger

	treasuryAccrued atomic.Uint64
	creationAccrued atomic.Uint64
}

func NewRouter(params curve.Params, referrals *referral.Service, logger *zap.Logger) *Router {
	return &Router{
		params:    params,
		referrals: referrals,
		logger:    logger.Named("fees"),
	}
}

// ComputeFee returns the total fee for a trade amount.
func (r *Router) ComputeFee(amount uint64) uint64 {
	return amount * r.params.FeeBasisPoints / 10_000
}

// SplitFee divides a total fee. The creator share is computed by percentage
// and the protocol takes the rest, so truncation always favors the treasury.
// When hasReferrer is set, the referrer's cut comes out of the protocol share.
func (r *Router) SplitFee(total uint64, hasReferrer bool) Split {
	creator := total * r.params.CreatorFeeShare / 100
	protocol := total - creator

	var ref uint64
	if hasReferrer {
		ref = protocol * r.params.ReferralFeeShare / 100
		protocol -= ref
	}

	return Split{
		Total:    total,
		Protocol: protocol,
		Creator:  creator,
		Referral: ref,
	}
}

// Route settles a trade fee: resolves the user's referrer, splits the fee,
// credits the referral ledger, and accrues the protocol share to the
// treasury. The creator share is accumulated on the curve by the caller.
// Referral credit is best effort; a ledger failure never fails the trade,
// the protocol keeps the cut instead.
func (r *Router) Route(ctx context.Context, user, action string, totalFee uint64) Split {
	referrer, hasReferrer, err := r.referrals.ReferrerOf(ctx, user)
	if err != nil {
		r.logger.Warn("referrer lookup failed, share reverts to treasury",
			zap.String("user", user),
			zap.Error(err))
		hasReferrer = false
	}

	split := r.SplitFee(totalFee, hasReferrer)

	if split.Referral > 0 {
		if err := r.referrals.Credit(ctx, user, referrer, action, split.Total, split.Referral); err != nil {
			r.logger.Warn("referral credit failed, share reverts to treasury",
				zap.String("user", user),
				zap.Uint64("lamports", split.Referral),
				zap.Error(err))
			split.Protocol += split.Referral
			split.Referral = 0
		}
	}

	r.treasuryAccrued.Add(split.Protocol)
	return split
}

// AccrueCreationFee records the flat launch fee paid into the treasury.
func (r *Router) AccrueCreationFee() uint64 {
	fee := r.params.CreationFeeLamports
	r.creationAccrued.Add(fee)
	r.treasuryAccrued.Add(fee)
	return fee
}

// TreasuryAccrued reports total lamports accrued to the treasury, trade fees
// and creation fees combined.
func (r *Router) TreasuryAccrued() uint64 {
	return r.treasuryAccrued.Load()
}

// CreationFeesAccrued reports the creation-fee portion of treasury revenue.
func (r *Router) CreationFeesAccrued() uint64 {
	return r.creationAccrued.Load()
}
