// ================================
// File: internal/referral/ledger.go
// ================================
package referral

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
	"github.com/fuselabs/fuse-launchpad/internal/storage"
	"github.com/fuselabs/fuse-launchpad/internal/storage/models"
)

// Service maintains the referrer ledger. Bindings are set once per referred
// wallet; earnings accrue as pending until claimed.
type Service struct {
	store  storage.Storage
	logger *zap.Logger

	mu       sync.RWMutex
	bindings map[string]string // referred wallet -> referrer wallet
}

func NewService(store storage.Storage, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		logger:   logger.Named("referral"),
		bindings: make(map[string]string),
	}
}

// Bind records that referrer recruited referred. The first binding wins;
// rebinding and self-referral are rejected.
func (s *Service) Bind(ctx context.Context, referred, referrer string) error {
	if referred == "" || referrer == "" {
		return fmt.Errorf("referred and referrer wallets must be set")
	}
	if referred == referrer {
		return curve.ErrSelfReferral
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bindings[referred]; ok {
		return curve.ErrReferralExists
	}
	existing, err := s.store.GetReferralBinding(ctx, referred)
	if err != nil {
		return fmt.Errorf("failed to check referral binding: %w", err)
	}
	if existing != nil {
		s.bindings[referred] = existing.Referrer
		return curve.ErrReferralExists
	}

	now := time.Now().UTC()
	if err := s.store.CreateReferralBinding(ctx, &models.ReferralBinding{
		Referred: referred,
		Referrer: referrer,
		BoundAt:  now,
	}); err != nil {
		return fmt.Errorf("failed to persist referral binding: %w", err)
	}
	s.bindings[referred] = referrer

	account, err := s.loadAccount(ctx, referrer)
	if err != nil {
		return err
	}
	account.ReferredCount++
	if err := s.store.UpsertReferralAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to update referral account: %w", err)
	}

	s.logger.Info("referral bound",
		zap.String("referred", referred),
		zap.String("referrer", referrer))
	return nil
}

// ReferrerOf resolves the referrer for a wallet, if any.
func (s *Service) ReferrerOf(ctx context.Context, referred string) (string, bool, error) {
	s.mu.RLock()
	referrer, ok := s.bindings[referred]
	s.mu.RUnlock()
	if ok {
		return referrer, true, nil
	}

	binding, err := s.store.GetReferralBinding(ctx, referred)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve referrer: %w", err)
	}
	if binding == nil {
		return "", false, nil
	}

	s.mu.Lock()
	s.bindings[referred] = binding.Referrer
	s.mu.Unlock()
	return binding.Referrer, true, nil
}

// Credit records an earning for the referrer of a referred wallet. The
// earning lands in the pending balance.
func (s *Service) Credit(ctx context.Context, referred, referrer, action string, originalFee, earning uint64) error {
	if earning == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveReferralEarning(ctx, &models.ReferralEarning{
		Referrer:    referrer,
		Referred:    referred,
		Action:      action,
		OriginalFee: originalFee,
		Earning:     earning,
		EarnedAt:    time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("failed to record referral earning: %w", err)
	}

	account, err := s.loadAccount(ctx, referrer)
	if err != nil {
		return err
	}
	account.TotalEarned += earning
	account.Pending += earning
	if err := s.store.UpsertReferralAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to update referral account: %w", err)
	}
	return nil
}

// Claim moves the full pending balance to claimed and returns the amount.
func (s *Service) Claim(ctx context.Context, referrer string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.loadAccount(ctx, referrer)
	if err != nil {
		return 0, err
	}
	amount := account.Pending
	if amount == 0 {
		return 0, nil
	}

	account.Pending = 0
	account.Claimed += amount
	if err := s.store.UpsertReferralAccount(ctx, account); err != nil {
		return 0, fmt.Errorf("failed to settle referral claim: %w", err)
	}

	s.logger.Info("referral claim settled",
		zap.String("referrer", referrer),
		zap.Uint64("lamports", amount))
	return amount, nil
}

// Summary returns the referrer's aggregate ledger state.
func (s *Service) Summary(ctx context.Context, referrer string) (*models.ReferralAccount, error) {
	account, err := s.store.GetReferralAccount(ctx, referrer)
	if err != nil {
		return nil, fmt.Errorf("failed to load referral account: %w", err)
	}
	if account == nil {
		return &models.ReferralAccount{Referrer: referrer}, nil
	}
	return account, nil
}

// Earnings lists a referrer's individual earning events, newest first.
func (s *Service) Earnings(ctx context.Context, referrer string, limit, offset int) ([]*models.ReferralEarning, error) {
	return s.store.ListReferralEarnings(ctx, referrer, limit, offset)
}

func (s *Service) loadAccount(ctx context.Context, referrer string) (*models.ReferralAccount, error) {
	account, err := s.store.GetReferralAccount(ctx, referrer)
	if err != nil {
		return nil, fmt.Errorf("failed to load referral account: %w", err)
	}
	if account == nil {
		account = &models.ReferralAccount{Referrer: referrer}
	}
	return account, nil
}
