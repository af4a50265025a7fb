// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fuselabs/fuse-launchpad/internal/storage"
	"github.com/fuselabs/fuse-launchpad/internal/storage/models"
)

// memoryStorage keeps the full ledger in process. Used by tests and by the
// dry-run mode of the CLI tools.
type memoryStorage struct {
	mu sync.RWMutex

	trades     map[string]*models.TradeRecord // by signature
	migrations map[string]*models.MigrationRecord
	accounts   map[string]*models.ReferralAccount
	bindings   map[string]*models.ReferralBinding
	earnings   []*models.ReferralEarning

	nextID uint
}

func NewStorage() storage.Storage {
	return &memoryStorage{
		trades:     make(map[string]*models.TradeRecord),
		migrations: make(map[string]*models.MigrationRecord),
		accounts:   make(map[string]*models.ReferralAccount),
		bindings:   make(map[string]*models.ReferralBinding),
	}
}

func (s *memoryStorage) RunMigrations() error { return nil }

func (s *memoryStorage) assignID() uint {
	s.nextID++
	return s.nextID
}

// ---- trades ----

func (s *memoryStorage) SaveTrade(_ context.Context, trade *models.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trades[trade.Signature]; ok {
		return fmt.Errorf("duplicate trade signature %s", trade.Signature)
	}
	cp := *trade
	cp.ID = s.assignID()
	s.trades[trade.Signature] = &cp
	trade.ID = cp.ID
	return nil
}

func (s *memoryStorage) GetTrade(_ context.Context, signature string) (*models.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trade, ok := s.trades[signature]
	if !ok {
		return nil, fmt.Errorf("trade %s not found", signature)
	}
	cp := *trade
	return &cp, nil
}

func (s *memoryStorage) ListTrades(_ context.Context, mint string, limit, offset int) ([]*models.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.TradeRecord
	for _, t := range s.trades {
		if t.Mint == mint {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExecutedAt.After(out[j].ExecutedAt)
	})
	return paginate(out, limit, offset), nil
}

// ---- migrations ----

func (s *memoryStorage) CreateMigration(_ context.Context, rec *models.MigrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.migrations[rec.Mint]; ok {
		return fmt.Errorf("migration record for %s already exists", rec.Mint)
	}
	cp := *rec
	cp.ID = s.assignID()
	s.migrations[rec.Mint] = &cp
	rec.ID = cp.ID
	return nil
}

func (s *memoryStorage) GetMigration(_ context.Context, mint string) (*models.MigrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.migrations[mint]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memoryStorage) UpdateMigration(_ context.Context, rec *models.MigrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.migrations[rec.Mint]; !ok {
		return fmt.Errorf("migration record for %s not found", rec.Mint)
	}
	cp := *rec
	s.migrations[rec.Mint] = &cp
	return nil
}

func (s *memoryStorage) ListMigrationsByStatus(_ context.Context, statuses ...string) ([]*models.MigrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[string]struct{}, len(statuses))
	for _, st := range statuses {
		want[st] = struct{}{}
	}

	var out []*models.MigrationRecord
	for _, rec := range s.migrations {
		if _, ok := want[rec.Status]; ok {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GraduatedAt.Before(out[j].GraduatedAt)
	})
	return out, nil
}

// ---- referral ledger ----

func (s *memoryStorage) CreateReferralBinding(_ context.Context, binding *models.ReferralBinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[binding.Referred]; ok {
		return fmt.Errorf("referral binding for %s already exists", binding.Referred)
	}
	cp := *binding
	cp.ID = s.assignID()
	s.bindings[binding.Referred] = &cp
	return nil
}

func (s *memoryStorage) GetReferralBinding(_ context.Context, referred string) (*models.ReferralBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	binding, ok := s.bindings[referred]
	if !ok {
		return nil, nil
	}
	cp := *binding
	return &cp, nil
}

func (s *memoryStorage) SaveReferralEarning(_ context.Context, earning *models.ReferralEarning) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *earning
	cp.ID = s.assignID()
	s.earnings = append(s.earnings, &cp)
	return nil
}

func (s *memoryStorage) UpsertReferralAccount(_ context.Context, account *models.ReferralAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *account
	if existing, ok := s.accounts[account.Referrer]; ok {
		cp.ID = existing.ID
	} else {
		cp.ID = s.assignID()
	}
	s.accounts[account.Referrer] = &cp
	return nil
}

func (s *memoryStorage) GetReferralAccount(_ context.Context, referrer string) (*models.ReferralAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[referrer]
	if !ok {
		return nil, nil
	}
	cp := *account
	return &cp, nil
}

func (s *memoryStorage) ListReferralEarnings(_ context.Context, referrer string, limit, offset int) ([]*models.ReferralEarning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ReferralEarning
	for _, e := range s.earnings {
		if e.Referrer == referrer {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EarnedAt.After(out[j].EarnedAt)
	})
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
