// =================================
// File: internal/engine/registry.go
// =================================
package engine

import (
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/fuselabs/fuse-launchpad/internal/curve"
)

const numShards = 16

// entry pairs a curve with the mutex that serializes its settlement. Trades
// on different mints never contend.
type entry struct {
	mu    sync.Mutex
	curve *curve.BondingCurve
}

// registry is a sharded map of live curves keyed by mint.
type registry struct {
	shards [numShards]registryShard
}

type registryShard struct {
	mu      sync.RWMutex
	entries map[solana.PublicKey]*entry
}

func newRegistry() *registry {
	r := &registry{}
	for i := 0; i < numShards; i++ {
		r.shards[i].entries = make(map[solana.PublicKey]*entry)
	}
	return r
}

// getShard returns the shard for a given mint.
func (r *registry) getShard(key solana.PublicKey) *registryShard {
	// First byte of the public key spreads uniformly enough.
	idx := key[0] % numShards
	return &r.shards[idx]
}

func (r *registry) get(key solana.PublicKey) (*entry, bool) {
	shard := r.getShard(key)
	shard.mu.RLock()
	e, ok := shard.entries[key]
	shard.mu.RUnlock()
	return e, ok
}

// insert adds a curve, failing if the mint already exists.
func (r *registry) insert(key solana.PublicKey, c *curve.BondingCurve) error {
	shard := r.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	if _, ok := shard.entries[key]; ok {
		return curve.ErrCurveExists
	}
	shard.entries[key] = &entry{curve: c}
	return nil
}

func (r *registry) len() int {
	total := 0
	for i := 0; i < numShards; i++ {
		r.shards[i].mu.RLock()
		total += len(r.shards[i].entries)
		r.shards[i].mu.RUnlock()
	}
	return total
}

// rangeAll iterates every entry. Stops early when f returns false.
func (r *registry) rangeAll(f func(key solana.PublicKey, e *entry) bool) {
	for i := 0; i < numShards; i++ {
		r.shards[i].mu.RLock()
		for k, v := range r.shards[i].entries {
			if !f(k, v) {
				r.shards[i].mu.RUnlock()
				return
			}
		}
		r.shards[i].mu.RUnlock()
	}
}
