// Package snapshot holds the authoritative "best known now" market data
// per asset, seeded from REST baselines and overlaid by buffered ticks.
package snapshot

import (
	"sort"
	"sync"
	"time"

	"coinpulse/internal/domain"
)

// Store merges baseline seeds and live flushes under one precedence rule:
// a live snapshot is never downgraded by a stale reseed, and UpdatedAt
// never moves backwards for an asset.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]domain.AssetSnapshot
	watchers  map[int]chan struct{}
	nextWatch int

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		snapshots: make(map[string]domain.AssetSnapshot),
		watchers:  make(map[int]chan struct{}),
		now:       time.Now,
	}
}

// Seed installs REST-sourced snapshots. A seed never overwrites a live
// snapshot unless its UpdatedAt is strictly newer; a reseed of same-source
// data always applies (baseline refreshes legitimately move prices).
func (s *Store) Seed(snaps []domain.AssetSnapshot, source domain.Source) {
	if len(snaps) == 0 {
		return
	}

	s.mu.Lock()
	changed := false
	for _, snap := range snaps {
		if snap.AssetID == "" || snap.Price < 0 {
			continue
		}

		existing, ok := s.snapshots[snap.AssetID]
		if ok && existing.Source == domain.SourceLive && !snap.UpdatedAt.After(existing.UpdatedAt) {
			continue
		}

		snap.Source = source
		if snap.UpdatedAt.IsZero() {
			snap.UpdatedAt = s.now()
		}
		if ok && snap.UpdatedAt.Before(existing.UpdatedAt) {
			snap.UpdatedAt = existing.UpdatedAt
		}
		s.snapshots[snap.AssetID] = snap
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// ApplyFlush merges a drained tick batch. Only the fields a tick carried
// are updated; everything else (market cap in particular, which ticker
// streams never send) is preserved from the existing snapshot.
func (s *Store) ApplyFlush(batch map[string]domain.Tick) {
	if len(batch) == 0 {
		return
	}

	s.mu.Lock()
	now := s.now()
	changed := false
	for assetID, tick := range batch {
		if assetID == "" || !tick.HasData() {
			continue
		}

		snap := s.snapshots[assetID]
		snap.AssetID = assetID

		if tick.Price.Valid && tick.Price.Value >= 0 {
			snap.Price = tick.Price.Value
		}
		if tick.ChangePct.Valid {
			snap.ChangePct24h = tick.ChangePct.Value
		}
		if tick.ChangeAbs.Valid {
			snap.ChangeAbs24h = tick.ChangeAbs.Value
		}
		if tick.Volume.Valid {
			snap.Volume = tick.Volume.Value
		}
		if tick.QuoteVolume.Valid {
			snap.QuoteVolume = tick.QuoteVolume.Value
		}

		snap.Source = domain.SourceLive
		if now.After(snap.UpdatedAt) {
			snap.UpdatedAt = now
		}
		s.snapshots[assetID] = snap
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Get returns the snapshot for an asset, if any.
func (s *Store) Get(assetID string) (domain.AssetSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[assetID]
	return snap, ok
}

// List returns all snapshots sorted by asset id.
func (s *Store) List() []domain.AssetSnapshot {
	s.mu.RLock()
	snaps := make([]domain.AssetSnapshot, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		snaps = append(snaps, snap)
	}
	s.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].AssetID < snaps[j].AssetID })
	return snaps
}

// Snapshots returns the store contents keyed by asset id, for valuation.
func (s *Store) Snapshots() map[string]domain.AssetSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.AssetSnapshot, len(s.snapshots))
	for assetID, snap := range s.snapshots {
		out[assetID] = snap
	}
	return out
}

// Watch registers an update listener. The channel coalesces: it carries at
// most one pending notification regardless of how many updates happened.
// The returned cancel must be called on the consumer's teardown path.
func (s *Store) Watch() (<-chan struct{}, func()) {
	s.mu.Lock()
	id := s.nextWatch
	s.nextWatch++
	ch := make(chan struct{}, 1)
	s.watchers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
