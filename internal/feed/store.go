// Package feed holds the scored-item store and the pure functions computed
// over it: deduplication, the decayed sentiment index, and the candle series.
package feed

import (
	"sync"
	"time"

	"sentiment-pulse/internal/types"
)

// Store is the bounded, newest-first collection of scored items. It is
// written only by the classification worker and read by everyone else;
// readers always get a copied snapshot.
type Store struct {
	mu       sync.RWMutex
	items    []types.ScoredItem
	capacity int
}

func NewStore(capacity int) *Store {
	return &Store{capacity: capacity}
}

// Insert places item at the front, clamping impact and confidence to their
// domains and stamping the timestamp exactly once. The oldest item is evicted
// past capacity.
func (s *Store) Insert(item types.ScoredItem, now time.Time) types.ScoredItem {
	item.Impact = types.Clamp(item.Impact, 0, 1)
	if item.Confidence <= 0 || item.Confidence > 1 {
		item.Confidence = 0.95
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]types.ScoredItem{item}, s.items...)
	if len(s.items) > s.capacity {
		s.items = s.items[:s.capacity]
	}
	return item
}

// Replace swaps in a previously persisted feed, truncating to capacity.
func (s *Store) Replace(items []types.ScoredItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) > s.capacity {
		items = items[:s.capacity]
	}
	s.items = append([]types.ScoredItem(nil), items...)
}

// Snapshot returns a copy of the current feed, newest first.
func (s *Store) Snapshot() []types.ScoredItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ScoredItem(nil), s.items...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
