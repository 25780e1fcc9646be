package ratelimit

import (
	"context"
	"sync"
	"time"
)

const janitorInterval = time.Minute

type keyWindow struct {
	stamps []time.Time
	window time.Duration
}

// MemoryStore keeps per-key timestamp windows in process memory. A
// background janitor drops keys whose whole window has lapsed, so
// identities that stop calling do not pin memory.
type MemoryStore struct {
	mu      sync.Mutex
	keys    map[string]*keyWindow
	stop    chan struct{}
	stopped sync.Once
}

// NewMemoryStore builds an in-memory store and starts its janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		keys: make(map[string]*keyWindow),
		stop: make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Admit implements Store.
func (s *MemoryStore) Admit(_ context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int, error) {
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()

	kw := s.keys[key]
	if kw == nil {
		kw = &keyWindow{}
		s.keys[key] = kw
	}
	kw.window = window
	kw.stamps = pruneBefore(kw.stamps, cutoff)

	if len(kw.stamps) >= limit {
		return false, len(kw.stamps), nil
	}
	kw.stamps = append(kw.stamps, now)
	return true, len(kw.stamps), nil
}

// Close stops the janitor. Admit keeps working after Close.
func (s *MemoryStore) Close() {
	s.stopped.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, kw := range s.keys {
		kw.stamps = pruneBefore(kw.stamps, now.Add(-kw.window))
		if len(kw.stamps) == 0 {
			delete(s.keys, key)
		}
	}
}

// pruneBefore drops timestamps at or before cutoff. Stamps are
// appended in order, so a prefix scan suffices.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
