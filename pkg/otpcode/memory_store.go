package otpcode

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with in-process maps. Suitable for
// single-instance deployments and tests; multi-process deployments use
// RedisStore so every instance sees the same outstanding codes.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry // by handle
	current map[string]string // (email|purpose) -> live handle
	ticker  *time.Ticker
	done    chan struct{}
}

// NewMemoryStore creates a memory store with an optional cleanup ticker.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*Entry),
		current: make(map[string]string),
		done:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		go s.cleanupLoop()
	}

	return s
}

func indexKey(email string, purpose Purpose) string {
	return email + "|" + string(purpose)
}

// Put stores the entry, displacing any outstanding entry for the same
// (email, purpose).
func (s *MemoryStore) Put(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexKey(entry.Email, entry.Purpose)
	if old, ok := s.current[idx]; ok {
		delete(s.entries, old)
	}

	stored := entry
	s.entries[entry.Handle] = &stored
	s.current[idx] = entry.Handle
	return nil
}

// Consume runs the full consume decision under the store lock, so exactly
// one of any number of racing callers can observe success.
func (s *MemoryStore) Consume(ctx context.Context, handle, code string, now time.Time) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[handle]
	if !ok {
		return Result{Outcome: OutcomeInvalidOrExpired}, nil
	}

	if now.After(entry.ExpiresAt) {
		s.remove(entry)
		return Result{Outcome: OutcomeInvalidOrExpired}, nil
	}

	if entry.Code != code {
		entry.Attempts++
		if entry.Attempts >= MaxAttempts {
			s.remove(entry)
			return Result{Outcome: OutcomeLockedOut}, nil
		}
		return Result{Outcome: OutcomeMismatch}, nil
	}

	s.remove(entry)
	return Result{Outcome: OutcomeSuccess, Email: entry.Email, Purpose: entry.Purpose}, nil
}

// remove deletes the entry and its index slot. Caller holds the lock.
func (s *MemoryStore) remove(entry *Entry) {
	delete(s.entries, entry.Handle)
	idx := indexKey(entry.Email, entry.Purpose)
	if s.current[idx] == entry.Handle {
		delete(s.current, idx)
	}
}

// DeleteExpired removes all entries past their expiry.
func (s *MemoryStore) DeleteExpired(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			s.remove(entry)
		}
	}
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.done)
	}
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.ticker.C:
			_ = s.DeleteExpired(context.Background(), time.Now())
		case <-s.done:
			return
		}
	}
}
