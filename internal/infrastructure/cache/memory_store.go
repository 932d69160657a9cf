package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

const defaultCleanupInterval = 30 * time.Second

// MemoryStore implements Store using in-process storage. It backs
// single-instance deployments where no Redis address is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	counters map[string]int64

	stopCh   chan struct{}
	stopOnce sync.Once
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) isExpired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// NewMemoryStore creates an in-memory store with a background cleanup
// goroutine. Close stops the goroutine.
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		entries:  make(map[string]memoryEntry),
		counters: make(map[string]int64),
		stopCh:   make(chan struct{}),
	}
	go store.cleanupExpired()
	return store
}

// Get retrieves a value, returning ErrMiss for absent or expired keys.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || entry.isExpired() {
		return nil, ErrMiss
	}
	return entry.value, nil
}

// Set stores a value. A zero TTL means no expiration.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

// Del removes keys. Deleting absent keys is not an error.
func (s *MemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	return nil
}

// Incr atomically increments a counter key. The counter is also
// readable through Get, matching Redis INCR semantics.
func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	s.counters[key]++
	value := s.counters[key]
	s.entries[key] = memoryEntry{value: []byte(strconv.FormatInt(value, 10))}
	s.mu.Unlock()
	return value, nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	return nil
}

func (s *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.doCleanup()
		}
	}
}

func (s *MemoryStore) doCleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if entry.isExpired() {
			delete(s.entries, key)
		}
	}
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
