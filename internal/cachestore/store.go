package cachestore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"shelfmark/internal/logging"
)

// DefaultPrefix namespaces all Shelfmark cache keys in the backend.
const DefaultPrefix = "shelfmark_"

type envelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt int64           `json:"expires_at"` // unix milliseconds
	CreatedAt int64           `json:"created_at"`
}

// Stats reports cache usage counters since the last reset.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Sets    uint64
	HitRate string
}

// Store is a namespaced TTL cache over a Backend.
type Store struct {
	prefix  string
	backend Backend
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	hits   uint64
	misses uint64
	sets   uint64
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides the key namespace prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock overrides the time source. Tests use this to cross TTL
// boundaries without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store over the given backend.
func New(backend Backend, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		prefix:  DefaultPrefix,
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "cachestore"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored payload if present and unexpired. The second return
// distinguishes a stored JSON null (a cached negative result) from a miss.
// Expired and corrupt entries are deleted as a side effect.
func (s *Store) Get(key string) (json.RawMessage, bool) {
	fullKey := s.prefix + key

	raw, found, err := s.backend.Get(fullKey)
	if err != nil {
		s.logger.Warn("cache read failed, treating as miss",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		s.recordMiss()
		return nil, false
	}
	if !found {
		s.recordMiss()
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Corrupt entry: heal by deleting it.
		s.logger.Warn("deleting corrupt cache entry",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		s.deleteQuiet(fullKey)
		s.recordMiss()
		return nil, false
	}

	if s.now().UnixMilli() >= env.ExpiresAt {
		s.deleteQuiet(fullKey)
		s.recordMiss()
		return nil, false
	}

	s.recordHit()
	return env.Value, true
}

// Set marshals value into the entry envelope and writes it unconditionally,
// overwriting any prior entry.
func (s *Store) Set(key string, value any, ttlMinutes int) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache value not serializable, skipping write",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		return
	}

	now := s.now()
	env := envelope{
		Value:     payload,
		ExpiresAt: now.Add(time.Duration(ttlMinutes) * time.Minute).UnixMilli(),
		CreatedAt: now.UnixMilli(),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn("cache envelope marshal failed",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		return
	}

	if err := s.backend.Set(s.prefix+key, raw); err != nil {
		s.logger.Warn("cache write failed",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
		return
	}

	s.mu.Lock()
	s.sets++
	s.mu.Unlock()
}

// Has reports whether the key holds a present, unexpired entry.
func (s *Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes the entry unconditionally; absent keys are not an error.
func (s *Store) Delete(key string) {
	s.deleteQuiet(s.prefix + key)
}

// Clear deletes entries under this store's namespace. With no filters every
// entry goes; otherwise only entries whose full key contains "_<filter>" for
// at least one filter. Returns the number deleted.
func (s *Store) Clear(filters ...string) int {
	keys, err := s.backend.Keys()
	if err != nil {
		s.logger.Warn("cache key listing failed", logging.Error(err))
		return 0
	}

	count := 0
	for _, fullKey := range keys {
		if !strings.HasPrefix(fullKey, s.prefix) {
			continue
		}
		if len(filters) > 0 && !matchesAnyFilter(fullKey, filters) {
			continue
		}
		s.deleteQuiet(fullKey)
		count++
	}
	return count
}

func matchesAnyFilter(fullKey string, filters []string) bool {
	for _, filter := range filters {
		if filter == "" {
			continue
		}
		if strings.Contains(fullKey, "_"+filter) {
			return true
		}
	}
	return false
}

// ListKeys returns all keys under the namespace, un-prefixed and sorted.
func (s *Store) ListKeys() []string {
	keys, err := s.backend.Keys()
	if err != nil {
		s.logger.Warn("cache key listing failed", logging.Error(err))
		return nil
	}

	out := make([]string, 0, len(keys))
	for _, fullKey := range keys {
		if strings.HasPrefix(fullKey, s.prefix) {
			out = append(out, strings.TrimPrefix(fullKey, s.prefix))
		}
	}
	sort.Strings(out)
	return out
}

// CleanExpired scans the namespace and deletes entries that have expired or
// no longer deserialize. Returns the number removed.
func (s *Store) CleanExpired() int {
	keys, err := s.backend.Keys()
	if err != nil {
		s.logger.Warn("cache key listing failed", logging.Error(err))
		return 0
	}

	nowMilli := s.now().UnixMilli()
	count := 0
	for _, fullKey := range keys {
		if !strings.HasPrefix(fullKey, s.prefix) {
			continue
		}
		raw, found, err := s.backend.Get(fullKey)
		if err != nil || !found {
			continue
		}
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil || nowMilli >= env.ExpiresAt {
			s.deleteQuiet(fullKey)
			count++
		}
	}

	if count > 0 {
		s.logger.Debug("swept expired cache entries", logging.Int("count", count))
	}
	return count
}

// Stats returns usage counters with the hit rate formatted as a percentage,
// "0.00%" before any lookups.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	rate := "0.00%"
	if total := s.hits + s.misses; total > 0 {
		rate = fmt.Sprintf("%.2f%%", float64(s.hits)/float64(total)*100)
	}
	return Stats{Hits: s.hits, Misses: s.misses, Sets: s.sets, HitRate: rate}
}

// ResetStats zeroes the counters without touching stored entries.
func (s *Store) ResetStats() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits, s.misses, s.sets = 0, 0, 0
}

func (s *Store) recordHit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *Store) recordMiss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

func (s *Store) deleteQuiet(fullKey string) {
	if err := s.backend.Delete(fullKey); err != nil {
		s.logger.Warn("cache delete failed",
			logging.String(logging.FieldCacheKey, strings.TrimPrefix(fullKey, s.prefix)),
			logging.Error(err))
	}
}
