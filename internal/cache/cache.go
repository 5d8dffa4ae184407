// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache is a durable key/value store with per-entry expiry. It sits
// in front of every rate-limited upstream so repeated enrichment of the same
// candidate costs no network calls.
//
// The whole store is one JSON object on disk, rewritten on every Set:
//
//	{"weather_19.076_72.8777": {"data": {...}, "expiresAt": 1718000000000, "cachedAt": "2024-06-09T12:00:00Z"}}
//
// A missing or corrupt file yields an empty cache; storage trouble never
// stops the engine.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/pdiddy/neighborfit/internal/logging"
	"github.com/pdiddy/neighborfit/internal/metrics"
)

// ErrInvalidTTL is returned by Set for a TTL that would not place expiry
// after the write time.
var ErrInvalidTTL = errors.New("cache: ttl must be at least one millisecond")

// item is one in-memory entry.
type item struct {
	data      []byte
	cachedAt  time.Time
	expiresAt time.Time
}

// fileEntry is the on-disk form of an entry.
type fileEntry struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt int64           `json:"expiresAt"`
	CachedAt  string          `json:"cachedAt"`
}

// Store is safe for concurrent use.
type Store struct {
	path  string
	now   func() time.Time
	log   zerolog.Logger
	mu    sync.RWMutex
	items map[string]item

	// persistMu keeps snapshot and write together so an older snapshot can
	// never land on disk after a newer one.
	persistMu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger replaces the component logger.
//
//nolint:gocritic // zerolog.Logger is passed by value
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open loads the store at path. An empty path keeps the cache in memory.
// Load problems are logged and leave the cache empty; expired entries in the
// file are dropped.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:  path,
		now:   time.Now,
		log:   logging.Component("cache"),
		items: make(map[string]item),
	}
	for _, opt := range opts {
		opt(s)
	}

	if path == "" {
		return s
	}

	loaded, dropped, err := s.load()
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.log.Debug().Str("path", path).Msg("no cache file, starting empty")
	case err != nil:
		s.log.Warn().Err(err).Str("path", path).Msg("cache file unreadable, starting empty")
	default:
		s.log.Info().Str("path", path).Int("entries", loaded).Int("dropped", dropped).Msg("cache loaded")
	}
	metrics.CacheEntries.Set(float64(len(s.items)))
	return s
}

func (s *Store) load() (loaded, dropped int, err error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return 0, 0, err
	}

	var entries map[string]fileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, 0, fmt.Errorf("decoding %s: %w", s.path, err)
	}

	now := s.now()
	for key, e := range entries {
		expiresAt := time.UnixMilli(e.ExpiresAt)
		cachedAt, perr := time.Parse(time.RFC3339Nano, e.CachedAt)
		if perr != nil || !expiresAt.After(cachedAt) || now.After(expiresAt) || len(e.Data) == 0 {
			dropped++
			continue
		}
		s.items[key] = item{data: []byte(e.Data), cachedAt: cachedAt, expiresAt: expiresAt}
		loaded++
	}
	return loaded, dropped, nil
}

// Path returns the backing file, or "" for a memory-only store.
func (s *Store) Path() string { return s.path }

// Get returns the raw JSON for key while now <= expiresAt. An expired entry is
// removed on the read.
func (s *Store) Get(key string) ([]byte, bool) {
	now := s.now()

	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// Inclusive: an entry read at exactly expiresAt is still served, and
	// SweepExpired keeps it too. Both must change together.
	if now.After(it.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && now.After(cur.expiresAt) {
			delete(s.items, key)
			metrics.CacheEntries.Set(float64(len(s.items)))
		}
		s.mu.Unlock()
		return nil, false
	}
	return it.data, true
}

// GetJSON decodes the value for key into v. A decode failure counts as a miss.
func (s *Store) GetJSON(key string, v any) bool {
	data, ok := s.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cached value undecodable, treating as miss")
		return false
	}
	return true
}

// Set stores value under key for ttl and writes the store through to disk.
// The in-memory update always stands; a persistence failure is logged and
// returned so callers may note it.
func (s *Store) Set(key string, value any, ttl time.Duration) error {
	if ttl < time.Millisecond {
		return ErrInvalidTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache value for %s: %w", key, err)
	}

	now := s.now()
	s.mu.Lock()
	s.items[key] = item{data: data, cachedAt: now, expiresAt: now.Add(ttl)}
	n := len(s.items)
	s.mu.Unlock()
	metrics.CacheEntries.Set(float64(n))

	return s.persist()
}

// SweepExpired removes every entry past its expiry, persists when anything
// was removed, and returns the count.
func (s *Store) SweepExpired() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for key, it := range s.items {
		if now.After(it.expiresAt) {
			delete(s.items, key)
			removed++
		}
	}
	n := len(s.items)
	s.mu.Unlock()

	if removed == 0 {
		return 0
	}
	metrics.CacheEntries.Set(float64(n))
	metrics.CacheSwept.Add(float64(removed))
	s.log.Info().Int("removed", removed).Int("remaining", n).Msg("swept expired entries")
	_ = s.persist()
	return removed
}

// Clear drops every entry and persists the empty store.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.items = make(map[string]item)
	s.mu.Unlock()
	metrics.CacheEntries.Set(0)
	return s.persist()
}

// Close flushes the store to disk.
func (s *Store) Close() error {
	return s.persist()
}

// persist writes a snapshot of the store to a temp file and renames it over
// the store file.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	out := make(map[string]fileEntry, len(s.items))
	for key, it := range s.items {
		out[key] = fileEntry{
			Data:      json.RawMessage(it.data),
			ExpiresAt: it.expiresAt.UnixMilli(),
			CachedAt:  it.cachedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	s.mu.RUnlock()

	if err := writeFile(s.path, out); err != nil {
		metrics.CachePersistErrors.Inc()
		s.log.Error().Err(err).Str("path", s.path).Msg("persisting cache failed, keeping in-memory state")
		return err
	}
	return nil
}

func writeFile(path string, entries map[string]fileEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// EntryStatus describes one cached key.
type EntryStatus struct {
	Key          string        `json:"key"`
	CachedAt     time.Time     `json:"cachedAt"`
	ExpiresAt    time.Time     `json:"expiresAt"`
	Expired      bool          `json:"expired"`
	TimeToExpiry time.Duration `json:"timeToExpiry"`
}

// Status summarizes the store.
type Status struct {
	Path    string        `json:"path,omitempty"`
	Total   int           `json:"total"`
	Valid   int           `json:"valid"`
	Expired int           `json:"expired"`
	Entries []EntryStatus `json:"entries"`
}

// Status reports every entry sorted by key without removing anything.
func (s *Store) Status() Status {
	now := s.now()

	s.mu.RLock()
	st := Status{Path: s.path, Total: len(s.items), Entries: make([]EntryStatus, 0, len(s.items))}
	for key, it := range s.items {
		expired := now.After(it.expiresAt)
		es := EntryStatus{Key: key, CachedAt: it.cachedAt, ExpiresAt: it.expiresAt, Expired: expired}
		if expired {
			st.Expired++
		} else {
			st.Valid++
			es.TimeToExpiry = it.expiresAt.Sub(now)
		}
		st.Entries = append(st.Entries, es)
	}
	s.mu.RUnlock()

	sort.Slice(st.Entries, func(i, j int) bool { return st.Entries[i].Key < st.Entries[j].Key })
	return st
}
