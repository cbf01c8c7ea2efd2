// Package cache provides a local SQLite cache for normalized API responses.
//
// Entries are keyed by canonical endpoint plus sorted query string and carry
// the time they were fetched. Reads never fail on staleness: an expired entry
// comes back marked stale so callers can show it with its age while a
// refresh happens in the background. Auth endpoints are refused outright.
package cache

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Shaloh69/EnergyGridCSR-sub002/internal/logging"
)

// schemaVersion tracks the cache layout via PRAGMA user_version. A cache is
// rebuildable from the server, so a version mismatch drops the table rather
// than migrating column by column.
const schemaVersion = 1

// Store is a response cache backed by a single SQLite file.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string

	ttl        time.Duration
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64
}

// Entry is one cached response.
type Entry struct {
	Key       string
	Body      []byte
	FetchedAt time.Time
	Age       time.Duration
	Stale     bool
}

// Stats summarizes the cache contents and this process's hit rate.
type Stats struct {
	Entries    int64
	TotalBytes int64
	Oldest     time.Time
	Newest     time.Time
	Hits       int64
	Misses     int64
}

// Open initializes the cache database at the given path.
func Open(path string, ttl time.Duration, maxEntries int) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryCache, "Open")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.CacheDebug("set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.CacheDebug("set journal_mode=WAL: %v", err)
	}

	s := &Store{db: db, dbPath: path, ttl: ttl, maxEntries: maxEntries}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Cache("cache ready at %s (ttl=%s, max=%d)", path, ttl, maxEntries)
	return s, nil
}

func (s *Store) initialize() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != 0 && version != schemaVersion {
		logging.Cache("schema version %d != %d, rebuilding cache", version, schemaVersion)
		if _, err := s.db.Exec("DROP TABLE IF EXISTS responses"); err != nil {
			return fmt.Errorf("drop stale cache table: %w", err)
		}
	}

	table := `
	CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		size INTEGER NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_fetched ON responses(fetched_at);
	`
	if _, err := s.db.Exec(table); err != nil {
		return fmt.Errorf("create cache table: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Close closes the cache database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key builds the canonical cache key for an endpoint and its query values.
// Query parameters are sorted so logically equal requests share one entry.
func Key(endpoint string, query url.Values) string {
	if len(query) == 0 {
		return endpoint
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('?')
	for i, k := range keys {
		vals := append([]string(nil), query[k]...)
		sort.Strings(vals)
		for j, v := range vals {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// cacheable reports whether a key may be stored. Session material must
// never land on disk in the cache, whatever the caller thinks.
func cacheable(key string) bool {
	return !strings.Contains(key, "/auth/")
}

// Put stores a normalized response body under key, replacing any prior
// entry. Keys under /auth/ are silently refused.
func (s *Store) Put(key string, body []byte) error {
	if !cacheable(key) {
		logging.CacheDebug("refusing to cache %s", key)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO responses (key, body, size, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		 body = excluded.body,
		 size = excluded.size,
		 fetched_at = excluded.fetched_at`,
		key, body, len(body), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("cache put %s: %w", key, err)
	}
	logging.CacheDebug("stored %s (%d bytes)", key, len(body))

	return s.pruneLocked()
}

// Get returns the entry for key if present. The second return is false on
// a miss. Expired entries are still returned, marked Stale, so the caller
// can decide whether old data beats no data.
func (s *Store) Get(key string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body []byte
	var fetchedMilli int64
	err := s.db.QueryRow(
		"SELECT body, fetched_at FROM responses WHERE key = ?", key,
	).Scan(&body, &fetchedMilli)
	if err == sql.ErrNoRows {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	s.hits.Add(1)
	fetchedAt := time.UnixMilli(fetchedMilli)
	age := time.Since(fetchedAt)
	entry := &Entry{
		Key:       key,
		Body:      body,
		FetchedAt: fetchedAt,
		Age:       age,
		Stale:     age > s.ttl,
	}
	logging.CacheDebug("hit %s (age=%s stale=%v)", key, age.Round(time.Second), entry.Stale)
	return entry, true, nil
}

// InvalidatePrefix removes every entry whose key starts with prefix.
// Mutation commands call this with the resource collection path so list
// and detail reads refetch after a write.
func (s *Store) InvalidatePrefix(prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"DELETE FROM responses WHERE key = ? OR key LIKE ?",
		prefix, prefix+"%",
	)
	if err != nil {
		return 0, fmt.Errorf("cache invalidate %s: %w", prefix, err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Cache("invalidated %d entries under %s", n, prefix)
	}
	return n, nil
}

// Clear removes all entries.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM responses"); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	logging.Cache("cache cleared")
	return nil
}

// PruneExpired removes entries older than the TTL and returns the count.
func (s *Store) PruneExpired() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl).UnixMilli()
	res, err := s.db.Exec("DELETE FROM responses WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// pruneLocked enforces maxEntries by evicting the oldest rows. Caller holds
// the write lock.
func (s *Store) pruneLocked() error {
	if s.maxEntries <= 0 {
		return nil
	}
	var count int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM responses").Scan(&count); err != nil {
		return fmt.Errorf("cache count: %w", err)
	}
	if count <= int64(s.maxEntries) {
		return nil
	}
	excess := count - int64(s.maxEntries)
	_, err := s.db.Exec(
		`DELETE FROM responses WHERE key IN (
			SELECT key FROM responses ORDER BY fetched_at ASC LIMIT ?
		)`, excess,
	)
	if err != nil {
		return fmt.Errorf("cache evict: %w", err)
	}
	logging.CacheDebug("evicted %d oldest entries", excess)
	return nil
}

// Stats returns cache contents plus this process's hit and miss counts.
func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}
	err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(size), 0) FROM responses",
	).Scan(&st.Entries, &st.TotalBytes)
	if err != nil {
		return st, fmt.Errorf("cache stats: %w", err)
	}
	if st.Entries > 0 {
		var oldest, newest int64
		err = s.db.QueryRow(
			"SELECT MIN(fetched_at), MAX(fetched_at) FROM responses",
		).Scan(&oldest, &newest)
		if err != nil {
			return st, fmt.Errorf("cache stats range: %w", err)
		}
		st.Oldest = time.UnixMilli(oldest)
		st.Newest = time.UnixMilli(newest)
	}
	return st, nil
}
