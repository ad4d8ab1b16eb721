// Package cache persists verification outcomes in a local SQLite
// database so repeated runs against the same paper do not re-query the
// external APIs. Entries expire after a TTL.
package cache

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	"github.com/panchambanerjee/cite-verify-cli/internal/citation"
)

const (
	// CacheDirName is the cache directory under the user's home.
	CacheDirName = ".citeverify"

	// DBFile is the cache database file name.
	DBFile = "cache.db"

	// DefaultTTL is how long entries stay valid.
	DefaultTTL = 7 * 24 * time.Hour
)

// Cache is a TTL'd verification-outcome cache backed by SQLite.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// Stats summarizes cache contents.
type Stats struct {
	Total   int            `json:"total_entries"`
	Valid   int            `json:"valid_entries"`
	Expired int            `json:"expired_entries"`
	ByType  map[string]int `json:"by_type"`
}

// DefaultDir returns the cache directory, preferring the user's home and
// falling back to the working directory when home is unavailable.
func DefaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, CacheDirName)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return CacheDirName
	}
	return filepath.Join(cwd, CacheDirName)
}

// Open opens or creates the cache database in dir. A zero ttl selects
// DefaultTTL.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, DBFile))
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS verification_cache (
			cache_key    TEXT PRIMARY KEY,
			outcome_json TEXT NOT NULL,
			created_at   INTEGER NOT NULL,
			query_type   TEXT,
			query_value  TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_cache_created_at
		ON verification_cache(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// key derives the cache key for a query. Values are case-folded so
// lookups are insensitive to identifier casing.
func key(queryType, value string) string {
	sum := blake2b.Sum256([]byte(queryType + ":" + strings.ToLower(strings.TrimSpace(value))))
	return hex.EncodeToString(sum[:16])
}

// Get returns the cached outcome for a query, or false when the entry is
// missing, expired, or unreadable. Cache failures are never surfaced.
func (c *Cache) Get(queryType, value string) (*citation.VerificationOutcome, bool) {
	cutoff := time.Now().Add(-c.ttl).Unix()

	var raw string
	err := c.db.QueryRow(
		`SELECT outcome_json FROM verification_cache
		 WHERE cache_key = ? AND created_at > ?`,
		key(queryType, value), cutoff,
	).Scan(&raw)
	if err != nil {
		return nil, false
	}

	var out citation.VerificationOutcome
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return &out, true
}

// Set stores an outcome. Write failures are swallowed: a broken cache
// degrades to re-querying, never to a failed verification.
func (c *Cache) Set(queryType, value string, out *citation.VerificationOutcome) {
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	truncated := value
	if len(truncated) > 500 {
		truncated = truncated[:500]
	}
	_, _ = c.db.Exec(
		`INSERT OR REPLACE INTO verification_cache
		 (cache_key, outcome_json, created_at, query_type, query_value)
		 VALUES (?, ?, ?, ?, ?)`,
		key(queryType, value), string(raw), time.Now().Unix(), queryType, truncated,
	)
}

// Clear removes all entries and returns the number removed.
func (c *Cache) Clear() (int, error) {
	var count int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM verification_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	if _, err := c.db.Exec(`DELETE FROM verification_cache`); err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return count, nil
}

// ClearExpired removes expired entries and returns the number removed.
func (c *Cache) ClearExpired() (int, error) {
	cutoff := time.Now().Add(-c.ttl).Unix()
	res, err := c.db.Exec(`DELETE FROM verification_cache WHERE created_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clearing expired entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ReadStats returns cache statistics.
func (c *Cache) ReadStats() (*Stats, error) {
	stats := &Stats{ByType: make(map[string]int)}

	if err := c.db.QueryRow(`SELECT COUNT(*) FROM verification_cache`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("counting cache entries: %w", err)
	}

	cutoff := time.Now().Add(-c.ttl).Unix()
	if err := c.db.QueryRow(
		`SELECT COUNT(*) FROM verification_cache WHERE created_at > ?`, cutoff,
	).Scan(&stats.Valid); err != nil {
		return nil, fmt.Errorf("counting valid entries: %w", err)
	}
	stats.Expired = stats.Total - stats.Valid

	rows, err := c.db.Query(
		`SELECT query_type, COUNT(*) FROM verification_cache GROUP BY query_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("grouping cache entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var qt string
		var n int
		if err := rows.Scan(&qt, &n); err != nil {
			return nil, fmt.Errorf("scanning cache stats: %w", err)
		}
		stats.ByType[qt] = n
	}
	return stats, rows.Err()
}
