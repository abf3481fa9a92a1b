// Package cache implements the versioned, compressing, TTL-adaptive
// analysis cache backed by SQLite. Entries are keyed by a deterministic
// hash of (url, analysis type, context); entries stored under a different
// scoring version are treated as misses and evicted. Large payloads are
// gzip-compressed transparently.
package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/seoscope/backend/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_cache (
	cache_key     TEXT PRIMARY KEY,
	url           TEXT NOT NULL,
	domain        TEXT NOT NULL,
	analysis_type TEXT NOT NULL,
	version       TEXT NOT NULL,
	payload       BLOB NOT NULL,
	compressed    INTEGER NOT NULL DEFAULT 0,
	created_at    INTEGER NOT NULL,
	expires_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_url ON analysis_cache(url);
CREATE INDEX IF NOT EXISTS idx_cache_domain ON analysis_cache(domain);
CREATE INDEX IF NOT EXISTS idx_cache_expires ON analysis_cache(expires_at);
`

// Options carries the context of a cache operation. Type and Context are
// key material; ContentKind and ExtendedTTL select the TTL.
type Options struct {
	// Type distinguishes analysis kinds under the same URL, e.g.
	// "score_calculation" or "quality_assessment".
	Type string

	// ContentKind selects the adaptive TTL: "news" entries expire fast,
	// "static" entries slowly, anything else uses the default.
	ContentKind string

	// ExtendedTTL quadruples the resolved TTL for callers whose user
	// tier requests longer retention.
	ExtendedTTL bool

	// Context is extra key material; identical inputs always map to the
	// identical key regardless of map iteration order.
	Context map[string]string
}

// Statistics summarizes cache state and effectiveness.
type Statistics struct {
	Entries           int     `json:"entries"`
	CompressedEntries int     `json:"compressed_entries"`
	Hits              int64   `json:"hits"`
	Misses            int64   `json:"misses"`
	Evictions         int64   `json:"evictions"`
	HitRate           float64 `json:"hit_rate"`
	PayloadBytes      int64   `json:"payload_bytes"`
}

// Store is the SQLite-backed analysis cache. Safe for concurrent use; all
// writes are last-write-wins per key.
type Store struct {
	db          *sql.DB
	version     string
	logger      *slog.Logger
	metrics     *metrics.Metrics
	compressMin int
	defaultTTL  time.Duration
	kindTTLs    map[string]time.Duration

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// Option customises Store behaviour.
type Option func(*Store)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.logger = l } }

// WithMetrics wires Prometheus counters for hits, misses and evictions.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Store) { s.metrics = m } }

// WithCompressionThreshold sets the payload size in bytes above which
// entries are gzip-compressed. Default: 1024.
func WithCompressionThreshold(n int) Option { return func(s *Store) { s.compressMin = n } }

// WithDefaultTTL overrides the default entry lifetime. Default: 1 hour.
func WithDefaultTTL(d time.Duration) Option { return func(s *Store) { s.defaultTTL = d } }

// WithKindTTL overrides the lifetime for one content kind.
func WithKindTTL(kind string, d time.Duration) Option {
	return func(s *Store) { s.kindTTLs[kind] = d }
}

// New opens (or creates) the cache database at path. Use ":memory:" for an
// ephemeral cache. version tags every stored entry; entries written under
// another version are treated as misses.
func New(path, version string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	s := &Store{
		db:          db,
		version:     version,
		logger:      slog.Default(),
		compressMin: 1024,
		defaultTTL:  time.Hour,
		kindTTLs: map[string]time.Duration{
			"news":   15 * time.Minute,
			"static": 24 * time.Hour,
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Key returns the deterministic cache key for a URL and operation context.
func (s *Store) Key(rawURL string, o Options) string {
	var b strings.Builder
	b.WriteString(rawURL)
	b.WriteByte('|')
	b.WriteString(o.Type)

	if len(o.Context) > 0 {
		keys := make([]string, 0, len(o.Context))
		for k := range o.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte('|')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(o.Context[k])
		}
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// GetAnalysis looks up a cached analysis. Expired or version-mismatched
// entries are evicted and reported as misses. Any database error is a miss
// (fail-open).
func (s *Store) GetAnalysis(ctx context.Context, rawURL string, o Options) (json.RawMessage, bool) {
	key := s.Key(rawURL, o)

	var (
		version    string
		payload    []byte
		compressed bool
		expiresAt  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, payload, compressed, expires_at FROM analysis_cache WHERE cache_key = ?`,
		key).Scan(&version, &payload, &compressed, &expiresAt)
	switch {
	case err == sql.ErrNoRows:
		s.miss()
		return nil, false
	case err != nil:
		s.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		s.miss()
		return nil, false
	}

	if version != s.version || time.Now().Unix() >= expiresAt {
		s.evict(ctx, key)
		s.miss()
		return nil, false
	}

	if compressed {
		decompressed, err := gunzip(payload)
		if err != nil {
			s.logger.Warn("cache entry corrupt, evicting", "key", key, "error", err)
			s.evict(ctx, key)
			s.miss()
			return nil, false
		}
		payload = decompressed
	}

	s.hits.Add(1)
	if s.metrics != nil {
		s.metrics.CacheHits.Inc()
	}
	return payload, true
}

// StoreAnalysis serializes data and writes it under the key for rawURL.
// Returns false (and logs) on any failure; callers treat that as a
// non-fatal condition.
func (s *Store) StoreAnalysis(ctx context.Context, rawURL string, data any, o Options) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("cache store skipped, unserializable data", "url", rawURL, "error", err)
		return false
	}

	compressed := false
	if len(payload) >= s.compressMin {
		zipped, err := gzipBytes(payload)
		if err == nil && len(zipped) < len(payload) {
			payload = zipped
			compressed = true
		}
	}

	now := time.Now()
	ttl := s.ttlFor(o)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analysis_cache
			(cache_key, url, domain, analysis_type, version, payload, compressed, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			url = excluded.url,
			domain = excluded.domain,
			analysis_type = excluded.analysis_type,
			version = excluded.version,
			payload = excluded.payload,
			compressed = excluded.compressed,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		s.Key(rawURL, o), rawURL, domainOf(rawURL), o.Type, s.version,
		payload, compressed, now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		s.logger.Warn("cache write failed", "url", rawURL, "error", err)
		return false
	}
	return true
}

// StoreBatchAnalysis stores a group of results under a shared context and
// returns how many were written.
func (s *Store) StoreBatchAnalysis(ctx context.Context, results map[string]any, o Options) int {
	stored := 0
	for rawURL, data := range results {
		if s.StoreAnalysis(ctx, rawURL, data, o) {
			stored++
		}
	}
	return stored
}

// GetBatchAnalysis looks up several URLs at once; only hits appear in the
// returned map.
func (s *Store) GetBatchAnalysis(ctx context.Context, urls []string, o Options) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(urls))
	for _, u := range urls {
		if data, ok := s.GetAnalysis(ctx, u, o); ok {
			out[u] = data
		}
	}
	return out
}

// InvalidateByURL removes every entry stored for the exact URL across all
// analysis types and contexts.
func (s *Store) InvalidateByURL(ctx context.Context, rawURL string) int {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE url = ?`, rawURL)
	if err != nil {
		s.logger.Warn("cache invalidation failed", "url", rawURL, "error", err)
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

// InvalidateByDomain removes every entry whose URL belongs to domain.
func (s *Store) InvalidateByDomain(ctx context.Context, domain string) int {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE domain = ?`,
		strings.ToLower(domain))
	if err != nil {
		s.logger.Warn("cache invalidation failed", "domain", domain, "error", err)
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

// GetCacheStatistics returns entry counts and hit rates.
func (s *Store) GetCacheStatistics(ctx context.Context) Statistics {
	stats := Statistics{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Evictions: s.evictions.Load(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(compressed), 0),
		       COALESCE(SUM(LENGTH(payload)), 0)
		FROM analysis_cache`)
	if err := row.Scan(&stats.Entries, &stats.CompressedEntries, &stats.PayloadBytes); err != nil {
		s.logger.Warn("cache statistics query failed", "error", err)
	}
	return stats
}

// Provider computes a fresh analysis for a URL during warmup.
type Provider func(ctx context.Context, url string) (any, error)

// WarmupCache precomputes and stores analyses for urls that are not
// already cached. Returns the number of entries written.
func (s *Store) WarmupCache(ctx context.Context, urls []string, o Options, provide Provider) int {
	warmed := 0
	for _, u := range urls {
		if ctx.Err() != nil {
			return warmed
		}
		if _, ok := s.GetAnalysis(ctx, u, o); ok {
			continue
		}
		data, err := provide(ctx, u)
		if err != nil {
			s.logger.Warn("cache warmup provider failed", "url", u, "error", err)
			continue
		}
		if s.StoreAnalysis(ctx, u, data, o) {
			warmed++
		}
	}
	return warmed
}

// CleanupExpiredEntries deletes entries past their expiry or stored under
// an older version. Returns the number of rows removed.
func (s *Store) CleanupExpiredEntries(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM analysis_cache WHERE expires_at <= ? OR version != ?`,
		time.Now().Unix(), s.version)
	if err != nil {
		return 0, fmt.Errorf("cache cleanup failed: %w", err)
	}
	n, _ := res.RowsAffected()
	s.evictions.Add(n)
	if s.metrics != nil {
		s.metrics.CacheEvictions.Add(float64(n))
	}
	return int(n), nil
}

func (s *Store) ttlFor(o Options) time.Duration {
	ttl := s.defaultTTL
	if kindTTL, ok := s.kindTTLs[o.ContentKind]; ok {
		ttl = kindTTL
	}
	if o.ExtendedTTL {
		ttl *= 4
	}
	return ttl
}

func (s *Store) miss() {
	s.misses.Add(1)
	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}
}

func (s *Store) evict(ctx context.Context, key string) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM analysis_cache WHERE cache_key = ?`, key); err != nil {
		s.logger.Warn("cache eviction failed", "key", key, "error", err)
		return
	}
	s.evictions.Add(1)
	if s.metrics != nil {
		s.metrics.CacheEvictions.Inc()
	}
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
