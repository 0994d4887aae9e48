package dataset

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// CacheKey identifies one analysis. The same position searched to another depth or with
// another line count is a different entry.
type CacheKey struct {
	FEN     string
	Depth   int
	MultiPV int
}

// CachedLine is the primary line of a stored analysis. ScoreType is "cp" or "mate" and the
// value is relative to the side to move, as the engine reports it.
type CachedLine struct {
	BestMove     string
	BestSAN      string
	ScoreType    string
	ScoreValue   int
	ReachedDepth int
	PV           []string
}

// Cache persists analyses in SQLite so repeated positions (openings above all) are searched
// once across runs and across worker processes.
type Cache struct {
	sqlDB *sql.DB
}

// OpenCache opens or creates the cache database at path. ":memory:" gives a private
// in-memory cache.
func OpenCache(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Cache{sqlDB: sqlDB}, nil
}

func applyMigrations(sqlDB *sql.DB) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := sqlDB.Exec(string(body)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Close closes the SQLite handle.
func (c *Cache) Close() error {
	if c == nil || c.sqlDB == nil {
		return nil
	}
	return c.sqlDB.Close()
}

// Get returns the stored line for key. The boolean is false when nothing is stored.
func (c *Cache) Get(ctx context.Context, key CacheKey) (CachedLine, bool, error) {
	if c == nil || c.sqlDB == nil {
		return CachedLine{}, false, nil
	}
	row := c.sqlDB.QueryRowContext(ctx,
		`SELECT best_move, best_san, score_type, score_value, reached_depth, pv
		 FROM analysis_cache WHERE fen = ? AND depth = ? AND multipv = ?`,
		key.FEN, key.Depth, key.MultiPV)
	var line CachedLine
	var pv string
	if err := row.Scan(&line.BestMove, &line.BestSAN, &line.ScoreType, &line.ScoreValue, &line.ReachedDepth, &pv); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CachedLine{}, false, nil
		}
		return CachedLine{}, false, fmt.Errorf("get cached analysis: %w", err)
	}
	if pv != "" {
		line.PV = strings.Fields(pv)
	}
	return line, true, nil
}

// Put stores line under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key CacheKey, line CachedLine) error {
	if c == nil || c.sqlDB == nil {
		return nil
	}
	if key.FEN == "" {
		return fmt.Errorf("cache key fen is required")
	}
	_, err := c.sqlDB.ExecContext(ctx,
		`INSERT INTO analysis_cache (fen, depth, multipv, best_move, best_san, score_type, score_value, reached_depth, pv, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (fen, depth, multipv) DO UPDATE SET
		   best_move = excluded.best_move,
		   best_san = excluded.best_san,
		   score_type = excluded.score_type,
		   score_value = excluded.score_value,
		   reached_depth = excluded.reached_depth,
		   pv = excluded.pv,
		   created_at = excluded.created_at`,
		key.FEN, key.Depth, key.MultiPV,
		line.BestMove, line.BestSAN, line.ScoreType, line.ScoreValue, line.ReachedDepth,
		strings.Join(line.PV, " "), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("put cached analysis: %w", err)
	}
	return nil
}

// Len returns the number of stored analyses.
func (c *Cache) Len(ctx context.Context) (int, error) {
	if c == nil || c.sqlDB == nil {
		return 0, nil
	}
	var n int
	if err := c.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cached analyses: %w", err)
	}
	return n, nil
}
