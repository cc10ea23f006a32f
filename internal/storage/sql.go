package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"

	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// --- SQLite Storage ---

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	search_id TEXT NOT NULL,
	query TEXT NOT NULL,
	name TEXT NOT NULL,
	price TEXT NOT NULL,
	url TEXT NOT NULL,
	scraped_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS listings_query_idx ON listings (query);
`

// SQLiteStorage writes listings to a local SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	dsn    string
	count  int
	logger *slog.Logger
}

// NewSQLiteStorage opens dsn (a file path or SQLite URI) and creates the
// listings table.
func NewSQLiteStorage(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteStorage, error) {
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteStorage{
		db:     db,
		dsn:    dsn,
		logger: logger.With("component", "sqlite_storage"),
	}, nil
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

func (s *SQLiteStorage) Store(ctx context.Context, b Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO listings (search_id, query, name, price, url, scraped_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, l := range b.Listings {
		if _, err := stmt.ExecContext(ctx, b.SearchID, b.Query, l.Name, l.Price, l.URL, b.ScrapedAt.UTC()); err != nil {
			return fmt.Errorf("sqlite insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	s.count += len(b.Listings)
	s.logger.Debug("listings stored in sqlite", "count", len(b.Listings), "total", s.count)
	return nil
}

// Listings returns stored listings for query, oldest first, up to limit
// rows when limit > 0.
func (s *SQLiteStorage) Listings(ctx context.Context, query string, limit int) ([]types.Listing, error) {
	q := `SELECT name, price, url FROM listings WHERE query = ? ORDER BY id`
	args := []any{query}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	out := []types.Listing{}
	for rows.Next() {
		var l types.Listing
		if err := rows.Scan(&l.Name, &l.Price, &l.URL); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	s.logger.Info("sqlite storage closing", "path", s.dsn, "listings", s.count)
	return s.db.Close()
}

// --- Postgres Storage ---

const postgresSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id BIGSERIAL PRIMARY KEY,
	search_id TEXT NOT NULL,
	query TEXT NOT NULL,
	name TEXT NOT NULL,
	price TEXT NOT NULL,
	url TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS listings_query_idx ON listings (query);
`

// PostgresStorage writes listings to PostgreSQL.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	count  int
	logger *slog.Logger
}

// NewPostgresStorage connects to dsn and creates the listings table.
func NewPostgresStorage(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStorage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return &PostgresStorage{
		pool:   pool,
		logger: logger.With("component", "postgres_storage"),
	}, nil
}

func (s *PostgresStorage) Name() string { return "postgres" }

func (s *PostgresStorage) Store(ctx context.Context, b Batch) error {
	batch := &pgx.Batch{}
	for _, l := range b.Listings {
		batch.Queue(
			`INSERT INTO listings (search_id, query, name, price, url, scraped_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			b.SearchID, b.Query, l.Name, l.Price, l.URL, b.ScrapedAt,
		)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres insert: %w", err)
	}
	s.count += len(b.Listings)
	s.logger.Debug("listings stored in postgres", "count", len(b.Listings), "total", s.count)
	return nil
}

func (s *PostgresStorage) Close() error {
	s.logger.Info("postgres storage closing", "listings", s.count)
	s.pool.Close()
	return nil
}
