// Package storage persists search results to files and databases.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/IshaanNene/carousell-scraper/internal/config"
	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// Batch is the output of one search.
type Batch struct {
	SearchID  string
	Query     string
	ScrapedAt time.Time
	Listings  []types.Listing
}

// row is the stored shape of a single listing.
type row struct {
	SearchID      string    `json:"search_id"  bson:"search_id"`
	Query         string    `json:"query"      bson:"query"`
	ScrapedAt     time.Time `json:"scraped_at" bson:"scraped_at"`
	types.Listing `bson:",inline"`
}

func (b Batch) rows() []row {
	out := make([]row, len(b.Listings))
	for i, l := range b.Listings {
		out[i] = row{SearchID: b.SearchID, Query: b.Query, ScrapedAt: b.ScrapedAt, Listing: l}
	}
	return out
}

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists the listings of one search.
	Store(ctx context.Context, b Batch) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New opens the backends named by cfg.Type. Several backends are combined
// with a MultiStorage.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	var backends []Storage
	for _, t := range cfg.Types() {
		s, err := open(ctx, t, cfg, logger)
		if err != nil {
			for _, b := range backends {
				b.Close()
			}
			return nil, &types.StorageError{Backend: t, Err: err}
		}
		backends = append(backends, s)
	}
	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStorage(backends, logger), nil
}

func open(ctx context.Context, kind string, cfg config.StorageConfig, logger *slog.Logger) (Storage, error) {
	switch kind {
	case "none":
		return Discard{}, nil
	case "json":
		return NewJSONStorage(outputFile(cfg.OutputPath, ".json"), logger)
	case "jsonl":
		return NewJSONLStorage(outputFile(cfg.OutputPath, ".jsonl"), logger)
	case "csv":
		return NewCSVStorage(outputFile(cfg.OutputPath, ".csv"), logger)
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" || strings.Contains(dsn, "://") {
			dsn = outputFile(cfg.OutputPath, ".db")
		}
		return NewSQLiteStorage(ctx, dsn, logger)
	case "postgres":
		return NewPostgresStorage(ctx, cfg.DSN, logger)
	case "mongodb":
		return NewMongoStorage(ctx, cfg.DSN, cfg.Database, cfg.Collection, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", kind)
	}
}

// outputFile returns path itself when it already names a file with ext,
// otherwise "listings<ext>" inside the path directory.
func outputFile(path, ext string) string {
	if path == "" {
		path = "."
	}
	if filepath.Ext(path) == ext {
		return path
	}
	return filepath.Join(path, "listings"+ext)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Store(context.Context, Batch) error { return nil }
func (Discard) Close() error                       { return nil }
func (Discard) Name() string                       { return "none" }
