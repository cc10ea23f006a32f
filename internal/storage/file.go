package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/IshaanNene/carousell-scraper/internal/types"
)

// WriteCSV writes listings with a name,price,url header.
func WriteCSV(w io.Writer, listings []types.Listing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(types.CSVHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, l := range listings {
		if err := cw.Write(l.Record()); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}

// --- JSON Storage ---

// JSONStorage buffers rows and writes them as one JSON array on Close.
type JSONStorage struct {
	path   string
	rows   []row
	mu     sync.Mutex
	logger *slog.Logger
}

// NewJSONStorage creates a JSON file storage.
func NewJSONStorage(outputPath string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &JSONStorage{
		path:   outputPath,
		rows:   make([]row, 0),
		logger: logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(_ context.Context, b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, b.rows()...)
	s.logger.Debug("listings buffered", "count", len(b.Listings), "total", len(s.rows))
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := createFile(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.rows); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	s.logger.Info("JSON written", "path", s.path, "listings", len(s.rows))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage streams one JSON object per listing.
type JSONLStorage struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a JSONL file storage.
func NewJSONLStorage(outputPath string, logger *slog.Logger) (*JSONLStorage, error) {
	f, err := createFile(outputPath)
	if err != nil {
		return nil, err
	}
	return &JSONLStorage{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(_ context.Context, b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range b.rows() {
		if err := s.enc.Encode(r); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "listings", s.count)
	return s.file.Close()
}

// --- CSV Storage ---

// CSVStorage writes listings as name,price,url rows.
type CSVStorage struct {
	path   string
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewCSVStorage creates a CSV file storage and writes the header.
func NewCSVStorage(outputPath string, logger *slog.Logger) (*CSVStorage, error) {
	f, err := createFile(outputPath)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(types.CSVHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write CSV header: %w", err)
	}
	return &CSVStorage{
		path:   outputPath,
		file:   f,
		writer: w,
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(_ context.Context, b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range b.Listings {
		if err := s.writer.Write(l.Record()); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
		s.count++
	}
	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush CSV: %w", err)
	}
	s.logger.Info("CSV written", "path", s.path, "listings", s.count)
	return s.file.Close()
}
