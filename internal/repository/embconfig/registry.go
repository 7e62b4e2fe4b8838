// Package embconfig maps (database, table) pairs to embedding providers using a
// CSV configuration file.
package embconfig

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
)

// CSV column names.
const (
	ColDatabase                = "database"
	ColTable                   = "table"
	ColEmbeddingProvider       = "embedding_provider"
	ColEmbeddingModel          = "embedding_model"
	ColSparseTokenizerProvider = "sparse_tokenizer_provider"
	ColSparseTokenizerModel    = "sparse_tokenizer_model"
)

var requiredColumns = []string{ColDatabase, ColTable, ColEmbeddingProvider, ColEmbeddingModel}

// Registry loads the configuration file on first use and keeps it until Reset.
type Registry struct {
	path   string
	logger *zap.Logger

	load  func(path string) ([]domain.EmbeddingConfig, error)
	group singleflight.Group

	mu         sync.RWMutex
	entries    []domain.EmbeddingConfig
	loaded     bool
	generation uint64
}

// New creates a registry for the CSV file at path. Nothing is read until the
// first Resolve.
func New(path string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{path: path, logger: logger, load: LoadFile}
}

// Path returns the configuration source location.
func (r *Registry) Path() string {
	return r.path
}

// Resolve returns the single entry configured for (database, table).
// Zero or several matching rows yield the zero entry; only load failures are errors.
func (r *Registry) Resolve(ctx context.Context, database, table string) (domain.EmbeddingConfig, error) {
	entries, err := r.Entries(ctx)
	if err != nil {
		return domain.EmbeddingConfig{}, err
	}

	var match domain.EmbeddingConfig
	found := 0
	for _, e := range entries {
		if e.Database == database && e.Table == table {
			match = e
			found++
		}
	}

	switch found {
	case 0:
		r.logger.Info("No embedding configuration for table",
			zap.String("database", database),
			zap.String("table", table),
			zap.String("path", r.path),
		)
		return domain.EmbeddingConfig{}, nil
	case 1:
		return match, nil
	default:
		r.logger.Warn("Ambiguous embedding configuration for table",
			zap.String("database", database),
			zap.String("table", table),
			zap.Int("matches", found),
			zap.String("path", r.path),
		)
		return domain.EmbeddingConfig{}, nil
	}
}

// Entries returns every configured row, loading the file if needed.
// Concurrent first calls share one load. A load that started before a Reset
// returns its rows to its callers but does not populate the cache.
func (r *Registry) Entries(ctx context.Context) ([]domain.EmbeddingConfig, error) {
	r.mu.RLock()
	if r.loaded {
		entries := r.entries
		r.mu.RUnlock()
		return entries, nil
	}
	gen := r.generation
	r.mu.RUnlock()

	key := r.path + "#" + strconv.FormatUint(gen, 10)
	ch := r.group.DoChan(key, func() (any, error) {
		entries, err := r.load(r.path)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		stale := r.generation != gen
		if !stale {
			r.entries = entries
			r.loaded = true
		}
		r.mu.Unlock()

		r.logger.Info("Embedding configuration loaded",
			zap.String("path", r.path),
			zap.Int("entries", len(entries)),
			zap.Bool("stale", stale),
		)
		return entries, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load embedding configuration: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.EmbeddingConfig), nil
	}
}

// Reset drops the cached configuration; the next Resolve reloads the file.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.loaded = false
	r.generation++
	r.group.Forget(r.path)
}

// LoadFile reads a CSV configuration file.
func LoadFile(path string) ([]domain.EmbeddingConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embedding configuration: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return entries, nil
}

// Parse reads CSV rows with a header line. Columns are located by name;
// the sparse tokenizer columns are optional.
func Parse(r io.Reader) ([]domain.EmbeddingConfig, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	field := func(rec []string, col string) string {
		i, ok := pos[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var entries []domain.EmbeddingConfig
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		entries = append(entries, domain.EmbeddingConfig{
			Database:                field(rec, ColDatabase),
			Table:                   field(rec, ColTable),
			EmbeddingProvider:       field(rec, ColEmbeddingProvider),
			EmbeddingModel:          field(rec, ColEmbeddingModel),
			SparseTokenizerProvider: field(rec, ColSparseTokenizerProvider),
			SparseTokenizerModel:    field(rec, ColSparseTokenizerModel),
		})
	}
	return entries, nil
}
