package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/db"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
)

type mockProvider struct {
	dense      []float32
	sparse     domain.SparseVector
	err        error
	denseCalls int
	lastModel  string
}

func (m *mockProvider) DenseEmbed(_ context.Context, _, model string) ([]float32, error) {
	m.denseCalls++
	m.lastModel = model
	return m.dense, m.err
}

func (m *mockProvider) SparseEmbed(_ context.Context, _, _ string) (domain.SparseVector, error) {
	return m.sparse, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedProvider(t *testing.T, inner *mockProvider) (*CachedProvider, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cp := New(inner, "openai", ms, time.Hour, nil, zap.NewNop())
	return cp, ms
}
