package query

import (
	"context"

	"github.com/kailas-cloud/kdbai-mcp/internal/db"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/schema"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/request"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/result"
)

// --- Mocks ---

type mockStore struct {
	desc        *db.TableDescription
	descErr     error
	raw         *result.Raw
	err         error
	lastQuery   *request.Query
	lastSearch  *request.Search
	lastDB      string
	queryCalls  int
	searchCalls int
}

func (m *mockStore) DescribeTable(_ context.Context, database, _ string) (*db.TableDescription, error) {
	m.lastDB = database
	return m.desc, m.descErr
}

func (m *mockStore) Query(_ context.Context, _, _ string, q *request.Query) (*result.Raw, error) {
	m.queryCalls++
	m.lastQuery = q
	return m.raw, m.err
}

func (m *mockStore) Search(_ context.Context, _, _ string, s *request.Search) (*result.Raw, error) {
	m.searchCalls++
	m.lastSearch = s
	return m.raw, m.err
}

type mockConfigs struct {
	cfg   domain.EmbeddingConfig
	err   error
	calls int
}

func (m *mockConfigs) Resolve(_ context.Context, _, _ string) (domain.EmbeddingConfig, error) {
	m.calls++
	return m.cfg, m.err
}

type mockProvider struct {
	dense       []float32
	sparse      domain.SparseVector
	denseErr    error
	sparseErr   error
	denseModel  string
	sparseModel string
}

func (m *mockProvider) DenseEmbed(_ context.Context, _, model string) ([]float32, error) {
	m.denseModel = model
	return m.dense, m.denseErr
}

func (m *mockProvider) SparseEmbed(_ context.Context, _, model string) (domain.SparseVector, error) {
	m.sparseModel = model
	return m.sparse, m.sparseErr
}

type mockProviders struct {
	providers map[string]*mockProvider
	requested []string
}

func (m *mockProviders) Provider(name string) (domain.Provider, error) {
	m.requested = append(m.requested, name)
	p, ok := m.providers[name]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return p, nil
}

func hybridConfig() domain.EmbeddingConfig {
	return domain.EmbeddingConfig{
		Database:                "default",
		Table:                   "docs",
		EmbeddingProvider:       "openai",
		EmbeddingModel:          "text-embedding-3-small",
		SparseTokenizerProvider: "bm25",
		SparseTokenizerModel:    "english",
	}
}

func defaultProviders() *mockProviders {
	return &mockProviders{providers: map[string]*mockProvider{
		"openai": {dense: []float32{0.1, 0.2}},
		"bm25":   {sparse: domain.SparseVector{42: 1.5}},
	}}
}

func docsTable() *db.TableDescription {
	return &db.TableDescription{
		Database: "default",
		Name:     "docs",
		Schema: schema.Schema{
			{Name: "id", Type: "str"},
			{Name: "status", Type: "str"},
			{Name: "created_at", Type: schema.TypeDatetime},
			{Name: "open_time", Type: "timespan"},
			{Name: "embedding", Type: "float32s"},
		},
		Indexes: []schema.Index{{Name: "v_idx", Column: "embedding", Type: "flat"}},
	}
}

func intPtr(n int) *int { return &n }
