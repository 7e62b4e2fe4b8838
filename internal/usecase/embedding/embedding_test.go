package embedding

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type mockProvider struct {
	dense     []float32
	sparse    domain.SparseVector
	err       error
	healthErr error
	calls     int
}

func (m *mockProvider) DenseEmbed(_ context.Context, _, _ string) ([]float32, error) {
	m.calls++
	return m.dense, m.err
}

func (m *mockProvider) SparseEmbed(_ context.Context, _, _ string) (domain.SparseVector, error) {
	m.calls++
	return m.sparse, m.err
}

func (m *mockProvider) HealthCheck(_ context.Context) error {
	return m.healthErr
}

func TestInstrumentedProvider_Success(t *testing.T) {
	inner := &mockProvider{dense: []float32{0.1, 0.2, 0.3}, sparse: domain.SparseVector{1: 1}}
	p := NewInstrumentedProvider(inner, "test", zap.NewNop())

	vec, err := p.DenseEmbed(context.Background(), "hello", "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(vec))
	}
	sv, err := p.SparseEmbed(context.Background(), "hello", "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sv[1] != 1 {
		t.Fatalf("unexpected sparse vector: %v", sv)
	}
}

func TestInstrumentedProvider_Error(t *testing.T) {
	inner := &mockProvider{err: domain.ErrEmbeddingProviderError}
	p := NewInstrumentedProvider(inner, "test", zap.NewNop())

	_, err := p.DenseEmbed(context.Background(), "hello", "m")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestInstrumentedProvider_HealthCheck(t *testing.T) {
	inner := &mockProvider{healthErr: errors.New("down")}
	p := NewInstrumentedProvider(inner, "test", nil)
	if err := p.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health error")
	}
}

func TestRegistry_CachesInstances(t *testing.T) {
	created := 0
	r := NewRegistry(nil, zap.NewNop())
	r.Register("mock", func() (domain.Provider, error) {
		created++
		return &mockProvider{dense: []float32{1}}, nil
	})

	a, err := r.Provider("mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := r.Provider("mock")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != b {
		t.Error("expected the same instance")
	}
	if created != 1 {
		t.Errorf("factory called %d times, want 1", created)
	}
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := NewRegistry(nil, nil)
	_, err := r.Provider("nope")
	if !errors.Is(err, domain.ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register("bad", func() (domain.Provider, error) { return nil, errors.New("no api key") })
	if _, err := r.Provider("bad"); err == nil {
		t.Fatal("expected error")
	}
	// Failure is not cached.
	r.Register("bad", func() (domain.Provider, error) { return &mockProvider{}, nil })
	if _, err := r.Provider("bad"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry_Wrap(t *testing.T) {
	var wrapped []string
	r := NewRegistry(func(name string, p domain.Provider) domain.Provider {
		wrapped = append(wrapped, name)
		return p
	}, nil)
	r.Register("a", func() (domain.Provider, error) { return &mockProvider{}, nil })
	_, _ = r.Provider("a")
	_, _ = r.Provider("a")
	if len(wrapped) != 1 || wrapped[0] != "a" {
		t.Errorf("wrapped = %v", wrapped)
	}
}

func TestRegistry_NamesAndHealth(t *testing.T) {
	r := NewRegistry(nil, nil)
	r.Register("b", func() (domain.Provider, error) { return &mockProvider{healthErr: errors.New("down")}, nil })
	r.Register("a", func() (domain.Provider, error) { return &mockProvider{}, nil })

	if names := r.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v", names)
	}
	// Nothing created yet.
	if err := r.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = r.Provider("b")
	if err := r.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health error from created provider")
	}
}

func TestHashingTokenizer(t *testing.T) {
	h := NewHashingTokenizer(0)
	vec, err := h.SparseEmbed(context.Background(), "Red shoes, red HATS!", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 distinct tokens, got %v", vec)
	}
	red := vec[h.TokenID("red")]
	shoes := vec[h.TokenID("shoes")]
	if shoes != 1 {
		t.Errorf("single occurrence weight = %v, want 1", shoes)
	}
	if red <= shoes || red >= 2 {
		t.Errorf("double occurrence weight = %v, want in (1, 2)", red)
	}
}

func TestHashingTokenizer_Deterministic(t *testing.T) {
	a := NewHashingTokenizer(1000)
	b := NewHashingTokenizer(1000)
	if a.TokenID("kdb") != b.TokenID("kdb") {
		t.Error("token ids must be stable")
	}
	if a.TokenID("kdb") >= 1000 {
		t.Error("token id outside vocabulary")
	}
}

func TestHashingTokenizer_DenseUnsupported(t *testing.T) {
	_, err := NewHashingTokenizer(0).DenseEmbed(context.Background(), "x", "")
	if !errors.Is(err, domain.ErrUnsupportedCapability) {
		t.Fatalf("expected ErrUnsupportedCapability, got %v", err)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  Hello, wörld_42 ")
	want := []string{"hello", "wörld", "42"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tokenize()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
