// Package embedding resolves embedding and tokenizer providers by their
// configured name.
package embedding

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
)

// Factory creates a provider instance.
type Factory func() (domain.Provider, error)

// Wrapper decorates a freshly created provider (caching, instrumentation).
type Wrapper func(name string, p domain.Provider) domain.Provider

// Registry creates providers on first use and keeps one instance per name.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	instances map[string]domain.Provider
	wrap      Wrapper
	logger    *zap.Logger
}

// NewRegistry creates an empty registry. Every created provider is passed
// through wrap (if not nil) and then wrapped with InstrumentedProvider.
func NewRegistry(wrap Wrapper, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]domain.Provider),
		wrap:      wrap,
		logger:    logger,
	}
}

// Register adds a factory. A later registration under the same name replaces
// the earlier one and drops its cached instance.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
	delete(r.instances, name)
}

// Provider returns the provider registered under name, creating it on first use.
func (r *Registry) Provider(name string) (domain.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.instances[name]; ok {
		return p, nil
	}
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", name, domain.ErrUnknownProvider)
	}
	p, err := f()
	if err != nil {
		return nil, fmt.Errorf("create provider %q: %w", name, err)
	}
	if r.wrap != nil {
		p = r.wrap(name, p)
	}
	p = NewInstrumentedProvider(p, name, r.logger)
	r.instances[name] = p

	r.logger.Info("Embedding provider initialized", zap.String("provider", name))
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HealthCheck checks every provider that has already been created.
func (r *Registry) HealthCheck(ctx context.Context) error {
	r.mu.Lock()
	providers := make(map[string]domain.Provider, len(r.instances))
	for n, p := range r.instances {
		providers[n] = p
	}
	r.mu.Unlock()

	for name, p := range providers {
		hc, ok := p.(domain.HealthChecker)
		if !ok {
			continue
		}
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding provider %s: %w", name, err)
		}
	}
	return nil
}
