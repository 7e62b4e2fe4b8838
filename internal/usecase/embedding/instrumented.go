package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
)

// InstrumentedProvider wraps a Provider with logging.
// Transport metrics (requests, duration, errors) are recorded by the providers themselves.
type InstrumentedProvider struct {
	inner    domain.Provider
	provider string
	logger   *zap.Logger
}

// NewInstrumentedProvider wraps a provider with observability.
func NewInstrumentedProvider(inner domain.Provider, provider string, logger *zap.Logger) *InstrumentedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedProvider{inner: inner, provider: provider, logger: logger}
}

// DenseEmbed delegates to the inner provider and logs the outcome.
func (p *InstrumentedProvider) DenseEmbed(ctx context.Context, text, model string) ([]float32, error) {
	start := time.Now()
	vec, err := p.inner.DenseEmbed(ctx, text, model)
	duration := time.Since(start)

	if err != nil {
		p.logFailure("Dense embedding failed", model, duration, err)
		return nil, fmt.Errorf("dense embed: %w", err)
	}

	p.logger.Debug("Dense embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(vec)),
	)
	return vec, nil
}

// SparseEmbed delegates to the inner provider and logs the outcome.
func (p *InstrumentedProvider) SparseEmbed(ctx context.Context, text, model string) (domain.SparseVector, error) {
	start := time.Now()
	vec, err := p.inner.SparseEmbed(ctx, text, model)
	duration := time.Since(start)

	if err != nil {
		p.logFailure("Sparse embedding failed", model, duration, err)
		return nil, fmt.Errorf("sparse embed: %w", err)
	}

	p.logger.Debug("Sparse embedding completed",
		zap.String("provider", p.provider),
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Int("tokens", len(vec)),
	)
	return vec, nil
}

// HealthCheck delegates when the inner provider supports it.
func (p *InstrumentedProvider) HealthCheck(ctx context.Context) error {
	hc, ok := p.inner.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("provider %s: %w", p.provider, err)
	}
	return nil
}

func (p *InstrumentedProvider) logFailure(msg, model string, duration time.Duration, err error) {
	fields := []zap.Field{
		zap.String("provider", p.provider),
		zap.String("model", model),
		zap.Duration("duration", duration),
		zap.Error(err),
	}
	// Capability mismatches are configuration errors, not provider outages.
	if errors.Is(err, domain.ErrUnsupportedCapability) {
		p.logger.Warn(msg, fields...)
		return
	}
	p.logger.Error(msg, fields...)
}
