package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/anamnesis/internal/worker"
)

const generationService = "generation"

// Generator wraps a provider with the caller-configurable timeout and rate
// limit. It is the only component in the engine that blocks on I/O with
// meaningful latency.
type Generator struct {
	provider Provider
	limiter  *worker.Limiter
	config   Config
}

// NewGenerator creates a generator, or nil when no provider is configured.
func NewGenerator(config Config, rateLimit float64) (*Generator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	return &Generator{
		provider: provider,
		limiter:  worker.NewLimiter(rateLimit, 2),
		config:   config,
	}, nil
}

// Name returns the underlying provider name.
func (g *Generator) Name() string {
	return g.provider.Name()
}

// IsAvailable reports whether the underlying provider is configured and
// reachable. CLI preflight only; generation calls carry their own failure
// handling.
func (g *Generator) IsAvailable(ctx context.Context) bool {
	return g.provider.IsAvailable(ctx)
}

// Generate runs one generation call under the configured timeout. Any
// failure, including timeout, comes back wrapped in ErrUnavailable so the
// pipeline switches to the deterministic fallback instead of surfacing an
// error.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	if err := g.limiter.Wait(ctx, generationService); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := g.provider.Generate(ctx, GenerateRequest{
		Prompt:    prompt,
		Model:     g.config.Model,
		MaxTokens: g.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp.Text, nil
}
