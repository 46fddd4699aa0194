package inference

import (
	"context"
	"log/slog"
)

// Chain tries multiple providers in order until one succeeds. It is used to
// fall back from the preferred model to older ones.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a provider chain.
// At least one provider is required.
func NewChain(providers ...Provider) (*Chain, error) {
	if len(providers) == 0 {
		return nil, ErrProviderUnavailable
	}
	return &Chain{
		providers: providers,
		logger:    slog.Default().With("component", "inference.chain"),
	}, nil
}

// NewGeminiChain builds one Gemini provider per model, in preference order.
// Options apply to every provider.
func NewGeminiChain(models []string, opts ...Option) (*Chain, error) {
	if len(models) == 0 {
		return nil, WrapError(providerGemini, ErrNoModel)
	}

	providers := make([]Provider, 0, len(models))
	for _, m := range models {
		g, err := NewGemini(append(opts, WithModel(m))...)
		if err != nil {
			return nil, err
		}
		providers = append(providers, g)
	}

	chain, _ := NewChain(providers...)
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.Logger != nil {
		chain.logger = cfg.Logger.With("component", "inference.chain")
	}
	return chain, nil
}

// Chat tries each provider until one succeeds.
func (c *Chain) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var errs []error

	for i, p := range c.providers {
		resp, err := p.Chat(ctx, req)
		if err == nil {
			if i > 0 {
				c.logger.Info("fallback provider succeeded", "provider_index", i, "model", resp.Model)
			}
			return resp, nil
		}

		errs = append(errs, err)
		c.logger.Warn("provider failed, trying next", "provider_index", i, "error", err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, &ChainError{Errors: errs}
}

// Health succeeds when at least one provider is healthy.
func (c *Chain) Health(ctx context.Context) error {
	var healthy int
	var lastErr error

	for _, p := range c.providers {
		if err := p.Health(ctx); err != nil {
			lastErr = err
		} else {
			healthy++
		}
	}

	if healthy == 0 {
		return WrapError("chain", lastErr)
	}

	c.logger.Debug("health check complete", "healthy", healthy, "total", len(c.providers))
	return nil
}

// Close closes all providers.
func (c *Chain) Close() error {
	var lastErr error
	for _, p := range c.providers {
		if err := p.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Providers returns the list of providers in the chain.
func (c *Chain) Providers() []Provider {
	return c.providers
}

// Verify Chain implements Provider at compile time.
var _ Provider = (*Chain)(nil)
