// Package backend assembles the leaf translator described by a Config.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZaguanLabs/treelai"
	"github.com/ZaguanLabs/treelai/internal/config"
	"github.com/ZaguanLabs/treelai/limiter"
	"github.com/ZaguanLabs/treelai/provider"
)

// Backend is a ready-to-use leaf translator plus the resources it holds.
type Backend struct {
	Leaf    treelai.LeafTranslator
	closers []func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	var errs []error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Option configures New.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used by the retry and rate limit wrappers.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New builds the provider named by cfg.Provider and wraps it with rate
// limiting and retries. Every retry attempt passes the rate limiter.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Backend, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	b := &Backend{Leaf: base}

	if cfg.RateLimit.RequestsPerMinute > 0 {
		lim, closeFn, err := newLimiter(cfg.RateLimit)
		if err != nil {
			return nil, err
		}
		if closeFn != nil {
			b.closers = append(b.closers, closeFn)
		}
		b.Leaf = treelai.NewRateLimitedTranslator(b.Leaf, lim, treelai.WithRateLimitLogger(o.logger))
	}

	if cfg.Retry.MaxRetries > 0 {
		b.Leaf = treelai.NewRetryableTranslator(b.Leaf, cfg.RetryConfig(), treelai.WithRetryLogger(o.logger))
	}

	return b, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (treelai.LeafTranslator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Models:  cfg.OpenAI.Models,
		}), nil
	case config.ProviderDeepL:
		if cfg.DeepL.AuthKey == "" {
			return nil, errors.New("DEEPL_AUTH_KEY is required for the deepl provider")
		}
		return provider.NewDeepLProvider(provider.DeepLConfig{
			AuthKey: cfg.DeepL.AuthKey,
			BaseURL: cfg.DeepL.BaseURL,
		}), nil
	case config.ProviderLambda:
		if cfg.Lambda.FunctionName == "" {
			return nil, errors.New("TREELAI_LAMBDA_FUNCTION is required for the lambda provider")
		}
		return provider.NewLambdaProvider(ctx, provider.LambdaConfig{
			FunctionName: cfg.Lambda.FunctionName,
			Region:       cfg.Lambda.Region,
		})
	case config.ProviderMock:
		return provider.NewMockProvider(), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func newLimiter(cfg config.RateLimit) (treelai.Limiter, func() error, error) {
	if cfg.RedisURL == "" {
		return treelai.NewTokenBucket(treelai.TokenBucketConfig{
			Limit:  cfg.RequestsPerMinute,
			Window: time.Minute,
			Burst:  cfg.BurstSize,
		}), nil, nil
	}

	lim, err := limiter.NewRedisLimiter(limiter.RedisConfig{
		URL:       cfg.RedisURL,
		Limit:     cfg.RequestsPerMinute,
		Window:    time.Minute,
		KeyPrefix: cfg.KeyPrefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("shared rate limiter: %w", err)
	}
	return lim, lim.Close, nil
}
