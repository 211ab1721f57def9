package treelai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig controls how often a failed leaf is sent again.
type RetryConfig struct {
	MaxRetries int           // Retries after the first attempt
	BaseDelay  time.Duration // Delay before the first retry, doubled each time
	MaxDelay   time.Duration // Upper bound for a single delay
}

// DefaultRetryConfig returns three retries starting at one second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// backoff returns the delay before retry n, counting from 1.
func (c RetryConfig) backoff(n int) time.Duration {
	delay := c.BaseDelay
	for i := 1; i < n; i++ {
		if c.MaxDelay > 0 && delay >= c.MaxDelay {
			break
		}
		delay *= 2
	}
	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// IsRetryable reports whether err is a provider failure marked retryable.
func IsRetryable(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr) && providerErr.Retryable
}

// RetryOption configures a RetryableTranslator.
type RetryOption func(*RetryableTranslator)

// WithRetryLogger logs every retried leaf.
func WithRetryLogger(logger *slog.Logger) RetryOption {
	return func(r *RetryableTranslator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// RetryableTranslator sends a leaf again when the wrapped translator fails
// with a retryable ProviderError. It stops as soon as the caller's context
// is done.
type RetryableTranslator struct {
	leaf   LeafTranslator
	config RetryConfig
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryableTranslator wraps leaf with retries.
func NewRetryableTranslator(leaf LeafTranslator, cfg RetryConfig, opts ...RetryOption) *RetryableTranslator {
	r := &RetryableTranslator{
		leaf:   leaf,
		config: cfg,
		logger: slog.New(slog.DiscardHandler),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TranslateLeaf implements LeafTranslator.
func (r *RetryableTranslator) TranslateLeaf(ctx context.Context, tc TranslationContext, protected []string) (string, error) {
	path, _ := LeafPath(ctx)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := r.leaf.TranslateLeaf(ctx, tc, protected)
		if err == nil {
			if attempt > 1 {
				r.logger.InfoContext(ctx, "leaf translated after retry",
					"path", path,
					"attempts", attempt,
				)
			}
			return out, nil
		}

		// The provider may report a cancelled call as retryable.
		if ctx.Err() != nil {
			return "", err
		}
		if !IsRetryable(err) {
			return "", err
		}
		if attempt > r.config.MaxRetries {
			if attempt == 1 {
				return "", err
			}
			return "", fmt.Errorf("leaf failed after %d attempts: %w", attempt, err)
		}

		delay := r.config.backoff(attempt)
		r.logger.WarnContext(ctx, "retrying leaf",
			"path", path,
			"target_lang", tc.TargetLang,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if err := r.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
