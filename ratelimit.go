package treelai

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Limiter blocks until the caller may issue one more translator request.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucketConfig uses the same Limit-per-Window shape as the shared
// Redis limiter, so either can be configured from one set of settings.
type TokenBucketConfig struct {
	Limit  int           // Requests allowed per window (default: 60)
	Window time.Duration // Window length (default: 1 minute)
	Burst  int           // Bucket size (default: Limit)
}

// TokenBucket limits translator requests made by one process. The bucket
// refills continuously at Limit tokens per Window.
type TokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	perToken time.Duration
	last     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTokenBucket creates a full bucket.
func NewTokenBucket(cfg TokenBucketConfig) *TokenBucket {
	if cfg.Limit <= 0 {
		cfg.Limit = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Limit
	}

	b := &TokenBucket{
		capacity: float64(cfg.Burst),
		tokens:   float64(cfg.Burst),
		perToken: cfg.Window / time.Duration(cfg.Limit),
		now:      time.Now,
		sleep:    sleepContext,
	}
	if b.perToken <= 0 {
		b.perToken = time.Nanosecond
	}
	b.last = b.now()
	return b
}

// Wait takes a token, sleeping until one is refilled if the bucket is
// empty.
func (b *TokenBucket) Wait(ctx context.Context) error {
	for {
		ok, wait := b.take()
		if ok {
			return nil
		}
		if err := b.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// TryAcquire takes a token if one is available.
func (b *TokenBucket) TryAcquire() bool {
	ok, _ := b.take()
	return ok
}

// Available returns the number of tokens currently in the bucket.
func (b *TokenBucket) Available() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill()
	return b.tokens
}

// take returns whether a token was taken and, if not, how long until the
// next one is due.
func (b *TokenBucket) take() (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	missing := 1 - b.tokens
	return false, time.Duration(missing * float64(b.perToken))
}

func (b *TokenBucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.last)
	if elapsed <= 0 {
		return
	}
	b.last = now

	b.tokens += float64(elapsed) / float64(b.perToken)
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// RateLimitOption configures a RateLimitedTranslator.
type RateLimitOption func(*RateLimitedTranslator)

// WithRateLimitLogger logs leaves that had to wait for the limiter.
func WithRateLimitLogger(logger *slog.Logger) RateLimitOption {
	return func(r *RateLimitedTranslator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// RateLimitedTranslator passes every leaf, including retries, through a
// Limiter before calling the wrapped translator.
type RateLimitedTranslator struct {
	leaf    LeafTranslator
	limiter Limiter
	logger  *slog.Logger
}

// NewRateLimitedTranslator wraps leaf with limiter.
func NewRateLimitedTranslator(leaf LeafTranslator, limiter Limiter, opts ...RateLimitOption) *RateLimitedTranslator {
	r := &RateLimitedTranslator{
		leaf:    leaf,
		limiter: limiter,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TranslateLeaf implements LeafTranslator.
func (r *RateLimitedTranslator) TranslateLeaf(ctx context.Context, tc TranslationContext, protected []string) (string, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{
			Message: "rate limit wait cancelled",
			Cause:   err,
		}
	}

	if waited := time.Since(start); waited >= time.Millisecond {
		path, _ := LeafPath(ctx)
		r.logger.DebugContext(ctx, "leaf waited for rate limit",
			"path", path,
			"waited", waited,
		)
	}

	return r.leaf.TranslateLeaf(ctx, tc, protected)
}

// Limiter returns the limiter in use.
func (r *RateLimitedTranslator) Limiter() Limiter {
	return r.limiter
}
