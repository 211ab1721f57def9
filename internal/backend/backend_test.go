package backend

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaguanLabs/treelai"
	"github.com/ZaguanLabs/treelai/internal/config"
	"github.com/ZaguanLabs/treelai/provider"
)

func load(t *testing.T, environ map[string]string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(environ)
	require.NoError(t, err)
	return cfg
}

func TestNew_MockWithRetry(t *testing.T) {
	b, err := New(context.Background(), load(t, map[string]string{"TREELAI_PROVIDER": "mock"}))
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &treelai.RetryableTranslator{}, b.Leaf)

	out, err := b.Leaf.TranslateLeaf(context.Background(), treelai.TranslationContext{Text: "Hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)
}

func TestNew_NoRetryNoLimit(t *testing.T) {
	b, err := New(context.Background(), load(t, map[string]string{
		"TREELAI_PROVIDER":  "mock",
		"TREELAI_RETRY_MAX": "0",
	}))
	require.NoError(t, err)

	assert.IsType(t, &provider.MockProvider{}, b.Leaf)
	assert.NoError(t, b.Close())
}

func TestNew_LocalRateLimit(t *testing.T) {
	b, err := New(context.Background(), load(t, map[string]string{
		"TREELAI_PROVIDER":       "mock",
		"TREELAI_RETRY_MAX":      "0",
		"TREELAI_RATE_LIMIT_RPM": "600",
	}))
	require.NoError(t, err)

	limited, ok := b.Leaf.(*treelai.RateLimitedTranslator)
	require.True(t, ok)
	assert.IsType(t, &treelai.TokenBucket{}, limited.Limiter())
}

func TestNew_MissingCredentials(t *testing.T) {
	for _, name := range []string{"openai", "deepl", "lambda"} {
		t.Run(name, func(t *testing.T) {
			_, err := New(context.Background(), load(t, map[string]string{"TREELAI_PROVIDER": name}))
			assert.Error(t, err)
		})
	}
}

func TestNew_OpenAI(t *testing.T) {
	b, err := New(context.Background(), load(t, map[string]string{
		"OPENAI_API_KEY":    "sk-test",
		"TREELAI_RETRY_MAX": "0",
	}))
	require.NoError(t, err)
	assert.IsType(t, &provider.OpenAIProvider{}, b.Leaf)
}

func TestNew_LoggerReachesWrappers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	b, err := New(context.Background(), load(t, map[string]string{
		"TREELAI_PROVIDER":         "mock",
		"TREELAI_RETRY_MAX":        "0",
		"TREELAI_RATE_LIMIT_RPM":   "600",
		"TREELAI_RATE_LIMIT_BURST": "1",
	}), WithLogger(logger))
	require.NoError(t, err)
	defer b.Close()

	root, err := treelai.Parse(`{"a": "Hello", "b": "World"}`, "json")
	require.NoError(t, err)

	out, _, err := treelai.NewWalker(b.Leaf).Traverse(context.Background(), root, treelai.WalkConfig{})
	require.NoError(t, err)

	got, _ := out.Get("b")
	assert.Equal(t, "Mundo", got.Value)
	assert.Contains(t, buf.String(), `"msg":"leaf waited for rate limit"`)
	assert.Contains(t, buf.String(), `"path":"b"`)
}
