package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaguanLabs/treelai/internal/config"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, config.ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "es", cfg.Translation.TargetLang)
	assert.Equal(t, 4, cfg.Translation.Parallel)
	assert.Equal(t, "fail", cfg.Translation.OnLeafError)
	assert.Equal(t, "reject", cfg.Translation.Scalars)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.EqualValues(t, 1<<20, cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"TREELAI_PROVIDER":          "deepl",
		"DEEPL_AUTH_KEY":            "key",
		"TREELAI_TARGET_LANG":       "fr",
		"TREELAI_PROTECTED_STRINGS": "Acme,{{name}}",
		"TREELAI_PARALLEL":          "8",
		"TREELAI_ON_LEAF_ERROR":     "fallback",
		"TREELAI_SCALARS":           "coerce",
		"OPENAI_MODEL_ALIASES":      "premium:gpt-4o,fast:gpt-4o-mini",
		"TREELAI_RATE_LIMIT_RPM":    "120",
		"REDIS_URL":                 "redis://localhost:6379/0",
	})
	require.NoError(t, err)

	assert.Equal(t, config.ProviderDeepL, cfg.Provider)
	assert.Equal(t, "key", cfg.DeepL.AuthKey)
	assert.Equal(t, "fr", cfg.Translation.TargetLang)
	assert.Equal(t, []string{"Acme", "{{name}}"}, cfg.Translation.ProtectedStrings)
	assert.Equal(t, 8, cfg.Translation.Parallel)
	assert.Equal(t, map[string]string{"premium": "gpt-4o", "fast": "gpt-4o-mini"}, cfg.OpenAI.Models)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RateLimit.RedisURL)
	assert.Len(t, cfg.TranslatorOptions(), 5)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{"unknown provider", map[string]string{"TREELAI_PROVIDER": "babelfish"}},
		{"unknown leaf policy", map[string]string{"TREELAI_ON_LEAF_ERROR": "ignore"}},
		{"unknown scalar policy", map[string]string{"TREELAI_SCALARS": "drop"}},
		{"zero parallel", map[string]string{"TREELAI_PARALLEL": "0"}},
		{"bad int", map[string]string{"TREELAI_PARALLEL": "many"}},
		{"bad duration", map[string]string{"TREELAI_RETRY_BASE_DELAY": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFrom(tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestLoad_FromProcessEnv(t *testing.T) {
	t.Setenv("TREELAI_PROVIDER", "mock")
	t.Setenv("TREELAI_TARGET_LANG", "de")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.ProviderMock, cfg.Provider)
	assert.Equal(t, "de", cfg.Translation.TargetLang)
}

func TestRetryConfig(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"TREELAI_RETRY_MAX": "5"})
	require.NoError(t, err)

	rc := cfg.RetryConfig()
	assert.Equal(t, 5, rc.MaxRetries)
	assert.Equal(t, 30*time.Second, rc.MaxDelay)
}
