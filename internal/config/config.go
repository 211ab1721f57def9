// Package config loads treelai settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ZaguanLabs/treelai"
)

// ErrParsingConfig is returned when environment variables cannot be parsed into Config.
var ErrParsingConfig = errors.New("failed to parse environment variables into config")

// Provider names accepted by TREELAI_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderDeepL  = "deepl"
	ProviderLambda = "lambda"
	ProviderMock   = "mock"
)

// Config is the complete runtime configuration.
type Config struct {
	Provider string `env:"TREELAI_PROVIDER" envDefault:"openai"`

	OpenAI OpenAI
	DeepL  DeepL
	Lambda Lambda

	Translation Translation
	Retry       Retry
	RateLimit   RateLimit
	HTTP        HTTP
	Log         Log
}

// OpenAI configures the OpenAI provider.
type OpenAI struct {
	APIKey  string            `env:"OPENAI_API_KEY"`
	BaseURL string            `env:"OPENAI_BASE_URL"`
	Model   string            `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	Models  map[string]string `env:"OPENAI_MODEL_ALIASES" envSeparator:"," envKeyValSeparator:":"`
}

// DeepL configures the DeepL provider.
type DeepL struct {
	AuthKey string `env:"DEEPL_AUTH_KEY"`
	BaseURL string `env:"DEEPL_BASE_URL"`
}

// Lambda configures the AWS Lambda provider.
type Lambda struct {
	FunctionName string `env:"TREELAI_LAMBDA_FUNCTION"`
	Region       string `env:"AWS_REGION"`
}

// Translation holds document-level defaults.
type Translation struct {
	TargetLang       string   `env:"TREELAI_TARGET_LANG" envDefault:"es"`
	ProtectedStrings []string `env:"TREELAI_PROTECTED_STRINGS" envSeparator:","`
	Parallel         int      `env:"TREELAI_PARALLEL" envDefault:"4"`
	OnLeafError      string   `env:"TREELAI_ON_LEAF_ERROR" envDefault:"fail"`
	Scalars          string   `env:"TREELAI_SCALARS" envDefault:"reject"`
}

// Retry configures retries of failed leaf calls.
type Retry struct {
	MaxRetries int           `env:"TREELAI_RETRY_MAX" envDefault:"3"`
	BaseDelay  time.Duration `env:"TREELAI_RETRY_BASE_DELAY" envDefault:"1s"`
	MaxDelay   time.Duration `env:"TREELAI_RETRY_MAX_DELAY" envDefault:"30s"`
}

// RateLimit configures request throttling. A zero RequestsPerMinute disables it.
// With RedisURL set the limit is shared by every process using that Redis.
type RateLimit struct {
	RequestsPerMinute int    `env:"TREELAI_RATE_LIMIT_RPM" envDefault:"0"`
	BurstSize         int    `env:"TREELAI_RATE_LIMIT_BURST" envDefault:"0"`
	RedisURL          string `env:"REDIS_URL"`
	KeyPrefix         string `env:"TREELAI_REDIS_PREFIX" envDefault:"treelai:"`
}

// HTTP configures the translation service.
type HTTP struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	MaxBodyBytes    int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"2m"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Log configures structured logging.
type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFrom parses cfg from the given variables only. It is meant for tests
// and embedding.
func LoadFrom(environ map[string]string) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that env parsing alone cannot.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderDeepL, ProviderLambda, ProviderMock:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	switch treelai.LeafErrorPolicy(c.Translation.OnLeafError) {
	case treelai.FailFast, treelai.Fallback:
	default:
		return fmt.Errorf("invalid TREELAI_ON_LEAF_ERROR %q: must be %q or %q",
			c.Translation.OnLeafError, treelai.FailFast, treelai.Fallback)
	}

	switch treelai.ScalarPolicy(c.Translation.Scalars) {
	case treelai.RejectScalars, treelai.CoerceScalars:
	default:
		return fmt.Errorf("invalid TREELAI_SCALARS %q: must be %q or %q",
			c.Translation.Scalars, treelai.RejectScalars, treelai.CoerceScalars)
	}

	if c.Translation.Parallel < 1 {
		return fmt.Errorf("TREELAI_PARALLEL must be at least 1, got %d", c.Translation.Parallel)
	}

	return nil
}

// TranslatorOptions converts the translation defaults into pipeline options.
func (c *Config) TranslatorOptions() []treelai.TranslatorOption {
	return []treelai.TranslatorOption{
		treelai.WithTargetLang(c.Translation.TargetLang),
		treelai.WithProtectedStrings(c.Translation.ProtectedStrings),
		treelai.WithConcurrency(c.Translation.Parallel),
		treelai.WithLeafErrorPolicy(treelai.LeafErrorPolicy(c.Translation.OnLeafError)),
		treelai.WithScalarPolicy(treelai.ScalarPolicy(c.Translation.Scalars)),
	}
}

// RetryConfig returns the retry settings in the form the pipeline expects.
func (c *Config) RetryConfig() treelai.RetryConfig {
	return treelai.RetryConfig{
		MaxRetries: c.Retry.MaxRetries,
		BaseDelay:  c.Retry.BaseDelay,
		MaxDelay:   c.Retry.MaxDelay,
	}
}
