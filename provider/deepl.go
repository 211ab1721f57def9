package provider

//go:generate mockgen -source=deepl.go -destination=./mocks/deepl.go

import (
	"context"
	"strings"

	"github.com/ZaguanLabs/treelai"
	"github.com/bounoable/deepl"
)

// DeepLClient is an interface for *deepl.Client.
type DeepLClient interface {
	Translate(
		ctx context.Context,
		text string,
		targetLang deepl.Language,
		opts ...deepl.TranslateOption,
	) (string, deepl.Language, error)
}

// DeepLConfig holds configuration for the DeepL provider.
type DeepLConfig struct {
	AuthKey string // DeepL API auth key
	BaseURL string // Custom base URL, e.g. the free API endpoint (optional)
}

// DeepLProvider implements LeafTranslator using the DeepL API.
//
// Protected terms and placeholders are cut out before the text reaches
// DeepL and put back afterwards, so only the prose between them is sent.
type DeepLProvider struct {
	client DeepLClient
}

// NewDeepLProvider creates a new DeepL provider.
func NewDeepLProvider(cfg DeepLConfig) *DeepLProvider {
	var opts []deepl.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, deepl.BaseURL(cfg.BaseURL))
	}
	return NewDeepLProviderWithClient(deepl.New(cfg.AuthKey, opts...))
}

// NewDeepLProviderWithClient does the same as NewDeepLProvider, but accepts
// an existing client.
func NewDeepLProviderWithClient(client DeepLClient) *DeepLProvider {
	return &DeepLProvider{client: client}
}

// TranslateLeaf translates a single leaf using DeepL.
func (p *DeepLProvider) TranslateLeaf(ctx context.Context, tc TranslationContext, protected []string) (string, error) {
	segments := splitPreserved(tc.Text, protected)

	opts := []deepl.TranslateOption{
		deepl.SourceLang(deeplLanguage(tc.SourceLang, treelai.DefaultSourceLang)),
		deepl.PreserveFormatting(true),
		deepl.SplitSentences(deepl.SplitNoNewlines),
	}
	if formality, ok := deeplFormality(tc.Formality); ok {
		opts = append(opts, formality)
	}
	target := deeplLanguage(tc.TargetLang, treelai.DefaultTargetLang)

	for i, seg := range segments {
		if seg.Preserved || strings.TrimSpace(seg.Text) == "" {
			continue
		}

		translated, _, err := p.client.Translate(ctx, seg.Text, target, opts...)
		if err != nil {
			return "", &treelai.ProviderError{
				Message:   "DeepL API call failed",
				Cause:     err,
				Retryable: isRetryableError(err),
			}
		}
		segments[i].Text = restoreWhitespace(seg.Text, translated)
	}

	return joinSegments(segments), nil
}

// deeplLanguage converts a language code to DeepL's upper-case form
// ("pt_BR" -> "PT-BR").
func deeplLanguage(code, fallback string) deepl.Language {
	if code == "" {
		code = fallback
	}
	return deepl.Language(strings.ToUpper(treelai.NormalizeLocale(code)))
}

func deeplFormality(f treelai.Formality) (deepl.TranslateOption, bool) {
	switch f {
	case treelai.FormalityMore, treelai.FormalityFormal, treelai.FormalityPreferMore:
		return deepl.Formality(deepl.MoreFormal), true
	case treelai.FormalityLess, treelai.FormalityPreferLess:
		return deepl.Formality(deepl.LessFormal), true
	}
	return nil, false
}

// Verify DeepLProvider implements LeafTranslator
var _ LeafTranslator = (*DeepLProvider)(nil)
