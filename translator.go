package treelai

import (
	"context"
	"log/slog"
	"strings"
)

// LeafTranslator is the interface for leaf translation backends.
//
// TranslateLeaf is called exactly once per leaf with the leaf's context and
// the merged protected strings. Its result is substituted verbatim.
type LeafTranslator interface {
	TranslateLeaf(ctx context.Context, tc TranslationContext, protected []string) (string, error)
}

// LeafTranslatorFunc adapts an ordinary function to LeafTranslator.
type LeafTranslatorFunc func(ctx context.Context, tc TranslationContext, protected []string) (string, error)

// TranslateLeaf calls f.
func (f LeafTranslatorFunc) TranslateLeaf(ctx context.Context, tc TranslationContext, protected []string) (string, error) {
	return f(ctx, tc, protected)
}

// Request is one document translation request.
type Request struct {
	Content      string // Raw document text
	InputFormat  string // Format hint: "json", "yaml", "yml" or "" to sniff
	ExportFormat string // "JSON" or "YAML"; "" means JSON
	TargetLang   string // Overrides the translator's target language when set
	// ProtectedStrings are added to the translator's own protected strings.
	ProtectedStrings []string
}

// Translator parses, translates and serializes whole documents.
type Translator struct {
	leaf             LeafTranslator
	targetLang       string
	protectedStrings []string
	parallel         int
	onLeafError      LeafErrorPolicy
	scalars          ScalarPolicy
	logger           *slog.Logger
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithTargetLang sets the default target language.
func WithTargetLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.targetLang = lang
	}
}

// WithProtectedStrings sets terms that must never be translated.
func WithProtectedStrings(terms []string) TranslatorOption {
	return func(t *Translator) {
		t.protectedStrings = terms
	}
}

// WithConcurrency sets how many leaves may be translated at once.
// Values below 1 mean one at a time.
func WithConcurrency(n int) TranslatorOption {
	return func(t *Translator) {
		if n < 1 {
			n = 1
		}
		t.parallel = n
	}
}

// WithLeafErrorPolicy sets what happens when a leaf fails to translate.
func WithLeafErrorPolicy(policy LeafErrorPolicy) TranslatorOption {
	return func(t *Translator) {
		t.onLeafError = policy
	}
}

// WithScalarPolicy sets how number, boolean and null leaves are handled.
func WithScalarPolicy(policy ScalarPolicy) TranslatorOption {
	return func(t *Translator) {
		t.scalars = policy
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) TranslatorOption {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTranslator creates a new Translator backed by leaf.
func NewTranslator(leaf LeafTranslator, opts ...TranslatorOption) *Translator {
	t := &Translator{
		leaf:        leaf,
		targetLang:  DefaultTargetLang,
		parallel:    1,
		onLeafError: FailFast,
		scalars:     RejectScalars,
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Translate runs the full pipeline: validate the export format, parse,
// translate every leaf and serialize.
//
// The export format is checked before anything else, so an unsupported
// format never reaches the leaf translator.
func (t *Translator) Translate(ctx context.Context, req Request) (*ProcessedDocument, error) {
	format, err := ParseExportFormat(req.ExportFormat)
	if err != nil {
		return nil, err
	}

	root, err := t.parseRequest(req)
	if err != nil {
		return nil, err
	}

	walker := NewWalker(t.leaf, WithParallel(t.parallel), WithWalkerLogger(t.logger))
	translated, stats, err := walker.Traverse(ctx, root, t.walkConfig(req))
	if err != nil {
		return nil, err
	}

	content, err := Encode(translated, format)
	if err != nil {
		return nil, err
	}

	t.logger.InfoContext(ctx, "document translated",
		"target_lang", t.resolveTargetLang(req),
		"export_format", string(format),
		"total_leaves", stats.TotalLeaves,
		"translated", stats.TranslatedCount,
		"fallback", stats.FallbackCount,
	)

	return &ProcessedDocument{
		Content:         content,
		Format:          format,
		TotalLeaves:     stats.TotalLeaves,
		TranslatedCount: stats.TranslatedCount,
		FallbackCount:   stats.FallbackCount,
	}, nil
}

// Plan parses the request and returns every leaf context that Translate
// would send, without calling the leaf translator.
func (t *Translator) Plan(req Request) ([]TranslationContext, error) {
	if _, err := ParseExportFormat(req.ExportFormat); err != nil {
		return nil, err
	}

	root, err := t.parseRequest(req)
	if err != nil {
		return nil, err
	}

	return CollectLeaves(root, t.walkConfig(req))
}

// TargetLang returns the default target language.
func (t *Translator) TargetLang() string {
	return t.targetLang
}

func (t *Translator) parseRequest(req Request) (*Node, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, &ValidationError{
			Kind:    EmptyDocument,
			Message: "document content is empty",
		}
	}

	root, err := Parse(req.Content, req.InputFormat)
	if err != nil {
		return nil, err
	}
	return CoerceToTree(root), nil
}

func (t *Translator) walkConfig(req Request) WalkConfig {
	protected := make([]string, 0, len(t.protectedStrings)+len(req.ProtectedStrings))
	protected = append(protected, t.protectedStrings...)
	protected = append(protected, req.ProtectedStrings...)

	return WalkConfig{
		TargetLang:       t.resolveTargetLang(req),
		ProtectedStrings: protected,
		OnLeafError:      t.onLeafError,
		Scalars:          t.scalars,
	}
}

func (t *Translator) resolveTargetLang(req Request) string {
	if req.TargetLang != "" {
		return req.TargetLang
	}
	if t.targetLang != "" {
		return t.targetLang
	}
	return DefaultTargetLang
}
