package treelai

// Formality is the tone directive passed to the leaf translator.
type Formality string

const (
	FormalityDefault    Formality = "default"
	FormalityMore       Formality = "more"
	FormalityLess       Formality = "less"
	FormalityPreferMore Formality = "prefer_more"
	FormalityPreferLess Formality = "prefer_less"
	FormalityFormal     Formality = "formal"
)

// IsValid reports whether f is one of the known formality values.
func (f Formality) IsValid() bool {
	switch f {
	case FormalityDefault, FormalityMore, FormalityLess,
		FormalityPreferMore, FormalityPreferLess, FormalityFormal:
		return true
	}
	return false
}

// String returns the wire form of f.
func (f Formality) String() string {
	return string(f)
}

const (
	// DefaultSourceLang is used for every leaf that does not set its own source_lang.
	DefaultSourceLang = "en"
	// DefaultTargetLang is the document-level target when the caller sets none.
	DefaultTargetLang = "es"
	// DefaultFormality is used for every leaf that does not set its own formality.
	DefaultFormality = FormalityFormal

	// BuiltinProtectedTerm is always merged into the caller's protected strings.
	BuiltinProtectedTerm = "{{count}}"
)

// Override control keys recognized inside a mapping.
const (
	KeyTranslationHash = "translation_hash"
	KeyText            = "text"
	KeyTargetLang      = "target_lang"
	KeySourceLang      = "source_lang"
	KeyContext         = "context"
	KeyModelType       = "model_type"
	KeyFormality       = "formality"
)

// TranslationContext is everything the leaf translator needs for one leaf.
type TranslationContext struct {
	Text       string    // Exact leaf content, never modified before dispatch
	SourceLang string    // Source language code (default: "en")
	TargetLang string    // Target language code
	Formality  Formality // Tone directive (default: formal)
	Context    string    // Dotted path to the leaf, or an override's context label
	ModelHint  string    // Opaque model selection hint from model_type
}

// HasContext reports whether the context carries a path or label.
func (tc TranslationContext) HasContext() bool {
	return tc.Context != ""
}

// LeafErrorPolicy decides what happens when a single leaf fails to translate.
type LeafErrorPolicy string

const (
	// FailFast aborts the whole traversal on the first leaf failure.
	FailFast LeafErrorPolicy = "fail"
	// Fallback keeps the original text for failed leaves and continues.
	Fallback LeafErrorPolicy = "fallback"
)

// ScalarPolicy decides how numbers, booleans and null leaves are handled.
type ScalarPolicy string

const (
	// RejectScalars fails the traversal with UnsupportedNodeType.
	RejectScalars ScalarPolicy = "reject"
	// CoerceScalars translates numbers and booleans by their literal text
	// and leaves null untouched.
	CoerceScalars ScalarPolicy = "coerce"
)

// WalkConfig is the per-call configuration of a traversal.
type WalkConfig struct {
	TargetLang       string          // Document-level target language
	ProtectedStrings []string        // Terms that must survive translation verbatim
	OnLeafError      LeafErrorPolicy // Default: FailFast
	Scalars          ScalarPolicy    // Default: RejectScalars
	BasePath         []string        // Path segments prepended to every context path
}

// WalkStats summarizes one traversal.
type WalkStats struct {
	TotalLeaves     int // Leaves found (strings and overrides)
	TranslatedCount int // Leaves replaced by the translator's output
	FallbackCount   int // Leaves that kept their original text after a failure
}

// ProcessedDocument is the result of a full parse, translate, serialize run.
type ProcessedDocument struct {
	Content         string // Serialized translated document
	Format          ExportFormat
	TotalLeaves     int
	TranslatedCount int
	FallbackCount   int
}
