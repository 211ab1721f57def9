package treelai

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Walker translates every leaf of a document tree through a LeafTranslator.
type Walker struct {
	leaf     LeafTranslator
	parallel int
	logger   *slog.Logger
}

// WalkerOption is a functional option for configuring the Walker.
type WalkerOption func(*Walker)

// WithParallel sets the maximum number of concurrent leaf translations.
// Values below 1 mean one at a time.
func WithParallel(n int) WalkerOption {
	return func(w *Walker) {
		w.parallel = n
	}
}

// WithWalkerLogger sets the logger used for per-leaf diagnostics.
func WithWalkerLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWalker creates a Walker that sends every leaf to leaf.
func NewWalker(leaf LeafTranslator, opts ...WalkerOption) *Walker {
	w := &Walker{
		leaf:     leaf,
		parallel: 1,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.parallel < 1 {
		w.parallel = 1
	}
	return w
}

// Traverse returns a copy of root in which every string leaf and every
// override mapping is replaced by its translation. Keys, key order and
// sequence order are preserved.
//
// The whole tree is validated before the first leaf is dispatched, so a
// malformed document never causes translator calls.
func (w *Walker) Traverse(ctx context.Context, root *Node, cfg WalkConfig) (*Node, *WalkStats, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, nil, err
	}

	p := newPlanner(cfg)
	out, err := p.plan(root)
	if err != nil {
		return nil, nil, err
	}

	protected := MergeProtected(cfg.ProtectedStrings)
	if err := w.dispatch(ctx, p.jobs, protected, cfg.OnLeafError); err != nil {
		return nil, nil, err
	}

	stats := &WalkStats{TotalLeaves: len(p.jobs)}
	for i := range p.jobs {
		if p.jobs[i].failed {
			stats.FallbackCount++
		}
	}
	stats.TranslatedCount = stats.TotalLeaves - stats.FallbackCount

	return out, stats, nil
}

// CollectLeaves returns the translation context of every leaf in root, in
// traversal order, without calling any translator.
func CollectLeaves(root *Node, cfg WalkConfig) ([]TranslationContext, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	p := newPlanner(cfg)
	if _, err := p.plan(root); err != nil {
		return nil, err
	}

	contexts := make([]TranslationContext, len(p.jobs))
	for i, job := range p.jobs {
		contexts[i] = job.tc
	}
	return contexts, nil
}

type leafPathKey struct{}

func withLeafPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, leafPathKey{}, path)
}

// LeafPath returns the dotted document path of the leaf a walker is
// translating. Translator wrappers use it to label logs.
func LeafPath(ctx context.Context) (string, bool) {
	path, ok := ctx.Value(leafPathKey{}).(string)
	return path, ok
}

// MergeProtected merges the caller's protected strings with the built-in
// term, dropping empty and duplicate entries. The result is sorted.
func MergeProtected(terms []string) []string {
	seen := map[string]bool{BuiltinProtectedTerm: true}
	merged := []string{BuiltinProtectedTerm}
	for _, term := range terms {
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		merged = append(merged, term)
	}
	sort.Strings(merged)
	return merged
}

// JoinPath renders path segments as a dotted context path.
func JoinPath(path []string) string {
	return strings.Join(path, ".")
}

func (cfg WalkConfig) normalize() (WalkConfig, error) {
	if cfg.TargetLang == "" {
		cfg.TargetLang = DefaultTargetLang
	}

	switch cfg.OnLeafError {
	case "":
		cfg.OnLeafError = FailFast
	case FailFast, Fallback:
	default:
		return cfg, fmt.Errorf("unknown leaf error policy %q", cfg.OnLeafError)
	}

	switch cfg.Scalars {
	case "":
		cfg.Scalars = RejectScalars
	case RejectScalars, CoerceScalars:
	default:
		return cfg, fmt.Errorf("unknown scalar policy %q", cfg.Scalars)
	}

	return cfg, nil
}

// leafJob is one pending translator call and the output slot it fills.
type leafJob struct {
	path   string
	tc     TranslationContext
	slot   *Node
	failed bool
}

// planner walks the tree once, keeping the current location in a single
// path stack. Segments are pushed on the way down and popped on the way up;
// the stack is only joined when a leaf or an error needs it.
type planner struct {
	cfg  WalkConfig
	path []string
	jobs []leafJob
}

func newPlanner(cfg WalkConfig) *planner {
	path := make([]string, len(cfg.BasePath), len(cfg.BasePath)+16)
	copy(path, cfg.BasePath)
	return &planner{cfg: cfg, path: path}
}

// plan builds the output skeleton for n and queues a job per leaf. Slots
// start out holding the original text.
func (p *planner) plan(n *Node) (*Node, error) {
	switch Classify(n) {
	case ClassOverride:
		return p.planOverride(n)
	case ClassMapping:
		out := &Node{Kind: KindMapping, Pairs: make([]Pair, len(n.Pairs))}
		for i, pair := range n.Pairs {
			child, err := p.descend(pair.Value, pair.Key)
			if err != nil {
				return nil, err
			}
			out.Pairs[i] = Pair{Key: pair.Key, Value: child}
		}
		return out, nil
	case ClassSequence:
		out := &Node{Kind: KindSequence, Items: make([]*Node, len(n.Items))}
		for i, item := range n.Items {
			child, err := p.descend(item, strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			out.Items[i] = child
		}
		return out, nil
	case ClassScalar:
		return p.addLeaf(p.ambient(n.Value)), nil
	}

	if n != nil && p.cfg.Scalars == CoerceScalars {
		switch n.Kind {
		case KindNull:
			return NewNull(), nil
		case KindNumber, KindBool:
			return p.addLeaf(p.ambient(n.Value)), nil
		}
	}

	kind := "nil"
	if n != nil {
		kind = n.Kind.String()
	}
	return nil, &ValidationError{
		Kind:    UnsupportedNodeType,
		Path:    p.currentPath(),
		Message: fmt.Sprintf("%s values cannot be translated", kind),
	}
}

func (p *planner) descend(n *Node, segment string) (*Node, error) {
	p.path = append(p.path, segment)
	out, err := p.plan(n)
	p.path = p.path[:len(p.path)-1]
	return out, err
}

func (p *planner) currentPath() string {
	return JoinPath(p.path)
}

func (p *planner) planOverride(n *Node) (*Node, error) {
	text, ok := overrideString(n, KeyText)
	if !ok {
		return nil, &ValidationError{
			Kind:    MissingOverrideText,
			Path:    p.currentPath(),
			Message: "override has no text",
		}
	}

	tc := p.ambient(text)
	jobPath := tc.Context
	if v, ok := overrideString(n, KeyTargetLang); ok && v != "" {
		tc.TargetLang = v
	}
	if v, ok := overrideString(n, KeySourceLang); ok && v != "" {
		tc.SourceLang = v
	}
	if v, ok := overrideString(n, KeyContext); ok && v != "" {
		tc.Context = v
	}
	if v, ok := overrideString(n, KeyModelType); ok && v != "" {
		tc.ModelHint = v
	}
	if v, ok := overrideString(n, KeyFormality); ok && v != "" {
		tc.Formality = Formality(v)
	}

	return p.queue(jobPath, tc), nil
}

func (p *planner) ambient(text string) TranslationContext {
	return TranslationContext{
		Text:       text,
		SourceLang: DefaultSourceLang,
		TargetLang: p.cfg.TargetLang,
		Formality:  DefaultFormality,
		Context:    p.currentPath(),
	}
}

// addLeaf queues an ambient leaf, whose context is its own path.
func (p *planner) addLeaf(tc TranslationContext) *Node {
	return p.queue(tc.Context, tc)
}

func (p *planner) queue(path string, tc TranslationContext) *Node {
	slot := NewString(tc.Text)
	p.jobs = append(p.jobs, leafJob{
		path: path,
		tc:   tc,
		slot: slot,
	})
	return slot
}
