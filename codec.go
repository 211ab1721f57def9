package treelai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExportFormat is the serialization format of a translated document.
type ExportFormat string

const (
	FormatJSON ExportFormat = "JSON"
	FormatYAML ExportFormat = "YAML"
)

const (
	// maxYAMLNodes bounds alias expansion while converting a YAML tree.
	maxYAMLNodes = 1 << 20

	// MaxDepth is the deepest nesting of mappings and sequences Parse
	// accepts, for JSON and YAML alike.
	MaxDepth = 10000
)

var errTooDeep = fmt.Errorf("document nests deeper than %d levels", MaxDepth)

// ParseExportFormat validates an export format name case-insensitively.
// An empty name selects JSON.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch strings.ToUpper(name) {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML):
		return FormatYAML, nil
	}
	return "", &ValidationError{
		Kind:    UnsupportedExportFormat,
		Message: fmt.Sprintf("export format %q must be JSON or YAML", name),
	}
}

// Parse parses text into a document tree. A hint containing "json" forces
// strict JSON, one containing "yaml" or "yml" forces YAML; any other hint
// tries JSON first and falls back to YAML.
func Parse(text, formatHint string) (*Node, error) {
	hint := strings.ToLower(formatHint)
	switch {
	case strings.Contains(hint, "json"):
		return parseJSON(text)
	case strings.Contains(hint, "yaml"), strings.Contains(hint, "yml"):
		return parseYAML(text)
	}

	if n, err := parseJSON(text); err == nil {
		return n, nil
	}
	return parseYAML(text)
}

// CoerceToTree gives a root string a second chance to become a structure.
// The string is parsed as YAML and the result adopted only if it is a
// mapping or sequence; otherwise the string itself is returned.
func CoerceToTree(n *Node) *Node {
	if n == nil || n.Kind != KindString {
		return n
	}
	parsed, err := parseYAML(n.Value)
	if err != nil {
		return n
	}
	if parsed.Kind == KindMapping || parsed.Kind == KindSequence {
		return parsed
	}
	return n
}

// Serialize renders a document tree as JSON or YAML.
func Serialize(n *Node, exportFormat string) (string, error) {
	format, err := ParseExportFormat(exportFormat)
	if err != nil {
		return "", err
	}
	return Encode(n, format)
}

// Encode renders a document tree in an already validated format.
func Encode(n *Node, format ExportFormat) (string, error) {
	switch format {
	case FormatJSON:
		return encodeJSON(n)
	case FormatYAML:
		return encodeYAML(n)
	}
	return "", &ValidationError{
		Kind:    UnsupportedExportFormat,
		Message: fmt.Sprintf("export format %q must be JSON or YAML", format),
	}
}

// JSON

func parseJSON(text string) (*Node, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	n, err := decodeJSON(dec, 0)
	if err != nil {
		return nil, &ParseError{Kind: InvalidJSON, Cause: err}
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, &ParseError{Kind: InvalidJSON, Cause: err}
	}

	return n, nil
}

func decodeJSON(dec *json.Decoder, depth int) (*Node, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		if depth >= MaxDepth && (v == '{' || v == '[') {
			return nil, errTooDeep
		}
		switch v {
		case '{':
			m := NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				value, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				m.Set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			s := NewSequence()
			for dec.More() {
				item, err := decodeJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				s.Items = append(s.Items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v.String())
	case string:
		return NewString(v), nil
	case json.Number:
		return NewNumber(v.String()), nil
	case bool:
		return NewBool(v), nil
	case nil:
		return NewNull(), nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func encodeJSON(n *Node) (string, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, n, 0); err != nil {
		return "", &TranslationError{Message: "serialize JSON", Cause: err}
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

func writeJSON(buf *bytes.Buffer, n *Node, depth int) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}

	switch n.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(n.Value)
	case KindNumber:
		if !isJSONNumber(n.Value) {
			return fmt.Errorf("number %q has no JSON representation", n.Value)
		}
		buf.WriteString(n.Value)
	case KindString:
		writeJSONString(buf, n.Value)
	case KindMapping:
		if len(n.Pairs) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i, p := range n.Pairs {
			writeIndent(buf, depth+1)
			writeJSONString(buf, p.Key)
			buf.WriteString(": ")
			if err := writeJSON(buf, p.Value, depth+1); err != nil {
				return err
			}
			if i < len(n.Pairs)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte('}')
	case KindSequence:
		if len(n.Items) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range n.Items {
			writeIndent(buf, depth+1)
			if err := writeJSON(buf, item, depth+1); err != nil {
				return err
			}
			if i < len(n.Items)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte(']')
	default:
		return fmt.Errorf("unknown node kind %s", n.Kind)
	}
	return nil
}

func writeIndent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}

// writeJSONString quotes s without escaping <, > and &.
func writeJSONString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}

func isJSONNumber(literal string) bool {
	if literal == "" {
		return false
	}
	if c := literal[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(literal))
}

// YAML

func parseYAML(text string) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Kind: InvalidYAML, Cause: err}
	}

	// An empty stream has no document node.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return NewNull(), nil
	}

	c := yamlConverter{}
	n, err := c.convert(doc.Content[0], 0)
	if err != nil {
		return nil, &ParseError{Kind: InvalidYAML, Cause: err}
	}
	return n, nil
}

type yamlConverter struct {
	visited int
}

func (c *yamlConverter) convert(y *yaml.Node, depth int) (*Node, error) {
	c.visited++
	if c.visited > maxYAMLNodes {
		return nil, errors.New("document expands to too many nodes")
	}
	if depth > MaxDepth {
		return nil, errTooDeep
	}

	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return NewNull(), nil
		}
		return c.convert(y.Content[0], depth)
	case yaml.AliasNode:
		return c.convert(y.Alias, depth)
	case yaml.MappingNode:
		return c.convertMapping(y, depth)
	case yaml.SequenceNode:
		s := NewSequence()
		s.Items = make([]*Node, 0, len(y.Content))
		for _, item := range y.Content {
			n, err := c.convert(item, depth+1)
			if err != nil {
				return nil, err
			}
			s.Items = append(s.Items, n)
		}
		return s, nil
	case yaml.ScalarNode:
		return convertYAMLScalar(y)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", y.Line, y.Kind)
}

// convertMapping resolves merge keys in place. Keys written in the mapping
// itself win over merged ones, and earlier merged mappings win over later
// ones.
func (c *yamlConverter) convertMapping(y *yaml.Node, depth int) (*Node, error) {
	explicit := make(map[string]bool, len(y.Content)/2)
	for i := 0; i+1 < len(y.Content); i += 2 {
		if k := resolveAlias(y.Content[i]); k.Kind == yaml.ScalarNode && !isMergeKey(k) {
			explicit[k.Value] = true
		}
	}

	m := NewMapping()
	for i := 0; i+1 < len(y.Content); i += 2 {
		keyNode := resolveAlias(y.Content[i])
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
		}

		value, err := c.convert(y.Content[i+1], depth+1)
		if err != nil {
			return nil, err
		}

		if !isMergeKey(keyNode) {
			m.Set(keyNode.Value, value)
			continue
		}

		sources, err := mergeSources(value, keyNode.Line)
		if err != nil {
			return nil, err
		}
		for _, src := range sources {
			for _, pair := range src.Pairs {
				if explicit[pair.Key] {
					continue
				}
				if _, ok := m.Get(pair.Key); ok {
					continue
				}
				m.Pairs = append(m.Pairs, Pair{Key: pair.Key, Value: pair.Value})
			}
		}
	}
	return m, nil
}

func resolveAlias(y *yaml.Node) *yaml.Node {
	if y.Kind == yaml.AliasNode {
		return y.Alias
	}
	return y
}

func isMergeKey(y *yaml.Node) bool {
	return y.Kind == yaml.ScalarNode && y.ShortTag() == "!!merge"
}

// mergeSources returns the mappings a merge key pulls in: a single mapping
// or a sequence of them.
func mergeSources(value *Node, line int) ([]*Node, error) {
	switch value.Kind {
	case KindMapping:
		return []*Node{value}, nil
	case KindSequence:
		for _, item := range value.Items {
			if item.Kind != KindMapping {
				return nil, fmt.Errorf("line %d: merge sequence may only contain mappings", line)
			}
		}
		return value.Items, nil
	}
	return nil, fmt.Errorf("line %d: merge value must be a mapping or a sequence of mappings", line)
}

// convertYAMLScalar maps the core YAML tags onto node kinds. Every other tag,
// including timestamps and application tags, stays a plain string.
func convertYAMLScalar(y *yaml.Node) (*Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return NewNull(), nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, err
		}
		return NewBool(b), nil
	case "!!int", "!!float":
		return NewNumber(yamlNumberLiteral(y)), nil
	}
	return NewString(y.Value), nil
}

// yamlNumberLiteral keeps literals JSON already understands and normalizes
// YAML-only spellings such as 0x1F, 0o17 or .5.
func yamlNumberLiteral(y *yaml.Node) string {
	if isJSONNumber(y.Value) {
		return y.Value
	}
	var v any
	if err := y.Decode(&v); err != nil {
		return y.Value
	}
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return y.Value
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return y.Value
}

func encodeYAML(n *Node) (string, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{toYAML(n)}}
	if err := enc.Encode(doc); err != nil {
		return "", &TranslationError{Message: "serialize YAML", Cause: err}
	}
	if err := enc.Close(); err != nil {
		return "", &TranslationError{Message: "serialize YAML", Cause: err}
	}
	return buf.String(), nil
}

func toYAML(n *Node) *yaml.Node {
	if n == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}

	switch n.Kind {
	case KindMapping:
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, p := range n.Pairs {
			y.Content = append(y.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Key},
				toYAML(p.Value),
			)
		}
		return y
	case KindSequence:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range n.Items {
			y.Content = append(y.Content, toYAML(item))
		}
		return y
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Value}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: n.Value}
	case KindNumber:
		// Untagged, so the encoder presents the literal as it resolves.
		return &yaml.Node{Kind: yaml.ScalarNode, Value: n.Value}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
