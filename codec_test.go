package treelai

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_JSONPreservesOrder(t *testing.T) {
	n, err := Parse(`{"z": "last", "a": [1, 2.50, true, null], "m": {}}`, "application/json")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := NewMapping(
		P("z", NewString("last")),
		P("a", NewSequence(NewNumber("1"), NewNumber("2.50"), NewBool(true), NewNull())),
		P("m", NewMapping()),
	)
	if !Equal(n, want) {
		t.Errorf("unexpected tree: %+v", n)
	}
}

func TestParse_DuplicateJSONKeyKeepsFirstPosition(t *testing.T) {
	n, err := Parse(`{"a": "1", "b": "2", "a": "3"}`, "json")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := NewMapping(P("a", NewString("3")), P("b", NewString("2")))
	if !Equal(n, want) {
		t.Errorf("unexpected tree: %+v", n)
	}
}

func TestParse_YAML(t *testing.T) {
	text := "title: Hello\ncount: 0x1F\nenabled: yes\nratio: .5\nwhen: 2024-01-01\nitems:\n  - &x one\n  - *x\n"
	n, err := Parse(text, "application/x-yaml")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := NewMapping(
		P("title", NewString("Hello")),
		P("count", NewNumber("31")),
		P("enabled", NewString("yes")),
		P("ratio", NewNumber("0.5")),
		P("when", NewString("2024-01-01")),
		P("items", NewSequence(NewString("one"), NewString("one"))),
	)
	if !Equal(n, want) {
		t.Errorf("unexpected tree: %+v", n)
	}
}

func TestParse_AutoDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		hint string
		want *Node
	}{
		{"json without hint", `{"a": "b"}`, "", NewMapping(P("a", NewString("b")))},
		{"yaml without hint", "a: b\n", "", NewMapping(P("a", NewString("b")))},
		{"unknown hint", "a: b\n", "text/plain", NewMapping(P("a", NewString("b")))},
		{"yml extension", "- x\n", ".yml", NewSequence(NewString("x"))},
		{"empty yaml", "", "yaml", NewNull()},
		{"bare scalar", "hello", "", NewString("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Parse(tt.text, tt.hint)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if !Equal(n, tt.want) {
				t.Errorf("got %+v, want %+v", n, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		hint string
		kind ErrorKind
	}{
		{"truncated json", `{"a":`, "json", InvalidJSON},
		{"trailing json", `{"a": 1} {}`, "json", InvalidJSON},
		{"yaml as json", "a: b", "json", InvalidJSON},
		{"bad yaml", "a: [", "yaml", InvalidYAML},
		{"bad yaml fallback", "a: [", "", InvalidYAML},
		{"complex yaml key", "? [a, b]\n: c\n", "yaml", InvalidYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text, tt.hint)
			if !errors.Is(err, &ParseError{Kind: tt.kind}) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestCoerceToTree(t *testing.T) {
	tests := []struct {
		name string
		in   *Node
		want *Node
	}{
		{"yaml mapping in string", NewString("a: b"), NewMapping(P("a", NewString("b")))},
		{"json list in string", NewString(`["x"]`), NewSequence(NewString("x"))},
		{"plain string", NewString("hello"), NewString("hello")},
		{"number-like string", NewString("42"), NewString("42")},
		{"broken yaml", NewString("a: ["), NewString("a: [")},
		{"mapping untouched", NewMapping(), NewMapping()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoerceToTree(tt.in); !Equal(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSerialize_JSON(t *testing.T) {
	n := NewMapping(
		P("b", NewString("<Tom & Jerry>")),
		P("a", NewSequence(NewNumber("1.0"), NewBool(false), NewNull())),
		P("e", NewSequence()),
	)

	out, err := Serialize(n, "json")
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	want := "{\n  \"b\": \"<Tom & Jerry>\",\n  \"a\": [\n    1.0,\n    false,\n    null\n  ],\n  \"e\": []\n}\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestSerialize_YAML(t *testing.T) {
	n := NewMapping(
		P("title", NewString("Hola")),
		P("flag", NewString("true")),
		P("n", NewNumber("3")),
		P("list", NewSequence(NewString("a"), NewNull())),
	)

	out, err := Serialize(n, "YAML")
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	want := "---\ntitle: Hola\nflag: \"true\"\nn: 3\nlist:\n  - a\n  - null\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	src := `{"k": "v", "nested": {"list": ["a", "b"], "n": 12}}`
	n, err := Parse(src, "json")
	if err != nil {
		t.Fatal(err)
	}

	yamlOut, err := Serialize(n, "yaml")
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(yamlOut, "yaml")
	if err != nil {
		t.Fatalf("re-parse failed: %v\n%s", err, yamlOut)
	}
	if !Equal(n, back) {
		t.Errorf("round trip changed the tree:\n%s", yamlOut)
	}
}

func TestSerialize_UnsupportedFormat(t *testing.T) {
	_, err := Serialize(NewString("x"), "xml")
	if !errors.Is(err, &ValidationError{Kind: UnsupportedExportFormat}) {
		t.Errorf("expected UnsupportedExportFormat, got %v", err)
	}
}

func TestSerialize_BadNumber(t *testing.T) {
	_, err := Serialize(NewNumber(".inf"), "json")
	var te *TranslationError
	if !errors.As(err, &te) || !strings.Contains(err.Error(), ".inf") {
		t.Errorf("expected TranslationError naming the literal, got %v", err)
	}
}

func TestParseExportFormat(t *testing.T) {
	for _, name := range []string{"", "json", "JSON", "Json"} {
		if f, err := ParseExportFormat(name); err != nil || f != FormatJSON {
			t.Errorf("ParseExportFormat(%q) = %q, %v", name, f, err)
		}
	}
	if f, err := ParseExportFormat("yaml"); err != nil || f != FormatYAML {
		t.Errorf("ParseExportFormat(yaml) = %q, %v", f, err)
	}
	if _, err := ParseExportFormat("yml"); err == nil {
		t.Error("yml is not an export format name")
	}
}

func TestParse_YAMLMergeKeys(t *testing.T) {
	text := `base: &b
  x: one
  y: base
extra: &e
  z: three
  x: shadowed
child:
  <<: *b
  y: two
multi:
  <<: [*b, *e]
quoted:
  "<<": literal
`
	n, err := Parse(text, "yaml")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	child, _ := n.Get("child")
	want := NewMapping(P("x", NewString("one")), P("y", NewString("two")))
	if !Equal(child, want) {
		t.Errorf("child: expected %+v, got %+v", want, child)
	}

	multi, _ := n.Get("multi")
	want = NewMapping(
		P("x", NewString("one")),
		P("y", NewString("base")),
		P("z", NewString("three")),
	)
	if !Equal(multi, want) {
		t.Errorf("multi: expected %+v, got %+v", want, multi)
	}

	quoted, _ := n.Get("quoted")
	if v, ok := quoted.Get("<<"); !ok || v.Value != "literal" {
		t.Errorf("quoted << should stay an ordinary key, got %+v", quoted)
	}
}

func TestParse_YAMLMergeKeyNotMapping(t *testing.T) {
	_, err := Parse("a:\n  <<: scalar\n", "yaml")

	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != InvalidYAML {
		t.Errorf("expected InvalidYAML, got %v", err)
	}
}

func TestParse_MaxDepth(t *testing.T) {
	atLimit := strings.Repeat("[", MaxDepth) + `"x"` + strings.Repeat("]", MaxDepth)
	if _, err := Parse(atLimit, "json"); err != nil {
		t.Fatalf("expected depth %d to parse, got %v", MaxDepth, err)
	}

	tooDeep := "[" + atLimit + "]"
	_, err := Parse(tooDeep, "json")

	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != InvalidJSON {
		t.Fatalf("expected InvalidJSON, got %v", err)
	}
	if !errors.Is(err, errTooDeep) {
		t.Errorf("expected depth error, got %v", err)
	}
}
