package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"version"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stdout.String(), "treelai") {
		t.Errorf("expected version output, got: %s", stdout.String())
	}
}

func TestRun_VersionJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"version", "--json"}, &stdout, &stderr); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var info map[string]string
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if info["name"] != "treelai" {
		t.Errorf("expected name treelai, got %q", info["name"])
	}
	if info["go_version"] == "" {
		t.Error("expected go_version to be filled in")
	}
}

func TestRun_MissingAPIKey(t *testing.T) {
	t.Setenv("TREELAI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	path := writeInput(t, "doc.json", `{"a": "Hello"}`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", path, "--lang", "es"}, &stdout, &stderr)

	if err == nil {
		t.Fatal("expected error for missing API key")
	}

	if !strings.Contains(err.Error(), "OPENAI_API_KEY is required") {
		t.Errorf("expected API key error, got: %v", err)
	}
}

func TestRun_InvalidPolicyFlag(t *testing.T) {
	t.Setenv("TREELAI_PROVIDER", "mock")
	path := writeInput(t, "doc.json", `{"a": "Hello"}`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", path, "--on-error", "ignore"}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "TREELAI_ON_LEAF_ERROR") {
		t.Errorf("expected policy error, got: %v", err)
	}
}

func TestRun_TranslateMock(t *testing.T) {
	t.Setenv("TREELAI_PROVIDER", "mock")
	path := writeInput(t, "doc.yaml", "greeting: Hello\nitems:\n  - World\n")

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", path, "--lang", "es", "--export-format", "yaml"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "---\ngreeting: Hola\nitems:\n  - Mundo\n"
	if stdout.String() != want {
		t.Errorf("expected %q, got %q", want, stdout.String())
	}
	if !strings.Contains(stderr.String(), "Leaves found: 2") {
		t.Errorf("expected stats on stderr, got: %s", stderr.String())
	}
}

func TestRun_TranslateJSONOutput(t *testing.T) {
	t.Setenv("TREELAI_PROVIDER", "mock")
	path := writeInput(t, "doc.json", `{"a": "Hello", "n": 3}`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", path, "--coerce-scalars", "--json", "-q"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result JSONOutput
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}

	if result.TotalLeaves != 2 {
		t.Errorf("expected 2 leaves, got %d", result.TotalLeaves)
	}
	if result.ExportFormat != "JSON" {
		t.Errorf("expected JSON export format, got %q", result.ExportFormat)
	}
	if !strings.Contains(result.Content, `"a": "Hola"`) || !strings.Contains(result.Content, `"n": "[3]"`) {
		t.Errorf("unexpected content: %s", result.Content)
	}
}

func TestRun_DryRun(t *testing.T) {
	t.Setenv("TREELAI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	path := writeInput(t, "doc.json", `{"menu": {"title": "Hello", "cta": "World"}}`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", path, "--lang", "ja", "--dry-run"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := stdout.String()
	if !strings.Contains(output, "Dry run") {
		t.Errorf("expected dry run output, got: %s", output)
	}
	if !strings.Contains(output, "2 translatable leaves") {
		t.Errorf("expected 2 leaves, got: %s", output)
	}
	if !strings.Contains(output, "Path: menu.title") {
		t.Errorf("expected leaf path, got: %s", output)
	}
}

func TestRun_DryRunJSON(t *testing.T) {
	path := writeInput(t, "doc.json",
		`{"a": "Hello", "b": {"translation_hash": true, "text": "World", "target_lang": "de"}}`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", path, "--lang", "fr", "--dry-run", "--json"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		TargetLang string `json:"target_lang"`
		LeafCount  int    `json:"leaf_count"`
		Leaves     []struct {
			Path       string `json:"path"`
			Text       string `json:"text"`
			TargetLang string `json:"target_lang"`
		} `json:"leaves"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}

	if result.TargetLang != "fr" || result.LeafCount != 2 {
		t.Fatalf("unexpected summary: %+v", result)
	}
	if result.Leaves[1].Path != "b" || result.Leaves[1].TargetLang != "de" {
		t.Errorf("expected override leaf b in de, got %+v", result.Leaves[1])
	}
}

func TestRun_DryRunValidationError(t *testing.T) {
	path := writeInput(t, "doc.json", `{"x": {"translation_hash": true}}`)

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", path, "--dry-run"}, &stdout, &stderr)

	if err == nil || !strings.Contains(err.Error(), "x") {
		t.Errorf("expected validation error naming path x, got: %v", err)
	}
}

func TestRun_OutputShortFlag(t *testing.T) {
	t.Setenv("TREELAI_PROVIDER", "mock")
	path := writeInput(t, "doc.json", `["Hello"]`)
	outputFile := filepath.Join(t.TempDir(), "out.json")

	var stdout, stderr bytes.Buffer
	err := run([]string{"translate", path, "-o", outputFile, "-q"}, &stdout, &stderr)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stdout.Len() != 0 {
		t.Errorf("expected nothing on stdout, got: %s", stdout.String())
	}

	data, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "[\n  \"Hola\"\n]\n" {
		t.Errorf("unexpected output file content: %q", data)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run([]string{"frobnicate"}, &stdout, &stderr); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
