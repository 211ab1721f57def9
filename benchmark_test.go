package treelai_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ZaguanLabs/treelai"
	"github.com/ZaguanLabs/treelai/provider"
)

// Benchmarks for performance validation

func mediumDocument() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i := 0; i < 50; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `"section%d": {"title": "Title %d", "items": ["one", "two", "three"]}`, i, i)
	}
	sb.WriteString("}")
	return sb.String()
}

func BenchmarkParse_JSON(b *testing.B) {
	doc := mediumDocument()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		treelai.Parse(doc, "json")
	}
}

func BenchmarkParse_YAML(b *testing.B) {
	n, _ := treelai.Parse(mediumDocument(), "json")
	doc, _ := treelai.Serialize(n, "yaml")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		treelai.Parse(doc, "yaml")
	}
}

func BenchmarkSerialize_JSON(b *testing.B) {
	n, _ := treelai.Parse(mediumDocument(), "json")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		treelai.Serialize(n, "json")
	}
}

func BenchmarkCollectLeaves(b *testing.B) {
	n, _ := treelai.Parse(mediumDocument(), "json")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		treelai.CollectLeaves(n, treelai.WalkConfig{})
	}
}

func BenchmarkTranslator_Translate(b *testing.B) {
	translator := treelai.NewTranslator(provider.NewMockProvider(), treelai.WithConcurrency(4))
	req := treelai.Request{Content: mediumDocument(), ExportFormat: "yaml"}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		translator.Translate(ctx, req)
	}
}

func BenchmarkGetDirection(b *testing.B) {
	for i := 0; i < b.N; i++ {
		treelai.GetDirection("ar_SA")
	}
}

func BenchmarkGetLanguageName(b *testing.B) {
	for i := 0; i < b.N; i++ {
		treelai.GetLanguageName("ja_JP")
	}
}
