// Package treelai translates nested JSON and YAML documents leaf by leaf.
//
// A document is parsed into a tree of Nodes, every string leaf is sent to a
// LeafTranslator together with its dotted context path, and the translated
// tree is serialized as JSON or YAML. Keys, key order and sequence order are
// never changed. A mapping whose translation_hash is true is an override: it
// is replaced by the translation of its text, using its own target_lang,
// source_lang, context, model_type and formality.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/treelai"
//	    "github.com/ZaguanLabs/treelai/provider"
//	)
//
//	func main() {
//	    p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    t := treelai.NewTranslator(p,
//	        treelai.WithTargetLang("fr"),
//	        treelai.WithProtectedStrings([]string{"Acme"}),
//	    )
//
//	    result, err := t.Translate(context.Background(), treelai.Request{
//	        Content:      `{"greeting": "Hello {{count}} times"}`,
//	        InputFormat:  "application/json",
//	        ExportFormat: "YAML",
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(result.Content)
//	}
package treelai
