package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ZaguanLabs/treelai"
	"github.com/sashabaranov/go-openai"
)

// DefaultOpenAIModel is used when neither the config nor the leaf names a model.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements LeafTranslator using OpenAI's API.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	models      map[string]string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string            // OpenAI API key
	Model       string            // Model to use (default: "gpt-4o-mini")
	Temperature float32           // Temperature for generation (default: 0.3)
	BaseURL     string            // Custom base URL (optional)
	Models      map[string]string // model_type aliases, e.g. "premium" -> "gpt-4o"
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		models:      cfg.Models,
		temperature: temperature,
	}
}

// TranslateLeaf translates a single leaf using OpenAI.
func (p *OpenAIProvider) TranslateLeaf(ctx context.Context, tc TranslationContext, protected []string) (string, error) {
	if strings.TrimSpace(tc.Text) == "" {
		return tc.Text, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.modelFor(tc),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(tc, protected)},
			{Role: openai.ChatMessageRoleUser, Content: tc.Text},
		},
		Temperature: p.temperature,
	})
	if err != nil {
		return "", &treelai.ProviderError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableOpenAIError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return "", &treelai.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return restoreWhitespace(tc.Text, stripCodeFence(resp.Choices[0].Message.Content)), nil
}

// modelFor resolves the leaf's model hint through the alias table. An
// unknown hint is used as the model name itself.
func (p *OpenAIProvider) modelFor(tc TranslationContext) string {
	if tc.ModelHint == "" {
		return p.model
	}
	if model, ok := p.models[tc.ModelHint]; ok {
		return model
	}
	return tc.ModelHint
}

func (p *OpenAIProvider) buildSystemPrompt(tc TranslationContext, protected []string) string {
	sourceLang := tc.SourceLang
	if sourceLang == "" {
		sourceLang = treelai.DefaultSourceLang
	}

	targetName := treelai.GetLanguageName(tc.TargetLang)
	sourceName := treelai.GetLanguageName(sourceLang)

	var b strings.Builder
	fmt.Fprintf(&b, `# Role
You are an expert native translator. You translate short interface strings from %s to %s with the fluency of a highly educated native speaker.

# Task
Translate the user message into idiomatic %s. Reply with the translation only.`, sourceName, targetName, targetName)

	if tc.HasContext() {
		fmt.Fprintf(&b, "\n\n# Context\nThe string is stored under %q in a structured document. Use this to disambiguate, but never translate or output it.", tc.Context)
	}

	if register := formalityInstruction(tc.Formality); register != "" {
		fmt.Fprintf(&b, "\n\n# Register\n%s", register)
	}

	b.WriteString(`

# Rules
- **Placeholders**: Never translate, reorder the characters of, or remove placeholders such as {{count}}, {{name}}, {name}, %s or $1. Keep them exactly as written.
- **Formatting**: Preserve line breaks, Markdown and HTML markup.
- **Output**: Do NOT wrap the answer in quotes or code blocks. Do NOT add notes or explanations.`)

	if treelai.IsRTL(tc.TargetLang) {
		b.WriteString("\n- **Direction**: The target language is written right-to-left. Keep placeholders and protected terms in Latin script.")
	}

	if len(protected) > 0 {
		fmt.Fprintf(&b, "\n\n# Protected terms\nDo NOT translate the following terms. Keep them exactly as they appear in the source:\n- %s",
			strings.Join(protected, "\n- "))
	}

	return b.String()
}

func formalityInstruction(f treelai.Formality) string {
	switch f {
	case treelai.FormalityMore, treelai.FormalityFormal:
		return "Use a formal, polite register."
	case treelai.FormalityLess:
		return "Use an informal, friendly register."
	case treelai.FormalityPreferMore:
		return "Prefer a formal register where the target language distinguishes one."
	case treelai.FormalityPreferLess:
		return "Prefer an informal register where the target language distinguishes one."
	}
	return ""
}

// stripCodeFence removes a Markdown code fence the model may wrap around its answer.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") || len(trimmed) < 6 {
		return s
	}
	inner := trimmed[3 : len(trimmed)-3]
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 && !strings.ContainsAny(inner[:nl], " \t") {
		inner = inner[nl+1:]
	}
	return strings.TrimSpace(inner)
}

func isRetryableOpenAIError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return isRetryableError(err)
}

// Verify OpenAIProvider implements LeafTranslator
var _ LeafTranslator = (*OpenAIProvider)(nil)
