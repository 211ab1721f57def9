package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a mock leaf translator for testing and dry runs.
type MockProvider struct {
	Translations map[string]string // Map of source text to translation
	Errors       map[string]error  // Map of source text to a forced failure

	mu    sync.Mutex
	calls []TranslationContext
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":                "Hola",
			"World":                "Mundo",
			"Hello World":          "Hola Mundo",
			"Welcome to our site.": "Bienvenido a nuestro sitio.",
		},
	}
}

// TranslateLeaf returns mock translations.
func (m *MockProvider) TranslateLeaf(ctx context.Context, tc TranslationContext, protected []string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, tc)
	m.mu.Unlock()

	if err, ok := m.Errors[tc.Text]; ok {
		return "", err
	}
	if translation, ok := m.Translations[tc.Text]; ok {
		return translation, nil
	}
	// Return bracketed text for unknown translations
	return fmt.Sprintf("[%s]", tc.Text), nil
}

// CallCount returns the number of TranslateLeaf calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of every context received, in call order.
func (m *MockProvider) Calls() []TranslationContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TranslationContext(nil), m.calls...)
}

// Reset clears the recorded calls.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Verify MockProvider implements LeafTranslator
var _ LeafTranslator = (*MockProvider)(nil)
