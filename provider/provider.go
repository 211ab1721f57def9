// Package provider defines the leaf translation backends.
package provider

import (
	"strings"

	"github.com/ZaguanLabs/treelai"
)

// LeafTranslator is an alias to the main package interface for convenience.
type LeafTranslator = treelai.LeafTranslator

// TranslationContext is an alias to the main package type.
type TranslationContext = treelai.TranslationContext

// isRetryableError reports whether a backend error looks transient.
func isRetryableError(err error) bool {
	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit",
		"too many requests",
		"timeout",
		"connection refused",
		"connection reset",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// restoreWhitespace gives out the leading and trailing whitespace of src.
// Backends tend to trim or add surrounding whitespace.
func restoreWhitespace(src, out string) string {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return src
	}
	start := strings.Index(src, trimmed)
	lead := src[:start]
	trail := src[start+len(trimmed):]
	return lead + strings.TrimSpace(out) + trail
}
