package treelai

import "testing"

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"es", "Spanish"},
		{"fr", "French"},
		{"de", "German"},
		{"ja", "Japanese"},
		{"!!", "!!"}, // fallback
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetLanguageName(tt.code)
			if result != tt.expected {
				t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestGetDirection(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"ar_SA", "rtl"},
		{"he", "rtl"},
		{"fa-IR", "rtl"},
		{"ur", "rtl"},
		{"es_ES", "ltr"},
		{"en", "ltr"},
		{"ja_JP", "ltr"},
		{"zh-CN", "ltr"},
		{"!!", "ltr"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetDirection(tt.code)
			if result != tt.expected {
				t.Errorf("GetDirection(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestBaseLanguage(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"pt_BR", "pt"},
		{"en-GB", "en"},
		{"es", "es"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := BaseLanguage(tt.code); got != tt.expected {
				t.Errorf("BaseLanguage(%q) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestNormalizeLocale(t *testing.T) {
	if got := NormalizeLocale(" es_ES "); got != "es-ES" {
		t.Errorf("NormalizeLocale = %q, want %q", got, "es-ES")
	}
}
