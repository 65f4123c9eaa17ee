package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute(t *testing.T) {
	values := map[string]string{
		"model": "TX-400",
		"color": "black",
		"size":  "42",
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"no placeholders", "PLAIN-SKU", "PLAIN-SKU"},
		{"single", "DEV-{model}", "DEV-TX-400"},
		{"multiple", "{model}-{color}-{size}", "TX-400-black-42"},
		{"repeated", "{model}/{model}", "TX-400/TX-400"},
		{"unresolved kept verbatim", "DEV-{model}-{voltage}", "DEV-TX-400-{voltage}"},
		{"unterminated brace kept", "DEV-{model", "DEV-{model"},
		{"empty placeholder unresolved", "A{}B", "A{}B"},
		{"stray open brace rescans", "A{{model}B", "A{TX-400B"},
		{"adjacent", "{model}{color}", "TX-400black"},
		{"empty template", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Substitute(tt.template, values))
		})
	}
}

func TestSubstituteNilValues(t *testing.T) {
	assert.Equal(t, "DEV-{model}", Substitute("DEV-{model}", nil))
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		template string
		expected []string
	}{
		{"DEV-{model}-{color}", []string{"model", "color"}},
		{"{a}{a}{b}", []string{"a", "b"}},
		{"no placeholders", nil},
		{"{unclosed", nil},
		{"{}", nil},
		{"x{{a}y", []string{"a"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Placeholders(tt.template), tt.template)
	}
}
