package cmd

import (
	"testing"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "example.com",
			expected: []string{"example.com"},
		},
		{
			name:     "multiple values",
			input:    "example.com,corp.example.org",
			expected: []string{"example.com", "corp.example.org"},
		},
		{
			name:     "values with spaces around comma",
			input:    "example.com, corp.example.org",
			expected: []string{"example.com", "corp.example.org"},
		},
		{
			name:     "values with leading/trailing spaces",
			input:    "  example.com  ,  corp.example.org  ",
			expected: []string{"example.com", "corp.example.org"},
		},
		{
			name:     "trailing comma",
			input:    "example.com,corp.example.org,",
			expected: []string{"example.com", "corp.example.org"},
		},
		{
			name:     "leading comma",
			input:    ",example.com,corp.example.org",
			expected: []string{"example.com", "corp.example.org"},
		},
		{
			name:     "multiple consecutive commas",
			input:    "example.com,,corp.example.org",
			expected: []string{"example.com", "corp.example.org"},
		},
		{
			name:     "only commas and spaces",
			input:    ",  , , ",
			expected: nil,
		},
		{
			name:     "single value with surrounding whitespace",
			input:    "  example.com  ",
			expected: []string{"example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseCommaSeparatedList(tt.input)

			// Handle nil vs empty slice comparison
			if tt.expected == nil {
				if result != nil {
					t.Errorf("parseCommaSeparatedList(%q) = %v, want nil", tt.input, result)
				}
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("parseCommaSeparatedList(%q) = %v (len %d), want %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
				return
			}

			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCommaSeparatedList(%q)[%d] = %q, want %q",
						tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestBuildScoringConfig(t *testing.T) {
	t.Run("flag domains take precedence", func(t *testing.T) {
		t.Setenv("IMPORTANT_SENDER_DOMAINS", "env.example.com")

		cfg := buildScoringConfig([]string{"flag.example.com"})
		if len(cfg.DomainBonus) != 1 || cfg.DomainBonus[0] != "flag.example.com" {
			t.Errorf("unexpected domain bonus: %v", cfg.DomainBonus)
		}
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("IMPORTANT_SENDER_DOMAINS", "env.example.com, other.example.com")

		cfg := buildScoringConfig(nil)
		if len(cfg.DomainBonus) != 2 || cfg.DomainBonus[0] != "env.example.com" {
			t.Errorf("unexpected domain bonus: %v", cfg.DomainBonus)
		}
	})

	t.Run("defaults keep keywords", func(t *testing.T) {
		t.Setenv("IMPORTANT_SENDER_DOMAINS", "")

		cfg := buildScoringConfig(nil)
		if len(cfg.DomainBonus) != 0 {
			t.Errorf("expected empty domain bonus, got %v", cfg.DomainBonus)
		}
		if len(cfg.Keywords) == 0 {
			t.Error("expected default keywords to be present")
		}
	})
}
