package gallery

import "testing"

func TestNormalizeIdentity(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase passthrough",
			input:    "alice",
			expected: "alice",
		},
		{
			name:     "uppercase",
			input:    "Alice",
			expected: "alice",
		},
		{
			name:     "diacritics removed",
			input:    "Jiří Novák",
			expected: "jiri novak",
		},
		{
			name:     "dashes to spaces",
			input:    "jan-novak",
			expected: "jan novak",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  bob  ",
			expected: "bob",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeIdentity(tt.input); got != tt.expected {
				t.Errorf("NormalizeIdentity(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoveDiacritics(t *testing.T) {
	if got := RemoveDiacritics("Čeněk Růžička"); got != "Cenek Ruzicka" {
		t.Errorf("RemoveDiacritics = %q, want %q", got, "Cenek Ruzicka")
	}
}
