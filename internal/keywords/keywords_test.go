package keywords

import (
	"slices"
	"testing"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		name                          string
		title, category, description string
		want                          []string
	}{
		{
			name:        "basic",
			title:       "Black Leather Wallet",
			category:    "Other",
			description: "Lost near the cafeteria, black wallet with student card",
			want:        []string{"black", "leather", "wallet", "cafeteria", "student", "card"},
		},
		{
			name:     "case folding and punctuation",
			title:    "iPhone 13, PRO!",
			category: "Electronics",
			want:     []string{"iphone", "pro", "electronics"},
		},
		{
			name:  "unicode letters kept",
			title: "Ključi od kolesa",
			want:  []string{"ključi", "kolesa"},
		},
		{
			name: "empty",
			want: []string{},
		},
	}

	for _, tt := range tests {
		got := Derive(tt.title, tt.category, tt.description)
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s: Derive() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDeriveCapsLength(t *testing.T) {
	got := Derive("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima mike november", "", "")
	if len(got) != MaxKeywords {
		t.Fatalf("expected %d keywords, got %d", MaxKeywords, len(got))
	}
	if got[0] != "alpha" || got[MaxKeywords-1] != "lima" {
		t.Errorf("unexpected order: %v", got)
	}
}
