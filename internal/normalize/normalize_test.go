package normalize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "SMITH", "smith"},
		{"diacritics stripped", "Jöhn Müller", "john muller"},
		{"punctuation to spaces", "O'Brien, Mary-Anne", "o brien mary anne"},
		{"whitespace collapsed", "  John   Smith  ", "john smith"},
		{"tabs and newlines", "John\tSmith\nJr", "john smith jr"},
		{"brackets", "(nee) [Smith]", "nee smith"},
		{"empty", "", ""},
		{"only punctuation", "...---", ""},
		{"digits pass through", "Census 1901", "census 1901"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestText_Deterministic(t *testing.T) {
	in := "José María (di) Ángel-Söderström"
	first := Text(in)
	for i := 0; i < 5; i++ {
		if got := Text(in); got != first {
			t.Fatalf("Text not deterministic: %q vs %q", got, first)
		}
	}
}

func TestText_EquivalentInputsConverge(t *testing.T) {
	pairs := [][2]string{
		{"John Smith", "JOHN  SMITH"},
		{"O'Brien", "O Brien"},
		{"Müller", "Muller"},
		{"Anne-Marie", "anne marie"},
	}
	for _, p := range pairs {
		if Text(p[0]) != Text(p[1]) {
			t.Errorf("Text(%q) = %q, Text(%q) = %q; want equal", p[0], Text(p[0]), p[1], Text(p[1]))
		}
	}
}
