package util

import "testing"

func TestExpandPattern(t *testing.T) {
	toks := map[string]string{
		"name":     "Sol Badguy Recolor",
		"category": " Sol ",
		"views":    "1200",
	}
	tests := []struct {
		pattern, want string
	}{
		{"{name} [{category}] {views} views", "Sol Badguy Recolor [Sol] 1200 views"},
		{"{unknown}-{name}", "{unknown}-Sol Badguy Recolor"},
		{"{category:6}|", "Sol   |"},
		{"{views:-6}|", "  1200|"},
		{"{name:4}", "Sol Badguy Recolor"},
		{"{category:x}", "{category:x}"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := ExpandPattern(tt.pattern, toks); got != tt.want {
			t.Errorf("ExpandPattern(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestExpandPatternPadsByRune(t *testing.T) {
	got := ExpandPattern("{name:6}|", map[string]string{"name": "ソル"})
	if got != "ソル    |" {
		t.Fatalf("got %q", got)
	}
}
