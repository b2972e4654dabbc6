package privacy

import (
	"testing"
)

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"secret_abcdefghijklmnop", "secr...mnop"},
		{"ntn_1234567890", "ntn_...7890"},
		{"  secret_abcdefghijklmnop  ", "secr...mnop"},
		{"", "MISSING"},
		{"   ", "MISSING"},
		{"short", "[REDACTED]"},
		{"12345678", "[REDACTED]"},
		{"123456789", "1234...6789"},
	}

	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOrMissing(t *testing.T) {
	if got := OrMissing(""); got != "MISSING" {
		t.Errorf("got %q", got)
	}
	if got := OrMissing("abc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestScrub_LiteralSecret(t *testing.T) {
	got := Scrub("Authorization: Bearer my-custom-token failed", "my-custom-token")
	want := "Authorization: Bearer [REDACTED] failed"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScrub_TokenPatterns(t *testing.T) {
	got := Scrub("tokens secret_AbC123xyz789 and ntn_99887766554433 leaked")
	want := "tokens [REDACTED] and [REDACTED] leaked"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestScrub_NoMatch(t *testing.T) {
	in := "notion: HTTP 404 object_not_found: Could not find database"
	if got := Scrub(in, ""); got != in {
		t.Errorf("got %q, want unchanged", got)
	}
}
