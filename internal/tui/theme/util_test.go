package theme

import (
	"strings"
	"testing"
)

// stripEscapes removes ANSI sequences so assertions see plain runes.
func stripEscapes(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		if r == 0x1b {
			inEscape = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func TestInterpolateColorEndpoints(t *testing.T) {
	if got := InterpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("pos 0 = %s, want #000000", got)
	}
	if got := InterpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("pos 1 = %s, want #ffffff", got)
	}
}

func TestInterpolateColorMidpoint(t *testing.T) {
	if got := InterpolateColor("#000000", "#ffffff", 0.5); got != "#7f7f7f" {
		t.Errorf("pos 0.5 = %s, want #7f7f7f", got)
	}
}

func TestParseHexColor(t *testing.T) {
	r, g, b := ParseHexColor("#cba6f7")
	if r != 0xcb || g != 0xa6 || b != 0xf7 {
		t.Errorf("ParseHexColor = %02x%02x%02x, want cba6f7", r, g, b)
	}
}

func TestApplyGradientKeepsShape(t *testing.T) {
	const line = "█▀▀ ▀ ▀█▀"
	got := stripEscapes(ApplyGradient(line, "#cba6f7", "#89b4fa"))
	if got != line {
		t.Errorf("gradient altered the text: %q", got)
	}
}

func TestApplyGradientEmpty(t *testing.T) {
	if got := ApplyGradient("", "#cba6f7", "#89b4fa"); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
