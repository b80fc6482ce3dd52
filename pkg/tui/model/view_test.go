package model

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"

	"github.com/modoterra/colacup/pkg/core"
	"github.com/modoterra/colacup/pkg/details"
)

func TestRenderDetailsKeepsNumberLiterals(t *testing.T) {
	rec := core.LogRecord{Content: `order {"id":12345678901234567891,"price":0.1000}`}

	for _, color := range []bool{false, true} {
		out := ansi.Strip(RenderDetails(details.Build(rec), 0, color))
		for _, want := range []string{"12345678901234567891", "0.1000"} {
			if !strings.Contains(out, want) {
				t.Errorf("color=%v: output missing %s:\n%s", color, want, out)
			}
		}
	}
}

func TestRenderJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"indents and keeps key order", `{"b":1,"a":[true,null]}`, "{\n  \"b\": 1,\n  \"a\": [\n    true,\n    null\n  ]\n}"},
		{"not json", `{oops}`, `{oops}`},
		{"greedy span of two objects", `{"a":1} and {"b":2}`, `{"a":1} and {"b":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderJSON(tt.raw, false); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderJSONColorFallsBackOnTrailingData(t *testing.T) {
	raw := `{"a":1} and {"b":2}`
	if got := renderJSON(raw, true); got != raw {
		t.Errorf("got %q, want raw payload", got)
	}
}

func TestTruncateMultibyte(t *testing.T) {
	got := truncate("日本語のログメッセージ", 9)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate split a rune: %q", got)
	}
	if w := ansi.StringWidth(got); w > 9 {
		t.Errorf("width %d exceeds 9: %q", w, got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing tail: %q", got)
	}
	if got := truncate("short", 9); got != "short" {
		t.Errorf("short string changed: %q", got)
	}
}
