package tui

import (
	"strings"
	"testing"
)

func TestBuildStyledRunesCursor(t *testing.T) {
	target := []rune("ab")
	input := []rune("a")
	cursorIndex := len(input)

	runes := buildStyledRunes(target, input, cursorIndex)
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != currentWordStyle.Underline(true).Render("b") {
		t.Fatalf("expected cursor style for second rune")
	}
}

func TestBuildStyledRunesKeepsTargetOnMistype(t *testing.T) {
	target := []rune("ab")
	input := []rune("ax")

	runes := buildStyledRunes(target, input, -1)
	if runes[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected incorrect style for second rune")
	}
}

func TestBuildStyledRunesWordHighlighting(t *testing.T) {
	target := []rune("one\ttwo")
	input := []rune("o")
	cursorIndex := len(input)

	runes := buildStyledRunes(target, input, cursorIndex)
	if runes[2].s != currentWordStyle.Render("e") {
		t.Fatalf("expected current word style for untyped in current word")
	}
	if runes[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestBuildStyledRunesWrongSpaceDot(t *testing.T) {
	runes := buildStyledRunes([]rune("a b"), []rune("ax"), 2)
	if runes[1].s != incorrectStyle.Render(string(wrongSpaceGlyph)) {
		t.Fatalf("expected dot for wrong space")
	}
}

func TestBuildStyledRunesNewlineGlyph(t *testing.T) {
	runes := buildStyledRunes([]rune("a\nb"), nil, 0)
	if !runes[1].newline {
		t.Fatalf("expected newline flag")
	}
	if runes[1].s != pendingStyle.Render(string(newlineGlyph)) {
		t.Fatalf("expected newline glyph, got %q", runes[1].s)
	}
	if runes[1].width != 1 {
		t.Fatalf("expected glyph width 1, got %d", runes[1].width)
	}
}

func TestBuildStyledRunesTabWidth(t *testing.T) {
	runes := buildStyledRunes([]rune("\tx"), nil, -1)
	if runes[0].width != tabWidth {
		t.Fatalf("expected tab width %d, got %d", tabWidth, runes[0].width)
	}
	if !runes[0].isSpace {
		t.Fatalf("expected tab to be a break point")
	}
}

func plain(s string) []styledRune {
	out := make([]styledRune, 0, len(s))
	for _, r := range s {
		item := styledRune{s: string(r), width: 1, isSpace: r == ' '}
		if r == '\n' {
			item.s = string(newlineGlyph)
			item.newline = true
		}
		out = append(out, item)
	}
	return out
}

func TestWrapStyledRunesBreaksAtSpace(t *testing.T) {
	got := wrapStyledRunes(plain("one two three"), 8)
	want := "one two \nthree"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWrapStyledRunesHardBreaksLongWord(t *testing.T) {
	got := wrapStyledRunes(plain("abcdefgh"), 3)
	want := "abc\ndef\ngh"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWrapStyledRunesKeepsNewlines(t *testing.T) {
	got := wrapStyledRunes(plain("if x:\n  y"), 80)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", got)
	}
	if lines[1] != "  y" {
		t.Fatalf("expected indentation kept, got %q", lines[1])
	}
}

func TestRenderStyledRunesWithoutWidth(t *testing.T) {
	got := renderStyledRunes(plain("a\nb"))
	if got != "a⏎\nb" {
		t.Fatalf("unexpected render %q", got)
	}
}
