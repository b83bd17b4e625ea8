package scoring

import (
	"math"
	"strings"
	"testing"
	"time"
)

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name      string
		typed     string
		reference string
		elapsed   time.Duration
		wantWPM   float64
		wantAcc   float64
		wantErrs  int
	}{
		{name: "empty input at zero time", typed: "", reference: "abc", elapsed: 0, wantWPM: 0, wantAcc: 100, wantErrs: 0},
		{name: "full mismatch", typed: "xxx", reference: "abc", elapsed: time.Minute, wantWPM: 0.6, wantAcc: 0, wantErrs: 3},
		{name: "fifty chars in a minute", typed: strings.Repeat("a", 50), reference: strings.Repeat("a", 100), elapsed: time.Minute, wantWPM: 10, wantAcc: 100, wantErrs: 0},
		{name: "exact snippet in six seconds", typed: "print(1)", reference: "print(1)", elapsed: 6 * time.Second, wantWPM: 16, wantAcc: 100, wantErrs: 0},
		{name: "one substitution", typed: "abXde", reference: "abcde", elapsed: time.Minute, wantWPM: 1, wantAcc: 80, wantErrs: 1},
		{name: "overflow counts as errors", typed: "abcde", reference: "abc", elapsed: time.Minute, wantWPM: 1, wantAcc: 60, wantErrs: 2},
		{name: "empty reference", typed: "ab", reference: "", elapsed: time.Minute, wantWPM: 0.4, wantAcc: 0, wantErrs: 2},
		{name: "zero elapsed", typed: "abc", reference: "abc", elapsed: 0, wantWPM: 0, wantAcc: 100, wantErrs: 0},
		{name: "multibyte runes", typed: "héllo", reference: "héllo", elapsed: time.Minute, wantWPM: 1, wantAcc: 100, wantErrs: 0},
		{name: "newlines are characters", typed: "a\nb", reference: "a b", elapsed: time.Minute, wantWPM: 0.6, wantAcc: 100 * 2.0 / 3.0, wantErrs: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore(tt.typed, tt.reference, tt.elapsed)
			if got.ErrorCount != tt.wantErrs {
				t.Fatalf("errors: expected %d, got %d", tt.wantErrs, got.ErrorCount)
			}
			if math.Abs(got.AccuracyPercent-tt.wantAcc) > 1e-9 {
				t.Fatalf("accuracy: expected %.4f, got %.4f", tt.wantAcc, got.AccuracyPercent)
			}
			if math.Abs(got.WPM-tt.wantWPM) > 1e-9 {
				t.Fatalf("wpm: expected %.4f, got %.4f", tt.wantWPM, got.WPM)
			}
		})
	}
}

func TestComputeScoreAppendMonotonic(t *testing.T) {
	reference := "func main() {}"
	typed := "func mian"
	base := ComputeScore(typed, reference, time.Second).ErrorCount

	next := []rune(reference)[len([]rune(typed))]
	matched := ComputeScore(typed+string(next), reference, time.Second).ErrorCount
	if matched != base {
		t.Fatalf("appending a matching char changed errors: %d -> %d", base, matched)
	}
	mismatched := ComputeScore(typed+"#", reference, time.Second).ErrorCount
	if mismatched != base+1 {
		t.Fatalf("appending a mismatched char: expected %d errors, got %d", base+1, mismatched)
	}
}

func TestComputeScoreAccuracyBounds(t *testing.T) {
	inputs := []string{"", "a", "abc", "zzzzzzzzzz", "abc\n\tdef", "ééé"}
	refs := []string{"", "abc", "a", "abc\n\tdef"}
	for _, typed := range inputs {
		for _, ref := range refs {
			acc := ComputeScore(typed, ref, time.Second).AccuracyPercent
			if acc < 0 || acc > 100 {
				t.Fatalf("accuracy out of range for %q/%q: %f", typed, ref, acc)
			}
		}
	}
}

func TestRoundedWPM(t *testing.T) {
	s := Snapshot{WPM: 41.5}
	if s.RoundedWPM() != 42 {
		t.Fatalf("expected 42, got %d", s.RoundedWPM())
	}
	s.WPM = 41.49
	if s.RoundedWPM() != 41 {
		t.Fatalf("expected 41, got %d", s.RoundedWPM())
	}
}

func TestProgress(t *testing.T) {
	if got := Progress("ab", ""); got != 0 {
		t.Fatalf("expected 0 for empty reference, got %f", got)
	}
	if got := Progress("ab", "abcd"); got != 50 {
		t.Fatalf("expected 50, got %f", got)
	}
	if got := Progress("abcdef", "abcd"); got != 100 {
		t.Fatalf("expected capped 100, got %f", got)
	}
}

func TestBreakdown(t *testing.T) {
	got := Breakdown("abXdeZ", "abcde")
	want := map[string]CharCount{
		"Z": {Char: "Z", Incorrect: 1},
		"a": {Char: "a", Correct: 1},
		"b": {Char: "b", Correct: 1},
		"c": {Char: "c", Incorrect: 1},
		"d": {Char: "d", Correct: 1},
		"e": {Char: "e", Correct: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d chars, got %d: %+v", len(want), len(got), got)
	}
	for _, c := range got {
		if want[c.Char] != c {
			t.Fatalf("unexpected count for %q: %+v", c.Char, c)
		}
	}
	if got[0].Char != "Z" {
		t.Fatalf("expected sorted output, got %+v", got)
	}
}
