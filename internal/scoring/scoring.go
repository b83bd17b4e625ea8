// Package scoring computes typing speed and accuracy.
package scoring

import (
	"math"
	"time"
)

// CharsPerWord is the standard word length used for WPM.
const CharsPerWord = 5

// Snapshot is a point-in-time score for typed text.
type Snapshot struct {
	WPM             float64
	AccuracyPercent float64
	ErrorCount      int
}

// RoundedWPM returns the WPM rounded to the nearest integer.
func (s Snapshot) RoundedWPM() int {
	return int(math.Round(s.WPM))
}

// ComputeScore compares typed against reference rune by rune.
// Positions past the end of reference count as errors.
func ComputeScore(typed, reference string, elapsed time.Duration) Snapshot {
	typedRunes := []rune(typed)
	refRunes := []rune(reference)

	errs := 0
	for i, r := range typedRunes {
		if i >= len(refRunes) || r != refRunes[i] {
			errs++
		}
	}
	return Snapshot{
		WPM:             WPM(len(typedRunes), elapsed),
		AccuracyPercent: accuracyPercent(len(typedRunes), errs),
		ErrorCount:      errs,
	}
}

// WPM returns words per minute for a character count over elapsed time.
func WPM(chars int, elapsed time.Duration) float64 {
	ms := elapsed.Milliseconds()
	if ms <= 0 {
		return 0
	}
	minutes := float64(ms) / 60000.0
	return (float64(chars) / CharsPerWord) / minutes
}

func accuracyPercent(typed, errs int) float64 {
	if typed == 0 {
		return 100
	}
	acc := 100 * float64(typed-errs) / float64(typed)
	return math.Max(0, math.Min(100, acc))
}

// Progress returns how much of reference has been typed, in percent.
func Progress(typed, reference string) float64 {
	refLen := len([]rune(reference))
	if refLen == 0 {
		return 0
	}
	p := 100 * float64(len([]rune(typed))) / float64(refLen)
	if p > 100 {
		return 100
	}
	return p
}
