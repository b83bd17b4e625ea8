package scoring

import "sort"

// CharCount holds correct and incorrect hits for one character.
type CharCount struct {
	Char      string
	Correct   int
	Incorrect int
}

// Breakdown returns per-character counts keyed by the expected character.
// Overflow positions are attributed to the typed character.
func Breakdown(typed, reference string) []CharCount {
	typedRunes := []rune(typed)
	refRunes := []rune(reference)

	counts := map[rune]*CharCount{}
	get := func(r rune) *CharCount {
		c, ok := counts[r]
		if !ok {
			c = &CharCount{Char: string(r)}
			counts[r] = c
		}
		return c
	}
	for i, r := range typedRunes {
		if i >= len(refRunes) {
			get(r).Incorrect++
			continue
		}
		if r == refRunes[i] {
			get(refRunes[i]).Correct++
		} else {
			get(refRunes[i]).Incorrect++
		}
	}

	out := make([]CharCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Char < out[j].Char })
	return out
}
