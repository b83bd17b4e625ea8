package stats

import (
	"sort"

	"github.com/samber/lo"

	"github.com/verte-zerg/codetype/internal/model"
)

// TopCharsByFrequency returns the top N characters by total frequency.
// Whitespace is skipped since it makes for unreadable curves.
func TopCharsByFrequency(aggs []model.CharAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := lo.Filter(aggs, func(agg model.CharAggregate, _ int) bool {
		return CharLabel(agg.Char) == agg.Char
	})
	sort.Slice(items, func(i, j int) bool {
		ti := items[i].Correct + items[i].Incorrect
		tj := items[j].Correct + items[j].Incorrect
		if ti == tj {
			return items[i].Char < items[j].Char
		}
		return ti > tj
	})
	if n > len(items) {
		n = len(items)
	}
	return lo.Map(items[:n], func(agg model.CharAggregate, _ int) string { return agg.Char })
}

// SelectWeakChars selects the lowest-accuracy characters from aggregates.
// Characters that were never missed are never weak.
func SelectWeakChars(aggs []model.CharAggregate, top int) map[rune]struct{} {
	weakSet := map[rune]struct{}{}
	candidates := lo.Filter(aggs, func(agg model.CharAggregate, _ int) bool {
		return agg.Incorrect > 0
	})
	sort.Slice(candidates, func(i, j int) bool {
		ai := accuracy(candidates[i])
		aj := accuracy(candidates[j])
		if ai == aj {
			return candidates[i].Char < candidates[j].Char
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for _, c := range candidates[:top] {
		runes := []rune(c.Char)
		if len(runes) > 0 {
			weakSet[runes[0]] = struct{}{}
		}
	}
	return weakSet
}

func accuracy(agg model.CharAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}
