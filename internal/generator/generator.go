// Package generator picks the next snippet to practice.
package generator

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/codetype/internal/model"
)

// Generator chooses snippets at random.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Pick selects a snippet uniformly. It reports false for an empty list.
func (g *Generator) Pick(snippets []model.Snippet) (model.Snippet, bool) {
	if len(snippets) == 0 {
		return model.Snippet{}, false
	}
	return snippets[g.rnd.Intn(len(snippets))], true
}

// PickWeighted selects a snippet with a bias toward ones containing weak
// characters. Each occurrence of a weak character adds factor to the weight.
func (g *Generator) PickWeighted(snippets []model.Snippet, weakSet map[rune]struct{}, factor float64) (model.Snippet, bool) {
	if len(snippets) == 0 {
		return model.Snippet{}, false
	}
	if len(weakSet) == 0 || factor <= 0 {
		return g.Pick(snippets)
	}
	weights := make([]float64, len(snippets))
	total := 0.0
	for i, sn := range snippets {
		weakCount := 0
		for _, r := range sn.Code {
			if _, ok := weakSet[r]; ok {
				weakCount++
			}
		}
		w := 1.0 + float64(weakCount)*factor
		weights[i] = w
		total += w
	}

	r := g.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return snippets[i], true
		}
	}
	return snippets[len(snippets)-1], true
}

// PickNext picks like PickWeighted but avoids repeating skipID when there
// is another choice.
func (g *Generator) PickNext(snippets []model.Snippet, skipID string, weakSet map[rune]struct{}, factor float64) (model.Snippet, bool) {
	if len(snippets) > 1 && skipID != "" {
		filtered := make([]model.Snippet, 0, len(snippets))
		for _, sn := range snippets {
			if sn.ID != skipID {
				filtered = append(filtered, sn)
			}
		}
		snippets = filtered
	}
	return g.PickWeighted(snippets, weakSet, factor)
}
