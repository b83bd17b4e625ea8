package seed

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/store"
)

func TestLoadDefaults(t *testing.T) {
	d, err := LoadDefaults()
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if len(d.Languages) != 5 {
		t.Fatalf("expected 5 languages, got %d", len(d.Languages))
	}
	for _, l := range d.Languages {
		if len(l.Snippets) == 0 {
			t.Fatalf("language %s has no snippets", l.Name)
		}
		for _, sn := range l.Snippets {
			if !model.ValidDifficulty(sn.Difficulty) || sn.Difficulty == "" {
				t.Fatalf("snippet %q has bad difficulty %q", sn.Title, sn.Difficulty)
			}
			if strings.HasPrefix(sn.Code, "\n") || strings.HasSuffix(sn.Code, "\n") {
				t.Fatalf("snippet %q has surrounding newlines", sn.Title)
			}
		}
	}
	for _, a := range d.Achievements {
		var c map[string]any
		if err := json.Unmarshal([]byte(a.Criteria), &c); err != nil {
			t.Fatalf("achievement %q has invalid criteria: %v", a.Name, err)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "codetype.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()

	first, err := Seed(ctx, st)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if first == 0 {
		t.Fatalf("expected snippets inserted")
	}
	second, err := Seed(ctx, st)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if second != 0 {
		t.Fatalf("expected no snippets on second seed, got %d", second)
	}

	py, err := st.GetLanguageByName(ctx, "python")
	if err != nil {
		t.Fatalf("get python: %v", err)
	}
	if py.SnippetCount != 3 || py.Icon != "🐍" {
		t.Fatalf("unexpected python language: %+v", py)
	}
	achievements, err := st.ListAchievements(ctx)
	if err != nil {
		t.Fatalf("list achievements: %v", err)
	}
	if len(achievements) != 6 {
		t.Fatalf("expected 6 achievements, got %d", len(achievements))
	}
}
