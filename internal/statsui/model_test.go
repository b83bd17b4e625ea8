package statsui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/codetype/internal/model"
)

type fakeStore struct {
	results []model.ResultAggregate
	chars   []model.CharAggregate
	lastCfg model.StatsConfig
}

func (f *fakeStore) ListResults(_ context.Context, cfg model.StatsConfig) ([]model.ResultAggregate, error) {
	f.lastCfg = cfg
	return f.results, nil
}

func (f *fakeStore) ListCharAggregatesForResults(context.Context, []string) ([]model.CharAggregate, error) {
	return f.chars, nil
}

func (f *fakeStore) ListLanguages(context.Context) ([]model.Language, error) {
	return []model.Language{{ID: "l1", Name: "python"}}, nil
}

func (f *fakeStore) ListCharStatsForResults(_ context.Context, ids []string, chars []string) (map[string]map[string]model.CharAggregate, error) {
	out := map[string]map[string]model.CharAggregate{}
	for _, id := range ids {
		out[id] = map[string]model.CharAggregate{}
		for _, ch := range chars {
			out[id][ch] = model.CharAggregate{Char: ch, Correct: 3, Incorrect: 1}
		}
	}
	return out, nil
}

func newStore() *fakeStore {
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	return &fakeStore{
		results: []model.ResultAggregate{
			{ResultID: "r1", CompletedAt: base, LanguageID: "l1", WPM: 40, Accuracy: 90, TimeSpent: 60, Errors: 4},
			{ResultID: "r2", CompletedAt: base.Add(time.Hour), LanguageID: "l1", WPM: 60, Accuracy: 95, TimeSpent: 45, Errors: 2},
		},
		chars: []model.CharAggregate{
			{Char: "a", Correct: 10, Incorrect: 2},
			{Char: ":", Correct: 3, Incorrect: 3},
			{Char: " ", Correct: 20},
		},
	}
}

func sized(m *Model) *Model {
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestOverviewShowsSummary(t *testing.T) {
	m := sized(NewModel(newStore(), model.StatsConfig{UserID: "local", CurveWindow: 2}))
	out := m.View()
	for _, want := range []string{"Overview", "Results", "Tests", "50.0", "Learning Curves"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}

func TestTabsNavigate(t *testing.T) {
	m := sized(NewModel(newStore(), model.StatsConfig{CurveWindow: 2}))
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabResults {
		t.Fatalf("expected results tab, got %d", m.activeTab)
	}
	if out := m.View(); !strings.Contains(out, "python") {
		t.Fatalf("expected language name in results table:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if out := m.View(); !strings.Contains(out, "<space>") {
		t.Fatalf("expected char table:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if out := m.View(); !strings.Contains(out, "Per-Character Curves") {
		t.Fatalf("expected char curves:\n%s", out)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabOverview {
		t.Fatalf("expected wrap to overview")
	}
}

func TestCharSelectionSkipsWhitespace(t *testing.T) {
	m := NewModel(newStore(), model.StatsConfig{})
	if len(m.charSelection) != 2 {
		t.Fatalf("expected 2 chars, got %v", m.charSelection)
	}
	for _, ch := range m.charSelection {
		if ch == " " {
			t.Fatalf("whitespace selected: %v", m.charSelection)
		}
	}
}

func TestWindowKeys(t *testing.T) {
	m := sized(NewModel(newStore(), model.StatsConfig{CurveWindow: 5}))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'='}})
	if m.cfg.CurveWindow != 10 {
		t.Fatalf("expected window 10, got %d", m.cfg.CurveWindow)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	if m.cfg.CurveWindow != 1 {
		t.Fatalf("expected window 1, got %d", m.cfg.CurveWindow)
	}
}

func TestApplyFilterKeepsUser(t *testing.T) {
	st := newStore()
	m := NewModel(st, model.StatsConfig{UserID: "local", CurveWindow: 5})
	m.filterInputs[0].SetValue("python")
	m.filterInputs[2].SetValue("10")
	m.filterInputs[3].SetValue("3")
	if err := m.applyFilter(); err != nil {
		t.Fatalf("applyFilter: %v", err)
	}
	m.refreshReport()
	if st.lastCfg.UserID != "local" || st.lastCfg.Lang != "python" || st.lastCfg.Last != 10 {
		t.Fatalf("unexpected config %+v", st.lastCfg)
	}
	if m.cfg.CurveWindow != 3 {
		t.Fatalf("expected window 3, got %d", m.cfg.CurveWindow)
	}
}

func TestApplyFilterRejectsBadInput(t *testing.T) {
	m := NewModel(newStore(), model.StatsConfig{CurveWindow: 5})
	m.filterInputs[1].SetValue("yesterday")
	if err := m.applyFilter(); err == nil {
		t.Fatalf("expected since error")
	}
	m.filterInputs[1].SetValue("")
	m.filterInputs[3].SetValue("0")
	if err := m.applyFilter(); err == nil {
		t.Fatalf("expected window error")
	}
}

func TestCurveWindowSteps(t *testing.T) {
	tests := []struct{ in, next, prev int }{
		{in: 1, next: 5, prev: 1},
		{in: 5, next: 10, prev: 1},
		{in: 7, next: 10, prev: 5},
		{in: 20, next: 25, prev: 15},
	}
	for _, tt := range tests {
		if got := nextCurveWindow(tt.in); got != tt.next {
			t.Fatalf("next(%d) = %d, want %d", tt.in, got, tt.next)
		}
		if got := prevCurveWindow(tt.in); got != tt.prev {
			t.Fatalf("prev(%d) = %d, want %d", tt.in, got, tt.prev)
		}
	}
}

func TestParseChars(t *testing.T) {
	if got := parseChars("a, b,,c"); strings.Join(got, "") != "abc" {
		t.Fatalf("unexpected %v", got)
	}
	if got := parseChars("xyz"); len(got) != 3 {
		t.Fatalf("unexpected %v", got)
	}
	if got := normalizeCharInput("a, b\tc"); got != "abc" {
		t.Fatalf("unexpected %q", got)
	}
}
