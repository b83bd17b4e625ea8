package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/codetype/internal/model"
	"github.com/verte-zerg/codetype/internal/session"
)

func TestRenderFooterFormats(t *testing.T) {
	clock := &manualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := &Model{
		ctrl:    session.New(session.Reference{SnippetID: "s", Content: "abcd"}, session.WithClock(clock)),
		hasLast: true,
		lastWPM: 72.4,
		lastAcc: 97.8,
		history: []model.ResultAggregate{{WPM: 68.1, Accuracy: 96.9}},
		allWPM:  68.1,
		allAcc:  96.9,
	}
	m.ctrl.Input("a")
	clock.Advance(6 * time.Second)
	m.ctrl.Input("ab")

	out := m.renderFooter()
	if out == "" {
		t.Fatalf("expected footer output")
	}
	want := []string{"Time 1:54", "4 WPM", "Acc 100.0%", "Err 0", "Progress 50%", "Last 72.4 WPM", "97.8%", "All-time 68.1 WPM", "96.9%"}
	if !containsAll(out, want) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterWithoutHistory(t *testing.T) {
	m := &Model{ctrl: session.New(session.Reference{Content: "abcd"})}
	out := m.renderFooter()
	if strings.Contains(out, "Last") || strings.Contains(out, "All-time") {
		t.Fatalf("unexpected history segments: %s", out)
	}
	if !strings.Contains(out, "Time 2:00") {
		t.Fatalf("expected full time budget: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
