package session

import (
	"testing"
	"time"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingTimer struct {
	stopped int
}

func (t *recordingTimer) Stop() { t.stopped++ }

type harness struct {
	clock   *manualClock
	timers  []*recordingTimer
	results []Result
	ctrl    *Controller
}

func newHarness(content string, opts ...Option) *harness {
	h := &harness{clock: &manualClock{now: time.Unix(1700000000, 0)}}
	base := []Option{
		WithClock(h.clock),
		WithSink(SinkFunc(func(r Result) { h.results = append(h.results, r) })),
		WithTimer(func() Timer {
			tm := &recordingTimer{}
			h.timers = append(h.timers, tm)
			return tm
		}),
	}
	h.ctrl = New(Reference{SnippetID: "snip-1", Content: content}, append(base, opts...)...)
	return h
}

func TestIdleIgnoresEmptyInput(t *testing.T) {
	h := newHarness("abc")
	h.ctrl.Input("")
	if h.ctrl.Phase() != Idle {
		t.Fatalf("expected idle, got %s", h.ctrl.Phase())
	}
	if len(h.timers) != 0 {
		t.Fatalf("expected no timer, got %d", len(h.timers))
	}
	v := h.ctrl.View()
	if v.Elapsed != 0 || v.WPM != 0 || v.Accuracy != 100 || v.TimeRemaining != DefaultDuration {
		t.Fatalf("unexpected idle view: %+v", v)
	}
}

func TestFirstInputStartsRunning(t *testing.T) {
	h := newHarness("abcdef")
	h.ctrl.Input("a")
	if h.ctrl.Phase() != Running {
		t.Fatalf("expected running, got %s", h.ctrl.Phase())
	}
	if len(h.timers) != 1 {
		t.Fatalf("expected one timer, got %d", len(h.timers))
	}
	h.clock.Advance(30 * time.Second)
	h.ctrl.Input("ab")
	v := h.ctrl.View()
	if v.Elapsed != 30*time.Second {
		t.Fatalf("expected 30s elapsed, got %s", v.Elapsed)
	}
	if v.TimeRemaining != 90*time.Second {
		t.Fatalf("expected 90s remaining, got %s", v.TimeRemaining)
	}
	if v.Progress < 33.3 || v.Progress > 33.4 {
		t.Fatalf("unexpected progress %f", v.Progress)
	}
	if len(h.timers) != 1 {
		t.Fatalf("expected timer to be started once, got %d", len(h.timers))
	}
}

func TestCompletionEmitsOnce(t *testing.T) {
	h := newHarness("abc")
	h.ctrl.Input("a")
	h.clock.Advance(time.Second)
	h.ctrl.Input("abc")
	if h.ctrl.Phase() != Complete {
		t.Fatalf("expected complete, got %s", h.ctrl.Phase())
	}
	h.ctrl.Input("abc")
	h.ctrl.Tick()
	if len(h.results) != 1 {
		t.Fatalf("expected one result, got %d", len(h.results))
	}
	if h.timers[0].stopped != 1 {
		t.Fatalf("expected timer stopped once, got %d", h.timers[0].stopped)
	}
	r := h.results[0]
	if r.SnippetID != "snip-1" || r.Errors != 0 || r.Accuracy != 100 || r.TimeSpent != 1 || r.WPM != 36 {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.TimedOut {
		t.Fatalf("expected completion by length")
	}
}

func TestCompletedIgnoresInput(t *testing.T) {
	h := newHarness("ab")
	h.ctrl.Input("ab")
	before := h.ctrl.View()
	h.clock.Advance(10 * time.Second)
	h.ctrl.Input("zzzz")
	h.ctrl.Tick()
	after := h.ctrl.View()
	if before != after {
		t.Fatalf("view changed after completion: %+v -> %+v", before, after)
	}
}

func TestExactSnippetScore(t *testing.T) {
	h := newHarness("print(1)")
	h.ctrl.Input("p")
	h.clock.Advance(6 * time.Second)
	h.ctrl.Input("print(1)")
	if len(h.results) != 1 {
		t.Fatalf("expected one result, got %d", len(h.results))
	}
	r := h.results[0]
	if r.WPM != 16 || r.Errors != 0 || r.Accuracy != 100 || r.TimeSpent != 6 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestSubstitutionScore(t *testing.T) {
	h := newHarness("abcde")
	h.ctrl.Input("a")
	h.clock.Advance(3 * time.Second)
	h.ctrl.Input("abXde")
	r := h.results[0]
	if r.Errors != 1 || r.Accuracy != 80 {
		t.Fatalf("unexpected result: %+v", r)
	}
}

func TestTimeoutForcesCompletion(t *testing.T) {
	h := newHarness("abcdefghij")
	h.ctrl.Input("abc")
	h.clock.Advance(60 * time.Second)
	h.ctrl.Tick()
	if h.ctrl.Phase() != Running {
		t.Fatalf("expected running after half the budget")
	}
	h.clock.Advance(60 * time.Second)
	h.ctrl.Tick()
	if h.ctrl.Phase() != Complete {
		t.Fatalf("expected complete after timeout, got %s", h.ctrl.Phase())
	}
	if h.ctrl.View().TimeRemaining != 0 {
		t.Fatalf("expected zero remaining")
	}
	if len(h.results) != 1 {
		t.Fatalf("expected one result, got %d", len(h.results))
	}
	r := h.results[0]
	if !r.TimedOut || r.TimeSpent != 120 || r.Errors != 0 {
		t.Fatalf("unexpected result: %+v", r)
	}
	if h.timers[0].stopped != 1 {
		t.Fatalf("expected timer stopped")
	}
}

func TestLateInputIsDropped(t *testing.T) {
	h := newHarness("abcdef")
	h.ctrl.Input("ab")
	h.clock.Advance(DefaultDuration + time.Second)
	h.ctrl.Input("abcdef")
	if h.ctrl.Phase() != Complete {
		t.Fatalf("expected complete, got %s", h.ctrl.Phase())
	}
	if h.ctrl.View().Typed != "ab" {
		t.Fatalf("expected late input dropped, got %q", h.ctrl.View().Typed)
	}
	if !h.results[0].TimedOut {
		t.Fatalf("expected timeout result")
	}
}

func TestResetMidSession(t *testing.T) {
	h := newHarness("abcdef")
	h.ctrl.Input("abc")
	h.clock.Advance(20 * time.Second)
	h.ctrl.Tick()

	h.ctrl.Restart()
	if h.ctrl.Phase() != Idle {
		t.Fatalf("expected idle after reset, got %s", h.ctrl.Phase())
	}
	if h.timers[0].stopped != 1 {
		t.Fatalf("expected first timer stopped on reset")
	}
	v := h.ctrl.View()
	if v.Typed != "" || v.Elapsed != 0 || v.Errors != 0 || v.TimeRemaining != DefaultDuration {
		t.Fatalf("expected fresh view, got %+v", v)
	}

	h.clock.Advance(5 * time.Second)
	h.ctrl.Input("a")
	if h.ctrl.Phase() != Running {
		t.Fatalf("expected running after new input")
	}
	if len(h.timers) != 2 {
		t.Fatalf("expected a new timer, got %d", len(h.timers))
	}
	h.clock.Advance(2 * time.Second)
	h.ctrl.Tick()
	if got := h.ctrl.View().Elapsed; got != 2*time.Second {
		t.Fatalf("expected elapsed measured from new start, got %s", got)
	}
	if len(h.results) != 0 {
		t.Fatalf("expected no result from discarded attempt")
	}
}

func TestResetWithNewReference(t *testing.T) {
	h := newHarness("abc")
	h.ctrl.Input("abc")
	h.ctrl.Reset(Reference{SnippetID: "snip-2", Content: "xyz"})
	v := h.ctrl.View()
	if v.Phase != Idle || v.SnippetID != "snip-2" || v.Reference != "xyz" {
		t.Fatalf("unexpected view after reset: %+v", v)
	}
	h.ctrl.Input("xyz")
	if len(h.results) != 2 || h.results[1].SnippetID != "snip-2" {
		t.Fatalf("expected second result for new snippet, got %+v", h.results)
	}
}

func TestCloseStopsTimer(t *testing.T) {
	h := newHarness("abcdef")
	h.ctrl.Input("a")
	h.ctrl.Close()
	if h.timers[0].stopped != 1 {
		t.Fatalf("expected timer stopped on close")
	}
}

func TestPasteCompletesOnFirstInput(t *testing.T) {
	h := newHarness("abc")
	h.ctrl.Input("abcdef")
	if h.ctrl.Phase() != Complete {
		t.Fatalf("expected complete, got %s", h.ctrl.Phase())
	}
	r := h.results[0]
	if r.Errors != 3 || r.WPM != 0 || r.Accuracy != 50 {
		t.Fatalf("unexpected result: %+v", r)
	}
	if h.ctrl.View().Progress != 100 {
		t.Fatalf("expected capped progress")
	}
}

func TestEmptyReference(t *testing.T) {
	h := newHarness("")
	if h.ctrl.View().Progress != 0 {
		t.Fatalf("expected zero progress")
	}
	h.ctrl.Input("x")
	if h.ctrl.Phase() != Complete || h.results[0].Errors != 1 {
		t.Fatalf("unexpected state: %s %+v", h.ctrl.Phase(), h.results)
	}
}

func TestCustomDuration(t *testing.T) {
	h := newHarness("abcdef", WithDuration(10*time.Second))
	h.ctrl.Input("a")
	h.clock.Advance(10 * time.Second)
	h.ctrl.Tick()
	if h.ctrl.Phase() != Complete {
		t.Fatalf("expected completion after custom duration")
	}
}
