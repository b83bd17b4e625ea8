// Package session runs a single timed typing attempt.
package session

import (
	"math"
	"time"

	"github.com/verte-zerg/codetype/internal/scoring"
)

// DefaultDuration is the time budget for one attempt.
const DefaultDuration = 120 * time.Second

// Phase is the lifecycle stage of an attempt.
type Phase int

const (
	Idle Phase = iota
	Running
	Complete
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Reference is the text being typed.
type Reference struct {
	SnippetID string
	Content   string
}

// Result is emitted once when an attempt completes.
type Result struct {
	SnippetID   string
	WPM         int
	Accuracy    float64
	TimeSpent   int
	Errors      int
	StartedAt   time.Time
	CompletedAt time.Time
	TimedOut    bool
	Chars       []scoring.CharCount
}

// View holds the values shown while typing.
type View struct {
	Phase         Phase
	SnippetID     string
	Reference     string
	Typed         string
	WPM           float64
	Accuracy      float64
	Errors        int
	Elapsed       time.Duration
	TimeRemaining time.Duration
	Progress      float64
}

// RoundedWPM returns the WPM rounded for display.
func (v View) RoundedWPM() int {
	return int(math.Round(v.WPM))
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithSink sets where completed results go.
func WithSink(s ResultSink) Option {
	return func(ctrl *Controller) { ctrl.sink = s }
}

// WithTimer sets the tick source started when typing begins.
func WithTimer(f TimerFunc) Option {
	return func(ctrl *Controller) { ctrl.newTimer = f }
}

// WithDuration overrides DefaultDuration.
func WithDuration(d time.Duration) Option {
	return func(ctrl *Controller) {
		if d > 0 {
			ctrl.duration = d
		}
	}
}

type state struct {
	phase     Phase
	ref       Reference
	typed     string
	startedAt time.Time
	elapsed   time.Duration
	remaining time.Duration
	score     scoring.Snapshot
	timer     Timer
}

// Controller owns one attempt at a time. It is not safe for concurrent use;
// callers serialize Input, Tick and Reset.
type Controller struct {
	clock    Clock
	sink     ResultSink
	newTimer TimerFunc
	duration time.Duration
	st       state
}

// New returns an idle controller for ref.
func New(ref Reference, opts ...Option) *Controller {
	c := &Controller{
		clock:    SystemClock{},
		duration: DefaultDuration,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.st = c.fresh(ref)
	return c
}

func (c *Controller) fresh(ref Reference) state {
	return state{
		phase:     Idle,
		ref:       ref,
		score:     scoring.ComputeScore("", ref.Content, 0),
		remaining: c.duration,
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.st.phase
}

// Duration returns the time budget per attempt.
func (c *Controller) Duration() time.Duration {
	return c.duration
}

// Input replaces the typed text with text.
func (c *Controller) Input(text string) {
	var now time.Time
	switch c.st.phase {
	case Complete:
		return
	case Idle:
		if text == "" {
			return
		}
		now = c.clock.Now()
		c.st.phase = Running
		c.st.startedAt = now
		c.st.typed = text
		c.st.remaining = c.duration
		if c.newTimer != nil {
			c.st.timer = c.newTimer()
		}
		c.refresh(now)
	case Running:
		now = c.clock.Now()
		if now.Sub(c.st.startedAt) >= c.duration {
			// Deadline passed before this input arrived.
			c.refresh(now)
			c.complete(now, true)
			return
		}
		c.st.typed = text
		c.refresh(now)
	}
	if len([]rune(c.st.typed)) >= len([]rune(c.st.ref.Content)) {
		c.complete(now, false)
	}
}

// Tick refreshes the elapsed time and completes the attempt on timeout.
func (c *Controller) Tick() {
	if c.st.phase != Running {
		return
	}
	now := c.clock.Now()
	c.refresh(now)
	if c.st.remaining == 0 {
		c.complete(now, true)
	}
}

// Reset discards the current attempt and starts over on ref.
func (c *Controller) Reset(ref Reference) {
	c.stopTimer()
	c.st = c.fresh(ref)
}

// Restart resets with the current reference.
func (c *Controller) Restart() {
	c.Reset(c.st.ref)
}

// Close stops the timer of a running attempt.
func (c *Controller) Close() {
	c.stopTimer()
}

// View returns the current display values.
func (c *Controller) View() View {
	return View{
		Phase:         c.st.phase,
		SnippetID:     c.st.ref.SnippetID,
		Reference:     c.st.ref.Content,
		Typed:         c.st.typed,
		WPM:           c.st.score.WPM,
		Accuracy:      c.st.score.AccuracyPercent,
		Errors:        c.st.score.ErrorCount,
		Elapsed:       c.st.elapsed,
		TimeRemaining: c.st.remaining,
		Progress:      scoring.Progress(c.st.typed, c.st.ref.Content),
	}
}

func (c *Controller) refresh(now time.Time) {
	elapsed := now.Sub(c.st.startedAt)
	if elapsed < c.st.elapsed {
		elapsed = c.st.elapsed
	}
	c.st.elapsed = elapsed
	c.st.remaining = c.duration - elapsed
	if c.st.remaining < 0 {
		c.st.remaining = 0
	}
	c.st.score = scoring.ComputeScore(c.st.typed, c.st.ref.Content, elapsed)
}

func (c *Controller) complete(now time.Time, timedOut bool) {
	c.st.phase = Complete
	c.stopTimer()
	result := Result{
		SnippetID:   c.st.ref.SnippetID,
		WPM:         c.st.score.RoundedWPM(),
		Accuracy:    c.st.score.AccuracyPercent,
		TimeSpent:   int(math.Round(c.st.elapsed.Seconds())),
		Errors:      c.st.score.ErrorCount,
		StartedAt:   c.st.startedAt,
		CompletedAt: now,
		TimedOut:    timedOut,
		Chars:       scoring.Breakdown(c.st.typed, c.st.ref.Content),
	}
	if c.sink != nil {
		c.sink.Submit(result)
	}
}

func (c *Controller) stopTimer() {
	if c.st.timer != nil {
		c.st.timer.Stop()
		c.st.timer = nil
	}
}
