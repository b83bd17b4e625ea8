package session

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// Timer is a running periodic tick source owned by a session.
type Timer interface {
	Stop()
}

// TimerFunc starts a tick source for a session that just started running.
type TimerFunc func() Timer

// ResultSink receives the result of a completed session.
type ResultSink interface {
	Submit(Result)
}

// SinkFunc adapts a function to ResultSink.
type SinkFunc func(Result)

// Submit calls f.
func (f SinkFunc) Submit(r Result) { f(r) }
