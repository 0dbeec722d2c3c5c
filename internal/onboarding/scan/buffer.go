// Package scan decodes keystroke-wedge input from RFID/QR/barcode readers
// into discrete scan events. The hardware types its payload like a keyboard;
// a burst is delimited only by timing and an optional carriage return.
package scan

import (
	"strings"
	"sync"
	"time"
)

// Reason explains why a scan event was not accepted. Rejections are routine
// scanner noise, communicated as unaccepted events rather than errors.
type Reason string

const (
	ReasonTooShort  Reason = "too_short"
	ReasonDuplicate Reason = "duplicate"
)

// Event is one decoded read from the input device.
type Event struct {
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	Accepted  bool      `json:"accepted"`
	Reason    Reason    `json:"reason,omitempty"`
}

// Timer is the cancellable flush timer. *time.Timer satisfies it.
type Timer interface {
	Reset(d time.Duration) bool
	Stop() bool
}

// TimerFactory creates a timer that fires fn after d. Tests substitute a
// manual implementation so flushes are driven deterministically.
type TimerFactory func(d time.Duration, fn func()) Timer

func afterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

const (
	// DefaultFlushWindow is how long the buffer waits after the last
	// character before treating the burst as complete.
	DefaultFlushWindow = 300 * time.Millisecond
	// DefaultMinLength is the shortest payload accepted as a real scan.
	DefaultMinLength = 5
)

// Buffer accumulates one scanning session's keystrokes. One buffer and one
// flush timer per session; no cross-session state.
type Buffer struct {
	mu           sync.Mutex
	window       time.Duration
	minLen       int
	now          func() time.Time
	newTimer     TimerFactory
	onEvent      func(Event)
	pending      strings.Builder
	lastAccepted string
	timer        Timer
	closed       bool
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithFlushWindow overrides the idle window after which the buffer flushes.
func WithFlushWindow(d time.Duration) Option {
	return func(b *Buffer) {
		if d > 0 {
			b.window = d
		}
	}
}

// WithMinLength overrides the minimum accepted payload length.
func WithMinLength(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.minLen = n
		}
	}
}

// WithClock injects the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(b *Buffer) {
		if now != nil {
			b.now = now
		}
	}
}

// WithTimerFactory injects the flush timer implementation.
func WithTimerFactory(f TimerFactory) Option {
	return func(b *Buffer) {
		if f != nil {
			b.newTimer = f
		}
	}
}

// New creates a buffer that hands completed events to onEvent. Events are
// delivered synchronously from Input or from the timer goroutine; the
// callback must not call back into the buffer.
func New(onEvent func(Event), opts ...Option) *Buffer {
	b := &Buffer{
		window:   DefaultFlushWindow,
		minLen:   DefaultMinLength,
		now:      time.Now,
		newTimer: afterFunc,
		onEvent:  onEvent,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Input feeds raw characters from the input channel. A carriage return (or
// newline) flushes immediately; any other character restarts the idle timer.
func (b *Buffer) Input(chars string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, r := range chars {
		if r == '\r' || r == '\n' {
			b.flushLocked()
			continue
		}
		b.pending.WriteRune(r)
		b.armTimerLocked()
	}
}

// Flush forces the pending burst to be evaluated now. The timer calls this
// when the idle window expires.
func (b *Buffer) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.flushLocked()
}

// Close stops the flush timer and drops any pending input. A closed buffer
// ignores further characters; closing is how a cancelled session guarantees
// no late event fires.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.stopTimerLocked()
	b.pending.Reset()
}

// LastAccepted returns the most recent accepted code, or "" if none is
// remembered (including after a duplicate rejection cleared it).
func (b *Buffer) LastAccepted() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAccepted
}

func (b *Buffer) armTimerLocked() {
	if b.timer == nil {
		b.timer = b.newTimer(b.window, b.Flush)
		return
	}
	b.timer.Reset(b.window)
}

func (b *Buffer) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
	}
}

// flushLocked evaluates the pending burst as one complete scan.
func (b *Buffer) flushLocked() {
	b.stopTimerLocked()

	raw := b.pending.String()
	b.pending.Reset()
	if raw == "" {
		// Terminator with nothing buffered; pure noise.
		return
	}

	code := strings.TrimSpace(raw)
	event := Event{Code: code, Timestamp: b.now()}

	switch {
	case len(code) < b.minLen:
		event.Reason = ReasonTooShort
	case code == b.lastAccepted:
		// An accidental double-tap. Clearing the remembered value forces a
		// second distinct tap rather than silently accepting a repeat.
		event.Reason = ReasonDuplicate
		b.lastAccepted = ""
	default:
		event.Accepted = true
		b.lastAccepted = code
	}

	if b.onEvent != nil {
		b.onEvent(event)
	}
}
