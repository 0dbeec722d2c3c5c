// Package session manages in-progress verification sessions: the checklist
// gate an operator is working through, and, at the terminal stage, the scan
// buffer fed by the badge reader. Sessions are transient; cancelling one
// discards its state with no side effects on the record.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"induct/internal/onboarding/metrics"
	"induct/internal/onboarding/scan"
	"induct/internal/onboarding/stages"
	id "induct/pkg/domain"
	dErrors "induct/pkg/domain-errors"
)

// Session is one operator's in-flight verification of one record at one
// stage. Never shared across records or stages.
type Session struct {
	ID          id.SessionID
	PersonnelID id.PersonnelID
	Stage       int
	CreatedAt   time.Time

	mu     sync.Mutex
	gate   *stages.Gate
	buffer *scan.Buffer
	events []scan.Event
}

// Toggle flips one checklist item.
func (s *Session) Toggle(item string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.Toggle(item)
}

// SetAll checks or unchecks every item.
func (s *Session) SetAll(value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate.SetAll(value)
}

// Checklist returns a copy of the current item states.
func (s *Session) Checklist() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.Items()
}

// AllChecked reports whether the gate is fully satisfied.
func (s *Session) AllChecked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gate.AllChecked()
}

// Input feeds raw scanner characters into the session's buffer. Only
// terminal-stage sessions have one.
func (s *Session) Input(chars string) error {
	s.mu.Lock()
	buffer := s.buffer
	s.mu.Unlock()
	if buffer == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "this stage does not take scan input")
	}
	buffer.Input(chars)
	return nil
}

// Events returns the scan events decoded so far, oldest first.
func (s *Session) Events() []scan.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scan.Event(nil), s.events...)
}

// AcceptedScan returns the most recent accepted scan code, or "".
func (s *Session) AcceptedScan() string {
	s.mu.Lock()
	buffer := s.buffer
	s.mu.Unlock()
	if buffer == nil {
		return ""
	}
	return buffer.LastAccepted()
}

func (s *Session) recordEvent(e scan.Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *Session) close() {
	// Do not hold s.mu across Close: a concurrent flush holds the buffer
	// lock while delivering events into recordEvent.
	s.mu.Lock()
	buffer := s.buffer
	s.mu.Unlock()
	if buffer != nil {
		buffer.Close()
	}
}

// Manager tracks open sessions by ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	flushWindow  time.Duration
	minScanLen   int
	timerFactory scan.TimerFactory
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithScanFlushWindow sets the idle window for session scan buffers.
func WithScanFlushWindow(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.flushWindow = d
		}
	}
}

// WithScanMinLength sets the minimum accepted scan payload length.
func WithScanMinLength(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.minScanLen = n
		}
	}
}

// WithTimerFactory injects the flush timer implementation for tests.
func WithTimerFactory(f scan.TimerFactory) Option {
	return func(m *Manager) {
		if f != nil {
			m.timerFactory = f
		}
	}
}

// WithMetrics sets the metrics instance.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mx
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates an empty session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		flushWindow: scan.DefaultFlushWindow,
		minScanLen:  scan.DefaultMinLength,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a fresh session for verifying the record into the given
// stage. The checklist starts fully unchecked; terminal-stage sessions get
// a scan buffer wired to the manager's timing configuration.
func (m *Manager) Open(personnelID id.PersonnelID, stage int) (*Session, error) {
	if personnelID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "personnel ID is required")
	}
	def, ok := stages.Get(stage)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "stage out of range")
	}
	gate, err := stages.NewGate(stage)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:          id.SessionID(uuid.New()),
		PersonnelID: personnelID,
		Stage:       stage,
		CreatedAt:   m.now(),
		gate:        gate,
	}
	if def.RequiresScan {
		scanOpts := []scan.Option{
			scan.WithFlushWindow(m.flushWindow),
			scan.WithMinLength(m.minScanLen),
			scan.WithClock(m.now),
		}
		if m.timerFactory != nil {
			scanOpts = append(scanOpts, scan.WithTimerFactory(m.timerFactory))
		}
		session.buffer = scan.New(func(e scan.Event) {
			session.recordEvent(e)
			m.countScan(e)
		}, scanOpts...)
	}

	m.mu.Lock()
	m.sessions[session.ID.String()] = session
	m.mu.Unlock()

	m.logger.Debug("verification session opened",
		"session_id", session.ID,
		"personnel_id", personnelID,
		"stage", stage,
	)
	return session, nil
}

// Get returns an open session.
func (m *Manager) Get(sessionID id.SessionID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID.String()]; ok {
		return s, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "verification session not found")
}

// Close discards a session: the gate state is dropped and any pending scan
// flush timer is cancelled. The record itself is untouched.
func (m *Manager) Close(sessionID id.SessionID) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID.String()]
	if ok {
		delete(m.sessions, sessionID.String())
	}
	m.mu.Unlock()
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "verification session not found")
	}
	session.close()
	m.logger.Debug("verification session closed", "session_id", sessionID)
	return nil
}

// Open sessions, for health reporting.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) countScan(e scan.Event) {
	if m.metrics == nil {
		return
	}
	outcome := "accepted"
	if !e.Accepted {
		outcome = string(e.Reason)
	}
	m.metrics.IncrementScanEvents(outcome)
}
