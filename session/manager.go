// Package session owns the HTTP transport's session identifier,
// last-event-id, and connection state machine.
package session

import (
	"sync"
	"unicode"
)

// State is one of the five connection states a Manager can be in.
type State int

const (
	Disconnected State = iota
	Connecting
	Active
	Reconnecting
	Closing
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Active:
		return "Active"
	case Reconnecting:
		return "Reconnecting"
	case Closing:
		return "Closing"
	default:
		return "Unknown"
	}
}

// maxSessionIDLength bounds the syntactic validity check applied to a
// server-issued session id before it is accepted.
const maxSessionIDLength = 256

// Option configures a Manager.
type Option func(*Manager)

// WithMaxSessionIDLength overrides the default session-id length bound.
func WithMaxSessionIDLength(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxSessionIDLen = n
		}
	}
}

// Manager tracks the session id, last-event-id, and connection state for a
// single HTTP+SSE transport instance.
type Manager struct {
	mu              sync.Mutex
	state           State
	sessionID       string
	haveSessionID   bool
	lastEventID     string
	haveLastEventID bool
	maxSessionIDLen int

	callbacksMu        sync.Mutex
	onStateChange      []func(old, new State)
	onSessionEstablish []func(id string)
	onSessionLost      []func()
}

// New creates a Manager in the Disconnected state.
func New(opts ...Option) *Manager {
	m := &Manager{
		state:           Disconnected,
		maxSessionIDLen: maxSessionIDLength,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BeginConnect transitions Disconnected|Reconnecting→Connecting. Returns
// false if the manager was in any other state.
func (m *Manager) BeginConnect() bool {
	return m.transition(func(s State) bool {
		return s == Disconnected || s == Reconnecting
	}, Connecting)
}

// ConnectionEstablished transitions Connecting|Reconnecting→Active and
// stores sid iff it passes a syntactic validity check. An invalid sid
// rejects the transition entirely.
func (m *Manager) ConnectionEstablished(sid string) bool {
	if !validSessionID(sid, m.sessionIDLimit()) {
		return false
	}

	var old State
	ok := false

	m.mu.Lock()
	if m.state == Connecting || m.state == Reconnecting {
		old = m.state
		m.state = Active
		m.sessionID = sid
		m.haveSessionID = true
		ok = true
	}
	m.mu.Unlock()

	if ok {
		m.fireStateChange(old, Active)
		m.fireSessionEstablished(sid)
	}
	return ok
}

func (m *Manager) sessionIDLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxSessionIDLen
}

// ConnectionFailed transitions Connecting|Reconnecting→Disconnected.
func (m *Manager) ConnectionFailed(reason string) {
	m.transition(func(s State) bool {
		return s == Connecting || s == Reconnecting
	}, Disconnected)
}

// SessionExpired transitions Active→Reconnecting and clears the stored
// session id.
func (m *Manager) SessionExpired() {
	var old State
	ok := false

	m.mu.Lock()
	if m.state == Active {
		old = m.state
		m.state = Reconnecting
		m.sessionID = ""
		m.haveSessionID = false
		ok = true
	}
	m.mu.Unlock()

	if ok {
		m.fireStateChange(old, Reconnecting)
		m.fireSessionLost()
	}
}

// RecordEventID updates the last-seen SSE event id, used for the
// Last-Event-ID header on reconnection.
func (m *Manager) RecordEventID(id string) {
	m.mu.Lock()
	m.lastEventID = id
	m.haveLastEventID = true
	m.mu.Unlock()
}

// ClearLastEventID discards the stored last-event-id.
func (m *Manager) ClearLastEventID() {
	m.mu.Lock()
	m.lastEventID = ""
	m.haveLastEventID = false
	m.mu.Unlock()
}

// BeginClose transitions any state→Closing.
func (m *Manager) BeginClose() bool {
	var old State
	m.mu.Lock()
	old = m.state
	m.state = Closing
	m.mu.Unlock()
	if old != Closing {
		m.fireStateChange(old, Closing)
	}
	return true
}

// CloseComplete transitions Closing→Disconnected.
func (m *Manager) CloseComplete() bool {
	return m.transition(func(s State) bool {
		return s == Closing
	}, Disconnected)
}

// SessionID returns the current session id, if any.
func (m *Manager) SessionID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID, m.haveSessionID
}

// LastEventID returns the last recorded SSE event id, if any.
func (m *Manager) LastEventID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEventID, m.haveLastEventID
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnStateChange registers a callback invoked after every committed
// transition, outside the internal lock.
func (m *Manager) OnStateChange(fn func(old, new State)) {
	m.callbacksMu.Lock()
	m.onStateChange = append(m.onStateChange, fn)
	m.callbacksMu.Unlock()
}

// OnSessionEstablished registers a callback invoked whenever a new session
// id is accepted.
func (m *Manager) OnSessionEstablished(fn func(id string)) {
	m.callbacksMu.Lock()
	m.onSessionEstablish = append(m.onSessionEstablish, fn)
	m.callbacksMu.Unlock()
}

// OnSessionLost registers a callback invoked whenever an active session
// expires.
func (m *Manager) OnSessionLost(fn func()) {
	m.callbacksMu.Lock()
	m.onSessionLost = append(m.onSessionLost, fn)
	m.callbacksMu.Unlock()
}

// transition moves the state machine to new iff the current state
// satisfies allowed, firing state-change callbacks on success.
func (m *Manager) transition(allowed func(State) bool, new State) bool {
	var old State
	ok := false

	m.mu.Lock()
	if allowed(m.state) {
		old = m.state
		m.state = new
		ok = true
	}
	m.mu.Unlock()

	if ok {
		m.fireStateChange(old, new)
	}
	return ok
}

func (m *Manager) fireStateChange(old, new State) {
	m.callbacksMu.Lock()
	cbs := make([]func(old, new State), len(m.onStateChange))
	copy(cbs, m.onStateChange)
	m.callbacksMu.Unlock()
	for _, cb := range cbs {
		cb(old, new)
	}
}

func (m *Manager) fireSessionEstablished(id string) {
	m.callbacksMu.Lock()
	cbs := make([]func(id string), len(m.onSessionEstablish))
	copy(cbs, m.onSessionEstablish)
	m.callbacksMu.Unlock()
	for _, cb := range cbs {
		cb(id)
	}
}

func (m *Manager) fireSessionLost() {
	m.callbacksMu.Lock()
	cbs := make([]func(), len(m.onSessionLost))
	copy(cbs, m.onSessionLost)
	m.callbacksMu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// validSessionID applies a conservative syntactic check: non-empty,
// entirely printable, and within maxLen bytes. The wire protocol treats
// session ids as opaque, so this rejects control characters and
// pathologically long values rather than enforcing a particular shape.
func validSessionID(sid string, maxLen int) bool {
	if sid == "" || len(sid) > maxLen {
		return false
	}
	for _, r := range sid {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
