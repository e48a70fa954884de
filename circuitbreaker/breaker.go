// Package circuitbreaker implements a three-state (Closed/Open/HalfOpen)
// circuit breaker guarding an outbound request stream.
package circuitbreaker

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is one of the three circuit breaker states.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "HalfOpen"
	default:
		return "Unknown"
	}
}

// Config configures a Breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures before the
	// breaker opens.
	FailureThreshold int
	// SuccessThreshold is the number of consecutive successes in HalfOpen
	// required to close the breaker.
	SuccessThreshold int
	// RecoveryTimeout is how long the breaker stays Open before allowing a
	// single probe request in HalfOpen.
	RecoveryTimeout time.Duration
	// Name is an optional label for logging/metrics.
	Name string
}

// defaulted returns cfg with zero-valued fields replaced by sane defaults.
func (cfg Config) defaulted() Config {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	return cfg
}

// Stats is a point-in-time snapshot of breaker counters.
type Stats struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	RejectedRequests   int64
	StateTransitions   int64
	CurrentState       State
}

// StateChangeFunc is invoked after a transition has been committed, outside
// any internal lock, so it may safely call back into the Breaker.
type StateChangeFunc func(old, new State)

// Breaker guards an outbound operation stream with the Closed/Open/HalfOpen
// state machine described in the package doc.
type Breaker struct {
	config Config

	mu                    sync.Mutex
	state                 State
	consecutiveFailures   int
	consecutiveSuccesses  int
	lastFailureTime       time.Time
	halfOpenProbeInFlight bool

	callbacksMu sync.Mutex
	callbacks   []StateChangeFunc

	totalRequests      int64
	successfulRequests int64
	failedRequests     int64
	rejectedRequests   int64
	stateTransitions   int64
}

// New creates a Breaker with the given configuration, closed by default.
func New(cfg Config) *Breaker {
	return &Breaker{
		config:          cfg.defaulted(),
		state:           StateClosed,
		lastFailureTime: time.Now(),
	}
}

// AllowRequest reports whether a request may proceed, applying any
// state transition the decision implies. Every call counts one total
// request, including rejections.
func (b *Breaker) AllowRequest() bool {
	atomic.AddInt64(&b.totalRequests, 1)

	var old, new State
	fireCallbacks := false
	allowed := false

	b.mu.Lock()
	switch b.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if b.shouldAttemptResetLocked() {
			old, new = b.state, StateHalfOpen
			b.state = new
			atomic.AddInt64(&b.stateTransitions, 1)
			b.consecutiveSuccesses = 0
			b.halfOpenProbeInFlight = true
			fireCallbacks = true
			allowed = true
		} else {
			atomic.AddInt64(&b.rejectedRequests, 1)
			allowed = false
		}
	case StateHalfOpen:
		if b.halfOpenProbeInFlight {
			atomic.AddInt64(&b.rejectedRequests, 1)
			allowed = false
		} else {
			b.halfOpenProbeInFlight = true
			allowed = true
		}
	}
	b.mu.Unlock()

	if fireCallbacks {
		b.fire(old, new)
	}
	return allowed
}

// RecordSuccess reports a successful operation.
func (b *Breaker) RecordSuccess() {
	atomic.AddInt64(&b.successfulRequests, 1)

	var old, new State
	fireCallbacks := false

	b.mu.Lock()
	b.consecutiveFailures = 0
	b.halfOpenProbeInFlight = false
	switch b.state {
	case StateHalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.config.SuccessThreshold {
			old, new = b.state, StateClosed
			b.state = new
			atomic.AddInt64(&b.stateTransitions, 1)
			fireCallbacks = true
		}
	case StateClosed, StateOpen:
		// nothing to do
	}
	b.mu.Unlock()

	if fireCallbacks {
		b.fire(old, new)
	}
}

// RecordFailure reports a failed operation.
func (b *Breaker) RecordFailure() {
	atomic.AddInt64(&b.failedRequests, 1)

	var old, new State
	fireCallbacks := false

	b.mu.Lock()
	b.consecutiveSuccesses = 0
	b.consecutiveFailures++
	b.lastFailureTime = time.Now()
	b.halfOpenProbeInFlight = false
	switch b.state {
	case StateClosed:
		if b.consecutiveFailures >= b.config.FailureThreshold {
			old, new = b.state, StateOpen
			b.state = new
			atomic.AddInt64(&b.stateTransitions, 1)
			fireCallbacks = true
		}
	case StateHalfOpen:
		old, new = b.state, StateOpen
		b.state = new
		atomic.AddInt64(&b.stateTransitions, 1)
		fireCallbacks = true
	case StateOpen:
		// already open, just refreshed the failure time above
	}
	b.mu.Unlock()

	if fireCallbacks {
		b.fire(old, new)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether the breaker is currently rejecting requests.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// IsClosed reports whether the breaker is in normal operation.
func (b *Breaker) IsClosed() bool {
	return b.State() == StateClosed
}

// Stats returns a snapshot of the breaker's counters and state.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	state := b.state
	b.mu.Unlock()
	return Stats{
		TotalRequests:      atomic.LoadInt64(&b.totalRequests),
		SuccessfulRequests: atomic.LoadInt64(&b.successfulRequests),
		FailedRequests:     atomic.LoadInt64(&b.failedRequests),
		RejectedRequests:   atomic.LoadInt64(&b.rejectedRequests),
		StateTransitions:   atomic.LoadInt64(&b.stateTransitions),
		CurrentState:       state,
	}
}

// Config returns the breaker's configuration.
func (b *Breaker) Config() Config {
	return b.config
}

// ForceOpen manually opens the breaker. A no-op (no callback) if already Open.
func (b *Breaker) ForceOpen() {
	var old, new State
	fireCallbacks := false

	b.mu.Lock()
	if b.state != StateOpen {
		old, new = b.state, StateOpen
		b.state = new
		b.lastFailureTime = time.Now()
		b.halfOpenProbeInFlight = false
		atomic.AddInt64(&b.stateTransitions, 1)
		fireCallbacks = true
	}
	b.mu.Unlock()

	if fireCallbacks {
		b.fire(old, new)
	}
}

// ForceClose manually closes the breaker. A no-op (no callback) if already Closed.
func (b *Breaker) ForceClose() {
	var old, new State
	fireCallbacks := false

	b.mu.Lock()
	if b.state != StateClosed {
		old, new = b.state, StateClosed
		b.state = new
		b.consecutiveFailures = 0
		b.consecutiveSuccesses = 0
		b.halfOpenProbeInFlight = false
		atomic.AddInt64(&b.stateTransitions, 1)
		fireCallbacks = true
	}
	b.mu.Unlock()

	if fireCallbacks {
		b.fire(old, new)
	}
}

// Reset clears all state and counters back to a fresh Closed breaker. Like
// ForceClose, it fires the transition callbacks when the breaker was not
// already Closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	old := b.state
	b.state = StateClosed
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
	b.halfOpenProbeInFlight = false
	b.mu.Unlock()

	atomic.StoreInt64(&b.totalRequests, 0)
	atomic.StoreInt64(&b.successfulRequests, 0)
	atomic.StoreInt64(&b.failedRequests, 0)
	atomic.StoreInt64(&b.rejectedRequests, 0)
	atomic.StoreInt64(&b.stateTransitions, 0)

	if old != StateClosed {
		b.fire(old, StateClosed)
	}
}

// OnStateChange registers a callback invoked on every committed transition,
// including those caused by ForceOpen/ForceClose.
func (b *Breaker) OnStateChange(fn StateChangeFunc) {
	b.callbacksMu.Lock()
	b.callbacks = append(b.callbacks, fn)
	b.callbacksMu.Unlock()
}

func (b *Breaker) fire(old, new State) {
	b.callbacksMu.Lock()
	callbacks := make([]StateChangeFunc, len(b.callbacks))
	copy(callbacks, b.callbacks)
	b.callbacksMu.Unlock()
	for _, cb := range callbacks {
		cb(old, new)
	}
}

// shouldAttemptResetLocked reports whether enough time has elapsed since the
// last failure to try a HalfOpen probe. Caller must hold mu.
func (b *Breaker) shouldAttemptResetLocked() bool {
	return time.Since(b.lastFailureTime) >= b.config.RecoveryTimeout
}
