package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until ResetTimeout has passed.
	StateOpen
	// StateHalfOpen lets a limited number of probe calls through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests bounds concurrent probes.
	// Default: 1
	HalfOpenMaxRequests int

	// IsFailure decides whether err counts against the provider. Errors it
	// rejects, such as an unknown city, leave the failure count untouched.
	// Default: every non-nil error.
	IsFailure func(err error) bool

	// OnStateChange is called after each transition, outside the lock.
	OnStateChange func(from, to State)

	// Now replaces time.Now.
	Now func() time.Time
}

// CircuitBreaker stops calling a provider after repeated failures.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	probes      int
	transitions []transition
}

type transition struct{ from, to State }

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Execute runs op unless the circuit rejects it.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := op(ctx)
	cb.record(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	state := cb.stateLocked()
	pending := cb.drainLocked()
	cb.mu.Unlock()
	cb.notify(pending)
	return state
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	cb.setStateLocked(StateClosed)
	cb.failures = 0
	pending := cb.drainLocked()
	cb.mu.Unlock()
	cb.notify(pending)
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	var err error
	switch cb.stateLocked() {
	case StateOpen:
		err = ErrCircuitOpen
	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMaxRequests {
			err = ErrCircuitOpen
		} else {
			cb.probes++
		}
	}
	pending := cb.drainLocked()
	cb.mu.Unlock()
	cb.notify(pending)
	return err
}

func (cb *CircuitBreaker) record(err error) {
	failed := err != nil && cb.config.IsFailure(err)

	cb.mu.Lock()
	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			break
		}
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.openLocked()
		}
	case StateHalfOpen:
		if failed {
			cb.openLocked()
		} else {
			cb.failures = 0
			cb.setStateLocked(StateClosed)
		}
	}
	pending := cb.drainLocked()
	cb.mu.Unlock()
	cb.notify(pending)
}

func (cb *CircuitBreaker) openLocked() {
	cb.openedAt = cb.config.Now()
	cb.setStateLocked(StateOpen)
}

func (cb *CircuitBreaker) stateLocked() State {
	if cb.state == StateOpen && cb.config.Now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.setStateLocked(StateHalfOpen)
	}
	return cb.state
}

func (cb *CircuitBreaker) setStateLocked(to State) {
	if cb.state == to {
		return
	}
	cb.transitions = append(cb.transitions, transition{from: cb.state, to: to})
	cb.state = to
	cb.probes = 0
}

func (cb *CircuitBreaker) drainLocked() []transition {
	pending := cb.transitions
	cb.transitions = nil
	return pending
}

func (cb *CircuitBreaker) notify(pending []transition) {
	if cb.config.OnStateChange == nil {
		return
	}
	for _, tr := range pending {
		cb.config.OnStateChange(tr.from, tr.to)
	}
}

// CircuitBreakerMetrics is a point-in-time view of the breaker.
type CircuitBreakerMetrics struct {
	State    State
	Failures int
	OpenedAt time.Time
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	m := CircuitBreakerMetrics{
		State:    cb.stateLocked(),
		Failures: cb.failures,
		OpenedAt: cb.openedAt,
	}
	pending := cb.drainLocked()
	cb.mu.Unlock()
	cb.notify(pending)
	return m
}
