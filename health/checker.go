package health

import (
	"context"
	"fmt"
	"time"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component works but slowly or partially.
	StatusDegraded
	// StatusUnhealthy indicates the component cannot serve requests.
	StatusUnhealthy
)

func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health check.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message, Timestamp: time.Now()}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message, Timestamp: time.Now()}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err, Timestamp: time.Now()}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration sets the duration on a result.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Checker is the interface for health checks.
//
// Contract:
// - Concurrency: Check may be called concurrently.
// - Context: Check must return promptly once ctx is done.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

func (f *CheckerFunc) Name() string { return f.name }

func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }

// PingChecker reports a component healthy when its probe succeeds.
type PingChecker struct {
	name string
	ping func(context.Context) error

	// SlowThreshold marks a successful probe slower than this as degraded.
	// Zero disables the check.
	SlowThreshold time.Duration
}

// NewPingChecker wraps a reachability probe.
func NewPingChecker(name string, ping func(context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

func (p *PingChecker) Name() string { return p.name }

// Check runs the probe once.
func (p *PingChecker) Check(ctx context.Context) Result {
	start := time.Now()
	err := p.ping(ctx)
	elapsed := time.Since(start)

	details := map[string]any{"latency_ms": elapsed.Milliseconds()}
	switch {
	case err != nil:
		return Unhealthy(fmt.Sprintf("%s unreachable", p.name), err).WithDetails(details).WithDuration(elapsed)
	case p.SlowThreshold > 0 && elapsed > p.SlowThreshold:
		return Degraded(fmt.Sprintf("%s slow: %s", p.name, elapsed.Round(time.Millisecond))).WithDetails(details).WithDuration(elapsed)
	default:
		return Healthy(fmt.Sprintf("%s reachable", p.name)).WithDetails(details).WithDuration(elapsed)
	}
}
