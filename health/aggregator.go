package health

import (
	"context"
	"sync"
	"time"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout bounds one CheckAll pass.
	// Default: 5 seconds
	Timeout time.Duration
}

// RegisterOption configures one registration.
type RegisterOption func(*registration)

// NonCritical caps the component's effect on the overall status at Degraded.
func NonCritical() RegisterOption {
	return func(r *registration) {
		r.critical = false
	}
}

type registration struct {
	checker  Checker
	critical bool
}

// Aggregator runs a set of named checkers.
type Aggregator struct {
	config AggregatorConfig

	mu    sync.RWMutex
	regs  map[string]registration
	order []string
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{Timeout: 5 * time.Second}
	if len(config) > 0 && config[0].Timeout > 0 {
		cfg = config[0]
	}
	return &Aggregator{
		config: cfg,
		regs:   make(map[string]registration),
	}
}

// Register adds or replaces a checker. Components are critical by default.
func (a *Aggregator) Register(name string, checker Checker, opts ...RegisterOption) {
	reg := registration{checker: checker, critical: true}
	for _, opt := range opts {
		opt(&reg)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.regs[name]; !exists {
		a.order = append(a.order, name)
	}
	a.regs[name] = reg
}

// Unregister removes a checker.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.regs[name]; !ok {
		return
	}
	delete(a.regs, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// CheckerNames returns registered names in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.order...)
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	reg, ok := a.regs[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return runCheck(ctx, reg.checker), nil
}

// CheckAll runs every registered checker in parallel.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	regs := make(map[string]registration, len(a.regs))
	for name, reg := range a.regs {
		regs[name] = reg
	}
	a.mu.RUnlock()

	results := make(map[string]Result, len(regs))
	if len(regs) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, reg := range regs {
		wg.Add(1)
		go func(name string, reg registration) {
			defer wg.Done()
			result := runCheck(ctx, reg.checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, reg)
	}
	wg.Wait()

	return results
}

// OverallStatus folds results into one status. Unhealthy non-critical
// components count as Degraded; unregistered names count as critical.
func (a *Aggregator) OverallStatus(results map[string]Result) Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	overall := StatusHealthy
	for name, result := range results {
		status := result.Status
		if reg, ok := a.regs[name]; ok && !reg.critical && status == StatusUnhealthy {
			status = StatusDegraded
		}
		if status > overall {
			overall = status
		}
	}
	return overall
}

func runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()
	resultCh := make(chan Result, 1)

	go func() {
		result := checker.Check(ctx)
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Error:     ErrCheckTimeout,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}
