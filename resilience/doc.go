// Package resilience provides caller-side protection for outbound weather
// API calls.
//
// The fetch client itself never retries; the dashboard service composes
// these patterns around it instead:
//
//   - Rate Limiter: a token bucket that keeps calls under the provider quota.
//   - Circuit Breaker: stops calling a provider that keeps failing.
//   - Retry: retries transient failures with backoff.
//   - Timeout: bounds each attempt.
//
// Each pattern works on its own. Executor composes them, and Do runs an
// operation that returns a value:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 1, Burst: 5})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 5})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3, RetryIf: fetch.IsTransient})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	current, err := resilience.Do(ctx, exec, func(ctx context.Context) (weather.Current, error) {
//	    return client.CurrentByCity(ctx, "London")
//	})
package resilience
