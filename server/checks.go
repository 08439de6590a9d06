package server

import (
	"context"
	"fmt"

	"github.com/jonwraymond/weatherops/cache"
	"github.com/jonwraymond/weatherops/health"
	"github.com/jonwraymond/weatherops/resilience"
	"github.com/jonwraymond/weatherops/weather"
)

// Checks lists the components RegisterChecks probes.
type Checks struct {
	Weather *weather.Service
	// City is the lookup used to probe the API.
	City string

	Cache      cache.Cache
	MaxEntries int
}

// RegisterChecks registers the dashboard's health checks on agg. Only the
// upstream API is critical: cache and breaker problems degrade the
// dashboard without taking it down.
func RegisterChecks(agg *health.Aggregator, c Checks) {
	if c.Weather != nil {
		agg.Register("openweathermap", weather.NewAPIChecker(c.Weather.Client(), c.City))
		if exec := c.Weather.Executor(); exec != nil && exec.CircuitBreaker() != nil {
			agg.Register("circuit_breaker", breakerChecker(exec.CircuitBreaker()), health.NonCritical())
		}
	}

	switch cc := c.Cache.(type) {
	case *cache.RedisCache:
		agg.Register("redis", health.NewPingChecker("redis", cc.Ping), health.NonCritical())
	case interface{ Len() int }:
		agg.Register("cache", health.NewCapacityChecker("cache", cc.Len, health.CapacityCheckerConfig{
			Capacity:          c.MaxEntries,
			CriticalThreshold: 1.01,
		}), health.NonCritical())
	}
}

func breakerChecker(cb *resilience.CircuitBreaker) health.Checker {
	return health.NewCheckerFunc("circuit_breaker", func(ctx context.Context) health.Result {
		m := cb.Metrics()
		details := map[string]any{"state": m.State.String(), "failures": m.Failures}
		switch m.State {
		case resilience.StateOpen:
			return health.Unhealthy("circuit open", fmt.Errorf("opened at %s", m.OpenedAt)).WithDetails(details)
		case resilience.StateHalfOpen:
			return health.Degraded("circuit half-open").WithDetails(details)
		default:
			return health.Healthy("circuit closed").WithDetails(details)
		}
	})
}
