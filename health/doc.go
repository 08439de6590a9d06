// Package health reports whether weatherops and its dependencies can serve
// requests.
//
// A Checker reports Healthy, Degraded, or Unhealthy. PingChecker turns any
// reachability probe (the weather API, a Redis cache) into a Checker and
// reports Degraded when the probe is slow. CapacityChecker watches how full
// a bounded resource such as the in-memory response cache is.
//
// An Aggregator runs registered checkers in parallel under one deadline.
// Components registered as non-critical can only degrade the overall
// status: a Redis outage, for example, costs cache hits but the fetch client
// still reaches the API.
//
//	agg := health.NewAggregator()
//	agg.Register("weather_api", apiChecker)
//	agg.Register("cache", redisChecker, health.NonCritical())
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// RegisterHandlers mounts /healthz (liveness), /readyz (readiness), /health
// (JSON detail for every component), and /health/{name}.
package health
