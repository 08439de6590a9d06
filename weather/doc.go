// Package weather is the OpenWeatherMap dashboard domain built on the
// cached fetcher.
//
// Client issues typed current-weather and forecast lookups through a
// fetch.Client. Service combines them into a dashboard Snapshot behind a
// resilience.Executor, records search history and optionally falls back to
// demo data. The remaining functions are pure helpers for presentation:
// temperature scales, compass directions, UV levels, advice and daily
// forecast selection.
package weather
