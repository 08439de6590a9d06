package weather

import "time"

// MaxForecastDays bounds DailyForecasts.
const MaxForecastDays = 5

// DailyForecasts keeps the first reading of each calendar day in loc, in
// input order, up to MaxForecastDays. A nil loc means UTC.
func DailyForecasts(items []ForecastItem, loc *time.Location) []ForecastItem {
	if loc == nil {
		loc = time.UTC
	}
	seen := make(map[string]struct{}, MaxForecastDays)
	out := make([]ForecastItem, 0, MaxForecastDays)
	for _, it := range items {
		if len(out) == MaxForecastDays {
			break
		}
		day := time.Unix(it.DT, 0).In(loc).Format(time.DateOnly)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, it)
	}
	return out
}
