package weather

import (
	"strings"
	"time"
)

// Condition is one entry of the OpenWeatherMap "weather" array.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Readings holds the "main" block of a response.
type Readings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

// Wind speed is in m/s for metric and standard units, mph for imperial.
type Wind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
	Gust  float64 `json:"gust,omitempty"`
}

type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Sys struct {
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// Current is the response of the current weather endpoint.
type Current struct {
	Coord      Coord       `json:"coord"`
	Conditions []Condition `json:"weather"`
	Main       Readings    `json:"main"`
	Visibility int         `json:"visibility"`
	Wind       Wind        `json:"wind"`
	DT         int64       `json:"dt"`
	Sys        Sys         `json:"sys"`
	Timezone   int         `json:"timezone"`
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
}

// Condition returns the primary condition, or the zero Condition.
func (c Current) Condition() Condition {
	if len(c.Conditions) == 0 {
		return Condition{}
	}
	return c.Conditions[0]
}

// Location returns the fixed zone reported for the city.
func (c Current) Location() *time.Location {
	return fixedZone(c.Timezone)
}

// Place formats "City, CC", or just the city when no country is known.
func (c Current) Place() string {
	if c.Sys.Country == "" {
		return c.Name
	}
	return c.Name + ", " + c.Sys.Country
}

// ForecastItem is one three-hourly reading of the forecast endpoint.
type ForecastItem struct {
	DT         int64       `json:"dt"`
	Main       Readings    `json:"main"`
	Conditions []Condition `json:"weather"`
	Wind       Wind        `json:"wind"`
	Visibility int         `json:"visibility"`
	DTText     string      `json:"dt_txt"`
}

// Time returns the reading time in UTC.
func (f ForecastItem) Time() time.Time {
	return time.Unix(f.DT, 0).UTC()
}

// Condition returns the primary condition, or the zero Condition.
func (f ForecastItem) Condition() Condition {
	if len(f.Conditions) == 0 {
		return Condition{}
	}
	return f.Conditions[0]
}

type City struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Coord    Coord  `json:"coord"`
	Country  string `json:"country"`
	Timezone int    `json:"timezone"`
}

// Forecast is the response of the five day forecast endpoint.
type Forecast struct {
	Count int            `json:"cnt"`
	List  []ForecastItem `json:"list"`
	City  City           `json:"city"`
}

// Location returns the fixed zone reported for the forecast city.
func (f Forecast) Location() *time.Location {
	return fixedZone(f.City.Timezone)
}

func fixedZone(offset int) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone("", offset)
}

func normalizeCity(city string) string {
	return strings.Join(strings.Fields(city), " ")
}
