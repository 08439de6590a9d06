package weather

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/weatherops/fetch"
)

// Endpoint names registered on the fetcher.
const (
	EndpointCurrent  = "current"
	EndpointCoords   = "coords"
	EndpointForecast = "forecast"
)

// ErrEmptyCity is returned for a blank city name.
var ErrEmptyCity = errors.New("weather: city is required")

// Endpoints returns the OpenWeatherMap endpoints the Client uses.
func Endpoints() []fetch.Endpoint {
	return []fetch.Endpoint{
		{Name: EndpointCurrent, Path: "weather", Identity: []string{"q"}},
		{Name: EndpointCoords, Path: "weather", Identity: []string{"lat", "lon"}},
		{Name: EndpointForecast, Path: "forecast", Identity: []string{"q"}},
	}
}

// Client is a typed OpenWeatherMap client over a fetch.Client.
type Client struct {
	fetcher *fetch.Client
}

// NewClient registers the weather endpoints on f, tolerating ones that are
// already registered, and returns a Client over it.
func NewClient(f *fetch.Client) (*Client, error) {
	if f == nil {
		return nil, errors.New("weather: fetcher is required")
	}
	for _, ep := range Endpoints() {
		if err := f.Register(ep); err != nil && !errors.Is(err, fetch.ErrDuplicateEndpoint) {
			return nil, err
		}
	}
	return &Client{fetcher: f}, nil
}

// Fetcher returns the underlying fetcher.
func (c *Client) Fetcher() *fetch.Client {
	return c.fetcher
}

// CurrentByCity returns current conditions for a city name.
func (c *Client) CurrentByCity(ctx context.Context, city string) (Current, error) {
	city = normalizeCity(city)
	if city == "" {
		return Current{}, ErrEmptyCity
	}
	return fetch.FetchInto[Current](ctx, c.fetcher, EndpointCurrent, fetch.Params{"q": city})
}

// CurrentByCoords returns current conditions at a coordinate pair.
func (c *Client) CurrentByCoords(ctx context.Context, lat, lon float64) (Current, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Current{}, fmt.Errorf("%w: coordinates %g,%g out of range", fetch.ErrInvalidParam, lat, lon)
	}
	return fetch.FetchInto[Current](ctx, c.fetcher, EndpointCoords, fetch.Params{"lat": lat, "lon": lon})
}

// ForecastByCity returns the five day, three-hourly forecast for a city.
func (c *Client) ForecastByCity(ctx context.Context, city string) (Forecast, error) {
	city = normalizeCity(city)
	if city == "" {
		return Forecast{}, ErrEmptyCity
	}
	return fetch.FetchInto[Forecast](ctx, c.fetcher, EndpointForecast, fetch.Params{"q": city})
}

// ConnectionResult reports the outcome of TestConnection.
type ConnectionResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *Current `json:"data,omitempty"`
}

// TestConnection looks up city and reports whether the API answered.
// Failures are reported in the result, never as an error.
func (c *Client) TestConnection(ctx context.Context, city string) ConnectionResult {
	cur, err := c.CurrentByCity(ctx, city)
	if err != nil {
		return ConnectionResult{Message: err.Error()}
	}
	return ConnectionResult{Success: true, Message: "API connection successful", Data: &cur}
}
