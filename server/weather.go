package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonwraymond/weatherops/resilience"
	"github.com/jonwraymond/weatherops/weather"
)

var errBadRequest = errors.New("server: bad request")

// handleWeather serves a snapshot for ?city= or for ?lat=&lon=.
func (s *server) handleWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("lat") || q.Has("lon") {
		lat, lon, err := parseCoords(q.Get("lat"), q.Get("lon"))
		if err != nil {
			writeError(w, err)
			return
		}
		snap, err := s.weather.LoadByCoords(r.Context(), lat, lon)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}

	snap, err := s.weather.Load(r.Context(), q.Get("city"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type forecastResponse struct {
	City  string                 `json:"city"`
	Daily []weather.ForecastItem `json:"daily"`
	Count int                    `json:"count"`
}

func (s *server) handleForecast(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	fc, err := resilience.Do(r.Context(), s.weather.Executor(), func(ctx context.Context) (weather.Forecast, error) {
		return s.weather.Client().ForecastByCity(ctx, city)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	name := fc.City.Name
	if name == "" {
		name = strings.TrimSpace(city)
	}
	writeJSON(w, http.StatusOK, forecastResponse{
		City:  name,
		Daily: weather.DailyForecasts(fc.List, fc.Location()),
		Count: fc.Count,
	})
}

func (s *server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"history": s.weather.History().List()})
}

func (s *server) handleClearHistory(w http.ResponseWriter, _ *http.Request) {
	s.weather.History().Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.weather.Client().Fetcher().Clear(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseCoords(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: lat %q", errBadRequest, latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: lon %q", errBadRequest, lonStr)
	}
	return lat, lon, nil
}
