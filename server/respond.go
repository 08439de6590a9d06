package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonwraymond/weatherops/fetch"
	"github.com/jonwraymond/weatherops/resilience"
	"github.com/jonwraymond/weatherops/tasks"
	"github.com/jonwraymond/weatherops/weather"
)

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

const msgUnavailable = "Weather service is temporarily unavailable. Please try again shortly."

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code, body := errorResponse(err)
	writeJSON(w, code, body)
}

// errorResponse maps err to a status and body. Upstream failures carry
// the fixed message of their kind.
func errorResponse(err error) (int, errorBody) {
	var fe *fetch.Error
	switch {
	case errors.As(err, &fe):
		return kindStatus(fe.Kind), errorBody{Error: fe.Kind.Message(), Kind: fe.Kind.String()}
	case resilience.Rejected(err):
		return http.StatusServiceUnavailable, errorBody{Error: msgUnavailable}
	case errors.Is(err, resilience.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Error: msgUnavailable}
	case errors.Is(err, weather.ErrEmptyCity), errors.Is(err, fetch.ErrInvalidParam),
		errors.Is(err, tasks.ErrEmptyTitle), errors.Is(err, tasks.ErrInvalidPriority),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, tasks.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error"}
	}
}

func kindStatus(k fetch.Kind) int {
	switch k {
	case fetch.KindNotFound:
		return http.StatusNotFound
	case fetch.KindRateLimited:
		return http.StatusTooManyRequests
	case fetch.KindNetworkUnavailable:
		return http.StatusServiceUnavailable
	default:
		// A rejected upstream key is a server-side misconfiguration.
		return http.StatusBadGateway
	}
}
