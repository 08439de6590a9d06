package fetch

import (
	"errors"
	"net/http"
)

// Argument errors. These are returned before any network access.
var (
	ErrEmptyEndpoint     = errors.New("fetch: endpoint is empty")
	ErrUnknownEndpoint   = errors.New("fetch: endpoint is not registered")
	ErrInvalidParam      = errors.New("fetch: invalid parameter")
	ErrInvalidBaseURL    = errors.New("fetch: base URL must be an absolute http(s) URL")
	ErrInvalidEndpoint   = errors.New("fetch: invalid endpoint definition")
	ErrDuplicateEndpoint = errors.New("fetch: endpoint already registered")
)

// Causes wrapped by KindUnknown errors.
var (
	errInvalidJSON  = errors.New("response body is not valid JSON")
	errBodyTooLarge = errors.New("response body exceeds size limit")
)

// Kind classifies a failed fetch.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindRateLimited
	KindNetworkUnavailable
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindNotFound:           "not_found",
	KindUnauthorized:       "unauthorized",
	KindRateLimited:        "rate_limited",
	KindNetworkUnavailable: "network_unavailable",
}

var kindMessages = map[Kind]string{
	KindUnknown:            "Unable to fetch weather data. Please try again.",
	KindNotFound:           "City not found. Please check the spelling and try again.",
	KindUnauthorized:       "Invalid API key. Please check your configuration.",
	KindRateLimited:        "Too many requests. Please wait a moment.",
	KindNetworkUnavailable: "Network error. Please check your internet connection.",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Message returns the fixed user-facing message for k.
func (k Kind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return kindMessages[KindUnknown]
}

// Sentinels for errors.Is. Any *Error matches the sentinel of its kind.
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrNetworkUnavailable = &Error{Kind: KindNetworkUnavailable}
	ErrUnknown            = &Error{Kind: KindUnknown}
)

// Error is a classified fetch failure.
type Error struct {
	Kind     Kind
	Endpoint string
	Status   int   // HTTP status, 0 when no response was received
	Err      error // underlying cause, may be nil
}

// Error returns the fixed message for the kind.
func (e *Error) Error() string {
	return e.Kind.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindName reports the kind for telemetry labels.
func (e *Error) KindName() string {
	return e.Kind.String()
}

// KindOf classifies any error. Errors that are not *Error are KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Classify maps a non-2xx HTTP status to a Kind.
func Classify(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindUnknown
	}
}

// IsTransient reports whether retrying the same request later may succeed.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindNetworkUnavailable:
		return true
	default:
		return false
	}
}

func statusError(endpoint string, status int) *Error {
	return &Error{
		Kind:     Classify(status),
		Endpoint: endpoint,
		Status:   status,
		Err:      errors.New(http.StatusText(status)),
	}
}
