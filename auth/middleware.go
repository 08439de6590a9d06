package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Middleware authenticates each request with a before calling next. The
// resulting identity is attached to the request context. Rejected
// credentials get 401, internal failures 500. A nil a attaches
// AnonymousIdentity and never rejects.
func Middleware(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a == nil {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), AnonymousIdentity())))
				return
			}

			id, err := a.Authenticate(r.Context(), r.Header)
			if err != nil {
				status := http.StatusInternalServerError
				msg := "authentication unavailable"
				if IsRejection(err) {
					status = http.StatusUnauthorized
					msg = rejectionMessage(err)
					w.Header().Set("WWW-Authenticate", `Bearer realm="weatherops"`)
				}
				writeError(w, status, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return "missing credentials"
	case errors.Is(err, ErrTokenExpired):
		return "credentials expired"
	default:
		return "invalid credentials"
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
