package resilience

import (
	"errors"
	"fmt"
	"testing"
)

func TestRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"circuit open", ErrCircuitOpen, true},
		{"rate limited", fmt.Errorf("current: %w", ErrRateLimitExceeded), true},
		{"timeout", ErrTimeout, false},
		{"operation error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Rejected(tt.err); got != tt.want {
				t.Errorf("Rejected(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
