package health

import (
	"context"
	"errors"
	"testing"
)

func TestAggregator_CheckUnknownName(t *testing.T) {
	agg := NewAggregator()
	if _, err := agg.Check(context.Background(), "redis"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check() error = %v, want ErrCheckerNotFound", err)
	}
}
