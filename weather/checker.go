package weather

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/weatherops/health"
)

// APICheckerSlowThreshold marks the API degraded when a probe takes longer.
const APICheckerSlowThreshold = 2 * time.Second

// NewAPIChecker probes the API with a current-weather lookup for city. A
// fresh cached answer counts as reachable.
func NewAPIChecker(client *Client, city string) health.Checker {
	c := health.NewPingChecker("openweathermap", func(ctx context.Context) error {
		res := client.TestConnection(ctx, city)
		if !res.Success {
			return errors.New(res.Message)
		}
		return nil
	})
	c.SlowThreshold = APICheckerSlowThreshold
	return c
}
