package health

import (
	"context"
	"fmt"
)

// CapacityCheckerConfig configures a CapacityChecker.
type CapacityCheckerConfig struct {
	// Capacity is the bound being watched. Zero means unbounded, which is
	// always healthy.
	Capacity int

	// WarningThreshold is the fill ratio that degrades the component.
	// Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the fill ratio that makes it unhealthy. For an
	// LRU cache, hitting the bound only causes evictions, so callers usually
	// leave this above 1.
	// Default: 0.95
	CriticalThreshold float64
}

// CapacityChecker reports how full a bounded resource is.
type CapacityChecker struct {
	name   string
	used   func() int
	config CapacityCheckerConfig
}

// NewCapacityChecker creates a checker that reads the current fill from used.
func NewCapacityChecker(name string, used func() int, config CapacityCheckerConfig) *CapacityChecker {
	if config.WarningThreshold <= 0 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold
	}
	return &CapacityChecker{name: name, used: used, config: config}
}

func (c *CapacityChecker) Name() string { return c.name }

// Check compares current usage against the thresholds.
func (c *CapacityChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	used := c.used()
	details := map[string]any{"used": used, "capacity": c.config.Capacity}
	if c.config.Capacity <= 0 {
		return Healthy(fmt.Sprintf("%d entries, unbounded", used)).WithDetails(details)
	}

	ratio := float64(used) / float64(c.config.Capacity)
	details["usage_percent"] = ratio * 100

	switch {
	case ratio >= c.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("%s at %.1f%% of capacity", c.name, ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= c.config.WarningThreshold:
		return Degraded(fmt.Sprintf("%s at %.1f%% of capacity", c.name, ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("%s at %.1f%% of capacity", c.name, ratio*100)).WithDetails(details)
	}
}
