package tasks

import (
	"fmt"
	"strings"
)

// Filter selects a subset of tasks.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterCompleted Filter = "completed"
	FilterPending   Filter = "pending"
	FilterHigh      Filter = "high"
)

// ParseFilter parses a filter name. Empty means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCompleted, FilterPending, FilterHigh:
		return f, nil
	default:
		return "", fmt.Errorf("tasks: unknown filter %q", s)
	}
}

func (f Filter) match(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.Completed
	case FilterPending:
		return !t.Completed
	case FilterHigh:
		return t.Priority == PriorityHigh
	default:
		return true
	}
}

// Apply returns the tasks matching f whose title or description contains
// query, case-insensitively. Order is preserved and the input is not
// modified.
func Apply(list []Task, f Filter, query string) []Task {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Task, 0, len(list))
	for _, t := range list {
		if !f.match(t) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		out = append(out, t)
	}
	return out
}
