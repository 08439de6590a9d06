package weather

import (
	"slices"
	"strings"
	"sync"
)

// DefaultHistorySize is the number of searches kept by default.
const DefaultHistorySize = 5

// SearchHistory keeps recent city searches, most recent first. Cities
// differing only in case or spacing are the same entry; the latest
// spelling wins. It is safe for concurrent use.
type SearchHistory struct {
	mu    sync.Mutex
	limit int
	items []string
}

// NewSearchHistory returns a history holding at most limit entries.
// limit <= 0 uses DefaultHistorySize.
func NewSearchHistory(limit int) *SearchHistory {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &SearchHistory{limit: limit}
}

// Add records city as the most recent search.
func (h *SearchHistory) Add(city string) {
	city = normalizeCity(city)
	if city == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = slices.DeleteFunc(h.items, func(s string) bool {
		return strings.EqualFold(s, city)
	})
	h.items = slices.Insert(h.items, 0, city)
	if len(h.items) > h.limit {
		h.items = h.items[:h.limit]
	}
}

// List returns a copy of the entries, most recent first.
func (h *SearchHistory) List() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string{}, h.items...)
}

// Clear removes every entry.
func (h *SearchHistory) Clear() {
	h.mu.Lock()
	h.items = nil
	h.mu.Unlock()
}
