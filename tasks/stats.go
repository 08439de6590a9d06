package tasks

import (
	"math"
	"time"
)

// Bucket counts tasks created within a period.
type Bucket struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

func (b *Bucket) add(t Task) {
	b.Total++
	if t.Completed {
		b.Completed++
	}
}

// Stats summarises productivity.
type Stats struct {
	// Today counts tasks created on now's calendar day.
	Today Bucket `json:"today"`
	// Week counts tasks created in the seven days before now.
	Week Bucket `json:"week"`
	// Month counts tasks created since the first of now's month.
	Month   Bucket `json:"month"`
	Overdue int    `json:"overdue"`
}

// ComputeStats computes Stats for list as of now.
func ComputeStats(list []Task, now time.Time) Stats {
	var s Stats
	today := midnight(now)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	for _, t := range list {
		created := t.CreatedAt.In(now.Location())
		if midnight(created).Equal(today) {
			s.Today.add(t)
		}
		if !created.Before(weekAgo) {
			s.Week.add(t)
		}
		if !created.Before(monthStart) {
			s.Month.add(t)
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	return s
}

// Progress summarises completion.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	// Percent is the rounded completion percentage, 0 for an empty list.
	Percent int `json:"percent"`
}

// ProgressOf computes Progress for list.
func ProgressOf(list []Task) Progress {
	p := Progress{Total: len(list)}
	for _, t := range list {
		if t.Completed {
			p.Completed++
		}
	}
	p.Pending = p.Total - p.Completed
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	return p
}
