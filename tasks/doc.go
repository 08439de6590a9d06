// Package tasks is the task list domain: task records, overdue checks,
// filtering and search, productivity statistics and an in-memory Store.
package tasks
