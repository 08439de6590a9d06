package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/weatherops/tasks"
)

func createTask(t *testing.T, h http.Handler, body string) tasks.Task {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/tasks", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/tasks status = %d, body %s", rec.Code, rec.Body)
	}
	task := decode[tasks.Task](t, rec)
	if loc := rec.Header().Get("Location"); loc != "/api/tasks/"+task.ID {
		t.Errorf("Location = %q", loc)
	}
	return task
}

func TestTasks_Lifecycle(t *testing.T) {
	h := newFixture(t).handler(t)

	task := createTask(t, h, `{"title": " Water plants ", "priority": "high", "due_date": "2026-03-02"}`)
	if task.Title != "Water plants" || task.Priority != tasks.PriorityHigh || task.Completed {
		t.Fatalf("created = %+v", task)
	}
	if task.DueDate == nil || !task.DueDate.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DueDate = %v", task.DueDate)
	}

	rec := do(t, h, http.MethodPut, "/api/tasks/"+task.ID, `{"title": "Water all plants", "description": "and the cactus"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", rec.Code, rec.Body)
	}
	if got := decode[tasks.Task](t, rec); got.Title != "Water all plants" || got.Priority != tasks.PriorityMedium || got.UpdatedAt == nil {
		t.Errorf("updated = %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/api/tasks/"+task.ID+"/toggle", "")
	if got := decode[tasks.Task](t, rec); !got.Completed || got.CompletedAt == nil {
		t.Errorf("toggled = %+v", got)
	}

	if got := decode[tasks.Task](t, do(t, h, http.MethodGet, "/api/tasks/"+task.ID, "")); !got.Completed {
		t.Errorf("get = %+v", got)
	}

	if rec := do(t, h, http.MethodDelete, "/api/tasks/"+task.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/tasks/"+task.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d", rec.Code)
	}
}

func TestTasks_ListFilterAndProgress(t *testing.T) {
	h := newFixture(t).handler(t)
	a := createTask(t, h, `{"title": "Buy milk"}`)
	createTask(t, h, `{"title": "File taxes", "priority": "high"}`)
	createTask(t, h, `{"title": "Call mum", "description": "about the milk"}`)
	do(t, h, http.MethodPost, "/api/tasks/"+a.ID+"/toggle", "")

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Call mum", "File taxes", "Buy milk"}},
		{"?filter=completed", []string{"Buy milk"}},
		{"?filter=pending", []string{"Call mum", "File taxes"}},
		{"?filter=high", []string{"File taxes"}},
		{"?q=MILK", []string{"Call mum", "Buy milk"}},
		{"?filter=pending&q=milk", []string{"Call mum"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/tasks"+tt.query, "")
			resp := decode[taskListResponse](t, rec)
			var got []string
			for _, task := range resp.Tasks {
				got = append(got, task.Title)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
			if resp.Progress.Total != 3 || resp.Progress.Completed != 1 || resp.Progress.Percent != 33 {
				t.Errorf("progress = %+v", resp.Progress)
			}
		})
	}
}

func TestTasks_BadRequests(t *testing.T) {
	h := newFixture(t).handler(t)
	tests := []struct {
		name, method, target, body string
		want                       int
	}{
		{"empty title", http.MethodPost, "/api/tasks", `{"title": "  "}`, http.StatusBadRequest},
		{"bad priority", http.MethodPost, "/api/tasks", `{"title": "x", "priority": "urgent"}`, http.StatusBadRequest},
		{"bad due date", http.MethodPost, "/api/tasks", `{"title": "x", "due_date": "tomorrow"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/tasks", `{"title": "x", "owner": "me"}`, http.StatusBadRequest},
		{"not json", http.MethodPost, "/api/tasks", `title=x`, http.StatusBadRequest},
		{"bad filter", http.MethodGet, "/api/tasks?filter=someday", "", http.StatusBadRequest},
		{"update missing", http.MethodPut, "/api/tasks/nope", `{"title": "x"}`, http.StatusNotFound},
		{"toggle missing", http.MethodPost, "/api/tasks/nope/toggle", "", http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/tasks/nope", "", http.StatusNotFound},
		{"import garbage", http.MethodPost, "/api/tasks/import", `{"not": "a list"}`, http.StatusBadRequest},
		{"import invalid task", http.MethodPost, "/api/tasks/import", `[{"title": ""}]`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			if body := decode[errorBody](t, rec); body.Error == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestTasks_ClearCompletedAndStats(t *testing.T) {
	h := newFixture(t).handler(t)
	done := createTask(t, h, `{"title": "Done"}`)
	createTask(t, h, `{"title": "Late", "due_date": "2026-02-20"}`)
	do(t, h, http.MethodPost, "/api/tasks/"+done.ID+"/toggle", "")

	rec := do(t, h, http.MethodGet, "/api/tasks/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	stats := decode[struct {
		tasks.Stats
		Progress tasks.Progress `json:"progress"`
	}](t, rec)
	if stats.Today.Total != 2 || stats.Today.Completed != 1 || stats.Overdue != 1 {
		t.Errorf("stats = %+v", stats.Stats)
	}
	if stats.Progress.Percent != 50 {
		t.Errorf("progress = %+v", stats.Progress)
	}

	rec = do(t, h, http.MethodDelete, "/api/tasks/completed", "")
	if got := decode[map[string]int](t, rec); got["removed"] != 1 {
		t.Errorf("removed = %v", got)
	}
	if resp := decode[taskListResponse](t, do(t, h, http.MethodGet, "/api/tasks", "")); len(resp.Tasks) != 1 {
		t.Errorf("tasks after clear = %+v", resp.Tasks)
	}
}

func TestTasks_ExportImport(t *testing.T) {
	src := newFixture(t).handler(t)
	createTask(t, src, `{"title": "One"}`)
	createTask(t, src, `{"title": "Two", "priority": "low"}`)

	rec := do(t, src, http.MethodGet, "/api/tasks/export", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), "tasks.json") {
		t.Fatalf("export status = %d, headers %v", rec.Code, rec.Header())
	}
	exported := rec.Body.String()

	dst := newFixture(t).handler(t)
	createTask(t, dst, `{"title": "Replaced"}`)
	rec = do(t, dst, http.MethodPost, "/api/tasks/import", exported)
	if got := decode[map[string]int](t, rec); got["imported"] != 2 {
		t.Fatalf("import = %v (status %d)", got, rec.Code)
	}
	resp := decode[taskListResponse](t, do(t, dst, http.MethodGet, "/api/tasks", ""))
	if len(resp.Tasks) != 2 || resp.Tasks[0].Title != "Two" || resp.Tasks[1].Title != "One" {
		t.Errorf("tasks = %+v", resp.Tasks)
	}
}
