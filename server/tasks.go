package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jonwraymond/weatherops/tasks"
)

// maxTaskBody bounds task request bodies, including imports.
const maxTaskBody = 1 << 20

// taskRequest accepts due_date as a calendar date or an RFC 3339 time.
type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
}

func (req taskRequest) draft(loc *time.Location) (tasks.Draft, error) {
	d := tasks.Draft{
		Title:       req.Title,
		Description: req.Description,
		Priority:    tasks.Priority(req.Priority),
	}
	due := strings.TrimSpace(req.DueDate)
	if due == "" {
		return d, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, due, loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, due)
	}
	if err != nil {
		return tasks.Draft{}, fmt.Errorf("%w: due_date %q", errBadRequest, req.DueDate)
	}
	d.DueDate = &t
	return d, nil
}

type taskListResponse struct {
	Tasks    []tasks.Task   `json:"tasks"`
	Progress tasks.Progress `json:"progress"`
}

func (s *server) decodeDraft(w http.ResponseWriter, r *http.Request) (tasks.Draft, error) {
	var req taskRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTaskBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return tasks.Draft{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return req.draft(s.now().Location())
}

// handleListTasks serves ?filter=all|completed|pending|high&q=search. The
// progress figures cover the whole list, not just the filtered subset.
func (s *server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	f, err := tasks.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	all := s.tasks.List()
	writeJSON(w, http.StatusOK, taskListResponse{
		Tasks:    tasks.Apply(all, f, r.URL.Query().Get("q")),
		Progress: tasks.ProgressOf(all),
	})
}

func (s *server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	d, err := s.decodeDraft(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := s.tasks.Add(d)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/tasks/"+t.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (s *server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	d, err := s.decodeDraft(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	t, err := s.tasks.Update(r.PathValue("id"), d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Toggle(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleClearCompleted(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"removed": s.tasks.ClearCompleted()})
}

func (s *server) handleTaskStats(w http.ResponseWriter, _ *http.Request) {
	all := s.tasks.List()
	writeJSON(w, http.StatusOK, struct {
		tasks.Stats
		Progress tasks.Progress `json:"progress"`
	}{tasks.ComputeStats(all, s.now()), tasks.ProgressOf(all)})
}

func (s *server) handleExportTasks(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.json"`)
	_ = s.tasks.Export(w)
}

func (s *server) handleImportTasks(w http.ResponseWriter, r *http.Request) {
	n, err := s.tasks.Import(http.MaxBytesReader(w, r.Body, maxTaskBody))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}
