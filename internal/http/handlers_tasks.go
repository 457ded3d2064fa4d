package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"workorders/internal/apiclient"
	"workorders/internal/core"
	applog "workorders/internal/log"
)

func parseStatus(r *http.Request) (core.TaskStatus, error) {
	v := core.TaskStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if v != "" && !v.IsValid() {
		return "", badRequest("unknown task status %q", v)
	}
	return v, nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	status, err := parseStatus(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	f := apiclient.TaskFilter{Status: status}
	if v := strings.TrimSpace(r.URL.Query().Get("project_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			s.writeError(w, r, badRequest("invalid project_id %q", v))
			return
		}
		f.ProjectID = id
	}

	tasks, err := s.settings.Client().Tasks().List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tasks))
}

func (s *Server) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	status, err := parseStatus(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tasks, err := s.settings.Client().Tasks().Mine(r.Context(), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tasks))
}

func (s *Server) handleAcceptTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	task, err := s.settings.Client().Tasks().Accept(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Task accepted", applog.FieldTaskID, id)
	writeJSON(w, http.StatusOK, task)
}

// handleStatistics passes a statistics report through, caching it per
// backend, kind and date range.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	if !apiclient.ValidKind(kind) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown statistics report " + strconv.Quote(kind)})
		return
	}
	start, err := parseDay(r, "start_date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := parseDay(r, "end_date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	client := s.settings.Client()
	key := strings.Join([]string{client.BaseURL(), kind, r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date")}, "|")
	if body, ok := s.statsCache.Get(key); ok {
		w.Header().Set("X-Cache", "HIT")
		writeRaw(w, body)
		return
	}

	body, err := client.Statistics().Raw(r.Context(), kind, apiclient.DateRange{Start: start, End: end})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.statsCache.Set(key, body)
	w.Header().Set("X-Cache", "MISS")
	writeRaw(w, body)
}

func writeRaw(w http.ResponseWriter, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
