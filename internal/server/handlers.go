package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/courtside/internal/coach"
	"github.com/claude/courtside/internal/models"
	"github.com/claude/courtside/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// controlResponse answers every workout control: whether it changed
// anything, and the view afterwards.
type controlResponse struct {
	OK   bool       `json:"ok"`
	View coach.View `json:"view"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.svc.ListPlans(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Plan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week must be a number"})
		return
	}
	wp, err := s.svc.Week(r.Context(), week)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

// handleEvents returns events after ?since=N (default 0) for polling clients.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "since must be a non-negative integer"})
			return
		}
		since = n
	}
	writeJSON(w, http.StatusOK, s.svc.Events(since))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req service.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	view, err := s.svc.Start(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	view, ok := s.svc.Pause(r.Context())
	writeJSON(w, http.StatusOK, controlResponse{OK: ok, View: view})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	view, ok := s.svc.Resume(r.Context())
	writeJSON(w, http.StatusOK, controlResponse{OK: ok, View: view})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	view := s.svc.Toggle(r.Context())
	writeJSON(w, http.StatusOK, controlResponse{OK: view.Active, View: view})
}

// handleNavigate moves by ?unit=exercise (default) or ?unit=section.
func (s *Server) handleNavigate(dir int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok, err := s.svc.Navigate(r.URL.Query().Get("unit"), dir)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, controlResponse{OK: ok, View: view})
	}
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	view, ok := s.svc.ToggleRange()
	writeJSON(w, http.StatusOK, controlResponse{OK: ok, View: view})
}

func (s *Server) handleRepeat(w http.ResponseWriter, r *http.Request) {
	ok := s.svc.RepeatInstructions(r.Context())
	writeJSON(w, http.StatusOK, controlResponse{OK: ok, View: s.svc.Status()})
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Hidden bool `json:"hidden"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	view := s.svc.SetVisibility(r.Context(), req.Hidden)
	writeJSON(w, http.StatusOK, controlResponse{OK: true, View: view})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	ok := s.svc.Stop(r.Context())
	writeJSON(w, http.StatusOK, controlResponse{OK: ok, View: s.svc.Status()})
}

func (s *Server) handlePendingSession(w http.ResponseWriter, r *http.Request) {
	st, ok := s.svc.PendingSession(r.Context())
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": coach.ErrNoSession.Error()})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.ResumeSession(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	s.svc.DiscardSession(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a number"})
			return
		}
		limit = n
	}
	rows, err := s.svc.History(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if rows == nil {
		rows = []models.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleListCustom(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListCustom(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []models.CustomWorkout{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetCustom(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	cw, err := s.svc.GetCustom(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cw)
}

// handleSaveCustom creates a workout on POST and replaces one on PUT /{id}.
func (s *Server) handleSaveCustom(w http.ResponseWriter, r *http.Request) {
	var cw models.CustomWorkout
	if err := json.NewDecoder(r.Body).Decode(&cw); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	status := http.StatusCreated
	if r.Method == http.MethodPut {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		existing, err := s.svc.GetCustom(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		cw.ID, cw.CreatedAt = id, existing.CreatedAt
		status = http.StatusOK
	} else {
		cw.ID = uuid.Nil
	}

	if err := s.svc.SaveCustom(r.Context(), &cw); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, status, cw)
}

func (s *Server) handleDeleteCustom(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteCustom(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service and coach errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, coach.ErrNoPlan),
		errors.Is(err, coach.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, coach.ErrNoSession):
		status = http.StatusNotFound
	default:
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
