package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	svc "github.com/aretw0/seee/internal/notebook"
	"github.com/aretw0/seee/pkg/notebook"
)

// Notebook serves the cabinet's thoughts and the event map.
type Notebook interface {
	Thoughts(ctx context.Context, userID string) ([]notebook.Thought, error)
	AddThought(ctx context.Context, userID string, req svc.ThoughtRequest) (*notebook.Thought, error)
	UpdateThought(ctx context.Context, userID string, id int64, req svc.ThoughtUpdate) (*notebook.Thought, error)
	DeleteThought(ctx context.Context, userID string, id int64) error

	MapEntries(ctx context.Context, userID string) ([]notebook.MapEntry, error)
	MapEvents(ctx context.Context, userID string) ([]notebook.MapEvent, error)
	AddMapEntry(ctx context.Context, userID string, req svc.MapEntryRequest) (*notebook.MapEntry, error)
	UpdateMapEntry(ctx context.Context, userID string, id int64, req svc.MapEntryUpdate) (*notebook.MapEntry, error)
	DeleteMapEntry(ctx context.Context, userID string, id int64) error
	SetMapEntryCompleted(ctx context.Context, userID string, id int64, completed bool) error
}

func entryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("entry id must be a positive integer")
	}
	return id, nil
}

// GetThoughts handles GET /cabinet/thoughts.
func (s *Server) GetThoughts(w http.ResponseWriter, r *http.Request) {
	thoughts, err := s.Notebook.Thoughts(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, thoughts)
}

// CreateThought handles POST /cabinet/thoughts.
func (s *Server) CreateThought(w http.ResponseWriter, r *http.Request) {
	var req svc.ThoughtRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.Notebook.AddThought(r.Context(), UserID(r.Context()), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// UpdateThought handles PUT /cabinet/thoughts/{entryID}.
func (s *Server) UpdateThought(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req svc.ThoughtUpdate
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.Notebook.UpdateThought(r.Context(), UserID(r.Context()), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteThought handles DELETE /cabinet/thoughts/{entryID}.
func (s *Server) DeleteThought(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Notebook.DeleteThought(r.Context(), UserID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMapEntries handles GET /map/entries.
func (s *Server) GetMapEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Notebook.MapEntries(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetMapEvents handles GET /map/events, the map grouped by event.
func (s *Server) GetMapEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.Notebook.MapEvents(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// CreateMapEntry handles POST /map/entries.
func (s *Server) CreateMapEntry(w http.ResponseWriter, r *http.Request) {
	var req svc.MapEntryRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.Notebook.AddMapEntry(r.Context(), UserID(r.Context()), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// UpdateMapEntry handles PUT /map/entries/{entryID}.
func (s *Server) UpdateMapEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req svc.MapEntryUpdate
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.Notebook.UpdateMapEntry(r.Context(), UserID(r.Context()), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteMapEntry handles DELETE /map/entries/{entryID}.
func (s *Server) DeleteMapEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Notebook.DeleteMapEntry(r.Context(), UserID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	Completed bool `json:"is_completed"`
}

// CompleteMapEntry handles POST /map/entries/{entryID}/complete.
func (s *Server) CompleteMapEntry(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req completeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Notebook.SetMapEntryCompleted(r.Context(), UserID(r.Context()), id, req.Completed); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
