package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/seee/internal/validation"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/sanitize"
	"github.com/aretw0/seee/pkg/session"
)

// TurnResponse is returned by every endpoint that runs the engine.
type TurnResponse struct {
	SessionID string                 `json:"session_id"`
	Stage     domain.Stage           `json:"stage"`
	Message   domain.OutboundMessage `json:"message"`
}

// SessionSummary is one entry of GET /sessions.
type SessionSummary struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Stage     domain.Stage `json:"stage"`
	Concepts  int          `json:"concepts"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type messageRequest struct {
	Text string `json:"text"`
}

type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

type fieldRequest struct {
	Field string `json:"field" validate:"required"`
}

type renameRequest struct {
	OldName string `json:"old_name" validate:"required"`
	NewName string `json:"new_name" validate:"required"`
}

type strikethroughRequest struct {
	Name    string `json:"name" validate:"required"`
	Restore bool   `json:"restore"`
}

type extractRequest struct {
	Source string `json:"source" validate:"required"`
	Field  string `json:"field" validate:"required"`
	Value  string `json:"value"`
}

func turn(s *domain.Session, msg domain.OutboundMessage) TurnResponse {
	return TurnResponse{SessionID: s.ID, Stage: s.Cursor.Stage, Message: msg}
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, msg, err := s.Sessions.Start(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, turn(sess, msg))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.Sessions.List(r.Context(), UserID(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]SessionSummary, 0, len(list))
	for _, sess := range list {
		out = append(out, SessionSummary{
			ID:        sess.ID,
			Title:     sess.Title,
			Stage:     sess.Cursor.Stage,
			Concepts:  len(sess.Concepts),
			UpdatedAt: sess.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Get(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage handles POST /sessions/{id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	text, err := sanitize.Input(req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, msg, err := s.Sessions.Turn(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn(sess, msg))
}

// Skip handles POST /sessions/{id}/skip.
func (s *Server) Skip(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, s.Dialogue.Skip)
}

// EditField handles POST /sessions/{id}/edit.
func (s *Server) EditField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if !s.bind(w, r, &req) {
		return
	}
	s.do(w, r, func(ctx context.Context, sess *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return s.Dialogue.EditField(ctx, sess, domain.Field(req.Field))
	})
}

// NewConcept handles POST /sessions/{id}/concepts.
func (s *Server) NewConcept(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.bind(w, r, &req) {
		return
	}
	s.do(w, r, func(ctx context.Context, sess *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return s.Dialogue.NewConcept(ctx, sess, req.Name)
	})
}

// DeleteConcept handles DELETE /sessions/{id}/concepts/{name}.
func (s *Server) DeleteConcept(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.do(w, r, func(ctx context.Context, sess *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return s.Dialogue.DeleteConcept(ctx, sess, name)
	})
}

// SwitchConcept handles POST /sessions/{id}/switch.
func (s *Server) SwitchConcept(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.bind(w, r, &req) {
		return
	}
	s.do(w, r, func(ctx context.Context, sess *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return s.Dialogue.SwitchConcept(ctx, sess, req.Name)
	})
}

// Rename handles POST /sessions/{id}/rename.
func (s *Server) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !s.bind(w, r, &req) {
		return
	}
	s.do(w, r, func(ctx context.Context, sess *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return s.Dialogue.Rename(ctx, sess, req.OldName, req.NewName)
	})
}

// Strikethrough handles POST /sessions/{id}/strikethrough.
func (s *Server) Strikethrough(w http.ResponseWriter, r *http.Request) {
	var req strikethroughRequest
	if !s.bind(w, r, &req) {
		return
	}
	s.do(w, r, func(ctx context.Context, sess *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return s.Dialogue.Strikethrough(ctx, sess, req.Name, !req.Restore)
	})
}

// Extract handles POST /sessions/{id}/extract.
func (s *Server) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !s.bind(w, r, &req) {
		return
	}
	s.do(w, r, func(ctx context.Context, sess *domain.Session) (*domain.Session, domain.OutboundMessage) {
		return s.Dialogue.Extract(ctx, sess, req.Source, domain.Field(req.Field), req.Value)
	})
}

// GetHierarchy handles GET /sessions/{id}/hierarchy.
func (s *Server) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	h, err := s.Sessions.Hierarchy(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// GetDocument handles GET /sessions/{id}/document as markdown.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	sess, err := s.Sessions.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	author := ""
	if account, err := s.Accounts.Account(r.Context(), userID); err == nil {
		author = account.Username
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.Dialogue.Document(sess, author)))
}

// bind decodes, validates and sanitises a request body. It writes the
// error response itself and reports whether the handler may continue.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := decode(r, req); err != nil {
		s.writeError(w, r, err)
		return false
	}
	if err := validation.Struct(req); err != nil {
		s.writeError(w, r, err)
		return false
	}
	if err := sanitizeStrings(req); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

// sanitizeStrings runs every free-text field of a request through the
// input sanitiser.
func sanitizeStrings(req any) error {
	var fields []*string
	switch v := req.(type) {
	case *nameRequest:
		fields = []*string{&v.Name}
	case *renameRequest:
		fields = []*string{&v.OldName, &v.NewName}
	case *strikethroughRequest:
		fields = []*string{&v.Name}
	case *extractRequest:
		fields = []*string{&v.Source, &v.Value}
	}
	for _, f := range fields {
		clean, err := sanitize.Input(*f)
		if err != nil {
			return err
		}
		*f = clean
	}
	return nil
}

func (s *Server) do(w http.ResponseWriter, r *http.Request, action session.Action) {
	sess, msg, err := s.Sessions.Do(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"), action)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn(sess, msg))
}
