package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/sanitize"
	"github.com/aretw0/seee/pkg/session"
)

// StreamManager fans session diffs out to SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func
// unsubscribes and closes the channel; it is safe to call more than once.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		subs, ok := sm.subscribers[sessionID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; !ok {
			return
		}
		delete(subs, ch)
		close(ch)
		if len(subs) == 0 {
			delete(sm.subscribers, sessionID)
		}
	}
}

// Broadcast sends msg to every subscriber of sessionID. Slow clients drop
// messages instead of blocking the turn.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Subscribers returns the number of open streams of sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Observer adapts the manager to a session.Observer.
func (sm *StreamManager) Observer() session.Observer {
	return func(_ context.Context, diff *domain.SessionDiff) {
		data, err := json.Marshal(diff)
		if err != nil {
			sm.logger.Error("SSE: diff encode failed", "session_id", diff.SessionID, "err", err)
			return
		}
		sm.Broadcast(diff.SessionID, string(data))
	}
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// The optional watch query parameter (comma separated: stage, concepts,
// message) drops diffs that change none of the listed parts.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.Sessions.Get(r.Context(), UserID(r.Context()), sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.Logger.Info("SSE: subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watch []string
	if v := r.URL.Query().Get("watch"); v != "" {
		watch = strings.Split(v, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watched(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func watched(msg string, watch []string) bool {
	var diff domain.SessionDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "stage":
			if diff.Stage != nil || diff.CurrentConcept != nil {
				return true
			}
		case "concepts":
			if len(diff.Concepts) > 0 {
				return true
			}
		case "message":
			if diff.Message != nil {
				return true
			}
		}
	}
	return false
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts clients that send no Origin, same-host pages and the
// configured AllowedOrigins. "*" allows any origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ChatMessage is one frame of the WebSocket chat.
type ChatMessage struct {
	Text string `json:"text"`
}

// Chat handles GET /sessions/{id}/ws. The current prompt is sent on
// connect, then every text frame is one turn answered with a TurnResponse.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	sessionID := chi.URLParam(r, "id")
	prompt, err := s.Sessions.Prompt(r.Context(), userID, sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("websocket upgrade failed", "session_id", sessionID, "err", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(TurnResponse{SessionID: sessionID, Stage: stageOf(prompt), Message: prompt}); err != nil {
		return
	}

	for {
		var in ChatMessage
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Logger.Warn("websocket read failed", "session_id", sessionID, "err", err)
			}
			return
		}

		text, err := sanitize.Input(in.Text)
		if err != nil {
			if err := conn.WriteJSON(map[string]string{"error": err.Error()}); err != nil {
				return
			}
			continue
		}

		sess, msg, err := s.Sessions.Turn(r.Context(), userID, sessionID, text)
		if err != nil {
			s.Logger.Error("websocket turn failed", "session_id", sessionID, "err", err)
			conn.WriteJSON(map[string]string{"error": http.StatusText(statusFor(err))})
			return
		}
		if err := conn.WriteJSON(turn(sess, msg)); err != nil {
			return
		}
	}
}

func stageOf(msg domain.OutboundMessage) domain.Stage {
	stage, _ := msg.Extra[domain.ExtraStage].(string)
	return domain.Stage(stage)
}
