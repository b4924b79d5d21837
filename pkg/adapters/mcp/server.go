// Package mcp exposes dialogue sessions as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/seee"
	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/sanitize"
	"github.com/aretw0/seee/pkg/session"
)

const sessionsURI = "seee://sessions"

// TurnResponse is the structured result of every tool that runs the engine.
type TurnResponse struct {
	SessionID string                 `json:"session_id" jsonschema_description:"The session the turn belongs to"`
	Stage     domain.Stage           `json:"stage" jsonschema_description:"Dialogue stage after the turn"`
	Message   domain.OutboundMessage `json:"message" jsonschema_description:"The reply to show the user"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type messageArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Dialogue is the engine surface used by the tools beyond plain turns.
type Dialogue interface {
	Skip(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage)
	Document(s *domain.Session, author string) string
}

// Server exposes an Orchestrator as an MCP server.
type Server struct {
	sessions  *session.Orchestrator
	dialogue  Dialogue
	ownerID   string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithOwner scopes every tool call to one session owner.
func WithOwner(ownerID string) Option {
	return func(s *Server) {
		s.ownerID = ownerID
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *session.Orchestrator, dialogue Dialogue, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		dialogue:  dialogue,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("seee-mcp", seee.Version, server.WithToolCapabilities(false)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new self-analysis session and return the first question."),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleStartSession))

	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send the user's answer to the current question of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by start_session")),
		mcp.WithString("text", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleSendMessage))

	s.mcpServer.AddTool(mcp.NewTool("skip_step",
		mcp.WithDescription("Leave the current question unanswered and move on."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleSkipStep))

	s.mcpServer.AddTool(mcp.NewTool("get_hierarchy",
		mcp.WithDescription("Get the concept tree of a session as JSON."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleGetHierarchy)

	s.mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Render the concepts of a session as a markdown document."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleGetDocument)
}

func (s *Server) handleStartSession(ctx context.Context, _ mcp.CallToolRequest, _ struct{}) (TurnResponse, error) {
	sess, msg, err := s.sessions.Start(ctx, s.ownerID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("start failed: %w", err)
	}
	return turn(sess, msg), nil
}

func (s *Server) handleSendMessage(ctx context.Context, _ mcp.CallToolRequest, args messageArgs) (TurnResponse, error) {
	clean, err := sanitize.Input(args.Text)
	if err != nil {
		s.logger.Warn("MCP send_message: input rejected", "err", err, "size", len(args.Text))
		return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	sess, msg, err := s.sessions.Turn(ctx, s.ownerID, args.SessionID, clean)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}
	return turn(sess, msg), nil
}

func (s *Server) handleSkipStep(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (TurnResponse, error) {
	sess, msg, err := s.sessions.Do(ctx, s.ownerID, args.SessionID, s.dialogue.Skip)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("skip failed: %w", err)
	}
	return turn(sess, msg), nil
}

func (s *Server) handleGetHierarchy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	h, err := s.sessions.Hierarchy(ctx, s.ownerID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("hierarchy failed: %v", err)), nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.sessions.Get(ctx, s.ownerID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("document failed: %v", err)), nil
	}
	return mcp.NewToolResultText(s.dialogue.Document(sess, "")), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(sessionsURI, "Sessions",
		mcp.WithResourceDescription("Sessions visible to this server, newest first"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		list, err := s.sessions.List(ctx, s.ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		type entry struct {
			ID    string       `json:"id"`
			Title string       `json:"title"`
			Stage domain.Stage `json:"stage"`
		}
		out := make([]entry, 0, len(list))
		for _, sess := range list {
			out = append(out, entry{ID: sess.ID, Title: sess.Title, Stage: sess.Cursor.Stage})
		}
		data, _ := json.Marshal(out)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      sessionsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func turn(s *domain.Session, msg domain.OutboundMessage) TurnResponse {
	return TurnResponse{SessionID: s.ID, Stage: s.Cursor.Stage, Message: msg}
}
