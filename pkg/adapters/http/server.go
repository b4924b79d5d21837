// Package http exposes sessions, accounts and the commission cabinet over
// a chi router.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/aretw0/seee"
	"github.com/aretw0/seee/internal/accounts"
	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/internal/metrics"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/referral"
	"github.com/aretw0/seee/pkg/session"
)

// Dialogue is the set of engine entry points reachable over HTTP.
type Dialogue interface {
	Skip(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage)
	EditField(ctx context.Context, s *domain.Session, field domain.Field) (*domain.Session, domain.OutboundMessage)
	NewConcept(ctx context.Context, s *domain.Session, name string) (*domain.Session, domain.OutboundMessage)
	SwitchConcept(ctx context.Context, s *domain.Session, name string) (*domain.Session, domain.OutboundMessage)
	Rename(ctx context.Context, s *domain.Session, oldName, newName string) (*domain.Session, domain.OutboundMessage)
	Strikethrough(ctx context.Context, s *domain.Session, name string, struck bool) (*domain.Session, domain.OutboundMessage)
	Extract(ctx context.Context, s *domain.Session, source string, field domain.Field, value string) (*domain.Session, domain.OutboundMessage)
	DeleteConcept(ctx context.Context, s *domain.Session, name string) (*domain.Session, domain.OutboundMessage)
	Document(s *domain.Session, author string) string
}

// Accounts registers users and verifies their tokens.
type Accounts interface {
	Register(ctx context.Context, req accounts.RegisterRequest) (*referral.Account, error)
	Login(ctx context.Context, username, password string) (string, error)
	Verify(token string) (string, error)
	Account(ctx context.Context, userID string) (*referral.Account, error)
}

// Payments processes payments and serves the cabinet.
type Payments interface {
	ProcessPayment(ctx context.Context, userID string, amount decimal.Decimal) ([]referral.Commission, error)
	Balance(ctx context.Context, userID string) (referral.Balance, error)
	Transactions(ctx context.Context, userID string, limit int) ([]referral.Transaction, error)
	Downline(ctx context.Context, userID string) ([]referral.DownlineEntry, error)
}

// Server holds the collaborators of the HTTP handlers.
// Sessions, Dialogue and Accounts are required.
type Server struct {
	Sessions *session.Orchestrator
	Dialogue Dialogue
	Accounts Accounts
	Payments Payments
	Notebook Notebook
	Streams  *StreamManager
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	// SelfPayments exposes POST /payments, which lets a user record a
	// payment for themselves. Meant for demos and tests only.
	SelfPayments bool
	// AllowedOrigins lists browser origins accepted for WebSocket chat in
	// addition to the serving host.
	AllowedOrigins []string
}

// NewHandler wires the routes. Session diffs committed by s.Sessions are
// broadcast to SSE subscribers.
func NewHandler(s *Server) http.Handler {
	if s.Logger == nil {
		s.Logger = logging.NewNop()
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.Logger)
	}
	s.Sessions.Subscribe(s.Streams.Observer())

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Post("/auth/register", s.Register)
	r.Post("/auth/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.CreateSession)
			r.Get("/", s.ListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetSession)
				r.Delete("/", s.DeleteSession)
				r.Post("/messages", s.SendMessage)
				r.Post("/skip", s.Skip)
				r.Post("/edit", s.EditField)
				r.Post("/concepts", s.NewConcept)
				r.Delete("/concepts/{name}", s.DeleteConcept)
				r.Post("/switch", s.SwitchConcept)
				r.Post("/rename", s.Rename)
				r.Post("/strikethrough", s.Strikethrough)
				r.Post("/extract", s.Extract)
				r.Get("/hierarchy", s.GetHierarchy)
				r.Get("/document", s.GetDocument)
				r.Get("/events", s.SubscribeEvents)
				r.Get("/ws", s.Chat)
			})
		})

		if s.Payments != nil {
			if s.SelfPayments {
				r.Post("/payments", s.CreatePayment)
			}
			r.Get("/cabinet/balance", s.GetBalance)
			r.Get("/cabinet/transactions", s.GetTransactions)
			r.Get("/cabinet/referrals", s.GetReferrals)
		}

		if s.Notebook != nil {
			r.Route("/cabinet/thoughts", func(r chi.Router) {
				r.Get("/", s.GetThoughts)
				r.Post("/", s.CreateThought)
				r.Put("/{entryID}", s.UpdateThought)
				r.Delete("/{entryID}", s.DeleteThought)
			})
			r.Get("/map/events", s.GetMapEvents)
			r.Route("/map/entries", func(r chi.Router) {
				r.Get("/", s.GetMapEntries)
				r.Post("/", s.CreateMapEntry)
				r.Put("/{entryID}", s.UpdateMapEntry)
				r.Delete("/{entryID}", s.DeleteMapEntry)
				r.Post("/{entryID}/complete", s.CompleteMapEntry)
			})
		}
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs every request and records its latency by route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		if s.Metrics != nil {
			s.Metrics.ObserveRequest(r.Method, route, status, elapsed)
		}
		s.Logger.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "seee-http",
		"version": seee.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}
