package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/seee/internal/logging"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock may be held.
const DefaultLockTTL = 30 * time.Second

// gate admits one holder per session. Waiting on the token channel honours
// context cancellation, so an abandoned request stops queueing for a turn.
type gate struct {
	token chan struct{}
	users int // holders plus waiters; the gate is dropped at zero
}

// Manager serialises access to stored sessions so that two turns on the
// same session never interleave their load and save. Gates exist only
// while someone holds or waits for them. With a DistributedLocker the
// guarantee extends to replicas sharing the store.
type Manager struct {
	store   ports.SessionStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	gates map[string]*gate
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker adds a cross-replica lock taken after the local gate.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger sets the logger used for lock release failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		gates:   make(map[string]*gate),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// enter waits for the session gate and returns the function that leaves it.
func (m *Manager) enter(ctx context.Context, sessionID string) (func(), error) {
	m.mu.Lock()
	g, ok := m.gates[sessionID]
	if !ok {
		g = &gate{token: make(chan struct{}, 1)}
		m.gates[sessionID] = g
	}
	g.users++
	m.mu.Unlock()

	select {
	case g.token <- struct{}{}:
		return func() {
			<-g.token
			m.leave(sessionID, g)
		}, nil
	case <-ctx.Done():
		m.leave(sessionID, g)
		return nil, fmt.Errorf("waiting for session %s: %w", sessionID, ctx.Err())
	}
}

func (m *Manager) leave(sessionID string, g *gate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.users--
	if g.users == 0 && m.gates[sessionID] == g {
		delete(m.gates, sessionID)
	}
}

// WithLock runs fn as the only holder of the session, locally and, when a
// locker is configured, across replicas.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	exit, err := m.enter(ctx, sessionID)
	if err != nil {
		return err
	}
	defer exit()

	if m.locker == nil {
		return fn(ctx)
	}
	unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire distributed lock: %w", err)
	}
	defer func() {
		if err := unlock(ctx); err != nil {
			m.logger.Warn("distributed session lock not released, it will expire",
				"session_id", sessionID,
				"ttl", m.lockTTL,
				"err", err,
			)
		}
	}()
	return fn(ctx)
}

// Load reads a session while no turn is in flight on it.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// LoadOrCreate returns the stored session, or saves and returns create()
// when there is none. created reports which happened.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string, create func() *domain.Session) (s *domain.Session, created bool, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		loaded, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			s = loaded
			return nil
		case !errors.Is(err, domain.ErrSessionNotFound):
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		fresh := create()
		if err := m.store.Save(ctx, sessionID, fresh); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		s, created = fresh, true
		return nil
	})
	return s, created, err
}

// Save writes the session.
func (m *Manager) Save(ctx context.Context, sessionID string, s *domain.Session) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, s)
	})
}

// Delete removes the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List returns every stored session id without locking.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}
