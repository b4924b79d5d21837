package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/seee/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(context.Context, string, *domain.Session) error {
	return nil
}

func (nopStore) Load(context.Context, string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}

func (nopStore) Delete(context.Context, string) error {
	return nil
}

func (nopStore) List(context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_GatesAreDropped(t *testing.T) {
	m := NewManager(nopStore{})
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("session-%d", i)
		require.NoError(t, m.Save(ctx, id, domain.NewSession(id, "", time.Time{})))
		require.NoError(t, m.Delete(ctx, id))
	}
	assert.Empty(t, m.gates)
}

func TestManager_WaitHonoursCancellation(t *testing.T) {
	m := NewManager(nopStore{})
	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = m.WithLock(context.Background(), "busy", func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	called := false
	err := m.WithLock(ctx, "busy", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)

	close(done)
	require.Eventually(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.gates) == 0
	}, time.Second, 5*time.Millisecond)
}
