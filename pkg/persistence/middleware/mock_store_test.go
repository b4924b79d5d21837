package middleware_test

import (
	"context"

	"github.com/aretw0/seee/pkg/adapters/memory"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/ports"
)

// rawStore exposes what the wrapped store actually holds.
type rawStore struct {
	*memory.Store
}

func newRawStore() *rawStore {
	return &rawStore{Store: memory.NewStore()}
}

func (s *rawStore) raw(ctx context.Context, id string) *domain.Session {
	out, err := s.Store.Load(ctx, id)
	if err != nil {
		panic(err)
	}
	return out
}

var _ ports.SessionStore = (*rawStore)(nil)
