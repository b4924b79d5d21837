package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a session lock. A failed release is logged by the
// caller; the lock then lapses when its TTL runs out.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serialises turns on one session across server replicas
// that share a Redis or SQL session store. It complements the in-process
// gate of session.Manager.
type DistributedLocker interface {
	// Lock waits until key is held or ctx is done. The lock lapses after
	// ttl even if UnlockFunc is never called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
