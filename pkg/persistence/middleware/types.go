// Package middleware wraps a ports.SessionStore with at-rest protections:
// AES-GCM sealing of session blobs and masking of personal fields.
package middleware

import "github.com/aretw0/seee/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies mws so that the first one sees writes first.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
