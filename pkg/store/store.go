// Package store persists small JSON snapshots (cart contents, auth
// session) across storefront restarts. It is a shadow copy only: the
// in-memory cart engine always wins on conflict and rewrites storage.
package store

import (
	"context"
	"fmt"
	"strings"
)

// Store is the durable key-value contract the cart engine relies on.
//
// Get reports found=false for keys that are absent OR hold corrupt
// data: a snapshot that cannot be decoded is treated as missing, never
// surfaced as a fatal error, so the engine can start from an empty cart.
type Store interface {
	Set(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	Remove(ctx context.Context, key string) error
}

// CartKey names the cart snapshot slot for one session.
func CartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", strings.TrimSpace(sessionID))
}

// SessionKey names the auth snapshot slot for one session.
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", strings.TrimSpace(sessionID))
}
