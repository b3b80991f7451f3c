// Package slot provides the durable key-value slot a shopper's cart is
// persisted to between requests.
package slot

import (
	"context"
	"fmt"
	"strings"
)

// Store reads and writes opaque string values by key.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SessionKey scopes a named slot to a shopper session.
func SessionKey(sessionID, name string) string {
	sessionID = strings.TrimSpace(sessionID)
	name = strings.TrimSpace(name)
	if sessionID == "" {
		return name
	}
	return fmt.Sprintf("%s:%s", sessionID, name)
}
