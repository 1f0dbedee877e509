// internal/delivery/registry.go
package delivery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/compose"
)

// Handler delivers a message to target, the destination with its prefix
// removed (a Discord channel id, a Telegram chat id).
type Handler func(ctx context.Context, target string, msg compose.Message) error

// Registry routes messages to the appropriate delivery handler based on
// destination prefix (e.g. "discord:", "telegram:").
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty delivery registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for destinations starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Has reports whether a handler is registered for exactly prefix.
func (r *Registry) Has(prefix string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[prefix]
	return ok
}

// Deliver finds the handler with the longest prefix matching destination
// and calls it. Returns an error if no handler is registered for it.
func (r *Registry) Deliver(ctx context.Context, destination string, msg compose.Message) error {
	r.mu.RLock()
	var (
		best    string
		handler Handler
	)
	for prefix, h := range r.handlers {
		if strings.HasPrefix(destination, prefix) && len(prefix) >= len(best) {
			best, handler = prefix, h
		}
	}
	r.mu.RUnlock()

	if handler == nil {
		return fmt.Errorf("no delivery handler for destination: %s", destination)
	}
	return handler(ctx, strings.TrimPrefix(destination, best), msg)
}
