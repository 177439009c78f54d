package websocket

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrActionAlreadyExists is returned when an action is allowed twice.
	ErrActionAlreadyExists = errors.New("action already exists in whitelist")
	// ErrInvalidAction is returned for an empty action.
	ErrInvalidAction = errors.New("action cannot be empty")
)

// Whitelist is the set of bus topics clients may publish to.
type Whitelist struct {
	mu      sync.RWMutex
	actions map[string]struct{}
}

// NewWhitelist creates a whitelist. Empty actions are ignored.
func NewWhitelist(actions ...string) *Whitelist {
	w := &Whitelist{actions: make(map[string]struct{}, len(actions))}
	for _, a := range actions {
		if a != "" {
			w.actions[a] = struct{}{}
		}
	}
	return w
}

// IsAllowed reports whether clients may publish action.
func (w *Whitelist) IsAllowed(action string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.actions[action]
	return ok
}

// Allow adds action to the whitelist.
func (w *Whitelist) Allow(action string) error {
	if action == "" {
		return ErrInvalidAction
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.actions[action]; ok {
		return ErrActionAlreadyExists
	}
	w.actions[action] = struct{}{}
	return nil
}

// Actions lists the allowed actions in order.
func (w *Whitelist) Actions() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.actions))
	for a := range w.actions {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
