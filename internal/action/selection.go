package action

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownAction is returned when a toggle names an action that is not registered.
	ErrUnknownAction = errors.New("unknown action")
	// ErrHiddenAction is returned when a toggle names an action that is not user-selectable.
	ErrHiddenAction = errors.New("action is not user-selectable")
)

// Selection holds the user's per-action toggles for an interactive session.
// It is seeded from each action's default and safe for concurrent use.
type Selection struct {
	mu       sync.RWMutex
	registry *Registry
	enabled  map[string]bool
}

// NewSelection seeds a selection from the registry defaults.
func NewSelection(registry *Registry) *Selection {
	s := &Selection{
		registry: registry,
		enabled:  make(map[string]bool),
	}
	for _, d := range registry.Descriptors() {
		s.enabled[d.Name] = d.DefaultEnabled
	}
	return s
}

// SetEnabled toggles a visible action on or off.
func (s *Selection) SetEnabled(name string, enabled bool) error {
	a, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	if !a.Describe().Visible {
		return fmt.Errorf("%w: %s", ErrHiddenAction, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled[name] = enabled
	return nil
}

// Enabled reports whether the named action is currently selected.
func (s *Selection) Enabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled[name]
}

// IDs returns the selected action names as an explicit allow-list, in
// registration order. The result is never nil.
func (s *Selection) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.enabled))
	for _, d := range s.registry.Descriptors() {
		if s.enabled[d.Name] {
			ids = append(ids, d.Name)
		}
	}
	return ids
}
