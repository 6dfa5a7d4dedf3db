// Package completion records that an elicitation session finished uploading.
package completion

import (
	"context"
	"fmt"
)

const (
	// CookieName is the persisted completion marker.
	CookieName = "all_done"
	// CookieValue marks a completed session.
	CookieValue = "true"
)

// Store is the durable key/value surface the marker lives in.
type Store interface {
	Get(name string) (string, bool)
	Set(name string, value string) error
}

// Signal persists the completion marker and then triggers a workflow reload.
type Signal struct {
	store  Store
	reload func()
}

// NewSignal constructs a completion signal. reload may be nil.
func NewSignal(store Store, reload func()) *Signal {
	return &Signal{store: store, reload: reload}
}

// MarkDone persists all_done=true and reloads the workflow.
func (s *Signal) MarkDone(_ context.Context) error {
	if err := s.store.Set(CookieName, CookieValue); err != nil {
		return fmt.Errorf("persist completion flag: %w", err)
	}
	if s.reload != nil {
		s.reload()
	}
	return nil
}

// Done reports whether a previous session already completed.
func (s *Signal) Done() bool {
	return Done(s.store)
}

// Done reports whether store carries the completion marker.
func Done(store Store) bool {
	value, ok := store.Get(CookieName)
	return ok && value == CookieValue
}
