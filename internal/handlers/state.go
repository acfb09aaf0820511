package handlers

import (
	"sync"

	"github.com/jordanngo205/Basketball-Tracker/internal/registry"
)

// State is the explicit session state: the game registry plus the mutex that
// keeps core mutations strictly sequential. It is owned by the caller and
// passed into the handler, so the core carries no hidden globals.
type State struct {
	sync.Mutex
	Registry *registry.Registry
}

// NewState returns an empty session state.
func NewState() *State {
	return &State{Registry: registry.New()}
}
