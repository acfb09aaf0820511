// Package registry tracks the set of games and the active selection.
package registry

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jordanngo205/Basketball-Tracker/internal/ledger"
	"github.com/jordanngo205/Basketball-Tracker/internal/model"
)

// Game is one tracked game. ID is client-generated and immutable; it is the
// reconciliation key with the store. The game owns its possession ledger.
type Game struct {
	ID        string
	Name      string
	Opponent  string
	Date      string // YYYY-MM-DD
	CreatedAt string // RFC3339
	Ledger    *ledger.Ledger
}

// Registry holds games most-recent-first plus the active selection. At most
// one game is active at a time, possibly none.
type Registry struct {
	games    []*Game
	activeID string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Create inserts a new game at the front of the registry and makes it
// active. A name that is blank after trimming is rejected.
func (r *Registry) Create(name, opponent, date string) (*Game, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &model.ValidationError{Field: "name", Value: name}
	}

	game := &Game{
		ID:        uuid.NewString(),
		Name:      name,
		Opponent:  opponent,
		Date:      date,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Ledger:    ledger.New(),
	}
	r.games = append([]*Game{game}, r.games...)
	r.activeID = game.ID
	return game, nil
}

// Select makes the game with the given id active. A missing id is a safe
// no-op.
func (r *Registry) Select(id string) {
	if r.Get(id) != nil {
		r.activeID = id
	}
}

// Delete removes a game and cascades to its possessions (the ledger is owned
// by the game and goes with it). If the deleted game was active, the new
// front-of-registry game becomes active, or the selection clears when the
// registry is empty. A missing id is a safe no-op.
func (r *Registry) Delete(id string) {
	kept := r.games[:0]
	found := false
	for _, g := range r.games {
		if g.ID == id {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return
	}
	r.games = kept

	if r.activeID == id {
		if len(r.games) > 0 {
			r.activeID = r.games[0].ID
		} else {
			r.activeID = ""
		}
	}
}

// Active returns the active game, or nil when none is selected.
func (r *Registry) Active() *Game {
	return r.Get(r.activeID)
}

// Get returns the game with the given id, or nil.
func (r *Registry) Get(id string) *Game {
	if id == "" {
		return nil
	}
	for _, g := range r.games {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// Games returns all games, most-recent-first.
func (r *Registry) Games() []*Game {
	out := make([]*Game, len(r.games))
	copy(out, r.games)
	return out
}

// Replace swaps the whole registry contents, e.g. after a full reload from
// the store. The front game becomes active; an empty set clears the
// selection.
func (r *Registry) Replace(games []*Game) {
	r.games = games
	if len(games) > 0 {
		r.activeID = games[0].ID
	} else {
		r.activeID = ""
	}
}
