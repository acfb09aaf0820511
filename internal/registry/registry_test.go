package registry

import (
	"errors"
	"testing"

	"github.com/jordanngo205/Basketball-Tracker/internal/model"
)

func TestCreate_BlankNameRejected(t *testing.T) {
	r := New()
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := r.Create(name, "", "2026-01-10")
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create(%q): expected ValidationError, got %v", name, err)
		}
	}
	if len(r.Games()) != 0 {
		t.Error("rejected create must not insert a game")
	}
	if r.Active() != nil {
		t.Error("rejected create must not change the active selection")
	}
}

func TestCreate_FrontInsertAndActivate(t *testing.T) {
	r := New()
	first, err := r.Create("vs Wildcats", "Guelph", "2026-01-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Create("  vs Gryphons  ", "", "2026-01-17")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Name != "vs Gryphons" {
		t.Errorf("name = %q, want trimmed", second.Name)
	}
	games := r.Games()
	if games[0].ID != second.ID || games[1].ID != first.ID {
		t.Error("games must be ordered most-recent-first")
	}
	if r.Active() == nil || r.Active().ID != second.ID {
		t.Error("newest game must become active")
	}
}

func TestSelect(t *testing.T) {
	r := New()
	first, _ := r.Create("game one", "", "2026-01-10")
	r.Create("game two", "", "2026-01-11")

	r.Select(first.ID)
	if r.Active().ID != first.ID {
		t.Error("select did not change the active game")
	}

	r.Select("missing-id") // safe no-op
	if r.Active().ID != first.ID {
		t.Error("selecting a missing id must not change the active game")
	}
}

func TestDelete_ReselectsFrontOrClears(t *testing.T) {
	r := New()
	first, _ := r.Create("game one", "", "2026-01-10")
	second, _ := r.Create("game two", "", "2026-01-11")

	r.Delete(second.ID) // active game removed
	if r.Active() == nil || r.Active().ID != first.ID {
		t.Error("deleting the active game must re-select the front game")
	}

	r.Delete("missing-id") // safe no-op
	if len(r.Games()) != 1 {
		t.Error("deleting a missing id must be a no-op")
	}

	r.Delete(first.ID)
	if r.Active() != nil {
		t.Error("emptying the registry must clear the active selection")
	}
}

func TestDelete_InactiveGameKeepsSelection(t *testing.T) {
	r := New()
	first, _ := r.Create("game one", "", "2026-01-10")
	second, _ := r.Create("game two", "", "2026-01-11")

	r.Delete(first.ID)
	if r.Active().ID != second.ID {
		t.Error("deleting an inactive game must not change the selection")
	}
}

func TestReplace(t *testing.T) {
	r := New()
	r.Create("stale", "", "2026-01-01")

	fresh := []*Game{}
	r.Replace(fresh)
	if r.Active() != nil || len(r.Games()) != 0 {
		t.Error("replacing with an empty set must clear everything")
	}
}
