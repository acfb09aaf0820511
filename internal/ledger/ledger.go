// Package ledger maintains the ordered possession set for one game, plus the
// visible row count each quarter shows in the scoring sheet. Mutation is
// strictly sequential; callers own the synchronization boundary.
package ledger

import (
	"sort"

	"github.com/jordanngo205/Basketball-Tracker/internal/model"
)

// DefaultRows is the number of editable slots a quarter shows before any
// explicit expansion.
const DefaultRows = 30

// Ledger holds one game's possessions keyed by (quarter, number) and the
// per-quarter visible row counts. A slot is only materialized as a record
// once the first field is written to it.
type Ledger struct {
	possessions   []model.Possession
	rowsByQuarter map[int]int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{rowsByQuarter: make(map[int]int)}
}

// Restore builds a ledger from an already-sorted possession set, e.g. one
// loaded back from the store.
func Restore(possessions []model.Possession) *Ledger {
	l := New()
	l.possessions = append(l.possessions, possessions...)
	l.sort()
	return l
}

// Upsert applies updates to the record at (quarter, number), materializing
// the slot first if nothing has been written to it yet. Replaying the same
// updates is idempotent by field values.
func (l *Ledger) Upsert(quarter, number int, updates model.FieldUpdates) (model.Possession, error) {
	if err := updates.Validate(); err != nil {
		return model.Possession{}, err
	}

	for i, p := range l.possessions {
		if p.Quarter == quarter && p.Number == number {
			updated, err := model.ApplyUpdates(p, updates)
			if err != nil {
				return model.Possession{}, err
			}
			l.possessions[i] = updated
			return updated, nil
		}
	}

	created, err := model.NewPossession(quarter, number)
	if err != nil {
		return model.Possession{}, err
	}
	created, err = model.ApplyUpdates(created, updates)
	if err != nil {
		return model.Possession{}, err
	}
	l.possessions = append(l.possessions, created)
	l.sort()
	return created, nil
}

// Delete removes the record at (quarter, number) and closes the gap: every
// remaining record in the same quarter with a higher number shifts down by
// one. The deleted id is discarded, never reused. The quarter's visible row
// count shrinks by one (floor 1) whether or not a record existed at the slot.
// Returns true when a materialized record was removed.
func (l *Ledger) Delete(quarter, number int) bool {
	removed := false
	kept := l.possessions[:0]
	for _, p := range l.possessions {
		if p.Quarter == quarter && p.Number == number {
			removed = true
			continue
		}
		if p.Quarter == quarter && p.Number > number {
			p.Number--
		}
		kept = append(kept, p)
	}
	l.possessions = kept
	l.sort()

	if rows := l.RowCount(quarter) - 1; rows >= 1 {
		l.rowsByQuarter[quarter] = rows
	} else {
		l.rowsByQuarter[quarter] = 1
	}
	return removed
}

// RowCount returns the visible row count for a quarter.
func (l *Ledger) RowCount(quarter int) int {
	if rows, ok := l.rowsByQuarter[quarter]; ok {
		return rows
	}
	return DefaultRows
}

// Expand adds one blank editable row to a quarter without creating a record.
func (l *Ledger) Expand(quarter int) int {
	l.rowsByQuarter[quarter] = l.RowCount(quarter) + 1
	return l.rowsByQuarter[quarter]
}

// Get returns the record at (quarter, number), if materialized.
func (l *Ledger) Get(quarter, number int) (model.Possession, bool) {
	for _, p := range l.possessions {
		if p.Quarter == quarter && p.Number == number {
			return p, true
		}
	}
	return model.Possession{}, false
}

// All returns every possession ordered by (quarter, number).
func (l *Ledger) All() []model.Possession {
	out := make([]model.Possession, len(l.possessions))
	copy(out, l.possessions)
	return out
}

// ByQuarter returns the ordered possession subset for one quarter.
func (l *Ledger) ByQuarter(quarter int) []model.Possession {
	var out []model.Possession
	for _, p := range l.possessions {
		if p.Quarter == quarter {
			out = append(out, p)
		}
	}
	return out
}

// ByHalf returns the ordered subset for a half: half 1 covers quarters 1-2,
// half 2 covers quarters 3-4.
func (l *Ledger) ByHalf(half int) []model.Possession {
	first, second := 1, 2
	if half == 2 {
		first, second = 3, 4
	}
	var out []model.Possession
	for _, p := range l.possessions {
		if p.Quarter == first || p.Quarter == second {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of materialized possessions.
func (l *Ledger) Len() int {
	return len(l.possessions)
}

func (l *Ledger) sort() {
	sort.SliceStable(l.possessions, func(i, j int) bool {
		if l.possessions[i].Quarter != l.possessions[j].Quarter {
			return l.possessions[i].Quarter < l.possessions[j].Quarter
		}
		return l.possessions[i].Number < l.possessions[j].Number
	})
}
