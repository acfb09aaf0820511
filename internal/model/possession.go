package model

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal result of a possession.
type Outcome string

const (
	OutcomeRimMake      Outcome = "shot_at_rim_make"
	OutcomeRimMiss      Outcome = "shot_at_rim_miss"
	OutcomeKickOut3Make Outcome = "kick_out_3_make"
	OutcomeKickOut3Miss Outcome = "kick_out_3_miss"
	OutcomeFoulDrawn    Outcome = "foul_drawn"
	OutcomeTurnover     Outcome = "turnover"
	OutcomePutback      Outcome = "putback"
	OutcomeReset        Outcome = "reset"
)

// Outcomes lists every valid outcome in display order.
var Outcomes = []Outcome{
	OutcomeRimMake,
	OutcomeRimMiss,
	OutcomeKickOut3Make,
	OutcomeKickOut3Miss,
	OutcomeFoulDrawn,
	OutcomeTurnover,
	OutcomePutback,
	OutcomeReset,
}

// OutcomeLabels maps outcome values to their display labels.
var OutcomeLabels = map[Outcome]string{
	OutcomeRimMake:      "Shot at Rim - Make",
	OutcomeRimMiss:      "Shot at Rim - Miss",
	OutcomeKickOut3Make: "Kick-out 3PT - Make",
	OutcomeKickOut3Miss: "Kick-out 3PT - Miss",
	OutcomeFoulDrawn:    "Foul Drawn",
	OutcomeTurnover:     "Turnover",
	OutcomePutback:      "Putback",
	OutcomeReset:        "Reset (No Advantage)",
}

// Defense is the opponent defensive scheme faced on a possession.
type Defense string

const (
	DefenseMan  Defense = "man"
	DefenseZone Defense = "zone"
)

// ShotQuality is the scorer's good/bad tag for the shot taken.
type ShotQuality string

const (
	ShotQualityGood ShotQuality = "good"
	ShotQualityBad  ShotQuality = "bad"
)

// Opponents is the fixed OUA roster offered for the opponent field.
var Opponents = []string{
	"Guelph",
	"Queen's",
	"Carleton",
	"Ottawa",
	"Laurentian",
	"Nipissing",
	"Ontario Tech",
	"Windsor",
	"Western",
	"TMU",
	"Brock",
	"York",
	"Toronto",
	"Lakehead",
	"McMaster",
	"Laurier",
	"Algoma",
}

// MaxPoints is the highest points value a single possession can record.
const MaxPoints = 4

// Possession is one logged offensive possession. ID is a client-generated
// stable identifier used as the reconciliation key with the store; Number is
// the display position within the quarter, unique per (game, quarter).
type Possession struct {
	ID          string      `json:"id"`
	Quarter     int         `json:"quarter"`
	Number      int         `json:"number"`
	PaintTouch  bool        `json:"paint_touch"`
	Transition  bool        `json:"transition"`
	Points      *int        `json:"points"`
	Outcome     Outcome     `json:"outcome"`
	Defense     Defense     `json:"defense"`
	ShotQuality ShotQuality `json:"shot_quality"`
	Timestamp   string      `json:"timestamp"`
}

// FieldUpdates is a typed partial update: only non-nil fields are applied.
type FieldUpdates struct {
	PaintTouch  *bool        `json:"paint_touch,omitempty"`
	Transition  *bool        `json:"transition,omitempty"`
	Points      *int         `json:"points,omitempty"`
	Outcome     *Outcome     `json:"outcome,omitempty"`
	Defense     *Defense     `json:"defense,omitempty"`
	ShotQuality *ShotQuality `json:"shot_quality,omitempty"`
}

// Empty reports whether the update names no fields at all.
func (u FieldUpdates) Empty() bool {
	return u.PaintTouch == nil && u.Transition == nil && u.Points == nil &&
		u.Outcome == nil && u.Defense == nil && u.ShotQuality == nil
}

// Validate rejects any named field whose value is outside its domain.
func (u FieldUpdates) Validate() error {
	if u.Points != nil && (*u.Points < 0 || *u.Points > MaxPoints) {
		return &ValidationError{Field: "points", Value: *u.Points}
	}
	if u.Outcome != nil && !u.Outcome.Valid() {
		return &ValidationError{Field: "outcome", Value: *u.Outcome}
	}
	if u.Defense != nil && !u.Defense.Valid() {
		return &ValidationError{Field: "defense", Value: *u.Defense}
	}
	if u.ShotQuality != nil && !u.ShotQuality.Valid() {
		return &ValidationError{Field: "shot_quality", Value: *u.ShotQuality}
	}
	return nil
}

// Valid reports whether o is a member of the closed outcome enumeration.
func (o Outcome) Valid() bool {
	for _, known := range Outcomes {
		if o == known {
			return true
		}
	}
	return false
}

// Valid reports whether d is man or zone.
func (d Defense) Valid() bool {
	return d == DefenseMan || d == DefenseZone
}

// Valid reports whether q is good or bad.
func (q ShotQuality) Valid() bool {
	return q == ShotQualityGood || q == ShotQualityBad
}

// NewPossession creates the record for a freshly filled (quarter, number)
// slot: all fields unset, id generated once and stable across later edits.
func NewPossession(quarter, number int) (Possession, error) {
	if quarter < 1 || quarter > 4 {
		return Possession{}, &ValidationError{Field: "quarter", Value: quarter}
	}
	if number < 1 {
		return Possession{}, &ValidationError{Field: "number", Value: number}
	}
	return Possession{
		ID:      uuid.NewString(),
		Quarter: quarter,
		Number:  number,
	}, nil
}

// ApplyUpdates merges the named fields of u into p. This is the sole mutation
// primitive for possession fields; it validates before touching p, so a
// rejected update leaves p unchanged. The timestamp is refreshed on every
// successful write and is used only for last-write-wins reconciliation.
func ApplyUpdates(p Possession, u FieldUpdates) (Possession, error) {
	if err := u.Validate(); err != nil {
		return p, err
	}
	if u.PaintTouch != nil {
		p.PaintTouch = *u.PaintTouch
	}
	if u.Transition != nil {
		p.Transition = *u.Transition
	}
	if u.Points != nil {
		points := *u.Points
		p.Points = &points
	}
	if u.Outcome != nil {
		p.Outcome = *u.Outcome
	}
	if u.Defense != nil {
		p.Defense = *u.Defense
	}
	if u.ShotQuality != nil {
		p.ShotQuality = *u.ShotQuality
	}
	p.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	return p, nil
}

// PointsOrZero returns the recorded points, treating unset as 0.
func (p Possession) PointsOrZero() int {
	if p.Points == nil {
		return 0
	}
	return *p.Points
}

// Scored reports whether the possession produced at least one point.
func (p Possession) Scored() bool {
	return p.PointsOrZero() > 0
}
