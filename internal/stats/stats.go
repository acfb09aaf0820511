// Package stats computes derived metrics over possession subsets. Every
// function is pure: it reads the supplied subset, mutates nothing, and treats
// an empty denominator as a defined zero rather than an error.
package stats

import (
	"math"
	"sort"

	"github.com/jordanngo205/Basketball-Tracker/internal/ledger"
	"github.com/jordanngo205/Basketball-Tracker/internal/model"
)

// Predicate selects possessions within a subset.
type Predicate func(model.Possession) bool

// MetricFunc evaluates one metric over a possession subset.
type MetricFunc func([]model.Possession) float64

// Common predicates for the dashboard metrics.
var (
	PaintTouch Predicate = func(p model.Possession) bool { return p.PaintTouch }
	Transition Predicate = func(p model.Possession) bool { return p.Transition }
	Scored     Predicate = func(p model.Possession) bool { return p.Scored() }
)

// FacedDefense returns a predicate matching possessions played against the
// given scheme.
func FacedDefense(d model.Defense) Predicate {
	return func(p model.Possession) bool { return p.Defense == d }
}

// Rate returns round(100 * matches / len(subset)) as an integer percentage,
// 0 for an empty subset. Rounding is half away from zero everywhere.
func Rate(subset []model.Possession, pred Predicate) int {
	if len(subset) == 0 {
		return 0
	}
	matches := 0
	for _, p := range subset {
		if pred(p) {
			matches++
		}
	}
	return roundPct(matches, len(subset))
}

// PointsPerPossession returns average points (unset counting as 0) rounded
// to 2 decimals, 0 for an empty subset.
func PointsPerPossession(subset []model.Possession) float64 {
	if len(subset) == 0 {
		return 0
	}
	total := 0
	for _, p := range subset {
		total += p.PointsOrZero()
	}
	return math.Round(float64(total)/float64(len(subset))*100) / 100
}

// ConditionalRate returns the rate of outcome among the possessions matching
// condition, 0 when the conditioning subset is empty.
func ConditionalRate(subset []model.Possession, condition, outcome Predicate) int {
	var conditioned []model.Possession
	for _, p := range subset {
		if condition(p) {
			conditioned = append(conditioned, p)
		}
	}
	return Rate(conditioned, outcome)
}

// OutcomeCount pairs an outcome with its occurrence count.
type OutcomeCount struct {
	Outcome model.Outcome `json:"outcome"`
	Label   string        `json:"label"`
	Count   int           `json:"count"`
}

// OutcomeCounts counts possessions per outcome for a fixed ordered key list,
// preserving key order for categorical chart inputs.
func OutcomeCounts(subset []model.Possession, keys []model.Outcome) []OutcomeCount {
	counts := make([]OutcomeCount, len(keys))
	for i, key := range keys {
		counts[i] = OutcomeCount{Outcome: key, Label: model.OutcomeLabels[key]}
		for _, p := range subset {
			if p.Outcome == key {
				counts[i].Count++
			}
		}
	}
	return counts
}

// StreaksOfAtLeast counts runs of consecutive possessions matching pred, in
// (quarter, number) order. A run counts exactly once, when it first reaches
// minLength; matches beyond that extend the run without recounting until a
// miss resets it.
func StreaksOfAtLeast(subset []model.Possession, pred Predicate, minLength int) int {
	if minLength < 1 {
		return 0
	}
	ordered := make([]model.Possession, len(subset))
	copy(ordered, subset)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Quarter != ordered[j].Quarter {
			return ordered[i].Quarter < ordered[j].Quarter
		}
		return ordered[i].Number < ordered[j].Number
	})

	streaks := 0
	run := 0
	for _, p := range ordered {
		if !pred(p) {
			run = 0
			continue
		}
		run++
		if run == minLength {
			streaks++
		}
	}
	return streaks
}

// QuarterPoint holds one quarter's metric values, in metric order.
type QuarterPoint struct {
	Quarter int       `json:"quarter"`
	Values  []float64 `json:"values"`
}

// QuarterSeries evaluates each metric against each quarter's own possession
// subset. The series always covers quarters 1 through 4; a quarter with no
// data yields the metrics' zero values.
func QuarterSeries(led *ledger.Ledger, metrics []MetricFunc) []QuarterPoint {
	series := make([]QuarterPoint, 0, 4)
	for q := 1; q <= 4; q++ {
		subset := led.ByQuarter(q)
		point := QuarterPoint{Quarter: q, Values: make([]float64, len(metrics))}
		for i, metric := range metrics {
			point.Values[i] = metric(subset)
		}
		series = append(series, point)
	}
	return series
}

// QuarterStat is one quarter's bar-chart entry.
type QuarterStat struct {
	Quarter        int `json:"quarter"`
	PaintRate      int `json:"paint_rate"`
	PaintScoreRate int `json:"paint_score_rate"`
}

// QuarterComparison builds the quarter-comparison chart series: paint-touch
// rate and score-given-paint-touch rate for each of the four quarters.
func QuarterComparison(led *ledger.Ledger) []QuarterStat {
	out := make([]QuarterStat, 0, 4)
	for q := 1; q <= 4; q++ {
		subset := led.ByQuarter(q)
		out = append(out, QuarterStat{
			Quarter:        q,
			PaintRate:      Rate(subset, PaintTouch),
			PaintScoreRate: ConditionalRate(subset, PaintTouch, Scored),
		})
	}
	return out
}

// DefenseSplit summarizes possessions faced against one defensive scheme.
type DefenseSplit struct {
	Defense             model.Defense `json:"defense"`
	Possessions         int           `json:"possessions"`
	ScoreRate           int           `json:"score_rate"`
	PointsPerPossession float64       `json:"points_per_possession"`
}

// Snapshot is the dashboard's stat block for one possession subset.
type Snapshot struct {
	Possessions         int            `json:"possessions"`
	PaintRate           int            `json:"paint_rate"`
	PointsPerPossession float64        `json:"points_per_possession"`
	PaintScoreRate      int            `json:"paint_score_rate"`
	NonPaintScoreRate   int            `json:"non_paint_score_rate"`
	TransitionRate      int            `json:"transition_rate"`
	ScoringStreaks      int            `json:"scoring_streaks"`
	DefenseSplits       []DefenseSplit `json:"defense_splits"`
	KeyOutcomes         []OutcomeCount `json:"key_outcomes"`
}

// KeyOutcomes are the categories plotted on the outcome-share pie chart.
var KeyOutcomes = []model.Outcome{
	model.OutcomeRimMake,
	model.OutcomeKickOut3Make,
	model.OutcomeFoulDrawn,
}

// ScoringStreakLength is the run length the dashboard counts as a streak.
const ScoringStreakLength = 3

// Summarize computes the full dashboard snapshot for a subset.
func Summarize(subset []model.Possession) Snapshot {
	snap := Snapshot{
		Possessions:         len(subset),
		PaintRate:           Rate(subset, PaintTouch),
		PointsPerPossession: PointsPerPossession(subset),
		PaintScoreRate:      ConditionalRate(subset, PaintTouch, Scored),
		NonPaintScoreRate:   ConditionalRate(subset, func(p model.Possession) bool { return !p.PaintTouch }, Scored),
		TransitionRate:      Rate(subset, Transition),
		ScoringStreaks:      StreaksOfAtLeast(subset, Scored, ScoringStreakLength),
		KeyOutcomes:         OutcomeCounts(subset, KeyOutcomes),
	}
	for _, d := range []model.Defense{model.DefenseMan, model.DefenseZone} {
		var faced []model.Possession
		for _, p := range subset {
			if p.Defense == d {
				faced = append(faced, p)
			}
		}
		snap.DefenseSplits = append(snap.DefenseSplits, DefenseSplit{
			Defense:             d,
			Possessions:         len(faced),
			ScoreRate:           Rate(faced, Scored),
			PointsPerPossession: PointsPerPossession(faced),
		})
	}
	return snap
}

func roundPct(matches, total int) int {
	return int(math.Round(float64(matches) / float64(total) * 100))
}
