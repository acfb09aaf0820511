// Package export produces the tabular CSV projection of a game's possessions.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jordanngo205/Basketball-Tracker/internal/registry"
)

// Header is the fixed column order of the export.
var Header = []string{
	"possession_number",
	"quarter",
	"paint_touch",
	"transition",
	"points",
	"defense",
	"shot_quality",
	"outcome",
}

// WriteCSV writes one row per possession, sorted by (quarter, number).
func WriteCSV(w io.Writer, game *registry.Game) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range game.Ledger.All() {
		points := ""
		if p.Points != nil {
			points = strconv.Itoa(*p.Points)
		}
		record := []string{
			strconv.Itoa(p.Number),
			strconv.Itoa(p.Quarter),
			yesNo(p.PaintTouch),
			yesNo(p.Transition),
			points,
			string(p.Defense),
			string(p.ShotQuality),
			string(p.Outcome),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename derives the download name from the game name and date, collapsing
// whitespace to underscores.
func Filename(game *registry.Game) string {
	name := strings.Join(strings.Fields(game.Name), "_")
	if name == "" {
		name = "game"
	}
	return fmt.Sprintf("%s_%s.csv", name, game.Date)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
