package poller

import (
	"sort"

	"github.com/mcdev12/racer/go/internal/models"
)

// Rank orders positions by descending segment, keeping the service's order
// for ties, and flags the entry belonging to selfID. The input is not
// modified.
func Rank(positions []models.Position, selfID int) []models.Standing {
	ordered := make([]models.Position, len(positions))
	copy(ordered, positions)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Segment > ordered[j].Segment
	})

	standings := make([]models.Standing, len(ordered))
	for i, pos := range ordered {
		standings[i] = models.Standing{
			Rank:     i + 1,
			Position: pos,
			Self:     selfID > 0 && pos.RacerID == selfID,
		}
	}
	return standings
}
