// Package achievements merges operator-entered achievements with awards
// harvested from synced events into one list for display.
package achievements

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/okian/teamsite/internal/domain/model"
)

// Aggregate returns manual achievements and imported awards as one list,
// newest year first and alphabetical within a year. Inputs are not modified.
//
// Imported records get the id "<event id>-<position>-<award>", so identical
// input always yields identical ids and repeated award names on one event
// stay distinct. Nothing is deduplicated: the same award entered by hand and
// imported from an event appears twice.
func Aggregate(manual []model.ManualAchievement, events []model.ImportedEvent) []model.AwardRecord {
	out := make([]model.AwardRecord, 0, len(manual)+countAwards(events))

	for _, m := range manual {
		out = append(out, model.AwardRecord{
			ID:          m.ID,
			Year:        m.Year,
			Description: m.Description,
			Source:      model.AwardSourceManual,
		})
	}

	for _, e := range events {
		if e.Awards == nil {
			continue
		}
		year := fmt.Sprintf("%04d", e.EventDate.Year())
		for i, award := range e.Awards {
			out = append(out, model.AwardRecord{
				ID:          ImportedID(e.ID, i, award),
				Year:        year,
				Description: award,
				Source:      model.AwardSourceImported,
			})
		}
	}

	// Collators keep scratch buffers, so each call gets its own.
	col := collate.New(language.English)
	slices.SortStableFunc(out, func(a, b model.AwardRecord) int {
		if ya, yb := yearValue(a.Year), yearValue(b.Year); ya != yb {
			if ya > yb {
				return -1
			}
			return 1
		}
		return col.CompareString(a.Description, b.Description)
	})
	return out
}

// ImportedID is the record id for the award at position i of an event.
func ImportedID(eventID string, i int, award string) string {
	return eventID + "-" + strconv.Itoa(i) + "-" + award
}

// yearValue parses a year for sorting. Anything that is not an integer
// counts as 0 and sinks below every real season.
func yearValue(year string) int {
	n, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return 0
	}
	return n
}

func countAwards(events []model.ImportedEvent) int {
	n := 0
	for _, e := range events {
		n += len(e.Awards)
	}
	return n
}
