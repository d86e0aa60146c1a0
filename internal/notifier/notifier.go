package notifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
)

// MaxMessageLength is the posting limit, in characters
const MaxMessageLength = 280

// maxListed caps how many joined entrants are named in a message
const maxListed = 3

// Notifier defines the interface for announcing a change record
type Notifier interface {
	// Notify announces one event's change record
	Notify(eventName string, rec *entrant.ChangeRecord) error
}

// ShouldNotify reports whether a record is worth announcing: the count moved
// or someone joined or dropped. Baseline records never are.
func ShouldNotify(rec *entrant.ChangeRecord) bool {
	return rec != nil && (rec.CountChange != 0 || rec.HasChanges())
}

// formatMessage formats a change record as a short post
func formatMessage(eventName string, rec *entrant.ChangeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏃 %s entrant list changed: %+d\n\n", eventName, rec.CountChange)
	fmt.Fprintf(&b, "Now %d entrants (was %d)\n", rec.NewCount, rec.PreviousCount)

	if rec.TotalNew > 0 {
		fmt.Fprintf(&b, "➕ %d joined\n", rec.TotalNew)
	}
	if rec.TotalDropped > 0 {
		fmt.Fprintf(&b, "➖ %d dropped\n", rec.TotalDropped)
	}

	if len(rec.NewEntrants) > 0 {
		names := make([]string, 0, maxListed)
		for i, e := range rec.NewEntrants {
			if i == maxListed {
				break
			}
			names = append(names, fmt.Sprintf("%s (%s)", e.Name(), e.Region))
		}
		line := "\nWelcome " + strings.Join(names, ", ")
		if more := len(rec.NewEntrants) - len(names); more > 0 {
			line += fmt.Sprintf(" and %d more", more)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n#ultrarunning #trailrunning")

	return truncate(b.String(), MaxMessageLength)
}

// truncate shortens s to at most limit runes, ending with "..."
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
