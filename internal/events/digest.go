package events

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultLineBudget is the number of display lines the digest may use.
	DefaultLineBudget = 20

	dateLayout = "2006-01-02"

	// minStartTimeLen covers "YYYY-MM-DD" plus the trailing ":SS" the header drops.
	minStartTimeLen = 13

	// groupLines is the cost of starting a new date: separator, header and one event.
	groupLines = 3
)

// Digest renders events as an HTML fragment grouped by calendar date.
//
// Consecutive events sharing a date are listed under one bold header naming
// the weekday and the first event's start time; dates are separated by a
// blank line. Separators, headers and events each use one line of the
// budget. Rendering stops after the event that leaves less room than a new
// date group needs, so a group is never started without its first event.
func Digest(events []Event, budget int) (string, error) {
	if budget <= 0 {
		budget = DefaultLineBudget
	}

	var b strings.Builder
	prevDate := ""
	lines := 0

	for _, ev := range events {
		if len(ev.StartTime) < minStartTimeLen {
			return "", fmt.Errorf("%w: %q", ErrInvalidStartTime, ev.StartTime)
		}

		date := ev.Date()
		if date != prevDate {
			day, err := time.Parse(dateLayout, date)
			if err != nil {
				return "", fmt.Errorf("%w: %q: %w", ErrInvalidStartTime, ev.StartTime, err)
			}

			if prevDate != "" {
				b.WriteString("<br>")
				lines++
			}
			fmt.Fprintf(&b, "<b>%s %s</b>\n<br>", day.Weekday(), ev.StartTime[5:len(ev.StartTime)-3])
			prevDate = date
			lines++
		}

		b.WriteString(ev.Title)
		b.WriteString("\n<br>")
		lines++

		if lines+groupLines > budget {
			break
		}
	}

	return b.String(), nil
}
