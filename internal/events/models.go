// Package events builds the upcoming-events digest shown on the display panel.
package events

import "errors"

// Digest and provider errors.
var (
	// ErrProviderUnavailable wraps transport failures talking to the events API.
	ErrProviderUnavailable = errors.New("events provider unavailable")

	// ErrInvalidStartTime is returned when an event's start time cannot be grouped by date.
	ErrInvalidStartTime = errors.New("invalid event start time")
)

// Event is a single listing returned by the events API.
type Event struct {
	Title string

	// StartTime is the local start time as sent by the API,
	// e.g. "2018-09-01 12:00:00" or "2018-09-01T12:00:00".
	StartTime string
}

// Date returns the calendar date part (YYYY-MM-DD) of the start time.
func (e Event) Date() string {
	if len(e.StartTime) < len(dateLayout) {
		return ""
	}
	return e.StartTime[:len(dateLayout)]
}
