package model

import "time"

// Event is a single normalized calendar occurrence in the display timezone.
// Events are built once at the parser boundary and never mutated afterwards;
// the rest of the pipeline only reads them.
type Event struct {
	Title       string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the configured display timezone. For all-day
	// events Start is midnight and End is midnight of the following day.
	Start time.Time
	End   time.Time
}

// TimeRange formats the event's time span for display, e.g. "10:00-12:00".
// All-day events have no meaningful clock range.
func (e Event) TimeRange() string {
	if e.AllDay {
		return "all day"
	}
	return e.Start.Format("15:04") + "-" + e.End.Format("15:04")
}
