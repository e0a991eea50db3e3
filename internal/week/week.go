package week

import (
	"fmt"
	"sort"
	"time"

	"weekcal/internal/model"
)

// ValidationError reports an unusable week/year selector. It carries the
// rejected values so the user can correct the invocation.
type ValidationError struct {
	Week   int
	Year   int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid week %d of %d: %s", e.Week, e.Year, e.Reason)
}

// Window is the half-open time span of one ISO week: Start is always a
// Monday 00:00 in the display zone, End is Start plus 7 days, exclusive.
type Window struct {
	Week  int
	Year  int
	Start time.Time
	End   time.Time
}

// Day returns the date of the window's i-th day, 0=Monday..6=Sunday.
func (w Window) Day(i int) time.Time {
	return w.Start.AddDate(0, 0, i)
}

// Contains reports whether t falls inside the window's half-open span.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WeeksInYear returns the number of ISO weeks in year (52 or 53).
// December 28th is always in the last week of its ISO year.
func WeeksInYear(year int) int {
	_, w := time.Date(year, 12, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// Current returns the ISO week and year of the given instant.
func Current(now time.Time) (weekNum, year int) {
	y, w := now.ISOWeek()
	return w, y
}

// NewWindow computes the Window for ISO week weekNum of year in loc.
//
// Week numbers outside [1, WeeksInYear(year)] are rejected with a
// *ValidationError; week 53 is only valid in 53-week years.
func NewWindow(weekNum, year int, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.Local
	}
	if weekNum < 1 {
		return Window{}, &ValidationError{Week: weekNum, Year: year, Reason: "week numbers start at 1"}
	}
	if n := WeeksInYear(year); weekNum > n {
		return Window{}, &ValidationError{Week: weekNum, Year: year,
			Reason: fmt.Sprintf("year %d has only %d ISO weeks", year, n)}
	}

	// January 4th is always inside ISO week 1; walk back to its Monday.
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, loc)
	week1Monday := jan4.AddDate(0, 0, -mondayIndex(jan4.Weekday()))

	start := week1Monday.AddDate(0, 0, (weekNum-1)*7)
	return Window{
		Week:  weekNum,
		Year:  year,
		Start: start,
		End:   start.AddDate(0, 0, 7),
	}, nil
}

// Schedule holds one week of events bucketed per day, ready for rendering.
// Days is indexed 0=Monday..6=Sunday; every in-window event appears in
// exactly one bucket.
type Schedule struct {
	Window Window
	Days   [7][]model.Event
}

// Build filters events down to those whose START falls inside the window
// and buckets them by weekday. An event that starts before the window but
// ends inside it is excluded: bucketing is governed strictly by start time
// so that every event has exactly one unambiguous home.
//
// Buckets are ordered by start time ascending; events sharing a start are
// ordered by title for determinism.
func Build(events []model.Event, win Window) Schedule {
	s := Schedule{Window: win}

	for _, ev := range events {
		if !win.Contains(ev.Start) {
			continue
		}
		day := mondayIndex(ev.Start.Weekday())
		s.Days[day] = append(s.Days[day], ev)
	}

	for i := range s.Days {
		bucket := s.Days[i]
		sort.SliceStable(bucket, func(a, b int) bool {
			if !bucket[a].Start.Equal(bucket[b].Start) {
				return bucket[a].Start.Before(bucket[b].Start)
			}
			return bucket[a].Title < bucket[b].Title
		})
	}

	return s
}

// EventCount returns the total number of bucketed events.
func (s Schedule) EventCount() int {
	n := 0
	for _, day := range s.Days {
		n += len(day)
	}
	return n
}

// mondayIndex maps time.Weekday (Sunday=0) to ISO day index (Monday=0).
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
