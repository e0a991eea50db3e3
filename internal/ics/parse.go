package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "weekcal/internal/log"
)

// ParseError reports calendar content that is not valid iCalendar text.
// A malformed file cannot be partially trusted, so this is fatal for the
// run with no recovery.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid calendar content: %s", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParsedEvent is the raw representation of a VEVENT before recurrence
// expansion. Expansion (expand.go) turns these into model.Event values.
type ParsedEvent struct {
	UID string
	Seq int

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID (if present)
	IsOverride bool       // true if this VEVENT overrides a recurring instance
}

// Parse parses a single ICS payload into a list of ParsedEvent.
//
//   - Line folding and escaping are handled by the underlying library.
//   - Timestamps are resolved against displayLoc: UTC values are converted,
//     TZID values honor their named zone, and floating (zone-less) values
//     are interpreted directly in displayLoc.
//   - RRULE/EXDATE/RECURRENCE-ID are recorded but not expanded here.
func Parse(body []byte, displayLoc *time.Location) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, &ParseError{Err: errors.New("empty calendar body")}
	}
	if displayLoc == nil {
		displayLoc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	events := make([]ParsedEvent, 0)

	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp, displayLoc)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("vevent parse failed", perr, "uid", uidOf(comp))
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("calendar parsed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent, displayLoc *time.Location) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	// SEQUENCE (optional, used for overrides/versioning)
	if seqProp := ve.GetProperty(ical.ComponentPropertySequence); seqProp != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(seqProp.Value)); err == nil {
			out.Seq = n
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = unescapeText(p.Value)
	}

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil || dtStartProp.Value == "" {
		return out, errors.New("missing DTSTART")
	}

	start, allDay, err := parsePropTime(dtStartProp, displayLoc)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	out.Start = start
	out.AllDay = allDay

	if dtEndProp := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEndProp != nil && dtEndProp.Value != "" {
		end, _, err := parsePropTime(dtEndProp, displayLoc)
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.End = end
	} else if allDay {
		out.End = out.Start.AddDate(0, 0, 1)
	} else {
		// No DTEND: zero-duration event.
		out.End = out.Start
	}

	// RRULE (raw string only; expansion happens in expand.go).
	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE (can appear multiple times, each possibly comma-separated).
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseTimeValue(part, tzidOf(p.ICalParameters), displayLoc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	// RECURRENCE-ID (overridden instance)
	if ridProp := ve.GetProperty("RECURRENCE-ID"); ridProp != nil {
		if t, err := parseTimeValue(ridProp.Value, tzidOf(ridProp.ICalParameters), displayLoc); err == nil {
			out.Recurrence = &t
			out.IsOverride = true
		}
	}

	return out, nil
}

// parsePropTime resolves a DTSTART/DTEND property to a concrete time and
// reports whether it denotes an all-day (date-only) value.
func parsePropTime(p *ical.IANAProperty, displayLoc *time.Location) (time.Time, bool, error) {
	val := strings.TrimSpace(p.Value)

	allDay := !strings.Contains(val, "T")
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			allDay = true
		}
	}

	t, err := parseTimeValue(val, tzidOf(p.ICalParameters), displayLoc)
	if err != nil {
		return time.Time{}, false, err
	}
	if allDay {
		// Normalize to midnight in the display zone.
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, displayLoc)
	}
	return t, allDay, nil
}

// parseTimeValue parses a basic ICS date/date-time string.
//
// Resolution order: a trailing Z means UTC; a TZID parameter names the
// zone; otherwise the value is floating and is interpreted in displayLoc.
// The result is always converted into displayLoc.
func parseTimeValue(v, tzid string, displayLoc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		t, err := time.Parse(layout, v)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(displayLoc), nil
	}

	loc := displayLoc
	if tzid != "" {
		named, err := time.LoadLocation(tzid)
		if err != nil {
			appLog.Debug("unknown TZID, falling back to display zone", "tzid", tzid)
		} else {
			loc = named
		}
	}

	// Local date-time, e.g. 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		t, err := time.ParseInLocation(layout, v, loc)
		if err != nil {
			return time.Time{}, err
		}
		return t.In(displayLoc), nil
	}

	// Date-only (all-day), e.g. 20250101
	const layoutDate = "20060102"
	t, err := time.ParseInLocation(layoutDate, v, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(displayLoc), nil
}

func tzidOf(params map[string][]string) string {
	if params == nil {
		return ""
	}
	if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
		return tzs[0]
	}
	return ""
}

func uidOf(ve *ical.VEvent) string {
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		return p.Value
	}
	return ""
}

// unescapeText undoes iCalendar TEXT escaping (RFC 5545 §3.3.11) for the
// few sequences that actually show up in exports.
func unescapeText(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	r := strings.NewReplacer(
		`\n`, "\n",
		`\N`, "\n",
		`\,`, ",",
		`\;`, ";",
		`\\`, `\`,
	)
	return r.Replace(s)
}
