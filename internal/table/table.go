package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"weekcal/internal/model"
	"weekcal/internal/week"
)

const cellWidth = 18

var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Renderer lays a week.Schedule out as a terminal grid: one column per day
// (always all seven, empty or not), rows sized to the busiest day. Styling
// is a presentation concern only and never changes which events appear.
type Renderer struct {
	highlight []string

	titleStyle     lipgloss.Style
	headerStyle    lipgloss.Style
	timeStyle      lipgloss.Style
	eventStyle     lipgloss.Style
	accentStyle    lipgloss.Style
	locationStyle  lipgloss.Style
	cellStyle      lipgloss.Style
	separatorStyle lipgloss.Style
}

// NewRenderer creates a Renderer. Events whose title contains one of the
// highlight keywords (case-insensitive) are rendered in the accent style.
func NewRenderer(highlight []string) *Renderer {
	return &Renderer{
		highlight:      highlight,
		titleStyle:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		headerStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		timeStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("209")),
		eventStyle:     lipgloss.NewStyle(),
		accentStyle:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		locationStyle:  lipgloss.NewStyle().Faint(true),
		cellStyle:      lipgloss.NewStyle().Width(cellWidth).PaddingLeft(1).PaddingRight(1),
		separatorStyle: lipgloss.NewStyle().Faint(true),
	}
}

// Render writes the schedule grid to w. A write error (e.g. a broken pipe)
// is returned as-is for the caller to report.
func (r *Renderer) Render(w io.Writer, s week.Schedule) error {
	out := r.Grid(s)
	if _, err := io.WriteString(w, out+"\n"); err != nil {
		return fmt.Errorf("writing schedule: %w", err)
	}
	return nil
}

// Grid produces the full rendered table as a string.
func (r *Renderer) Grid(s week.Schedule) string {
	win := s.Window

	title := r.titleStyle.Render(fmt.Sprintf("Week %d, %d", win.Week, win.Year)) +
		"  " +
		r.locationStyle.Render(fmt.Sprintf("%s - %s",
			win.Start.Format("2006-01-02"),
			win.End.AddDate(0, 0, -1).Format("2006-01-02")))

	header := r.headerRow(s)
	rule := r.separatorStyle.Render(strings.Repeat("-", 7*cellWidth))

	rows := []string{title, "", header, rule}

	maxRows := 0
	for _, day := range s.Days {
		if len(day) > maxRows {
			maxRows = len(day)
		}
	}

	if maxRows == 0 {
		rows = append(rows, r.locationStyle.Render(" no events this week"))
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	}

	for i := 0; i < maxRows; i++ {
		cells := make([]string, 7)
		for d := 0; d < 7; d++ {
			var content string
			if i < len(s.Days[d]) {
				content = r.cell(s.Days[d][i])
			}
			cells[d] = r.cellStyle.Render(content)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (r *Renderer) headerRow(s week.Schedule) string {
	cells := make([]string, 7)
	for d := 0; d < 7; d++ {
		label := fmt.Sprintf("%s %s", dayNames[d], s.Window.Day(d).Format("02/01"))
		cells[d] = r.cellStyle.Render(r.headerStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// cell formats one event: time range, title, and location when present.
func (r *Renderer) cell(ev model.Event) string {
	style := r.eventStyle
	if r.highlighted(ev.Title) {
		style = r.accentStyle
	}

	lines := []string{
		r.timeStyle.Render(ev.TimeRange()),
		style.Render(ev.Title),
	}
	if ev.Location != "" {
		lines = append(lines, r.locationStyle.Render("@ "+ev.Location))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) highlighted(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range r.highlight {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
