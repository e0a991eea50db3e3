package table

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"weekcal/internal/ics"
	"weekcal/internal/model"
	"weekcal/internal/week"
)

func TestMain(m *testing.M) {
	// Plain output in tests regardless of the terminal running them.
	lipgloss.SetColorProfile(termenv.Ascii)
	m.Run()
}

func mustWindow(t *testing.T, w, y int) week.Window {
	t.Helper()
	win, err := week.NewWindow(w, y, time.UTC)
	require.NoError(t, err)
	return win
}

func TestGridShowsAllSevenDays(t *testing.T) {
	win := mustWindow(t, 10, 2024)
	out := NewRenderer(nil).Grid(week.Build(nil, win))

	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"} {
		require.Contains(t, out, day)
	}
	// Day headers carry the window's dates.
	require.Contains(t, out, "Monday 04/03")
	require.Contains(t, out, "Sunday 10/03")
}

func TestGridMathLectureScenario(t *testing.T) {
	win := mustWindow(t, 10, 2024)

	events := []model.Event{{
		Title: "Math Lecture",
		Start: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	}}

	out := NewRenderer(nil).Grid(week.Build(events, win))

	require.Contains(t, out, "Week 10, 2024")
	require.Contains(t, out, "Math Lecture")
	require.Contains(t, out, "10:00-12:00")
	// The single event is the only cell content in the grid.
	require.Equal(t, 1, strings.Count(out, "10:00-12:00"))
}

func TestGridEmptyWeek(t *testing.T) {
	win := mustWindow(t, 10, 2024)
	out := NewRenderer(nil).Grid(week.Build(nil, win))

	require.Contains(t, out, "no events this week")
}

func TestGridIsDeterministic(t *testing.T) {
	win := mustWindow(t, 10, 2024)
	events := []model.Event{
		{
			Title: "Algebra",
			Start: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC),
		},
		{
			Title:    "Lab",
			Location: "E:1406",
			Start:    time.Date(2024, 3, 7, 13, 0, 0, 0, time.UTC),
			End:      time.Date(2024, 3, 7, 15, 0, 0, 0, time.UTC),
		},
	}

	r := NewRenderer(nil)
	first := r.Grid(week.Build(events, win))
	second := r.Grid(week.Build(events, win))

	require.Equal(t, first, second)
}

func TestGridStableForTiedEvents(t *testing.T) {
	// Parallel sessions sharing start time and title, distinguishable only
	// by room. Byte-identical input must render byte-identically, so the
	// full pipeline (expand, bucket, render) is repeated many times.
	win := mustWindow(t, 10, 2024)
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	parsed := []ics.ParsedEvent{
		{
			UID:      "b@test",
			Summary:  "Lab",
			Location: "Room B",
			Start:    start,
			End:      start.Add(2 * time.Hour),
		},
		{
			UID:      "a@test",
			Summary:  "Lab",
			Location: "Room A",
			Start:    start,
			End:      start.Add(2 * time.Hour),
		},
	}

	r := NewRenderer(nil)
	var first string
	for i := 0; i < 100; i++ {
		events, err := ics.Expand(parsed, ics.ExpandConfig{
			DisplayLocation: time.UTC,
			RangeStart:      win.Start,
			RangeEnd:        win.End,
		})
		require.NoError(t, err)

		out := r.Grid(week.Build(events, win))
		if i == 0 {
			first = out
			continue
		}
		require.Equal(t, first, out, "rendered table varies across runs")
	}
}

func TestGridShowsLocation(t *testing.T) {
	win := mustWindow(t, 10, 2024)
	events := []model.Event{{
		Title:    "Lab",
		Location: "E:1406",
		Start:    time.Date(2024, 3, 7, 13, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 7, 15, 0, 0, 0, time.UTC),
	}}

	out := NewRenderer(nil).Grid(week.Build(events, win))
	require.Contains(t, out, "@ E:1406")
}

func TestHighlightMatching(t *testing.T) {
	r := NewRenderer([]string{"exam"})

	require.True(t, r.highlighted("Final Exam"))
	require.True(t, r.highlighted("EXAM review"))
	require.False(t, r.highlighted("Lecture"))
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRenderPropagatesWriteError(t *testing.T) {
	win := mustWindow(t, 10, 2024)
	err := NewRenderer(nil).Render(failWriter{}, week.Build(nil, win))
	require.Error(t, err)
}
