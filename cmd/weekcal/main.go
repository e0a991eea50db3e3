package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/urfave/cli"

	"weekcal/internal/config"
	"weekcal/internal/ics"
	appLog "weekcal/internal/log"
	"weekcal/internal/source"
	"weekcal/internal/table"
	"weekcal/internal/week"
)

const appName = "weekcal"

var appVersion = "(devel)"

var now = time.Now()

func main() {
	defaultWeek, defaultYear := week.Current(now)

	app := cli.App{
		Name:    appName,
		Version: appVersion,
		Usage:   "show one week of an iCalendar export as a terminal table",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "week, w",
				Usage: "ISO week number to show",
				Value: defaultWeek,
			},
			&cli.IntFlag{
				Name:  "year, y",
				Usage: "Year the week belongs to",
				Value: defaultYear,
			},
			&cli.StringFlag{
				Name:  "source, u",
				Usage: "Calendar location: HTTP(S) URL or path to an .ics file",
			},
			&cli.StringFlag{
				Name:  "timezone",
				Usage: "IANA display timezone (defaults to config, then local)",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the config file",
				Value: config.DefaultPath(),
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable ANSI styling",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Output debug messages",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("debug") {
		appLog.SetLevel(appLog.LevelDebug)
	}

	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			appLog.Error("config load failed, using defaults", err, "config_path", path)
		} else {
			cfg = loaded
		}
	}

	if c.Bool("no-color") || !cfg.Color {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	tz := cfg.Timezone
	if v := c.String("timezone"); v != "" {
		tz = v
	}
	loc := time.Local
	if tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("unknown timezone %q: %w", tz, err)
		}
	}

	// Validate the week selector before touching the network.
	win, err := week.NewWindow(c.Int("week"), c.Int("year"), loc)
	if err != nil {
		return err
	}

	location := c.String("source")
	if location == "" {
		location = cfg.Source
	}
	if location == "" {
		return fmt.Errorf("no calendar source: pass -u or set `source` in the config file")
	}

	appLog.Debug("resolved run parameters",
		"week", win.Week,
		"year", win.Year,
		"window_start", win.Start.Format("2006-01-02"),
		"timezone", loc.String(),
		"source", source.Redact(location),
	)

	ctx := context.Background()

	loader := source.NewLoader(time.Duration(cfg.TimeoutSeconds) * time.Second)
	body, err := loader.Load(ctx, location)
	if err != nil {
		return err
	}

	parsed, err := ics.Parse(body, loc)
	if err != nil {
		return err
	}

	events, err := ics.Expand(parsed, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      win.Start,
		RangeEnd:        win.End,
	})
	if err != nil {
		return err
	}

	schedule := week.Build(events, win)
	appLog.Debug("schedule built", "events", schedule.EventCount())

	return table.NewRenderer(cfg.Highlight).Render(os.Stdout, schedule)
}
