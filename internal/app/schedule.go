package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/cli"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/ingest"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/schedule"
)

func runSchedule(args []string) int {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	dir := fs.String("dir", "testdata/events", "Directory containing scraped event .json files")
	out := fs.String("out", "", "Write the optimization as JSON to this file (stdout when empty)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	svc := ingest.NewService(logger, ingest.Options{
		MaxFutureDays:  cfg.MaxFutureDays,
		DetectLanguage: cfg.LanguageDetection,
	})
	records, _, err := svc.IngestDir(strings.TrimSpace(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	scheduler := schedule.New(schedule.DefaultVenues(), schedule.Options{
		TravelSpeedKmh:      cfg.TravelSpeedKmh,
		InterCityTravelMin:  cfg.InterCityTravelMin,
		IntraCityTravelMin:  cfg.IntraCityTravelMin,
		ResolveShiftMinutes: cfg.ResolveShiftMinutes,
	})
	opt := scheduler.Optimize(records)

	fmt.Printf(
		"schedule events=%d resolved=%d remaining=%d score=%.2f\n",
		len(opt.Events),
		len(opt.Resolved),
		len(opt.Remaining),
		opt.Score,
	)
	for _, c := range opt.Remaining {
		fmt.Fprintf(os.Stderr, "%s (%.2f) %q / %q: %s\n", c.Type, c.Severity, c.A.Title, c.B.Title, c.Description)
	}

	if *out != "" {
		if err := writeJSON(*out, opt); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write result: %v\n", err)
			return 1
		}
	}
	return 0
}
