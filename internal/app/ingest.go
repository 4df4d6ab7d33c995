package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/cli"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/ingest"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	dir := fs.String("dir", "testdata/events", "Directory containing scraped event .json files")
	out := fs.String("out", "", "Write parsed records as JSON to this file (stdout when empty)")

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
	records, stats, err := svc.IngestDir(strings.TrimSpace(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"ingest files=%d accepted=%d rejected=%d dir=%s\n",
		stats.FilesRead,
		stats.Accepted,
		stats.Rejected,
		strings.TrimSpace(*dir),
	)

	if *out != "" {
		if err := writeJSON(*out, records); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write records: %v\n", err)
			return 1
		}
	}
	if stats.Rejected > 0 {
		return 1
	}
	return 0
}
