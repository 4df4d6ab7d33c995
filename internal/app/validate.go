package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/cli"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/ingest"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/quality"
)

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	dir := fs.String("dir", "testdata/events", "Directory containing scraped event .json files")
	out := fs.String("out", "", "Write the validation result as JSON to this file (stdout when empty)")

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

	result := quality.NewValidator(cfg.AutoFix).ProcessAll(records)

	fmt.Printf(
		"validate events=%d issues=%d auto_fixes=%d overall=%.1f\n",
		result.TotalEvents,
		len(result.Issues),
		result.AutoFixesApplied,
		result.Metrics.Overall,
	)
	for _, issue := range result.Issues {
		fmt.Fprintf(os.Stderr, "%s [%s] %s: %s\n", issue.Severity, issue.Category, issue.EventTitle, issue.Message)
	}

	if *out != "" {
		if err := writeJSON(*out, result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write result: %v\n", err)
			return 1
		}
	}
	return 0
}
