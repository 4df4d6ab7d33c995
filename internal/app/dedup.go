package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/cli"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/dedup"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/ingest"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/normalize"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/similarity"
)

func runDedup(args []string) int {
	fs := flag.NewFlagSet("dedup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	dir := fs.String("dir", "testdata/events", "Directory containing scraped event .json files")
	merge := fs.Bool("merge", false, "Auto-merge high-confidence duplicates instead of only reporting")
	out := fs.String("out", "", "Write the analysis as JSON to this file (stdout when empty)")

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

	engine := dedup.NewEngine(similarity.NewCalculator(normalize.New()), cfg.AutoMergeConfidence)
	result := engine.Deduplicate(records, *merge)

	fmt.Printf(
		"dedup before=%d after=%d matches=%d auto_merged=%d\n",
		result.OriginalCount,
		result.DeduplicatedCount,
		len(result.Matches),
		result.AutoMergedPairs,
	)
	for _, m := range result.Matches {
		fmt.Fprintf(os.Stderr, "%s (%.2f) %q / %q: %s\n",
			m.Type, m.Confidence, m.A.Title, m.B.Title, strings.Join(m.Reasoning, "、"))
	}

	if *out != "" {
		if err := writeJSON(*out, result); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write result: %v\n", err)
			return 1
		}
	}
	return 0
}
