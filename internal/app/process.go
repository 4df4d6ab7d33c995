package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/cli"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/pipeline"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/report"
)

// processOutput is the JSON document the process command writes.
type processOutput struct {
	RunID  string          `json:"runId"`
	Events []*event.Record `json:"events"`
	Report *report.Report  `json:"report"`
}

func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	dir := fs.String("dir", "testdata/events", "Directory containing scraped event .json files")
	out := fs.String("out", "", "Write the canonical event set and report to this file (stdout when empty)")

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

	res, err := pipeline.NewService(cfg, logger).Run(strings.TrimSpace(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"process run=%s events=%d merged=%d conflicts=%d score=%.2f\n",
		res.RunID,
		len(res.Events),
		res.Report.Summary.DuplicatesMerged,
		res.Report.Summary.ConflictsDetected,
		res.Report.Summary.OptimizationScore,
	)

	output := processOutput{
		RunID:  res.RunID,
		Events: res.Events,
		Report: res.Report,
	}
	if err := writeJSON(*out, output); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return 1
	}
	return 0
}
