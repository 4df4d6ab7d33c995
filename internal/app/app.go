// Package app implements the matsuri command line interface.
package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "ingest":
		return runIngest(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "dedup":
		return runDedup(args[1:])
	case "schedule":
		return runSchedule(args[1:])
	case "process", "run-once":
		return runProcess(args[1:])
	case "syncplan":
		return runSyncPlan(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "matsuri CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  matsuri <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  ingest    Validate and parse scraped event JSON files")
	fmt.Fprintln(os.Stderr, "  validate  Run quality validation over ingested events")
	fmt.Fprintln(os.Stderr, "  dedup     Analyze duplicate events without merging")
	fmt.Fprintln(os.Stderr, "  schedule  Detect and optimize schedule conflicts")
	fmt.Fprintln(os.Stderr, "  process   Run the full pipeline and write the report")
	fmt.Fprintln(os.Stderr, "  run-once  Alias for process")
	fmt.Fprintln(os.Stderr, "  syncplan  Compute calendar insert/update actions")
	fmt.Fprintln(os.Stderr, "  serve     Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"matsuri <command> -h\" for command-specific flags.")
}
