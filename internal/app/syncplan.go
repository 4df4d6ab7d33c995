package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/cli"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/pipeline"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/syncstate"
)

func runSyncPlan(args []string) int {
	fs := flag.NewFlagSet("syncplan", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	dir := fs.String("dir", "testdata/events", "Directory containing scraped event .json files")
	out := fs.String("out", "", "Write the plan as JSON to this file (stdout when empty)")
	timeout := fs.Duration("db-timeout", 10*time.Second, "Database connect timeout")

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
	if err := cfg.RequireDatabase(); err != nil {
		fmt.Fprintf(os.Stderr, "Sync plan needs a database: %v\n", err)
		return 2
	}

	svc := pipeline.NewService(cfg, logger)
	res, err := svc.Run(strings.TrimSpace(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline failed: %v\n", err)
		return 1
	}
	candidates := svc.SyncCandidates(res.Events)

	dbCtx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, err := syncstate.Open(dbCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error().Err(err).Msg("sync store connection failed")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer func() {
		_ = store.Close()
	}()

	actions, err := syncstate.Plan(dbCtx, store, candidates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Plan failed: %v\n", err)
		return 1
	}

	inserts, updates := 0, 0
	for _, a := range actions {
		if a.Type == syncstate.ActionInsert {
			inserts++
		} else {
			updates++
		}
	}
	fmt.Printf(
		"syncplan candidates=%d inserts=%d updates=%d skipped=%d\n",
		len(candidates),
		inserts,
		updates,
		len(res.Events)-len(candidates),
	)

	if err := writeJSON(*out, actions); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write plan: %v\n", err)
		return 1
	}
	return 0
}
