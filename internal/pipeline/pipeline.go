// Package pipeline wires the processing stages into one run: ingest,
// quality validation, deduplication, schedule optimization, reporting.
// Each run gets its own UUID; stage outcomes are logged and counted.
package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/config"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/dedup"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/event"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/globaltime"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/ingest"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/normalize"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/quality"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/report"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/schedule"
	"github.com/sasayosh1/sasayosh1-event-toyama2/internal/similarity"
)

// Result carries everything a run produced. Events is the canonical
// post-dedup, post-optimization set.
type Result struct {
	RunID        string
	Events       []*event.Record
	IngestStats  ingest.Stats
	Quality      quality.Result
	Duplicates   dedup.Result
	Optimization schedule.Optimization
	Report       *report.Report
	Duration     time.Duration
}

type Service struct {
	cfg       *config.Config
	logger    zerolog.Logger
	ingester  *ingest.Service
	validator *quality.Validator
	deduper   *dedup.Engine
	scheduler *schedule.Scheduler
}

func NewService(cfg *config.Config, logger zerolog.Logger) *Service {
	calc := similarity.NewCalculator(normalize.New())
	return &Service{
		cfg:       cfg,
		logger:    logger,
		ingester:  ingest.NewService(logger, ingest.Options{MaxFutureDays: cfg.MaxFutureDays, DetectLanguage: cfg.LanguageDetection}),
		validator: quality.NewValidator(cfg.AutoFix),
		deduper:   dedup.NewEngine(calc, cfg.AutoMergeConfidence),
		scheduler: schedule.New(schedule.DefaultVenues(), schedule.Options{
			TravelSpeedKmh:      cfg.TravelSpeedKmh,
			InterCityTravelMin:  cfg.InterCityTravelMin,
			IntraCityTravelMin:  cfg.IntraCityTravelMin,
			ResolveShiftMinutes: cfg.ResolveShiftMinutes,
		}),
	}
}

// Run executes the full pipeline over a directory of scraped JSON.
// Per-record failures degrade the batch; a batch where nothing ingests
// is an error.
func (s *Service) Run(dir string) (*Result, error) {
	runID := uuid.NewString()
	started := globaltime.Now()
	logger := s.logger.With().Str("run_id", runID).Logger()
	runsTotal.Inc()

	records, stats, err := s.ingester.IngestDir(dir)
	if err != nil {
		runFailures.Inc()
		return nil, fmt.Errorf("ingest %s: %w", dir, err)
	}
	if len(records) == 0 {
		runFailures.Inc()
		logger.Error().
			Int("files", stats.FilesRead).
			Int("rejected", stats.Rejected).
			Msg("no records ingested")
		return nil, fmt.Errorf("no records ingested from %s (%d files, %d rejected)", dir, stats.FilesRead, stats.Rejected)
	}
	recordsIngested.Add(float64(len(records)))
	logger.Info().Int("records", len(records)).Msg("ingest stage done")

	qualityRes := s.validator.ProcessAll(records)
	logger.Info().
		Int("issues", len(qualityRes.Issues)).
		Int("auto_fixes", qualityRes.AutoFixesApplied).
		Float64("overall", qualityRes.Metrics.Overall).
		Msg("quality stage done")

	dedupRes := s.deduper.Deduplicate(records, true)
	duplicatesMerged.Add(float64(dedupRes.OriginalCount - dedupRes.DeduplicatedCount))
	logger.Info().
		Int("before", dedupRes.OriginalCount).
		Int("after", dedupRes.DeduplicatedCount).
		Int("auto_merged", dedupRes.AutoMergedPairs).
		Msg("dedup stage done")

	opt := s.scheduler.Optimize(dedupRes.Events)
	conflictsDetected.Add(float64(len(opt.Resolved) + len(opt.Remaining)))
	logger.Info().
		Int("resolved", len(opt.Resolved)).
		Int("remaining", len(opt.Remaining)).
		Float64("score", opt.Score).
		Msg("schedule stage done")

	rep := report.Build(opt.Events, &qualityRes, &dedupRes, &opt)
	rep.RunID = runID

	res := &Result{
		RunID:        runID,
		Events:       opt.Events,
		IngestStats:  stats,
		Quality:      qualityRes,
		Duplicates:   dedupRes,
		Optimization: opt,
		Report:       rep,
		Duration:     globaltime.Now().Sub(started),
	}
	logger.Info().
		Int("events", len(res.Events)).
		Dur("duration", res.Duration).
		Msg("pipeline run completed")
	return res, nil
}

// SyncCandidates filters the canonical set down to records that pass
// the quality gate for calendar sync.
func (s *Service) SyncCandidates(events []*event.Record) []*event.Record {
	var out []*event.Record
	for _, rec := range events {
		if rec.QualityScore >= s.cfg.MinSyncQualityScore {
			out = append(out, rec)
		}
	}
	return out
}
