package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matsuri_pipeline_runs_total",
		Help: "Pipeline runs started.",
	})
	runFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matsuri_pipeline_run_failures_total",
		Help: "Pipeline runs that produced no usable records.",
	})
	recordsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matsuri_records_ingested_total",
		Help: "Records accepted by the ingest stage.",
	})
	duplicatesMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matsuri_duplicates_merged_total",
		Help: "Records removed by duplicate merging.",
	})
	conflictsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matsuri_schedule_conflicts_total",
		Help: "Schedule conflicts detected across runs.",
	})
)
