// Package pipeline wires the bronze, silver and gold layers into one run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"MarketETL/internal/bronze"
	"MarketETL/internal/collector"
	"MarketETL/internal/config"
	"MarketETL/internal/gold"
	"MarketETL/internal/logging"
	"MarketETL/internal/monitoring"
	"MarketETL/internal/notifier"
	"MarketETL/internal/silver"
	"MarketETL/internal/state"
	"MarketETL/internal/store"
)

// Deps are the collaborators of a Pipeline. Config, Fetcher, Store and
// StateLog are required; the rest fall back to no-ops.
type Deps struct {
	Config   *config.Config
	Fetcher  collector.Fetcher
	Store    *store.Store
	StateLog state.Log
	Logger   logging.Logger
	Reporter monitoring.Reporter
	Notifier notifier.Notifier
	Now      func() time.Time
}

// Pipeline runs bronze ingest, silver promotion and gold aggregation in
// sequence. It holds no per-run state; a Pipeline may run many times.
type Pipeline struct {
	cfg       *config.Config
	fetcher   collector.Fetcher
	store     *store.Store
	stateLog  state.Log
	logger    logging.Logger
	reporter  monitoring.Reporter
	notifier  notifier.Notifier
	now       func() time.Time
	validator *silver.Validator
	agg       *gold.Aggregator
}

// New checks deps and returns a Pipeline.
func New(d Deps) (*Pipeline, error) {
	switch {
	case d.Config == nil:
		return nil, errors.New("pipeline: config is required")
	case d.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is required")
	case d.Store == nil:
		return nil, errors.New("pipeline: store is required")
	case d.StateLog == nil:
		return nil, errors.New("pipeline: state log is required")
	}
	p := &Pipeline{
		cfg:      d.Config,
		fetcher:  d.Fetcher,
		store:    d.Store,
		stateLog: d.StateLog,
		logger:   logging.OrNop(d.Logger),
		reporter: monitoring.OrNop(d.Reporter),
		notifier: d.Notifier,
		now:      d.Now,
	}
	if p.notifier == nil {
		p.notifier = notifier.Nop{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	p.validator = silver.NewValidator(p.logger, d.Config.Validation.Strict)
	p.agg = gold.NewAggregator()
	if d.Config.Gold.StaleAfterDays > 0 {
		p.agg.StaleAfterDays = d.Config.Gold.StaleAfterDays
	}
	return p, nil
}

// Run executes one full pipeline invocation under a fresh run identifier.
// Failures local to one symbol or one bronze file are logged, reported and
// skipped; only shared infrastructure failures are returned.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	started := p.now()
	runID := state.NewRunID(started)
	p.reporter.SetRunID(runID)
	logger := p.logger
	logger.Info("pipeline run started", "run_id", runID, "symbols", len(p.cfg.Symbols))

	report := Report{RunID: runID, Started: started}

	tracker, err := state.Open(ctx, p.stateLog, runID)
	if err != nil {
		return report, p.fail(runID, "state", err)
	}

	report.Bronze, err = p.Ingest(ctx, runID)
	if err != nil {
		return report, p.fail(runID, "bronze", err)
	}

	report.Silver, err = p.ProcessSilver(ctx, tracker)
	if err != nil {
		return report, p.fail(runID, "silver", err)
	}

	report.Gold, err = p.RunGold(ctx)
	if err != nil {
		return report, p.fail(runID, "gold", err)
	}

	report.Duration = p.now().Sub(started)
	logger.Info("pipeline run completed",
		"run_id", runID,
		"bronze_files", len(report.Bronze),
		"silver_processed", report.Silver.Processed,
		"silver_failed", report.Silver.Failed,
		"gold_symbols", report.Gold.Symbols,
		"duration", report.Duration,
	)
	return report, nil
}

func (p *Pipeline) fail(runID, stage string, err error) error {
	p.logger.Error("pipeline run aborted", "run_id", runID, "stage", stage, "error", err)
	p.reporter.CaptureError(err, map[string]string{"stage": stage})
	return fmt.Errorf("run %s: %s: %w", runID, stage, err)
}

// Ingest fetches every configured symbol into the bronze directory.
func (p *Pipeline) Ingest(ctx context.Context, runID string) ([]string, error) {
	start, err := p.cfg.StartDate()
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	end, err := p.cfg.EndDate(p.now())
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	in := collector.NewIngester(p.fetcher, p.cfg.Paths.Bronze, p.logger, p.reporter)
	return in.Ingest(ctx, p.cfg.Symbols, start, end, runID)
}

// ProcessSilver promotes every unprocessed bronze file: dedupe, validate,
// write the silver CSV, upsert into the store, then mark it processed.
func (p *Pipeline) ProcessSilver(ctx context.Context, tracker *state.Tracker) (SilverSummary, error) {
	var sum SilverSummary

	names, err := bronze.List(p.cfg.Paths.Bronze)
	if err != nil {
		return sum, err
	}
	sum.Files = len(names)

	for _, name := range names {
		if tracker.IsProcessed(name) {
			sum.Skipped++
			p.logger.Debug("skipping processed file", "file", name)
			continue
		}

		fs, err := p.processFile(ctx, name)
		sum.add(fs)
		if err != nil {
			sum.Failed++
			p.logger.Error("silver processing failed", "file", name, "error", err)
			p.reporter.CaptureError(err, map[string]string{"stage": "silver", "file": name})
			continue
		}

		if err := tracker.MarkProcessed(ctx, name); err != nil {
			sum.Failed++
			p.logger.Error("mark processed failed", "file", name, "error", err)
			p.reporter.CaptureError(err, map[string]string{"stage": "state", "file": name})
			continue
		}
		sum.Processed++
	}

	p.logger.Info("silver layer completed",
		"files", sum.Files,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"duplicates", sum.Duplicates,
		"valid_rows", sum.Valid,
		"rejected_rows", sum.Rejected,
	)
	return sum, nil
}

func (p *Pipeline) processFile(ctx context.Context, name string) (SilverSummary, error) {
	var fs SilverSummary

	batch, err := bronze.Read(filepath.Join(p.cfg.Paths.Bronze, name))
	if err != nil {
		return fs, err
	}

	batch, dups := silver.Dedupe(batch)
	fs.Duplicates = dups
	if dups > 0 {
		p.logger.Info("duplicates removed", "file", name, "duplicates", dups)
	}

	rows, rejected := p.validator.Validate(batch)
	fs.Valid, fs.Rejected = len(rows), rejected
	if len(rows) == 0 {
		p.logger.Warn("no valid rows", "file", name, "rejected_rows", rejected)
		return fs, nil
	}

	path, err := silver.Write(p.cfg.Paths.Silver, name, rows)
	if err != nil {
		return fs, err
	}
	p.logger.Info("silver file written", "file", name, "silver_file", path, "rows", len(rows))

	res, err := p.store.Upsert(ctx, rows)
	fs.Inserted, fs.Ignored = res.Inserted, res.Ignored
	if err != nil {
		return fs, err
	}
	return fs, nil
}

// RunGold recomputes the gold outputs from the full validated dataset and
// sends a stale alert when any symbol is stale. An empty store is logged
// and skipped without reporting an error.
func (p *Pipeline) RunGold(ctx context.Context) (GoldSummary, error) {
	var sum GoldSummary

	rows, err := p.store.All(ctx)
	if err != nil {
		return sum, fmt.Errorf("load validated rows: %w", err)
	}
	if len(rows) == 0 {
		p.logger.Warn("gold layer skipped", "reason", gold.ErrNoData.Error())
		sum.Skipped = true
		return sum, nil
	}

	aggs, fresh := p.agg.Aggregate(rows, p.now())
	sum.Symbols = len(aggs)
	sum.Stale = gold.Stale(fresh)

	if sum.AggregatesPath, err = gold.WriteAggregates(p.cfg.Paths.Gold, aggs); err != nil {
		return sum, err
	}
	if sum.FreshnessPath, err = gold.WriteFreshness(p.cfg.Paths.Gold, fresh); err != nil {
		return sum, err
	}

	p.logger.Info("gold layer completed",
		"symbols", sum.Symbols,
		"rows", len(rows),
		"stale", len(sum.Stale),
		"aggregates", sum.AggregatesPath,
		"freshness", sum.FreshnessPath,
	)

	if msg := notifier.FormatStaleAlert(fresh, p.agg.StaleAfterDays); msg != "" {
		p.logger.Warn("stale symbols detected", "symbols", sum.Stale)
		if err := p.notifier.Notify(ctx, msg); err != nil {
			p.logger.Error("stale alert failed", "error", err)
			p.reporter.CaptureError(err, map[string]string{"stage": "notify"})
		}
	}
	return sum, nil
}
