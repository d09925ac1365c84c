// Package pipeline drives one collection run: scrape every configured source
// in order, normalize, then merge into the persisted store.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/office-atlas/atlas-cli/internal/dedupe"
	"github.com/office-atlas/atlas-cli/internal/model"
	"github.com/office-atlas/atlas-cli/internal/normalize"
	"github.com/office-atlas/atlas-cli/internal/repo"
	"github.com/office-atlas/atlas-cli/internal/source"
)

// Pipeline wires the sources, normalizer and store together.
type Pipeline struct {
	Sources     []source.Source
	Normalizer  *normalize.Normalizer
	Repo        repo.Repository
	ThresholdKM float64

	// DryRun skips the final save.
	DryRun bool
}

// SourceError records a source-level failure without aborting the run.
type SourceError struct {
	Source model.SourceID
	Err    error
}

// SourceStats counts one source's contribution to a run.
type SourceStats struct {
	Source     model.SourceID
	Raw        int
	Normalized int
}

// Summary is the end-of-run report.
type Summary struct {
	PerSource []SourceStats
	Errors    []SourceError
	Prior     int
	Collected int
	Merged    int
	Saved     bool
}

// Failed reports whether any source failed outright. The process exit code
// keys off this, after all sources have been attempted.
func (s *Summary) Failed() bool { return len(s.Errors) > 0 }

// Run executes one collection pass. Sources run strictly sequentially, in
// configured order; within a source, records keep page order. The dedup
// first-wins semantics depend on that ordering. The store is read once before
// the merge and written once at the end; a source failure never aborts the
// remaining sources, and an unreadable store degrades to an empty prior set.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	var collected []model.Listing

	for _, src := range p.Sources {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		stats := SourceStats{Source: src.Name()}
		zap.L().Info("pipeline: scraping source", zap.String("source", string(src.Name())))

		raws, err := src.Scrape(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return summary, err
			}
			zap.L().Error("pipeline: source failed",
				zap.String("source", string(src.Name())),
				zap.Error(err),
			)
			summary.Errors = append(summary.Errors, SourceError{Source: src.Name(), Err: err})
			continue
		}
		stats.Raw = len(raws)

		for _, raw := range raws {
			listing, err := p.Normalizer.Normalize(ctx, raw, src.Name())
			if err != nil {
				return summary, err
			}
			if listing == nil {
				continue
			}
			collected = append(collected, *listing)
			stats.Normalized++
		}

		zap.L().Info("pipeline: source done",
			zap.String("source", string(src.Name())),
			zap.Int("raw", stats.Raw),
			zap.Int("normalized", stats.Normalized),
		)
		summary.PerSource = append(summary.PerSource, stats)
	}
	summary.Collected = len(collected)

	existing, err := p.Repo.Load(ctx)
	if err != nil {
		// Prior data that cannot be read is treated as absent; the run
		// continues with only the fresh batch.
		zap.L().Warn("pipeline: could not load prior listings, starting fresh", zap.Error(err))
		existing = nil
	}
	summary.Prior = len(existing)

	merged := dedupe.Merge(existing, collected, p.ThresholdKM)
	summary.Merged = len(merged)

	if p.DryRun {
		zap.L().Info("pipeline: dry run, skipping save", zap.Int("merged", summary.Merged))
		return summary, nil
	}

	if err := p.Repo.Save(ctx, merged); err != nil {
		return summary, eris.Wrap(err, "pipeline: save merged listings")
	}
	summary.Saved = true

	zap.L().Info("pipeline: run complete",
		zap.Int("prior", summary.Prior),
		zap.Int("collected", summary.Collected),
		zap.Int("merged", summary.Merged),
		zap.Int("source_errors", len(summary.Errors)),
	)
	return summary, nil
}
