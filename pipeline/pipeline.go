// Package pipeline orchestrates manifest-driven extraction runs.
// It coordinates manifest lookup, structural analysis, extraction,
// validation and the bounded self-healing retry, and reports run outcomes
// back to the manifest store.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/civet"
)

// Pipeline runs the extract-validate-heal cycle for registered sources.
// Collaborators are injected as fields; only Manifests, Analyzer, Fetcher,
// Extractor and Healing are required.
type Pipeline struct {
	Manifests civet.ManifestService
	Analyzer  civet.Analyzer
	Fetcher   civet.Fetcher
	Extractor civet.Extractor
	Healing   civet.HealingPolicy

	// Snapshots, when set, receives a copy of every fetched page. Snapshot
	// failures degrade to report warnings; they never fail a run.
	Snapshots civet.SnapshotStore

	// Fingerprint, when set, hashes fetched HTML into the StructureHash of
	// manifests created during the run.
	Fingerprint func(html string) string

	// RateLimiter and Concurrency govern RunAll batches.
	RateLimiter civet.DomainLimiter
	Concurrency int

	// DisableHealing skips the re-analysis retry: a failed validation goes
	// straight to the failure report.
	DisableHealing bool

	// lastCounts remembers the item count of the last successful run per
	// source key, so repeated runs in one process get a drift baseline
	// without callers threading counts through.
	mu         sync.Mutex
	lastCounts map[string]int
}

// RunOptions tunes a single pipeline run.
type RunOptions struct {
	// PreviousItemCount is the drift baseline: the item count of the last
	// successful run for the same key. Zero means unknown; the pipeline then
	// falls back to the count it remembers in-process, if any.
	PreviousItemCount int
}

// Report is the outcome of one pipeline run.
type Report struct {
	// Items are the extracted records from the final extraction attempt,
	// ready for downstream domain mapping.
	Items []map[string]string `json:"items"`

	// Success is true when the final extraction passed validation.
	Success bool `json:"success"`

	// Analyzed is true when this run synthesized and saved a new manifest
	// version, either because none existed or because healing replaced one.
	Analyzed bool `json:"analyzed"`

	// Healed is true when a failed validation triggered the re-analysis
	// cycle, regardless of whether the retry then passed.
	Healed bool `json:"healed"`

	// Errors are the validation error messages of a failed run.
	Errors []string `json:"errors,omitempty"`

	// Warnings collect extraction and validation warnings.
	Warnings []string `json:"warnings,omitempty"`

	// ManifestVersion is the version of the manifest behind Items.
	ManifestVersion int `json:"manifestVersion"`
}

// Run executes one extraction run for the source: fetch, look up or
// synthesize a manifest, extract, validate, heal at most once, and record
// the outcome on the manifest's counters.
//
// Analysis faults and repository errors abort the run with an error and
// never save a manifest; extraction quality problems end in a failure
// report instead.
func (p *Pipeline) Run(ctx context.Context, source *civet.Source, opts RunOptions) (*Report, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}

	report := &Report{}

	html, err := p.Fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source.URL, err)
	}
	p.snapshot(ctx, source, html, report)

	manifest, err := p.Manifests.FindLatest(ctx, source.RegionID, source.URL, source.DataType)
	if civet.ErrorCode(err) == civet.ENOTFOUND {
		manifest, err = p.analyze(ctx, source, html)
		if err != nil {
			return nil, err
		}
		report.Analyzed = true
	} else if err != nil {
		return nil, err
	}

	result, err := p.Extractor.Extract(html, manifest, source.URL)
	if err != nil {
		return nil, err
	}

	baseline := opts.PreviousItemCount
	if baseline == 0 {
		baseline = p.previousCount(source)
	}

	decision := p.Healing.Evaluate(result, manifest, baseline, false)

	if decision.ShouldHeal && !p.DisableHealing {
		report.Healed = true

		healed, err := p.analyze(ctx, source, html)
		if err != nil {
			// The manifest in hand produced the degraded result; record the
			// failure before surfacing the analysis fault.
			if ferr := p.Manifests.IncrementFailure(ctx, manifest.ID); ferr != nil {
				return nil, ferr
			}
			return nil, err
		}
		report.Analyzed = true
		manifest = healed

		result, err = p.Extractor.Extract(html, manifest, source.URL)
		if err != nil {
			return nil, err
		}
		decision = p.Healing.Evaluate(result, manifest, baseline, true)
	}

	report.Items = result.Items
	report.ManifestVersion = manifest.Version
	report.Warnings = append(report.Warnings, result.Warnings...)
	report.Warnings = append(report.Warnings, decision.Validation.WarningMessages()...)

	if decision.Validation.Valid {
		if err := p.Manifests.IncrementSuccess(ctx, manifest.ID); err != nil {
			return nil, err
		}
		report.Success = true
		p.recordCount(source, result.ItemCount())
		return report, nil
	}

	if err := p.Manifests.IncrementFailure(ctx, manifest.ID); err != nil {
		return nil, err
	}
	report.Errors = decision.Validation.ErrorMessages()
	return report, nil
}

// analyze asks the structural analyzer for a fresh ruleset and persists it
// as a new manifest version. Analyzer faults return before Save so a bad
// analysis can never poison the manifest history.
func (p *Pipeline) analyze(ctx context.Context, source *civet.Source, html string) (*civet.StructuralManifest, error) {
	res, err := p.Analyzer.Analyze(ctx, civet.AnalysisRequest{
		RegionID:    source.RegionID,
		SourceURL:   source.URL,
		DataType:    source.DataType,
		ContentGoal: source.ContentGoal,
		HTML:        html,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", source.URL, err)
	}

	manifest := &civet.StructuralManifest{
		RegionID:        source.RegionID,
		SourceURL:       source.URL,
		DataType:        source.DataType,
		ExtractionRules: res.Rules,
		Confidence:      res.Confidence,
		PromptHash:      res.PromptHash,
		PromptVersion:   res.PromptVersion,
		IsActive:        true,
	}
	if p.Fingerprint != nil {
		manifest.StructureHash = p.Fingerprint(html)
	}

	if err := p.Manifests.Save(ctx, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (p *Pipeline) snapshot(ctx context.Context, source *civet.Source, html string, report *Report) {
	if p.Snapshots == nil {
		return
	}
	err := p.Snapshots.SaveSnapshot(ctx, &civet.Snapshot{
		RegionID:  source.RegionID,
		SourceURL: source.URL,
		DataType:  source.DataType,
		HTML:      html,
		FetchedAt: time.Now().UTC(),
	})
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("snapshot not saved: %s", err))
	}
}

func sourceKey(source *civet.Source) string {
	return source.RegionID + "\x00" + source.URL + "\x00" + string(source.DataType)
}

func (p *Pipeline) previousCount(source *civet.Source) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCounts[sourceKey(source)]
}

func (p *Pipeline) recordCount(source *civet.Source, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastCounts == nil {
		p.lastCounts = make(map[string]int)
	}
	p.lastCounts[sourceKey(source)] = n
}
