package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/civet"
)

// Run executes the analyze command.
func (c *AnalyzeCmd) Run(deps *Dependencies) error {
	dataType, err := civet.ParseDataType(c.Type)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	var html string
	if c.Offline {
		snap, err := deps.Snapshots.LatestSnapshot(deps.Ctx, c.Region, c.URL, dataType)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s. Run 'civet run' first to archive a snapshot.\n", civet.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stderr, "using snapshot from %s\n", snap.FetchedAt.Format("2006-01-02 15:04"))
		html = snap.HTML
	} else {
		html, err = deps.Fetcher.Fetch(deps.Ctx, c.URL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error fetching %s: %v\n", c.URL, err)
			return err
		}
	}

	result, err := deps.Analyzer.Analyze(deps.Ctx, civet.AnalysisRequest{
		RegionID:    c.Region,
		SourceURL:   c.URL,
		DataType:    dataType,
		ContentGoal: c.Goal,
		Hints:       c.Hint,
		HTML:        html,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	if c.DryRun {
		out, err := json.MarshalIndent(struct {
			Rules         civet.ExtractionRules `json:"rules"`
			Confidence    float64               `json:"confidence"`
			PromptVersion string                `json:"promptVersion"`
			Model         string                `json:"model"`
		}{result.Rules, result.Confidence, result.PromptVersion, result.Model}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(deps.Stdout, string(out))
		return nil
	}

	manifest := &civet.StructuralManifest{
		RegionID:        c.Region,
		SourceURL:       c.URL,
		DataType:        dataType,
		ExtractionRules: result.Rules,
		Confidence:      result.Confidence,
		PromptHash:      result.PromptHash,
		PromptVersion:   result.PromptVersion,
		IsActive:        true,
	}
	if deps.Fingerprint != nil {
		manifest.StructureHash = deps.Fingerprint(html)
	}

	if err := deps.Manifests.Save(deps.Ctx, manifest); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Saved manifest v%d for %s (confidence %.2f)\n",
		manifest.Version, manifest.Key(), manifest.Confidence)
	return nil
}
