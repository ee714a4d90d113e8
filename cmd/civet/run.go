package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/civet"
	"github.com/fwojciec/civet/pipeline"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	dataType, err := civet.ParseDataType(c.Type)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	source := &civet.Source{
		RegionID:    c.Region,
		URL:         c.URL,
		DataType:    dataType,
		ContentGoal: c.Goal,
		RenderJS:    c.Render,
	}

	deps.Pipeline.DisableHealing = c.NoHeal

	report, err := deps.Pipeline.Run(deps.Ctx, source, pipeline.RunOptions{
		PreviousItemCount: c.PreviousCount,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(out))

	if !report.Success {
		return fmt.Errorf("extraction failed validation (manifest v%d)", report.ManifestVersion)
	}
	return nil
}
