package main

import (
	"fmt"

	"github.com/fwojciec/civet"
	"github.com/fwojciec/civet/pipeline"
)

// Run executes the run-all command.
func (c *RunAllCmd) Run(deps *Dependencies) error {
	filter := civet.SourceFilter{}
	if c.Region != "" {
		filter.RegionID = &c.Region
	}
	if c.Type != "" {
		dataType, err := civet.ParseDataType(c.Type)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
			return err
		}
		filter.DataType = &dataType
	}

	sources, err := deps.Sources.FindSources(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}
	if len(sources) == 0 {
		fmt.Fprintln(deps.Stdout, "No sources registered. Use 'civet source add' to create one.")
		return nil
	}

	// Route render_js sources to the browser fetcher.
	if deps.Routes != nil {
		for _, source := range sources {
			deps.Routes.SetRender(source.URL, source.RenderJS)
		}
	}

	progress := func(event pipeline.ProgressEvent) {
		switch event.Type {
		case pipeline.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "Running %d sources\n", event.Total)
		case pipeline.ProgressCompleted:
			fmt.Fprintf(deps.Stdout, "  [%d/%d] ok   %s (%d items, manifest v%d)\n",
				event.Completed, event.Total, event.Source.URL, len(event.Report.Items), event.Report.ManifestVersion)
		case pipeline.ProgressFailed:
			if event.Err != nil {
				fmt.Fprintf(deps.Stderr, "  [%d/%d] fail %s: %v\n",
					event.Completed, event.Total, event.Source.URL, event.Err)
				return
			}
			reason := "validation failed"
			if len(event.Report.Errors) > 0 {
				reason = event.Report.Errors[0]
			}
			fmt.Fprintf(deps.Stderr, "  [%d/%d] fail %s: %s\n",
				event.Completed, event.Total, event.Source.URL, reason)
		case pipeline.ProgressFinished:
			// Summary printed after the batch completes
		}
	}

	reports := deps.Pipeline.RunAll(deps.Ctx, sources, progress)

	var succeeded, failed int
	for _, sr := range reports {
		if sr.Err == nil && sr.Report.Success {
			succeeded++
		} else {
			failed++
		}
	}
	fmt.Fprintf(deps.Stdout, "Done: %d succeeded, %d failed\n", succeeded, failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(sources))
	}
	return nil
}
