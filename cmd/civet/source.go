package main

import (
	"fmt"

	"github.com/fwojciec/civet"
)

// Run executes the source add command.
func (c *SourceAddCmd) Run(deps *Dependencies) error {
	dataType, err := civet.ParseDataType(c.Type)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	renderJS := c.Render
	if c.Probe && deps.Probe != nil {
		needs, err := deps.Probe.NeedsRendering(deps.Ctx, c.URL)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error probing %s: %v\n", c.URL, err)
			return err
		}
		renderJS = needs
		fmt.Fprintf(deps.Stdout, "probe: render_js=%t\n", needs)
	}

	source := &civet.Source{
		RegionID:    c.Region,
		URL:         c.URL,
		DataType:    dataType,
		ContentGoal: c.Goal,
		RenderJS:    renderJS,
	}

	if err := deps.Sources.CreateSource(deps.Ctx, source); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Added source %s (%s %s %s)\n", source.ID, source.RegionID, source.DataType, source.URL)
	return nil
}

// Run executes the source list command.
func (c *SourceListCmd) Run(deps *Dependencies) error {
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

	for _, s := range sources {
		render := ""
		if s.RenderJS {
			render = "  [render]"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s%s\n", s.ID, s.RegionID, s.DataType, s.URL, render)
	}

	return nil
}

// Run executes the source rm command.
func (c *SourceRmCmd) Run(deps *Dependencies) error {
	source, err := deps.Sources.FindSourceByID(deps.Ctx, c.ID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s. Use 'civet source list' to see registered sources.\n", civet.ErrorMessage(err))
		return err
	}

	if err := deps.Sources.DeleteSource(deps.Ctx, source.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Removed source %s (%s)\n", source.ID, source.URL)
	return nil
}
