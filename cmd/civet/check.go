package main

import (
	"fmt"

	"github.com/fwojciec/civet"
)

// Run executes the check command.
func (c *CheckCmd) Run(deps *Dependencies) error {
	dataType, err := civet.ParseDataType(c.Type)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	manifest, err := deps.Manifests.FindLatest(deps.Ctx, c.Region, c.URL, dataType)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s. Run 'civet analyze' to create one.\n", civet.ErrorMessage(err))
		return err
	}

	html, err := deps.Fetcher.Fetch(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error fetching %s: %v\n", c.URL, err)
		return err
	}

	if err := deps.Manifests.MarkChecked(deps.Ctx, manifest.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	if manifest.StructureHash == "" {
		fmt.Fprintf(deps.Stdout, "manifest v%d has no structure hash; nothing to compare\n", manifest.Version)
		return nil
	}

	hash := deps.Fingerprint(html)
	if hash == manifest.StructureHash {
		fmt.Fprintf(deps.Stdout, "structure unchanged (manifest v%d)\n", manifest.Version)
		return nil
	}

	fmt.Fprintf(deps.Stdout, "structure drift: page fingerprint %s does not match manifest v%d (%s)\n",
		hash, manifest.Version, manifest.StructureHash)
	return fmt.Errorf("structure drift detected for %s", c.URL)
}
