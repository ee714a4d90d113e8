package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/civet"
)

// Run executes the show command.
func (c *ShowCmd) Run(deps *Dependencies) error {
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

	out, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, string(out))
	return nil
}
