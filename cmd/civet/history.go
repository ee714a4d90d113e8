package main

import (
	"fmt"

	"github.com/fwojciec/civet"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	dataType, err := civet.ParseDataType(c.Type)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	manifests, err := deps.Manifests.History(deps.Ctx, c.Region, c.URL, dataType, c.Limit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	if len(manifests) == 0 {
		fmt.Fprintf(deps.Stderr, "error: no manifests for %s %s %s\n", c.Region, c.URL, dataType)
		return civet.Errorf(civet.ENOTFOUND, "no manifests for %s %s %s", c.Region, c.URL, dataType)
	}

	for _, m := range manifests {
		active := " "
		if m.IsActive {
			active = "*"
		}
		fmt.Fprintf(deps.Stdout, "%s v%-3d  conf %.2f  ok %-4d fail %-4d %s\n",
			active, m.Version, m.Confidence, m.SuccessCount, m.FailureCount,
			m.CreatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}
