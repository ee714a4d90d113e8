package main

import (
	"fmt"
	"regexp"

	"github.com/fwojciec/civet"
)

// Run executes the discover command.
func (c *DiscoverCmd) Run(deps *Dependencies) error {
	// Compile filters early so a bad pattern fails before any fetch
	var urlFilter *civet.URLFilter
	if len(c.Filter) > 0 || len(c.Exclude) > 0 {
		urlFilter = &civet.URLFilter{}
		for _, pattern := range c.Filter {
			re, err := regexp.Compile(pattern)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: invalid filter pattern %q: %v\n", pattern, err)
				return err
			}
			urlFilter.Include = append(urlFilter.Include, re)
		}
		for _, pattern := range c.Exclude {
			re, err := regexp.Compile(pattern)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: invalid exclude pattern %q: %v\n", pattern, err)
				return err
			}
			urlFilter.Exclude = append(urlFilter.Exclude, re)
		}
	}

	urls, err := deps.Discoverer.Discover(deps.Ctx, c.URL, urlFilter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", civet.ErrorMessage(err))
		return err
	}

	if len(urls) == 0 {
		fmt.Fprintln(deps.Stderr, "No URLs discovered. The portal may not publish a sitemap.")
		return nil
	}

	for _, u := range urls {
		fmt.Fprintln(deps.Stdout, u)
	}
	return nil
}
