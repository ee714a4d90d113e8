package main

import (
	"context"
	"io"

	"github.com/fwojciec/civet"
	"github.com/fwojciec/civet/pipeline"
	"github.com/fwojciec/civet/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	DB          *sqlite.DB
	Sources     civet.SourceService
	Manifests   civet.ManifestService
	Snapshots   civet.SnapshotStore
	Discoverer  civet.SourceDiscoverer
	Analyzer    civet.Analyzer
	Fetcher     civet.Fetcher
	Pipeline    *pipeline.Pipeline
	Probe       *pipeline.RenderProbe
	Routes      *SwitchFetcher
	Fingerprint func(html string) string
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log operations to stderr"`

	Run      RunCmd      `cmd:"" help:"Run extraction for one source page"`
	RunAll   RunAllCmd   `cmd:"" name:"run-all" help:"Run extraction for every registered source"`
	Source   SourceCmd   `cmd:"" help:"Manage registered sources"`
	Discover DiscoverCmd `cmd:"" help:"Discover candidate source URLs from a portal sitemap"`
	History  HistoryCmd  `cmd:"" help:"Show manifest version history for a source"`
	Show     ShowCmd     `cmd:"" help:"Show the active manifest for a source"`
	Check    CheckCmd    `cmd:"" help:"Check a source page for structural drift"`
	Analyze  AnalyzeCmd  `cmd:"" help:"Analyze a page and save a new manifest version"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	URL           string `arg:"" help:"Source page URL"`
	Region        string `short:"r" required:"" help:"Region identifier (e.g. us-ca)"`
	Type          string `short:"t" required:"" help:"Data type (propositions, meetings, representatives, campaign_finance, lobbying)"`
	Goal          string `short:"g" help:"Content goal passed to structural analysis"`
	Render        bool   `help:"Fetch with a JavaScript-rendering browser"`
	Snapshots     string `help:"Snapshot directory override"`
	NoHeal        bool   `name:"no-heal" help:"Disable the self-healing retry"`
	PreviousCount int    `name:"previous-count" help:"Item count of the last successful run, for drift detection"`
}

// RunAllCmd is the "run-all" subcommand.
type RunAllCmd struct {
	Region      string  `short:"r" help:"Only sources in this region"`
	Type        string  `short:"t" help:"Only sources of this data type"`
	Concurrency int     `short:"c" default:"4" help:"Concurrent source limit"`
	RPS         float64 `name:"rps" default:"1" help:"Max requests per second per domain"`
}

// SourceCmd groups the source registry subcommands.
type SourceCmd struct {
	Add  SourceAddCmd  `cmd:"" help:"Register a source"`
	List SourceListCmd `cmd:"" help:"List registered sources"`
	Rm   SourceRmCmd   `cmd:"" help:"Remove a source"`
}

// SourceAddCmd is the "source add" subcommand.
type SourceAddCmd struct {
	URL    string `arg:"" help:"Source page URL"`
	Region string `short:"r" required:"" help:"Region identifier (e.g. us-ca)"`
	Type   string `short:"t" required:"" help:"Data type (propositions, meetings, representatives, campaign_finance, lobbying)"`
	Goal   string `short:"g" help:"Content goal passed to structural analysis"`
	Render bool   `help:"Mark the source as requiring JavaScript rendering"`
	Probe  bool   `help:"Probe whether the page needs JavaScript rendering"`
}

// SourceListCmd is the "source list" subcommand.
type SourceListCmd struct {
	Region string `short:"r" help:"Only sources in this region"`
	Type   string `short:"t" help:"Only sources of this data type"`
}

// SourceRmCmd is the "source rm" subcommand.
type SourceRmCmd struct {
	ID string `arg:"" help:"Source ID"`
}

// DiscoverCmd is the "discover" subcommand.
type DiscoverCmd struct {
	URL     string   `arg:"" help:"Portal base URL"`
	Filter  []string `short:"F" name:"filter" help:"Include URLs matching regex (repeatable)"`
	Exclude []string `short:"X" name:"exclude" help:"Exclude URLs matching regex (repeatable)"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	URL    string `arg:"" help:"Source page URL"`
	Region string `short:"r" required:"" help:"Region identifier"`
	Type   string `short:"t" required:"" help:"Data type"`
	Limit  int    `short:"n" default:"10" help:"Versions to show"`
}

// ShowCmd is the "show" subcommand.
type ShowCmd struct {
	URL    string `arg:"" help:"Source page URL"`
	Region string `short:"r" required:"" help:"Region identifier"`
	Type   string `short:"t" required:"" help:"Data type"`
}

// CheckCmd is the "check" subcommand.
type CheckCmd struct {
	URL    string `arg:"" help:"Source page URL"`
	Region string `short:"r" required:"" help:"Region identifier"`
	Type   string `short:"t" required:"" help:"Data type"`
	Render bool   `help:"Fetch with a JavaScript-rendering browser"`
}

// AnalyzeCmd is the "analyze" subcommand.
type AnalyzeCmd struct {
	URL     string   `arg:"" help:"Source page URL"`
	Region  string   `short:"r" required:"" help:"Region identifier"`
	Type    string   `short:"t" required:"" help:"Data type"`
	Goal    string   `short:"g" help:"Content goal passed to structural analysis"`
	Hint    []string `help:"Field or selector hint for the analyzer (repeatable)"`
	Offline bool     `help:"Analyze the latest snapshot instead of fetching"`
	DryRun  bool     `name:"dry-run" help:"Print the candidate ruleset without saving"`
	Render  bool     `help:"Fetch with a JavaScript-rendering browser"`
}
