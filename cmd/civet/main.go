package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/civet"
	"github.com/fwojciec/civet/fs"
	"github.com/fwojciec/civet/gemini"
	"github.com/fwojciec/civet/goquery"
	civethttp "github.com/fwojciec/civet/http"
	"github.com/fwojciec/civet/htmltomarkdown"
	"github.com/fwojciec/civet/pipeline"
	"github.com/fwojciec/civet/rod"
	civetslog "github.com/fwojciec/civet/slog"
	"github.com/fwojciec/civet/sqlite"
	"github.com/fwojciec/civet/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// Snapshot directory for archived page HTML. Set before calling Run().
	SnapshotDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	SourceService   civet.SourceService
	ManifestService civet.ManifestService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:      defaultDBPath(),
		SnapshotDir: defaultSnapshotDir(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	// Create Kong parser with dependency binding
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("civet"),
		kong.Description("Manifest-driven extraction of structured records from civic-data pages"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'civet --help' to see available commands")
	}
	if first := args[0]; first == "help" || first == "--help" || first == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Kong command strings look like "run <url>" or "source add <url>"
	command := kongCtx.Command()
	cmd, _, _ := strings.Cut(command, " ")

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set CIVET_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	var logger *slog.Logger
	if cli.Verbose {
		logger = slog.New(slog.NewTextHandler(stderr, nil))
	}

	// Wire core services into dependencies
	m.SourceService = sqlite.NewSourceService(m.DB)
	m.ManifestService = sqlite.NewManifestService(m.DB)
	deps.DB = m.DB
	deps.Sources = m.SourceService
	deps.Manifests = m.ManifestService
	if logger != nil {
		deps.Manifests = civetslog.NewLoggingManifestService(deps.Manifests, logger)
	}
	deps.Discoverer = civethttp.NewSitemapSource(nil)
	if logger != nil {
		deps.Discoverer = civetslog.NewLoggingSourceDiscoverer(deps.Discoverer, logger)
	}
	snapshotDir := m.SnapshotDir
	if cmd == "run" && cli.Run.Snapshots != "" {
		snapshotDir = cli.Run.Snapshots
	}
	deps.Snapshots = fs.NewSnapshotStore(snapshotDir)
	deps.Fingerprint = goquery.Fingerprint

	// Wire a page fetcher for the commands that fetch
	switch {
	case cmd == "run":
		if err := wireFetcher(deps, cli.Run.Render, logger, stderr); err != nil {
			return err
		}
	case cmd == "check":
		if err := wireFetcher(deps, cli.Check.Render, logger, stderr); err != nil {
			return err
		}
	case cmd == "analyze" && !cli.Analyze.Offline:
		if err := wireFetcher(deps, cli.Analyze.Render, logger, stderr); err != nil {
			return err
		}
	case cmd == "run-all":
		// The browser launches lazily: batches without render_js sources
		// never start Chrome.
		routes := NewSwitchFetcher(newHTTPFetcher(), newLazyFetcher(func() (civet.Fetcher, error) {
			fetcher, err := rod.NewFetcher()
			if err != nil {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
				return nil, fmt.Errorf("failed to start browser: %w", err)
			}
			return fetcher, nil
		}))
		deps.Routes = routes
		var fetcher civet.Fetcher = routes
		if logger != nil {
			fetcher = civetslog.NewLoggingFetcher(fetcher, logger)
		}
		deps.Fetcher = fetcher
	case strings.HasPrefix(command, "source add") && cli.Source.Add.Probe:
		rendered, err := rod.NewFetcher()
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		deps.Probe = &pipeline.RenderProbe{
			Plain:     newHTTPFetcher(),
			Rendered:  rendered,
			Distiller: trafilatura.NewDistiller(),
		}
	}
	if deps.Fetcher != nil {
		defer deps.Fetcher.Close()
	}
	if deps.Probe != nil {
		defer deps.Probe.Plain.Close()
		defer deps.Probe.Rendered.Close()
	}

	// Commands that run structural analysis need a Gemini client
	if cmd == "run" || cmd == "run-all" || cmd == "analyze" {
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			fmt.Fprintln(stderr, "GEMINI_API_KEY environment variable not set. Get an API key at https://aistudio.google.com/apikey")
			return fmt.Errorf("GEMINI_API_KEY not set. Get a key at https://aistudio.google.com/apikey")
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return fmt.Errorf("failed to connect to Gemini API: %w", err)
		}

		tokenCounter, err := gemini.NewTokenCounter(tokenizerModel)
		if err != nil {
			return fmt.Errorf("failed to create token counter: %w", err)
		}

		var analyzer civet.Analyzer = gemini.NewAnalyzer(client,
			gemini.WithTokenCounter(tokenCounter),
			gemini.WithDigest(trafilatura.NewDistiller(), htmltomarkdown.NewConverter()),
		)
		if logger != nil {
			analyzer = civetslog.NewLoggingAnalyzer(analyzer, logger)
		}
		deps.Analyzer = analyzer
	}

	// Assemble the pipeline for extraction runs
	if cmd == "run" || cmd == "run-all" {
		deps.Pipeline = &pipeline.Pipeline{
			Manifests:   deps.Manifests,
			Analyzer:    deps.Analyzer,
			Fetcher:     deps.Fetcher,
			Extractor:   goquery.NewExtractor(),
			Healing:     pipeline.NewHealer(pipeline.NewValidator()),
			Snapshots:   deps.Snapshots,
			Fingerprint: deps.Fingerprint,
		}
		if cmd == "run-all" {
			deps.Pipeline.RateLimiter = pipeline.NewDomainLimiter(cli.RunAll.RPS)
			deps.Pipeline.Concurrency = cli.RunAll.Concurrency
		}
	}

	return kongCtx.Run(deps)
}

// wireFetcher sets deps.Fetcher to a plain HTTP fetcher, or a rendering
// browser fetcher when render is set.
func wireFetcher(deps *Dependencies, render bool, logger *slog.Logger, stderr io.Writer) error {
	var fetcher civet.Fetcher
	if render {
		rodFetcher, err := rod.NewFetcher()
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
			return fmt.Errorf("failed to start browser: %w", err)
		}
		fetcher = rodFetcher
	} else {
		fetcher = newHTTPFetcher()
	}
	if logger != nil {
		fetcher = civetslog.NewLoggingFetcher(fetcher, logger)
	}
	deps.Fetcher = fetcher
	return nil
}

// newHTTPFetcher builds the plain fetcher with standard retry backoff.
func newHTTPFetcher() *civethttp.Fetcher {
	return civethttp.NewFetcher(civethttp.WithRetry(civethttp.DefaultRetryDelays()...))
}

// tokenizerModel is used for token counting when fitting analysis prompts
// into the model budget.
const tokenizerModel = "gemini-2.5-flash"

func defaultDBPath() string {
	if path := os.Getenv("CIVET_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "civet.db"
	}
	dir := filepath.Join(home, ".civet")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "civet.db")
}

func defaultSnapshotDir() string {
	if dir := os.Getenv("CIVET_SNAPSHOTS"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "snapshots"
	}
	return filepath.Join(home, ".civet", "snapshots")
}
