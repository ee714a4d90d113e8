package main_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/fwojciec/civet"
	main "github.com/fwojciec/civet/cmd/civet"
	"github.com/fwojciec/civet/mock"
	"github.com/fwojciec/civet/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCmd_Run(t *testing.T) {
	t.Parallel()

	rules := civet.ExtractionRules{
		ContainerSelector: "table.measures",
		ItemSelector:      "tr.measure",
		FieldMappings: []civet.FieldMapping{
			{FieldName: "title", Selector: "td.title", Method: civet.MethodText, Required: true},
		},
	}

	t.Run("extracts items against the stored manifest and prints the report", func(t *testing.T) {
		t.Parallel()

		var succeededID string

		manifests := &mock.ManifestService{
			FindLatestFn: func(_ context.Context, _, _ string, _ civet.DataType) (*civet.StructuralManifest, error) {
				return &civet.StructuralManifest{
					ID:              "man-1",
					RegionID:        "us-ca",
					SourceURL:       "https://elections.ca.gov/measures",
					DataType:        civet.DataTypePropositions,
					Version:         3,
					ExtractionRules: rules,
				}, nil
			},
			IncrementSuccessFn: func(_ context.Context, id string) error {
				succeededID = id
				return nil
			},
		}

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				return "<html><body><table class=\"measures\"></table></body></html>", nil
			},
		}

		extractor := &mock.Extractor{
			ExtractFn: func(_ string, _ *civet.StructuralManifest, _ string) (*civet.RawExtractionResult, error) {
				return &civet.RawExtractionResult{
					Items: []map[string]string{
						{"title": "Measure A"},
						{"title": "Measure B"},
					},
					Success: true,
				}, nil
			},
		}

		pipe := &pipeline.Pipeline{
			Manifests: manifests,
			Fetcher:   fetcher,
			Extractor: extractor,
			Healing:   pipeline.NewHealer(pipeline.NewValidator()),
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   stderr,
			Pipeline: pipe,
		}

		cmd := &main.RunCmd{
			URL:    "https://elections.ca.gov/measures",
			Region: "us-ca",
			Type:   "propositions",
		}

		err := cmd.Run(deps)

		require.NoError(t, err)
		assert.Equal(t, "man-1", succeededID)

		output := stdout.String()
		assert.Contains(t, output, "Measure A")
		assert.Contains(t, output, "Measure B")
		assert.Contains(t, output, `"success": true`)
		assert.Contains(t, output, `"manifestVersion": 3`)
	})

	t.Run("synthesizes a manifest when none exists", func(t *testing.T) {
		t.Parallel()

		var savedManifest *civet.StructuralManifest

		manifests := &mock.ManifestService{
			FindLatestFn: func(_ context.Context, _, _ string, _ civet.DataType) (*civet.StructuralManifest, error) {
				return nil, civet.Errorf(civet.ENOTFOUND, "no manifest")
			},
			SaveFn: func(_ context.Context, m *civet.StructuralManifest) error {
				m.ID = "man-9"
				m.Version = 1
				savedManifest = m
				return nil
			},
			IncrementSuccessFn: func(_ context.Context, _ string) error {
				return nil
			},
		}

		analyzer := &mock.Analyzer{
			AnalyzeFn: func(_ context.Context, _ civet.AnalysisRequest) (*civet.AnalysisResult, error) {
				return &civet.AnalysisResult{
					Rules:         rules,
					Confidence:    0.9,
					PromptHash:    "abc123",
					PromptVersion: "v1",
				}, nil
			},
		}

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				return "<html><body><table class=\"measures\"></table></body></html>", nil
			},
		}

		extractor := &mock.Extractor{
			ExtractFn: func(_ string, _ *civet.StructuralManifest, _ string) (*civet.RawExtractionResult, error) {
				return &civet.RawExtractionResult{
					Items:   []map[string]string{{"title": "Measure A"}},
					Success: true,
				}, nil
			},
		}

		pipe := &pipeline.Pipeline{
			Manifests:   manifests,
			Analyzer:    analyzer,
			Fetcher:     fetcher,
			Extractor:   extractor,
			Healing:     pipeline.NewHealer(pipeline.NewValidator()),
			Fingerprint: func(_ string) string { return "fp-1" },
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   stderr,
			Pipeline: pipe,
		}

		cmd := &main.RunCmd{
			URL:    "https://elections.ca.gov/measures",
			Region: "us-ca",
			Type:   "propositions",
			Goal:   "extract ballot measures",
		}

		err := cmd.Run(deps)

		require.NoError(t, err)
		require.NotNil(t, savedManifest)
		assert.Equal(t, "us-ca", savedManifest.RegionID)
		assert.Equal(t, "https://elections.ca.gov/measures", savedManifest.SourceURL)
		assert.Equal(t, civet.DataTypePropositions, savedManifest.DataType)
		assert.Equal(t, "fp-1", savedManifest.StructureHash)
		assert.True(t, savedManifest.IsActive)

		output := stdout.String()
		assert.Contains(t, output, `"analyzed": true`)
		assert.Contains(t, output, `"manifestVersion": 1`)
	})

	t.Run("returns an error when validation fails", func(t *testing.T) {
		t.Parallel()

		var failedID string
		var analyzeCalled bool

		manifests := &mock.ManifestService{
			FindLatestFn: func(_ context.Context, _, _ string, _ civet.DataType) (*civet.StructuralManifest, error) {
				return &civet.StructuralManifest{ID: "man-1", Version: 3, ExtractionRules: rules}, nil
			},
			IncrementFailureFn: func(_ context.Context, id string) error {
				failedID = id
				return nil
			},
		}

		analyzer := &mock.Analyzer{
			AnalyzeFn: func(_ context.Context, _ civet.AnalysisRequest) (*civet.AnalysisResult, error) {
				analyzeCalled = true
				return &civet.AnalysisResult{Rules: rules}, nil
			},
		}

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				return "<html><body></body></html>", nil
			},
		}

		extractor := &mock.Extractor{
			ExtractFn: func(_ string, _ *civet.StructuralManifest, _ string) (*civet.RawExtractionResult, error) {
				return &civet.RawExtractionResult{Success: true}, nil
			},
		}

		pipe := &pipeline.Pipeline{
			Manifests: manifests,
			Analyzer:  analyzer,
			Fetcher:   fetcher,
			Extractor: extractor,
			Healing:   pipeline.NewHealer(pipeline.NewValidator()),
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   stderr,
			Pipeline: pipe,
		}

		cmd := &main.RunCmd{
			URL:    "https://elections.ca.gov/measures",
			Region: "us-ca",
			Type:   "propositions",
			NoHeal: true,
		}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "extraction failed validation")
		assert.Equal(t, "man-1", failedID)
		assert.False(t, analyzeCalled, "--no-heal should skip re-analysis")

		output := stdout.String()
		assert.Contains(t, output, `"success": false`)
		assert.Contains(t, output, "extraction produced no items")
	})

	t.Run("flags dramatic item count drops against the previous count", func(t *testing.T) {
		t.Parallel()

		manifests := &mock.ManifestService{
			FindLatestFn: func(_ context.Context, _, _ string, _ civet.DataType) (*civet.StructuralManifest, error) {
				return &civet.StructuralManifest{ID: "man-1", Version: 2, ExtractionRules: rules}, nil
			},
			IncrementFailureFn: func(_ context.Context, _ string) error {
				return nil
			},
		}

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				return "<html><body></body></html>", nil
			},
		}

		extractor := &mock.Extractor{
			ExtractFn: func(_ string, _ *civet.StructuralManifest, _ string) (*civet.RawExtractionResult, error) {
				return &civet.RawExtractionResult{
					Items: []map[string]string{
						{"title": "Measure A"},
						{"title": "Measure B"},
						{"title": "Measure C"},
						{"title": "Measure D"},
					},
					Success: true,
				}, nil
			},
		}

		pipe := &pipeline.Pipeline{
			Manifests: manifests,
			Fetcher:   fetcher,
			Extractor: extractor,
			Healing:   pipeline.NewHealer(pipeline.NewValidator()),
		}

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		deps := &main.Dependencies{
			Ctx:      context.Background(),
			Stdout:   stdout,
			Stderr:   stderr,
			Pipeline: pipe,
		}

		cmd := &main.RunCmd{
			URL:           "https://elections.ca.gov/measures",
			Region:        "us-ca",
			Type:          "propositions",
			NoHeal:        true,
			PreviousCount: 10,
		}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Contains(t, stdout.String(), "item count dropped dramatically from 10 to 4")
	})

	t.Run("rejects an unknown data type", func(t *testing.T) {
		t.Parallel()

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: stderr,
		}

		cmd := &main.RunCmd{
			URL:    "https://elections.ca.gov/measures",
			Region: "us-ca",
			Type:   "zoning",
		}

		err := cmd.Run(deps)

		require.Error(t, err)
		assert.Equal(t, civet.EINVALID, civet.ErrorCode(err))
		assert.Contains(t, stderr.String(), "unknown data type")
	})
}
