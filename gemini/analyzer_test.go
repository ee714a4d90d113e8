package gemini_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fwojciec/civet"
	"github.com/fwojciec/civet/gemini"
	"github.com/fwojciec/civet/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_Analyze_ReturnsErrorWhenSourceURLEmpty(t *testing.T) {
	t.Parallel()

	analyzer := gemini.NewAnalyzer(nil) // nil client ok for this test

	_, err := analyzer.Analyze(context.Background(), civet.AnalysisRequest{
		HTML: "<html></html>",
	})

	require.Error(t, err)
	assert.Equal(t, civet.EINVALID, civet.ErrorCode(err))
	assert.Contains(t, civet.ErrorMessage(err), "source URL required")
}

func TestAnalyzer_Analyze_ReturnsErrorWhenHTMLEmpty(t *testing.T) {
	t.Parallel()

	analyzer := gemini.NewAnalyzer(nil)

	_, err := analyzer.Analyze(context.Background(), civet.AnalysisRequest{
		SourceURL: "https://elections.ca.gov/measures",
	})

	require.Error(t, err)
	assert.Equal(t, civet.EINVALID, civet.ErrorCode(err))
	assert.Contains(t, civet.ErrorMessage(err), "HTML required")
}

func TestParseRuleset_DecodesCompleteRuleset(t *testing.T) {
	t.Parallel()

	response := `{
		"containerSelector": "div.measures-list",
		"itemSelector": "div.measure",
		"fieldMappings": [
			{"fieldName": "title", "selector": "h3", "extractionMethod": "text", "required": true},
			{"fieldName": "url", "selector": "a", "extractionMethod": "attribute", "attribute": "href",
				"transform": {"kind": "url_resolve"}},
			{"fieldName": "status", "selector": "p", "extractionMethod": "regex",
				"regexPattern": "Status:\\s*(\\w+)", "regexGroup": 1}
		],
		"preprocessing": [{"action": "remove_elements", "selector": "span.ad"}],
		"confidence": 0.85
	}`

	result, err := gemini.ParseRuleset(response)
	require.NoError(t, err)

	assert.Equal(t, "div.measures-list", result.Rules.ContainerSelector)
	assert.Equal(t, "div.measure", result.Rules.ItemSelector)
	require.Len(t, result.Rules.FieldMappings, 3)
	assert.Equal(t, civet.MethodText, result.Rules.FieldMappings[0].Method)
	assert.True(t, result.Rules.FieldMappings[0].Required)
	require.NotNil(t, result.Rules.FieldMappings[1].Transform)
	assert.Equal(t, civet.TransformURLResolve, result.Rules.FieldMappings[1].Transform.Kind)
	assert.Equal(t, 1, result.Rules.FieldMappings[2].RegexGroup)
	require.Len(t, result.Rules.Preprocessing, 1)
	assert.Equal(t, civet.PreprocessRemoveElements, result.Rules.Preprocessing[0].Action)
	assert.InDelta(t, 0.85, result.Confidence, 0.001)
	assert.Equal(t, gemini.PromptVersion, result.PromptVersion)
	assert.Len(t, result.PromptHash, 16)
	assert.NotEmpty(t, result.Model)
}

func TestParseRuleset_ReturnsEINTERNALForMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := gemini.ParseRuleset("I could not find any records on this page.")

	require.Error(t, err)
	assert.Equal(t, civet.EINTERNAL, civet.ErrorCode(err))
	assert.Contains(t, civet.ErrorMessage(err), "not valid JSON")
}

func TestParseRuleset_ReturnsEINTERNALForInvalidRuleset(t *testing.T) {
	t.Parallel()

	response := `{
		"containerSelector": "div.list",
		"itemSelector": "",
		"fieldMappings": [{"fieldName": "title", "selector": "h3", "extractionMethod": "text"}],
		"confidence": 0.9
	}`

	_, err := gemini.ParseRuleset(response)

	require.Error(t, err)
	assert.Equal(t, civet.EINTERNAL, civet.ErrorCode(err), "a ruleset the extractor cannot run is an analyzer fault")
	assert.Contains(t, civet.ErrorMessage(err), "invalid ruleset")
}

func TestParseRuleset_ClampsConfidence(t *testing.T) {
	t.Parallel()

	ruleset := func(confidence string) string {
		return `{
			"containerSelector": "div.list",
			"itemSelector": "div.item",
			"fieldMappings": [{"fieldName": "title", "selector": "h3", "extractionMethod": "text"}],
			"confidence": ` + confidence + `
		}`
	}

	result, err := gemini.ParseRuleset(ruleset("1.7"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Confidence)

	result, err = gemini.ParseRuleset(ruleset("-0.2"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestBuildConfig_ConstrainsResponseToJSON(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig()

	assert.Equal(t, "application/json", config.ResponseMIMEType)
	require.NotNil(t, config.ResponseSchema)
	assert.Contains(t, config.ResponseSchema.Required, "containerSelector")
	assert.Contains(t, config.ResponseSchema.Required, "itemSelector")
	assert.Contains(t, config.ResponseSchema.Required, "fieldMappings")
	assert.Contains(t, config.ResponseSchema.Required, "confidence")
}

func TestBuildConfig_SetsLowTemperature(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig()

	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.1, *config.Temperature, 0.001)
}

func TestBuildConfig_SetsSystemInstruction(t *testing.T) {
	t.Parallel()

	config := gemini.BuildConfig()

	require.NotNil(t, config.SystemInstruction)
	require.Len(t, config.SystemInstruction.Parts, 1)
	assert.Contains(t, config.SystemInstruction.Parts[0].Text, "CSS selectors")
}

func TestBuildPrompt_UsesContentGoal(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildPrompt(civet.AnalysisRequest{
		RegionID:    "us-ca",
		SourceURL:   "https://elections.ca.gov/measures",
		DataType:    civet.DataTypePropositions,
		ContentGoal: "statewide ballot measures with titles and statuses",
		HTML:        "<html></html>",
	}, "")

	assert.Contains(t, prompt, "statewide ballot measures with titles and statuses")
	assert.Contains(t, prompt, "https://elections.ca.gov/measures")
}

func TestBuildPrompt_FallsBackToDataTypeTemplate(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildPrompt(civet.AnalysisRequest{
		RegionID:  "us-ca",
		SourceURL: "https://www.assembly.ca.gov/schedules",
		DataType:  civet.DataTypeMeetings,
		HTML:      "<html></html>",
	}, "")

	assert.Contains(t, prompt, "one record per meeting")
	assert.Contains(t, prompt, "agenda_url")
}

func TestBuildPrompt_IncludesHints(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildPrompt(civet.AnalysisRequest{
		RegionID:  "us-ca",
		SourceURL: "https://elections.ca.gov/measures",
		DataType:  civet.DataTypePropositions,
		Hints:     []string{"the measure number is inside span.num"},
		HTML:      "<html></html>",
	}, "")

	assert.Contains(t, prompt, "Hint: the measure number is inside span.num")
}

func TestBuildPrompt_IncludesDigestWhenPresent(t *testing.T) {
	t.Parallel()

	req := civet.AnalysisRequest{
		RegionID:  "us-ca",
		SourceURL: "https://elections.ca.gov/measures",
		DataType:  civet.DataTypePropositions,
		HTML:      "<html></html>",
	}

	withDigest := gemini.BuildPrompt(req, "# Measures\n- Prop 12")
	assert.Contains(t, withDigest, "<content_digest>")
	assert.Contains(t, withDigest, "- Prop 12")

	withoutDigest := gemini.BuildPrompt(req, "")
	assert.NotContains(t, withoutDigest, "<content_digest>")
}

func TestBuildPrompt_DoesNotContainSystemInstruction(t *testing.T) {
	t.Parallel()

	prompt := gemini.BuildPrompt(civet.AnalysisRequest{
		RegionID:  "us-ca",
		SourceURL: "https://elections.ca.gov/measures",
		DataType:  civet.DataTypePropositions,
		HTML:      "<html></html>",
	}, "")

	assert.NotContains(t, prompt, "You are an expert")
}

func TestPromptHash_IsStable(t *testing.T) {
	t.Parallel()

	first := gemini.PromptHash()
	second := gemini.PromptHash()

	assert.Equal(t, first, second)
	assert.Len(t, first, 16)
}

func TestTruncateHTML_KeepsSmallPagesIntact(t *testing.T) {
	t.Parallel()

	counter := &mock.TokenCounter{
		CountTokensFn: func(_ context.Context, text string) (int, error) {
			return len(text) / 4, nil
		},
	}

	html := "<html><body>small page</body></html>"
	got, err := gemini.TruncateHTML(context.Background(), counter, html, 1000)

	require.NoError(t, err)
	assert.Equal(t, html, got)
}

func TestTruncateHTML_CutsOversizedPages(t *testing.T) {
	t.Parallel()

	counter := &mock.TokenCounter{
		CountTokensFn: func(_ context.Context, text string) (int, error) {
			return len(text), nil // one token per byte
		},
	}

	html := strings.Repeat("a", 500)
	got, err := gemini.TruncateHTML(context.Background(), counter, html, 100)

	require.NoError(t, err)
	assert.Len(t, got, 100)
}

func TestTruncateHTML_UsesByteCapWithoutCounter(t *testing.T) {
	t.Parallel()

	html := strings.Repeat("a", 1000)
	got, err := gemini.TruncateHTML(context.Background(), nil, html, 100)

	require.NoError(t, err)
	assert.Len(t, got, 400, "four bytes per token")
}

func TestTruncateHTML_PropagatesCounterError(t *testing.T) {
	t.Parallel()

	counter := &mock.TokenCounter{
		CountTokensFn: func(context.Context, string) (int, error) {
			return 0, civet.Errorf(civet.EINTERNAL, "tokenizer failed")
		},
	}

	_, err := gemini.TruncateHTML(context.Background(), counter, "<html></html>", 100)

	require.Error(t, err)
	assert.Equal(t, civet.EINTERNAL, civet.ErrorCode(err))
}
