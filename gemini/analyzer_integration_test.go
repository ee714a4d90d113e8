//go:build integration

package gemini_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fwojciec/civet"
	"github.com/fwojciec/civet/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const integrationHTML = `<html><body>
<nav>Elections home</nav>
<div class="measures-list">
	<div class="measure">
		<h3>Proposition 12</h3>
		<a href="/measures/prop-12">Details</a>
		<p>Status: Qualified</p>
	</div>
	<div class="measure">
		<h3>Proposition 13</h3>
		<a href="/measures/prop-13">Details</a>
		<p>Status: Pending</p>
	</div>
</div>
</body></html>`

func TestAnalyzer_Integration_ProposesRunnableRuleset(t *testing.T) {
	t.Parallel()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	require.NoError(t, err)

	analyzer := gemini.NewAnalyzer(client)

	result, err := analyzer.Analyze(ctx, civet.AnalysisRequest{
		RegionID:    "us-ca",
		SourceURL:   "https://elections.ca.gov/measures",
		DataType:    civet.DataTypePropositions,
		ContentGoal: "statewide ballot measures with titles and statuses",
		HTML:        integrationHTML,
	})

	require.NoError(t, err)
	require.NoError(t, result.Rules.Validate())
	assert.NotEmpty(t, result.Rules.FieldMappings)
	assert.Greater(t, result.Confidence, 0.0)
}
