// Package gemini implements structural analysis using Google Gemini.
// The model sees a civic-data listing page once and proposes a deterministic
// extraction ruleset; every later fetch replays the ruleset without a model
// call.
package gemini

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/civet"
	"google.golang.org/genai"
)

const model = "gemini-2.5-flash"

// DefaultTokenBudget bounds the HTML portion of the analysis prompt.
// Listing markup that matters is almost always in the first part of a page,
// so oversized pages are truncated from the end.
const DefaultTokenBudget = 100_000

// Ensure Analyzer implements civet.Analyzer at compile time.
var _ civet.Analyzer = (*Analyzer)(nil)

// Analyzer implements civet.Analyzer using Google Gemini. Responses are
// constrained to the ruleset JSON schema; a response that fails to parse or
// validate is an EINTERNAL fault, never a saved manifest.
type Analyzer struct {
	client    *genai.Client
	tokens    civet.TokenCounter
	distiller civet.Distiller
	converter civet.Converter
	budget    int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTokenCounter sets the counter used to keep HTML inside the prompt
// budget. Without one, a byte cap approximates the budget.
func WithTokenCounter(tc civet.TokenCounter) Option {
	return func(a *Analyzer) {
		a.tokens = tc
	}
}

// WithDigest sets the distiller and converter used to prepend a readable
// content digest to the prompt. Without them the prompt carries HTML only.
func WithDigest(d civet.Distiller, c civet.Converter) Option {
	return func(a *Analyzer) {
		a.distiller = d
		a.converter = c
	}
}

// WithTokenBudget overrides DefaultTokenBudget. Non-positive values are
// ignored.
func WithTokenBudget(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.budget = n
		}
	}
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(client *genai.Client, opts ...Option) *Analyzer {
	a := &Analyzer{
		client: client,
		budget: DefaultTokenBudget,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze proposes extraction rules for the page in the request.
func (a *Analyzer) Analyze(ctx context.Context, req civet.AnalysisRequest) (*civet.AnalysisResult, error) {
	if req.SourceURL == "" {
		return nil, civet.Errorf(civet.EINVALID, "source URL required")
	}
	if req.HTML == "" {
		return nil, civet.Errorf(civet.EINVALID, "HTML required")
	}

	html, err := TruncateHTML(ctx, a.tokens, req.HTML, a.budget)
	if err != nil {
		return nil, err
	}
	req.HTML = html

	prompt := BuildPrompt(req, a.digest(req.HTML))

	result, err := a.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
		BuildConfig(),
	)
	if err != nil {
		return nil, civet.Errorf(civet.EUNAVAILABLE, "gemini request failed: %v", err)
	}
	if result == nil {
		return nil, civet.Errorf(civet.EINTERNAL, "gemini returned nil result")
	}

	return ParseRuleset(result.Text())
}

// digest produces a readable markdown digest of the page when a distiller
// and converter are configured. Digest failures degrade to an HTML-only
// prompt rather than failing the analysis.
func (a *Analyzer) digest(html string) string {
	if a.distiller == nil || a.converter == nil {
		return ""
	}
	res, err := a.distiller.Distill(html)
	if err != nil || res == nil || res.ContentHTML == "" {
		return ""
	}
	md, err := a.converter.Convert(res.ContentHTML)
	if err != nil {
		return ""
	}
	return md
}

// TruncateHTML bounds html to a token budget using tc. With a nil counter a
// byte cap of four bytes per token approximates the budget.
func TruncateHTML(ctx context.Context, tc civet.TokenCounter, html string, budget int) (string, error) {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}

	if tc == nil {
		limit := 4 * budget
		if len(html) > limit {
			return html[:limit], nil
		}
		return html, nil
	}

	count, err := tc.CountTokens(ctx, html)
	if err != nil {
		return "", err
	}
	if count <= budget {
		return html, nil
	}

	keep := len(html) * budget / count
	return html[:keep], nil
}

// rulesetResponse mirrors the JSON schema the model is constrained to.
type rulesetResponse struct {
	civet.ExtractionRules
	Confidence float64 `json:"confidence"`
}

// ParseRuleset decodes and validates a model response. Malformed responses
// are EINTERNAL faults regardless of what made them malformed: the caller
// must be able to distinguish "the model failed us" from "the page failed
// the rules".
func ParseRuleset(text string) (*civet.AnalysisResult, error) {
	var resp rulesetResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, civet.Errorf(civet.EINTERNAL, "analysis response is not valid JSON: %v", err)
	}
	if err := resp.ExtractionRules.Validate(); err != nil {
		return nil, civet.Errorf(civet.EINTERNAL, "analysis proposed an invalid ruleset: %v", err)
	}

	confidence := resp.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &civet.AnalysisResult{
		Rules:         resp.ExtractionRules,
		Confidence:    confidence,
		PromptHash:    PromptHash(),
		PromptVersion: PromptVersion,
		Model:         model,
	}, nil
}
