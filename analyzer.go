package civet

import "context"

// AnalysisRequest carries everything the structural analyzer needs to
// propose extraction rules for one page.
type AnalysisRequest struct {
	RegionID  string
	SourceURL string
	DataType  DataType

	// ContentGoal states what the records on the page represent, e.g.
	// "upcoming city council meetings with dates and agenda links".
	// When empty, the analyzer falls back to a goal derived from DataType.
	ContentGoal string

	// Hints are optional operator-supplied field or selector suggestions.
	Hints []string

	// HTML is the raw page markup. Implementations may truncate it to fit
	// their prompt budget.
	HTML string
}

// AnalysisResult is a candidate ruleset proposed by structural analysis.
// PromptHash and PromptVersion identify the exact prompt that produced it so
// a prompt change can bust cached manifests; Confidence is the analyzer's
// 0-1 certainty in the proposal.
type AnalysisResult struct {
	Rules         ExtractionRules
	Confidence    float64
	PromptHash    string
	PromptVersion string
	Model         string
}

// Analyzer generates candidate extraction rules from raw HTML and a content
// goal. Implementations are expected to be deterministic for a fixed prompt
// template version, to fall back to a generic schema template when no
// data-type-specific template exists, and to report a confidence estimate.
// Malformed rulesets are faults (EINTERNAL), never silently saved.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}
