package mock

import (
	"context"

	"github.com/fwojciec/civet"
)

var _ civet.Analyzer = (*Analyzer)(nil)

// Analyzer is a mock implementation of civet.Analyzer.
type Analyzer struct {
	AnalyzeFn func(ctx context.Context, req civet.AnalysisRequest) (*civet.AnalysisResult, error)
}

func (a *Analyzer) Analyze(ctx context.Context, req civet.AnalysisRequest) (*civet.AnalysisResult, error) {
	return a.AnalyzeFn(ctx, req)
}
