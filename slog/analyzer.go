package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/civet"
)

// Ensure LoggingAnalyzer implements civet.Analyzer.
var _ civet.Analyzer = (*LoggingAnalyzer)(nil)

// LoggingAnalyzer wraps an Analyzer with debug logging.
type LoggingAnalyzer struct {
	next   civet.Analyzer
	logger *slog.Logger
}

// NewLoggingAnalyzer creates a new LoggingAnalyzer.
func NewLoggingAnalyzer(next civet.Analyzer, logger *slog.Logger) *LoggingAnalyzer {
	return &LoggingAnalyzer{next: next, logger: logger}
}

// Analyze delegates to the wrapped analyzer and logs the operation.
func (a *LoggingAnalyzer) Analyze(ctx context.Context, req civet.AnalysisRequest) (result *civet.AnalysisResult, err error) {
	defer func(begin time.Time) {
		confidence := 0.0
		if result != nil {
			confidence = result.Confidence
		}
		a.logger.Info("structure analysis",
			"region", req.RegionID,
			"url", req.SourceURL,
			"data_type", req.DataType,
			"html_bytes", len(req.HTML),
			"confidence", confidence,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Analyze(ctx, req)
}
