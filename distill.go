package civet

import "context"

// DistillResult holds the main content distilled from an HTML page.
type DistillResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content with boilerplate (nav, footer,
	// sidebar, ads) removed.
	ContentHTML string
}

// Distiller extracts main content from HTML pages, removing boilerplate.
// The analyzer uses it to build a readable content digest for its prompt;
// the render probe uses it to compare plain vs rendered fetches.
type Distiller interface {
	Distill(html string) (*DistillResult, error)
}

// Converter transforms HTML content into Markdown.
type Converter interface {
	Convert(html string) (string, error)
}

// TokenCounter counts tokens in text for a specific model.
// The analyzer uses it to keep prompts inside the model's budget.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
