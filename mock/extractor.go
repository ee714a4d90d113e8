package mock

import "github.com/fwojciec/civet"

var _ civet.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of civet.Extractor.
type Extractor struct {
	ExtractFn func(html string, manifest *civet.StructuralManifest, baseURL string) (*civet.RawExtractionResult, error)
}

func (e *Extractor) Extract(html string, manifest *civet.StructuralManifest, baseURL string) (*civet.RawExtractionResult, error) {
	return e.ExtractFn(html, manifest, baseURL)
}
