package civet

// RawExtractionResult holds the records one extraction run produced.
// It is computed fresh on every run and never persisted: only validation and
// the downstream domain mapper consume it. Extraction-level failures are
// represented here as data rather than as errors so that validation and
// healing can reason about partial failure uniformly.
type RawExtractionResult struct {
	// Items are string-keyed field maps, one per repeating page item that
	// resolved every required field. Ordering follows the DOM.
	Items []map[string]string `json:"items"`

	// Success is true when the container and item selectors both matched,
	// even if individual items were skipped for missing required fields.
	Success bool `json:"success"`

	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

// ItemCount returns the number of extracted items.
func (r *RawExtractionResult) ItemCount() int {
	return len(r.Items)
}

// MissingFieldFraction returns the fraction of items in which the named
// field is absent or empty. Returns 0 when there are no items.
func (r *RawExtractionResult) MissingFieldFraction(field string) float64 {
	if len(r.Items) == 0 {
		return 0
	}
	missing := 0
	for _, item := range r.Items {
		if item[field] == "" {
			missing++
		}
	}
	return float64(missing) / float64(len(r.Items))
}

// Extractor applies a manifest's extraction rules to raw HTML.
// Implementations hide the DOM engine; the goquery subpackage provides the
// canonical one.
type Extractor interface {
	// Extract parses html and replays the manifest's rules against it.
	// Selector misses and per-item required-field gaps surface inside the
	// result; the error return is reserved for unusable inputs such as a
	// nil manifest or rules that fail validation.
	Extract(html string, manifest *StructuralManifest, baseURL string) (*RawExtractionResult, error)
}
