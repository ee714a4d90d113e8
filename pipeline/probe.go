package pipeline

import (
	"context"

	"github.com/fwojciec/civet"
)

// renderGainThreshold is how much longer rendered content must be before a
// page counts as JavaScript-dependent.
const renderGainThreshold = 1.5

// RenderProbe decides whether a source page needs a JavaScript-rendering
// fetcher. It fetches the page with and without rendering and compares the
// distilled content length of the two.
type RenderProbe struct {
	Plain     civet.Fetcher
	Rendered  civet.Fetcher
	Distiller civet.Distiller
}

// NeedsRendering reports whether the rendered fetch of the URL yields
// meaningfully more content than the plain one.
//
// A failed plain fetch counts as needing rendering: if plain HTTP cannot
// load the page at all the rendering fetcher is the only option. Distill
// failures on the plain fetch count the same way.
func (p *RenderProbe) NeedsRendering(ctx context.Context, url string) (bool, error) {
	plainHTML, err := p.Plain.Fetch(ctx, url)
	if err != nil {
		return true, nil
	}

	renderedHTML, err := p.Rendered.Fetch(ctx, url)
	if err != nil {
		return false, err
	}

	plain, err := p.Distiller.Distill(plainHTML)
	if err != nil {
		return true, nil
	}
	rendered, err := p.Distiller.Distill(renderedHTML)
	if err != nil {
		return false, nil
	}

	plainLen := len(plain.ContentHTML)
	renderedLen := len(rendered.ContentHTML)

	if plainLen == 0 {
		return renderedLen > 0, nil
	}
	return float64(renderedLen) > float64(plainLen)*renderGainThreshold, nil
}
