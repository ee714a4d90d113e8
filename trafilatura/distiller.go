// Package trafilatura distills main content from page HTML using
// go-trafilatura. It is the default Distiller for the analyzer's content
// digest and for render probing.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/civet"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Distiller implements civet.Distiller at compile time.
var _ civet.Distiller = (*Distiller)(nil)

// Distiller wraps go-trafilatura to strip boilerplate from page HTML.
type Distiller struct{}

// NewDistiller creates a new Distiller.
func NewDistiller() *Distiller {
	return &Distiller{}
}

// Distill processes raw HTML and returns the main content.
func (d *Distiller) Distill(rawHTML string) (*civet.DistillResult, error) {
	if rawHTML == "" {
		return nil, civet.Errorf(civet.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &civet.DistillResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
	}, nil
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
