// Package readability distills main content from page HTML using
// go-readability. It is an alternative to the trafilatura distiller for
// pages where readability's scoring performs better.
package readability

import (
	"strings"

	"github.com/fwojciec/civet"
	"github.com/go-shiori/go-readability"
)

// Ensure Distiller implements civet.Distiller at compile time.
var _ civet.Distiller = (*Distiller)(nil)

// Distiller wraps go-readability to strip boilerplate from page HTML.
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

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	return &civet.DistillResult{
		Title:       article.Title,
		ContentHTML: article.Content,
	}, nil
}
