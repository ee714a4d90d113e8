package mock

import (
	"context"

	"github.com/fwojciec/civet"
)

var _ civet.Distiller = (*Distiller)(nil)

// Distiller is a mock implementation of civet.Distiller.
type Distiller struct {
	DistillFn func(html string) (*civet.DistillResult, error)
}

func (d *Distiller) Distill(html string) (*civet.DistillResult, error) {
	return d.DistillFn(html)
}

var _ civet.Converter = (*Converter)(nil)

// Converter is a mock implementation of civet.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ civet.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of civet.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (t *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return t.CountTokensFn(ctx, text)
}
