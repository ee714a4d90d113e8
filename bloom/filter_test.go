package bloom_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/civet/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_Seen(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	// First sighting records and reports false
	assert.False(t, f.Seen("https://council.example.gov/meetings/2026-01-12"))

	// Second sighting reports true
	assert.True(t, f.Seen("https://council.example.gov/meetings/2026-01-12"))

	// A different URL is its own first sighting
	assert.False(t, f.Seen("https://council.example.gov/meetings/2026-01-26"))
}

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.Test("https://council.example.gov/meetings/2026-01-12"))

	f.Add("https://council.example.gov/meetings/2026-01-12")

	assert.True(t, f.Test("https://council.example.gov/meetings/2026-01-12"))
	assert.False(t, f.Test("https://council.example.gov/meetings/2026-01-26"))
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.Equal(t, uint(0), f.EstimatedCount())

	f.Add("https://council.example.gov/meetings/2026-01-12")
	f.Add("https://council.example.gov/meetings/2026-01-26")
	f.Add("https://council.example.gov/meetings/2026-02-09")

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestFilter_AddIsIdempotent(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	url := "https://council.example.gov/meetings/2026-01-12"

	f.Add(url)
	countAfterFirst := f.EstimatedCount()

	f.Add(url)
	f.Add(url)

	assert.Equal(t, countAfterFirst, f.EstimatedCount())
	assert.True(t, f.Test(url))
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const (
		numItems   = 10000
		fpRate     = 0.01
		testProbes = 10000
	)

	f := bloom.NewFilter(numItems, fpRate)

	for i := range numItems {
		f.Add(fmt.Sprintf("https://council.example.gov/meetings/%d", i))
	}

	falsePositives := 0
	for i := range testProbes {
		url := fmt.Sprintf("https://council.example.gov/minutes/%d", i)
		if f.Test(url) {
			falsePositives++
		}
	}

	// Allow up to 2% to account for statistical variance
	actualRate := float64(falsePositives) / float64(testProbes)
	assert.Less(t, actualRate, 0.02, "false positive rate %f exceeds 2%%", actualRate)
}
