package pipeline_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/civet"
	"github.com/fwojciec/civet/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements civet.DomainLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ civet.DomainLimiter = pipeline.NewDomainLimiter(1)
	})

	t.Run("allows an immediate first request", func(t *testing.T) {
		t.Parallel()

		limiter := pipeline.NewDomainLimiter(10)

		start := time.Now()
		err := limiter.Wait(context.Background(), "elections.ca.gov")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond)
	})

	t.Run("spaces out requests to the same domain", func(t *testing.T) {
		t.Parallel()

		limiter := pipeline.NewDomainLimiter(10) // 100ms between requests

		err := limiter.Wait(context.Background(), "elections.ca.gov")
		require.NoError(t, err)

		start := time.Now()
		err = limiter.Wait(context.Background(), "elections.ca.gov")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
	})

	t.Run("domains do not share a budget", func(t *testing.T) {
		t.Parallel()

		limiter := pipeline.NewDomainLimiter(10)

		err := limiter.Wait(context.Background(), "elections.ca.gov")
		require.NoError(t, err)

		start := time.Now()
		err = limiter.Wait(context.Background(), "leg.wa.gov")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := pipeline.NewDomainLimiter(1)

		err := limiter.Wait(context.Background(), "elections.ca.gov")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err = limiter.Wait(ctx, "elections.ca.gov")
		assert.Error(t, err)
	})

	t.Run("serves concurrent waiters", func(t *testing.T) {
		t.Parallel()

		limiter := pipeline.NewDomainLimiter(100)

		var wg sync.WaitGroup
		var completed atomic.Int32
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Wait(context.Background(), "elections.ca.gov"); err == nil {
					completed.Add(1)
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, int32(5), completed.Load())
	})
}
