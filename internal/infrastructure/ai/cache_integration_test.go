package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/foodisave/backend/internal/infrastructure/persistence/memory"
	"github.com/foodisave/backend/internal/ports/outbound"
)

// counter is a fill that records how often it ran.
type counter struct {
	calls int32
	value string
	keep  bool
	err   error
}

func (c *counter) fill(context.Context) ([]byte, bool, error) {
	atomic.AddInt32(&c.calls, 1)
	return []byte(c.value), c.keep, c.err
}

func newCache(t *testing.T, observe func(bool)) *ResponseCache {
	return NewResponseCache(memory.NewCacheRepository(), time.Hour, zaptest.NewLogger(t), observe)
}

func TestResponseCache_ServesRepeatFromCache(t *testing.T) {
	c := &counter{value: `["Soppa"]`, keep: true}
	hits := 0
	cache := newCache(t, func(hit bool) {
		if hit {
			hits++
		}
	})

	for i := 0; i < 2; i++ {
		got, err := cache.Remember(context.Background(), "k", c.fill)
		require.NoError(t, err)
		assert.Equal(t, `["Soppa"]`, string(got))
	}

	assert.Equal(t, int32(1), c.calls)
	assert.Equal(t, 1, hits)
}

func TestResponseCache_RejectedValueIsNotStored(t *testing.T) {
	c := &counter{value: "[]", keep: false}
	cache := newCache(t, nil)

	_, _ = cache.Remember(context.Background(), "k", c.fill)
	_, _ = cache.Remember(context.Background(), "k", c.fill)

	assert.Equal(t, int32(2), c.calls)
}

func TestResponseCache_DoesNotCacheErrors(t *testing.T) {
	c := &counter{err: errors.New("upstream down")}
	cache := newCache(t, nil)

	_, err1 := cache.Remember(context.Background(), "k", c.fill)
	_, err2 := cache.Remember(context.Background(), "k", c.fill)

	assert.Error(t, err1)
	assert.Error(t, err2)
	assert.Equal(t, int32(2), c.calls)
}

func TestResponseCache_ZeroTTLAlwaysFills(t *testing.T) {
	c := &counter{value: "x", keep: true}
	cache := NewResponseCache(memory.NewCacheRepository(), 0, zaptest.NewLogger(t), nil)

	_, _ = cache.Remember(context.Background(), "k", c.fill)
	_, _ = cache.Remember(context.Background(), "k", c.fill)

	assert.Equal(t, int32(2), c.calls)
}

func blockingFill(calls *int32, release <-chan struct{}) outbound.FillFunc {
	return func(context.Context) ([]byte, bool, error) {
		atomic.AddInt32(calls, 1)
		<-release
		return []byte(`["Gröt"]`), true, nil
	}
}

func TestResponseCache_ConcurrentMissesShareOneFill(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	fill := blockingFill(&calls, release)
	cache := newCache(t, nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := cache.Remember(context.Background(), "k", fill)
			assert.NoError(t, err)
			results[i] = string(got)
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(callers))
	for _, got := range results {
		assert.Equal(t, `["Gröt"]`, got)
	}
}

func TestResponseCache_WaiterCanGiveUp(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	defer close(release)
	cache := newCache(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := cache.Remember(ctx, "k", blockingFill(&calls, release))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
