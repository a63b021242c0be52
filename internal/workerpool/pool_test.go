package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_ReturnsValue(t *testing.T) {
	p := New(2)

	val, err := Do(context.Background(), p, func(_ context.Context) (string, error) {
		return "John Doe", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "John Doe", val)
}

func TestDo_ReturnsError(t *testing.T) {
	p := New(1)
	want := errors.New("upstream failed")

	_, err := Do(context.Background(), p, func(_ context.Context) (int, error) {
		return 0, want
	})
	assert.ErrorIs(t, err, want)
}

func TestDo_BoundsConcurrency(t *testing.T) {
	p := New(3)
	var inFlight, peak atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Do(context.Background(), p, func(_ context.Context) (struct{}, error) {
				n := inFlight.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inFlight.Add(-1)
				return struct{}{}, nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, 3, p.Size())
}

func TestDo_ContextCancelStopsWaiting(t *testing.T) {
	p := New(1)
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Do(ctx, p, func(_ context.Context) (int, error) {
		<-release
		return 1, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDo_SaturatedPoolHonorsContext(t *testing.T) {
	p := New(1)
	release := make(chan struct{})

	go func() {
		_, _ = Do(context.Background(), p, func(_ context.Context) (int, error) {
			<-release
			return 0, nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Do(ctx, p, func(_ context.Context) (int, error) {
		t.Error("should not run while the pool is saturated")
		return 0, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire")

	close(release)
}

func TestDo_RecoversPanic(t *testing.T) {
	p := New(1)

	_, err := Do(context.Background(), p, func(_ context.Context) (int, error) {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: boom")

	// The worker slot was released.
	val, err := Do(context.Background(), p, func(_ context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, val)
}

func TestNew_MinimumSize(t *testing.T) {
	assert.Equal(t, 1, New(0).Size())
	assert.Equal(t, 1, New(-4).Size())
}
