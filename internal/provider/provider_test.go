package provider

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

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 1, 6, 0, 0, 0, time.UTC)}
}

func TestGetCachesWithinTTL(t *testing.T) {
	clock := newClock()
	var calls atomic.Int32
	p := New("ratios", func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, WithClock(clock.Now))

	v, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(4 * time.Minute)
	v, err = p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(2 * time.Minute)
	v, err = p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestGetServesStaleOnError(t *testing.T) {
	clock := newClock()
	fail := false
	p := New("inventory", func(context.Context) (string, error) {
		if fail {
			return "", errors.New("connection refused")
		}
		return "fresh", nil
	}, WithClock(clock.Now), WithTTL(time.Minute))

	_, err := p.Get(context.Background())
	require.NoError(t, err)

	fail = true
	clock.Advance(2 * time.Minute)
	v, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)

	st := p.Status()
	assert.True(t, st.HasValue)
	assert.False(t, st.Fresh)
	assert.Equal(t, "connection refused", st.LastError)
}

func TestGetUnavailableWithoutCache(t *testing.T) {
	boom := errors.New("502 bad gateway")
	p := New("ratios", func(context.Context) (int, error) { return 0, boom })

	_, err := p.Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, boom)

	var pue *ProviderUnavailableError
	require.ErrorAs(t, err, &pue)
	assert.Equal(t, "ratios", pue.Name)
}

func TestGetSharesInFlightFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	p := New("inventory", func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := p.Get(context.Background())
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestGetCallerCancelStillPopulatesCache(t *testing.T) {
	release := make(chan struct{})
	p := New("ratios", func(ctx context.Context) (int, error) {
		<-release
		return 7, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Get(ctx)
		done <- err
	}()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return p.Status().HasValue }, time.Second, 5*time.Millisecond)

	v, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var calls atomic.Int32
	p := New("ratios", func(context.Context) (int32, error) { return calls.Add(1), nil })

	_, _ = p.Get(context.Background())
	p.Invalidate()
	v, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestObserverSeesOutcomes(t *testing.T) {
	clock := newClock()
	var mu sync.Mutex
	var seen []Outcome
	fail := false
	p := New("inventory", func(context.Context) (int, error) {
		if fail {
			return 0, errors.New("down")
		}
		return 1, nil
	}, WithClock(clock.Now), WithObserver(func(name string, o Outcome) {
		mu.Lock()
		seen = append(seen, o)
		mu.Unlock()
	}))

	_, _ = p.Get(context.Background())
	_, _ = p.Get(context.Background())
	fail = true
	clock.Advance(time.Hour)
	_, _ = p.Get(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Outcome{OutcomeMiss, OutcomeHit, OutcomeStale}, seen)
}
