// Package provider caches slow upstream lookups behind a TTL.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a fetched value is served without refetching.
const DefaultTTL = 5 * time.Minute

// ErrUnavailable is matched by errors.Is on ProviderUnavailableError.
var ErrUnavailable = errors.New("provider: unavailable")

// ProviderUnavailableError reports a failed fetch with no cached value to fall back on.
type ProviderUnavailableError struct {
	Name string
	Err  error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Name, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// Is matches ErrUnavailable.
func (e *ProviderUnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Outcome classifies one Get call.
type Outcome string

// Get outcomes.
const (
	OutcomeHit   Outcome = "hit"
	OutcomeMiss  Outcome = "miss"
	OutcomeStale Outcome = "stale"
	OutcomeError Outcome = "error"
)

// FetchFunc loads a fresh value from upstream.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Option configures a CachedProvider.
type Option func(*options)

type options struct {
	ttl     time.Duration
	now     func() time.Time
	observe func(name string, outcome Outcome)
}

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithObserver is called with the outcome of every Get.
func WithObserver(fn func(name string, outcome Outcome)) Option {
	return func(o *options) { o.observe = fn }
}

// Status describes the cache state of a provider.
type Status struct {
	Name      string    `json:"name"`
	HasValue  bool      `json:"has_value"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	Fresh     bool      `json:"fresh"`
	LastError string    `json:"last_error,omitempty"`
}

// CachedProvider serves a value from cache while fresh and refetches it after the TTL.
// Concurrent callers share a single in-flight fetch. If a fetch fails and an older
// value exists, the older value is served.
type CachedProvider[T any] struct {
	name  string
	fetch FetchFunc[T]
	opts  options
	group singleflight.Group

	mu        sync.RWMutex
	value     T
	has       bool
	fetchedAt time.Time
	lastErr   error
}

// New creates a provider named name backed by fetch.
func New[T any](name string, fetch FetchFunc[T], opts ...Option) *CachedProvider[T] {
	o := options{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &CachedProvider[T]{name: name, fetch: fetch, opts: o}
}

// Name returns the provider name.
func (p *CachedProvider[T]) Name() string { return p.name }

// Get returns the cached value if fresh, otherwise fetches. The fetch itself is
// detached from ctx, so a caller giving up still leaves the result cached.
func (p *CachedProvider[T]) Get(ctx context.Context) (T, error) {
	if v, ok := p.fresh(); ok {
		p.report(OutcomeHit)
		return v, nil
	}

	ch := p.group.DoChan(p.name, func() (any, error) {
		return p.refresh(context.WithoutCancel(ctx))
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Invalidate drops the freshness of the cached value; it is still kept for stale reads.
func (p *CachedProvider[T]) Invalidate() {
	p.mu.Lock()
	p.fetchedAt = time.Time{}
	p.mu.Unlock()
}

// Status reports the current cache state.
func (p *CachedProvider[T]) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Status{
		Name:      p.name,
		HasValue:  p.has,
		FetchedAt: p.fetchedAt,
		Fresh:     p.has && p.opts.now().Sub(p.fetchedAt) < p.opts.ttl,
	}
	if p.lastErr != nil {
		s.LastError = p.lastErr.Error()
	}
	return s
}

func (p *CachedProvider[T]) fresh() (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.has && p.opts.now().Sub(p.fetchedAt) < p.opts.ttl {
		return p.value, true
	}
	var zero T
	return zero, false
}

func (p *CachedProvider[T]) refresh(ctx context.Context) (T, error) {
	v, err := p.fetch(ctx)
	if err != nil {
		p.mu.Lock()
		p.lastErr = err
		stale, has := p.value, p.has
		p.mu.Unlock()

		if has {
			log.Printf("provider %s: serving stale value: %v", p.name, err)
			p.report(OutcomeStale)
			return stale, nil
		}
		p.report(OutcomeError)
		var zero T
		return zero, &ProviderUnavailableError{Name: p.name, Err: err}
	}

	p.mu.Lock()
	p.value = v
	p.has = true
	p.fetchedAt = p.opts.now()
	p.lastErr = nil
	p.mu.Unlock()

	p.report(OutcomeMiss)
	return v, nil
}

func (p *CachedProvider[T]) report(o Outcome) {
	if p.opts.observe != nil {
		p.opts.observe(p.name, o)
	}
}
