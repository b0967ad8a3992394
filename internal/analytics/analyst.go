// Package analytics computes descriptive statistics over a loaded sales
// dataset.
//
// Analyst is bound to one immutable Dataset. Every metric is memoized under
// its own name and argument tuple, so a metric that other metrics depend on
// is computed at most once per Analyst, and an arithmetic failure at the
// bottom of a chain is reported by every metric built on it.
package analytics

import (
	"slices"
	"time"

	"salesengine/internal/cache"
	"salesengine/internal/log"
	"salesengine/internal/repository"
)

// Analyst exposes all metrics over one dataset.
type Analyst struct {
	ds         *repository.Dataset
	memo       *cache.Memo
	logger     *log.Logger
	topEarners int
}

// Option configures an Analyst.
type Option func(*Analyst)

// WithLogger sets the logger used for computation traces.
func WithLogger(l *log.Logger) Option {
	return func(a *Analyst) {
		if l != nil {
			a.logger = l.WithComponent(log.ComponentAnalytics)
		}
	}
}

// WithMemo supplies the result cache, e.g. to inspect its counters.
func WithMemo(m *cache.Memo) Option {
	return func(a *Analyst) {
		if m != nil {
			a.memo = m
		}
	}
}

// WithTopEarners sets how many merchants the Summary revenue ranking keeps.
// Values ≤ 0 keep DefaultTopEarners.
func WithTopEarners(n int) Option {
	return func(a *Analyst) {
		if n > 0 {
			a.topEarners = n
		}
	}
}

// New binds an Analyst to ds.
func New(ds *repository.Dataset, opts ...Option) *Analyst {
	a := &Analyst{
		ds:         ds,
		memo:       cache.NewMemo(),
		logger:     log.Discard(),
		topEarners: DefaultTopEarners,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dataset returns the dataset the Analyst reads from.
func (a *Analyst) Dataset() *repository.Dataset {
	return a.ds
}

// Memo returns the result cache.
func (a *Analyst) Memo() *cache.Memo {
	return a.memo
}

// trace logs one finished computation of key.
func (a *Analyst) trace(key cache.Key, start time.Time, err error) {
	fields := log.NewFields().
		WithMetric(key.Metric, key.Args).
		WithOperation(log.OpCompute).
		WithError(err)
	fields[log.FieldDuration] = time.Since(start).Milliseconds()
	a.logger.Debug("Metric computed", fields.ToSlice()...)
}

// compute memoizes fn under key and traces the computation.
func compute[T any](a *Analyst, key cache.Key, fn func() (T, error)) (T, error) {
	return cache.Get(a.memo, key, func() (T, error) {
		start := time.Now()
		v, err := fn()
		a.trace(key, start, err)
		return v, err
	})
}

// computeValue is compute for metrics that cannot fail.
func computeValue[T any](a *Analyst, key cache.Key, fn func() T) T {
	return cache.Must(a.memo, key, func() T {
		start := time.Now()
		v := fn()
		a.trace(key, start, nil)
		return v
	})
}

// Memoized slices are shared by every caller, so exported accessors hand
// out copies.

func computeSlice[E any](a *Analyst, key cache.Key, fn func() []E) []E {
	return slices.Clone(computeValue(a, key, fn))
}

func computeSliceErr[E any](a *Analyst, key cache.Key, fn func() ([]E, error)) ([]E, error) {
	v, err := compute(a, key, fn)
	return slices.Clone(v), err
}
