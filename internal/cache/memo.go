package cache

import (
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

// Key identifies one memoized result: a metric name plus its arguments.
type Key struct {
	Metric string
	Args   string
}

// K builds a Key, rendering args with fmt and joining them with commas.
func K(metric string, args ...any) Key {
	if len(args) == 0 {
		return Key{Metric: metric}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return Key{Metric: metric, Args: strings.Join(parts, ",")}
}

func (k Key) String() string {
	return k.Metric + "(" + k.Args + ")"
}

type entry struct {
	value any
	err   error
}

// Memo is a write-once result cache. Each key is computed at most once for
// the lifetime of the Memo, errors included; concurrent first callers share
// a single computation. Entries are never evicted.
type Memo struct {
	mu           sync.Mutex
	entries      map[Key]entry
	computations map[string]int
	group        singleflight.Group

	computed *prometheus.CounterVec
	hits     *prometheus.CounterVec
}

// NewMemo creates an empty Memo with its own (unregistered) counters.
func NewMemo() *Memo {
	return &Memo{
		entries:      make(map[Key]entry),
		computations: make(map[string]int),
		computed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesengine",
			Name:      "metric_computations_total",
			Help:      "Number of times a metric was computed rather than served from the memo.",
		}, []string{"metric"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesengine",
			Name:      "metric_cache_hits_total",
			Help:      "Number of metric lookups served from the memo.",
		}, []string{"metric"}),
	}
}

// Do returns the memoized result for key, running fn on the first call.
// fn may itself call Do for other keys; the lock is not held while it runs.
func (m *Memo) Do(key Key, fn func() (any, error)) (any, error) {
	if e, ok := m.lookup(key); ok {
		m.hits.WithLabelValues(key.Metric).Inc()
		return e.value, e.err
	}
	v, err, _ := m.group.Do(key.String(), func() (any, error) {
		// A flight for this key may have finished between lookup and Do.
		if e, ok := m.lookup(key); ok {
			return e.value, e.err
		}
		v, err := fn()
		m.mu.Lock()
		m.entries[key] = entry{value: v, err: err}
		m.computations[key.Metric]++
		m.mu.Unlock()
		m.computed.WithLabelValues(key.Metric).Inc()
		return v, err
	})
	return v, err
}

func (m *Memo) lookup(key Key) (entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return e, ok
}

// Computations returns how many times metric was actually computed, summed
// over all argument tuples.
func (m *Memo) Computations(metric string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computations[metric]
}

// Len returns the number of cached entries.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Collectors exposes the memo counters for registration with a registry.
func (m *Memo) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.computed, m.hits}
}

// Get is the typed form of Memo.Do.
func Get[T any](m *Memo, key Key, fn func() (T, error)) (T, error) {
	v, err := m.Do(key, func() (any, error) {
		return fn()
	})
	if v == nil {
		var zero T
		return zero, err
	}
	return v.(T), err
}

// Must is Get for computations that cannot fail.
func Must[T any](m *Memo, key Key, fn func() T) T {
	v, _ := Get(m, key, func() (T, error) { return fn(), nil })
	return v
}
