// Copyright (c) 2026 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Status is the resolution state of a remote entry.
type Status int

const (
	// StatusUnknown entries were never fetched, or their last fetch failed.
	StatusUnknown Status = iota
	// StatusInFlight entries are being fetched.
	StatusInFlight
	// StatusResolved entries are cached and never fetched again.
	StatusResolved
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusInFlight:
		return "in-flight"
	case StatusResolved:
		return "resolved"
	}
	return "invalid"
}

type entry[V any] struct {
	status  Status
	waiters int
	value   V
}

// tracker resolves keys at most once. Concurrent resolutions of one key share
// a single fetch, and no lock is held while fetching.
type tracker[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	group   singleflight.Group
	flight  func(K) string
}

func newTracker[K comparable, V any](flight func(K) string) *tracker[K, V] {
	return &tracker[K, V]{
		entries: make(map[K]*entry[V]),
		flight:  flight,
	}
}

func (t *tracker[K, V]) status(k K) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[k]; ok {
		return e.status
	}
	return StatusUnknown
}

// lookup returns the resolved value of k, or marks k in flight for the caller.
func (t *tracker[K, V]) lookup(k K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[k]
	if !ok {
		e = &entry[V]{status: StatusInFlight}
		t.entries[k] = e
	}
	if e.status == StatusResolved {
		return e.value, true
	}
	e.waiters++
	var zero V
	return zero, false
}

func (t *tracker[K, V]) resolved(k K) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[k]; ok && e.status == StatusResolved {
		return e.value, true
	}
	var zero V
	return zero, false
}

func (t *tracker[K, V]) settle(k K, v V, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[k]
	if e == nil || e.status == StatusResolved {
		return
	}
	if err == nil {
		e.status, e.value = StatusResolved, v
	}
}

func (t *tracker[K, V]) release(k K) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entries[k]
	if e == nil || e.status == StatusResolved {
		return
	}
	// the last failed waiter resets the entry, so a later call retries
	if e.waiters--; e.waiters == 0 {
		delete(t.entries, k)
	}
}

// resolve returns the cached value of k, or fetches it. Failures are not cached.
func (t *tracker[K, V]) resolve(k K, fetch func() (V, error)) (V, bool, error) {
	if v, ok := t.lookup(k); ok {
		return v, false, nil
	}
	defer t.release(k)

	v, err, shared := t.group.Do(t.flight(k), func() (any, error) {
		// a flight of k may have completed between lookup and Do
		if v, ok := t.resolved(k); ok {
			return v, nil
		}
		v, err := fetch()
		t.settle(k, v, err)
		return v, err
	})
	if err != nil {
		var zero V
		return zero, shared, err
	}
	return v.(V), shared, nil
}
