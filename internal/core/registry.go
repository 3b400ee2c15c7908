package core

import "sync"

// Mapper normalizes a value before it is stored.
type Mapper[V any] func(V) V

// Observer receives a snapshot of all stored values after every write.
// Every Set is a broadcast point, not a cheap accessor.
type Observer[V any] func([]V)

// ObservableRegistry is a keyed store that runs every value through a
// mapper on write and then notifies the observer with the full value
// collection. Get, Has and Delete are plain map operations with no side
// effects beyond removal; Delete on a missing key is a no-op.
type ObservableRegistry[K comparable, V any] struct {
	mu       sync.RWMutex
	entries  map[K]V
	order    []K
	mapper   Mapper[V]
	observer Observer[V]
}

func NewObservableRegistry[K comparable, V any](mapper Mapper[V], observer Observer[V]) *ObservableRegistry[K, V] {
	return &ObservableRegistry[K, V]{
		entries:  make(map[K]V),
		mapper:   mapper,
		observer: observer,
	}
}

// Set inserts or replaces the value under key, after passing it through
// the mapper. The observer is invoked outside the lock so it may call
// back into the registry.
func (r *ObservableRegistry[K, V]) Set(key K, value V) V {
	if r.mapper != nil {
		value = r.mapper(value)
	}

	r.mu.Lock()
	if _, ok := r.entries[key]; !ok {
		r.order = append(r.order, key)
	}
	r.entries[key] = value
	snapshot := r.values()
	r.mu.Unlock()

	if r.observer != nil {
		r.observer(snapshot)
	}
	return value
}

func (r *ObservableRegistry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

func (r *ObservableRegistry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

func (r *ObservableRegistry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; !ok {
		return
	}
	delete(r.entries, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *ObservableRegistry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Values returns the stored values in insertion order.
func (r *ObservableRegistry[K, V]) Values() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values()
}

func (r *ObservableRegistry[K, V]) values() []V {
	out := make([]V, 0, len(r.entries))
	for _, k := range r.order {
		out = append(out, r.entries[k])
	}
	return out
}
