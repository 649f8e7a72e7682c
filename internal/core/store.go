package core

// ObservableMap is a keyed store that derives a view of every value on
// iteration and notifies an observer after each mutation. Iteration follows
// insertion order.
//
// The observer runs synchronously inside Set/Delete; its error is returned
// to the caller and the mutation is not rolled back.
type ObservableMap[K comparable, V, D any] struct {
	entries   map[K]V
	order     []K
	transform func(V) D
	observer  func(*ObservableMap[K, V, D]) error
}

func NewObservableMap[K comparable, V, D any](
	transform func(V) D,
	observer func(*ObservableMap[K, V, D]) error,
) *ObservableMap[K, V, D] {
	return &ObservableMap[K, V, D]{
		entries:   make(map[K]V),
		transform: transform,
		observer:  observer,
	}
}

// Set inserts or replaces the entry, then notifies the observer exactly once.
func (m *ObservableMap[K, V, D]) Set(k K, v V) error {
	if _, ok := m.entries[k]; !ok {
		m.order = append(m.order, k)
	}
	m.entries[k] = v
	return m.observer(m)
}

// Delete removes the entry if present. The observer is notified even when
// the key was absent: callers rely on every Delete producing a broadcast,
// no-op or not.
func (m *ObservableMap[K, V, D]) Delete(k K) error {
	if _, ok := m.entries[k]; ok {
		delete(m.entries, k)
		for i, key := range m.order {
			if key == k {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	return m.observer(m)
}

func (m *ObservableMap[K, V, D]) Has(k K) bool {
	_, ok := m.entries[k]
	return ok
}

// Get returns the raw, underived value.
func (m *ObservableMap[K, V, D]) Get(k K) (V, bool) {
	v, ok := m.entries[k]
	return v, ok
}

func (m *ObservableMap[K, V, D]) Len() int { return len(m.entries) }

// Values passes every entry through the transform, in insertion order.
// Nothing is cached: each call re-derives, so the view always reflects the
// latest raw state.
func (m *ObservableMap[K, V, D]) Values() []D {
	out := make([]D, 0, len(m.entries))
	for _, k := range m.order {
		out = append(out, m.transform(m.entries[k]))
	}
	return out
}
