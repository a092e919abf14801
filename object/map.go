package object

import "reflect"

// Map is an ordered property bag.
//
// Map is not safe for concurrent mutation; callers sharing a Map across
// goroutines must synchronize access themselves.
type Map struct {
	keys       []string
	props      map[string]*Descriptor
	frozenKeys bool
}

// NewMap returns an empty, extensible Map.
func NewMap() *Map {
	return &Map{props: make(map[string]*Descriptor)}
}

// Put sets key to value with default attributes and returns m for chaining.
// Put ignores refusals; it is meant for building graphs, not for mutation
// through the generic protocol.
func (m *Map) Put(key string, value any) *Map {
	_, _ = m.Set(key, value)
	return m
}

// Len returns the number of own properties.
func (m *Map) Len() int {
	return len(m.keys)
}

// Get returns the value stored at key, or nil when absent.
func (m *Map) Get(key string) (any, error) {
	if d, ok := m.props[key]; ok {
		return d.Value, nil
	}
	return nil, nil
}

// Set assigns value to key. Read-only properties and new keys on a frozen map
// are refused.
func (m *Map) Set(key string, value any) (bool, error) {
	if d, ok := m.props[key]; ok {
		if !d.Writable {
			return false, nil
		}
		d.Value = value
		return true, nil
	}
	if m.frozenKeys {
		return false, nil
	}
	m.add(key, DataDescriptor(value))
	return true, nil
}

// Has reports whether key is an own property.
func (m *Map) Has(key string) (bool, error) {
	_, ok := m.props[key]
	return ok, nil
}

// Delete removes key. Non-configurable properties are refused.
func (m *Map) Delete(key string) (bool, error) {
	d, ok := m.props[key]
	if !ok {
		return true, nil
	}
	if !d.Configurable {
		return false, nil
	}
	delete(m.props, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true, nil
}

// DefineProperty creates or redefines key with desc.
func (m *Map) DefineProperty(key string, desc Descriptor) (bool, error) {
	if d, ok := m.props[key]; ok {
		if !d.Configurable {
			return sameDescriptor(*d, desc), nil
		}
		*d = desc
		return true, nil
	}
	if m.frozenKeys {
		return false, nil
	}
	m.add(key, desc)
	return true, nil
}

// GetOwnPropertyDescriptor returns a copy of the descriptor of key.
func (m *Map) GetOwnPropertyDescriptor(key string) (Descriptor, bool, error) {
	if d, ok := m.props[key]; ok {
		return *d, true, nil
	}
	return Descriptor{}, false, nil
}

// OwnKeys returns the own keys in insertion order.
func (m *Map) OwnKeys() ([]string, error) {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys, nil
}

// Freeze makes every property read-only and non-configurable and refuses new keys.
func (m *Map) Freeze() *Map {
	for _, d := range m.props {
		d.Writable = false
		d.Configurable = false
	}
	m.frozenKeys = true
	return m
}

// Frozen reports whether new keys are refused.
func (m *Map) Frozen() bool {
	return m.frozenKeys
}

func (m *Map) add(key string, desc Descriptor) {
	if m.props == nil {
		m.props = make(map[string]*Descriptor)
	}
	d := desc
	m.props[key] = &d
	m.keys = append(m.keys, key)
}

func sameDescriptor(a, b Descriptor) bool {
	return a.Writable == b.Writable &&
		a.Enumerable == b.Enumerable &&
		a.Configurable == b.Configurable &&
		SameValue(a.Value, b.Value)
}

// SameValue reports whether a and b are the same value. Pointers compare by
// identity; values of non-comparable types are never the same.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

var _ Object = (*Map)(nil)
