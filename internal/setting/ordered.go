package setting

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/bytedance/sonic/ast"
)

// ErrExpectedObject indicates that an ordered map was decoded from a non-object value.
var ErrExpectedObject = errors.New("expected JSON object")

// OrderedMap is a string keyed map that remembers insertion order.
// The zero value is an empty map ready to use.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

// NewOrderedMap creates an empty ordered map.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[string]V)}
}

// Set stores a value. Existing keys keep their original position.
func (m *OrderedMap[V]) Set(key string, value V) {
	if m.values == nil {
		m.values = make(map[string]V)
	}

	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = value
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Delete removes a key and its position.
func (m *OrderedMap[V]) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}

	delete(m.values, key)

	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)

	return keys
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

// Range calls fn for every entry in order until fn returns false.
func (m *OrderedMap[V]) Range(fn func(key string, value V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (m OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := sonic.Marshal(k)
		if err != nil {
			return nil, err
		}

		value, err := sonic.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", k, err)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the order its members appear in.
// A JSON null produces an empty map.
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	m.keys = nil
	m.values = make(map[string]V)

	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	if !sonic.Valid(data) {
		return fmt.Errorf("%w: invalid JSON", ErrExpectedObject)
	}

	root, err := sonic.Get(data)
	if err != nil {
		return err
	}

	if root.TypeSafe() != ast.V_OBJECT {
		return fmt.Errorf("%w, got type %d", ErrExpectedObject, root.TypeSafe())
	}

	it, err := root.Properties()
	if err != nil {
		return err
	}

	for it.HasNext() {
		var p ast.Pair
		if !it.Next(&p) {
			break
		}

		raw, err := p.Value.Raw()
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", p.Key, err)
		}

		var value V
		if err := sonic.UnmarshalString(raw, &value); err != nil {
			return fmt.Errorf("failed to decode %q: %w", p.Key, err)
		}

		m.Set(p.Key, value)
	}

	return nil
}
