package dsl

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// OrderedMap is a string-keyed map that remembers insertion order. Setting an
// existing key replaces the value in place. The zero value is ready to use.
type OrderedMap[V any] struct {
	keys []string
	vals map[string]V
}

func (m *OrderedMap[V]) Len() int { return len(m.keys) }

func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

func (m *OrderedMap[V]) Set(key string, v V) {
	if m.vals == nil {
		m.vals = make(map[string]V)
	}
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

func (m *OrderedMap[V]) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Rename moves the value under from to the key to, keeping its position.
// An existing entry under to is replaced. It reports false when from is absent.
func (m *OrderedMap[V]) Rename(from, to string) bool {
	v, ok := m.vals[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	if _, exists := m.vals[to]; exists {
		m.vals[to] = v
		m.Delete(from)
		return true
	}
	for i, k := range m.keys {
		if k == from {
			m.keys[i] = to
			break
		}
	}
	delete(m.vals, from)
	m.vals[to] = v
	return true
}

// Keys returns a copy of the keys in order.
func (m *OrderedMap[V]) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Merge sets every entry of other onto m, key by key.
func (m *OrderedMap[V]) Merge(other *OrderedMap[V]) {
	for _, k := range other.keys {
		m.Set(k, other.vals[k])
	}
}

func (m OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the key order of the JSON object.
func (m *OrderedMap[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.Errorf("expected JSON object, got %v", tok)
	}
	var out OrderedMap[V]
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var v V
		if err := dec.Decode(&v); err != nil {
			return errors.Wrapf(err, "key %q", key)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}
