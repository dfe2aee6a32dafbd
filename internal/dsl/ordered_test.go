package dsl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderedMapSetKeepsPosition(t *testing.T) {
	var m OrderedMap[int]
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)
	require.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestOrderedMapRename(t *testing.T) {
	var m OrderedMap[int]
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	require.True(t, m.Rename("b", "x"))
	require.Equal(t, []string{"a", "x", "c"}, m.Keys())
	require.False(t, m.Has("b"))

	require.True(t, m.Rename("a", "c"))
	require.Equal(t, []string{"x", "c"}, m.Keys())
	v, _ := m.Get("c")
	require.Equal(t, 1, v)

	require.False(t, m.Rename("missing", "y"))
}

func TestOrderedMapDelete(t *testing.T) {
	var m OrderedMap[int]
	m.Set("a", 1)
	m.Set("b", 2)
	m.Delete("a")
	m.Delete("zzz")
	require.Equal(t, []string{"b"}, m.Keys())
	require.Equal(t, 1, m.Len())
}

func TestOrderedMapJSON(t *testing.T) {
	var m OrderedMap[int]
	require.NoError(t, json.Unmarshal([]byte(`{"z":1,"a":2,"m":3}`), &m))
	require.Equal(t, []string{"z", "a", "m"}, m.Keys())

	b, err := json.Marshal(m)
	require.NoError(t, err)
	require.JSONEq(t, `{"z":1,"a":2,"m":3}`, string(b))
	require.Equal(t, `{"z":1,"a":2,"m":3}`, string(b))

	var empty OrderedMap[int]
	b, err = json.Marshal(empty)
	require.NoError(t, err)
	require.Equal(t, `{}`, string(b))

	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	require.Equal(t, 3, m.Len())

	require.Error(t, json.Unmarshal([]byte(`[1]`), &m))
}
