// Package query translates typed parameter objects into ordered key/value
// maps that a Request merges into its URL.
package query

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is an insertion ordered string map. Setting an existing key keeps
// its original position.
type Map = orderedmap.OrderedMap[string, string]

func NewMap() *Map {
	return orderedmap.New[string, string]()
}

// Builder translates a parameter model into a flat map. A nil model
// yields a nil map.
type Builder interface {
	BuildPrimaryMap(model any) (*Map, error)
}

// Mapper is implemented by models that produce their own parameters
// instead of being serialized.
type Mapper interface {
	QueryMap() (*Map, error)
}

// Clone copies m; a nil map clones to an empty one.
func Clone(m *Map) *Map {
	c := NewMap()
	if m == nil {
		return c
	}
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		c.Set(pair.Key, pair.Value)
	}
	return c
}

// Merge sets every entry of src on dst in src's order.
func Merge(dst, src *Map) {
	if src == nil {
		return
	}
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		dst.Set(pair.Key, pair.Value)
	}
}
