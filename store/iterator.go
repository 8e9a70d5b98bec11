package store

import "github.com/canopy-network/rollup-pool/lib"

// enforce the Iterator interface
var _ lib.IteratorI = &memIterator{}

// kv is a single materialized key value pair
type kv struct {
	key, value []byte
}

// memIterator walks a materialized, ordered set of pairs
type memIterator struct {
	pairs []kv
	index int
}

// newMemIterator() creates an iterator over pairs sorted ascending, walking them backwards if reverse
func newMemIterator(pairs []kv, reverse bool) *memIterator {
	if reverse {
		for i, j := 0, len(pairs)-1; i < j; i, j = i+1, j-1 {
			pairs[i], pairs[j] = pairs[j], pairs[i]
		}
	}
	return &memIterator{pairs: pairs}
}

func (m *memIterator) Valid() bool   { return m.index < len(m.pairs) }
func (m *memIterator) Next()         { m.index++ }
func (m *memIterator) Key() []byte   { return m.pairs[m.index].key }
func (m *memIterator) Value() []byte { return m.pairs[m.index].value }
func (m *memIterator) Close()        { m.pairs = nil }
