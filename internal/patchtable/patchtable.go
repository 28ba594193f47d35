// Package patchtable interns 28-byte OPL2 patch vectors into a dense,
// stable 0-based instrument table, the way a tracker's sample table dedupes
// instrument definitions by content rather than by order of appearance.
package patchtable

import (
	"errors"
	"fmt"
	"hash/fnv"
)

// ErrOverflow is returned by Intern once the table already holds the
// maximum 65536 distinct patches a uint16 index can address.
var ErrOverflow = errors.New("patchtable: instrument table overflow")

// Instrument is one interned patch: its assigned id, a generated name, and
// the raw 28-byte parameter vector it was interned from.
type Instrument struct {
	ID     uint16
	Name   string
	Params [28]byte
}

// Table dedupes patch vectors by content and hands out stable, increasing
// ids in first-seen order.
type Table struct {
	byHash map[uint64]uint16
	list   []Instrument
}

// New returns an empty instrument table.
func New() *Table {
	return &Table{byHash: make(map[uint64]uint16)}
}

func hashParams(p [28]byte) uint64 {
	h := fnv.New64a()
	h.Write(p[:])
	return h.Sum64()
}

// Intern returns the id for params, assigning and recording a new one the
// first time a given 28-byte vector is seen.
func (t *Table) Intern(params [28]byte) (uint16, error) {
	h := hashParams(params)
	if id, ok := t.byHash[h]; ok {
		return id, nil
	}
	if len(t.list) >= 1<<16 {
		return 0, ErrOverflow
	}
	id := uint16(len(t.list))
	t.list = append(t.list, Instrument{
		ID:     id,
		Name:   fmt.Sprintf("inst_%02d", id),
		Params: params,
	})
	t.byHash[h] = id
	return id, nil
}

// All returns the interned instruments in id order.
func (t *Table) All() []Instrument {
	return t.list
}

// Len reports how many distinct patches have been interned so far.
func (t *Table) Len() int {
	return len(t.list)
}
