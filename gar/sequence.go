// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gar

import (
	"iter"

	"github.com/curioloop/lqr/memory"
)

// KnotVector is an ordered sequence of knots that all share the allocator
// of the sequence. Knots entering the sequence are constructed, copied or
// moved so that this holds.
type KnotVector struct {
	alloc memory.Allocator
	knots []*Knot
}

// NewKnotVector returns an empty sequence. A nil allocator selects memory.Default.
func NewKnotVector(alloc memory.Allocator) *KnotVector {
	return &KnotVector{alloc: memory.OrDefault(alloc)}
}

// Allocator returns the allocator shared by the sequence and its knots.
func (v *KnotVector) Allocator() memory.Allocator { return v.alloc }

// Len returns the number of knots.
func (v *KnotVector) Len() int { return len(v.knots) }

// At returns the i-th knot.
func (v *KnotVector) At(i int) *Knot { return v.knots[i] }

// All iterates over the knots in order.
func (v *KnotVector) All() iter.Seq2[int, *Knot] {
	return func(yield func(int, *Knot) bool) {
		for i, k := range v.knots {
			if !yield(i, k) {
				return
			}
		}
	}
}

// Emplace appends a zeroed knot of dimensions d and returns it.
func (v *KnotVector) Emplace(d Dims) *Knot {
	k := NewKnotDims(d, v.alloc)
	v.knots = append(v.knots, k)
	return k
}

// PushBack appends a copy of k made with the sequence allocator.
func (v *KnotVector) PushBack(k *Knot) *Knot {
	c := k.Clone(v.alloc)
	v.knots = append(v.knots, c)
	return c
}

// PushBackMove appends k by moving it when it already uses the sequence
// allocator, leaving k empty. Otherwise k is copied and left untouched.
func (v *KnotVector) PushBackMove(k *Knot) *Knot {
	if k.alloc != v.alloc {
		return v.PushBack(k)
	}
	m := k.Move()
	v.knots = append(v.knots, m)
	return m
}

// Set copy-assigns k into the i-th slot, which keeps the sequence allocator.
func (v *KnotVector) Set(i int, k *Knot) { v.knots[i].CopyFrom(k) }

// Clone returns a deep copy whose knots all use alloc (memory.Default when nil).
func (v *KnotVector) Clone(alloc memory.Allocator) *KnotVector {
	c := NewKnotVector(alloc)
	c.knots = make([]*Knot, len(v.knots))
	for i, k := range v.knots {
		c.knots[i] = k.Clone(c.alloc)
	}
	return c
}

// Move transfers the knots to a new sequence with the same allocator in O(1).
// v is left empty.
func (v *KnotVector) Move() *KnotVector {
	m := &KnotVector{alloc: v.alloc, knots: v.knots}
	v.knots = nil
	return m
}

// Release releases every knot and empties the sequence.
func (v *KnotVector) Release() {
	for _, k := range v.knots {
		k.Release()
	}
	v.knots = nil
}

// sameAllocator reports whether every knot uses the sequence allocator.
func (v *KnotVector) sameAllocator() bool {
	for _, k := range v.knots {
		if k.alloc != v.alloc {
			return false
		}
	}
	return true
}
