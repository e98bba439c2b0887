// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gar

import (
	"github.com/curioloop/lqr/memory"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Knot is the data of one stage of an LQ problem.
//
// All blocks live in one allocation, laid out in the order
// Q S R q r | A B E f | C D d | Gth Gx Gu Gv γ with aligned offsets.
// A knot is either fully allocated for its Dims or empty (after Move,
// MoveFrom as a source, or Release). An empty knot keeps its allocator.
type Knot struct {
	dims  Dims
	alloc memory.Allocator
	data  []float64
	offs  [numBlocks]int
}

// NewKnot allocates a knot with Nx2 = nx and no parameterization.
// A nil allocator selects memory.Default.
func NewKnot(nx, nu, nc int, alloc memory.Allocator) *Knot {
	return NewKnotDims(Dims{Nx: nx, Nu: nu, Nc: nc, Nx2: nx}, alloc)
}

// NewKnotNext allocates a knot whose next stage has nx2 states, with no parameterization.
func NewKnotNext(nx, nu, nc, nx2 int, alloc memory.Allocator) *Knot {
	return NewKnotDims(Dims{Nx: nx, Nu: nu, Nc: nc, Nx2: nx2}, alloc)
}

// NewKnotDims allocates a zeroed knot of the given dimensions.
func NewKnotDims(d Dims, alloc memory.Allocator) *Knot {
	d.validate()
	k := &Knot{alloc: memory.OrDefault(alloc)}
	k.allocate(d)
	return k
}

// allocate replaces the storage with a fresh zeroed allocation for d.
func (k *Knot) allocate(d Dims) {
	offs, size := d.layout()
	data := k.alloc.Allocate(size)
	k.release()
	k.dims, k.offs, k.data = d, offs, data
}

func (k *Knot) release() {
	if k.data != nil {
		k.alloc.Deallocate(k.data)
	}
	k.dims, k.offs, k.data = Dims{}, [numBlocks]int{}, nil
}

func (k *Knot) segment(b block) []float64 {
	r, c := k.dims.shape(b)
	return memory.Segment(k.data, k.offs[b], r*c)
}

// Dims returns the dimensions of the knot.
func (k *Knot) Dims() Dims { return k.dims }

// Allocator returns the allocator backing the knot.
func (k *Knot) Allocator() memory.Allocator { return k.alloc }

// IsEmpty reports whether the knot owns no storage and has zero dimensions.
func (k *Knot) IsEmpty() bool { return k.data == nil && k.dims == Dims{} }

// Clone returns a deep copy backed by alloc. A nil allocator selects
// memory.Default, not the allocator of k.
func (k *Knot) Clone(alloc memory.Allocator) *Knot {
	c := &Knot{alloc: memory.OrDefault(alloc)}
	c.allocate(k.dims)
	copy(c.data, k.data)
	return c
}

// Move transfers the allocator and the storage of k to a new knot in O(1).
// k is left empty and only fit for CopyFrom, MoveFrom or being dropped.
func (k *Knot) Move() *Knot {
	m := &Knot{dims: k.dims, alloc: k.alloc, data: k.data, offs: k.offs}
	k.dims, k.offs, k.data = Dims{}, [numBlocks]int{}, nil
	return m
}

// CopyFrom makes k a copy of other in shape and values. The allocator of k is
// kept; storage is reallocated from it only when the dimensions differ.
func (k *Knot) CopyFrom(other *Knot) {
	if k == other {
		return
	}
	if k.dims != other.dims || k.data == nil {
		k.allocate(other.dims)
	}
	copy(k.data, other.data)
}

// Assign copies shapes and values from a knot that shares the allocator of k.
func (k *Knot) Assign(other *Knot) {
	if debug && k.alloc != other.alloc {
		panic("assign between knots of different allocators")
	}
	k.CopyFrom(other)
}

// MoveFrom releases the storage of k, then adopts the allocator and the
// storage of other. other is left empty.
func (k *Knot) MoveFrom(other *Knot) {
	if k == other {
		return
	}
	k.release()
	k.dims, k.alloc, k.data, k.offs = other.dims, other.alloc, other.data, other.offs
	other.dims, other.offs, other.data = Dims{}, [numBlocks]int{}, nil
}

// Release hands the storage back to the allocator. The knot becomes empty.
func (k *Knot) Release() { k.release() }

// AddParameterization grows the parameter blocks to nth.
//
// The whole allocation is rebuilt so the blocks stay contiguous: Q through d
// are copied as they are, existing parameter blocks land in the top-left
// corner of the new ones and the rest is zero. Views taken before the call
// are invalidated. Shrinking panics.
func (k *Knot) AddParameterization(nth int) *Knot {
	if nth < k.dims.Nth {
		panic("parameterization can not shrink")
	}
	if nth == k.dims.Nth && k.data != nil {
		return k
	}

	nd := k.dims
	nd.Nth = nth
	offs, size := nd.layout()
	data := k.alloc.Allocate(size)

	for b := range numBlocks {
		src := k.segment(b)
		if len(src) == 0 {
			continue
		}
		r0, c0 := k.dims.shape(b)
		r1, c1 := nd.shape(b)
		dst := memory.Segment(data, offs[b], r1*c1)
		if c0 == c1 {
			copy(dst, src)
			continue
		}
		for i := 0; i < r0; i++ {
			copy(dst[i*c1:i*c1+c0], src[i*c0:(i+1)*c0])
		}
	}

	zap.L().Debug("knot reallocated for parameterization",
		zap.Int("nth_from", k.dims.Nth),
		zap.Int("nth_to", nth),
		zap.Int("elements", size))

	k.release()
	k.dims, k.offs, k.data = nd, offs, data
	return k
}

// IsApprox reports whether every block of k is element-wise within prec of
// the matching block of other, absolutely or relatively. Knots of different
// dimensions are never approximately equal.
func (k *Knot) IsApprox(other *Knot, prec float64) bool {
	if k.dims != other.dims {
		return false
	}
	for b := range numBlocks {
		if !floats.EqualApprox(k.segment(b), other.segment(b), prec) {
			return false
		}
	}
	return true
}

// Equal is IsApprox with Epsilon.
func (k *Knot) Equal(other *Knot) bool { return k.IsApprox(other, Epsilon) }

// KnotsSameDim reports whether lhs and rhs have the same dimensions,
// regardless of their values.
func KnotsSameDim(lhs, rhs *Knot) bool { return lhs.dims == rhs.dims }
