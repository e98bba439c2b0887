// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gar holds the data of constrained, time-varying linear-quadratic
// problems: one Knot per stage and a Problem for the whole horizon.
//
// A knot corresponds to the stage cost
//
//	½ [x;u]ᵀ [Q S; Sᵀ R] [x;u] + qᵀx + rᵀu
//
// subject to
//
//	E x′ + A x + B u + f = 0,   C x + D u + d = 0.
//
// Every numeric block of a knot is carved from a single allocation obtained
// from the knot's memory.Allocator. Solvers access the numbers through View
// and ConstView, which alias that allocation without copying.
package gar

import (
	"github.com/curioloop/lqr/memory"
)

// Epsilon is the machine precision of float64 and the default tolerance
// of the approximate comparisons.
const Epsilon = 0x1p-52

// alignment of every block offset inside a knot allocation, in elements.
const alignment = 8

// Dims are the dimensions of a knot.
//   - Nx : state dimension at this stage
//   - Nu : control dimension at this stage
//   - Nc : number of local equality constraints
//   - Nx2: state dimension at the next stage
//   - Nth: dimension of the parameter θ, zero when unparameterized
type Dims struct {
	Nx, Nu, Nc, Nx2, Nth int
}

func (d Dims) validate() {
	if d.Nx < 0 || d.Nu < 0 || d.Nc < 0 || d.Nx2 < 0 || d.Nth < 0 {
		panic("negative knot dimension")
	}
}

type block int

const (
	blkQ block = iota
	blkS
	blkR
	blkQVec
	blkRVec
	blkA
	blkB
	blkE
	blkFVec
	blkC
	blkD
	blkDVec
	blkGth
	blkGx
	blkGu
	blkGv
	blkGamma
	numBlocks
)

// shape returns the rows and columns of block b; vectors have one column.
func (d Dims) shape(b block) (r, c int) {
	switch b {
	case blkQ:
		return d.Nx, d.Nx
	case blkS:
		return d.Nx, d.Nu
	case blkR:
		return d.Nu, d.Nu
	case blkQVec:
		return d.Nx, 1
	case blkRVec:
		return d.Nu, 1
	case blkA:
		return d.Nx2, d.Nx
	case blkB:
		return d.Nx2, d.Nu
	case blkE:
		return d.Nx2, d.Nx2
	case blkFVec:
		return d.Nx2, 1
	case blkC:
		return d.Nc, d.Nx
	case blkD:
		return d.Nc, d.Nu
	case blkDVec:
		return d.Nc, 1
	case blkGth:
		return d.Nth, d.Nth
	case blkGx:
		return d.Nth, d.Nx
	case blkGu:
		return d.Nth, d.Nu
	case blkGv:
		return d.Nth, d.Nth
	case blkGamma:
		return d.Nth, 1
	}
	panic("unknown knot block")
}

// layout returns the offset of every block and the total allocation size.
func (d Dims) layout() (offs [numBlocks]int, size int) {
	l := memory.NewLayout(alignment)
	for b := range numBlocks {
		r, c := d.shape(b)
		offs[b] = l.Reserve(r * c)
	}
	return offs, l.Size()
}
