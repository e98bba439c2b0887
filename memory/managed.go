// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// buffer is the storage shared by Matrix and Vector. A moved-from buffer
// keeps its allocator handle but owns no storage.
type buffer struct {
	data  []float64
	alloc Allocator
}

// reserve makes the buffer hold n zeroed elements from its own allocator.
// Storage is kept when the size already matches.
func (b *buffer) reserve(n int) {
	if len(b.data) == n {
		return
	}
	b.release()
	b.data = b.alloc.Allocate(n)
}

func (b *buffer) release() {
	if b.data != nil {
		b.alloc.Deallocate(b.data)
		b.data = nil
	}
}

// Matrix is a row-major dense matrix whose storage comes from an Allocator.
type Matrix struct {
	buffer
	rows, cols int
}

// NewMatrix allocates a zeroed rows×cols matrix. A nil allocator selects Default.
func NewMatrix(rows, cols int, alloc Allocator) *Matrix {
	if rows < 0 || cols < 0 {
		panic("negative matrix dimension")
	}
	m := &Matrix{buffer: buffer{alloc: OrDefault(alloc)}}
	m.Resize(rows, cols)
	return m
}

// Allocator returns the allocator backing the matrix.
func (m *Matrix) Allocator() Allocator { return m.alloc }

// Dims returns the shape.
func (m *Matrix) Dims() (r, c int) { return m.rows, m.cols }

// Raw returns the backing slice in row-major order.
func (m *Matrix) Raw() []float64 { return m.data }

// Resize changes the shape. Contents are zeroed when the element count changes.
func (m *Matrix) Resize(rows, cols int) {
	if rows < 0 || cols < 0 {
		panic("negative matrix dimension")
	}
	m.reserve(rows * cols)
	m.rows, m.cols = rows, cols
}

// Map returns a mutable alias of the storage.
func (m *Matrix) Map() *mat.Dense { return DenseOf(m.data, m.rows, m.cols) }

// ConstMap returns a read-only alias of the storage.
func (m *Matrix) ConstMap() mat.Matrix { return ReadOnly(m.Map()) }

// CopyFrom copies the shape and values of src while keeping the receiver's allocator.
func (m *Matrix) CopyFrom(src *Matrix) {
	if m == src {
		return
	}
	m.Resize(src.rows, src.cols)
	copy(m.data, src.data)
}

// Clone returns a deep copy backed by alloc (Default when nil).
func (m *Matrix) Clone(alloc Allocator) *Matrix {
	c := NewMatrix(m.rows, m.cols, alloc)
	copy(c.data, m.data)
	return c
}

// Move transfers storage and allocator to a new matrix, leaving m empty.
func (m *Matrix) Move() *Matrix {
	c := &Matrix{buffer: m.buffer, rows: m.rows, cols: m.cols}
	m.data, m.rows, m.cols = nil, 0, 0
	return c
}

// MoveFrom releases the receiver's storage and adopts src's storage and allocator.
// src is left empty.
func (m *Matrix) MoveFrom(src *Matrix) {
	if m == src {
		return
	}
	m.release()
	m.buffer, m.rows, m.cols = src.buffer, src.rows, src.cols
	src.data, src.rows, src.cols = nil, 0, 0
}

// Release hands the storage back to the allocator. The matrix becomes empty.
func (m *Matrix) Release() {
	m.release()
	m.rows, m.cols = 0, 0
}

// IsApprox reports whether ‖m − o‖ ≤ prec·min(‖m‖, ‖o‖) in the Frobenius norm.
// Differently shaped matrices are never approximately equal.
func (m *Matrix) IsApprox(o *Matrix, prec float64) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	return approxEqual(m.data, o.data, prec)
}

// Vector is a dense vector whose storage comes from an Allocator.
type Vector struct {
	buffer
}

// NewVector allocates a zeroed vector of length n. A nil allocator selects Default.
func NewVector(n int, alloc Allocator) *Vector {
	if n < 0 {
		panic("negative vector length")
	}
	v := &Vector{buffer{alloc: OrDefault(alloc)}}
	v.reserve(n)
	return v
}

// Allocator returns the allocator backing the vector.
func (v *Vector) Allocator() Allocator { return v.alloc }

// Len returns the number of elements.
func (v *Vector) Len() int { return len(v.data) }

// Raw returns the backing slice.
func (v *Vector) Raw() []float64 { return v.data }

// Resize changes the length. Contents are zeroed when the length changes.
func (v *Vector) Resize(n int) {
	if n < 0 {
		panic("negative vector length")
	}
	v.reserve(n)
}

// Map returns a mutable alias of the storage.
func (v *Vector) Map() *mat.VecDense { return VecOf(v.data) }

// ConstMap returns a read-only alias of the storage.
func (v *Vector) ConstMap() mat.Vector { return ReadOnlyVec(v.Map()) }

// CopyFrom copies the length and values of src while keeping the receiver's allocator.
func (v *Vector) CopyFrom(src *Vector) {
	if v == src {
		return
	}
	v.reserve(len(src.data))
	copy(v.data, src.data)
}

// Clone returns a deep copy backed by alloc (Default when nil).
func (v *Vector) Clone(alloc Allocator) *Vector {
	c := NewVector(len(v.data), alloc)
	copy(c.data, v.data)
	return c
}

// Move transfers storage and allocator to a new vector, leaving v empty.
func (v *Vector) Move() *Vector {
	c := &Vector{v.buffer}
	v.data = nil
	return c
}

// MoveFrom releases the receiver's storage and adopts src's storage and allocator.
// src is left empty.
func (v *Vector) MoveFrom(src *Vector) {
	if v == src {
		return
	}
	v.release()
	v.buffer = src.buffer
	src.data = nil
}

// Release hands the storage back to the allocator. The vector becomes empty.
func (v *Vector) Release() { v.release() }

// IsApprox reports whether ‖v − o‖ ≤ prec·min(‖v‖, ‖o‖).
func (v *Vector) IsApprox(o *Vector, prec float64) bool {
	if len(v.data) != len(o.data) {
		return false
	}
	return approxEqual(v.data, o.data, prec)
}

func approxEqual(a, b []float64, prec float64) bool {
	d := floats.Distance(a, b, 2)
	return d <= prec*math.Min(floats.Norm(a, 2), floats.Norm(b, 2))
}
