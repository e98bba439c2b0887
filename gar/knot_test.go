// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gar

import (
	"math/rand/v2"
	"testing"

	"github.com/curioloop/lqr/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"
)

// randomFill writes normal samples into every block of k.
func randomFill(k *Knot, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, 17))
	for b := range numBlocks {
		s := k.segment(b)
		for i := range s {
			s[i] = rng.NormFloat64()
		}
	}
}

func newArena(t *testing.T) *memory.Arena {
	t.Helper()
	a, err := (&memory.ArenaSpec{ChunkSize: 1024}).New()
	require.NoError(t, err)
	return a
}

func assertDims(t *testing.T, m mat.Matrix, r, c int, name string) {
	t.Helper()
	mr, mc := m.Dims()
	assert.Equal(t, [2]int{r, c}, [2]int{mr, mc}, name)
}

func TestKnotShapes(t *testing.T) {
	tests := []Dims{
		{Nx: 4, Nu: 2, Nc: 0, Nx2: 4, Nth: 0},
		{Nx: 3, Nu: 1, Nc: 2, Nx2: 5, Nth: 2},
		{Nx: 2, Nu: 0, Nc: 1, Nx2: 2, Nth: 3},
		{Nx: 0, Nu: 0, Nc: 0, Nx2: 0, Nth: 0},
		{Nx: 6, Nu: 3, Nc: 1, Nx2: 6, Nth: 1},
	}
	for _, d := range tests {
		k := NewKnotDims(d, newArena(t))
		v := k.ConstView()
		require.Equal(t, d, v.Dims)

		assertDims(t, v.Q, d.Nx, d.Nx, "Q")
		assertDims(t, v.S, d.Nx, d.Nu, "S")
		assertDims(t, v.R, d.Nu, d.Nu, "R")
		assert.Equal(t, d.Nx, v.QVec.Len(), "q")
		assert.Equal(t, d.Nu, v.RVec.Len(), "r")

		assertDims(t, v.A, d.Nx2, d.Nx, "A")
		assertDims(t, v.B, d.Nx2, d.Nu, "B")
		assertDims(t, v.E, d.Nx2, d.Nx2, "E")
		assert.Equal(t, d.Nx2, v.FVec.Len(), "f")

		assertDims(t, v.C, d.Nc, d.Nx, "C")
		assertDims(t, v.D, d.Nc, d.Nu, "D")
		assert.Equal(t, d.Nc, v.DVec.Len(), "d")

		assertDims(t, v.Gth, d.Nth, d.Nth, "Gth")
		assertDims(t, v.Gx, d.Nth, d.Nx, "Gx")
		assertDims(t, v.Gu, d.Nth, d.Nu, "Gu")
		assertDims(t, v.Gv, d.Nth, d.Nth, "Gv")
		assert.Equal(t, d.Nth, v.Gamma.Len(), "gamma")
	}
}

func TestKnotConstructors(t *testing.T) {
	k := NewKnot(3, 2, 1, nil)
	assert.Equal(t, Dims{Nx: 3, Nu: 2, Nc: 1, Nx2: 3}, k.Dims())
	assert.Equal(t, memory.Default(), k.Allocator())

	k = NewKnotNext(3, 2, 1, 5, nil)
	assert.Equal(t, Dims{Nx: 3, Nu: 2, Nc: 1, Nx2: 5}, k.Dims())

	assert.Panics(t, func() { NewKnot(-1, 0, 0, nil) })
	assert.Panics(t, func() { NewKnotDims(Dims{Nth: -2}, nil) })
}

func TestKnotViewAliases(t *testing.T) {
	a := newArena(t)
	k := NewKnot(3, 2, 1, a)
	other := NewKnot(3, 2, 1, a)

	v := k.View()
	v.Q.Set(0, 1, 2.5)
	v.QVec.SetVec(2, -1)
	v.DVec.SetVec(0, 4)

	cv := k.ConstView()
	assert.Equal(t, 2.5, cv.Q.At(0, 1))
	assert.Equal(t, -1., cv.QVec.AtVec(2))
	assert.Equal(t, 4., cv.DVec.AtVec(0))

	// Writes stay inside their block and their knot.
	sum := 0.
	for _, x := range k.data {
		sum += x
	}
	assert.Equal(t, 5.5, sum)
	for _, x := range other.data {
		assert.Zero(t, x)
	}
}

func TestConstViewReadOnly(t *testing.T) {
	k := NewKnotDims(Dims{Nx: 2, Nu: 1, Nc: 1, Nx2: 2, Nth: 1}, nil)
	cv := k.ConstView()

	type setter interface{ Set(i, j int, v float64) }
	type vecSetter interface{ SetVec(i int, v float64) }

	for _, m := range []mat.Matrix{cv.Q, cv.S, cv.R, cv.A, cv.B, cv.E, cv.C, cv.D, cv.Gth, cv.Gx, cv.Gu, cv.Gv} {
		_, ok := m.(*mat.Dense)
		assert.False(t, ok)
		_, ok = m.(setter)
		assert.False(t, ok)
	}
	for _, v := range []mat.Vector{cv.QVec, cv.RVec, cv.FVec, cv.DVec, cv.Gamma} {
		_, ok := v.(*mat.VecDense)
		assert.False(t, ok)
		_, ok = v.(vecSetter)
		assert.False(t, ok)
	}

	// The read-only view still observes later writes.
	k.View().Gamma.SetVec(0, 3)
	assert.Equal(t, 3., cv.Gamma.AtVec(0))
}

func TestKnotMove(t *testing.T) {
	a := newArena(t)
	k := NewKnotDims(Dims{Nx: 4, Nu: 2, Nc: 1, Nx2: 4, Nth: 2}, a)
	randomFill(k, 1)
	saved := k.Clone(nil)

	m := k.Move()
	assert.True(t, k.IsEmpty())
	assert.Equal(t, Dims{}, k.Dims())
	assert.Nil(t, k.data)
	assert.Equal(t, memory.Allocator(a), m.Allocator())
	assert.True(t, m.IsApprox(saved, 0))

	dst := NewKnot(1, 1, 1, nil)
	dst.MoveFrom(m)
	assert.True(t, m.IsEmpty())
	assert.Equal(t, memory.Allocator(a), dst.Allocator())
	assert.True(t, dst.Equal(saved))

	dst.MoveFrom(dst)
	assert.True(t, dst.Equal(saved))

	// A moved-from knot can be refilled.
	k.CopyFrom(saved)
	assert.True(t, k.Equal(saved))
	assert.Equal(t, memory.Allocator(a), k.Allocator())
}

func TestKnotClone(t *testing.T) {
	a := newArena(t)
	k := NewKnotDims(Dims{Nx: 3, Nu: 2, Nc: 2, Nx2: 4, Nth: 1}, a)
	randomFill(k, 2)

	c := k.Clone(nil)
	assert.Equal(t, memory.Default(), c.Allocator())
	assert.True(t, c.Equal(k))

	c.View().Q.Set(0, 0, 100)
	assert.False(t, c.Equal(k))

	b := newArena(t)
	assert.Equal(t, memory.Allocator(b), k.Clone(b).Allocator())
}

func TestKnotCopyFrom(t *testing.T) {
	a := newArena(t)
	dst := NewKnotNext(4, 2, 0, 4, a)
	src := NewKnotNext(6, 3, 1, 6, nil)
	randomFill(src, 3)

	dst.CopyFrom(src)
	assert.Equal(t, Dims{Nx: 6, Nu: 3, Nc: 1, Nx2: 6}, dst.Dims())
	assert.True(t, dst.IsApprox(src, Epsilon))
	assert.Equal(t, memory.Allocator(a), dst.Allocator())

	// Same dimensions reuse the storage.
	before := &dst.data[0]
	randomFill(src, 4)
	dst.CopyFrom(src)
	assert.Same(t, before, &dst.data[0])
	assert.True(t, dst.Equal(src))

	dst.CopyFrom(dst)
	assert.True(t, dst.Equal(src))
}

func TestKnotAssign(t *testing.T) {
	a := newArena(t)
	dst := NewKnot(2, 1, 0, a)
	src := NewKnotDims(Dims{Nx: 3, Nu: 1, Nc: 1, Nx2: 3, Nth: 2}, a)
	randomFill(src, 5)

	dst.Assign(src)
	assert.True(t, dst.Equal(src))
	assert.True(t, KnotsSameDim(dst, src))
	assert.Equal(t, memory.Allocator(a), dst.Allocator())
}

func TestAddParameterization(t *testing.T) {
	k := NewKnotDims(Dims{Nx: 4, Nu: 2, Nc: 1, Nx2: 3}, newArena(t))
	randomFill(k, 6)
	saved := k.Clone(nil)

	assert.Same(t, k, k.AddParameterization(3))
	assert.Equal(t, 3, k.Dims().Nth)

	v, s := k.ConstView(), saved.ConstView()
	for i, pair := range [][2]mat.Matrix{
		{v.Q, s.Q}, {v.S, s.S}, {v.R, s.R}, {v.QVec, s.QVec}, {v.RVec, s.RVec},
		{v.A, s.A}, {v.B, s.B}, {v.E, s.E}, {v.FVec, s.FVec},
		{v.C, s.C}, {v.D, s.D}, {v.DVec, s.DVec},
	} {
		assert.True(t, mat.Equal(pair[0], pair[1]), "block %d", i)
	}

	assertDims(t, v.Gth, 3, 3, "Gth")
	assertDims(t, v.Gx, 3, 4, "Gx")
	assertDims(t, v.Gu, 3, 2, "Gu")
	assertDims(t, v.Gv, 3, 3, "Gv")
	assert.Equal(t, 3, v.Gamma.Len())
	assert.Zero(t, mat.Sum(v.Gth)+mat.Sum(v.Gx)+mat.Sum(v.Gu)+mat.Sum(v.Gv)+mat.Sum(v.Gamma))

	// Growing an existing parameterization keeps the old entries in the corner.
	w := k.View()
	w.Gth.Set(2, 1, 7)
	w.Gx.Set(1, 3, -2)
	w.Gamma.SetVec(0, 5)
	k.AddParameterization(5)
	v = k.ConstView()
	assert.Equal(t, 7., v.Gth.At(2, 1))
	assert.Equal(t, -2., v.Gx.At(1, 3))
	assert.Equal(t, 5., v.Gamma.AtVec(0))
	assert.Zero(t, v.Gth.At(4, 4))
	assert.True(t, mat.Equal(v.Q, s.Q))

	assert.Same(t, k, k.AddParameterization(5))
	assert.Panics(t, func() { k.AddParameterization(2) })
}

func TestAddParameterizationLogs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	undo := zap.ReplaceGlobals(zap.New(core))
	defer undo()

	NewKnot(2, 1, 0, nil).AddParameterization(2)

	entries := logs.FilterMessage("knot reallocated for parameterization").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 2, entries[0].ContextMap()["nth_to"])
}

func TestKnotIsApprox(t *testing.T) {
	d := Dims{Nx: 4, Nu: 3, Nc: 2, Nx2: 4, Nth: 2}
	k := NewKnotDims(d, nil)
	randomFill(k, 7)

	for _, prec := range []float64{0, Epsilon, 1e-6, 1} {
		assert.True(t, k.IsApprox(k, prec))
	}

	l := NewKnotDims(d, nil)
	randomFill(l, 8)
	assert.True(t, KnotsSameDim(k, l))
	assert.False(t, k.IsApprox(l, Epsilon))
	assert.False(t, k.Equal(l))

	l.CopyFrom(k)
	l.View().R.Set(1, 1, l.View().R.At(1, 1)*(1+1e-10))
	assert.False(t, k.Equal(l))
	assert.True(t, k.IsApprox(l, 1e-8))

	m := NewKnotDims(Dims{Nx: 4, Nu: 3, Nc: 2, Nx2: 5, Nth: 2}, nil)
	assert.False(t, KnotsSameDim(k, m))
	assert.False(t, k.IsApprox(m, 1))
}
