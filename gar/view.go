// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gar

import (
	"github.com/curioloop/lqr/memory"
	"gonum.org/v1/gonum/mat"
)

// View aliases the blocks of a knot. Writing through a view writes the knot.
//
// A view is only valid while its knot keeps the same storage: AddParameterization,
// Move, MoveFrom, Release, and CopyFrom from a knot of other dimensions all
// invalidate it. Take a view, use it within the call, drop it.
type View struct {
	Dims

	Q, S, R    *mat.Dense
	QVec, RVec *mat.VecDense

	A, B, E *mat.Dense
	FVec    *mat.VecDense

	C, D *mat.Dense
	DVec *mat.VecDense

	Gth, Gx, Gu, Gv *mat.Dense
	Gamma           *mat.VecDense
}

// ConstView is the read-only counterpart of View. Its blocks do not expose
// any mutating method and can not be asserted back to mutable types.
type ConstView struct {
	Dims

	Q, S, R    mat.Matrix
	QVec, RVec mat.Vector

	A, B, E mat.Matrix
	FVec    mat.Vector

	C, D mat.Matrix
	DVec mat.Vector

	Gth, Gx, Gu, Gv mat.Matrix
	Gamma           mat.Vector
}

func (k *Knot) dense(b block) *mat.Dense {
	r, c := k.dims.shape(b)
	return memory.DenseOf(k.segment(b), r, c)
}

func (k *Knot) vector(b block) *mat.VecDense {
	return memory.VecOf(k.segment(b))
}

// View returns mutable aliases of every block of k.
func (k *Knot) View() View {
	return View{
		Dims: k.dims,

		Q:    k.dense(blkQ),
		S:    k.dense(blkS),
		R:    k.dense(blkR),
		QVec: k.vector(blkQVec),
		RVec: k.vector(blkRVec),

		A:    k.dense(blkA),
		B:    k.dense(blkB),
		E:    k.dense(blkE),
		FVec: k.vector(blkFVec),

		C:    k.dense(blkC),
		D:    k.dense(blkD),
		DVec: k.vector(blkDVec),

		Gth:   k.dense(blkGth),
		Gx:    k.dense(blkGx),
		Gu:    k.dense(blkGu),
		Gv:    k.dense(blkGv),
		Gamma: k.vector(blkGamma),
	}
}

// ConstView returns read-only aliases of every block of k.
func (k *Knot) ConstView() ConstView { return k.View().Const() }

// Const narrows v to its read-only form.
func (v View) Const() ConstView {
	ro, rov := memory.ReadOnly, memory.ReadOnlyVec
	return ConstView{
		Dims: v.Dims,

		Q:    ro(v.Q),
		S:    ro(v.S),
		R:    ro(v.R),
		QVec: rov(v.QVec),
		RVec: rov(v.RVec),

		A:    ro(v.A),
		B:    ro(v.B),
		E:    ro(v.E),
		FVec: rov(v.FVec),

		C:    ro(v.C),
		D:    ro(v.D),
		DVec: rov(v.DVec),

		Gth:   ro(v.Gth),
		Gx:    ro(v.Gx),
		Gu:    ro(v.Gu),
		Gv:    ro(v.Gv),
		Gamma: rov(v.Gamma),
	}
}
