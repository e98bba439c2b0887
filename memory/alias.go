// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memory

import (
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// DenseOf returns a rows×cols matrix aliasing data in row-major order.
//
// Unlike mat.NewDense, zero-sized shapes are accepted and keep their exact
// dimensions: a 4×0 alias reports Dims() == (4, 0).
func DenseOf(data []float64, rows, cols int) *mat.Dense {
	if len(data) < rows*cols {
		panic("alias exceeds backing storage")
	}
	var m mat.Dense
	m.SetRawMatrix(blas64.General{
		Rows:   rows,
		Cols:   cols,
		Stride: max(cols, 1),
		Data:   data[:rows*cols],
	})
	return &m
}

// VecOf returns a vector aliasing data, including the empty vector.
func VecOf(data []float64) *mat.VecDense {
	var v mat.VecDense
	v.SetRawVector(blas64.Vector{
		N:    len(data),
		Inc:  1,
		Data: data,
	})
	return &v
}

// ReadOnly hides the mutating methods of m. The result cannot be asserted
// back to *mat.Dense.
func ReadOnly(m *mat.Dense) mat.Matrix { return constMatrix{m} }

// ReadOnlyVec hides the mutating methods of v.
func ReadOnlyVec(v *mat.VecDense) mat.Vector { return constVector{v} }

type constMatrix struct{ m *mat.Dense }

func (c constMatrix) Dims() (r, col int)  { return c.m.Dims() }
func (c constMatrix) At(i, j int) float64 { return c.m.At(i, j) }
func (c constMatrix) T() mat.Matrix       { return mat.Transpose{Matrix: c} }

type constVector struct{ v *mat.VecDense }

func (c constVector) Dims() (r, col int)  { return c.v.Dims() }
func (c constVector) At(i, j int) float64 { return c.v.At(i, j) }
func (c constVector) T() mat.Matrix       { return mat.TransposeVec{Vector: c} }
func (c constVector) Len() int            { return c.v.Len() }
func (c constVector) AtVec(i int) float64 { return c.v.AtVec(i) }
