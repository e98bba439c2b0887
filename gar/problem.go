// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gar

import (
	"github.com/curioloop/lqr/memory"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Problem is a full-horizon LQ problem: the stages and the initial condition
//
//	G₀ x₀ + g₀ = 0
//
// G₀, g₀ and every stage share one allocator. All stages carry the same
// parameter dimension; this is checked whenever a problem is built.
type Problem struct {
	g0m    *memory.Matrix // G₀, nc0 × nx of the first stage
	g0v    *memory.Vector // g₀, nc0
	stages *KnotVector
}

// NewProblem returns an empty problem. A nil allocator selects memory.Default.
func NewProblem(alloc memory.Allocator) *Problem {
	alloc = memory.OrDefault(alloc)
	p := &Problem{
		g0m:    memory.NewMatrix(0, 0, alloc),
		g0v:    memory.NewVector(0, alloc),
		stages: NewKnotVector(alloc),
	}
	p.check()
	return p
}

// NewProblemFrom copies knots under alloc (memory.Default when nil) and
// sizes the initial condition for nc0 constraints. knots is not modified.
func NewProblemFrom(knots *KnotVector, nc0 int, alloc memory.Allocator) *Problem {
	validateStages(knots, nc0)
	return newProblem(knots.Clone(alloc), nc0)
}

// AdoptProblem takes the knots as they are, together with their allocator,
// and sizes the initial condition for nc0 constraints. knots is left empty,
// unless the panic on invalid input fires first.
func AdoptProblem(knots *KnotVector, nc0 int) *Problem {
	validateStages(knots, nc0)
	p := newProblem(knots.Move(), nc0)
	zap.L().Debug("problem adopted knot sequence",
		zap.Int("stages", p.stages.Len()),
		zap.Int("nc0", nc0))
	return p
}

// validateStages panics on a negative nc0 or on stages that disagree on
// the parameter dimension. knots is not modified.
func validateStages(knots *KnotVector, nc0 int) {
	if nc0 < 0 {
		panic("negative initial constraint dimension")
	}
	if knots.Len() == 0 {
		return
	}
	nth := knots.At(0).dims.Nth
	for _, k := range knots.All() {
		if k.dims.Nth != nth {
			panic("stages disagree on parameter dimension")
		}
	}
}

func newProblem(stages *KnotVector, nc0 int) *Problem {
	nx0 := 0
	if stages.Len() > 0 {
		nx0 = stages.At(0).dims.Nx
	}
	alloc := stages.Allocator()
	p := &Problem{
		g0m:    memory.NewMatrix(nc0, nx0, alloc),
		g0v:    memory.NewVector(nc0, alloc),
		stages: stages,
	}
	p.check()
	return p
}

// Clone returns a deep copy of stages, G₀ and g₀ backed by alloc
// (memory.Default when nil).
func (p *Problem) Clone(alloc memory.Allocator) *Problem {
	c := NewProblemFrom(p.stages, p.NC0(), alloc)
	c.g0m.CopyFrom(p.g0m)
	c.g0v.CopyFrom(p.g0v)
	return c
}

// Move transfers stages, G₀ and g₀ with their allocator to a new problem.
// p is left empty.
func (p *Problem) Move() *Problem {
	m := &Problem{
		g0m:    p.g0m.Move(),
		g0v:    p.g0v.Move(),
		stages: p.stages.Move(),
	}
	m.check()
	return m
}

// MoveFrom releases the storage of p and adopts that of other together with
// its allocator. other is left empty.
func (p *Problem) MoveFrom(other *Problem) {
	if p == other {
		return
	}
	p.g0m.MoveFrom(other.g0m)
	p.g0v.MoveFrom(other.g0v)
	p.stages.Release()
	p.stages = other.stages.Move()
	p.check()
}

// Release hands every buffer back to the allocator.
func (p *Problem) Release() {
	p.g0m.Release()
	p.g0v.Release()
	p.stages.Release()
}

// Allocator returns the allocator shared by the problem.
func (p *Problem) Allocator() memory.Allocator { return p.g0m.Allocator() }

// Stages returns the knot sequence.
func (p *Problem) Stages() *KnotVector { return p.stages }

// InitialCondition returns G₀ and g₀.
func (p *Problem) InitialCondition() (*memory.Matrix, *memory.Vector) { return p.g0m, p.g0v }

// Horizon returns the number of transitions, one less than the number of stages.
func (p *Problem) Horizon() int { return p.stages.Len() - 1 }

// NC0 returns the dimension of the initial condition.
func (p *Problem) NC0() int { return p.g0v.Len() }

// IsInitialized reports whether the problem has at least one stage.
func (p *Problem) IsInitialized() bool { return p.stages.Len() > 0 }

// IsParameterized reports whether the stages carry a parameter θ.
func (p *Problem) IsParameterized() bool {
	return p.IsInitialized() && p.stages.At(0).dims.Nth > 0
}

// NTheta returns the parameter dimension. The problem must be initialized.
func (p *Problem) NTheta() int {
	if !p.IsInitialized() {
		panic("parameter dimension of an empty problem")
	}
	return p.stages.At(0).dims.Nth
}

// AddParameterization grows the parameter blocks of every stage to nth.
// It does nothing on an empty problem.
func (p *Problem) AddParameterization(nth int) {
	for _, k := range p.stages.All() {
		k.AddParameterization(nth)
	}
}

// IsApprox reports whether both problems have the same horizon, G₀ and g₀
// are within prec in the Frobenius sense, and every pair of stages satisfies
// Knot.IsApprox.
func (p *Problem) IsApprox(other *Problem, prec float64) bool {
	if p.Horizon() != other.Horizon() ||
		!p.g0m.IsApprox(other.g0m, prec) ||
		!p.g0v.IsApprox(other.g0v, prec) {
		return false
	}
	for i, k := range p.stages.All() {
		if !k.IsApprox(other.stages.At(i), prec) {
			return false
		}
	}
	return true
}

// Equal is IsApprox with Epsilon.
func (p *Problem) Equal(other *Problem) bool { return p.IsApprox(other, Epsilon) }

// Evaluate returns the objective of the trajectory (xs, us):
//
//	Σₜ₌₀ᵀ   ½xₜᵀQxₜ + qᵀxₜ
//	Σₜ₌₀ᵀ⁻¹ ½uₜᵀRuₜ + rᵀuₜ + xₜᵀSuₜ
//
// and, for a parameterized problem,
//
//	Σₜ₌₀ᵀ   ½θᵀGθθ + γᵀθ + θᵀGₓxₜ (+ θᵀGᵤuₜ for t < T)
//
// xs holds T+1 states and us holds T controls. theta is required when the
// problem is parameterized and ignored otherwise. An empty problem evaluates
// to zero. Mismatched lengths panic.
func (p *Problem) Evaluate(xs, us [][]float64, theta []float64) float64 {
	if !p.IsInitialized() {
		return 0
	}

	T := p.Horizon()
	switch {
	case len(xs) != T+1:
		panic("state trajectory length not match horizon")
	case len(us) != T:
		panic("control trajectory length not match horizon")
	}

	param := p.IsParameterized()
	if param && theta == nil {
		panic("parameterized problem requires theta")
	}

	var th *mat.VecDense
	if param {
		th = memory.VecOf(theta)
	}

	ret := 0.
	for t, k := range p.stages.All() {
		v := k.View()
		x := xs[t]
		if len(x) != v.Nx {
			panic("state dimension not match stage")
		}
		xv := memory.VecOf(x)
		ret += 0.5*mat.Inner(xv, v.Q, xv) + floats.Dot(x, k.segment(blkQVec))

		var uv *mat.VecDense
		if t < T {
			u := us[t]
			if len(u) != v.Nu {
				panic("control dimension not match stage")
			}
			uv = memory.VecOf(u)
			ret += 0.5*mat.Inner(uv, v.R, uv) + floats.Dot(u, k.segment(blkRVec))
			ret += mat.Inner(xv, v.S, uv)
		}

		if !param {
			continue
		}
		if len(theta) != v.Nth {
			panic("theta dimension not match stage")
		}
		ret += 0.5*mat.Inner(th, v.Gth, th) + floats.Dot(theta, k.segment(blkGamma))
		ret += mat.Inner(th, v.Gx, xv)
		if uv != nil {
			ret += mat.Inner(th, v.Gu, uv)
		}
	}
	return ret
}

// check panics when G₀, g₀ and the stages do not share one allocator.
// It only runs in builds with the lqrdebug tag.
func (p *Problem) check() {
	if !debug {
		return
	}
	alloc := p.g0m.Allocator()
	if alloc != p.g0v.Allocator() ||
		alloc != p.stages.Allocator() ||
		!p.stages.sameAllocator() {
		panic("problem allocators are inconsistent")
	}
}
