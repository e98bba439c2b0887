// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gar

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Format implements fmt.Formatter. %v and %s print the dimensions; %+v, or
// any verb in a build with the lqrdebug tag, also prints every block.
// Parameter entries are omitted when the knot is unparameterized.
func (k *Knot) Format(f fmt.State, verb rune) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(*gar.Knot)", verb)
		return
	}
	v := k.ConstView()
	fmt.Fprint(f, "Knot {")
	fmt.Fprintf(f, "\n  nx:  %d", v.Nx)
	fmt.Fprintf(f, "\n  nu:  %d", v.Nu)
	fmt.Fprintf(f, "\n  nc:  %d", v.Nc)
	fmt.Fprintf(f, "\n  nx2: %d", v.Nx2)
	if v.Nth > 0 {
		fmt.Fprintf(f, "\n  nth: %d", v.Nth)
	}
	if debug || f.Flag('+') {
		writeBlocks(f, []string{"Q", "S", "R"}, v.Q, v.S, v.R)
		writeBlocks(f, []string{"q", "r"}, v.QVec.T(), v.RVec.T())
		writeBlocks(f, []string{"A", "B", "E", "f"}, v.A, v.B, v.E, v.FVec.T())
		writeBlocks(f, []string{"C", "D", "d"}, v.C, v.D, v.DVec.T())
		if v.Nth > 0 {
			writeBlocks(f, []string{"Gth", "Gx", "Gu", "Gv", "gamma"},
				v.Gth, v.Gx, v.Gu, v.Gv, v.Gamma.T())
		}
	}
	fmt.Fprint(f, "\n}")
}

func writeBlocks(f fmt.State, names []string, blocks ...mat.Matrix) {
	for i, m := range blocks {
		name := names[i]
		if r, c := m.Dims(); r == 0 || c == 0 {
			fmt.Fprintf(f, "\n  %s: [](%d×%d)", name, r, c)
			continue
		}
		pad := strings.Repeat(" ", len(name)+4)
		fmt.Fprintf(f, "\n  %s: %v", name, mat.Formatted(m, mat.Prefix(pad), mat.Squeeze()))
	}
}

// Format implements fmt.Formatter. %+v also prints every stage.
func (p *Problem) Format(f fmt.State, verb rune) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(*gar.Problem)", verb)
		return
	}
	fmt.Fprint(f, "Problem {")
	fmt.Fprintf(f, "\n  horizon: %d", p.Horizon())
	fmt.Fprintf(f, "\n  nc0:     %d", p.NC0())
	if p.IsParameterized() {
		fmt.Fprintf(f, "\n  ntheta:  %d", p.NTheta())
	}
	if debug || f.Flag('+') {
		for i, k := range p.stages.All() {
			fmt.Fprintf(f, "\n  stage %d: %+v", i, k)
		}
	}
	fmt.Fprint(f, "\n}")
}
