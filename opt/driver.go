// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
)

// Result reports the outcome of one driver run
type Result struct {
	X          []float64 // best design vector found
	F          float64   // objective at X
	G          []float64 // constraints at X
	Converged  bool      // constraints satisfied within the driver tolerance
	Iterations int       // optimizer major iterations, all rounds
	FuncEvals  int       // objective evaluations, all rounds
}

// Driver is the external-optimizer contract: minimize the problem
// starting from x0, honoring the context deadline. Implementations must
// be able to call Eval repeatedly for the same input.
type Driver interface {
	Solve(ctx context.Context, p *Problem, x0 []float64) (*Result, error)
}

// GradMode selects how a strategy supplies gradients to the driver
type GradMode int

const (
	GradNone     GradMode = iota // none; drivers fall back to a gradient-free method
	GradFd                       // finite differences through the whole evaluation
	GradAnalytic                 // assembled from the disciplines' Jacobians
)

// fdGrad approximates the problem gradients by forward differences with
// a step relative to the component magnitude
func fdGrad(fcn EvalFn, x []float64, h float64) (df []float64, dg [][]float64, err error) {
	base, err := fcn(x)
	if err != nil {
		return nil, nil, err
	}
	n, m := len(x), len(base.G)
	df = make([]float64, n)
	dg = make([][]float64, m)
	for k := range dg {
		dg[k] = make([]float64, n)
	}
	xp := make([]float64, n)
	copy(xp, x)
	for j := 0; j < n; j++ {
		step := h * (1 + math.Abs(x[j]))
		xp[j] = x[j] + step
		ev, err := fcn(xp)
		if err != nil {
			return nil, nil, err
		}
		df[j] = (ev.F - base.F) / step
		for k := 0; k < m; k++ {
			dg[k][j] = (ev.G[k] - base.G[k]) / step
		}
		xp[j] = x[j]
	}
	return
}

// gradRows flattens named Jacobian blocks into one gradient row per
// output component, with columns following the ins layout
func gradRows(jac disc.Jacobian, outs, ins core.VarList) (rows [][]float64) {
	n := ins.TotalSize()
	for _, out := range outs {
		for i := 0; i < out.Size; i++ {
			row := make([]float64, 0, n)
			for _, in := range ins {
				block := jac.Get(out.Name, in.Name)
				for j := 0; j < in.Size; j++ {
					if block != nil {
						row = append(row, block.At(i, j))
					} else {
						row = append(row, 0)
					}
				}
			}
			rows = append(rows, row)
		}
	}
	return
}

// matRows extracts the rows of a dense matrix
func matRows(m *mat.Dense) (rows [][]float64) {
	r, _ := m.Dims()
	rows = make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = mat.Row(nil, i, m)
	}
	return
}
