// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package opt implements the architecture strategies (MDF, IDF, CO)
// and the driver contract wrapping an external numerical optimizer
package opt

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gomdo/core"
)

// Evaluation holds the objective and constraint values at one design point
type Evaluation struct {
	F float64   // objective value
	G []float64 // constraint values, flattened in the order of Problem.Cons
}

// EvalFn computes objective and constraints for a flattened design vector
type EvalFn func(x []float64) (*Evaluation, error)

// GradFn computes the objective gradient df (length n) and one gradient
// row per flattened constraint component dg (m rows of length n)
type GradFn func(x []float64) (df []float64, dg [][]float64, err error)

// Problem is the optimization problem a Driver minimizes. The Vars list
// fixes the design-vector layout; the Cons list fixes the constraint
// layout and meaning: a constraint variable with Lb == Ub is an equality
// to that value, anything else is the two-sided inequality Lb ≤ g ≤ Ub.
type Problem struct {
	Name     string
	Vars     core.VarList // design-vector layout, with bounds
	Cons     core.VarList // constraint layout
	Maximize bool         // flip the objective sign inside the driver
	Fcn      EvalFn
	Gfcn     GradFn // nil when gradients are unavailable

	histX [][]float64
	histF []float64
	histV []float64
}

// N returns the design-vector length
func (o *Problem) N() int { return o.Vars.TotalSize() }

// M returns the number of flattened constraint components
func (o *Problem) M() int { return o.Cons.TotalSize() }

// HasGrad tells whether a gradient function is available
func (o *Problem) HasGrad() bool { return o.Gfcn != nil }

// Eval evaluates the problem and records the iterate in the history
func (o *Problem) Eval(x []float64) (*Evaluation, error) {
	ev, err := o.Fcn(x)
	if err != nil {
		return nil, err
	}
	c := make([]float64, len(x))
	copy(c, x)
	o.histX = append(o.histX, c)
	o.histF = append(o.histF, ev.F)
	o.histV = append(o.histV, o.Violation(ev.G))
	return ev, nil
}

// Grad computes the gradients at x
func (o *Problem) Grad(x []float64) (df []float64, dg [][]float64, err error) {
	if o.Gfcn == nil {
		return nil, nil, chk.Err("problem %q has no gradient function", o.Name)
	}
	return o.Gfcn(x)
}

// Violation returns the worst constraint violation of a G vector
func (o *Problem) Violation(g []float64) (viol float64) {
	lb, ub := o.Cons.Bounds()
	for k := range g {
		if v := violation(g[k], lb[k], ub[k]); v > viol {
			viol = v
		}
	}
	return
}

// History returns all recorded iterates: design vectors, objective
// values and worst constraint violations, in evaluation order
func (o *Problem) History() (x [][]float64, f, viol []float64) {
	return o.histX, o.histF, o.histV
}

// violation measures how far a value sits outside [lb,ub]; lb == ub
// means an equality to that value
func violation(g, lb, ub float64) float64 {
	if lb == ub {
		return math.Abs(g - lb)
	}
	v := 0.0
	if g > ub {
		v = g - ub
	}
	if lb-g > v {
		v = lb - g
	}
	return v
}
