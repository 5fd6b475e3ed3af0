// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
	"github.com/cpmech/gomdo/graph"
	"github.com/cpmech/gomdo/mda"
)

// MDF is the multidisciplinary-feasible architecture: every evaluation
// pushes the candidate design into the coupling graph and converges the
// MDA before reading objective and constraints, so every optimizer
// iterate is a fully coupled design. Gradients come either from finite
// differences through the converged analysis (GradFd) or from the
// implicit-function total derivatives assembled from the disciplinary
// partials (GradAnalytic).
type MDF struct {
	Graph     *graph.Graph
	Runner    *mda.Runner
	Gradients GradMode
	FdStep    float64 // finite-difference step for GradFd; default 1e-6
	Maximize  bool

	vars      core.VarList
	cons      core.VarList
	objective *core.Variable
	consts    core.Values
	residuals []float64 // final MDA residual of every evaluation
}

// NewMDF builds the architecture over a coupling graph, using the given
// solver kind and settings for the cyclic groups
func NewMDF(g *graph.Graph, kind string, prms *mda.Params) (*MDF, error) {
	objs := g.Reg.Variables(core.Objective)
	if len(objs) != 1 {
		return nil, chk.Err("exactly one objective variable is required; have %d", len(objs))
	}
	vars := g.Reg.Variables(core.Design)
	if len(vars) == 0 {
		return nil, chk.Err("no design variables declared")
	}
	r, err := mda.NewRunner(g, kind, prms)
	if err != nil {
		return nil, err
	}
	return &MDF{
		Graph:     g,
		Runner:    r,
		FdStep:    1e-6,
		vars:      vars,
		cons:      g.Reg.Variables(core.Constraint),
		objective: objs[0],
		consts:    g.Reg.Values().GetCopy(g.Reg.Variables(core.Constant)),
	}, nil
}

// Residuals returns the final MDA residual recorded at each evaluation
func (o *MDF) Residuals() []float64 { return o.residuals }

// BuildProblem returns the optimization problem: the true design
// variables only, with consistency enforced inside the evaluation
func (o *MDF) BuildProblem() *Problem {
	p := &Problem{Name: "mdf", Vars: o.vars, Cons: o.cons, Maximize: o.Maximize, Fcn: o.evaluate}
	switch o.Gradients {
	case GradFd:
		p.Gfcn = func(x []float64) ([]float64, [][]float64, error) {
			return fdGrad(o.evaluate, x, o.FdStep)
		}
	case GradAnalytic:
		p.Gfcn = o.totals
	}
	return p
}

// evaluate converges the whole graph at the candidate design point
func (o *MDF) evaluate(x []float64) (*Evaluation, error) {
	known := core.Split(o.vars, x)
	known.Update(o.consts)
	vals, err := o.Runner.Run(known)
	if err != nil {
		return nil, err
	}

	worst := 0.0
	for _, grp := range o.Graph.Groups() {
		if s := o.Runner.Solver(grp); s != nil {
			if h := s.History(); len(h) > 0 && h[len(h)-1] > worst {
				worst = h[len(h)-1]
			}
		}
	}
	o.residuals = append(o.residuals, worst)

	return &Evaluation{F: vals[o.objective.Name][0], G: vals.Join(o.cons)}, nil
}

// totals computes the total derivatives of objective and constraints at
// the converged point, eliminating the couplings through dRdy
func (o *MDF) totals(x []float64) (df []float64, dg [][]float64, err error) {
	if _, err = o.evaluate(x); err != nil {
		return
	}

	// the run left every discipline at the converged point; the inner
	// re-evaluation in Diff is a cache hit
	jac := make(disc.Jacobian)
	for _, d := range o.Graph.Discs {
		j, err2 := d.Diff(d.InputValues())
		if err2 != nil {
			return nil, nil, err2
		}
		jac.Update(j)
	}

	outs := append(core.VarList{o.objective}, o.cons...)
	couplings := o.Graph.AllCouplings()
	tot := jac
	if len(couplings) > 0 {
		tot, err = disc.AssembleTotal(o.vars, outs, couplings, jac)
		if err != nil {
			return
		}
	}
	df = gradRows(tot, core.VarList{o.objective}, o.vars)[0]
	dg = gradRows(tot, o.cons, o.vars)
	return
}
