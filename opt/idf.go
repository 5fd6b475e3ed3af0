// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
	"github.com/cpmech/gomdo/graph"
)

// IDF is the individual-discipline-feasible architecture: every
// coupling variable becomes a free copy appended to the design vector,
// the cycles are broken and each discipline runs exactly once per
// evaluation. Consistency producer − copy = 0 is handed to the
// optimizer as equality constraints, so intermediate iterates may be
// multidisciplinary-infeasible. With scalar consistency each coupling
// contributes a single ‖producer − copy‖² entry instead of one equality
// per component.
type IDF struct {
	Graph     *graph.Graph
	Scalar    bool
	Gradients GradMode
	FdStep    float64 // finite-difference step for GradFd; default 1e-6
	Maximize  bool

	vars      core.VarList // design variables then coupling copies
	declared  core.VarList // constraint variables from the registry
	couplings core.VarList
	cons      core.VarList // declared constraints then consistency
	objective *core.Variable
	consts    core.Values
}

// NewIDF builds the architecture; scalar selects the folded ‖·‖² form
// of the consistency constraints
func NewIDF(g *graph.Graph, scalar bool) (*IDF, error) {
	objs := g.Reg.Variables(core.Objective)
	if len(objs) != 1 {
		return nil, chk.Err("exactly one objective variable is required; have %d", len(objs))
	}
	o := &IDF{
		Graph:     g,
		Scalar:    scalar,
		FdStep:    1e-6,
		declared:  g.Reg.Variables(core.Constraint),
		couplings: g.AllCouplings(),
		objective: objs[0],
		consts:    g.Reg.Values().GetCopy(g.Reg.Variables(core.Constant)),
	}
	o.vars = append(append(core.VarList{}, g.Reg.Variables(core.Design)...), o.couplings...)
	if len(o.vars) == 0 {
		return nil, chk.Err("no design variables declared")
	}

	// consistency equalities, one per coupling; Lb = Ub = 0
	o.cons = append(core.VarList{}, o.declared...)
	for _, y := range o.couplings {
		size := y.Size
		if o.Scalar {
			size = 1
		}
		o.cons = append(o.cons, &core.Variable{
			Name:  "consis(" + y.Name + ")",
			Kind:  core.Constraint,
			Size:  size,
			Owner: y.Owner,
		})
	}
	return o, nil
}

// BuildProblem returns the optimization problem over the extended
// design vector
func (o *IDF) BuildProblem() *Problem {
	p := &Problem{Name: "idf", Vars: o.vars, Cons: o.cons, Maximize: o.Maximize, Fcn: o.evaluate}
	switch o.Gradients {
	case GradFd:
		p.Gfcn = func(x []float64) ([]float64, [][]float64, error) {
			return fdGrad(o.evaluate, x, o.FdStep)
		}
	case GradAnalytic:
		p.Gfcn = o.analytic
	}
	return p
}

// evaluate runs every discipline once with coupling inputs taken from
// the copies, then measures the consistency residuals
func (o *IDF) evaluate(x []float64) (*Evaluation, error) {
	vals := core.Split(o.vars, x)
	vals.Update(o.consts)

	outs := make(core.Values)
	for _, grp := range o.Graph.Groups() {
		for _, d := range grp.Discs {
			out, err := d.Eval(vals.GetCopy(d.InVars))
			if err != nil {
				return nil, err
			}
			outs.Update(out)
		}
	}

	g := outs.Join(o.declared)
	for _, y := range o.couplings {
		prod, cpy := outs[y.Name], vals[y.Name]
		if o.Scalar {
			s := 0.0
			for i := range prod {
				r := prod[i] - cpy[i]
				s += r * r
			}
			g = append(g, s)
		} else {
			for i := range prod {
				g = append(g, prod[i]-cpy[i])
			}
		}
	}
	return &Evaluation{F: outs[o.objective.Name][0], G: g}, nil
}

// analytic assembles the gradients from the disciplinary partials. The
// couplings are independent variables here, so no implicit elimination
// is needed: the consistency rows are the negated residual partials.
func (o *IDF) analytic(x []float64) (df []float64, dg [][]float64, err error) {
	if _, err = o.evaluate(x); err != nil {
		return
	}
	jac := make(disc.Jacobian)
	for _, d := range o.Graph.Discs {
		j, err2 := d.Diff(d.InputValues())
		if err2 != nil {
			return nil, nil, err2
		}
		jac.Update(j)
	}

	outs := append(core.VarList{o.objective}, o.declared...)
	direct := matRows(disc.AssemblePartial(o.vars, outs, jac, false))
	df = direct[0]
	dg = append([][]float64{}, direct[1:]...)

	if len(o.couplings) == 0 {
		return
	}

	// rows of R = y − Y(x,y); consistency is −R
	resid := disc.AssemblePartial(o.vars, o.couplings, jac, true)
	vals := core.Split(o.vars, x)
	n := len(x)
	row := 0
	for _, y := range o.couplings {
		prod := o.Graph.Producer(y.Name).OutputValues()[y.Name]
		cpy := vals[y.Name]
		if o.Scalar {
			acc := make([]float64, n)
			for i := 0; i < y.Size; i++ {
				diff := prod[i] - cpy[i]
				for j := 0; j < n; j++ {
					acc[j] -= 2 * diff * resid.At(row+i, j)
				}
			}
			dg = append(dg, acc)
		} else {
			for i := 0; i < y.Size; i++ {
				r := make([]float64, n)
				for j := 0; j < n; j++ {
					r[j] = -resid.At(row+i, j)
				}
				dg = append(dg, r)
			}
		}
		row += y.Size
	}
	return
}
