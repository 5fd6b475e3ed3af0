// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
)

// Single is the degenerate single-discipline problem: no couplings, no
// MDA, just one discipline producing the objective and constraints from
// the design variables
type Single struct {
	Disc      *disc.Disc
	Reg       *core.Registry
	Gradients GradMode
	FdStep    float64 // finite-difference step for GradFd; default 1e-6
	Maximize  bool

	vars      core.VarList
	cons      core.VarList
	objective *core.Variable
	consts    core.Values
}

// NewSingle builds the problem over the design-variable inputs of one
// discipline
func NewSingle(reg *core.Registry, d *disc.Disc) (*Single, error) {
	o := &Single{Disc: d, Reg: reg, FdStep: 1e-6}
	for _, v := range d.InVars {
		switch v.Kind {
		case core.Design:
			o.vars = append(o.vars, v)
		case core.Constant:
			val, err := reg.Value(v.Name)
			if err != nil {
				return nil, err
			}
			if o.consts == nil {
				o.consts = make(core.Values)
			}
			o.consts[v.Name] = val
		default:
			return nil, chk.Err("input %q of %q must be a design variable or constant", v.Name, d.Name)
		}
	}
	if len(o.vars) == 0 {
		return nil, chk.Err("discipline %q has no design-variable inputs", d.Name)
	}
	for _, v := range d.OutVars {
		switch v.Kind {
		case core.Objective:
			if o.objective != nil {
				return nil, chk.Err("discipline %q produces more than one objective", d.Name)
			}
			o.objective = v
		case core.Constraint:
			o.cons = append(o.cons, v)
		}
	}
	if o.objective == nil {
		return nil, chk.Err("discipline %q produces no objective variable", d.Name)
	}
	return o, nil
}

// BuildProblem returns the optimization problem
func (o *Single) BuildProblem() *Problem {
	p := &Problem{Name: "single:" + o.Disc.Name, Vars: o.vars, Cons: o.cons, Maximize: o.Maximize, Fcn: o.evaluate}
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

func (o *Single) evaluate(x []float64) (*Evaluation, error) {
	vals := core.Split(o.vars, x)
	vals.Update(o.consts)
	out, err := o.Disc.Eval(vals)
	if err != nil {
		return nil, err
	}
	return &Evaluation{F: out[o.objective.Name][0], G: out.Join(o.cons)}, nil
}

func (o *Single) analytic(x []float64) (df []float64, dg [][]float64, err error) {
	vals := core.Split(o.vars, x)
	vals.Update(o.consts)
	jac, err := o.Disc.Diff(vals)
	if err != nil {
		return
	}
	outs := append(core.VarList{o.objective}, o.cons...)
	rows := matRows(disc.AssemblePartial(o.vars, outs, jac, false))
	df = rows[0]
	dg = rows[1:]
	return
}
