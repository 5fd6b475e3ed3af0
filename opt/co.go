// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
	"github.com/cpmech/gomdo/graph"
)

// SubProblem is the discipline-level half of collaborative
// optimization: it owns copies of the system variables its discipline
// consumes and minimizes the squared distance between its achievable
// state and the targets handed down by the system level. Each instance
// carries its own driver so the subproblems can be solved in parallel.
type SubProblem struct {
	Disc      *disc.Disc
	Driver    Driver
	WarmStart bool // start from the previous solution instead of the targets

	copies   core.VarList // optimized: input-side copies of system variables
	outCpl   core.VarList // coupling outputs matched against targets
	cons     core.VarList // local constraint outputs
	consts   core.Values
	lastX    []float64
	achieved core.Values // matched values at the last solve
}

func newSubProblem(g *graph.Graph, d *disc.Disc, drv Driver, warm bool) *SubProblem {
	o := &SubProblem{Disc: d, Driver: drv, WarmStart: warm}
	for _, v := range d.InVars {
		switch v.Kind {
		case core.Design, core.Coupling:
			o.copies = append(o.copies, v)
		case core.Constant:
			if o.consts == nil {
				o.consts = make(core.Values)
			}
			val, _ := g.Reg.Value(v.Name)
			o.consts[v.Name] = val
		}
	}
	couplings := g.AllCouplings()
	for _, v := range d.OutVars {
		if couplings.Has(v.Name) {
			o.outCpl = append(o.outCpl, v)
		} else if v.Kind == core.Constraint {
			o.cons = append(o.cons, v)
		}
	}
	return o
}

// problem builds the distance-minimization problem for one set of targets
func (o *SubProblem) problem(targets core.Values) *Problem {
	fcn := func(x []float64) (*Evaluation, error) {
		vals := core.Split(o.copies, x)
		vals.Update(o.consts)
		out, err := o.Disc.Eval(vals)
		if err != nil {
			return nil, err
		}
		j := core.Dist(o.copies, vals, targets) + core.Dist(o.outCpl, out, targets)
		return &Evaluation{F: j, G: out.Join(o.cons)}, nil
	}
	p := &Problem{Name: "co-sub:" + o.Disc.Name, Vars: o.copies, Cons: o.cons, Fcn: fcn}
	if o.Disc.HasJacobian() {
		p.Gfcn = func(x []float64) (df []float64, dg [][]float64, err error) {
			vals := core.Split(o.copies, x)
			vals.Update(o.consts)
			jac, err := o.Disc.Diff(vals)
			if err != nil {
				return nil, nil, err
			}
			out := o.Disc.OutputValues()
			douts := matRows(disc.AssemblePartial(o.copies, o.outCpl, jac, false))
			df = make([]float64, len(x))
			tvec := targets.Join(o.copies)
			for j := range df {
				df[j] = 2 * (x[j] - tvec[j])
			}
			row := 0
			for _, w := range o.outCpl {
				for i := 0; i < w.Size; i++ {
					diff := out[w.Name][i] - targets[w.Name][i]
					for j := range df {
						df[j] += 2 * diff * douts[row][j]
					}
					row++
				}
			}
			if len(o.cons) > 0 {
				dg = matRows(disc.AssemblePartial(o.copies, o.cons, jac, false))
			}
			return
		}
	}
	return p
}

// Solve runs the subproblem for the given targets and returns the
// achieved distance J*
func (o *SubProblem) Solve(ctx context.Context, targets core.Values) (float64, error) {
	p := o.problem(targets)
	x0 := targets.Join(o.copies)
	if o.WarmStart && o.lastX != nil {
		x0 = o.lastX
	}
	res, err := o.Driver.Solve(ctx, p, x0)
	if err != nil {
		return 0, err
	}
	o.lastX = res.X

	// the driver's final evaluation left the discipline at res.X
	o.achieved = core.Split(o.copies, res.X)
	o.achieved.Update(o.Disc.OutputValues().GetCopy(o.outCpl))
	return res.F, nil
}

// Achieved returns the matched values (copies and recomputed coupling
// outputs) at the last solve
func (o *SubProblem) Achieved() core.Values { return o.achieved }

// CO is the collaborative-optimization architecture: a system-level
// problem over the shared design variables and the coupling targets,
// with one consistency-distance equality constraint per subproblem.
// Every system evaluation triggers one full subproblem optimization per
// discipline; the subproblems are mutually independent and run in
// parallel. The discipline producing the objective is kept at the
// system level and evaluated directly at the targets.
type CO struct {
	Graph     *graph.Graph
	Subs      []*SubProblem
	Gradients GradMode // GradAnalytic uses post-optimal sensitivities for the distances
	FdStep    float64
	Maximize  bool

	sysVars   core.VarList // design variables then coupling targets
	cons      core.VarList // one equality per subproblem, then system-level constraints
	objective *core.Variable
	objDisc   *disc.Disc
	objCons   core.VarList
	consts    core.Values
	ctx       context.Context
}

// NewCO builds the architecture. newDriver allocates the driver used by
// each subproblem (nil selects NewGonumDriver); warm enables subproblem
// warm starting across system iterations.
func NewCO(g *graph.Graph, newDriver func() Driver, warm bool) (*CO, error) {
	objs := g.Reg.Variables(core.Objective)
	if len(objs) != 1 {
		return nil, chk.Err("exactly one objective variable is required; have %d", len(objs))
	}
	objDisc := g.Producer(objs[0].Name)
	if objDisc == nil {
		return nil, chk.Err("objective %q has no producing discipline", objs[0].Name)
	}
	if newDriver == nil {
		newDriver = func() Driver { return NewGonumDriver() }
	}

	o := &CO{
		Graph:     g,
		FdStep:    1e-6,
		objective: objs[0],
		objDisc:   objDisc,
		consts:    g.Reg.Values().GetCopy(g.Reg.Variables(core.Constant)),
	}
	o.sysVars = append(append(core.VarList{}, g.Reg.Variables(core.Design)...), g.AllCouplings()...)
	if len(o.sysVars) == 0 {
		return nil, chk.Err("no design variables declared")
	}

	for _, d := range g.Discs {
		if d == objDisc {
			continue
		}
		sub := newSubProblem(g, d, newDriver(), warm)
		o.Subs = append(o.Subs, sub)
		// the distance must vanish at optimality; Lb = Ub = 0
		o.cons = append(o.cons, &core.Variable{
			Name:  "J(" + d.Name + ")",
			Kind:  core.Constraint,
			Size:  1,
			Owner: d.Name,
		})
	}
	for _, v := range objDisc.OutVars {
		if v.Kind == core.Constraint {
			o.objCons = append(o.objCons, v)
		}
	}
	o.cons = append(o.cons, o.objCons...)
	return o, nil
}

// BuildProblem returns the system-level problem; ctx bounds the
// subproblem optimizations triggered by every evaluation
func (o *CO) BuildProblem(ctx context.Context) *Problem {
	if ctx == nil {
		ctx = context.Background()
	}
	o.ctx = ctx
	p := &Problem{Name: "co", Vars: o.sysVars, Cons: o.cons, Maximize: o.Maximize, Fcn: o.evaluate}
	switch o.Gradients {
	case GradFd:
		p.Gfcn = func(x []float64) ([]float64, [][]float64, error) {
			return fdGrad(o.evaluate, x, o.FdStep)
		}
	case GradAnalytic:
		p.Gfcn = o.gradient
	}
	return p
}

// evaluate solves every subproblem against the targets in parallel and
// evaluates the objective discipline directly at the targets
func (o *CO) evaluate(x []float64) (*Evaluation, error) {
	targets := core.Split(o.sysVars, x)
	targets.Update(o.consts)

	js := make([]float64, len(o.Subs))
	var eg errgroup.Group
	for i, s := range o.Subs {
		i, s := i, s
		eg.Go(func() error {
			j, err := s.Solve(o.ctx, targets)
			js[i] = j
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out, err := o.objDisc.Eval(targets.GetCopy(o.objDisc.InVars))
	if err != nil {
		return nil, err
	}
	return &Evaluation{F: out[o.objective.Name][0], G: append(js, out.Join(o.objCons)...)}, nil
}

// gradient combines the objective discipline's partials with the Braun
// post-optimal sensitivities of the subproblem distances:
// dJ*/dt = 2·(t − s*) for each target component t matched by s*
func (o *CO) gradient(x []float64) (df []float64, dg [][]float64, err error) {
	if _, err = o.evaluate(x); err != nil {
		return
	}
	targets := core.Split(o.sysVars, x)
	targets.Update(o.consts)

	jac, err := o.objDisc.Diff(targets.GetCopy(o.objDisc.InVars))
	if err != nil {
		return
	}
	outs := append(core.VarList{o.objective}, o.objCons...)
	rows := matRows(disc.AssemblePartial(o.sysVars, outs, jac, false))
	df = rows[0]

	n := len(x)
	for _, s := range o.Subs {
		row := make([]float64, n)
		idx := 0
		for _, v := range o.sysVars {
			for i := 0; i < v.Size; i++ {
				if sv, ok := s.achieved[v.Name]; ok {
					row[idx] = 2 * (targets[v.Name][i] - sv[i])
				}
				idx++
			}
		}
		dg = append(dg, row)
	}
	dg = append(dg, rows[1:]...)
	return
}
