// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mda

import (
	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/graph"
)

// Runner executes a whole coupling graph: acyclic groups are evaluated
// exactly once in producer-before-consumer order, and each cyclic group
// is driven to a fixed point by a fresh solver of the configured kind.
type Runner struct {
	Graph *graph.Graph
	Kind  string  // solver strategy for cyclic groups
	Prms  *Params // settings shared by all cyclic groups

	solvers map[*graph.Group]Solver // one solver per cyclic group, reused across runs
}

// NewRunner returns a runner using the given solver kind for cycles
func NewRunner(g *graph.Graph, kind string, prms *Params) (*Runner, error) {
	if prms == nil {
		prms = NewParams()
	}
	o := &Runner{Graph: g, Kind: kind, Prms: prms, solvers: make(map[*graph.Group]Solver)}
	for _, grp := range g.Groups() {
		if grp.Cyclic {
			s, err := New(kind, grp.Discs, prms)
			if err != nil {
				return nil, err
			}
			o.solvers[grp] = s
		}
	}
	return o, nil
}

// Run evaluates the graph for the given known values (design variables,
// constants and optional coupling seeds) and returns all values:
// inputs, converged couplings and every discipline output
func (o *Runner) Run(known core.Values) (core.Values, error) {
	vals := make(core.Values)
	vals.Update(known)

	for _, grp := range o.Graph.Groups() {
		if grp.Cyclic {
			res, err := o.solvers[grp].Solve(vals)
			if err != nil {
				return nil, err
			}
			vals.Update(res)
			// collect non-coupling outputs (constraints etc.) as well
			for _, d := range grp.Discs {
				vals.Update(d.OutputValues())
			}
			continue
		}
		for _, d := range grp.Discs {
			out, err := d.Eval(vals.GetCopy(d.InVars))
			if err != nil {
				return nil, err
			}
			vals.Update(out)
		}
	}
	return vals, nil
}

// Solver returns the solver attached to a cyclic group, for diagnosis;
// nil for acyclic groups
func (o *Runner) Solver(grp *graph.Group) Solver {
	return o.solvers[grp]
}
