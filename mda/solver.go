// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mda implements multidisciplinary analysis: solvers that drive
// the coupling variables of one coupling group to a fixed point
package mda

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
	"github.com/cpmech/gomdo/graph"
)

// Status is the solver state machine: Idle → Iterating → {Converged, CapExceeded}
type Status int

const (
	Idle Status = iota
	Iterating
	Converged
	CapExceeded
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Iterating:
		return "iterating"
	case Converged:
		return "converged"
	case CapExceeded:
		return "cap-exceeded"
	}
	return io.Sf("Status(%d)", int(s))
}

// ConvergenceError reports an MDA solve that exceeded the iteration
// cap. The caller may retry with a different relaxation factor or seed;
// the solver itself never retries.
type ConvergenceError struct {
	Solver     string
	Iterations int
	Residual   float64
	Tol        float64
}

func (o *ConvergenceError) Error() string {
	return io.Sf("%s: residual %g is above tolerance %g after %d iterations",
		o.Solver, o.Residual, o.Tol, o.Iterations)
}

// Params holds the solver settings. The zero value is not usable; get
// defaults from NewParams.
type Params struct {
	NitMax    int     // iteration cap; default 15
	Tol       float64 // residual tolerance; default 1e-4
	RelaxFact float64 // under-relaxation factor α in (0,1]; default 1 (also damps Newton steps)
	MaxNorm   bool    // use the max norm instead of L2 for residuals
	Verbose   bool    // print iteration trace
}

// NewParams returns the default solver settings
func NewParams() *Params {
	return &Params{NitMax: 15, Tol: 1e-4, RelaxFact: 1}
}

// Solver finds coupling-variable values such that every discipline's
// output equals what its consumers receive, within tolerance. One
// instance serves one coupling group; concurrent solves need separate
// instances.
type Solver interface {
	Solve(seed core.Values) (core.Values, error)
	Status() Status
	History() []float64      // residual metric per iteration
	Couplings() core.VarList // coupling variables of the group
}

// iterator is what each strategy implements; the base drives it
type iterator interface {
	iterate() error
}

// allocators holds all available solver strategies
var allocators = map[string]func(discs []*disc.Disc, prms *Params) Solver{}

// New allocates a solver by kind: "gauss-seidel", "jacobi" or "newton"
func New(kind string, discs []*disc.Disc, prms *Params) (Solver, error) {
	alloc, ok := allocators[kind]
	if !ok {
		return nil, chk.Err("solver kind %q is not available", kind)
	}
	if prms == nil {
		prms = NewParams()
	}
	return alloc(discs, prms), nil
}

// base holds the per-solve state shared by all strategies
type base struct {
	name      string
	discs     []*disc.Disc
	prms      *Params
	couplings core.VarList

	it      int
	status  Status
	history []float64
	old     core.Values // previous-pass coupling values
	vals    core.Values // current coupling values
	fixed   core.Values // non-coupling inputs, constant during the solve
	impl    iterator
}

func newBase(name string, discs []*disc.Disc, prms *Params) base {
	return base{
		name:      name,
		discs:     discs,
		prms:      prms,
		couplings: graph.Couplings(discs),
	}
}

// Status returns the current solver state
func (o *base) Status() Status { return o.status }

// History returns the residual metric of each iteration so far
func (o *base) History() []float64 { return o.history }

// Couplings returns the coupling variables of the group
func (o *base) Couplings() core.VarList { return o.couplings }

// initValues seeds the coupling values: user seed first, then the
// producer's last evaluated output, then consumer defaults, then zero
func (o *base) initValues(seed core.Values) {
	o.vals = make(core.Values, len(o.couplings))
	o.old = make(core.Values, len(o.couplings))
	for _, v := range o.couplings {
		o.vals[v.Name] = make([]float64, v.Size)
		o.old[v.Name] = make([]float64, v.Size)
	}

	defaults := make(core.Values)
	last := make(core.Values)
	for _, d := range o.discs {
		defaults.Update(d.Defaults())
		last.Update(d.OutputValues())
	}
	for _, v := range o.couplings {
		if val, ok := seed[v.Name]; ok && len(val) == v.Size {
			copy(o.vals[v.Name], val)
		} else if val, ok := last[v.Name]; ok {
			copy(o.vals[v.Name], val)
		} else if val, ok := defaults[v.Name]; ok {
			copy(o.vals[v.Name], val)
		}
	}

	// everything else in the seed is a fixed input
	o.fixed = make(core.Values)
	for name, val := range seed {
		if !o.couplings.Has(name) {
			c := make([]float64, len(val))
			copy(c, val)
			o.fixed[name] = c
		}
	}
}

// inputsFor collects the values a discipline may see during iteration,
// preferring the given coupling values over the fixed inputs
func (o *base) inputsFor(d *disc.Disc, coupling core.Values) core.Values {
	in := make(core.Values)
	for _, v := range d.InVars {
		if val, ok := coupling[v.Name]; ok {
			in[v.Name] = val
		} else if val, ok := o.fixed[v.Name]; ok {
			in[v.Name] = val
		}
	}
	return in
}

// relax blends new and old values: new = α·computed + (1−α)·old
func (o *base) relax() {
	α := o.prms.RelaxFact
	if α == 1 {
		return
	}
	for _, v := range o.couplings {
		nv, ov := o.vals[v.Name], o.old[v.Name]
		for i := range nv {
			nv[i] = α*nv[i] + (1-α)*ov[i]
		}
	}
}

// residual computes the convergence metric Σ ‖new−old‖ / (1+‖new‖)
func (o *base) residual() (metric float64) {
	for _, v := range o.couplings {
		nv, ov := o.vals[v.Name], o.old[v.Name]
		r := make([]float64, len(nv))
		for i := range nv {
			r[i] = nv[i] - ov[i]
		}
		if o.prms.MaxNorm {
			inf := math.Inf(1)
			metric += floats.Norm(r, inf) / (1 + floats.Norm(nv, inf))
		} else {
			metric += floats.Norm(r, 2) / (1 + floats.Norm(nv, 2))
		}
	}
	return
}

// Solve drives the group to a fixed point. On success the converged
// coupling values are returned; exceeding the iteration cap fails with
// ConvergenceError carrying the last residual.
func (o *base) Solve(seed core.Values) (core.Values, error) {
	o.it = 0
	o.history = nil
	o.status = Iterating
	o.initValues(seed)

	for o.it < o.prms.NitMax {
		o.it++

		// shift values and perform one pass
		o.old, o.vals = o.vals, make(core.Values, len(o.couplings))
		if err := o.impl.iterate(); err != nil {
			o.status = Idle
			return nil, err
		}
		o.relax()

		metric := o.residual()
		o.history = append(o.history, metric)
		if o.prms.Verbose {
			io.Pf("%s: it=%d residual=%g\n", o.name, o.it, metric)
		}
		if metric <= o.prms.Tol {
			o.status = Converged
			if o.prms.Verbose {
				io.PfGreen("%s: converged in %d iterations\n", o.name, o.it)
			}
			return o.vals.GetCopy(o.couplings), nil
		}
	}

	o.status = CapExceeded
	last := 0.0
	if len(o.history) > 0 {
		last = o.history[len(o.history)-1]
	}
	return nil, &ConvergenceError{Solver: o.name, Iterations: o.it, Residual: last, Tol: o.prms.Tol}
}
