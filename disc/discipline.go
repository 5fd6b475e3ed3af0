// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package disc implements the discipline abstraction: a unit of
// computation with declared inputs and outputs, an optional analytic
// Jacobian, a finite-difference fallback and an evaluation cache
package disc

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gomdo/core"
)

// Evaluator computes output values from input values. Implementations
// must be pure with respect to the declared input set: they see only
// the values handed to them and produce exactly the declared outputs.
type Evaluator interface {
	Evaluate(in core.Values) (out core.Values, err error)
}

// Differentiator is the optional analytic-Jacobian capability.
// The returned Jacobian maps output name → input name → ∂out/∂in block.
type Differentiator interface {
	Differentiate(in core.Values) (jac Jacobian, err error)
}

// EvaluationError reports a failed discipline evaluation. It is
// surfaced to the caller and never silently retried.
type EvaluationError struct {
	Disc string
	Err  error
}

func (o *EvaluationError) Error() string {
	return io.Sf("discipline %q: evaluation failed: %v", o.Disc, o.Err)
}

func (o *EvaluationError) Unwrap() error { return o.Err }

// Disc wraps an Evaluator with variable bookkeeping. It is stateless
// between evaluations except for cached last values, which warm-start
// the MDA solver and seed finite-difference probes.
type Disc struct {
	Name    string
	InVars  core.VarList
	OutVars core.VarList

	// finite-difference fallback settings
	FdStep    float64 // probe step; default 1e-6
	FdCentral bool    // use central instead of forward differences

	ev Evaluator
	df Differentiator // nil when the evaluator has no analytic Jacobian

	cache    *Cache
	defaults core.Values // default inputs; updated after each successful eval
	vals     core.Values // last evaluated inputs and outputs
	jac      Jacobian    // last Jacobian

	Neval int // number of evaluations performed
	Ndiff int // number of differentiations performed

	probing bool // true while finite-difference probing
}

// New creates a discipline. The analytic-Jacobian capability is
// detected on the evaluator; disciplines without it fall back to
// finite differences. Input and output sets must be disjoint.
func New(name string, ev Evaluator, inVars, outVars core.VarList) *Disc {
	for _, v := range outVars {
		if inVars.Has(v.Name) {
			chk.Panic("discipline %q declares %q as both input and output", name, v.Name)
		}
	}
	o := &Disc{
		Name:     name,
		InVars:   inVars,
		OutVars:  outVars,
		FdStep:   1e-6,
		ev:       ev,
		defaults: make(core.Values),
		vals:     make(core.Values),
	}
	if df, ok := ev.(Differentiator); ok {
		o.df = df
	}
	o.cache = NewCache(Latest, 1e-9, inVars, outVars)
	return o
}

// HasJacobian tells whether an analytic Jacobian is available
func (o *Disc) HasJacobian() bool { return o.df != nil }

// SetCache replaces the evaluation cache; nil disables caching
func (o *Disc) SetCache(c *Cache) { o.cache = c }

// Cache returns the evaluation cache (may be nil)
func (o *Disc) Cache() *Cache { return o.cache }

// AddDefaults merges values into the default inputs, restricted to the
// declared input variables
func (o *Disc) AddDefaults(vals core.Values) {
	o.defaults.Update(vals.GetCopy(o.InVars))
}

// Defaults returns a copy of the default input values
func (o *Disc) Defaults() core.Values {
	return o.defaults.GetCopy(o.InVars)
}

// InputValues returns a copy of the last evaluated input values
func (o *Disc) InputValues() core.Values {
	return o.vals.GetCopy(o.InVars)
}

// OutputValues returns a copy of the last evaluated output values
func (o *Disc) OutputValues() core.Values {
	return o.vals.GetCopy(o.OutVars)
}

// LastValues returns a copy of the last evaluated inputs and outputs
func (o *Disc) LastValues() core.Values {
	res := o.InputValues()
	res.Update(o.OutputValues())
	return res
}

// assemble merges defaults with the given inputs and verifies the set
func (o *Disc) assemble(in core.Values) (core.Values, error) {
	full := o.Defaults()
	if in != nil {
		full.Update(in.GetCopy(o.InVars))
	}
	if err := full.Verify(o.InVars); err != nil {
		return nil, &EvaluationError{Disc: o.Name, Err: err}
	}
	return full, nil
}

// Eval executes the discipline for the given inputs. Missing inputs
// fall back to the defaults. On success the outputs become the last
// values, the cache is updated and the inputs become the new defaults.
func (o *Disc) Eval(in core.Values) (core.Values, error) {
	full, err := o.assemble(in)
	if err != nil {
		return nil, err
	}

	// cache hit skips re-evaluation
	if o.cache != nil {
		if out, _ := o.cache.Find(full); out != nil {
			o.vals = full
			o.vals.Update(out)
			if !o.probing {
				o.AddDefaults(full)
			}
			return o.OutputValues(), nil
		}
	}

	out, err := o.ev.Evaluate(full)
	if err != nil {
		return nil, &EvaluationError{Disc: o.Name, Err: err}
	}

	// the output set must match the declaration exactly
	if err = out.Verify(o.OutVars); err != nil {
		return nil, &EvaluationError{Disc: o.Name, Err: err}
	}
	for name := range out {
		if !o.OutVars.Has(name) {
			return nil, &EvaluationError{Disc: o.Name, Err: chk.Err("undeclared output %q", name)}
		}
	}

	o.vals = full
	o.vals.Update(out)
	o.Neval++

	if !o.probing {
		o.AddDefaults(full)
		if o.cache != nil {
			o.cache.Add(full, o.OutputValues(), nil)
		}
	}
	return o.OutputValues(), nil
}

// Diff computes the Jacobian of the outputs w.r.t the inputs at the
// given point. The discipline is evaluated first so that the Jacobian
// is consistent with the last values. Disciplines without an analytic
// Jacobian are differentiated by finite differences.
func (o *Disc) Diff(in core.Values) (Jacobian, error) {
	if _, err := o.Eval(in); err != nil {
		return nil, err
	}

	// cached Jacobian for the same inputs
	if o.cache != nil {
		if _, jac := o.cache.Find(o.InputValues()); jac != nil {
			o.jac = jac
			return o.jac.GetCopy(), nil
		}
	}

	var jac Jacobian
	var err error
	if o.df != nil {
		jac, err = o.df.Differentiate(o.LastValues())
		if err != nil {
			return nil, &EvaluationError{Disc: o.Name, Err: err}
		}
	} else {
		jac, err = o.approxJacobian()
		if err != nil {
			return nil, err
		}
	}

	if err = jac.Verify(o.InVars, o.OutVars); err != nil {
		return nil, &EvaluationError{Disc: o.Name, Err: err}
	}

	o.jac = jac
	o.Ndiff++
	if o.cache != nil {
		o.cache.Add(o.InputValues(), nil, jac)
	}
	return o.jac.GetCopy(), nil
}
