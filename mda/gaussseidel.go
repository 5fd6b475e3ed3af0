// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mda

import (
	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
)

// GaussSeidel implements the nonlinear Gauss-Seidel iteration: within
// one pass, each discipline sees the values already computed by the
// disciplines evaluated before it
type GaussSeidel struct {
	base
}

// iterate performs one Gauss-Seidel pass
func (o *GaussSeidel) iterate() error {
	outputs := make(core.Values)
	for _, d := range o.discs {
		in := make(core.Values)
		for _, v := range d.InVars {
			if val, ok := outputs[v.Name]; ok {
				in[v.Name] = val // fresh value from this pass
			} else if val, ok := o.old[v.Name]; ok {
				in[v.Name] = val
			} else if val, ok := o.fixed[v.Name]; ok {
				in[v.Name] = val
			}
		}
		out, err := d.Eval(in)
		if err != nil {
			return err
		}
		outputs.Update(out)
	}
	for _, v := range o.couplings {
		o.vals[v.Name] = outputs[v.Name]
	}
	return nil
}

func init() {
	allocators["gauss-seidel"] = func(discs []*disc.Disc, prms *Params) Solver {
		o := &GaussSeidel{base: newBase("gauss-seidel", discs, prms)}
		o.impl = o
		return o
	}
}
