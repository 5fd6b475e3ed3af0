// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mda

import (
	"golang.org/x/sync/errgroup"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
)

// Jacobi implements the nonlinear Jacobi iteration: every discipline
// sees only previous-pass values, so the disciplines of the group are
// independent within one pass and are evaluated in parallel
type Jacobi struct {
	base
}

// iterate performs one Jacobi pass
func (o *Jacobi) iterate() error {
	outs := make([]core.Values, len(o.discs))
	var eg errgroup.Group
	for i, d := range o.discs {
		i, d := i, d
		eg.Go(func() error {
			out, err := d.Eval(o.inputsFor(d, o.old))
			if err != nil {
				return err
			}
			outs[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	outputs := make(core.Values)
	for _, out := range outs {
		outputs.Update(out)
	}
	for _, v := range o.couplings {
		o.vals[v.Name] = outputs[v.Name]
	}
	return nil
}

func init() {
	allocators["jacobi"] = func(discs []*disc.Disc, prms *Params) Solver {
		o := &Jacobi{base: newBase("jacobi", discs, prms)}
		o.impl = o
		return o
	}
}
