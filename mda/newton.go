// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mda

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
)

// Newton implements the Newton-Raphson iteration on the residual
// R(y) = y − Y(y):
//
//   (dR/dy)ᵏ · Δyᵏ = −Rᵏ,   yᵏ⁺¹ = yᵏ + Δyᵏ
//
// Disciplines without analytic Jacobians contribute finite-difference
// blocks. The relaxation factor damps the correction step.
type Newton struct {
	base
}

// iterate performs one Newton step
func (o *Newton) iterate() error {
	// evaluate and differentiate at the previous iterate
	outputs := make(core.Values)
	partials := make(disc.Jacobian)
	for _, d := range o.discs {
		in := o.inputsFor(d, o.old)
		out, err := d.Eval(in)
		if err != nil {
			return err
		}
		outputs.Update(out)
		jac, err := d.Diff(in)
		if err != nil {
			return err
		}
		partials.Update(jac)
	}

	// residual R = y − Y(y)
	n := o.couplings.TotalSize()
	r := make([]float64, 0, n)
	for _, v := range o.couplings {
		ov, yv := o.old[v.Name], outputs[v.Name]
		for i := range ov {
			r = append(r, ov[i]-yv[i])
		}
	}

	// solve dRdy · corr = −R
	dRdy := disc.AssemblePartial(o.couplings, o.couplings, partials, true)
	var lu mat.LU
	lu.Factorize(dRdy)
	rhs := mat.NewVecDense(n, r)
	rhs.ScaleVec(-1, rhs)
	corr := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(corr, false, rhs); err != nil {
		return chk.Err("newton: coupled Jacobian dRdy is singular: %v", err)
	}

	// y ← y + Δy
	idx := 0
	for _, v := range o.couplings {
		val := make([]float64, v.Size)
		for i := 0; i < v.Size; i++ {
			val[i] = o.old[v.Name][i] + corr.AtVec(idx)
			idx++
		}
		o.vals[v.Name] = val
	}
	return nil
}

func init() {
	allocators["newton"] = func(discs []*disc.Disc, prms *Params) Solver {
		o := &Newton{base: newBase("newton", discs, prms)}
		o.impl = o
		return o
	}
}
