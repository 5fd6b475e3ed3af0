// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disc

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gomdo/core"
)

// approxJacobian estimates the Jacobian at the last evaluated point by
// forward or central finite differences. Probes do not touch the cache
// or the default inputs, so the discipline state after approximation is
// exactly the state before it.
func (o *Disc) approxJacobian() (Jacobian, error) {
	o.probing = true
	defer func() { o.probing = false }()

	// base point
	in0 := o.InputValues()
	out0 := o.OutputValues()

	jac := make(Jacobian, len(o.OutVars))
	for _, out := range o.OutVars {
		for _, in := range o.InVars {
			jac.Set(out.Name, in.Name, mat.NewDense(out.Size, in.Size, nil))
		}
	}

	for _, in := range o.InVars {
		for j := 0; j < in.Size; j++ {
			plus, err := o.probe(in0, in.Name, j, o.FdStep)
			if err != nil {
				return nil, err
			}
			base := out0
			den := o.FdStep
			if o.FdCentral {
				base, err = o.probe(in0, in.Name, j, -o.FdStep)
				if err != nil {
					return nil, err
				}
				den = 2 * o.FdStep
			}
			for _, out := range o.OutVars {
				block := jac.Get(out.Name, in.Name)
				p, b := plus[out.Name], base[out.Name]
				for i := 0; i < out.Size; i++ {
					block.Set(i, j, (p[i]-b[i])/den)
				}
			}
		}
	}

	// leave the last values at the base point
	o.vals = in0
	o.vals.Update(out0)
	return jac, nil
}

// probe evaluates at the base point with one input component perturbed
func (o *Disc) probe(in0 core.Values, name string, j int, step float64) (core.Values, error) {
	in := in0.GetCopy(o.InVars)
	in[name][j] += step
	return o.Eval(in)
}
