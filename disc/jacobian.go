// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disc

import (
	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gomdo/core"
)

// Jacobian maps output name → input name → dense ∂out/∂in block of
// shape outSize × inSize. Missing blocks are implicitly zero.
type Jacobian map[string]map[string]*mat.Dense

// Set stores a block, allocating the inner map if needed
func (o Jacobian) Set(out, in string, block *mat.Dense) {
	if _, ok := o[out]; !ok {
		o[out] = make(map[string]*mat.Dense)
	}
	o[out][in] = block
}

// SetScalar stores a 1×1 block
func (o Jacobian) SetScalar(out, in string, val float64) {
	o.Set(out, in, mat.NewDense(1, 1, []float64{val}))
}

// Get returns a block or nil
func (o Jacobian) Get(out, in string) *mat.Dense {
	if inner, ok := o[out]; ok {
		return inner[in]
	}
	return nil
}

// GetCopy returns a deep copy
func (o Jacobian) GetCopy() (res Jacobian) {
	res = make(Jacobian, len(o))
	for out, inner := range o {
		for in, block := range inner {
			res.Set(out, in, mat.DenseCopyOf(block))
		}
	}
	return
}

// Update merges blocks from another Jacobian (deep copy)
func (o Jacobian) Update(other Jacobian) {
	for out, inner := range other {
		for in, block := range inner {
			o.Set(out, in, mat.DenseCopyOf(block))
		}
	}
}

// Verify checks that every present block has the declared shape
func (o Jacobian) Verify(inVars, outVars core.VarList) error {
	for out, inner := range o {
		ov := outVars.Find(out)
		if ov == nil {
			return chk.Err("jacobian has block for undeclared output %q", out)
		}
		for in, block := range inner {
			iv := inVars.Find(in)
			if iv == nil {
				return chk.Err("jacobian block %q/%q: %q is not an input", out, in, in)
			}
			r, c := block.Dims()
			if r != ov.Size || c != iv.Size {
				return chk.Err("jacobian block %q/%q has shape %dx%d but %dx%d is expected",
					out, in, r, c, ov.Size, iv.Size)
			}
		}
	}
	return nil
}

// AssemblePartial assembles blocks into one dense matrix with rows
// following outVars and columns following inVars. With asResidual the
// outputs are treated as residuals R = y − Y: diagonal blocks become
// the identity and off-diagonal blocks flip sign.
func AssemblePartial(inVars, outVars core.VarList, jac Jacobian, asResidual bool) *mat.Dense {
	sign := 1.0
	if asResidual {
		sign = -1.0
	}
	nIn := inVars.TotalSize()
	nOut := outVars.TotalSize()
	res := mat.NewDense(nOut, nIn, nil)

	row := 0
	for _, out := range outVars {
		col := 0
		for _, in := range inVars {
			if out.Name == in.Name {
				for k := 0; k < out.Size; k++ {
					res.Set(row+k, col+k, 1)
				}
			} else if block := jac.Get(out.Name, in.Name); block != nil {
				for i := 0; i < out.Size; i++ {
					for j := 0; j < in.Size; j++ {
						res.Set(row+i, col+j, sign*block.At(i, j))
					}
				}
			}
			col += in.Size
		}
		row += out.Size
	}
	return res
}

// AssembleTotal computes the total derivatives of the outputs w.r.t the
// inputs given the disciplinary partials, accounting for the implicit
// dependence through the coupling variables:
//
//   total = dfdx − dfdy · (dRdy⁻¹ · dRdx)
//
// The adjoint path is used when there are more inputs than outputs,
// the direct path otherwise.
func AssembleTotal(inVars, outVars, couplingVars core.VarList, jac Jacobian) (Jacobian, error) {
	nIn := inVars.TotalSize()
	nOut := outVars.TotalSize()

	dRdy := AssemblePartial(couplingVars, couplingVars, jac, true)
	dRdx := AssemblePartial(inVars, couplingVars, jac, true)
	dfdy := AssemblePartial(couplingVars, outVars, jac, false)
	dfdx := AssemblePartial(inVars, outVars, jac, false)

	var lu mat.LU
	lu.Factorize(dRdy)

	nCpl := couplingVars.TotalSize()
	total := mat.NewDense(nOut, nIn, nil)

	if nIn > nOut {
		// adjoint: ψᵀ = dRdyᵀ \ dfdyᵀ, total = dfdx − ψ·dRdx
		psiT := mat.NewDense(nCpl, nOut, nil)
		if err := lu.SolveTo(psiT, true, dfdy.T()); err != nil {
			return nil, chk.Err("adjoint solve failed (singular dRdy): %v", err)
		}
		var corr mat.Dense
		corr.Mul(psiT.T(), dRdx)
		total.Sub(dfdx, &corr)
	} else {
		// direct: dydx = dRdy \ dRdx, total = dfdx − dfdy·dydx
		dydx := mat.NewDense(nCpl, nIn, nil)
		if err := lu.SolveTo(dydx, false, dRdx); err != nil {
			return nil, chk.Err("direct solve failed (singular dRdy): %v", err)
		}
		var corr mat.Dense
		corr.Mul(dfdy, dydx)
		total.Sub(dfdx, &corr)
	}

	// split back into named blocks
	res := make(Jacobian, len(outVars))
	row := 0
	for _, out := range outVars {
		col := 0
		for _, in := range inVars {
			block := mat.NewDense(out.Size, in.Size, nil)
			for i := 0; i < out.Size; i++ {
				for j := 0; j < in.Size; j++ {
					block.Set(i, j, total.At(row+i, col+j))
				}
			}
			res.Set(out.Name, in.Name, block)
			col += in.Size
		}
		row += out.Size
	}
	return res, nil
}
