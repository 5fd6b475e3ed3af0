// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package core implements variables and the per-problem variable registry
package core

import (
	"math"

	"github.com/cpmech/gosl/io"
)

// Kind distinguishes the role a variable plays in the optimization problem
type Kind int

const (
	Design     Kind = iota + 1 // owned by the optimization problem
	Coupling                   // produced by one discipline, consumed by others
	Objective                  // objective function value
	Constraint                 // constraint function value
	Constant                   // fixed parameter
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case Design:
		return "design"
	case Coupling:
		return "coupling"
	case Objective:
		return "objective"
	case Constraint:
		return "constraint"
	case Constant:
		return "constant"
	}
	return io.Sf("Kind(%d)", int(k))
}

// Variable holds the metadata of one named quantity exchanged between
// disciplines and the optimizer. Values are fixed-size vectors; scalars
// have Size == 1. Lb and Ub may be ±Inf for unbounded variables.
type Variable struct {
	Name         string  // unique key
	Kind         Kind    // role in the problem
	Size         int     // vector length
	Lb           float64 // lower bound
	Ub           float64 // upper bound
	KeepFeasible bool    // optimizer hint: keep iterates within bounds
	Owner        string  // producing discipline; empty for design variables and constants
}

// NewScalar returns an unbounded scalar variable
func NewScalar(name string, kind Kind) *Variable {
	return &Variable{Name: name, Kind: kind, Size: 1, Lb: math.Inf(-1), Ub: math.Inf(1)}
}

// NewBounded returns a bounded scalar variable
func NewBounded(name string, kind Kind, lb, ub float64) *Variable {
	return &Variable{Name: name, Kind: kind, Size: 1, Lb: lb, Ub: ub}
}

// HasFiniteBounds tells whether both bounds are finite and distinct;
// only then can values be normalized to [0,1]
func (o *Variable) HasFiniteBounds() bool {
	if math.IsInf(o.Lb, -1) || math.IsInf(o.Ub, 1) {
		return false
	}
	return o.Ub != o.Lb
}

// NormValues maps values from [Lb,Ub] to [0,1], in place on a copy
func (o *Variable) NormValues(v []float64) (res []float64) {
	res = make([]float64, len(v))
	for i := range v {
		res[i] = (v[i] - o.Lb) / (o.Ub - o.Lb)
	}
	return
}

// DenormValues maps values from [0,1] back to [Lb,Ub]
func (o *Variable) DenormValues(v []float64) (res []float64) {
	res = make([]float64, len(v))
	for i := range v {
		res[i] = v[i]*(o.Ub-o.Lb) + o.Lb
	}
	return
}

// NormGrad scales a gradient w.r.t this variable for the normalized space
func (o *Variable) NormGrad(g []float64) (res []float64) {
	res = make([]float64, len(g))
	for i := range g {
		res[i] = g[i] * (o.Ub - o.Lb)
	}
	return
}

// DenormGrad undoes NormGrad
func (o *Variable) DenormGrad(g []float64) (res []float64) {
	res = make([]float64, len(g))
	for i := range g {
		res[i] = g[i] / (o.Ub - o.Lb)
	}
	return
}

// VarList is an ordered set of variables
type VarList []*Variable

// TotalSize returns the sum of the variable sizes
func (o VarList) TotalSize() (n int) {
	for _, v := range o {
		n += v.Size
	}
	return
}

// Find returns the variable with the given name, or nil
func (o VarList) Find(name string) *Variable {
	for _, v := range o {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Has tells whether the list contains a variable with the given name
func (o VarList) Has(name string) bool {
	return o.Find(name) != nil
}

// Names returns the variable names, in order
func (o VarList) Names() (res []string) {
	res = make([]string, len(o))
	for i, v := range o {
		res[i] = v.Name
	}
	return
}

// Bounds returns the expanded lower/upper bound arrays for the whole list
func (o VarList) Bounds() (lb, ub []float64) {
	n := o.TotalSize()
	lb = make([]float64, 0, n)
	ub = make([]float64, 0, n)
	for _, v := range o {
		for i := 0; i < v.Size; i++ {
			lb = append(lb, v.Lb)
			ub = append(ub, v.Ub)
		}
	}
	return
}
