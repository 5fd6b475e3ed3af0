// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package tests implements shared analytic problems used by the solver
// and architecture tests
package tests

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
)

// LinearOne computes y1 = a12·y2 + x
type LinearOne struct{ A12 float64 }

func (o LinearOne) Evaluate(in core.Values) (core.Values, error) {
	return core.Values{"y1": {o.A12*in["y2"][0] + in["x"][0]}}, nil
}

func (o LinearOne) Differentiate(in core.Values) (disc.Jacobian, error) {
	jac := make(disc.Jacobian)
	jac.SetScalar("y1", "y2", o.A12)
	jac.SetScalar("y1", "x", 1)
	return jac, nil
}

// LinearTwo computes y2 = a21·y1 + 1
type LinearTwo struct{ A21 float64 }

func (o LinearTwo) Evaluate(in core.Values) (core.Values, error) {
	return core.Values{"y2": {o.A21*in["y1"][0] + 1}}, nil
}

func (o LinearTwo) Differentiate(in core.Values) (disc.Jacobian, error) {
	jac := make(disc.Jacobian)
	jac.SetScalar("y2", "y1", o.A21)
	return jac, nil
}

// QuadObjective computes f = (x−1)² + y1²
type QuadObjective struct{}

func (o QuadObjective) Evaluate(in core.Values) (core.Values, error) {
	x, y1 := in["x"][0], in["y1"][0]
	return core.Values{"f": {(x-1)*(x-1) + y1*y1}}, nil
}

func (o QuadObjective) Differentiate(in core.Values) (disc.Jacobian, error) {
	jac := make(disc.Jacobian)
	jac.SetScalar("f", "x", 2*(in["x"][0]-1))
	jac.SetScalar("f", "y1", 2*in["y1"][0])
	return jac, nil
}

// LinearPair builds the two-discipline coupled pair
//
//   y1 = a12·y2 + x,   y2 = a21·y1 + 1
//
// which for a12·a21 < 1 has the fixed point y1 = (a12+x)/(1−a12·a21).
// With withObjective a third discipline computing f = (x−1)² + y1² is
// appended; for a12 = a21 = 1/2 the optimum is x* = 0.04, f* = 1.44.
func LinearPair(a12, a21 float64, withObjective bool) (*core.Registry, []*disc.Disc) {
	reg := core.NewRegistry()

	x := core.NewBounded("x", core.Design, -10, 10)
	y1 := &core.Variable{Name: "y1", Kind: core.Coupling, Size: 1, Lb: -1e6, Ub: 1e6, Owner: "L1"}
	y2 := &core.Variable{Name: "y2", Kind: core.Coupling, Size: 1, Lb: -1e6, Ub: 1e6, Owner: "L2"}
	f := core.NewScalar("f", core.Objective)

	for _, v := range []*core.Variable{x, y1, y2, f} {
		if err := reg.Declare(v); err != nil {
			chk.Panic("cannot declare %q: %v", v.Name, err)
		}
	}

	d1 := disc.New("L1", LinearOne{A12: a12}, core.VarList{x, y2}, core.VarList{y1})
	d2 := disc.New("L2", LinearTwo{A21: a21}, core.VarList{y1}, core.VarList{y2})
	discs := []*disc.Disc{d1, d2}
	if withObjective {
		obj := disc.New("Quad", QuadObjective{}, core.VarList{x, y1}, core.VarList{f})
		discs = append(discs, obj)
	}
	return reg, discs
}

// LinearPairFixedPoint returns the analytic fixed point for LinearPair
func LinearPairFixedPoint(a12, a21, x float64) (y1, y2 float64) {
	y1 = (a12 + x) / (1 - a12*a21)
	y2 = a21*y1 + 1
	return
}

// Sellar1 computes y1 = √(z1² + z2 + x1 − 0.2·y2) and g1 = 3.16 − y1²
type Sellar1 struct{}

func (o Sellar1) Evaluate(in core.Values) (core.Values, error) {
	z1, z2 := in["z1"][0], in["z2"][0]
	x1, y2 := in["x1"][0], in["y2"][0]
	arg := z1*z1 + z2 + x1 - 0.2*y2
	if arg < 0 {
		return nil, chk.Err("negative argument %g in y1 = sqrt(...)", arg)
	}
	y1 := math.Sqrt(arg)
	return core.Values{"y1": {y1}, "g1": {3.16 - y1*y1}}, nil
}

func (o Sellar1) Differentiate(in core.Values) (disc.Jacobian, error) {
	z1, y1 := in["z1"][0], in["y1"][0]
	jac := make(disc.Jacobian)
	jac.SetScalar("y1", "z1", z1/y1)
	jac.SetScalar("y1", "z2", 1/(2*y1))
	jac.SetScalar("y1", "x1", 1/(2*y1))
	jac.SetScalar("y1", "y2", -0.2/(2*y1))
	for _, name := range []string{"z1", "z2", "x1", "y2"} {
		jac.SetScalar("g1", name, -2*y1*jac.Get("y1", name).At(0, 0))
	}
	return jac, nil
}

// Sellar2 computes y2 = |y1| + z1 + z2 and g2 = y2 − 24
type Sellar2 struct{}

func (o Sellar2) Evaluate(in core.Values) (core.Values, error) {
	z1, z2, y1 := in["z1"][0], in["z2"][0], in["y1"][0]
	y2 := math.Abs(y1) + z1 + z2
	return core.Values{"y2": {y2}, "g2": {y2 - 24}}, nil
}

func (o Sellar2) Differentiate(in core.Values) (disc.Jacobian, error) {
	s := 1.0
	if in["y1"][0] < 0 {
		s = -1.0
	}
	jac := make(disc.Jacobian)
	jac.SetScalar("y2", "y1", s)
	jac.SetScalar("y2", "z1", 1)
	jac.SetScalar("y2", "z2", 1)
	jac.SetScalar("g2", "y1", s)
	jac.SetScalar("g2", "z1", 1)
	jac.SetScalar("g2", "z2", 1)
	return jac, nil
}

// SellarObj computes f = x1² + z2 + y1² + exp(−y2)
type SellarObj struct{}

func (o SellarObj) Evaluate(in core.Values) (core.Values, error) {
	x1, z2 := in["x1"][0], in["z2"][0]
	y1, y2 := in["y1"][0], in["y2"][0]
	return core.Values{"f": {x1*x1 + z2 + y1*y1 + math.Exp(-y2)}}, nil
}

func (o SellarObj) Differentiate(in core.Values) (disc.Jacobian, error) {
	jac := make(disc.Jacobian)
	jac.SetScalar("f", "x1", 2*in["x1"][0])
	jac.SetScalar("f", "z2", 1)
	jac.SetScalar("f", "y1", 2*in["y1"][0])
	jac.SetScalar("f", "y2", -math.Exp(-in["y2"][0]))
	return jac, nil
}

// Sellar builds the classic three-discipline Sellar problem. The
// starting values seed the discipline defaults.
func Sellar() (*core.Registry, []*disc.Disc) {
	reg := core.NewRegistry()

	z1 := core.NewBounded("z1", core.Design, -10, 10)
	z2 := core.NewBounded("z2", core.Design, 0, 10)
	x1 := core.NewBounded("x1", core.Design, 0, 10)
	y1 := &core.Variable{Name: "y1", Kind: core.Coupling, Size: 1, Lb: -100, Ub: 100, Owner: "Sellar1"}
	y2 := &core.Variable{Name: "y2", Kind: core.Coupling, Size: 1, Lb: -100, Ub: 100, Owner: "Sellar2"}
	g1 := &core.Variable{Name: "g1", Kind: core.Constraint, Size: 1, Lb: math.Inf(-1), Ub: 0, Owner: "Sellar1"}
	g2 := &core.Variable{Name: "g2", Kind: core.Constraint, Size: 1, Lb: math.Inf(-1), Ub: 0, Owner: "Sellar2"}
	f := core.NewScalar("f", core.Objective)
	f.Owner = "SellarObj"

	for _, v := range []*core.Variable{z1, z2, x1, y1, y2, g1, g2, f} {
		if err := reg.Declare(v); err != nil {
			chk.Panic("cannot declare %q: %v", v.Name, err)
		}
	}

	d1 := disc.New("Sellar1", Sellar1{}, core.VarList{z1, z2, x1, y2}, core.VarList{y1, g1})
	d2 := disc.New("Sellar2", Sellar2{}, core.VarList{z1, z2, y1}, core.VarList{y2, g2})
	obj := disc.New("SellarObj", SellarObj{}, core.VarList{x1, z2, y1, y2}, core.VarList{f})

	start := core.Values{"x1": {1}, "z1": {4}, "z2": {3}, "y1": {0.8}, "y2": {0.9}}
	for _, d := range []*disc.Disc{d1, d2, obj} {
		d.AddDefaults(start)
	}
	return reg, []*disc.Disc{d1, d2, obj}
}
