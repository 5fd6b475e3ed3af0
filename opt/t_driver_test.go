// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"context"
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
)

func Test_driver01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver01. unconstrained quadratic with analytic gradient")

	p := &Problem{
		Name: "quad",
		Vars: core.VarList{core.NewScalar("a", core.Design), core.NewScalar("b", core.Design)},
		Fcn: func(x []float64) (*Evaluation, error) {
			return &Evaluation{F: (x[0]-1)*(x[0]-1) + (x[1]+2)*(x[1]+2)}, nil
		},
		Gfcn: func(x []float64) ([]float64, [][]float64, error) {
			return []float64{2 * (x[0] - 1), 2 * (x[1] + 2)}, nil, nil
		},
	}

	drv := NewGonumDriver()
	res, err := drv.Solve(context.Background(), p, []float64{0, 0})
	require.NoError(tst, err)
	require.True(tst, res.Converged)
	require.Greater(tst, res.FuncEvals, 0)

	chk.Array(tst, "x", 1e-6, res.X, []float64{1, -2})
	chk.Float64(tst, "f", 1e-10, res.F, 0)

	hx, hf, _ := p.History()
	require.NotEmpty(tst, hx)
	require.Equal(tst, len(hx), len(hf))
}

func Test_driver02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver02. equality constraint via growing penalty")

	// minimize a² + b²  subject to  a + b = 1   →  (1/2, 1/2)
	h := core.NewScalar("h", core.Constraint)
	h.Lb, h.Ub = 1, 1
	p := &Problem{
		Name: "eq",
		Vars: core.VarList{core.NewScalar("a", core.Design), core.NewScalar("b", core.Design)},
		Cons: core.VarList{h},
		Fcn: func(x []float64) (*Evaluation, error) {
			return &Evaluation{F: x[0]*x[0] + x[1]*x[1], G: []float64{x[0] + x[1]}}, nil
		},
		Gfcn: func(x []float64) ([]float64, [][]float64, error) {
			return []float64{2 * x[0], 2 * x[1]}, [][]float64{{1, 1}}, nil
		},
	}

	drv := NewGonumDriver()
	res, err := drv.Solve(context.Background(), p, []float64{0, 0})
	require.NoError(tst, err)
	require.True(tst, res.Converged)

	chk.Array(tst, "x", 1e-3, res.X, []float64{0.5, 0.5})
	require.LessOrEqual(tst, math.Abs(res.G[0]-1), drv.TolCon)
}

func Test_driver03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver03. maximize flag flips the objective sign")

	p := &Problem{
		Name:     "max",
		Vars:     core.VarList{core.NewScalar("a", core.Design)},
		Maximize: true,
		Fcn: func(x []float64) (*Evaluation, error) {
			return &Evaluation{F: 7 - (x[0]-3)*(x[0]-3)}, nil
		},
		Gfcn: func(x []float64) ([]float64, [][]float64, error) {
			return []float64{-2 * (x[0] - 3)}, nil, nil
		},
	}

	drv := NewGonumDriver()
	res, err := drv.Solve(context.Background(), p, []float64{0})
	require.NoError(tst, err)
	chk.Float64(tst, "x", 1e-6, res.X[0], 3)
	chk.Float64(tst, "f", 1e-10, res.F, 7)
}

func Test_driver04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver04. active design bound with normalization")

	p := &Problem{
		Name: "bounded",
		Vars: core.VarList{core.NewBounded("a", core.Design, 0, 2)},
		Fcn: func(x []float64) (*Evaluation, error) {
			return &Evaluation{F: (x[0] - 5) * (x[0] - 5)}, nil
		},
	}

	drv := NewGonumDriver()
	drv.UseNorm = true
	res, err := drv.Solve(context.Background(), p, []float64{1})
	require.NoError(tst, err)
	chk.Float64(tst, "x", 1e-3, res.X[0], 2)
	require.LessOrEqual(tst, res.X[0], 2+1e-4)
}

func Test_driver05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("driver05. canceled context stops the solve")

	p := &Problem{
		Name: "ctx",
		Vars: core.VarList{core.NewScalar("a", core.Design)},
		Fcn: func(x []float64) (*Evaluation, error) {
			return &Evaluation{F: x[0] * x[0]}, nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	drv := NewGonumDriver()
	_, err := drv.Solve(ctx, p, []float64{1})
	require.ErrorIs(tst, err, context.Canceled)
}

// parab computes fp = (a−1)² + (b+2)²
type parab struct{}

func (parab) Evaluate(in core.Values) (core.Values, error) {
	a, b := in["a"][0], in["b"][0]
	return core.Values{"fp": {(a-1)*(a-1) + (b+2)*(b+2)}}, nil
}

func (parab) Differentiate(in core.Values) (disc.Jacobian, error) {
	jac := make(disc.Jacobian)
	jac.SetScalar("fp", "a", 2*(in["a"][0]-1))
	jac.SetScalar("fp", "b", 2*(in["b"][0]+2))
	return jac, nil
}

func Test_single01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("single01. single-discipline problem, analytic vs FD gradients")

	reg := core.NewRegistry()
	a := core.NewBounded("a", core.Design, -10, 10)
	b := core.NewBounded("b", core.Design, -10, 10)
	fp := core.NewScalar("fp", core.Objective)
	for _, v := range []*core.Variable{a, b, fp} {
		require.NoError(tst, reg.Declare(v))
	}
	d := disc.New("P", parab{}, core.VarList{a, b}, core.VarList{fp})

	arch, err := NewSingle(reg, d)
	require.NoError(tst, err)

	arch.Gradients = GradAnalytic
	pa := arch.BuildProblem()
	dfa, _, err := pa.Grad([]float64{0.3, 0.7})
	require.NoError(tst, err)
	chk.Array(tst, "df (analytic)", 1e-12, dfa, []float64{-1.4, 5.4})

	arch.Gradients = GradFd
	pf := arch.BuildProblem()
	dff, _, err := pf.Grad([]float64{0.3, 0.7})
	require.NoError(tst, err)
	chk.Array(tst, "df (fd)", 1e-4, dff, []float64{-1.4, 5.4})

	arch.Gradients = GradAnalytic
	drv := NewGonumDriver()
	drv.UseNorm = true
	res, err := drv.Solve(context.Background(), arch.BuildProblem(), []float64{0, 0})
	require.NoError(tst, err)
	chk.Array(tst, "x", 1e-5, res.X, []float64{1, -2})
	chk.Float64(tst, "f", 1e-8, res.F, 0)
}
