// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"context"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// GonumDriver minimizes a Problem with gonum's optimizers, handling
// constraints by an exterior quadratic penalty: a sequence of
// unconstrained solves with growing penalty coefficient, stopped when
// the worst constraint violation drops below TolCon. Design bounds are
// penalized with the fixed BoundPen coefficient. Problems with a
// gradient function use BFGS, the rest use Nelder-Mead; Method
// overrides this choice.
type GonumDriver struct {
	PenaltyStart float64            // initial penalty coefficient ρ; default 10
	PenaltyGrow  float64            // ρ multiplier per round; default 10
	NroundsMax   int                // penalty rounds; default 6
	TolCon       float64            // feasibility tolerance; default 1e-6
	BoundPen     float64            // design-bound penalty coefficient; default 1e8
	UseNorm      bool               // optimize in [0,1]^n when all bounds are finite
	Method       optimize.Method    // nil selects BFGS or Nelder-Mead
	Settings     *optimize.Settings // nil selects default convergence settings
	Verbose      bool
}

// NewGonumDriver returns a driver with the default settings
func NewGonumDriver() *GonumDriver {
	return &GonumDriver{
		PenaltyStart: 10,
		PenaltyGrow:  10,
		NroundsMax:   6,
		TolCon:       1e-6,
		BoundPen:     1e8,
	}
}

// Solve implements the Driver contract. A failed evaluation inside the
// inner optimizer is treated as an infinite-merit point so the
// optimizer can back away from it; if the final point itself cannot be
// evaluated the error is surfaced.
func (o *GonumDriver) Solve(ctx context.Context, p *Problem, x0 []float64) (*Result, error) {
	n := p.N()
	if p.Fcn == nil {
		return nil, chk.Err("problem %q has no evaluation function", p.Name)
	}
	if len(x0) != n {
		return nil, chk.Err("problem %q needs %d design values but x0 has %d", p.Name, n, len(x0))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	lb, ub := p.Vars.Bounds()
	glb, gub := p.Cons.Bounds()
	norm := o.UseNorm
	for _, v := range p.Vars {
		if !v.HasFiniteBounds() {
			norm = false
			break
		}
	}
	decode := func(t []float64) []float64 {
		x := make([]float64, n)
		if norm {
			for i := range x {
				x[i] = lb[i] + t[i]*(ub[i]-lb[i])
			}
		} else {
			copy(x, t)
		}
		return x
	}
	encode := func(x []float64) []float64 {
		t := make([]float64, n)
		if norm {
			for i := range t {
				t[i] = (x[i] - lb[i]) / (ub[i] - lb[i])
			}
		} else {
			copy(t, x)
		}
		return t
	}
	sign := 1.0
	if p.Maximize {
		sign = -1
	}

	var lastErr error
	merit := func(ρ float64) func(t []float64) float64 {
		return func(t []float64) float64 {
			if err := ctx.Err(); err != nil {
				lastErr = err
				return math.Inf(1)
			}
			x := decode(t)
			ev, err := p.Eval(x)
			if err != nil {
				lastErr = err
				return math.Inf(1)
			}
			m := sign * ev.F
			for k, gk := range ev.G {
				v := violation(gk, glb[k], gub[k])
				m += ρ * v * v
			}
			for i := range x {
				v := violation(x[i], lb[i], ub[i])
				m += o.BoundPen * v * v
			}
			return m
		}
	}
	meritGrad := func(ρ float64) func(grad, t []float64) {
		return func(grad, t []float64) {
			x := decode(t)
			df, dg, err := p.Grad(x)
			var ev *Evaluation
			if err == nil {
				ev, err = p.Fcn(x)
			}
			if err != nil {
				lastErr = err
				for i := range grad {
					grad[i] = 0
				}
				return
			}
			for i := range grad {
				g := sign * df[i]
				for k, gk := range ev.G {
					if glb[k] == gub[k] {
						g += ρ * 2 * (gk - glb[k]) * dg[k][i]
					} else {
						if gk > gub[k] {
							g += ρ * 2 * (gk - gub[k]) * dg[k][i]
						}
						if gk < glb[k] {
							g += ρ * 2 * (gk - glb[k]) * dg[k][i]
						}
					}
				}
				if x[i] > ub[i] {
					g += o.BoundPen * 2 * (x[i] - ub[i])
				}
				if x[i] < lb[i] {
					g += o.BoundPen * 2 * (x[i] - lb[i])
				}
				if norm {
					g *= ub[i] - lb[i]
				}
				grad[i] = g
			}
		}
	}

	rounds := o.NroundsMax
	if rounds < 1 {
		rounds = 1
	}
	cur := encode(x0)
	ρ := o.PenaltyStart
	res := &Result{}

	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prob := optimize.Problem{Func: merit(ρ)}
		if p.HasGrad() {
			prob.Grad = meritGrad(ρ)
		}
		method := o.Method
		if method == nil {
			if p.HasGrad() {
				method = &optimize.BFGS{}
			} else {
				method = &optimize.NelderMead{}
			}
		}
		settings := o.Settings
		if settings == nil {
			settings = &optimize.Settings{
				Converger: &optimize.FunctionConverge{Absolute: 1e-13, Iterations: 50},
			}
		}

		lastErr = nil
		ores, err := optimize.Minimize(prob, cur, settings, method)
		if ores == nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}
		cur = ores.X
		res.Iterations += ores.Stats.MajorIterations
		res.FuncEvals += ores.Stats.FuncEvaluations

		x := decode(cur)
		ev, everr := p.Fcn(x)
		if everr != nil {
			return nil, everr
		}
		res.X, res.F, res.G = x, ev.F, ev.G
		viol := p.Violation(ev.G)
		if o.Verbose {
			io.Pf("%s: round=%d rho=%g f=%g viol=%g\n", p.Name, round, ρ, ev.F, viol)
		}
		if viol <= o.TolCon {
			res.Converged = true
			break
		}
		ρ *= o.PenaltyGrow
	}
	return res, nil
}
