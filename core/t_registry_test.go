// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"
)

func Test_registry01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("registry01. declare, get and set")

	reg := NewRegistry()
	err := reg.Declare(NewBounded("x", Design, 0, 10))
	require.NoError(tst, err)
	err = reg.Declare(&Variable{Name: "y", Kind: Coupling, Size: 2, Lb: -100, Ub: 100, Owner: "Aero"})
	require.NoError(tst, err)

	// duplicate declaration fails
	err = reg.Declare(NewScalar("x", Design))
	var dup *DuplicateVariableError
	require.ErrorAs(tst, err, &dup)
	require.Equal(tst, "x", dup.Name)

	// unknown lookup fails
	_, err = reg.Get("z")
	var unk *UnknownVariableError
	require.ErrorAs(tst, err, &unk)

	// values are zero-initialized
	val, err := reg.Value("y")
	require.NoError(tst, err)
	chk.Array(tst, "y (initial)", 1e-17, val, []float64{0, 0})

	// set and read back
	err = reg.SetValue("y", []float64{1.5, -2.5})
	require.NoError(tst, err)
	val, _ = reg.Value("y")
	chk.Array(tst, "y", 1e-17, val, []float64{1.5, -2.5})

	// size validation
	err = reg.SetValue("y", []float64{1.0})
	var sm *SizeMismatchError
	require.ErrorAs(tst, err, &sm)

	// kind filter preserves declaration order
	chk.Ints(tst, "sizes", []int{1, 2}, []int{reg.Variables(0)[0].Size, reg.Variables(0)[1].Size})
	require.Equal(tst, []string{"x"}, reg.Variables(Design).Names())
	require.Equal(tst, []string{"y"}, reg.Variables(Coupling).Names())
}

func Test_registry02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("registry02. bounds policies")

	// reject (default)
	reg := NewRegistry()
	reg.Declare(NewBounded("x", Design, 0, 1))
	err := reg.SetValue("x", []float64{2})
	var be *BoundsError
	require.ErrorAs(tst, err, &be)
	require.Equal(tst, 0, be.Idx)
	chk.Float64(tst, "offending value", 1e-17, be.Value, 2)

	// rejected set must not modify the stored value
	val, _ := reg.Value("x")
	chk.Array(tst, "x unchanged", 1e-17, val, []float64{0})

	// clamp
	reg.Policy = Clamp
	err = reg.SetValue("x", []float64{2})
	require.NoError(tst, err)
	val, _ = reg.Value("x")
	chk.Array(tst, "x clamped", 1e-17, val, []float64{1})
}

func Test_registry03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("registry03. snapshot/restore round-trip")

	reg := NewRegistry()
	reg.Declare(NewBounded("x", Design, -10, 10))
	reg.Declare(&Variable{Name: "y", Kind: Coupling, Size: 3, Lb: -100, Ub: 100})
	reg.SetValue("x", []float64{0.1})
	reg.SetValue("y", []float64{1.0 / 3.0, -2.0 / 7.0, 1e-13})

	snap := reg.Snapshot()

	// perturb as a finite-difference probe would
	reg.SetValue("x", []float64{0.1 + 1e-6})
	reg.SetValue("y", []float64{9, 9, 9})

	reg.Restore(snap)
	x, _ := reg.Value("x")
	y, _ := reg.Value("y")
	chk.Array(tst, "x restored", 0, x, []float64{0.1})
	chk.Array(tst, "y restored", 0, y, []float64{1.0 / 3.0, -2.0 / 7.0, 1e-13})

	// restore is repeatable: the snapshot is not consumed
	reg.SetValue("x", []float64{5})
	reg.Restore(snap)
	x, _ = reg.Value("x")
	chk.Array(tst, "x restored again", 0, x, []float64{0.1})
}

func Test_values01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("values01. join/split and verification")

	x := NewBounded("x", Design, 0, 10)
	y := &Variable{Name: "y", Kind: Coupling, Size: 2, Lb: -100, Ub: 100}
	vars := VarList{x, y}

	vals := Values{"x": {1}, "y": {2, 3}}
	chk.Array(tst, "join", 1e-17, vals.Join(vars), []float64{1, 2, 3})

	back := Split(vars, []float64{1, 2, 3})
	chk.Array(tst, "split x", 1e-17, back["x"], []float64{1})
	chk.Array(tst, "split y", 1e-17, back["y"], []float64{2, 3})

	require.NoError(tst, vals.Verify(vars))
	require.Error(tst, Values{"x": {1}}.Verify(vars))              // missing y
	require.Error(tst, Values{"x": {1}, "y": {2}}.Verify(vars))    // wrong size
	require.Error(tst, Values{"x": {1, 2}, "y": {2, 3}}.Verify(vars)) // wrong size

	// total size and bounds expansion
	chk.Ints(tst, "total size", []int{vars.TotalSize()}, []int{3})
	lb, ub := vars.Bounds()
	chk.Array(tst, "lb", 1e-17, lb, []float64{0, -100, -100})
	chk.Array(tst, "ub", 1e-17, ub, []float64{10, 100, 100})
}

func Test_norm01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("norm01. value/gradient normalization")

	v := NewBounded("z", Design, -2, 6)
	chk.Array(tst, "norm", 1e-15, v.NormValues([]float64{-2, 2, 6}), []float64{0, 0.5, 1})
	chk.Array(tst, "denorm", 1e-15, v.DenormValues([]float64{0, 0.5, 1}), []float64{-2, 2, 6})
	chk.Array(tst, "norm grad", 1e-15, v.NormGrad([]float64{1}), []float64{8})
	chk.Array(tst, "denorm grad", 1e-15, v.DenormGrad([]float64{8}), []float64{1})

	// unbounded variables cannot be normalized
	u := NewScalar("u", Design)
	if u.HasFiniteBounds() {
		tst.Errorf("unbounded variable reported finite bounds")
	}
}
