// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disc

import (
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/gomdo/core"
)

func Test_cache01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cache01. latest policy skips re-evaluation")

	inVars, outVars := paraboloidVars()
	d := New("Cached", paraboloidNoJac{}, inVars, outVars)

	at := core.Values{"x": {2}, "z": {0}}
	_, err := d.Eval(at)
	require.NoError(tst, err)
	require.Equal(tst, 1, d.Neval)

	// same point within tolerance: cache hit
	_, err = d.Eval(core.Values{"x": {2 + 1e-12}, "z": {0}})
	require.NoError(tst, err)
	require.Equal(tst, 1, d.Neval)

	// different point: miss, and with Latest the old entry is dropped
	_, err = d.Eval(core.Values{"x": {5}, "z": {0}})
	require.NoError(tst, err)
	require.Equal(tst, 2, d.Neval)
	require.Equal(tst, 1, d.Cache().Len())

	_, err = d.Eval(at)
	require.NoError(tst, err)
	require.Equal(tst, 3, d.Neval)
}

func Test_cache02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cache02. full policy keeps history; save/load round-trip")

	inVars, outVars := paraboloidVars()
	d := New("Full", paraboloid{}, inVars, outVars)
	d.SetCache(NewCache(Full, 1e-9, inVars, outVars))

	pts := [][]float64{{0, 0}, {1, 1}, {2, 2}}
	for _, p := range pts {
		_, err := d.Eval(core.Values{"x": {p[0]}, "z": {p[1]}})
		require.NoError(tst, err)
	}
	require.Equal(tst, 3, d.Cache().Len())

	// revisiting any old point is a hit
	_, err := d.Eval(core.Values{"x": {0}, "z": {0}})
	require.NoError(tst, err)
	require.Equal(tst, 3, d.Neval)

	// jacobian completes the existing entry
	_, err = d.Diff(core.Values{"x": {1}, "z": {1}})
	require.NoError(tst, err)
	require.Equal(tst, 3, d.Cache().Len())

	// save and reload into a fresh cache
	path := filepath.Join(tst.TempDir(), "full.json")
	require.NoError(tst, d.Cache().Save(path))

	c2 := NewCache(Full, 1e-9, inVars, outVars)
	require.NoError(tst, c2.Load(path))
	require.Equal(tst, 3, c2.Len())

	out, jac := c2.Find(core.Values{"x": {1}, "z": {1}})
	require.NotNil(tst, out)
	require.NotNil(tst, jac)
	chk.Float64(tst, "cached f", 1e-15, out["f"][0], 9)
	chk.Float64(tst, "cached dfdx", 1e-15, jac.Get("f", "x").At(0, 0), 0)
	chk.Float64(tst, "cached dfdz", 1e-15, jac.Get("f", "z").At(0, 0), 6)
}

func Test_cache03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("cache03. cached jacobian is reused")

	inVars, outVars := paraboloidVars()
	d := New("Jac", paraboloid{}, inVars, outVars)

	at := core.Values{"x": {3}, "z": {0}}
	_, err := d.Diff(at)
	require.NoError(tst, err)
	require.Equal(tst, 1, d.Ndiff)

	_, err = d.Diff(at)
	require.NoError(tst, err)
	require.Equal(tst, 1, d.Ndiff) // second call served from cache
}
