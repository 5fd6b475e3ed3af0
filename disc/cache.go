// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package disc

import (
	"encoding/json"
	"math"
	"os"

	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gomdo/core"
)

// CachePolicy selects how many entries the evaluation cache keeps
type CachePolicy int

const (
	Latest CachePolicy = iota // keep only the most recent entry
	Full                      // keep the whole evaluation history
)

// Cache stores evaluated outputs and Jacobians keyed by input values.
// Lookups match inputs within a tolerance, so repeated evaluations at
// the same point (e.g. by the optimizer and then by the MDA solver)
// skip the discipline computation.
type Cache struct {
	policy  CachePolicy
	tol     float64
	inVars  core.VarList
	outVars core.VarList
	entries []*cacheEntry // the last entry is the most recent
}

type cacheEntry struct {
	In  core.Values                       `json:"inputs"`
	Out core.Values                       `json:"outputs,omitempty"`
	Jac map[string]map[string][][]float64 `json:"jac,omitempty"`
}

// NewCache returns an empty cache. tol is the componentwise input
// matching tolerance.
func NewCache(policy CachePolicy, tol float64, inVars, outVars core.VarList) *Cache {
	return &Cache{policy: policy, tol: tol, inVars: inVars, outVars: outVars}
}

// Len returns the number of stored entries
func (o *Cache) Len() int { return len(o.entries) }

// match tells whether two input sets agree within tol, componentwise
func (o *Cache) match(a, b core.Values) bool {
	for _, v := range o.inVars {
		av, bv := a[v.Name], b[v.Name]
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if math.Abs(av[i]-bv[i]) > o.tol {
				return false
			}
		}
	}
	return true
}

// find scans newest-first
func (o *Cache) find(in core.Values) *cacheEntry {
	for i := len(o.entries) - 1; i >= 0; i-- {
		if o.match(o.entries[i].In, in) {
			return o.entries[i]
		}
	}
	return nil
}

// Find returns the cached outputs and Jacobian for the given inputs,
// or nils when no entry matches
func (o *Cache) Find(in core.Values) (out core.Values, jac Jacobian) {
	e := o.find(in)
	if e == nil {
		return nil, nil
	}
	if len(e.Out) > 0 {
		out = e.Out.GetCopy(o.outVars)
	}
	if len(e.Jac) > 0 {
		jac = make(Jacobian, len(e.Jac))
		for outName, inner := range e.Jac {
			for inName, rows := range inner {
				jac.Set(outName, inName, denseFromRows(rows))
			}
		}
	}
	return
}

// Add stores outputs and/or a Jacobian for the given inputs. An
// existing matching entry is completed rather than duplicated.
func (o *Cache) Add(in core.Values, out core.Values, jac Jacobian) {
	e := o.find(in)
	fresh := e == nil
	if fresh {
		e = &cacheEntry{In: in.GetCopy(o.inVars)}
	}
	if out != nil {
		e.Out = out.GetCopy(o.outVars)
	}
	if jac != nil {
		e.Jac = make(map[string]map[string][][]float64, len(jac))
		for outName, inner := range jac {
			e.Jac[outName] = make(map[string][][]float64, len(inner))
			for inName, block := range inner {
				e.Jac[outName][inName] = rowsFromDense(block)
			}
		}
	}
	switch o.policy {
	case Latest:
		o.entries = []*cacheEntry{e}
	case Full:
		if fresh {
			o.entries = append(o.entries, e)
		}
	}
}

// Save writes the entry history as JSON
func (o *Cache) Save(path string) error {
	b, err := json.MarshalIndent(o.entries, "", "  ")
	if err != nil {
		return chk.Err("cannot encode cache: %v", err)
	}
	return os.WriteFile(path, b, 0644)
}

// Load replaces the entry history from a JSON file
func (o *Cache) Load(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return chk.Err("cannot read cache file %q: %v", path, err)
	}
	var entries []*cacheEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return chk.Err("cannot decode cache file %q: %v", path, err)
	}
	o.entries = entries
	return nil
}

func rowsFromDense(block *mat.Dense) [][]float64 {
	r, c := block.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			rows[i][j] = block.At(i, j)
		}
	}
	return rows
}

func denseFromRows(rows [][]float64) *mat.Dense {
	r := len(rows)
	c := len(rows[0])
	block := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			block.Set(i, j, rows[i][j])
		}
	}
	return block
}
