// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"math"
)

// Values maps variable names to value vectors
type Values map[string][]float64

// GetCopy returns a deep copy restricted to the given variables;
// names without a value are skipped
func (o Values) GetCopy(vars VarList) (res Values) {
	res = make(Values, len(vars))
	for _, v := range vars {
		if val, ok := o[v.Name]; ok {
			c := make([]float64, len(val))
			copy(c, val)
			res[v.Name] = c
		}
	}
	return
}

// Update copies entries from other into this map (deep copy)
func (o Values) Update(other Values) {
	for name, val := range other {
		c := make([]float64, len(val))
		copy(c, val)
		o[name] = c
	}
}

// Verify checks that every variable has a value of the correct size.
// Scalars given as 1-vectors pass; anything missing or mis-sized fails.
func (o Values) Verify(vars VarList) error {
	for _, v := range vars {
		val, ok := o[v.Name]
		if !ok {
			return &UnknownVariableError{Name: v.Name}
		}
		if len(val) != v.Size {
			return &SizeMismatchError{Name: v.Name, Got: len(val), Want: v.Size}
		}
		for _, x := range val {
			if math.IsNaN(x) {
				return &InvalidValueError{Name: v.Name}
			}
		}
	}
	return nil
}

// Join concatenates the values of the given variables into a single vector
func (o Values) Join(vars VarList) (x []float64) {
	x = make([]float64, 0, vars.TotalSize())
	for _, v := range vars {
		x = append(x, o[v.Name]...)
	}
	return
}

// Split fills a Values map from a concatenated vector; inverse of Join
func Split(vars VarList, x []float64) (res Values) {
	res = make(Values, len(vars))
	idx := 0
	for _, v := range vars {
		val := make([]float64, v.Size)
		copy(val, x[idx:idx+v.Size])
		res[v.Name] = val
		idx += v.Size
	}
	return
}

// Dist returns the squared Euclidean distance between the entries of two
// maps, restricted to the given variables
func Dist(vars VarList, a, b Values) (d float64) {
	for _, v := range vars {
		av, bv := a[v.Name], b[v.Name]
		for i := range av {
			r := av[i] - bv[i]
			d += r * r
		}
	}
	return
}
