// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

import (
	"github.com/cpmech/gosl/io"
)

// DuplicateVariableError reports a Declare call with a name that exists
type DuplicateVariableError struct {
	Name string
}

func (o *DuplicateVariableError) Error() string {
	return io.Sf("variable %q is already declared", o.Name)
}

// UnknownVariableError reports access to an undeclared variable
type UnknownVariableError struct {
	Name string
}

func (o *UnknownVariableError) Error() string {
	return io.Sf("variable %q is not declared", o.Name)
}

// SizeMismatchError reports a value with the wrong vector length
type SizeMismatchError struct {
	Name      string
	Got, Want int
}

func (o *SizeMismatchError) Error() string {
	return io.Sf("variable %q: value has size %d but %d is expected", o.Name, o.Got, o.Want)
}

// InvalidValueError reports a NaN component in a value
type InvalidValueError struct {
	Name string
}

func (o *InvalidValueError) Error() string {
	return io.Sf("variable %q: value has NaN component", o.Name)
}

// BoundsError reports a rejected out-of-bounds value. Idx is the first
// offending component.
type BoundsError struct {
	Name          string
	Idx           int
	Value, Lb, Ub float64
}

func (o *BoundsError) Error() string {
	return io.Sf("variable %q: component %d = %g is outside [%g,%g]", o.Name, o.Idx, o.Value, o.Lb, o.Ub)
}
