// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package core

// BoundsPolicy selects what SetValue does with out-of-bounds components
type BoundsPolicy int

const (
	Reject BoundsPolicy = iota // fail with BoundsError
	Clamp                      // clip to [Lb,Ub]
)

// Registry is the canonical per-problem store of variables and their
// current values. One instance exists per optimization run; concurrent
// runs use independent registries.
type Registry struct {
	Policy BoundsPolicy // out-of-bounds handling for SetValue

	order []string             // declaration order
	vars  map[string]*Variable // metadata by name
	vals  Values               // current values by name
}

// Snapshot is an opaque deep copy of the registry values, used to
// bracket speculative evaluations such as finite-difference probes
type Snapshot struct {
	vals Values
}

// NewRegistry returns an empty registry with the Reject bounds policy
func NewRegistry() *Registry {
	return &Registry{
		vars: make(map[string]*Variable),
		vals: make(Values),
	}
}

// Declare adds a variable, zero-initialized.
// Returns DuplicateVariableError if the name is taken.
func (o *Registry) Declare(v *Variable) error {
	if _, ok := o.vars[v.Name]; ok {
		return &DuplicateVariableError{Name: v.Name}
	}
	if v.Size < 1 {
		v.Size = 1
	}
	o.order = append(o.order, v.Name)
	o.vars[v.Name] = v
	o.vals[v.Name] = make([]float64, v.Size)
	return nil
}

// Get returns the variable metadata.
// Returns UnknownVariableError if absent.
func (o *Registry) Get(name string) (*Variable, error) {
	v, ok := o.vars[name]
	if !ok {
		return nil, &UnknownVariableError{Name: name}
	}
	return v, nil
}

// Value returns a copy of the current value of a variable
func (o *Registry) Value(name string) ([]float64, error) {
	val, ok := o.vals[name]
	if !ok {
		return nil, &UnknownVariableError{Name: name}
	}
	c := make([]float64, len(val))
	copy(c, val)
	return c, nil
}

// SetValue validates the size of val and stores it. Out-of-bounds
// components are rejected or clamped according to Policy.
func (o *Registry) SetValue(name string, val []float64) error {
	v, ok := o.vars[name]
	if !ok {
		return &UnknownVariableError{Name: name}
	}
	if len(val) != v.Size {
		return &SizeMismatchError{Name: name, Got: len(val), Want: v.Size}
	}
	c := make([]float64, v.Size)
	copy(c, val)
	for i, x := range c {
		if x < v.Lb || x > v.Ub {
			if o.Policy == Reject {
				return &BoundsError{Name: name, Idx: i, Value: x, Lb: v.Lb, Ub: v.Ub}
			}
			if x < v.Lb {
				c[i] = v.Lb
			} else {
				c[i] = v.Ub
			}
		}
	}
	o.vals[name] = c
	return nil
}

// SetValues stores several values at once
func (o *Registry) SetValues(vals Values) error {
	for name, val := range vals {
		if err := o.SetValue(name, val); err != nil {
			return err
		}
	}
	return nil
}

// Variables returns the declared variables in declaration order,
// optionally filtered by kind (pass 0 for all)
func (o *Registry) Variables(kind Kind) (res VarList) {
	for _, name := range o.order {
		v := o.vars[name]
		if kind == 0 || v.Kind == kind {
			res = append(res, v)
		}
	}
	return
}

// Values returns a deep copy of all current values
func (o *Registry) Values() Values {
	return o.vals.GetCopy(o.Variables(0))
}

// Snapshot captures the current values
func (o *Registry) Snapshot() *Snapshot {
	return &Snapshot{vals: o.Values()}
}

// Restore puts the values back exactly as they were at snapshot time
func (o *Registry) Restore(s *Snapshot) {
	o.vals = make(Values, len(s.vals))
	o.vals.Update(s.vals)
}
