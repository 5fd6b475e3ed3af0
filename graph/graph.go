// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package graph implements the coupling graph: disciplines as nodes,
// producer→consumer variable flows as edges, partitioned into an
// ordered sequence of execution groups
package graph

import (
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
)

// ConflictingOutputError reports two disciplines producing the same variable
type ConflictingOutputError struct {
	Name string // variable
	A, B string // disciplines
}

func (o *ConflictingOutputError) Error() string {
	return io.Sf("variable %q is produced by both %q and %q", o.Name, o.A, o.B)
}

// UnresolvedInputError reports an input that is neither a design
// variable, nor a constant, nor produced by any discipline
type UnresolvedInputError struct {
	Name string // variable
	Disc string // consumer
}

func (o *UnresolvedInputError) Error() string {
	return io.Sf("input %q of discipline %q is neither a design variable nor produced by any discipline", o.Name, o.Disc)
}

// DanglingCouplingError reports a declared coupling variable without a
// producer or without any consumer. Every coupling variable must have
// exactly one producer and at least one consumer.
type DanglingCouplingError struct {
	Name     string // variable
	Producer string // producing discipline; "" when nobody produces it
}

func (o *DanglingCouplingError) Error() string {
	if o.Producer == "" {
		return io.Sf("coupling variable %q is not produced by any discipline", o.Name)
	}
	return io.Sf("coupling variable %q is produced by %q but consumed by no discipline", o.Name, o.Producer)
}

// Group is one execution unit: a single discipline for acyclic nodes,
// or the disciplines of one strongly-connected component, which must be
// solved jointly by the MDA solver
type Group struct {
	Discs  []*disc.Disc
	Cyclic bool
}

// Graph holds the disciplines and the induced edge structure. The
// structure is immutable after New; only variable values change.
type Graph struct {
	Reg   *core.Registry
	Discs []*disc.Disc

	producer  map[string]*disc.Disc   // variable → producing discipline
	consumers map[string][]*disc.Disc // variable → consuming disciplines
	groups    []*Group                // execution order
}

// New builds the coupling graph and its execution groups.
// All discipline variables must be declared in the registry.
func New(reg *core.Registry, discs []*disc.Disc) (*Graph, error) {
	o := &Graph{
		Reg:       reg,
		Discs:     discs,
		producer:  make(map[string]*disc.Disc),
		consumers: make(map[string][]*disc.Disc),
	}

	// producer map; conflicting outputs are fatal
	for _, d := range discs {
		for _, v := range d.OutVars {
			if prev, ok := o.producer[v.Name]; ok {
				return nil, &ConflictingOutputError{Name: v.Name, A: prev.Name, B: d.Name}
			}
			o.producer[v.Name] = d
		}
	}

	// consumer map; unresolved inputs are fatal
	for _, d := range discs {
		for _, v := range d.InVars {
			if _, ok := o.producer[v.Name]; ok {
				o.consumers[v.Name] = append(o.consumers[v.Name], d)
				continue
			}
			if v.Kind == core.Design || v.Kind == core.Constant {
				continue
			}
			return nil, &UnresolvedInputError{Name: v.Name, Disc: d.Name}
		}
	}

	// every declared coupling needs one producer and at least one consumer
	for _, v := range reg.Variables(core.Coupling) {
		p, ok := o.producer[v.Name]
		if !ok {
			return nil, &DanglingCouplingError{Name: v.Name}
		}
		if len(o.consumers[v.Name]) == 0 {
			return nil, &DanglingCouplingError{Name: v.Name, Producer: p.Name}
		}
	}

	// every variable must be declared
	for _, d := range discs {
		for _, v := range append(d.InVars.Names(), d.OutVars.Names()...) {
			if _, err := reg.Get(v); err != nil {
				return nil, err
			}
		}
	}

	o.groups = o.computeGroups()
	return o, nil
}

// Producer returns the discipline producing a variable, or nil
func (o *Graph) Producer(name string) *disc.Disc {
	return o.producer[name]
}

// Consumers returns the disciplines consuming a produced variable
func (o *Graph) Consumers(name string) []*disc.Disc {
	return o.consumers[name]
}

// Couplings returns the coupling variables of a set of disciplines:
// outputs of one member consumed by another member, in producer order
func Couplings(discs []*disc.Disc) (res core.VarList) {
	inAll := make(map[string]bool)
	for _, d := range discs {
		for _, v := range d.InVars {
			inAll[v.Name] = true
		}
	}
	for _, d := range discs {
		for _, v := range d.OutVars {
			if inAll[v.Name] && !res.Has(v.Name) {
				res = append(res, v)
			}
		}
	}
	return
}

// AllCouplings returns the coupling variables of the whole graph
func (o *Graph) AllCouplings() core.VarList {
	return Couplings(o.Discs)
}

// Groups returns the execution groups in producer-before-consumer
// order: singleton acyclic groups are evaluated once in sequence, and
// cyclic groups are handed to the MDA solver as a unit
func (o *Graph) Groups() []*Group {
	return o.groups
}
