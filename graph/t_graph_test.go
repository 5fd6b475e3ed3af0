// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/require"

	"github.com/cpmech/gomdo/core"
	"github.com/cpmech/gomdo/disc"
)

// passthrough copies each declared output from an input named "src:"+out
// and is only used to give test graphs a valid evaluator
type passthrough struct{ outs []string }

func (p passthrough) Evaluate(in core.Values) (core.Values, error) {
	res := make(core.Values, len(p.outs))
	for _, name := range p.outs {
		res[name] = []float64{0}
	}
	return res, nil
}

// build declares scalar variables and wires disciplines from a wiring
// table of the form name → (inputs, outputs)
func build(tst *testing.T, reg *core.Registry, names []string, ins, outs map[string][]string, kinds map[string]core.Kind) []*disc.Disc {
	declared := make(map[string]bool)
	declare := func(varNames []string, owner string, kindIfNew core.Kind) core.VarList {
		var vl core.VarList
		for _, vn := range varNames {
			kind := kindIfNew
			if k, ok := kinds[vn]; ok {
				kind = k
			}
			v := &core.Variable{Name: vn, Kind: kind, Size: 1}
			vl = append(vl, v)
			if !declared[vn] {
				v2 := *v
				v2.Owner = owner
				require.NoError(tst, reg.Declare(&v2))
				declared[vn] = true
			}
		}
		return vl
	}
	var discs []*disc.Disc
	for _, name := range names {
		inVars := declare(ins[name], "", core.Coupling)
		outVars := declare(outs[name], name, core.Coupling)
		discs = append(discs, disc.New(name, passthrough{outs: outs[name]}, inVars, outVars))
	}
	return discs
}

func groupNames(groups []*Group) (res [][]string) {
	for _, g := range groups {
		var names []string
		for _, d := range g.Discs {
			names = append(names, d.Name)
		}
		res = append(res, names)
	}
	return
}

func Test_graph01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph01. acyclic chain: singleton groups in order")

	reg := core.NewRegistry()
	kinds := map[string]core.Kind{"x": core.Design, "f": core.Objective}
	discs := build(tst, reg,
		[]string{"C", "A", "B"}, // declaration order is not execution order
		map[string][]string{"A": {"x"}, "B": {"ya"}, "C": {"yb"}},
		map[string][]string{"A": {"ya"}, "B": {"yb"}, "C": {"f"}},
		kinds)

	g, err := New(reg, discs)
	require.NoError(tst, err)

	groups := g.Groups()
	require.Equal(tst, [][]string{{"A"}, {"B"}, {"C"}}, groupNames(groups))
	for _, grp := range groups {
		require.False(tst, grp.Cyclic)
	}
}

func Test_graph02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph02. cycle detected as one multi-discipline group")

	reg := core.NewRegistry()
	kinds := map[string]core.Kind{"x": core.Design, "f": core.Objective}
	discs := build(tst, reg,
		[]string{"D1", "D2", "Obj"},
		map[string][]string{"D1": {"x", "y2"}, "D2": {"y1"}, "Obj": {"y1", "y2"}},
		map[string][]string{"D1": {"y1"}, "D2": {"y2"}, "Obj": {"f"}},
		kinds)

	g, err := New(reg, discs)
	require.NoError(tst, err)

	groups := g.Groups()
	require.Equal(tst, [][]string{{"D1", "D2"}, {"Obj"}}, groupNames(groups))
	require.True(tst, groups[0].Cyclic)
	require.False(tst, groups[1].Cyclic)

	// couplings of the cyclic group
	cpl := Couplings(groups[0].Discs)
	require.ElementsMatch(tst, []string{"y1", "y2"}, cpl.Names())

	// f is produced but consumed by nobody: not a coupling
	all := g.AllCouplings()
	require.ElementsMatch(tst, []string{"y1", "y2"}, all.Names())

	// producer/consumer bookkeeping
	require.Equal(tst, "D1", g.Producer("y1").Name)
	require.Len(tst, g.Consumers("y1"), 2)
	require.Nil(tst, g.Producer("x"))
}

func Test_graph03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph03. build-time configuration errors")

	// conflicting output
	reg := core.NewRegistry()
	kinds := map[string]core.Kind{"x": core.Design}
	discs := build(tst, reg,
		[]string{"A", "B"},
		map[string][]string{"A": {"x"}, "B": {"x"}},
		map[string][]string{"A": {"y"}, "B": {"y"}},
		kinds)
	_, err := New(reg, discs)
	var conf *ConflictingOutputError
	require.ErrorAs(tst, err, &conf)
	require.Equal(tst, "y", conf.Name)

	// unresolved input: "ghost" is neither design nor produced
	reg = core.NewRegistry()
	discs = build(tst, reg,
		[]string{"A"},
		map[string][]string{"A": {"ghost"}},
		map[string][]string{"A": {"y"}},
		map[string]core.Kind{})
	_, err = New(reg, discs)
	var unres *UnresolvedInputError
	require.ErrorAs(tst, err, &unres)
	require.Equal(tst, "ghost", unres.Name)
	require.Equal(tst, "A", unres.Disc)
}

func Test_graph04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph04. two independent cycles stay separate groups")

	reg := core.NewRegistry()
	kinds := map[string]core.Kind{"x": core.Design}
	discs := build(tst, reg,
		[]string{"A1", "A2", "B1", "B2"},
		map[string][]string{
			"A1": {"x", "a2"}, "A2": {"a1"},
			"B1": {"a1", "b2"}, "B2": {"b1"},
		},
		map[string][]string{
			"A1": {"a1"}, "A2": {"a2"},
			"B1": {"b1"}, "B2": {"b2"},
		},
		kinds)

	g, err := New(reg, discs)
	require.NoError(tst, err)
	require.Equal(tst, [][]string{{"A1", "A2"}, {"B1", "B2"}}, groupNames(g.Groups()))
	require.True(tst, g.Groups()[0].Cyclic)
	require.True(tst, g.Groups()[1].Cyclic)
}

func Test_graph05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph05. coupling variables need a producer and a consumer")

	// produced but consumed by nobody
	reg := core.NewRegistry()
	kinds := map[string]core.Kind{"x": core.Design}
	discs := build(tst, reg,
		[]string{"A", "B"},
		map[string][]string{"A": {"x"}, "B": {"ya"}},
		map[string][]string{"A": {"ya"}, "B": {"orphan"}},
		kinds)
	_, err := New(reg, discs)
	var dang *DanglingCouplingError
	require.ErrorAs(tst, err, &dang)
	require.Equal(tst, "orphan", dang.Name)
	require.Equal(tst, "B", dang.Producer)

	// declared but produced by nobody
	reg = core.NewRegistry()
	require.NoError(tst, reg.Declare(&core.Variable{Name: "ghostc", Kind: core.Coupling, Size: 1}))
	kinds = map[string]core.Kind{"x": core.Design, "f": core.Objective}
	discs = build(tst, reg,
		[]string{"A"},
		map[string][]string{"A": {"x"}},
		map[string][]string{"A": {"f"}},
		kinds)
	_, err = New(reg, discs)
	dang = nil
	require.ErrorAs(tst, err, &dang)
	require.Equal(tst, "ghostc", dang.Name)
	require.Equal(tst, "", dang.Producer)
}

func Test_graph06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("graph06. independent disciplines keep declaration order")

	reg := core.NewRegistry()
	kinds := map[string]core.Kind{"x": core.Design, "u": core.Objective, "v": core.Constraint}
	discs := build(tst, reg,
		[]string{"Q", "P"},
		map[string][]string{"Q": {"x"}, "P": {"x"}},
		map[string][]string{"Q": {"u"}, "P": {"v"}},
		kinds)

	// no edges between Q and P: order must still be reproducible
	for i := 0; i < 5; i++ {
		g, err := New(reg, discs)
		require.NoError(tst, err)
		require.Equal(tst, [][]string{{"Q"}, {"P"}}, groupNames(g.Groups()))
	}
}
