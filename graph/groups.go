// Copyright 2026 The Gomdo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graph

import (
	"sort"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gomdo/disc"
)

// computeGroups partitions the disciplines into strongly-connected
// components and orders the components so that producers come before
// consumers. Naive recursive evaluation of a cyclic graph would not
// terminate; cycles become multi-discipline groups instead.
func (o *Graph) computeGroups() []*Group {
	n := len(o.Discs)
	idx := make(map[*disc.Disc]int, n)
	dg := simple.NewDirectedGraph()
	for i, d := range o.Discs {
		idx[d] = i
		dg.AddNode(simple.Node(i))
	}
	for i, d := range o.Discs {
		for _, v := range d.OutVars {
			for _, c := range o.consumers[v.Name] {
				if j := idx[c]; j != i {
					dg.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(j)})
				}
			}
		}
	}

	// strongly-connected components, members in declaration order
	sccs := topo.TarjanSCC(dg)
	comp := make([]int, n)
	members := make([][]int, len(sccs))
	for k, scc := range sccs {
		for _, node := range scc {
			v := int(node.ID())
			comp[v] = k
			members[k] = append(members[k], v)
		}
		sort.Ints(members[k])
	}

	// condensation: one node per component, inter-component edges only
	cond := simple.NewDirectedGraph()
	for k := range sccs {
		cond.AddNode(simple.Node(k))
	}
	edges := dg.Edges()
	for edges.Next() {
		e := edges.Edge()
		a, b := comp[int(e.From().ID())], comp[int(e.To().ID())]
		if a != b {
			cond.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
		}
	}

	// producer-before-consumer order; ties broken by declaration order
	// so the group sequence does not depend on map iteration
	order, err := topo.SortStabilized(cond, func(ns []gonumgraph.Node) {
		sort.Slice(ns, func(i, j int) bool {
			return members[int(ns[i].ID())][0] < members[int(ns[j].ID())][0]
		})
	})
	if err != nil {
		chk.Panic("cannot order execution groups: %v", err)
	}

	groups := make([]*Group, 0, len(sccs))
	for _, node := range order {
		k := int(node.ID())
		g := &Group{Cyclic: len(members[k]) > 1}
		for _, v := range members[k] {
			g.Discs = append(g.Discs, o.Discs[v])
		}
		groups = append(groups, g)
	}
	return groups
}
