package decl

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// DeclID indexes Unit.Decls.
type DeclID uint32

// Graph holds value containment between declarations: Edges[from] lists
// the declarations that contain from by value.
type Graph struct {
	Edges   [][]DeclID
	Indeg   []int  // number of declarations each one contains
	Present []bool // declaration takes part (not broken)
}

func declID(i int) DeclID {
	id, err := safecast.Conv[DeclID](i)
	if err != nil {
		panic(fmt.Errorf("declaration id overflow: %w", err))
	}
	return id
}

// BuildGraph collects the value dependencies of the unit's usable
// declarations.
func (u *Unit) BuildGraph() Graph {
	n := len(u.Decls)
	g := Graph{
		Edges:   make([][]DeclID, n),
		Indeg:   make([]int, n),
		Present: make([]bool, n),
	}
	index := make(map[*Decl]DeclID, n)
	for i, d := range u.Decls {
		index[d] = declID(i)
		g.Present[i] = !d.Broken
	}
	for i, d := range u.Decls {
		if d.Broken {
			continue
		}
		for _, name := range d.Deps {
			dep, ok := u.byName[name]
			if !ok || dep.Broken {
				continue
			}
			from := index[dep]
			g.Edges[from] = append(g.Edges[from], declID(i))
			g.Indeg[i]++
		}
	}
	for i := range g.Edges {
		if len(g.Edges[i]) > 1 {
			slices.Sort(g.Edges[i])
		}
	}
	return g
}

// Topo is a layering of a Graph.
type Topo struct {
	Order   []DeclID   // dependencies before dependents
	Batches [][]DeclID // waves whose members do not contain each other
	Cyclic  bool
	Cycles  []DeclID // declarations on or behind a containment cycle
}

// ToposortKahn layers g. Declarations left over belong to, or contain, a
// cycle; the layout engine reports those.
func ToposortKahn(g Graph) *Topo {
	nodeCount := len(g.Edges)
	indeg := make([]int, len(g.Indeg))
	copy(indeg, g.Indeg)

	topo := &Topo{
		Order:   make([]DeclID, 0, nodeCount),
		Batches: make([][]DeclID, 0),
	}

	active := 0
	for i := range nodeCount {
		if g.Present[i] {
			active++
		}
	}

	current := make([]DeclID, 0, nodeCount)
	for i := range nodeCount {
		if g.Present[i] && indeg[i] == 0 {
			current = append(current, declID(i))
		}
	}

	visited := 0
	for len(current) > 0 {
		batch := make([]DeclID, len(current))
		copy(batch, current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]DeclID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, to := range g.Edges[int(id)] {
				if !g.Present[int(to)] {
					continue
				}
				indeg[int(to)]--
				if indeg[int(to)] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != active {
		topo.Cyclic = true
		for i := range nodeCount {
			if g.Present[i] && indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, declID(i))
			}
		}
	}
	return topo
}
