// Package bus implements C11: a directed acyclic graph of buses summing
// track and bus outputs up to a master bus, stored as a flat array of
// nodes with integer indices rather than owning pointers, so iteration
// order and cache behavior stay predictable on the audio thread.
package bus

import (
	"math"

	"github.com/schollz/audioforge/internal/eq"
	"github.com/schollz/audioforge/internal/loudness"
	"github.com/schollz/audioforge/internal/types"
)

// Node is one bus in the graph: an index-addressed mix point with its
// own EQ/gain stage, feeding a parent bus by index (or the master when
// parent == masterIndex).
type Node struct {
	ID       types.ID
	Name     string
	ParentIx int // index into Graph.nodes; -1 for the master bus itself
	GainDB   float64
	Muted    bool
	EQ       *eq.Stack

	// bufL/bufR back a node that the caller's input maps don't cover for a
	// given block (no external writer this block, or a grandchild bus
	// summing into a parent the caller never populated). Grown once then
	// reused, so a multi-bus graph never forces Render to allocate.
	bufL []float32
	bufR []float32
}

// pooledBuf returns which (growing it to length if undersized) zeroed,
// for use as a node's input buffer when the caller didn't supply one.
func pooledBuf(which *[]float32, length int) []float32 {
	if cap(*which) < length {
		*which = make([]float32, length)
	}
	b := (*which)[:length]
	for i := range b {
		b[i] = 0
	}
	return b
}

// Graph is C11. Index 0 is always the master bus.
type Graph struct {
	sampleRate float64
	nodes      []*Node
	master     *loudness.Meter
}

const MasterIndex = 0

func New(sampleRate float64) *Graph {
	master := &Node{ID: types.NewID(), Name: "master", ParentIx: -1, EQ: eq.NewStack(sampleRate, 2048)}
	return &Graph{
		sampleRate: sampleRate,
		nodes:      []*Node{master},
		master:     loudness.NewMeter(sampleRate),
	}
}

func (g *Graph) Master() *Node { return g.nodes[MasterIndex] }
func (g *Graph) MeterTap() *loudness.Meter { return g.master }

// AddBus appends a new bus under parentIx, rejecting the add if it would
// create a cycle (spec.md C11 "Cycle rejection on add/modify: topological
// order is verified").
func (g *Graph) AddBus(name string, parentIx int) (int, error) {
	if parentIx < 0 || parentIx >= len(g.nodes) {
		return -1, types.NewError(types.InvalidParameter, "bus.AddBus", "parent index out of range")
	}
	ix := len(g.nodes)
	g.nodes = append(g.nodes, &Node{
		ID: types.NewID(), Name: name, ParentIx: parentIx,
		EQ: eq.NewStack(g.sampleRate, 2048),
	})
	if _, err := g.topoOrder(); err != nil {
		g.nodes = g.nodes[:ix]
		return -1, err
	}
	return ix, nil
}

// Reparent changes a bus's parent, verified against cycles before commit.
func (g *Graph) Reparent(ix, newParentIx int) error {
	if ix <= MasterIndex || ix >= len(g.nodes) {
		return types.NewError(types.InvalidParameter, "bus.Reparent", "invalid node index")
	}
	if newParentIx < 0 || newParentIx >= len(g.nodes) {
		return types.NewError(types.InvalidParameter, "bus.Reparent", "invalid parent index")
	}
	old := g.nodes[ix].ParentIx
	g.nodes[ix].ParentIx = newParentIx
	if _, err := g.topoOrder(); err != nil {
		g.nodes[ix].ParentIx = old
		return err
	}
	return nil
}

// topoOrder returns node indices in child-before-parent render order, or
// a GraphCycle error if the parent chain loops.
func (g *Graph) topoOrder() ([]int, error) {
	depth := make([]int, len(g.nodes))
	for i := range g.nodes {
		if i == MasterIndex {
			continue
		}
		seen := map[int]bool{i: true}
		cur := g.nodes[i].ParentIx
		d := 1
		for cur != MasterIndex {
			if cur < 0 || cur >= len(g.nodes) {
				return nil, types.NewError(types.GraphCycle, "bus.topoOrder", "dangling parent index")
			}
			if seen[cur] {
				return nil, types.NewError(types.GraphCycle, "bus.topoOrder", "cycle detected in bus graph")
			}
			seen[cur] = true
			cur = g.nodes[cur].ParentIx
			d++
			if d > len(g.nodes)+1 {
				return nil, types.NewError(types.GraphCycle, "bus.topoOrder", "cycle detected in bus graph")
			}
		}
		depth[i] = d
	}

	order := make([]int, 0, len(g.nodes))
	for i := range g.nodes {
		if i != MasterIndex {
			order = append(order, i)
		}
	}
	// stable sort by descending depth: deepest children render first
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && depth[order[j]] > depth[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	order = append(order, MasterIndex)
	return order, nil
}

// Render sums each non-master node's input buffer into its parent, runs
// each node's EQ/gain stage, and finally taps the master's LUFS meter.
// inputs maps node index to that bus's freshly-summed stereo input for
// this block (tracks write into these via their sends/direct outputs
// before Render is called).
func (g *Graph) Render(inputL, inputR map[int][]float32, outL, outR []float32) error {
	order, err := g.topoOrder()
	if err != nil {
		return err
	}
	n := len(outL)

	for _, ix := range order {
		node := g.nodes[ix]
		bl := inputL[ix]
		br := inputR[ix]
		if bl == nil {
			bl = pooledBuf(&node.bufL, n)
		}
		if br == nil {
			br = pooledBuf(&node.bufR, n)
		}

		if node.EQ != nil {
			node.EQ.ProcessBlock(bl)
			node.EQ.ProcessBlock(br)
		}
		gain := dbToLinearBus(node.GainDB)
		if node.Muted {
			gain = 0
		}
		for i := 0; i < n; i++ {
			bl[i] *= float32(gain)
			br[i] *= float32(gain)
		}

		if ix == MasterIndex {
			copy(outL, bl)
			copy(outR, br)
			g.master.ProcessBlock(bl, br)
		} else {
			parent := g.nodes[node.ParentIx]
			parentL := inputL[node.ParentIx]
			parentR := inputR[node.ParentIx]
			if parentL == nil {
				parentL = pooledBuf(&parent.bufL, n)
				inputL[node.ParentIx] = parentL
			}
			if parentR == nil {
				parentR = pooledBuf(&parent.bufR, n)
				inputR[node.ParentIx] = parentR
			}
			for i := 0; i < n; i++ {
				parentL[i] += bl[i]
				parentR[i] += br[i]
			}
		}
	}
	return nil
}

func dbToLinearBus(db float64) float64 {
	return math.Pow(10, db/20)
}
