/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cfg

import (
    `sort`

    `gonum.org/v1/gonum/graph`
    `gonum.org/v1/gonum/graph/simple`
    `gonum.org/v1/gonum/graph/topo`
)

func (self *CFG) graph() *simple.DirectedGraph {
    g := simple.NewDirectedGraph()
    for i := range self.Blocks {
        g.AddNode(simple.Node(i))
    }

    /* self loops are not representable in a simple graph */
    for i := range self.Blocks {
        for _, e := range self.Blocks[i].Next {
            if e.Block != i {
                g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(e.Block)))
            }
        }
    }

    /* all done */
    return g
}

func (self *CFG) components() [][]int {
    scc := topo.TarjanSCC(self.graph())
    cid := make([]int, len(self.Blocks))
    ret := make([][]int, len(scc))

    /* components are identified by their lowest block */
    sort.Slice(scc, func(i int, j int) bool { return minid(scc[i]) < minid(scc[j]) })

    /* assign the component IDs */
    for i, c := range scc {
        ret[i] = nodeids(c)
        for _, bb := range ret[i] {
            cid[bb] = i
        }
    }

    /* count the incoming edges of each component */
    deg := make([]int, len(ret))
    out := make([][]int, len(ret))
    for i := range self.Blocks {
        for _, e := range self.Blocks[i].Next {
            if cid[i] != cid[e.Block] {
                deg[cid[e.Block]]++
                out[cid[i]] = append(out[cid[i]], cid[e.Block])
            }
        }
    }

    /* Kahn's algorithm, always picking the lowest ready component */
    var rdy []int
    var res [][]int
    for i, d := range deg {
        if d == 0 {
            rdy = append(rdy, i)
        }
    }

    /* the node IDs returned by gonum come from map iteration, keep it stable */
    for len(rdy) != 0 {
        sort.Ints(rdy)
        c := rdy[0]
        rdy = rdy[1:]
        res = append(res, ret[c])

        /* release the successors */
        for _, d := range out[c] {
            if deg[d]--; deg[d] == 0 {
                rdy = append(rdy, d)
            }
        }
    }

    /* all done */
    return res
}

// Order returns all the blocks sorted by the topological order of their
// strongly connected components, and by index within each component.
func (self *CFG) Order() []int {
    ret := make([]int, 0, len(self.Blocks))
    for _, c := range self.components() {
        ret = append(ret, c...)
    }
    return ret
}

// Loops returns the blocks of every cycle of the graph, one slice per
// strongly connected component.
func (self *CFG) Loops() [][]int {
    var ret [][]int
    for _, c := range self.components() {
        if len(c) > 1 || self.selfloop(c[0]) {
            ret = append(ret, c)
        }
    }
    return ret
}

func (self *CFG) selfloop(bb int) bool {
    for _, e := range self.Blocks[bb].Next {
        if e.Block == bb {
            return true
        }
    }
    return false
}

func minid(nodes []graph.Node) int64 {
    ret := nodes[0].ID()
    for _, n := range nodes[1:] {
        if n.ID() < ret {
            ret = n.ID()
        }
    }
    return ret
}

func nodeids(nodes []graph.Node) []int {
    ret := make([]int, len(nodes))
    for i, n := range nodes {
        ret[i] = int(n.ID())
    }
    sort.Ints(ret)
    return ret
}
