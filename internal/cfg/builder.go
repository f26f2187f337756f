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
    `sync/atomic`

    `github.com/cloudwego/regflow/internal/defs`
    `github.com/cloudwego/regflow/internal/opts`
    `github.com/cloudwego/regflow/internal/utils`
)

var (
    GraphCount   uint64
    BlockCount   uint64
    RoutineCount uint64
)

type _Instr struct {
    pos  int
    size int
}

type GraphBuilder struct {
    Pin  map[int]bool
    Stop map[int]bool
    Exit map[int]bool
    Size map[int]int
    opts *opts.Options
}

func CreateGraphBuilder(o *opts.Options) *GraphBuilder {
    return &GraphBuilder {
        Pin  : make(map[int]bool),
        Stop : make(map[int]bool),
        Exit : make(map[int]bool),
        Size : make(map[int]int),
        opts : o,
    }
}

func (self *GraphBuilder) sizes(code []byte, n int, hints []defs.Hint) error {
    for _, h := range hints {
        if h.Offset < 0 || h.Offset >= n {
            return utils.EStructural(h.Offset, "%s hint outside of section [0, %d)", h.Kind, n)
        }

        /* the first explicit size wins */
        if _, ok := self.Size[h.Offset]; ok && h.Size == 0 {
            continue
        } else if ok && h.Size != 0 && h.Size != self.Size[h.Offset] {
            return utils.EStructural(h.Offset, "conflicting instruction sizes %d and %d", self.Size[h.Offset], h.Size)
        }

        /* ask the sizer if no size was given */
        sz := h.Size
        if sz == 0 {
            sz = self.opts.SizeOf(code, h.Offset)
        }

        /* check the instruction size */
        if sz <= 0 {
            return utils.EStructural(h.Offset, "invalid instruction size %d", sz)
        } else if h.Offset + sz > n {
            return utils.EStructural(h.Offset, "instruction crosses the end of section")
        } else {
            self.Size[h.Offset] = sz
        }
    }
    return nil
}

func (self *GraphBuilder) target(h defs.Hint, n int, ins []_Instr) error {
    for _, t := range h.Targets {
        if t < 0 || t >= n {
            return utils.ETarget(h.Offset, t, "outside of section")
        } else if !self.opts.IsAligned(t) {
            return utils.ETarget(h.Offset, t, "misaligned")
        }

        /* find the last hinted instruction that starts at or before the target */
        i := sort.Search(len(ins), func(i int) bool { return ins[i].pos > t }) - 1

        /* the target must not land inside of it */
        if i >= 0 && t > ins[i].pos && t < ins[i].pos + ins[i].size {
            return utils.ETarget(h.Offset, t, "not an instruction boundary")
        }

        /* branch targets are block entries */
        self.Pin[t] = true
    }
    return nil
}

func (self *GraphBuilder) scan(code []byte, n int, hints []defs.Hint) error {
    if err := self.sizes(code, n, hints); err != nil {
        return err
    }

    /* sorted hinted instructions, for target checks */
    ins := make([]_Instr, 0, len(self.Size))
    for p, sz := range self.Size {
        ins = append(ins, _Instr { pos: p, size: sz })
    }

    /* sort by offset */
    sort.Slice(ins, func(i int, j int) bool {
        return ins[i].pos < ins[j].pos
    })

    /* mark every block entry */
    for _, h := range hints {
        switch next := h.Offset + self.Size[h.Offset]; h.Kind {
            case defs.HintLabel: {
                self.Pin[h.Offset] = true
            }

            /* explicit split, no edges from the previous block */
            case defs.HintBoundary: {
                self.Pin[h.Offset] = true
                self.Stop[h.Offset] = true
            }

            /* flow leaves the block */
            case defs.HintReturn, defs.HintEnd: {
                self.Pin[next] = true
                self.Exit[h.Offset] = true
            }

            /* jumps and calls */
            default: {
                if err := self.target(h, n, ins); err != nil {
                    return err
                } else {
                    self.Pin[next] = true
                }
            }
        }
    }

    /* the end of section never starts a block */
    self.Pin[0] = true
    delete(self.Pin, n)
    return nil
}

func (self *GraphBuilder) blocks(n int) *CFG {
    pos := make([]int, 0, len(self.Pin))
    for p := range self.Pin {
        pos = append(pos, p)
    }

    /* sort the block entries */
    sort.Ints(pos)
    g := &CFG { Length: n, Blocks: make([]BasicBlock, len(pos)) }

    /* create the blocks */
    for i, p := range pos {
        g.Blocks[i].Id = i
        g.Blocks[i].Start = p
        g.Blocks[i].End = n

        /* every block ends where the next one starts */
        if i != len(pos) - 1 {
            g.Blocks[i].End = pos[i + 1]
        }
    }

    /* all done */
    return g
}

func (self *GraphBuilder) link(g *CFG, hints []defs.Hint) {
    done := make([]bool, len(g.Blocks))

    /* attach the edges of every terminating hint */
    for _, h := range hints {
        if !h.Kind.Terminates() {
            continue
        }

        /* locate the block */
        id := g.BlockAt(h.Offset)
        bb := &g.Blocks[id]
        done[id] = true

        /* add the edges */
        switch h.Kind {
            case defs.HintReturn       : bb.HasReturn = true
            case defs.HintEnd          : bb.HasTerminator = true
            case defs.HintJump         : self.jump(g, bb, h.Targets, false)
            case defs.HintIndirectJump : self.jump(g, bb, h.Targets, false)
            case defs.HintCondJump     : self.jump(g, bb, h.Targets, true)
            case defs.HintCall         : self.call(g, bb, h)
            case defs.HintIndirectCall : self.call(g, bb, h)
        }
    }

    /* blocks without a terminating hint fall through */
    for i := range g.Blocks {
        if !done[i] && self.resumes(g, &g.Blocks[i]) {
            g.Blocks[i].Next = append(g.Blocks[i].Next, Edge { Block: i + 1 })
        }
    }

    /* sort and remove duplicated edges */
    for i := range g.Blocks {
        g.Blocks[i].Next = edgesort(g.Blocks[i].Next)
    }
}

// resumes reports whether control may flow from bb into the block right after
// it. Nothing flows implicitly across a boundary.
func (self *GraphBuilder) resumes(g *CFG, bb *BasicBlock) bool {
    return bb.Id != len(g.Blocks) - 1 && !self.Stop[g.Blocks[bb.Id + 1].Start]
}

func (self *GraphBuilder) jump(g *CFG, bb *BasicBlock, targets []int, cond bool) {
    for _, t := range targets {
        bb.Next = append(bb.Next, Edge { Block: g.BlockAt(t) })
    }

    /* unconditional jumps end the flow */
    if !cond {
        bb.HasTerminator = true
        return
    }

    /* conditional jumps fall through when not taken */
    if self.resumes(g, bb) {
        bb.Next = append(bb.Next, Edge { Block: bb.Id + 1 })
    }
}

func (self *GraphBuilder) call(g *CFG, bb *BasicBlock, h defs.Hint) {
    if len(h.Targets) == 0 {
        return
    }

    /* add the call edges */
    for _, t := range h.Targets {
        bb.Next = append(bb.Next, Edge { Block: g.BlockAt(t), IsCall: true })
    }

    /* tail calls never resume */
    if bb.HasCall = true; self.Exit[h.Offset] || !self.resumes(g, bb) {
        return
    }

    /* resume at the following block */
    bb.Next = append(bb.Next, Edge { Block: bb.Id + 1 })
}

func (self *GraphBuilder) Build(code []byte, n int, hints []defs.Hint) (*CFG, error) {
    hints = append([]defs.Hint(nil), hints...)
    sort.SliceStable(hints, func(i int, j int) bool { return hints[i].Offset < hints[j].Offset })

    /* empty section has no blocks at all */
    if n == 0 {
        if len(hints) != 0 {
            return nil, utils.EStructural(hints[0].Offset, "hint in an empty section")
        } else {
            return new(CFG), nil
        }
    }

    /* find all the block entries */
    if err := self.scan(code, n, hints); err != nil {
        return nil, err
    }

    /* build the graph */
    g := self.blocks(n)
    self.link(g, hints)
    g.Stop = self.Stop
    g.analyze()

    /* update the statistics */
    atomic.AddUint64(&GraphCount, 1)
    atomic.AddUint64(&BlockCount, uint64(len(g.Blocks)))
    atomic.AddUint64(&RoutineCount, uint64(len(g.Routines)))
    return g, nil
}

// BuildGraph builds the control-flow graph of an n-byte section.
func BuildGraph(code []byte, n int, hints []defs.Hint, o *opts.Options) (*CFG, error) {
    return CreateGraphBuilder(o).Build(code, n, hints)
}
