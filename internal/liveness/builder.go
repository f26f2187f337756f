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

package liveness

import (
    `fmt`
    `sort`
    `sync/atomic`

    `github.com/cloudwego/regflow/internal/cfg`
    `github.com/cloudwego/regflow/internal/defs`
    `github.com/cloudwego/regflow/internal/ssa`
)

var (
    RangeCount uint64
)

// Instance is one SSA version of a register.
type Instance struct {
    Key defs.RegKey
    Id  ssa.Id
}

func (self Instance) Less(other Instance) bool {
    if self.Key != other.Key {
        return self.Key.Less(other.Key)
    } else {
        return self.Id < other.Id
    }
}

func (self Instance) String() string {
    return fmt.Sprintf("%s%s", self.Key, self.Id)
}

// Dependency keeps the instance at some vidx contiguous with its neighbours.
type Dependency struct {
    Align int
    Prev  []int
    Next  []int
}

// VSet is a set of vidx, split by register bank.
type VSet map[defs.RegType][]int

// Result is the liveness of a whole section. Instances of each bank are
// numbered (the vidx) in key and version order.
type Result struct {
    Liveness    map[defs.RegType][]Ranges
    Instances   map[defs.RegType][]Instance
    Index       map[Instance]int
    LinearDeps  map[defs.RegType]map[int]*Dependency
    CallSets    map[int]VSet
    RoutineSets map[int]VSet
}

type Builder struct {
    g     *cfg.CFG
    a     *ssa.Analysis
    res   *Result
    live  map[Instance]*Ranges
    touch map[int]map[defs.RegKey]bool
    order []int
}

func CreateBuilder(g *cfg.CFG, a *ssa.Analysis) *Builder {
    return &Builder {
        g     : g,
        a     : a,
        live  : make(map[Instance]*Ranges),
        touch : make(map[int]map[defs.RegKey]bool),
        order : g.Order(),
        res   : &Result {
            Liveness    : make(map[defs.RegType][]Ranges),
            Instances   : make(map[defs.RegType][]Instance),
            Index       : make(map[Instance]int),
            LinearDeps  : make(map[defs.RegType]map[int]*Dependency),
            CallSets    : make(map[int]VSet),
            RoutineSets : make(map[int]VSet),
        },
    }
}

// Build computes the liveness of a reconciled analysis.
func (self *Builder) Build(deps []defs.LinearDep) (*Result, error) {
    self.touches()

    /* live ranges of every register */
    for _, key := range self.a.Keys {
        in, out := self.flow(key)
        self.ranges(key, in, out)
    }

    /* number the instances */
    self.index()

    /* linear dependencies */
    if err := self.linear(deps); err != nil {
        return nil, err
    }

    /* routine and call site summaries */
    self.routines()
    self.calls()
    return self.res, nil
}

// Build computes the liveness of a reconciled analysis of g.
func Build(g *cfg.CFG, a *ssa.Analysis, deps []defs.LinearDep) (*Result, error) {
    return CreateBuilder(g, a).Build(deps)
}

func (self *Builder) touches() {
    for i := range self.g.Routines {
        rt := &self.g.Routines[i]
        set := make(map[defs.RegKey]bool)

        /* registers accessed by the routine body */
        for _, bb := range rt.Blocks {
            for _, key := range self.a.Blocks[bb].Keys {
                set[key] = true
            }
        }

        /* add to routine */
        self.touch[rt.Entry] = set
    }

    /* nested calls touch whatever their callees touch */
    for more := true; more; {
        more = false
        for i := range self.g.Routines {
            rt := &self.g.Routines[i]
            set := self.touch[rt.Entry]

            /* merge from every callee */
            for _, bb := range rt.Blocks {
                for _, c := range self.g.Blocks[bb].Callees() {
                    for key := range self.touch[c] {
                        if !set[key] {
                            set[key] = true
                            more = true
                        }
                    }
                }
            }
        }
    }
}

// Touches reports whether the routine entered at block entry, or any
// routine it calls, accesses key.
func (self *Builder) Touches(entry int, key defs.RegKey) bool {
    return self.touch[entry][key]
}

func (self *Builder) liveout(key defs.RegKey, bb int, in []bool) bool {
    ret := false
    blk := &self.g.Blocks[bb]

    /* callee entries, and ordinary successors */
    for _, e := range blk.Next {
        if e.IsCall || !blk.HasCall {
            ret = ret || in[e.Block]
        }
    }

    /* values the callees never touch bypass the call */
    if blk.HasCall {
        for _, c := range blk.Callees() {
            if self.touch[c][key] {
                continue
            }

            /* tail calls resume wherever the callee returns to */
            if k := blk.Continuation(); k >= 0 {
                ret = ret || in[k]
            } else {
                for _, k := range self.g.Routine(c).Conts {
                    ret = ret || in[k]
                }
            }
        }
    }

    /* returning from a routine that touches the register */
    for _, rt := range self.g.RoutinesOf(bb) {
        if intshas(rt.Returns, bb) && self.touch[rt.Entry][key] {
            for _, k := range rt.Conts {
                ret = ret || in[k]
            }
        }
    }

    /* all done */
    return ret
}

func (self *Builder) flow(key defs.RegKey) ([]bool, []bool) {
    nb := len(self.g.Blocks)
    in := make([]bool, nb)
    out := make([]bool, nb)
    ord := self.order

    /* backward dataflow, visit the blocks in reverse flow order */
    for more := true; more; {
        more = false
        for i := len(ord) - 1; i >= 0; i-- {
            bb := ord[i]
            sb := self.a.Blocks[bb]
            lo := self.liveout(key, bb, in)
            li := sb.ReadBeforeWrite(key) || (lo && !sb.Written(key))

            /* liveness only grows */
            if lo != out[bb] || li != in[bb] {
                in[bb] = li
                out[bb] = lo
                more = true
            }
        }
    }

    /* all done */
    return in, out
}

func (self *Builder) insert(key defs.RegKey, id ssa.Id, start int, end int) {
    iv := Instance { Key: key, Id: id }
    rs := self.live[iv]

    /* nothing to add */
    if start >= end {
        return
    }

    /* create the range list on first sight */
    if rs == nil {
        rs = new(Ranges)
        self.live[iv] = rs
    }

    /* add the range */
    rs.Insert(start, end)
}

func (self *Builder) ranges(key defs.RegKey, in []bool, out []bool) {
    for i := range self.g.Blocks {
        var cur []ssa.Id
        bb := &self.g.Blocks[i]
        xs := self.a.Blocks[i].Accesses[key]

        /* untouched and dead */
        if !in[i] && len(xs) == 0 {
            continue
        }

        /* versions alive at block entry */
        pos := bb.Start
        if in[i] {
            cur = self.a.In(i, key)
        }

        /* walk through the instructions */
        for _, x := range xs {
            if x.Read {
                for _, id := range cur {
                    self.insert(key, id, pos, x.Offset + 1)
                }
            }

            /* a write starts a new version, even when it is never read */
            if x.Write {
                cur = []ssa.Id { x.Id }
                pos = x.Offset + 1
                self.insert(key, x.Id, pos, pos + 1)
            }
        }

        /* still needed by some successor */
        if out[i] {
            for _, id := range cur {
                self.insert(key, id, pos, bb.End)
            }
        }
    }
}

func (self *Builder) index() {
    ivs := make([]Instance, 0, len(self.live))
    for iv := range self.live {
        ivs = append(ivs, iv)
    }

    /* rank the keys, the analysis keeps same-named variables in first use order */
    rank := make(map[defs.RegKey]int, len(self.a.Keys))
    for i, key := range self.a.Keys {
        rank[key] = i
    }

    /* sort by key and version */
    sort.Slice(ivs, func(i int, j int) bool {
        if ki, kj := rank[ivs[i].Key], rank[ivs[j].Key]; ki != kj {
            return ki < kj
        } else {
            return ivs[i].Id < ivs[j].Id
        }
    })

    /* assign the vidx of each bank */
    for _, iv := range ivs {
        rt := iv.Key.Type
        self.res.Index[iv] = len(self.res.Instances[rt])
        self.res.Instances[rt] = append(self.res.Instances[rt], iv)
        self.res.Liveness[rt] = append(self.res.Liveness[rt], *self.live[iv])
        atomic.AddUint64(&RangeCount, uint64(len(*self.live[iv])))
    }
}

func intshas(v []int, x int) bool {
    i := sort.SearchInts(v, x)
    return i < len(v) && v[i] == x
}

func intsadd(v []int, x int) []int {
    i := sort.SearchInts(v, x)

    /* already exists */
    if i < len(v) && v[i] == x {
        return v
    }

    /* insert at position i */
    v = append(v, 0)
    copy(v[i + 1:], v[i:])
    v[i] = x
    return v
}
