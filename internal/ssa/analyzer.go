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

package ssa

import (
    `sort`

    `github.com/cloudwego/regflow/internal/cfg`
    `github.com/cloudwego/regflow/internal/defs`
    `github.com/cloudwego/regflow/internal/utils`
)

// Task asks the reconciler to re-evaluate the incoming versions of Key at
// Block.
type Task struct {
    Key   defs.RegKey
    Block int
}

type _Flow struct {
    key  defs.RegKey
    next Id
    in   []_IdSet
    last []Id
    sum  map[int]_IdSet
    uf   *_UnionFind
}

func newFlow(key defs.RegKey, nb int) *_Flow {
    ret := &_Flow {
        key  : key,
        next : Entry + 1,
        in   : make([]_IdSet, nb),
        last : make([]Id, nb),
        uf   : newUnionFind(),
    }

    /* no block writes anything yet */
    for i := range ret.last {
        ret.last[i] = Unknown
    }

    /* all done */
    return ret
}

// Analysis holds the SSA state of a section. The analyzer fills it, and the
// reconciler brings it to a fixed point.
type Analysis struct {
    Graph    *cfg.CFG
    Blocks   []*Summary
    Keys     []defs.RegKey
    Deferred []Task
    Replaces map[defs.RegKey][]Replace
    flows    map[defs.RegKey]*_Flow
    order    []int
    rank     []int
}

// Analyze summarizes every block of g, numbers the versions of every register
// variable, and resolves whatever the flow order allows. Cross-block
// requirements that depend on blocks not visited yet are left in Deferred.
func Analyze(g *cfg.CFG, usages []defs.Usage) (*Analysis, error) {
    nb := len(g.Blocks)
    bu := make([][]defs.Usage, nb)

    /* keep the instruction order */
    usages = append([]defs.Usage(nil), usages...)
    sort.SliceStable(usages, func(i int, j int) bool { return usages[i].Offset < usages[j].Offset })

    /* distribute the usages over the blocks */
    for _, u := range usages {
        if bb := g.BlockAt(u.Offset); bb < 0 {
            return nil, utils.EUsage(u.Offset, u.Key)
        } else {
            bu[bb] = append(bu[bb], u)
        }
    }

    /* create the analysis */
    ret := &Analysis {
        Graph    : g,
        Blocks   : make([]*Summary, nb),
        Replaces : make(map[defs.RegKey][]Replace),
        flows    : make(map[defs.RegKey]*_Flow),
        order    : g.Order(),
        rank     : make([]int, nb),
    }

    /* block ranks in flow order */
    for i, bb := range ret.order {
        ret.rank[bb] = i
    }

    /* local summaries, one block at a time */
    seen := make(map[defs.RegKey]bool)
    for i := range g.Blocks {
        ret.Blocks[i] = Summarize(i, bu[i])
        for _, key := range ret.Blocks[i].Keys {
            if !seen[key] {
                seen[key] = true
                ret.Keys = append(ret.Keys, key)
            }
        }
    }

    /* sort all the keys, equal ones keep their first use order */
    sort.SliceStable(ret.Keys, func(i int, j int) bool {
        return ret.Keys[i].Less(ret.Keys[j])
    })

    /* physical registers are never versioned */
    for _, key := range ret.Keys {
        if !key.IsVar() {
            ret.fixed(key)
            continue
        }

        /* number, summarize the routines, then propagate */
        fl := newFlow(key, nb)
        ret.flows[key] = fl
        ret.number(fl)
        ret.summarize(fl)
        ret.propagate(fl)
    }

    /* all done */
    return ret, nil
}

func (self *Analysis) fixed(key defs.RegKey) {
    for _, bb := range self.Blocks {
        if info := bb.Info[key]; info != nil {
            info.IdBefore = Entry
            info.IdFirst = Entry
            info.IdLast = Entry

            /* every write keeps the same version */
            for i := range bb.Accesses[key] {
                if bb.Accesses[key][i].Write {
                    bb.Accesses[key][i].Id = Entry
                }
            }
        }
    }
}

func (self *Analysis) number(fl *_Flow) {
    for _, bb := range self.order {
        sb := self.Blocks[bb]
        info := sb.Info[fl.key]

        /* only blocks that write the register */
        if info == nil || !info.Written() {
            continue
        }

        /* translate the local versions */
        base := fl.next - 1
        fl.next += Id(info.ChangeCount)
        info.IdFirst += base
        info.IdLast += base
        fl.last[bb] = info.IdLast

        /* also the accesses */
        for i := range sb.Accesses[fl.key] {
            if sb.Accesses[fl.key][i].Write {
                sb.Accesses[fl.key][i].Id += base
            }
        }
    }
}

func (self *Analysis) out(fl *_Flow, bb int) _IdSet {
    if fl.last[bb] != Unknown {
        return _IdSet { fl.last[bb] }
    } else {
        return fl.in[bb]
    }
}

func (self *Analysis) incoming(fl *_Flow, bb int, visited func(int) bool) (_IdSet, bool) {
    var ret _IdSet
    var def bool

    /* values live at the start of a flow are the entry versions */
    if self.Graph.Blocks[bb].Root {
        ret = ret.add(Entry)
    }

    /* merge from every predecessor */
    for _, p := range self.Graph.Pred[bb] {
        src := &self.Graph.Blocks[p.Block]

        /* not there yet, check it later */
        if visited != nil && !visited(p.Block) {
            def = true
            continue
        }

        /* continuations receive whatever the callees leave behind */
        if p.IsCall || !src.HasCall {
            ret = ret.union(self.out(fl, p.Block))
        } else {
            for _, c := range src.Callees() {
                ret = ret.union(subst(fl.sum[c], self.out(fl, p.Block)))
            }
        }
    }

    /* all done */
    return ret, def
}

func (self *Analysis) merge(fl *_Flow, bb int) bool {
    ok := false
    in := fl.in[bb]

    /* only when the incoming value is consumed */
    if !self.Blocks[bb].ReadBeforeWrite(fl.key) || len(in) == 0 {
        return false
    }

    /* every incoming version is the same value */
    for _, id := range in[1:] {
        if fl.uf.union(in[0], id) {
            ok = true
        }
    }

    /* all done */
    return ok
}

func (self *Analysis) propagate(fl *_Flow) {
    for _, bb := range self.order {
        in, def := self.incoming(fl, bb, func(p int) bool {
            return self.rank[p] < self.rank[bb]
        })

        /* bind the incoming versions */
        fl.in[bb] = in
        self.merge(fl, bb)

        /* back edges and late call sites */
        if def {
            self.Deferred = append(self.Deferred, Task { Key: fl.key, Block: bb })
        }
    }
}

// In returns the canonical versions of key reaching the entry of block bb.
func (self *Analysis) In(bb int, key defs.RegKey) []Id {
    fl := self.flows[key]
    if fl == nil {
        return []Id { Entry }
    }

    /* canonicalize every version */
    var ret _IdSet
    for _, id := range fl.in[bb] {
        ret = ret.add(fl.uf.find(id))
    }

    /* all done */
    return ret
}

// Canonical returns the canonical version id of key is merged into.
func (self *Analysis) Canonical(key defs.RegKey, id Id) Id {
    if fl := self.flows[key]; fl == nil {
        return id
    } else {
        return fl.uf.find(id)
    }
}

// Out returns the canonical versions of key visible at the exit of block bb.
func (self *Analysis) Out(bb int, key defs.RegKey) []Id {
    fl := self.flows[key]
    if fl == nil {
        return []Id { Entry }
    }

    /* canonicalize every version */
    var ret _IdSet
    for _, id := range self.out(fl, bb) {
        ret = ret.add(fl.uf.find(id))
    }

    /* all done */
    return ret
}

// Versions returns the number of raw versions allocated for key, including
// the entry version.
func (self *Analysis) Versions(key defs.RegKey) int {
    if fl := self.flows[key]; fl == nil {
        return 1
    } else {
        return int(fl.next)
    }
}
