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
    `github.com/cloudwego/regflow/internal/cfg`
    `github.com/cloudwego/regflow/internal/defs`
)

/* the versions a routine can leave behind at its exits, _SymEntry means the
 * caller's version survives some path through it */
func (self *Analysis) summarize(fl *_Flow) {
    g := self.Graph
    fl.sum = make(map[int]_IdSet, len(g.Routines))

    /* routines may call each other recursively, iterate until stable */
    for more := true; more; {
        more = false
        for i := range g.Routines {
            rt := &g.Routines[i]
            old := fl.sum[rt.Entry]
            sum := old.union(self.exits(fl, rt))

            /* summaries only ever grow */
            if len(sum) != len(old) {
                more = true
                fl.sum[rt.Entry] = sum
            }
        }
    }
}

func (self *Analysis) exits(fl *_Flow, rt *cfg.Routine) _IdSet {
    g := self.Graph
    in := map[int]_IdSet { rt.Entry: { _SymEntry } }

    /* the local out-set of a routine block */
    out := func(bb int) _IdSet {
        if fl.last[bb] != Unknown {
            return _IdSet { fl.last[bb] }
        } else {
            return in[bb]
        }
    }

    /* what a block passes along an intra-routine edge */
    pass := func(bb int) _IdSet {
        var ret _IdSet
        if src := &g.Blocks[bb]; !src.HasCall {
            return out(bb)
        } else {
            for _, c := range src.Callees() {
                ret = ret.union(subst(fl.sum[c], out(bb)))
            }
        }
        return ret
    }

    /* forward flow over the routine body */
    for more := true; more; {
        more = false
        for _, bb := range rt.Blocks {
            for _, e := range g.Blocks[bb].Next {
                if !e.IsCall {
                    if v := in[e.Block].union(pass(bb)); len(v) != len(in[e.Block]) {
                        in[e.Block] = v
                        more = true
                    }
                }
            }
        }
    }

    /* collect from every exit */
    var ret _IdSet
    for _, bb := range rt.Returns {
        ret = ret.union(out(bb))
    }

    /* tail calls leave whatever their callees leave */
    for _, bb := range rt.TailCalls {
        ret = ret.union(pass(bb))
    }

    /* all done */
    return ret
}

// Transparent reports whether the version key holds when entering the
// routine at block entry may survive until the routine returns.
func (self *Analysis) Transparent(key defs.RegKey, entry int) bool {
    if fl := self.flows[key]; fl == nil {
        return true
    } else {
        return fl.sum[entry].has(_SymEntry)
    }
}

// Defs returns the canonical versions of key written inside the routine at
// block entry that may reach one of its returns.
func (self *Analysis) Defs(key defs.RegKey, entry int) []Id {
    fl := self.flows[key]
    if fl == nil {
        return nil
    }

    /* canonicalize every version */
    var ret _IdSet
    for _, id := range fl.sum[entry] {
        if id != _SymEntry {
            ret = ret.add(fl.uf.find(id))
        }
    }

    /* all done */
    return ret
}
