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

/* every instance live somewhere inside each block */
func (self *Builder) present() []map[Instance]bool {
    ret := make([]map[Instance]bool, len(self.g.Blocks))
    for i := range ret {
        ret[i] = make(map[Instance]bool)
    }

    /* mark the blocks covered by each range */
    for iv, rs := range self.live {
        for _, r := range *rs {
            for bb := self.g.BlockAt(r.Start); bb >= 0 && bb < len(ret) && self.g.Blocks[bb].Start < r.End; bb++ {
                ret[bb][iv] = true
            }
        }
    }

    /* all done */
    return ret
}

func (self *Builder) vset(set map[Instance]bool) VSet {
    ret := make(VSet)
    for iv := range set {
        rt := iv.Key.Type
        ret[rt] = intsadd(ret[rt], self.res.Index[iv])
    }
    return ret
}

func (self *Builder) routines() {
    sets := make(map[int]map[Instance]bool)
    live := self.present()

    /* instances live inside the routine body */
    for i := range self.g.Routines {
        rt := &self.g.Routines[i]
        set := make(map[Instance]bool)

        /* merge from every block */
        for _, bb := range rt.Blocks {
            for iv := range live[bb] {
                set[iv] = true
            }
        }

        /* add to routine */
        sets[rt.Entry] = set
    }

    /* and those of the routines it calls */
    for more := true; more; {
        more = false
        for i := range self.g.Routines {
            rt := &self.g.Routines[i]
            set := sets[rt.Entry]

            /* merge from every callee */
            for _, bb := range rt.Blocks {
                for _, c := range self.g.Blocks[bb].Callees() {
                    for iv := range sets[c] {
                        if !set[iv] {
                            set[iv] = true
                            more = true
                        }
                    }
                }
            }
        }
    }

    /* convert to vidx sets */
    for entry, set := range sets {
        self.res.RoutineSets[entry] = self.vset(set)
    }
}

func (self *Builder) inside(callees []int, iv Instance) bool {
    for _, c := range callees {
        if intshas(self.res.RoutineSets[c][iv.Key.Type], self.res.Index[iv]) {
            return true
        }
    }
    return false
}

func (self *Builder) calls() {
    for i := range self.g.Blocks {
        bb := &self.g.Blocks[i]
        set := make(map[Instance]bool)

        /* only calls that resume */
        if bb.Continuation() < 0 {
            continue
        }

        /* instances live across the call, that the callees never see */
        for iv, rs := range self.live {
            if rs.Contains(bb.End - 1) && !self.inside(bb.Callees(), iv) {
                set[iv] = true
            }
        }

        /* add to call site */
        self.res.CallSets[i] = self.vset(set)
    }
}
