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

    `github.com/oleiade/lane`
)

// Routine is a subroutine, entered through the call edges targeting Entry.
type Routine struct {
    Entry     int
    Blocks    []int
    Returns   []int
    TailCalls []int
    Sites     []int
    Conts     []int
}

// Contains reports whether block bb belongs to the routine.
func (self *Routine) Contains(bb int) bool {
    i := sort.SearchInts(self.Blocks, bb)
    return i < len(self.Blocks) && self.Blocks[i] == bb
}

func (self *CFG) routineBlocks(rt *Routine) {
    s := lane.NewStack()
    v := map[int]struct{}{ rt.Entry: {} }

    /* DFS over the intra-routine edges */
    for s.Push(rt.Entry); !s.Empty(); {
        p := s.Pop().(int)
        bb := &self.Blocks[p]
        rt.Blocks = append(rt.Blocks, p)

        /* classify the exits */
        if bb.IsTailCall() {
            rt.TailCalls = append(rt.TailCalls, p)
        } else if bb.HasReturn {
            rt.Returns = append(rt.Returns, p)
        }

        /* calls are summarized by the callee, follow the continuation only */
        for _, e := range bb.Next {
            if _, ok := v[e.Block]; !ok && !e.IsCall {
                v[e.Block] = struct{}{}
                s.Push(e.Block)
            }
        }
    }

    /* keep them in order */
    sort.Ints(rt.Blocks)
    sort.Ints(rt.Returns)
    sort.Ints(rt.TailCalls)
}

func (self *CFG) routineConts() {
    for {
        more := false

        /* control resumes after the call site, or wherever the tail-caller resumes */
        for i := range self.Routines {
            rt := &self.Routines[i]
            for _, s := range rt.Sites {
                if k := self.Blocks[s].Continuation(); k >= 0 {
                    rt.Conts, more = intsadd(rt.Conts, k, more)
                } else {
                    for _, j := range self.owner[s] {
                        for _, k := range self.Routines[j].Conts {
                            rt.Conts, more = intsadd(rt.Conts, k, more)
                        }
                    }
                }
            }
        }

        /* stop if nothing changed */
        if !more {
            break
        }
    }
}

func (self *CFG) findRoutines() {
    self.entry = make(map[int]int)
    self.owner = make(map[int][]int)

    /* every call target enters a routine */
    for i := range self.Blocks {
        for _, e := range self.Blocks[i].Next {
            if !e.IsCall {
                continue
            }

            /* create the routine on first sight */
            id, ok := self.entry[e.Block]
            if !ok {
                id = len(self.Routines)
                self.entry[e.Block] = id
                self.Routines = append(self.Routines, Routine { Entry: e.Block })
            }

            /* add the call site */
            rt := &self.Routines[id]
            rt.Sites, _ = intsadd(rt.Sites, i, false)
        }
    }

    /* keep the routines ordered by entry */
    sort.Slice(self.Routines, func(i int, j int) bool {
        return self.Routines[i].Entry < self.Routines[j].Entry
    })

    /* rebuild the entry index, and find the blocks */
    for i := range self.Routines {
        rt := &self.Routines[i]
        self.entry[rt.Entry] = i
        self.routineBlocks(rt)

        /* record the block owners */
        for _, bb := range rt.Blocks {
            self.owner[bb] = append(self.owner[bb], i)
        }
    }

    /* resolve the continuations */
    self.routineConts()
}

func intsadd(v []int, x int, more bool) ([]int, bool) {
    i := sort.SearchInts(v, x)

    /* already exists */
    if i < len(v) && v[i] == x {
        return v, more
    }

    /* insert at position i */
    v = append(v, 0)
    copy(v[i + 1:], v[i:])
    v[i] = x
    return v, true
}
