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
    `fmt`
    `sort`
    `strings`
)

// CFG is the control-flow graph of one code section. Blocks are stored in
// offset order and referenced by their index everywhere.
type CFG struct {
    Length   int
    Blocks   []BasicBlock
    Pred     [][]Edge
    Routines []Routine
    Stop     map[int]bool
    entry    map[int]int
    owner    map[int][]int
}

// BlockAt returns the index of the block containing pos, or -1.
func (self *CFG) BlockAt(pos int) int {
    if pos < 0 || pos >= self.Length {
        return -1
    }

    /* binary search for the last block starting at or before pos */
    i := sort.Search(len(self.Blocks), func(i int) bool {
        return self.Blocks[i].Start > pos
    })

    /* should never fail for a non-empty graph */
    if i == 0 {
        panic(fmt.Sprintf("regflow: no block contains offset %d", pos))
    } else {
        return i - 1
    }
}

// Roots returns all the blocks that start an independent flow.
func (self *CFG) Roots() []int {
    var ret []int
    for i := range self.Blocks {
        if self.Blocks[i].Root {
            ret = append(ret, i)
        }
    }
    return ret
}

// Routine returns the routine entered at block bb, or nil if bb is not a call
// target.
func (self *CFG) Routine(bb int) *Routine {
    if i, ok := self.entry[bb]; ok {
        return &self.Routines[i]
    } else {
        return nil
    }
}

// RoutinesOf returns the routines block bb belongs to.
func (self *CFG) RoutinesOf(bb int) []*Routine {
    var ret []*Routine
    for _, i := range self.owner[bb] {
        ret = append(ret, &self.Routines[i])
    }
    return ret
}

func (self *CFG) analyze() {
    self.Pred = make([][]Edge, len(self.Blocks))

    /* build the predecessor lists */
    for i := range self.Blocks {
        for _, e := range self.Blocks[i].Next {
            self.Pred[e.Block] = append(self.Pred[e.Block], Edge { Block: i, IsCall: e.IsCall })
        }
    }

    /* find the roots, a boundary that is also a call target is entered by its callers */
    for i := range self.Blocks {
        bb := &self.Blocks[i]
        bb.Root = i == 0 || len(self.Pred[i]) == 0 || (self.Stop[bb.Start] && !self.called(i))
    }

    /* find all the routines */
    self.findRoutines()
}

func (self *CFG) called(bb int) bool {
    for _, p := range self.Pred[bb] {
        if p.IsCall {
            return true
        }
    }
    return false
}

func (self *CFG) String() string {
    ret := make([]string, 0, len(self.Blocks))
    for i := range self.Blocks {
        ret = append(ret, self.Blocks[i].String())
    }
    return strings.Join(ret, "\n")
}
