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

// Edge is a successor edge, IsCall marks a transfer into a callee that is
// expected to return.
type Edge struct {
    Block  int
    IsCall bool
}

func (self Edge) String() string {
    if self.IsCall {
        return fmt.Sprintf("call bb_%d", self.Block)
    } else {
        return fmt.Sprintf("bb_%d", self.Block)
    }
}

type BasicBlock struct {
    Id            int
    Start         int
    End           int
    Next          []Edge
    Root          bool
    HasCall       bool
    HasReturn     bool
    HasTerminator bool
}

func (self *BasicBlock) Len() int {
    return self.End - self.Start
}

func (self *BasicBlock) Contains(pos int) bool {
    return pos >= self.Start && pos < self.End
}

// Continuation returns the block control resumes at after the calls of this
// block return, or -1 if there is none.
func (self *BasicBlock) Continuation() int {
    if self.HasCall {
        for _, e := range self.Next {
            if !e.IsCall {
                return e.Block
            }
        }
    }
    return -1
}

// Callees returns the entry blocks of the routines this block calls.
func (self *BasicBlock) Callees() []int {
    var ret []int
    for _, e := range self.Next {
        if e.IsCall {
            ret = append(ret, e.Block)
        }
    }
    return ret
}

// IsTailCall reports whether the block calls without ever resuming.
func (self *BasicBlock) IsTailCall() bool {
    return self.HasCall && self.Continuation() < 0
}

func (self *BasicBlock) String() string {
    var flags []string
    for _, f := range []struct {
        set  bool
        name string
    } {
        { self.Root, "root" },
        { self.HasCall, "call" },
        { self.HasReturn, "ret" },
        { self.HasTerminator, "end" },
    } {
        if f.set {
            flags = append(flags, f.name)
        }
    }

    /* format the successors */
    next := make([]string, len(self.Next))
    for i, e := range self.Next {
        next[i] = e.String()
    }

    /* build the description */
    return fmt.Sprintf(
        "bb_%d [%d, %d) {%s} -> [%s]",
        self.Id,
        self.Start,
        self.End,
        strings.Join(flags, ","),
        strings.Join(next, ", "),
    )
}

func edgesort(v []Edge) []Edge {
    sort.Slice(v, func(i int, j int) bool {
        if v[i].Block != v[j].Block {
            return v[i].Block < v[j].Block
        } else {
            return !v[i].IsCall && v[j].IsCall
        }
    })

    /* remove the duplicates */
    n := 0
    for i, e := range v {
        if i == 0 || e != v[n - 1] {
            v[n] = e
            n++
        }
    }
    return v[:n]
}
