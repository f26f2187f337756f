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

package defs

import (
    `sort`
)

// Usage records that the instruction at Offset reads and/or writes Count
// consecutive slots starting at Key. A zero Count means a single slot.
type Usage struct {
    Offset int
    Key    RegKey
    Count  int
    Align  int
    Read   bool
    Write  bool
}

// IsPureWrite reports whether the usage overwrites the register without
// looking at its previous value.
func (self Usage) IsPureWrite() bool {
    return self.Write && !self.Read
}

// LinearDep binds Slots into one contiguous group for the instruction at
// Offset, the first slot aligned to Align registers.
type LinearDep struct {
    Offset int
    Align  int
    Slots  []RegKey
}

// Key returns the register the group is anchored at.
func (self LinearDep) Key() RegKey {
    return self.Slots[0]
}

// ExpandUsages splits multi-slot usages into single-slot ones, sorted by
// offset. Multi-slot usages of register variables also yield the linear
// dependency that keeps their slots together.
func ExpandUsages(usages []Usage) ([]Usage, []LinearDep) {
    ret := make([]Usage, 0, len(usages))
    dep := []LinearDep(nil)

    /* expand every usage */
    for _, u := range usages {
        if u.Count <= 1 {
            u.Count = 1
            ret = append(ret, u)
            continue
        }

        /* one usage per slot */
        ld := LinearDep { Offset: u.Offset, Align: u.Align }
        for i := 0; i < u.Count; i++ {
            ret = append(ret, Usage {
                Offset : u.Offset,
                Key    : u.Key.Next(i),
                Count  : 1,
                Read   : u.Read,
                Write  : u.Write,
            })
            ld.Slots = append(ld.Slots, u.Key.Next(i))
        }

        /* only register variables are subject to allocation */
        if u.Key.IsVar() {
            dep = append(dep, ld)
        }
    }

    /* keep the instruction order */
    sort.SliceStable(ret, func(i int, j int) bool { return ret[i].Offset < ret[j].Offset })
    return ret, dep
}
