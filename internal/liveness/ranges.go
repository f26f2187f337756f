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
    `strings`
)

// Range is a half-open byte range [Start, End).
type Range struct {
    Start int
    End   int
}

func (self Range) String() string {
    return fmt.Sprintf("[%d, %d)", self.Start, self.End)
}

// Ranges is an ordered list of disjoint ranges, touching ranges are always
// merged.
type Ranges []Range

// Insert adds [start, end) to the list, merging every range it overlaps or
// touches.
func (self *Ranges) Insert(start int, end int) {
    rs := *self
    if start >= end {
        return
    }

    /* first range that ends at or after start */
    i := sort.Search(len(rs), func(i int) bool { return rs[i].End >= start })
    j := i

    /* absorb everything that starts at or before end */
    for j < len(rs) && rs[j].Start <= end {
        start = minint(start, rs[j].Start)
        end = maxint(end, rs[j].End)
        j++
    }

    /* replace rs[i:j] with the merged range */
    if i == j {
        rs = append(rs, Range{})
        copy(rs[i + 1:], rs[i:])
    } else {
        rs = append(rs[:i + 1], rs[j:]...)
    }

    /* update the list */
    rs[i] = Range { start, end }
    *self = rs
}

// Contains reports whether pos is inside any of the ranges.
func (self Ranges) Contains(pos int) bool {
    i := sort.Search(len(self), func(i int) bool { return self[i].End > pos })
    return i < len(self) && self[i].Start <= pos
}

// Overlaps reports whether [start, end) intersects any of the ranges.
func (self Ranges) Overlaps(start int, end int) bool {
    i := sort.Search(len(self), func(i int) bool { return self[i].End > start })
    return i < len(self) && self[i].Start < end
}

func (self Ranges) String() string {
    ret := make([]string, len(self))
    for i, r := range self {
        ret[i] = r.String()
    }
    return "{" + strings.Join(ret, ", ") + "}"
}

func minint(a int, b int) int {
    if a < b {
        return a
    } else {
        return b
    }
}

func maxint(a int, b int) int {
    if a > b {
        return a
    } else {
        return b
    }
}
