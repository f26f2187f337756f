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
    `fmt`
    `math`
    `sort`
)

// Id is an SSA version number of a register.
type Id uint32

const (
    Entry   Id = 0
    Unknown Id = math.MaxUint32
)

/* stands for "whatever the caller had", only used inside routine summaries */
const _SymEntry Id = math.MaxUint32 - 1

func (self Id) String() string {
    switch self {
        case Unknown   : return "?"
        case _SymEntry : return "<entry>"
        default        : return fmt.Sprintf("'%d", uint32(self))
    }
}

// Replace renames version Old of a register to New.
type Replace struct {
    Old Id
    New Id
}

func (self Replace) String() string {
    return fmt.Sprintf("%s -> %s", self.Old, self.New)
}

// Rename applies a replace list, sorted by Old, to id.
func Rename(rs []Replace, id Id) Id {
    i := sort.Search(len(rs), func(i int) bool { return rs[i].Old >= id })

    /* not renamed */
    if i == len(rs) || rs[i].Old != id {
        return id
    } else {
        return rs[i].New
    }
}

type _IdSet []Id

func (self _IdSet) has(id Id) bool {
    i := sort.Search(len(self), func(i int) bool { return self[i] >= id })
    return i < len(self) && self[i] == id
}

func (self _IdSet) add(id Id) _IdSet {
    return self.union(_IdSet { id })
}

func (self _IdSet) union(other _IdSet) _IdSet {
    i := 0
    j := 0
    n := 0

    /* count the new elements */
    for _, v := range other {
        if !self.has(v) {
            n++
        }
    }

    /* nothing to add */
    if n == 0 {
        return self
    }

    /* merge the two sorted lists */
    ret := make(_IdSet, 0, len(self) + n)
    for i < len(self) || j < len(other) {
        switch {
            case j == len(other)    : ret = append(ret, self[i]); i++
            case i == len(self)     : ret = append(ret, other[j]); j++
            case self[i] < other[j] : ret = append(ret, self[i]); i++
            case self[i] > other[j] : ret = append(ret, other[j]); j++
            default                 : ret = append(ret, self[i]); i++; j++
        }
    }

    /* all done */
    return ret
}

func (self _IdSet) without(id Id) _IdSet {
    if !self.has(id) {
        return self
    }

    /* copy everything else */
    ret := make(_IdSet, 0, len(self) - 1)
    for _, v := range self {
        if v != id {
            ret = append(ret, v)
        }
    }

    /* all done */
    return ret
}

/* subst resolves a routine summary against the value the caller passes in */
func subst(sum _IdSet, in _IdSet) _IdSet {
    if sum.has(_SymEntry) {
        return sum.without(_SymEntry).union(in)
    } else {
        return sum
    }
}

type _UnionFind struct {
    parent map[Id]Id
}

func newUnionFind() *_UnionFind {
    return &_UnionFind { parent: make(map[Id]Id) }
}

func (self *_UnionFind) find(id Id) Id {
    p, ok := self.parent[id]
    if !ok || p == id {
        return id
    }

    /* path compression */
    r := self.find(p)
    self.parent[id] = r
    return r
}

// union merges the classes of a and b, the smaller id always becomes the
// canonical one. Returns true if the two were not already merged.
func (self *_UnionFind) union(a Id, b Id) bool {
    ra := self.find(a)
    rb := self.find(b)

    /* already merged */
    if ra == rb {
        return false
    }

    /* the lower id wins */
    if ra < rb {
        self.parent[rb] = ra
    } else {
        self.parent[ra] = rb
    }
    return true
}
