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
    `sort`
    `strings`

    `github.com/cloudwego/regflow/internal/defs`
)

// Info is the SSA summary of one register within one block.
//
// IdBefore stays Unknown when the block overwrites the register before
// reading it and more than one version reaches its entry. IdFirst is Unknown
// when the block never writes the register.
type Info struct {
    IdBefore        Id
    IdFirst         Id
    IdLast          Id
    ChangeCount     int
    ReadBeforeWrite bool
}

func (self *Info) Written() bool {
    return self.ChangeCount != 0
}

func (self *Info) String() string {
    return fmt.Sprintf(
        "{before=%s first=%s last=%s changes=%d rbw=%t}",
        self.IdBefore,
        self.IdFirst,
        self.IdLast,
        self.ChangeCount,
        self.ReadBeforeWrite,
    )
}

// Access is one instruction touching a register. Id is the version created
// by a write, reads at the same instruction see the previous version.
type Access struct {
    Offset int
    Read   bool
    Write  bool
    Id     Id
}

// Summary is the local SSA view of a block. Versions are numbered from 1
// within the block until the analyzer assigns the global ones.
type Summary struct {
    Block    int
    Keys     []defs.RegKey
    Info     map[defs.RegKey]*Info
    Accesses map[defs.RegKey][]Access
}

// Summarize scans the usages of block bb, sorted by offset.
func Summarize(bb int, usages []defs.Usage) *Summary {
    ret := &Summary {
        Block    : bb,
        Info     : make(map[defs.RegKey]*Info),
        Accesses : make(map[defs.RegKey][]Access),
    }

    /* usages sharing an offset belong to the same instruction */
    for i := 0; i < len(usages); {
        j := i + 1
        for j < len(usages) && usages[j].Offset == usages[i].Offset {
            j++
        }

        /* process the instruction */
        ret.instr(usages[i:j])
        i = j
    }

    /* sort the keys */
    sort.SliceStable(ret.Keys, func(i int, j int) bool {
        return ret.Keys[i].Less(ret.Keys[j])
    })

    /* all done */
    return ret
}

func (self *Summary) instr(usages []defs.Usage) {
    var rd []bool
    var wr []bool
    var keys []defs.RegKey

    /* merge the flags of every register */
    for _, u := range usages {
        i := 0
        for i < len(keys) && keys[i] != u.Key {
            i++
        }

        /* first time seeing this register */
        if i == len(keys) {
            rd = append(rd, false)
            wr = append(wr, false)
            keys = append(keys, u.Key)
        }

        /* read-modify-write extends the current version */
        rd[i] = rd[i] || u.Read
        wr[i] = wr[i] || u.IsPureWrite()
    }

    /* reads happen before the writes of the same instruction */
    for i, key := range keys {
        if rd[i] || wr[i] {
            self.access(key, usages[0].Offset, rd[i], wr[i])
        }
    }
}

func (self *Summary) access(key defs.RegKey, pos int, read bool, write bool) {
    info := self.Info[key]
    item := Access { Offset: pos, Read: read, Write: write, Id: Unknown }

    /* first reference within this block */
    if info == nil {
        info = &Info {
            IdBefore        : Unknown,
            IdFirst         : Unknown,
            IdLast          : Unknown,
            ReadBeforeWrite : read,
        }
        self.Info[key] = info
        self.Keys = append(self.Keys, key)
    }

    /* every write creates a new version */
    if write {
        info.ChangeCount++
        item.Id = Id(info.ChangeCount)
        info.IdLast = item.Id

        /* remember the first one */
        if info.IdFirst == Unknown {
            info.IdFirst = item.Id
        }
    }

    /* add to access list */
    self.Accesses[key] = append(self.Accesses[key], item)
}

// Written reports whether the block creates a new version of key.
func (self *Summary) Written(key defs.RegKey) bool {
    info := self.Info[key]
    return info != nil && info.Written()
}

// ReadBeforeWrite reports whether the block consumes the incoming version of key.
func (self *Summary) ReadBeforeWrite(key defs.RegKey) bool {
    info := self.Info[key]
    return info != nil && info.ReadBeforeWrite
}

func (self *Summary) String() string {
    ret := []string { fmt.Sprintf("bb_%d:", self.Block) }
    for _, key := range self.Keys {
        ret = append(ret, fmt.Sprintf("    %s: %s", key, self.Info[key]))
    }
    return strings.Join(ret, "\n")
}
