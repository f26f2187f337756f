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
    `github.com/cloudwego/regflow/internal/defs`
    `github.com/cloudwego/regflow/internal/ssa`
    `github.com/cloudwego/regflow/internal/utils`
)

/* the version of key an instruction at pos works on, the new one if the
 * instruction writes it */
func (self *Builder) instanceAt(bb int, key defs.RegKey, pos int) (Instance, bool) {
    id := ssa.Unknown
    used := false

    /* the incoming version, if any */
    if in := self.a.In(bb, key); len(in) != 0 {
        id = in[0]
    }

    /* replay the block up to the instruction */
    for _, x := range self.a.Blocks[bb].Accesses[key] {
        if x.Offset > pos {
            break
        }

        /* keep track of the current version */
        if x.Write {
            id = x.Id
        }

        /* the instruction does use it */
        if x.Offset == pos {
            used = true
        }
    }

    /* must be used by the instruction, and be live somewhere */
    iv := Instance { Key: key, Id: id }
    _, live := self.res.Index[iv]
    return iv, used && live
}

func (self *Builder) dependency(rt defs.RegType, vidx int) *Dependency {
    m := self.res.LinearDeps[rt]
    if m == nil {
        m = make(map[int]*Dependency)
        self.res.LinearDeps[rt] = m
    }

    /* create on first sight */
    if m[vidx] == nil {
        m[vidx] = new(Dependency)
    }

    /* all done */
    return m[vidx]
}

func (self *Builder) linear(deps []defs.LinearDep) error {
    for _, d := range deps {
        var vids []int
        var skip bool

        /* nothing to bind */
        if len(d.Slots) == 0 {
            continue
        }

        /* locate the instruction */
        bb := self.g.BlockAt(d.Offset)
        if bb < 0 {
            return utils.EStructural(d.Offset, "linear dependency outside of any block")
        }

        /* find the instances of every slot */
        for _, key := range d.Slots {
            if !key.IsVar() {
                skip = true
                break
            }

            /* all slots share a bank */
            if key.Type != d.Key().Type {
                return utils.EStructural(d.Offset, "linear dependency mixes %s and %s", d.Key(), key)
            }

            /* must be used right there */
            if iv, ok := self.instanceAt(bb, key, d.Offset); !ok {
                return utils.EStructural(d.Offset, "linear dependency on %s, which is not used by the instruction", key)
            } else {
                vids = append(vids, self.res.Index[iv])
            }
        }

        /* physical registers are not allocated */
        if skip {
            continue
        }

        /* the group is aligned at its first slot */
        rt := d.Key().Type
        head := self.dependency(rt, vids[0])
        head.Align = maxint(head.Align, d.Align)

        /* link the neighbours */
        for i := 1; i < len(vids); i++ {
            prev := self.dependency(rt, vids[i - 1])
            next := self.dependency(rt, vids[i])
            prev.Next = intsadd(prev.Next, vids[i])
            next.Prev = intsadd(next.Prev, vids[i - 1])
        }
    }
    return nil
}
