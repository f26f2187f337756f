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
    `sync/atomic`

    `github.com/cloudwego/regflow/internal/defs`
    `github.com/cloudwego/regflow/internal/utils`
    `github.com/oleiade/lane`
)

var (
    TaskCount    uint64
    ReplaceCount uint64
)

// Reconciler drains the deferred tasks of an analysis until the incoming
// versions of every block agree with all of its predecessors.
type Reconciler struct {
    Tasks   int
    a       *Analysis
    q       *lane.Queue
    pending map[Task]bool
}

func CreateReconciler(a *Analysis) *Reconciler {
    return &Reconciler {
        a       : a,
        q       : lane.NewQueue(),
        pending : make(map[Task]bool),
    }
}

func (self *Reconciler) push(t Task) {
    if !self.pending[t] {
        self.q.Enqueue(t)
        self.pending[t] = true
    }
}

func (self *Reconciler) successors(t Task) {
    for _, e := range self.a.Graph.Blocks[t.Block].Next {
        self.push(Task { Key: t.Key, Block: e.Block })
    }
}

func (self *Reconciler) process(t Task) {
    fl := self.a.flows[t.Key]
    in, _ := self.a.incoming(fl, t.Block, nil)

    /* incoming sets only ever grow */
    old := fl.in[t.Block]
    fl.in[t.Block] = old.union(in)
    grow := len(fl.in[t.Block]) != len(old)

    /* new versions pass through, new merges may matter downstream */
    if self.a.merge(fl, t.Block) || (grow && fl.last[t.Block] == Unknown) {
        self.successors(t)
    }
}

// Reconcile runs the worklist to a fixed point, then canonicalizes every
// version of the analysis.
func (self *Reconciler) Reconcile() error {
    for _, t := range self.a.Deferred {
        self.push(t)
    }

    /* process until no task makes any change */
    for !self.q.Empty() {
        t := self.q.Dequeue().(Task)
        delete(self.pending, t)
        self.process(t)
        self.Tasks++
    }

    /* update the statistics */
    atomic.AddUint64(&TaskCount, uint64(self.Tasks))
    return self.a.finish()
}

// Reconcile brings a to a fixed point.
func Reconcile(a *Analysis) error {
    return CreateReconciler(a).Reconcile()
}

func (self *Analysis) finish() error {
    for _, key := range self.Keys {
        if fl := self.flows[key]; fl != nil {
            if err := self.check(fl); err != nil {
                return err
            }
        }
    }

    /* the flattened replace lists */
    for _, key := range self.Keys {
        if fl := self.flows[key]; fl != nil {
            self.replaces(fl)
        }
    }

    /* rename everything in place */
    for _, key := range self.Keys {
        if fl := self.flows[key]; fl != nil {
            self.rename(fl)
        }
    }

    /* all done */
    return nil
}

func (self *Analysis) check(fl *_Flow) error {
    for i, sb := range self.Blocks {
        if sb.ReadBeforeWrite(fl.key) && len(fl.in[i]) == 0 {
            return utils.EUnreached(i, fl.key)
        }
    }
    return nil
}

func (self *Analysis) replaces(fl *_Flow) {
    var rs []Replace
    for id := Entry; id < fl.next; id++ {
        if r := fl.uf.find(id); r != id {
            rs = append(rs, Replace { Old: id, New: r })
        }
    }

    /* only keep non-empty lists */
    if len(rs) != 0 {
        self.Replaces[fl.key] = rs
        atomic.AddUint64(&ReplaceCount, uint64(len(rs)))
    }
}

func (self *Analysis) rename(fl *_Flow) {
    for i, sb := range self.Blocks {
        info := sb.Info[fl.key]
        if info == nil {
            continue
        }

        /* the version the block starts with */
        if in := self.In(i, fl.key); info.ReadBeforeWrite || len(in) == 1 {
            info.IdBefore = in[0]
        }

        /* the versions it writes */
        if info.Written() {
            info.IdFirst = fl.uf.find(info.IdFirst)
            info.IdLast = fl.uf.find(info.IdLast)
        } else {
            info.IdLast = info.IdBefore
        }

        /* and the accesses */
        for j := range sb.Accesses[fl.key] {
            if sb.Accesses[fl.key][j].Write {
                sb.Accesses[fl.key][j].Id = fl.uf.find(sb.Accesses[fl.key][j].Id)
            }
        }
    }
}

// Info returns the SSA summary of key in block bb.
func (self *Analysis) Info(bb int, key defs.RegKey) *Info {
    return self.Blocks[bb].Info[key]
}
