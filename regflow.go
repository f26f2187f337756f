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

package regflow

import (
    `context`
    `sync`

    `github.com/bytedance/gopkg/util/gopool`
    `github.com/davecgh/go-spew/spew`
    `tlog.app/go/errors`
    `tlog.app/go/tlog`

    `github.com/cloudwego/regflow/internal/cfg`
    `github.com/cloudwego/regflow/internal/defs`
    `github.com/cloudwego/regflow/internal/liveness`
    `github.com/cloudwego/regflow/internal/opts`
    `github.com/cloudwego/regflow/internal/ssa`
)

// Section is one contiguous code section together with the facts decoded
// from it. Length defaults to len(Code) when zero, so a section can be
// analyzed without its bytes as long as every instruction size is known.
type Section struct {
    Code       []byte
    Length     int
    Hints      []Hint
    Usages     []Usage
    LinearDeps []LinearDep
}

// Size returns the byte length of the section.
func (self *Section) Size() int {
    if self.Length != 0 {
        return self.Length
    } else {
        return len(self.Code)
    }
}

// Result is everything the allocator needs to know about a section.
type Result struct {
    Blocks          []BasicBlock
    Routines        []Routine
    SSA             []map[RegKey]SSAInfo
    Replaces        map[RegKey][]Replace
    Liveness        map[RegType][]OutLiveness
    Instances       map[RegType][]Instance
    LinearDeps      map[RegType]map[int]LinearDependency
    CallLiveSets    map[int]VIdxSet
    RoutineLiveSets map[int]VIdxSet
    index           map[Instance]int
}

// SSAInfo returns the SSA summary of key in block bb.
func (self *Result) SSAInfo(bb int, key RegKey) (SSAInfo, bool) {
    if bb < 0 || bb >= len(self.SSA) {
        return SSAInfo{}, false
    } else {
        v, ok := self.SSA[bb][key]
        return v, ok
    }
}

// VIdx returns the index of a register instance within its bank.
func (self *Result) VIdx(key RegKey, id SSAId) (int, bool) {
    v, ok := self.index[Instance { Key: key, Id: id }]
    return v, ok
}

// Analyze runs the whole pipeline over one section: the control-flow graph,
// the SSA numbering and its reconciliation, then the liveness.
func Analyze(ctx context.Context, sec *Section, options ...Option) (_ *Result, err error) {
    o := makeOptions(options)
    tr, _ := tlog.SpawnFromContextAndWrap(ctx, "regflow: analyze section", "size", sec.Size(), "hints", len(sec.Hints), "usages", len(sec.Usages))
    defer tr.Finish("err", &err)
    return analyze(tr, sec, &o)
}

func analyze(tr tlog.Span, sec *Section, o *opts.Options) (*Result, error) {
    g, err := cfg.BuildGraph(sec.Code, sec.Size(), sec.Hints, o)
    if err != nil {
        return nil, err
    }

    /* dump the blocks if requested */
    tr.Printw("control flow", "blocks", len(g.Blocks), "routines", len(g.Routines))
    if tr.If("regflow_blocks") {
        tr.Printw("blocks", "cfg", g.String())
    }

    /* multi-register operands become linear dependencies */
    usages, deps := defs.ExpandUsages(sec.Usages)
    deps = append(deps, sec.LinearDeps...)

    /* number the versions */
    a, err := ssa.Analyze(g, usages)
    if err != nil {
        return nil, err
    }

    /* reconcile the deferred requirements */
    rc := ssa.CreateReconciler(a)
    tr.Printw("ssa", "keys", len(a.Keys), "deferred", len(a.Deferred))
    if err = rc.Reconcile(); err != nil {
        return nil, err
    }

    /* dump the merges if requested */
    tr.Printw("reconciled", "tasks", rc.Tasks, "renamed", len(a.Replaces))
    if tr.If("regflow_ssa") {
        tr.Printw("replaces", "dump", spew.Sdump(a.Replaces))
    }

    /* live ranges and the register sets */
    lv, err := liveness.Build(g, a, deps)
    if err != nil {
        return nil, err
    }

    /* all done */
    tr.Printw("liveness", "sgpr", len(lv.Instances[SGPR]), "vgpr", len(lv.Instances[VGPR]))
    return makeResult(g, a, lv), nil
}

func makeResult(g *cfg.CFG, a *ssa.Analysis, lv *liveness.Result) *Result {
    ret := &Result {
        Blocks          : g.Blocks,
        Routines        : g.Routines,
        SSA             : make([]map[RegKey]SSAInfo, len(g.Blocks)),
        Replaces        : a.Replaces,
        Liveness        : lv.Liveness,
        Instances       : lv.Instances,
        LinearDeps      : make(map[RegType]map[int]LinearDependency, len(lv.LinearDeps)),
        CallLiveSets    : lv.CallSets,
        RoutineLiveSets : lv.RoutineSets,
        index           : lv.Index,
    }

    /* copy the block summaries */
    for i, sb := range a.Blocks {
        ret.SSA[i] = make(map[RegKey]SSAInfo, len(sb.Info))
        for key, info := range sb.Info {
            ret.SSA[i][key] = *info
        }
    }

    /* dependencies are plain values once built */
    for rt, deps := range lv.LinearDeps {
        ret.LinearDeps[rt] = make(map[int]LinearDependency, len(deps))
        for vidx, dep := range deps {
            ret.LinearDeps[rt][vidx] = *dep
        }
    }

    /* all done */
    return ret
}

// AnalyzeSections analyzes every section concurrently, at most
// opts.MaxWorkers of them at the same time. Results are in the same order as
// secs; the first failing section (by index) fails the whole call.
func AnalyzeSections(ctx context.Context, secs []*Section, options ...Option) (_ []*Result, err error) {
    o := makeOptions(options)
    tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "regflow: analyze sections", "count", len(secs), "workers", o.MaxWorkers)
    defer tr.Finish("err", &err)

    /* one slot per section */
    wg := new(sync.WaitGroup)
    ret := make([]*Result, len(secs))
    ers := make([]error, len(secs))
    gp := gopool.NewPool("regflow", int32(o.MaxWorkers), gopool.NewConfig())

    /* spread the sections over the workers */
    for i, sec := range secs {
        i, sec := i, sec
        wg.Add(1)
        gp.CtxGo(ctx, func() {
            defer wg.Done()
            defer func() {
                if v := recover(); v != nil {
                    ers[i] = errors.New("panic: %v", v)
                }
            }()
            ret[i], ers[i] = Analyze(ctx, sec, options...)
        })
    }

    /* wait for all of them */
    wg.Wait()
    for i, e := range ers {
        if e != nil {
            return nil, errors.Wrap(e, "section %d", i)
        }
    }

    /* all done */
    return ret, nil
}
