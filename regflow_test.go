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
    `errors`
    `testing`

    `github.com/stretchr/testify/require`
)

var (
    vq = &RegVar { Name: "q", Type: SGPR, Size: 1 }
    vr = &RegVar { Name: "r", Type: SGPR, Size: 1 }
    vv = &RegVar { Name: "v", Type: VGPR, Size: 2 }
)

var (
    kq = Slot(vq, 0)
    kr = Slot(vr, 0)
)

func rd(pos int, key RegKey) Usage {
    return Usage { Offset: pos, Key: key, Read: true }
}

func wr(pos int, key RegKey) Usage {
    return Usage { Offset: pos, Key: key, Write: true }
}

func hint(pos int, kind HintKind, targets ...int) Hint {
    return Hint { Offset: pos, Kind: kind, Targets: targets }
}

func callSection() *Section {
    return &Section {
        Length: 32,
        Hints: []Hint {
            hint(8, HintCall, 24),
            hint(16, HintEnd),
            hint(20, HintEnd),
            hint(28, HintReturn),
        },
        Usages: []Usage {
            wr(0, kr),
            wr(4, kq),
            rd(12, kr),
            rd(12, kq),
            rd(24, kq),
            wr(24, kq),
        },
    }
}

func TestAnalyze_Call(t *testing.T) {
    res, err := Analyze(context.Background(), callSection())
    require.NoError(t, err)
    require.Len(t, res.Blocks, 4)
    require.Len(t, res.Routines, 1)
    require.Equal(t, 24, res.Blocks[res.Routines[0].Entry].Start)

    /* the block summaries */
    info, ok := res.SSAInfo(0, kq)
    require.True(t, ok)
    require.Equal(t, SSAId(1), info.IdFirst)
    require.Equal(t, SSAId(1), info.IdLast)
    require.Equal(t, 1, info.ChangeCount)
    require.False(t, info.ReadBeforeWrite)
    info, ok = res.SSAInfo(3, kq)
    require.True(t, ok)
    require.True(t, info.ReadBeforeWrite)
    require.Equal(t, SSAId(2), info.IdLast)
    _, ok = res.SSAInfo(2, kq)
    require.False(t, ok)
    _, ok = res.SSAInfo(9, kq)
    require.False(t, ok)

    /* vidx order is key, then version */
    for i, iv := range []Instance {
        { Key: kq, Id: 1 },
        { Key: kq, Id: 2 },
        { Key: kr, Id: 1 },
    } {
        vidx, ok := res.VIdx(iv.Key, iv.Id)
        require.True(t, ok)
        require.Equal(t, i, vidx)
    }

    /* r survives the call without being touched */
    vidx, _ := res.VIdx(kr, 1)
    require.Equal(t, OutLiveness {{ Start: 1, End: 13 }}, res.Liveness[SGPR][vidx])
    require.Equal(t, map[int]VIdxSet { 3: { SGPR: { 0, 1 } } }, res.RoutineLiveSets)
    require.Equal(t, map[int]VIdxSet { 0: { SGPR: { 2 } } }, res.CallLiveSets)
}

func TestAnalyze_Operand(t *testing.T) {
    v0 := Slot(vv, 0)
    v1 := Slot(vv, 1)
    res, err := Analyze(context.Background(), &Section {
        Length : 12,
        Hints  : []Hint { hint(8, HintEnd) },
        Usages : []Usage {
            { Offset: 0, Key: v0, Count: 2, Align: 2, Write: true },
            { Offset: 4, Key: v0, Count: 2, Align: 2, Read: true },
        },
    })
    require.NoError(t, err)
    require.Equal(t, []Instance {{ Key: v0, Id: 1 }, { Key: v1, Id: 1 }}, res.Instances[VGPR])
    require.Equal(t, map[int]LinearDependency {
        0: { Align: 2, Next: []int { 1 } },
        1: { Prev: []int { 0 } },
    }, res.LinearDeps[VGPR])
}

func TestAnalyze_Empty(t *testing.T) {
    res, err := Analyze(context.Background(), &Section{})
    require.NoError(t, err)
    require.Empty(t, res.Blocks)
    require.Empty(t, res.Instances)
}

func TestAnalyze_InstrSize(t *testing.T) {
    sec := &Section {
        Length : 16,
        Hints  : []Hint { hint(0, HintJump, 8) },
        Usages : []Usage { wr(0, kr), rd(8, kr) },
    }

    /* 8-byte instructions make the jump a fall-through */
    res, err := Analyze(context.Background(), sec, WithInstrSize(8), WithInstrAlign(8))
    require.NoError(t, err)
    require.Len(t, res.Blocks, 2)
    require.Equal(t, 8, res.Blocks[0].End)

    /* misaligned with a 16-byte alignment */
    _, err = Analyze(context.Background(), sec, WithInstrAlign(16))
    var se StructuralError
    require.ErrorAs(t, err, &se)
    require.Equal(t, 0, se.Offset)
}

func TestAnalyze_Unreached(t *testing.T) {
    _, err := Analyze(context.Background(), &Section {
        Length : 8,
        Hints  : []Hint { hint(0, HintEnd), hint(4, HintJump, 4) },
        Usages : []Usage { rd(4, kr) },
    })
    var ce ConsistencyError
    require.ErrorAs(t, err, &ce)
    require.Equal(t, 1, ce.Block)
    require.Equal(t, kr, ce.Key)
}

func TestAnalyzeSections(t *testing.T) {
    bad := &Section {
        Length : 8,
        Hints  : []Hint { hint(0, HintJump, 6) },
    }

    /* results keep the input order */
    secs := []*Section { callSection(), {}, callSection() }
    res, err := AnalyzeSections(context.Background(), secs, WithMaxWorkers(2))
    require.NoError(t, err)
    require.Len(t, res, 3)
    require.Len(t, res[0].Blocks, 4)
    require.Empty(t, res[1].Blocks)
    require.Equal(t, res[0].Liveness, res[2].Liveness)

    /* the failing section is named */
    _, err = AnalyzeSections(context.Background(), []*Section { callSection(), bad })
    require.Error(t, err)
    require.Contains(t, err.Error(), "section 1")
    require.True(t, errors.As(err, new(StructuralError)))
}

func TestOptions(t *testing.T) {
    require.Panics(t, func() { WithInstrSize(0) })
    require.Panics(t, func() { WithInstrAlign(-1) })
    require.Panics(t, func() { WithMaxWorkers(0) })

    /* the defaults are swapped and restored */
    old := SetDefaultInstrSize(8)
    require.Equal(t, 8, SetDefaultInstrSize(old))
    old = SetDefaultMaxWorkers(3)
    require.Equal(t, 3, SetDefaultMaxWorkers(old))
}
