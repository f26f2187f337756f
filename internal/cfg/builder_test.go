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
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/cloudwego/regflow/internal/defs`
    `github.com/cloudwego/regflow/internal/opts`
    `github.com/stretchr/testify/require`
)

func build(t *testing.T, n int, hints ...defs.Hint) *CFG {
    o := opts.GetDefaultOptions()
    g, err := BuildGraph(nil, n, hints, &o)
    require.NoError(t, err)
    t.Logf("CFG:\n%s", g)
    return g
}

func buildErr(n int, hints ...defs.Hint) error {
    o := opts.GetDefaultOptions()
    _, err := BuildGraph(nil, n, hints, &o)
    return err
}

func hint(pos int, kind defs.HintKind, targets ...int) defs.Hint {
    return defs.Hint { Offset: pos, Kind: kind, Targets: targets }
}

func spans(g *CFG) [][2]int {
    ret := make([][2]int, len(g.Blocks))
    for i, bb := range g.Blocks {
        ret[i] = [2]int { bb.Start, bb.End }
    }
    return ret
}

func TestCFG_StraightLine(t *testing.T) {
    g := build(t, 12, hint(8, defs.HintEnd))
    require.Equal(t, [][2]int {{0, 12}}, spans(g))
    require.True(t, g.Blocks[0].HasTerminator)
    require.Empty(t, g.Blocks[0].Next)
    require.Equal(t, []int { 0 }, g.Roots())
}

func TestCFG_Empty(t *testing.T) {
    g := build(t, 0)
    require.Empty(t, g.Blocks)
    require.Empty(t, g.Order())
    require.Error(t, buildErr(0, hint(0, defs.HintEnd)))
}

func TestCFG_Loop(t *testing.T) {
    g := build(t, 16,
        hint(4, defs.HintLabel),
        hint(8, defs.HintCondJump, 4),
        hint(12, defs.HintEnd),
    )
    require.Equal(t, [][2]int {{0, 4}, {4, 12}, {12, 16}}, spans(g))
    require.Equal(t, []Edge {{ Block: 1 }}, g.Blocks[0].Next)
    require.Equal(t, []Edge {{ Block: 1 }, { Block: 2 }}, g.Blocks[1].Next)
    require.Empty(t, g.Blocks[2].Next)
    require.True(t, g.Blocks[2].HasTerminator)
    require.Equal(t, []int { 0, 1, 2 }, g.Order())
    require.Equal(t, [][]int {{ 1 }}, g.Loops())
    require.Equal(t, []Edge {{ Block: 0 }, { Block: 1 }}, g.Pred[1])
}

func TestCFG_NestedLoops(t *testing.T) {
    g := build(t, 24,
        hint(4, defs.HintLabel),
        hint(8, defs.HintLabel),
        hint(12, defs.HintCondJump, 8),
        hint(16, defs.HintCondJump, 4),
        hint(20, defs.HintEnd),
    )
    require.Equal(t, [][2]int {{0, 4}, {4, 8}, {8, 16}, {16, 20}, {20, 24}}, spans(g))
    require.Equal(t, []int { 0, 1, 2, 3, 4 }, g.Order())
    require.Equal(t, [][]int {{ 1, 2, 3 }}, g.Loops())
}

func TestCFG_Call(t *testing.T) {
    g := build(t, 20,
        hint(0, defs.HintCall, 12),
        hint(4, defs.HintEnd),
        hint(12, defs.HintReturn),
    )
    require.Equal(t, [][2]int {{0, 4}, {4, 8}, {8, 12}, {12, 16}, {16, 20}}, spans(g))
    require.Equal(t, []Edge {{ Block: 1 }, { Block: 3, IsCall: true }}, g.Blocks[0].Next)
    require.True(t, g.Blocks[0].HasCall)
    require.False(t, g.Blocks[3].HasCall)
    require.True(t, g.Blocks[3].HasReturn)
    require.Equal(t, 1, g.Blocks[0].Continuation())
    require.Equal(t, []int { 3 }, g.Blocks[0].Callees())
    require.Equal(t, []int { 0, 2, 4 }, g.Roots())

    /* the routine */
    require.Len(t, g.Routines, 1)
    rt := g.Routine(3)
    require.NotNil(t, rt)
    require.Equal(t, []int { 3 }, rt.Blocks)
    require.Equal(t, []int { 3 }, rt.Returns)
    require.Equal(t, []int { 0 }, rt.Sites)
    require.Equal(t, []int { 1 }, rt.Conts)
    require.Nil(t, g.Routine(0))
}

func TestCFG_TailCall(t *testing.T) {
    g := build(t, 16,
        hint(0, defs.HintCall, 8),
        hint(4, defs.HintCall, 12),
        hint(4, defs.HintReturn),
        hint(8, defs.HintCall, 12),
        hint(12, defs.HintReturn),
    )
    require.Equal(t, [][2]int {{0, 4}, {4, 8}, {8, 12}, {12, 16}}, spans(g))
    require.Equal(t, []Edge {{ Block: 1 }, { Block: 2, IsCall: true }}, g.Blocks[0].Next)
    require.Equal(t, []Edge {{ Block: 3, IsCall: true }}, g.Blocks[1].Next)
    require.True(t, g.Blocks[1].IsTailCall())
    require.True(t, g.Blocks[1].HasReturn)

    /* bb_2 is entered by a call, and calls bb_3 with a continuation */
    r2 := g.Routine(2)
    require.Equal(t, []int { 2, 3 }, r2.Blocks)
    require.Equal(t, []int { 3 }, r2.Returns)
    require.Equal(t, []int { 1 }, r2.Conts)

    /* bb_1 tail-calls from the top level, so bb_3 only resumes after bb_2's call */
    r3 := g.Routine(3)
    require.Equal(t, []int { 1, 2 }, r3.Sites)
    require.Equal(t, []int { 3 }, r3.Conts)
}

func TestCFG_CallAtEnd(t *testing.T) {
    g := build(t, 8, hint(4, defs.HintCall, 0))
    require.Equal(t, [][2]int {{0, 8}}, spans(g))
    require.Equal(t, []Edge {{ Block: 0, IsCall: true }}, g.Blocks[0].Next)
    require.True(t, g.Blocks[0].IsTailCall())
    rt := g.Routine(0)
    require.Equal(t, []int { 0 }, rt.Blocks)
    require.Equal(t, []int { 0 }, rt.TailCalls)
    require.Empty(t, rt.Conts)
}

func TestCFG_IndirectWithoutTargets(t *testing.T) {
    g := build(t, 12,
        hint(0, defs.HintIndirectCall),
        hint(4, defs.HintIndirectJump),
    )
    require.Equal(t, [][2]int {{0, 4}, {4, 8}, {8, 12}}, spans(g))
    require.Empty(t, g.Blocks[0].Next)
    require.False(t, g.Blocks[0].HasCall)
    require.Empty(t, g.Blocks[1].Next)
    require.True(t, g.Blocks[1].HasTerminator)
    require.Equal(t, []int { 0, 1, 2 }, g.Roots())
}

func TestCFG_IndirectJump(t *testing.T) {
    g := build(t, 16,
        hint(0, defs.HintIndirectJump, 12, 8, 12),
        hint(4, defs.HintEnd),
    )
    require.Equal(t, []Edge {{ Block: 2 }, { Block: 3 }}, g.Blocks[0].Next)
    require.Equal(t, []Edge {{ Block: 3 }}, g.Blocks[2].Next)
    require.True(t, g.Blocks[1].Root)
    require.False(t, g.Blocks[3].Root)
}

func TestCFG_Boundary(t *testing.T) {
    g := build(t, 16, hint(8, defs.HintBoundary))
    require.Equal(t, [][2]int {{0, 8}, {8, 16}}, spans(g))
    require.Empty(t, g.Blocks[0].Next)
    require.True(t, g.Blocks[1].Root)

    /* a label splits, but keeps the flow */
    g = build(t, 16, hint(8, defs.HintLabel))
    require.Equal(t, []Edge {{ Block: 1 }}, g.Blocks[0].Next)
    require.False(t, g.Blocks[1].Root)

    /* a branch not taken stops at the boundary */
    g = build(t, 8, hint(0, defs.HintCondJump, 0), hint(4, defs.HintBoundary))
    require.Equal(t, []Edge {{ Block: 0 }}, g.Blocks[0].Next)
    require.True(t, g.Blocks[1].Root)

    /* so does the return of a call, which makes it a tail call */
    g = build(t, 12,
        hint(0, defs.HintCall, 8),
        hint(4, defs.HintBoundary),
        hint(8, defs.HintReturn),
    )
    require.Equal(t, []Edge {{ Block: 2, IsCall: true }}, g.Blocks[0].Next)
    require.True(t, g.Blocks[0].IsTailCall())
    require.Empty(t, g.Routine(2).Conts)

    /* a callee at a boundary is entered by its callers only */
    g = build(t, 12,
        hint(0, defs.HintCall, 8),
        hint(4, defs.HintEnd),
        hint(8, defs.HintBoundary),
        hint(8, defs.HintReturn),
    )
    require.Equal(t, []Edge {{ Block: 1 }, { Block: 2, IsCall: true }}, g.Blocks[0].Next)
    require.False(t, g.Blocks[2].Root)
    require.Equal(t, []int { 0 }, g.Roots())
}

func TestCFG_InstrSize(t *testing.T) {
    g := build(t, 16,
        defs.Hint { Offset: 0, Kind: defs.HintCondJump, Targets: []int { 12 }, Size: 8 },
    )
    require.Equal(t, [][2]int {{0, 8}, {8, 12}, {12, 16}}, spans(g))
    require.Equal(t, []Edge {{ Block: 1 }, { Block: 2 }}, g.Blocks[0].Next)
}

func TestCFG_Errors(t *testing.T) {
    var se defs.StructuralError
    require.ErrorAs(t, buildErr(16, hint(0, defs.HintJump, 16)), &se)
    require.Equal(t, 0, se.Offset)
    require.ErrorAs(t, buildErr(16, hint(0, defs.HintJump, -4)), &se)
    require.ErrorAs(t, buildErr(16, hint(4, defs.HintCall, 6)), &se)
    require.Equal(t, 4, se.Offset)
    require.ErrorAs(t, buildErr(16, hint(16, defs.HintEnd)), &se)
    require.ErrorAs(t, buildErr(16, hint(12, defs.HintEnd), defs.Hint { Offset: 12, Kind: defs.HintLabel, Size: 8 }), &se)

    /* target in the middle of a 64-bit instruction */
    require.ErrorAs(t, buildErr(16,
        defs.Hint { Offset: 0, Kind: defs.HintLabel, Size: 8 },
        hint(8, defs.HintJump, 4),
    ), &se)
    require.Equal(t, 8, se.Offset)
}

func TestCFG_RandomPartition(t *testing.T) {
    fk := gofakeit.New(20221020)
    kinds := []defs.HintKind {
        defs.HintLabel,
        defs.HintJump,
        defs.HintCondJump,
        defs.HintIndirectJump,
        defs.HintCall,
        defs.HintIndirectCall,
        defs.HintReturn,
        defs.HintEnd,
        defs.HintBoundary,
    }

    /* generate random sections */
    for round := 0; round < 200; round++ {
        n := fk.Number(1, 64)
        var hints []defs.Hint

        /* random hints on instruction boundaries */
        for i := fk.Number(0, n); i > 0; i-- {
            h := hint(fk.Number(0, n - 1) * 4, kinds[fk.Number(0, len(kinds) - 1)])
            if h.Kind.IsJump() || h.Kind.IsCall() {
                for j := fk.Number(0, 3); j > 0; j-- {
                    h.Targets = append(h.Targets, fk.Number(0, n - 1) * 4)
                }
            }
            hints = append(hints, h)
        }

        /* blocks must be contiguous and cover the whole section */
        g := build(t, n * 4, hints...)
        require.NotEmpty(t, g.Blocks)
        require.Equal(t, 0, g.Blocks[0].Start)
        require.Equal(t, n * 4, g.Blocks[len(g.Blocks) - 1].End)
        require.Len(t, g.Order(), len(g.Blocks))

        /* check every block */
        for i, bb := range g.Blocks {
            require.Equal(t, i, bb.Id)
            require.Less(t, bb.Start, bb.End)
            if i != 0 {
                require.Equal(t, g.Blocks[i - 1].End, bb.Start)
            }

            /* edges are valid, and only callers are marked */
            calls := false
            for _, e := range bb.Next {
                require.GreaterOrEqual(t, e.Block, 0)
                require.Less(t, e.Block, len(g.Blocks))
                calls = calls || e.IsCall
            }
            require.Equal(t, calls, bb.HasCall)
        }
    }
}
