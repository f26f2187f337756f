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

package debug

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudwego/regflow"
)

var (
	vq = &regflow.RegVar{Name: "q", Type: regflow.SGPR, Size: 1}
	vr = &regflow.RegVar{Name: "r", Type: regflow.SGPR, Size: 1}
)

func analyze(t *testing.T) *regflow.Result {
	kq := regflow.Slot(vq, 0)
	kr := regflow.Slot(vr, 0)
	res, err := regflow.Analyze(context.Background(), &regflow.Section{
		Length: 32,
		Hints: []regflow.Hint{
			{Offset: 8, Kind: regflow.HintCall, Targets: []int{24}},
			{Offset: 16, Kind: regflow.HintEnd},
			{Offset: 20, Kind: regflow.HintEnd},
			{Offset: 28, Kind: regflow.HintReturn},
		},
		Usages: []regflow.Usage{
			{Offset: 0, Key: kr, Write: true},
			{Offset: 4, Key: kq, Write: true},
			{Offset: 12, Key: kr, Read: true},
			{Offset: 12, Key: kq, Read: true},
			{Offset: 24, Key: kq, Read: true},
			{Offset: 24, Key: kq, Write: true},
		},
	})
	require.NoError(t, err)
	return res
}

func TestStats(t *testing.T) {
	old := GetStats()
	analyze(t)
	now := GetStats()
	require.Greater(t, now.Graph.Sections, old.Graph.Sections)
	require.GreaterOrEqual(t, now.Graph.Blocks-old.Graph.Blocks, 4)
	require.GreaterOrEqual(t, now.Graph.Routines-old.Graph.Routines, 1)
	require.GreaterOrEqual(t, now.Liveness.Ranges-old.Liveness.Ranges, 5)
}

func TestWriteCFG(t *testing.T) {
	buf := new(bytes.Buffer)
	require.NoError(t, WriteCFG(buf, analyze(t)))
	out := buf.String()
	t.Log(out)
	require.True(t, strings.HasPrefix(out, "digraph regflow {\n"))
	require.Contains(t, out, "    bb_0 -> bb_1;\n")
	require.Contains(t, out, "    bb_0 -> bb_3 [style=dashed];\n")
	require.Contains(t, out, "bb_3 [label=\"bb_3 [24, 32)\", shape=box];")

	/* every block once, the unreachable one last */
	require.Equal(t, 4, strings.Count(out, "shape="))
	require.Less(t, strings.Index(out, "bb_3 [label"), strings.Index(out, "bb_2 [label"))
}

func TestDrawLiveness(t *testing.T) {
	buf := new(bytes.Buffer)
	DrawLiveness(buf, analyze(t), regflow.SGPR)
	out := buf.String()
	require.Contains(t, out, "<svg")
	require.Contains(t, out, "</svg>")
	require.Contains(t, out, "2: r[0]")
	require.Equal(t, 5, strings.Count(out, "<rect"))
	require.Equal(t, 4, strings.Count(out, "<line"))
}
