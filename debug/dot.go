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
	"bufio"
	"fmt"
	"io"

	"github.com/oleiade/lane"

	"github.com/cloudwego/regflow"
)

// WriteCFG writes the control-flow graph of res in Graphviz DOT format.
// Blocks are emitted breadth-first from the roots, call edges are dashed and
// routine entries are boxed.
func WriteCFG(w io.Writer, res *regflow.Result) error {
	var starts []int
	wr := bufio.NewWriter(w)
	visit := make([]bool, len(res.Blocks))
	entry := make(map[int]bool, len(res.Routines))

	/* routine entries get a different shape */
	for _, rt := range res.Routines {
		entry[rt.Entry] = true
	}

	/* start from every root */
	for _, bb := range res.Blocks {
		if bb.Root {
			starts = append(starts, bb.Id)
		}
	}

	/* unreachable blocks are still part of the section */
	for i := range res.Blocks {
		starts = append(starts, i)
	}

	/* graph header */
	fmt.Fprintln(wr, "digraph regflow {")
	fmt.Fprintln(wr, "    node [fontname=monospace];")

	/* breadth-first over the blocks */
	for _, id := range starts {
		if !visit[id] {
			visit[id] = true
			writeBlocks(wr, res, id, visit, entry)
		}
	}

	/* graph footer */
	fmt.Fprintln(wr, "}")
	return wr.Flush()
}

func writeBlocks(wr io.Writer, res *regflow.Result, root int, visit []bool, entry map[int]bool) {
	q := lane.NewQueue()
	q.Enqueue(root)

	/* drain the queue */
	for !q.Empty() {
		id := q.Dequeue().(int)
		bb := &res.Blocks[id]
		shape := "ellipse"

		/* routine entries are boxed */
		if entry[id] {
			shape = "box"
		}

		/* the block node */
		fmt.Fprintf(wr, "    bb_%d [label=\"bb_%d [%d, %d)\", shape=%s];\n", id, id, bb.Start, bb.End, shape)
		for _, e := range bb.Next {
			if e.IsCall {
				fmt.Fprintf(wr, "    bb_%d -> bb_%d [style=dashed];\n", id, e.Block)
			} else {
				fmt.Fprintf(wr, "    bb_%d -> bb_%d;\n", id, e.Block)
			}

			/* follow the edge */
			if !visit[e.Block] {
				visit[e.Block] = true
				q.Enqueue(e.Block)
			}
		}
	}
}
