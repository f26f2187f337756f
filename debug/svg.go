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
	"fmt"
	"io"

	"github.com/ajstarks/svgo"

	"github.com/cloudwego/regflow"
)

const (
	_RowHeight   = 16
	_LabelWidth  = 80
	_ByteWidth   = 4
	_MarginTop   = 24
	_MarginRight = 16
)

const (
	_StyleText   = "font-family:monospace;font-size:10px;fill:black"
	_StyleRange  = "fill:steelblue;stroke:none"
	_StyleBlock  = "stroke:lightgray;stroke-width:1"
	_StyleOffset = "font-family:monospace;font-size:8px;fill:gray"
)

// DrawLiveness renders the live ranges of one register bank as an SVG image,
// one row per register instance in vidx order, with a vertical line at the
// start of every basic block.
func DrawLiveness(w io.Writer, res *regflow.Result, rt regflow.RegType) {
	ivs := res.Instances[rt]
	lvs := res.Liveness[rt]

	/* the section length is the end of the last block */
	size := 0
	if n := len(res.Blocks); n != 0 {
		size = res.Blocks[n-1].End
	}

	/* canvas size */
	cw := _LabelWidth + size*_ByteWidth + _MarginRight
	ch := _MarginTop + len(ivs)*_RowHeight
	cv := svg.New(w)
	cv.Start(cw, ch)

	/* block boundaries */
	for _, bb := range res.Blocks {
		x := _LabelWidth + bb.Start*_ByteWidth
		cv.Line(x, _MarginTop-4, x, ch, _StyleBlock)
		cv.Text(x+2, _MarginTop-8, fmt.Sprintf("bb_%d@%d", bb.Id, bb.Start), _StyleOffset)
	}

	/* one row per instance */
	for i, iv := range ivs {
		y := _MarginTop + i*_RowHeight
		cv.Text(4, y+_RowHeight-4, fmt.Sprintf("%d: %s", i, iv), _StyleText)

		/* the ranges */
		for _, r := range lvs[i] {
			x := _LabelWidth + r.Start*_ByteWidth
			cv.Rect(x, y+2, (r.End-r.Start)*_ByteWidth, _RowHeight-4, _StyleRange)
		}
	}

	/* all done */
	cv.End()
}
