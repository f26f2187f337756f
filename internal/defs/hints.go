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

package defs

import (
    `fmt`
)

// HintKind is the kind of a control-flow hint.
type HintKind uint8

const (
    HintLabel HintKind = iota
    HintJump
    HintCondJump
    HintIndirectJump
    HintCall
    HintIndirectCall
    HintReturn
    HintEnd
    HintBoundary
)

var _HintKindNames = [...]string {
    HintLabel        : "label",
    HintJump         : "jump",
    HintCondJump     : "condjump",
    HintIndirectJump : "indirectjump",
    HintCall         : "call",
    HintIndirectCall : "indirectcall",
    HintReturn       : "return",
    HintEnd          : "end",
    HintBoundary     : "boundary",
}

func (self HintKind) String() string {
    if int(self) < len(_HintKindNames) {
        return _HintKindNames[self]
    } else {
        return fmt.Sprintf("HintKind(%d)", uint8(self))
    }
}

// IsJump reports whether the hint transfers control without returning.
func (self HintKind) IsJump() bool {
    return self == HintJump || self == HintCondJump || self == HintIndirectJump
}

// IsCall reports whether the hint is a (direct or indirect) call.
func (self HintKind) IsCall() bool {
    return self == HintCall || self == HintIndirectCall
}

// IsExit reports whether the hint ends the flow of a block.
func (self HintKind) IsExit() bool {
    return self == HintReturn || self == HintEnd
}

// Terminates reports whether the instruction carrying the hint ends a block.
func (self HintKind) Terminates() bool {
    return self.IsJump() || self.IsCall() || self.IsExit()
}

// Hint is a control-flow fact attached to the instruction at Offset.
type Hint struct {
    Offset  int
    Kind    HintKind
    Targets []int
    Size    int
}

func (self Hint) String() string {
    if len(self.Targets) == 0 {
        return fmt.Sprintf("%d: %s", self.Offset, self.Kind)
    } else {
        return fmt.Sprintf("%d: %s %v", self.Offset, self.Kind, self.Targets)
    }
}
