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

// StructuralError occures when the hints or facts of a section do not describe
// a well-formed control-flow graph.
type StructuralError struct {
    Offset int
    Reason string
}

func (self StructuralError) Error() string {
    return fmt.Sprintf("Structural error at offset %d: %s", self.Offset, self.Reason)
}

// ConsistencyError occures when SSA reconciliation leaves a register without
// any reaching definition.
type ConsistencyError struct {
    Block  int
    Key    RegKey
    Reason string
}

func (self ConsistencyError) Error() string {
    return fmt.Sprintf("Consistency error at block %d (%s): %s", self.Block, self.Key, self.Reason)
}
