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
    `github.com/cloudwego/regflow/internal/defs`
)

// StructuralError occures when the control-flow hints or the register usages
// of a section are malformed, such as a branch into the middle of an
// instruction.
type StructuralError = defs.StructuralError

// ConsistencyError occures when a register is read in a block that no
// definition can reach.
type ConsistencyError = defs.ConsistencyError
