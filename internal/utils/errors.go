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

package utils

import (
    `fmt`

    `github.com/cloudwego/regflow/internal/defs`
)

func EStructural(pos int, reason string, args ...interface{}) defs.StructuralError {
    return defs.StructuralError {
        Offset : pos,
        Reason : fmt.Sprintf(reason, args...),
    }
}

func ETarget(pos int, target int, reason string) defs.StructuralError {
    return EStructural(pos, "invalid branch target %d: %s", target, reason)
}

func EUsage(pos int, key defs.RegKey) defs.StructuralError {
    return EStructural(pos, "usage of %s outside of any block", key)
}

func EConsistency(bb int, key defs.RegKey, reason string, args ...interface{}) defs.ConsistencyError {
    return defs.ConsistencyError {
        Block  : bb,
        Key    : key,
        Reason : fmt.Sprintf(reason, args...),
    }
}

func EUnreached(bb int, key defs.RegKey) defs.ConsistencyError {
    return EConsistency(bb, key, "value read before any write, but no definition reaches this block")
}
