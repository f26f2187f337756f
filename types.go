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
    `github.com/cloudwego/regflow/internal/cfg`
    `github.com/cloudwego/regflow/internal/defs`
    `github.com/cloudwego/regflow/internal/liveness`
    `github.com/cloudwego/regflow/internal/ssa`
)

type (
    RegType  = defs.RegType
    RegVar   = defs.RegVar
    RegKey   = defs.RegKey
    HintKind = defs.HintKind
)

type (
    Hint      = defs.Hint
    Usage     = defs.Usage
    LinearDep = defs.LinearDep
)

type (
    BasicBlock = cfg.BasicBlock
    Edge       = cfg.Edge
    Routine    = cfg.Routine
)

type (
    SSAId   = ssa.Id
    Replace = ssa.Replace
)

// SSAInfo is the summary of one register within one block. IdBefore is
// UnknownId if the block overwrites the register before any read and
// several versions reach it.
type SSAInfo = ssa.Info

type (
    Range            = liveness.Range
    OutLiveness      = liveness.Ranges
    Instance         = liveness.Instance
    LinearDependency = liveness.Dependency
    VIdxSet          = liveness.VSet
)

const (
    SGPR = defs.SGPR
    VGPR = defs.VGPR
)

const (
    HintLabel        = defs.HintLabel
    HintJump         = defs.HintJump
    HintCondJump     = defs.HintCondJump
    HintIndirectJump = defs.HintIndirectJump
    HintCall         = defs.HintCall
    HintIndirectCall = defs.HintIndirectCall
    HintReturn       = defs.HintReturn
    HintEnd          = defs.HintEnd
    HintBoundary     = defs.HintBoundary
)

const (
    // EntryId is the version of a register live when a flow starts.
    EntryId = ssa.Entry

    // UnknownId marks a version that no predecessor supplies.
    UnknownId = ssa.Unknown
)

// Phys returns the key of physical register idx in bank rt.
func Phys(rt RegType, idx int) RegKey {
    return defs.Phys(rt, idx)
}

// Slot returns the key of element idx of register variable rv.
func Slot(rv *RegVar, idx int) RegKey {
    return defs.Slot(rv, idx)
}
