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

// RegType is the register bank a register (or a register variable) lives in.
type RegType uint8

const (
    SGPR RegType = iota
    VGPR
    RegTypeCount
)

var _RegTypeNames = [...]string {
    SGPR: "s",
    VGPR: "v",
}

func (self RegType) String() string {
    if self < RegTypeCount {
        return _RegTypeNames[self]
    } else {
        return fmt.Sprintf("t%d", uint8(self))
    }
}

// RegVar is a named, sized register variable declared by the front end.
type RegVar struct {
    Name string
    Type RegType
    Size int
}

func (self *RegVar) String() string {
    return self.Name
}

// RegKey identifies one register slot, either a physical register of a bank,
// or an element of a register variable.
type RegKey struct {
    Var   *RegVar
    Type  RegType
    Index int
}

// Phys returns the key of physical register `idx` in bank `rt`.
func Phys(rt RegType, idx int) RegKey {
    return RegKey {
        Type  : rt,
        Index : idx,
    }
}

// Slot returns the key of element `idx` of register variable `rv`.
func Slot(rv *RegVar, idx int) RegKey {
    if rv == nil {
        panic("regflow: nil register variable")
    } else {
        return RegKey { Var: rv, Type: rv.Type, Index: idx }
    }
}

// IsVar reports whether the key refers to a register variable rather than a
// physical register.
func (self RegKey) IsVar() bool {
    return self.Var != nil
}

// Next returns the key of the adjacent slot.
func (self RegKey) Next(n int) RegKey {
    return RegKey {
        Var   : self.Var,
        Type  : self.Type,
        Index : self.Index + n,
    }
}

// Less orders keys by bank, then physical registers before variables, then by
// variable name and slot index. Slots of distinct variables sharing a name
// are equivalent under Less.
func (self RegKey) Less(other RegKey) bool {
    if self.Type != other.Type {
        return self.Type < other.Type
    } else if (self.Var == nil) != (other.Var == nil) {
        return self.Var == nil
    } else if self.Var != nil && self.Var != other.Var && self.Var.Name != other.Var.Name {
        return self.Var.Name < other.Var.Name
    } else {
        return self.Index < other.Index
    }
}

func (self RegKey) String() string {
    if self.Var == nil {
        return fmt.Sprintf("%s%d", self.Type, self.Index)
    } else {
        return fmt.Sprintf("%s[%d]", self.Var.Name, self.Index)
    }
}
