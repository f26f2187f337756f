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

package opts

type Options struct {
    InstrSize  int
    InstrAlign int
    MaxWorkers int
    Sizer      func(code []byte, pos int) int
}

// SizeOf returns the byte size of the instruction at pos.
func (self *Options) SizeOf(code []byte, pos int) int {
    if self.Sizer == nil {
        return self.InstrSize
    } else if n := self.Sizer(code, pos); n > 0 {
        return n
    } else {
        return self.InstrSize
    }
}

// IsAligned reports whether pos may start an instruction.
func (self *Options) IsAligned(pos int) bool {
    return self.InstrAlign <= 1 || pos % self.InstrAlign == 0
}

func GetDefaultOptions() Options {
    return Options {
        InstrSize  : InstrSize,
        InstrAlign : InstrAlign,
        MaxWorkers : MaxWorkers,
    }
}
