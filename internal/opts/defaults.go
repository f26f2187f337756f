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

import (
    `os`
    `runtime`
    `strconv`

    `github.com/klauspost/cpuid/v2`
)

const (
    _DefaultInstrSize  = 4 // GCN instructions are made of 32-bit words
    _DefaultInstrAlign = 4
)

var (
    InstrSize  = parseOrDefault("REGFLOW_INSTR_SIZE", _DefaultInstrSize, 0)
    InstrAlign = parseOrDefault("REGFLOW_INSTR_ALIGN", _DefaultInstrAlign, 0)
    MaxWorkers = parseOrDefault("REGFLOW_MAX_WORKERS", defaultWorkers(), 0)
)

func defaultWorkers() int {
    if n := cpuid.CPU.PhysicalCores; n > 0 {
        return n
    } else {
        return runtime.NumCPU()
    }
}

func parseOrDefault(key string, def int, min int) int {
    if env := os.Getenv(key); env == "" {
        return def
    } else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
        panic("regflow: invalid value for " + key)
    } else if ret := int(val); ret <= min {
        panic("regflow: value too small for " + key)
    } else {
        return ret
    }
}
