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
    `fmt`

    `github.com/cloudwego/regflow/internal/opts`
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithInstrSize sets the size in bytes of instructions whose control-flow
// hint does not carry one.
//
// The default value of this option is "4".
func WithInstrSize(size int) Option {
    if size <= 0 {
        panic(fmt.Sprintf("regflow: invalid instruction size: %d", size))
    } else {
        return func(o *opts.Options) { o.InstrSize = size }
    }
}

// WithInstrAlign sets the alignment every branch target must satisfy.
//
// Set this option to "1" disables the alignment check.
//
// The default value of this option is "4".
func WithInstrAlign(align int) Option {
    if align <= 0 {
        panic(fmt.Sprintf("regflow: invalid instruction alignment: %d", align))
    } else {
        return func(o *opts.Options) { o.InstrAlign = align }
    }
}

// WithSizer decodes instruction sizes with fn instead of using a fixed size.
// A non-positive result falls back to the fixed size.
func WithSizer(fn func(code []byte, pos int) int) Option {
    return func(o *opts.Options) { o.Sizer = fn }
}

// WithMaxWorkers limits how many sections AnalyzeSections processes at the
// same time.
//
// The default value of this option is the number of physical CPU cores.
func WithMaxWorkers(n int) Option {
    if n <= 0 {
        panic(fmt.Sprintf("regflow: invalid worker count: %d", n))
    } else {
        return func(o *opts.Options) { o.MaxWorkers = n }
    }
}

// SetDefaultInstrSize sets the default instruction size from now on.
//
// This value can also be configured with the `REGFLOW_INSTR_SIZE`
// environment variable.
//
// Returns the old opts.InstrSize value.
func SetDefaultInstrSize(size int) int {
    size, opts.InstrSize = opts.InstrSize, size
    return size
}

// SetDefaultMaxWorkers sets the default worker count from now on.
//
// This value can also be configured with the `REGFLOW_MAX_WORKERS`
// environment variable.
//
// Returns the old opts.MaxWorkers value.
func SetDefaultMaxWorkers(n int) int {
    n, opts.MaxWorkers = opts.MaxWorkers, n
    return n
}

func makeOptions(options []Option) opts.Options {
    o := opts.GetDefaultOptions()
    for _, fn := range options {
        fn(&o)
    }
    return o
}
