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
	"sync/atomic"

	"github.com/cloudwego/regflow/internal/cfg"
	"github.com/cloudwego/regflow/internal/liveness"
	"github.com/cloudwego/regflow/internal/ssa"
)

// A Stats records statistics about the analyses run so far.
type Stats struct {
	Graph    GraphStats
	SSA      SSAStats
	Liveness LivenessStats
}

// A GraphStats records statistics about the control-flow graphs built.
type GraphStats struct {
	Sections int
	Blocks   int
	Routines int
}

// A SSAStats records statistics about the SSA reconciliation.
type SSAStats struct {
	Tasks    int
	Replaces int
}

// A LivenessStats records statistics about the live ranges computed.
type LivenessStats struct {
	Ranges int
}

// GetStats returns statistics of the analyzer.
func GetStats() Stats {
	return Stats{
		Graph: GraphStats{
			Sections: int(atomic.LoadUint64(&cfg.GraphCount)),
			Blocks:   int(atomic.LoadUint64(&cfg.BlockCount)),
			Routines: int(atomic.LoadUint64(&cfg.RoutineCount)),
		},
		SSA: SSAStats{
			Tasks:    int(atomic.LoadUint64(&ssa.TaskCount)),
			Replaces: int(atomic.LoadUint64(&ssa.ReplaceCount)),
		},
		Liveness: LivenessStats{
			Ranges: int(atomic.LoadUint64(&liveness.RangeCount)),
		},
	}
}
