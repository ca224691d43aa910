// Copyright 2024 The Trackplanner Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"errors"
	"fmt"
)

// MissingKeyError indicates a planner or cache invariant violation: a
// caller requested a cache key that was never charged as a dependency.
// It is a programmer error, not a runtime condition to recover from,
// and planners are expected to only ever request keys they resolved.
type MissingKeyError struct {
	Kind string
	Hash uint64
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("trackplanner: missing %s key %016x in cache", e.Kind, e.Hash)
}

// Sentinel errors shared by the planner, executor and player packages.
// They live here, rather than in package player, so that
// pkg/player/planner and pkg/player/executor can return them without
// importing the top-level player package and creating an import cycle.
var (
	// ErrNoPlan is returned when C4/C5 cannot resolve a plan backward from
	// a seek target; the seek surface returns an uninhabited optional raster.
	ErrNoPlan = errors.New("trackplanner: no plan resolves the requested frame")

	// ErrInfeasible is returned when the feasibility predicate rejects all
	// sequential candidates for the current throughput estimate.
	ErrInfeasible = errors.New("trackplanner: no feasible sequential candidate")

	// ErrInvalidPlayheadRequest is returned by GetRasterSequential when the
	// requested dri lies before the current playhead.
	ErrInvalidPlayheadRequest = errors.New("trackplanner: requested dri is behind the playhead")
)
