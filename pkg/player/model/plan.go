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

import "fmt"

// TrackPath is a backward walk on a single track, [StartIndex, EndIndex).
// Cost == SizeMax denotes "no valid plan".
type TrackPath struct {
	TrackID    uint64
	StartIndex int
	EndIndex   int
	Cost       uint64
}

func (p TrackPath) String() string {
	return fmt.Sprintf("TrackPath{track: %d, [%d, %d), cost: %d}", p.TrackID, p.StartIndex, p.EndIndex, p.Cost)
}

// SwitchPath is a walk across a switch segment, plus the track indices it
// bridges. Cost == SizeMax denotes "no valid plan".
type SwitchPath struct {
	FromTrackID      uint64
	ToTrackID        uint64
	FromFrameIndex   int
	ToFrameIndex     int
	SwitchStartIndex int
	SwitchEndIndex   int
	Cost             uint64
}

func (p SwitchPath) String() string {
	return fmt.Sprintf("SwitchPath{%d[%d] -> %d[%d], switch [%d, %d), cost: %d}",
		p.FromTrackID, p.FromFrameIndex, p.ToTrackID, p.ToFrameIndex, p.SwitchStartIndex, p.SwitchEndIndex, p.Cost)
}

// PathType selects which family of plan get_raster should prefer.
type PathType int

const (
	PathTrack PathType = iota
	PathSwitch
	PathMinimum
)

func (t PathType) String() string {
	switch t {
	case PathTrack:
		return "TRACK"
	case PathSwitch:
		return "SWITCH"
	case PathMinimum:
		return "MINIMUM"
	default:
		return fmt.Sprintf("%d", int(t))
	}
}
