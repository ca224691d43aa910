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

// SourceHash is the set of reference hashes a frame depends on to decode.
// Every field is optional: an absent reference means the decoder falls
// back to its default fresh raster/state for the configured dimensions.
type SourceHash struct {
	Last   OptionalHash
	Golden OptionalHash
	Alt    OptionalHash
	State  OptionalHash
}

// TargetHash is the pair of hashes a frame is guaranteed to produce.
type TargetHash struct {
	Output Hash
	State  Hash
}

// FrameInfo is an immutable descriptor of one compressed frame.
type FrameInfo struct {
	FrameID    uint64
	Length     uint64
	Shown      bool
	SourceHash SourceHash
	TargetHash TargetHash
}

// Track is an ordered, positionally indexed sequence of FrameInfo at one
// quality level.
type Track struct {
	TrackID uint64
	Frames  []FrameInfo
}

// SwitchInfo describes a short sequence of frames that, applied to the
// decoder state produced at from_track_id[from_frame_index], yields the
// raster/state corresponding to to_track_id[to_frame_index].
type SwitchInfo struct {
	Frames           []FrameInfo
	FromTrackID      uint64
	ToTrackID        uint64
	FromFrameIndex   int
	ToFrameIndex     int
	SwitchStartIndex int
}

// TrackDataByFrameID is one (track, index) location a frame occupies.
type TrackDataByFrameID struct {
	TrackID    uint64
	FrameIndex int
}

// QualityDataDRI is one row of the externally-supplied SSIM table.
type QualityDataDRI struct {
	OriginalRasterDRI int
	ApproximateRaster Hash
	Quality           float64
}

// FrameInfoWrapper pairs a frame with the track it came from and the
// cumulative displayed raster index at this point in a plan. TrackID is
// model.SwitchTrackID while the wrapper is part of a switch segment,
// since switch frames don't carry a track identity of their own.
type FrameInfoWrapper struct {
	FrameInfo FrameInfo
	TrackID   uint64
	DRI       int
}

// SwitchTrackID is the sentinel TrackID used for FrameInfoWrappers that
// originate from a switch segment rather than a track.
const SwitchTrackID = ^uint64(0)

// FrameSequence is a candidate plan and its worst-case quality over all
// shown frames.
type FrameSequence struct {
	Frames  []FrameInfoWrapper
	MinSSIM float64
}
