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

// Package ports declares the external collaborators the core consumes
// but does not implement (spec §6): the metadata service and the chunk
// fetcher. Both are borrowed references with read-only semantics as
// seen from the core (spec §5) -- this package exists on its own so
// that pkg/player/planner, pkg/player/executor and the concrete client
// bindings under pkg/player/metadata and pkg/player/fetcher can all
// depend on the same contract without importing the top-level player
// package.
package ports

import (
	"context"

	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

// MetadataService answers the structural queries C4/C5/C6 need about
// tracks, switches and quality data. Every method may block on a
// network round trip (spec §5 suspension points) and every error is
// propagated unchanged (spec §7 UpstreamFailure) -- the core has no
// retry policy of its own.
type MetadataService interface {
	GetTrackIDs(ctx context.Context) ([]uint64, error)
	GetTrackSize(ctx context.Context, trackID uint64) (int, error)

	// GetFrames returns frames in [from, to) on trackID.
	GetFrames(ctx context.Context, trackID uint64, from, to int) ([]model.FrameInfo, error)

	// GetFramesReverse returns frames on trackID in [to, from], inclusive
	// on both ends, in decreasing index order. Callers page using
	// MaxNumFrames.
	GetFramesReverse(ctx context.Context, trackID uint64, from, to int) ([]model.FrameInfo, error)

	// GetSwitchFrames returns the frames of the switch segment
	// identified by (fromTrack, toTrack, fromFrameIndex) in
	// [switchStart, switchEnd).
	GetSwitchFrames(ctx context.Context, fromTrack, toTrack uint64, fromFrameIndex, switchStart, switchEnd int) ([]model.FrameInfo, error)

	GetFramesByOutputHash(ctx context.Context, hash model.Hash) ([]model.FrameInfo, error)
	GetSwitchesWithFrame(ctx context.Context, frameID uint64) ([]model.SwitchInfo, error)
	GetAllSwitchesInWindow(ctx context.Context, trackID uint64, lo, hi int) ([]model.SwitchInfo, error)
	GetTrackDataByFrameID(ctx context.Context, frameID uint64) ([]model.TrackDataByFrameID, error)
	GetFrameIndexByDisplayedRasterIndex(ctx context.Context, trackID uint64, dri int) (int, error)
	GetConnectedTrackIDs(ctx context.Context, trackID uint64) ([]uint64, error)
	GetAllQualityDataByDRI(ctx context.Context) ([]model.QualityDataDRI, error)

	GetVideoWidth(ctx context.Context) (int, error)
	GetVideoHeight(ctx context.Context) (int, error)
	GetURL(ctx context.Context) (string, error)
}

// Fetcher turns a FrameInfo into its compressed bytes, identified
// out-of-band by the metadata service's URL.
type Fetcher interface {
	GetChunk(ctx context.Context, frame model.FrameInfo) ([]byte, error)
}

// MaxNumFrames is the metadata paging unit (spec glossary).
const MaxNumFrames = 1000

// WindowSize is the forward horizon, in frames, over which switch
// candidates are considered from the current playback position.
const WindowSize = 24 * 60
