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

// Package wire holds the JSON shapes HTTPMetadataService exchanges
// with the external metadata service (spec §6). These are kept
// separate from pkg/player/model so the core never depends on the wire
// format -- the same separation the teacher draws between pkg/agent's
// JobNotification and the room/participant types in pkg/rtc.
package wire

// OptionalHash is the wire encoding of model.OptionalHash: present is
// false (the zero value) when the field is omitted.
type OptionalHash struct {
	Hash    uint64 `json:"hash"`
	Present bool   `json:"present"`
}

type SourceHash struct {
	Last   OptionalHash `json:"last"`
	Golden OptionalHash `json:"golden"`
	Alt    OptionalHash `json:"alt"`
	State  OptionalHash `json:"state"`
}

type TargetHash struct {
	Output uint64 `json:"output"`
	State  uint64 `json:"state"`
}

type FrameInfo struct {
	FrameID    uint64     `json:"frame_id"`
	Length     uint64     `json:"length"`
	Shown      bool       `json:"shown"`
	SourceHash SourceHash `json:"source_hash"`
	TargetHash TargetHash `json:"target_hash"`
}

type SwitchInfo struct {
	Frames           []FrameInfo `json:"frames"`
	FromTrackID      uint64      `json:"from_track_id"`
	ToTrackID        uint64      `json:"to_track_id"`
	FromFrameIndex   int         `json:"from_frame_index"`
	ToFrameIndex     int         `json:"to_frame_index"`
	SwitchStartIndex int         `json:"switch_start_index"`
}

type TrackDataByFrameID struct {
	TrackID    uint64 `json:"track_id"`
	FrameIndex int    `json:"frame_index"`
}

type QualityDataDRI struct {
	OriginalRasterDRI int     `json:"original_raster_dri"`
	ApproximateRaster uint64  `json:"approximate_raster"`
	Quality           float64 `json:"quality"`
}

// FramesResponse wraps a get_frames-family query result. The real
// service batches responses at MAX_NUM_FRAMES per spec.md's comment on
// keeping wire payloads bounded; HTTPMetadataService.GetFrames issues a
// single request per call and does not page, so its callers (the
// planners and the executor) page in MaxNumFrames batches themselves.
type FramesResponse struct {
	Frames []FrameInfo `json:"frames"`
}

type SwitchesResponse struct {
	Switches []SwitchInfo `json:"switches"`
}

type TrackIDsResponse struct {
	TrackIDs []uint64 `json:"track_ids"`
}

type TrackSizeResponse struct {
	Size int `json:"size"`
}

type TrackDataResponse struct {
	Locations []TrackDataByFrameID `json:"locations"`
}

type FrameIndexResponse struct {
	FrameIndex int `json:"frame_index"`
}

type ConnectedTracksResponse struct {
	TrackIDs []uint64 `json:"track_ids"`
}

type QualityDataResponse struct {
	Rows []QualityDataDRI `json:"rows"`
}

type VideoInfoResponse struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}
