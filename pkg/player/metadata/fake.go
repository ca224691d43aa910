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

// Package metadata provides client bindings for the external metadata
// service spec §6 describes: an HTTP+JSON client for production use,
// and an in-memory fake for tests, grounded on the teacher's
// pkg/sfu/testutils fakes.
package metadata

import (
	"context"
	"sort"

	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

// Fake is an in-memory ports.MetadataService, built up with AddTrack and
// AddSwitch. It never errors and never pages beyond what the caller
// asked for, so tests can focus on planner logic rather than transport.
type Fake struct {
	tracks     map[uint64][]model.FrameInfo
	switches   []model.SwitchInfo
	quality    []model.QualityDataDRI
	connected  map[uint64][]uint64
	width      int
	height     int
	url        string
	nextFrameID uint64
}

func NewFake() *Fake {
	return &Fake{
		tracks:    make(map[uint64][]model.FrameInfo),
		connected: make(map[uint64][]uint64),
		width:     320,
		height:    240,
		url:       "fake://metadata",
	}
}

// AddTrack registers frames as trackID's content, assigning sequential
// FrameIDs if the caller left them at zero.
func (f *Fake) AddTrack(trackID uint64, frames []model.FrameInfo) {
	for i := range frames {
		if frames[i].FrameID == 0 {
			f.nextFrameID++
			frames[i].FrameID = f.nextFrameID
		}
	}
	f.tracks[trackID] = frames
}

func (f *Fake) AddSwitch(sw model.SwitchInfo) {
	f.switches = append(f.switches, sw)
	f.connected[sw.FromTrackID] = appendUnique(f.connected[sw.FromTrackID], sw.ToTrackID)
}

func (f *Fake) SetQualityData(q []model.QualityDataDRI) { f.quality = q }
func (f *Fake) SetDimensions(width, height int)         { f.width, f.height = width, height }

func appendUnique(ids []uint64, id uint64) []uint64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func (f *Fake) GetTrackIDs(ctx context.Context) ([]uint64, error) {
	ids := make([]uint64, 0, len(f.tracks))
	for id := range f.tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *Fake) GetTrackSize(ctx context.Context, trackID uint64) (int, error) {
	return len(f.tracks[trackID]), nil
}

func (f *Fake) GetFrames(ctx context.Context, trackID uint64, from, to int) ([]model.FrameInfo, error) {
	frames := f.tracks[trackID]
	from = clamp(from, 0, len(frames))
	to = clamp(to, 0, len(frames))
	if from > to {
		return nil, nil
	}
	out := make([]model.FrameInfo, to-from)
	copy(out, frames[from:to])
	return out, nil
}

func (f *Fake) GetFramesReverse(ctx context.Context, trackID uint64, from, to int) ([]model.FrameInfo, error) {
	frames := f.tracks[trackID]
	if from < 0 || from >= len(frames) || to < 0 || to > from {
		return nil, nil
	}
	out := make([]model.FrameInfo, 0, from-to+1)
	for i := from; i >= to; i-- {
		out = append(out, frames[i])
	}
	return out, nil
}

func (f *Fake) GetSwitchFrames(ctx context.Context, fromTrack, toTrack uint64, fromFrameIndex, switchStart, switchEnd int) ([]model.FrameInfo, error) {
	for _, sw := range f.switches {
		if sw.FromTrackID == fromTrack && sw.ToTrackID == toTrack && sw.FromFrameIndex == fromFrameIndex {
			start := clamp(switchStart, 0, len(sw.Frames))
			end := clamp(switchEnd, 0, len(sw.Frames))
			if start > end {
				return nil, nil
			}
			out := make([]model.FrameInfo, end-start)
			copy(out, sw.Frames[start:end])
			return out, nil
		}
	}
	return nil, nil
}

func (f *Fake) GetFramesByOutputHash(ctx context.Context, hash model.Hash) ([]model.FrameInfo, error) {
	var out []model.FrameInfo
	for _, frames := range f.tracks {
		for _, frame := range frames {
			if frame.TargetHash.Output == hash {
				out = append(out, frame)
			}
		}
	}
	for _, sw := range f.switches {
		for _, frame := range sw.Frames {
			if frame.TargetHash.Output == hash {
				out = append(out, frame)
			}
		}
	}
	return out, nil
}

func (f *Fake) GetSwitchesWithFrame(ctx context.Context, frameID uint64) ([]model.SwitchInfo, error) {
	var out []model.SwitchInfo
	for _, sw := range f.switches {
		for _, frame := range sw.Frames {
			if frame.FrameID == frameID {
				out = append(out, sw)
				break
			}
		}
	}
	return out, nil
}

func (f *Fake) GetAllSwitchesInWindow(ctx context.Context, trackID uint64, lo, hi int) ([]model.SwitchInfo, error) {
	var out []model.SwitchInfo
	for _, sw := range f.switches {
		if sw.FromTrackID != trackID {
			continue
		}
		if sw.FromFrameIndex >= lo && sw.FromFrameIndex <= hi {
			out = append(out, sw)
		}
	}
	return out, nil
}

func (f *Fake) GetTrackDataByFrameID(ctx context.Context, frameID uint64) ([]model.TrackDataByFrameID, error) {
	var out []model.TrackDataByFrameID
	for trackID, frames := range f.tracks {
		for i, frame := range frames {
			if frame.FrameID == frameID {
				out = append(out, model.TrackDataByFrameID{TrackID: trackID, FrameIndex: i})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out, nil
}

func (f *Fake) GetFrameIndexByDisplayedRasterIndex(ctx context.Context, trackID uint64, dri int) (int, error) {
	count := -1
	for i, frame := range f.tracks[trackID] {
		if frame.Shown {
			count++
			if count == dri {
				return i, nil
			}
		}
	}
	return 0, nil
}

func (f *Fake) GetConnectedTrackIDs(ctx context.Context, trackID uint64) ([]uint64, error) {
	return f.connected[trackID], nil
}

func (f *Fake) GetAllQualityDataByDRI(ctx context.Context) ([]model.QualityDataDRI, error) {
	return f.quality, nil
}

func (f *Fake) GetVideoWidth(ctx context.Context) (int, error)  { return f.width, nil }
func (f *Fake) GetVideoHeight(ctx context.Context) (int, error) { return f.height, nil }
func (f *Fake) GetURL(ctx context.Context) (string, error)      { return f.url, nil }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
