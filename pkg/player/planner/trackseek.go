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

// Package planner implements C4 (track-seek), C5 (switch-seek) and C6
// (playback) from spec §4.4-4.6. Each planner mutates only a locally
// owned dependency.FrameDependency; none of them touch the caches --
// that's the execution driver's job once a plan is chosen (spec §7
// recovery policy).
package planner

import (
	"context"

	"github.com/xianliangjiang/alfalfa/pkg/player/cache"
	"github.com/xianliangjiang/alfalfa/pkg/player/dependency"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
	"github.com/xianliangjiang/alfalfa/pkg/player/ports"
)

// TrackSeekPlanner is C4: it walks a single track backward from a
// target frame until every dependency the walk has accumulated is
// resolvable from cache.
type TrackSeekPlanner struct {
	metadata ports.MetadataService
	cache    *cache.RasterStateCache
}

func NewTrackSeekPlanner(metadata ports.MetadataService, c *cache.RasterStateCache) *TrackSeekPlanner {
	return &TrackSeekPlanner{metadata: metadata, cache: c}
}

// Seek walks trackID backward from fromFrameIndex (inclusive), paging
// in batches of at most ports.MaxNumFrames, charging dependencies as it
// goes. deps, if non-nil, is the dependency set to continue from;
// otherwise a fresh one is created. It returns the index at which every
// dependency became resolvable, the resulting dependency set, and the
// bytes walked; cost is model.SizeMax if the walk reached index 0
// without resolving, or -1/model.SizeMax if the backward range was
// empty to begin with (spec §4.4 edge case; open question ii resolved
// by model.NoFrameIndex instead of an unsigned wraparound).
func (p *TrackSeekPlanner) Seek(ctx context.Context, trackID uint64, fromFrameIndex int, deps *dependency.FrameDependency) (int, *dependency.FrameDependency, uint64, error) {
	if deps == nil {
		deps = dependency.New()
	}

	if fromFrameIndex < 0 {
		return model.NoFrameIndex, deps, model.SizeMax, nil
	}

	curFrameIndex := fromFrameIndex
	toFrameIndex := backwardBatchFloor(curFrameIndex)
	frames, err := p.metadata.GetFramesReverse(ctx, trackID, curFrameIndex, toFrameIndex)
	if err != nil {
		return fromFrameIndex, deps, model.SizeMax, err
	}
	if len(frames) == 0 {
		return model.NoFrameIndex, deps, model.SizeMax, nil
	}

	var cost uint64
	for curFrameIndex >= 0 {
		for _, frame := range frames {
			cost += frame.Length
			deps.UpdateDependencies(frame, p.cache)

			if deps.AllResolved() {
				return curFrameIndex, deps, cost, nil
			}
			curFrameIndex--
		}
		if curFrameIndex >= 0 {
			toFrameIndex = backwardBatchFloor(curFrameIndex)
			frames, err = p.metadata.GetFramesReverse(ctx, trackID, curFrameIndex, toFrameIndex)
			if err != nil {
				return fromFrameIndex, deps, model.SizeMax, err
			}
		}
	}

	return fromFrameIndex, deps, model.SizeMax, nil
}

// backwardBatchFloor returns the lowest index a single reverse page
// starting at fromFrameIndex may reach, given GetFramesReverse is
// inclusive on both ends.
func backwardBatchFloor(fromFrameIndex int) int {
	if fromFrameIndex-ports.MaxNumFrames+1 >= 0 {
		return fromFrameIndex - ports.MaxNumFrames + 1
	}
	return 0
}

// MinTrackSeek is get_min_track_seek (spec §8 property 7): the minimum
// TrackPath, over every (track, index) location that decodes to
// outputHash, by cost.
func (p *TrackSeekPlanner) MinTrackSeek(ctx context.Context, outputHash model.Hash) (model.TrackPath, *dependency.FrameDependency, error) {
	best := model.TrackPath{Cost: model.SizeMax}
	var bestDeps *dependency.FrameDependency

	frames, err := p.metadata.GetFramesByOutputHash(ctx, outputHash)
	if err != nil {
		return best, nil, err
	}

	for _, frame := range frames {
		locations, err := p.metadata.GetTrackDataByFrameID(ctx, frame.FrameID)
		if err != nil {
			return best, nil, err
		}
		for _, loc := range locations {
			startIndex, deps, cost, err := p.Seek(ctx, loc.TrackID, loc.FrameIndex, nil)
			if err != nil {
				return best, nil, err
			}
			if cost < best.Cost {
				best = model.TrackPath{
					TrackID:    loc.TrackID,
					StartIndex: startIndex,
					EndIndex:   loc.FrameIndex + 1,
					Cost:       cost,
				}
				bestDeps = deps
			}
		}
	}

	return best, bestDeps, nil
}
