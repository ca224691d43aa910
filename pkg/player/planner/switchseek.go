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

package planner

import (
	"context"

	"github.com/xianliangjiang/alfalfa/pkg/player/cache"
	"github.com/xianliangjiang/alfalfa/pkg/player/dependency"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
	"github.com/xianliangjiang/alfalfa/pkg/player/ports"
)

// SwitchSeekPlanner is C5: it enumerates switch segments reaching a
// target frame and, for any residual dependency a switch alone can't
// resolve, recursively invokes a TrackSeekPlanner.
type SwitchSeekPlanner struct {
	metadata ports.MetadataService
	cache    *cache.RasterStateCache
	track    *TrackSeekPlanner
}

func NewSwitchSeekPlanner(metadata ports.MetadataService, c *cache.RasterStateCache) *SwitchSeekPlanner {
	return &SwitchSeekPlanner{
		metadata: metadata,
		cache:    c,
		track:    NewTrackSeekPlanner(metadata, c),
	}
}

// MinSwitchSeek is get_min_switch_seek (spec §4.5): the minimum-cost
// plan across every (target_frame, switch) pair whose switch reaches a
// frame decoding to outputHash. The residual TrackPath is nil when the
// switch alone resolved every dependency.
func (p *SwitchSeekPlanner) MinSwitchSeek(ctx context.Context, outputHash model.Hash) (model.SwitchPath, *model.TrackPath, *dependency.FrameDependency, error) {
	best := model.SwitchPath{Cost: model.SizeMax}
	var bestTrack *model.TrackPath
	var bestDeps *dependency.FrameDependency

	frames, err := p.metadata.GetFramesByOutputHash(ctx, outputHash)
	if err != nil {
		return best, nil, nil, err
	}

	for _, targetFrame := range frames {
		switches, err := p.metadata.GetSwitchesWithFrame(ctx, targetFrame.FrameID)
		if err != nil {
			return best, nil, nil, err
		}

		for _, sw := range switches {
			cost := uint64(0)
			deps := dependency.New()

			curIndex := sw.SwitchStartIndex
			resolvedInSwitch := false
			for _, frame := range sw.Frames {
				cost += frame.Length
				deps.UpdateDependencies(frame, p.cache)
				if deps.AllResolved() {
					resolvedInSwitch = true
					break
				}
				curIndex++
			}
			// curIndex is the resolving frame's index on an early stop, and
			// already one past the last frame when the whole switch was walked.
			switchEndIndex := curIndex
			if resolvedInSwitch {
				switchEndIndex = curIndex + 1
			}

			if resolvedInSwitch {
				if cost < best.Cost {
					best = model.SwitchPath{
						FromTrackID:      sw.FromTrackID,
						ToTrackID:        sw.ToTrackID,
						FromFrameIndex:   sw.FromFrameIndex,
						ToFrameIndex:     sw.ToFrameIndex,
						SwitchStartIndex: 0,
						SwitchEndIndex:   switchEndIndex,
						Cost:             cost,
					}
					bestTrack = nil
					bestDeps = deps
				}
				continue
			}

			trackStart, trackDeps, trackCost, err := p.track.Seek(ctx, sw.FromTrackID, sw.FromFrameIndex, deps)
			if err != nil {
				return best, nil, nil, err
			}
			if trackCost == model.SizeMax {
				continue
			}

			total := cost + trackCost
			if total < best.Cost {
				best = model.SwitchPath{
					FromTrackID:      sw.FromTrackID,
					ToTrackID:        sw.ToTrackID,
					FromFrameIndex:   sw.FromFrameIndex,
					ToFrameIndex:     sw.ToFrameIndex,
					SwitchStartIndex: 0,
					SwitchEndIndex:   switchEndIndex,
					Cost:             total,
				}
				residual := model.TrackPath{
					TrackID:    sw.FromTrackID,
					StartIndex: trackStart,
					EndIndex:   sw.FromFrameIndex + 1,
					Cost:       trackCost,
				}
				bestTrack = &residual
				bestDeps = trackDeps
			}
		}
	}

	return best, bestTrack, bestDeps, nil
}
