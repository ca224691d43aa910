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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xianliangjiang/alfalfa/pkg/player/cache"
	"github.com/xianliangjiang/alfalfa/pkg/player/metadata"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

// linearTrack builds an n-frame track where frame i depends on the
// output of frame i-1 as its last reference, so resolving frame k
// requires walking back to frame 0 unless something is cached.
func linearTrack(n int, length uint64) []model.FrameInfo {
	frames := make([]model.FrameInfo, n)
	for i := 0; i < n; i++ {
		f := model.FrameInfo{
			Length: length,
			Shown:  true,
			TargetHash: model.TargetHash{
				Output: model.Hash(0x1000 + i),
				State:  model.Hash(0x2000 + i),
			},
		}
		if i > 0 {
			f.SourceHash.Last = model.SomeHash(model.Hash(0x1000 + i - 1))
			f.SourceHash.State = model.SomeHash(model.Hash(0x2000 + i - 1))
		}
		frames[i] = f
	}
	return frames
}

// TestTrackOnlySeek is scenario S2: track 7, frames f0..f9, every frame
// shown, f4's output hash is H; empty caches. Seeking H over TRACK
// should walk f4, f3, ... back to f0 and cost Σ length(f0..f4).
func TestTrackOnlySeek(t *testing.T) {
	fake := metadata.NewFake()
	fake.AddTrack(7, linearTrack(10, 100))

	c := cache.NewRasterStateCache(64, 64)
	p := NewTrackSeekPlanner(fake, c)

	startIndex, deps, cost, err := p.Seek(context.Background(), 7, 4, nil)
	require.NoError(t, err)
	require.True(t, deps.AllResolved())
	require.Equal(t, 0, startIndex)
	require.Equal(t, uint64(5*100), cost)
}

func TestTrackSeekEmptyBackwardRangeHasNoPlan(t *testing.T) {
	fake := metadata.NewFake()
	fake.AddTrack(7, linearTrack(10, 100))

	c := cache.NewRasterStateCache(64, 64)
	p := NewTrackSeekPlanner(fake, c)

	startIndex, _, cost, err := p.Seek(context.Background(), 7, model.NoFrameIndex, nil)
	require.NoError(t, err)
	require.Equal(t, model.NoFrameIndex, startIndex)
	require.Equal(t, model.SizeMax, cost)
}

func TestTrackSeekStopsEarlyOnCacheHit(t *testing.T) {
	fake := metadata.NewFake()
	fake.AddTrack(7, linearTrack(10, 100))

	c := cache.NewRasterStateCache(64, 64)
	c.RasterCache().Put(uint64(model.Hash(0x1002)), nil)
	c.StateCache().Put(uint64(model.Hash(0x2002)), nil)

	p := NewTrackSeekPlanner(fake, c)
	startIndex, deps, cost, err := p.Seek(context.Background(), 7, 4, nil)
	require.NoError(t, err)
	require.True(t, deps.AllResolved())
	require.Equal(t, 3, startIndex) // stops as soon as frame 3's sources are satisfied
	require.Equal(t, uint64(2*100), cost)
}

func TestMinTrackSeekPagesAcrossMultipleBatches(t *testing.T) {
	fake := metadata.NewFake()
	// exceed MaxNumFrames so Seek must page.
	fake.AddTrack(1, linearTrack(1500, 10))

	c := cache.NewRasterStateCache(64, 64)
	p := NewTrackSeekPlanner(fake, c)

	path, deps, err := p.MinTrackSeek(context.Background(), model.Hash(0x1000+1499))
	require.NoError(t, err)
	require.Less(t, path.Cost, model.SizeMax)
	require.True(t, deps.AllResolved())
	require.Equal(t, 0, path.StartIndex)
	require.Equal(t, 1500, path.EndIndex)
}
