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

package player

import (
	"context"
	"testing"

	"github.com/livekit/protocol/logger"
	"github.com/stretchr/testify/require"

	"github.com/xianliangjiang/alfalfa/pkg/player/decoder"
	"github.com/xianliangjiang/alfalfa/pkg/player/fetcher"
	"github.com/xianliangjiang/alfalfa/pkg/player/metadata"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

// linearTrack builds n frames where frame i>0 depends on frame i-1's
// output/state, each frame individually shown.
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

func setupPlayer(t *testing.T, fake *metadata.Fake, registerFrames ...[]model.FrameInfo) (*Player, *fetcher.MemFetcher) {
	mem := fetcher.NewMemFetcher()
	for _, frames := range registerFrames {
		for _, f := range frames {
			mem.PutChunk(f.FrameID, decoder.EncodeChunk(f.TargetHash.Output, f.TargetHash.State))
		}
	}

	p, err := New(context.Background(), fake, mem, decoder.NewNullFactory(320, 240), CacheSizes{
		RasterCapacity: 64, StateCapacity: 64, ChunkCapacity: 64,
	}, 1_000_000, logger.GetLogger())
	require.NoError(t, err)
	return p, mem
}

// TestGetRasterTrackOnly is scenario S2: a single track, no switches.
// GetRaster with PathTrack should walk backward from the target output
// hash and publish it into the raster cache.
func TestGetRasterTrackOnly(t *testing.T) {
	fake := metadata.NewFake()
	frames := linearTrack(10, 100)
	fake.AddTrack(7, frames)

	p, _ := setupPlayer(t, fake, frames)

	raster, err := p.GetRaster(context.Background(), model.Hash(0x1000+4), model.PathTrack)
	require.NoError(t, err)
	require.Equal(t, model.Hash(0x1000+4), raster.Hash())
}

// TestSetCurrentFrameSeqRandomSeekSwapsInWholesale checks that a
// random seek discards whatever was queued and resets both cursors.
func TestSetCurrentFrameSeqRandomSeekSwapsInWholesale(t *testing.T) {
	fake := metadata.NewFake()
	frames := linearTrack(10, 100)
	fake.AddTrack(7, frames)

	p, _ := setupPlayer(t, fake, frames)

	// Seed the player with an unrelated in-flight sequence so the swap
	// is observable.
	p.currentFrameSeq = []model.FrameInfoWrapper{{FrameInfo: frames[0], TrackID: 7, DRI: 0}}
	p.currentDownloadPtIndex = 1
	p.currentPlayheadIndex = 1

	dri := 3
	err := p.SetCurrentFrameSeq(context.Background(), &dri)
	require.NoError(t, err)
	require.Equal(t, 0, p.currentDownloadPtIndex)
	require.Equal(t, 0, p.currentPlayheadIndex)
	require.NotEmpty(t, p.currentFrameSeq)
	require.Equal(t, uint64(7), p.currentFrameSeq[0].TrackID)
}

// TestSequentialPlaybackLoop checks that once a sequence is queued
// (here, via an initial random seek to dri 0), GetNextChunk/
// GetRasterSequential should fetch-ahead and decode the whole track to
// completion in lockstep.
func TestSequentialPlaybackLoop(t *testing.T) {
	fake := metadata.NewFake()
	frames := linearTrack(5, 50)
	fake.AddTrack(1, frames)

	p, _ := setupPlayer(t, fake, frames)

	dri := 0
	err := p.SetCurrentFrameSeq(context.Background(), &dri)
	require.NoError(t, err)
	require.Len(t, p.currentFrameSeq, 5)

	for {
		ok, err := p.GetNextChunk(context.Background())
		require.NoError(t, err)
		if !ok {
			break
		}
	}
	require.Equal(t, 5, p.currentDownloadPtIndex)
	require.Equal(t, uint64(5*50), p.downloadedFrameBytes)

	for dri := 0; dri < 5; dri++ {
		raster, err := p.GetRasterSequential(context.Background(), dri)
		require.NoError(t, err)
		require.Equal(t, model.Hash(0x1000+dri), raster.Hash())
	}
	require.Equal(t, 5, p.currentPlayheadIndex)
}

// TestCurrentTrackAndIndexSplitsTheTwoCursorReads guards against
// conflating the AT-index and AT-1 wrapper reads: once one shown frame
// has been downloaded, the AT-1 wrapper's dri trails the AT-index
// wrapper's by one, so switchFromFrameIndex must be resolved against
// the AT-index wrapper's dri, not the AT-1 wrapper's own (stale) dri.
func TestCurrentTrackAndIndexSplitsTheTwoCursorReads(t *testing.T) {
	fake := metadata.NewFake()
	frames := linearTrack(5, 50)
	fake.AddTrack(9, frames)

	p, _ := setupPlayer(t, fake, frames)

	dri := 0
	require.NoError(t, p.SetCurrentFrameSeq(context.Background(), &dri))

	ok, err := p.GetNextChunk(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, p.currentDownloadPtIndex)

	selfSkipTrackID, switchFromTrackID, switchFromFrameIndex, atIndexDRI, err := p.currentTrackAndIndex(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(9), selfSkipTrackID)
	require.Equal(t, 1, atIndexDRI)
	require.Equal(t, uint64(9), switchFromTrackID)
	require.Equal(t, 1, switchFromFrameIndex)
}

// TestGetRasterNoPlanReportsErrNoPlan covers spec's UpstreamFailure-
// adjacent edge case: an output hash nothing in the catalog produces.
func TestGetRasterNoPlanReportsErrNoPlan(t *testing.T) {
	fake := metadata.NewFake()
	frames := linearTrack(3, 10)
	fake.AddTrack(1, frames)

	p, _ := setupPlayer(t, fake, frames)

	_, err := p.GetRaster(context.Background(), model.Hash(0xDEADBEEF), model.PathTrack)
	require.ErrorIs(t, err, model.ErrNoPlan)
}

func TestClearCacheEmptiesEverything(t *testing.T) {
	fake := metadata.NewFake()
	frames := linearTrack(3, 10)
	fake.AddTrack(1, frames)

	p, _ := setupPlayer(t, fake, frames)

	_, err := p.GetRaster(context.Background(), model.Hash(0x1000+2), model.PathTrack)
	require.NoError(t, err)
	require.Greater(t, p.cache.Size(), 0)

	p.ClearCache()
	require.Equal(t, 0, p.cache.Size())
}
