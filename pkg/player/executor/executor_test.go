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

package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xianliangjiang/alfalfa/pkg/player/cache"
	"github.com/xianliangjiang/alfalfa/pkg/player/decoder"
	"github.com/xianliangjiang/alfalfa/pkg/player/fetcher"
	"github.com/xianliangjiang/alfalfa/pkg/player/metadata"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
	"github.com/xianliangjiang/alfalfa/pkg/player/ports"
)

// linearTrack builds n frames where frame i>0 depends on frame i-1's
// output/state as its last reference -- enough of a dependency chain
// for the null decoder to exercise GetDecoder's reference resolution.
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

func chunkFor(f model.FrameInfo) []byte {
	return decoder.EncodeChunk(f.TargetHash.Output, f.TargetHash.State)
}

func newExecutor(fake *metadata.Fake, mem *fetcher.MemFetcher) (*Executor, *cache.RasterStateCache) {
	c := cache.NewRasterStateCache(64, 64)
	return NewExecutor(c, decoder.NewNullFactory(320, 240), mem, fake), c
}

func TestFollowTrackPathDecodesAndPublishesEveryFrame(t *testing.T) {
	fake := metadata.NewFake()
	frames := linearTrack(5, 50)
	fake.AddTrack(1, frames)

	mem := fetcher.NewMemFetcher()
	for _, f := range frames {
		mem.PutChunk(f.FrameID, chunkFor(f))
	}

	e, c := newExecutor(fake, mem)
	_, err := e.FollowTrackPath(context.Background(), model.TrackPath{TrackID: 1, StartIndex: 0, EndIndex: 5}, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.True(t, c.RasterCache().Has(uint64(model.Hash(0x1000+i))))
	}
}

func TestFollowTrackPathPagesAcrossMultipleBatches(t *testing.T) {
	fake := metadata.NewFake()
	n := ports.MaxNumFrames + 500
	frames := linearTrack(n, 10)
	fake.AddTrack(1, frames)

	mem := fetcher.NewMemFetcher()
	for _, f := range frames {
		mem.PutChunk(f.FrameID, chunkFor(f))
	}

	e, c := newExecutor(fake, mem)
	_, err := e.FollowTrackPath(context.Background(), model.TrackPath{TrackID: 1, StartIndex: 0, EndIndex: n}, nil)
	require.NoError(t, err)
	require.True(t, c.RasterCache().Has(uint64(model.Hash(0x1000+n-1))))
}

func TestBatchCeil(t *testing.T) {
	require.Equal(t, 10, batchCeil(0, 10))
	require.Equal(t, ports.MaxNumFrames, batchCeil(0, ports.MaxNumFrames+500))
	require.Equal(t, ports.MaxNumFrames+500, batchCeil(ports.MaxNumFrames, ports.MaxNumFrames+500))
}

func TestFollowSwitchPathDecodesAndPublishes(t *testing.T) {
	fake := metadata.NewFake()
	fake.AddTrack(1, linearTrack(5, 50))
	fake.AddTrack(2, linearTrack(5, 50))

	switchFrames := []model.FrameInfo{
		{FrameID: 100, Length: 30, Shown: true, TargetHash: model.TargetHash{Output: 0x9000, State: 0x9100}},
		{FrameID: 101, Length: 30, Shown: true,
			SourceHash: model.SourceHash{Last: model.SomeHash(0x9000), State: model.SomeHash(0x9100)},
			TargetHash: model.TargetHash{Output: 0x9001, State: 0x9101}},
	}
	fake.AddSwitch(model.SwitchInfo{
		Frames:         switchFrames,
		FromTrackID:    1,
		ToTrackID:      2,
		FromFrameIndex: 2,
		ToFrameIndex:   2,
	})

	mem := fetcher.NewMemFetcher()
	for _, f := range switchFrames {
		mem.PutChunk(f.FrameID, chunkFor(f))
	}

	e, c := newExecutor(fake, mem)
	_, err := e.FollowSwitchPath(context.Background(), model.SwitchPath{
		FromTrackID: 1, ToTrackID: 2, FromFrameIndex: 2, SwitchStartIndex: 0, SwitchEndIndex: 2,
	}, nil)
	require.NoError(t, err)
	require.True(t, c.RasterCache().Has(uint64(model.Hash(0x9001))))
}

func TestNextChunkFetchesAheadAndSignalsExhaustion(t *testing.T) {
	fake := metadata.NewFake()
	frames := linearTrack(3, 40)
	fake.AddTrack(1, frames)

	mem := fetcher.NewMemFetcher()
	for i, f := range frames {
		mem.PutChunk(f.FrameID, []byte{byte(i)})
	}

	e, _ := newExecutor(fake, mem)
	chunkCache := NewChunkCache(16)

	seq := make([]model.FrameInfoWrapper, len(frames))
	for i, f := range frames {
		seq[i] = model.FrameInfoWrapper{FrameInfo: f, TrackID: 1, DRI: i}
	}

	idx := 0
	for i := range frames {
		chunk, newIdx, ok, err := e.NextChunk(context.Background(), seq, idx, chunkCache)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, []byte{byte(i)}, chunk)
		require.True(t, chunkCache.Has(frames[i].FrameID))
		idx = newIdx
	}

	_, _, ok, err := e.NextChunk(context.Background(), seq, idx, chunkCache)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetRasterSequentialSkipDecodesHiddenFramesThenReturnsTheShownOne(t *testing.T) {
	hidden := model.FrameInfo{
		FrameID: 1, Length: 10, Shown: false,
		TargetHash: model.TargetHash{Output: 0x100, State: 0x200},
	}
	shown := model.FrameInfo{
		FrameID: 2, Length: 20, Shown: true,
		SourceHash: model.SourceHash{Last: model.SomeHash(0x100), State: model.SomeHash(0x200)},
		TargetHash: model.TargetHash{Output: 0x101, State: 0x201},
	}

	fake := metadata.NewFake()
	mem := fetcher.NewMemFetcher()
	mem.PutChunk(hidden.FrameID, chunkFor(hidden))
	mem.PutChunk(shown.FrameID, chunkFor(shown))

	e, c := newExecutor(fake, mem)
	seq := []model.FrameInfoWrapper{
		{FrameInfo: hidden, TrackID: 1, DRI: 0},
		{FrameInfo: shown, TrackID: 1, DRI: 0},
	}

	raster, newPlayhead, err := e.GetRasterSequential(context.Background(), seq, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 2, newPlayhead)
	require.Equal(t, model.Hash(0x101), raster.Hash())
	require.True(t, c.RasterCache().Has(uint64(model.Hash(0x100))), "hidden frame must still be published")
}

func TestGetRasterSequentialRejectsPlayheadPastEnd(t *testing.T) {
	fake := metadata.NewFake()
	e, _ := newExecutor(fake, fetcher.NewMemFetcher())

	_, _, err := e.GetRasterSequential(context.Background(), nil, 0, 0)
	require.ErrorIs(t, err, model.ErrInvalidPlayheadRequest)
}

func TestGetRasterSequentialRejectsDRIBehindPlayhead(t *testing.T) {
	fake := metadata.NewFake()
	e, _ := newExecutor(fake, fetcher.NewMemFetcher())

	seq := []model.FrameInfoWrapper{{FrameInfo: model.FrameInfo{Shown: true}, TrackID: 1, DRI: 5}}
	_, _, err := e.GetRasterSequential(context.Background(), seq, 0, 0)
	require.ErrorIs(t, err, model.ErrInvalidPlayheadRequest)
}
