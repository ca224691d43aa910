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

// Package executor implements C7, the execution driver: it turns a
// chosen plan into decoded rasters published to the raster/state cache,
// and it drives the fetch-ahead and sequential-decode cursors the
// top-level player owns. Like the planners, it owns no cursor state of
// its own -- every call takes the cursor facts it needs and returns the
// updated facts for the caller to apply.
package executor

import (
	"context"

	"github.com/xianliangjiang/alfalfa/pkg/player/cache"
	"github.com/xianliangjiang/alfalfa/pkg/player/decoder"
	"github.com/xianliangjiang/alfalfa/pkg/player/dependency"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
	"github.com/xianliangjiang/alfalfa/pkg/player/ports"
)

// ChunkCache is the player's compressed-chunk cache keyed by frame_id
// (spec §3 player state), reusing C1's bounded-recency LRU rather than
// a hand-rolled map -- the same discipline the raster/state cache
// applies to decoded output.
type ChunkCache = cache.LRU[[]byte]

func NewChunkCache(capacity int) *ChunkCache {
	return cache.New[[]byte](capacity)
}

// Executor is C7. It holds the two collaborators every decode touches:
// the raster/state cache it publishes into, and the decoder factory and
// fetcher it drives frames through.
type Executor struct {
	cache    *cache.RasterStateCache
	decoders decoder.Factory
	fetcher  ports.Fetcher
	metadata ports.MetadataService
}

func NewExecutor(c *cache.RasterStateCache, decoders decoder.Factory, fetcher ports.Fetcher, metadata ports.MetadataService) *Executor {
	return &Executor{cache: c, decoders: decoders, fetcher: fetcher, metadata: metadata}
}

// GetDecoder builds a Decoder for frame from whatever of its source
// hashes are cache-resident; an absent hash is left zero-valued so the
// factory substitutes its default fresh reference/state (spec §4.7).
// Every source hash frame declares must already be resolvable -- a
// caller that requests a decoder for a frame whose dependencies were
// never charged will panic inside the cache's Get, per the LRU's
// has/get contract.
func (e *Executor) GetDecoder(frame model.FrameInfo) decoder.Decoder {
	var refs decoder.References
	if frame.SourceHash.Last.Valid {
		refs.Last = e.cache.RasterCache().Get(uint64(frame.SourceHash.Last.Hash))
	}
	if frame.SourceHash.Golden.Valid {
		refs.Golden = e.cache.RasterCache().Get(uint64(frame.SourceHash.Golden.Hash))
	}
	if frame.SourceHash.Alt.Valid {
		refs.Alt = e.cache.RasterCache().Get(uint64(frame.SourceHash.Alt.Hash))
	}

	var state decoder.State
	if frame.SourceHash.State.Valid {
		state = e.cache.StateCache().Get(uint64(frame.SourceHash.State.Hash))
	}

	return e.decoders.NewDecoder(state, refs)
}

// decodeFrame is the {build decoder, fetch chunk, decode, publish,
// relieve dependencies} unit every forward-walking operation repeats.
// The publish order -- Put(decoder) before PutRaster(output) before
// UpdateDependenciesForward -- mirrors the original's follow_track_path
// literally; deps may be nil when the caller isn't threading a plan
// dependency set (sequential play doesn't use C3 at all).
func (e *Executor) decodeFrame(ctx context.Context, frame model.FrameInfo, deps *dependency.FrameDependency) error {
	chunk, err := e.fetcher.GetChunk(ctx, frame)
	if err != nil {
		return err
	}

	dec := e.GetDecoder(frame)
	_, output, err := dec.GetFrameOutput(chunk)
	if err != nil {
		return err
	}

	e.cache.Put(dec)
	e.cache.PutRaster(output)
	if deps != nil {
		deps.UpdateDependenciesForward(frame, e.cache)
	}
	return nil
}

// FollowTrackPath is follow_track_path (spec §4.7): decode
// [path.StartIndex, path.EndIndex) on path.TrackID, in batches of at
// most ports.MaxNumFrames, publishing every output and relieving deps
// as it goes.
func (e *Executor) FollowTrackPath(ctx context.Context, path model.TrackPath, deps *dependency.FrameDependency) (*dependency.FrameDependency, error) {
	fromFrameIndex := path.StartIndex
	toFrameIndex := batchCeil(fromFrameIndex, path.EndIndex)
	frames, err := e.metadata.GetFrames(ctx, path.TrackID, fromFrameIndex, toFrameIndex)
	if err != nil {
		return deps, err
	}

	for fromFrameIndex < path.EndIndex {
		for _, frame := range frames {
			if err := e.decodeFrame(ctx, frame, deps); err != nil {
				return deps, err
			}
		}
		fromFrameIndex += ports.MaxNumFrames
		if fromFrameIndex < path.EndIndex {
			toFrameIndex = batchCeil(fromFrameIndex, path.EndIndex)
			frames, err = e.metadata.GetFrames(ctx, path.TrackID, fromFrameIndex, toFrameIndex)
			if err != nil {
				return deps, err
			}
		}
	}

	return deps, nil
}

// batchCeil caps a forward paging window at MaxNumFrames without
// overrunning end.
func batchCeil(from, end int) int {
	if from+ports.MaxNumFrames >= end {
		return end
	}
	return from + ports.MaxNumFrames
}

// FollowSwitchPath is follow_switch_path: identical decode-and-publish
// shape to FollowTrackPath, but driven by the switch-frame iterator
// rather than a single track's frames.
func (e *Executor) FollowSwitchPath(ctx context.Context, path model.SwitchPath, deps *dependency.FrameDependency) (*dependency.FrameDependency, error) {
	frames, err := e.metadata.GetSwitchFrames(ctx, path.FromTrackID, path.ToTrackID, path.FromFrameIndex, path.SwitchStartIndex, path.SwitchEndIndex)
	if err != nil {
		return deps, err
	}

	for _, frame := range frames {
		if err := e.decodeFrame(ctx, frame, deps); err != nil {
			return deps, err
		}
	}

	return deps, nil
}

// GetRasterSequential is get_raster_sequential (spec §4.7): decode
// forward from playheadIndex in frameSeq until a wrapper with dri > dri
// has been produced, or a shown wrapper at dri has. Sequential play
// doesn't thread a FrameDependency through C3 -- every frame decoded
// here already has its dependencies cache-resident by construction of
// the sequence itself.
//
// Returns the decoded raster and the playhead index one past the last
// frame consumed, for the caller to store back.
func (e *Executor) GetRasterSequential(ctx context.Context, frameSeq []model.FrameInfoWrapper, playheadIndex, dri int) (decoder.Raster, int, error) {
	if playheadIndex >= len(frameSeq) {
		return nil, playheadIndex, model.ErrInvalidPlayheadRequest
	}

	wrapper := frameSeq[playheadIndex]
	playheadIndex++
	if wrapper.DRI > dri {
		return nil, playheadIndex, model.ErrInvalidPlayheadRequest
	}

	for wrapper.DRI < dri || (wrapper.DRI == dri && !wrapper.FrameInfo.Shown) {
		if err := e.decodeFrame(ctx, wrapper.FrameInfo, nil); err != nil {
			return nil, playheadIndex, err
		}
		if playheadIndex >= len(frameSeq) {
			return nil, playheadIndex, model.ErrInvalidPlayheadRequest
		}
		wrapper = frameSeq[playheadIndex]
		playheadIndex++
	}

	chunk, err := e.fetcher.GetChunk(ctx, wrapper.FrameInfo)
	if err != nil {
		return nil, playheadIndex, err
	}
	dec := e.GetDecoder(wrapper.FrameInfo)
	_, output, err := dec.GetFrameOutput(chunk)
	if err != nil {
		return nil, playheadIndex, err
	}
	e.cache.Put(dec)
	e.cache.PutRaster(output)

	return output, playheadIndex, nil
}

// NextChunk is get_next_chunk (spec §4.7): fetch the compressed bytes
// of the next undownloaded frame in frameSeq, cache them under the
// frame's id, and report how many bytes to add to the player's
// downloaded_frame_bytes accounting. ok is false once downloadPtIndex
// has caught up with frameSeq -- there is nothing left to prefetch.
func (e *Executor) NextChunk(ctx context.Context, frameSeq []model.FrameInfoWrapper, downloadPtIndex int, chunkCache *ChunkCache) (chunk []byte, newDownloadPtIndex int, ok bool, err error) {
	if downloadPtIndex >= len(frameSeq) {
		return nil, downloadPtIndex, false, nil
	}

	frame := frameSeq[downloadPtIndex].FrameInfo
	chunk, err = e.fetcher.GetChunk(ctx, frame)
	if err != nil {
		return nil, downloadPtIndex, false, err
	}

	chunkCache.Put(frame.FrameID, chunk)
	return chunk, downloadPtIndex + 1, true, nil
}
