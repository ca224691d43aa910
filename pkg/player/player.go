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

// Package player is the top-level assembly (spec §3 player state, §5
// concurrency model): it owns current_frame_seq and both cursors, and
// is the only thing that ever mutates them. C4-C7 are stateless
// collaborators it drives; every exported method here must be called
// from a single goroutine (spec §5's single-writer discipline) -- this
// package enforces none of that itself, matching the teacher's pattern
// of a single owning goroutine per Forwarder/PublisherTrack driven from
// pkg/rtc rather than an internal mutex.
package player

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/livekit/protocol/logger"
	"github.com/pkg/errors"

	"github.com/xianliangjiang/alfalfa/pkg/player/cache"
	"github.com/xianliangjiang/alfalfa/pkg/player/decoder"
	"github.com/xianliangjiang/alfalfa/pkg/player/executor"
	"github.com/xianliangjiang/alfalfa/pkg/player/metrics"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
	"github.com/xianliangjiang/alfalfa/pkg/player/planner"
	"github.com/xianliangjiang/alfalfa/pkg/player/ports"
)

// Player is the process-wide, single-owner state of spec §3.
type Player struct {
	metadata ports.MetadataService
	cache    *cache.RasterStateCache
	chunks   *executor.ChunkCache
	exec     *executor.Executor
	plan     *planner.PlaybackPlanner
	quality  model.QualityTable
	logger   logger.Logger

	throughputEstimate uint64

	currentFrameSeq        []model.FrameInfoWrapper
	currentDownloadPtIndex int
	currentPlayheadIndex   int
	downloadedFrameBytes   uint64
}

// CacheSizes configures C1/C2's LRUs and the compressed-chunk cache.
type CacheSizes struct {
	RasterCapacity int
	StateCapacity  int
	ChunkCapacity  int
}

// New builds a Player from one metadata query batch, mirroring the
// original constructor: it does not eagerly fetch every track's
// frames up front (track_frames_ in the original is populated this
// way, but a real video's frame count makes that an unbounded-memory
// choice this module doesn't repeat -- planners page through
// metadata.GetFrames/GetFramesReverse on demand instead). Only the
// quality table, which is small and needed on every scoring call, is
// loaded eagerly.
func New(ctx context.Context, metadata ports.MetadataService, fetcher ports.Fetcher, decoders decoder.Factory, sizes CacheSizes, throughputEstimate uint64, log logger.Logger) (*Player, error) {
	rows, err := metadata.GetAllQualityDataByDRI(ctx)
	if err != nil {
		return nil, fmt.Errorf("player: loading quality table: %w", err)
	}

	c := cache.NewRasterStateCache(sizes.RasterCapacity, sizes.StateCapacity)
	exec := executor.NewExecutor(c, decoders, fetcher, metadata)

	return &Player{
		metadata:           metadata,
		cache:              c,
		chunks:             executor.NewChunkCache(sizes.ChunkCapacity),
		exec:               exec,
		plan:               planner.NewPlaybackPlanner(metadata, c),
		quality:            model.NewQualityTable(rows),
		logger:             log,
		throughputEstimate: throughputEstimate,
	}, nil
}

// GetRaster is get_raster (spec §4.6/§4.7): resolve a plan for
// outputHash via C6.ChoosePath, run it forward via C7, and read the
// decoded raster back out of the raster cache. Mirrors
// get_raster_switch_path's literal ordering: when SWITCH wins and
// needed a residual track seek, that residual runs first, feeding the
// same FrameDependency the switch walk then consumes.
func (p *Player) GetRaster(ctx context.Context, outputHash model.Hash, pathType model.PathType) (decoder.Raster, error) {
	chosen, err := p.plan.ChoosePath(ctx, outputHash, pathType)
	if err != nil {
		p.logger.Errorw("choosing path failed", err, "outputHash", outputHash, "pathType", pathType)
		return nil, errors.Wrapf(err, "choosing path for output hash %s", outputHash)
	}

	switch chosen.Type {
	case model.PathTrack:
		if chosen.Track == nil || chosen.Track.Cost == model.SizeMax {
			p.logger.Warnw("no plan resolves output hash", nil, "outputHash", outputHash, "pathType", pathType)
			return nil, model.ErrNoPlan
		}
		if _, err := p.exec.FollowTrackPath(ctx, *chosen.Track, chosen.Deps); err != nil {
			p.logger.Errorw("following track path failed", err, "outputHash", outputHash, "trackID", chosen.Track.TrackID)
			return nil, errors.Wrap(err, "following track path")
		}
	case model.PathSwitch:
		if chosen.Switch == nil || chosen.Switch.Cost == model.SizeMax {
			p.logger.Warnw("no plan resolves output hash", nil, "outputHash", outputHash, "pathType", pathType)
			return nil, model.ErrNoPlan
		}
		deps := chosen.Deps
		if chosen.SwitchTrack != nil {
			deps, err = p.exec.FollowTrackPath(ctx, *chosen.SwitchTrack, deps)
			if err != nil {
				p.logger.Errorw("following residual track path failed", err, "outputHash", outputHash)
				return nil, errors.Wrap(err, "following residual track path")
			}
		}
		if _, err := p.exec.FollowSwitchPath(ctx, *chosen.Switch, deps); err != nil {
			p.logger.Errorw("following switch path failed", err, "outputHash", outputHash)
			return nil, errors.Wrap(err, "following switch path")
		}
	default:
		p.logger.Warnw("no plan resolves output hash", nil, "outputHash", outputHash, "pathType", pathType)
		return nil, model.ErrNoPlan
	}

	return p.cache.RasterCache().Get(uint64(outputHash)), nil
}

// currentTrackAndIndex reads the two distinct cursor facts
// GetSequentialPlayOptions needs (alfalfa_player.cc's
// get_sequential_play_options): selfSkipTrackID and dri come off the
// wrapper AT the download point and are the shared dri basis for every
// track-jump/switch-jump candidate and the track-jump self-skip
// comparison. switchFromTrackID and switchFromFrameIndex come
// separately off the wrapper one BEFORE the download point, and are
// used only for the "currently on a switch segment" eligibility check
// and as the source track for GetConnectedTrackIDs/the switch-window
// query -- these two reads disagree on dri whenever the intervening
// frame was shown, so they must not be conflated into one cursor.
func (p *Player) currentTrackAndIndex(ctx context.Context) (selfSkipTrackID, switchFromTrackID uint64, switchFromFrameIndex, dri int, err error) {
	if p.currentDownloadPtIndex >= len(p.currentFrameSeq) {
		return model.SwitchTrackID, model.SwitchTrackID, 0, 0, nil
	}

	atIndex := p.currentFrameSeq[p.currentDownloadPtIndex]
	dri = atIndex.DRI
	selfSkipTrackID = atIndex.TrackID

	if p.currentDownloadPtIndex == 0 {
		return selfSkipTrackID, model.SwitchTrackID, 0, dri, nil
	}

	switchFromTrackID = p.currentFrameSeq[p.currentDownloadPtIndex-1].TrackID
	if switchFromTrackID == model.SwitchTrackID {
		return selfSkipTrackID, model.SwitchTrackID, 0, dri, nil
	}

	idx, err := p.metadata.GetFrameIndexByDisplayedRasterIndex(ctx, switchFromTrackID, dri)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return selfSkipTrackID, switchFromTrackID, idx, dri, nil
}

// chunkCached reports whether frameID's compressed bytes are already
// in the player's chunk cache, the collaborator the feasibility
// predicate consults.
func (p *Player) chunkCached(frameID uint64) bool {
	hit := p.chunks.Has(frameID)
	metrics.ObserveCacheLookup("chunk", hit)
	return hit
}

// SetCurrentFrameSeq is spec §4.6's continuous-playback decision. If
// driToSeek is non-nil this performs a random seek: the sequence is
// swapped in wholesale and both cursors reset to 0. Otherwise it is
// the sequential-play decision: current_frame_seq is truncated to the
// download point and the chosen tail appended, preserving both
// cursors.
func (p *Player) SetCurrentFrameSeq(ctx context.Context, driToSeek *int) error {
	selfSkipTrackID, switchFromTrackID, switchFromFrameIndex, dri, err := p.currentTrackAndIndex(ctx)
	if err != nil {
		p.logger.Errorw("resolving current track position failed", err)
		return errors.Wrap(err, "resolving current track position")
	}

	in := planner.SequentialPlayInput{
		CurrentFrameSeq:        p.currentFrameSeq,
		CurrentDownloadPtIndex: p.currentDownloadPtIndex,
		CurrentPlayheadIndex:   p.currentPlayheadIndex,
		CurrentTrackID:         selfSkipTrackID,
		CurrentDRI:             dri,
		SwitchFromTrackID:      switchFromTrackID,
		SwitchFromFrameIndex:   switchFromFrameIndex,
		DownloadedFrameBytes:   p.downloadedFrameBytes,
		QualityTable:           p.quality,
	}

	seq, swapIn, err := p.plan.SetCurrentFrameSeq(ctx, in, driToSeek, p.throughputEstimate, p.chunkCached)
	if err != nil {
		if errors.Is(err, model.ErrInfeasible) {
			p.logger.Warnw("no feasible sequential candidate", err, "dri", dri, "downloadedFrameBytes", p.downloadedFrameBytes)
		} else {
			p.logger.Errorw("choosing next frame sequence failed", err, "dri", dri)
		}
		return errors.Wrap(err, "choosing next frame sequence")
	}

	if swapIn {
		p.currentFrameSeq = seq.Frames
		p.currentDownloadPtIndex = 0
		p.currentPlayheadIndex = 0
		return nil
	}

	p.currentFrameSeq = append(p.currentFrameSeq[:p.currentDownloadPtIndex], seq.Frames...)
	return nil
}

// GetNextChunk is get_next_chunk (spec §4.7). ok is false once nothing
// remains to prefetch in the current sequence.
func (p *Player) GetNextChunk(ctx context.Context) (ok bool, err error) {
	frame := p.currentFrameSeq
	if p.currentDownloadPtIndex < len(frame) {
		length := frame[p.currentDownloadPtIndex].FrameInfo.Length
		_, newIdx, ok, err := p.exec.NextChunk(ctx, frame, p.currentDownloadPtIndex, p.chunks)
		if err != nil || !ok {
			return ok, err
		}
		p.downloadedFrameBytes += length
		p.currentDownloadPtIndex = newIdx
		return true, nil
	}
	return false, nil
}

// GetRasterSequential is get_raster_sequential (spec §4.7): decode
// forward from the playhead until dri is produced.
func (p *Player) GetRasterSequential(ctx context.Context, dri int) (decoder.Raster, error) {
	raster, newPlayhead, err := p.exec.GetRasterSequential(ctx, p.currentFrameSeq, p.currentPlayheadIndex, dri)
	p.currentPlayheadIndex = newPlayhead
	return raster, err
}

// ExampleRaster is example_raster (original_source supplement): a
// diagnostic accessor returning the decoder's default/blank raster, for
// CLI smoke-testing without a real fetch.
func (p *Player) ExampleRaster(decoders decoder.Factory) decoder.Raster {
	return decoders.DefaultRaster()
}

// DumpCache is print_cache (original_source supplement): writes every
// cached hash, one per line, plus a human-readable summary of how much
// compressed chunk data the player is currently holding, for
// CLI/operator inspection.
func (p *Player) DumpCache(w io.Writer) {
	fmt.Fprintf(w, "rasters (%d) / states (%d):\n", p.cache.RasterCache().Size(), p.cache.StateCache().Size())
	for _, key := range p.cache.RasterCache().Keys() {
		fmt.Fprintf(w, "%016x\n", key)
	}
	for _, key := range p.cache.StateCache().Keys() {
		fmt.Fprintf(w, "%016x\n", key)
	}
	fmt.Fprintf(w, "downloaded: %s\n", humanize.Bytes(p.downloadedFrameBytes))
}

// ClearCache is clear_cache (original_source supplement).
func (p *Player) ClearCache() {
	p.cache.Clear()
	p.chunks.Clear()
}
