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
	"github.com/xianliangjiang/alfalfa/pkg/player/metrics"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
	"github.com/xianliangjiang/alfalfa/pkg/player/ports"
)

// PlaybackPlanner is C6: it enumerates continuations for sequential and
// seek playback, scores them by minimum SSIM, and checks buffer
// feasibility. It owns no mutable player state -- every call is handed
// the cursor/cache facts it needs and returns a decision for the caller
// (the top-level player, which owns current_frame_seq and the cursors)
// to apply.
type PlaybackPlanner struct {
	metadata ports.MetadataService
	track    *TrackSeekPlanner
	switchP  *SwitchSeekPlanner
}

func NewPlaybackPlanner(metadata ports.MetadataService, c *cache.RasterStateCache) *PlaybackPlanner {
	return &PlaybackPlanner{
		metadata: metadata,
		track:    NewTrackSeekPlanner(metadata, c),
		switchP:  NewSwitchSeekPlanner(metadata, c),
	}
}

// ChosenPlan is the outcome of get_raster's planning half: which family
// won and the pieces the execution driver needs to run it forward. Type
// is always PathTrack or PathSwitch, never PathMinimum.
type ChosenPlan struct {
	Type        model.PathType
	Track       *model.TrackPath
	Switch      *model.SwitchPath
	SwitchTrack *model.TrackPath // residual track seek the switch needed, if any
	Deps        *dependency.FrameDependency
}

// ChoosePath runs C4 and/or C5 depending on pathType and reports the
// winner. For PathMinimum it runs both and picks the lower cost, ties
// going to TRACK (spec §8 property 7).
func (p *PlaybackPlanner) ChoosePath(ctx context.Context, outputHash model.Hash, pathType model.PathType) (*ChosenPlan, error) {
	var (
		trackPath model.TrackPath
		trackDeps *dependency.FrameDependency
	)
	if pathType == model.PathTrack || pathType == model.PathMinimum {
		var err error
		trackPath, trackDeps, err = p.track.MinTrackSeek(ctx, outputHash)
		if err != nil {
			return nil, err
		}
	}

	var (
		switchPath     model.SwitchPath
		switchResidual *model.TrackPath
		switchDeps     *dependency.FrameDependency
	)
	if pathType == model.PathSwitch || pathType == model.PathMinimum {
		var err error
		switchPath, switchResidual, switchDeps, err = p.switchP.MinSwitchSeek(ctx, outputHash)
		if err != nil {
			return nil, err
		}
	}

	switch pathType {
	case model.PathTrack:
		metrics.ObservePlanChoice("track", trackPath.Cost)
		return &ChosenPlan{Type: model.PathTrack, Track: &trackPath, Deps: trackDeps}, nil
	case model.PathSwitch:
		metrics.ObservePlanChoice("switch", switchPath.Cost)
		return &ChosenPlan{Type: model.PathSwitch, Switch: &switchPath, SwitchTrack: switchResidual, Deps: switchDeps}, nil
	default:
		if switchPath.Cost < trackPath.Cost {
			metrics.ObservePlanChoice("switch", switchPath.Cost)
			return &ChosenPlan{Type: model.PathSwitch, Switch: &switchPath, SwitchTrack: switchResidual, Deps: switchDeps}, nil
		}
		metrics.ObservePlanChoice("track", trackPath.Cost)
		return &ChosenPlan{Type: model.PathTrack, Track: &trackPath, Deps: trackDeps}, nil
	}
}

// SequentialPlayInput is the cursor/cache state GetSequentialPlayOptions
// and SetCurrentFrameSeq need, owned and supplied by the caller.
type SequentialPlayInput struct {
	// CurrentFrameSeq and CurrentDownloadPtIndex describe the "stay"
	// candidate: the tail not yet handed to the execution driver.
	CurrentFrameSeq        []model.FrameInfoWrapper
	CurrentDownloadPtIndex int

	// CurrentPlayheadIndex is the decoder's position in CurrentFrameSeq.
	// CurrentFrameSeq[CurrentPlayheadIndex:CurrentDownloadPtIndex] is the
	// already-downloaded backlog the decoder hasn't consumed yet; it
	// counts against the feasibility buffer ahead of any new candidate
	// (distinct from the "stay" tail, which starts at the download
	// point, not the playhead).
	CurrentPlayheadIndex int

	// CurrentTrackID and CurrentDRI are read off the wrapper AT the
	// download point (current_frame_seq_.at(current_download_pt_index_)
	// in alfalfa_player.cc): CurrentTrackID is the self-skip basis for
	// track-jump candidates (a jump to the track we're already on isn't
	// a jump), and CurrentDRI is the shared dri basis every track-jump
	// and switch-jump candidate is labelled from.
	CurrentTrackID uint64
	CurrentDRI     int

	// SwitchFromTrackID and SwitchFromFrameIndex are read off the
	// wrapper one BEFORE the download point
	// (current_frame_seq_.at(current_download_pt_index_ - 1)) and used
	// only for the "currently on a switch segment" eligibility check and
	// as the source track/frame-index for GetConnectedTrackIDs and the
	// switch-window query -- deliberately distinct from CurrentTrackID/
	// CurrentDRI above, since the two wrappers can disagree (the AT-1
	// wrapper's dri trails the AT-index wrapper's whenever the
	// intervening frame was shown). SwitchFromFrameIndex is
	// SwitchFromTrackID's frame index at CurrentDRI, not at the AT-1
	// wrapper's own dri.
	SwitchFromTrackID    uint64
	SwitchFromFrameIndex int

	// DownloadedFrameBytes seeds the feasibility predicate's buffer
	// simulation; it's the player's download accounting, read here but
	// owned there.
	DownloadedFrameBytes uint64

	QualityTable model.QualityTable
}

// GetSequentialPlayOptions enumerates the stay / track-jump / switch-jump
// candidates (spec §4.6). Switch-derived sequences are appended to the
// same outer slice the stay and track-jump candidates live in, resolving
// open question (i): a naive port that shadows the outer vector while
// collecting switch candidates silently drops them.
func (p *PlaybackPlanner) GetSequentialPlayOptions(ctx context.Context, in SequentialPlayInput) ([]model.FrameSequence, error) {
	var seqs []model.FrameSequence

	tail := append([]model.FrameInfoWrapper{}, sliceFrom(in.CurrentFrameSeq, in.CurrentDownloadPtIndex)...)
	seqs = append(seqs, model.FrameSequence{Frames: tail, MinSSIM: minSSIM(tail, in.QualityTable)})

	trackIDs, err := p.metadata.GetTrackIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, trackID := range trackIDs {
		if trackID == in.CurrentTrackID {
			continue
		}
		seq, ok, err := p.trackJumpCandidate(ctx, trackID, in.CurrentDRI, in.QualityTable)
		if err != nil {
			return nil, err
		}
		if ok {
			seqs = append(seqs, seq)
		}
	}

	if in.SwitchFromTrackID != model.SwitchTrackID {
		connected, err := p.metadata.GetConnectedTrackIDs(ctx, in.SwitchFromTrackID)
		if err != nil {
			return nil, err
		}
		for _, toTrack := range connected {
			switchSeqs, err := p.switchJumpCandidates(ctx, in.SwitchFromTrackID, toTrack, in.SwitchFromFrameIndex, in.CurrentDRI, in.QualityTable)
			if err != nil {
				return nil, err
			}
			seqs = append(seqs, switchSeqs...)
		}
	}

	return seqs, nil
}

// GetRandomSeekPlayOptions emits one FrameSequence per track, via C4,
// without feasibility filtering -- the user has demanded the seek.
func (p *PlaybackPlanner) GetRandomSeekPlayOptions(ctx context.Context, dri int, qt model.QualityTable) ([]model.FrameSequence, error) {
	trackIDs, err := p.metadata.GetTrackIDs(ctx)
	if err != nil {
		return nil, err
	}

	seqs := make([]model.FrameSequence, 0, len(trackIDs))
	for _, trackID := range trackIDs {
		seq, ok, err := p.trackJumpCandidate(ctx, trackID, dri, qt)
		if err != nil {
			return nil, err
		}
		if ok {
			seqs = append(seqs, seq)
		}
	}
	return seqs, nil
}

// SetCurrentFrameSeq is C6's continuous-playback decision. If driToSeek
// is non-nil this is a random seek: no feasibility filtering, and the
// caller should swap the sequence in wholesale and zero both cursors.
// Otherwise this is sequential play: every candidate but "stay" is
// filtered by DetermineFeasibility (open question iii: "stay" is
// unconditional), and the caller should truncate current_frame_seq to
// the download point and append the chosen tail.
func (p *PlaybackPlanner) SetCurrentFrameSeq(ctx context.Context, in SequentialPlayInput, driToSeek *int, throughputEstimate uint64, chunkCached func(frameID uint64) bool) (model.FrameSequence, bool, error) {
	if driToSeek != nil {
		candidates, err := p.GetRandomSeekPlayOptions(ctx, *driToSeek, in.QualityTable)
		if err != nil {
			return model.FrameSequence{}, false, err
		}
		idx, ok := PickCandidate(candidates, nil)
		if !ok {
			return model.FrameSequence{}, false, model.ErrInfeasible
		}
		return candidates[idx], true, nil
	}

	candidates, err := p.GetSequentialPlayOptions(ctx, in)
	if err != nil {
		return model.FrameSequence{}, false, err
	}

	queuedTail := sliceRange(in.CurrentFrameSeq, in.CurrentPlayheadIndex, in.CurrentDownloadPtIndex)
	feasible := make([]bool, len(candidates))
	for i, c := range candidates {
		if i == 0 {
			feasible[i] = true
			continue
		}
		feasible[i] = DetermineFeasibility(queuedTail, c.Frames, in.DownloadedFrameBytes, throughputEstimate, chunkCached)
		if !feasible[i] {
			metrics.ObserveFeasibilityRejection()
		}
	}

	idx, ok := PickCandidate(candidates, feasible)
	if !ok {
		return model.FrameSequence{}, false, model.ErrInfeasible
	}
	return candidates[idx], false, nil
}

// DetermineFeasibility is the buffer-feasibility predicate (spec §4.6).
// It simulates the decoder buffer across the already-queued backlog
// followed by the candidate under test: each frame slot adds
// throughputEstimate and, unless the frame's compressed bytes are
// already cached, subtracts its length. A negative buffer at any step
// makes the candidate infeasible.
func DetermineFeasibility(queuedTail, candidate []model.FrameInfoWrapper, downloadedFrameBytes, throughputEstimate uint64, chunkCached func(frameID uint64) bool) bool {
	buffer := int64(downloadedFrameBytes)
	for _, seq := range [...][]model.FrameInfoWrapper{queuedTail, candidate} {
		for _, w := range seq {
			buffer += int64(throughputEstimate)
			if chunkCached == nil || !chunkCached(w.FrameInfo.FrameID) {
				buffer -= int64(w.FrameInfo.Length)
			}
			if buffer < 0 {
				return false
			}
		}
	}
	return true
}

// PickCandidate is the scoring half: argmax by MinSSIM, ties going to
// the lowest enumeration index. feasible, if non-nil, must be the same
// length as candidates; infeasible entries are skipped.
func PickCandidate(candidates []model.FrameSequence, feasible []bool) (int, bool) {
	best := -1
	for i, c := range candidates {
		if feasible != nil && !feasible[i] {
			continue
		}
		if best == -1 || c.MinSSIM > candidates[best].MinSSIM {
			best = i
		}
	}
	return best, best != -1
}

// trackJumpCandidate is the "track jump" candidate shape, also reused
// verbatim by GetRandomSeekPlayOptions: resolve (trackID, dri) via C4,
// then take that track through to its end.
func (p *PlaybackPlanner) trackJumpCandidate(ctx context.Context, trackID uint64, dri int, qt model.QualityTable) (model.FrameSequence, bool, error) {
	fromFrameIndex, err := p.metadata.GetFrameIndexByDisplayedRasterIndex(ctx, trackID, dri)
	if err != nil {
		return model.FrameSequence{}, false, err
	}

	startIndex, _, cost, err := p.track.Seek(ctx, trackID, fromFrameIndex, nil)
	if err != nil {
		return model.FrameSequence{}, false, err
	}
	if cost == model.SizeMax {
		return model.FrameSequence{}, false, nil
	}

	trackSize, err := p.metadata.GetTrackSize(ctx, trackID)
	if err != nil {
		return model.FrameSequence{}, false, err
	}
	frames, err := p.metadata.GetFrames(ctx, trackID, startIndex, trackSize)
	if err != nil {
		return model.FrameSequence{}, false, err
	}

	// startIndex may be earlier than fromFrameIndex -- the seek walked
	// back to a cache-resident ancestor. Labelling starts at dri on
	// frames[0] and advances on every shown frame, catch-up frames
	// included, so the frame at fromFrameIndex carries dri only when no
	// catch-up frame before it is shown; each shown catch-up frame shifts
	// its label up by one.
	wrapped, _ := wrapFramesFrom(frames, trackID, dri)
	return model.FrameSequence{Frames: wrapped, MinSSIM: minSSIM(wrapped, qt)}, true, nil
}

// switchJumpCandidates enumerates every SwitchInfo from fromTrack to
// toTrack within ports.WindowSize frames of currentFrameIndex and turns
// each into a {current-track prefix, switch frames, new-track suffix}
// FrameSequence.
func (p *PlaybackPlanner) switchJumpCandidates(ctx context.Context, fromTrack, toTrack uint64, currentFrameIndex, currentDRI int, qt model.QualityTable) ([]model.FrameSequence, error) {
	switches, err := p.metadata.GetAllSwitchesInWindow(ctx, fromTrack, currentFrameIndex, currentFrameIndex+ports.WindowSize)
	if err != nil {
		return nil, err
	}

	var out []model.FrameSequence
	for _, sw := range switches {
		if sw.ToTrackID != toTrack {
			continue
		}
		seq, err := p.buildSwitchSequence(ctx, sw, currentFrameIndex, currentDRI, qt)
		if err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	return out, nil
}

func (p *PlaybackPlanner) buildSwitchSequence(ctx context.Context, sw model.SwitchInfo, currentFrameIndex, currentDRI int, qt model.QualityTable) (model.FrameSequence, error) {
	prefix, err := p.metadata.GetFrames(ctx, sw.FromTrackID, currentFrameIndex, sw.FromFrameIndex+1)
	if err != nil {
		return model.FrameSequence{}, err
	}

	suffixSize, err := p.metadata.GetTrackSize(ctx, sw.ToTrackID)
	if err != nil {
		return model.FrameSequence{}, err
	}
	suffix, err := p.metadata.GetFrames(ctx, sw.ToTrackID, sw.ToFrameIndex+1, suffixSize)
	if err != nil {
		return model.FrameSequence{}, err
	}

	var wrapped []model.FrameInfoWrapper
	prefixWrapped, dri := wrapFramesFrom(prefix, sw.FromTrackID, currentDRI)
	wrapped = append(wrapped, prefixWrapped...)

	switchWrapped, dri := wrapFramesFrom(sw.Frames[sw.SwitchStartIndex:], model.SwitchTrackID, dri)
	wrapped = append(wrapped, switchWrapped...)

	suffixWrapped, _ := wrapFramesFrom(suffix, sw.ToTrackID, dri)
	wrapped = append(wrapped, suffixWrapped...)

	return model.FrameSequence{Frames: wrapped, MinSSIM: minSSIM(wrapped, qt)}, nil
}

// wrapFramesFrom assigns each frame the running dri count, incrementing
// only on shown frames, and returns the count one past the last frame.
func wrapFramesFrom(frames []model.FrameInfo, trackID uint64, startDRI int) ([]model.FrameInfoWrapper, int) {
	wrapped := make([]model.FrameInfoWrapper, len(frames))
	dri := startDRI
	for i, f := range frames {
		wrapped[i] = model.FrameInfoWrapper{FrameInfo: f, TrackID: trackID, DRI: dri}
		if f.Shown {
			dri++
		}
	}
	return wrapped, dri
}

// minSSIM is the minimum, over shown frames, of quality_data[output][dri].
// A candidate with no shown frames scores a vacuous 1.0 rather than 0,
// so an empty "stay" tail at end-of-track doesn't masquerade as the
// worst possible candidate.
func minSSIM(frames []model.FrameInfoWrapper, qt model.QualityTable) float64 {
	min := 1.0
	sawShown := false
	for _, w := range frames {
		if !w.FrameInfo.Shown {
			continue
		}
		sawShown = true
		if q := qt.Lookup(w.FrameInfo.TargetHash.Output, w.DRI); q < min {
			min = q
		}
	}
	if !sawShown {
		return 1.0
	}
	return min
}

func sliceFrom(frames []model.FrameInfoWrapper, from int) []model.FrameInfoWrapper {
	if from < 0 || from >= len(frames) {
		return nil
	}
	return frames[from:]
}

// sliceRange returns frames[from:to], clamped to frames' bounds. Used
// for the already-downloaded-but-undecoded backlog between the
// playhead and the download point.
func sliceRange(frames []model.FrameInfoWrapper, from, to int) []model.FrameInfoWrapper {
	if from < 0 {
		from = 0
	}
	if to > len(frames) {
		to = len(frames)
	}
	if from >= to {
		return nil
	}
	return frames[from:to]
}
