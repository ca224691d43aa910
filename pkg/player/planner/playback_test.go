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

// TestFeasibilityRejectsLargeFirstFrame is scenario S4: downloaded bytes
// 0, throughput 1000, first frame length 5000 and uncached. The buffer
// goes negative on the very first step.
func TestFeasibilityRejectsLargeFirstFrame(t *testing.T) {
	candidate := []model.FrameInfoWrapper{
		{FrameInfo: model.FrameInfo{FrameID: 1, Length: 5000}},
		{FrameInfo: model.FrameInfo{FrameID: 2, Length: 100}},
		{FrameInfo: model.FrameInfo{FrameID: 3, Length: 100}},
	}

	ok := DetermineFeasibility(nil, candidate, 0, 1000, func(uint64) bool { return false })
	require.False(t, ok)
}

func TestFeasibilityAcceptsWhenBufferStaysNonNegative(t *testing.T) {
	candidate := []model.FrameInfoWrapper{
		{FrameInfo: model.FrameInfo{FrameID: 1, Length: 400}},
		{FrameInfo: model.FrameInfo{FrameID: 2, Length: 400}},
	}
	ok := DetermineFeasibility(nil, candidate, 0, 1000, func(uint64) bool { return false })
	require.True(t, ok)
}

// TestFeasibilityMonotoneInThroughput is testable property #6: raising
// throughput_estimate cannot turn a feasible candidate infeasible.
func TestFeasibilityMonotoneInThroughput(t *testing.T) {
	candidate := []model.FrameInfoWrapper{
		{FrameInfo: model.FrameInfo{FrameID: 1, Length: 900}},
		{FrameInfo: model.FrameInfo{FrameID: 2, Length: 900}},
	}
	chunkCached := func(uint64) bool { return false }

	require.True(t, DetermineFeasibility(nil, candidate, 0, 1000, chunkCached))
	require.True(t, DetermineFeasibility(nil, candidate, 0, 2000, chunkCached))
}

// TestFeasibilityCountsQueuedTailFirst exercises the "already-queued
// tail" half of the predicate: a candidate that's fine on its own can
// still be rejected once the backlog ahead of it is accounted for.
func TestFeasibilityCountsQueuedTailFirst(t *testing.T) {
	queuedTail := []model.FrameInfoWrapper{
		{FrameInfo: model.FrameInfo{FrameID: 1, Length: 5000}},
	}
	candidate := []model.FrameInfoWrapper{
		{FrameInfo: model.FrameInfo{FrameID: 2, Length: 100}},
	}
	chunkCached := func(uint64) bool { return false }

	require.True(t, DetermineFeasibility(nil, candidate, 0, 1000, chunkCached))
	require.False(t, DetermineFeasibility(queuedTail, candidate, 0, 1000, chunkCached))
}

// TestPickCandidateChoosesHigherSSIM is scenario S5.
func TestPickCandidateChoosesHigherSSIM(t *testing.T) {
	candidates := []model.FrameSequence{
		{MinSSIM: 0.82},
		{MinSSIM: 0.91},
	}
	idx, ok := PickCandidate(candidates, nil)
	require.True(t, ok)
	require.Equal(t, 1, idx)
}

func TestPickCandidateTiesGoToLowestIndex(t *testing.T) {
	candidates := []model.FrameSequence{
		{MinSSIM: 0.5},
		{MinSSIM: 0.5},
	}
	idx, ok := PickCandidate(candidates, nil)
	require.True(t, ok)
	require.Equal(t, 0, idx)
}

func TestPickCandidateSkipsInfeasible(t *testing.T) {
	candidates := []model.FrameSequence{
		{MinSSIM: 0.99},
		{MinSSIM: 0.5},
	}
	idx, ok := PickCandidate(candidates, []bool{false, true})
	require.True(t, ok)
	require.Equal(t, 1, idx)
}

func TestPickCandidateNoneFeasible(t *testing.T) {
	_, ok := PickCandidate([]model.FrameSequence{{MinSSIM: 0.9}}, []bool{false})
	require.False(t, ok)
}

// TestSequentialPlayOmitsSwitchCandidatesInsideASwitch is scenario S6:
// the wrapper just before the download point belongs to a switch
// (TrackID == model.SwitchTrackID), so no switch-jump candidates are
// emitted -- only stay and track-jumps.
func TestSequentialPlayOmitsSwitchCandidatesInsideASwitch(t *testing.T) {
	fake := metadata.NewFake()
	fake.AddTrack(0, linearTrack(5, 10))
	fake.AddTrack(1, linearTrack(5, 10))
	fake.AddSwitch(model.SwitchInfo{
		Frames:         []model.FrameInfo{{FrameID: 777, Length: 1, Shown: true}},
		FromTrackID:    0,
		ToTrackID:      1,
		FromFrameIndex: 1,
		ToFrameIndex:   1,
	})

	c := cache.NewRasterStateCache(64, 64)
	p := NewPlaybackPlanner(fake, c)

	in := SequentialPlayInput{
		CurrentFrameSeq:        nil,
		CurrentDownloadPtIndex: 0,
		CurrentTrackID:         model.SwitchTrackID,
		CurrentDRI:             0,
		SwitchFromTrackID:      model.SwitchTrackID,
		SwitchFromFrameIndex:   0,
		QualityTable:           model.NewQualityTable(nil),
	}

	seqs, err := p.GetSequentialPlayOptions(context.Background(), in)
	require.NoError(t, err)

	// stay + one track-jump per other track (tracks 0 and 1, since
	// CurrentTrackID is the switch sentinel, neither is "current").
	require.Len(t, seqs, 3)
}

// TestSequentialPlayEmitsSwitchCandidatesWhenNotInsideASwitch is the
// converse of S6: a real current track does surface switch-jumps.
func TestSequentialPlayEmitsSwitchCandidatesWhenNotInsideASwitch(t *testing.T) {
	fake := metadata.NewFake()
	fake.AddTrack(0, linearTrack(5, 10))
	fake.AddTrack(1, linearTrack(5, 10))
	fake.AddSwitch(model.SwitchInfo{
		Frames:         []model.FrameInfo{{FrameID: 777, Length: 1, Shown: true}},
		FromTrackID:    0,
		ToTrackID:      1,
		FromFrameIndex: 1,
		ToFrameIndex:   1,
	})

	c := cache.NewRasterStateCache(64, 64)
	p := NewPlaybackPlanner(fake, c)

	in := SequentialPlayInput{
		CurrentTrackID:       0,
		CurrentDRI:           1,
		SwitchFromTrackID:    0,
		SwitchFromFrameIndex: 1,
		QualityTable:         model.NewQualityTable(nil),
	}

	seqs, err := p.GetSequentialPlayOptions(context.Background(), in)
	require.NoError(t, err)

	// stay + track-jump (to track 1) + switch-jump (track 0 -> 1).
	require.Len(t, seqs, 3)
}

func TestChoosePathMinimumPicksTrackWhenNoSwitchExists(t *testing.T) {
	fake := metadata.NewFake()
	track := linearTrack(3, 10)
	track[2].TargetHash.Output = model.Hash(0xAAAA)
	fake.AddTrack(0, track)

	c := cache.NewRasterStateCache(64, 64)
	p := NewPlaybackPlanner(fake, c)

	plan, err := p.ChoosePath(context.Background(), model.Hash(0xAAAA), model.PathMinimum)
	require.NoError(t, err)
	// no switches registered at all, so SWITCH's cost is SizeMax and
	// TRACK must win even though the tie-break rule would favor TRACK
	// anyway.
	require.Equal(t, model.PathTrack, plan.Type)
	require.NotNil(t, plan.Track)
}
