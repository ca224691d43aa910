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

// Package dependency implements C3, the dependency tracker. A
// FrameDependency is owned by exactly one plan attempt; planners mutate
// only their own copy and never the caches, so an abandoned attempt can
// be discarded for free (spec §5, §7 recovery policy).
package dependency

import (
	"github.com/xianliangjiang/alfalfa/pkg/player/cache"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

// FrameDependency tracks, for a single tentative frame walk, which
// DependencyVertex values are still unresolved, plus a ref count per
// vertex so a raster/state shared by many frames in the window is only
// charged once and resolved exactly when its last dependent is.
type FrameDependency struct {
	refCount   map[model.DependencyVertex]int
	unresolved map[model.DependencyVertex]struct{}
}

// New returns an empty FrameDependency. The canonical discipline is to
// construct a fresh one per plan attempt.
func New() *FrameDependency {
	return &FrameDependency{
		refCount:   make(map[model.DependencyVertex]int),
		unresolved: make(map[model.DependencyVertex]struct{}),
	}
}

// Clone deep-copies the tracker so a caller can fork a speculative walk
// (e.g. C5 trying several switch candidates) without disturbing the
// original.
func (d *FrameDependency) Clone() *FrameDependency {
	c := New()
	for k, v := range d.refCount {
		c.refCount[k] = v
	}
	for k := range d.unresolved {
		c.unresolved[k] = struct{}{}
	}
	return c
}

func (d *FrameDependency) increaseCount(v model.DependencyVertex) int {
	d.refCount[v]++
	return d.refCount[v]
}

func (d *FrameDependency) decreaseCount(v model.DependencyVertex) int {
	if d.refCount[v] > 0 {
		d.refCount[v]--
		n := d.refCount[v]
		if n == 0 {
			delete(d.refCount, v)
		}
		return n
	}
	delete(d.refCount, v)
	return 0
}

// GetCount returns the current ref count for a vertex, 0 if absent.
func (d *FrameDependency) GetCount(v model.DependencyVertex) int {
	return d.refCount[v]
}

// AllResolved reports whether every charged dependency has been
// relieved. Invariant (spec §3): v is in the unresolved set iff its ref
// count is positive.
func (d *FrameDependency) AllResolved() bool {
	return len(d.unresolved) == 0
}

// Unresolved returns the current set of unresolved vertices. Callers
// must not mutate the returned map.
func (d *FrameDependency) Unresolved() map[model.DependencyVertex]struct{} {
	return d.unresolved
}

func sourceHashes(frame model.FrameInfo) [3]model.OptionalHash {
	return [3]model.OptionalHash{
		frame.SourceHash.Last,
		frame.SourceHash.Golden,
		frame.SourceHash.Alt,
	}
}

// UpdateDependencies is the backward pass used while walking toward a
// seek origin. The frame being visited supplies its two target hashes
// (so they're no longer unresolved), then charges whichever of its
// source hashes aren't already satisfied by cache.
func (d *FrameDependency) UpdateDependencies(frame model.FrameInfo, c *cache.RasterStateCache) {
	for _, v := range [2]model.DependencyVertex{
		{Kind: model.KindRaster, Hash: frame.TargetHash.Output},
		{Kind: model.KindState, Hash: frame.TargetHash.State},
	} {
		delete(d.unresolved, v)
		delete(d.refCount, v)
	}

	for _, oh := range sourceHashes(frame) {
		if !oh.Valid {
			continue
		}
		if !c.RasterCache().Has(uint64(oh.Hash)) {
			v := model.DependencyVertex{Kind: model.KindRaster, Hash: oh.Hash}
			d.increaseCount(v)
			d.unresolved[v] = struct{}{}
		}
	}

	if sh := frame.SourceHash.State; sh.Valid {
		if !c.StateCache().Has(uint64(sh.Hash)) {
			v := model.DependencyVertex{Kind: model.KindState, Hash: sh.Hash}
			d.increaseCount(v)
			d.unresolved[v] = struct{}{}
		}
	}
}

// UpdateDependenciesForward is used while executing a plan forward
// after decoding: it mirrors UpdateDependencies, relieving the ref
// counts a backward pass charged, so the same FrameDependency can be
// reused across chained plans (e.g. a switch plan followed by its
// residual track plan).
func (d *FrameDependency) UpdateDependenciesForward(frame model.FrameInfo, c *cache.RasterStateCache) {
	for _, oh := range sourceHashes(frame) {
		if !oh.Valid {
			continue
		}
		if !c.RasterCache().Has(uint64(oh.Hash)) {
			v := model.DependencyVertex{Kind: model.KindRaster, Hash: oh.Hash}
			if d.decreaseCount(v) == 0 {
				delete(d.unresolved, v)
			}
		}
	}

	if sh := frame.SourceHash.State; sh.Valid {
		if !c.StateCache().Has(uint64(sh.Hash)) {
			v := model.DependencyVertex{Kind: model.KindState, Hash: sh.Hash}
			if d.decreaseCount(v) == 0 {
				delete(d.unresolved, v)
			}
		}
	}
}
