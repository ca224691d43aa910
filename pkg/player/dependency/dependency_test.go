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

package dependency

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xianliangjiang/alfalfa/pkg/player/cache"
	"github.com/xianliangjiang/alfalfa/pkg/player/decoder"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

func frameWithLast(lastHash, outputHash, outputState model.Hash) model.FrameInfo {
	return model.FrameInfo{
		SourceHash: model.SourceHash{Last: model.SomeHash(lastHash)},
		TargetHash: model.TargetHash{Output: outputHash, State: outputState},
	}
}

func TestUnresolvedMatchesPositiveRefCountInvariant(t *testing.T) {
	c := cache.NewRasterStateCache(8, 8)
	d := New()

	f := frameWithLast(model.Hash(0x01), model.Hash(0x02), model.Hash(0x03))
	d.UpdateDependencies(f, c)

	for v := range d.Unresolved() {
		require.Greater(t, d.GetCount(v), 0)
	}
	require.False(t, d.AllResolved())
}

func TestCacheHitSkipsChargingDependency(t *testing.T) {
	c := cache.NewRasterStateCache(8, 8)
	c.RasterCache().Put(0x01, nil)
	d := New()

	f := frameWithLast(model.Hash(0x01), model.Hash(0x02), model.Hash(0x03))
	d.UpdateDependencies(f, c)

	require.True(t, d.AllResolved())
}

func TestSharedDependencyIsRefCountedAcrossFrames(t *testing.T) {
	c := cache.NewRasterStateCache(8, 8)
	d := New()

	f1 := frameWithLast(model.Hash(0x01), model.Hash(0x02), model.Hash(0x03))
	f2 := frameWithLast(model.Hash(0x01), model.Hash(0x04), model.Hash(0x05))

	d.UpdateDependencies(f1, c)
	d.UpdateDependencies(f2, c)

	v := model.DependencyVertex{Kind: model.KindRaster, Hash: model.Hash(0x01)}
	require.Equal(t, 2, d.GetCount(v))

	// relieving once should not resolve it: f2 still depends on it
	d.UpdateDependenciesForward(f1, c)
	require.False(t, d.AllResolved())
	require.Equal(t, 1, d.GetCount(v))

	d.UpdateDependenciesForward(f2, c)
	require.True(t, d.AllResolved())
}

func TestForwardPassMirrorsBackwardPass(t *testing.T) {
	c := cache.NewRasterStateCache(8, 8)
	d := New()

	f := frameWithLast(model.Hash(0x01), model.Hash(0x02), model.Hash(0x03))
	d.UpdateDependencies(f, c)
	require.False(t, d.AllResolved())

	d.UpdateDependenciesForward(f, c)
	require.True(t, d.AllResolved())
}

// TestCacheWarmHit is scenario S1: pre-populate the raster/state caches
// and confirm a decoder built from cache references the expected
// hashes, with no further dependency resolution required.
func TestCacheWarmHit(t *testing.T) {
	c := cache.NewRasterStateCache(8, 8)
	c.RasterCache().Put(0x01, nullRaster(0x01))
	c.StateCache().Put(0xA1, nullState(0xA1))

	f := model.FrameInfo{
		SourceHash: model.SourceHash{
			Last:  model.SomeHash(model.Hash(0x01)),
			State: model.SomeHash(model.Hash(0xA1)),
		},
	}

	d := New()
	d.UpdateDependencies(f, c)
	require.True(t, d.AllResolved())

	require.Equal(t, model.Hash(0x01), c.RasterCache().Get(0x01).Hash())
	require.Equal(t, model.Hash(0xA1), c.StateCache().Get(0xA1).Hash())
}

type hashed model.Hash

func (h hashed) Hash() model.Hash { return model.Hash(h) }

func nullRaster(h model.Hash) decoder.Raster { return hashed(h) }
func nullState(h model.Hash) decoder.State   { return hashed(h) }
