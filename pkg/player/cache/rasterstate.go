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

package cache

import "github.com/xianliangjiang/alfalfa/pkg/player/decoder"

// RasterStateCache is C2: a pair of LRUs, raster-keyed and state-keyed,
// populated together after each decode. Put is observationally atomic
// with respect to observers in the sense spec §5 requires: nothing else
// runs on the single-threaded core between the raster insert and the
// state insert, so no caller ever sees one without the other.
type RasterStateCache struct {
	rasters *LRU[decoder.Raster]
	states  *LRU[decoder.State]
}

// NewRasterStateCache builds a RasterStateCache with independent
// capacities for rasters and decoder states, as spec §4.1 calls for.
func NewRasterStateCache(rasterCapacity, stateCapacity int) *RasterStateCache {
	return &RasterStateCache{
		rasters: New[decoder.Raster](rasterCapacity),
		states:  New[decoder.State](stateCapacity),
	}
}

// Put inserts a decoded Decoder's three reference rasters and decoder
// state under their respective hashes.
func (c *RasterStateCache) Put(d decoder.Decoder) {
	refs := d.References()
	c.rasters.Put(uint64(refs.Last.Hash()), refs.Last)
	c.rasters.Put(uint64(refs.Golden.Hash()), refs.Golden)
	c.rasters.Put(uint64(refs.Alt.Hash()), refs.Alt)
	c.states.Put(uint64(d.State().Hash()), d.State())
}

// PutRaster records a decoded output raster under its own hash. Decoder
// outputs are not part of References (they aren't necessarily referred
// to by later frames until promoted to last/golden/alt by the codec),
// so the executor publishes them separately from Put, exactly as the
// original player does (`raster_cache().put(output.hash(), output)`
// alongside `cache.put(decoder)`).
func (c *RasterStateCache) PutRaster(raster decoder.Raster) {
	c.rasters.Put(uint64(raster.Hash()), raster)
}

// RasterCache exposes read access to the raster-keyed LRU.
func (c *RasterStateCache) RasterCache() *LRU[decoder.Raster] { return c.rasters }

// StateCache exposes read access to the state-keyed LRU.
func (c *RasterStateCache) StateCache() *LRU[decoder.State] { return c.states }

// Size returns the sum of both caches' sizes.
func (c *RasterStateCache) Size() int {
	return c.rasters.Size() + c.states.Size()
}

// Clear empties both caches.
func (c *RasterStateCache) Clear() {
	c.rasters.Clear()
	c.states.Clear()
}
