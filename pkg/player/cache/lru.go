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

// Package cache implements C1 (a bounded, recency-ordered map from a
// 64-bit hash to a value) and C2 (the raster+state cache pair built on
// top of it).
package cache

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

// LRU is a bounded map from a 64-bit hash to a value, with
// least-recently-used eviction on overflow. It is not safe for
// concurrent use: the core's single-threaded discipline (see
// pkg/player) is what makes that acceptable.
//
// Backed by hashicorp/golang-lru's simplelru, which already implements
// the doubly-linked-list-plus-map shape the contract calls for; this
// type exists to enforce the has/get/put contract spec requires,
// including panicking on a Get of an absent key rather than returning
// ok=false -- callers are expected to have charged the dependency
// before asking for it.
type LRU[V any] struct {
	capacity int
	inner    *simplelru.LRU[uint64, V]
}

// New constructs an LRU with the given maximum capacity.
func New[V any](capacity int) *LRU[V] {
	inner, err := simplelru.NewLRU[uint64, V](capacity, nil)
	if err != nil {
		// simplelru only errors on a non-positive size; a misconfigured
		// cache capacity is a programmer error caught at construction.
		panic(err)
	}
	return &LRU[V]{capacity: capacity, inner: inner}
}

// Put inserts or updates key, moving it to the MRU position. If the
// insert grows the cache past capacity, the LRU key is evicted first.
func (l *LRU[V]) Put(key uint64, value V) {
	l.inner.Add(key, value)
}

// Has reports whether key is present, without touching recency.
func (l *LRU[V]) Has(key uint64) bool {
	return l.inner.Contains(key)
}

// Get returns the value for key and moves it to the MRU position. It
// panics with *model.MissingKeyError if key is absent: planners must
// only request keys they have already resolved as dependencies.
func (l *LRU[V]) Get(key uint64) V {
	value, ok := l.inner.Get(key)
	if !ok {
		panic(&model.MissingKeyError{Kind: "lru", Hash: key})
	}
	return value
}

// Size returns the current number of entries.
func (l *LRU[V]) Size() int {
	return l.inner.Len()
}

// Clear empties the cache.
func (l *LRU[V]) Clear() {
	l.inner.Purge()
}

// Keys returns the cached keys, LRU-first. Intended for diagnostics
// (Player.DumpCache) only; it is not part of the core contract.
func (l *LRU[V]) Keys() []uint64 {
	return l.inner.Keys()
}
