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

package model

// DependencyKind tags whether a DependencyVertex refers to a decoded
// raster or a decoder state.
type DependencyKind int

const (
	KindRaster DependencyKind = iota
	KindState
)

func (k DependencyKind) String() string {
	if k == KindState {
		return "STATE"
	}
	return "RASTER"
}

// DependencyVertex is the unit of "I need this in cache to decode".
type DependencyVertex struct {
	Kind DependencyKind
	Hash Hash
}
