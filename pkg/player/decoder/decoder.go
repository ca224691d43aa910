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

// Package decoder declares the VP8-family decoder collaborator the core
// consumes but does not implement (spec's out-of-scope, §6). The actual
// codec, the SSIM computation and the entropy-coding cost tables live
// outside this module entirely; this package only carries the narrow
// interface the executor (C7) drives, plus a deterministic stand-in so
// the rest of the module can be exercised without a real VP8 decoder.
package decoder

import "github.com/xianliangjiang/alfalfa/pkg/player/model"

// Raster is an opaque decoded picture. The core never inspects its
// contents; it only ever needs the content hash used to key the cache.
type Raster interface {
	Hash() model.Hash
}

// State is an opaque decoder state produced after decoding a frame.
type State interface {
	Hash() model.Hash
}

// References is the triple of reference rasters a VP8-family frame may
// draw motion vectors from.
type References struct {
	Last   Raster
	Golden Raster
	Alt    Raster
}

// Decoder decodes one compressed chunk given the decoder state and
// reference rasters it was constructed with.
type Decoder interface {
	State() State
	References() References
	// GetFrameOutput decodes chunk, returning whether it produced a
	// displayed raster (shown frames always do; frames that only refresh
	// decoder state without intending to be displayed do not) and the
	// raster itself.
	GetFrameOutput(chunk []byte) (shown bool, raster Raster, err error)
}

// Factory constructs a fresh Decoder from cached (or default) state and
// references, for the configured video dimensions.
type Factory interface {
	NewDecoder(state State, refs References) Decoder
	DefaultState() State
	DefaultRaster() Raster
}
