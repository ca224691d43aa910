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

package decoder

import (
	"encoding/binary"

	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

// nullRaster/nullState are plain hash wrappers: the null decoder below
// does not decode real pixels, it transcodes a 16-byte chunk directly
// into the (output, state) hash pair it names, standing in for a real
// VP8 decode. This lets the executor, the caches and the planners be
// exercised end-to-end without a VP8 implementation in this module,
// matching spec's framing that the decoder is an external collaborator
// (§1, §6): a real Decoder implementation is a drop-in replacement of
// this package's Factory.
type nullRaster struct{ hash model.Hash }

func (r nullRaster) Hash() model.Hash { return r.hash }

type nullState struct{ hash model.Hash }

func (s nullState) Hash() model.Hash { return s.hash }

// EncodeChunk packs the (output, state) hash pair a frame is declared
// to produce into the 16-byte chunk form NullFactory's decoder expects.
// A fetcher/test fixture backing a FrameInfo uses this to build chunk
// bytes that round-trip through decode deterministically.
func EncodeChunk(outputHash, stateHash model.Hash) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(outputHash))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(stateHash))
	return buf
}

// NullFactory constructs null decoders. Its DefaultState/DefaultRaster
// are the fresh, width/height-seeded reference the real codec would
// hand back for an absent source hash (spec §4.7: "absent source hashes
// mean use the default fresh reference/state").
type NullFactory struct {
	Width, Height int
}

func NewNullFactory(width, height int) *NullFactory {
	return &NullFactory{Width: width, Height: height}
}

func (f *NullFactory) DefaultState() State {
	return nullState{hash: model.Hash(uint64(f.Width)<<32 | uint64(f.Height))}
}

func (f *NullFactory) DefaultRaster() Raster {
	return nullRaster{hash: model.Hash(0xDEFA017 ^ uint64(f.Width)<<16 ^ uint64(f.Height))}
}

func (f *NullFactory) NewDecoder(state State, refs References) Decoder {
	if state == nil {
		state = f.DefaultState()
	}
	if refs.Last == nil {
		refs.Last = f.DefaultRaster()
	}
	if refs.Golden == nil {
		refs.Golden = f.DefaultRaster()
	}
	if refs.Alt == nil {
		refs.Alt = f.DefaultRaster()
	}
	return &nullDecoder{state: state, refs: refs}
}

type nullDecoder struct {
	state State
	refs  References
}

func (d *nullDecoder) State() State           { return d.state }
func (d *nullDecoder) References() References { return d.refs }

func (d *nullDecoder) GetFrameOutput(chunk []byte) (bool, Raster, error) {
	if len(chunk) < 16 {
		return false, nil, errShortChunk
	}
	out := nullRaster{hash: model.Hash(binary.LittleEndian.Uint64(chunk[0:8]))}
	d.state = nullState{hash: model.Hash(binary.LittleEndian.Uint64(chunk[8:16]))}
	return true, out, nil
}

var errShortChunk = shortChunkError{}

type shortChunkError struct{}

func (shortChunkError) Error() string { return "trackplanner: chunk too short for null decoder" }
