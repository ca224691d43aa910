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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xianliangjiang/alfalfa/pkg/player/decoder"
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

func TestRasterStateCachePutIsAtomicAcrossBothCaches(t *testing.T) {
	c := NewRasterStateCache(8, 8)
	factory := decoder.NewNullFactory(640, 480)
	d := factory.NewDecoder(nil, decoder.References{})

	chunk := decoder.EncodeChunk(model.Hash(0x01), model.Hash(0xA1))
	_, out, err := d.GetFrameOutput(chunk)
	require.NoError(t, err)

	c.Put(d)
	c.PutRaster(out)

	require.True(t, c.StateCache().Has(0xA1))
	require.True(t, c.RasterCache().Has(uint64(out.Hash())))
	require.Equal(t, c.RasterCache().Size()+c.StateCache().Size(), c.Size())
}

func TestRasterStateCacheClear(t *testing.T) {
	c := NewRasterStateCache(8, 8)
	factory := decoder.NewNullFactory(640, 480)
	d := factory.NewDecoder(nil, decoder.References{})
	c.Put(d)

	c.Clear()
	require.Equal(t, 0, c.Size())
}
