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

package fetcher

import (
	"context"
	"fmt"

	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

// MemFetcher is an in-memory ports.Fetcher keyed by frame_id, for tests
// that want to drive the executor without an HTTP server.
type MemFetcher struct {
	chunks map[uint64][]byte
}

func NewMemFetcher() *MemFetcher {
	return &MemFetcher{chunks: make(map[uint64][]byte)}
}

// PutChunk registers the bytes GetChunk returns for frameID.
func (f *MemFetcher) PutChunk(frameID uint64, chunk []byte) {
	f.chunks[frameID] = chunk
}

func (f *MemFetcher) GetChunk(ctx context.Context, frame model.FrameInfo) ([]byte, error) {
	chunk, ok := f.chunks[frame.FrameID]
	if !ok {
		return nil, fmt.Errorf("fetcher: no chunk registered for frame %d", frame.FrameID)
	}
	return chunk, nil
}
