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

// Package fetcher binds spec §6's Fetcher interface to an HTTP chunk
// server, plus an in-memory fake for tests. Grounded on the teacher's
// pkg/agent.HTTPAgentClient (pooled *http.Client, context-aware
// requests, retry-with-backoff around a flaky upstream) -- but using
// the real cenkalti/backoff/v4 library for the retry loop rather than
// HTTPAgentClient's hand-rolled exponential-wait loop, per the pack's
// convention for retrying network I/O (see DESIGN.md).
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/livekit/protocol/logger"

	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

const DefaultHTTPTimeout = 10 * time.Second

// HTTPFetcher implements ports.Fetcher against a chunk server addressed
// by baseURL (spec §6: "identified out-of-band by the metadata
// service's URL").
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	backoff    func() backoff.BackOff
	logger     logger.Logger
}

func NewHTTPFetcher(baseURL string, timeout time.Duration, log logger.Logger) *HTTPFetcher {
	if timeout == 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPFetcher{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		backoff:    func() backoff.BackOff { return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3) },
		logger:     log,
	}
}

func (f *HTTPFetcher) GetChunk(ctx context.Context, frame model.FrameInfo) ([]byte, error) {
	url := fmt.Sprintf("%s/chunks/%d", f.baseURL, frame.FrameID)

	var chunk []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := f.httpClient.Do(req)
		if err != nil {
			f.logger.Warnw("chunk fetch failed, retrying", err, "frameID", frame.FrameID)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("fetcher: chunk %d: upstream returned %d: %s", frame.FrameID, resp.StatusCode, body)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		chunk = body
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(f.backoff(), ctx)); err != nil {
		return nil, fmt.Errorf("fetcher: get chunk for frame %d: %w", frame.FrameID, err)
	}
	return chunk, nil
}
