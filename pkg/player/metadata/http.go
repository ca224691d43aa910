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

package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/livekit/protocol/logger"

	"github.com/xianliangjiang/alfalfa/pkg/player/model"
	"github.com/xianliangjiang/alfalfa/pkg/player/metadata/wire"
)

const DefaultHTTPTimeout = 10 * time.Second

// HTTPMetadataService implements ports.MetadataService over the JSON
// query API of spec §6, grounded on the teacher's pkg/agent HTTP client
// (pooled client, context-propagated requests) with retry via
// cenkalti/backoff/v4 (DESIGN.md).
type HTTPMetadataService struct {
	baseURL    string
	httpClient *http.Client
	backoff    func() backoff.BackOff
	logger     logger.Logger
}

func NewHTTPMetadataService(baseURL string, timeout time.Duration, log logger.Logger) *HTTPMetadataService {
	if timeout == 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPMetadataService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		backoff:    func() backoff.BackOff { return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3) },
		logger:     log,
	}
}

func (s *HTTPMetadataService) get(ctx context.Context, path string, query url.Values, out any) error {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.logger.Warnw("metadata query failed, retrying", err, "path", path)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return fmt.Errorf("metadata: %s: upstream returned %d: %s", path, resp.StatusCode, body)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	if err := backoff.Retry(op, backoff.WithContext(s.backoff(), ctx)); err != nil {
		return fmt.Errorf("metadata: %s: %w", path, err)
	}
	return nil
}

func fromWireOptionalHash(h wire.OptionalHash) model.OptionalHash {
	if !h.Present {
		return model.NoHash()
	}
	return model.SomeHash(model.Hash(h.Hash))
}

func fromWireFrame(f wire.FrameInfo) model.FrameInfo {
	return model.FrameInfo{
		FrameID: f.FrameID,
		Length:  f.Length,
		Shown:   f.Shown,
		SourceHash: model.SourceHash{
			Last:   fromWireOptionalHash(f.SourceHash.Last),
			Golden: fromWireOptionalHash(f.SourceHash.Golden),
			Alt:    fromWireOptionalHash(f.SourceHash.Alt),
			State:  fromWireOptionalHash(f.SourceHash.State),
		},
		TargetHash: model.TargetHash{
			Output: model.Hash(f.TargetHash.Output),
			State:  model.Hash(f.TargetHash.State),
		},
	}
}

func fromWireFrames(fs []wire.FrameInfo) []model.FrameInfo {
	out := make([]model.FrameInfo, len(fs))
	for i, f := range fs {
		out[i] = fromWireFrame(f)
	}
	return out
}

func fromWireSwitch(sw wire.SwitchInfo) model.SwitchInfo {
	return model.SwitchInfo{
		Frames:           fromWireFrames(sw.Frames),
		FromTrackID:      sw.FromTrackID,
		ToTrackID:        sw.ToTrackID,
		FromFrameIndex:   sw.FromFrameIndex,
		ToFrameIndex:     sw.ToFrameIndex,
		SwitchStartIndex: sw.SwitchStartIndex,
	}
}

func (s *HTTPMetadataService) GetTrackIDs(ctx context.Context) ([]uint64, error) {
	var resp wire.TrackIDsResponse
	if err := s.get(ctx, "/track_ids", nil, &resp); err != nil {
		return nil, err
	}
	return resp.TrackIDs, nil
}

func (s *HTTPMetadataService) GetTrackSize(ctx context.Context, trackID uint64) (int, error) {
	var resp wire.TrackSizeResponse
	q := url.Values{"track_id": {strconv.FormatUint(trackID, 10)}}
	if err := s.get(ctx, "/track_size", q, &resp); err != nil {
		return 0, err
	}
	return resp.Size, nil
}

func (s *HTTPMetadataService) GetFrames(ctx context.Context, trackID uint64, from, to int) ([]model.FrameInfo, error) {
	var resp wire.FramesResponse
	q := url.Values{
		"track_id": {strconv.FormatUint(trackID, 10)},
		"from":     {strconv.Itoa(from)},
		"to":       {strconv.Itoa(to)},
	}
	if err := s.get(ctx, "/frames", q, &resp); err != nil {
		return nil, err
	}
	return fromWireFrames(resp.Frames), nil
}

func (s *HTTPMetadataService) GetFramesReverse(ctx context.Context, trackID uint64, from, to int) ([]model.FrameInfo, error) {
	var resp wire.FramesResponse
	q := url.Values{
		"track_id": {strconv.FormatUint(trackID, 10)},
		"from":     {strconv.Itoa(from)},
		"to":       {strconv.Itoa(to)},
	}
	if err := s.get(ctx, "/frames_reverse", q, &resp); err != nil {
		return nil, err
	}
	return fromWireFrames(resp.Frames), nil
}

func (s *HTTPMetadataService) GetSwitchFrames(ctx context.Context, fromTrack, toTrack uint64, fromFrameIndex, switchStart, switchEnd int) ([]model.FrameInfo, error) {
	var resp wire.FramesResponse
	q := url.Values{
		"from_track_id":   {strconv.FormatUint(fromTrack, 10)},
		"to_track_id":     {strconv.FormatUint(toTrack, 10)},
		"from_frame_index": {strconv.Itoa(fromFrameIndex)},
		"switch_start":    {strconv.Itoa(switchStart)},
		"switch_end":      {strconv.Itoa(switchEnd)},
	}
	if err := s.get(ctx, "/switch_frames", q, &resp); err != nil {
		return nil, err
	}
	return fromWireFrames(resp.Frames), nil
}

func (s *HTTPMetadataService) GetFramesByOutputHash(ctx context.Context, hash model.Hash) ([]model.FrameInfo, error) {
	var resp wire.FramesResponse
	q := url.Values{"output_hash": {strconv.FormatUint(uint64(hash), 10)}}
	if err := s.get(ctx, "/frames_by_output_hash", q, &resp); err != nil {
		return nil, err
	}
	return fromWireFrames(resp.Frames), nil
}

func (s *HTTPMetadataService) GetSwitchesWithFrame(ctx context.Context, frameID uint64) ([]model.SwitchInfo, error) {
	var resp wire.SwitchesResponse
	q := url.Values{"frame_id": {strconv.FormatUint(frameID, 10)}}
	if err := s.get(ctx, "/switches_with_frame", q, &resp); err != nil {
		return nil, err
	}
	out := make([]model.SwitchInfo, len(resp.Switches))
	for i, sw := range resp.Switches {
		out[i] = fromWireSwitch(sw)
	}
	return out, nil
}

func (s *HTTPMetadataService) GetAllSwitchesInWindow(ctx context.Context, trackID uint64, lo, hi int) ([]model.SwitchInfo, error) {
	var resp wire.SwitchesResponse
	q := url.Values{
		"track_id": {strconv.FormatUint(trackID, 10)},
		"lo":       {strconv.Itoa(lo)},
		"hi":       {strconv.Itoa(hi)},
	}
	if err := s.get(ctx, "/switches_in_window", q, &resp); err != nil {
		return nil, err
	}
	out := make([]model.SwitchInfo, len(resp.Switches))
	for i, sw := range resp.Switches {
		out[i] = fromWireSwitch(sw)
	}
	return out, nil
}

func (s *HTTPMetadataService) GetTrackDataByFrameID(ctx context.Context, frameID uint64) ([]model.TrackDataByFrameID, error) {
	var resp wire.TrackDataResponse
	q := url.Values{"frame_id": {strconv.FormatUint(frameID, 10)}}
	if err := s.get(ctx, "/track_data_by_frame_id", q, &resp); err != nil {
		return nil, err
	}
	out := make([]model.TrackDataByFrameID, len(resp.Locations))
	for i, l := range resp.Locations {
		out[i] = model.TrackDataByFrameID{TrackID: l.TrackID, FrameIndex: l.FrameIndex}
	}
	return out, nil
}

func (s *HTTPMetadataService) GetFrameIndexByDisplayedRasterIndex(ctx context.Context, trackID uint64, dri int) (int, error) {
	var resp wire.FrameIndexResponse
	q := url.Values{
		"track_id": {strconv.FormatUint(trackID, 10)},
		"dri":      {strconv.Itoa(dri)},
	}
	if err := s.get(ctx, "/frame_index_by_dri", q, &resp); err != nil {
		return 0, err
	}
	return resp.FrameIndex, nil
}

func (s *HTTPMetadataService) GetConnectedTrackIDs(ctx context.Context, trackID uint64) ([]uint64, error) {
	var resp wire.ConnectedTracksResponse
	q := url.Values{"track_id": {strconv.FormatUint(trackID, 10)}}
	if err := s.get(ctx, "/connected_track_ids", q, &resp); err != nil {
		return nil, err
	}
	return resp.TrackIDs, nil
}

func (s *HTTPMetadataService) GetAllQualityDataByDRI(ctx context.Context) ([]model.QualityDataDRI, error) {
	var resp wire.QualityDataResponse
	if err := s.get(ctx, "/quality_data", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]model.QualityDataDRI, len(resp.Rows))
	for i, r := range resp.Rows {
		out[i] = model.QualityDataDRI{
			OriginalRasterDRI: r.OriginalRasterDRI,
			ApproximateRaster: model.Hash(r.ApproximateRaster),
			Quality:           r.Quality,
		}
	}
	return out, nil
}

func (s *HTTPMetadataService) videoInfo(ctx context.Context) (wire.VideoInfoResponse, error) {
	var resp wire.VideoInfoResponse
	err := s.get(ctx, "/video_info", nil, &resp)
	return resp, err
}

func (s *HTTPMetadataService) GetVideoWidth(ctx context.Context) (int, error) {
	info, err := s.videoInfo(ctx)
	return info.Width, err
}

func (s *HTTPMetadataService) GetVideoHeight(ctx context.Context) (int, error) {
	info, err := s.videoInfo(ctx)
	return info.Height, err
}

func (s *HTTPMetadataService) GetURL(ctx context.Context) (string, error) {
	info, err := s.videoInfo(ctx)
	return info.URL, err
}
