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

// QualityKey addresses one cell of the externally-supplied SSIM table:
// an approximate raster hash at a given displayed raster index.
type QualityKey struct {
	ApproximateRaster Hash
	DRI               int
}

// QualityTable is the planner's read-only view of quality_data, built
// once from get_all_quality_data_by_dri and never mutated by the core.
type QualityTable map[QualityKey]float64

func NewQualityTable(rows []QualityDataDRI) QualityTable {
	t := make(QualityTable, len(rows))
	for _, row := range rows {
		t[QualityKey{ApproximateRaster: row.ApproximateRaster, DRI: row.OriginalRasterDRI}] = row.Quality
	}
	return t
}

// Lookup returns quality_data[outputHash][dri]. A frame whose quality
// was never published scores 0 -- the worst possible SSIM -- rather
// than panicking, so a sparse table degrades candidate choice instead
// of crashing playback.
func (t QualityTable) Lookup(outputHash Hash, dri int) float64 {
	return t[QualityKey{ApproximateRaster: outputHash, DRI: dri}]
}
