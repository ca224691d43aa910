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

package player

import (
	"github.com/xianliangjiang/alfalfa/pkg/player/model"
)

// ErrNoPlan, ErrInfeasible, ErrInvalidPlayheadRequest and MissingKeyError
// are model package sentinels, re-exported here so callers of this
// package don't need to import pkg/player/model directly. They live in
// model because pkg/player/planner and pkg/player/executor need to
// return the same sentinels without importing this package.
var (
	ErrNoPlan                 = model.ErrNoPlan
	ErrInfeasible             = model.ErrInfeasible
	ErrInvalidPlayheadRequest = model.ErrInvalidPlayheadRequest
)

type MissingKeyError = model.MissingKeyError
