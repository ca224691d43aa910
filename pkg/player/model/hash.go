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

import "fmt"

// Hash is an opaque content fingerprint. It has no ordering beyond
// hash-table use; equality is the only operation the core relies on.
type Hash uint64

func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// OptionalHash models "present or absent" as a tagged variant rather
// than a sentinel value, per the zero hash being a legitimate fingerprint.
type OptionalHash struct {
	Hash  Hash
	Valid bool
}

func SomeHash(h Hash) OptionalHash {
	return OptionalHash{Hash: h, Valid: true}
}

func NoHash() OptionalHash {
	return OptionalHash{}
}

// NoFrameIndex models "no origin" explicitly (spec open question ii)
// instead of propagating an unsigned wraparound value.
const NoFrameIndex = -1

// SizeMax is the cost sentinel denoting "no valid plan".
const SizeMax = ^uint64(0)
