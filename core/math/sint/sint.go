// Copyright (C) 2024 The Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sint holds small signed-integer helpers used for clamping grid
// segment counts (buoyancy, §4.2.6) and formatting line numbers (lineref
// diagnostics, §3). Clamp/Min/Max/Abs/etc. live in utils.go; this file
// adds Log10, which utils.go doesn't have.
package sint

// Log10 returns floor(log10(i)) for i > 0, and 0 for i == 0.
func Log10(i int) int {
	if i < 0 {
		panic("sint.Log10: negative argument")
	}
	o := 0
	for {
		i /= 10
		if i == 0 {
			return o
		}
		o++
	}
}
