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

package model

import "github.com/koffeinflummi/pbokit/core/math/sint"

// LODComplexity summarizes a file's per-LOD face and point counts, for
// the "inspect" command's model summary (§6.1).
type LODComplexity struct {
	Faces  sint.HistogramStats
	Points sint.HistogramStats
}

// Summarize computes LODComplexity across every LOD in f.
func Summarize(f *File) LODComplexity {
	var faces, points sint.Histogram
	for i, lod := range f.LODs {
		faces.Add(i, len(lod.Faces))
		points.Add(i, len(lod.Points))
	}
	return LODComplexity{Faces: faces.Stats(), Points: points.Stats()}
}
