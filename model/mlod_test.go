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

package model_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/koffeinflummi/pbokit/core/assert"
	"github.com/koffeinflummi/pbokit/core/math/f32"
	"github.com/koffeinflummi/pbokit/model"
)

func f32vec(x, y, z float32) f32.Vec3 { return f32.Vec3{x, y, z} }

// buildQuadLOD writes one P3DM block: a single quad face over four
// points, one face normal, a "geo" selection covering every point/face,
// and a resolution trailer.
func buildQuadLOD(t *testing.T, resolution float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("P3DM")
	wu32(&buf, 0) // header size (unused)
	wu32(&buf, 0) // version (unused)
	wu32(&buf, 4) // num points
	wu32(&buf, 1) // num facenormals
	wu32(&buf, 1) // num faces
	wu32(&buf, 0) // flags

	points := [4][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	for _, p := range points {
		wf32(&buf, p[0])
		wf32(&buf, p[1])
		wf32(&buf, p[2])
		wu32(&buf, 0) // point flags
	}
	wf32(&buf, 0) // normal x
	wf32(&buf, 0) // normal y
	wf32(&buf, 1) // normal z

	// face: 4 corners, point indices 0..3, normal index 0 (the single
	// normal above), UV (0,0) each, flags 0.
	wu32(&buf, 4)
	for i := 0; i < 4; i++ {
		wu32(&buf, uint32(i))
		wu32(&buf, 0)
		wf32(&buf, 0)
		wf32(&buf, 0)
	}
	wu32(&buf, 0) // face flags
	buf.WriteByte(0) // empty texture name
	buf.WriteByte(0) // empty material name

	buf.WriteString("TAGG")
	buf.WriteByte(0)
	buf.WriteString("geo")
	buf.WriteByte(0)
	wu32(&buf, 5) // 4 point weights + 1 face mask
	buf.Write([]byte{1, 1, 1, 1, 1})

	buf.WriteByte(0)
	buf.WriteString("#EndOfFile#")
	buf.WriteByte(0)
	wu32(&buf, 0)

	wf32(&buf, resolution)
	return buf.Bytes()
}

func wu32(buf *bytes.Buffer, v uint32) { binary.Write(buf, binary.LittleEndian, v) }
func wf32(buf *bytes.Buffer, v float32) { binary.Write(buf, binary.LittleEndian, v) }

func buildFile(t *testing.T, resolutions ...float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("MLOD")
	wu32(&buf, 257)
	wu32(&buf, uint32(len(resolutions)))
	for _, r := range resolutions {
		buf.Write(buildQuadLOD(t, r))
	}
	return buf.Bytes()
}

func TestReadSingleQuadLOD(t *testing.T) {
	data := buildFile(t, 1e13) // geometry resolution
	f, err := model.Read(bytes.NewReader(data))
	assert.For(t, "read err").ThatError(err).Succeeded()
	assert.For(t, "lod count").That(len(f.LODs)).Equals(1)

	lod := f.LODs[0]
	assert.For(t, "points").That(len(lod.Points)).Equals(4)
	assert.For(t, "faces").That(len(lod.Faces)).Equals(1)
	assert.For(t, "selections").That(len(lod.Selections)).Equals(1)
	assert.For(t, "selection name").That(lod.Selections[0].Name).Equals("geo")
	assert.For(t, "resolution").That(lod.Resolution).Equals(float32(1e13))
}

func TestClassifyGeometryLOD(t *testing.T) {
	data := buildFile(t, 1e13, 0)
	f, err := model.Read(bytes.NewReader(data))
	assert.For(t, "read err").ThatError(err).Succeeded()

	idx := model.Classify(f)
	assert.For(t, "geometry index").That(idx.Geometry).Equals(0)
	assert.For(t, "fire geometry fallback").That(idx.FireGeometry).Equals(0)
	assert.For(t, "view geometry fallback").That(idx.ViewGeometry).Equals(0)
}

func TestConvertFusesSharedQuadCorners(t *testing.T) {
	data := buildFile(t, 0)
	f, err := model.Read(bytes.NewReader(data))
	assert.For(t, "read err").ThatError(err).Succeeded()

	lod := f.LODs[0]
	converted := model.Convert(&lod, nil, map[string]bool{})
	assert.For(t, "vertex count").That(len(converted.Vertices)).Equals(4)
	assert.For(t, "face count").That(len(converted.Faces)).Equals(1)
	assert.For(t, "sections").That(len(converted.Sections)).Equals(1)
}

func TestBuoyancyIterationVolumeOfTetrahedron(t *testing.T) {
	lod := model.LOD{
		Points: []model.Point{
			{Pos: f32vec(0, 0, 0)},
			{Pos: f32vec(1, 0, 0)},
			{Pos: f32vec(0, 1, 0)},
			{Pos: f32vec(0, 0, 1)},
		},
		Faces: []model.Face{
			{NumCorners: 3, PointIndex: [4]uint32{0, 1, 2, 0}},
			{NumCorners: 3, PointIndex: [4]uint32{0, 1, 3, 0}},
			{NumCorners: 3, PointIndex: [4]uint32{0, 2, 3, 0}},
			{NumCorners: 3, PointIndex: [4]uint32{1, 2, 3, 0}},
		},
	}
	f := &model.File{LODs: []model.LOD{lod}}
	idx := model.SpecialLODIndices{GeometrySimple: 0, Geometry: -1, GeometryPhysX: -1}

	buoy, err := model.BuildBuoyancy(f, idx, 0, 0)
	assert.For(t, "buoyancy err").ThatError(err).Succeeded()
	assert.For(t, "volume positive").That(buoy.Volume > 0).Equals(true)
}
