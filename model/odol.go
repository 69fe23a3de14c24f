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

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/koffeinflummi/pbokit/core/math/f32"
)

// DefaultAppID and DefaultVersion match the engine's current defaults, per
// §6.2 ("ODOL... version 71 by default").
const (
	DefaultVersion = 71
	DefaultAppID   = 1
)

// WriteODOL renders f (with its classification, model-info, and per-LOD
// ODOL conversion already computed) as a binary ODOL file, per §4.2.7.
func WriteODOL(f *File, info ModelInfo, lods []*OdolLOD, appID uint32) []byte {
	var buf bytes.Buffer

	buf.WriteString("ODOL")
	writeU32(&buf, DefaultVersion)
	writeU32(&buf, appID)
	writeCString(&buf, "") // muzzle flash path, always empty

	writeU32(&buf, uint32(len(lods)))
	for _, lod := range f.LODs {
		writeF32(&buf, lod.Resolution)
	}

	writeModelInfo(&buf, info, len(lods))

	offsetTablePos := buf.Len()
	placeholders := make([]byte, 8*len(lods))
	buf.Write(placeholders)

	offsets := make([][2]uint32, len(lods))
	for i, lod := range lods {
		start := uint32(buf.Len())
		writeLODBody(&buf, f.LODs[i], lod)
		end := uint32(buf.Len())
		offsets[i] = [2]uint32{start, end}
	}

	out := buf.Bytes()
	for i, o := range offsets {
		pos := offsetTablePos + i*8
		binary.LittleEndian.PutUint32(out[pos:], o[0])
		binary.LittleEndian.PutUint32(out[pos+4:], o[1])
	}
	return out
}

func writeModelInfo(buf *bytes.Buffer, info ModelInfo, numLODs int) {
	writeBool(buf, info.AutoCenter)
	writeF32(buf, info.ViewDensityCoef)
	writeF32(buf, info.ViewDensity)
	writeVec3(buf, info.BBoxMin)
	writeVec3(buf, info.BBoxMax)
	writeVec3(buf, info.BBoxVisualMin)
	writeVec3(buf, info.BBoxVisualMax)
	writeVec3(buf, info.BoundingCenter)
	writeF32(buf, info.Mass)
	writeVec3(buf, info.CenterOfMass)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			writeF32(buf, info.InvInertia[i][j])
		}
	}
	writeBool(buf, info.CanOcclude)
	writeBool(buf, info.CanBeOccluded)
	writeBool(buf, info.ForceNotAlpha)
	writeBool(buf, info.PreferShadowVolume)
	writeF32(buf, info.ShadowOffset)
	writeBool(buf, info.AICovers)
	writeBool(buf, info.Animated)
	writeBool(buf, info.LODNoShadow)
	writeBool(buf, info.Frequent)
	writeCString(buf, info.ClassType)
	writeCString(buf, info.Damage)
	writeCString(buf, info.SBSource)
	writeCString(buf, info.MapType)
	writeU32(buf, uint32(numLODs))
}

// writeLODBody renders one LOD's ODOL body: proxies, bone maps, point
// count, face-area sum, clip flags, bbox, autocenter, sphere, interned
// texture strings, material records, face table, section records,
// selection records, property records, frames (0), colors, flags, the
// vertex table with a patched size header, and a trailing collimator-info
// flag byte, per §4.2.7.
func writeLODBody(buf *bytes.Buffer, mlod LOD, lod *OdolLOD) {
	writeU32(buf, uint32(len(lod.Proxies)))
	for _, p := range lod.Proxies {
		writeCString(buf, p.Name)
		writeVec3(buf, p.TransformX)
		writeVec3(buf, p.TransformY)
		writeVec3(buf, p.TransformZ)
		writeVec3(buf, p.Origin)
		writeU32(buf, p.ProxyID)
		writeI32(buf, p.BoneIndex)
	}

	writeU32(buf, 0) // num_bones_subskeleton
	writeU32(buf, 0) // num_bones_skeleton

	writeU32(buf, uint32(len(lod.Vertices)))
	writeF32(buf, faceAreaSum(mlod, lod))
	writeU32(buf, 0) // clip_flags[0]
	writeU32(buf, 0) // clip_flags[1]
	writeVec3(buf, mlod.MinPos)
	writeVec3(buf, mlod.MaxPos)
	writeVec3(buf, mlod.AutoCenter)
	writeF32(buf, mlod.BoundingSphere)

	var textureBlob bytes.Buffer
	for _, t := range mlod.Textures {
		textureBlob.WriteString(t)
		textureBlob.WriteByte(0)
	}
	writeU32(buf, uint32(textureBlob.Len()))
	buf.Write(textureBlob.Bytes())

	writeU32(buf, uint32(len(lod.Materials)))
	for _, m := range lod.Materials {
		if m == nil {
			writeCString(buf, "")
			continue
		}
		buf.Write(m.WriteTo())
	}

	writeU32(buf, uint32(len(lod.Faces)))
	for _, face := range lod.Faces {
		buf.WriteByte(byte(face.NumCorners))
		for i := 0; i < face.NumCorners; i++ {
			writeU32(buf, face.Vertices[i])
		}
	}

	writeU32(buf, uint32(len(lod.Sections)))
	for _, s := range lod.Sections {
		writeU32(buf, uint32(s.FaceStart))
		writeU32(buf, uint32(s.FaceEnd))
		writeU32(buf, uint32(s.FaceIndexStart))
		writeU32(buf, uint32(s.FaceIndexEnd))
		writeI32(buf, int32(s.MaterialIndex))
		writeI32(buf, int32(s.TextureIndex))
		writeU32(buf, s.Flags)
		writeU32(buf, uint32(s.NumStages))
		writeF32(buf, s.AreaOverTex[0])
		writeF32(buf, s.AreaOverTex[1])
	}

	writeU32(buf, uint32(len(lod.Selections)))
	for _, sel := range lod.Selections {
		writeCString(buf, sel.Name)
		writeBool(buf, sel.IsSectional)
		writeU32(buf, uint32(len(sel.Sections)))
		for _, s := range sel.Sections {
			writeU32(buf, s)
		}
		writeU32(buf, uint32(len(sel.Vertices)))
		for _, v := range sel.Vertices {
			writeU32(buf, v)
		}
		for _, w := range sel.Weights {
			buf.WriteByte(w)
		}
	}

	writeU32(buf, uint32(len(mlod.Properties)))
	for _, p := range mlod.Properties {
		writeCString(buf, p.Name)
		writeCString(buf, p.Value)
	}

	writeU32(buf, 0) // num_frames

	writeU32(buf, 0xffffffff) // icon color
	writeU32(buf, 0xff00ff00) // selected color
	writeU32(buf, 0)          // flags

	writeVertexTable(buf, mlod, lod)

	buf.WriteByte(0) // collimator-info flag
}

func faceAreaSum(mlod LOD, lod *OdolLOD) float32 {
	var sum float32
	for _, f := range lod.Faces {
		if len(f.Vertices) < 3 {
			continue
		}
		p0 := lod.Vertices[f.Vertices[0]]
		p1 := lod.Vertices[f.Vertices[1]]
		p2 := lod.Vertices[f.Vertices[2]]
		a := mlod.Points[p0.PointIndex].Pos
		b := mlod.Points[p1.PointIndex].Pos
		c := mlod.Points[p2.PointIndex].Pos
		area := b.Sub(a).Cross(c.Sub(a)).Magnitude() * 0.5
		if f.NumCorners == 4 {
			p3 := lod.Vertices[f.Vertices[3]]
			d := mlod.Points[p3.PointIndex].Pos
			area += b.Sub(a).Cross(d.Sub(a)).Magnitude() * 0.5
		}
		sum += area
	}
	return sum
}

// writeVertexTable writes the point positions, then the normals and UVs
// (each packed per §4.2.4), preceded by a 4-byte size header patched after
// the fact, per §4.2.7. No bone-reference records are written.
func writeVertexTable(buf *bytes.Buffer, mlod LOD, lod *OdolLOD) {
	sizePos := buf.Len()
	writeU32(buf, 0) // placeholder
	start := buf.Len()

	for _, v := range lod.Vertices {
		writeVec3(buf, mlod.Points[v.PointIndex].Pos)
	}
	for _, v := range lod.Vertices {
		packed := packNormal(v.Normal)
		writeU32(buf, packed)
	}
	for _, v := range lod.Vertices {
		writeI16(buf, packUV(v.UV.U, lod.UVScaleMin.U, lod.UVScaleMax.U))
		writeI16(buf, packUV(v.UV.V, lod.UVScaleMin.V, lod.UVScaleMax.V))
	}

	size := uint32(buf.Len() - start)
	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[sizePos:], size)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeI32(buf *bytes.Buffer, v int32) { writeU32(buf, uint32(v)) }

func writeI16(buf *bytes.Buffer, v int16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	buf.Write(b[:])
}

func writeF32(buf *bytes.Buffer, v float32) {
	writeU32(buf, math.Float32bits(v))
}

func writeVec3(buf *bytes.Buffer, v f32.Vec3) {
	writeF32(buf, v[0])
	writeF32(buf, v[1])
	writeF32(buf, v[2])
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeCString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
}
