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
	"sort"
	"strconv"
	"strings"

	"github.com/koffeinflummi/pbokit/core/math/f32"
	"github.com/koffeinflummi/pbokit/material"
)

// Face flag bits, per p3d.h's FLAG_* defines.
const (
	FlagNoZWrite      = 0x10
	FlagNoShadow      = 0x20
	FlagNoAlphaWrite  = 0x80
	FlagIsAlpha       = 0x100
	FlagIsTransparent = 0x200
	FlagNoClamp       = 0x2000
	FlagClampU        = 0x4000
	FlagClampV        = 0x8000
	FlagHiddenProxy   = 0x10000000
)

const clampLimit = 1.0 / 128

// OdolVertex is one fused ODOL vertex: a point position (by index into the
// LOD's point table), a normal (packed only when written), and a UV pair.
type OdolVertex struct {
	PointIndex uint32
	Normal     f32.Vec3
	UV         UVPair
}

// OdolFace is one ODOL polygon after corner reordering, referencing
// vertex-table indices.
type OdolFace struct {
	NumCorners int
	Vertices   [4]uint32
	MaterialIndex int
	TextureIndex  int
	Flags         uint32
	sortKey       string
}

// Section is a contiguous run of sorted faces sharing a (material, flags,
// texture, selection) key, per §4.2.4.
type Section struct {
	FaceStart, FaceEnd           int
	FaceIndexStart, FaceIndexEnd int
	MaterialIndex, TextureIndex  int
	Flags                        uint32
	NumStages                    int
	AreaOverTex                  [2]float32
}

// OdolSelection is a converted selection: either a list of vertex indices
// with per-vertex weights, or — if its name matches a skeleton section —
// a list of section indices instead.
type OdolSelection struct {
	Name         string
	IsSectional  bool
	Sections     []uint32
	Vertices     []uint32
	Weights      []uint8 // parallel to Vertices
}

// Proxy is a converted "proxy:NAME.ID" selection: a reference-object slot
// with an orthonormal placement basis, per §4.2.4.
type Proxy struct {
	Name       string
	TransformX f32.Vec3
	TransformY f32.Vec3
	TransformZ f32.Vec3
	Origin     f32.Vec3
	ProxyID    uint32
	BoneIndex  int32
}

// OdolLOD is the converted, ready-to-write result of §4.2.4 for one MLOD
// LOD.
type OdolLOD struct {
	Vertices     []OdolVertex
	Faces        []OdolFace
	Sections     []Section
	Selections   []OdolSelection
	Proxies      []Proxy
	VertexToPoint []uint32
	PointToVertex [][]uint32 // one point may map to several vertices

	UVScaleMin, UVScaleMax UVPair

	Materials []*material.Material
}

// geometryThreshold marks where "visual" resolutions end; LODs at or
// above it ignore normal/UV identity when fusing vertices (§4.2.4).
const geometryThreshold = resGeometry

// Convert builds the ODOL representation of lod, per §4.2.4.
func Convert(lod *LOD, materials []*material.Material, sectionNames map[string]bool) *OdolLOD {
	out := &OdolLOD{Materials: materials}

	computeFaceFlags(lod, materials, out)

	faces := make([]OdolFace, len(lod.Faces))
	for i, f := range lod.Faces {
		faces[i] = OdolFace{
			NumCorners:    f.NumCorners,
			MaterialIndex: f.MaterialIndex,
			TextureIndex:  f.TextureIndex,
			Flags:         f.Flags,
			sortKey:       sectionSortKey(f),
		}
	}

	order := make([]int, len(faces))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return faces[order[a]].sortKey < faces[order[b]].sortKey
	})

	visual := lod.Resolution < geometryThreshold

	pointToVertex := make(map[[3]uint32]uint32) // (point, normal index, packedUV) -> vertex
	out.PointToVertex = make([][]uint32, len(lod.Points))

	fuse := func(mlodFace *Face, corner int) uint32 {
		pi := mlodFace.PointIndex[corner]
		var key [3]uint32
		if visual {
			ni := mlodFace.NormalIndex[corner]
			uv := mlodFace.UV[corner]
			key = [3]uint32{pi, ni, packUVKey(uv)}
		} else {
			key = [3]uint32{pi, 0, 0}
		}
		if v, ok := pointToVertex[key]; ok {
			return v
		}
		var normal f32.Vec3
		var uv UVPair
		if visual {
			normal = lod.Normals[mlodFace.NormalIndex[corner]]
			uv = mlodFace.UV[corner]
		}
		v := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, OdolVertex{PointIndex: pi, Normal: normal, UV: uv})
		out.VertexToPoint = append(out.VertexToPoint, pi)
		out.PointToVertex[pi] = append(out.PointToVertex[pi], v)
		pointToVertex[key] = v
		return v
	}

	sortedFaces := make([]OdolFace, len(order))
	for newIdx, oldIdx := range order {
		mf := &lod.Faces[oldIdx]
		of := faces[oldIdx]
		of.Vertices = reorderCorners(mf, fuse)
		sortedFaces[newIdx] = of
	}
	out.Faces = sortedFaces

	out.Sections = buildSections(sortedFaces)
	out.UVScaleMin, out.UVScaleMax = computeUVScale(lod)
	out.Selections = buildSelections(lod, out, sectionNames)
	out.Proxies = buildProxies(lod)

	return out
}

// reorderCorners applies ODOL's corner reordering (tri 012->102, quad
// 0123->1032) while fusing each corner through fuse.
func reorderCorners(f *Face, fuse func(*Face, int) uint32) [4]uint32 {
	var order []int
	if f.NumCorners == 3 {
		order = []int{1, 0, 2}
	} else {
		order = []int{1, 0, 3, 2}
	}
	var verts [4]uint32
	for i, corner := range order {
		verts[i] = fuse(f, corner)
	}
	return verts
}

// sectionSortKey renders the (material, flags, texture, section-name)
// ascending sort key faces are ordered by before sectioning.
func sectionSortKey(f Face) string {
	return strconv.Itoa(f.MaterialIndex) + "\x00" +
		strconv.FormatUint(uint64(f.Flags), 10) + "\x00" +
		strconv.Itoa(f.TextureIndex) + "\x00" +
		f.SectionNames
}

// computeFaceFlags detects per-texture UV tiling and assigns CLAMPU /
// CLAMPV / NOCLAMP / ISALPHA / hidden-proxy flags to every face, per
// §4.2.4, before fusion.
func computeFaceFlags(lod *LOD, materials []*material.Material, out *OdolLOD) {
	tileU := make([]bool, len(lod.Textures))
	tileV := make([]bool, len(lod.Textures))
	for _, f := range lod.Faces {
		if f.TextureIndex < 0 {
			continue
		}
		for c := 0; c < f.NumCorners; c++ {
			if f.UV[c].U < -1.0/128 || f.UV[c].U > 1+1.0/128 {
				tileU[f.TextureIndex] = true
			}
			if f.UV[c].V < -1.0/128 || f.UV[c].V > 1+1.0/128 {
				tileV[f.TextureIndex] = true
			}
		}
	}

	for i := range lod.Faces {
		f := &lod.Faces[i]
		var flags uint32
		switch {
		case f.TextureIndex < 0:
			flags |= FlagNoClamp
		case tileU[f.TextureIndex] && tileV[f.TextureIndex]:
			flags |= FlagNoClamp
		default:
			if !tileU[f.TextureIndex] {
				flags |= FlagClampU
			}
			if !tileV[f.TextureIndex] {
				flags |= FlagClampV
			}
		}

		if isAlphaFace(f, materials) {
			flags |= FlagIsAlpha
		}

		if strings.HasPrefix(f.SectionNames, "proxy:") {
			flags |= FlagHiddenProxy
			f.TextureIndex = -1
			f.MaterialIndex = -1
		}
		f.Flags = flags
	}
}

// isAlphaFace reports whether f should be treated as an alpha-blended
// surface: its material does not set the NoAlphaWrite render flag and its
// diffuse alpha is below 1. A face without a resolved material is never
// alpha; the texture name is not examined.
func isAlphaFace(f *Face, materials []*material.Material) bool {
	if f.MaterialIndex >= 0 && f.MaterialIndex < len(materials) && materials[f.MaterialIndex] != nil {
		m := materials[f.MaterialIndex]
		return m.RenderFlags&(1<<uint(material.FlagNoAlphaWrite)) == 0 && m.Diffuse[3] < 1.0
	}
	return false
}

// packUVKey quantizes a UV pair into a stable fusion key: two corners with
// the same point/normal but UVs that differ at 16-bit packing precision
// are still treated as distinct vertices.
func packUVKey(uv UVPair) uint32 {
	u := uint32(uint16(int32(uv.U * 2048)))
	v := uint32(uint16(int32(uv.V * 2048)))
	return u<<16 | v
}

func buildSections(faces []OdolFace) []Section {
	var sections []Section
	faceIndexPos := 0
	for i := 0; i < len(faces); {
		j := i + 1
		for j < len(faces) && faces[j].sortKey == faces[i].sortKey {
			j++
		}
		numIndices := 0
		for k := i; k < j; k++ {
			numIndices += faces[k].NumCorners
		}
		sections = append(sections, Section{
			FaceStart: i, FaceEnd: j,
			FaceIndexStart: faceIndexPos, FaceIndexEnd: faceIndexPos + numIndices,
			MaterialIndex: faces[i].MaterialIndex,
			TextureIndex:  faces[i].TextureIndex,
			Flags:         faces[i].Flags,
			NumStages:     2,
			AreaOverTex:   [2]float32{1, -1000},
		})
		faceIndexPos += numIndices
		i = j
	}
	return sections
}

// computeUVScale returns the [min, max] extremum of every face corner's
// UV after wrapping (uv = sign(u)*frac(|u|)), per §4.2.4.
func computeUVScale(lod *LOD) (UVPair, UVPair) {
	min := UVPair{0, 0}
	max := UVPair{1, 1}
	first := true
	for _, f := range lod.Faces {
		for c := 0; c < f.NumCorners; c++ {
			u := wrapUV(f.UV[c].U)
			v := wrapUV(f.UV[c].V)
			if first {
				min, max = UVPair{u, v}, UVPair{u, v}
				first = false
				continue
			}
			if u < min.U {
				min.U = u
			}
			if v < min.V {
				min.V = v
			}
			if u > max.U {
				max.U = u
			}
			if v > max.V {
				max.V = v
			}
		}
	}
	return min, max
}

func wrapUV(u float32) float32 {
	sign := float32(1)
	if u < 0 {
		sign = -1
		u = -u
	}
	_, frac := splitFloat(u)
	return sign * frac
}

func splitFloat(v float32) (int32, float32) {
	whole := int32(v)
	return whole, v - float32(whole)
}

// packUV maps uv onto [-32767, 32767] linearly from [min, max].
func packUV(v, min, max float32) int16 {
	if max == min {
		return 0
	}
	scaled := (v-min)/(max-min)*65534 - 32767
	return int16(f32.RoundHalfUp(scaled))
}

// packNormal stores n as a packed 30-bit triple of signed 10-bit fields,
// scaled by -511 with round-half-up, clamped to [-511, 511], per §4.2.4.
func packNormal(n f32.Vec3) uint32 {
	pack := func(v float32) uint32 {
		scaled := f32.RoundHalfUp(v * -511)
		if scaled > 511 {
			scaled = 511
		}
		if scaled < -511 {
			scaled = -511
		}
		return uint32(scaled) & 0x3ff
	}
	return pack(n[0]) | pack(n[1])<<10 | pack(n[2])<<20
}

// buildSelections converts every MLOD selection into either a sectional
// selection (if its name matches a skeleton section name) or a plain
// vertex+weight list, per §4.2.4. It runs after vertex fusion so each
// MLOD point can be expanded to every fused vertex sharing it via
// out.PointToVertex.
func buildSelections(lod *LOD, out *OdolLOD, sectionNames map[string]bool) []OdolSelection {
	converted := make([]OdolSelection, 0, len(lod.Selections))
	for _, sel := range lod.Selections {
		c := OdolSelection{Name: sel.Name}
		if sectionNames[sel.Name] {
			c.IsSectional = true
			for secIdx, s := range out.Sections {
				if sectionMatchesSelection(lod, sel, s) {
					c.Sections = append(c.Sections, uint32(secIdx))
				}
			}
			converted = append(converted, c)
			continue
		}

		var sum float64
		for _, w := range sel.Points {
			if w == 0 {
				continue
			}
			sum += float64(w)
		}
		for pointIdx, w := range sel.Points {
			if w == 0 || pointIdx >= len(out.PointToVertex) {
				continue
			}
			normalized := uint8(255)
			if sum > 0 {
				normalized = uint8(float64(w) / sum * 255)
			}
			for _, v := range out.PointToVertex[pointIdx] {
				c.Vertices = append(c.Vertices, v)
				c.Weights = append(c.Weights, normalized)
			}
		}
		converted = append(converted, c)
	}
	return converted
}

// sectionMatchesSelection reports whether every face in sec is included in
// sel's face mask, meaning the selection can be represented by that
// section reference instead of an explicit vertex list.
func sectionMatchesSelection(lod *LOD, sel Selection, sec Section) bool {
	if sec.FaceEnd <= sec.FaceStart {
		return false
	}
	for i := sec.FaceStart; i < sec.FaceEnd && i < len(sel.Faces); i++ {
		if sel.Faces[i] == 0 {
			return false
		}
	}
	return true
}

// buildProxies converts every "proxy:NAME.ID" selection into a placement
// record, per §4.2.4.
func buildProxies(lod *LOD) []Proxy {
	var proxies []Proxy
	for _, sel := range lod.Selections {
		if !strings.HasPrefix(sel.Name, "proxy:") {
			continue
		}
		rest := strings.TrimPrefix(sel.Name, "proxy:")
		dot := strings.LastIndex(rest, ".")
		if dot < 0 {
			continue
		}
		name := rest[:dot]
		id, err := strconv.Atoi(rest[dot+1:])
		if err != nil {
			continue
		}

		face := firstSelectedFace(lod, sel)
		if face == nil {
			continue
		}
		p0 := lod.Points[face.PointIndex[0]].Pos
		p1 := lod.Points[face.PointIndex[1]].Pos
		p2 := lod.Points[face.PointIndex[2]].Pos

		y := p1.Sub(p0).Normalize()
		z := p2.Sub(p0).Normalize()
		x := y.Cross(z)

		proxies = append(proxies, Proxy{
			Name: name, TransformX: x, TransformY: y, TransformZ: z, Origin: p0,
			ProxyID: uint32(id), BoneIndex: -1,
		})
	}
	return proxies
}

func firstSelectedFace(lod *LOD, sel Selection) *Face {
	for i, included := range sel.Faces {
		if included != 0 && i < len(lod.Faces) {
			return &lod.Faces[i]
		}
	}
	return nil
}
