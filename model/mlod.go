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

// Package model transcodes MLOD source models (the editable, per-LOD
// P3DM format produced by modelling tools) into ODOL, the engine's
// binary runtime format: reading, LOD classification, vertex fusion and
// face-flag computation, material resolution, buoyancy synthesis, and
// the ODOL writer itself. Grounded on armake's p3d.cpp/p3d.h.
package model

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/koffeinflummi/pbokit/core/fault"
	"github.com/koffeinflummi/pbokit/core/math/f32"
)

const (
	mlodMagic  = "MLOD"
	p3dmMagic  = "P3DM"
	taggMagic  = "TAGG"
	maxTagName = 1024

	pointHiddenFlag = 0x1000000
)

const (
	// ErrBadMLODMagic is returned when the file doesn't start with "MLOD".
	ErrBadMLODMagic = fault.Const("model: not an MLOD file")
	// ErrBadLODMagic is returned when a LOD block doesn't start with "P3DM".
	ErrBadLODMagic = fault.Const("model: malformed LOD header")
	// ErrBadTagMagic is returned when the tag section doesn't start with "TAGG".
	ErrBadTagMagic = fault.Const("model: malformed tag section")
	// ErrUnsupportedUVStage is returned for a non-zero #UVSet# stage id.
	ErrUnsupportedUVStage = fault.Const("model: unsupported UV set stage")
)

// Point is one MLOD vertex position plus its raw point flags (selection
// weight / hidden bit / clipping hints).
type Point struct {
	Pos   f32.Vec3
	Flags uint32
}

// Face is one MLOD polygon: three or four corners, each an index into the
// LOD's point and normal arrays plus a UV pair, and the interned texture /
// material indices (-1 when absent).
type Face struct {
	NumCorners   int
	PointIndex   [4]uint32
	NormalIndex  [4]uint32
	UV           [4]UVPair
	TextureIndex int
	MaterialIndex int
	SectionNames string
	Flags        uint32
}

// UVPair is a single texture coordinate.
type UVPair struct{ U, V float32 }

// Selection is a named subset of an LOD's points and faces: a per-point
// weight byte (0 = not in selection) and a per-face inclusion mask.
type Selection struct {
	Name   string
	Points []byte
	Faces  []byte
}

// Property is a free-form name/value pair attached to an LOD via a
// "#Property#" tag.
type Property struct {
	Name  string
	Value string
}

// LOD is one fully-read MLOD resolution level.
type LOD struct {
	Resolution float32
	Points     []Point
	Normals    []f32.Vec3
	Faces      []Face
	Textures   []string
	Materials  []string
	Mass       []float32
	SharpEdges [][2]uint32
	Properties []Property
	Selections []Selection

	MinPos, MaxPos   f32.Vec3
	AutoCenter       f32.Vec3
	BoundingSphere   float32
}

// File is a fully-read MLOD model: magic, format version, and its LODs in
// file order (least to most detailed resolution, by convention, though
// nothing here depends on that order).
type File struct {
	Version uint32
	LODs    []LOD
}

// Read parses an MLOD (.p3d source) file from r.
func Read(r io.Reader) (*File, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != mlodMagic {
		return nil, ErrBadMLODMagic
	}

	var version, lodCount uint32
	if err := readU32(br, &version); err != nil {
		return nil, err
	}
	if err := readU32(br, &lodCount); err != nil {
		return nil, err
	}

	f := &File{Version: version, LODs: make([]LOD, lodCount)}
	for i := range f.LODs {
		lod, err := readLOD(br)
		if err != nil {
			return nil, err
		}
		f.LODs[i] = lod
	}
	return f, nil
}

func readLOD(r *bufio.Reader) (LOD, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return LOD{}, err
	}
	if string(magic[:]) != p3dmMagic {
		return LOD{}, ErrBadLODMagic
	}

	// header size, version (unused by the reader), then the four counts.
	if _, err := skip(r, 8); err != nil {
		return LOD{}, err
	}
	var numPoints, numNormals, numFaces, flags uint32
	for _, dst := range []*uint32{&numPoints, &numNormals, &numFaces, &flags} {
		if err := readU32(r, dst); err != nil {
			return LOD{}, err
		}
	}

	lod := LOD{}
	empty := numPoints == 0
	if empty {
		lod.Points = []Point{{}}
	} else {
		lod.Points = make([]Point, numPoints)
		for i := range lod.Points {
			var x, y, z float32
			var pf uint32
			if err := readF32(r, &x); err != nil {
				return LOD{}, err
			}
			if err := readF32(r, &y); err != nil {
				return LOD{}, err
			}
			if err := readF32(r, &z); err != nil {
				return LOD{}, err
			}
			if err := readU32(r, &pf); err != nil {
				return LOD{}, err
			}
			lod.Points[i] = Point{Pos: f32.Vec3{x, y, z}, Flags: pf}
		}
	}

	lod.Normals = make([]f32.Vec3, numNormals)
	for i := range lod.Normals {
		if err := readVec3(r, &lod.Normals[i]); err != nil {
			return LOD{}, err
		}
	}

	lod.Faces = make([]Face, numFaces)
	for i := range lod.Faces {
		face, textureName, materialName, err := readFace(r)
		if err != nil {
			return LOD{}, err
		}
		face.TextureIndex = internString(&lod.Textures, textureName)
		face.MaterialIndex = internString(&lod.Materials, materialName)
		lod.Faces[i] = face
	}

	lod.MinPos, lod.MaxPos = boundingBox(lod.Points)
	lod.AutoCenter = lod.MinPos.Add(lod.MaxPos).Scale(0.5)
	lod.BoundingSphere = boundingSphere(lod.Points, lod.AutoCenter)

	if err := readTags(r, &lod, empty, numPoints, numFaces); err != nil {
		return LOD{}, err
	}
	if err := readF32(r, &lod.Resolution); err != nil {
		return LOD{}, err
	}
	return lod, nil
}

// internString returns name's index in *list, appending it if new. An
// empty name never interns and reports index -1, matching §4.2.1's
// "absent = empty" rule.
func internString(list *[]string, name string) int {
	if name == "" {
		return -1
	}
	for i, s := range *list {
		if s == name {
			return i
		}
	}
	*list = append(*list, name)
	return len(*list) - 1
}

func readFace(r *bufio.Reader) (Face, string, string, error) {
	var numCorners uint32
	if err := readU32(r, &numCorners); err != nil {
		return Face{}, "", "", err
	}
	face := Face{NumCorners: int(numCorners)}
	for i := 0; i < 4; i++ {
		var pointIdx, normalIdx uint32
		var u, v float32
		if err := readU32(r, &pointIdx); err != nil {
			return Face{}, "", "", err
		}
		if err := readU32(r, &normalIdx); err != nil {
			return Face{}, "", "", err
		}
		if err := readF32(r, &u); err != nil {
			return Face{}, "", "", err
		}
		if err := readF32(r, &v); err != nil {
			return Face{}, "", "", err
		}
		face.PointIndex[i] = pointIdx
		face.NormalIndex[i] = normalIdx
		face.UV[i] = UVPair{u, v}
	}
	var flags uint32
	if err := readU32(r, &flags); err != nil {
		return Face{}, "", "", err
	}
	face.Flags = flags

	textureName, err := readCString(r)
	if err != nil {
		return Face{}, "", "", err
	}
	materialName, err := readCString(r)
	if err != nil {
		return Face{}, "", "", err
	}
	return face, textureName, materialName, nil
}

func readTags(r *bufio.Reader, lod *LOD, empty bool, numPoints, numFaces uint32) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return err
	}
	if string(magic[:]) != taggMagic {
		return ErrBadTagMagic
	}

	for {
		if _, err := skip(r, 1); err != nil { // start-tag marker byte
			return err
		}
		name, err := readCString(r)
		if err != nil {
			return err
		}
		var length uint32
		if err := readU32(r, &length); err != nil {
			return err
		}
		body := make([]byte, length)
		if _, err := io.ReadFull(r, body); err != nil {
			return err
		}

		if len(name) > 0 && name[0] == '#' {
			if err := readReservedTag(lod, name, body, empty, numPoints, numFaces); err != nil {
				return err
			}
			if name == "#EndOfFile#" {
				return nil
			}
			continue
		}

		sel := Selection{Name: name}
		if empty {
			sel.Points = []byte{0}
		} else {
			if uint32(len(body)) < numPoints {
				return ErrBadTagMagic
			}
			sel.Points = append([]byte(nil), body[:numPoints]...)
			sel.Faces = append([]byte(nil), body[numPoints:]...)
		}
		lod.Selections = append(lod.Selections, sel)
	}
}

func readReservedTag(lod *LOD, name string, body []byte, empty bool, numPoints, numFaces uint32) error {
	switch name {
	case "#Mass#":
		if empty {
			lod.Mass = []float32{0}
			return nil
		}
		lod.Mass = make([]float32, numPoints)
		br := bytes.NewReader(body)
		for i := range lod.Mass {
			if err := binary.Read(br, binary.LittleEndian, &lod.Mass[i]); err != nil {
				return err
			}
		}
	case "#SharpEdges#":
		n := len(body) / 8
		lod.SharpEdges = make([][2]uint32, n)
		br := bytes.NewReader(body)
		for i := range lod.SharpEdges {
			binary.Read(br, binary.LittleEndian, &lod.SharpEdges[i][0])
			binary.Read(br, binary.LittleEndian, &lod.SharpEdges[i][1])
		}
	case "#Property#":
		if len(body) < 128 {
			return ErrBadTagMagic
		}
		lod.Properties = append(lod.Properties, Property{
			Name:  cstr(body[0:64]),
			Value: cstr(body[64:128]),
		})
	case "#UVSet#":
		br := bytes.NewReader(body)
		var stage uint32
		binary.Read(br, binary.LittleEndian, &stage)
		if stage != 0 {
			return ErrUnsupportedUVStage
		}
		// stage 0 duplicates the default UVs already read per-face; skip.
	case "#EndOfFile#":
		// terminator, nothing to read.
	}
	return nil
}

func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func readCString(r *bufio.Reader) (string, error) {
	s, err := r.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

func skip(r *bufio.Reader, n int) (int64, error) {
	return io.CopyN(io.Discard, r, int64(n))
}

func readU32(r io.Reader, v *uint32) error { return binary.Read(r, binary.LittleEndian, v) }
func readF32(r io.Reader, v *float32) error { return binary.Read(r, binary.LittleEndian, v) }

func readVec3(r io.Reader, v *f32.Vec3) error {
	for i := 0; i < 3; i++ {
		if err := readF32(r, &v[i]); err != nil {
			return err
		}
	}
	return nil
}

func boundingBox(points []Point) (f32.Vec3, f32.Vec3) {
	if len(points) == 0 {
		return f32.Vec3{}, f32.Vec3{}
	}
	min, max := points[0].Pos, points[0].Pos
	for _, p := range points[1:] {
		min = f32.MinVec3(min, p.Pos)
		max = f32.MaxVec3(max, p.Pos)
	}
	return min, max
}

func boundingSphere(points []Point, center f32.Vec3) float32 {
	var radius float32
	for _, p := range points {
		if d := p.Pos.Distance(center); d > radius {
			radius = d
		}
	}
	return radius
}

// sortedSelectionNames returns the names of sels in sorted order.
func sortedSelectionNames(sels []Selection) []string {
	names := make([]string, len(sels))
	for i, s := range sels {
		names[i] = s.Name
	}
	sort.Strings(names)
	return names
}
