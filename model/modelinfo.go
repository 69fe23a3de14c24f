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
	"math"
	"strconv"

	"github.com/koffeinflummi/pbokit/core/math/f32"
)

// ModelInfo is the model-wide record synthesized from the geometry LOD's
// properties plus global bounding/mass data, per §4.2.3.
type ModelInfo struct {
	AutoCenter         bool
	MapType            string
	ViewDensityCoef    float32
	LODNoShadow        bool
	CanOcclude         bool
	CanBeOccluded      bool
	Armor              float32
	ClassType          string
	Damage             string
	Frequent           bool
	Buoyancy           bool
	SBSource           string
	PreferShadowVolume bool
	ShadowOffset       float32
	AICovers           bool
	ForceNotAlpha      bool
	Animated           bool

	ViewDensity float32

	BBoxMin, BBoxMax               f32.Vec3
	BBoxVisualMin, BBoxVisualMax   f32.Vec3
	BoundingCenter                 f32.Vec3

	Mass          float32
	CenterOfMass  f32.Vec3
	InvInertia    Mat3

	ShadowLOD           []int
	ShadowVolumeLOD     []int
	ShadowBufferLOD     []int
	ShadowBufferLODVis  []int
}

// Mat3 is a 3x3 matrix, used only for the inverse-inertia tensor.
type Mat3 [3][3]float32

// Identity3 is the 3x3 identity matrix.
var Identity3 = Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

const iconAlpha = 1.0

// SynthesizeModelInfo gathers the model-info record of §4.2.3 from f's
// geometry LOD (or LOD 0 if none was classified) and the full LOD set's
// bounds.
func SynthesizeModelInfo(f *File, idx SpecialLODIndices) ModelInfo {
	geo := GeometryLOD(f, idx)
	info := ModelInfo{
		CanOcclude:    true,
		CanBeOccluded: true,
		AutoCenter:    true,
		SBSource:      "visual",
	}
	if geo == nil {
		return info
	}

	info.AutoCenter = propBool(geo, "autocenter", true)
	info.MapType = propString(geo, "map", "")
	coef := propFloat(geo, "viewdensitycoef", 1.0)
	info.ViewDensityCoef = coef
	info.LODNoShadow = propBool(geo, "lodnoshadow", false)
	info.CanOcclude = propBool(geo, "canocclude", true)
	info.CanBeOccluded = propBool(geo, "canbeoccluded", true)
	info.Armor = propFloat(geo, "armor", 0)
	info.ClassType = propString(geo, "class", "")
	info.Damage = propDamage(geo)
	info.Frequent = propBool(geo, "frequent", false)
	info.Buoyancy = propBool(geo, "buoyancy", false)
	if v, ok := lodProperty(geo, "sbsource"); ok {
		info.SBSource = v
	}
	info.PreferShadowVolume = propBool(geo, "prefershadowvolume", false)
	info.ShadowOffset = propFloat(geo, "shadowoffset", 0)
	info.AICovers = propBool(geo, "aicovers", false)
	info.ForceNotAlpha = propBool(geo, "forcenotalpha", false)
	info.Animated = propBool(geo, "animated", false)

	info.ViewDensity = computeViewDensity(iconAlpha, coef)

	info.BBoxVisualMin, info.BBoxVisualMax = visualBounds(f, idx)
	info.BBoxMin, info.BBoxMax = totalBounds(f)
	info.BoundingCenter = info.BBoxMin.Add(info.BBoxMax).Scale(0.5)

	info.Mass, info.CenterOfMass, info.InvInertia = computeMassProperties(f, idx)

	for i := range f.LODs {
		lod := &f.LODs[i]
		if v, ok := lodProperty(lod, "shadowlod"); ok {
			info.ShadowLOD = append(info.ShadowLOD, atoiDefault(v, i))
		}
		if v, ok := lodProperty(lod, "shadowvolumelod"); ok {
			info.ShadowVolumeLOD = append(info.ShadowVolumeLOD, atoiDefault(v, i))
		}
		if v, ok := lodProperty(lod, "shadowbufferlod"); ok {
			info.ShadowBufferLOD = append(info.ShadowBufferLOD, atoiDefault(v, i))
		}
		if v, ok := lodProperty(lod, "shadowbufferlodvis"); ok {
			info.ShadowBufferLODVis = append(info.ShadowBufferLODVis, atoiDefault(v, i))
		}
	}

	return info
}

// propDamage reads the "damage" property, falling back to the
// "dammage" misspelling when "damage" is absent. No diagnostic is
// reported for the misspelling: no diag.Sink reaches this pass, and the
// CLI does not check for it either.
func propDamage(lod *LOD) string {
	if v, ok := lodProperty(lod, "damage"); ok {
		return v
	}
	if v, ok := lodProperty(lod, "dammage"); ok {
		return v
	}
	return ""
}

func propString(lod *LOD, name, def string) string {
	if v, ok := lodProperty(lod, name); ok {
		return v
	}
	return def
}

func propBool(lod *LOD, name string, def bool) bool {
	v, ok := lodProperty(lod, name)
	if !ok {
		return def
	}
	return v == "1" || v == "true"
}

func propFloat(lod *LOD, name string, def float32) float32 {
	v, ok := lodProperty(lod, name)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return def
	}
	return float32(f)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// computeViewDensity implements §4.2.3's ln(1 - iconAlpha*1.5)*4*coef
// formula with its two boundary clamps.
func computeViewDensity(iconAlpha, coef float32) float32 {
	if iconAlpha >= 0.99 {
		return 0
	}
	if iconAlpha <= 0.01 {
		return -100
	}
	return float32(math.Log(float64(1-iconAlpha*1.5))) * 4 * coef
}

func visualBounds(f *File, idx SpecialLODIndices) (f32.Vec3, f32.Vec3) {
	first := true
	var min, max f32.Vec3
	for _, lod := range f.LODs {
		if lod.Resolution >= resGeometry {
			continue
		}
		if first {
			min, max = lod.MinPos, lod.MaxPos
			first = false
			continue
		}
		min = f32.MinVec3(min, lod.MinPos)
		max = f32.MaxVec3(max, lod.MaxPos)
	}
	return min, max
}

func totalBounds(f *File) (f32.Vec3, f32.Vec3) {
	first := true
	var min, max f32.Vec3
	for _, lod := range f.LODs {
		if first {
			min, max = lod.MinPos, lod.MaxPos
			first = false
			continue
		}
		min = f32.MinVec3(min, lod.MinPos)
		max = f32.MaxVec3(max, lod.MaxPos)
	}
	return min, max
}

// computeMassProperties derives mass, center of mass, and inverse inertia
// from the geometry (or physx, as fallback) LOD's mass array, per
// §4.2.3. Absent mass data yields mass=0, identity inverse inertia, and
// the origin as center of mass.
func computeMassProperties(f *File, idx SpecialLODIndices) (float32, f32.Vec3, Mat3) {
	var lod *LOD
	if idx.Geometry >= 0 && len(f.LODs[idx.Geometry].Mass) > 0 {
		lod = &f.LODs[idx.Geometry]
	} else if idx.GeometryPhysX >= 0 && len(f.LODs[idx.GeometryPhysX].Mass) > 0 {
		lod = &f.LODs[idx.GeometryPhysX]
	}
	if lod == nil {
		return 0, f32.Vec3{}, Identity3
	}

	var totalMass float64
	var com f32.Vec3
	for i, m := range lod.Mass {
		totalMass += float64(m)
		com = com.Add(lod.Points[i].Pos.Scale(m))
	}
	if totalMass == 0 {
		return 0, f32.Vec3{}, Identity3
	}
	com = com.Scale(float32(1 / totalMass))

	var inertia [3][3]float64
	for i, m := range lod.Mass {
		r := lod.Points[i].Pos.Sub(com)
		skew := [3][3]float64{
			{0, -float64(r[2]), float64(r[1])},
			{float64(r[2]), 0, -float64(r[0])},
			{-float64(r[1]), float64(r[0]), 0},
		}
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				var sum float64
				for k := 0; k < 3; k++ {
					sum += skew[a][k] * skew[k][b]
				}
				inertia[a][b] += float64(m) * sum
			}
		}
	}

	var inv Mat3
	for i := 0; i < 3; i++ {
		if inertia[i][i] != 0 {
			inv[i][i] = float32(1 / inertia[i][i])
		}
	}
	return float32(totalMass), com, inv
}
