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

// Package material resolves a .rvmat config (parsed by package config) into
// the binary material record the ODOL writer embeds per LOD: colors,
// shader selection, render flags, and the stage/transform tables. Grounded
// on armake's Material::read/writeTo (material.cpp).
package material

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/koffeinflummi/pbokit/config"
	"github.com/koffeinflummi/pbokit/core/diag"
	"github.com/koffeinflummi/pbokit/core/log"
	"github.com/koffeinflummi/pbokit/core/math/f32"
)

// version is MATERIALTYPE: the material record's on-disk version tag.
const version uint32 = 11

// maxStages bounds the Stage1..StageN config search.
const maxStages = 16

// Color is an RGBA color quadruple.
type Color [4]float32

// TextureFilter selects a stage's minification/magnification filter.
type TextureFilter uint32

const (
	FilterPoint TextureFilter = iota
	FilterLinear
	FilterTrilinear
	FilterAnizotropic
	FilterAnizotropic2
	FilterAnizotropic4
	FilterAnizotropic8
	FilterAnizotropic16
)

var textureFilterNames = []string{
	"Point", "Linear", "Trilinear", "Anizotropic",
	"Anizotropic2", "Anizotropic4", "Anizotropic8", "Anizotropic16",
}

// UVSource selects how a stage's UV transform derives its input coordinate.
// The numeric enum has 9 values; uvSourceNames below deliberately has only
// 8 entries (position 4, "Norm", has no name), matching the engine source's
// own table gap — see the config read path, which warns rather than
// silently mis-numbering.
type UVSource uint32

const (
	UVNone UVSource = iota
	UVTex
	UVTexWaterAnim
	UVPos
	UVNorm
	UVTex1
	UVWorldPos
	UVWorldNorm
	UVTexShoreAnim
)

// uvSourceNames pairs each config-recognized name with its enum value
// directly, the way the engine source's own uvSourceToName table does, so
// the gap at UVNorm (position 4, which has no config spelling) doesn't
// shift every later name's numeric value.
var uvSourceNames = []struct {
	Source UVSource
	Name   string
}{
	{UVNone, "None"},
	{UVTex, "Tex"},
	{UVTexWaterAnim, "TexWaterAnim"},
	{UVPos, "Pos"},
	{UVTex1, "Tex1"},
	{UVWorldPos, "WorldPos"},
	{UVWorldNorm, "WorldNorm"},
	{UVTexShoreAnim, "TexShoreAnim"},
}

func uvSourceByName(name string) (UVSource, bool) {
	for _, p := range uvSourceNames {
		if strings.EqualFold(p.Name, name) {
			return p.Source, true
		}
	}
	return 0, false
}

// FogMode selects the stage's fog interaction.
type FogMode uint32

const (
	FogNone FogMode = iota
	FogFog
	FogAlpha
	FogFogAlpha
	FogSky
)

var fogModeNames = []string{"None", "Fog", "Alpha", "FogAlpha", "FogSky"}

// LightMode selects the main-light interaction.
type LightMode uint32

const (
	LightNone LightMode = iota
	LightSun
	LightSky
	LightHorizon
	LightStars
	LightSunObject
	LightSunHaloObject
	LightMoonObject
	LightMoonHaloObject
)

var lightModeNames = []string{
	"None", "Sun", "Sky", "Horizon", "Stars",
	"SunObject", "SunHaloObject", "MoonObject", "MoonHaloObject",
}

// RenderFlag is one bit of the 13 defined render flags.
type RenderFlag uint

const (
	FlagAlwaysInShadow RenderFlag = iota
	FlagNoZWrite
	FlagLandShadow
	FlagDummy0
	FlagNoColorWrite
	FlagNoAlphaWrite
	FlagAddBlend
	FlagAlphaTest32
	FlagAlphaTest64
	FlagAlphaTest128
	FlagRoad
	FlagNoTiWrite
	FlagNoReceiveShadow
)

var renderFlagNames = []string{
	"AlwaysInShadow", "NoZWrite", "LandShadow", "Dummy0", "NoColorWrite",
	"NoAlphaWrite", "AddBlend", "AlphaTest32", "AlphaTest64", "AlphaTest128",
	"Road", "NoTiWrite", "NoReceiveShadow",
}

// Transform is one entry of the shared uv-transform table: a UV source and
// a 4x3 affine matrix (aside/up/dir/pos rows).
type Transform struct {
	Source    UVSource
	Transform f32.Mat4x3
}

// Equal reports whether t and o are the same transform to within the
// engine's µ-precision deduplication tolerance.
func (t Transform) Equal(o Transform) bool {
	return t.Source == o.Source && t.Transform.ApproxEqual(o.Transform)
}

// Stage is one texture slot: its filter, texture path, index into the
// shared Transforms table, and whether it samples a world environment map.
type Stage struct {
	Filter          TextureFilter
	Texture         string
	TransformIndex  uint32
	UseWorldEnvMap  bool
}

// Material is the resolved, binary-ready form of one .rvmat file.
type Material struct {
	Path string

	Emissive       Color
	Ambient        Color
	Diffuse        Color
	ForcedDiffuse  Color
	Specular       Color
	SpecularPower  float32

	PixelShaderID  uint32
	VertexShaderID uint32
	MainLight      LightMode
	FogMode        FogMode

	Surface string

	RenderFlags uint32 // bitset, bit i set iff RenderFlag(i) is active

	Stages     []Stage
	Transforms []Transform
	Dummy      Stage // the TI ("thermal imaging") stage, stage "Ti"
}

// Resolve builds a Material from a parsed .rvmat AST, matching
// Material::read's defaults, stage loop, and transform table construction.
func Resolve(ctx log.Context, path string, ast *config.AST, sink *diag.Sink) (*Material, error) {
	defaultColor := Color{0, 0, 0, 1}
	m := &Material{
		Path:          path,
		Emissive:      defaultColor,
		Ambient:       defaultColor,
		Diffuse:       defaultColor,
		ForcedDiffuse: defaultColor,
		Specular:      defaultColor,
		SpecularPower: 1.0,
		MainLight:     LightSun,
		FogMode:       FogFog,
	}

	readColor(ast, "emmisive", &m.Emissive)
	readColor(ast, "ambient", &m.Ambient)
	readColor(ast, "diffuse", &m.Diffuse)
	readColor(ast, "forcedDiffuse", &m.ForcedDiffuse)
	readColor(ast, "specular", &m.Specular)

	if v, found := ast.Lookup("specularPower"); found == config.FoundValue {
		m.SpecularPower = asFloat(v)
	}

	if v, found := ast.Lookup("renderFlags"); found == config.FoundValue && v.Kind == config.ExprArray {
		for _, e := range v.Elements {
			idx := indexOfFold(renderFlagNames, e.Str)
			if idx < 0 {
				sink.WarnAt(ctx, diag.KindUnknownRenderFlag, path, 0, "unrecognized render flag %q", e.Str)
				continue
			}
			m.RenderFlags |= 1 << uint(idx)
		}
	}

	if v, found := ast.Lookup("surfaceInfo"); found == config.FoundValue {
		m.Surface = v.Str
	}

	if v, found := ast.Lookup("mainLight"); found == config.FoundValue {
		if idx := indexOfFold(lightModeNames, v.Str); idx >= 0 {
			m.MainLight = LightMode(idx)
		} else {
			sink.WarnAt(ctx, diag.KindUnknownRenderFlag, path, 0, "unrecognized light mode %q", v.Str)
		}
	}
	if v, found := ast.Lookup("fogMode"); found == config.FoundValue {
		if idx := indexOfFold(fogModeNames, v.Str); idx >= 0 {
			m.FogMode = FogMode(idx)
		} else {
			sink.WarnAt(ctx, diag.KindUnknownRenderFlag, path, 0, "unrecognized fog mode %q", v.Str)
		}
	}

	if v, found := ast.Lookup("PixelShaderID"); found == config.FoundValue {
		id, ok := PixelShaderID(v.Str)
		if !ok {
			sink.WarnAt(ctx, diag.KindUnknownShader, path, 0, "unrecognized pixel shader %q, assuming Normal", v.Str)
		}
		m.PixelShaderID = id
	}
	if v, found := ast.Lookup("VertexShaderID"); found == config.FoundValue {
		id, ok := VertexShaderID(v.Str)
		if !ok {
			sink.WarnAt(ctx, diag.KindUnknownShader, path, 0, "unrecognized vertex shader %q, assuming Basic", v.Str)
		}
		m.VertexShaderID = id
	}

	// stage 0 is a synthetic entry (no texture, uses transform slot 0).
	m.Stages = []Stage{{TransformIndex: 0}}
	m.Transforms = []Transform{{Source: UVTex, Transform: f32.Identity4x3}}

	for i := 1; i < maxStages; i++ {
		stagePath := fmt.Sprintf("Stage%d >> texture", i)
		texVal, found := ast.Lookup(stagePath)
		if found != config.FoundValue {
			break
		}
		stage, transform, err := resolveStage(ctx, path, ast, sink, i, texVal.Str)
		if err != nil {
			return nil, err
		}
		stage.TransformIndex = dedupTransform(m, transform)
		m.Stages = append(m.Stages, stage)
	}

	if len(m.Transforms) > 8 {
		return nil, fmt.Errorf("material: too many texGens: %d out of maximum 8", len(m.Transforms))
	}

	if v, found := ast.Lookup("StageTi >> texture"); found == config.FoundValue {
		m.Dummy.Texture = v.Str
	}

	return m, nil
}

func resolveStage(ctx log.Context, path string, ast *config.AST, sink *diag.Sink, i int, texture string) (Stage, Transform, error) {
	stage := Stage{Texture: texture}
	stagePrefix := fmt.Sprintf("Stage%d", i)

	if v, found := ast.Lookup(stagePrefix + " >> Filter"); found == config.FoundValue {
		if idx := indexOfFold(textureFilterNames, v.Str); idx >= 0 {
			stage.Filter = TextureFilter(idx)
		} else {
			sink.WarnAt(ctx, diag.KindUnknownTextureFilter, path, 0, "unrecognized texture filter %q in Stage%d", v.Str, i)
		}
	} else {
		stage.Filter = FilterAnizotropic
	}

	transformPath := stagePrefix
	if v, found := ast.Lookup(stagePrefix + " >> TexGen"); found == config.FoundValue {
		texGen := int(asFloat(v))
		if v.Kind == config.ExprString {
			n, _ := strconv.Atoi(v.Str)
			texGen = n
		}
		if texGen > 8 {
			return Stage{}, Transform{}, fmt.Errorf("material: texGen too large in Stage%d: %d", i, texGen)
		}
		transformPath = fmt.Sprintf("TexGen%d", texGen)
	}

	transform := Transform{Source: UVTex, Transform: f32.Identity4x3}
	if v, found := ast.Lookup(transformPath + " >> uvSource"); found == config.FoundValue {
		if v.Kind == config.ExprString {
			if src, ok := uvSourceByName(v.Str); ok {
				transform.Source = src
			} else {
				sink.WarnAt(ctx, diag.KindUnknownUVSource, path, 0, "invalid uvSource in Stage%d", i)
			}
		} else {
			transform.Source = UVSource(asFloat(v))
		}
	}

	readVec3(ast, transformPath+" >> uvTransform >> aside", &transform.Transform[0])
	readVec3(ast, transformPath+" >> uvTransform >> up", &transform.Transform[1])
	readVec3(ast, transformPath+" >> uvTransform >> dir", &transform.Transform[2])
	readVec3(ast, transformPath+" >> uvTransform >> pos", &transform.Transform[3])

	return stage, transform, nil
}

// dedupTransform appends t to m.Transforms unless an equal transform
// already exists, per the ≈µ-precision deduplication invariant, returning
// the index to use as the stage's transform_index.
func dedupTransform(m *Material, t Transform) uint32 {
	for i, existing := range m.Transforms {
		if existing.Equal(t) {
			return uint32(i)
		}
	}
	m.Transforms = append(m.Transforms, t)
	return uint32(len(m.Transforms) - 1)
}

func readColor(ast *config.AST, name string, into *Color) {
	v, found := ast.Lookup(name)
	if found != config.FoundValue || v.Kind != config.ExprArray {
		return
	}
	for i := 0; i < len(v.Elements) && i < 4; i++ {
		into[i] = asFloat(v.Elements[i])
	}
}

func readVec3(ast *config.AST, path string, into *f32.Vec3) {
	v, found := ast.Lookup(path)
	if found != config.FoundValue || v.Kind != config.ExprArray {
		return
	}
	for i := 0; i < len(v.Elements) && i < 3; i++ {
		into[i] = asFloat(v.Elements[i])
	}
}

func asFloat(v config.Expr) float32 {
	switch v.Kind {
	case config.ExprFloat:
		return v.Float
	case config.ExprInt:
		return float32(v.Int)
	default:
		return 0
	}
}

func indexOfFold(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

// WriteTo encodes m in the on-disk material record layout, grounded on
// Material::writeTo. Clips to at most 8 transforms, matching the source's
// own defensive clamp for an over-sized transform table.
func (m *Material) WriteTo() []byte {
	var buf bytes.Buffer
	writeCString(&buf, m.Path)
	writeU32(&buf, version)
	writeColor(&buf, m.Emissive)
	writeColor(&buf, m.Ambient)
	writeColor(&buf, m.Diffuse)
	writeColor(&buf, m.ForcedDiffuse)
	writeColor(&buf, m.Specular)
	writeColor(&buf, m.Specular) // written twice; matches the engine's own quirk
	writeF32(&buf, m.SpecularPower)
	writeU32(&buf, m.PixelShaderID)
	writeU32(&buf, m.VertexShaderID)
	writeU32(&buf, uint32(m.MainLight))
	writeU32(&buf, uint32(m.FogMode))
	writeCString(&buf, m.Surface)

	if m.RenderFlags == 0 {
		writeU32(&buf, 0)
	} else {
		writeU32(&buf, 1)
		writeU32(&buf, m.RenderFlags)
	}

	transforms := m.Transforms
	stages := m.Stages
	if len(transforms) > 8 {
		transforms = append([]Transform(nil), transforms[:8]...)
		stages = append([]Stage(nil), stages...)
		for i := range stages {
			if stages[i].TransformIndex > 7 {
				stages[i].TransformIndex = 7
			}
		}
	}

	writeU32(&buf, uint32(len(stages)))
	writeU32(&buf, uint32(len(transforms)))

	for _, s := range stages {
		writeU32(&buf, uint32(s.Filter))
		writeCString(&buf, s.Texture)
		writeU32(&buf, s.TransformIndex)
		writeBool(&buf, s.UseWorldEnvMap)
	}
	for _, t := range transforms {
		writeU32(&buf, uint32(t.Source))
		for _, row := range t.Transform {
			writeF32(&buf, row[0])
			writeF32(&buf, row[1])
			writeF32(&buf, row[2])
		}
	}

	writeU32(&buf, uint32(m.Dummy.Filter))
	writeCString(&buf, m.Dummy.Texture)
	writeU32(&buf, m.Dummy.TransformIndex)
	writeBool(&buf, m.Dummy.UseWorldEnvMap)

	return buf.Bytes()
}

func writeCString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeF32(buf *bytes.Buffer, v float32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	buf.Write(b[:])
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeColor(buf *bytes.Buffer, c Color) {
	for _, v := range c {
		writeF32(buf, v)
	}
}
