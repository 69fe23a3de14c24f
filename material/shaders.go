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

package material

import "strings"

// ShaderRef is one named entry of the engine's fixed pixel- or vertex-shader
// table.
type ShaderRef struct {
	ID   uint32
	Name string
}

// PixelShaders is the engine's fixed 153-entry pixel shader table, in
// id order (id 0 is always "Normal", the fallback used when a requested
// name can't be resolved).
var PixelShaders = [153]ShaderRef{
	{ID: 0, Name: "Normal"},
	{ID: 1, Name: "NormalDXTA"},
	{ID: 2, Name: "NormalMap"},
	{ID: 3, Name: "NormalMapThrough"},
	{ID: 4, Name: "NormalMapGrass"},
	{ID: 5, Name: "NormalMapDiffuse"},
	{ID: 6, Name: "Detail"},
	{ID: 7, Name: "Interpolation"},
	{ID: 8, Name: "Water"},
	{ID: 9, Name: "WaterSimple"},
	{ID: 10, Name: "White"},
	{ID: 11, Name: "WhiteAlpha"},
	{ID: 12, Name: "AlphaShadow"},
	{ID: 13, Name: "AlphaNoShadow"},
	{ID: 14, Name: "Dummy0"},
	{ID: 15, Name: "DetailMacroAS"},
	{ID: 16, Name: "NormalMapMacroAS"},
	{ID: 17, Name: "NormalMapDiffuseMacroAS"},
	{ID: 18, Name: "NormalMapSpecularMap"},
	{ID: 19, Name: "NormalMapDetailSpecularMap"},
	{ID: 20, Name: "NormalMapMacroASSpecularMap"},
	{ID: 21, Name: "NormalMapDetailMacroASSpecularMap"},
	{ID: 22, Name: "NormalMapSpecularDIMap"},
	{ID: 23, Name: "NormalMapDetailSpecularDIMap"},
	{ID: 24, Name: "NormalMapMacroASSpecularDIMap"},
	{ID: 25, Name: "NormalMapDetailMacroASSpecularDIMap"},
	{ID: 26, Name: "Terrain1"},
	{ID: 27, Name: "Terrain2"},
	{ID: 28, Name: "Terrain3"},
	{ID: 29, Name: "Terrain4"},
	{ID: 30, Name: "Terrain5"},
	{ID: 31, Name: "Terrain6"},
	{ID: 32, Name: "Terrain7"},
	{ID: 33, Name: "Terrain8"},
	{ID: 34, Name: "Terrain9"},
	{ID: 35, Name: "Terrain10"},
	{ID: 36, Name: "Terrain11"},
	{ID: 37, Name: "Terrain12"},
	{ID: 38, Name: "Terrain13"},
	{ID: 39, Name: "Terrain14"},
	{ID: 40, Name: "Terrain15"},
	{ID: 41, Name: "TerrainSimple1"},
	{ID: 42, Name: "TerrainSimple2"},
	{ID: 43, Name: "TerrainSimple3"},
	{ID: 44, Name: "TerrainSimple4"},
	{ID: 45, Name: "TerrainSimple5"},
	{ID: 46, Name: "TerrainSimple6"},
	{ID: 47, Name: "TerrainSimple7"},
	{ID: 48, Name: "TerrainSimple8"},
	{ID: 49, Name: "TerrainSimple9"},
	{ID: 50, Name: "TerrainSimple10"},
	{ID: 51, Name: "TerrainSimple11"},
	{ID: 52, Name: "TerrainSimple12"},
	{ID: 53, Name: "TerrainSimple13"},
	{ID: 54, Name: "TerrainSimple14"},
	{ID: 55, Name: "TerrainSimple15"},
	{ID: 56, Name: "Glass"},
	{ID: 57, Name: "NonTL"},
	{ID: 58, Name: "NormalMapSpecularThrough"},
	{ID: 59, Name: "Grass"},
	{ID: 60, Name: "NormalMapThroughSimple"},
	{ID: 61, Name: "NormalMapSpecularThroughSimple"},
	{ID: 62, Name: "Road"},
	{ID: 63, Name: "Shore"},
	{ID: 64, Name: "ShoreWet"},
	{ID: 65, Name: "Road2Pass"},
	{ID: 66, Name: "ShoreFoam"},
	{ID: 67, Name: "NonTLFlare"},
	{ID: 68, Name: "NormalMapThroughLowEnd"},
	{ID: 69, Name: "TerrainGrass1"},
	{ID: 70, Name: "TerrainGrass2"},
	{ID: 71, Name: "TerrainGrass3"},
	{ID: 72, Name: "TerrainGrass4"},
	{ID: 73, Name: "TerrainGrass5"},
	{ID: 74, Name: "TerrainGrass6"},
	{ID: 75, Name: "TerrainGrass7"},
	{ID: 76, Name: "TerrainGrass8"},
	{ID: 77, Name: "TerrainGrass9"},
	{ID: 78, Name: "TerrainGrass10"},
	{ID: 79, Name: "TerrainGrass11"},
	{ID: 80, Name: "TerrainGrass12"},
	{ID: 81, Name: "TerrainGrass13"},
	{ID: 82, Name: "TerrainGrass14"},
	{ID: 83, Name: "TerrainGrass15"},
	{ID: 84, Name: "Crater1"},
	{ID: 85, Name: "Crater2"},
	{ID: 86, Name: "Crater3"},
	{ID: 87, Name: "Crater4"},
	{ID: 88, Name: "Crater5"},
	{ID: 89, Name: "Crater6"},
	{ID: 90, Name: "Crater7"},
	{ID: 91, Name: "Crater8"},
	{ID: 92, Name: "Crater9"},
	{ID: 93, Name: "Crater10"},
	{ID: 94, Name: "Crater11"},
	{ID: 95, Name: "Crater12"},
	{ID: 96, Name: "Crater13"},
	{ID: 97, Name: "Crater14"},
	{ID: 98, Name: "Sprite"},
	{ID: 99, Name: "SpriteSimple"},
	{ID: 100, Name: "Cloud"},
	{ID: 101, Name: "Horizon"},
	{ID: 102, Name: "Super"},
	{ID: 103, Name: "Multi"},
	{ID: 104, Name: "TerrainX"},
	{ID: 105, Name: "TerrainSimpleX"},
	{ID: 106, Name: "TerrainGrassX"},
	{ID: 107, Name: "Tree"},
	{ID: 108, Name: "TreePRT"},
	{ID: 109, Name: "TreeSimple"},
	{ID: 110, Name: "Skin"},
	{ID: 111, Name: "CalmWater"},
	{ID: 112, Name: "TreeAToC"},
	{ID: 113, Name: "GrassAToC"},
	{ID: 114, Name: "TreeAdv"},
	{ID: 115, Name: "TreeAdvSimple"},
	{ID: 116, Name: "TreeAdvTrunk"},
	{ID: 117, Name: "TreeAdvTrunkSimple"},
	{ID: 118, Name: "TreeAdvAToC"},
	{ID: 119, Name: "TreeAdvSimpleAToC"},
	{ID: 120, Name: "TreeSN"},
	{ID: 121, Name: "SpriteExtTi"},
	{ID: 122, Name: "TerrainSNX"},
	{ID: 123, Name: "InterpolationAlpha"},
	{ID: 124, Name: "VolCloud"},
	{ID: 125, Name: "VolCloudSimple"},
	{ID: 126, Name: "UnderwaterOcclusion"},
	{ID: 127, Name: "SimulWeatherClouds"},
	{ID: 128, Name: "SimulWeatherCloudsWithLightning"},
	{ID: 129, Name: "SimulWeatherCloudsCPU"},
	{ID: 130, Name: "SimulWeatherCloudsWithLightningCPU"},
	{ID: 131, Name: "SuperExt"},
	{ID: 132, Name: "SuperHair"},
	{ID: 133, Name: "SuperHairAtoC"},
	{ID: 134, Name: "Caustics"},
	{ID: 135, Name: "Refract"},
	{ID: 136, Name: "SpriteRefract"},
	{ID: 137, Name: "SpriteRefractSimple"},
	{ID: 138, Name: "SuperAToC"},
	{ID: 139, Name: "NonTLFlareNew"},
	{ID: 140, Name: "NonTLFlareLight"},
	{ID: 141, Name: "TerrainNoDetailX"},
	{ID: 142, Name: "TerrainNoDetailSNX"},
	{ID: 143, Name: "TerrainSimpleSNX"},
	{ID: 144, Name: "NormalPiP"},
	{ID: 145, Name: "NonTLFlareNewNoOcclusion"},
	{ID: 146, Name: "Empty"},
	{ID: 147, Name: "Point"},
	{ID: 148, Name: "TreeAdvTrans"},
	{ID: 149, Name: "TreeAdvTransAToC"},
	{ID: 150, Name: "Collimator"},
	{ID: 151, Name: "LODDiag"},
	{ID: 152, Name: "DepthOnly"},}

// VertexShaders is the engine's fixed 45-entry vertex shader table, in id
// order (id 0 is always "Basic").
var VertexShaders = [45]ShaderRef{
	{ID: 0, Name: "Basic"},
	{ID: 1, Name: "NormalMap"},
	{ID: 2, Name: "NormalMapDiffuse"},
	{ID: 3, Name: "Grass"},
	{ID: 4, Name: "Dummy2"},
	{ID: 5, Name: "Dummy3"},
	{ID: 6, Name: "ShadowVolume"},
	{ID: 7, Name: "Water"},
	{ID: 8, Name: "WaterSimple"},
	{ID: 9, Name: "Sprite"},
	{ID: 10, Name: "Point"},
	{ID: 11, Name: "NormalMapThrough"},
	{ID: 12, Name: "Dummy3"},
	{ID: 13, Name: "Terrain"},
	{ID: 14, Name: "BasicAS"},
	{ID: 15, Name: "NormalMapAS"},
	{ID: 16, Name: "NormalMapDiffuseAS"},
	{ID: 17, Name: "Glass"},
	{ID: 18, Name: "NormalMapSpecularThrough"},
	{ID: 19, Name: "NormalMapThroughNoFade"},
	{ID: 20, Name: "NormalMapSpecularThroughNoFade"},
	{ID: 21, Name: "Shore"},
	{ID: 22, Name: "TerrainGrass"},
	{ID: 23, Name: "Super"},
	{ID: 24, Name: "Multi"},
	{ID: 25, Name: "Tree"},
	{ID: 26, Name: "TreeNoFade"},
	{ID: 27, Name: "TreePRT"},
	{ID: 28, Name: "TreePRTNoFade"},
	{ID: 29, Name: "Skin"},
	{ID: 30, Name: "CalmWater"},
	{ID: 31, Name: "TreeAdv"},
	{ID: 32, Name: "TreeAdvTrunk"},
	{ID: 33, Name: "VolCloud"},
	{ID: 34, Name: "Road"},
	{ID: 35, Name: "UnderwaterOcclusion"},
	{ID: 36, Name: "SimulWeatherClouds"},
	{ID: 37, Name: "SimulWeatherCloudsCPU"},
	{ID: 38, Name: "SpriteOnSurface"},
	{ID: 39, Name: "TreeAdvModNormals"},
	{ID: 40, Name: "Refract"},
	{ID: 41, Name: "SimulWeatherCloudsGS"},
	{ID: 42, Name: "BasicFade"},
	{ID: 43, Name: "Star"},
	{ID: 44, Name: "TreeAdvNoFade"},}

// PixelShaderID resolves a pixel shader name to its id, case-insensitively,
// defaulting to id 0 ("Normal") when unresolved.
func PixelShaderID(name string) (uint32, bool) {
	for _, s := range PixelShaders {
		if strings.EqualFold(s.Name, name) {
			return s.ID, true
		}
	}
	return PixelShaders[0].ID, false
}

// VertexShaderID resolves a vertex shader name to its id, case-insensitively,
// defaulting to id 0 ("Basic") when unresolved.
func VertexShaderID(name string) (uint32, bool) {
	for _, s := range VertexShaders {
		if strings.EqualFold(s.Name, name) {
			return s.ID, true
		}
	}
	return VertexShaders[0].ID, false
}
