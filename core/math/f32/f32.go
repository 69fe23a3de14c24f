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

// Package f32 is the float32 vector and matrix math used by the model
// transcoder: point/normal arithmetic, bounding volumes, and the material
// engine's 4x3 affine transform table.
package f32

import "math"

// Sqrt returns the square root of v.
func Sqrt(v float32) float32 { return float32(math.Sqrt(float64(v))) }

// Abs returns the absolute value of v.
func Abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// RoundHalfUp rounds v to the nearest integer, ties away from zero — the
// rounding rule the ODOL writer uses when packing normals into signed
// 10-bit fields.
func RoundHalfUp(v float32) int {
	if v < 0 {
		return int(math.Ceil(float64(v) - 0.5))
	}
	return int(math.Floor(float64(v) + 0.5))
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Min returns the smaller of a and b.
func Min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Vec3 is a three element vector of float32, in X, Y, Z order. It is the
// point, normal, and bounding-box corner type throughout the model package.
type Vec3 [3]float32

// Add returns the element-wise sum of v and o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }

// Sub returns the element-wise difference v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float32 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// SqrMagnitude returns the squared length of v.
func (v Vec3) SqrMagnitude() float32 { return v.Dot(v) }

// Magnitude returns the length of v.
func (v Vec3) Magnitude() float32 { return Sqrt(v.SqrMagnitude()) }

// Normalize returns v scaled to unit length. The zero vector is not
// guarded: 1/0 gives +Inf and 0*Inf gives NaN, so every component of the
// result is NaN.
func (v Vec3) Normalize() Vec3 { return v.Scale(1.0 / v.Magnitude()) }

// Distance returns the distance between v and o.
func (v Vec3) Distance(o Vec3) float32 { return v.Sub(o).Magnitude() }

// MinVec3 returns the component-wise minimum of a and b.
func MinVec3(a, b Vec3) Vec3 { return Vec3{Min(a[0], b[0]), Min(a[1], b[1]), Min(a[2], b[2])} }

// MaxVec3 returns the component-wise maximum of a and b.
func MaxVec3(a, b Vec3) Vec3 { return Vec3{Max(a[0], b[0]), Max(a[1], b[1]), Max(a[2], b[2])} }

// Mat4x3 is a 4x3 affine transform: 3 basis rows plus a translation row,
// matching the material engine's uv-transform table entries (§3 Material).
type Mat4x3 [4]Vec3

// Identity4x3 is the identity affine transform.
var Identity4x3 = Mat4x3{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
	{0, 0, 0},
}

// ApproxEqual reports whether a and b are equal to within µ-precision
// (1e-6), the comparison the material engine uses to deduplicate
// transforms (§3 Material invariants).
func (a Mat4x3) ApproxEqual(b Mat4x3) bool {
	const epsilon = 1e-6
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			if Abs(a[i][j]-b[i][j]) > epsilon {
				return false
			}
		}
	}
	return true
}
