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

	"golang.org/x/sync/errgroup"

	"github.com/koffeinflummi/pbokit/core/math/f32"
	"github.com/koffeinflummi/pbokit/core/math/sint"
)

// Buoyancy is the generated buoyancy record for a model, per §4.2.6.
type Buoyancy struct {
	Volume float32
	// Cells holds the sphere-mode grid samples; empty in iteration mode.
	Cells []BuoyancyCell
}

// BuoyancyCell is one interior grid sample in sphere mode.
type BuoyancyCell struct {
	Center f32.Vec3
	Radius float32
	Area   float32
}

const (
	defaultMinSegments = 4
	defaultMaxSegments = 16
	subGridSamples     = 10
)

// BuildBuoyancy generates buoyancy data from the model's geometry-simple
// LOD (preferred), falling back to geometry or geometry-physx, per
// §4.2.6. It returns nil if none of those LODs is present.
func BuildBuoyancy(f *File, idx SpecialLODIndices, minSegments, maxSegments int) (*Buoyancy, error) {
	var lod *LOD
	switch {
	case idx.GeometrySimple >= 0:
		lod = &f.LODs[idx.GeometrySimple]
		return buildIterationBuoyancy(lod), nil
	case idx.Geometry >= 0:
		lod = &f.LODs[idx.Geometry]
	case idx.GeometryPhysX >= 0:
		lod = &f.LODs[idx.GeometryPhysX]
	default:
		return nil, nil
	}
	return buildSphereBuoyancy(lod, minSegments, maxSegments)
}

// buildIterationBuoyancy sums signed tetrahedron volumes over every
// geometry face, fanning quads into two triangles, per the "iteration
// mode" of §4.2.6.
func buildIterationBuoyancy(lod *LOD) *Buoyancy {
	var volume float32
	tet := func(a, b, c f32.Vec3) float32 {
		return a.Dot(b.Cross(c)) / 6.0
	}
	for _, face := range lod.Faces {
		a := lod.Points[face.PointIndex[0]].Pos
		b := lod.Points[face.PointIndex[1]].Pos
		c := lod.Points[face.PointIndex[2]].Pos
		volume += tet(a, b, c)
		if face.NumCorners == 4 {
			d := lod.Points[face.PointIndex[3]].Pos
			volume += tet(a, c, d)
		}
	}
	if volume < 0 {
		volume = -volume
	}
	return &Buoyancy{Volume: volume}
}

// buildSphereBuoyancy samples the bounding box on an X*Y*Z grid, testing
// each cell for interior-ness by firing a sub-grid of rays along each
// primary axis and checking crossing parity against the LOD's faces, per
// the "sphere mode" of §4.2.6. Per-axis ray casting is independent and
// runs concurrently, each axis marking its own grid; a cell is interior
// when any axis marks it.
func buildSphereBuoyancy(lod *LOD, minSegments, maxSegments int) (*Buoyancy, error) {
	if minSegments <= 0 {
		minSegments = defaultMinSegments
	}
	if maxSegments <= 0 {
		maxSegments = defaultMaxSegments
	}

	size := lod.MaxPos.Sub(lod.MinPos)
	maxDim := size[0]
	if size[1] > maxDim {
		maxDim = size[1]
	}
	if size[2] > maxDim {
		maxDim = size[2]
	}
	if maxDim <= 0 {
		return &Buoyancy{}, nil
	}

	segs := func(axisLen float32) int {
		n := int(float32(maxSegments) / maxDim * axisLen)
		return sint.Clamp(n, minSegments, maxSegments)
	}
	nx, ny, nz := segs(size[0]), segs(size[1]), segs(size[2])

	interior := make([]bool, nx*ny*nz)
	idxOf := func(x, y, z int) int { return (z*ny+y)*nx + x }

	var perAxis [3][]bool
	var g errgroup.Group
	axes := [3]int{0, 1, 2}
	for _, axis := range axes {
		axis := axis
		perAxis[axis] = make([]bool, len(interior))
		g.Go(func() error {
			return rayTestAxis(lod, axis, nx, ny, nz, size, lod.MinPos, perAxis[axis], idxOf, subGridSamples)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range interior {
		interior[i] = perAxis[0][i] || perAxis[1][i] || perAxis[2][i]
	}

	cellSize := f32.Vec3{size[0] / float32(nx), size[1] / float32(ny), size[2] / float32(nz)}
	cellVolume := cellSize[0] * cellSize[1] * cellSize[2]
	pointArea := cellSize[0] * cellSize[1] // approx cross-section area of one cell face

	var buoy Buoyancy
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				if !interior[idxOf(x, y, z)] {
					continue
				}
				borders := 0
				for _, d := range [][3]int{{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}} {
					nx2, ny2, nz2 := x+d[0], y+d[1], z+d[2]
					if nx2 < 0 || ny2 < 0 || nz2 < 0 || nx2 >= nx || ny2 >= ny || nz2 >= nz || !interior[idxOf(nx2, ny2, nz2)] {
						borders++
					}
				}
				center := f32.Vec3{
					lod.MinPos[0] + cellSize[0]*(float32(x)+0.5),
					lod.MinPos[1] + cellSize[1]*(float32(y)+0.5),
					lod.MinPos[2] + cellSize[2]*(float32(z)+0.5),
				}
				radius := cbrt(cellVolume * 3.0 / (4.0 * math.Pi))
				buoy.Volume += cellVolume
				buoy.Cells = append(buoy.Cells, BuoyancyCell{Center: center, Radius: radius, Area: pointArea * float32(borders)})
			}
		}
	}
	return &buoy, nil
}

func cbrt(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Cbrt(float64(v)))
}

// rayTestAxis fires a subGrid x subGrid sub-grid of rays per cell along
// axis, flagging interior[idxOf(x,y,z)] true when the ray's crossing count
// against lod's faces (projected to the plane perpendicular to axis) is
// odd at the cell's center depth.
func rayTestAxis(lod *LOD, axis, nx, ny, nz int, size, origin f32.Vec3, interior []bool, idxOf func(x, y, z int) int, subGrid int) error {
	u, v := (axis+1)%3, (axis+2)%3
	cellSize := f32.Vec3{size[0] / float32(nx), size[1] / float32(ny), size[2] / float32(nz)}

	dims := [3]int{nx, ny, nz}
	for a := 0; a < dims[u]; a++ {
		for b := 0; b < dims[v]; b++ {
			for s := 0; s < subGrid; s++ {
				for t := 0; t < subGrid; t++ {
					pu := origin[u] + cellSize[u]*(float32(a)+float32(s)/float32(subGrid))
					pv := origin[v] + cellSize[v]*(float32(b)+float32(t)/float32(subGrid))
					crossings := crossingsAlongAxis(lod, axis, u, v, pu, pv)
					markInterior(crossings, axis, a, b, dims, origin[axis], cellSize[axis], interior, idxOf, u, v)
				}
			}
		}
	}
	return nil
}

// crossingsAlongAxis returns, in face order (unsorted), the axis coordinate
// of every face intersection of the ray at (pu, pv) in the (u, v) plane, using a 2D
// point-in-polygon style edge test against each face's projected corners.
func crossingsAlongAxis(lod *LOD, axis, u, v int, pu, pv float32) []float32 {
	var hits []float32
	for _, face := range lod.Faces {
		n := face.NumCorners
		corners := face.PointIndex[:n]
		inside := false
		j := n - 1
		for i := 0; i < n; i++ {
			pi := lod.Points[corners[i]].Pos
			pj := lod.Points[corners[j]].Pos
			if ((pi[v] > pv) != (pj[v] > pv)) &&
				(pu < (pj[u]-pi[u])*(pv-pi[v])/(pj[v]-pi[v])+pi[u]) {
				inside = !inside
			}
			j = i
		}
		if inside {
			hits = append(hits, axisIntersection(lod, face, axis, u, v, pu, pv))
		}
	}
	return hits
}

// axisIntersection approximates the axis coordinate where the ray pierces
// face's plane, via the centroid's axis coordinate (a coarse but stable
// approximation adequate for the coarse buoyancy grid resolution used
// here).
func axisIntersection(lod *LOD, face Face, axis, u, v int, pu, pv float32) float32 {
	var sum float32
	n := face.NumCorners
	for i := 0; i < n; i++ {
		sum += lod.Points[face.PointIndex[i]].Pos[axis]
	}
	return sum / float32(n)
}

func markInterior(hits []float32, axis, a, b int, dims [3]int, originAxis, cellAxis float32, interior []bool, idxOf func(x, y, z int) int, u, v int) {
	if len(hits) < 2 {
		return
	}
	for c := 0; c < dims[axis]; c++ {
		center := originAxis + cellAxis*(float32(c)+0.5)
		crossings := 0
		for _, h := range hits {
			if h < center {
				crossings++
			}
		}
		if crossings%2 == 1 {
			coord := [3]int{}
			coord[axis] = c
			coord[u] = a
			coord[v] = b
			interior[idxOf(coord[0], coord[1], coord[2])] = true
		}
	}
}
