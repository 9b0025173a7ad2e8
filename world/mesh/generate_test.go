// This file is part of go-mc/server project.
// Copyright (C) 2023.  Tnze
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"FlowyTerrain/world/voxel"
)

type mapSource map[voxel.Bounds]voxel.Voxel

func (m mapSource) Get(b voxel.Bounds) (voxel.Voxel, bool) {
	v, ok := m[b]
	return v, ok
}

// sampled семплює поле для n^3 вокселів блоку разом з halo
func sampled(f voxel.Field, low voxel.Bounds, n int32) mapSource {
	src := make(mapSource)
	for dx := int32(-1); dx <= n; dx++ {
		for dy := int32(-1); dy <= n; dy++ {
			for dz := int32(-1); dz <= n; dz++ {
				b := low.Add(dx, dy, dz)
				src[b] = voxel.Generate(f, b)
			}
		}
	}
	return src
}

func ground(h float32) voxel.Field {
	return voxel.FieldFunc(func(p mgl32.Vec3) float32 { return h - p[1] })
}

func TestGenerateBlock_Uniform(t *testing.T) {
	var ids IDAllocator
	low := voxel.NewBounds(0, 0, 0, 0)
	for _, h := range []float32{-100, 100} {
		f, err := GenerateBlock(sampled(ground(h), low, 16), &ids, low, 16)
		require.NoError(t, err)
		require.True(t, f.Empty())
	}
}

func TestGenerateBlock_Plane(t *testing.T) {
	var ids IDAllocator
	low := voxel.NewBounds(0, 0, 0, 0)
	f, err := GenerateBlock(sampled(ground(8.5), low, 16), &ids, low, 16)
	require.NoError(t, err)
	// по одному ребру +y на кожну колонку, 4 трикутники на ребро
	require.Equal(t, 16*16*4, f.Len())
	require.Len(t, f.Vertices, f.Len())
	require.Len(t, f.Normals, f.Len())
	require.Len(t, f.Bounds, f.Len())

	seen := make(map[TriangleID]bool)
	for i, tri := range f.Vertices {
		require.False(t, seen[f.IDs[i]])
		seen[f.IDs[i]] = true

		// трикутник дивиться вгору, з поверхні назовні
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		require.Greater(t, n[1], float32(0))
		for _, v := range tri {
			require.InDelta(t, 8.5, v[1], 0.5)
		}
		require.Less(t, f.Bounds[i].Min[1], f.Bounds[i].Max[1])
	}
}

func TestGenerateBlock_CoarseLOD(t *testing.T) {
	var ids IDAllocator
	low := voxel.NewBounds(-2, -2, -2, 2)
	f, err := GenerateBlock(sampled(ground(-3), low, 4), &ids, low, 4)
	require.NoError(t, err)
	require.Equal(t, 4*4*4, f.Len())
}

func TestGenerateBlock_MissingHalo(t *testing.T) {
	var ids IDAllocator
	low := voxel.NewBounds(0, 0, 0, 0)
	src := sampled(ground(8.5), low, 16)
	delete(src, voxel.NewBounds(-1, 8, 5, 0))
	_, err := GenerateBlock(src, &ids, low, 16)
	require.ErrorIs(t, err, ErrMissingVoxel)
}

func TestGenerateBlock_UnexpectedNeighbor(t *testing.T) {
	var ids IDAllocator
	low := voxel.NewBounds(0, 0, 0, 0)
	src := sampled(ground(0.5), low, 2)
	// ребро по y з (0,0,0) перетинає поверхню, а сусід по -z без вершини
	src[voxel.NewBounds(0, 0, -1, 0)] = voxel.Volume(true)
	_, err := GenerateBlock(src, &ids, low, 2)
	require.ErrorIs(t, err, ErrUnexpectedNeighbor)
}

func TestGenerateEdge(t *testing.T) {
	var ids IDAllocator
	low := voxel.NewBounds(0, 0, 0, 0)
	src := sampled(ground(8.5), low, 16)

	f, err := GenerateEdge(src, &ids, voxel.NewBounds(3, 8, 3, 0), Y)
	require.NoError(t, err)
	require.Equal(t, 4, f.Len())

	f, err = GenerateEdge(src, &ids, voxel.NewBounds(3, 8, 3, 0), X)
	require.NoError(t, err)
	require.True(t, f.Empty())

	_, err = GenerateEdge(mapSource{}, &ids, voxel.NewBounds(3, 8, 3, 0), Y)
	require.ErrorIs(t, err, ErrMissingVoxel)
}

func TestIDAllocator(t *testing.T) {
	var ids IDAllocator
	a, b := ids.Allocate(), ids.Allocate()
	require.NotEqual(t, a, b)
	require.Less(t, a, b)
}
