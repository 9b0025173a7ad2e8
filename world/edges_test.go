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
package world

import (
	"testing"

	"github.com/stretchr/testify/require"

	"FlowyTerrain/world/mesh"
	"FlowyTerrain/world/voxel"
)

func edge(x, y, z int32, lg int16, d mesh.Direction) Edge {
	return EdgeAt(voxel.NewBounds(x, y, z, lg), d)
}

func TestEdge_CorrectLOD(t *testing.T) {
	e := edge(0, 0, 0, 2, mesh.X)
	fine := func(BlockPosition) LOD { return 0 }
	require.Equal(t, []Edge{
		edge(0, 0, 0, 0, mesh.X),
		edge(1, 0, 0, 0, mesh.X),
		edge(2, 0, 0, 0, mesh.X),
		edge(3, 0, 0, 0, mesh.X),
	}, e.CorrectLOD(fine))

	coarse := func(BlockPosition) LOD { return 3 }
	require.Equal(t, []Edge{e}, e.CorrectLOD(coarse))

	e = edge(1, 2, 3, 1, mesh.Z)
	require.Equal(t, []Edge{edge(2, 4, 6, 0, mesh.Z), edge(2, 4, 7, 0, mesh.Z)}, e.CorrectLOD(fine))
}

func TestBlockEdges(t *testing.T) {
	edges := BlockPosition{0, 1, 0}.Edges(3)
	require.Len(t, edges, 3*2*2*2)
	for _, e := range edges {
		require.Equal(t, BlockPosition{0, 1, 0}, e.Block())
		require.Equal(t, LgSampleSize[3], e.LgSize)
	}
}

func TestLoadedEdges_Insert(t *testing.T) {
	var ids mesh.IDAllocator
	l := NewLoadedEdges()

	parent := edge(0, 0, 0, 1, mesh.X)
	pf := fragment(&ids, 2, 0)
	up := l.Insert(parent, pf, 1)
	require.Len(t, up, 1)
	require.True(t, l.Contains(parent))

	// дрібніше ребро всередині витісняє батька
	child := edge(0, 0, 0, 0, mesh.X)
	require.Equal(t, []Edge{parent}, l.Collisions(child))
	cf := fragment(&ids, 1, 0)
	up = l.Insert(child, cf, 0)
	require.Len(t, up, 3)
	require.Equal(t, RemoveFragment, up[0].Kind)
	require.Equal(t, RemoveFragment, up[1].Kind)
	require.Equal(t, AddFragment, up[2].Kind)
	require.False(t, l.Contains(parent))
	require.True(t, l.Contains(child))

	sibling := edge(1, 0, 0, 0, mesh.X)
	require.Empty(t, l.Collisions(sibling))
	l.Insert(sibling, fragment(&ids, 1, 0), 0)
	// інша вісь не стикається
	l.Insert(edge(0, 0, 0, 1, mesh.Y), &mesh.Fragment{}, 1)
	require.Equal(t, 3, l.Len())

	// грубе ребро витісняє обох дітей
	require.ElementsMatch(t, []Edge{child, sibling}, l.Collisions(parent))
	up = l.Insert(parent, &mesh.Fragment{}, 1)
	require.Len(t, up, 2)
	require.Equal(t, 2, l.Len())
	require.False(t, l.Contains(child))
	require.False(t, l.Contains(sibling))
	require.Empty(t, l.Touching(everywhere()))
}

func TestLoadedEdges_RemoveUnder(t *testing.T) {
	var ids mesh.IDAllocator
	l := NewLoadedEdges()
	inside := edge(3, 3, 3, 0, mesh.Y)
	outside := edge(16, 0, 0, 0, mesh.Z)
	f := fragment(&ids, 2, 0)
	l.Insert(inside, f, 0)
	l.Insert(outside, fragment(&ids, 1, 50), 0)

	up := l.RemoveUnder(BlockPosition{}.Bounds())
	require.Len(t, up, 2)
	for i, ch := range up {
		require.Equal(t, RemoveFragment, ch.Kind)
		require.Equal(t, f.IDs[i], ch.ID)
	}
	require.False(t, l.Contains(inside))
	require.True(t, l.Contains(outside))
	require.Equal(t, 1, l.Len())
}

func TestAffectedEdges(t *testing.T) {
	v := voxel.NewBounds(5, -2, 7, 1)
	edges := affectedEdges(v)
	require.Len(t, edges, 15)
	for _, e := range edges {
		require.Equal(t, v.LgSize, e.LgSize)
		require.Contains(t, e.Voxels(), v)
	}
	require.Contains(t, edges, EdgeAt(v, mesh.X))
}
