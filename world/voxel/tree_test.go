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

package voxel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTree_PutGet(t *testing.T) {
	tree := NewTree[int]()
	points := []Bounds{
		NewBounds(0, 0, 0, 0),
		NewBounds(-1, -1, -1, 0),
		NewBounds(1000, -3000, 7, 0),
		NewBounds(-5, 2, 9, 2),
		NewBounds(0, 0, 0, 3),
	}
	for i, b := range points {
		_, existed := tree.Put(b, i)
		require.False(t, existed, b)
	}
	for i, b := range points {
		v, ok := tree.Get(b)
		require.True(t, ok, b)
		require.Equal(t, i, v)
	}
	require.Equal(t, len(points), tree.Len())

	// Грубий і дрібний воксель з тим самим кутом не заважають один одному
	_, ok := tree.Get(NewBounds(0, 0, 0, 1))
	require.False(t, ok)
}

func TestTree_PutReportsPrevious(t *testing.T) {
	tree := NewTree[string]()
	b := NewBounds(3, -4, 5, 1)
	_, existed := tree.Put(b, "a")
	require.False(t, existed)
	old, existed := tree.Put(b, "b")
	require.True(t, existed)
	require.Equal(t, "a", old)
	require.Equal(t, 1, tree.Len())
}

func TestTree_GetDoesNotMutate(t *testing.T) {
	tree := NewTree[int]()
	tree.Put(NewBounds(1, 1, 1, 0), 1)
	nodes := len(tree.nodes)
	_, ok := tree.Get(NewBounds(1<<20, 5, 5, 0))
	require.False(t, ok)
	_, ok = tree.Get(NewBounds(1, 1, 2, 0))
	require.False(t, ok)
	require.Equal(t, nodes, len(tree.nodes))
}

func TestTree_Remove(t *testing.T) {
	tree := NewTree[int]()
	b := NewBounds(-7, 8, -9, 0)
	tree.Put(b, 42)
	v, ok := tree.Remove(b)
	require.True(t, ok)
	require.Equal(t, 42, v)
	_, ok = tree.Get(b)
	require.False(t, ok)
	_, ok = tree.Remove(b)
	require.False(t, ok)
	require.Zero(t, tree.Len())
}

func TestTree_AncestorsDescendants(t *testing.T) {
	tree := NewTree[string]()
	tree.Put(NewBounds(0, 0, 0, 3), "coarse")
	tree.Put(NewBounds(1, 0, 0, 2), "middle")
	tree.Put(NewBounds(3, 1, 0, 0), "fine")
	tree.Put(NewBounds(9, 0, 0, 0), "outside")

	var up []string
	tree.Ancestors(NewBounds(3, 1, 0, 0), func(_ Bounds, v string) bool {
		up = append(up, v)
		return true
	})
	require.Equal(t, []string{"coarse"}, up)

	var down []string
	tree.Descendants(NewBounds(0, 0, 0, 3), func(_ Bounds, v string) bool {
		down = append(down, v)
		return true
	})
	require.ElementsMatch(t, []string{"coarse", "middle", "fine"}, down)

	// Запит більший за все дерево
	var all []Bounds
	tree.Descendants(NewBounds(0, 0, 0, 10), func(b Bounds, _ string) bool {
		all = append(all, b)
		return true
	})
	require.Len(t, all, 4)
	require.Contains(t, all, NewBounds(9, 0, 0, 0))
}

func TestBounds_At(t *testing.T) {
	b := NewBounds(-1, 5, -16, 0)
	require.Equal(t, NewBounds(-1, 1, -4, 2), b.At(2))
	require.Equal(t, NewBounds(-4, 20, -64, -2), b.At(-2))
	require.True(t, NewBounds(-1, 1, -4, 2).Contains(b))
	require.False(t, b.Contains(NewBounds(-1, 1, -4, 2)))
}
