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

package bvh

import (
	"math/rand"
	"slices"
	"testing"
)

type (
	vec  = Vec3[float32]
	box  = AABB[float32, vec]
	tree = Tree[float32, box, int]
	node = Node[float32, box, int]
)

// cube - одинична коробка з нижнім кутом у (x, y, z)
func cube(x, y, z float32) box {
	return box{Lower: vec{x, y, z}, Upper: vec{x + 1, y + 1, z + 1}}
}

func collect(tr *tree, test func(box) bool) []int {
	var result []int
	tr.Find(test, func(n *node) bool {
		result = append(result, n.Value)
		return true
	})
	slices.Sort(result)
	return result
}

func TestTree_Insert(t *testing.T) {
	boxes := []box{
		cube(0, 0, 0), cube(1, 0, 0), cube(10, 0, 0), cube(11, 0, 0),
		cube(100, 0, 0), cube(101, 0, 0), cube(0, 0, 100), cube(-0.5, -0.5, -0.5),
	}
	var tr tree
	for i, b := range boxes {
		tr.Insert(b, i)
		t.Log(&tr)
	}
	if tr.Len() != len(boxes) {
		t.Errorf("len = %d, want %d", tr.Len(), len(boxes))
	}

	got := collect(&tr, TouchPoint[vec, box](vec{0.25, 0.25, 0.25}))
	if !slices.Equal(got, []int{0, 7}) {
		t.Errorf("point query = %v, want [0 7]", got)
	}
	// Друга координата тепер теж перевіряється
	got = collect(&tr, TouchPoint[vec, box](vec{0.5, 0.5, 50}))
	if len(got) != 0 {
		t.Errorf("point query far on z = %v, want nothing", got)
	}
}

func TestTree_FindBound(t *testing.T) {
	var tr tree
	for i := range 10 {
		tr.Insert(cube(float32(i)*2, 0, 0), i)
	}
	got := collect(&tr, TouchBound(box{Lower: vec{3.5, 0.5, 0.5}, Upper: vec{6.5, 0.7, 0.7}}))
	if !slices.Equal(got, []int{2, 3}) {
		t.Errorf("bound query = %v, want [2 3]", got)
	}
}

func TestTree_Delete(t *testing.T) {
	var tr tree
	nodes := make([]*node, 64)
	for i := range nodes {
		nodes[i] = tr.Insert(cube(rand.Float32()*100, rand.Float32()*100, rand.Float32()*100), i)
	}
	rand.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })

	for i, n := range nodes {
		if v := tr.Delete(n); v != n.Value {
			t.Fatalf("delete returned %d, want %d", v, n.Value)
		}
		// Все що лишилось має знаходитись
		for _, rest := range nodes[i+1:] {
			low := rest.Box.Lower
			center := vec{low[0] + 0.5, low[1] + 0.5, low[2] + 0.5}
			found := false
			tr.Find(TouchPoint[vec, box](center), func(n *node) bool {
				found = found || n == rest
				return !found
			})
			if !found {
				t.Fatalf("node %d lost after deleting %d nodes", rest.Value, i+1)
			}
		}
	}
	if tr.Len() != 0 || tr.root != nil {
		t.Errorf("tree is not empty: %v", &tr)
	}
}

func BenchmarkTree_Insert(b *testing.B) {
	boxes := make([]box, b.N)
	for i := range boxes {
		boxes[i] = cube(rand.Float32()*1e4, rand.Float32()*1e4, rand.Float32()*1e4)
	}
	b.ResetTimer()

	var tr tree
	for i, v := range boxes {
		tr.Insert(v, i)
	}
}

func BenchmarkTree_Find(b *testing.B) {
	var tr tree
	for i := range 4096 {
		tr.Insert(cube(rand.Float32()*1e3, rand.Float32()*1e3, rand.Float32()*1e3), i)
	}
	b.ResetTimer()

	for range b.N {
		p := vec{rand.Float32() * 1e3, rand.Float32() * 1e3, rand.Float32() * 1e3}
		tr.Find(TouchPoint[vec, box](p), func(*node) bool { return true })
	}
}
