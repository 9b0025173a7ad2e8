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

// Йоу, чат! Тут ребра - найменша одиниця мешування.
// Ребро задається нижнім кутом (вокселем), розміром і віссю.
// Два ребра однієї осі "стикаються", якщо одне лежить всередині іншого:
// тоді живим може бути тільки одне з них, інакше геометрія
// накладеться двічі. Тому для кожної осі тримаємо дерево зайнятих ребер.

package world

import (
	"fmt"
	"sync"

	"FlowyTerrain/world/mesh"
	"FlowyTerrain/world/voxel"
)

// Edge - ребро між двома вокселями вздовж осі Direction
type Edge struct {
	LowCorner [3]int32
	LgSize    int16
	Direction mesh.Direction
}

// EdgeAt повертає ребро з нижнім кутом у воксель v
func EdgeAt(v voxel.Bounds, d mesh.Direction) Edge {
	return Edge{LowCorner: [3]int32{v.X, v.Y, v.Z}, LgSize: v.LgSize, Direction: d}
}

// Bounds повертає воксель нижнього кута
func (e Edge) Bounds() voxel.Bounds {
	return voxel.NewBounds(e.LowCorner[0], e.LowCorner[1], e.LowCorner[2], e.LgSize)
}

// Block повертає блок, якому належить ребро
func (e Edge) Block() BlockPosition { return ContainingBlock(e.Bounds()) }

// Voxels повертає всі воксели, потрібні для мешування ребра
func (e Edge) Voxels() [5]voxel.Bounds { return e.Direction.Voxels(e.Bounds()) }

func (e Edge) String() string {
	return fmt.Sprintf("%v/%v", e.Bounds(), e.Direction)
}

// CorrectLOD ділить ребро на дрібніші, якщо його блок хоче дрібніший LOD.
// Дрібніші ребра йдуть вздовж тієї ж осі і покривають той самий відрізок.
func (e Edge) CorrectLOD(desired func(BlockPosition) LOD) []Edge {
	lg := LgSampleSize[desired(e.Block())]
	if lg >= e.LgSize {
		return []Edge{e}
	}
	low := e.Bounds().At(lg)
	count := int32(1) << (e.LgSize - lg)
	out := make([]Edge, count)
	for i := range count {
		v := low
		for range i {
			v = e.Direction.Step(v)
		}
		out[i] = EdgeAt(v, e.Direction)
	}
	return out
}

// Edges повертає всі ребра блоку на рівні lod
func (b BlockPosition) Edges(lod LOD) []Edge {
	lg := LgSampleSize[lod]
	n := EdgeSamples[lod]
	low := b.Bounds().At(lg)
	out := make([]Edge, 0, 3*n*n*n)
	for dx := range n {
		for dy := range n {
			for dz := range n {
				for _, d := range mesh.Directions {
					out = append(out, EdgeAt(low.Add(dx, dy, dz), d))
				}
			}
		}
	}
	return out
}

// LoadedEdges - живі ребра: по дереву на кожну вісь плюс кеш мешів
type LoadedEdges struct {
	mu    sync.Mutex
	trees [3]*voxel.Tree[LOD]
	cache *MeshCache[Edge]
}

// NewLoadedEdges створює порожній набір
func NewLoadedEdges() *LoadedEdges {
	l := &LoadedEdges{cache: NewMeshCache[Edge]()}
	for i := range l.trees {
		l.trees[i] = voxel.NewTree[LOD]()
	}
	return l
}

// Contains перевіряє чи саме це ребро живе
func (l *LoadedEdges) Contains(e Edge) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.trees[e.Direction].Get(e.Bounds())
	return ok
}

// Len повертає кількість живих ребер
func (l *LoadedEdges) Len() (n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.trees {
		n += t.Len()
	}
	return
}

// Insert ставить ребро, витісняючи всі ребра, з якими воно стикається
// (разом з попередньою версією самого ребра)
func (l *LoadedEdges) Insert(e Edge, f *mesh.Fragment, lod LOD) ViewUpdate {
	l.mu.Lock()
	tree := l.trees[e.Direction]
	collisions := l.collisions(e)
	for _, c := range collisions {
		tree.Remove(c.Bounds())
	}
	tree.Put(e.Bounds(), lod)
	l.mu.Unlock()

	var up ViewUpdate
	for _, c := range collisions {
		up = append(up, l.cache.Evict(c)...)
	}
	return append(up, l.cache.Install(e, f, lod)...)
}

// Collisions повертає живі ребра, які стикаються з e
func (l *LoadedEdges) Collisions(e Edge) []Edge {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.collisions(e)
}

func (l *LoadedEdges) collisions(e Edge) (out []Edge) {
	tree := l.trees[e.Direction]
	collect := func(b voxel.Bounds, _ LOD) bool {
		out = append(out, EdgeAt(b, e.Direction))
		return true
	}
	tree.Ancestors(e.Bounds(), collect)
	tree.Descendants(e.Bounds(), collect)
	return
}

// RemoveUnder прибирає всі ребра з нижнім кутом всередині b
func (l *LoadedEdges) RemoveUnder(b voxel.Bounds) ViewUpdate {
	var removed []Edge
	l.mu.Lock()
	for _, d := range mesh.Directions {
		tree := l.trees[d]
		var under []Edge
		tree.Descendants(b, func(at voxel.Bounds, _ LOD) bool {
			under = append(under, EdgeAt(at, d))
			return true
		})
		for _, e := range under {
			tree.Remove(e.Bounds())
		}
		removed = append(removed, under...)
	}
	l.mu.Unlock()

	var up ViewUpdate
	for _, e := range removed {
		up = append(up, l.cache.Evict(e)...)
	}
	return up
}

// Touching шукає живі трикутники в box
func (l *LoadedEdges) Touching(box mesh.AABB) []mesh.TriangleID {
	return l.cache.Touching(box)
}
