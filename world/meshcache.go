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

// Йоу, чат! Кеш мешів тримає один живий фрагмент на ключ.
// Заміна фрагменту - це одна пачка: спочатку Remove всіх старих
// трикутників, потім Add нового. Так рендер ніколи не бачить
// і старий, і новий меш одночасно.
// Заодно тримаємо BVH з AABB кожного живого трикутника для колізій.

package world

import (
	"sync"

	"FlowyTerrain/world/internal/bvh"
	"FlowyTerrain/world/mesh"
)

type (
	vec3f        = bvh.Vec3[float32]
	aabb3f       = bvh.AABB[float32, vec3f]
	triangleNode = bvh.Node[float32, aabb3f, mesh.TriangleID]
	triangleTree = bvh.Tree[float32, aabb3f, mesh.TriangleID]
)

type cachedFragment struct {
	fragment *mesh.Fragment
	lod      LOD
}

// MeshCache - живі фрагменти по ключу (блок або ребро)
type MeshCache[K comparable] struct {
	mu        sync.Mutex
	entries   map[K]cachedFragment
	triangles triangleTree
	nodes     map[mesh.TriangleID]*triangleNode
}

// NewMeshCache створює порожній кеш
func NewMeshCache[K comparable]() *MeshCache[K] {
	return &MeshCache[K]{
		entries: make(map[K]cachedFragment),
		nodes:   make(map[mesh.TriangleID]*triangleNode),
	}
}

// Install ставить новий фрагмент на місце старого
func (c *MeshCache[K]) Install(key K, f *mesh.Fragment, lod LOD) ViewUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	up := c.evict(key)
	c.entries[key] = cachedFragment{fragment: f, lod: lod}
	if !f.Empty() {
		for i, id := range f.IDs {
			c.nodes[id] = c.triangles.Insert(toAABB(f.Bounds[i]), id)
		}
		up = append(up, Change{Kind: AddFragment, Key: key, Fragment: f, LOD: lod})
	}
	liveTriangles.Set(float64(c.triangles.Len()))
	return up
}

// Evict прибирає фрагмент ключа. Якщо ключа немає - порожня пачка.
func (c *MeshCache[K]) Evict(key K) ViewUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	up := c.evict(key)
	delete(c.entries, key)
	liveTriangles.Set(float64(c.triangles.Len()))
	return up
}

func (c *MeshCache[K]) evict(key K) (up ViewUpdate) {
	old, ok := c.entries[key]
	if !ok || old.fragment == nil {
		return nil
	}
	up = make(ViewUpdate, 0, old.fragment.Len()+1)
	for _, id := range old.fragment.IDs {
		if n, ok := c.nodes[id]; ok {
			c.triangles.Delete(n)
			delete(c.nodes, id)
		}
		up = append(up, Change{Kind: RemoveFragment, ID: id})
	}
	return up
}

// LOD повертає рівень, на якому ключ зараз показаний
func (c *MeshCache[K]) LOD(key K) (LOD, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.lod, ok
}

// Contains перевіряє чи є фрагмент для ключа
func (c *MeshCache[K]) Contains(key K) bool {
	_, ok := c.LOD(key)
	return ok
}

// Len повертає кількість ключів у кеші
func (c *MeshCache[K]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Touching шукає живі трикутники, AABB яких перетинається з box
func (c *MeshCache[K]) Touching(box mesh.AABB) (ids []mesh.TriangleID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.triangles.Find(bvh.TouchBound(toAABB(box)), func(n *triangleNode) bool {
		ids = append(ids, n.Value)
		return true
	})
	return
}

func toAABB(b mesh.AABB) aabb3f {
	return aabb3f{Lower: vec3f(b.Min), Upper: vec3f(b.Max)}
}
