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

// Йоу, чат! Сьогодні ми розберемо як з вокселів стають трикутники!
// Це dual contouring: кожен воксель поверхні має одну вершину всередині себе.
// Дивимось на ребра між сусідніми вокселями по +x, +y, +z. Якщо на кінцях
// ребра різна класифікація (всередині/зовні) - ребро перетинає поверхню.
// Навколо такого ребра стоять 4 вокселі, їхні вершини утворюють квад.
// Квад ділимо на 4 трикутники віялом навколо центральної вершини.

package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"FlowyTerrain/world/voxel"
)

var (
	// ErrMissingVoxel - для мешування потрібен воксель, якого ще немає
	ErrMissingVoxel = errors.New("missing voxel")
	// ErrUnexpectedNeighbor - біля ребра з перетином стоїть воксель без вершини
	ErrUnexpectedNeighbor = errors.New("unexpected neighbor")
)

// Source - звідки мешер бере воксели
type Source interface {
	Get(b voxel.Bounds) (voxel.Voxel, bool)
}

// Direction - вісь ребра
type Direction uint8

const (
	X Direction = iota
	Y
	Z
)

// Directions - всі осі по порядку
var Directions = [...]Direction{X, Y, Z}

// step - крок до сусіда вздовж ребра, d1 і d2 - кроки до вокселів, що ділять ребро
var axes = [3]struct{ step, d1, d2 [3]int32 }{
	X: {step: [3]int32{1, 0, 0}, d1: [3]int32{0, -1, 0}, d2: [3]int32{0, 0, -1}},
	Y: {step: [3]int32{0, 1, 0}, d1: [3]int32{0, 0, -1}, d2: [3]int32{-1, 0, 0}},
	Z: {step: [3]int32{0, 0, 1}, d1: [3]int32{-1, 0, 0}, d2: [3]int32{0, -1, 0}},
}

// Step зсуває воксель на одну клітинку вздовж осі
func (d Direction) Step(b voxel.Bounds) voxel.Bounds {
	s := axes[d].step
	return b.Add(s[0], s[1], s[2])
}

// Voxels повертає 5 вокселів, потрібних для ребра з нижнім кутом у low:
// сам low, сусід вздовж осі і три вокселі з іншого боку ребра
func (d Direction) Voxels(low voxel.Bounds) [5]voxel.Bounds {
	a := axes[d]
	return [5]voxel.Bounds{
		low,
		d.Step(low),
		low.Add(a.d1[0], a.d1[1], a.d1[2]),
		low.Add(a.d2[0], a.d2[1], a.d2[2]),
		low.Add(a.d1[0]+a.d2[0], a.d1[1]+a.d2[1], a.d1[2]+a.d2[2]),
	}
}

func (d Direction) String() string {
	return [...]string{"x", "y", "z"}[d]
}

// GenerateBlock будує меш для n^3 вокселів, починаючи з low.
// Всі воксели блоку і шар сусідів мають бути в src.
func GenerateBlock(src Source, ids *IDAllocator, low voxel.Bounds, n int32) (*Fragment, error) {
	b := newBuilder(src)
	for dx := range n {
		for dy := range n {
			for dz := range n {
				pos := low.Add(dx, dy, dz)
				v, ok := src.Get(pos)
				if !ok {
					return nil, fmt.Errorf("%w at %v", ErrMissingVoxel, pos)
				}
				if v.Kind != voxel.KindSurface {
					continue
				}
				for _, d := range Directions {
					if err := b.edge(pos, v, d); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return b.fragment(ids), nil
}

// GenerateEdge будує меш одного ребра.
// Якщо якогось з вокселів ще немає - повертає ErrMissingVoxel.
func GenerateEdge(src Source, ids *IDAllocator, low voxel.Bounds, d Direction) (*Fragment, error) {
	b := newBuilder(src)
	v, ok := src.Get(low)
	if !ok {
		return nil, fmt.Errorf("%w at %v", ErrMissingVoxel, low)
	}
	if v.Kind == voxel.KindSurface {
		if err := b.edge(low, v, d); err != nil {
			return nil, err
		}
	} else if next := d.Step(low); !has(src, next) {
		return nil, fmt.Errorf("%w at %v", ErrMissingVoxel, next)
	}
	return b.fragment(ids), nil
}

func has(src Source, b voxel.Bounds) bool {
	_, ok := src.Get(b)
	return ok
}

type builder struct {
	src     Source
	coords  []mgl32.Vec3
	normals []mgl32.Vec3
	indices map[voxel.Bounds]int
	polys   [][3]int
}

func newBuilder(src Source) *builder {
	return &builder{src: src, indices: make(map[voxel.Bounds]int)}
}

// vertex повертає індекс вершини вокселя, рахує її при першому зверненні
func (b *builder) vertex(at voxel.Bounds) (int, error) {
	if i, ok := b.indices[at]; ok {
		return i, nil
	}
	v, ok := b.src.Get(at)
	if !ok {
		return 0, fmt.Errorf("%w at %v", ErrMissingVoxel, at)
	}
	if v.Kind != voxel.KindSurface {
		return 0, fmt.Errorf("%w %+v at %v", ErrUnexpectedNeighbor, v, at)
	}
	i := b.push(v.Surface.Vertex.World(at), v.Surface.Normal.Float())
	b.indices[at] = i
	return i, nil
}

func (b *builder) push(coord, normal mgl32.Vec3) int {
	b.coords = append(b.coords, coord)
	b.normals = append(b.normals, normal)
	return len(b.coords) - 1
}

// edge перевіряє ребро від pos вздовж d і додає 4 трикутники, якщо є перетин
func (b *builder) edge(pos voxel.Bounds, v voxel.Voxel, d Direction) error {
	next := d.Step(pos)
	nv, ok := b.src.Get(next)
	if !ok {
		return fmt.Errorf("%w at %v", ErrMissingVoxel, next)
	}
	inside := v.Surface.CornerInside
	if inside == nv.CornerInside() {
		return nil
	}

	around := d.Voxels(pos)
	var idx [4]int
	// v1 = pos+d1+d2, v2 = pos+d1, v3 = pos, v4 = pos+d2
	for i, at := range [4]voxel.Bounds{around[4], around[2], around[0], around[3]} {
		var err error
		if idx[i], err = b.vertex(at); err != nil {
			return err
		}
	}

	var center, normal mgl32.Vec3
	for _, i := range idx {
		center = center.Add(b.coords[i])
		normal = normal.Add(b.normals[i])
	}
	c := b.push(center.Mul(0.25), normal.Mul(0.25))

	i1, i2, i3, i4 := idx[0], idx[1], idx[2], idx[3]
	if inside {
		// видно з боку +нескінченності
		b.polys = append(b.polys, [3]int{i2, i1, c}, [3]int{i3, i2, c}, [3]int{i4, i3, c}, [3]int{i1, i4, c})
	} else {
		b.polys = append(b.polys, [3]int{i1, i2, c}, [3]int{i2, i3, c}, [3]int{i3, i4, c}, [3]int{i4, i1, c})
	}
	return nil
}

func (b *builder) fragment(ids *IDAllocator) *Fragment {
	f := &Fragment{}
	for _, p := range b.polys {
		f.push(ids,
			Triangle{b.coords[p[0]], b.coords[p[1]], b.coords[p[2]]},
			Triangle{b.normals[p[0]], b.normals[p[1]], b.normals[p[2]]},
		)
	}
	return f
}
