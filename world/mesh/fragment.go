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

import "github.com/go-gl/mathgl/mgl32"

// Triangle - три вершини (або три нормалі)
type Triangle [3]mgl32.Vec3

// AABB - обмежуючий паралелепіпед трикутника
type AABB struct {
	Min, Max mgl32.Vec3
}

// Fragment - геометрія одного блоку або ребра на одному рівні деталізації.
// Всі слайси однакової довжини: i-й елемент описує i-й трикутник.
type Fragment struct {
	Vertices []Triangle
	Normals  []Triangle
	IDs      []TriangleID
	Bounds   []AABB
}

// Len повертає кількість трикутників
func (f *Fragment) Len() int { return len(f.IDs) }

// Empty - фрагмент без трикутників
func (f *Fragment) Empty() bool { return f == nil || len(f.IDs) == 0 }

func (f *Fragment) push(ids *IDAllocator, v, n Triangle) {
	f.Vertices = append(f.Vertices, v)
	f.Normals = append(f.Normals, n)
	f.IDs = append(f.IDs, ids.Allocate())
	f.Bounds = append(f.Bounds, Bounds(v))
}

// Bounds рахує AABB трикутника.
// Низ опущено на 1, щоб плоскі трикутники не давали AABB нульової висоти
// для колізій.
func Bounds(t Triangle) AABB {
	lo, hi := t[0], t[0]
	for _, v := range t[1:] {
		for i := range 3 {
			lo[i] = min(lo[i], v[i])
			hi[i] = max(hi[i], v[i])
		}
	}
	lo[1]--
	return AABB{Min: lo, Max: hi}
}
