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

import "golang.org/x/exp/constraints"

// Vector - що потрібно від вектора, щоб будувати на ньому AABB
type Vector[I constraints.Signed | constraints.Float, V any] interface {
	Sub(V) V
	Max(V) V
	Min(V) V
	Less(V) bool // < по всіх компонентах
	More(V) bool // > по всіх компонентах
	Sum() I
}

// AABB - коробка, вирівняна по осях
type AABB[I constraints.Signed | constraints.Float, V Vector[I, V]] struct {
	Upper, Lower V
}

// WithIn перевіряє чи точка строго всередині
func (b AABB[I, V]) WithIn(point V) bool {
	return b.Lower.Less(point) && b.Upper.More(point)
}

// Touch перевіряє чи коробки перетинаються
func (b AABB[I, V]) Touch(other AABB[I, V]) bool {
	return b.Lower.Less(other.Upper) && other.Lower.Less(b.Upper)
}

// Union повертає найменшу коробку, що містить обидві
func (b AABB[I, V]) Union(other AABB[I, V]) AABB[I, V] {
	return AABB[I, V]{
		Upper: b.Upper.Max(other.Upper),
		Lower: b.Lower.Min(other.Lower),
	}
}

// Surface - евристика вартості для вставки: сума розмірів, помножена на 2
func (b AABB[I, V]) Surface() I {
	return b.Upper.Sub(b.Lower).Sum() * 2
}
