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

import "github.com/go-gl/mathgl/mgl32"

// Field - поле густини. Точка всередині поверхні коли густина >= 0.
type Field interface {
	Density(p mgl32.Vec3) float32
}

// Contains перевіряє чи точка всередині поверхні
func Contains(f Field, p mgl32.Vec3) bool {
	return f.Density(p) >= 0
}

// NormalAt оцінює нормаль скінченними різницями з кроком eps.
// Нормаль дивиться туди, де густина спадає, тобто назовні.
func NormalAt(f Field, eps float32, p mgl32.Vec3) mgl32.Vec3 {
	d := func(dx, dy, dz float32) float32 {
		return f.Density(p.Add(mgl32.Vec3{dx, dy, dz}))
	}
	grad := mgl32.Vec3{
		d(eps, 0, 0) - d(-eps, 0, 0),
		d(0, eps, 0) - d(0, -eps, 0),
		d(0, 0, eps) - d(0, 0, -eps),
	}
	if grad.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return grad.Normalize().Mul(-1)
}

// FieldFunc дозволяє використати звичайну функцію як поле
type FieldFunc func(p mgl32.Vec3) float32

func (f FieldFunc) Density(p mgl32.Vec3) float32 { return f(p) }
