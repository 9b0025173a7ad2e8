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
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Kind - тип вокселя
type Kind uint8

const (
	KindVolume  Kind = iota // однорідний куб: або весь всередині, або весь зовні
	KindSurface             // куб, через який проходить поверхня
)

// Voxel - один семпл світу.
// Порівнюється через ==, цим користується дерево щоб знати чи воксель змінився.
type Voxel struct {
	Kind    Kind    `json:"k"`
	Inside  bool    `json:"in,omitempty"` // тільки для KindVolume
	Surface Surface `json:"s"`            // тільки для KindSurface
}

// Surface - дані вокселя, який перетинає поверхню
type Surface struct {
	Vertex       Vertex `json:"v"`  // точка поверхні всередині куба
	Normal       Normal `json:"n"`  // нормаль у цій точці
	CornerInside bool   `json:"ci"` // чи нижній кут (0,0,0) всередині
}

// Volume створює однорідний воксель
func Volume(inside bool) Voxel {
	return Voxel{Kind: KindVolume, Inside: inside}
}

// NewSurface створює воксель поверхні
func NewSurface(s Surface) Voxel {
	return Voxel{Kind: KindSurface, Surface: s}
}

// CornerInside повертає класифікацію нижнього кута вокселя
func (v Voxel) CornerInside() bool {
	if v.Kind == KindSurface {
		return v.Surface.CornerInside
	}
	return v.Inside
}

// Fracu8 - частка ребра вокселя, квантована у 8 біт (n/256)
type Fracu8 uint8

func (f Fracu8) Float() float32 { return float32(f) / 256 }

// Vertex - точка всередині вокселя
type Vertex struct {
	X Fracu8 `json:"x"`
	Y Fracu8 `json:"y"`
	Z Fracu8 `json:"z"`
}

// World переводить точку в світові координати
func (v Vertex) World(b Bounds) mgl32.Vec3 {
	size := b.Size()
	return mgl32.Vec3{
		(float32(b.X) + v.X.Float()) * size,
		(float32(b.Y) + v.Y.Float()) * size,
		(float32(b.Z) + v.Z.Float()) * size,
	}
}

// Normal - одинична нормаль, квантована до int8 по кожній осі
type Normal [3]int8

// NormalOf квантує нормаль. Найбільша компонента мапиться на ±127.
func NormalOf(n mgl32.Vec3) Normal {
	m := max(abs(n[0]), abs(n[1]), abs(n[2]))
	if m == 0 {
		return Normal{}
	}
	return Normal{
		int8(math.Round(float64(n[0] / m * 127))),
		int8(math.Round(float64(n[1] / m * 127))),
		int8(math.Round(float64(n[2] / m * 127))),
	}
}

// Float повертає нормаль назад як одиничний вектор
func (n Normal) Float() mgl32.Vec3 {
	v := mgl32.Vec3{float32(n[0]), float32(n[1]), float32(n[2])}
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
