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

// NormalEpsilon - крок для оцінки нормалі
const NormalEpsilon = 0.01

// Generate семплює поле в кутах вокселя і класифікує його.
// Якщо всі 8 кутів однакові - це Volume, інакше Surface з вершиною
// в середньому положенні внутрішніх кутів.
func Generate(f Field, b Bounds) Voxel {
	low, high := b.Corners()
	pick := func(i int, c int) float32 {
		if c == 0 {
			return low[i]
		}
		return high[i]
	}

	// corners[x][y][z]
	var corners [2][2][2]bool
	anyInside, allInside := false, true
	for x := range 2 {
		for y := range 2 {
			for z := range 2 {
				c := Contains(f, mgl32.Vec3{pick(0, x), pick(1, y), pick(2, z)})
				corners[x][y][z] = c
				anyInside = anyInside || c
				allInside = allInside && c
			}
		}
	}
	if anyInside == allInside {
		return Volume(allInside)
	}

	var sum [3]uint32
	var n uint32
	frac := [2]uint32{0, 0xFF}
	for x := range 2 {
		for y := range 2 {
			for z := range 2 {
				if corners[x][y][z] {
					sum[0] += frac[x]
					sum[1] += frac[y]
					sum[2] += frac[z]
					n++
				}
			}
		}
	}

	// Додаткові семпли всередині вокселя тягнуть вершину туди, де поверхня
	sampleExtra := func(lgS uint) {
		fs := 1 / float32(uint(1)<<lgS)
		s := uint32(0x100 >> lgS)
		size := b.Size()
		offsets := [2]struct {
			f float32
			w uint32
		}{{fs, s}, {1 - fs, 0x100 - s}}
		for _, ox := range offsets {
			for _, oy := range offsets {
				for _, oz := range offsets {
					p := mgl32.Vec3{
						(float32(b.X) + ox.f) * size,
						(float32(b.Y) + oy.f) * size,
						(float32(b.Z) + oz.f) * size,
					}
					if Contains(f, p) {
						sum[0] += ox.w * uint32(lgS)
						sum[1] += oy.w * uint32(lgS)
						sum[2] += oz.w * uint32(lgS)
						n += uint32(lgS)
					}
				}
			}
		}
	}
	sampleExtra(2)

	vertex := Vertex{
		X: Fracu8(sum[0] / n),
		Y: Fracu8(sum[1] / n),
		Z: Fracu8(sum[2] / n),
	}
	return NewSurface(Surface{
		Vertex:       vertex,
		Normal:       NormalOf(NormalAt(f, NormalEpsilon, vertex.World(b))),
		CornerInside: corners[0][0][0],
	})
}
