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

// Йоу, чат! Тут генерується рельєф.
// Беремо карту висот з броунівського шуму по (x, z) і додаємо
// тривимірні "фічі", щоб з'явились навіси та печери.
// Шум - звичайний value noise: у кожній точці решітки псевдовипадкове
// число з xxhash, а між точками плавна інтерполяція.

package voxel

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// HeightMap - поле густини для генерації світу
type HeightMap struct {
	Seed     uint64
	height   brownian
	features brownian
}

// NewHeightMap створює поле з параметрами за замовчуванням
func NewHeightMap(seed uint64) *HeightMap {
	return &HeightMap{
		Seed:     seed,
		height:   brownian{octaves: 4, frequency: 1.0 / 8, persistence: 8, lacunarity: 1.0 / 4},
		features: brownian{octaves: 2, frequency: 1.0 / 32, persistence: 8, lacunarity: 1.0 / 4},
	}
}

// Density = висота - y + фічі*8
func (h *HeightMap) Density(p mgl32.Vec3) float32 {
	x, y, z := float64(p[0]), float64(p[1]), float64(p[2])
	height := h.height.apply(func(f float64) float64 {
		return noise2(h.Seed, x*f, z*f)
	})
	features := h.features.apply(func(f float64) float64 {
		return noise3(h.Seed^0x9e3779b97f4a7c15, x*f, y*f, z*f)
	})
	return float32(height-y) + float32(features*8)
}

// brownian сумує октави шуму
type brownian struct {
	octaves     int
	frequency   float64
	persistence float64
	lacunarity  float64
}

func (b brownian) apply(sample func(frequency float64) float64) (sum float64) {
	f, amp := b.frequency, 1.0
	for range b.octaves {
		sum += sample(f) * amp
		f *= b.lacunarity
		amp *= b.persistence
	}
	return
}

// lattice повертає псевдовипадкове число [-1, 1] для точки решітки
func lattice(seed uint64, coords ...int64) float64 {
	var buf [8 * 4]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	for i, c := range coords {
		binary.LittleEndian.PutUint64(buf[8*(i+1):], uint64(c))
	}
	h := xxhash.Sum64(buf[:8*(len(coords)+1)])
	return float64(h>>11)/float64(1<<52) - 1
}

func noise2(seed uint64, x, z float64) float64 {
	x0, z0 := math.Floor(x), math.Floor(z)
	tx, tz := smooth(x-x0), smooth(z-z0)
	ix, iz := int64(x0), int64(z0)
	a := lerp(lattice(seed, ix, iz), lattice(seed, ix+1, iz), tx)
	b := lerp(lattice(seed, ix, iz+1), lattice(seed, ix+1, iz+1), tx)
	return lerp(a, b, tz)
}

func noise3(seed uint64, x, y, z float64) float64 {
	x0, y0, z0 := math.Floor(x), math.Floor(y), math.Floor(z)
	tx, ty, tz := smooth(x-x0), smooth(y-y0), smooth(z-z0)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)
	plane := func(iy int64) float64 {
		a := lerp(lattice(seed, ix, iy, iz), lattice(seed, ix+1, iy, iz), tx)
		b := lerp(lattice(seed, ix, iy, iz+1), lattice(seed, ix+1, iy, iz+1), tx)
		return lerp(a, b, tz)
	}
	return lerp(plane(iy), plane(iy+1), ty)
}

func smooth(t float64) float64 { return t * t * (3 - 2*t) }

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
