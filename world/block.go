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

// Йоу, чат! Сьогодні ми розберемо блоки!
// Блок - це куб 16x16x16 світових одиниць, одиниця завантаження і мешування.
// Кожен блок семплюється вокселями розміру, який залежить від LOD.
// Щоб згенерувати меш блоку, треба мати не тільки його воксели,
// а ще й один шар сусідніх (halo), бо ребра на межі дивляться в сусіда.

package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"FlowyTerrain/world/voxel"
)

// LgBlockWidth - log2 ширини блоку
const LgBlockWidth = 4

// BlockWidth - ширина блоку у світових одиницях
const BlockWidth = 1 << LgBlockWidth

// BlockPosition - координата блоку
type BlockPosition [3]int32

// Add зсуває позицію блоку
func (b BlockPosition) Add(o BlockPosition) BlockPosition {
	return BlockPosition{b[0] + o[0], b[1] + o[1], b[2] + o[2]}
}

// Bounds повертає блок як воксель розміру блоку
func (b BlockPosition) Bounds() voxel.Bounds {
	return voxel.NewBounds(b[0], b[1], b[2], LgBlockWidth)
}

// OfWorldPosition повертає блок, в якому лежить точка світу
func OfWorldPosition(p mgl64.Vec3) BlockPosition {
	return BlockPosition{
		int32(math.Floor(p[0] / BlockWidth)),
		int32(math.Floor(p[1] / BlockWidth)),
		int32(math.Floor(p[2] / BlockWidth)),
	}
}

// ContainingBlock повертає блок, що містить воксель
func ContainingBlock(v voxel.Bounds) BlockPosition {
	b := v.At(LgBlockWidth)
	return BlockPosition{b.X, b.Y, b.Z}
}

// DistanceBetween - відстань Чебишева між блоками
func DistanceBetween(a, b BlockPosition) int32 {
	return max(abs32(a[0]-b[0]), abs32(a[1]-b[1]), abs32(a[2]-b[2]))
}

// UpdatedBlockPositions повертає всі блоки, лічильники яких зачіпає воксель.
// Перший - блок, що містить воксель. Далі по кожній осі, де воксель на межі,
// додаються сусіди, для яких він є частиною halo. Максимум 8 блоків.
func UpdatedBlockPositions(v voxel.Bounds) []BlockPosition {
	block := ContainingBlock(v)

	var tweak BlockPosition
	nudge := func(axis int, d int32) voxel.Bounds {
		n := v
		switch axis {
		case 0:
			n.X += d
		case 1:
			n.Y += d
		case 2:
			n.Z += d
		}
		return n
	}
	for axis := range 3 {
		switch {
		case ContainingBlock(nudge(axis, 1)) != block:
			tweak[axis] = 1
		case ContainingBlock(nudge(axis, -1)) != block:
			tweak[axis] = -1
		}
	}

	blocks := make([]BlockPosition, 0, 8)
	for _, dx := range offsetsFor(tweak[0]) {
		for _, dy := range offsetsFor(tweak[1]) {
			for _, dz := range offsetsFor(tweak[2]) {
				blocks = append(blocks, block.Add(BlockPosition{dx, dy, dz}))
			}
		}
	}
	return blocks
}

func offsetsFor(t int32) []int32 {
	if t == 0 {
		return []int32{0}
	}
	return []int32{0, t}
}

// Voxels повертає всі воксели, потрібні для мешування блоку на рівні lod:
// сам блок плюс один шар сусідів з кожного боку, тобто (n+2)^3 штук.
func (b BlockPosition) Voxels(lod LOD) []voxel.Bounds {
	lg := LgSampleSize[lod]
	n := EdgeSamples[lod]
	low := b.Bounds().At(lg)
	out := make([]voxel.Bounds, 0, (n+2)*(n+2)*(n+2))
	for dx := int32(-1); dx <= n; dx++ {
		for dy := int32(-1); dy <= n; dy++ {
			for dz := int32(-1); dz <= n; dz++ {
				out = append(out, low.Add(dx, dy, dz))
			}
		}
	}
	return out
}

// CorrectLOD додає до вокселя його дрібнішу версію, якщо блок, в якому він
// лежить, хоче дрібніший LOD. Дрібніша версія має той самий нижній кут.
// Сам воксель лишається в списку.
func CorrectLOD(v voxel.Bounds, desired func(BlockPosition) LOD) []voxel.Bounds {
	lg := LgSampleSize[desired(ContainingBlock(v))]
	if lg >= v.LgSize {
		return []voxel.Bounds{v}
	}
	return []voxel.Bounds{v, v.At(lg)}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
