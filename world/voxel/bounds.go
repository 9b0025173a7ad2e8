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

// Йоу, чат! Тут живуть координати вокселів.
// Воксель - це куб на решітці з певною роздільністю. Роздільність
// задається показником lg: куб має сторону 2^lg світових одиниць.
// Координати (X, Y, Z) - це номер куба на решітці цього розміру,
// тобто куб займає [X·2^lg, (X+1)·2^lg) по кожній осі.

package voxel

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds - координата вокселя на решітці з показником LgSize
type Bounds struct {
	X      int32 `json:"x"`
	Y      int32 `json:"y"`
	Z      int32 `json:"z"`
	LgSize int16 `json:"lg"`
}

// NewBounds створює координату вокселя
func NewBounds(x, y, z int32, lgSize int16) Bounds {
	return Bounds{X: x, Y: y, Z: z, LgSize: lgSize}
}

// Size повертає довжину сторони вокселя у світових одиницях
func (b Bounds) Size() float32 {
	return float32(math.Ldexp(1, int(b.LgSize)))
}

// Corners повертає нижній та верхній кути вокселя у світових координатах
func (b Bounds) Corners() (low, high mgl32.Vec3) {
	size := b.Size()
	low = mgl32.Vec3{float32(b.X) * size, float32(b.Y) * size, float32(b.Z) * size}
	high = low.Add(mgl32.Vec3{size, size, size})
	return
}

// Add зсуває воксель на (dx, dy, dz) кроків його ж решітки
func (b Bounds) Add(dx, dy, dz int32) Bounds {
	return Bounds{X: b.X + dx, Y: b.Y + dy, Z: b.Z + dz, LgSize: b.LgSize}
}

// Parent повертає воксель вдвічі більший, що містить цей
func (b Bounds) Parent() Bounds {
	return Bounds{X: b.X >> 1, Y: b.Y >> 1, Z: b.Z >> 1, LgSize: b.LgSize + 1}
}

// At повертає предка (або нащадка з тим самим нижнім кутом) на рівні lg.
// Зсув арифметичний, тому для від'ємних координат маємо floor.
func (b Bounds) At(lg int16) Bounds {
	if lg >= b.LgSize {
		s := uint(lg - b.LgSize)
		return Bounds{X: b.X >> s, Y: b.Y >> s, Z: b.Z >> s, LgSize: lg}
	}
	s := uint(b.LgSize - lg)
	return Bounds{X: b.X << s, Y: b.Y << s, Z: b.Z << s, LgSize: lg}
}

// Contains перевіряє чи other повністю лежить всередині b
func (b Bounds) Contains(other Bounds) bool {
	if other.LgSize > b.LgSize {
		return false
	}
	return other.At(b.LgSize) == b
}

// child повертає i-го нащадка (біти i: x, y, z)
func (b Bounds) child(i int) Bounds {
	return Bounds{
		X:      b.X<<1 | int32(i&1),
		Y:      b.Y<<1 | int32(i>>1&1),
		Z:      b.Z<<1 | int32(i>>2&1),
		LgSize: b.LgSize - 1,
	}
}

// childIndex - номер вокселя серед 8 нащадків його батька
func (b Bounds) childIndex() int {
	return int(b.X&1) | int(b.Y&1)<<1 | int(b.Z&1)<<2
}

func (b Bounds) String() string {
	return fmt.Sprintf("(%d, %d, %d)@%d", b.X, b.Y, b.Z, b.LgSize)
}
