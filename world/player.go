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

package world

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Player - позиція гравця, навколо якого вантажиться рельєф.
// Пишуть її мережа та ігровий шар, читає цикл оновлення.
type Player struct {
	mu       sync.Mutex
	position mgl64.Vec3
}

// Position повертає поточну позицію
func (p *Player) Position() mgl64.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// SetPosition оновлює позицію. NaN, нескінченність і точки за межею світу відкидаються.
func (p *Player) SetPosition(pos mgl64.Vec3) bool {
	if !IsValidPosition(pos) {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.position = pos
	return true
}

// MaxWorldCoordinate - межа світу по кожній осі.
// Ключ повноти тримає 20 біт на координату блоку, тому блоки
// мають лишатись в межах ±2^18 разом з радіусом завантаження.
const MaxWorldCoordinate = BlockWidth << 18

// IsValidPosition перевіряє що всі координати - звичайні числа в межах світу
func IsValidPosition(pos mgl64.Vec3) bool {
	for _, c := range pos {
		if math.IsNaN(c) || math.IsInf(c, 0) || math.Abs(c) >= MaxWorldCoordinate {
			return false
		}
	}
	return true
}
