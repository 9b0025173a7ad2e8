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
	"sync"

	"FlowyTerrain/world/voxel"
)

// Voxels - дерево семплів під м'ютексом.
// Лок береться на один пошук або запис, ніколи на весь меш.
type Voxels struct {
	mu   sync.Mutex
	tree *voxel.Tree[voxel.Voxel]
}

// NewVoxels створює порожнє сховище
func NewVoxels() *Voxels {
	return &Voxels{tree: voxel.NewTree[voxel.Voxel]()}
}

// Get повертає воксель, якщо він є
func (v *Voxels) Get(b voxel.Bounds) (voxel.Voxel, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree.Get(b)
}

// Has перевіряє чи воксель вже завантажено
func (v *Voxels) Has(b voxel.Bounds) bool {
	_, ok := v.Get(b)
	return ok
}

// Put записує воксель.
// isNew - координати раніше не було, changed - значення стало іншим.
func (v *Voxels) Put(b voxel.Bounds, vx voxel.Voxel) (isNew, changed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	old, existed := v.tree.Put(b, vx)
	return !existed, !existed || old != vx
}

// Len повертає кількість вокселів
func (v *Voxels) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tree.Len()
}
