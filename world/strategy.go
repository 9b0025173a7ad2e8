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
	"FlowyTerrain/world/mesh"
	"FlowyTerrain/world/voxel"
)

// LoadStrategy вирішує, що саме мешується і коли.
// Блокова стратегія мешує цілий блок, коли всі його воксели на місці.
// Реберна мешує кожне ребро, щойно є його 5 вокселів.
type LoadStrategy interface {
	// Load показує блок на рівні lod. Повертає воксели, яких не вистачає,
	// і зміни геометрії, які вже можна показати.
	Load(block BlockPosition, lod LOD, sur Surroundings) (request []voxel.Bounds, up ViewUpdate)
	// Unload прибирає всю геометрію блоку
	Unload(block BlockPosition) ViewUpdate
	// Integrate перемешує все, що зачепили щойно записані воксели.
	// Пачки повертаються в порядку від ближчих до дальших.
	Integrate(touched []TouchedVoxel, sur Surroundings) []ViewUpdate
	// LoadedLOD повертає LOD, з яким блок зараз завантажено
	LoadedLOD(block BlockPosition) (LOD, bool)
	// Touching шукає живі трикутники в box
	Touching(box mesh.AABB) []mesh.TriangleID
}

// TouchedVoxel - воксель, значення якого змінилось при записі
type TouchedVoxel struct {
	Bounds voxel.Bounds
	New    bool // раніше не було. false - перезаписано іншим значенням
}

type blockLOD struct {
	block BlockPosition
	lod   LOD
}
