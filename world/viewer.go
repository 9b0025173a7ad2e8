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

// Йоу, чат! Тут описано з ким рельєф спілкується назовні.
// View - це рендер: він отримує пачки змін геометрії і застосовує їх
// цілком, щоб ніколи не показати блок наполовину заміненим.
// Channel - це мережа: звідти приходять воксели та інші повідомлення
// сервера, туди йдуть запити.

package world

import (
	"FlowyTerrain/protocol"
	"FlowyTerrain/world/mesh"
)

// ChangeKind - тип зміни в пачці для рендеру
type ChangeKind uint8

const (
	AddFragment    ChangeKind = iota // додати фрагмент геометрії
	RemoveFragment                   // прибрати один трикутник
)

// Change - одна зміна геометрії
type Change struct {
	Kind     ChangeKind
	Key      any            // BlockPosition або Edge, тільки для AddFragment
	Fragment *mesh.Fragment // тільки для AddFragment
	LOD      LOD            // тільки для AddFragment
	ID       mesh.TriangleID
}

// ViewUpdate - атомарна пачка змін. Рендер застосовує її цілком.
type ViewUpdate []Change

// Empty - пачка без змін
func (u ViewUpdate) Empty() bool { return len(u) == 0 }

// View - рендер, який показує рельєф
type View interface {
	Apply(up ViewUpdate)
}

// ViewFunc дозволяє використати функцію як View
type ViewFunc func(up ViewUpdate)

func (f ViewFunc) Apply(up ViewUpdate) { f(up) }

// Channel - канал до сервера. Всі методи Try* не блокують.
type Channel interface {
	TryServer() (protocol.ServerToClient, bool) // інші повідомлення сервера
	TryVoxels() (protocol.VoxelBatch, bool)     // пачки вокселів
	Send(msg protocol.ClientToServer) error     // запит на сервер
}
