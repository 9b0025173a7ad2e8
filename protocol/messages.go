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

// Package protocol описує повідомлення між клієнтом рельєфу і сервером.
package protocol

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"FlowyTerrain/world/voxel"
)

// ServerKind - тип повідомлення від сервера
type ServerKind uint8

const (
	KindUpdatePlayer ServerKind = iota + 1
	KindVoxels
)

func (k ServerKind) String() string {
	switch k {
	case KindUpdatePlayer:
		return "update_player"
	case KindVoxels:
		return "voxels"
	}
	return "unknown"
}

// ClientKind - тип повідомлення від клієнта
type ClientKind uint8

const (
	KindInit ClientKind = iota + 1
	KindRequestVoxels
)

func (k ClientKind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindRequestVoxels:
		return "request_voxels"
	}
	return "unknown"
}

// VoxelReason - чому сервер надіслав воксели
type VoxelReason uint8

const (
	Requested VoxelReason = iota // відповідь на RequestVoxels
	Updated                      // світ змінився сам по собі
)

func (r VoxelReason) String() string {
	if r == Updated {
		return "updated"
	}
	return "requested"
}

// VoxelUpdate - значення одного вокселя
type VoxelUpdate struct {
	Bounds voxel.Bounds `json:"bounds"`
	Voxel  voxel.Voxel  `json:"voxel"`
}

// VoxelBatch - пачка вокселів з однією причиною
type VoxelBatch struct {
	Updates []VoxelUpdate `json:"updates"`
	Reason  VoxelReason   `json:"reason"`
}

// PlayerUpdate - нова позиція гравця
type PlayerUpdate struct {
	Position mgl64.Vec3 `json:"position"`
}

// ServerToClient - повідомлення від сервера. Заповнене тільки поле, що
// відповідає Kind.
type ServerToClient struct {
	Kind   ServerKind    `json:"kind"`
	Player *PlayerUpdate `json:"player,omitempty"`
	Voxels *VoxelBatch   `json:"voxels,omitempty"`
}

// ClientToServer - повідомлення від клієнта
type ClientToServer struct {
	Kind     ClientKind     `json:"kind"`
	ClientID uuid.UUID      `json:"client_id"`
	Voxels   []voxel.Bounds `json:"voxels,omitempty"`
}

// Init - перше повідомлення клієнта після підключення
func Init(id uuid.UUID) ClientToServer {
	return ClientToServer{Kind: KindInit, ClientID: id}
}

// RequestVoxels просить сервер надіслати воксели
func RequestVoxels(id uuid.UUID, voxels []voxel.Bounds) ClientToServer {
	return ClientToServer{Kind: KindRequestVoxels, ClientID: id, Voxels: voxels}
}

// UpdatePlayer повідомляє клієнту нову позицію гравця
func UpdatePlayer(pos mgl64.Vec3) ServerToClient {
	return ServerToClient{Kind: KindUpdatePlayer, Player: &PlayerUpdate{Position: pos}}
}

// Voxels загортає пачку вокселів
func Voxels(reason VoxelReason, updates []VoxelUpdate) ServerToClient {
	return ServerToClient{Kind: KindVoxels, Voxels: &VoxelBatch{Updates: updates, Reason: reason}}
}
