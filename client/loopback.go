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

package client

import (
	"sync"

	"FlowyTerrain/protocol"
)

// Loopback - канал до сервера в тому ж процесі, без мережі.
// Клієнтська сторона - TryServer/TryVoxels/Send, серверна - Requests/Deliver.
type Loopback struct {
	server   chan protocol.ServerToClient
	voxels   chan protocol.VoxelBatch
	requests chan protocol.ClientToServer

	closeOnce sync.Once
	closed    chan struct{}
}

// NewLoopback створює канал з чергами розміру size
func NewLoopback(size int) *Loopback {
	return &Loopback{
		server:   make(chan protocol.ServerToClient, size),
		voxels:   make(chan protocol.VoxelBatch, size),
		requests: make(chan protocol.ClientToServer, size),
		closed:   make(chan struct{}),
	}
}

// Close закриває канал з обох боків
func (l *Loopback) Close() {
	l.closeOnce.Do(func() { close(l.closed) })
}

// Closed закривається разом з каналом
func (l *Loopback) Closed() <-chan struct{} { return l.closed }

// TryServer повертає наступне не-воксельне повідомлення, не блокуючи
func (l *Loopback) TryServer() (protocol.ServerToClient, bool) {
	select {
	case msg := <-l.server:
		return msg, true
	default:
		return protocol.ServerToClient{}, false
	}
}

// TryVoxels повертає наступну пачку вокселів, не блокуючи
func (l *Loopback) TryVoxels() (protocol.VoxelBatch, bool) {
	select {
	case batch := <-l.voxels:
		return batch, true
	default:
		return protocol.VoxelBatch{}, false
	}
}

// Send передає повідомлення серверу
func (l *Loopback) Send(msg protocol.ClientToServer) error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}
	select {
	case l.requests <- msg:
		return nil
	case <-l.closed:
		return ErrClosed
	}
}

// Requests - повідомлення від клієнта, для серверної сторони
func (l *Loopback) Requests() <-chan protocol.ClientToServer { return l.requests }

// Deliver передає повідомлення клієнту. Воксели йдуть в окрему чергу.
func (l *Loopback) Deliver(msg protocol.ServerToClient) error {
	if msg.Kind == protocol.KindVoxels && msg.Voxels != nil {
		select {
		case l.voxels <- *msg.Voxels:
			return nil
		case <-l.closed:
			return ErrClosed
		}
	}
	select {
	case l.server <- msg:
		return nil
	case <-l.closed:
		return ErrClosed
	}
}
