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

// Йоу, чат! Сьогодні ми розберемо звідки сервер бере воксели!
// Ніяких файлів: кожен воксель семплюється з поля густини на льоту.
// Вже згенеровані воксели лежать у власному дереві сервера,
// тож повторний запит нічого не рахує заново.

package server

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"

	"FlowyTerrain/protocol"
	"FlowyTerrain/world/voxel"
)

// ErrReachRateLimit повертається коли перевищено ліміт генерації
var ErrReachRateLimit = errors.New("reach rate limit")

// Provider генерує воксели з поля густини
type Provider struct {
	field   voxel.Field
	limiter *rate.Limiter // обмежувач запитів, nil - без ліміту

	mu    sync.Mutex
	cache *voxel.Tree[voxel.Voxel]
}

// NewProvider створює провайдер
func NewProvider(field voxel.Field, limiter *rate.Limiter) *Provider {
	return &Provider{field: field, limiter: limiter, cache: voxel.NewTree[voxel.Voxel]()}
}

// Voxels семплює всі запитані воксели. Один виклик - один токен ліміту.
func (p *Provider) Voxels(bounds []voxel.Bounds) ([]protocol.VoxelUpdate, error) {
	if p.limiter != nil && !p.limiter.Allow() {
		return nil, ErrReachRateLimit
	}
	updates := make([]protocol.VoxelUpdate, len(bounds))
	for i, b := range bounds {
		updates[i] = protocol.VoxelUpdate{Bounds: b, Voxel: p.Voxel(b)}
	}
	return updates, nil
}

// Voxel повертає один воксель, генеруючи його при першому зверненні
func (p *Provider) Voxel(b voxel.Bounds) voxel.Voxel {
	p.mu.Lock()
	if v, ok := p.cache.Get(b); ok {
		p.mu.Unlock()
		return v
	}
	p.mu.Unlock()

	v := voxel.Generate(p.field, b)

	p.mu.Lock()
	p.cache.Put(b, v)
	p.mu.Unlock()
	return v
}

// Cached повертає кількість збережених вокселів
func (p *Provider) Cached() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Len()
}

// Put перезаписує воксели, наприклад після зміни світу
func (p *Provider) Put(updates []protocol.VoxelUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range updates {
		p.cache.Put(u.Bounds, u.Voxel)
	}
}
