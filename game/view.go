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

package game

import (
	"sync"

	"go.uber.org/zap"

	"FlowyTerrain/world"
	"FlowyTerrain/world/mesh"
)

// LogView - рендер без екрану: рахує живі трикутники і пише в лог
type LogView struct {
	log *zap.Logger

	mu        sync.Mutex
	live      map[mesh.TriangleID]struct{}
	updates   int
	fragments int
}

// NewLogView створює порожній рендер
func NewLogView(log *zap.Logger) *LogView {
	return &LogView{log: log, live: make(map[mesh.TriangleID]struct{})}
}

// Apply застосовує пачку змін цілком
func (v *LogView) Apply(up world.ViewUpdate) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var added, removed int
	for _, c := range up {
		switch c.Kind {
		case world.AddFragment:
			for _, id := range c.Fragment.IDs {
				v.live[id] = struct{}{}
			}
			added += c.Fragment.Len()
			v.fragments++
		case world.RemoveFragment:
			if _, ok := v.live[c.ID]; !ok {
				v.log.Warn("Remove of unknown triangle", zap.Uint64("id", uint64(c.ID)))
				continue
			}
			delete(v.live, c.ID)
			removed++
		}
	}
	v.updates++
	v.log.Debug("View update",
		zap.Int("added", added),
		zap.Int("removed", removed),
		zap.Int("live", len(v.live)),
	)
}

// Live повертає кількість живих трикутників
func (v *LogView) Live() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.live)
}

// Updates повертає кількість застосованих пачок
func (v *LogView) Updates() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.updates
}
