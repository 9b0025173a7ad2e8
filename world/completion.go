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

// Йоу, чат! Як дізнатись, що блок можна мешувати?
// Рахуємо скільки його вокселів (разом з halo) вже приїхало.
// Коли лічильник дорівнює (n+2)^3 - блок повний.
// Рахувати треба тільки нові координати, повторний воксель не рахується.

package world

import (
	"sync"

	"github.com/brentp/intintmap"
	"go.uber.org/zap"
)

// Completion - лічильники завантажених вокселів по (блок, lod)
type Completion struct {
	log    *zap.Logger
	mu     sync.Mutex
	counts *intintmap.Map
}

// NewCompletion створює порожній трекер
func NewCompletion(log *zap.Logger) *Completion {
	return &Completion{
		log:    log,
		counts: intintmap.New(1<<12, 0.6),
	}
}

// Record додає один воксель до лічильника блоку і повертає чи блок тепер повний.
// Переповнення лічильника - це баг у підрахунку, тому паніка.
func (c *Completion) Record(block BlockPosition, lod LOD) (complete bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := completionKey(block, lod)
	count, _ := c.counts.Get(key)
	count++
	target := int64(SamplesFor(lod))
	if count > target {
		c.log.Panic("Block voxel count overflow",
			zap.Int32("x", block[0]),
			zap.Int32("y", block[1]),
			zap.Int32("z", block[2]),
			zap.Uint8("lod", uint8(lod)),
			zap.Int64("count", count),
			zap.Int64("target", target),
		)
	}
	c.counts.Put(key, count)
	return count == target
}

// Count повертає поточне значення лічильника
func (c *Completion) Count(block BlockPosition, lod LOD) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	count, _ := c.counts.Get(completionKey(block, lod))
	return uint32(count)
}

// IsComplete перевіряє чи всі воксели блоку на рівні lod вже є
func (c *Completion) IsComplete(block BlockPosition, lod LOD) bool {
	return c.Count(block, lod) == SamplesFor(lod)
}

// completionKey пакує (блок, lod) в int64: по 20 біт на вісь і 4 біти на lod
func completionKey(block BlockPosition, lod LOD) int64 {
	const mask = 1<<20 - 1
	return int64(block[0]&mask)<<44 |
		int64(block[1]&mask)<<24 |
		int64(block[2]&mask)<<4 |
		int64(lod&0xF)
}
