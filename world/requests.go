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

// Йоу, чат! Це лічильник запитів "в польоті".
// Поки він на максимумі, нові запити вокселів не йдуть - так сервер
// не захлинається. Відповідь не несе номера запиту, тому зіставляємо
// її із запитом за списком вокселів, а якщо не вийшло - по черзі (FIFO).
// Якщо сервер мовчить довше за timeout, запит вважається загубленим
// і відправляється ще раз.

package world

import (
	"slices"
	"sync"
	"time"

	"FlowyTerrain/world/voxel"
)

type pendingRequest struct {
	voxels   []voxel.Bounds
	deadline time.Time
	attempt  int
}

// Requests - черга запитів, на які ще немає відповіді
type Requests struct {
	mu      sync.Mutex
	pending []pendingRequest
	timeout time.Duration
	retries int
}

// NewRequests створює лічильник. timeout <= 0 вимикає перевідправку.
func NewRequests(timeout time.Duration, retries int) *Requests {
	return &Requests{timeout: timeout, retries: retries}
}

// Outstanding повертає кількість запитів в польоті
func (r *Requests) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Add реєструє відправлений запит
func (r *Requests) Add(voxels []voxel.Bounds, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, pendingRequest{voxels: voxels, deadline: now.Add(r.timeout)})
	outstandingRequests.Set(float64(len(r.pending)))
}

// Done закриває запит, на який прийшла відповідь з вокселями bounds.
// Сервер відповідає тими ж вокселями в тому ж порядку, тож шукаємо запис
// з таким самим списком. Якщо такого немає - закриваємо найстаріший.
// false - якщо закривати нічого (відповідь прийшла після того, як запит
// вже прострочено).
func (r *Requests) Done(bounds []voxel.Bounds) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return false
	}
	i := slices.IndexFunc(r.pending, func(p pendingRequest) bool {
		return slices.Equal(p.voxels, bounds)
	})
	if i < 0 {
		i = 0
	}
	r.pending = slices.Delete(r.pending, i, i+1)
	outstandingRequests.Set(float64(len(r.pending)))
	return true
}

// Expire прибирає прострочені запити. Ті, в яких ще є спроби,
// повертаються в resend і знову стають в чергу з новим дедлайном.
func (r *Requests) Expire(now time.Time) (resend [][]voxel.Bounds, dropped int) {
	if r.timeout <= 0 {
		return nil, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.pending[:0]
	var again []pendingRequest
	for _, p := range r.pending {
		switch {
		case now.Before(p.deadline):
			kept = append(kept, p)
		case p.attempt < r.retries:
			p.attempt++
			p.deadline = now.Add(r.timeout)
			again = append(again, p)
			resend = append(resend, p.voxels)
		default:
			dropped++
		}
	}
	r.pending = append(kept, again...)
	outstandingRequests.Set(float64(len(r.pending)))
	return
}
