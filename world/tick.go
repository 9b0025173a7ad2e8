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

// Йоу, чат! Сьогодні ми розберемо цикл оновлення рельєфу!
// Одна ітерація - це три фази по черзі:
//  1. повідомлення сервера (позиція гравця, пачки вокселів, прострочені запити);
//  2. оточення гравця: що завантажити, що оновити, що викинути;
//  3. нові воксели: записати в дерево і перемешувати зачеплене.
// Кожна фаза має бюджет часу, а годинник дивимось раз на PhaseBatch
// елементів. Так жодна фаза не забирає весь цикл собі.

package world

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"FlowyTerrain/protocol"
	"FlowyTerrain/world/voxel"
)

// idleInterval - пауза, якщо за ітерацію нічого не сталося
const idleInterval = time.Millisecond

// Pipeline - цикл оновлення для одного клієнта
type Pipeline struct {
	log      *zap.Logger
	terrain  *Terrain
	channel  Channel
	view     View
	loader   *Loader
	clientID uuid.UUID

	pending []protocol.VoxelBatch // воксели, що прийшли через чергу сервера

	now func() time.Time
}

// NewPipeline створює цикл оновлення
func NewPipeline(log *zap.Logger, t *Terrain, channel Channel, view View, clientID uuid.UUID) *Pipeline {
	thresholds := t.config.LODThresholds
	return &Pipeline{
		log:      log,
		terrain:  t,
		channel:  channel,
		view:     view,
		loader:   NewLoader(t.config.MaxLoadDistance, func(d int32) LOD { return LODIndex(d, thresholds) }),
		clientID: clientID,
		now:      time.Now,
	}
}

// Run крутить цикл, поки не скасують ctx або хтось не викличе Quit
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Info("Update loop start", zap.Stringer("client", p.clientID))
	defer p.log.Info("Update loop exit")

	ticker := time.NewTicker(idleInterval)
	defer ticker.Stop()
	for !p.terrain.Quitting() {
		if p.Step() {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Step виконує одну ітерацію. true - якщо була хоч якась робота.
func (p *Pipeline) Step() (busy bool) {
	busy = p.timed("server", p.processServerUpdates)
	busy = p.timed("surroundings", p.updateSurroundings) || busy
	busy = p.timed("voxels", p.processVoxelUpdates) || busy
	return
}

func (p *Pipeline) timed(phase string, fn func() bool) bool {
	start := time.Now()
	defer func() { phaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds()) }()
	return fn()
}

func (p *Pipeline) processServerUpdates() (busy bool) {
	p.expireRequests()
	b := p.budget()
	for !b.exhausted() {
		msg, ok := p.channel.TryServer()
		if !ok {
			return
		}
		busy = true
		switch msg.Kind {
		case protocol.KindUpdatePlayer:
			if msg.Player != nil {
				p.terrain.SetPlayerPosition(msg.Player.Position)
			}
		case protocol.KindVoxels:
			if msg.Voxels != nil {
				p.pending = append(p.pending, *msg.Voxels)
			}
		default:
			p.log.Debug("Unhandled server message", zap.Stringer("kind", msg.Kind))
		}
	}
	return
}

func (p *Pipeline) expireRequests() {
	resend, dropped := p.terrain.requests.Expire(p.now())
	if dropped > 0 {
		p.log.Warn("Voxel requests lost", zap.Int("count", dropped))
		voxelRequests.WithLabelValues("expired").Add(float64(dropped))
	}
	for _, voxels := range resend {
		if err := p.channel.Send(protocol.RequestVoxels(p.clientID, voxels)); err != nil {
			p.sendFailed(err)
			return
		}
		voxelRequests.WithLabelValues("retried").Inc()
	}
}

func (p *Pipeline) updateSurroundings() (busy bool) {
	t := p.terrain
	sur := t.Surroundings(OfWorldPosition(t.PlayerPosition()))
	it := p.loader.Updates(sur.Center)
	b := p.budget()
	for t.requests.Outstanding() < t.config.MaxOutstandingRequests && !t.Quitting() {
		ev, ok := it.Next()
		if !ok {
			return
		}
		busy = true
		if !p.handleLoadEvent(ev, sur) {
			return
		}
		p.loader.Ack(ev)
		if b.exhausted() {
			return
		}
	}
	return
}

// handleLoadEvent обробляє одну подію завантажувача.
// false - ліміт запитів вичерпано, подію треба буде повторити.
func (p *Pipeline) handleLoadEvent(ev LoadEvent, sur Surroundings) bool {
	strategy := p.terrain.strategy
	switch ev.Type {
	case Unload:
		p.apply(strategy.Unload(ev.Block))
		return true
	case Update:
		// на грубіший LOD не перемикаємось, поки сам блок не перемешиться
		if cur, ok := strategy.LoadedLOD(ev.Block); ok && sur.Desired(ev.Block) >= cur {
			return true
		}
	}
	if l := p.terrain.config.RequestLimiter; l != nil && !l.Allow() {
		return false
	}
	p.loadBlock(ev.Block, sur)
	return true
}

// LoadBlock показує блок з поточної позиції гравця і за потреби
// запитує в сервера воксели, яких не вистачає
func (p *Pipeline) LoadBlock(block BlockPosition) {
	t := p.terrain
	p.loadBlock(block, t.Surroundings(OfWorldPosition(t.PlayerPosition())))
}

func (p *Pipeline) loadBlock(block BlockPosition, sur Surroundings) {
	if !sur.InRange(block) {
		p.log.Debug("Not loading block: too far away",
			zap.Int32("x", block[0]),
			zap.Int32("y", block[1]),
			zap.Int32("z", block[2]),
			zap.Int32("distance", sur.Distance(block)),
		)
		return
	}
	request, up := p.terrain.strategy.Load(block, sur.Desired(block), sur)
	p.apply(up)
	if len(request) > 0 {
		p.request(request)
	}
}

func (p *Pipeline) request(voxels []voxel.Bounds) {
	if err := p.channel.Send(protocol.RequestVoxels(p.clientID, voxels)); err != nil {
		p.sendFailed(err)
		return
	}
	p.terrain.requests.Add(voxels, p.now())
	voxelRequests.WithLabelValues("sent").Inc()
}

func (p *Pipeline) sendFailed(err error) {
	p.log.Error("Send voxel request fail", zap.Error(err))
	p.terrain.Quit()
}

func (p *Pipeline) processVoxelUpdates() (busy bool) {
	b := p.budget()
	for !b.exhausted() {
		batch, ok := p.nextVoxelBatch()
		if !ok {
			return
		}
		busy = true
		p.integrate(batch)
	}
	return
}

func (p *Pipeline) nextVoxelBatch() (protocol.VoxelBatch, bool) {
	if len(p.pending) > 0 {
		batch := p.pending[0]
		p.pending = p.pending[1:]
		return batch, true
	}
	return p.channel.TryVoxels()
}

// integrate записує пачку вокселів і перемешує все, що вона зачепила
func (p *Pipeline) integrate(batch protocol.VoxelBatch) {
	t := p.terrain
	touched := make([]TouchedVoxel, 0, len(batch.Updates))
	bounds := make([]voxel.Bounds, len(batch.Updates))
	for i, u := range batch.Updates {
		bounds[i] = u.Bounds
		isNew, changed := t.voxels.Put(u.Bounds, u.Voxel)
		if !changed {
			continue
		}
		if isNew {
			if lod, ok := LODOfLgSize(u.Bounds.LgSize); ok {
				for _, b := range UpdatedBlockPositions(u.Bounds) {
					t.completion.Record(b, lod)
				}
			}
		}
		touched = append(touched, TouchedVoxel{Bounds: u.Bounds, New: isNew})
	}
	voxelsReceived.WithLabelValues(batch.Reason.String()).Add(float64(len(batch.Updates)))

	sur := t.Surroundings(OfWorldPosition(t.PlayerPosition()))
	for _, up := range t.strategy.Integrate(touched, sur) {
		p.apply(up)
	}

	if batch.Reason == protocol.Requested && !t.requests.Done(bounds) {
		p.log.Debug("Voxel response without outstanding request")
	}
}

func (p *Pipeline) apply(up ViewUpdate) {
	if !up.Empty() {
		p.view.Apply(up)
	}
}

// budget - ліміт часу на фазу
type budget struct {
	start time.Time
	limit time.Duration
	every int
	n     int
	now   func() time.Time
}

func (p *Pipeline) budget() *budget {
	return &budget{
		start: p.now(),
		limit: p.terrain.config.PhaseBudget,
		every: p.terrain.config.PhaseBatch,
		now:   p.now,
	}
}

// exhausted рахує ще один елемент і раз на every елементів дивиться на годинник
func (b *budget) exhausted() bool {
	if b.n++; b.n < b.every {
		return false
	}
	b.n = 0
	return b.now().Sub(b.start) >= b.limit
}
