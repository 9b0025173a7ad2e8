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

// Йоу, чат! Це серце клієнта рельєфу - спільний стан.
// Тут живуть дерево вокселів, лічильники повноти, запити в польоті,
// позиція гравця і стратегія, яка тримає живі меші.
// У кожної частини свій м'ютекс, і жоден шлях коду не тримає два одразу.
// Цикл оновлення отримує Terrain явно, ніяких глобальних змінних.

package world

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"FlowyTerrain/world/mesh"
)

// StrategyKind - як рельєф ділиться на одиниці мешування
type StrategyKind string

const (
	BlockStrategyKind StrategyKind = "block" // цілий блок за раз
	EdgeStrategyKind  StrategyKind = "edge"  // кожне ребро окремо
)

// Config - налаштування рельєфу
type Config struct {
	MaxLoadDistance        int32         // радіус завантаження в блоках
	LODThresholds          []int32       // пороги відстані для LOD
	MaxOutstandingRequests int           // скільки запитів може бути в польоті
	PhaseBudget            time.Duration // час на одну фазу циклу
	PhaseBatch             int           // як часто перевіряти годинник
	RequestTimeout         time.Duration // коли запит вважається загубленим
	RequestRetries         int           // скільки разів перевідправляти
	MeshWorkers            int           // горутини для генерації мешів
	Strategy               StrategyKind
	RequestLimiter         *rate.Limiter // може бути nil
}

// Terrain - спільний стан клієнта рельєфу
type Terrain struct {
	log    *zap.Logger
	config Config

	voxels     *Voxels
	completion *Completion
	requests   *Requests
	ids        mesh.IDAllocator
	player     Player
	strategy   LoadStrategy
	workers    pond.Pool // nil - генеруємо в поточній горутині

	quit atomic.Bool
}

// NewTerrain перевіряє конфіг і створює порожній стан
func NewTerrain(log *zap.Logger, config Config) (*Terrain, error) {
	if err := ValidateThresholds(config.LODThresholds); err != nil {
		return nil, err
	}
	if config.MaxLoadDistance < 0 {
		return nil, fmt.Errorf("negative max load distance %d", config.MaxLoadDistance)
	}
	if config.MaxOutstandingRequests < 1 {
		config.MaxOutstandingRequests = 1
	}
	if config.PhaseBudget <= 0 {
		config.PhaseBudget = time.Millisecond
	}
	if config.PhaseBatch < 1 {
		config.PhaseBatch = 10
	}

	t := &Terrain{
		log:        log,
		config:     config,
		voxels:     NewVoxels(),
		completion: NewCompletion(log.Named("completion")),
		requests:   NewRequests(config.RequestTimeout, config.RequestRetries),
	}
	switch config.Strategy {
	case BlockStrategyKind, "":
		t.strategy = newBlockStrategy(t)
	case EdgeStrategyKind:
		t.strategy = newEdgeStrategy(t)
	default:
		return nil, fmt.Errorf("unknown loading strategy %q", config.Strategy)
	}
	if config.MeshWorkers > 1 {
		t.workers = pond.NewPool(config.MeshWorkers)
	}
	return t, nil
}

// Close зупиняє пул генерації мешів
func (t *Terrain) Close() {
	if t.workers != nil {
		t.workers.StopAndWait()
	}
}

// Voxels повертає сховище вокселів
func (t *Terrain) Voxels() *Voxels { return t.voxels }

// Completion повертає лічильники повноти блоків
func (t *Terrain) Completion() *Completion { return t.completion }

// Requests повертає лічильник запитів у польоті
func (t *Terrain) Requests() *Requests { return t.requests }

// PlayerPosition повертає позицію гравця
func (t *Terrain) PlayerPosition() mgl64.Vec3 { return t.player.Position() }

// SetPlayerPosition оновлює позицію гравця
func (t *Terrain) SetPlayerPosition(pos mgl64.Vec3) {
	if !t.player.SetPosition(pos) {
		t.log.Info("Player move invalid",
			zap.Float64("x", pos[0]),
			zap.Float64("y", pos[1]),
			zap.Float64("z", pos[2]),
		)
	}
}

// IsLoaded перевіряє чи блок зараз показаний на рівні lod
func (t *Terrain) IsLoaded(block BlockPosition, lod LOD) bool {
	cur, ok := t.strategy.LoadedLOD(block)
	return ok && cur == lod
}

// Touching шукає живі трикутники, що перетинаються з box
func (t *Terrain) Touching(box mesh.AABB) []mesh.TriangleID {
	return t.strategy.Touching(box)
}

// Quit просить всі цикли зупинитись
func (t *Terrain) Quit() { t.quit.Store(true) }

// Quitting повертає true після Quit
func (t *Terrain) Quitting() bool { return t.quit.Load() }

// Surroundings повертає все, що залежить від позиції гравця
func (t *Terrain) Surroundings(center BlockPosition) Surroundings {
	return Surroundings{
		Center:      center,
		MaxDistance: t.config.MaxLoadDistance,
		Thresholds:  t.config.LODThresholds,
	}
}

// Surroundings - центр завантаження і правила вибору LOD навколо нього
type Surroundings struct {
	Center      BlockPosition
	MaxDistance int32
	Thresholds  []int32
}

// Distance - відстань блоку від центру
func (s Surroundings) Distance(b BlockPosition) int32 { return DistanceBetween(s.Center, b) }

// InRange перевіряє чи блок в радіусі завантаження
func (s Surroundings) InRange(b BlockPosition) bool { return s.Distance(b) <= s.MaxDistance }

// Desired повертає LOD, який блок має мати з цього центру
func (s Surroundings) Desired(b BlockPosition) LOD { return LODIndex(s.Distance(b), s.Thresholds) }

// meshBlock генерує меш блоку. Блок має бути повним, інакше це баг трекера.
func (t *Terrain) meshBlock(block BlockPosition, lod LOD) (*mesh.Fragment, error) {
	low := block.Bounds().At(LgSampleSize[lod])
	f, err := mesh.GenerateBlock(t.voxels, &t.ids, low, EdgeSamples[lod])
	if err != nil {
		return nil, fmt.Errorf("generate block %v at lod %d: %w", block, lod, err)
	}
	trianglesGenerated.Add(float64(f.Len()))
	return f, nil
}

// meshBlocks генерує кілька блоків паралельно на пулі.
// Помилка генерації - це зламаний інваріант повноти, тому паніка.
func (t *Terrain) meshBlocks(jobs []blockLOD) []*mesh.Fragment {
	out := make([]*mesh.Fragment, len(jobs))
	errs := make([]error, len(jobs))
	if t.workers == nil || len(jobs) < 2 {
		for i, j := range jobs {
			out[i], errs[i] = t.meshBlock(j.block, j.lod)
		}
	} else {
		tasks := make([]pond.Task, len(jobs))
		for i, j := range jobs {
			tasks[i] = t.workers.Submit(func() {
				out[i], errs[i] = t.meshBlock(j.block, j.lod)
			})
		}
		for i, task := range tasks {
			if err := task.Wait(); err != nil && errs[i] == nil {
				errs[i] = err
			}
		}
	}
	for _, err := range errs {
		if err != nil {
			t.log.Panic("Mesh generation failed", zap.Error(err))
		}
	}
	return out
}
