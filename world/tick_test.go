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
	"errors"
	"maps"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"

	"FlowyTerrain/protocol"
	"FlowyTerrain/world/mesh"
	"FlowyTerrain/world/voxel"
)

// plane - горизонтальна земля на висоті 8.5, всередині блоків y=0
var plane = voxel.FieldFunc(func(p mgl32.Vec3) float32 { return 8.5 - p.Y() })

// fakeChannel відповідає на запити одразу, генеруючи воксели з поля
type fakeChannel struct {
	field   voxel.Field
	silent  bool  // не відповідати на запити
	sendErr error // помилка для кожного Send

	server []protocol.ServerToClient
	voxels []protocol.VoxelBatch
	sent   [][]voxel.Bounds
}

func (c *fakeChannel) TryServer() (protocol.ServerToClient, bool) {
	if len(c.server) == 0 {
		return protocol.ServerToClient{}, false
	}
	msg := c.server[0]
	c.server = c.server[1:]
	return msg, true
}

func (c *fakeChannel) TryVoxels() (protocol.VoxelBatch, bool) {
	if len(c.voxels) == 0 {
		return protocol.VoxelBatch{}, false
	}
	batch := c.voxels[0]
	c.voxels = c.voxels[1:]
	return batch, true
}

func (c *fakeChannel) Send(msg protocol.ClientToServer) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, msg.Voxels)
	if !c.silent {
		c.voxels = append(c.voxels, c.answer(msg.Voxels))
	}
	return nil
}

// answer будує відповідь сервера на запит
func (c *fakeChannel) answer(bounds []voxel.Bounds) protocol.VoxelBatch {
	updates := make([]protocol.VoxelUpdate, len(bounds))
	for i, b := range bounds {
		updates[i] = protocol.VoxelUpdate{Bounds: b, Voxel: voxel.Generate(c.field, b)}
	}
	return protocol.VoxelBatch{Updates: updates, Reason: protocol.Requested}
}

// viewRecorder - рендер, який перевіряє, що видаляються тільки живі трикутники
type viewRecorder struct {
	t       *testing.T
	live    map[mesh.TriangleID]struct{}
	updates int
}

func newViewRecorder(t *testing.T) *viewRecorder {
	return &viewRecorder{t: t, live: make(map[mesh.TriangleID]struct{})}
}

func (v *viewRecorder) Apply(up ViewUpdate) {
	v.updates++
	for _, ch := range up {
		switch ch.Kind {
		case AddFragment:
			for _, id := range ch.Fragment.IDs {
				_, dup := v.live[id]
				require.False(v.t, dup, "triangle %d added twice", id)
				v.live[id] = struct{}{}
			}
		case RemoveFragment:
			_, ok := v.live[ch.ID]
			require.True(v.t, ok, "triangle %d removed but not live", ch.ID)
			delete(v.live, ch.ID)
		}
	}
}

func testConfig(strategy StrategyKind) Config {
	return Config{
		MaxLoadDistance:        1,
		LODThresholds:          []int32{0, 1},
		MaxOutstandingRequests: 1,
		PhaseBudget:            time.Second,
		PhaseBatch:             10,
		RequestTimeout:         time.Second,
		RequestRetries:         1,
		MeshWorkers:            2,
		Strategy:               strategy,
	}
}

func newTestPipeline(t *testing.T, config Config) (*Pipeline, *fakeChannel, *viewRecorder) {
	terrain, err := NewTerrain(zaptest.NewLogger(t), config)
	require.NoError(t, err)
	t.Cleanup(terrain.Close)

	ch := &fakeChannel{field: plane}
	view := newViewRecorder(t)
	return NewPipeline(zaptest.NewLogger(t), terrain, ch, view, uuid.New()), ch, view
}

// settle крутить цикл, поки не залишиться жодної роботи
func settle(t *testing.T, p *Pipeline) {
	t.Helper()
	for range 100000 {
		if !p.Step() && p.terrain.requests.Outstanding() == 0 {
			return
		}
	}
	t.Fatal("pipeline did not settle")
}

func TestNewTerrain_BadConfig(t *testing.T) {
	c := testConfig(BlockStrategyKind)
	c.LODThresholds = []int32{3, 1}
	_, err := NewTerrain(zaptest.NewLogger(t), c)
	require.Error(t, err)

	c = testConfig("octree")
	_, err = NewTerrain(zaptest.NewLogger(t), c)
	require.Error(t, err)
}

var (
	strategies = []StrategyKind{BlockStrategyKind, EdgeStrategyKind}
	huge       = mesh.AABB{Min: mgl32.Vec3{-1e4, -1e4, -1e4}, Max: mgl32.Vec3{1e4, 1e4, 1e4}}
)

func TestPipeline_LoadAround(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			p, ch, view := newTestPipeline(t, testConfig(strategy))

			settle(t, p)
			terrain := p.terrain
			require.True(t, terrain.IsLoaded(BlockPosition{}, 0))
			require.True(t, terrain.IsLoaded(BlockPosition{1, 0, 0}, 1))
			require.True(t, terrain.IsLoaded(BlockPosition{-1, 1, -1}, 1))
			require.False(t, terrain.IsLoaded(BlockPosition{2, 0, 0}, 1))
			require.Zero(t, terrain.Requests().Outstanding())
			require.NotEmpty(t, ch.sent)

			// центр: 16x16 перетинів по 4 трикутники, кільце: 8 блоків по 8x8
			require.Len(t, view.live, 1024+8*256)
			require.Len(t, terrain.Touching(huge), len(view.live))

			// гравець пішов на два блоки вздовж x
			ch.server = append(ch.server, protocol.UpdatePlayer(mgl64.Vec3{40, 8, 8}))
			settle(t, p)
			require.Equal(t, mgl64.Vec3{40, 8, 8}, terrain.PlayerPosition())
			require.True(t, terrain.IsLoaded(BlockPosition{2, 0, 0}, 0))
			require.True(t, terrain.IsLoaded(BlockPosition{1, 0, 0}, 1))
			_, ok := terrain.strategy.LoadedLOD(BlockPosition{})
			require.False(t, ok)
			_, ok = terrain.strategy.LoadedLOD(BlockPosition{-1, 0, 0})
			require.False(t, ok)
			require.Len(t, view.live, 1024+8*256)
			require.Len(t, terrain.Touching(huge), len(view.live))
		})
	}
}

func TestPipeline_InvalidPlayerMove(t *testing.T) {
	p, ch, _ := newTestPipeline(t, testConfig(BlockStrategyKind))
	ch.server = append(ch.server, protocol.UpdatePlayer(mgl64.Vec3{8, 8, 8}))
	p.processServerUpdates()
	ch.server = append(ch.server,
		protocol.UpdatePlayer(mgl64.Vec3{math.NaN(), 0, 0}),
		protocol.UpdatePlayer(mgl64.Vec3{8, 1e11, 8}),
	)
	p.processServerUpdates()
	require.Equal(t, mgl64.Vec3{8, 8, 8}, p.terrain.PlayerPosition())
}

func TestPipeline_LoadBlockTooFar(t *testing.T) {
	p, ch, view := newTestPipeline(t, testConfig(BlockStrategyKind))
	p.LoadBlock(BlockPosition{5, 0, 0})
	require.Empty(t, ch.sent)
	require.Zero(t, view.updates)
	require.Zero(t, p.terrain.Requests().Outstanding())
	require.Zero(t, p.terrain.Completion().Count(BlockPosition{5, 0, 0}, 0))
}

func TestPipeline_InteriorVoxel(t *testing.T) {
	p, _, _ := newTestPipeline(t, testConfig(BlockStrategyKind))
	completion := p.terrain.Completion()
	b := voxel.NewBounds(5, 5, 5, 0)
	batch := protocol.VoxelBatch{
		Updates: []protocol.VoxelUpdate{{Bounds: b, Voxel: voxel.Generate(plane, b)}},
		Reason:  protocol.Updated,
	}

	p.integrate(batch)
	require.Equal(t, uint32(1), completion.Count(BlockPosition{}, 0))
	require.Zero(t, completion.Count(BlockPosition{1, 0, 0}, 0))
	require.Zero(t, completion.Count(BlockPosition{-1, 0, 0}, 0))
	require.True(t, p.terrain.Voxels().Has(b))

	// повторний воксель не рахується вдруге
	p.integrate(batch)
	require.Equal(t, uint32(1), completion.Count(BlockPosition{}, 0))

	// воксель в куті рахується для всіх восьми блоків
	corner := voxel.NewBounds(0, 0, 0, 0)
	p.integrate(protocol.VoxelBatch{
		Updates: []protocol.VoxelUpdate{{Bounds: corner, Voxel: voxel.Generate(plane, corner)}},
		Reason:  protocol.Updated,
	})
	require.Equal(t, uint32(2), completion.Count(BlockPosition{}, 0))
	require.Equal(t, uint32(1), completion.Count(BlockPosition{-1, -1, -1}, 0))
}

func TestPipeline_SendErrorQuits(t *testing.T) {
	p, ch, _ := newTestPipeline(t, testConfig(BlockStrategyKind))
	ch.sendErr = errors.New("connection reset")
	p.Step()
	require.True(t, p.terrain.Quitting())
	require.Zero(t, p.terrain.Requests().Outstanding())
}

func TestPipeline_RetryLostRequest(t *testing.T) {
	p, ch, _ := newTestPipeline(t, testConfig(BlockStrategyKind))
	ch.silent = true
	clock := time.Unix(1000, 0)
	p.now = func() time.Time { return clock }

	p.Step()
	require.Len(t, ch.sent, 1)
	require.Equal(t, 1, p.terrain.Requests().Outstanding())

	// поки запит в польоті, нових не буде
	p.Step()
	require.Len(t, ch.sent, 1)

	clock = clock.Add(time.Second)
	p.Step()
	require.Len(t, ch.sent, 2)
	require.Equal(t, ch.sent[0], ch.sent[1])
	require.Equal(t, 1, p.terrain.Requests().Outstanding())

	// спроби закінчились: запит загублено, завантаження йде далі
	clock = clock.Add(time.Second)
	p.Step()
	require.Len(t, ch.sent, 3)
	require.NotEqual(t, ch.sent[0], ch.sent[2])
	require.Equal(t, 1, p.terrain.Requests().Outstanding())
}

func TestPipeline_UpdateLOD(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			p, ch, view := newTestPipeline(t, testConfig(strategy))
			settle(t, p)
			terrain := p.terrain
			sent := len(ch.sent)

			// (1,0,0) стає центром і хоче LOD 0, (0,0,0) тепер хоче LOD 1
			ch.server = append(ch.server, protocol.UpdatePlayer(mgl64.Vec3{24, 8, 8}))
			settle(t, p)

			var finer, coarser int
			for _, req := range ch.sent[sent:] {
				for _, v := range req {
					switch {
					case v.LgSize == 0 && ContainingBlock(v) == BlockPosition{1, 0, 0}:
						finer++
					case v.LgSize == 1 && ContainingBlock(v) == BlockPosition{}:
						coarser++
					}
				}
			}
			require.Positive(t, finer)
			require.Zero(t, coarser)

			require.True(t, terrain.IsLoaded(BlockPosition{1, 0, 0}, 0))
			require.True(t, terrain.IsLoaded(BlockPosition{}, 0))
			require.True(t, terrain.IsLoaded(BlockPosition{2, 0, 0}, 1))
			require.Len(t, view.live, 2*1024+7*256)
			require.Len(t, terrain.Touching(huge), len(view.live))
		})
	}
}

func TestPipeline_RequestLimiter(t *testing.T) {
	c := testConfig(BlockStrategyKind)
	c.RequestLimiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	p, ch, _ := newTestPipeline(t, c)
	next := loadList(1)[1]

	p.Step()
	require.Len(t, ch.sent, 1)
	require.True(t, p.terrain.IsLoaded(BlockPosition{}, 0))

	// ліміт вичерпано: подію не підтверджено, вона чекає наступного опитування
	for range 3 {
		p.Step()
	}
	require.Len(t, ch.sent, 1)
	_, ok := p.loader.Loaded(next)
	require.False(t, ok)
	ev, ok := p.loader.Updates(BlockPosition{}).Next()
	require.True(t, ok)
	require.Equal(t, LoadEvent{Block: next, Type: Load, Distance: 1}, ev)

	p.terrain.config.RequestLimiter = nil
	p.Step()
	require.Len(t, ch.sent, 2)
	_, ok = p.loader.Loaded(next)
	require.True(t, ok)
	require.True(t, slices.ContainsFunc(ch.sent[1], func(v voxel.Bounds) bool {
		return ContainingBlock(v) == next
	}))
}

func TestPipeline_UpdatedVoxelRemeshes(t *testing.T) {
	for _, strategy := range strategies {
		t.Run(string(strategy), func(t *testing.T) {
			p, ch, view := newTestPipeline(t, testConfig(strategy))
			settle(t, p)
			before := maps.Clone(view.live)

			// та сама площина, але вершина в одному вокселі зсунута
			v := voxel.NewBounds(5, 8, 5, 0)
			higher := voxel.FieldFunc(func(p mgl32.Vec3) float32 { return 8.8 - p.Y() })
			changed := voxel.Generate(higher, v)
			require.NotEqual(t, voxel.Generate(plane, v), changed)

			updates := view.updates
			ch.voxels = append(ch.voxels, protocol.VoxelBatch{
				Updates: []protocol.VoxelUpdate{{Bounds: v, Voxel: changed}},
				Reason:  protocol.Updated,
			})
			settle(t, p)

			require.Greater(t, view.updates, updates)
			got, _ := p.terrain.Voxels().Get(v)
			require.Equal(t, changed, got)
			require.Len(t, view.live, len(before))
			replaced := 0
			for id := range before {
				if _, ok := view.live[id]; !ok {
					replaced++
				}
			}
			require.Positive(t, replaced)
			require.True(t, p.terrain.IsLoaded(BlockPosition{}, 0))
			require.Len(t, p.terrain.Touching(huge), len(view.live))
		})
	}
}

func TestPipeline_LateReplyAfterUnload(t *testing.T) {
	p, ch, view := newTestPipeline(t, testConfig(BlockStrategyKind))
	ch.silent = true
	p.Step()
	require.Len(t, ch.sent, 1)
	require.Equal(t, 1, p.terrain.Requests().Outstanding())

	// гравець пішов далеко, блок вивантажено раніше, ніж прийшла відповідь
	p.terrain.SetPlayerPosition(mgl64.Vec3{1000, 8, 8})
	sur := p.terrain.Surroundings(OfWorldPosition(p.terrain.PlayerPosition()))
	require.True(t, p.handleLoadEvent(LoadEvent{Block: BlockPosition{}, Type: Unload, Distance: 62}, sur))

	updates := view.updates
	ch.voxels = append(ch.voxels, ch.answer(ch.sent[0]))
	require.True(t, p.processVoxelUpdates())

	require.Zero(t, p.terrain.Requests().Outstanding())
	require.True(t, p.terrain.Completion().IsComplete(BlockPosition{}, 0))
	for _, v := range ch.sent[0] {
		require.True(t, p.terrain.Voxels().Has(v))
	}
	require.Equal(t, updates, view.updates)
	require.Empty(t, view.live)
	require.False(t, p.terrain.IsLoaded(BlockPosition{}, 0))
}
