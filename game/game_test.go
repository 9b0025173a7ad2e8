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
	"context"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"FlowyTerrain/world"
	"FlowyTerrain/world/mesh"
)

func TestConfig_Decode(t *testing.T) {
	c := DefaultConfig()
	meta, err := toml.Decode(`
max-load-distance = 3
lod-thresholds = [1, 2]
request-timeout = "250ms"
loading-strategy = "edge"
spawn-position = [1.5, 20, -3]

[request-limiter]
every = "10ms"
n = 4
`, &c)
	require.NoError(t, err)
	require.Empty(t, meta.Undecoded())

	tc := c.Terrain()
	require.Equal(t, int32(3), tc.MaxLoadDistance)
	require.Equal(t, []int32{1, 2}, tc.LODThresholds)
	require.Equal(t, 250*time.Millisecond, tc.RequestTimeout)
	require.Equal(t, world.EdgeStrategyKind, tc.Strategy)
	require.Equal(t, 1, tc.MaxOutstandingRequests)
	require.NotNil(t, tc.RequestLimiter)
	require.Equal(t, 4, tc.RequestLimiter.Burst())
	require.Equal(t, [3]float64{1.5, 20, -3}, c.SpawnPosition)
	require.Nil(t, c.GenerateLimiter.Limiter())
}

func TestLogView(t *testing.T) {
	v := NewLogView(zaptest.NewLogger(t))
	f := &mesh.Fragment{IDs: []mesh.TriangleID{1, 2, 3}}
	v.Apply(world.ViewUpdate{{Kind: world.AddFragment, Fragment: f}})
	require.Equal(t, 3, v.Live())

	v.Apply(world.ViewUpdate{
		{Kind: world.RemoveFragment, ID: 1},
		{Kind: world.RemoveFragment, ID: 7},
	})
	require.Equal(t, 2, v.Live())
	require.Equal(t, 2, v.Updates())
}

func TestGame_RunLoopback(t *testing.T) {
	for _, strategy := range []world.StrategyKind{world.BlockStrategyKind, world.EdgeStrategyKind} {
		t.Run(string(strategy), func(t *testing.T) {
			c := DefaultConfig()
			c.MaxLoadDistance = 1
			c.LODThresholds = []int32{0, 1}
			c.LoadingStrategy = string(strategy)
			c.SpawnPosition = [3]float64{8, 8, 8}

			g, err := NewGame(zaptest.NewLogger(t), c)
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- g.Run(ctx) }()

			center := world.OfWorldPosition(mgl64.Vec3(c.SpawnPosition))
			require.Eventually(t, func() bool {
				return g.Terrain().IsLoaded(center, 0)
			}, 20*time.Second, 10*time.Millisecond)

			cancel()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("game did not stop")
			}
		})
	}
}
