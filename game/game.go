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
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"FlowyTerrain/client"
	"FlowyTerrain/protocol"
	"FlowyTerrain/server"
	"FlowyTerrain/world"
	"FlowyTerrain/world/voxel"
)

// loopbackQueue - розмір черг вбудованого каналу
const loopbackQueue = 256

// Game збирає клієнта рельєфу докупи
type Game struct {
	log *zap.Logger

	config  Config
	codec   *protocol.Codec
	terrain *world.Terrain
	view    *LogView
}

// NewGame створює рельєф і рендер за налаштуваннями
func NewGame(log *zap.Logger, config Config) (*Game, error) {
	terrain, err := world.NewTerrain(log.Named("terrain"), config.Terrain())
	if err != nil {
		return nil, fmt.Errorf("create terrain: %w", err)
	}
	codec, err := protocol.NewCodec()
	if err != nil {
		terrain.Close()
		return nil, err
	}
	terrain.SetPlayerPosition(mgl64.Vec3(config.SpawnPosition))
	return &Game{
		log:     log.Named("game"),
		config:  config,
		codec:   codec,
		terrain: terrain,
		view:    NewLogView(log.Named("view")),
	}, nil
}

// Terrain повертає спільний стан рельєфу
func (g *Game) Terrain() *world.Terrain { return g.terrain }

// View повертає рендер
func (g *Game) View() *LogView { return g.view }

// NewServer створює сервер вокселів з налаштувань гри
func (g *Game) NewServer() *server.Server {
	provider := server.NewProvider(voxel.NewHeightMap(g.config.Seed), g.config.GenerateLimiter.Limiter())
	return server.New(g.log.Named("server"), provider, g.codec, mgl64.Vec3(g.config.SpawnPosition))
}

// Run запускає цикл оновлення і чекає, поки його не зупинять
func (g *Game) Run(ctx context.Context) error {
	defer g.codec.Close()
	defer g.terrain.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clientID := uuid.New()
	channel, err := g.connect(ctx, clientID)
	if err != nil {
		return err
	}

	pipeline := world.NewPipeline(g.log.Named("pipeline"), g.terrain, channel, g.view, clientID)
	err = pipeline.Run(ctx)
	g.log.Info("Terrain stopped",
		zap.Int("voxels", g.terrain.Voxels().Len()),
		zap.Int("triangles", g.view.Live()),
	)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (g *Game) connect(ctx context.Context, clientID uuid.UUID) (world.Channel, error) {
	if g.config.ServerURL == "" {
		lb := client.NewLoopback(loopbackQueue)
		context.AfterFunc(ctx, lb.Close)
		go func() {
			err := g.NewServer().ServeLoopback(ctx, lb)
			if err != nil && !errors.Is(err, context.Canceled) {
				g.log.Error("Loopback server stopped", zap.Error(err))
			}
			g.terrain.Quit()
		}()
		if err := lb.Send(protocol.Init(clientID)); err != nil {
			return nil, err
		}
		return lb, nil
	}

	c, err := client.Dial(ctx, g.log.Named("client"), g.config.ServerURL, clientID, g.codec, g.terrain.Quit)
	if err != nil {
		return nil, err
	}
	context.AfterFunc(ctx, func() { c.Close() })
	go c.Start()
	return c, nil
}
