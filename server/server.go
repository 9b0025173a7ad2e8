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

// Package server - простий сервер вокселів для клієнта рельєфу.
// Він відповідає на запити вокселів і може сам розсилати зміни світу.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"FlowyTerrain/client"
	"FlowyTerrain/protocol"
)

// sessionQueue - скільки відповідей чекає відправки одному клієнту
const sessionQueue = 64

// Server обробляє клієнтів рельєфу
type Server struct {
	log      *zap.Logger
	provider *Provider
	codec    *protocol.Codec
	spawn    mgl64.Vec3
	upgrader websocket.Upgrader
	// readLimit - найбільший кадр від клієнта
	readLimit int64

	mu       sync.Mutex
	sessions map[*session]struct{}
}

type session struct {
	id  uuid.UUID
	out chan protocol.ServerToClient
}

// New створює сервер. spawn - де з'являється гравець.
func New(log *zap.Logger, provider *Provider, codec *protocol.Codec, spawn mgl64.Vec3) *Server {
	return &Server{
		log:      log,
		provider: provider,
		codec:    codec,
		spawn:    spawn,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		readLimit: int64(codec.MaxFrame()),
		sessions:  make(map[*session]struct{}),
	}
}

// Handle обробляє одне повідомлення клієнта і повертає відповіді.
// Запит, який не пройшов ліміт, просто губиться: клієнт перепитає сам.
func (s *Server) Handle(msg protocol.ClientToServer) []protocol.ServerToClient {
	switch msg.Kind {
	case protocol.KindInit:
		s.log.Info("Client joined", zap.Stringer("client", msg.ClientID))
		return []protocol.ServerToClient{protocol.UpdatePlayer(s.spawn)}
	case protocol.KindRequestVoxels:
		updates, err := s.provider.Voxels(msg.Voxels)
		if errors.Is(err, ErrReachRateLimit) {
			s.log.Debug("Drop voxel request", zap.Stringer("client", msg.ClientID), zap.Int("voxels", len(msg.Voxels)))
			return nil
		}
		return []protocol.ServerToClient{protocol.Voxels(protocol.Requested, updates)}
	}
	s.log.Debug("Unknown client message", zap.Stringer("kind", msg.Kind))
	return nil
}

// Push записує нові воксели і розсилає їх всім клієнтам з причиною Updated
func (s *Server) Push(updates []protocol.VoxelUpdate) {
	s.provider.Put(updates)
	msg := protocol.Voxels(protocol.Updated, updates)

	s.mu.Lock()
	defer s.mu.Unlock()
	for sess := range s.sessions {
		select {
		case sess.out <- msg:
		default:
			s.log.Warn("Session queue full, drop update", zap.Stringer("client", sess.id))
		}
	}
}

func (s *Server) join(id uuid.UUID) *session {
	sess := &session{id: id, out: make(chan protocol.ServerToClient, sessionQueue)}
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	return sess
}

func (s *Server) leave(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

// ServeLoopback обслуговує клієнта в тому ж процесі, поки не скасують ctx
// або канал не закриють
func (s *Server) ServeLoopback(ctx context.Context, lb *client.Loopback) error {
	sess := s.join(uuid.Nil)
	defer s.leave(sess)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-lb.Closed():
			return client.ErrClosed
		case msg := <-sess.out:
			if err := lb.Deliver(msg); err != nil {
				return err
			}
		case req := <-lb.Requests():
			for _, reply := range s.Handle(req) {
				if err := lb.Deliver(reply); err != nil {
					return err
				}
			}
		}
	}
}

// ServeHTTP приймає websocket з'єднання
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Upgrade fail", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.readLimit)

	sess := s.join(uuid.Nil)
	defer s.leave(sess)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.startSend(ctx, cancel, conn, sess)
	context.AfterFunc(ctx, func() { conn.Close() })

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			s.log.Debug("Receive message fail", zap.Error(err))
			return
		}
		var msg protocol.ClientToServer
		if err := s.codec.Decode(frame, &msg); err != nil {
			s.log.Error("Decode message fail", zap.Error(err))
			return
		}
		if msg.Kind == protocol.KindInit {
			s.mu.Lock()
			sess.id = msg.ClientID
			s.mu.Unlock()
		}
		for _, reply := range s.Handle(msg) {
			select {
			case sess.out <- reply:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) startSend(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sess *session) {
	defer cancel()
	for {
		var msg protocol.ServerToClient
		select {
		case <-ctx.Done():
			return
		case msg = <-sess.out:
		}
		frame, err := s.codec.Encode(msg)
		if err != nil {
			s.log.Error("Encode message fail", zap.Error(err))
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			s.log.Debug("Send message fail", zap.Error(err))
			return
		}
	}
}
