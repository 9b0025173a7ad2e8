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

package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"FlowyTerrain/protocol"
)

// ErrClosed - з'єднання вже закрите
var ErrClosed = errors.New("client closed")

// queueSize - скільки повідомлень чекає в кожній черзі
const queueSize = 256

// Client - з'єднання з сервером рельєфу через websocket.
// Реалізує world.Channel.
type Client struct {
	// Логер для цього з'єднання
	log *zap.Logger
	// Мережеве з'єднання
	conn  *websocket.Conn
	codec *protocol.Codec
	// Черга повідомлень для відправки
	queue chan protocol.ClientToServer
	// Вхідні черги: воксели окремо, все інше окремо
	server chan protocol.ServerToClient
	voxels chan protocol.VoxelBatch
	// Обробники різних типів повідомлень
	handlers map[protocol.ServerKind]MessageHandler
	// Викликається, коли з'єднання вмирає
	quit func()

	closeOnce sync.Once
	closed    chan struct{}
}

// MessageHandler - функція яка обробляє конкретний тип повідомлення
type MessageHandler func(msg protocol.ServerToClient, c *Client) error

// Dial підключається до сервера і відправляє Init
func Dial(ctx context.Context, log *zap.Logger, url string, id uuid.UUID, codec *protocol.Codec, quit func()) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := New(log, conn, codec, quit)
	if err := c.Send(protocol.Init(id)); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// New створює клієнта поверх готового з'єднання
func New(log *zap.Logger, conn *websocket.Conn, codec *protocol.Codec, quit func()) *Client {
	conn.SetReadLimit(int64(codec.MaxFrame()))
	c := &Client{
		log:      log,
		conn:     conn,
		codec:    codec,
		queue:    make(chan protocol.ClientToServer, queueSize),
		server:   make(chan protocol.ServerToClient, queueSize),
		voxels:   make(chan protocol.VoxelBatch, queueSize),
		handlers: make(map[protocol.ServerKind]MessageHandler),
		quit:     quit,
		closed:   make(chan struct{}),
	}
	c.AddHandler(protocol.KindVoxels, handleVoxels)
	c.AddHandler(protocol.KindUpdatePlayer, handleServer)
	return c
}

// Start запускає відправку і отримання.
// Блокує, поки одна з горутин не впаде, після цього закриває все.
func (c *Client) Start() {
	stopped := make(chan struct{}, 2)
	done := func() {
		stopped <- struct{}{}
	}
	go c.startSend(done)
	go c.startReceive(done)
	<-stopped
	c.Close()
	if c.quit != nil {
		c.quit()
	}
}

// Close закриває з'єднання. Повторний виклик нічого не робить.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) startSend(done func()) {
	defer done()
	for {
		var msg protocol.ClientToServer
		select {
		case msg = <-c.queue:
		case <-c.closed:
			return
		}
		frame, err := c.codec.Encode(msg)
		if err != nil {
			c.log.Error("Encode message fail", zap.Stringer("kind", msg.Kind), zap.Error(err))
			return
		}
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			c.log.Debug("Send message fail", zap.Error(err))
			return
		}
	}
}

func (c *Client) startReceive(done func()) {
	defer done()
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Debug("Receive message fail", zap.Error(err))
			return
		}
		var msg protocol.ServerToClient
		if err := c.codec.Decode(frame, &msg); err != nil {
			c.log.Error("Decode message fail", zap.Int("len", len(frame)), zap.Error(err))
			return
		}
		handler, ok := c.handlers[msg.Kind]
		if !ok {
			c.log.Debug("Unknown message kind", zap.Stringer("kind", msg.Kind))
			continue
		}
		if err := handler(msg, c); err != nil {
			c.log.Error("Handle message error", zap.Stringer("kind", msg.Kind), zap.Error(err))
			return
		}
	}
}

// AddHandler замінює обробник для типу повідомлень
func (c *Client) AddHandler(kind protocol.ServerKind, handler MessageHandler) {
	c.handlers[kind] = handler
}

// TryServer повертає наступне не-воксельне повідомлення, не блокуючи
func (c *Client) TryServer() (protocol.ServerToClient, bool) {
	select {
	case msg := <-c.server:
		return msg, true
	default:
		return protocol.ServerToClient{}, false
	}
}

// TryVoxels повертає наступну пачку вокселів, не блокуючи
func (c *Client) TryVoxels() (protocol.VoxelBatch, bool) {
	select {
	case batch := <-c.voxels:
		return batch, true
	default:
		return protocol.VoxelBatch{}, false
	}
}

// Send ставить повідомлення в чергу на відправку
func (c *Client) Send(msg protocol.ClientToServer) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.queue <- msg:
		return nil
	case <-c.closed:
		return ErrClosed
	}
}

func handleVoxels(msg protocol.ServerToClient, c *Client) error {
	if msg.Voxels == nil {
		return errors.New("voxels message without batch")
	}
	return c.push(c.voxels, *msg.Voxels)
}

func handleServer(msg protocol.ServerToClient, c *Client) error {
	select {
	case c.server <- msg:
		return nil
	case <-c.closed:
		return ErrClosed
	}
}

func (c *Client) push(ch chan protocol.VoxelBatch, batch protocol.VoxelBatch) error {
	select {
	case ch <- batch:
		return nil
	case <-c.closed:
		return ErrClosed
	}
}
