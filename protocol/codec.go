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

package protocol

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/segmentio/encoding/json"
)

// CompressionThreshold - кадри від цього розміру стискаються zstd
const CompressionThreshold = 1 << 10

// MaxFrameSize - найбільший кадр, стиснутий чи ні, який ми погоджуємось читати
const MaxFrameSize = 32 << 20

// Перший байт кадру каже, як лежить JSON далі
const (
	framePlain byte = iota
	frameZstd
)

// ErrBadFrame - кадр не вдалося розібрати
var ErrBadFrame = errors.New("bad frame")

// Codec перетворює повідомлення в кадри і назад.
// Можна використовувати з кількох горутин.
type Codec struct {
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	maxFrame int
}

// NewCodec створює кодек з лімітом MaxFrameSize
func NewCodec() (*Codec, error) {
	return newCodec(MaxFrameSize)
}

func newCodec(maxFrame int) (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxFrame)))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec, maxFrame: maxFrame}, nil
}

// Close звільняє ресурси zstd
func (c *Codec) Close() {
	c.enc.Close()
	c.dec.Close()
}

// Encode серіалізує повідомлення в кадр
func (c *Codec) Encode(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	if len(data) < CompressionThreshold {
		return append([]byte{framePlain}, data...), nil
	}
	return c.enc.EncodeAll(data, []byte{frameZstd}), nil
}

// MaxFrame повертає ліміт розміру кадру
func (c *Codec) MaxFrame() int { return c.maxFrame }

// Decode розбирає кадр у msg
func (c *Codec) Decode(frame []byte, msg any) error {
	if len(frame) == 0 {
		return fmt.Errorf("%w: empty", ErrBadFrame)
	}
	if len(frame) > c.maxFrame {
		return fmt.Errorf("%w: %d bytes over limit", ErrBadFrame, len(frame))
	}
	data := frame[1:]
	switch frame[0] {
	case framePlain:
	case frameZstd:
		var err error
		if data, err = c.dec.DecodeAll(data, nil); err != nil {
			return fmt.Errorf("%w: %w", ErrBadFrame, err)
		}
	default:
		return fmt.Errorf("%w: unknown flag %d", ErrBadFrame, frame[0])
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrBadFrame, err)
	}
	return nil
}
