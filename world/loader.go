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

// Йоу, чат! Сьогодні ми розберемо як вирішується, які блоки вантажити!
// Навколо гравця куб блоків радіусом maxDistance (відстань Чебишева).
// Ми заздалегідь рахуємо всі зсуви в цьому кубі, відсортовані від
// центру назовні, і при кожному опитуванні йдемо по них по черзі.
// Loader нічого не вантажить сам - він тільки каже, що треба зробити:
// Load, Update (змінився потрібний LOD) або Unload. Поки подію не
// підтвердили через Ack, вона буде пропонуватись знову.

package world

import (
	"cmp"
	"slices"
)

// LoadType - що треба зробити з блоком
type LoadType uint8

const (
	Load   LoadType = iota // блок увійшов у радіус
	Update                 // блок лишився в радіусі, але потрібен інший LOD
	Unload                 // блок вийшов з радіусу
)

func (t LoadType) String() string {
	return [...]string{"load", "update", "unload"}[t]
}

// LoadEvent - одна подія завантажувача
type LoadEvent struct {
	Block    BlockPosition
	Type     LoadType
	Distance int32 // відстань від центру, для якого подію згенеровано
}

// Loader стежить за тим, про що вже повідомлено, для одного гравця
type Loader struct {
	maxDistance int32
	lodOf       func(distance int32) LOD

	loadList []BlockPosition      // зсуви від центру, ближчі першими
	loaded   map[BlockPosition]LOD // підтверджені блоки і їх LOD

	center   BlockPosition
	centered bool
	settled  int // скільки перших зсувів вже в потрібному стані для center
}

// NewLoader створює завантажувач. lodOf каже, який LOD потрібен на відстані.
func NewLoader(maxDistance int32, lodOf func(distance int32) LOD) *Loader {
	return &Loader{
		maxDistance: maxDistance,
		lodOf:       lodOf,
		loadList:    loadList(maxDistance),
		loaded:      make(map[BlockPosition]LOD),
	}
}

// Updates починає нове опитування навколо center
func (l *Loader) Updates(center BlockPosition) *LoadIterator {
	if !l.centered || center != l.center {
		l.center, l.centered, l.settled = center, true, 0
	}
	return &LoadIterator{l: l, center: center, i: l.settled}
}

// Ack підтверджує, що подію оброблено
func (l *Loader) Ack(ev LoadEvent) {
	switch ev.Type {
	case Load, Update:
		l.loaded[ev.Block] = l.lodOf(ev.Distance)
	case Unload:
		delete(l.loaded, ev.Block)
	}
}

// Loaded повертає LOD, з яким блок востаннє підтверджено
func (l *Loader) Loaded(b BlockPosition) (LOD, bool) {
	lod, ok := l.loaded[b]
	return lod, ok
}

// Len повертає кількість підтверджених блоків
func (l *Loader) Len() int { return len(l.loaded) }

// LoadIterator - ледача послідовність подій одного опитування
type LoadIterator struct {
	l       *Loader
	center  BlockPosition
	i       int
	unloads []LoadEvent
	scanned bool
}

// Next повертає наступну подію, від ближчих до дальших
func (it *LoadIterator) Next() (LoadEvent, bool) {
	l := it.l
	for it.i < len(l.loadList) {
		off := l.loadList[it.i]
		distance := DistanceBetween(off, BlockPosition{})
		pos := it.center.Add(off)
		want := l.lodOf(distance)
		got, ok := l.loaded[pos]
		if ok && got == want {
			if it.i == l.settled && it.center == l.center {
				l.settled++
			}
			it.i++
			continue
		}
		it.i++
		if !ok {
			return LoadEvent{Block: pos, Type: Load, Distance: distance}, true
		}
		return LoadEvent{Block: pos, Type: Update, Distance: distance}, true
	}

	if !it.scanned {
		it.scanned = true
		for b := range l.loaded {
			if d := DistanceBetween(b, it.center); d > l.maxDistance {
				it.unloads = append(it.unloads, LoadEvent{Block: b, Type: Unload, Distance: d})
			}
		}
		slices.SortFunc(it.unloads, func(a, b LoadEvent) int {
			return cmp.Or(
				cmp.Compare(a.Distance, b.Distance),
				cmp.Compare(euclid2(a.Block.Add(neg(it.center))), euclid2(b.Block.Add(neg(it.center)))),
				slices.Compare(a.Block[:], b.Block[:]),
			)
		})
	}
	if len(it.unloads) == 0 {
		return LoadEvent{}, false
	}
	ev := it.unloads[0]
	it.unloads = it.unloads[1:]
	return ev, true
}

// loadList повертає всі зсуви з відстанню Чебишева <= r.
// Сортуємо за відстанню Чебишева, потім Евклідовою, щоб в межах одного
// "кільця" спочатку йшли блоки ближче до осей.
func loadList(r int32) []BlockPosition {
	list := make([]BlockPosition, 0, (2*r+1)*(2*r+1)*(2*r+1))
	for x := -r; x <= r; x++ {
		for y := -r; y <= r; y++ {
			for z := -r; z <= r; z++ {
				list = append(list, BlockPosition{x, y, z})
			}
		}
	}
	slices.SortFunc(list, func(a, b BlockPosition) int {
		return cmp.Or(
			cmp.Compare(DistanceBetween(a, BlockPosition{}), DistanceBetween(b, BlockPosition{})),
			cmp.Compare(euclid2(a), euclid2(b)),
			slices.Compare(a[:], b[:]),
		)
	})
	return list
}

func euclid2(b BlockPosition) int64 {
	x, y, z := int64(b[0]), int64(b[1]), int64(b[2])
	return x*x + y*y + z*z
}

func neg(b BlockPosition) BlockPosition { return BlockPosition{-b[0], -b[1], -b[2]} }
