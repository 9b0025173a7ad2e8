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

// Йоу, чат! Сьогодні ми розберемо розріджене октодерево!
// Світ безмежний, а завантажено лише шматочки навколо гравця,
// тому тримаємо семпли в дереві, де кожен вузол ділиться на 8 дітей.
// Вузли лежать в одному слайсі і посилаються один на одного індексами,
// без вказівників. Значення може бути в будь-якому вузлі, тобто
// воксель розміром 4 і воксель розміром 1 з тим самим кутом живуть
// поруч, кожен на своєму рівні.
//
// Корінь віртуальний: його 8 дітей - це октанти навколо нуля,
// координати яких на рівні lgSize дорівнюють -1 або 0. Коли приходить
// координата, що не влазить, дерево росте вгору вдвічі.

package voxel

// Slot - місце для значення у вузлі дерева
type Slot[T any] struct {
	Value   T
	Present bool
}

type node[T any] struct {
	Slot[T]
	children [8]uint32 // 0 - дитини немає (нульовий вузол це корінь)
}

// Tree - розріджене октодерево зі значеннями типу T
type Tree[T any] struct {
	nodes  []node[T]
	lgSize int16 // рівень октантів кореня
	len    int   // кількість заповнених слотів
}

// NewTree створює порожнє дерево
func NewTree[T any]() *Tree[T] {
	return &Tree[T]{nodes: make([]node[T], 1)}
}

// Len повертає кількість збережених значень
func (t *Tree[T]) Len() int { return t.len }

// Get шукає значення, нічого не змінюючи
func (t *Tree[T]) Get(b Bounds) (v T, ok bool) {
	n, found := t.find(b)
	if !found || !t.nodes[n].Present {
		return v, false
	}
	return t.nodes[n].Value, true
}

// GetOrCreate створює всі проміжні вузли до b і повертає слот.
// Вказівник живе до наступного запису в дерево.
func (t *Tree[T]) GetOrCreate(b Bounds) *Slot[T] {
	return &t.nodes[t.materialize(b)].Slot
}

// Put записує значення. Повертає попереднє і чи воно було.
func (t *Tree[T]) Put(b Bounds, v T) (old T, existed bool) {
	slot := t.GetOrCreate(b)
	old, existed = slot.Value, slot.Present
	slot.Value, slot.Present = v, true
	if !existed {
		t.len++
	}
	return
}

// Remove видаляє значення з вузла b. Самі вузли лишаються.
func (t *Tree[T]) Remove(b Bounds) (v T, ok bool) {
	n, found := t.find(b)
	if !found || !t.nodes[n].Present {
		return v, false
	}
	slot := &t.nodes[n].Slot
	v = slot.Value
	*slot = Slot[T]{}
	t.len--
	return v, true
}

// Ancestors викликає fn для кожного значення строго вище b на шляху від кореня.
// Якщо fn повертає false - обхід зупиняється.
func (t *Tree[T]) Ancestors(b Bounds, fn func(Bounds, T) bool) {
	if !t.covers(b) {
		return
	}
	n := uint32(0)
	for lg := t.lgSize; lg > b.LgSize; lg-- {
		at := b.At(lg)
		if n = t.nodes[n].children[at.childIndex()]; n == 0 {
			return
		}
		if nd := &t.nodes[n]; nd.Present && !fn(at, nd.Value) {
			return
		}
	}
}

// Descendants викликає fn для значення в b і для всіх значень під ним.
// fn не повинна додавати нові значення в дерево.
func (t *Tree[T]) Descendants(b Bounds, fn func(Bounds, T) bool) {
	if b.LgSize > t.lgSize {
		// b більший за все дерево: шукаємо октанти всередині нього
		for i, c := range t.nodes[0].children {
			if at := octantBounds(i, t.lgSize); c != 0 && b.Contains(at) {
				if !t.walk(c, at, fn) {
					return
				}
			}
		}
		return
	}
	if n, found := t.find(b); found {
		t.walk(n, b, fn)
	}
}

func (t *Tree[T]) walk(n uint32, at Bounds, fn func(Bounds, T) bool) bool {
	nd := &t.nodes[n]
	if nd.Present && !fn(at, nd.Value) {
		return false
	}
	for i, c := range nd.children {
		if c != 0 && !t.walk(c, at.child(i), fn) {
			return false
		}
	}
	return true
}

// find - шлях тільки для читання
func (t *Tree[T]) find(b Bounds) (uint32, bool) {
	if !t.covers(b) {
		return 0, false
	}
	n := uint32(0)
	for lg := t.lgSize; lg >= b.LgSize; lg-- {
		if n = t.nodes[n].children[b.At(lg).childIndex()]; n == 0 {
			return 0, false
		}
	}
	return n, true
}

// materialize - шлях для запису, створює відсутні вузли
func (t *Tree[T]) materialize(b Bounds) uint32 {
	for !t.covers(b) {
		t.grow()
	}
	n := uint32(0)
	for lg := t.lgSize; lg >= b.LgSize; lg-- {
		i := b.At(lg).childIndex()
		c := t.nodes[n].children[i]
		if c == 0 {
			c = t.alloc()
			t.nodes[n].children[i] = c
		}
		n = c
	}
	return n
}

// grow підвішує кожен октант під новий октант вдвічі більшого розміру
func (t *Tree[T]) grow() {
	for i, c := range t.nodes[0].children {
		if c == 0 {
			continue
		}
		n := t.alloc()
		t.nodes[n].children[i] = c
		t.nodes[0].children[i] = n
	}
	t.lgSize++
}

func (t *Tree[T]) alloc() uint32 {
	t.nodes = append(t.nodes, node[T]{})
	return uint32(len(t.nodes) - 1)
}

func (t *Tree[T]) covers(b Bounds) bool {
	if b.LgSize > t.lgSize {
		return false
	}
	o := b.At(t.lgSize)
	return octant(o.X) && octant(o.Y) && octant(o.Z)
}

func octant(c int32) bool { return c == 0 || c == -1 }

func octantBounds(i int, lg int16) Bounds {
	coord := func(bit int) int32 { return -int32(bit) }
	return Bounds{X: coord(i & 1), Y: coord(i >> 1 & 1), Z: coord(i >> 2 & 1), LgSize: lg}
}
