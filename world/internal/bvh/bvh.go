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

// Йоу, чат! Тут BVH дерево для трикутників рельєфу.
// Кожен лист - AABB одного живого трикутника, кожен внутрішній вузол -
// об'єднання AABB дітей. Коли гра питає "що торкається цієї коробки",
// ми спускаємось тільки в ті гілки, чия коробка теж торкається.
// Вставка шукає сусіда з найменшим приростом площі (SAH),
// а після кожної зміни вузли обертаються, щоб дерево не перекошувалось.

package bvh

import (
	"container/heap"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Bound - те, що вміє зберігати дерево
type Bound[I constraints.Float, B any] interface {
	Union(B) B
	Surface() I
}

// Node - вузол дерева. Value має сенс тільки в листі.
type Node[I constraints.Float, B Bound[I, B], V any] struct {
	Box      B
	Value    V
	parent   *Node[I, B, V]
	children [2]*Node[I, B, V]
	isLeaf   bool
}

func (n *Node[I, B, V]) sibling(of *Node[I, B, V]) *Node[I, B, V] {
	switch of {
	case n.children[0]:
		return n.children[1]
	case n.children[1]:
		return n.children[0]
	}
	panic("bvh: node is not a child of its parent")
}

func (n *Node[I, B, V]) slot(child *Node[I, B, V]) **Node[I, B, V] {
	switch child {
	case n.children[0]:
		return &n.children[0]
	case n.children[1]:
		return &n.children[1]
	}
	panic("bvh: node is not a child of its parent")
}

func (n *Node[I, B, V]) refit() {
	n.Box = n.children[0].Box.Union(n.children[1].Box)
}

// each обходить листи, чиї коробки проходять test. Стоп якщо visit повертає false.
func (n *Node[I, B, V]) each(test func(B) bool, visit func(*Node[I, B, V]) bool) bool {
	switch {
	case n == nil:
		return true
	case n.isLeaf:
		return !test(n.Box) || visit(n)
	case !test(n.Box):
		return true
	}
	return n.children[0].each(test, visit) && n.children[1].each(test, visit)
}

// Tree - BVH дерево. Нульове значення готове до роботи.
type Tree[I constraints.Float, B Bound[I, B], V any] struct {
	root *Node[I, B, V]
	size int
}

// Len повертає кількість листів
func (t *Tree[I, B, V]) Len() int { return t.size }

// Insert додає лист і повертає його вузол (потрібен для Delete)
func (t *Tree[I, B, V]) Insert(box B, value V) *Node[I, B, V] {
	leaf := &Node[I, B, V]{Box: box, Value: value, isLeaf: true}
	t.size++
	if t.root == nil {
		t.root = leaf
		return leaf
	}

	sibling, link := t.bestSibling(box)
	parent := &Node[I, B, V]{
		Box:      sibling.Box.Union(box),
		parent:   sibling.parent,
		children: [2]*Node[I, B, V]{sibling, leaf},
	}
	*link = parent
	leaf.parent, sibling.parent = parent, parent

	for p := parent; p != nil; p = p.parent {
		p.refit()
		t.rotate(p)
	}
	return leaf
}

// bestSibling - branch and bound пошук вузла, об'єднання з яким найдешевше
func (t *Tree[I, B, V]) bestSibling(box B) (best *Node[I, B, V], link **Node[I, B, V]) {
	best, link = t.root, &t.root
	bestCost := t.root.Box.Union(box).Surface()
	boxCost := box.Surface()

	queue := searchHeap[I, Node[I, B, V]]{{pointer: t.root, parentTo: &t.root}}
	for queue.Len() > 0 {
		it := heap.Pop(&queue).(searchItem[I, Node[I, B, V]])
		merged := it.pointer.Box.Union(box).Surface()
		if cost := it.inheritedCost + merged; cost <= bestCost {
			best, link, bestCost = it.pointer, it.parentTo, cost
		}
		inherited := it.inheritedCost + merged - it.pointer.Box.Surface()
		if it.pointer.isLeaf || inherited+boxCost >= bestCost {
			continue
		}
		for i := range it.pointer.children {
			heap.Push(&queue, searchItem[I, Node[I, B, V]]{
				pointer:       it.pointer.children[i],
				parentTo:      &it.pointer.children[i],
				inheritedCost: inherited,
			})
		}
	}
	return
}

// Delete прибирає лист з дерева і повертає його значення
func (t *Tree[I, B, V]) Delete(n *Node[I, B, V]) V {
	t.size--
	if n.parent == nil {
		t.root = nil
		return n.Value
	}
	sibling := n.parent.sibling(n)
	grand := n.parent.parent
	if grand == nil {
		t.root, sibling.parent = sibling, nil
		return n.Value
	}
	*grand.slot(n.parent) = sibling
	sibling.parent = grand
	for p := grand; p != nil; p = p.parent {
		p.refit()
		t.rotate(p)
	}
	return n.Value
}

// rotate міняє дитину n з братом n, якщо це зменшує площу n
func (t *Tree[I, B, V]) rotate(n *Node[I, B, V]) {
	if n.isLeaf || n.parent == nil {
		return
	}
	uncle := n.parent.sibling(n)
	current := n.Box.Surface()
	for keep := range 2 {
		swap := 1 - keep
		if n.children[keep].Box.Union(uncle.Box).Surface() >= current {
			continue
		}
		moved := n.children[swap]
		*n.parent.slot(uncle) = moved
		moved.parent = n.parent
		n.children[swap] = uncle
		uncle.parent = n
		n.refit()
		return
	}
}

// Find викликає visit для кожного листа, коробка якого проходить test
func (t *Tree[I, B, V]) Find(test func(B) bool, visit func(*Node[I, B, V]) bool) {
	t.root.each(test, visit)
}

func (t *Tree[I, B, V]) String() string {
	return t.root.String()
}

func (n *Node[I, B, V]) String() string {
	switch {
	case n == nil:
		return "{}"
	case n.isLeaf:
		return fmt.Sprint(n.Value)
	}
	return fmt.Sprintf("{%v, %v}", n.children[0], n.children[1])
}

// TouchPoint - тест для пошуку коробок, що містять точку
func TouchPoint[Vec any, B interface{ WithIn(Vec) bool }](point Vec) func(B) bool {
	return func(bound B) bool { return bound.WithIn(point) }
}

// TouchBound - тест для пошуку коробок, що перетинаються з other
func TouchBound[B interface{ Touch(B) bool }](other B) func(B) bool {
	return func(bound B) bool { return bound.Touch(other) }
}

type (
	searchHeap[I constraints.Float, V any] []searchItem[I, V]
	searchItem[I constraints.Float, V any] struct {
		pointer       *V
		parentTo      **V
		inheritedCost I
	}
)

func (h searchHeap[I, V]) Len() int           { return len(h) }
func (h searchHeap[I, V]) Less(i, j int) bool { return h[i].inheritedCost < h[j].inheritedCost }
func (h searchHeap[I, V]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *searchHeap[I, V]) Push(x any)        { *h = append(*h, x.(searchItem[I, V])) }
func (h *searchHeap[I, V]) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
