// Copyright 2016 Patrick Brosi
// Authors: info@patrickbrosi.de
//
// Use of this source code is governed by a GPL v2
// license that can be found in the LICENSE file

package locate

import "math"

var posInf = math.Inf(1)

// heapEntry is one link of the doubly-linked, cost-sorted list backing
// NodeHeap (§4.9). The list is always kept sorted ascending by cost;
// Update repairs a single entry's position in O(n) worst case but O(1)
// in the common case of a cost decreasing only slightly.
type heapEntry struct {
	node       *Node
	prev, next *heapEntry
}

func (h *heapEntry) cost() float64 { return h.node.Cost.AsFloat() }

// validPosition reports whether h's cost is consistent with its
// neighbors' - i.e. no re-sort is needed.
func (h *heapEntry) validPosition() bool {
	if h.prev != nil && h.prev.cost() > h.cost() {
		return false
	}
	if h.next != nil && h.next.cost() < h.cost() {
		return false
	}
	return true
}

// NodeHeap is a min-priority structure over *Node by Cost.AsFloat(),
// implemented as a sorted doubly-linked list rather than a binary heap
// so that Update can reposition a single node in place (§4.9).
type NodeHeap struct {
	first *heapEntry
	byKey map[*Node]*heapEntry
}

// NewNodeHeap returns an empty heap.
func NewNodeHeap() *NodeHeap {
	return &NodeHeap{byKey: map[*Node]*heapEntry{}}
}

// Len returns the number of nodes currently in the heap.
func (h *NodeHeap) Len() int { return len(h.byKey) }

// Add inserts node at the position keeping the list sorted. A node
// whose cost is +Inf is never added - it can never win a Dijkstra
// relaxation, so tracking it would only waste space (§4.9).
func (h *NodeHeap) Add(node *Node) {
	if node.Cost.AsFloat() == posInf {
		return
	}
	if _, ok := h.byKey[node]; ok {
		h.Update(node)
		return
	}

	entry := &heapEntry{node: node}
	h.byKey[node] = entry
	if h.first == nil {
		h.first = entry
		return
	}
	h.insertAfter(h.findPrevious(entry), entry)
}

func (h *NodeHeap) findPrevious(entry *heapEntry) *heapEntry {
	cost := entry.cost()
	if cost < h.first.cost() {
		return nil
	}
	prev := h.first
	for prev.next != nil && prev.next.cost() <= cost {
		prev = prev.next
	}
	return prev
}

func (h *NodeHeap) insertAfter(prev, entry *heapEntry) {
	if prev == nil {
		entry.next = h.first
		if h.first != nil {
			h.first.prev = entry
		}
		h.first = entry
		return
	}
	entry.next = prev.next
	if prev.next != nil {
		prev.next.prev = entry
	}
	prev.next = entry
	entry.prev = prev
}

// Pop removes and returns the current minimum-cost node, or nil if the
// heap is empty.
func (h *NodeHeap) Pop() *Node {
	if h.first == nil {
		return nil
	}
	node := h.first.node
	h.remove(h.first)
	return node
}

// Update repositions node after its cost has changed, removing and
// reinserting it only if its current position is no longer valid
// (§4.9) - a node whose cost only decreased relative to far-away
// neighbors need not move at all.
func (h *NodeHeap) Update(node *Node) {
	entry, ok := h.byKey[node]
	if !ok {
		h.Add(node)
		return
	}
	if entry.validPosition() {
		return
	}
	h.remove(entry)
	h.Add(node)
}

func (h *NodeHeap) remove(entry *heapEntry) {
	if h.first == entry {
		h.first = entry.next
	}
	if entry.next != nil {
		entry.next.prev = entry.prev
	}
	if entry.prev != nil {
		entry.prev.next = entry.next
	}
	delete(h.byKey, entry.node)
}
