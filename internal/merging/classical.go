// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package merging

import (
	"container/heap"

	"github.com/bourbon-db/bourbon/internal/base"
)

// classicalMerger is the heap-based k-way merge the learned merger (§4.5)
// replaces: O(log k) per key instead of the learned path's amortized O(1)
// while the smallest input remains strictly below the second-smallest. It
// exists only as the equivalence baseline for P5 and for ShadowedIterator;
// no pack example ships a k-way merge to ground it on, so it uses the
// standard library's container/heap rather than a hand-rolled slice scan
// (see DESIGN.md).
type classicalMerger struct {
	inputs []*Input
	heap   *mergeHeap
}

type mergeHeapItem struct {
	in *Input
}

type mergeHeap struct {
	cmp   base.Compare
	items []mergeHeapItem
}

func (h *mergeHeap) Len() int { return len(h.items) }
func (h *mergeHeap) Less(i, j int) bool {
	return base.InternalCompare(h.cmp, h.items[i].in.Iter.Key(), h.items[j].in.Iter.Key()) < 0
}
func (h *mergeHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x interface{}) { h.items = append(h.items, x.(mergeHeapItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// NewClassical returns the classical heap-merge baseline over inputs, used
// as P5's ground truth and as ShadowedIterator's non-learned counterpart.
// Per SUPPLEMENTED FEATURES item 4, n == 0 and n == 1 take the same fast
// paths as the learned merger's New.
func NewClassical(cmp base.Compare, inputs []*Input) ChildIterator {
	switch len(inputs) {
	case 0:
		return &emptyIterator{}
	case 1:
		return inputs[0].Iter
	default:
		return &classicalMerger{inputs: inputs, heap: &mergeHeap{cmp: cmp}}
	}
}

func (c *classicalMerger) First() {
	c.heap.items = c.heap.items[:0]
	for _, in := range c.inputs {
		in.Iter.First()
		if in.Iter.Valid() {
			c.heap.items = append(c.heap.items, mergeHeapItem{in: in})
		}
	}
	heap.Init(c.heap)
}

func (c *classicalMerger) Valid() bool { return c.heap.Len() > 0 }

func (c *classicalMerger) Key() base.InternalKey { return c.heap.items[0].in.Iter.Key() }

func (c *classicalMerger) Value() []byte { return c.heap.items[0].in.Iter.Value() }

func (c *classicalMerger) Next() {
	top := c.heap.items[0].in
	top.Iter.Next()
	if top.Iter.Valid() {
		heap.Fix(c.heap, 0)
	} else {
		heap.Pop(c.heap)
	}
}

func (c *classicalMerger) Error() error {
	for _, it := range c.heap.items {
		if err := it.in.Iter.Error(); err != nil {
			return err
		}
	}
	for _, in := range c.inputs {
		if err := in.Iter.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (c *classicalMerger) Close() error { return c.Error() }
