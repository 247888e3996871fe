// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"context"

	"github.com/bourbon-db/bourbon/internal/base"
)

// Iterator is a two-level iterator over an entire table: it seeks in the
// index for the data block that contains a position, then scans within
// that block. It is the child iterator the learned merging iterator (C5)
// wraps for each input file.
type Iterator struct {
	ctx   context.Context
	r     *Reader
	cmp   base.Compare
	block int // index of the current data block, or -1 before First/SeekGE

	data    []byte
	off     int
	keyBuf  []byte
	key     base.InternalKey
	value   []byte
	valid   bool
	err     error
}

// NewIter returns a forward iterator positioned before the first key. The
// caller must call First or a Seek variant before using it.
func (r *Reader) NewIter(ctx context.Context) *Iterator {
	return &Iterator{ctx: ctx, r: r, cmp: r.opts.Comparer.Compare, block: -1}
}

// Valid reports whether the iterator is positioned at an entry.
func (i *Iterator) Valid() bool { return i.valid && i.err == nil }

// Error returns the first error encountered, if any.
func (i *Iterator) Error() error { return i.err }

// Key returns the current entry's internal key. Only valid when Valid().
func (i *Iterator) Key() base.InternalKey { return i.key }

// Value returns the current entry's value. Only valid when Valid().
func (i *Iterator) Value() []byte { return i.value }

// First seeks to the first key in the table.
func (i *Iterator) First() {
	i.block = 0
	i.loadBlock()
	if i.err == nil {
		i.off = 0
		i.decodeAt(i.off)
	}
}

func (i *Iterator) loadBlock() {
	if i.block >= i.r.index.NumEntries() {
		i.valid = false
		return
	}
	bh, err := i.r.index.EntryHandle(i.block)
	if err != nil {
		i.err = err
		return
	}
	data, err := i.r.readDataBlock(i.ctx, bh)
	if err != nil {
		i.err = err
		return
	}
	i.data = data
}

func (i *Iterator) decodeAt(off int) {
	if off >= len(i.data) {
		i.advanceBlock()
		return
	}
	e, n, ok := decodeEntry(i.data[off:])
	if !ok {
		i.err = base.CorruptionErrorf("pebble/table: truncated entry in data block")
		return
	}
	i.keyBuf = append(i.keyBuf[:e.shared], e.keyStart...)
	i.key = base.DecodeInternalKey(i.keyBuf)
	i.value = e.value
	i.off = off + n
	i.valid = true
}

func (i *Iterator) advanceBlock() {
	i.block++
	i.loadBlock()
	if i.err != nil {
		return
	}
	if i.block >= i.r.index.NumEntries() {
		i.valid = false
		return
	}
	i.decodeAt(0)
}

// Next advances to the next key in the table, crossing block boundaries
// transparently.
func (i *Iterator) Next() {
	if i.err != nil {
		i.valid = false
		return
	}
	if i.off >= len(i.data) {
		i.advanceBlock()
		return
	}
	i.decodeAt(i.off)
}

// SeekGE seeks to the first entry whose user key is >= key. The index
// search compares key against the encoded separator keys; the scan within
// the chosen block compares key against each entry's user key only.
func (i *Iterator) SeekGE(key []byte) {
	n := i.r.index.NumEntries()
	lo, hi := 0, n-1
	block := n
	for lo <= hi {
		mid := (lo + hi) / 2
		sepKey, err := i.r.index.EntryKey(mid)
		if err != nil {
			i.err = err
			return
		}
		if i.cmp(sepKey, key) >= 0 {
			block = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	if block >= n {
		i.valid = false
		return
	}
	i.block = block
	i.loadBlock()
	if i.err != nil {
		return
	}
	i.off = 0
	for i.decodeAt(i.off); i.Valid(); i.decodeAt(i.off) {
		if i.cmp(i.key.UserKey, key) >= 0 {
			return
		}
	}
}

// Close releases the iterator's resources.
func (i *Iterator) Close() error {
	return i.err
}
