// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/bourbon-db/bourbon/internal/base"
	"github.com/bourbon-db/bourbon/sstable/block"
)

// indexBlock is a parsed single-level index block: N key/value entries
// where the i'th value is the block handle of the i'th data block and the
// i'th key is a separator (or, for the last entry, a successor) — see the
// format comment at the top of table.go. The index block's restart
// interval is 1: every entry is a restart point, so the restart array
// doubles as a direct offset table from data-block index to index-entry
// offset (§4.3: "read the index block's restart-array entry at
// index_lower").
type indexBlock struct {
	data        []byte
	restarts    int // byte offset of the restart array
	numRestarts int
}

func newIndexBlock(data []byte) (*indexBlock, error) {
	if len(data) < 4 {
		return nil, base.CorruptionErrorf("index block too short")
	}
	numRestarts := int(binary.LittleEndian.Uint32(data[len(data)-4:]))
	if numRestarts <= 0 {
		return nil, base.CorruptionErrorf("index block has no restart points")
	}
	restarts := len(data) - 4*(1+numRestarts)
	if restarts < 0 {
		return nil, base.CorruptionErrorf("index block restart array overruns block")
	}
	return &indexBlock{data: data, restarts: restarts, numRestarts: numRestarts}, nil
}

// NumEntries returns the number of data blocks this index describes.
func (b *indexBlock) NumEntries() int { return b.numRestarts }

// entryOffset returns the byte offset of the i'th index entry.
func (b *indexBlock) entryOffset(i int) int {
	return int(binary.LittleEndian.Uint32(b.data[b.restarts+4*i:]))
}

// EntryKey decodes the separator/successor key of the i'th data block —
// the largest key in that block — without decoding its value. §4.3 uses
// this to resolve which of two candidate blocks a target key falls into
// when a learned position window straddles a block boundary; §4.4 does the
// same but keeps the full internal key rather than only the user key.
func (b *indexBlock) EntryKey(i int) ([]byte, error) {
	off := b.entryOffset(i)
	var end int
	if i+1 < b.numRestarts {
		end = b.entryOffset(i + 1)
	} else {
		end = b.restarts
	}
	if off < 0 || end > len(b.data) || off > end {
		return nil, base.CorruptionErrorf("index entry %d out of bounds", i)
	}
	e, _, ok := decodeEntry(b.data[off:end])
	if !ok {
		return nil, base.CorruptionErrorf("truncated index entry %d", i)
	}
	if e.shared != 0 {
		base.AssertionFailedf("index entry %d has non-zero shared prefix", i)
	}
	return e.keyStart, nil
}

// EntryHandle decodes the block handle stored as the value of the i'th
// index entry.
func (b *indexBlock) EntryHandle(i int) (block.Handle, error) {
	off := b.entryOffset(i)
	var end int
	if i+1 < b.numRestarts {
		end = b.entryOffset(i + 1)
	} else {
		end = b.restarts
	}
	if off < 0 || end > len(b.data) || off > end {
		return block.Handle{}, base.CorruptionErrorf("index entry %d out of bounds", i)
	}
	e, _, ok := decodeEntry(b.data[off:end])
	if !ok {
		return block.Handle{}, base.CorruptionErrorf("truncated index entry %d", i)
	}
	h, n := block.DecodeHandle(e.value)
	if n == 0 {
		return block.Handle{}, base.CorruptionErrorf("bad block handle in index entry %d", i)
	}
	return h, nil
}
