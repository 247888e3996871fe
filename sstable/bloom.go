// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/bourbon-db/bourbon/internal/base"
)

// bloomFilterReader reads the classic per-data-block bloom filter block
// layout: a sequence of concatenated per-block filters, followed by a
// little-endian uint32 offset table (one entry per filter, plus a
// trailing sentinel equal to the offset table's own offset), followed by
// a 1-byte number of probes and, as the last byte, a 1-byte "base log"
// (filters are indexed by blockOffset >> baseLg).
type bloomFilterReader struct {
	data    []byte
	offsets []byte // the raw offset-table bytes
	baseLg  uint8
	probes  uint8
	num     int
}

func newBloomFilterReader(contents []byte) (*bloomFilterReader, error) {
	if len(contents) < 6 {
		return nil, base.CorruptionErrorf("filter block too short")
	}
	n := len(contents)
	baseLg := contents[n-1]
	probes := contents[n-2]
	lastWordIdx := n - 6
	arrayOffset := binary.LittleEndian.Uint32(contents[lastWordIdx:])
	if uint64(arrayOffset) > uint64(lastWordIdx) {
		return nil, base.CorruptionErrorf("filter block offset table corrupt")
	}
	offsets := contents[arrayOffset:lastWordIdx]
	if len(offsets)%4 != 0 {
		return nil, base.CorruptionErrorf("filter block offset table misaligned")
	}
	return &bloomFilterReader{
		data:    contents[:arrayOffset],
		offsets: offsets,
		baseLg:  baseLg,
		probes:  probes,
		num:     len(offsets)/4 - 1,
	}, nil
}

var _ FilterBlockReader = (*bloomFilterReader)(nil)

// MayContain implements FilterBlockReader.
func (f *bloomFilterReader) MayContain(blockOffset uint64, key []byte) bool {
	index := int(blockOffset >> f.baseLg)
	if index < 0 || index >= f.num {
		return true
	}
	start := binary.LittleEndian.Uint32(f.offsets[index*4:])
	limit := binary.LittleEndian.Uint32(f.offsets[index*4+4:])
	if start > limit || int(limit) > len(f.data) {
		return true
	}
	filter := f.data[start:limit]
	return bloomMayContain(filter, int(f.probes), key)
}

func bloomHash(key []byte) uint32 {
	const seed = 0xbc9f1d34
	const m = 0xc6a4a793
	h := uint32(seed) ^ uint32(len(key))*m
	for _, b := range key {
		h += uint32(b)
		h *= m
		h ^= h >> 24
	}
	return h
}

func bloomMayContain(filter []byte, probes int, key []byte) bool {
	if len(filter) < 1 {
		return false
	}
	bits := uint32(len(filter)-1) * 8
	if bits == 0 {
		return true
	}
	h := bloomHash(key)
	delta := (h >> 17) | (h << 15)
	for i := 0; i < probes; i++ {
		bitPos := h % bits
		if filter[bitPos/8]&(1<<(bitPos%8)) == 0 {
			return false
		}
		h += delta
	}
	return true
}
