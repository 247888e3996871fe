// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

// FilterBlockReader answers "may this data block contain key?" for a
// per-block bloom filter. A negative answer is exact (the key is provably
// absent from the block); a positive answer only means "maybe" (§4.3
// "Filter gating").
type FilterBlockReader interface {
	// MayContain reports whether the block starting at blockOffset may
	// contain key. blockOffset is the file offset of the data block, used
	// to select which of the filter block's per-block bloom filters to
	// probe.
	MayContain(blockOffset uint64, key []byte) bool
}

// noFilter is used when a table has no filter block; every probe is
// optimistic.
type noFilter struct{}

func (noFilter) MayContain(uint64, []byte) bool { return true }
