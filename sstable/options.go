// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import "github.com/bourbon-db/bourbon/internal/base"

// ReaderOptions configures a Reader. Unlike the original's process-wide
// globals (adgMod::block_size, adgMod::block_num_entries, adgMod::entry_size
// — see §9's design note), these are explicit fields threaded through
// every Reader and every learned-path call, so two tables opened with
// different layouts can coexist in one process.
type ReaderOptions struct {
	Comparer *base.Comparer
	Logger   base.LoggerAndTracer

	// EntrySize is the fixed on-disk width, in bytes, of every entry in a
	// data block laid out for the learned path (§3: "Entry layout
	// assumptions"). It must equal the encoded
	// shared+non_shared+value_length header plus the key and value bytes
	// for every entry in the table — which is only possible when keys and
	// values have a fixed width, as the learned training pipeline assumes.
	EntrySize int

	// BlockNumEntries is the number of entries packed into each
	// fixed-layout data block.
	BlockNumEntries int

	// BlockSize is the uncompressed size, in bytes, of each fixed-layout
	// data block (normally EntrySize * BlockNumEntries, but kept as a
	// distinct field since real files pad each block with a trailer —
	// see BlockStride).
	BlockSize int

	// BlockStride is the on-disk distance between the start of
	// consecutive data blocks, including any trailer (checksum + type)
	// the table format appends after the block's raw bytes. §4.4's Open
	// Question calls out that this can differ from BlockSize in general,
	// but every positional read on the learned path (learned/reader.go,
	// learned/compaction.go) computes a block's offset as
	// i*BlockSize — never i*BlockStride — so BlockStride must equal
	// BlockSize for BlockGlobalStart to invert that offset back to a
	// global entry position correctly. A ReaderOptions whose BlockStride
	// diverges from BlockSize is internally inconsistent and unusable on
	// the learned path.
	BlockStride int
}

// DefaultReaderOptions returns options matching the fixed-entry workload
// constants observed in §6 ("N_PER_BLOCK = 125, ENTRY_SIZE = 33"): a
// 10-byte user key, 8-byte internal suffix, 10-byte value, and a ~5-byte
// per-entry header, with no trailer padding between data blocks.
func DefaultReaderOptions() ReaderOptions {
	const entrySize = 33
	const blockNumEntries = 125
	const blockSize = entrySize * blockNumEntries
	return ReaderOptions{
		Comparer:        base.DefaultComparer,
		Logger:          base.NoopLoggerAndTracer{},
		EntrySize:       entrySize,
		BlockNumEntries: blockNumEntries,
		BlockSize:       blockSize,
		BlockStride:     blockSize,
	}
}

// BlockGlobalStart returns the global entry position of the first entry in
// the data block located at the given file offset, per §4.4's "Global
// position mapping": block_global_start = (block_offset / stride) *
// block_num_entries.
func (o ReaderOptions) BlockGlobalStart(blockOffset uint64) uint64 {
	if o.BlockStride == 0 {
		return 0
	}
	return (blockOffset / uint64(o.BlockStride)) * uint64(o.BlockNumEntries)
}
