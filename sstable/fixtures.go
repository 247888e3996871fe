// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/bourbon-db/bourbon/internal/base"
	"github.com/bourbon-db/bourbon/sstable/block"
)

// BuildTable assembles a minimal, byte-valid LevelDB-format table containing
// the given sorted user keys (each mapped to a value of "<key>-value", at
// sequence number seqNum = index+1, kind Set), grouped into data blocks of
// entriesPerBlock entries each. It has no filter block and no two-level
// index; it exists so internal/cache, internal/learned and internal/merging
// tests can exercise Reader/Iterator against real on-disk bytes without a
// full Writer, which is out of scope for this read-path-only module (see
// DESIGN.md).
//
// Data blocks written here are a flat sequence of shared=0 entries with no
// restart-point trailer, matching what readDataBlock/decodeEntry actually
// consume; this mirrors the simplification already present in those
// functions rather than the full classical per-block restart array.
func BuildTable(keys []string, entriesPerBlock int) []byte {
	if entriesPerBlock <= 0 {
		entriesPerBlock = 1
	}

	var buf []byte
	type blockSpan struct {
		handle  block.Handle
		lastKey []byte
	}
	var blocks []blockSpan

	for i := 0; i < len(keys); i += entriesPerBlock {
		end := i + entriesPerBlock
		if end > len(keys) {
			end = len(keys)
		}
		start := uint64(len(buf))
		var data []byte
		var lastKey []byte
		for j := i; j < end; j++ {
			ik := base.MakeInternalKey([]byte(keys[j]), uint64(j+1), base.InternalKeyKindSet)
			keyBuf := make([]byte, ik.Size())
			ik.Encode(keyBuf)
			value := []byte(keys[j] + "-value")
			data = encodeEntry(data, 0, keyBuf, value)
			lastKey = keyBuf
		}
		buf = append(buf, data...)
		blocks = append(blocks, blockSpan{
			handle:  block.Handle{Offset: start, Length: uint64(len(data))},
			lastKey: lastKey,
		})
	}

	indexOffset := uint64(len(buf))
	var indexData []byte
	offsets := make([]uint32, len(blocks))
	for i, b := range blocks {
		offsets[i] = uint32(len(indexData))
		var hbuf [20]byte
		n := b.handle.EncodeVarints(hbuf[:])
		indexData = encodeEntry(indexData, 0, b.lastKey, hbuf[:n])
	}
	for _, off := range offsets {
		indexData = binary.LittleEndian.AppendUint32(indexData, off)
	}
	indexData = binary.LittleEndian.AppendUint32(indexData, uint32(len(blocks)))
	buf = append(buf, indexData...)
	indexLen := uint64(len(indexData))

	foot := footer{
		format:      TableFormatLevelDB,
		checksum:    block.ChecksumTypeCRC32c,
		metaindexBH: block.Handle{Offset: 0, Length: 0},
		indexBH:     block.Handle{Offset: indexOffset, Length: indexLen},
	}
	footerBuf := make([]byte, levelDBFooterLen)
	foot.encode(footerBuf)
	buf = append(buf, footerBuf...)

	return buf
}

// FixedEntryInput is one entry for BuildFixedTable: a full internal key and
// an unpadded value.
type FixedEntryInput struct {
	Key   base.InternalKey
	Value []byte
}

// BuildFixedTable assembles a fixed-entry-width LevelDB-format table (§3's
// "Entry layout assumptions"), the layout internal/learned and
// internal/merging test against: entries must all be entrySize bytes once
// encoded (shared=0 + non_shared-length + value-length header, assumed 1
// byte each, plus key and value bytes), and len(entries) must be a
// multiple of blockNumEntries. Unlike BuildTable, data blocks here are
// addressed by fixed offset (entrySize * position), never scanned
// entry-by-entry, so the blocks have no internal structure beyond the flat
// entry run.
//
// BlockStride is set equal to BlockSize (no trailer padding between data
// blocks), a simplification of real table layouts (§4.4's Open Question
// about stride vs block_size) that keeps this fixture's byte math simple;
// it does not affect correctness of the global-position formula, which
// only assumes stride is the true per-block byte distance.
func BuildFixedTable(entries []FixedEntryInput, entrySize, blockNumEntries int) ([]byte, error) {
	if len(entries)%blockNumEntries != 0 {
		return nil, base.CorruptionErrorf("sstable: BuildFixedTable requires a multiple of blockNumEntries entries")
	}
	const headerLen = 3 // shared=0, non_shared, value_length: each a 1-byte varint
	blockSize := entrySize * blockNumEntries

	var buf []byte
	type blockSpan struct {
		handle  block.Handle
		lastKey []byte
	}
	var blocks []blockSpan

	for i := 0; i < len(entries); i += blockNumEntries {
		start := uint64(len(buf))
		var lastKey []byte
		for j := i; j < i+blockNumEntries; j++ {
			keyBuf := make([]byte, entries[j].Key.Size())
			entries[j].Key.Encode(keyBuf)
			valueLen := entrySize - headerLen - len(keyBuf)
			if valueLen < len(entries[j].Value) {
				return nil, base.CorruptionErrorf("sstable: BuildFixedTable: entry %d value too long for entrySize", j)
			}
			value := make([]byte, valueLen)
			copy(value, entries[j].Value)
			buf = encodeEntry(buf, 0, keyBuf, value)
			lastKey = keyBuf
		}
		blocks = append(blocks, blockSpan{
			handle:  block.Handle{Offset: start, Length: uint64(blockSize)},
			lastKey: lastKey,
		})
	}

	indexOffset := uint64(len(buf))
	var indexData []byte
	offsets := make([]uint32, len(blocks))
	for i, b := range blocks {
		offsets[i] = uint32(len(indexData))
		var hbuf [20]byte
		n := b.handle.EncodeVarints(hbuf[:])
		indexData = encodeEntry(indexData, 0, b.lastKey, hbuf[:n])
	}
	for _, off := range offsets {
		indexData = binary.LittleEndian.AppendUint32(indexData, off)
	}
	indexData = binary.LittleEndian.AppendUint32(indexData, uint32(len(blocks)))
	buf = append(buf, indexData...)
	indexLen := uint64(len(indexData))

	foot := footer{
		format:      TableFormatLevelDB,
		checksum:    block.ChecksumTypeCRC32c,
		metaindexBH: block.Handle{Offset: 0, Length: 0},
		indexBH:     block.Handle{Offset: indexOffset, Length: indexLen},
	}
	footerBuf := make([]byte, levelDBFooterLen)
	foot.encode(footerBuf)
	buf = append(buf, footerBuf...)

	return buf, nil
}

// FixedReaderOptions returns ReaderOptions matching a table built by
// BuildFixedTable with the given dimensions.
func FixedReaderOptions(entrySize, blockNumEntries int) ReaderOptions {
	return ReaderOptions{
		Comparer:        base.DefaultComparer,
		Logger:          base.NoopLoggerAndTracer{},
		EntrySize:       entrySize,
		BlockNumEntries: blockNumEntries,
		BlockSize:       entrySize * blockNumEntries,
		BlockStride:     entrySize * blockNumEntries,
	}
}
