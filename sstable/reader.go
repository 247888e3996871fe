// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"context"

	"github.com/bourbon-db/bourbon/internal/base"
	"github.com/bourbon-db/bourbon/objstorage"
	"github.com/bourbon-db/bourbon/sstable/block"
)

// Reader parses a single SST's footer, index and (optional) filter block,
// and answers classical point lookups and forward iteration. This is C2 of
// the core spec: the baseline two-level lookup path that the learned path
// (internal/learned) bypasses when a trained model is available.
//
// A Reader is safe for concurrent use: NewIter and InternalGet may be
// called concurrently from multiple goroutines, though any one Iterator
// must not be.
type Reader struct {
	file    objstorage.Readable
	fileNum base.DiskFileNum
	opts    ReaderOptions

	foot  footer
	index *indexBlock
	filt  FilterBlockReader

	// cacheID distinguishes blocks of this file from blocks of any other
	// file that might share a block cache, mirroring Rep's cache_id field.
	cacheID uint64
}

// Open parses f's footer, index block, and (if present) filter block, and
// returns a Reader. The caller retains ownership of f's lifetime; Reader
// does not close it.
func Open(ctx context.Context, f objstorage.Readable, fileNum base.DiskFileNum, opts ReaderOptions) (*Reader, error) {
	foot, err := readFooter(ctx, f, nil, opts.Logger, fileNum)
	if err != nil {
		return nil, err
	}
	indexBuf := make([]byte, foot.indexBH.Length)
	if err := f.ReadAt(ctx, indexBuf, int64(foot.indexBH.Offset)); err != nil {
		return nil, base.IoErrorf("pebble/table: could not read index block: %v", err)
	}
	idx, err := newIndexBlock(indexBuf)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:    f,
		fileNum: fileNum,
		opts:    opts,
		foot:    foot,
		index:   idx,
		filt:    noFilter{},
		cacheID: uint64(fileNum),
	}

	if fh, ok, err := r.readMetaHandle(ctx, metaFilterName); err != nil {
		return nil, err
	} else if ok {
		filterBuf := make([]byte, fh.Length)
		if err := f.ReadAt(ctx, filterBuf, int64(fh.Offset)); err != nil {
			return nil, base.IoErrorf("pebble/table: could not read filter block: %v", err)
		}
		filt, err := newBloomFilterReader(filterBuf)
		if err != nil {
			return nil, err
		}
		r.filt = filt
	}

	return r, nil
}

const metaFilterName = "bourbon.filter"

// readMetaHandle scans the metaindex block for a block handle registered
// under name. The metaindex block uses the same restart-1 layout as the
// main index block, so indexBlock doubles as its parser.
func (r *Reader) readMetaHandle(ctx context.Context, name string) (h block.Handle, ok bool, err error) {
	if r.foot.metaindexBH.Length == 0 {
		return block.Handle{}, false, nil
	}
	buf := make([]byte, r.foot.metaindexBH.Length)
	if err := r.file.ReadAt(ctx, buf, int64(r.foot.metaindexBH.Offset)); err != nil {
		return block.Handle{}, false, base.IoErrorf("pebble/table: could not read metaindex block: %v", err)
	}
	mi, err := newIndexBlock(buf)
	if err != nil {
		return block.Handle{}, false, err
	}
	for i := 0; i < mi.NumEntries(); i++ {
		key, err := mi.EntryKey(i)
		if err != nil {
			return block.Handle{}, false, err
		}
		if string(key) == name {
			bh, err := mi.EntryHandle(i)
			if err != nil {
				return block.Handle{}, false, err
			}
			return bh, true, nil
		}
	}
	return block.Handle{}, false, nil
}

// IndexBlock returns the parsed index block, exposed so the learned-path
// readers (internal/learned) can resolve which data block a position
// window straddles without duplicating footer/index parsing.
func (r *Reader) IndexBlock() *indexBlock { return r.index }

// Filter returns the table's filter block reader, or a no-op reader if the
// table has none.
func (r *Reader) Filter() FilterBlockReader { return r.filt }

// File returns the underlying readable, for the learned path's direct
// positioned reads.
func (r *Reader) File() objstorage.Readable { return r.file }

// Options returns the options the reader was opened with.
func (r *Reader) Options() ReaderOptions { return r.opts }

// FileNum returns the reader's file number.
func (r *Reader) FileNum() base.DiskFileNum { return r.fileNum }

// ReadRange reads exactly len(buf) bytes at the given file offset. It is
// the learned path's (internal/learned) primitive for positional reads
// that don't go through a block.Handle, since a learned read's byte range
// is computed from the model, not decoded from the index.
func (r *Reader) ReadRange(ctx context.Context, buf []byte, offset int64) error {
	if err := r.file.ReadAt(ctx, buf, offset); err != nil {
		return base.IoErrorf("pebble/table: learned positional read failed: %v", err)
	}
	return nil
}

// readDataBlock reads and returns the raw bytes of the data block named by
// handle, stripping any trailer. Fixed-layout data blocks used by the
// learned path have no compression (the learned training pipeline assumes
// a stable byte layout), so this is a plain positioned read; the test
// fixtures this module builds (BuildTable, BuildFixedTable) follow suit and
// write trailer-less, uncompressed blocks, since a real SST writer — which
// would choose a ChecksumType and CompressionType per block — is out of
// scope for this read-path-only module (see DESIGN.md). block.VerifyChecksum
// and block.Decompress exist and are tested (block/checksum_test.go) for
// when a real writer starts producing checksummed/compressed blocks; wiring
// them into this call is then a one-line change guarded by r.foot.checksum
// and the trailer's compression-type byte.
func (r *Reader) readDataBlock(ctx context.Context, h block.Handle) ([]byte, error) {
	buf := make([]byte, h.Length)
	if err := r.file.ReadAt(ctx, buf, int64(h.Offset)); err != nil {
		return nil, base.IoErrorf("pebble/table: could not read data block: %v", err)
	}
	return buf, nil
}

// InternalGet performs the classical lookup (§4.2): consult the index
// block for the data block that might contain key, optionally check the
// filter, read that data block, and scan it entry by entry for an entry
// whose encoded key equals key. It invokes handleResult with the matched
// entry's key and value on success.
func (r *Reader) InternalGet(
	ctx context.Context, key []byte, handleResult func(key, value []byte),
) (found bool, err error) {
	cmp := r.opts.Comparer.Compare

	// Binary search the index for the first block whose separator key is
	// >= key.
	n := r.index.NumEntries()
	blockIdx := -1
	lo, hi := 0, n-1
	for lo <= hi {
		mid := (lo + hi) / 2
		sepKey, err := r.index.EntryKey(mid)
		if err != nil {
			return false, err
		}
		if cmp(sepKey, key) >= 0 {
			blockIdx = mid
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	if blockIdx == -1 {
		return false, nil
	}

	bh, err := r.index.EntryHandle(blockIdx)
	if err != nil {
		return false, err
	}
	blockOffset := bh.Offset
	if !r.filt.MayContain(blockOffset, key) {
		return false, nil
	}

	data, err := r.readDataBlock(ctx, bh)
	if err != nil {
		return false, err
	}

	// Classical entry-by-entry scan; data blocks here are the variable
	// shared-prefix encoding, not the fixed-width learned layout, so we
	// walk forward decoding each entry rather than computing an offset.
	off := 0
	var lastKey []byte
	var keyBuf []byte
	for off < len(data) {
		e, n, ok := decodeEntry(data[off:])
		if !ok {
			return false, base.CorruptionErrorf("pebble/table: truncated entry in data block")
		}
		keyBuf = append(keyBuf[:e.shared], e.keyStart...)
		lastKey = keyBuf
		if cmp(lastKey, key) == 0 {
			handleResult(lastKey, e.value)
			return true, nil
		}
		if cmp(lastKey, key) > 0 {
			return false, nil
		}
		off += n
	}
	return false, nil
}
