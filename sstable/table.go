// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package sstable implements the read path over pebble-format sstables:
// footer and index parsing, classical block iteration (C2), and the
// positional reads the learned reader and compaction probe (C3/C4) use to
// go straight to a predicted block without walking the index.
//
// A reader can be used concurrently. Multiple goroutines can call NewIter
// concurrently, and each iterator can run concurrently with other iterators.
// However, any particular iterator should not be used concurrently, and
// iterators should not be used once the reader's file is closed.
//
// To return the value for a key:
//
//	r, _ := sstable.Open(ctx, file, fileNum, options)
//	i := r.NewIter(ctx)
//	defer i.Close()
//	i.SeekGE(key)
//	if i.Valid() {
//		ikey, value := i.Key(), i.Value()
//	}
package sstable // import "github.com/bourbon-db/bourbon/sstable"

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/bourbon-db/bourbon/internal/base"
	"github.com/bourbon-db/bourbon/objstorage"
	"github.com/bourbon-db/bourbon/sstable/block"
)

/*
The table file format this module builds and reads looks like:

<start_of_file>
[data block 0]
[data block 1]
...
[data block N-1]
[index block]
[metaindex block]
[footer]
<end_of_file>

Open eagerly loads the footer, the index block, and (when the metaindex
names one) the filter block. The classical path (C2) searches the index for
a data block; the learned path (C3/C4) reads an index entry's key only when
a model's position window straddles two data blocks.

Each data block is a sequence of key/value entries. Each key is encoded as a
shared prefix length and a remainder string: if two adjacent keys are
"tweedledee" and "tweedledum", the second key is encoded as {8, "um"}. An
entry holds three varints (shared prefix length, remainder length, value
length) followed by the remainder bytes and then the value bytes.

The index block has restart interval 1: every entry is a restart point and
shares no prefix with the entry before it. Its suffix holds (P+1)
little-endian uint32 values: the byte offset of each of its P entries,
followed by P itself. Data blocks carry no restart array; they are a flat
run of entries, walked from the start.

The index block has one entry per data block: a separator key (>= every key
in that data block and < every key in the next) mapped to that data block's
handle (offset, length).
*/

const (
	levelDBFooterLen = 48
	levelDBMagic     = "\x57\xfb\x80\x8b\x24\x75\x47\xdb"

	minFooterLen = levelDBFooterLen
	maxFooterLen = levelDBFooterLen
)

// LevelDB footer format:
//
//	metaindex handle (varint64 offset, varint64 size)
//	index handle     (varint64 offset, varint64 size)
//	<padding> to make the total size 2 * BlockHandle::kMaxEncodedLength
//	table_magic_number (8 bytes)
type footer struct {
	format      TableFormat
	checksum    block.ChecksumType
	metaindexBH block.Handle
	indexBH     block.Handle
	footerBH    block.Handle
}

// TODO(sumeer): should the threshold be configurable.
const slowReadTracingThreshold = 5 * time.Millisecond

// readHandle is optional.
func readFooter(
	ctx context.Context,
	f objstorage.Readable,
	readHandle objstorage.ReadHandle,
	logger base.LoggerAndTracer,
	fileNum base.DiskFileNum,
) (footer, error) {
	size := f.Size()
	if size < minFooterLen {
		return footer{}, base.CorruptionErrorf("pebble/table: invalid table %s (file size is too small)", errors.Safe(fileNum))
	}

	buf := make([]byte, maxFooterLen)
	off := size - maxFooterLen
	if off < 0 {
		off = 0
		buf = buf[:size]
	}
	readStopwatch := makeStopwatch()
	var err error
	if readHandle != nil {
		err = readHandle.ReadAt(ctx, buf, off)
	} else {
		err = f.ReadAt(ctx, buf, off)
	}
	readDuration := readStopwatch.stop()
	// Call IsTracingEnabled to avoid the allocations of boxing integers into an
	// interface{}, unless necessary.
	if readDuration >= slowReadTracingThreshold && logger.IsTracingEnabled(ctx) {
		logger.Eventf(ctx, "reading footer of %d bytes took %s",
			len(buf), readDuration.String())
	}
	if err != nil {
		return footer{}, errors.Wrap(err, "pebble/table: invalid table (could not read footer)")
	}
	foot, err := parseFooter(buf, off, size)
	if err != nil {
		return footer{}, errors.Wrapf(err, "pebble/table: invalid table %s", errors.Safe(fileNum))
	}
	return foot, nil
}

func parseFooter(buf []byte, off, size int64) (footer, error) {
	var footer footer
	magic := buf[len(buf)-len(levelDBMagic):]
	if string(magic) != levelDBMagic {
		return footer, base.CorruptionErrorf("(bad magic number: 0x%x)", magic)
	}
	if len(buf) < levelDBFooterLen {
		return footer, base.CorruptionErrorf("(footer too short): %d", errors.Safe(len(buf)))
	}
	footer.footerBH.Offset = uint64(off+int64(len(buf))) - levelDBFooterLen
	buf = buf[len(buf)-levelDBFooterLen:]
	footer.footerBH.Length = uint64(len(buf))
	footer.format = TableFormatLevelDB
	footer.checksum = block.ChecksumTypeCRC32c

	{
		end := uint64(size)
		var n int
		footer.metaindexBH, n = block.DecodeHandle(buf)
		if n == 0 || footer.metaindexBH.Offset+footer.metaindexBH.Length > end {
			return footer, base.CorruptionErrorf("(bad metaindex block handle)")
		}
		buf = buf[n:]

		footer.indexBH, n = block.DecodeHandle(buf)
		if n == 0 || footer.indexBH.Offset+footer.indexBH.Length > end {
			return footer, base.CorruptionErrorf("(bad index block handle)")
		}
	}

	return footer, nil
}

func (f footer) encode(buf []byte) []byte {
	buf = buf[:levelDBFooterLen]
	clear(buf)
	n := f.metaindexBH.EncodeVarints(buf[0:])
	f.indexBH.EncodeVarints(buf[n:])
	copy(buf[len(buf)-len(levelDBMagic):], levelDBMagic)
	return buf
}
