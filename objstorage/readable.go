// Copyright 2022 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package objstorage abstracts the backing store of an SST file behind a
// narrow, positioned-read interface. The core only ever needs to read a
// file at an offset (footer, index, a learned-path byte range); it never
// needs to know whether that file lives on local disk, in a cloud object
// store, or behind a cache.
package objstorage

import "context"

// Readable is a file-like handle that supports concurrent positioned reads,
// matching the RandomAccessFile requirement of §5 ("The RandomAccessFile
// must support concurrent positioned reads; implementations lacking this
// must serialize internally").
type Readable interface {
	// ReadAt reads len(p) bytes into p starting at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) error
	// Size returns the size of the underlying file.
	Size() int64
	// Close releases any resources associated with the readable.
	Close() error
}

// ReadHandle is an optional, read-ahead-aware handle returned by a
// Readable for a sequence of related reads (e.g. scanning a table's
// meta blocks in order at open time). Passing nil to a function that
// accepts a ReadHandle means "no read-ahead hint available".
type ReadHandle interface {
	ReadAt(ctx context.Context, p []byte, off int64) error
	Close() error
}
