// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "sync/atomic"

// DiskFileNum identifies an on-disk SST file, independent of any backing
// object-storage provider's notion of identity.
type DiskFileNum uint64

// FileMetaData is an immutable per-SST descriptor (§3). It lives for the
// lifetime of the version that references it and is refcounted: a version
// holds one reference per file, and compactions/iterators that need the
// file to outlive the version take their own.
type FileMetaData struct {
	FileNum      DiskFileNum
	FileSize     uint64
	Smallest     InternalKey
	Largest      InternalKey
	NumKeys      uint64
	AllowedSeeks atomic.Int64

	refs atomic.Int32
}

// Ref increments the file's reference count.
func (m *FileMetaData) Ref() { m.refs.Add(1) }

// Unref decrements the file's reference count, returning the count after
// the decrement. A version manager unlinks the file from disk once this
// reaches zero and the file is no longer referenced by any version.
func (m *FileMetaData) Unref() int32 { return m.refs.Add(-1) }

// Refs returns the current reference count.
func (m *FileMetaData) Refs() int32 { return m.refs.Load() }
