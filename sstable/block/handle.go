// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package block describes the on-disk block format shared by every SST
// block: a handle (offset + length), a trailer (compression type +
// checksum), and the checksum algorithms a footer may name.
package block

import "encoding/binary"

// ChecksumType identifies the checksum algorithm protecting a block's
// trailer. Neither the learned path nor the classical reader verifies them
// today (Reader.readDataBlock reads blocks without a trailer check); the
// footer names one, and VerifyChecksum can validate it.
type ChecksumType byte

// The checksum types a footer may declare.
const (
	ChecksumTypeNone      ChecksumType = 0
	ChecksumTypeCRC32c    ChecksumType = 1
	ChecksumTypeXXHash    ChecksumType = 2
	ChecksumTypeXXHash64  ChecksumType = 3
)

// TrailerLen is the number of bytes appended after a block's (possibly
// compressed) data: 1 byte of compression type, 4 bytes of checksum.
const TrailerLen = 5

// Handle is the file offset and length of a block, as encoded in an index
// or metaindex entry. Length does not include the TrailerLen-byte trailer.
type Handle struct {
	Offset, Length uint64
}

// DecodeHandle decodes a block handle from the start of src, returning the
// handle and the number of bytes consumed. It returns a zero handle and n=0
// on malformed input (both varints must decode successfully).
func DecodeHandle(src []byte) (Handle, int) {
	offset, n := binary.Uvarint(src)
	if n <= 0 {
		return Handle{}, 0
	}
	length, m := binary.Uvarint(src[n:])
	if m <= 0 {
		return Handle{}, 0
	}
	return Handle{Offset: offset, Length: length}, n + m
}

// EncodeVarints encodes the handle into dst as two varints, returning the
// number of bytes written.
func (h Handle) EncodeVarints(dst []byte) int {
	n := binary.PutUvarint(dst, h.Offset)
	n += binary.PutUvarint(dst[n:], h.Length)
	return n
}
