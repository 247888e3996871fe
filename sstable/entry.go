// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/bourbon-db/bourbon/internal/base"
)

// entry is a decoded key/value record from a block: a shared-prefix length,
// the non-shared key suffix, and the value, per §3's "Entry layout
// assumptions": "shared=0, non_shared, value_length, key bytes, value
// bytes". Data blocks in the fixed-entry-size learned path always have
// shared == 0 (every entry stores its full key) — that invariant is
// asserted by decodeEntry's caller, not by decodeEntry itself, since the
// classical data-block walks (Iterator, Reader.InternalGet) accept non-zero
// shared prefixes.
type entry struct {
	shared, nonShared, valueLen uint32
	keyStart                    []byte // the nonShared key suffix
	value                       []byte
}

// decodeEntry decodes one entry starting at the beginning of buf, returning
// it along with the number of bytes it occupies. It returns ok=false if buf
// is too short to hold a complete entry.
func decodeEntry(buf []byte) (e entry, n int, ok bool) {
	shared, n1 := binary.Uvarint(buf)
	if n1 <= 0 {
		return entry{}, 0, false
	}
	nonShared, n2 := binary.Uvarint(buf[n1:])
	if n2 <= 0 {
		return entry{}, 0, false
	}
	valueLen, n3 := binary.Uvarint(buf[n1+n2:])
	if n3 <= 0 {
		return entry{}, 0, false
	}
	hdr := n1 + n2 + n3
	need := hdr + int(nonShared) + int(valueLen)
	if need > len(buf) {
		return entry{}, 0, false
	}
	e = entry{
		shared:    uint32(shared),
		nonShared: uint32(nonShared),
		valueLen:  uint32(valueLen),
		keyStart:  buf[hdr : hdr+int(nonShared) : hdr+int(nonShared)],
		value:     buf[hdr+int(nonShared) : need : need],
	}
	return e, need, true
}

// decodeFixedEntry decodes the entry stored at position pos within a block
// whose entries are all entrySize bytes wide (§3's fixed-size learned
// path). It panics if the decoded shared prefix is non-zero: every entry in
// a fixed-entry-size data block stores its full key, so a non-zero shared
// prefix indicates corruption (§4.3 "Binary search": "The invariant shared
// = 0 must hold for every decoded entry").
func decodeFixedEntry(block []byte, pos int, entrySize int) (entry, error) {
	off := pos * entrySize
	end := off + entrySize
	if end > len(block) {
		return entry{}, base.CorruptionErrorf("fixed entry at position %d exceeds block bounds", pos)
	}
	e, _, ok := decodeEntry(block[off:end])
	if !ok {
		return entry{}, base.CorruptionErrorf("truncated fixed-size entry at position %d", pos)
	}
	if e.shared != 0 {
		base.AssertionFailedf("fixed-size entry at position %d has non-zero shared prefix %d", pos, e.shared)
	}
	return e, nil
}

// FixedEntry is the decoded key/value of one fixed-width entry, exposed to
// internal/learned so C3/C4 can decode positional reads without importing
// sstable's unexported entry type.
type FixedEntry struct {
	Key   []byte
	Value []byte
}

// DecodeFixedEntry decodes the entry at position pos within buf, a run of
// fixed-width entries each entrySize bytes wide.
func DecodeFixedEntry(buf []byte, pos int, entrySize int) (FixedEntry, error) {
	e, err := decodeFixedEntry(buf, pos, entrySize)
	if err != nil {
		return FixedEntry{}, err
	}
	return FixedEntry{Key: e.keyStart, Value: e.value}, nil
}

// encodeEntry appends the encoding of an entry (shared, nonShared key
// bytes, value) to dst and returns the result.
func encodeEntry(dst []byte, shared int, key, value []byte) []byte {
	var tmp [binary.MaxVarintLen64 * 3]byte
	n := binary.PutUvarint(tmp[:], uint64(shared))
	n += binary.PutUvarint(tmp[n:], uint64(len(key)))
	n += binary.PutUvarint(tmp[n:], uint64(len(value)))
	dst = append(dst, tmp[:n]...)
	dst = append(dst, key...)
	dst = append(dst, value...)
	return dst
}
