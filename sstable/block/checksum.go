// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/DataDog/zstd"
	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

// CompressionType identifies how a block's bytes are stored on disk,
// occupying the first byte of its TrailerLen-byte trailer (grounded on
// backwardn-pebble's snappyCompressionBlockType byte, generalized to cover
// the rest of the pack's compression libraries).
type CompressionType byte

// The compression types a block trailer may declare.
const (
	CompressionTypeNone   CompressionType = 0
	CompressionTypeSnappy CompressionType = 1
	CompressionTypeZstd   CompressionType = 2
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// checksum4 computes the 4-byte checksum of b (the block's compressed bytes
// plus its compression-type byte) under typ, truncating a 64-bit digest
// where the algorithm produces one: TrailerLen only budgets 4 checksum
// bytes, the same width RocksDB's own CRC32c trailer uses.
func checksum4(typ ChecksumType, b []byte) (uint32, error) {
	switch typ {
	case ChecksumTypeCRC32c:
		return crc32.Checksum(b, castagnoliTable), nil
	case ChecksumTypeXXHash, ChecksumTypeXXHash64:
		return uint32(xxhash.Sum64(b)), nil
	case ChecksumTypeNone:
		return 0, nil
	default:
		return 0, errors.Newf("pebble/table: unsupported checksum type %d", typ)
	}
}

// VerifyChecksum validates the TrailerLen-byte trailer appended to a
// block's raw (possibly compressed) bytes raw, as backwardn-pebble's
// readBlock does inline before trusting a block's contents. typ is the
// checksum algorithm named by the table's footer.
func VerifyChecksum(typ ChecksumType, raw []byte) error {
	if len(raw) < TrailerLen {
		return errors.Newf("pebble/table: block too short for trailer (%d bytes)", len(raw))
	}
	data := raw[:len(raw)-4]
	want := binary.LittleEndian.Uint32(raw[len(raw)-4:])
	got, err := checksum4(typ, data)
	if err != nil {
		return err
	}
	if typ != ChecksumTypeNone && got != want {
		return errors.Newf("pebble/table: invalid table (checksum mismatch)")
	}
	return nil
}

// Decompress returns the decompressed block payload (the trailer's
// compression-type byte having already been stripped, so payload holds
// only the compressed bytes), grounded on backwardn-pebble's readBlock
// switch over noCompressionBlockType/snappyCompressionBlockType and
// extended to the zstd path devlibx-pebble's go.mod pulls in.
func Decompress(typ CompressionType, payload []byte) ([]byte, error) {
	switch typ {
	case CompressionTypeNone:
		return payload, nil
	case CompressionTypeSnappy:
		decodedLen, err := snappy.DecodedLen(payload)
		if err != nil {
			return nil, errors.Wrap(err, "pebble/table: corrupt snappy block")
		}
		decoded := make([]byte, decodedLen)
		decoded, err = snappy.Decode(decoded, payload)
		if err != nil {
			return nil, errors.Wrap(err, "pebble/table: corrupt snappy block")
		}
		return decoded, nil
	case CompressionTypeZstd:
		decoded, err := zstd.Decompress(nil, payload)
		if err != nil {
			return nil, errors.Wrap(err, "pebble/table: corrupt zstd block")
		}
		return decoded, nil
	default:
		return nil, errors.Newf("pebble/table: unknown block compression: %d", typ)
	}
}
