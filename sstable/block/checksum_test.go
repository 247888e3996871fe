// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package block

import (
	"encoding/binary"
	"testing"

	"github.com/DataDog/zstd"
	"github.com/golang/snappy"
	"github.com/stretchr/testify/require"
)

func appendTrailer(t *testing.T, typ ChecksumType, data []byte) []byte {
	t.Helper()
	sum, err := checksum4(typ, data)
	require.NoError(t, err)
	buf := make([]byte, len(data)+4)
	copy(buf, data)
	binary.LittleEndian.PutUint32(buf[len(data):], sum)
	return buf
}

func TestVerifyChecksumCRC32c(t *testing.T) {
	data := []byte("some data block bytes\x00")
	buf := appendTrailer(t, ChecksumTypeCRC32c, data)
	require.NoError(t, VerifyChecksum(ChecksumTypeCRC32c, buf))

	buf[0] ^= 0xff
	require.Error(t, VerifyChecksum(ChecksumTypeCRC32c, buf))
}

func TestVerifyChecksumXXHash64(t *testing.T) {
	data := []byte("some other data block bytes\x01")
	buf := appendTrailer(t, ChecksumTypeXXHash64, data)
	require.NoError(t, VerifyChecksum(ChecksumTypeXXHash64, buf))

	buf[len(buf)-1] ^= 0xff
	require.Error(t, VerifyChecksum(ChecksumTypeXXHash64, buf))
}

func TestVerifyChecksumNoneIgnoresMismatch(t *testing.T) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[4:], 0xdeadbeef)
	require.NoError(t, VerifyChecksum(ChecksumTypeNone, buf))
}

func TestDecompressRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, to give the compressor something to do")

	raw, err := Decompress(CompressionTypeNone, payload)
	require.NoError(t, err)
	require.Equal(t, payload, raw)

	snappyEncoded := snappy.Encode(nil, payload)
	decoded, err := Decompress(CompressionTypeSnappy, snappyEncoded)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)

	zstdEncoded, err := zstd.Compress(nil, payload)
	require.NoError(t, err)
	decoded, err = Decompress(CompressionTypeZstd, zstdEncoded)
	require.NoError(t, err)
	require.Equal(t, payload, decoded)

	_, err = Decompress(CompressionType(99), payload)
	require.Error(t, err)
}
