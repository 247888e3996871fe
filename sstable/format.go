// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

// TableFormat specifies the format version for a table. This module only
// builds and reads the single-level LevelDB footer format (§4.2); the
// RocksDB/Pebble successor formats existed in the teacher's corpus to
// support two-level indexes and newer block layouts, neither of which this
// module's fixed-entry-size tables use.
type TableFormat uint32

// TableFormatLevelDB is the only format this module's footer reader and
// fixture writer ever produce or parse.
const TableFormatLevelDB TableFormat = 0

// String implements fmt.Stringer.
func (f TableFormat) String() string {
	if f == TableFormatLevelDB {
		return "LevelDB"
	}
	return "Unknown"
}
