// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "bytes"

// Compare returns -1, 0, or +1 depending on whether a is less than, equal
// to, or greater than b.
type Compare func(a, b []byte) int

// Equal returns true if a and b are equal.
type Equal func(a, b []byte) bool

// Comparer defines a total ordering over the space of []byte keys. The
// comparer is applied to user keys; it never sees the 8-byte sequence+type
// suffix that distinguishes an InternalKey from a user key.
type Comparer struct {
	Compare Compare
	Equal   Equal
	// Name is a human readable name for the comparer, persisted in the
	// properties block of a table written with it.
	Name string
}

// DefaultComparer is the comparer used by default: byte-lexicographic.
var DefaultComparer = &Comparer{
	Compare: bytes.Compare,
	Equal:   bytes.Equal,
	Name:    "bourbon.BytewiseComparator",
}
