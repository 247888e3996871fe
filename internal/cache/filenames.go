// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package cache

import (
	"fmt"

	"github.com/bourbon-db/bourbon/internal/base"
)

// TableFileName returns the preferred on-disk name for an SST (§6):
// "{dbname}/{n:06}.ldb".
func TableFileName(dbname string, fileNum base.DiskFileNum) string {
	return fmt.Sprintf("%s/%06d.ldb", dbname, uint64(fileNum))
}

// SSTTableFileName returns the legacy on-disk name for an SST, attempted
// only after TableFileName fails to open (§4.1, §6).
func SSTTableFileName(dbname string, fileNum base.DiskFileNum) string {
	return fmt.Sprintf("%s/%06d.sst", dbname, uint64(fileNum))
}
