// Copyright 2022 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package objstorage

import (
	"context"
	"os"
)

// Provider opens a named object for reading. The table cache (C1) holds one
// Provider and resolves file numbers to names itself (§6: TableFileName /
// SSTTableFileName), so Provider only needs to open a path.
type Provider interface {
	OpenForReading(ctx context.Context, name string) (Readable, error)
}

// DiskProvider is a Provider backed by the local filesystem.
type DiskProvider struct{}

var _ Provider = DiskProvider{}

// OpenForReading opens name on the local filesystem.
func (DiskProvider) OpenForReading(_ context.Context, name string) (Readable, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &diskReadable{f: f, size: fi.Size()}, nil
}

type diskReadable struct {
	f    *os.File
	size int64
}

var _ Readable = (*diskReadable)(nil)

func (d *diskReadable) ReadAt(_ context.Context, p []byte, off int64) error {
	n, err := d.f.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	return err
}

func (d *diskReadable) Size() int64 { return d.size }

func (d *diskReadable) Close() error { return d.f.Close() }
