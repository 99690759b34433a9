// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/internal/manifest"
)

// Comparer exports the base.Comparer type.
type Comparer = base.Comparer

// DefaultComparer exports the base.DefaultComparer variable.
var DefaultComparer = base.DefaultComparer

// FileNum exports the base.FileNum type.
type FileNum = base.FileNum

// FileMetadata exports the manifest.FileMetadata type. It describes a table
// and, when one was built, holds the table's file filter.
type FileMetadata = manifest.FileMetadata

// FilterPolicy exports the base.FilterPolicy type.
type FilterPolicy = base.FilterPolicy

// Logger exports the base.Logger type.
type Logger = base.Logger

// DefaultLogger logs to the Go stdlib logs.
var DefaultLogger = base.DefaultLogger{}

// InternalKV exports the base.InternalKV type.
type InternalKV = base.InternalKV

// InternalIterator exports the base.InternalIterator type. Tables are built
// from an InternalIterator over key/value pairs in increasing key order.
type InternalIterator = base.InternalIterator

// ErrNotFound is returned when a get operation does not find the requested
// key.
var ErrNotFound = base.ErrNotFound

// ErrCorruption is a marker to indicate that data in a file (WAL, MANIFEST,
// sstable) isn't in the expected format.
var ErrCorruption = base.ErrCorruption

// IsCorruptionError returns true if the given error indicates corruption.
func IsCorruptionError(err error) bool {
	return base.IsCorruptionError(err)
}
