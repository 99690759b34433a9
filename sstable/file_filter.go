// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

// FileFilterWriter accumulates every key written to a table, regardless of
// block boundaries, and produces a single filter covering the whole file.
// Unlike a filter block, the result is the policy's raw output with no
// offset table or trailer.
type FileFilterWriter struct {
	policy base.FilterPolicy
	keys   keyBuffer
}

// NewFileFilterWriter returns a FileFilterWriter using the given policy.
func NewFileFilterWriter(policy base.FilterPolicy) *FileFilterWriter {
	if policy == nil {
		panic(errors.AssertionFailedf("sstable: nil filter policy"))
	}
	return &FileFilterWriter{policy: policy}
}

// Policy returns the filter policy used by the writer.
func (w *FileFilterWriter) Policy() base.FilterPolicy {
	return w.policy
}

// AddKey adds a key to the file filter. The key is copied.
func (w *FileFilterWriter) AddKey(key []byte) {
	w.keys.add(key)
}

// NumKeys returns the number of keys added since the last Generate or Clear.
func (w *FileFilterWriter) NumKeys() int {
	return w.keys.numKeys()
}

// Generate returns a filter over the keys added since the last Generate or
// Clear, and resets the writer. If no keys were added it returns ok=false:
// no filter is produced, which callers must distinguish from an empty one.
//
// The returned buffer is owned by the caller.
func (w *FileFilterWriter) Generate() (_ []byte, ok bool) {
	if w.keys.numKeys() == 0 {
		w.Clear()
		return nil, false
	}
	filter := w.policy.CreateFilter(nil, w.keys.keys())
	w.Clear()
	return filter, true
}

// Clear discards any accumulated keys, retaining the buffers for reuse. It
// is safe to call at any time.
func (w *FileFilterWriter) Clear() {
	w.keys.reset()
}

// Release discards any accumulated keys and the buffers holding them. The
// writer may still be used afterwards.
func (w *FileFilterWriter) Release() {
	w.keys.release()
}
