// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"testing"

	"github.com/jayashreemohan29/HyperLevelDB/bloom"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
	"github.com/stretchr/testify/require"
)

func TestWriterKeyOrder(t *testing.T) {
	fs := vfs.NewMem()
	f, err := fs.Create("table")
	require.NoError(t, err)
	w := NewWriter(f, WriterOptions{})
	require.NoError(t, w.Add([]byte("b"), nil))
	require.ErrorContains(t, w.Add([]byte("b"), nil), "strictly increasing")
	// The error is sticky.
	require.ErrorContains(t, w.Add([]byte("c"), nil), "strictly increasing")
	require.ErrorContains(t, w.Close(), "strictly increasing")
	_, err = w.Metadata()
	require.Error(t, err)
}

func TestWriterClosed(t *testing.T) {
	fs := vfs.NewMem()
	f, err := fs.Create("table")
	require.NoError(t, err)
	w := NewWriter(f, WriterOptions{})
	_, err = w.Metadata()
	require.ErrorContains(t, err, "not closed")
	require.NoError(t, w.Add([]byte("a"), []byte("1")))
	require.NoError(t, w.Close())
	require.Error(t, w.Add([]byte("b"), nil))
	require.Error(t, w.Close())
	meta, err := w.Metadata()
	require.NoError(t, err)
	require.EqualValues(t, 1, meta.Properties.NumEntries)
}

func TestWriterEstimatedSize(t *testing.T) {
	fs := vfs.NewMem()
	f, err := fs.Create("table")
	require.NoError(t, err)
	w := NewWriter(f, WriterOptions{BlockSize: 128, Compression: NoCompression})
	var prev uint64
	for _, kv := range makeKVs(200) {
		require.NoError(t, w.Add(kv.key, kv.value))
		size := w.EstimatedSize()
		require.GreaterOrEqual(t, size, prev)
		prev = size
	}
	require.NoError(t, w.Close())
	meta, err := w.Metadata()
	require.NoError(t, err)
	require.Greater(t, meta.Size, prev)
}

// TestWriterFilterBlock checks that the writer's filter block matches one
// built independently from the data block offsets recorded in the table.
func TestWriterFilterBlock(t *testing.T) {
	fs := vfs.NewMem()
	kvs := makeKVs(1000)
	policy := bloom.FilterPolicy(10)
	writeTestTable(t, fs, "table", WriterOptions{
		BlockSize:    300,
		FilterPolicy: policy,
	}, kvs)

	r := openTestTable(t, fs, "table", ReaderOptions{
		Filters: map[string]FilterPolicy{policy.Name(): policy},
	})
	defer func() { require.NoError(t, r.Close()) }()

	fw := NewFilterBlockWriter(policy, DefaultFilterBaseLg)
	iter, err := r.NewIter()
	require.NoError(t, err)
	var lastOffset uint64
	started := false
	for kv := iter.First(); kv != nil; kv = iter.Next() {
		bh, ok, err := r.DataBlockFor(kv.K)
		require.NoError(t, err)
		require.True(t, ok)
		if !started || bh.Offset != lastOffset {
			fw.StartBlock(bh.Offset)
			lastOffset, started = bh.Offset, true
		}
		fw.AddKey(kv.K)
	}
	require.NoError(t, iter.Close())

	want := fw.Finish()
	got, err := r.readBlock(r.filterBH)
	require.NoError(t, err)
	require.Equal(t, want, got)
}
