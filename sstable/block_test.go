// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"fmt"
	"testing"

	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/stretchr/testify/require"
)

func TestBlockWriter(t *testing.T) {
	w := blockWriter{restartInterval: 16}
	w.add([]byte("apple"), []byte("red"))
	w.add([]byte("apricot"), []byte("orange"))
	w.add([]byte("banana"), []byte("yellow"))
	got := string(w.finish())
	want := "\x00\x05\x03applered" +
		"\x02\x05\x06ricotorange" +
		"\x00\x06\x06bananayellow" +
		"\x00\x00\x00\x00" +
		"\x01\x00\x00\x00"
	require.Equal(t, want, got)
}

func TestBlockWriterRestarts(t *testing.T) {
	w := blockWriter{restartInterval: 2}
	w.add([]byte("a"), nil)
	w.add([]byte("ab"), nil)
	w.add([]byte("abc"), nil)
	require.Equal(t, []uint32{0, 8}, w.restarts)
	require.Equal(t, 14+4*3, w.estimatedSize())
	require.Equal(t, w.estimatedSize(), len(w.finish()))

	w.reset()
	require.True(t, w.empty())
	require.Equal(t, "\x00\x00\x00\x00\x01\x00\x00\x00", string(w.finish()))
}

func TestBlockIter(t *testing.T) {
	for _, restartInterval := range []int{1, 2, 16} {
		t.Run(fmt.Sprint(restartInterval), func(t *testing.T) {
			w := blockWriter{restartInterval: restartInterval}
			var keys []string
			for i := 0; i < 100; i++ {
				k := fmt.Sprintf("key%03d", i*2)
				keys = append(keys, k)
				w.add([]byte(k), []byte(fmt.Sprint(i)))
			}
			iter, err := newBlockIter(base.DefaultComparer.Compare, w.finish())
			require.NoError(t, err)

			var n int
			for kv := iter.First(); kv != nil; kv = iter.Next() {
				require.Equal(t, keys[n], string(kv.K))
				require.Equal(t, fmt.Sprint(n), string(kv.V))
				n++
			}
			require.Equal(t, len(keys), n)
			require.Nil(t, iter.Next())

			for i := 0; i < 200; i++ {
				kv := iter.SeekGE([]byte(fmt.Sprintf("key%03d", i)))
				j := (i + 1) / 2
				if j == len(keys) {
					require.Nil(t, kv)
					continue
				}
				require.NotNil(t, kv, "seek %d", i)
				require.Equal(t, keys[j], string(kv.K))
			}
			require.Equal(t, "key000", string(iter.SeekGE([]byte("a")).K))
			require.Nil(t, iter.SeekGE([]byte("z")))
			require.NoError(t, iter.Close())
		})
	}
}

func TestBlockIterEmpty(t *testing.T) {
	var w blockWriter
	w.restartInterval = 16
	iter, err := newBlockIter(base.DefaultComparer.Compare, w.finish())
	require.NoError(t, err)
	require.Nil(t, iter.First())
	require.Nil(t, iter.SeekGE([]byte("a")))
	require.NoError(t, iter.Close())
}

func TestBlockIterCorrupt(t *testing.T) {
	_, err := newBlockIter(base.DefaultComparer.Compare, []byte{1, 2})
	require.True(t, base.IsCorruptionError(err))

	_, err = newBlockIter(base.DefaultComparer.Compare, []byte{0, 0, 0, 0})
	require.True(t, base.IsCorruptionError(err))

	// An entry claiming more value bytes than the block holds.
	block := []byte("\x00\x01\x20a\x00\x00\x00\x00\x01\x00\x00\x00")
	iter, err := newBlockIter(base.DefaultComparer.Compare, block)
	require.NoError(t, err)
	require.Nil(t, iter.First())
	require.True(t, base.IsCorruptionError(iter.Error()))
	require.True(t, base.IsCorruptionError(iter.Close()))
}
