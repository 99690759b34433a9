// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package record

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/stretchr/testify/require"
)

func writeRecords(t *testing.T, records ...string) []byte {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	var want int64
	for _, r := range records {
		off, err := w.WriteRecord([]byte(r))
		require.NoError(t, err)
		want += HeaderSize + int64(len(r))
		require.Equal(t, want, off)
	}
	require.NoError(t, w.Close())
	require.Equal(t, int64(buf.Len()), w.Size())
	_, err := w.WriteRecord([]byte("x"))
	require.Error(t, err)
	return buf.Bytes()
}

func readRecords(data []byte) ([]string, error) {
	var ss []string
	r := NewReader(bytes.NewReader(data))
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return ss, nil
		}
		if err != nil {
			return ss, err
		}
		s, err := io.ReadAll(rec)
		if err != nil {
			return ss, err
		}
		ss = append(ss, string(s))
	}
}

func TestRecordRoundTrip(t *testing.T) {
	records := []string{"", "a", "hello world", strings.Repeat("x", 100000)}
	for i := 0; i < 100; i++ {
		records = append(records, fmt.Sprintf("record-%d", i))
	}
	got, err := readRecords(writeRecords(t, records...))
	require.NoError(t, err)
	require.Equal(t, records, got)
}

func TestRecordEmptyStream(t *testing.T) {
	got, err := readRecords(nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRecordSkipUnread(t *testing.T) {
	data := writeRecords(t, "first", "second")
	r := NewReader(bytes.NewReader(data))
	_, err := r.Next()
	require.NoError(t, err)
	require.EqualValues(t, HeaderSize+5, r.Offset())
	rec, err := r.Next()
	require.NoError(t, err)
	b, err := io.ReadAll(rec)
	require.NoError(t, err)
	require.Equal(t, "second", string(b))
	_, err = r.Next()
	require.Equal(t, io.EOF, err)
}

func TestRecordCorruption(t *testing.T) {
	data := writeRecords(t, "first", "second", "third")

	t.Run("checksum", func(t *testing.T) {
		b := append([]byte(nil), data...)
		// Flip a byte of the second payload.
		b[2*HeaderSize+5+1] ^= 0xff
		got, err := readRecords(b)
		require.Equal(t, []string{"first"}, got)
		require.True(t, IsInvalidRecord(err), "%v", err)
		require.True(t, base.IsCorruptionError(err), "%v", err)
		require.Contains(t, err.Error(), "checksum mismatch")
	})

	t.Run("torn-header", func(t *testing.T) {
		got, err := readRecords(data[:len(data)-len("third")-3])
		require.Equal(t, []string{"first", "second"}, got)
		require.True(t, IsInvalidRecord(err), "%v", err)
	})

	t.Run("torn-payload", func(t *testing.T) {
		got, err := readRecords(data[:len(data)-1])
		require.Equal(t, []string{"first", "second"}, got)
		require.True(t, IsInvalidRecord(err), "%v", err)
	})

	t.Run("length", func(t *testing.T) {
		b := append([]byte(nil), data...)
		b[3] = 0xff
		_, err := readRecords(b)
		require.True(t, IsInvalidRecord(err), "%v", err)
		require.Contains(t, err.Error(), "exceeds maximum")
	})
}
