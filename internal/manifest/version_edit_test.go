// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	"bytes"
	"testing"

	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/stretchr/testify/require"
)

func checkRoundTrip(t *testing.T, e0 VersionEdit) VersionEdit {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e0.Encode(&buf))
	var e1 VersionEdit
	require.NoError(t, e1.Decode(&buf))
	require.Equal(t, e0, e1)
	return e1
}

func TestVersionEditRoundTrip(t *testing.T) {
	testCases := []VersionEdit{
		{},
		{ComparerName: "leveldb.BytewiseComparator"},
		{NextFileNum: 44},
		{
			DeletedFiles: map[DeletedFileEntry]bool{
				{Level: 3, FileNum: 703}: true,
				{Level: 4, FileNum: 704}: true,
			},
		},
		{
			ComparerName: "11",
			NextFileNum:  44,
			DeletedFiles: map[DeletedFileEntry]bool{
				{Level: 0, FileNum: 2}: true,
			},
			NewFiles: []NewFileEntry{
				{
					Level: 0,
					Meta: &FileMetadata{
						FileNum:  805,
						Size:     8050,
						Smallest: []byte("abc"),
						Largest:  []byte("xyz"),
					},
				},
				{
					Level: 5,
					Meta: &FileMetadata{
						FileNum:       806,
						Size:          8060,
						Smallest:      []byte("A"),
						Largest:       []byte("Z"),
						FileFilter:    []byte{0x11, 0x40, 0x00, 0x41, 0x06},
						HasFileFilter: true,
					},
				},
			},
		},
	}
	for _, tc := range testCases {
		checkRoundTrip(t, tc)
	}
}

// TestVersionEditFileFilter checks that a missing file filter and an empty
// one remain distinct after encoding.
func TestVersionEditFileFilter(t *testing.T) {
	absent := &FileMetadata{FileNum: 1, Size: 10, Smallest: []byte("a"), Largest: []byte("b")}
	empty := &FileMetadata{FileNum: 2, Size: 10, Smallest: []byte("a"), Largest: []byte("b")}
	empty.SetFileFilter([]byte{})

	ve := checkRoundTrip(t, VersionEdit{NewFiles: []NewFileEntry{{Meta: absent}, {Meta: empty}}})
	require.False(t, ve.NewFiles[0].Meta.HasFileFilter)
	require.Nil(t, ve.NewFiles[0].Meta.FileFilter)
	require.True(t, ve.NewFiles[1].Meta.HasFileFilter)
	require.NotNil(t, ve.NewFiles[1].Meta.FileFilter)
	require.Len(t, ve.NewFiles[1].Meta.FileFilter, 0)

	empty.ClearFileFilter()
	require.False(t, empty.HasFileFilter)
}

// TestVersionEditFileFilterPolicy checks that the name of the policy that
// built a file filter is recorded alongside it.
func TestVersionEditFileFilterPolicy(t *testing.T) {
	named := &FileMetadata{FileNum: 1, Size: 10, Smallest: []byte("a"), Largest: []byte("b")}
	named.SetFileFilter([]byte("filter"))
	named.FileFilterPolicy = "leveldb.BuiltinBloomFilter2"
	unnamed := &FileMetadata{FileNum: 2, Size: 10, Smallest: []byte("c"), Largest: []byte("d")}
	unnamed.SetFileFilter([]byte("filter"))

	ve := checkRoundTrip(t, VersionEdit{NewFiles: []NewFileEntry{{Meta: named}, {Meta: unnamed}}})
	require.Equal(t, "leveldb.BuiltinBloomFilter2", ve.NewFiles[0].Meta.FileFilterPolicy)
	require.Equal(t, "", ve.NewFiles[1].Meta.FileFilterPolicy)
	require.Contains(t, ve.String(), "file-filter:6(leveldb.BuiltinBloomFilter2)\n")

	named.ClearFileFilter()
	require.Equal(t, "", named.FileFilterPolicy)
}

func TestVersionEditDecodeCustomFields(t *testing.T) {
	encode := func(customTag uint64) []byte {
		e := versionEditEncoder{new(bytes.Buffer)}
		e.writeUvarint(tagNewFile4)
		e.writeUvarint(1)
		e.writeUvarint(7)
		e.writeUvarint(100)
		e.writeBytes([]byte("a"))
		e.writeBytes([]byte("z"))
		e.writeUvarint(customTag)
		e.writeBytes([]byte("value"))
		e.writeUvarint(customTagTerminate)
		return e.Bytes()
	}

	// Unknown custom fields that are safe to ignore are skipped.
	var ve VersionEdit
	require.NoError(t, ve.Decode(bytes.NewReader(encode(18))))
	require.Len(t, ve.NewFiles, 1)
	require.Equal(t, base.FileNum(7), ve.NewFiles[0].Meta.FileNum)
	require.False(t, ve.NewFiles[0].Meta.HasFileFilter)

	ve = VersionEdit{}
	require.NoError(t, ve.Decode(bytes.NewReader(encode(customTagFileFilterPolicy))))
	require.Equal(t, "value", ve.NewFiles[0].Meta.FileFilterPolicy)

	ve = VersionEdit{}
	err := ve.Decode(bytes.NewReader(encode(customTagNonSafeIgnoreMask | 3)))
	require.ErrorContains(t, err, "custom field not supported")
}

func TestVersionEditDecodeLevelDBTags(t *testing.T) {
	// Fields written by LevelDB for write-ahead logs and sequence numbers
	// are accepted and ignored.
	e := versionEditEncoder{new(bytes.Buffer)}
	e.writeUvarint(tagComparator)
	e.writeString("leveldb.BytewiseComparator")
	e.writeUvarint(tagLogNumber)
	e.writeUvarint(12)
	e.writeUvarint(tagNextFileNumber)
	e.writeUvarint(13)
	e.writeUvarint(tagLastSequence)
	e.writeUvarint(1000)
	e.writeUvarint(tagCompactPointer)
	e.writeUvarint(2)
	e.writeBytes([]byte("k"))

	var ve VersionEdit
	require.NoError(t, ve.Decode(bytes.NewReader(e.Bytes())))
	require.Equal(t, VersionEdit{ComparerName: "leveldb.BytewiseComparator", NextFileNum: 13}, ve)
}

func TestVersionEditDecodeCorrupt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&VersionEdit{
		ComparerName: "leveldb.BytewiseComparator",
		NewFiles: []NewFileEntry{{Level: 1, Meta: &FileMetadata{
			FileNum: 9, Size: 1, Smallest: []byte("a"), Largest: []byte("b"),
			FileFilter: []byte("filter"), HasFileFilter: true,
		}}},
	}).Encode(&buf))
	data := buf.Bytes()

	// Every strict prefix that ends mid-field is corrupt.
	for i := 1; i < len(data); i++ {
		var ve VersionEdit
		err := ve.Decode(bytes.NewReader(data[:i]))
		if err != nil {
			require.True(t, base.IsCorruptionError(err), "prefix %d: %v", i, err)
		}
	}

	for _, b := range [][]byte{
		{99},               // unknown tag
		{tagNewFile, 9, 1}, // level out of range
		{tagDeletedFile, NumLevels, 1},
	} {
		var ve VersionEdit
		err := ve.Decode(bytes.NewReader(b))
		require.True(t, base.IsCorruptionError(err), "%x: %v", b, err)
	}
}

func TestVersionEditString(t *testing.T) {
	ve := VersionEdit{
		ComparerName: "leveldb.BytewiseComparator",
		NextFileNum:  5,
		DeletedFiles: map[DeletedFileEntry]bool{{Level: 0, FileNum: 2}: true},
		NewFiles: []NewFileEntry{
			{Level: 0, Meta: &FileMetadata{FileNum: 4, Size: 100, Smallest: []byte("a"), Largest: []byte("c")}},
			{Level: 0, Meta: &FileMetadata{FileNum: 3, Size: 90, Smallest: []byte("b"), Largest: []byte("d"),
				FileFilter: []byte("xyz"), HasFileFilter: true}},
		},
	}
	require.Equal(t, `  comparer:     leveldb.BytewiseComparator
  next-file-num: 000005
  del-table:    L0 000002
  add-table:    L0 000004:[a-c] size:100 file-filter:none
  add-table:    L0 000003:[b-d] size:90 file-filter:3
`, ve.String())
}
