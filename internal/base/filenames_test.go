// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"testing"

	"github.com/cockroachdb/redact"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	testCases := map[string]bool{
		"000000.log":             false,
		"a000000.sst":            false,
		"000001ldb":              false,
		"000001.sst":             true,
		"000001.sst.bak":         false,
		"CURRENT":                true,
		"xCURRENT":               false,
		"LOCK":                   true,
		"xLOCK":                  false,
		"MANIFEST":               false,
		"MANIFEST123456":         false,
		"MANIFEST-":              false,
		"MANIFEST-123456":        true,
		"MANIFEST-123456.doc":    false,
		"OPTIONS-":               false,
		"OPTIONS-123456":         true,
		"temporary.123456.dbtmp": true,
		"temporary.dbtmp":        false,
	}
	fs := vfs.NewMem()
	for tc, want := range testCases {
		_, _, got := ParseFilename(fs, fs.PathJoin("foo", tc))
		if got != want {
			t.Errorf("%q: got %v, want %v", tc, got, want)
		}
	}
}

func TestFilenameRoundTrip(t *testing.T) {
	testCases := map[FileType]bool{
		FileTypeLock:     false,
		FileTypeTable:    true,
		FileTypeManifest: true,
		FileTypeOptions:  true,
		FileTypeTemp:     true,
		FileTypeCurrent:  false,
	}
	fs := vfs.NewMem()
	for fileType, numbered := range testCases {
		fileNums := []FileNum{0}
		if numbered {
			fileNums = []FileNum{0, 1, 2, 3, 10, 42, 99, 1001}
		}
		for _, fileNum := range fileNums {
			filename := MakeFilepath(fs, "foo", fileType, fileNum)
			gotFT, gotFN, gotOK := ParseFilename(fs, filename)
			require.True(t, gotOK, "filename=%q", filename)
			require.Equal(t, fileType, gotFT, "filename=%q", filename)
			require.Equal(t, fileNum, gotFN, "filename=%q", filename)
		}
	}
}

func TestFileNumFormatting(t *testing.T) {
	require.Equal(t, "000042", FileNum(42).String())
	require.Equal(t, "000042.sst", MakeFilename(FileTypeTable, 42))
	require.Equal(t, "000042", string(redact.Sprint(FileNum(42)).Redact()))
	require.Equal(t, "sstable", FileTypeTable.String())
	require.Equal(t, "unknown", FileType(99).String())
}
