// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/redact"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
)

// FileNum is an internal identifier for a file within a catalog. A single
// counter assigns file numbers to tables and manifests.
type FileNum uint64

// String returns a string representation of the file number.
func (fn FileNum) String() string { return fmt.Sprintf("%06d", uint64(fn)) }

// SafeFormat implements redact.SafeFormatter.
func (fn FileNum) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%06d", redact.SafeUint(fn))
}

// FileType enumerates the types of files found in a catalog directory.
type FileType int

// The FileType enumeration.
const (
	FileTypeLock FileType = iota
	FileTypeTable
	FileTypeManifest
	FileTypeOptions
	FileTypeTemp
	FileTypeCurrent
)

var fileTypeStrings = [...]string{
	FileTypeLock:     "lock",
	FileTypeTable:    "sstable",
	FileTypeManifest: "manifest",
	FileTypeOptions:  "options",
	FileTypeTemp:     "temp",
	FileTypeCurrent:  "current",
}

// SafeFormat implements redact.SafeFormatter.
func (ft FileType) SafeFormat(w redact.SafePrinter, _ rune) {
	if ft < 0 || int(ft) >= len(fileTypeStrings) {
		w.Print(redact.SafeString("unknown"))
		return
	}
	w.Print(redact.SafeString(fileTypeStrings[ft]))
}

// String implements fmt.Stringer.
func (ft FileType) String() string {
	return redact.StringWithoutMarkers(ft)
}

// MakeFilename builds a filename from components.
func MakeFilename(fileType FileType, fn FileNum) string {
	switch fileType {
	case FileTypeLock:
		return "LOCK"
	case FileTypeCurrent:
		return "CURRENT"
	case FileTypeTable:
		return fmt.Sprintf("%s.sst", fn)
	case FileTypeManifest:
		return fmt.Sprintf("MANIFEST-%s", fn)
	case FileTypeOptions:
		return fmt.Sprintf("OPTIONS-%s", fn)
	case FileTypeTemp:
		return fmt.Sprintf("temporary.%s.dbtmp", fn)
	}
	panic("unreachable")
}

// MakeFilepath builds a filepath from components.
func MakeFilepath(fs vfs.FS, dirname string, fileType FileType, fn FileNum) string {
	return fs.PathJoin(dirname, MakeFilename(fileType, fn))
}

// ParseFilename parses the components from a filename.
func ParseFilename(fs vfs.FS, filename string) (fileType FileType, fn FileNum, ok bool) {
	filename = fs.PathBase(filename)
	switch {
	case filename == "LOCK":
		return FileTypeLock, 0, true
	case filename == "CURRENT":
		return FileTypeCurrent, 0, true
	case strings.HasPrefix(filename, "MANIFEST-"):
		fn, ok = ParseFileNum(filename[len("MANIFEST-"):])
		if !ok {
			break
		}
		return FileTypeManifest, fn, true
	case strings.HasPrefix(filename, "OPTIONS-"):
		fn, ok = ParseFileNum(filename[len("OPTIONS-"):])
		if !ok {
			break
		}
		return FileTypeOptions, fn, true
	case strings.HasPrefix(filename, "temporary.") && strings.HasSuffix(filename, ".dbtmp"):
		s := strings.TrimSuffix(filename[len("temporary."):], ".dbtmp")
		fn, ok = ParseFileNum(s)
		if !ok {
			break
		}
		return FileTypeTemp, fn, true
	default:
		i := strings.IndexByte(filename, '.')
		if i < 0 {
			break
		}
		fn, ok = ParseFileNum(filename[:i])
		if !ok {
			break
		}
		if filename[i+1:] == "sst" {
			return FileTypeTable, fn, true
		}
	}
	return 0, fn, false
}

// ParseFileNum parses the provided string as a file number.
func ParseFileNum(s string) (fn FileNum, ok bool) {
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fn, false
	}
	return FileNum(u), true
}
