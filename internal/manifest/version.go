// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	stdcmp "cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

// NumLevels is the number of levels a Version contains.
const NumLevels = 7

// Version is a collection of file metadata for on-disk tables at various
// levels. A Version is immutable once built: edits produce a new Version.
//
// Files in L0 may overlap and are ordered by increasing file number, so the
// newest table is last. Files in other levels are ordered by their smallest
// key and do not overlap.
type Version struct {
	Files [NumLevels][]*FileMetadata
}

// NumFiles returns the number of files in the version.
func (v *Version) NumFiles() int {
	var n int
	for _, files := range v.Files {
		n += len(files)
	}
	return n
}

// String implements fmt.Stringer.
func (v *Version) String() string {
	return v.DebugString(base.DefaultFormatter)
}

// DebugString returns an alternative format to String() which includes the
// file filter of each file.
func (v *Version) DebugString(format base.FormatKey) string {
	var buf strings.Builder
	for level, files := range v.Files {
		if len(files) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "L%d:\n", level)
		for _, f := range files {
			fmt.Fprintf(&buf, "  %s\n", f.DebugString(format, true))
		}
	}
	return buf.String()
}

// Apply applies the edit to the version to produce a new version. The
// receiver may be nil, which is equivalent to an empty version.
func (v *Version) Apply(cmp base.Compare, ve *VersionEdit) (*Version, error) {
	nv := new(Version)
	for level := range nv.Files {
		if v != nil {
			nv.Files[level] = slices.Clone(v.Files[level])
		}
	}

	for df := range ve.DeletedFiles {
		files := nv.Files[df.Level]
		i := slices.IndexFunc(files, func(f *FileMetadata) bool { return f.FileNum == df.FileNum })
		if i < 0 {
			return nil, errors.AssertionFailedf("hyperleveldb: deleted file L%d.%s not present",
				errors.Safe(df.Level), df.FileNum)
		}
		nv.Files[df.Level] = slices.Delete(files, i, i+1)
	}

	for _, nf := range ve.NewFiles {
		for level := range nv.Files {
			if slices.ContainsFunc(nv.Files[level], func(f *FileMetadata) bool { return f.FileNum == nf.Meta.FileNum }) {
				return nil, errors.AssertionFailedf("hyperleveldb: file %s added to L%d is already present in L%d",
					nf.Meta.FileNum, errors.Safe(nf.Level), errors.Safe(level))
			}
		}
		nv.Files[nf.Level] = append(nv.Files[nf.Level], nf.Meta)
	}

	for level := range nv.Files {
		files := nv.Files[level]
		if level == 0 {
			slices.SortFunc(files, func(a, b *FileMetadata) int {
				return stdcmp.Compare(a.FileNum, b.FileNum)
			})
			continue
		}
		slices.SortFunc(files, func(a, b *FileMetadata) int {
			return cmp(a.Smallest, b.Smallest)
		})
		if err := CheckOrdering(cmp, level, files); err != nil {
			return nil, err
		}
	}
	return nv, nil
}

// CheckOrdering checks that the files of a level above L0 are sorted by
// their smallest key and do not overlap.
func CheckOrdering(cmp base.Compare, level int, files []*FileMetadata) error {
	for i, f := range files {
		if cmp(f.Smallest, f.Largest) > 0 {
			return base.CorruptionErrorf("hyperleveldb: L%d file %s has inverted bounds",
				errors.Safe(level), f.FileNum)
		}
		if i == 0 || level == 0 {
			continue
		}
		prev := files[i-1]
		if cmp(prev.Largest, f.Smallest) >= 0 {
			return base.CorruptionErrorf("hyperleveldb: L%d files %s and %s have overlapping ranges",
				errors.Safe(level), prev.FileNum, f.FileNum)
		}
	}
	return nil
}
