// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/redact"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

// FileMetadata holds the metadata for an on-disk table.
type FileMetadata struct {
	// FileNum is the file number, assigned by the caller before the table is
	// built.
	FileNum base.FileNum
	// Size is the size of the file in bytes. Zero if building the table
	// produced no file.
	Size uint64
	// Smallest and Largest are the inclusive bounds of the user keys in the
	// table.
	Smallest []byte
	Largest  []byte
	// FileFilter is a filter over every key in the table, produced by the
	// table's filter policy. It is only meaningful when HasFileFilter is set:
	// a table may have no file filter at all, which is distinct from having
	// an empty one.
	FileFilter    []byte
	HasFileFilter bool
	// FileFilterPolicy is the name of the filter policy that produced
	// FileFilter. The filter is only consulted through a policy of the same
	// name; an empty name means it is never consulted.
	FileFilterPolicy string
}

// SetFileFilter records the file filter for the table.
func (m *FileMetadata) SetFileFilter(filter []byte) {
	m.FileFilter = filter
	m.HasFileFilter = true
}

// ClearFileFilter drops the file filter.
func (m *FileMetadata) ClearFileFilter() {
	m.FileFilter = nil
	m.HasFileFilter = false
	m.FileFilterPolicy = ""
}

// ContainsKey returns whether key lies within the table's bounds.
func (m *FileMetadata) ContainsKey(cmp base.Compare, key []byte) bool {
	return cmp(m.Smallest, key) <= 0 && cmp(key, m.Largest) <= 0
}

// SafeFormat implements redact.SafeFormatter. Keys are user data and are
// redacted.
func (m *FileMetadata) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%s:[%s-%s]", m.FileNum, m.Smallest, m.Largest)
}

// String implements fmt.Stringer.
func (m *FileMetadata) String() string {
	return redact.StringWithoutMarkers(m)
}

// DebugString returns a verbose representation of FileMetadata, typically
// for use in tests and debugging.
func (m *FileMetadata) DebugString(format base.FormatKey, verbose bool) string {
	if format == nil {
		format = base.DefaultFormatter
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s:[%s-%s]", m.FileNum, format(m.Smallest), format(m.Largest))
	if !verbose {
		return b.String()
	}
	fmt.Fprintf(&b, " size:%d", m.Size)
	if m.HasFileFilter {
		fmt.Fprintf(&b, " file-filter:%d", len(m.FileFilter))
		if m.FileFilterPolicy != "" {
			fmt.Fprintf(&b, "(%s)", m.FileFilterPolicy)
		}
	} else {
		b.WriteString(" file-filter:none")
	}
	return b.String()
}
