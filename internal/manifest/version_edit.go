// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package manifest

import (
	"bufio"
	"bytes"
	stdcmp "cmp"
	"encoding/binary"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

// A version edit is a sequence of tagged fields:
//
//	<tag uvarint><field>...
//
// Integers are uvarints and byte strings are uvarint length-prefixed. New
// files are written with tagNewFile, or tagNewFile4 when they carry custom
// fields. Custom fields are <custom tag uvarint><bytes> pairs ending with
// customTagTerminate. A custom tag with the customTagNonSafeIgnoreMask bit
// set must be understood by the reader; other unknown custom tags are
// skipped.

var errCorruptManifest = base.CorruptionErrorf("hyperleveldb: corrupt manifest")

type byteReader interface {
	io.ByteReader
	io.Reader
}

// Tags for the versionEdit disk format.
const (
	// LevelDB tags.
	tagComparator     = 1
	tagLogNumber      = 2
	tagNextFileNumber = 3
	tagLastSequence   = 4
	tagCompactPointer = 5
	tagDeletedFile    = 6
	tagNewFile        = 7
	tagPrevLogNumber  = 9

	// RocksDB tags.
	tagNewFile4 = 103

	// The custom tags sub-format used by tagNewFile4.
	customTagTerminate         = 1
	customTagFileFilter        = 16
	customTagFileFilterPolicy  = 17
	customTagNonSafeIgnoreMask = 1 << 6
)

// DeletedFileEntry holds the state for a file deletion from a level.
type DeletedFileEntry struct {
	Level   int
	FileNum base.FileNum
}

// NewFileEntry holds the state for a new file added to a level.
type NewFileEntry struct {
	Level int
	Meta  *FileMetadata
}

// VersionEdit holds the state for an edit to a Version along with other
// on-disk state.
type VersionEdit struct {
	// ComparerName is the value of Options.Comparer.Name. This is only set in
	// the first VersionEdit in a manifest and is used to verify that the
	// comparer specified at open matches the one previously used.
	ComparerName string

	// NextFileNum is the next file number to assign. A single counter is
	// used for tables and manifests. Zero means unset.
	NextFileNum base.FileNum

	DeletedFiles map[DeletedFileEntry]bool
	NewFiles     []NewFileEntry
}

// Decode decodes an edit from the specified reader.
func (v *VersionEdit) Decode(r io.Reader) error {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	d := versionEditDecoder{br}
	for {
		tag, err := binary.ReadUvarint(br)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return errCorruptManifest
		}
		if err != nil {
			return err
		}
		switch tag {
		case tagComparator:
			s, err := d.readBytes()
			if err != nil {
				return err
			}
			v.ComparerName = string(s)

		case tagNextFileNumber:
			n, err := d.readUvarint()
			if err != nil {
				return err
			}
			v.NextFileNum = base.FileNum(n)

		case tagLogNumber, tagLastSequence, tagPrevLogNumber:
			// Write-ahead logs and sequence numbers are not tracked. The
			// fields are accepted so that LevelDB manifests can be dumped.
			if _, err := d.readUvarint(); err != nil {
				return err
			}

		case tagCompactPointer:
			if _, err := d.readLevel(); err != nil {
				return err
			}
			if _, err := d.readBytes(); err != nil {
				return err
			}

		case tagDeletedFile:
			level, err := d.readLevel()
			if err != nil {
				return err
			}
			fileNum, err := d.readUvarint()
			if err != nil {
				return err
			}
			if v.DeletedFiles == nil {
				v.DeletedFiles = make(map[DeletedFileEntry]bool)
			}
			v.DeletedFiles[DeletedFileEntry{level, base.FileNum(fileNum)}] = true

		case tagNewFile, tagNewFile4:
			level, err := d.readLevel()
			if err != nil {
				return err
			}
			fileNum, err := d.readUvarint()
			if err != nil {
				return err
			}
			size, err := d.readUvarint()
			if err != nil {
				return err
			}
			smallest, err := d.readBytes()
			if err != nil {
				return err
			}
			largest, err := d.readBytes()
			if err != nil {
				return err
			}
			m := &FileMetadata{
				FileNum:  base.FileNum(fileNum),
				Size:     size,
				Smallest: smallest,
				Largest:  largest,
			}
			if tag == tagNewFile4 {
				if err := d.readCustomFields(m); err != nil {
					return err
				}
			}
			v.NewFiles = append(v.NewFiles, NewFileEntry{Level: level, Meta: m})

		default:
			return errors.Wrapf(errCorruptManifest, "unknown tag %d", errors.Safe(tag))
		}
	}
	return nil
}

// Encode encodes an edit to the specified writer.
func (v *VersionEdit) Encode(w io.Writer) error {
	e := versionEditEncoder{new(bytes.Buffer)}
	if v.ComparerName != "" {
		e.writeUvarint(tagComparator)
		e.writeString(v.ComparerName)
	}
	if v.NextFileNum != 0 {
		e.writeUvarint(tagNextFileNumber)
		e.writeUvarint(uint64(v.NextFileNum))
	}
	for _, x := range v.sortedDeletedFiles() {
		e.writeUvarint(tagDeletedFile)
		e.writeUvarint(uint64(x.Level))
		e.writeUvarint(uint64(x.FileNum))
	}
	for _, x := range v.NewFiles {
		// The file filter is the only custom field.
		customFields := x.Meta.HasFileFilter
		if customFields {
			e.writeUvarint(tagNewFile4)
		} else {
			e.writeUvarint(tagNewFile)
		}
		e.writeUvarint(uint64(x.Level))
		e.writeUvarint(uint64(x.Meta.FileNum))
		e.writeUvarint(x.Meta.Size)
		e.writeBytes(x.Meta.Smallest)
		e.writeBytes(x.Meta.Largest)
		if customFields {
			e.writeUvarint(customTagFileFilter)
			e.writeBytes(x.Meta.FileFilter)
			if x.Meta.FileFilterPolicy != "" {
				e.writeUvarint(customTagFileFilterPolicy)
				e.writeString(x.Meta.FileFilterPolicy)
			}
			e.writeUvarint(customTagTerminate)
		}
	}
	_, err := w.Write(e.Bytes())
	return err
}

// String implements fmt.Stringer for a VersionEdit.
func (v *VersionEdit) String() string {
	return v.DebugString(base.DefaultFormatter)
}

// DebugString returns a multi-line representation of the edit, one field per
// line.
func (v *VersionEdit) DebugString(format base.FormatKey) string {
	var buf strings.Builder
	if v.ComparerName != "" {
		fmt.Fprintf(&buf, "  comparer:     %s\n", v.ComparerName)
	}
	if v.NextFileNum != 0 {
		fmt.Fprintf(&buf, "  next-file-num: %s\n", v.NextFileNum)
	}
	for _, df := range v.sortedDeletedFiles() {
		fmt.Fprintf(&buf, "  del-table:    L%d %s\n", df.Level, df.FileNum)
	}
	for _, nf := range v.NewFiles {
		fmt.Fprintf(&buf, "  add-table:    L%d %s\n", nf.Level, nf.Meta.DebugString(format, true))
	}
	return buf.String()
}

func (v *VersionEdit) sortedDeletedFiles() []DeletedFileEntry {
	deleted := make([]DeletedFileEntry, 0, len(v.DeletedFiles))
	for x := range v.DeletedFiles {
		deleted = append(deleted, x)
	}
	slices.SortFunc(deleted, func(a, b DeletedFileEntry) int {
		if c := stdcmp.Compare(a.Level, b.Level); c != 0 {
			return c
		}
		return stdcmp.Compare(a.FileNum, b.FileNum)
	})
	return deleted
}

type versionEditDecoder struct {
	byteReader
}

func (d versionEditDecoder) readCustomFields(m *FileMetadata) error {
	for {
		customTag, err := d.readUvarint()
		if err != nil {
			return err
		}
		if customTag == customTagTerminate {
			return nil
		}
		field, err := d.readBytes()
		if err != nil {
			return err
		}
		switch customTag {
		case customTagFileFilter:
			m.SetFileFilter(field)

		case customTagFileFilterPolicy:
			m.FileFilterPolicy = string(field)

		default:
			if (customTag & customTagNonSafeIgnoreMask) != 0 {
				return errors.Errorf("new-file4: custom field not supported: %d", errors.Safe(customTag))
			}
		}
	}
}

func (d versionEditDecoder) readBytes() ([]byte, error) {
	n, err := d.readUvarint()
	if err != nil {
		return nil, err
	}
	if n > 1<<30 {
		return nil, errors.Wrapf(errCorruptManifest, "field length %d", errors.Safe(n))
	}
	s := make([]byte, n)
	_, err = io.ReadFull(d, s)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, errCorruptManifest
		}
		return nil, err
	}
	return s, nil
}

func (d versionEditDecoder) readLevel() (int, error) {
	u, err := d.readUvarint()
	if err != nil {
		return 0, err
	}
	if u >= NumLevels {
		return 0, errors.Wrapf(errCorruptManifest, "level %d", errors.Safe(u))
	}
	return int(u), nil
}

func (d versionEditDecoder) readUvarint() (uint64, error) {
	u, err := binary.ReadUvarint(d)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, errCorruptManifest
		}
		return 0, err
	}
	return u, nil
}

type versionEditEncoder struct {
	*bytes.Buffer
}

func (e versionEditEncoder) writeBytes(p []byte) {
	e.writeUvarint(uint64(len(p)))
	e.Write(p)
}

func (e versionEditEncoder) writeString(s string) {
	e.writeUvarint(uint64(len(s)))
	e.WriteString(s)
}

func (e versionEditEncoder) writeUvarint(u uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], u)
	e.Write(buf[:n])
}
