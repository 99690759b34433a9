// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package record reads and writes sequences of records. Each record is a
// stream of bytes that completes before the next record starts.
//
// When reading, call Next to obtain an io.Reader for the next record. Next
// will return io.EOF when there are no more records. It is valid to call Next
// without reading the current record to exhaustion.
//
// When writing, call WriteRecord for each record and Close when done.
//
// Neither Readers or Writers are safe to use concurrently.
//
// Example code:
//
//	func read(r io.Reader) ([]string, error) {
//		var ss []string
//		records := record.NewReader(r)
//		for {
//			rec, err := records.Next()
//			if err == io.EOF {
//				break
//			}
//			if err != nil {
//				return nil, err
//			}
//			s, err := io.ReadAll(rec)
//			if err != nil {
//				return nil, err
//			}
//			ss = append(ss, string(s))
//		}
//		return ss, nil
//	}
//
// Each record is written as a header followed by the payload:
//
//	+-------------+-------------------+--- ... ---+
//	| Length (4B) | xxhash64 (8B)     | Payload   |
//	+-------------+-------------------+--- ... ---+
//
// Length is the payload length and the checksum is the xxhash64 of the
// payload, both little-endian.
package record

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

// HeaderSize is the size of the header preceding each record's payload.
const HeaderSize = 12

// MaxRecordSize bounds the payload length accepted by a Reader.
const MaxRecordSize = 64 << 20

// ErrInvalidRecord is returned if a record is encountered with an invalid
// header, length, or checksum. A manifest whose final record was torn by a
// crash also returns it.
var ErrInvalidRecord = base.MarkCorruptionError(errors.New("hyperleveldb/record: invalid record"))

// IsInvalidRecord returns true if the error matches one of the error types
// returned for invalid records.
func IsInvalidRecord(err error) bool {
	return errors.Is(err, ErrInvalidRecord) || errors.Is(err, io.ErrUnexpectedEOF)
}

// Reader reads records from an underlying io.Reader.
type Reader struct {
	r *bufio.Reader
	// offset is the offset in the underlying stream of the next header.
	offset int64
	buf    []byte
	err    error
}

// NewReader returns a new reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns a reader for the next record. It returns io.EOF if there are
// no more records. The reader returned becomes stale after the next Next
// call, and should no longer be used.
func (r *Reader) Next() (io.Reader, error) {
	if r.err != nil {
		return nil, r.err
	}
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r.r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			r.err = io.EOF
		} else {
			r.err = r.invalid("truncated header")
		}
		return nil, r.err
	}
	n := binary.LittleEndian.Uint32(hdr[0:4])
	checksum := binary.LittleEndian.Uint64(hdr[4:12])
	if n > MaxRecordSize {
		r.err = r.invalid("record length %d exceeds maximum", errors.Safe(n))
		return nil, r.err
	}
	if cap(r.buf) < int(n) {
		r.buf = make([]byte, n)
	}
	r.buf = r.buf[:n]
	if _, err := io.ReadFull(r.r, r.buf); err != nil {
		r.err = r.invalid("truncated payload")
		return nil, r.err
	}
	if got := xxhash.Sum64(r.buf); got != checksum {
		r.err = r.invalid("checksum mismatch %x != %x", errors.Safe(checksum), errors.Safe(got))
		return nil, r.err
	}
	r.offset += HeaderSize + int64(n)
	return bytes.NewReader(r.buf), nil
}

// Offset returns the offset in the underlying stream just past the last
// record successfully returned by Next.
func (r *Reader) Offset() int64 {
	return r.offset
}

func (r *Reader) invalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidRecord, "at offset %d: "+format,
		append([]interface{}{errors.Safe(r.offset)}, args...)...)
}

type flusher interface {
	Flush() error
}

// Writer writes records to an underlying io.Writer.
type Writer struct {
	w io.Writer
	// size is the number of bytes written so far.
	size int64
	hdr  [HeaderSize]byte
	err  error
}

// NewWriter returns a new Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteRecord writes a complete record. Returns the offset just past the end
// of the record.
func (w *Writer) WriteRecord(p []byte) (int64, error) {
	if w.err != nil {
		return -1, w.err
	}
	if len(p) > MaxRecordSize {
		return -1, errors.Errorf("hyperleveldb/record: record of %d bytes exceeds maximum", errors.Safe(len(p)))
	}
	binary.LittleEndian.PutUint32(w.hdr[0:4], uint32(len(p)))
	binary.LittleEndian.PutUint64(w.hdr[4:12], xxhash.Sum64(p))
	if _, w.err = w.w.Write(w.hdr[:]); w.err != nil {
		return -1, w.err
	}
	if _, w.err = w.w.Write(p); w.err != nil {
		return -1, w.err
	}
	w.size += HeaderSize + int64(len(p))
	return w.size, nil
}

// Flush flushes the underlying writer if it supports flushing.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if f, ok := w.w.(flusher); ok {
		w.err = f.Flush()
	}
	return w.err
}

// Size returns the number of bytes written so far.
func (w *Writer) Size() int64 {
	if w == nil {
		return 0
	}
	return w.size
}

// Close flushes the writer. It does not close the underlying writer. Any
// further writes return an error.
func (w *Writer) Close() error {
	err := w.Flush()
	w.err = errors.New("hyperleveldb/record: closed Writer")
	return err
}
