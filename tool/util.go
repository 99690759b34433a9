// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
)

var stdout = io.Writer(os.Stdout)
var stderr = io.Writer(os.Stderr)

type key []byte

func (k *key) String() string {
	return string(*k)
}

func (k *key) Type() string {
	return "key"
}

func (k *key) Set(v string) error {
	b, err := parseKey(v)
	if err != nil {
		return err
	}
	*k = b
	return nil
}

// parseKey decodes a key given on the command line. Keys prefixed with
// "hex:" are hex encoded, keys prefixed with "raw:" are used verbatim.
func parseKey(v string) ([]byte, error) {
	switch {
	case strings.HasPrefix(v, "hex:"):
		return hex.DecodeString(strings.TrimPrefix(v, "hex:"))
	case strings.HasPrefix(v, "raw:"):
		return []byte(strings.TrimPrefix(v, "raw:")), nil
	default:
		return []byte(v), nil
	}
}

type formatter struct {
	spec string
	fn   func(w io.Writer, v []byte)
}

func (f *formatter) String() string {
	return f.spec
}

func (f *formatter) Type() string {
	return "formatter"
}

func (f *formatter) Set(spec string) error {
	f.spec = spec
	switch spec {
	case "hex":
		f.fn = formatHex
	case "null":
		f.fn = formatNull
	case "quoted":
		f.fn = formatQuoted
	default:
		if strings.Count(spec, "%") != 1 {
			return errors.Errorf("unknown formatter: %q", spec)
		}
		f.fn = func(w io.Writer, v []byte) {
			fmt.Fprintf(w, f.spec, v)
		}
	}
	return nil
}

func (f *formatter) mustSet(spec string) {
	if err := f.Set(spec); err != nil {
		panic(err)
	}
}

func (f *formatter) format(v []byte) string {
	var buf strings.Builder
	f.fn(&buf, v)
	return buf.String()
}

type formattedKey struct {
	f *formatter
	k []byte
}

func (k formattedKey) Format(s fmt.State, _ rune) {
	k.f.fn(s, k.k)
}

// formatKey adapts the formatter to base.FormatKey.
func (f *formatter) formatKey(k []byte) fmt.Formatter {
	return formattedKey{f: f, k: k}
}

func formatHex(w io.Writer, v []byte) {
	fmt.Fprintf(w, "[% x]", v)
}

func formatNull(w io.Writer, v []byte) {
}

func formatQuoted(w io.Writer, v []byte) {
	q := strconv.AppendQuote(make([]byte, 0, len(v)), string(v))
	q = q[1 : len(q)-1]
	_, _ = w.Write(q)
}

func formatKeyValue(w io.Writer, fmtKey, fmtValue formatter, kv *base.InternalKV) {
	needDelimiter := false
	if fmtKey.spec != "null" {
		fmtKey.fn(w, kv.K)
		needDelimiter = true
	}
	if fmtValue.spec != "null" {
		if needDelimiter {
			_, _ = w.Write([]byte{' '})
		}
		fmtValue.fn(w, kv.V)
	}
	_, _ = w.Write([]byte{'\n'})
}

func humanBytes[T uint64 | int64](n T) string {
	return string(crhumanize.Bytes(n, crhumanize.Compact, crhumanize.OmitI))
}

// readKVs reads the key/value pairs of a build input file: one pair per
// line, the key separated from the value by the first space. Blank lines and
// lines starting with '#' are ignored. The pairs must be sorted by key.
func readKVs(fs vfs.FS, path string, cmp base.Compare) ([]base.InternalKV, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var kvs []base.InternalKV
	s := bufio.NewScanner(f)
	for lineNum := 1; s.Scan(); lineNum++ {
		line := s.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		k, v, _ := strings.Cut(line, " ")
		kb, err := parseKey(k)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, lineNum)
		}
		if n := len(kvs); n > 0 && cmp(kvs[n-1].K, kb) >= 0 {
			return nil, errors.Errorf("%s:%d: key %q is not greater than the previous key %q",
				path, lineNum, kb, kvs[n-1].K)
		}
		kvs = append(kvs, base.InternalKV{K: kb, V: []byte(v)})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return kvs, nil
}
