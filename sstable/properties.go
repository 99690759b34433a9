// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

const propertiesBlockRestartInterval = math.MaxInt32

// propertiesBlockName is the metaindex key of the properties block.
const propertiesBlockName = "hyperleveldb.properties"

// filterBlockPrefix prefixes the filter policy name in the metaindex key of
// the filter block.
const filterBlockPrefix = "filter."

var propTagMap = make(map[string]reflect.StructField)

func init() {
	t := reflect.TypeOf(Properties{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("prop")
		if tag == "" {
			continue
		}
		switch f.Type.Kind() {
		case reflect.Uint64, reflect.String:
		default:
			panic(fmt.Sprintf("unsupported property field type: %s %s", f.Name, f.Type))
		}
		propTagMap[tag] = f
	}
}

// Properties holds the sstable property values. The properties are
// automatically populated during sstable creation and loaded from the
// properties meta block when an sstable is opened.
type Properties struct {
	// The name of the comparer used in this table.
	ComparerName string `prop:"rocksdb.comparator"`
	// The compression algorithm used to compress blocks.
	CompressionName string `prop:"rocksdb.compression"`
	// The total size of all data blocks.
	DataSize uint64 `prop:"rocksdb.data.size"`
	// The name of the filter policy used in this table. Empty if no filter
	// policy is used.
	FilterPolicyName string `prop:"rocksdb.filter.policy"`
	// The size of the filter block.
	FilterSize uint64 `prop:"rocksdb.filter.size"`
	// The size of the index block.
	IndexSize uint64 `prop:"rocksdb.index.size"`
	// The number of data blocks in this table.
	NumDataBlocks uint64 `prop:"rocksdb.num.data.blocks"`
	// The number of entries in this table.
	NumEntries uint64 `prop:"rocksdb.num.entries"`
	// The number of filters in the filter block, including empty ones.
	NumFilters uint64 `prop:"hyperleveldb.num.filters"`
	// Total raw key size.
	RawKeySize uint64 `prop:"rocksdb.raw.key.size"`
	// Total raw value size.
	RawValueSize uint64 `prop:"rocksdb.raw.value.size"`
}

// String prints the non-zero properties, one per line.
func (p *Properties) String() string {
	var buf bytes.Buffer
	v := reflect.ValueOf(*p)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		ft := t.Field(i)
		tag := ft.Tag.Get("prop")
		f := v.Field(i)
		if tag == "" || f.IsZero() {
			continue
		}
		switch ft.Type.Kind() {
		case reflect.Uint64:
			fmt.Fprintf(&buf, "%s: %d\n", tag, f.Uint())
		case reflect.String:
			fmt.Fprintf(&buf, "%s: %s\n", tag, f.String())
		}
	}
	return buf.String()
}

// save adds the non-zero properties to w, sorted by name.
func (p *Properties) save(w *blockWriter) {
	m := make(map[string][]byte)
	v := reflect.ValueOf(*p)
	for tag, ft := range propTagMap {
		f := v.FieldByIndex(ft.Index)
		if f.IsZero() {
			continue
		}
		switch ft.Type.Kind() {
		case reflect.Uint64:
			m[tag] = binary.AppendUvarint(nil, f.Uint())
		case reflect.String:
			m[tag] = []byte(f.String())
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.add([]byte(k), m[k])
	}
}

// load populates the properties from a decoded properties block. Unknown
// properties are ignored.
func (p *Properties) load(block []byte) error {
	i, err := newBlockIter(base.DefaultComparer.Compare, block)
	if err != nil {
		return err
	}
	v := reflect.ValueOf(p).Elem()
	for kv := i.First(); kv != nil; kv = i.Next() {
		ft, ok := propTagMap[string(kv.K)]
		if !ok {
			continue
		}
		field := v.FieldByIndex(ft.Index)
		switch ft.Type.Kind() {
		case reflect.Uint64:
			n, k := binary.Uvarint(kv.V)
			if k <= 0 {
				return base.CorruptionErrorf("hyperleveldb/table: invalid property %q", errors.Safe(string(kv.K)))
			}
			field.SetUint(n)
		case reflect.String:
			field.SetString(string(kv.V))
		}
	}
	return i.Close()
}
