// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"cmp"
	"fmt"
	"io"
	"slices"
)

// Layout describes the block organization of an sstable.
type Layout struct {
	Data       []BlockHandle
	Index      BlockHandle
	Filter     BlockHandle
	Properties BlockHandle
	MetaIndex  BlockHandle
	Footer     BlockHandle
	Checksum   ChecksumType
}

// Describe writes a description of the layout to w, one block per line in
// file order. If verbose is true and r has a usable filter block, the byte
// range of each filter within the block is listed as well.
func (l *Layout) Describe(w io.Writer, verbose bool, r *Reader) {
	type namedBlockHandle struct {
		BlockHandle
		name string
	}
	var blocks []namedBlockHandle
	for i := range l.Data {
		blocks = append(blocks, namedBlockHandle{l.Data[i], "data"})
	}
	if l.Index.Length != 0 {
		blocks = append(blocks, namedBlockHandle{l.Index, "index"})
	}
	if l.Filter.Length != 0 {
		blocks = append(blocks, namedBlockHandle{l.Filter, "filter"})
	}
	if l.Properties.Length != 0 {
		blocks = append(blocks, namedBlockHandle{l.Properties, "properties"})
	}
	if l.MetaIndex.Length != 0 {
		blocks = append(blocks, namedBlockHandle{l.MetaIndex, "meta-index"})
	}
	if l.Footer.Length != 0 {
		blocks = append(blocks, namedBlockHandle{l.Footer, "footer"})
	}
	slices.SortFunc(blocks, func(a, b namedBlockHandle) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	for i := range blocks {
		b := &blocks[i]
		fmt.Fprintf(w, "%10d  %s (%d)\n", b.Offset, b.name, b.Length)
		if !verbose || b.name != "filter" || r == nil {
			continue
		}
		fr := r.FilterBlock()
		if fr == nil {
			continue
		}
		fmt.Fprintf(w, "%10d    filters: %d, base-lg: %d\n", b.Offset, fr.NumFilters(), fr.BaseLg())
		for j := 0; j < fr.NumFilters(); j++ {
			start, limit, _ := fr.FilterBounds(j)
			fmt.Fprintf(w, "%10d    [%d] %d-%d (%d)\n", b.Offset+uint64(start), j, start, limit, limit-start)
		}
	}
}
