// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	hyperleveldb "github.com/jayashreemohan29/HyperLevelDB"
	"github.com/jayashreemohan29/HyperLevelDB/bloom"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/sstable"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// sstableT implements sstable-level tools, including both configuration state
// and the commands themselves.
type sstableT struct {
	Root       *cobra.Command
	Build      *cobra.Command
	Filter     *cobra.Command
	Layout     *cobra.Command
	Probe      *cobra.Command
	Properties *cobra.Command
	Scan       *cobra.Command

	// Configuration and state.
	opts      *hyperleveldb.Options
	comparers map[string]*Comparer

	// Flags.
	comparerName string
	fmtKey       formatter
	fmtValue     formatter
	verbose      bool
	bitsPerKey   int
	blockSize    int
	compression  string
	filterBaseLg uint8
}

func newSSTable(opts *hyperleveldb.Options, comparers map[string]*Comparer) *sstableT {
	s := &sstableT{
		opts:      opts,
		comparers: comparers,
	}
	s.fmtKey.mustSet("quoted")
	s.fmtValue.mustSet("[%x]")

	s.Root = &cobra.Command{
		Use:   "sstable",
		Short: "sstable introspection tools",
	}
	s.Build = &cobra.Command{
		Use:   "build <sstable> <input>",
		Short: "build an sstable from a file of key/value pairs",
		Long: `
Build an sstable from the input file. Each line of the input holds a key and
a value separated by a single space. Keys must be sorted. Keys prefixed with
"hex:" are hex decoded. A Bloom filter block is built unless --bits-per-key
is 0.
`,
		Args: cobra.ExactArgs(2),
		Run:  s.runBuild,
	}
	s.Filter = &cobra.Command{
		Use:   "filter <sstables>",
		Short: "print the filters of the sstable filter block",
		Long: `
Print one row per filter in the filter block: the range of table offsets the
filter covers, the number of data blocks starting in that range and the size
of the filter.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  s.runFilter,
	}
	s.Layout = &cobra.Command{
		Use:   "layout <sstables>",
		Short: "print sstable block layout",
		Long: `
Print the layout for the sstables. The -v flag controls whether the filters
within the filter block are listed.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  s.runLayout,
	}
	s.Probe = &cobra.Command{
		Use:   "probe <sstable> <keys>",
		Short: "look up keys, reporting the filter outcome",
		Long: `
Look up each key in the sstable, printing the data block the key maps to,
whether the block's filter excludes the key and whether the key is present.
`,
		Args: cobra.MinimumNArgs(2),
		Run:  s.runProbe,
	}
	s.Properties = &cobra.Command{
		Use:   "properties <sstables>",
		Short: "print sstable properties",
		Args:  cobra.MinimumNArgs(1),
		Run:   s.runProperties,
	}
	s.Scan = &cobra.Command{
		Use:   "scan <sstables>",
		Short: "print sstable records",
		Long: `
Print the records in the sstables. The sstables are scanned in command line
order which means the records will be printed in that order.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  s.runScan,
	}

	s.Root.AddCommand(s.Build, s.Filter, s.Layout, s.Probe, s.Properties, s.Scan)
	for _, cmd := range s.Root.Commands() {
		cmd.Flags().StringVar(
			&s.comparerName, "comparer", base.DefaultComparer.Name, "comparer name")
	}
	s.Layout.Flags().BoolVarP(
		&s.verbose, "verbose", "v", false, "verbose output")
	s.Build.Flags().IntVar(
		&s.bitsPerKey, "bits-per-key", 10, "Bloom filter bits per key (0 disables the filter)")
	s.Build.Flags().IntVar(
		&s.blockSize, "block-size", 4096, "target uncompressed data block size")
	s.Build.Flags().StringVar(
		&s.compression, "compression", "Snappy", "block compression (NoCompression, Snappy, ZSTD)")
	s.Build.Flags().Uint8Var(
		&s.filterBaseLg, "filter-base-lg", sstable.DefaultFilterBaseLg,
		"log2 of the table range covered by each filter")
	s.Scan.Flags().Var(
		&s.fmtKey, "key", "key formatter")
	s.Scan.Flags().Var(
		&s.fmtValue, "value", "value formatter")
	s.Probe.Flags().Var(
		&s.fmtKey, "key", "key formatter")

	return s
}

func (s *sstableT) comparer() (*Comparer, error) {
	cmp, ok := s.comparers[s.comparerName]
	if !ok {
		return nil, errors.Errorf("unknown comparer %q", s.comparerName)
	}
	return cmp, nil
}

func (s *sstableT) newReader(path string) (*sstable.Reader, error) {
	cmp, err := s.comparer()
	if err != nil {
		return nil, err
	}
	f, err := s.opts.FS.Open(path)
	if err != nil {
		return nil, err
	}
	return sstable.NewReader(f, sstable.ReaderOptions{
		Comparer: cmp,
		Filters:  s.opts.Filters,
	})
}

// forEachTable opens each table in turn, printing its name first when there
// is more than one.
func (s *sstableT) forEachTable(args []string, fn func(r *sstable.Reader) error) {
	for _, arg := range args {
		if len(args) > 1 {
			fmt.Fprintf(stdout, "%s\n", arg)
		}
		r, err := s.newReader(arg)
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			continue
		}
		if err := fn(r); err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
		if err := r.Close(); err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}
}

func (s *sstableT) runBuild(cmd *cobra.Command, args []string) {
	if err := s.build(args[0], args[1]); err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
	}
}

func (s *sstableT) build(path, input string) error {
	cmp, err := s.comparer()
	if err != nil {
		return err
	}
	kvs, err := readKVs(s.opts.FS, input, cmp.Compare)
	if err != nil {
		return err
	}
	compression := sstable.CompressionFromString(s.compression)
	if compression == sstable.DefaultCompression && s.compression != "Default" {
		return errors.Errorf("unknown compression %q", s.compression)
	}
	if s.bitsPerKey < 0 {
		return errors.Errorf("invalid bits per key %d", s.bitsPerKey)
	}

	opts := s.opts.Clone()
	opts.Comparer = cmp
	opts.BlockSize = s.blockSize
	opts.Compression = compression
	opts.FilterBaseLg = s.filterBaseLg
	if s.bitsPerKey > 0 {
		opts.FilterPolicy = bloom.FilterPolicy(uint32(s.bitsPerKey))
	}
	opts.EnsureDefaults()
	if err := opts.Validate(); err != nil {
		return err
	}

	f, err := opts.FS.Create(path)
	if err != nil {
		return err
	}
	w := sstable.NewWriter(f, opts.MakeWriterOptions())
	var fileFilter *sstable.FileFilterWriter
	if opts.FilterPolicy != nil {
		fileFilter = sstable.NewFileFilterWriter(opts.FilterPolicy)
		defer fileFilter.Release()
	}
	for i := range kvs {
		if err := w.Add(kvs[i].K, kvs[i].V); err != nil {
			_ = w.Close()
			return err
		}
		if fileFilter != nil {
			fileFilter.AddKey(kvs[i].K)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	meta, err := w.Metadata()
	if err != nil {
		return err
	}

	props := &meta.Properties
	fmt.Fprintf(stdout, "%s: %s, %d entries, %d data blocks\n",
		path, humanBytes(meta.Size), props.NumEntries, props.NumDataBlocks)
	if props.FilterPolicyName == "" {
		fmt.Fprintf(stdout, "filter block: none\n")
		return nil
	}
	fmt.Fprintf(stdout, "filter block: %s, %d filters, %s\n",
		props.FilterPolicyName, props.NumFilters, humanBytes(props.FilterSize))
	if fileFilter == nil {
		return nil
	}
	if filter, ok := fileFilter.Generate(); ok {
		fmt.Fprintf(stdout, "file filter: %s\n", humanBytes(uint64(len(filter))))
	}
	return nil
}

func (s *sstableT) runFilter(cmd *cobra.Command, args []string) {
	s.forEachTable(args, func(r *sstable.Reader) error {
		fr := r.FilterBlock()
		if fr == nil {
			if r.Properties.FilterPolicyName != "" {
				fmt.Fprintf(stdout, "filter block: unknown policy %s\n", r.Properties.FilterPolicyName)
			} else {
				fmt.Fprintf(stdout, "filter block: none\n")
			}
			return nil
		}
		l, err := r.Layout()
		if err != nil {
			return err
		}
		baseLg := fr.BaseLg()
		blocks := make(map[int]int)
		for _, bh := range l.Data {
			blocks[int(bh.Offset>>baseLg)]++
		}

		fmt.Fprintf(stdout, "filter block: %s, %d filters, base-lg %d\n",
			r.Properties.FilterPolicyName, fr.NumFilters(), baseLg)
		tbl := tablewriter.NewWriter(stdout)
		tbl.SetHeader([]string{"Filter", "Offsets", "Blocks", "Size"})
		tbl.SetAlignment(tablewriter.ALIGN_RIGHT)
		for i := 0; i < fr.NumFilters(); i++ {
			start, limit, _ := fr.FilterBounds(i)
			lo := uint64(i) << baseLg
			tbl.Append([]string{
				strconv.Itoa(i),
				fmt.Sprintf("%d-%d", lo, lo+(1<<baseLg)-1),
				strconv.Itoa(blocks[i]),
				strconv.Itoa(int(limit) - int(start)),
			})
		}
		tbl.Render()
		return nil
	})
}

func (s *sstableT) runLayout(cmd *cobra.Command, args []string) {
	s.forEachTable(args, func(r *sstable.Reader) error {
		l, err := r.Layout()
		if err != nil {
			return err
		}
		l.Describe(stdout, s.verbose, r)
		return nil
	})
}

func (s *sstableT) runProbe(cmd *cobra.Command, args []string) {
	r, err := s.newReader(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return
	}
	defer r.Close()

	fr := r.FilterBlock()
	tbl := tablewriter.NewWriter(stdout)
	tbl.SetHeader([]string{"Key", "Block", "Filter", "Result"})
	for _, arg := range args[1:] {
		k, err := parseKey(arg)
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			return
		}
		row := []string{s.fmtKey.format(k), "-", "-", ""}
		bh, ok, err := r.DataBlockFor(k)
		switch {
		case err != nil:
			row[3] = err.Error()
			tbl.Append(row)
			continue
		case !ok:
			row[3] = "past end"
			tbl.Append(row)
			continue
		}
		row[1] = strconv.FormatUint(bh.Offset, 10)
		if fr != nil {
			if fr.KeyMayMatch(bh.Offset, k) {
				row[2] = "may match"
			} else {
				row[2] = "excluded"
			}
		}
		switch _, err := r.Get(k); {
		case err == nil:
			row[3] = "found"
		case errors.Is(err, base.ErrNotFound):
			row[3] = "not found"
		default:
			row[3] = err.Error()
		}
		tbl.Append(row)
	}
	tbl.Render()
}

func (s *sstableT) runProperties(cmd *cobra.Command, args []string) {
	s.forEachTable(args, func(r *sstable.Reader) error {
		fmt.Fprint(stdout, r.Properties.String())
		return nil
	})
}

func (s *sstableT) runScan(cmd *cobra.Command, args []string) {
	s.forEachTable(args, func(r *sstable.Reader) error {
		iter, err := r.NewIter()
		if err != nil {
			return err
		}
		for kv := iter.First(); kv != nil; kv = iter.Next() {
			formatKeyValue(stdout, s.fmtKey, s.fmtValue, kv)
		}
		return iter.Close()
	})
}
