// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	hyperleveldb "github.com/jayashreemohan29/HyperLevelDB"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/internal/manifest"
	"github.com/jayashreemohan29/HyperLevelDB/record"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// manifestT implements manifest-level tools, including both configuration
// state and the commands themselves.
type manifestT struct {
	Root      *cobra.Command
	Dump      *cobra.Command
	Summarize *cobra.Command

	opts      *hyperleveldb.Options
	comparers map[string]*Comparer
	fmtKey    formatter
}

func newManifest(opts *hyperleveldb.Options, comparers map[string]*Comparer) *manifestT {
	m := &manifestT{
		opts:      opts,
		comparers: comparers,
	}
	m.fmtKey.mustSet("quoted")

	m.Root = &cobra.Command{
		Use:   "manifest",
		Short: "manifest introspection tools",
	}
	m.Dump = &cobra.Command{
		Use:   "dump <manifest-files>",
		Short: "print manifest contents",
		Long: `
Print the contents of the MANIFEST files: one entry per version edit, giving
the tables added and removed along with the size of each table's file filter.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  m.runDump,
	}
	m.Summarize = &cobra.Command{
		Use:   "summarize <manifest-files>",
		Short: "summarize the version described by the manifest",
		Long: `
Replay the MANIFEST files and print, per level, the number and size of the
tables and of their file filters.
`,
		Args: cobra.MinimumNArgs(1),
		Run:  m.runSummarize,
	}

	m.Root.AddCommand(m.Dump, m.Summarize)
	m.Dump.Flags().Var(
		&m.fmtKey, "key", "key formatter")
	return m
}

// replay decodes every edit in the manifest, calling fn with the record
// offset, the edit and the version produced by applying it.
func (m *manifestT) replay(
	path string, fn func(offset int64, ve *manifest.VersionEdit, v *manifest.Version),
) (*manifest.Version, error) {
	f, err := m.opts.FS.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cmp := base.DefaultComparer
	v := &manifest.Version{}
	rr := record.NewReader(f)
	for {
		offset := rr.Offset()
		r, err := rr.Next()
		if err == io.EOF {
			return v, nil
		}
		if err != nil {
			return v, errors.Wrapf(err, "%s: offset %d", path, offset)
		}
		var ve manifest.VersionEdit
		if err := ve.Decode(r); err != nil {
			return v, errors.Wrapf(err, "%s: offset %d", path, offset)
		}
		if ve.ComparerName != "" {
			c, ok := m.comparers[ve.ComparerName]
			if !ok {
				return v, errors.Errorf("%s: unknown comparer %q", path, ve.ComparerName)
			}
			cmp = c
		}
		if v, err = v.Apply(cmp.Compare, &ve); err != nil {
			return v, errors.Wrapf(err, "%s: offset %d", path, offset)
		}
		fn(offset, &ve, v)
	}
}

func (m *manifestT) runDump(cmd *cobra.Command, args []string) {
	for _, arg := range args {
		fmt.Fprintf(stdout, "%s\n", arg)
		_, err := m.replay(arg, func(offset int64, ve *manifest.VersionEdit, _ *manifest.Version) {
			fmt.Fprintf(stdout, "%d\n", offset)
			fmt.Fprint(stdout, ve.DebugString(m.fmtKey.formatKey))
		})
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
		}
	}
}

func (m *manifestT) runSummarize(cmd *cobra.Command, args []string) {
	for _, arg := range args {
		v, err := m.replay(arg, func(int64, *manifest.VersionEdit, *manifest.Version) {})
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			continue
		}
		fmt.Fprintf(stdout, "%s\n", arg)

		tbl := tablewriter.NewWriter(stdout)
		tbl.SetHeader([]string{"Level", "Tables", "Size", "File filters", "Filter size"})
		tbl.SetAlignment(tablewriter.ALIGN_RIGHT)
		var total hyperleveldb.LevelMetrics
		row := func(name string, l *hyperleveldb.LevelMetrics) []string {
			return []string{
				name,
				strconv.FormatInt(l.NumFiles, 10),
				humanBytes(l.Size),
				strconv.FormatInt(l.NumFileFilters, 10),
				humanBytes(l.FileFilterSize),
			}
		}
		for level, files := range v.Files {
			var l hyperleveldb.LevelMetrics
			for _, f := range files {
				l.NumFiles++
				l.Size += f.Size
				if f.HasFileFilter {
					l.NumFileFilters++
					l.FileFilterSize += uint64(len(f.FileFilter))
				}
			}
			total.Add(&l)
			if l.NumFiles > 0 {
				tbl.Append(row(fmt.Sprintf("L%d", level), &l))
			}
		}
		tbl.SetFooter(row("total", &total))
		tbl.Render()
	}
}
