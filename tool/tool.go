// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	hyperleveldb "github.com/jayashreemohan29/HyperLevelDB"
	"github.com/jayashreemohan29/HyperLevelDB/bloom"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
	"github.com/spf13/cobra"
)

// Comparer exports the base.Comparer type.
type Comparer = base.Comparer

// FilterPolicy exports the base.FilterPolicy type.
type FilterPolicy = base.FilterPolicy

// T is the container for all of the introspection tools.
type T struct {
	Commands  []*cobra.Command
	manifest  *manifestT
	sstable   *sstableT
	opts      hyperleveldb.Options
	comparers map[string]*Comparer
}

// Option is a functional option for configuring the tool.
type Option func(*T)

// FS sets the filesystem the tools read and write. The default is the local
// filesystem.
func FS(fs vfs.FS) Option {
	return func(t *T) {
		t.opts.FS = fs
	}
}

// Comparers may be passed to New to register comparers for use by the
// introspection tools.
func Comparers(cmps ...*Comparer) Option {
	return func(t *T) {
		for _, c := range cmps {
			t.comparers[c.Name] = c
		}
	}
}

// Filters may be passed to New to register filter policies for use by the
// introspection tools.
func Filters(filters ...FilterPolicy) Option {
	return func(t *T) {
		for _, f := range filters {
			t.opts.Filters[f.Name()] = f
		}
	}
}

// New creates a new introspection tool.
func New(opts ...Option) *T {
	t := &T{
		opts: hyperleveldb.Options{
			FS:      vfs.Default,
			Filters: make(map[string]FilterPolicy),
		},
		comparers: make(map[string]*Comparer),
	}
	Comparers(base.DefaultComparer)(t)
	Filters(bloom.FilterPolicy(10))(t)
	for _, opt := range opts {
		opt(t)
	}

	t.manifest = newManifest(&t.opts, t.comparers)
	t.sstable = newSSTable(&t.opts, t.comparers)
	t.Commands = []*cobra.Command{
		t.manifest.Root,
		t.sstable.Root,
	}
	return t
}
