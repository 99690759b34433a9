// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/bloom"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/sstable"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
	"github.com/prometheus/client_golang/prometheus"
)

const defaultTableCacheSize = 64

// Options holds the optional parameters for building tables and opening a
// Catalog.
type Options struct {
	// BlockRestartInterval is the number of keys between restart points for
	// delta encoding of keys.
	//
	// The default value is 16.
	BlockRestartInterval int

	// BlockSize is the target uncompressed size in bytes of each table block.
	//
	// The default value is 4096.
	BlockSize int

	// Checksum specifies the block checksum algorithm.
	//
	// The default value is sstable.ChecksumTypeCRC32c.
	Checksum sstable.ChecksumType

	// Comparer defines a total ordering over the space of []byte keys: a 'less
	// than' relationship. The same comparison algorithm must be used for reads
	// and writes over the lifetime of the catalog.
	//
	// The default value uses the same ordering as bytes.Compare.
	Comparer *Comparer

	// Compression defines the per-block compression to use.
	//
	// The default value (DefaultCompression) uses snappy compression.
	Compression sstable.Compression

	// FileFilters enables building a filter over every key of a table in
	// addition to the per-block filters. The file filter is stored in the
	// table's manifest entry and consulted before the table is opened.
	// Requires FilterPolicy.
	FileFilters bool

	// FilterBaseLg is the log2 of the table byte range covered by each
	// filter in a table's filter block. It must be below 64. Zero selects
	// the default, so a range of a single byte cannot be configured.
	//
	// The default value is 11 (one filter per 2KB of table data).
	FilterBaseLg uint8

	// FilterPolicy defines a filter algorithm (such as a Bloom filter) that
	// can reduce disk reads for Get calls.
	//
	// One such implementation is bloom.FilterPolicy(10) from the
	// hyperleveldb/bloom package.
	//
	// The default value means to use no filter.
	FilterPolicy FilterPolicy

	// Filters is a map from filter policy name to filter policy. Filters
	// written with a policy not found in this map are ignored when reading.
	// FilterPolicy is always added to the map.
	Filters map[string]FilterPolicy

	// EventListener provides hooks to listening to significant catalog
	// events such as table creation and deletion.
	//
	// The default value logs every event to Logger.
	EventListener *EventListener

	// FS provides the interface for persistent file storage.
	//
	// The default value uses the underlying operating system's file system.
	FS vfs.FS

	// Logger used to write log messages.
	//
	// The default logger uses the Go standard library log package.
	Logger Logger

	// TableCacheSize is the maximum number of table readers a Catalog keeps
	// open.
	//
	// The default value is 64.
	TableCacheSize int

	// TableBuildLatency, if non-nil, records the duration in seconds of every
	// table build that writes a table.
	TableBuildLatency prometheus.Histogram
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.BlockRestartInterval <= 0 {
		o.BlockRestartInterval = 16
	}
	if o.BlockSize <= 0 {
		o.BlockSize = 4096
	}
	if o.Checksum == sstable.ChecksumTypeNone {
		o.Checksum = sstable.ChecksumTypeCRC32c
	}
	o.Comparer = o.Comparer.EnsureDefaults()
	if o.Compression <= sstable.DefaultCompression || o.Compression >= sstable.NCompression {
		o.Compression = sstable.SnappyCompression
	}
	if o.FilterBaseLg == 0 {
		o.FilterBaseLg = sstable.DefaultFilterBaseLg
	}
	if o.FilterPolicy != nil {
		if o.Filters == nil {
			o.Filters = make(map[string]FilterPolicy)
		}
		if _, ok := o.Filters[o.FilterPolicy.Name()]; !ok {
			o.Filters[o.FilterPolicy.Name()] = o.FilterPolicy
		}
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.Logger == nil {
		o.Logger = DefaultLogger
	}
	if o.TableCacheSize <= 0 {
		o.TableCacheSize = defaultTableCacheSize
	}
	if o.EventListener == nil {
		l := MakeLoggingEventListener(o.Logger)
		o.EventListener = &l
	}
	o.EventListener.EnsureDefaults(o.Logger)
	return o
}

// Clone creates a shallow-copy of the supplied options.
func (o *Options) Clone() *Options {
	n := &Options{}
	if o != nil {
		*n = *o
	}
	if o != nil && o.Filters != nil {
		n.Filters = make(map[string]FilterPolicy, len(o.Filters))
		for k, v := range o.Filters {
			n.Filters[k] = v
		}
	}
	return n
}

// Validate verifies that the options are mutually consistent. It presumes
// EnsureDefaults has been called.
func (o *Options) Validate() error {
	var buf strings.Builder
	if o.FilterBaseLg >= 64 {
		fmt.Fprintf(&buf, "FilterBaseLg (%d) must be < 64\n", o.FilterBaseLg)
	}
	if o.FileFilters && o.FilterPolicy == nil {
		fmt.Fprintf(&buf, "FileFilters requires a FilterPolicy\n")
	}
	if o.BlockRestartInterval < 1 {
		fmt.Fprintf(&buf, "BlockRestartInterval (%d) must be >= 1\n", o.BlockRestartInterval)
	}
	if buf.Len() == 0 {
		return nil
	}
	return errors.New(buf.String())
}

func filterPolicyString(p FilterPolicy) string {
	if p == nil {
		return "none"
	}
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return p.Name()
}

// String returns a representation of the options in INI format, as written
// to the OPTIONS file.
func (o *Options) String() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "[Version]\n")
	fmt.Fprintf(&buf, "  hyperleveldb_version=0.1\n")
	fmt.Fprintf(&buf, "\n")
	fmt.Fprintf(&buf, "[Options]\n")
	fmt.Fprintf(&buf, "  block_restart_interval=%d\n", o.BlockRestartInterval)
	fmt.Fprintf(&buf, "  block_size=%d\n", o.BlockSize)
	fmt.Fprintf(&buf, "  checksum=%s\n", o.Checksum)
	fmt.Fprintf(&buf, "  comparer=%s\n", o.Comparer.Name)
	fmt.Fprintf(&buf, "  compression=%s\n", o.Compression)
	fmt.Fprintf(&buf, "  file_filters=%t\n", o.FileFilters)
	fmt.Fprintf(&buf, "  filter_base_lg=%d\n", o.FilterBaseLg)
	fmt.Fprintf(&buf, "  filter_policy=%s\n", filterPolicyString(o.FilterPolicy))
	fmt.Fprintf(&buf, "  table_cache_size=%d\n", o.TableCacheSize)
	return buf.String()
}

// ParseHooks contains callbacks to create options fields which can have
// user-defined implementations.
type ParseHooks struct {
	NewComparer     func(name string) (*Comparer, error)
	NewFilterPolicy func(name string) (FilterPolicy, error)
	SkipUnknown     func(name, value string) bool
}

// Parse parses the options from the specified string. Note that certain
// options cannot be parsed into populated fields. For example, a comparer
// other than the default requires ParseHooks.NewComparer.
func (o *Options) Parse(s string, hooks *ParseHooks) error {
	visitKeyValue := func(section, key, value string) error {
		unknown := func() error {
			if hooks != nil && hooks.SkipUnknown != nil && hooks.SkipUnknown(section+"."+key, value) {
				return nil
			}
			return errors.Errorf("hyperleveldb: unknown option: %s.%s",
				errors.Safe(section), errors.Safe(key))
		}

		switch section {
		case "Version":
			if key != "hyperleveldb_version" {
				return unknown()
			}
			return nil

		case "Options":
			var err error
			switch key {
			case "block_restart_interval":
				o.BlockRestartInterval, err = strconv.Atoi(value)
			case "block_size":
				o.BlockSize, err = strconv.Atoi(value)
			case "checksum":
				typ, ok := sstable.ChecksumTypeFromString(value)
				if !ok {
					return errors.Errorf("hyperleveldb: unknown checksum type: %q", errors.Safe(value))
				}
				o.Checksum = typ
			case "comparer":
				switch {
				case value == DefaultComparer.Name:
					o.Comparer = DefaultComparer
				case hooks != nil && hooks.NewComparer != nil:
					var c *Comparer
					c, err = hooks.NewComparer(value)
					if c != nil {
						o.Comparer = c
					}
				}
			case "compression":
				c := sstable.CompressionFromString(value)
				if c == sstable.DefaultCompression && value != c.String() {
					return errors.Errorf("hyperleveldb: unknown compression: %q", errors.Safe(value))
				}
				o.Compression = c
			case "file_filters":
				o.FileFilters, err = strconv.ParseBool(value)
			case "filter_base_lg":
				var v uint64
				v, err = strconv.ParseUint(value, 10, 8)
				o.FilterBaseLg = uint8(v)
			case "filter_policy":
				switch {
				case value == "none":
					o.FilterPolicy = nil
				case hooks != nil && hooks.NewFilterPolicy != nil:
					o.FilterPolicy, err = hooks.NewFilterPolicy(value)
				default:
					p, ok := bloom.PolicyFromName(value)
					if !ok {
						return errors.Errorf("hyperleveldb: unknown filter policy: %q", errors.Safe(value))
					}
					o.FilterPolicy = p
				}
			case "table_cache_size":
				o.TableCacheSize, err = strconv.Atoi(value)
			default:
				return unknown()
			}
			return err

		default:
			if hooks != nil && hooks.SkipUnknown != nil && hooks.SkipUnknown(section+".", "") {
				return nil
			}
			return errors.Errorf("hyperleveldb: unknown section: %q", errors.Safe(section))
		}
	}
	return parseOptions(s, visitKeyValue)
}

// parseOptions walks the INI-formatted string s, calling visitKeyValue for
// every key=value line. Blank lines and lines starting with ';' or '#' are
// skipped.
func parseOptions(s string, visitKeyValue func(section, key, value string) error) error {
	var section string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 || line[0] == ';' || line[0] == '#' {
			continue
		}
		n := len(line)
		if line[0] == '[' && line[n-1] == ']' {
			section = line[1 : n-1]
			continue
		}

		pos := strings.Index(line, "=")
		if pos < 0 {
			const maxLen = 50
			if len(line) > maxLen {
				line = line[:maxLen-3] + "..."
			}
			return base.CorruptionErrorf("invalid key=value syntax: %q", errors.Safe(line))
		}
		key := strings.TrimSpace(line[:pos])
		value := strings.TrimSpace(line[pos+1:])
		if err := visitKeyValue(section, key, value); err != nil {
			return err
		}
	}
	return nil
}

// MakeReaderOptions constructs sstable.ReaderOptions from the corresponding
// options in the receiver.
func (o *Options) MakeReaderOptions() sstable.ReaderOptions {
	return sstable.ReaderOptions{
		Comparer: o.Comparer,
		Filters:  o.Filters,
	}
}

// MakeWriterOptions constructs sstable.WriterOptions from the corresponding
// options in the receiver.
func (o *Options) MakeWriterOptions() sstable.WriterOptions {
	return sstable.WriterOptions{
		BlockRestartInterval: o.BlockRestartInterval,
		BlockSize:            o.BlockSize,
		Checksum:             o.Checksum,
		Comparer:             o.Comparer,
		Compression:          o.Compression,
		FilterPolicy:         o.FilterPolicy,
		FilterBaseLg:         o.FilterBaseLg,
	}
}
