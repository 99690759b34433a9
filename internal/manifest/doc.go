// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package manifest holds the in-memory and on-disk description of a catalog's
// tables: the metadata of each table, including its file filter, the Version
// grouping tables by level, and the VersionEdit records that are logged to the
// MANIFEST to move from one Version to the next.
package manifest
