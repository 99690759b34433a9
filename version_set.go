// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/internal/manifest"
	"github.com/jayashreemohan29/HyperLevelDB/record"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
)

const numLevels = manifest.NumLevels

// versionSet tracks the current version of the catalog. A new version is
// created from the current one by applying a version edit, which is first
// logged to the manifest. The manifest is replayed at startup.
//
// All fields except the immutable ones are protected by Catalog.mu.
type versionSet struct {
	// Immutable fields.
	dirname string
	opts    *Options
	fs      vfs.FS
	cmp     base.Compare
	cmpName string

	current *manifest.Version

	// The next file number. A single counter is used to assign file numbers
	// for the MANIFEST, sstable and OPTIONS files.
	nextFileNum base.FileNum

	manifestFileNum base.FileNum
	manifestFile    vfs.File
	manifest        *record.Writer
}

func (vs *versionSet) init(dirname string, opts *Options) {
	vs.dirname = dirname
	vs.opts = opts
	vs.fs = opts.FS
	vs.cmp = opts.Comparer.Compare
	vs.cmpName = opts.Comparer.Name
	vs.current = &manifest.Version{}
	vs.nextFileNum = 1
}

// create creates a version set for a fresh catalog.
func (vs *versionSet) create(jobID int, dirname string, opts *Options) error {
	vs.init(dirname, opts)
	return vs.rotateManifest(jobID)
}

// load replays the manifest named by the CURRENT file and then starts a new
// manifest holding a snapshot of the recovered version.
func (vs *versionSet) load(jobID int, dirname string, opts *Options) error {
	vs.init(dirname, opts)

	currentPath := base.MakeFilepath(vs.fs, dirname, base.FileTypeCurrent, 0)
	b, err := vfs.ReadFile(vs.fs, currentPath)
	if err != nil {
		return errors.Wrapf(err, "hyperleveldb: could not read CURRENT file for catalog %q", dirname)
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		return base.CorruptionErrorf("hyperleveldb: CURRENT file for catalog %q is malformed", dirname)
	}
	b = bytes.TrimSpace(b)
	fileType, manifestNum, ok := base.ParseFilename(vs.fs, string(b))
	if !ok || fileType != base.FileTypeManifest {
		return base.CorruptionErrorf("hyperleveldb: MANIFEST name %q is malformed", errors.Safe(b))
	}
	vs.markFileNumUsed(manifestNum)

	f, err := vs.fs.Open(vs.fs.PathJoin(dirname, string(b)))
	if err != nil {
		return errors.Wrapf(err, "hyperleveldb: could not open manifest file %q for catalog %q", b, dirname)
	}
	defer f.Close()

	rr := record.NewReader(f)
	for {
		r, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "hyperleveldb: error when loading manifest file %q", b)
		}
		var ve manifest.VersionEdit
		if err := ve.Decode(r); err != nil {
			return errors.Wrapf(err, "hyperleveldb: error when loading manifest file %q", b)
		}
		if ve.ComparerName != "" && ve.ComparerName != vs.cmpName {
			return errors.Errorf("hyperleveldb: manifest file %q for catalog %q: "+
				"comparer name from file %q != comparer name from Options %q",
				errors.Safe(b), dirname, errors.Safe(ve.ComparerName), errors.Safe(vs.cmpName))
		}
		if vs.current, err = vs.current.Apply(vs.cmp, &ve); err != nil {
			return errors.Wrapf(err, "hyperleveldb: error when loading manifest file %q", b)
		}
		if ve.NextFileNum != 0 {
			vs.markFileNumUsed(ve.NextFileNum - 1)
		}
		for _, nf := range ve.NewFiles {
			vs.markFileNumUsed(nf.Meta.FileNum)
		}
	}

	return vs.rotateManifest(jobID)
}

// rotateManifest creates a new manifest holding a snapshot of the current
// version and points CURRENT at it.
func (vs *versionSet) rotateManifest(jobID int) error {
	fileNum := vs.getNextFileNum()
	err := vs.createManifest(fileNum)
	if err == nil {
		err = vs.setCurrentFile(fileNum)
	}
	if err == nil {
		err = syncDir(vs.opts, vs.dirname)
	}
	vs.opts.EventListener.ManifestCreated(ManifestCreateInfo{
		JobID:   jobID,
		Path:    base.MakeFilepath(vs.fs, vs.dirname, base.FileTypeManifest, fileNum),
		FileNum: fileNum,
		Err:     err,
	})
	return err
}

// createManifest creates a manifest file containing a snapshot of the
// current version and installs it as the manifest that edits are logged to.
func (vs *versionSet) createManifest(fileNum base.FileNum) (err error) {
	var (
		filename     = base.MakeFilepath(vs.fs, vs.dirname, base.FileTypeManifest, fileNum)
		manifestFile vfs.File
		w            *record.Writer
	)
	defer func() {
		if w != nil {
			_ = w.Close()
		}
		if manifestFile != nil {
			_ = manifestFile.Close()
		}
		if err != nil {
			_ = vs.fs.Remove(filename)
		}
	}()
	if manifestFile, err = vs.fs.Create(filename); err != nil {
		return err
	}
	w = record.NewWriter(manifestFile)

	snapshot := manifest.VersionEdit{
		ComparerName: vs.cmpName,
		NextFileNum:  vs.nextFileNum,
	}
	for level, files := range vs.current.Files {
		for _, meta := range files {
			snapshot.NewFiles = append(snapshot.NewFiles, manifest.NewFileEntry{
				Level: level,
				Meta:  meta,
			})
		}
	}
	if err := writeVersionEdit(w, &snapshot); err != nil {
		return err
	}
	if err := manifestFile.Sync(); err != nil {
		return err
	}

	if vs.manifestFile != nil {
		if err := vs.manifestFile.Close(); err != nil {
			vs.opts.EventListener.BackgroundError(err)
		}
	}
	vs.manifestFileNum = fileNum
	vs.manifest, w = w, nil
	vs.manifestFile, manifestFile = manifestFile, nil
	return nil
}

// setCurrentFile atomically points CURRENT at the given manifest.
func (vs *versionSet) setCurrentFile(fileNum base.FileNum) error {
	newFilename := base.MakeFilepath(vs.fs, vs.dirname, base.FileTypeCurrent, 0)
	oldFilename := base.MakeFilepath(vs.fs, vs.dirname, base.FileTypeTemp, fileNum)
	contents := base.MakeFilename(base.FileTypeManifest, fileNum) + "\n"
	if err := vfs.WriteFile(vs.fs, oldFilename, []byte(contents)); err != nil {
		_ = vs.fs.Remove(oldFilename)
		return err
	}
	return vs.fs.Rename(oldFilename, newFilename)
}

// logAndApply logs the version edit to the manifest, applies the edit to
// the current version, and installs the new version. The edit is only
// applied if it was durably logged.
func (vs *versionSet) logAndApply(ve *manifest.VersionEdit) error {
	newVersion, err := vs.current.Apply(vs.cmp, ve)
	if err != nil {
		return err
	}
	ve.NextFileNum = vs.nextFileNum
	if err := writeVersionEdit(vs.manifest, ve); err != nil {
		return errors.Wrap(err, "hyperleveldb: MANIFEST write failed")
	}
	if err := vs.manifestFile.Sync(); err != nil {
		return errors.Wrap(err, "hyperleveldb: MANIFEST sync failed")
	}
	vs.current = newVersion
	return nil
}

func writeVersionEdit(w *record.Writer, ve *manifest.VersionEdit) error {
	var buf bytes.Buffer
	if err := ve.Encode(&buf); err != nil {
		return err
	}
	if _, err := w.WriteRecord(buf.Bytes()); err != nil {
		return err
	}
	return w.Flush()
}

func (vs *versionSet) close() error {
	if vs.manifestFile == nil {
		return nil
	}
	err := firstError(vs.manifest.Close(), vs.manifestFile.Close())
	vs.manifest = nil
	vs.manifestFile = nil
	return err
}

func (vs *versionSet) markFileNumUsed(fileNum base.FileNum) {
	if vs.nextFileNum <= fileNum {
		vs.nextFileNum = fileNum + 1
	}
}

func (vs *versionSet) getNextFileNum() base.FileNum {
	x := vs.nextFileNum
	vs.nextFileNum++
	return x
}

// liveTables returns the set of table file numbers referenced by the current
// version.
func (vs *versionSet) liveTables() map[base.FileNum]struct{} {
	live := make(map[base.FileNum]struct{})
	for _, files := range vs.current.Files {
		for _, f := range files {
			live[f.FileNum] = struct{}{}
		}
	}
	return live
}
