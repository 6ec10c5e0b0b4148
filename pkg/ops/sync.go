// FileSync Core
// Copyright (c) 2026 The FileSync Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of FileSync Core.
//
// FileSync Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// FileSync Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with FileSync Core.  If not, see <http://www.gnu.org/licenses/>.

package ops

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/FileSyncProject/filesync-core/pkg/config"
	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
	"github.com/FileSyncProject/filesync-core/pkg/geo"
	"github.com/FileSyncProject/filesync-core/pkg/helpers"
)

// SyncDeps are the collaborators of a Sync run. FS defaults to the OS
// filesystem. Source and Target are the two bound collections.
type SyncDeps struct {
	FS       afero.Fs
	Source   featurestore.Collection
	Target   featurestore.Collection
	Progress Progress
}

// SyncCounters summarize one Sync run.
type SyncCounters struct {
	FilesCopied   int
	FilesKept     int
	FilesSkipped  int
	FilesReplaced int
	FilesRenamed  int
	FilesMissing  int
	Inserted      int
	Updated       int
	Duplicates    int
	Errors        int
}

// SyncResult is the outcome of one Sync run.
type SyncResult struct {
	Run      *RunLog
	Counters SyncCounters
	OK       bool
}

// syncRun carries the per-run state through the two stages of each record.
type syncRun struct {
	fs       afero.Fs
	run      *RunLog
	settings config.SyncSettings
	source   featurestore.Collection
	target   featurestore.Collection
	// transform converts source geometries into the target CRS; nil when
	// the collections share a CRS or either carries no geometry
	transform geo.Transform
	counters  *SyncCounters
	errorIDs  []int64
}

// Sync walks the source collection, handles the file behind each record
// (keep in place or copy into the target directory) and reconciles the
// target collection with it according to the configured conflict modes.
// Records whose files went missing or failed are skipped and selected in
// the source collection afterwards.
func Sync(ctx context.Context, settings *config.Settings, deps SyncDeps) (*SyncResult, error) {
	if deps.FS == nil {
		deps.FS = afero.NewOsFs()
	}

	run := newRunLog("synchronize")
	result := &SyncResult{Run: run}
	finish := func() (*SyncResult, error) {
		run.finish("synchronize")
		return result, nil
	}

	checkOK, checkLog := settings.Check(deps.FS, config.UseCaseSync)
	run.extend(checkLog)
	if !checkOK {
		run.add(1, "⭍ Settings invalid...")
		return finish()
	}

	source, target := deps.Source, deps.Target
	run.addf(1, "✓ Source-Layer '%s'", source.Name())
	run.addf(1, "✓ Target-Layer '%s'", target.Name())

	if source == target || source.Name() == target.Name() {
		run.add(1, "⭍ Source- and Target-Layer identical...")
		return finish()
	}
	if !target.IsEditable() {
		run.add(1, "⭍ Target-Layer not editable...")
		return finish()
	}

	ss := settings.Sync
	if findings := checkSyncCollections(&ss, source, target); len(findings) > 0 {
		for _, f := range findings {
			run.add(1, f)
		}
		return finish()
	}

	numFeatures, err := source.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count source records: %w", err)
	}
	if numFeatures == 0 {
		run.add(1, "⭍ no features in Source-Layer...")
		return finish()
	}

	run.addf(1, "✓ sync_target_dir '%s'", filepath.ToSlash(ss.TargetDir))
	run.addf(1, "✓ sync_file_mode '%s'", ss.FileMode)
	run.addf(1, "✓ %d num features", numFeatures)

	var transform geo.Transform
	if source.GeometryType() == featurestore.GeometryPoint &&
		target.GeometryType() == featurestore.GeometryPoint &&
		source.SRID() != target.SRID() {
		transform, err = geo.NewTransform(source.SRID(), target.SRID())
		if err != nil {
			return nil, fmt.Errorf("failed to build source/target transform: %w", err)
		}
	}

	if err := target.BeginEdit(); err != nil {
		return nil, err
	}

	sr := &syncRun{
		fs:        deps.FS,
		run:       run,
		settings:  ss,
		source:    source,
		target:    target,
		transform: transform,
		counters:  &result.Counters,
	}

	run.add(1, "Feature-Iteration-Start")
	fc := 0
	iterErr := source.Iterate(ctx, func(rec *featurestore.Record) error {
		fc++
		if deps.Progress != nil {
			deps.Progress(fc, numFeatures)
		}
		return sr.handleRecord(rec)
	})
	if iterErr != nil {
		_ = target.RollbackEdit()
		return nil, iterErr
	}
	run.add(1, "...Feature-Iteration-End")

	if err := target.CommitEdit(); err != nil {
		return nil, err
	}

	c := result.Counters
	run.addf(1, "%d files copied", c.FilesCopied)
	run.addf(1, "%d files kept in place", c.FilesKept)
	run.addf(1, "%d existing files skipped", c.FilesSkipped)
	run.addf(1, "%d existing files replaced", c.FilesReplaced)
	run.addf(1, "%d existing files renamed", c.FilesRenamed)
	run.addf(1, "%d features inserted", c.Inserted)
	run.addf(1, "%d features updated", c.Updated)
	run.addf(1, "%d duplicate features skipped", c.Duplicates)
	run.addf(1, "%d features with errors skipped and selected", c.Errors)

	source.Select(sr.errorIDs)

	result.OK = true
	return finish()
}

// handleRecord runs the file stage and, when a usable target path came out
// of it, the feature stage. All findings degrade to log lines; the returned
// error is reserved for store failures that must abort the whole run.
func (sr *syncRun) handleRecord(rec *featurestore.Record) error {
	sourcePath, _ := rec.Attribute(sr.settings.SourceAbsPathField).(string)
	sr.run.addf(2, "#%d '%s'", rec.ID, filepath.ToSlash(sourcePath))

	if !isFile(sr.fs, sourcePath) {
		sr.recordError(rec.ID)
		sr.counters.FilesMissing++
		sr.run.add(3, "⭍ file not found, skip...")
		return nil
	}
	sr.run.add(3, "✔ source-file exists")

	targetPath, ok := sr.fileStage(rec, sourcePath)
	if !ok {
		return nil
	}
	return sr.featureStage(rec, targetPath)
}

// fileStage determines (and in copy mode produces) the file the target
// record will point at. ok is false when the record must be skipped.
func (sr *syncRun) fileStage(rec *featurestore.Record, sourcePath string) (string, bool) {
	ss := &sr.settings

	if ss.FileMode != config.FileModeCopy {
		return sourcePath, true
	}

	composedDir := ss.TargetDir
	if ss.SourceRelPathField != "" {
		if rel, _ := rec.Attribute(ss.SourceRelPathField).(string); rel != "" {
			composedDir = filepath.Join(ss.TargetDir, filepath.FromSlash(rel))
		}
	}

	switch info, err := sr.fs.Stat(composedDir); {
	case err == nil && info.IsDir():
		// already there
	case err == nil:
		sr.run.addf(3, "⭍ Target-directory '%s' is a file, file skipped", filepath.ToSlash(composedDir))
		sr.recordError(rec.ID)
		return "", false
	default:
		if err := sr.fs.MkdirAll(composedDir, 0o750); err != nil {
			sr.run.addf(3, "⭍ Target-directory '%s' could not be created, file skipped", filepath.ToSlash(composedDir))
			sr.recordError(rec.ID)
			return "", false
		}
	}

	prelim := filepath.Join(composedDir, filepath.Base(sourcePath))
	copyTarget := ""

	switch info, err := sr.fs.Stat(prelim); {
	case err == nil && info.IsDir():
		sr.run.addf(3, "⭍ Target-path '%s' is a directory, file skipped", filepath.ToSlash(prelim))
		sr.recordError(rec.ID)
		return "", false
	case err == nil:
		switch ss.ExistingFileMode {
		case config.ExistingFileSkip:
			sr.run.add(3, "existing target-file kept")
			sr.counters.FilesKept++
			return prelim, true
		case config.ExistingFileReplace:
			sr.run.add(3, "existing target-file replaced")
			sr.counters.FilesReplaced++
			copyTarget = prelim
		case config.ExistingFileRename:
			renamed, err := helpers.UniqueFilePath(sr.fs, prelim)
			if err != nil {
				sr.run.addf(3, "⭍ target-file storage as '%s' failed, skip file and sync...", filepath.ToSlash(prelim))
				sr.recordError(rec.ID)
				return "", false
			}
			sr.run.add(3, "existing target-file, source-file renamed")
			sr.counters.FilesRenamed++
			copyTarget = renamed
		default:
			sr.run.add(3, "target-file already exists, skip file and sync...")
			sr.counters.FilesSkipped++
			return "", false
		}
	default:
		sr.run.add(3, "no target-file found, copy source-file")
		sr.counters.FilesCopied++
		copyTarget = prelim
	}

	if err := helpers.CopyFile(sr.fs, sourcePath, copyTarget); err != nil {
		sr.run.addf(3, "⭍ target-file storage as '%s' failed, skip file and sync...", filepath.ToSlash(copyTarget))
		sr.recordError(rec.ID)
		return "", false
	}
	sr.run.addf(3, "✔ target-file stored as '%s'...", filepath.ToSlash(copyTarget))
	return copyTarget, true
}

// featureStage reconciles the target collection with one source record and
// the path its file ended up at.
func (sr *syncRun) featureStage(rec *featurestore.Record, targetPath string) error {
	ss := &sr.settings
	posixPath := filepath.ToSlash(targetPath)

	duplicates, err := sr.target.FindByAttribute(ss.TargetAbsPathField, posixPath)
	if err != nil {
		return fmt.Errorf("failed to look up duplicates: %w", err)
	}

	var inserts, overwrites, preserves []*featurestore.Record

	if len(duplicates) > 0 {
		switch ss.ExistingFeatureMode {
		case config.FeatureModeSkip:
			sr.run.addf(3, "%d feature(s) with duplicate path found, feature skipped", len(duplicates))
			sr.counters.Duplicates++
		case config.FeatureModeReplace:
			sr.run.addf(3, "%d feature(s) with duplicate path found, features deleted and new feature inserted", len(duplicates))
			for _, dup := range duplicates {
				if err := sr.target.Delete(dup.ID); err != nil {
					return fmt.Errorf("failed to delete duplicate: %w", err)
				}
			}
			inserts = append(inserts, featurestore.NewRecord())
		case config.FeatureModeInsert:
			sr.run.addf(3, "%d feature(s) with duplicate path found, insert new duplicate", len(duplicates))
			inserts = append(inserts, featurestore.NewRecord())
		case config.FeatureModeUpdateOverwrite:
			sr.run.addf(3, "%d feature(s) with duplicate path found, update duplicate(s) replacing existing attributes", len(duplicates))
			overwrites = duplicates
		case config.FeatureModeUpdatePreserve:
			sr.run.addf(3, "%d feature(s) with duplicate path found, update duplicate(s) keeping existing attributes", len(duplicates))
			preserves = duplicates
		}
	} else {
		inserts = append(inserts, featurestore.NewRecord())
	}

	sourceGeom := sr.transformedGeometry(rec)

	for _, insert := range inserts {
		if sourceGeom != nil {
			insert.SetGeometry(sourceGeom)
		}
		insert.SetAttribute(ss.TargetAbsPathField, posixPath)
		for targetField, sourceField := range ss.Fields {
			insert.SetAttribute(targetField, rec.Attribute(sourceField))
		}
		if err := sr.target.Insert(insert); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
		sr.run.add(4, "✔ insert successful")
		sr.counters.Inserted++
	}

	for _, dup := range overwrites {
		if sourceGeom != nil && ss.UpdateGeometries {
			dup.SetGeometry(sourceGeom)
			sr.run.add(4, "✔ setGeometry successful")
		}
		dup.SetAttribute(ss.TargetAbsPathField, posixPath)
		for targetField, sourceField := range ss.Fields {
			dup.SetAttribute(targetField, rec.Attribute(sourceField))
		}
		if err := sr.target.Update(dup); err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
		sr.run.add(4, "✔ update_overwrite successful")
		sr.counters.Updated++
	}

	for _, dup := range preserves {
		changed := false
		if sourceGeom != nil && ss.UpdateGeometries && dup.Geometry() == nil {
			dup.SetGeometry(sourceGeom)
			sr.run.add(4, "✔ setGeometry successful")
			changed = true
		}
		if existing, _ := dup.Attribute(ss.TargetAbsPathField).(string); existing != posixPath {
			dup.SetAttribute(ss.TargetAbsPathField, posixPath)
			changed = true
		}
		for targetField, sourceField := range ss.Fields {
			targetVal := dup.Attribute(targetField)
			sourceVal := rec.Attribute(sourceField)
			if featurestore.IsEmpty(targetVal) && !featurestore.IsEmpty(sourceVal) &&
				!featurestore.ValuesEqual(targetVal, sourceVal) {
				dup.SetAttribute(targetField, sourceVal)
				changed = true
			}
		}
		if changed {
			if err := sr.target.Update(dup); err != nil {
				return fmt.Errorf("failed to update record: %w", err)
			}
			sr.run.add(4, "✔ update_preserve successful")
			sr.counters.Updated++
		} else {
			sr.counters.Duplicates++
		}
	}

	return nil
}

// transformedGeometry returns the source geometry in the target CRS, or nil
// when the record has none or the transform fails.
func (sr *syncRun) transformedGeometry(rec *featurestore.Record) *geo.Point {
	src := rec.Geometry()
	if src == nil || sr.target.GeometryType() != featurestore.GeometryPoint {
		return nil
	}
	if sr.transform == nil {
		out := *src
		return &out
	}
	out, err := sr.transform.Forward(*src)
	if err != nil {
		sr.run.addf(4, "⭍ geometry not transformable: %v", err)
		return nil
	}
	return &out
}

func (sr *syncRun) recordError(id int64) {
	sr.errorIDs = append(sr.errorIDs, id)
	sr.counters.Errors++
}

func isFile(fs afero.Fs, path string) bool {
	if path == "" {
		return false
	}
	info, err := fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
