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
	"github.com/FileSyncProject/filesync-core/pkg/metadata"
)

// PostScanDeps are the collaborators of a PostScan run. FS defaults to the
// OS filesystem, Reader to the EXIF reader. Collection is the bound
// collection to refresh.
type PostScanDeps struct {
	FS         afero.Fs
	Reader     metadata.ImageReader
	Collection featurestore.Collection
	Progress   Progress
}

// PostScanCounters summarize one PostScan run.
type PostScanCounters struct {
	Updated      int
	Unchanged    int
	MissingFiles int
	Skipped      int
}

// PostScanResult is the outcome of one PostScan run.
type PostScanResult struct {
	Run      *RunLog
	Counters PostScanCounters
	OK       bool
}

// PostScan re-extracts the configured metadata kinds for every record of an
// existing collection, straight from the files the records point at.
// Records with missing files or failed extractions are skipped and selected
// afterwards.
func PostScan(ctx context.Context, settings *config.Settings, deps PostScanDeps) (*PostScanResult, error) {
	if deps.FS == nil {
		deps.FS = afero.NewOsFs()
	}

	run := newRunLog("PostScan")
	result := &PostScanResult{Run: run}
	finish := func() (*PostScanResult, error) {
		run.finish("PostScan")
		return result, nil
	}

	checkOK, checkLog := settings.Check(deps.FS, config.UseCasePostScan)
	run.extend(checkLog)
	if !checkOK {
		return finish()
	}

	coll := deps.Collection
	ps := settings.PostScan

	if !coll.IsEditable() {
		run.add(1, "⭍ PostScanLayer not editable, PostScan aborted")
		return finish()
	}
	if findings := checkPostScanCollection(&ps, coll); len(findings) > 0 {
		for _, f := range findings {
			run.add(1, f)
		}
		return finish()
	}

	numFeatures, err := coll.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	// GPS coordinates come in as WGS 84
	var transform geo.Transform
	if coll.GeometryType() == featurestore.GeometryPoint && coll.SRID() != geo.EPSGWGS84 {
		transform, err = geo.NewTransform(geo.EPSGWGS84, coll.SRID())
		if err != nil {
			return nil, fmt.Errorf("failed to build gps transform: %w", err)
		}
	}

	resolvedFields, _ := resolveMetaFields(ps.Fields)
	extractor := metadata.NewExtractor(deps.FS, deps.Reader, ps.HashAlg)

	if err := coll.BeginEdit(); err != nil {
		return nil, err
	}

	run.addf(1, "Feature-Iteration-Start, %d features", numFeatures)
	c := &result.Counters
	var missingIDs, skipIDs []int64
	fc := 0

	iterErr := coll.Iterate(ctx, func(rec *featurestore.Record) error {
		fc++
		if deps.Progress != nil {
			deps.Progress(fc, numFeatures)
		}

		absPath, _ := rec.Attribute(ps.AbsPathField).(string)
		run.addf(2, "#%d '%s'", rec.ID, filepath.ToSlash(absPath))

		info, err := deps.FS.Stat(absPath)
		if absPath == "" || err != nil || info.IsDir() {
			run.add(3, "⭍ file not found, check path")
			c.MissingFiles++
			missingIDs = append(missingIDs, rec.ID)
			return nil
		}
		run.add(3, "✔ file exists")

		ok, altered, extractLog := extractor.Extract(metadata.Request{
			Path:               absPath,
			Fields:             resolvedFields,
			RelRootDir:         ps.RelRootDir,
			GPSTransform:       transform,
			PreserveExisting:   ps.PreserveExisting,
			ExtractGPSGeometry: ps.UpdateGeometryFromExif,
		}, rec)
		run.extend(extractLog)

		switch {
		case !ok:
			run.add(3, "⭍ extract-metas failed, no update")
			c.Skipped++
			skipIDs = append(skipIDs, rec.ID)
		case altered:
			if err := coll.Update(rec); err != nil {
				return fmt.Errorf("failed to update record: %w", err)
			}
			run.add(3, "✔ feature updated")
			c.Updated++
		default:
			run.add(3, "✔ feature not altered, no update")
			c.Unchanged++
		}
		return nil
	})
	if iterErr != nil {
		_ = coll.RollbackEdit()
		return nil, iterErr
	}
	run.add(1, "...Feature-Iteration-End")

	if err := coll.CommitEdit(); err != nil {
		return nil, err
	}

	run.addf(1, "%d features updated", c.Updated)
	run.addf(1, "%d features unchanged, no update", c.Unchanged)
	if c.MissingFiles > 0 {
		run.addf(1, "%d features with missing files skipped and selected", c.MissingFiles)
	}
	if c.Skipped > 0 {
		run.addf(1, "%d features for other reasons skipped and selected", c.Skipped)
	}

	coll.Select(append(missingIDs, skipIDs...))

	result.OK = true
	return finish()
}
