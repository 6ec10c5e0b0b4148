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

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/FileSyncProject/filesync-core/pkg/config"
	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
	"github.com/FileSyncProject/filesync-core/pkg/geo"
	"github.com/FileSyncProject/filesync-core/pkg/helpers"
	"github.com/FileSyncProject/filesync-core/pkg/metadata"
	"github.com/FileSyncProject/filesync-core/pkg/scanner"
)

// PreScanDeps are the collaborators of a PreScan run. FS defaults to the OS
// filesystem, Reader to the EXIF reader. Confirm guards scans above
// config.PreScanConfirmThreshold files; nil proceeds unasked.
// ExistingNames keeps the result collection name unique.
type PreScanDeps struct {
	FS            afero.Fs
	Reader        metadata.ImageReader
	Confirm       Confirm
	Progress      Progress
	ExistingNames []string
}

// PreScanResult is the outcome of one PreScan run.
type PreScanResult struct {
	Run        *RunLog
	Collection *featurestore.Memory
	NumFiles   int
	OK         bool
	Aborted    bool
}

// PreScan scans a directory for matching files, extracts the configured
// metadata kinds and collects them into a new in-memory point collection.
// Settings are checked (and healed where possible) first; a failed check
// aborts before any filesystem work.
func PreScan(ctx context.Context, settings *config.Settings, deps PreScanDeps) (*PreScanResult, error) {
	if deps.FS == nil {
		deps.FS = afero.NewOsFs()
	}

	run := newRunLog("PreScan")
	result := &PreScanResult{Run: run}

	checkOK, checkLog := settings.Check(deps.FS, config.UseCasePreScan)
	run.extend(checkLog)
	if !checkOK {
		run.add(1, "⭍ Settings invalid...")
		run.finish("PreScan")
		return result, nil
	}

	ps := settings.PreScan
	run.addf(1, "✓ pre_scan_dir '%s'", ps.Dir)
	run.addf(1, "✓ pre_scan_sub_dirs '%t'", ps.SubDirs)
	run.addf(1, "✓ pre_scan_patterns '%s'", ps.Patterns)
	run.addf(1, "✓ pre_scan_epsg '%s'", ps.EPSG)

	epsg, err := geo.ParseEPSG(ps.EPSG)
	if err != nil {
		// Check healed the EPSG already, this is unreachable in practice
		return nil, fmt.Errorf("failed to parse epsg: %w", err)
	}

	files, err := scanner.Scan(deps.FS, ps.Dir, scanner.Options{
		Patterns:  ps.Patterns,
		Recursive: ps.SubDirs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", ps.Dir, err)
	}
	if len(files) == 0 {
		run.addf(1, "⭍ no files for '%s' with pattern '%s'", ps.Dir, ps.Patterns)
		run.finish("PreScan")
		return result, nil
	}

	numFiles := len(files)
	result.NumFiles = numFiles
	run.addf(1, "✓ num_files %d", numFiles)

	if numFiles > config.PreScanConfirmThreshold && deps.Confirm != nil && !deps.Confirm(numFiles) {
		log.Info().Int("numFiles", numFiles).Msg("pre-scan declined by user")
		result.Aborted = true
		return result, nil
	}

	resolvedFields, schema := resolveMetaFields(ps.Fields)

	name := uniqueCollectionName(deps.ExistingNames, ps.Dir)
	coll := featurestore.NewMemory(name, schema, featurestore.GeometryPoint, epsg)
	run.addf(1, "✓ temporary point-layer created: '%s'", name)

	// GPS coordinates come in as WGS 84
	var transform geo.Transform
	if epsg != geo.EPSGWGS84 {
		transform, err = geo.NewTransform(geo.EPSGWGS84, epsg)
		if err != nil {
			return nil, fmt.Errorf("failed to build gps transform: %w", err)
		}
	}

	extractor := metadata.NewExtractor(deps.FS, deps.Reader, ps.HashAlg)

	if err := coll.BeginEdit(); err != nil {
		return nil, err
	}
	run.add(1, "File-Iteration-Start...")
	fc := 0
	for _, path := range scanner.SortedPaths(files) {
		if err := ctx.Err(); err != nil {
			_ = coll.RollbackEdit()
			return nil, err
		}
		fc++
		if deps.Progress != nil {
			deps.Progress(fc, numFiles)
		}

		rec := featurestore.NewRecord()
		_, _, extractLog := extractor.Extract(metadata.Request{
			Path:               path,
			Fields:             resolvedFields,
			RelRootDir:         ps.RelRootDir,
			GPSTransform:       transform,
			PreserveExisting:   false,
			ExtractGPSGeometry: true,
		}, rec)
		run.extend(extractLog)

		if err := coll.Insert(rec); err != nil {
			_ = coll.RollbackEdit()
			return nil, fmt.Errorf("failed to insert pre-scan record: %w", err)
		}
		run.addf(2, "✔ %s", filepath.ToSlash(path))
	}
	run.add(1, "...File-Iteration-End")
	if err := coll.CommitEdit(); err != nil {
		return nil, err
	}

	result.Collection = coll
	result.OK = true
	run.finish("PreScan")
	return result, nil
}

// uniqueCollectionName numbers the result name until it clashes with none of
// the existing ones.
func uniqueCollectionName(existing []string, dir string) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("pre_scan_result %s_%d", dir, i)
		if !helpers.Contains(existing, name) {
			return name
		}
	}
}
