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

package config

import (
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/FileSyncProject/filesync-core/pkg/geo"
	"github.com/FileSyncProject/filesync-core/pkg/helpers"
	"github.com/FileSyncProject/filesync-core/pkg/metadata"
)

// Use cases for Check. Each names the settings group of one operation.
const (
	UseCasePreScan  = "PRE_SCAN_SETTINGS"
	UseCaseSync     = "SYNC_SETTINGS"
	UseCasePostScan = "POST_SCAN_SETTINGS"
)

const (
	checkTab  = "   "
	checkWarn = "⭍ "
)

// DefaultEPSG is the CRS pre-scan falls back to when none is configured.
const DefaultEPSG = "EPSG:4326"

// Check validates the settings groups named by useCases (all three when
// empty) against the filesystem. Invalid values are reset to a usable
// default where possible; every finding lands in the returned log. ok is
// false when at least one setting could not be healed into a runnable state.
// Collection-dependent checks (fields exist, types match, geometry kinds)
// happen in the operations, which are the only place collections resolve.
func (s *Settings) Check(fs afero.Fs, useCases ...string) (bool, []string) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if len(useCases) == 0 {
		useCases = []string{UseCasePreScan, UseCaseSync, UseCasePostScan}
	}

	ok := true
	log := []string{time.Now().Format("15:04:05") + " CheckSettings"}

	fail := func() { ok = false }

	if helpers.Contains(useCases, UseCasePreScan) {
		log = append(log, checkTab+UseCasePreScan)

		log = append(log, fmt.Sprintf("%spre_scan_dir '%s'", checkTab+checkTab, s.PreScan.Dir))
		if s.PreScan.Dir != "" {
			if !isDir(fs, s.PreScan.Dir) {
				log = append(log, checkTab+checkTab+checkWarn+"directory not found or no directory")
				s.PreScan.Dir = ""
				fail()
			}
		} else {
			fail()
		}

		if s.PreScan.EPSG == "" {
			s.PreScan.EPSG = DefaultEPSG
		}
		if code, err := geo.ParseEPSG(s.PreScan.EPSG); err != nil || !geo.ValidEPSG(code) {
			s.PreScan.EPSG = DefaultEPSG
		}
		log = append(log, fmt.Sprintf("%spre_scan_epsg '%s'", checkTab+checkTab, s.PreScan.EPSG))

		if s.PreScan.Patterns == "" {
			s.PreScan.Patterns = DefaultPatterns
		}
		log = append(log, fmt.Sprintf("%spre_scan_patterns '%s'", checkTab+checkTab, s.PreScan.Patterns))
		log = append(log, fmt.Sprintf("%spre_scan_sub_dirs '%t'", checkTab+checkTab, s.PreScan.SubDirs))

		s.PreScan.HashAlg = checkedHashAlg(s.PreScan.HashAlg)

		if _, wantsRelPath := s.PreScan.Fields[metadata.MetaRelPath]; wantsRelPath {
			log = append(log, fmt.Sprintf("%spre_scan_rel_root_dir '%s'", checkTab+checkTab, s.PreScan.RelRootDir))
			if s.PreScan.RelRootDir != "" {
				if !isDir(fs, s.PreScan.RelRootDir) {
					log = append(log, checkTab+checkTab+checkWarn+"directory not found or no directory")
					s.PreScan.RelRootDir = ""
					fail()
				}
			} else {
				log = append(log, checkTab+checkTab+checkTab+checkWarn+"meta 'rel_path' without valid pre_scan_rel_root_dir")
				fail()
			}
		}

		if _, hasAbsPath := s.PreScan.Fields[metadata.MetaAbsPath]; !hasAbsPath {
			log = append(log, checkTab+checkTab+checkWarn+"mandatory meta 'abs_path' missing in pre_scan_fields")
			fail()
		}

		log = append(log, checkTab+checkTab+"pre_scan_fields:")
		for _, meta := range sortedKeys(s.PreScan.Fields) {
			log = append(log, fmt.Sprintf("%s%s -> %s", checkTab+checkTab+checkTab, meta, s.PreScan.Fields[meta]))
		}
	}

	if helpers.Contains(useCases, UseCaseSync) {
		log = append(log, checkTab+UseCaseSync)

		log = append(log, fmt.Sprintf("%ssync_source_layer_id '%s'", checkTab+checkTab, s.Sync.SourceLayerID))
		if s.Sync.SourceLayerID == "" {
			fail()
		}
		log = append(log, fmt.Sprintf("%ssync_target_layer_id '%s'", checkTab+checkTab, s.Sync.TargetLayerID))
		if s.Sync.TargetLayerID == "" {
			fail()
		}

		log = append(log, fmt.Sprintf("%ssync_source_abs_path_field '%s'", checkTab+checkTab, s.Sync.SourceAbsPathField))
		if s.Sync.SourceAbsPathField == "" {
			fail()
		}
		log = append(log, fmt.Sprintf("%ssync_target_abs_path_field '%s'", checkTab+checkTab, s.Sync.TargetAbsPathField))
		if s.Sync.TargetAbsPathField == "" {
			fail()
		}

		if !helpers.Contains(FileModes, s.Sync.FileMode) {
			s.Sync.FileMode = FileModeKeep
		}
		log = append(log, fmt.Sprintf("%ssync_file_mode '%s'", checkTab+checkTab, s.Sync.FileMode))

		if s.Sync.FileMode == FileModeCopy {
			if !helpers.Contains(ExistingFileModes, s.Sync.ExistingFileMode) {
				log = append(log, checkTab+checkTab+checkTab+checkWarn+"sync_existing_file_mode missing")
			} else {
				log = append(log, fmt.Sprintf("%ssync_existing_file_mode '%s'", checkTab+checkTab, s.Sync.ExistingFileMode))
			}

			log = append(log, fmt.Sprintf("%ssync_target_dir '%s'", checkTab+checkTab, s.Sync.TargetDir))
			if s.Sync.TargetDir != "" {
				if !isDir(fs, s.Sync.TargetDir) {
					log = append(log, checkTab+checkTab+checkWarn+"directory not found or no directory, reset sync_target_dir")
					s.Sync.TargetDir = ""
					fail()
				}
			} else {
				log = append(log, checkTab+checkTab+checkWarn+"sync_file_mode 'copy' without sync_target_dir")
				fail()
			}
		}

		log = append(log, fmt.Sprintf("%ssync_update_geometries '%t'", checkTab+checkTab, s.Sync.UpdateGeometries))

		if !helpers.Contains(ExistingFeatureModes, s.Sync.ExistingFeatureMode) {
			log = append(log, checkTab+checkTab+checkTab+checkWarn+"sync_existing_feature_mode missing")
		} else {
			log = append(log, fmt.Sprintf("%ssync_existing_feature_mode '%s'", checkTab+checkTab, s.Sync.ExistingFeatureMode))
		}

		log = append(log, checkTab+checkTab+"sync_fields:")
		if len(s.Sync.Fields) > 0 {
			for _, target := range sortedKeys(s.Sync.Fields) {
				log = append(log, fmt.Sprintf("%s%s -> %s", checkTab+checkTab+checkTab, s.Sync.Fields[target], target))
			}
		} else {
			log = append(log, checkTab+checkTab+checkTab+"no sync_fields defined")
		}
	}

	if helpers.Contains(useCases, UseCasePostScan) {
		log = append(log, checkTab+UseCasePostScan)

		log = append(log, fmt.Sprintf("%spost_scan_layer_id '%s'", checkTab+checkTab, s.PostScan.LayerID))
		if s.PostScan.LayerID == "" {
			fail()
		}
		log = append(log, fmt.Sprintf("%spost_scan_preserve_existing '%t'", checkTab+checkTab, s.PostScan.PreserveExisting))
		log = append(log, fmt.Sprintf("%spost_scan_update_geometry_from_exif '%t'", checkTab+checkTab, s.PostScan.UpdateGeometryFromExif))

		if s.PostScan.AbsPathField != "" {
			log = append(log, fmt.Sprintf("%spost_scan_abs_path_field '%s'", checkTab+checkTab, s.PostScan.AbsPathField))
		} else {
			log = append(log, checkTab+checkTab+checkTab+checkWarn+"post_scan_abs_path_field not defined")
			fail()
		}

		s.PostScan.HashAlg = checkedHashAlg(s.PostScan.HashAlg)

		log = append(log, checkTab+checkTab+"post_scan_fields:")
		for _, meta := range sortedKeys(s.PostScan.Fields) {
			log = append(log, fmt.Sprintf("%s%s -> %s", checkTab+checkTab+checkTab, meta, s.PostScan.Fields[meta]))
		}

		if _, wantsRelPath := s.PostScan.Fields[metadata.MetaRelPath]; wantsRelPath {
			log = append(log, fmt.Sprintf("%spost_scan_rel_root_dir '%s'", checkTab+checkTab, s.PostScan.RelRootDir))
			if s.PostScan.RelRootDir != "" {
				if !isDir(fs, s.PostScan.RelRootDir) {
					log = append(log, checkTab+checkTab+checkWarn+"post_scan_rel_root_dir not valid")
					fail()
				}
			} else {
				log = append(log, checkTab+checkTab+checkWarn+"post_scan_rel_root_dir missing")
				fail()
			}
		}
	}

	return ok, log
}

func isDir(fs afero.Fs, path string) bool {
	ok, err := afero.DirExists(fs, path)
	return err == nil && ok
}

func checkedHashAlg(alg string) string {
	if alg == "" || helpers.Contains(metadata.HashAlgorithms, alg) {
		return alg
	}
	return ""
}
