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

// Package config holds the persisted user settings for the three operations
// and their INI serialization. The INI schema is stable: sections
// PRE_SCAN_SETTINGS, PRE_SCAN_FIELDS, SYNC_SETTINGS, SYNC_FIELDS,
// POST_SCAN_SETTINGS and POST_SCAN_FIELDS, booleans spelled "True"/"False".
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/ini.v1"

	"github.com/FileSyncProject/filesync-core/pkg/helpers/syncutil"
)

const (
	// AppVersion is the released version of FileSync Core.
	AppVersion = "1.2.0"

	// SettingsFile is the dotfile in the user's home directory.
	SettingsFile = ".filesync.ini"
	// CfgEnv overrides the settings file location.
	CfgEnv = "FILESYNC_CFG"

	// SyncFieldDelimiter separates target and source field names inside one
	// SYNC_FIELDS value. It must never contain the INI key/value separator.
	SyncFieldDelimiter = "|<>|"

	// DefaultPatterns is the catch-all scan pattern.
	DefaultPatterns = "*.*"

	// PreScanConfirmThreshold is the file count above which a scan asks for
	// confirmation before extracting.
	PreScanConfirmThreshold = 1000
)

// File handling modes during sync.
const (
	FileModeKeep = "keep"
	FileModeCopy = "copy"
)

// Conflict modes when a copied file already exists in the target dir.
const (
	ExistingFileReplace = "replace"
	ExistingFileRename  = "rename"
	ExistingFileSkip    = "skip"
)

// Conflict modes when the target collection already has a record for the
// file's path.
const (
	FeatureModeUpdateOverwrite = "update_overwrite"
	FeatureModeUpdatePreserve  = "update_preserve"
	FeatureModeInsert          = "insert"
	FeatureModeReplace         = "replace"
	FeatureModeSkip            = "skip"
)

// FileModes and the two conflict mode lists, for validation.
var (
	FileModes            = []string{FileModeKeep, FileModeCopy}
	ExistingFileModes    = []string{ExistingFileReplace, ExistingFileRename, ExistingFileSkip}
	ExistingFeatureModes = []string{
		FeatureModeUpdateOverwrite, FeatureModeUpdatePreserve,
		FeatureModeInsert, FeatureModeReplace, FeatureModeSkip,
	}
)

// PreScanSettings configure the scan-into-new-collection operation.
type PreScanSettings struct {
	Fields     map[string]string
	Dir        string
	EPSG       string
	Patterns   string
	RelRootDir string
	HashAlg    string
	SubDirs    bool
}

// SyncSettings configure the source/target reconciliation run.
type SyncSettings struct {
	Fields              map[string]string
	SourceLayerID       string
	TargetLayerID       string
	SourceAbsPathField  string
	SourceRelPathField  string
	TargetAbsPathField  string
	TargetDir           string
	FileMode            string
	ExistingFileMode    string
	ExistingFeatureMode string
	UpdateGeometries    bool
}

// PostScanSettings configure the in-place refresh of an existing collection.
type PostScanSettings struct {
	Fields                 map[string]string
	LayerID                string
	AbsPathField           string
	RelRootDir             string
	HashAlg                string
	PreserveExisting       bool
	UpdateGeometryFromExif bool
}

// Settings is everything the user configured, across all three operations.
type Settings struct {
	PreScan  PreScanSettings
	Sync     SyncSettings
	PostScan PostScanSettings
}

func defaultSettings() Settings {
	return Settings{
		PreScan: PreScanSettings{
			Patterns: DefaultPatterns,
			SubDirs:  true,
			Fields:   map[string]string{},
		},
		Sync: SyncSettings{
			FileMode: FileModeKeep,
			Fields:   map[string]string{},
		},
		PostScan: PostScanSettings{
			Fields: map[string]string{},
		},
	}
}

// Clone deep-copies the settings, field maps included.
func (s Settings) Clone() Settings {
	out := s
	out.PreScan.Fields = cloneMap(s.PreScan.Fields)
	out.Sync.Fields = cloneMap(s.Sync.Fields)
	out.PostScan.Fields = cloneMap(s.PostScan.Fields)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DefaultPath resolves the settings file location: the CfgEnv environment
// variable when set, otherwise the dotfile in the user's home directory.
func DefaultPath() string {
	if p := os.Getenv(CfgEnv); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return SettingsFile
	}
	return filepath.Join(home, SettingsFile)
}

// Instance wraps the settings with a lock and their storage location.
type Instance struct {
	fs   afero.Fs
	path string
	vals Settings
	mu   syncutil.RWMutex
}

// NewInstance loads settings from path if the file exists, otherwise starts
// from defaults without touching the disk.
func NewInstance(fs afero.Fs, path string) (*Instance, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	inst := &Instance{fs: fs, path: path, vals: defaultSettings()}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check settings file: %w", err)
	}
	if exists {
		if err := inst.Load(); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// Path returns the settings file location.
func (c *Instance) Path() string {
	return c.path
}

// Settings returns a deep copy of the current values.
func (c *Instance) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Clone()
}

// SetSettings replaces the current values.
func (c *Instance) SetSettings(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals = s.Clone()
}

// Load re-reads the settings file. Values are taken as-is; validation and
// self-healing happen in Check* before each operation.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		return fmt.Errorf("failed to read settings file %s: %w", c.path, err)
	}
	file, err := ini.Load(data)
	if err != nil {
		return fmt.Errorf("failed to parse settings file %s: %w", c.path, err)
	}

	vals := defaultSettings()

	sec := file.Section("PRE_SCAN_SETTINGS")
	vals.PreScan.Dir = sec.Key("pre_scan_dir").String()
	vals.PreScan.EPSG = sec.Key("pre_scan_epsg").String()
	vals.PreScan.Patterns = sec.Key("pre_scan_patterns").String()
	vals.PreScan.SubDirs = parseBool(sec.Key("pre_scan_sub_dirs").String())
	vals.PreScan.RelRootDir = sec.Key("pre_scan_rel_root_dir").String()
	vals.PreScan.HashAlg = sec.Key("pre_scan_hash_alg").String()
	vals.PreScan.Fields = file.Section("PRE_SCAN_FIELDS").KeysHash()

	sec = file.Section("SYNC_SETTINGS")
	vals.Sync.SourceLayerID = sec.Key("sync_source_layer_id").String()
	vals.Sync.TargetLayerID = sec.Key("sync_target_layer_id").String()
	vals.Sync.SourceAbsPathField = sec.Key("sync_source_abs_path_field").String()
	vals.Sync.SourceRelPathField = sec.Key("sync_source_rel_path_field").String()
	vals.Sync.TargetAbsPathField = sec.Key("sync_target_abs_path_field").String()
	vals.Sync.TargetDir = sec.Key("sync_target_dir").String()
	vals.Sync.FileMode = sec.Key("sync_file_mode").String()
	vals.Sync.ExistingFileMode = sec.Key("sync_existing_file_mode").String()
	vals.Sync.ExistingFeatureMode = sec.Key("sync_existing_feature_mode").String()
	vals.Sync.UpdateGeometries = parseBool(sec.Key("sync_update_geometries").String())

	// field_N keys only keep the entries unique, the pair lives in the value
	vals.Sync.Fields = map[string]string{}
	for _, key := range file.Section("SYNC_FIELDS").Keys() {
		target, source, ok := strings.Cut(key.String(), SyncFieldDelimiter)
		if !ok || target == "" || source == "" {
			continue
		}
		vals.Sync.Fields[target] = source
	}

	sec = file.Section("POST_SCAN_SETTINGS")
	vals.PostScan.LayerID = sec.Key("post_scan_layer_id").String()
	vals.PostScan.AbsPathField = sec.Key("post_scan_abs_path_field").String()
	vals.PostScan.RelRootDir = sec.Key("post_scan_rel_root_dir").String()
	vals.PostScan.HashAlg = sec.Key("post_scan_hash_alg").String()
	vals.PostScan.PreserveExisting = parseBool(sec.Key("post_scan_preserve_existing").String())
	vals.PostScan.UpdateGeometryFromExif = parseBool(sec.Key("post_scan_update_geometry_from_exif").String())
	vals.PostScan.Fields = file.Section("POST_SCAN_FIELDS").KeysHash()

	c.vals = vals
	return nil
}

// Save writes the settings file, creating parent directories as needed.
func (c *Instance) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	file := ini.Empty()

	sec, err := file.NewSection("PRE_SCAN_SETTINGS")
	if err != nil {
		return fmt.Errorf("failed to build settings sections: %w", err)
	}
	sec.Key("pre_scan_dir").SetValue(c.vals.PreScan.Dir)
	sec.Key("pre_scan_epsg").SetValue(c.vals.PreScan.EPSG)
	sec.Key("pre_scan_patterns").SetValue(c.vals.PreScan.Patterns)
	sec.Key("pre_scan_sub_dirs").SetValue(formatBool(c.vals.PreScan.SubDirs))
	sec.Key("pre_scan_rel_root_dir").SetValue(c.vals.PreScan.RelRootDir)
	sec.Key("pre_scan_hash_alg").SetValue(c.vals.PreScan.HashAlg)

	if sec, err = file.NewSection("PRE_SCAN_FIELDS"); err != nil {
		return fmt.Errorf("failed to build settings sections: %w", err)
	}
	for _, meta := range sortedKeys(c.vals.PreScan.Fields) {
		sec.Key(meta).SetValue(c.vals.PreScan.Fields[meta])
	}

	if sec, err = file.NewSection("SYNC_SETTINGS"); err != nil {
		return fmt.Errorf("failed to build settings sections: %w", err)
	}
	sec.Key("sync_source_layer_id").SetValue(c.vals.Sync.SourceLayerID)
	sec.Key("sync_target_layer_id").SetValue(c.vals.Sync.TargetLayerID)
	sec.Key("sync_source_abs_path_field").SetValue(c.vals.Sync.SourceAbsPathField)
	sec.Key("sync_source_rel_path_field").SetValue(c.vals.Sync.SourceRelPathField)
	sec.Key("sync_target_abs_path_field").SetValue(c.vals.Sync.TargetAbsPathField)
	sec.Key("sync_target_dir").SetValue(c.vals.Sync.TargetDir)
	sec.Key("sync_file_mode").SetValue(c.vals.Sync.FileMode)
	sec.Key("sync_existing_file_mode").SetValue(c.vals.Sync.ExistingFileMode)
	sec.Key("sync_existing_feature_mode").SetValue(c.vals.Sync.ExistingFeatureMode)
	sec.Key("sync_update_geometries").SetValue(formatBool(c.vals.Sync.UpdateGeometries))

	if sec, err = file.NewSection("SYNC_FIELDS"); err != nil {
		return fmt.Errorf("failed to build settings sections: %w", err)
	}
	for i, target := range sortedKeys(c.vals.Sync.Fields) {
		sec.Key(fmt.Sprintf("field_%d", i)).
			SetValue(target + SyncFieldDelimiter + c.vals.Sync.Fields[target])
	}

	if sec, err = file.NewSection("POST_SCAN_SETTINGS"); err != nil {
		return fmt.Errorf("failed to build settings sections: %w", err)
	}
	sec.Key("post_scan_layer_id").SetValue(c.vals.PostScan.LayerID)
	sec.Key("post_scan_abs_path_field").SetValue(c.vals.PostScan.AbsPathField)
	sec.Key("post_scan_rel_root_dir").SetValue(c.vals.PostScan.RelRootDir)
	sec.Key("post_scan_hash_alg").SetValue(c.vals.PostScan.HashAlg)
	sec.Key("post_scan_preserve_existing").SetValue(formatBool(c.vals.PostScan.PreserveExisting))
	sec.Key("post_scan_update_geometry_from_exif").SetValue(formatBool(c.vals.PostScan.UpdateGeometryFromExif))

	if sec, err = file.NewSection("POST_SCAN_FIELDS"); err != nil {
		return fmt.Errorf("failed to build settings sections: %w", err)
	}
	for _, meta := range sortedKeys(c.vals.PostScan.Fields) {
		sec.Key(meta).SetValue(c.vals.PostScan.Fields[meta])
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize settings: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := c.fs.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create settings dir: %w", err)
		}
	}
	if err := afero.WriteFile(c.fs, c.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", c.path, err)
	}
	return nil
}

func parseBool(s string) bool {
	return s == "True"
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
