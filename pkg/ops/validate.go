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
	"fmt"

	"github.com/FileSyncProject/filesync-core/pkg/config"
	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
	"github.com/FileSyncProject/filesync-core/pkg/metadata"
)

// checkSyncCollections verifies the configured field names against the two
// bound collections. config.Settings.Check cannot do this because only the
// operations resolve collections. Returns one finding per problem, empty
// when the run can proceed.
func checkSyncCollections(s *config.SyncSettings, source, target featurestore.Collection) []string {
	var findings []string
	warn := func(format string, args ...any) {
		findings = append(findings, "⭍ "+fmt.Sprintf(format, args...))
	}

	srcField, ok := source.Field(s.SourceAbsPathField)
	if !ok {
		warn("field '%s' missing in Source-Layer", s.SourceAbsPathField)
	} else if srcField.Type != featurestore.TypeString {
		warn("field '%s' in Source-Layer must be a string field", s.SourceAbsPathField)
	}

	tgtField, ok := target.Field(s.TargetAbsPathField)
	if !ok {
		warn("field '%s' missing in Target-Layer", s.TargetAbsPathField)
	} else if tgtField.Type != featurestore.TypeString {
		warn("field '%s' in Target-Layer must be a string field", s.TargetAbsPathField)
	}

	if s.FileMode == config.FileModeCopy && s.SourceRelPathField != "" {
		if _, ok := source.Field(s.SourceRelPathField); !ok {
			warn("field '%s' missing in Source-Layer", s.SourceRelPathField)
		}
	}

	for targetName, sourceName := range s.Fields {
		sf, sok := source.Field(sourceName)
		if !sok {
			warn("sync_fields: field '%s' missing in Source-Layer", sourceName)
		}
		tf, tok := target.Field(targetName)
		if !tok {
			warn("sync_fields: field '%s' missing in Target-Layer", targetName)
		}
		if sok && tok && !featurestore.Compatible(sf.Type, tf.Type) {
			warn("sync_fields: types of '%s' (%s) and '%s' (%s) not compatible",
				sourceName, sf.Type, targetName, tf.Type)
		}
	}

	if s.UpdateGeometries {
		if source.GeometryType() != featurestore.GeometryPoint {
			warn("sync_update_geometries requires a point-geometry Source-Layer")
		}
		if target.GeometryType() != featurestore.GeometryPoint {
			warn("sync_update_geometries requires a point-geometry Target-Layer")
		}
	}

	return findings
}

// checkPostScanCollection verifies the configured field names against the
// bound collection.
func checkPostScanCollection(s *config.PostScanSettings, coll featurestore.Collection) []string {
	var findings []string
	warn := func(format string, args ...any) {
		findings = append(findings, "⭍ "+fmt.Sprintf(format, args...))
	}

	absField, ok := coll.Field(s.AbsPathField)
	if !ok {
		warn("field '%s' missing in PostScan-Layer", s.AbsPathField)
	} else if absField.Type != featurestore.TypeString {
		warn("field '%s' in PostScan-Layer must be a string field", s.AbsPathField)
	}

	for metaName, fieldName := range s.Fields {
		desc, known := metadata.Lookup(metaName)
		if fieldName == "" {
			fieldName = desc.DefaultFieldName
		}
		f, ok := coll.Field(fieldName)
		if !ok {
			warn("field '%s' for meta '%s' missing in PostScan-Layer", fieldName, metaName)
			continue
		}
		if known && !featurestore.Compatible(desc.Type, f.Type) {
			warn("field '%s' for meta '%s' must be of type %s", fieldName, metaName, desc.Type)
		}
	}

	if s.UpdateGeometryFromExif && coll.GeometryType() != featurestore.GeometryPoint {
		warn("post_scan_update_geometry_from_exif requires a point-geometry PostScan-Layer")
	}

	return findings
}

// resolveMetaFields fills empty field names with the catalog defaults and
// derives the field schema for the known metadata kinds, in catalog order.
// Unknown kinds stay in the map so extraction can report them.
func resolveMetaFields(metaFields map[string]string) (map[string]string, []featurestore.Field) {
	resolved := make(map[string]string, len(metaFields))
	var fields []featurestore.Field
	for _, desc := range metadata.Catalog() {
		fieldName, ok := metaFields[desc.Name]
		if !ok {
			continue
		}
		if fieldName == "" {
			fieldName = desc.DefaultFieldName
		}
		resolved[desc.Name] = fieldName
		fields = append(fields, featurestore.Field{Name: fieldName, Type: desc.Type})
	}
	for metaName, fieldName := range metaFields {
		if _, known := metadata.Lookup(metaName); !known {
			resolved[metaName] = fieldName
		}
	}
	return resolved, fields
}
