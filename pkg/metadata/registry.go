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

// Package metadata extracts file and image metadata into feature records.
// The catalog below is the single source of truth for which metadata kinds
// exist and which field types they require.
package metadata

import "github.com/FileSyncProject/filesync-core/pkg/featurestore"

// Meta kind names. These are stable identifiers used in stored settings.
const (
	MetaAbsPath          = "abs_path"
	MetaFileHash         = "file_hash"
	MetaRelPath          = "rel_path"
	MetaFileName         = "file_name"
	MetaExtension        = "extension"
	MetaExifMetas        = "exif_metas"
	MetaIptcMetas        = "iptc_metas"
	MetaXmpMetas         = "xmp_metas"
	MetaFileSize         = "file_size"
	MetaImageWidth       = "image_width"
	MetaImageHeight      = "image_height"
	MetaGpsLatitude      = "gps_latitude"
	MetaGpsLongitude     = "gps_longitude"
	MetaGpsAltitude      = "gps_altitude"
	MetaGpsImgDirection  = "gps_img_direction"
	MetaMTime            = "m_time"
	MetaCTime            = "c_time"
	MetaATime            = "a_time"
	MetaDateTimeOriginal = "date_time_original"
)

// Descriptor describes one extractable metadata kind.
type Descriptor struct {
	Name             string
	DefaultFieldName string
	Description      string
	DocURL           string
	Type             featurestore.FieldType
	Mandatory        bool
}

var catalog = []Descriptor{
	{
		Name:             MetaAbsPath,
		Type:             featurestore.TypeString,
		Mandatory:        true,
		DefaultFieldName: "abs_path",
		Description:      "absolute path to file",
	},
	{
		Name:             MetaFileHash,
		Type:             featurestore.TypeString,
		DefaultFieldName: "file_hash",
		Description:      "unique hash (fingerprint, usable to identify duplicates independent from filename or file-meta-data)",
		DocURL:           "https://en.wikipedia.org/wiki/Secure_Hash_Algorithms",
	},
	{
		Name:             MetaRelPath,
		Type:             featurestore.TypeString,
		DefaultFieldName: "rel_path",
		Description:      "path relative to a root directory to be specified (without file-name)",
	},
	{
		Name:             MetaFileName,
		Type:             featurestore.TypeString,
		DefaultFieldName: "file_name",
		Description:      "file-name",
	},
	{
		Name:             MetaExtension,
		Type:             featurestore.TypeString,
		DefaultFieldName: "extension",
		Description:      "file-extension (lowercase without dot)",
	},
	{
		Name:             MetaExifMetas,
		Type:             featurestore.TypeString,
		DefaultFieldName: "exif_metas",
		Description:      "EXIF-metadata (only for images, e.g. camera, time, GPS)",
		DocURL:           "https://en.wikipedia.org/wiki/Exif",
	},
	{
		Name:             MetaIptcMetas,
		Type:             featurestore.TypeString,
		DefaultFieldName: "iptc_metas",
		Description:      "IPTC-metadata (if available)",
		DocURL:           "https://en.wikipedia.org/wiki/IPTC_Information_Interchange_Model",
	},
	{
		Name:             MetaXmpMetas,
		Type:             featurestore.TypeString,
		DefaultFieldName: "xmp_metas",
		Description:      "XMP-metadata (Extensible Metadata, if available)",
		DocURL:           "https://en.wikipedia.org/wiki/Extensible_Metadata_Platform",
	},
	{
		Name:             MetaFileSize,
		Type:             featurestore.TypeInt,
		DefaultFieldName: "file_size",
		Description:      "total size in bytes",
	},
	{
		Name:             MetaImageWidth,
		Type:             featurestore.TypeInt,
		DefaultFieldName: "image_width",
		Description:      "for images: width in pixel",
	},
	{
		Name:             MetaImageHeight,
		Type:             featurestore.TypeInt,
		DefaultFieldName: "image_height",
		Description:      "for images: height in pixel",
	},
	{
		Name:             MetaGpsLatitude,
		Type:             featurestore.TypeDouble,
		DefaultFieldName: "gps_latitude",
		Description:      "for images with exif-header containing GPS-metas: latitude of recording point",
	},
	{
		Name:             MetaGpsLongitude,
		Type:             featurestore.TypeDouble,
		DefaultFieldName: "gps_longitude",
		Description:      "for images with exif-header containing GPS-metas: longitude of recording point",
	},
	{
		Name:             MetaGpsAltitude,
		Type:             featurestore.TypeDouble,
		DefaultFieldName: "gps_altitude",
		Description:      "for images with exif-header containing GPS-metas: altitude of recording point",
	},
	{
		Name:             MetaGpsImgDirection,
		Type:             featurestore.TypeDouble,
		DefaultFieldName: "gps_img_direction",
		Description:      "for images with exif-header containing GPS-metas: recording-direction counter-clockwise against north",
	},
	{
		Name:             MetaMTime,
		Type:             featurestore.TypeDateTime,
		DefaultFieldName: "m_time",
		Description:      "modification time: time when the content of the file most recently changed",
		DocURL:           "https://en.wikipedia.org/wiki/MAC_times",
	},
	{
		Name:             MetaCTime,
		Type:             featurestore.TypeDateTime,
		DefaultFieldName: "c_time",
		Description:      "Windows: creation time, Unix: last change of metadata (owner, permission)",
		DocURL:           "https://en.wikipedia.org/wiki/MAC_times",
	},
	{
		Name:             MetaATime,
		Type:             featurestore.TypeDateTime,
		DefaultFieldName: "a_time",
		Description:      "access time: time when the file was most recently opened for reading",
		DocURL:           "https://en.wikipedia.org/wiki/MAC_times",
	},
	{
		Name:             MetaDateTimeOriginal,
		Type:             featurestore.TypeDateTime,
		DefaultFieldName: "date_time_original",
		Description:      "for images with exif-header: recording-time",
	},
}

// Catalog returns all extractable metadata kinds in their canonical order.
// The returned slice is a copy.
func Catalog() []Descriptor {
	return append([]Descriptor(nil), catalog...)
}

// Lookup resolves a metadata kind by name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
