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

package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
	"github.com/FileSyncProject/filesync-core/pkg/geo"
)

const extractIndent = "            "

// Extractor reads metadata kinds from files into feature records.
type Extractor struct {
	fs      afero.Fs
	reader  ImageReader
	hashAlg string
}

// NewExtractor builds an extractor. A nil fs means the OS filesystem, a nil
// reader means the default EXIF reader, an empty hashAlg means sha1.
func NewExtractor(fs afero.Fs, reader ImageReader, hashAlg string) *Extractor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if reader == nil {
		reader = ExifReader{}
	}
	if hashAlg == "" {
		hashAlg = DefaultHashAlg
	}
	return &Extractor{fs: fs, reader: reader, hashAlg: hashAlg}
}

// Request describes one extraction: which file, which metadata kinds into
// which record fields, and how to treat values that are already set.
type Request struct {
	// Path is the absolute path of the file to extract from.
	Path string
	// Fields maps meta kind names to target field names.
	Fields map[string]string
	// RelRootDir is the root for the rel_path kind; empty disables it.
	RelRootDir string
	// GPSTransform converts WGS84 GPS coordinates into the record's CRS.
	GPSTransform geo.Transform
	// PreserveExisting skips fields (and geometry) that already hold a value.
	PreserveExisting bool
	// ExtractGPSGeometry derives the record geometry from EXIF GPS tags.
	ExtractGPSGeometry bool
}

// Extract fills rec from the file named in the request. ok is false only
// when the path does not point at an existing regular file; every other
// problem degrades to a log line. altered reports whether anything in the
// record changed.
func (e *Extractor) Extract(req Request, rec *featurestore.Record) (ok, altered bool, extractLog []string) {
	info, err := e.fs.Stat(req.Path)
	if err != nil || info.IsDir() {
		return false, false, []string{
			fmt.Sprintf("%s⭍ file not found '%s'", extractIndent, filepath.ToSlash(req.Path)),
		}
	}

	img, imgErr := e.reader.ReadImage(e.fs, req.Path)
	if imgErr != nil {
		extractLog = append(extractLog, extractIndent+"file is no image")
		img = nil
	} else {
		extractLog = append(extractLog, extractIndent+"file is image")
		switch {
		case len(img.ExifTags) > 0 || img.GPS != nil:
			extractLog = append(extractLog, extractIndent+"file has exif-header")
			if img.GPS != nil && img.GPS.Latitude != nil && img.GPS.Longitude != nil {
				extractLog = append(extractLog, extractIndent+"file is exif-gps-georeferenced")
			} else {
				extractLog = append(extractLog, extractIndent+"file not georeferenced")
			}
		default:
			extractLog = append(extractLog, extractIndent+"no exif-header")
		}
	}

	for _, metaName := range orderedMetaNames(req.Fields) {
		fieldName := req.Fields[metaName]

		if req.PreserveExisting && !featurestore.IsEmpty(rec.Attribute(fieldName)) {
			continue
		}

		fieldAltered, lines := e.extractOne(metaName, fieldName, req, info, img, rec)
		altered = altered || fieldAltered
		extractLog = append(extractLog, lines...)
	}

	if req.ExtractGPSGeometry && img != nil && img.GPS != nil &&
		img.GPS.Latitude != nil && img.GPS.Longitude != nil && req.GPSTransform != nil {
		if rec.Geometry() != nil && req.PreserveExisting {
			// keep the existing geometry untouched
		} else {
			pt := geo.Point{X: *img.GPS.Longitude, Y: *img.GPS.Latitude}
			if img.GPS.Altitude != nil {
				pt.Z = *img.GPS.Altitude
				pt.HasZ = true
			}
			transformed, err := req.GPSTransform.Forward(pt)
			if err != nil {
				extractLog = append(extractLog,
					fmt.Sprintf("%s⭍ gps-coordinates not transformable: %v", extractIndent, err))
			} else {
				rec.SetGeometry(&transformed)
				altered = true
				extractLog = append(extractLog, extractIndent+"geometry updated from exif-gps-metas")
			}
		}
	}

	return true, altered, extractLog
}

// orderedMetaNames returns the requested kinds in catalog order, unknown
// names last in alphabetical order, so logs stay reproducible.
func orderedMetaNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for _, d := range catalog {
		if _, ok := fields[d.Name]; ok {
			names = append(names, d.Name)
		}
	}
	var unknown []string
	for name := range fields {
		if _, ok := Lookup(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return append(names, unknown...)
}

//nolint:gocyclo // one branch per metadata kind, same shape as the catalog
func (e *Extractor) extractOne(
	metaName, fieldName string,
	req Request,
	info os.FileInfo,
	img *ImageInfo,
	rec *featurestore.Record,
) (altered bool, lines []string) {
	switch metaName {
	case MetaAbsPath:
		rec.SetAttribute(fieldName, filepath.ToSlash(req.Path))
		altered = true
	case MetaRelPath:
		if req.RelRootDir == "" {
			break
		}
		rel, err := filepath.Rel(req.RelRootDir, req.Path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			// file is outside the root dir, leave the field alone
			break
		}
		rec.SetAttribute(fieldName, filepath.ToSlash(filepath.Dir(rel)))
		altered = true
	case MetaFileName:
		rec.SetAttribute(fieldName, filepath.Base(req.Path))
		altered = true
	case MetaExtension:
		rec.SetAttribute(fieldName, strings.TrimPrefix(strings.ToLower(filepath.Ext(req.Path)), "."))
		altered = true
	case MetaFileSize:
		rec.SetAttribute(fieldName, info.Size())
		altered = true
	case MetaFileHash:
		hash, err := FileHash(e.fs, req.Path, e.hashAlg)
		if err != nil {
			log.Warn().Err(err).Str("path", req.Path).Msg("file hash failed")
			lines = append(lines, fmt.Sprintf("%s⭍ hash failed: %v", extractIndent, err))
			break
		}
		rec.SetAttribute(fieldName, hash)
		altered = true
	case MetaMTime:
		rec.SetAttribute(fieldName, info.ModTime().Truncate(time.Second))
		altered = true
	case MetaCTime:
		ctime, _ := statTimes(info)
		rec.SetAttribute(fieldName, ctime)
		altered = true
	case MetaATime:
		_, atime := statTimes(info)
		rec.SetAttribute(fieldName, atime)
		altered = true
	case MetaXmpMetas:
		data, err := afero.ReadFile(e.fs, req.Path)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s⭍ read failed: %v", extractIndent, err))
			break
		}
		rec.SetAttribute(fieldName, ExtractXMP(data))
		altered = true
	case MetaImageWidth:
		if img != nil {
			rec.SetAttribute(fieldName, img.Width)
			altered = true
		}
	case MetaImageHeight:
		if img != nil {
			rec.SetAttribute(fieldName, img.Height)
			altered = true
		}
	case MetaIptcMetas:
		if img != nil && len(img.IPTC) > 0 {
			var sb strings.Builder
			for _, key := range sortedKeys(img.IPTC) {
				fmt.Fprintf(&sb, "%s %s\n", key, img.IPTC[key])
			}
			rec.SetAttribute(fieldName, sb.String())
			altered = true
		}
	case MetaExifMetas:
		if img != nil && len(img.ExifTags) > 0 {
			var sb strings.Builder
			sb.WriteString("Exif-Tags:\n")
			for _, key := range sortedKeys(img.ExifTags) {
				fmt.Fprintf(&sb, "   %s: %s\n", key, img.ExifTags[key])
			}
			if len(img.GPSTags) > 0 {
				sb.WriteString("Geo-Tags:\n")
				for _, key := range sortedKeys(img.GPSTags) {
					fmt.Fprintf(&sb, "   %s: %s\n", key, img.GPSTags[key])
				}
			}
			rec.SetAttribute(fieldName, sb.String())
			altered = true
		}
	case MetaDateTimeOriginal:
		if img != nil && len(img.ExifTags) > 0 {
			if img.DateTimeOriginal != nil {
				rec.SetAttribute(fieldName, *img.DateTimeOriginal)
			} else {
				rec.SetAttribute(fieldName, nil)
			}
			altered = true
		}
	case MetaGpsLatitude:
		altered = setGPSValue(rec, fieldName, img, func(g *GPSData) *float64 { return g.Latitude })
	case MetaGpsLongitude:
		altered = setGPSValue(rec, fieldName, img, func(g *GPSData) *float64 { return g.Longitude })
	case MetaGpsAltitude:
		altered = setGPSValue(rec, fieldName, img, func(g *GPSData) *float64 { return g.Altitude })
	case MetaGpsImgDirection:
		altered = setGPSValue(rec, fieldName, img, func(g *GPSData) *float64 { return g.ImgDirection })
	default:
		lines = append(lines,
			fmt.Sprintf("%s⭍ meta '%s' not implemented and ignored", extractIndent, metaName))
	}
	return altered, lines
}

// setGPSValue writes the value whenever a GPS block exists at all; a missing
// individual tag clears the field instead of leaving stale data.
func setGPSValue(rec *featurestore.Record, fieldName string, img *ImageInfo, pick func(*GPSData) *float64) bool {
	if img == nil || img.GPS == nil {
		return false
	}
	if v := pick(img.GPS); v != nil {
		rec.SetAttribute(fieldName, *v)
	} else {
		rec.SetAttribute(fieldName, nil)
	}
	return true
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
