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
	"image"
	"io"
	"strings"
	"time"

	// register the decodable image formats for DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"github.com/spf13/afero"
)

// GPSData holds the decoded GPS block of an EXIF header. Pointers are nil
// for tags the camera did not write.
type GPSData struct {
	Latitude     *float64
	Longitude    *float64
	Altitude     *float64
	ImgDirection *float64
}

// ImageInfo is everything the extractor wants to know about an image file.
type ImageInfo struct {
	ExifTags         map[string]string
	GPSTags          map[string]string
	IPTC             map[string]string
	GPS              *GPSData
	DateTimeOriginal *time.Time
	Width            int
	Height           int
}

// ImageReader opens a file as an image. A non-nil error means the file is
// not a readable image at all; partial metadata (e.g. dimensions without an
// EXIF header) is not an error.
type ImageReader interface {
	ReadImage(fs afero.Fs, path string) (*ImageInfo, error)
}

// ExifReader is the default ImageReader, built on goexif plus the stdlib
// image decoders.
type ExifReader struct{}

func (ExifReader) ReadImage(fs afero.Fs, path string) (*ImageInfo, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer func(file afero.File) {
		_ = file.Close()
	}(file)

	info := &ImageInfo{
		ExifTags: make(map[string]string),
		GPSTags:  make(map[string]string),
	}

	cfg, _, cfgErr := image.DecodeConfig(file)
	if cfgErr == nil {
		info.Width = cfg.Width
		info.Height = cfg.Height
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind image file: %w", err)
	}
	x, exifErr := exif.Decode(file)

	if cfgErr != nil && exifErr != nil {
		return nil, fmt.Errorf("not a readable image: %w", cfgErr)
	}

	if exifErr == nil {
		_ = x.Walk(&tagCollector{info: info})
		if len(info.GPSTags) > 0 {
			info.GPS = decodeGPS(x)
		}
		info.DateTimeOriginal = decodeDateTimeOriginal(x)
	}

	if _, err := file.Seek(0, io.SeekStart); err == nil {
		if data, err := afero.ReadAll(file); err == nil {
			info.IPTC = parseIPTC(data)
		}
	}

	return info, nil
}

type tagCollector struct {
	info *ImageInfo
}

func (c *tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	n := string(name)
	if strings.HasPrefix(n, "GPS") {
		c.info.GPSTags[n] = tagDisplayValue(tag)
		return nil
	}
	switch tag.Type {
	case tiff.DTAscii, tiff.DTByte, tiff.DTShort, tiff.DTLong,
		tiff.DTSByte, tiff.DTSShort, tiff.DTSLong:
		c.info.ExifTags[n] = tagDisplayValue(tag)
	default:
		// rationals, floats and binary blobs stay out of the text dump
	}
	return nil
}

func tagDisplayValue(tag *tiff.Tag) string {
	if tag.Type == tiff.DTAscii {
		if s, err := tag.StringVal(); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return strings.Trim(tag.String(), `"`)
}

// dmsToDecimal converts a degrees/minutes/seconds triple to decimal degrees.
// Hemisphere reference tags are not applied here.
func dmsToDecimal(deg, minutes, seconds float64) float64 {
	return deg + minutes/60 + seconds/3600
}

func rationalAt(tag *tiff.Tag, i int) (float64, bool) {
	num, denom, err := tag.Rat2(i)
	if err != nil || denom == 0 {
		return 0, false
	}
	return float64(num) / float64(denom), true
}

func gpsAngle(x *exif.Exif, name exif.FieldName) *float64 {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	deg, ok1 := rationalAt(tag, 0)
	minutes, ok2 := rationalAt(tag, 1)
	seconds, ok3 := rationalAt(tag, 2)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	v := dmsToDecimal(deg, minutes, seconds)
	return &v
}

func gpsScalar(x *exif.Exif, name exif.FieldName) *float64 {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	v, ok := rationalAt(tag, 0)
	if !ok {
		return nil
	}
	return &v
}

func decodeGPS(x *exif.Exif) *GPSData {
	return &GPSData{
		Latitude:     gpsAngle(x, exif.GPSLatitude),
		Longitude:    gpsAngle(x, exif.GPSLongitude),
		Altitude:     gpsScalar(x, exif.GPSAltitude),
		ImgDirection: gpsScalar(x, exif.GPSImgDirection),
	}
}

const exifTimeLayout = "2006:01:02 15:04:05"

func decodeDateTimeOriginal(x *exif.Exif) *time.Time {
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	ts, err := time.ParseInLocation(exifTimeLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return nil
	}
	return &ts
}
