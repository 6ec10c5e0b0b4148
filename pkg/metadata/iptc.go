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
	"bytes"
	"encoding/binary"
	"fmt"
)

var (
	jpegSOI         = []byte{0xFF, 0xD8}
	photoshopHeader = []byte("Photoshop 3.0\x00")
	resource8BIM    = []byte("8BIM")
)

const iptcResourceID = 0x0404

// parseIPTC pulls IIM datasets out of a JPEG's APP13 Photoshop segment.
// Keys are "record:dataset" pairs; repeated datasets (keywords) are joined.
// Returns nil when the file is not a JPEG or carries no IPTC block.
func parseIPTC(data []byte) map[string]string {
	if !bytes.HasPrefix(data, jpegSOI) {
		return nil
	}

	var out map[string]string
	pos := len(jpegSOI)
	for pos+4 <= len(data) {
		if data[pos] != 0xFF {
			break
		}
		marker := data[pos+1]
		if marker == 0xD9 || marker == 0xDA {
			// end of image / start of scan, no more metadata segments
			break
		}
		segLen := int(binary.BigEndian.Uint16(data[pos+2 : pos+4]))
		if segLen < 2 || pos+2+segLen > len(data) {
			break
		}
		segment := data[pos+4 : pos+2+segLen]
		if marker == 0xED && bytes.HasPrefix(segment, photoshopHeader) {
			out = parsePhotoshopResources(segment[len(photoshopHeader):])
			break
		}
		pos += 2 + segLen
	}
	return out
}

func parsePhotoshopResources(b []byte) map[string]string {
	pos := 0
	for pos+12 <= len(b) {
		if !bytes.Equal(b[pos:pos+4], resource8BIM) {
			break
		}
		id := binary.BigEndian.Uint16(b[pos+4 : pos+6])
		nameLen := int(b[pos+6])
		// pascal string padded to even length, length byte included
		pos += 6 + ((nameLen + 2) &^ 1)
		if pos+4 > len(b) {
			break
		}
		size := int(binary.BigEndian.Uint32(b[pos : pos+4]))
		pos += 4
		if pos+size > len(b) {
			break
		}
		if id == iptcResourceID {
			return parseIIMDatasets(b[pos : pos+size])
		}
		pos += size + (size & 1)
	}
	return nil
}

func parseIIMDatasets(b []byte) map[string]string {
	out := make(map[string]string)
	pos := 0
	for pos+5 <= len(b) {
		if b[pos] != 0x1C {
			break
		}
		record := b[pos+1]
		dataset := b[pos+2]
		length := int(binary.BigEndian.Uint16(b[pos+3 : pos+5]))
		if length&0x8000 != 0 {
			// extended datasets are not used by the writers we care about
			break
		}
		pos += 5
		if pos+length > len(b) {
			break
		}
		key := fmt.Sprintf("%d:%d", record, dataset)
		value := string(b[pos : pos+length])
		if existing, ok := out[key]; ok {
			out[key] = existing + "; " + value
		} else {
			out[key] = value
		}
		pos += length
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
