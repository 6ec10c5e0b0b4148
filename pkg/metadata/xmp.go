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

import "strings"

const (
	xmpOpenMarker  = "<x:xmpmeta"
	xmpCloseMarker = "</x:xmpmeta"
)

var xmpUnescaper = strings.NewReplacer(`\n`, "\n", `\t`, "\t")

// ExtractXMP scans raw file content for an embedded XMP packet. The packet is
// located by its literal markers, no XML parsing or validation happens.
// Returns the empty string when no packet is found.
func ExtractXMP(data []byte) string {
	s := string(data)
	start := strings.Index(s, xmpOpenMarker)
	if start < 0 {
		return ""
	}
	end := strings.Index(s[start:], xmpCloseMarker)
	if end < 0 {
		return ""
	}
	// include the closing marker and its trailing '>'
	stop := start + end + len(xmpCloseMarker) + 1
	if stop > len(s) {
		stop = len(s)
	}
	return xmpUnescaper.Replace(s[start:stop])
}
