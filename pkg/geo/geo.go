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

// Package geo holds the point geometry and coordinate transform types shared
// by the feature stores and the metadata extractor.
package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// EPSGWGS84 is the geographic CRS all GPS metadata arrives in.
const EPSGWGS84 = 4326

// Point is a single 2D or 3D coordinate in some CRS. Points are the only
// geometry kind handled here; file locations never need more.
type Point struct {
	X    float64
	Y    float64
	Z    float64
	HasZ bool
}

func (p Point) String() string {
	if p.HasZ {
		return fmt.Sprintf("POINT Z (%g %g %g)", p.X, p.Y, p.Z)
	}
	return fmt.Sprintf("POINT (%g %g)", p.X, p.Y)
}

// ParseEPSG accepts either a bare numeric code or the "EPSG:4326" authority
// form used by stored settings.
func ParseEPSG(s string) (int, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(strings.ToUpper(s), "EPSG:"); ok {
		s = rest
	}
	code, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid EPSG reference %q: %w", s, err)
	}
	return code, nil
}
