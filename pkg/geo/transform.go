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

package geo

import (
	"fmt"
	"math"

	"github.com/wroge/wgs84"
)

// Transform converts points between two coordinate reference systems.
type Transform interface {
	Forward(p Point) (Point, error)
}

// ValidEPSG reports whether the transform backend knows the given code.
func ValidEPSG(code int) bool {
	return wgs84.EPSG().Code(code) != nil
}

type epsgTransform struct {
	fn       wgs84.Func
	from, to int
}

// NewTransform builds a transform between two EPSG codes. Both codes must be
// known to the backend registry.
func NewTransform(fromEPSG, toEPSG int) (Transform, error) {
	registry := wgs84.EPSG()
	from := registry.Code(fromEPSG)
	if from == nil {
		return nil, fmt.Errorf("unknown EPSG code %d", fromEPSG)
	}
	to := registry.Code(toEPSG)
	if to == nil {
		return nil, fmt.Errorf("unknown EPSG code %d", toEPSG)
	}
	return &epsgTransform{
		fn:   wgs84.Transform(from, to),
		from: fromEPSG,
		to:   toEPSG,
	}, nil
}

func (t *epsgTransform) Forward(p Point) (Point, error) {
	x, y, z := t.fn(p.X, p.Y, p.Z)
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return Point{}, fmt.Errorf("point %s not transformable from EPSG:%d to EPSG:%d",
			p, t.from, t.to)
	}
	return Point{X: x, Y: y, Z: z, HasZ: p.HasZ}, nil
}
