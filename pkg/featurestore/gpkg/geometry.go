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

package gpkg

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/FileSyncProject/filesync-core/pkg/geo"
)

// GeoPackage binary header: magic "GP", version, flags, srid, then plain
// WKB. We always write little-endian with no envelope.
const gpbHeaderSize = 8

var errNotGPB = errors.New("blob is not GeoPackage geometry")

func encodeGeometry(p *geo.Point, srid int) ([]byte, error) {
	if p == nil {
		return nil, nil
	}

	var pt *geom.Point
	if p.HasZ {
		pt = geom.NewPointFlat(geom.XYZ, []float64{p.X, p.Y, p.Z})
	} else {
		pt = geom.NewPointFlat(geom.XY, []float64{p.X, p.Y})
	}
	pt.SetSRID(srid)

	wkbData, err := wkb.Marshal(pt, wkb.NDR)
	if err != nil {
		return nil, fmt.Errorf("failed to encode point: %w", err)
	}

	out := make([]byte, gpbHeaderSize, gpbHeaderSize+len(wkbData))
	out[0] = 'G'
	out[1] = 'P'
	out[2] = 0          // version 1 of the spec is encoded as 0
	out[3] = 0b00000001 // little-endian header, no envelope
	binary.LittleEndian.PutUint32(out[4:8], uint32(srid)) //nolint:gosec // srid fits
	return append(out, wkbData...), nil
}

func decodeGeometry(blob []byte) (*geo.Point, error) {
	if len(blob) < gpbHeaderSize || blob[0] != 'G' || blob[1] != 'P' {
		return nil, errNotGPB
	}
	flags := blob[3]
	envelopeIndicator := (flags >> 1) & 0x07
	var envelopeSize int
	switch envelopeIndicator {
	case 0:
		envelopeSize = 0
	case 1:
		envelopeSize = 32
	case 2, 3:
		envelopeSize = 48
	case 4:
		envelopeSize = 64
	default:
		return nil, fmt.Errorf("invalid envelope indicator %d", envelopeIndicator)
	}
	offset := gpbHeaderSize + envelopeSize
	if len(blob) <= offset {
		return nil, errNotGPB
	}

	g, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode geometry wkb: %w", err)
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}

	coords := pt.FlatCoords()
	if len(coords) < 2 {
		return nil, errNotGPB
	}
	out := &geo.Point{X: coords[0], Y: coords[1]}
	if pt.Layout().ZIndex() >= 0 && len(coords) > pt.Layout().ZIndex() {
		out.Z = coords[pt.Layout().ZIndex()]
		out.HasZ = true
	}
	return out, nil
}
