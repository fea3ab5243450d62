// Copyright (C) 2024 The Eaglesync Authors.
//
// This file is part of Eaglesync.
//
// Eaglesync is free software: you can redistribute it and/or modify it under
// the terms of the GNU Affero General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.
//
// Eaglesync is distributed in the hope that it will be useful, but WITHOUT ANY
// WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS
// FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License for
// more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with Eaglesync.  If not, see <https://www.gnu.org/licenses/>.

// Package exiftest generates images with EXIF data for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
)

// JPEG builds a minimal JPEG holding only an APP1 EXIF segment
// with DateTimeOriginal set to value.
func JPEG(value string) []byte {
	le := binary.LittleEndian
	str := append([]byte(value), 0)

	var tiff bytes.Buffer
	tiff.WriteString("II")
	binary.Write(&tiff, le, uint16(42))
	binary.Write(&tiff, le, uint32(8))

	// IFD0 at 8 with one entry pointing at the exif IFD
	exifIFD := uint32(8 + 2 + 12 + 4)
	binary.Write(&tiff, le, uint16(1))
	binary.Write(&tiff, le, uint16(0x8769)) // ExifIFDPointer
	binary.Write(&tiff, le, uint16(4))      // LONG
	binary.Write(&tiff, le, uint32(1))
	binary.Write(&tiff, le, exifIFD)
	binary.Write(&tiff, le, uint32(0))

	// exif IFD with DateTimeOriginal stored after it
	valueOffset := exifIFD + 2 + 12 + 4
	binary.Write(&tiff, le, uint16(1))
	binary.Write(&tiff, le, uint16(0x9003)) // DateTimeOriginal
	binary.Write(&tiff, le, uint16(2))      // ASCII
	binary.Write(&tiff, le, uint32(len(str)))
	binary.Write(&tiff, le, valueOffset)
	binary.Write(&tiff, le, uint32(0))
	tiff.Write(str)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write([]byte{0xFF, 0xD9})
	return buf.Bytes()
}
