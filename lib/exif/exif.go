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

// Package exif reads the original capture time embedded in image files.
package exif

import (
	"fmt"
	"os"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// Layout of the EXIF DateTimeOriginal value.
const Layout = "2006:01:02 15:04:05"

// SkipExts are formats that carry no capture time tag worth reading.
var SkipExts = []string{"mov", "mp4", "gif", "pdf"}

// IOError is returned when the media file can't be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("exif: %s: %s", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

type Reader struct {
	skip map[string]bool
	loc  *time.Location
	// opened counts files opened
	opened int
}

// NewReader returns a reader that skips the given extensions and reads
// times in loc. A nil skip list uses SkipExts.
func NewReader(skip []string, loc *time.Location) *Reader {
	if skip == nil {
		skip = SkipExts
	}
	if loc == nil {
		loc = time.Local
	}
	r := &Reader{skip: make(map[string]bool), loc: loc}
	for _, ext := range skip {
		r.skip[normalizeExt(ext)] = true
	}
	return r
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Applicable reports whether files with ext may carry a capture time.
func (r *Reader) Applicable(ext string) bool {
	return !r.skip[normalizeExt(ext)]
}

// DateTaken returns the DateTimeOriginal of the file at path. ok is false
// when the format is skipped or the file has no such tag.
func (r *Reader) DateTaken(path, ext string) (t time.Time, ok bool, err error) {
	if !r.Applicable(ext) {
		return t, false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return t, false, &IOError{Path: path, Err: err}
	}
	defer f.Close()
	r.opened++

	x, err := goexif.Decode(f)
	if err != nil {
		// no exif block
		return t, false, nil
	}
	tag, err := x.Get(goexif.DateTimeOriginal)
	if err != nil {
		return t, false, nil
	}
	value, err := tag.StringVal()
	if err != nil {
		return t, false, nil
	}
	value = strings.TrimRight(strings.TrimSpace(value), "\x00")
	t, err = time.ParseInLocation(Layout, value, r.loc)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}
