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

package date

import (
	"time"
)

const (
	Compact  = "20060102"
	Simple24 = "2006-01-02 15:04"
)

// Parse a date string to time in loc, in format yyyy-mm-dd, yyyy-mm, yyyy.
func ParseDateIn(date string, loc *time.Location) (t time.Time) {
	if date == "" {
		return t
	}
	var err error
	t, err = time.ParseInLocation("2006-1-2", date, loc)
	if err != nil {
		t, err = time.ParseInLocation("2006-1", date, loc)
		if err != nil {
			t, err = time.ParseInLocation("2006", date, loc)
			if err != nil {
				t = time.Time{}
			}
		}
	}
	return t
}

// ParseCompact parses yyyymmdd as midnight in loc.
func ParseCompact(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(Compact, s, loc)
}

func Format(t time.Time) string {
	return t.Format(Simple24)
}
