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

package str

import (
	"strings"
)

// filename unsafe characters and their look-alike replacements, applied in
// order ("???" must come before "?")
var replacements = []string{
	"\"", "⧵",
	":", "׃",
	"/", "／",
	"???", "unknown artist",
	"?", "",
	"<", "ᐸ",
	">", "ᐳ",
	"*", "⚹",
	"|", "⎟",
}

// Sanitize replaces characters that can't be used in file names with
// similar looking ones.
func Sanitize(name string) string {
	name = strings.TrimSpace(name)
	for i := 0; i < len(replacements); i += 2 {
		name = strings.ReplaceAll(name, replacements[i], replacements[i+1])
	}
	return name
}

// Union returns a followed by each value of b not already present, with
// duplicates removed and order preserved.
func Union(a []string, b ...string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	result := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if seen[v] {
				continue
			}
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

func Contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ContainsFold is Contains ignoring case.
func ContainsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
