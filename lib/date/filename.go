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
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/eaglesync/eaglesync/lib/log"
)

// Strategy tells how the groups captured by a rule become a date.
type Strategy int

const (
	// FullDate captures a single yyyymmdd group.
	FullDate Strategy = iota
	// SplitDate captures year, month and day as three groups.
	SplitDate
	// EpochMillis captures milliseconds since the unix epoch.
	EpochMillis
)

func (s Strategy) String() string {
	switch s {
	case FullDate:
		return "full-date"
	case SplitDate:
		return "split-date"
	case EpochMillis:
		return "epoch-millis"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Groups is the number of capture groups a pattern using s must have.
func (s Strategy) Groups() int {
	if s == SplitDate {
		return 3
	}
	return 1
}

// Rule pairs a file name pattern with the way its match is turned into a
// date.
type Rule struct {
	Name     string
	Pattern  string
	Strategy Strategy
}

// DefaultRules in priority order. Precise naming conventions come before
// loose numeric ones; do not sort.
var DefaultRules = []Rule{
	{"whatsapp video", `VID-(\d{8})-WA\d{4}`, FullDate},
	{"whatsapp image", `IMG-(\d{8})-WA\d{4}`, FullDate},
	{"pixel", `PXL-(\d{8})-\d{9}`, FullDate},
	{"pixel", `PXL_(\d{8})_\d{9}`, FullDate},
	{"ios", `(\d{8})_\d{9}_iOS`, FullDate},
	{"video", `VID-(\d{8})-\d{6}`, FullDate},
	{"video", `VID_(\d{8})_\d{6}`, FullDate},
	{"screenshot", `Screenshot_(\d{8})-\d{6}`, FullDate},
	{"screenshot", `Screenshot_(\d{4})-(\d{2})-(\d{2})-\d{2}-\d{2}-\d{2}`, SplitDate},
	{"camera", `\d{3}-DSC\d{5}-(\d{8})-\d{4}-\d{2}-\d{2}-`, FullDate},
	{"camera", `IMG_(\d{8})_\d{6}`, FullDate},
	{"switch screenshot", `(\d{8})\d{8}-`, FullDate},
	{"epoch", `(\d{13})-.{8}-`, EpochMillis},
}

// Match is a date resolved from a file name.
type Match struct {
	Rule string
	Time time.Time
}

// ParseError is returned when a rule matched but the captured digits are
// not a valid date.
type ParseError struct {
	Name  string
	Rule  string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("date: %q matched %s but %q is not a date: %s",
		e.Name, e.Rule, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type compiledRule struct {
	Rule
	regexp *regexp.Regexp
}

type Extractor struct {
	rules []compiledRule
	loc   *time.Location
}

// NewExtractor compiles rules, keeping their order. Dates are midnight in
// loc.
func NewExtractor(rules []Rule, loc *time.Location) (*Extractor, error) {
	if loc == nil {
		loc = time.Local
	}
	x := &Extractor{loc: loc}
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Name, err)
		}
		if re.NumSubexp() != r.Strategy.Groups() {
			return nil, fmt.Errorf("rule %d (%s): %s needs %d groups, pattern has %d",
				i, r.Name, r.Strategy, r.Strategy.Groups(), re.NumSubexp())
		}
		x.rules = append(x.rules, compiledRule{Rule: r, regexp: re})
	}
	return x, nil
}

// DefaultExtractor uses DefaultRules.
func DefaultExtractor(loc *time.Location) *Extractor {
	x, err := NewExtractor(DefaultRules, loc)
	if err != nil {
		log.Fatalf("default rules: %s\n", err)
	}
	return x
}

// Extract resolves a date from name using the first rule whose pattern
// matches. No match is reported with ok false and a nil error.
func (x *Extractor) Extract(name string) (m Match, ok bool, err error) {
	for _, r := range x.rules {
		groups := r.regexp.FindStringSubmatch(name)
		if groups == nil {
			continue
		}
		t, value, err := x.resolve(r.Strategy, groups[1:])
		if err != nil {
			return Match{}, false, &ParseError{Name: name, Rule: r.Name, Value: value, Err: err}
		}
		return Match{Rule: r.Name, Time: t}, true, nil
	}
	return Match{}, false, nil
}

func (x *Extractor) resolve(s Strategy, groups []string) (time.Time, string, error) {
	switch s {
	case FullDate:
		t, err := ParseCompact(groups[0], x.loc)
		return t, groups[0], err
	case SplitDate:
		value := groups[0] + groups[1] + groups[2]
		t, err := ParseCompact(value, x.loc)
		return t, value, err
	case EpochMillis:
		ms, err := strconv.ParseInt(groups[0], 10, 64)
		if err != nil {
			return time.Time{}, groups[0], err
		}
		return time.UnixMilli(ms).In(x.loc), groups[0], nil
	}
	return time.Time{}, "", fmt.Errorf("unknown %s", s)
}
