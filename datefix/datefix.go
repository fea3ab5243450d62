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

// Package datefix corrects the creation time of catalog items using dates
// found in their file names or, failing that, in their EXIF data.
package datefix

import (
	"fmt"
	"time"

	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/lib/date"
	"github.com/eaglesync/eaglesync/lib/eagle"
	"github.com/eaglesync/eaglesync/lib/exif"
	"github.com/eaglesync/eaglesync/lib/log"
	"github.com/eaglesync/eaglesync/lib/str"
)

type Catalog interface {
	Items(limit int) ([]eagle.Item, error)
}

type Library interface {
	Metadata(id string) (*eagle.Metadata, error)
	MediaPath(m *eagle.Metadata) string
	SetBirthTime(id string, t time.Time) error
}

// Resolver asks for a date when none could be found. ok is false to leave
// the item missing.
type Resolver func(name string) (t time.Time, ok bool)

type Source int

const (
	Filename Source = iota
	Exif
	Manual
)

func (s Source) String() string {
	switch s {
	case Filename:
		return "filename"
	case Exif:
		return "exif"
	case Manual:
		return "manual"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

type Correction struct {
	ID     string
	Name   string
	Time   time.Time
	Source Source
	Rule   string
}

type Report struct {
	Corrected []Correction
	// Missing are names with no date from any source.
	Missing []string
	// Failed are names whose date was found but could not be written.
	Failed  []string
	Skipped int
}

type Options struct {
	Start    int
	Skip     []string
	DryRun   bool
	Limit    int
	Resolver Resolver
}

func NewOptions() Options {
	return Options{}
}

type DateFix struct {
	catalog   Catalog
	library   Library
	extractor *date.Extractor
	exif      *exif.Reader
}

func NewDateFix(config *config.Config, catalog Catalog, library Library) (*DateFix, error) {
	loc, err := config.Dates.Location()
	if err != nil {
		return nil, err
	}
	return &DateFix{
		catalog:   catalog,
		library:   library,
		extractor: date.DefaultExtractor(loc),
		exif:      exif.NewReader(config.Dates.SkipExts, loc),
	}, nil
}

// Run corrects every listed item in listing order. Only a failure to list
// the catalog is returned as an error; item failures end up in the report.
func (d *DateFix) Run(options Options) (*Report, error) {
	items, err := d.catalog.Items(0)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	log.Printf("found %d items\n", len(items))

	report := &Report{}
	start := options.Start
	if start < 0 {
		start = 0
	}
	processed := 0
	for i := start; i < len(items); i++ {
		if options.Limit > 0 && processed == options.Limit {
			break
		}
		item := items[i]
		if str.Contains(options.Skip, item.Name) {
			report.Skipped++
			continue
		}
		processed++
		log.Printf("%d %s\n", i, item.Name)

		c, ok := d.resolve(item)
		if !ok && options.Resolver != nil {
			if t, manual := options.Resolver(item.Name); manual {
				c, ok = Correction{ID: item.ID, Name: item.Name, Time: t, Source: Manual}, true
			}
		}
		if !ok {
			log.Printf("the date for %q could not be found\n", item.Name)
			report.Missing = append(report.Missing, item.Name)
			continue
		}
		if !options.DryRun {
			if err := d.library.SetBirthTime(item.ID, c.Time); err != nil {
				log.Printf("%s: %s\n", item.Name, err)
				report.Failed = append(report.Failed, item.Name)
				continue
			}
		}
		log.Printf("%s: %s from %s\n", item.Name, date.Format(c.Time), c.Source)
		report.Corrected = append(report.Corrected, c)
	}
	return report, nil
}

func (d *DateFix) resolve(item eagle.Item) (Correction, bool) {
	c := Correction{ID: item.ID, Name: item.Name}
	m, ok, err := d.extractor.Extract(item.Name)
	if err != nil {
		// invalid digits fall through to exif
		log.Printf("%s\n", err)
	} else if ok {
		c.Time, c.Source, c.Rule = m.Time, Filename, m.Rule
		return c, true
	}

	md, err := d.library.Metadata(item.ID)
	if err != nil {
		log.Printf("%s: %s\n", item.Name, err)
		return c, false
	}
	t, ok, err := d.exif.DateTaken(d.library.MediaPath(md), md.Ext)
	if err != nil {
		log.Printf("%s\n", err)
		return c, false
	}
	if !ok {
		return c, false
	}
	c.Time, c.Source = t, Exif
	return c, true
}

// Summary describes the outcome of a run, listing missing and failed names.
func (r *Report) Summary() string {
	s := fmt.Sprintf("corrected %d, missing %d, failed %d, skipped %d\n",
		len(r.Corrected), len(r.Missing), len(r.Failed), r.Skipped)
	for _, name := range r.Missing {
		s += fmt.Sprintf("missing: %s\n", name)
	}
	for _, name := range r.Failed {
		s += fmt.Sprintf("failed: %s\n", name)
	}
	return s
}
