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

// Package bpm tags catalog tracks with a tempo estimated from their Deezer
// preview.
package bpm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/bogem/id3v2"
	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/lib/deezer"
	"github.com/eaglesync/eaglesync/lib/eagle"
	"github.com/eaglesync/eaglesync/lib/log"
	"github.com/eaglesync/eaglesync/lib/str"
	"github.com/eaglesync/eaglesync/lib/tempo"
)

var tagPattern = regexp.MustCompile(`^\d+BPM$`)

type Catalog interface {
	Items(limit int) ([]eagle.Item, error)
	AddTags(id string, tags ...string) ([]string, error)
	Update(id string, tags []string) error
}

type Source interface {
	DownloadPreview(id, path string) error
}

// Estimator returns the tempo of the audio file at path.
type Estimator func(path string) (float64, error)

type Options struct {
	// Limit is the most items to process, zero for all.
	Limit int
	Keep  bool
	// Retag processes items that already have a tempo or geolocked tag.
	Retag bool
}

func NewOptions() Options {
	return Options{}
}

type Result struct {
	ID       string
	DeezerID string
	BPM      float64
	Tag      string
}

type Report struct {
	Tagged    []Result
	Geolocked []string
	Failed    []string
	Skipped   int
}

type Tagger struct {
	config   *config.BPMConfig
	dir      string
	catalog  Catalog
	source   Source
	estimate Estimator
}

// NewTagger returns a tagger using tempo.EstimateFile when estimate is nil.
func NewTagger(config *config.Config, catalog Catalog, source Source, estimate Estimator) *Tagger {
	if estimate == nil {
		estimate = tempo.EstimateFile
	}
	return &Tagger{
		config:   &config.BPM,
		dir:      config.PreviewDir(),
		catalog:  catalog,
		source:   source,
		estimate: estimate,
	}
}

// Tag is the tag for a tempo.
func Tag(bpm int) string {
	return strconv.Itoa(bpm) + "BPM"
}

func (t *Tagger) tagged(item eagle.Item) bool {
	for _, tag := range item.Tags {
		if tagPattern.MatchString(tag) || tag == t.config.GeolockedTag {
			return true
		}
	}
	return false
}

// deezerID returns the Deezer track id stored in the annotation. User
// uploads have negative ids and no preview.
func deezerID(item eagle.Item) (string, bool) {
	id, err := strconv.ParseInt(item.Annotation, 10, 64)
	if err != nil || id < 0 {
		return "", false
	}
	return strconv.FormatInt(id, 10), true
}

func (t *Tagger) Run(options Options) (*Report, error) {
	items, err := t.catalog.Items(0)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	log.Printf("tracks found: %d\n", len(items))
	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return nil, err
	}

	report := &Report{}
	processed := 0
	for _, item := range items {
		if options.Limit > 0 && processed == options.Limit {
			break
		}
		id, ok := deezerID(item)
		if !ok || (!options.Retag && t.tagged(item)) {
			report.Skipped++
			continue
		}
		processed++
		t.tag(item, id, options, report)
	}
	return report, nil
}

func (t *Tagger) tag(item eagle.Item, id string, options Options, report *Report) {
	path := filepath.Join(t.dir, fmt.Sprintf("%s_%s.mp3", item.ID, id))
	keep := options.Keep || t.config.KeepPreviews
	err := t.source.DownloadPreview(id, path)
	if !keep {
		defer os.Remove(path)
	}
	if errors.Is(err, deezer.ErrNoPreview) {
		log.Printf("%s: no preview available\n", item.Name)
		if _, err := t.catalog.AddTags(item.ID, t.config.GeolockedTag); err != nil {
			log.Printf("%s: %s\n", item.Name, err)
			report.Failed = append(report.Failed, item.Name)
			return
		}
		report.Geolocked = append(report.Geolocked, item.Name)
		return
	}
	if err != nil {
		log.Printf("%s: %s\n", item.Name, err)
		report.Failed = append(report.Failed, item.Name)
		return
	}

	bpm, err := t.estimate(path)
	if err != nil {
		log.Printf("%s: %s\n", item.Name, err)
		report.Failed = append(report.Failed, item.Name)
		return
	}
	rounded := tempo.Round(bpm, t.config.Multiple)
	tag := Tag(rounded)
	log.Printf("%s: estimated tempo %.1f, tagged %s\n", item.Name, bpm, tag)
	if keep {
		if err := WriteTempo(path, rounded); err != nil {
			log.Printf("%s: %s\n", path, err)
		}
	}
	if options.Retag {
		err = t.replaceTempo(item, tag)
	} else {
		_, err = t.catalog.AddTags(item.ID, tag)
	}
	if err != nil {
		log.Printf("%s: %s\n", item.Name, err)
		report.Failed = append(report.Failed, item.Name)
		return
	}
	report.Tagged = append(report.Tagged, Result{ID: item.ID, DeezerID: id, BPM: bpm, Tag: tag})
}

// replaceTempo swaps any tempo or geolocked tag of item for tag.
func (t *Tagger) replaceTempo(item eagle.Item, tag string) error {
	tags := []string{}
	for _, v := range item.Tags {
		if !tagPattern.MatchString(v) && v != t.config.GeolockedTag {
			tags = append(tags, v)
		}
	}
	tags = append(tags, tag)
	if len(tags) == len(item.Tags) && str.Contains(item.Tags, tag) {
		return nil
	}
	return t.catalog.Update(item.ID, tags)
}

// WriteTempo stores bpm in the TBPM frame of the mp3 at path.
func WriteTempo(path string, bpm int) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()
	tag.AddTextFrame("TBPM", id3v2.EncodingUTF8, strconv.Itoa(bpm))
	return tag.Save()
}

func (r *Report) Summary() string {
	s := fmt.Sprintf("tagged %d, geolocked %d, failed %d, skipped %d\n",
		len(r.Tagged), len(r.Geolocked), len(r.Failed), r.Skipped)
	for _, name := range r.Failed {
		s += fmt.Sprintf("failed: %s\n", name)
	}
	return s
}
