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

// Package importer mirrors Deezer playlists into the catalog, tagging each
// track with the playlists it belongs to.
package importer

import (
	"fmt"
	"strconv"

	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/lib/deezer"
	"github.com/eaglesync/eaglesync/lib/eagle"
	"github.com/eaglesync/eaglesync/lib/log"
	"github.com/eaglesync/eaglesync/lib/str"
)

type Catalog interface {
	FindByName(name string) (*eagle.Item, error)
	Update(id string, tags []string) error
	AddFromURL(item eagle.AddItem) error
	AddFromPath(item eagle.AddItem) error
}

type Source interface {
	UserPlaylists(userID string) ([]deezer.Playlist, error)
	PlaylistTracks(tracklist string) ([]deezer.Track, error)
}

type Options struct {
	// Playlists limits the import to these titles, all when empty.
	Playlists []string
	DryRun    bool
}

func NewOptions(config *config.Config) Options {
	return Options{Playlists: config.Import.Playlists}
}

type Report struct {
	Playlists int
	Added     []string
	Tagged    []string
	Unchanged int
	Failed    []string
}

type Importer struct {
	userID  string
	cover   string
	catalog Catalog
	source  Source
}

func NewImporter(config *config.Config, catalog Catalog, source Source) *Importer {
	return &Importer{
		userID:  config.Deezer.UserID,
		cover:   config.CoverFile(),
		catalog: catalog,
		source:  source,
	}
}

// Name is the catalog item name of a track.
func Name(t deezer.Track) string {
	return str.Sanitize(t.Title + " - " + t.Artist.Name)
}

func (i *Importer) Run(options Options) (*Report, error) {
	playlists, err := i.source.UserPlaylists(i.userID)
	if err != nil {
		return nil, fmt.Errorf("playlists for %s: %w", i.userID, err)
	}
	log.Printf("found %d playlists\n", len(playlists))

	report := &Report{}
	for n, p := range playlists {
		if len(options.Playlists) > 0 && !str.ContainsFold(options.Playlists, p.Title) {
			continue
		}
		log.Printf("%d/%d %s\n", n+1, len(playlists), p.Title)
		tracks, err := i.source.PlaylistTracks(p.Tracklist)
		if err != nil {
			log.Printf("%s: %s\n", p.Title, err)
			report.Failed = append(report.Failed, p.Title)
			continue
		}
		report.Playlists++
		for _, t := range tracks {
			if err := i.importTrack(p.Title, t, options, report); err != nil {
				log.Printf("%s: %s\n", Name(t), err)
				report.Failed = append(report.Failed, Name(t))
			}
		}
	}
	return report, nil
}

func (i *Importer) importTrack(playlist string, t deezer.Track, options Options, report *Report) error {
	name := Name(t)
	item, err := i.catalog.FindByName(name)
	if err != nil {
		return err
	}
	if item != nil {
		tags := str.Union(item.Tags, playlist)
		if len(tags) == len(item.Tags) {
			report.Unchanged++
			return nil
		}
		if !options.DryRun {
			if err := i.catalog.Update(item.ID, tags); err != nil {
				return err
			}
		}
		report.Tagged = append(report.Tagged, name)
		return nil
	}

	add := eagle.AddItem{
		Name:       name,
		Website:    t.Link,
		Tags:       []string{playlist},
		Annotation: strconv.FormatInt(t.ID, 10),
	}
	if !options.DryRun {
		if t.Uploaded() {
			add.Path = i.cover
			err = i.catalog.AddFromPath(add)
		} else {
			add.URL = t.Album.CoverBig
			err = i.catalog.AddFromURL(add)
		}
		if err != nil {
			return err
		}
	}
	report.Added = append(report.Added, name)
	return nil
}

func (r *Report) Summary() string {
	s := fmt.Sprintf("playlists %d, added %d, tagged %d, unchanged %d, failed %d\n",
		r.Playlists, len(r.Added), len(r.Tagged), r.Unchanged, len(r.Failed))
	for _, name := range r.Failed {
		s += fmt.Sprintf("failed: %s\n", name)
	}
	return s
}
