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

package deezer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/lib/client"
	"github.com/eaglesync/eaglesync/lib/log"
)

var ErrNoPreview = errors.New("no preview available")

type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Album struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	CoverBig string `json:"cover_big"`
}

type Track struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Link     string  `json:"link"`
	Preview  string  `json:"preview"`
	Duration int     `json:"duration"`
	BPM      float64 `json:"bpm"`
	Artist   Artist  `json:"artist"`
	Album    Album   `json:"album"`
}

// Uploaded reports whether the track is a user uploaded file rather than a
// catalog track. Deezer gives those negative ids.
func (t Track) Uploaded() bool {
	return t.ID < 0
}

type Playlist struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Tracklist string `json:"tracklist"`
	NbTracks  int    `json:"nb_tracks"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type page struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
	Next  string          `json:"next"`
	Error *apiError       `json:"error"`
}

type Deezer struct {
	config *config.DeezerConfig
	client *client.Client
}

func NewDeezer(config *config.Config) *Deezer {
	return &Deezer{
		config: &config.Deezer,
		client: client.NewClient(&config.Deezer.Client),
	}
}

func (d *Deezer) url(path string) string {
	return strings.TrimSuffix(d.config.URL, "/") + path
}

func remoteErr(url string, e *apiError) error {
	return &client.RemoteError{
		StatusCode: e.Code,
		URL:        url,
		Message:    fmt.Sprintf("%s: %s", e.Type, e.Message),
	}
}

// pages calls fn with each page's data, following next links until there
// are none left.
func (d *Deezer) pages(url string, fn func(data json.RawMessage) error) error {
	for first := true; url != ""; first = false {
		if !first && d.config.PageSleep > 0 {
			time.Sleep(d.config.PageSleep)
		}
		var p page
		if err := d.client.GetJson(url, &p); err != nil {
			return err
		}
		if p.Error != nil {
			return remoteErr(url, p.Error)
		}
		if len(p.Data) > 0 {
			if err := fn(p.Data); err != nil {
				return err
			}
		}
		url = p.Next
	}
	return nil
}

func (d *Deezer) UserPlaylists(userID string) ([]Playlist, error) {
	var playlists []Playlist
	err := d.pages(d.url("/user/"+userID+"/playlists"), func(data json.RawMessage) error {
		var list []Playlist
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		playlists = append(playlists, list...)
		return nil
	})
	return playlists, err
}

// PlaylistTracks returns all tracks from a playlist tracklist url.
func (d *Deezer) PlaylistTracks(tracklist string) ([]Track, error) {
	var tracks []Track
	err := d.pages(tracklist, func(data json.RawMessage) error {
		var list []Track
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		tracks = append(tracks, list...)
		return nil
	})
	return tracks, err
}

func (d *Deezer) Track(id string) (*Track, error) {
	url := d.url("/track/" + id)
	var result struct {
		Track
		Error *apiError `json:"error"`
	}
	if err := d.client.GetJson(url, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, remoteErr(url, result.Error)
	}
	return &result.Track, nil
}

// PreviewURL returns the url of the 30 second preview, or "" when there is
// none.
func (d *Deezer) PreviewURL(id string) (string, error) {
	t, err := d.Track(id)
	if err != nil {
		return "", err
	}
	return t.Preview, nil
}

// DownloadPreview saves the preview of track id to path.
func (d *Deezer) DownloadPreview(id, path string) error {
	url, err := d.PreviewURL(id)
	if err != nil {
		return err
	}
	if url == "" {
		return ErrNoPreview
	}
	log.Printf("preview %s\n", url)
	return d.client.Download(url, path)
}
