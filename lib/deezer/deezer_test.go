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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/lib/client"
)

func newDeezer(url string) *Deezer {
	cfg := &config.Config{}
	cfg.Deezer.URL = url
	cfg.Deezer.Client.Attempts = 1
	return NewDeezer(cfg)
}

// playlists serves n playlists, 25 per page
func playlistServer(t *testing.T, n int) *httptest.Server {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/42/playlists":
			index, _ := strconv.Atoi(r.URL.Query().Get("index"))
			var data []Playlist
			for i := index; i < n && i < index+25; i++ {
				data = append(data, Playlist{
					ID:        int64(i + 1),
					Title:     fmt.Sprintf("Playlist %d", i+1),
					Tracklist: fmt.Sprintf("%s/playlist/%d/tracks", srv.URL, i+1),
				})
			}
			result := map[string]interface{}{"data": data, "total": n}
			if index+25 < n {
				result["next"] = fmt.Sprintf("%s/user/42/playlists?index=%d", srv.URL, index+25)
			}
			json.NewEncoder(w).Encode(result)
		case "/user/0/playlists":
			fmt.Fprint(w, `{"error":{"type":"DataException","message":"no data","code":800}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	return srv
}

func TestUserPlaylists(t *testing.T) {
	srv := playlistServer(t, 60)
	defer srv.Close()

	playlists, err := newDeezer(srv.URL).UserPlaylists("42")
	if err != nil {
		t.Fatal(err)
	}
	if len(playlists) != 60 {
		t.Fatalf("got %d playlists", len(playlists))
	}
	for i, p := range playlists {
		if p.Title != fmt.Sprintf("Playlist %d", i+1) {
			t.Errorf("%d: got %s", i, p.Title)
		}
	}
}

func TestUserPlaylistsError(t *testing.T) {
	srv := playlistServer(t, 1)
	defer srv.Close()

	_, err := newDeezer(srv.URL).UserPlaylists("0")
	var re *client.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if re.StatusCode != 800 {
		t.Errorf("code %d", re.StatusCode)
	}
}

func TestPlaylistTracks(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("index") == "" {
			fmt.Fprintf(w, `{"data":[{"id":3135556,"title":"Harder, Better, Faster, Stronger","link":"https://www.deezer.com/track/3135556","artist":{"name":"Daft Punk"},"album":{"cover_big":"https://cdn/cover.jpg"}}],"total":2,"next":"%s/playlist/1/tracks?index=1"}`, srv.URL)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":-1731877711,"title":"My Upload","artist":{"name":"Me"}}],"total":2}`)
	}))
	defer srv.Close()

	tracks, err := newDeezer(srv.URL).PlaylistTracks(srv.URL + "/playlist/1/tracks")
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks", len(tracks))
	}
	if tracks[0].Artist.Name != "Daft Punk" || tracks[0].Album.CoverBig == "" || tracks[0].Uploaded() {
		t.Errorf("got %+v", tracks[0])
	}
	if !tracks[1].Uploaded() {
		t.Errorf("expected uploaded track %+v", tracks[1])
	}
}

func TestDownloadPreview(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/track/1":
			fmt.Fprintf(w, `{"id":1,"title":"x","preview":"%s/preview/1.mp3"}`, srv.URL)
		case "/track/2":
			fmt.Fprint(w, `{"id":2,"title":"y","preview":""}`)
		case "/preview/1.mp3":
			w.Write([]byte("mp3data"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d := newDeezer(srv.URL)
	path := filepath.Join(t.TempDir(), "A1_1.mp3")
	if err := d.DownloadPreview("1", path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "mp3data" {
		t.Errorf("got %q", data)
	}
	err := d.DownloadPreview("2", filepath.Join(t.TempDir(), "A2_2.mp3"))
	if !errors.Is(err, ErrNoPreview) {
		t.Errorf("expected ErrNoPreview, got %v", err)
	}
}
