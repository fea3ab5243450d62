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

// Package deezertest provides a fake Deezer API server for tests.
package deezertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/eaglesync/eaglesync/lib/deezer"
)

const PageSize = 25

// Preview is the body served for every preview.
var Preview = []byte("fake mp3 preview")

type Server struct {
	*httptest.Server

	mu        sync.Mutex
	playlists map[string][]deezer.Playlist
	tracks    map[int64][]deezer.Track
	byID      map[int64]deezer.Track
	// Requests counts requests per path.
	Requests map[string]int
}

func NewServer() *Server {
	s := &Server{
		playlists: make(map[string][]deezer.Playlist),
		tracks:    make(map[int64][]deezer.Track),
		byID:      make(map[int64]deezer.Track),
		Requests:  make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// AddPlaylist adds a playlist owned by user holding tracks.
func (s *Server) AddPlaylist(user, title string, tracks ...deezer.Track) deezer.Playlist {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(1000 + len(s.tracks))
	p := deezer.Playlist{
		ID:        id,
		Title:     title,
		Tracklist: fmt.Sprintf("%s/playlist/%d/tracks", s.URL, id),
		NbTracks:  len(tracks),
	}
	s.playlists[user] = append(s.playlists[user], p)
	s.tracks[id] = tracks
	for _, t := range tracks {
		s.byID[t.ID] = t
	}
	return p
}

// AddTrack makes a track available by id. With preview set the track gets
// a preview url served by s.
func (s *Server) AddTrack(t deezer.Track, preview bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if preview {
		t.Preview = s.PreviewURL(t.ID)
	}
	s.byID[t.ID] = t
}

func (s *Server) PreviewURL(id int64) string {
	return fmt.Sprintf("%s/preview/%d.mp3", s.URL, id)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests[r.URL.Path]++

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	index, _ := strconv.Atoi(r.URL.Query().Get("index"))
	switch {
	case len(parts) == 3 && parts[0] == "user" && parts[2] == "playlists":
		playlists, ok := s.playlists[parts[1]]
		if !ok {
			apiError(w, "DataException", "no data", 800)
			return
		}
		page(w, r, index, len(playlists), func(i int) interface{} { return playlists[i] })
	case len(parts) == 3 && parts[0] == "playlist" && parts[2] == "tracks":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		tracks, ok := s.tracks[id]
		if !ok {
			apiError(w, "DataException", "no data", 800)
			return
		}
		page(w, r, index, len(tracks), func(i int) interface{} { return tracks[i] })
	case len(parts) == 2 && parts[0] == "track":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		t, ok := s.byID[id]
		if !ok {
			apiError(w, "DataException", "no data", 800)
			return
		}
		json.NewEncoder(w).Encode(t)
	case len(parts) == 2 && parts[0] == "preview":
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(Preview)
	default:
		http.NotFound(w, r)
	}
}

func page(w http.ResponseWriter, r *http.Request, index, total int, item func(int) interface{}) {
	data := []interface{}{}
	for i := index; i < total && i < index+PageSize; i++ {
		data = append(data, item(i))
	}
	result := map[string]interface{}{"data": data, "total": total}
	if index+PageSize < total {
		result["next"] = fmt.Sprintf("http://%s%s?index=%d", r.Host, r.URL.Path, index+PageSize)
	}
	json.NewEncoder(w).Encode(result)
}

func apiError(w http.ResponseWriter, kind, message string, code int) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{"type": kind, "message": message, "code": code},
	})
}
