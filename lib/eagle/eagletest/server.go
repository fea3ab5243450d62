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

// Package eagletest provides an in-memory Eagle API server for tests.
package eagletest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/eaglesync/eaglesync/lib/eagle"
)

type Server struct {
	*httptest.Server

	mu      sync.Mutex
	items   []eagle.Item
	Added   []eagle.AddItem
	Updates int
	// FailList makes the list endpoint answer with this status code.
	FailList int
	// FailUpdate makes the update endpoint answer with this status code.
	FailUpdate int
}

func NewServer(items ...eagle.Item) *Server {
	s := &Server{items: items}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/item/list", s.list)
	mux.HandleFunc("/api/item/info", s.info)
	mux.HandleFunc("/api/item/update", s.update)
	mux.HandleFunc("/api/item/addFromURL", s.add)
	mux.HandleFunc("/api/item/addFromPath", s.add)
	s.Server = httptest.NewServer(mux)
	return s
}

// Items returns a copy of the current items.
func (s *Server) Items() []eagle.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]eagle.Item(nil), s.items...)
}

// Item returns the item with id, or nil.
func (s *Server) Item(id string) *eagle.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			item := s.items[i]
			return &item
		}
	}
	return nil
}

func reply(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailList != 0 {
		w.WriteHeader(s.FailList)
		return
	}
	name := r.URL.Query().Get("name")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result := []eagle.Item{}
	for _, item := range s.items {
		if name != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(name)) {
			continue
		}
		result = append(result, item)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	reply(w, result)
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.URL.Query().Get("id")
	for _, item := range s.items {
		if item.ID == id {
			reply(w, item)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"error","message":"item does not exist"}`)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate != 0 {
		w.WriteHeader(s.FailUpdate)
		return
	}
	var body struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for i := range s.items {
		if s.items[i].ID == body.ID {
			s.items[i].Tags = body.Tags
			s.Updates++
			reply(w, s.items[i])
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var body eagle.AddItem
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Added = append(s.Added, body)
	s.items = append(s.items, eagle.Item{
		ID:         fmt.Sprintf("ADDED%04d", len(s.Added)),
		Name:       body.Name,
		Tags:       body.Tags,
		Annotation: body.Annotation,
		URL:        body.Website,
	})
	reply(w, nil)
}
