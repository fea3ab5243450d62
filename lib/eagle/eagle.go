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

// Package eagle talks to the Eagle app: its local REST API and the
// on-disk library records.
package eagle

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/lib/client"
	"github.com/eaglesync/eaglesync/lib/str"
)

const statusSuccess = "success"

var ErrNotFound = errors.New("item not found")

type Item struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Ext              string   `json:"ext"`
	Tags             []string `json:"tags"`
	Annotation       string   `json:"annotation"`
	URL              string   `json:"url"`
	BTime            int64    `json:"btime"`
	MTime            int64    `json:"mtime"`
	ModificationTime int64    `json:"modificationTime"`
	IsDeleted        bool     `json:"isDeleted"`
}

// AddItem is the payload for addFromURL and addFromPath.
type AddItem struct {
	URL        string   `json:"url,omitempty"`
	Path       string   `json:"path,omitempty"`
	Name       string   `json:"name"`
	Website    string   `json:"website,omitempty"`
	Tags       []string `json:"tags"`
	Annotation string   `json:"annotation,omitempty"`
}

type update struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags"`
}

type listResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    []Item `json:"data"`
}

type infoResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    Item   `json:"data"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Eagle struct {
	config *config.EagleConfig
	client *client.Client
}

func NewEagle(config *config.Config) *Eagle {
	return &Eagle{
		config: &config.Eagle,
		client: client.NewClient(&config.Eagle.Client),
	}
}

func (e *Eagle) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if e.config.Token != "" {
		params.Set("token", e.config.Token)
	}
	u := strings.TrimSuffix(e.config.URL, "/") + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func checkStatus(endpoint, status, message string) error {
	if status != statusSuccess {
		return &client.RemoteError{StatusCode: 200, URL: endpoint,
			Message: fmt.Sprintf("status %q %s", status, message)}
	}
	return nil
}

func (e *Eagle) list(params url.Values) ([]Item, error) {
	endpoint := e.endpoint("/api/item/list", params)
	var result listResponse
	if err := e.client.GetJson(endpoint, &result); err != nil {
		return nil, err
	}
	if err := checkStatus(endpoint, result.Status, result.Message); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// Items lists up to limit items. A limit of zero uses the configured
// listing limit.
func (e *Eagle) Items(limit int) ([]Item, error) {
	if limit <= 0 {
		limit = e.config.ListLimit
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	return e.list(params)
}

// Search lists items whose name matches name.
func (e *Eagle) Search(name string, limit int) ([]Item, error) {
	params := url.Values{}
	params.Set("name", name)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return e.list(params)
}

// FindByName returns the first item named exactly name, or nil.
func (e *Eagle) FindByName(name string) (*Item, error) {
	items, err := e.Search(name, 0)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Name == name {
			return &items[i], nil
		}
	}
	return nil, nil
}

func (e *Eagle) Info(id string) (*Item, error) {
	params := url.Values{}
	params.Set("id", id)
	endpoint := e.endpoint("/api/item/info", params)
	var result infoResponse
	if err := e.client.GetJson(endpoint, &result); err != nil {
		return nil, err
	}
	if err := checkStatus(endpoint, result.Status, result.Message); err != nil {
		return nil, err
	}
	if result.Data.ID == "" {
		return nil, ErrNotFound
	}
	return &result.Data, nil
}

func (e *Eagle) post(path string, data interface{}) error {
	endpoint := e.endpoint(path, nil)
	var result statusResponse
	if err := e.client.PostJson(endpoint, data, &result); err != nil {
		return err
	}
	return checkStatus(endpoint, result.Status, result.Message)
}

// Update replaces the tags of an item.
func (e *Eagle) Update(id string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	return e.post("/api/item/update", update{ID: id, Tags: tags})
}

// AddTags appends tags to the item, keeping existing tags and never
// adding a tag twice. The catalog has no partial update so the current
// tags are read first.
func (e *Eagle) AddTags(id string, tags ...string) ([]string, error) {
	item, err := e.Info(id)
	if err != nil {
		return nil, err
	}
	merged := str.Union(item.Tags, tags...)
	if len(merged) == len(item.Tags) {
		return merged, nil
	}
	return merged, e.Update(id, merged)
}

func (e *Eagle) AddFromURL(item AddItem) error {
	return e.post("/api/item/addFromURL", item)
}

func (e *Eagle) AddFromPath(item AddItem) error {
	return e.post("/api/item/addFromPath", item)
}
