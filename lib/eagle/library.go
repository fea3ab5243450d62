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

package eagle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
)

const (
	imagesDir    = "images"
	infoSuffix   = ".info"
	metadataFile = "metadata.json"
)

// Metadata is the subset of an item's metadata.json record used here.
type Metadata struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Ext   string   `json:"ext"`
	BTime int64    `json:"btime"`
	MTime int64    `json:"mtime"`
	Tags  []string `json:"tags"`
}

// Library is an Eagle library directory on disk.
type Library struct {
	dir string
}

func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

func (l *Library) itemDir(id string) string {
	return filepath.Join(l.dir, imagesDir, id+infoSuffix)
}

// MetadataPath is the location of the item's metadata record.
func (l *Library) MetadataPath(id string) string {
	return filepath.Join(l.itemDir(id), metadataFile)
}

// MediaPath is the location of the item's media file.
func (l *Library) MediaPath(m *Metadata) string {
	return filepath.Join(l.itemDir(m.ID), m.Name+"."+m.Ext)
}

func (l *Library) Metadata(id string) (*Metadata, error) {
	data, err := os.ReadFile(l.MetadataPath(id))
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", l.MetadataPath(id), err)
	}
	if m.ID == "" {
		m.ID = id
	}
	return &m, nil
}

// SetBirthTime rewrites the btime field of the item's record, leaving all
// other fields untouched.
func (l *Library) SetBirthTime(id string, t time.Time) error {
	path := l.MetadataPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	patch, err := json.Marshal(map[string]int64{"btime": t.UnixMilli()})
	if err != nil {
		return err
	}
	data, err = jsonpatch.MergePatch(data, patch)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), metadataFile+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
