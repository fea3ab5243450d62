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

package importer_test

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/importer"
	"github.com/eaglesync/eaglesync/lib/deezer"
	"github.com/eaglesync/eaglesync/lib/deezer/deezertest"
	"github.com/eaglesync/eaglesync/lib/eagle"
	"github.com/eaglesync/eaglesync/lib/eagle/eagletest"
)

type fixture struct {
	eagle  *eagletest.Server
	deezer *deezertest.Server
	config *config.Config
}

func newFixture(t *testing.T, items ...eagle.Item) *fixture {
	f := &fixture{eagle: eagletest.NewServer(items...), deezer: deezertest.NewServer()}
	t.Cleanup(f.eagle.Close)
	t.Cleanup(f.deezer.Close)

	cfg := &config.Config{}
	cfg.ProjectPath = "/project"
	cfg.Eagle.URL = f.eagle.URL
	cfg.Eagle.ListLimit = 100
	cfg.Eagle.Client.Attempts = 1
	cfg.Deezer.URL = f.deezer.URL
	cfg.Deezer.UserID = "42"
	cfg.Deezer.Client.Attempts = 1
	f.config = cfg
	return f
}

func (f *fixture) run(t *testing.T, options importer.Options) *importer.Report {
	t.Helper()
	i := importer.NewImporter(f.config, eagle.NewEagle(f.config), deezer.NewDeezer(f.config))
	report, err := i.Run(options)
	if err != nil {
		t.Fatal(err)
	}
	return report
}

func track(id int64, title, artist string) deezer.Track {
	return deezer.Track{
		ID:     id,
		Title:  title,
		Link:   fmt.Sprintf("https://www.deezer.com/track/%d", id),
		Artist: deezer.Artist{Name: artist},
		Album:  deezer.Album{CoverBig: fmt.Sprintf("https://cdn.example/cover/%d.jpg", id)},
	}
}

func sorted(tags []string) string {
	tags = append([]string(nil), tags...)
	sort.Strings(tags)
	return strings.Join(tags, ",")
}

func TestRunMergesTags(t *testing.T) {
	f := newFixture(t, eagle.Item{ID: "E1", Name: "Smells Like Teen Spirit - Nirvana", Tags: []string{"Rock"}})
	f.deezer.AddPlaylist("42", "Gym", track(13791930, "Smells Like Teen Spirit", "Nirvana"))

	for n := 0; n < 2; n++ {
		f.run(t, importer.NewOptions(f.config))
		if got := sorted(f.eagle.Item("E1").Tags); got != "Gym,Rock" {
			t.Errorf("run %d: tags %s", n+1, got)
		}
	}
	if f.eagle.Updates != 1 {
		t.Errorf("%d updates", f.eagle.Updates)
	}
	if len(f.eagle.Added) != 0 {
		t.Errorf("added %v", f.eagle.Added)
	}
}

func TestRunAdds(t *testing.T) {
	f := newFixture(t)
	f.deezer.AddPlaylist("42", "Chill",
		track(3135556, "Around the World", "Daft Punk"),
		track(-7, "My Demo", "???"),
	)

	report := f.run(t, importer.NewOptions(f.config))
	if len(report.Added) != 2 {
		t.Fatalf("added %v", report.Added)
	}
	if len(f.eagle.Added) != 2 {
		t.Fatalf("catalog got %v", f.eagle.Added)
	}

	web := f.eagle.Added[0]
	if web.Name != "Around the World - Daft Punk" || web.URL != "https://cdn.example/cover/3135556.jpg" ||
		web.Path != "" || web.Annotation != "3135556" || web.Website != "https://www.deezer.com/track/3135556" {
		t.Errorf("url add %+v", web)
	}
	if len(web.Tags) != 1 || web.Tags[0] != "Chill" {
		t.Errorf("url add tags %v", web.Tags)
	}

	upload := f.eagle.Added[1]
	cover := filepath.Join("/project", "deezer-eagle-converter", "mp3.jpg")
	if upload.Name != "My Demo - unknown artist" || upload.Path != cover || upload.URL != "" || upload.Annotation != "-7" {
		t.Errorf("path add %+v", upload)
	}
}

func TestRunPagesAndPlaylists(t *testing.T) {
	f := newFixture(t)
	var tracks []deezer.Track
	for i := 1; i <= 30; i++ {
		tracks = append(tracks, track(int64(i), fmt.Sprintf("Song %d", i), "Band"))
	}
	f.deezer.AddPlaylist("42", "Long", tracks...)
	f.deezer.AddPlaylist("42", "Short", tracks[0], tracks[29])

	report := f.run(t, importer.NewOptions(f.config))
	if report.Playlists != 2 {
		t.Errorf("playlists %d", report.Playlists)
	}
	if len(f.eagle.Added) != 30 {
		t.Errorf("added %d", len(f.eagle.Added))
	}
	if len(report.Tagged) != 2 {
		t.Errorf("tagged %v", report.Tagged)
	}
	for _, item := range f.eagle.Items() {
		want := "Long"
		if item.Name == "Song 1 - Band" || item.Name == "Song 30 - Band" {
			want = "Long,Short"
		}
		if got := sorted(item.Tags); got != want {
			t.Errorf("%s tags %s, want %s", item.Name, got, want)
		}
	}
}

func TestRunFilter(t *testing.T) {
	f := newFixture(t)
	f.deezer.AddPlaylist("42", "Gym", track(1, "Lift", "Heavy"))
	f.deezer.AddPlaylist("42", "Sleep", track(2, "Rest", "Calm"))

	options := importer.NewOptions(f.config)
	options.Playlists = []string{"gym"}
	report := f.run(t, options)
	if report.Playlists != 1 || len(f.eagle.Added) != 1 || f.eagle.Added[0].Name != "Lift - Heavy" {
		t.Errorf("report %+v, added %v", report, f.eagle.Added)
	}
}

func TestRunDryRun(t *testing.T) {
	f := newFixture(t, eagle.Item{ID: "E1", Name: "Lift - Heavy", Tags: []string{"Rock"}})
	f.deezer.AddPlaylist("42", "Gym", track(1, "Lift", "Heavy"), track(2, "Rest", "Calm"))

	options := importer.NewOptions(f.config)
	options.DryRun = true
	report := f.run(t, options)
	if len(report.Added) != 1 || len(report.Tagged) != 1 {
		t.Errorf("report %+v", report)
	}
	if len(f.eagle.Added) != 0 || f.eagle.Updates != 0 {
		t.Errorf("dry run changed the catalog")
	}
}

func TestRunPlaylistsError(t *testing.T) {
	f := newFixture(t)
	f.config.Deezer.UserID = "0"
	i := importer.NewImporter(f.config, eagle.NewEagle(f.config), deezer.NewDeezer(f.config))
	if _, err := i.Run(importer.NewOptions(f.config)); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestName(t *testing.T) {
	got := importer.Name(track(1, `Who Are You?`, "AC/DC"))
	if got != "Who Are You - AC／DC" {
		t.Errorf("got %q", got)
	}
}
