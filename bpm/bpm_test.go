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

package bpm_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/eaglesync/eaglesync/bpm"
	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/lib/deezer"
	"github.com/eaglesync/eaglesync/lib/deezer/deezertest"
	"github.com/eaglesync/eaglesync/lib/eagle"
	"github.com/eaglesync/eaglesync/lib/eagle/eagletest"
	"github.com/eaglesync/eaglesync/lib/str"
)

type fixture struct {
	eagle  *eagletest.Server
	deezer *deezertest.Server
	config *config.Config
	paths  []string
}

func newFixture(t *testing.T, items ...eagle.Item) *fixture {
	f := &fixture{eagle: eagletest.NewServer(items...), deezer: deezertest.NewServer()}
	t.Cleanup(f.eagle.Close)
	t.Cleanup(f.deezer.Close)

	cfg := &config.Config{}
	cfg.Eagle.URL = f.eagle.URL
	cfg.Eagle.ListLimit = 100
	cfg.Eagle.Client.Attempts = 1
	cfg.Deezer.URL = f.deezer.URL
	cfg.Deezer.Client.Attempts = 1
	cfg.BPM.PreviewDir = filepath.Join(t.TempDir(), "previews")
	cfg.BPM.Multiple = 5
	cfg.BPM.GeolockedTag = "Geolocked"
	f.config = cfg
	return f
}

func (f *fixture) estimate(t *testing.T, value float64) bpm.Estimator {
	return func(path string) (float64, error) {
		f.paths = append(f.paths, path)
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, err
		}
		if !bytes.Equal(data, deezertest.Preview) {
			t.Errorf("%s: unexpected preview %q", path, data)
		}
		return value, nil
	}
}

func (f *fixture) tagger(t *testing.T, bpmValue float64) *bpm.Tagger {
	return bpm.NewTagger(f.config, eagle.NewEagle(f.config), deezer.NewDeezer(f.config),
		f.estimate(t, bpmValue))
}

func TestRun(t *testing.T) {
	f := newFixture(t,
		eagle.Item{ID: "T1", Name: "Around the World - Daft Punk", Annotation: "3135556", Tags: []string{"Rock"}},
		eagle.Item{ID: "T2", Name: "my upload", Annotation: "-5"},
		eagle.Item{ID: "T3", Name: "no annotation"},
		eagle.Item{ID: "T4", Name: "Blocked - Somebody", Annotation: "999"},
		eagle.Item{ID: "T5", Name: "Done - Already", Annotation: "777", Tags: []string{"100BPM"}},
	)
	f.deezer.AddTrack(deezer.Track{ID: 3135556, Title: "Around the World"}, true)
	f.deezer.AddTrack(deezer.Track{ID: 999, Title: "Blocked"}, false)
	f.deezer.AddTrack(deezer.Track{ID: 777, Title: "Done"}, true)

	report, err := f.tagger(t, 121.7).Run(bpm.NewOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Tagged) != 1 || report.Tagged[0].Tag != "120BPM" || report.Tagged[0].DeezerID != "3135556" {
		t.Errorf("tagged %+v", report.Tagged)
	}
	if len(report.Geolocked) != 1 || report.Geolocked[0] != "Blocked - Somebody" {
		t.Errorf("geolocked %v", report.Geolocked)
	}
	if report.Skipped != 3 {
		t.Errorf("skipped %d", report.Skipped)
	}

	if tags := f.eagle.Item("T1").Tags; len(tags) != 2 || !str.Contains(tags, "Rock") || !str.Contains(tags, "120BPM") {
		t.Errorf("T1 tags %v", tags)
	}
	if tags := f.eagle.Item("T4").Tags; len(tags) != 1 || tags[0] != "Geolocked" {
		t.Errorf("T4 tags %v", tags)
	}
	if tags := f.eagle.Item("T5").Tags; len(tags) != 1 {
		t.Errorf("T5 tags %v", tags)
	}

	if len(f.paths) != 1 || filepath.Base(f.paths[0]) != "T1_3135556.mp3" {
		t.Fatalf("estimated %v", f.paths)
	}
	if _, err := os.Stat(f.paths[0]); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("preview not removed: %v", err)
	}
}

func TestRunKeepAndLimit(t *testing.T) {
	f := newFixture(t,
		eagle.Item{ID: "T1", Name: "One", Annotation: "1"},
		eagle.Item{ID: "T2", Name: "Two", Annotation: "2"},
		eagle.Item{ID: "T3", Name: "Three", Annotation: "3"},
	)
	for id := int64(1); id <= 3; id++ {
		f.deezer.AddTrack(deezer.Track{ID: id}, true)
	}

	options := bpm.NewOptions()
	options.Keep = true
	options.Limit = 2
	report, err := f.tagger(t, 87.4).Run(options)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Tagged) != 2 {
		t.Fatalf("tagged %+v", report.Tagged)
	}
	for _, r := range report.Tagged {
		if r.Tag != "85BPM" {
			t.Errorf("%s tagged %s", r.ID, r.Tag)
		}
	}
	for _, path := range f.paths {
		tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
		if err != nil {
			t.Fatalf("preview not kept: %v", err)
		}
		if got := tag.GetTextFrame("TBPM").Text; got != "85" {
			t.Errorf("%s: TBPM %q", path, got)
		}
		tag.Close()
	}
	if tags := f.eagle.Item("T3").Tags; len(tags) != 0 {
		t.Errorf("T3 tagged past limit: %v", tags)
	}
}

func TestRunRetag(t *testing.T) {
	f := newFixture(t,
		eagle.Item{ID: "T1", Name: "One", Annotation: "1", Tags: []string{"120BPM"}},
	)
	f.deezer.AddTrack(deezer.Track{ID: 1}, true)

	options := bpm.NewOptions()
	options.Retag = true
	for i := 0; i < 2; i++ {
		if _, err := f.tagger(t, 120.2).Run(options); err != nil {
			t.Fatal(err)
		}
	}
	if tags := f.eagle.Item("T1").Tags; len(tags) != 1 || tags[0] != "120BPM" {
		t.Errorf("tags %v", tags)
	}
	if f.eagle.Updates != 0 {
		t.Errorf("%d updates for an unchanged tag", f.eagle.Updates)
	}
}

func TestRunRetagReplaces(t *testing.T) {
	f := newFixture(t,
		eagle.Item{ID: "T1", Name: "One", Annotation: "1", Tags: []string{"Rock", "120BPM"}},
		eagle.Item{ID: "T2", Name: "Two", Annotation: "2", Tags: []string{"Geolocked"}},
	)
	f.deezer.AddTrack(deezer.Track{ID: 1}, true)
	f.deezer.AddTrack(deezer.Track{ID: 2}, true)

	options := bpm.NewOptions()
	options.Retag = true
	if _, err := f.tagger(t, 126).Run(options); err != nil {
		t.Fatal(err)
	}
	if tags := f.eagle.Item("T1").Tags; len(tags) != 2 || tags[0] != "Rock" || tags[1] != "125BPM" {
		t.Errorf("T1 tags %v", tags)
	}
	if tags := f.eagle.Item("T2").Tags; len(tags) != 1 || tags[0] != "125BPM" {
		t.Errorf("T2 tags %v", tags)
	}
}

func TestRunEstimateFailure(t *testing.T) {
	f := newFixture(t,
		eagle.Item{ID: "T1", Name: "One", Annotation: "1"},
		eagle.Item{ID: "T2", Name: "Two", Annotation: "2"},
	)
	f.deezer.AddTrack(deezer.Track{ID: 1}, true)
	f.deezer.AddTrack(deezer.Track{ID: 2}, true)

	calls := 0
	estimate := func(path string) (float64, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("bad audio")
		}
		return 140, nil
	}
	tagger := bpm.NewTagger(f.config, eagle.NewEagle(f.config), deezer.NewDeezer(f.config), estimate)
	report, err := tagger.Run(bpm.NewOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failed) != 1 || report.Failed[0] != "One" {
		t.Errorf("failed %v", report.Failed)
	}
	if len(report.Tagged) != 1 || report.Tagged[0].Tag != "140BPM" {
		t.Errorf("tagged %+v", report.Tagged)
	}
}

func TestTag(t *testing.T) {
	if got := bpm.Tag(95); got != "95BPM" {
		t.Errorf("got %s", got)
	}
}
