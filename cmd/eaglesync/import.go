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

package main

import (
	"fmt"

	"github.com/eaglesync/eaglesync/importer"
	"github.com/eaglesync/eaglesync/lib/deezer"
	"github.com/eaglesync/eaglesync/lib/eagle"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "import Deezer playlists",
	Long: `Adds every track of the user's Deezer playlists to the library, tagged
with the playlists it belongs to. Tracks already in the library only get
the new tags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return importPlaylists()
	},
}

var importPlaylist []string
var importDryRun bool

func importPlaylists() error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	options := importer.NewOptions(cfg)
	if len(importPlaylist) > 0 {
		options.Playlists = importPlaylist
	}
	options.DryRun = importDryRun
	i := importer.NewImporter(cfg, eagle.NewEagle(cfg), deezer.NewDeezer(cfg))
	report, err := i.Run(options)
	if err != nil {
		return err
	}
	fmt.Print(report.Summary())
	return nil
}

func init() {
	importCmd.Flags().StringSliceVarP(&importPlaylist, "playlist", "p", nil, "only import these playlists")
	importCmd.Flags().BoolVarP(&importDryRun, "dry-run", "n", false, "report changes without making them")
	rootCmd.AddCommand(importCmd)
}
