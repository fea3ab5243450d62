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

	"github.com/eaglesync/eaglesync/bpm"
	"github.com/eaglesync/eaglesync/lib/deezer"
	"github.com/eaglesync/eaglesync/lib/eagle"
	"github.com/eaglesync/eaglesync/lib/tempo"
	"github.com/spf13/cobra"
)

var bpmCmd = &cobra.Command{
	Use:   "bpm",
	Short: "tag tracks with their tempo",
	Long: `Downloads the Deezer preview of every track, estimates its tempo and
adds a tag such as 120BPM. Tracks without a preview are tagged Geolocked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return tagBPM()
	},
}

var bpmOptions = bpm.NewOptions()

func tagBPM() error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	t := bpm.NewTagger(cfg, eagle.NewEagle(cfg), deezer.NewDeezer(cfg), tempo.EstimateFile)
	report, err := t.Run(bpmOptions)
	if err != nil {
		return err
	}
	fmt.Print(report.Summary())
	return nil
}

func init() {
	bpmCmd.Flags().IntVarP(&bpmOptions.Limit, "limit", "l", 0, "most tracks to process")
	bpmCmd.Flags().BoolVarP(&bpmOptions.Keep, "keep", "k", false, "keep downloaded previews")
	bpmCmd.Flags().BoolVarP(&bpmOptions.Retag, "retag", "r", false, "also process tracks that are already tagged")
	rootCmd.AddCommand(bpmCmd)
}
