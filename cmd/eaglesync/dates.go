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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eaglesync/eaglesync/datefix"
	"github.com/eaglesync/eaglesync/lib/date"
	"github.com/eaglesync/eaglesync/lib/eagle"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "correct item creation dates",
	Long: `Sets the creation time of every item from a date in its file name,
falling back to the EXIF capture time. Items with neither are listed at
the end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dates()
	},
}

var datesOptions = datefix.NewOptions()
var datesAsk bool

func dates() error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Dates.Location()
	if err != nil {
		return err
	}
	datesOptions.Skip = append(datesOptions.Skip, cfg.Dates.Skip...)
	if datesAsk {
		datesOptions.Resolver = askDate(loc)
	}
	d, err := datefix.NewDateFix(cfg, eagle.NewEagle(cfg), eagle.NewLibrary(cfg.LibraryDir()))
	if err != nil {
		return err
	}
	report, err := d.Run(datesOptions)
	if err != nil {
		return err
	}
	fmt.Print(report.Summary())
	return nil
}

// askDate prompts for a yyyy-mm-dd date. An empty answer leaves the item
// missing.
func askDate(loc *time.Location) datefix.Resolver {
	return func(name string) (time.Time, bool) {
		prompt := promptui.Prompt{
			Label: fmt.Sprintf("Date for %s (yyyy-mm-dd)", name),
			Validate: func(input string) error {
				input = strings.TrimSpace(input)
				if input == "" || !date.ParseDateIn(input, loc).IsZero() {
					return nil
				}
				return errors.New("not a date")
			},
		}
		result, err := prompt.Run()
		if err != nil {
			return time.Time{}, false
		}
		t := date.ParseDateIn(strings.TrimSpace(result), loc)
		return t, !t.IsZero()
	}
}

func init() {
	datesCmd.Flags().BoolVarP(&datesOptions.DryRun, "dry-run", "n", false, "resolve dates without writing them")
	datesCmd.Flags().IntVarP(&datesOptions.Start, "start", "s", 0, "index of the first item")
	datesCmd.Flags().IntVarP(&datesOptions.Limit, "limit", "l", 0, "most items to process")
	datesCmd.Flags().StringSliceVar(&datesOptions.Skip, "skip", nil, "item names to skip")
	datesCmd.Flags().BoolVarP(&datesAsk, "ask", "a", false, "ask for dates that could not be found")
	rootCmd.AddCommand(datesCmd)
}
