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
	"os"

	"github.com/eaglesync/eaglesync/config"
	"github.com/eaglesync/eaglesync/lib/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "eaglesync",
	Short:         "Eaglesync keeps an Eagle library in sync",
	Long:          `Corrects item dates, tags tracks with their tempo and imports Deezer playlists.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var envFile string
var configFile string
var configPath string
var configName string

// getConfig loads the .env file and config, failing before any network
// work when a required setting is absent.
func getConfig() (*config.Config, error) {
	if err := config.LoadEnv(envFile); err != nil {
		return nil, err
	}
	if configPath == "" {
		configPath = os.Getenv("EAGLESYNC_HOME")
	}
	if configName == "" {
		configName = os.Getenv("EAGLESYNC_CONFIG")
	}
	if configFile != "" {
		config.SetConfigFile(configFile)
	} else {
		if configPath == "" {
			configPath = "."
		}
		if configName == "" {
			configName = "eaglesync"
		}
		config.AddConfigPath(configPath)
		config.SetConfigName(configName)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file")
	rootCmd.PersistentFlags().StringVarP(&envFile, "env", "e", ".env", "environment file")
}

func main() {
	log.CheckError(rootCmd.Execute())
}
