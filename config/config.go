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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eaglesync/eaglesync"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConfigError reports a required setting that is absent.
type ConfigError struct {
	Key string
	Env string
}

func (e *ConfigError) Error() string {
	if e.Env != "" {
		return fmt.Sprintf("config: %s is required (set %s)", e.Key, e.Env)
	}
	return fmt.Sprintf("config: %s is required", e.Key)
}

type ClientConfig struct {
	CacheDir  string
	MaxAge    time.Duration
	UseCache  bool
	UserAgent string
	Interval  time.Duration
	Attempts  int
	Backoff   time.Duration
}

func (c *ClientConfig) Merge(o ClientConfig) {
	if o.CacheDir != "" {
		c.CacheDir = o.CacheDir
	}
	c.MaxAge = o.MaxAge
	c.UseCache = o.UseCache
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Interval != 0 {
		c.Interval = o.Interval
	}
	if o.Attempts != 0 {
		c.Attempts = o.Attempts
	}
	if o.Backoff != 0 {
		c.Backoff = o.Backoff
	}
}

type EagleConfig struct {
	URL       string
	Token     string
	ListLimit int
	Client    ClientConfig
}

type DeezerConfig struct {
	URL       string
	UserID    string
	PageSleep time.Duration
	Client    ClientConfig
}

type DatesConfig struct {
	TimeZone string
	SkipExts []string
	Skip     []string
}

// Location returns the zone used to interpret filename dates.
func (dc *DatesConfig) Location() (*time.Location, error) {
	if dc.TimeZone == "" || strings.EqualFold(dc.TimeZone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(dc.TimeZone)
}

type BPMConfig struct {
	PreviewDir   string
	Multiple     int
	GeolockedTag string
	KeepPreviews bool
}

type ImportConfig struct {
	CoverFile string
	Playlists []string
}

type Config struct {
	ProjectPath      string
	VaultPath        string
	ImageLibraryName string
	Client           ClientConfig
	Eagle            EagleConfig
	Deezer           DeezerConfig
	Dates            DatesConfig
	BPM              BPMConfig
	Import           ImportConfig
}

// LibraryDir is the on-disk directory of the image library inside the vault.
func (c *Config) LibraryDir() string {
	dir := filepath.Join(c.VaultPath, c.ImageLibraryName)
	if !strings.HasSuffix(dir, ".library") {
		if info, err := os.Stat(dir + ".library"); err == nil && info.IsDir() {
			return dir + ".library"
		}
	}
	return dir
}

// PreviewDir is where downloaded previews are stored.
func (c *Config) PreviewDir() string {
	if c.BPM.PreviewDir != "" {
		return c.BPM.PreviewDir
	}
	return filepath.Join(c.ProjectPath, "bpm-tagger", "deezer-preview-mp3")
}

// CoverFile is the placeholder image used for uploaded tracks.
func (c *Config) CoverFile() string {
	if c.Import.CoverFile != "" {
		return c.Import.CoverFile
	}
	return filepath.Join(c.ProjectPath, "deezer-eagle-converter", "mp3.jpg")
}

// Validate checks that every required setting is present.
func (c *Config) Validate() error {
	required := []struct {
		key, env, val string
	}{
		{"ProjectPath", "PROJECT_PATH", c.ProjectPath},
		{"VaultPath", "VAULT_PATH", c.VaultPath},
		{"ImageLibraryName", "IMAGE_LIBRARY_NAME", c.ImageLibraryName},
		{"Deezer.UserID", "DEEZER_USER_ID", c.Deezer.UserID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return &ConfigError{Key: r.key, Env: r.env}
		}
	}
	if c.Eagle.URL == "" {
		return &ConfigError{Key: "Eagle.URL"}
	}
	if c.Deezer.URL == "" {
		return &ConfigError{Key: "Deezer.URL"}
	}
	return nil
}

var envKeys = map[string]string{
	"ProjectPath":      "PROJECT_PATH",
	"VaultPath":        "VAULT_PATH",
	"ImageLibraryName": "IMAGE_LIBRARY_NAME",
	"Deezer.UserID":    "DEEZER_USER_ID",
	"Eagle.Token":      "EAGLE_TOKEN",
}

func configDefaults(v *viper.Viper) {
	v.SetDefault("Client.CacheDir", ".httpcache")
	v.SetDefault("Client.MaxAge", "720h") // 30 days in hours
	v.SetDefault("Client.UseCache", "false")
	v.SetDefault("Client.UserAgent", userAgent())
	v.SetDefault("Client.Attempts", "5")
	v.SetDefault("Client.Backoff", "3s")

	v.SetDefault("Eagle.URL", "http://localhost:41595")
	v.SetDefault("Eagle.ListLimit", "1000000")

	v.SetDefault("Deezer.URL", "https://api.deezer.com")
	v.SetDefault("Deezer.PageSleep", "100ms")

	v.SetDefault("Dates.TimeZone", "Local")
	v.SetDefault("Dates.SkipExts", []string{"mov", "mp4", "gif", "pdf"})

	v.SetDefault("BPM.Multiple", "5")
	v.SetDefault("BPM.GeolockedTag", "Geolocked")
	v.SetDefault("BPM.KeepPreviews", "false")

	for k, env := range envKeys {
		v.BindEnv(k, env)
	}
}

func userAgent() string {
	return eaglesync.AppName + "/" + eaglesync.Version + " ( " + eaglesync.Contact + " ) "
}

// readConfig reads the config file. A file missing from the search path
// is fine, an explicit file must exist.
func readConfig(v *viper.Viper, explicit bool) (*Config, error) {
	var config Config
	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || (!errors.As(err, &notFound) && !os.IsNotExist(err)) {
			return nil, err
		}
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.Eagle.Client = mergeClient(config.Client, v, "Eagle.Client")
	config.Deezer.Client = mergeClient(config.Client, v, "Deezer.Client")
	if config.Deezer.Client.Interval == 0 {
		config.Deezer.Client.Interval = config.Deezer.PageSleep
	}
	return &config, nil
}

// mergeClient applies per-service client overrides on top of the shared
// client settings.
func mergeClient(base ClientConfig, v *viper.Viper, key string) ClientConfig {
	c := base
	if v.IsSet(key) {
		var o ClientConfig
		if err := v.UnmarshalKey(key, &o); err == nil {
			if !v.IsSet(key + ".UseCache") {
				o.UseCache = base.UseCache
			}
			if !v.IsSet(key + ".MaxAge") {
				o.MaxAge = base.MaxAge
			}
			c.Merge(o)
		}
	}
	return c
}

// LoadEnv loads a .env file into the process environment. A missing file
// is not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

var configFile, configPath, configName string

func SetConfigFile(path string) {
	configFile = path
}

func AddConfigPath(path string) {
	configPath = path
}

func SetConfigName(name string) {
	configName = name
}

func GetConfig() (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	if configName != "" {
		v.SetConfigName(configName)
	}
	configDefaults(v)
	return readConfig(v, configFile != "")
}

func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(eaglesync.AppName)
	configDefaults(v)
	return readConfig(v, false)
}
