/*
   Copyright 2025 The Go SPI Loader Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pengbina/dubbo/apis"
)

// fileSchema is the on-disk shape LoadFile/LoadEnv populate, decoded via
// go-toml/v2 through viper rather than directly so LoadEnv can share the
// same key names.
type fileSchema struct {
	SearchDirs []string `toml:"search_dirs" mapstructure:"search_dirs"`
}

// LoadFile reads a TOML file at path and returns the apis.Config it
// describes, falling back to DefaultConfig for any field the file omits.
// It never watches the file for changes: this module has no manifest
// hot-reload feature, so there is nothing a watch callback would usefully
// drive.
func LoadFile(path string) (apis.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return apis.Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return decode(v)
}

// LoadEnv builds an apis.Config purely from environment variables under the
// SPI_ prefix (e.g. SPI_SEARCH_DIRS), falling back to DefaultConfig for
// anything unset.
func LoadEnv() (apis.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("spi")
	v.AutomaticEnv()
	if err := v.BindEnv("search_dirs"); err != nil {
		return apis.Config{}, fmt.Errorf("config: binding env: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (apis.Config, error) {
	var schema fileSchema
	if err := v.Unmarshal(&schema); err != nil {
		return apis.Config{}, fmt.Errorf("config: decoding: %w", err)
	}
	var dirs []string
	for _, d := range schema.SearchDirs {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	cfg := DefaultConfig()
	if len(dirs) > 0 {
		cfg.SearchDirs = dirs
	}
	return cfg, nil
}

// marshalSearchDirs renders dirs back to the TOML fragment LoadFile expects.
func marshalSearchDirs(dirs []string) (string, error) {
	out, err := toml.Marshal(fileSchema{SearchDirs: dirs})
	if err != nil {
		return "", fmt.Errorf("config: marshaling: %w", err)
	}
	return string(out), nil
}

// Dump renders cfg back to the TOML form LoadFile reads, for cmd/spictl's
// config-inspection command.
func Dump(cfg apis.Config) (string, error) {
	return marshalSearchDirs(cfg.SearchDirs)
}
