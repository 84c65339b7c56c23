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

// Package config builds apis.Config values, in spirit matching the
// teacher's own config package: a DefaultConfig plus a functional-options
// constructor. file.go layers an optional viper-backed loader on top for
// operators who want search-directory overrides from a file or the
// environment.
package config

import (
	"io/fs"

	"github.com/pengbina/dubbo/apis"
)

// DefaultSearchDirs mirrors manifest.DefaultSearchDirs; repeated here so
// config never needs to import manifest just to read its default.
var DefaultSearchDirs = []string{"internal-dubbo", "dubbo", "services"}

// NewConfig constructs an apis.Config from the given options, starting from
// DefaultConfig.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// DefaultConfig is the configuration used when none is provided: the fixed
// three-directory search precedence, reading from the process's working
// directory.
func DefaultConfig() apis.Config {
	return apis.Config{
		SearchDirs: append([]string(nil), DefaultSearchDirs...),
		FS:         nil,
	}
}

// Option is a functional option that mutates an apis.Config during
// construction.
type Option func(*apis.Config)

// WithSearchDirs overrides the manifest search directories and their
// precedence order. A nil or empty dirs resets to DefaultSearchDirs.
func WithSearchDirs(dirs ...string) Option {
	return func(c *apis.Config) {
		if len(dirs) == 0 {
			c.SearchDirs = append([]string(nil), DefaultSearchDirs...)
			return
		}
		c.SearchDirs = dirs
	}
}

// WithFS overrides the filesystem manifests are read from.
func WithFS(fsys fs.FS) Option {
	return func(c *apis.Config) {
		c.FS = fsys
	}
}
