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
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultConfig_UsesFixedSearchPrecedence(t *testing.T) {
	cfg := DefaultConfig()
	if !reflect.DeepEqual(cfg.SearchDirs, DefaultSearchDirs) {
		t.Fatalf("SearchDirs = %v, want %v", cfg.SearchDirs, DefaultSearchDirs)
	}
	if cfg.FS != nil {
		t.Fatalf("FS = %v, want nil", cfg.FS)
	}
}

func TestNewConfig_WithSearchDirsOverridesAndResets(t *testing.T) {
	cfg := NewConfig(WithSearchDirs("only"))
	if len(cfg.SearchDirs) != 1 || cfg.SearchDirs[0] != "only" {
		t.Fatalf("SearchDirs = %v, want [only]", cfg.SearchDirs)
	}

	cfg = NewConfig(WithSearchDirs("only"), WithSearchDirs())
	if !reflect.DeepEqual(cfg.SearchDirs, DefaultSearchDirs) {
		t.Fatalf("SearchDirs after reset = %v, want %v", cfg.SearchDirs, DefaultSearchDirs)
	}
}

func TestLoadFile_ReadsSearchDirsFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spi.toml")
	if err := os.WriteFile(path, []byte("search_dirs = [\"a\", \"b\"]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !reflect.DeepEqual(cfg.SearchDirs, []string{"a", "b"}) {
		t.Fatalf("SearchDirs = %v, want [a b]", cfg.SearchDirs)
	}
}

func TestLoadFile_MissingFileIsAnError(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("LoadFile(missing): expected error")
	}
}

func TestLoadEnv_FallsBackToDefaultWhenUnset(t *testing.T) {
	t.Setenv("SPI_SEARCH_DIRS", "")
	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if !reflect.DeepEqual(cfg.SearchDirs, DefaultSearchDirs) {
		t.Fatalf("SearchDirs = %v, want %v", cfg.SearchDirs, DefaultSearchDirs)
	}
}

func TestMarshalSearchDirs_RoundTripsThroughLoadFile(t *testing.T) {
	text, err := marshalSearchDirs([]string{"x", "y"})
	if err != nil {
		t.Fatalf("marshalSearchDirs: %v", err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "spi.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !reflect.DeepEqual(cfg.SearchDirs, []string{"x", "y"}) {
		t.Fatalf("SearchDirs = %v, want [x y]", cfg.SearchDirs)
	}
}
