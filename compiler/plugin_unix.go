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

//go:build unix

package compiler

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"plugin"
	"strings"
)

// PluginBuild compiles source with `go build -buildmode=plugin` and loads
// the resulting shared object via the plugin package. It only exists on
// unix platforms because both -buildmode=plugin and package plugin are
// unix-only in the Go toolchain. GoBin defaults to "go" on PATH.
type PluginBuild struct {
	GoBin string
}

func (b PluginBuild) Compile(dir, filename, source string) (Symbol, error) {
	goBin := b.GoBin
	if goBin == "" {
		goBin = "go"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("compiler: creating scratch dir: %w", err)
	}
	srcPath := filepath.Join(dir, filename)
	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("compiler: writing source: %w", err)
	}
	soPath := strings.TrimSuffix(srcPath, ".go") + ".so"

	cmd := exec.Command(goBin, "build", "-buildmode=plugin", "-o", soPath, srcPath)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("compiler: go build: %w: %s", err, out)
	}

	p, err := plugin.Open(soPath)
	if err != nil {
		return nil, fmt.Errorf("compiler: plugin.Open: %w", err)
	}
	sym, err := p.Lookup("New")
	if err != nil {
		return nil, fmt.Errorf("compiler: lookup New: %w", err)
	}
	fn, ok := sym.(func() any)
	if !ok {
		return nil, fmt.Errorf("compiler: New has signature %T, want func() any", sym)
	}
	return Symbol(fn), nil
}
