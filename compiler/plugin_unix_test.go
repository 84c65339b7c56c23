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

package compiler_test

import (
	"testing"

	"github.com/pengbina/dubbo/compiler"
)

func TestPluginBuild_MissingToolchainFailsCleanly(t *testing.T) {
	b := compiler.PluginBuild{GoBin: "definitely-not-a-real-go-binary"}
	_, err := b.Compile(t.TempDir(), "foo_adaptive_gen.go", "package foo\n")
	if err == nil {
		t.Fatalf("Compile: expected error for missing toolchain binary")
	}
}
