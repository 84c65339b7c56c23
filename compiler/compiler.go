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

// Package compiler is the external black box the base spec's adaptive
// synthesizer hands generated source to. The AOT path (cmd/spigen) never
// touches this package — it writes codegen.Generate's output straight to a
// .go file the surrounding go build already compiles. Compiler exists for
// the developer-time convenience path: turning source into a usable
// extension without a separate generate-then-rebuild step.
package compiler

import "errors"

// ErrDynamicCompilationUnavailable is returned by a Compiler that cannot
// build source at runtime on the current platform or toolchain.
var ErrDynamicCompilationUnavailable = errors.New("compiler: dynamic compilation unavailable")

// Symbol is the constructor a compiled unit must export. The generated
// source's plugin entry point is expected to be a package-level function
// literally named New with this signature.
type Symbol func() any

// Compiler turns generated Go source into a callable constructor. dir is a
// scratch directory the implementation may use for intermediate files;
// filename is the suggested source file name (matches what cmd/spigen
// would have written).
type Compiler interface {
	Compile(dir, filename, source string) (Symbol, error)
}

// SourceOnly is the default Compiler: every call fails with
// ErrDynamicCompilationUnavailable. It exists so callers can depend on the
// Compiler interface without a platform-specific build tag pulling in
// os/exec and plugin; use PluginBuild (unix only) to actually compile.
type SourceOnly struct{}

func (SourceOnly) Compile(_, _, _ string) (Symbol, error) {
	return nil, ErrDynamicCompilationUnavailable
}
