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

// Package manifest reads the plain-text files that name a capability's
// extensions. It never instantiates anything; its only job is turning
// directory contents into an ordered list of (names, fqn) pairs for
// spi.Loader to resolve against classreg's registration table.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pengbina/dubbo/apis"
)

// ErrManifest wraps every failure this package returns: an unreadable
// resource, a malformed line, or a name mapped to two different classes
// across the merged search directories.
var ErrManifest = errors.New("manifest: invalid manifest")

// DefaultSearchDirs is the fixed precedence order used when apis.Config
// leaves SearchDirs nil: framework-provided manifests, then user overrides,
// then the ambient platform's conventional services/ layout.
var DefaultSearchDirs = []string{"internal-dubbo", "dubbo", "services"}

// RawEntry is one parsed manifest line, still unresolved against the
// registration table. A line naming a comma-separated alias list expands to
// a single RawEntry with multiple Names, all pointing at Fqn.
type RawEntry struct {
	// Names are the aliases this line declares, in the order written.
	Names []string
	// Fqn is the registration key an implementation's init() is expected
	// to have used with classreg.Register/RegisterWrapper/RegisterAdaptive.
	Fqn string
	// Dir is the search directory this entry came from, kept for
	// diagnostics and for cmd/spictl's inspection output.
	Dir string
}

// Load reads and merges every search directory's manifest for
// capabilityFqn into one ordered entry list. Directories are read in
// cfg.SearchDirs order (or DefaultSearchDirs); within a directory, entries
// keep file line order. A directory missing the resource is skipped
// silently — only internal-dubbo/ is expected to exist for every
// capability. The same name resolving to two different Fqn values anywhere
// in the merge is fatal, regardless of which directories are involved.
func Load(cfg apis.Config, capabilityFqn string) ([]RawEntry, error) {
	dirs := cfg.SearchDirs
	if dirs == nil {
		dirs = DefaultSearchDirs
	}
	fsys := cfg.FS
	if fsys == nil {
		fsys = os.DirFS(".")
	}

	simpleName := capabilityFqn
	if idx := strings.LastIndexByte(capabilityFqn, '.'); idx >= 0 {
		simpleName = capabilityFqn[idx+1:]
	}

	seen := make(map[string]string) // name -> fqn, across the full merge
	var entries []RawEntry

	for _, dir := range dirs {
		path := dir + "/" + capabilityFqn
		f, err := fsys.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%w: opening %s: %v", ErrManifest, path, err)
		}
		lines, err := parseFile(f, simpleName)
		closeErr := f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrManifest, path, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("%w: closing %s: %v", ErrManifest, path, closeErr)
		}
		for _, e := range lines {
			for _, n := range e.Names {
				if prev, ok := seen[n]; ok {
					if prev != e.Fqn {
						return nil, fmt.Errorf("%w: name %q maps to both %q and %q", ErrManifest, n, prev, e.Fqn)
					}
					continue
				}
				seen[n] = e.Fqn
			}
			e.Dir = dir
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func parseFile(f fs.File, capabilitySimpleName string) ([]RawEntry, error) {
	var entries []RawEntry
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var namesPart, fqn string
		if eq := strings.IndexByte(line, '='); eq >= 0 {
			namesPart = strings.TrimSpace(line[:eq])
			fqn = strings.TrimSpace(line[eq+1:])
			if fqn == "" {
				return nil, fmt.Errorf("line %d: %q: missing class after '='", lineNo, line)
			}
		} else {
			fqn = line
			derived, ok := deriveName(fqn, capabilitySimpleName)
			if !ok {
				// Derivation produced an empty name; the entry is
				// rejected rather than treated as fatal.
				continue
			}
			namesPart = derived
		}

		var names []string
		if namesPart != "" {
			for _, tok := range strings.Split(namesPart, ",") {
				tok = strings.TrimSpace(tok)
				if tok == "" {
					continue
				}
				if !isValidName(tok) {
					return nil, fmt.Errorf("line %d: %q: invalid name token", lineNo, tok)
				}
				names = append(names, tok)
			}
		}
		if len(names) == 0 {
			continue
		}

		entries = append(entries, RawEntry{Names: names, Fqn: fqn})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// deriveName implements the base spec's derived-from-classname rule: strip
// the class's package prefix, strip a trailing capability-simple-name
// suffix if present, lowercase the remainder. An all-suffix class name
// (nothing left after stripping) yields ok=false.
func deriveName(fqn, capabilitySimpleName string) (string, bool) {
	simple := fqn
	if idx := strings.LastIndexByte(fqn, '.'); idx >= 0 {
		simple = fqn[idx+1:]
	}
	trimmed := strings.TrimSuffix(simple, capabilitySimpleName)
	lowered := strings.ToLower(trimmed)
	if lowered == "" {
		return "", false
	}
	return lowered, true
}

func isValidName(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
