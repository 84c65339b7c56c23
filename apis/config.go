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

package apis

import "io/fs"

// Config carries read-only knobs that influence how a Loader discovers and
// classifies extensions. It is passed by value and should be treated as
// immutable by implementations.
type Config struct {
	// SearchDirs lists manifest directories in descending precedence order.
	// Entries are merged into one name table; conflicting names across
	// directories are fatal regardless of position in this slice. Leave nil
	// to use the package default (internal-dubbo/, dubbo/, services/).
	SearchDirs []string

	// FS is the filesystem manifests are read from. Leave nil to use the
	// package default rooted at the process working directory.
	FS fs.FS
}
