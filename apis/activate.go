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

// Activate is the auto-activation metadata attached to an extension at
// registration time (the Go substitute for a class-level @Activate
// annotation; see classreg.RegisterActivate).
type Activate struct {
	// Group restricts activation to callers passing one of these group
	// tags. An empty Group matches any group.
	Group []string
	// Value lists URL parameter keys that must be present with a non-empty
	// value (exact match, or matched as a "."-suffix) for this extension to
	// be considered active. An empty Value always activates.
	Value []string
	// Before lists names this extension must be ordered ahead of.
	Before []string
	// After lists names this extension must be ordered behind.
	After []string
	// Order is the numeric tiebreaker used once Before/After constraints are
	// satisfied.
	Order int
}
