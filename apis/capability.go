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

// AdaptiveMethod describes one capability method that requires runtime
// dispatch keyed off a URL parameter. Go has no method-level annotations, so
// this is the explicit substitute for a Java @Adaptive(value={...}) method
// marker, supplied once at RegisterCapability time.
type AdaptiveMethod struct {
	// Name is the Go method name, e.g. "Connect".
	Name string
	// Keys are the URL parameter keys tried in order. Multiple keys chain
	// right-to-left: each outer lookup uses the inner one as its default.
	// A nil/empty Keys derives a single key from the capability's simple
	// name (uppercase-boundary split, lowercased, dot-joined).
	Keys []string
}

// CapabilityDescriptor is the Go substitute for a Java @SPI-annotated
// interface: it names the capability, its default extension, and which of
// its methods are adaptive. Supplied once via spi.RegisterCapability[T].
type CapabilityDescriptor struct {
	// Name is the capability's simple name, e.g. "Greeter". Names without
	// an explicit manifest name are derived from the last dot-separated
	// segment of Fqn, not from Name.
	Name string
	// Fqn is the manifest resource path segment searched for in each
	// search directory, e.g. "cap.Greeter" resolves
	// internal-dubbo/cap.Greeter, dubbo/cap.Greeter, services/cap.Greeter.
	Fqn string
	// DefaultName is the extension selected when none is specified. Must be
	// a single token (no commas/whitespace); validated eagerly at
	// registration time rather than deferred to first class load (see
	// SPEC_FULL.md §9).
	DefaultName string
	// AdaptiveMethods lists the capability's adaptive methods. A capability
	// with no adaptive methods can still be registered. spi.Loader does not
	// read this list: Loader.Adaptive resolves a registered adaptive class or
	// synthesizer, and fails with ErrAdaptiveUnavailable when there is none.
	AdaptiveMethods []AdaptiveMethod
}
