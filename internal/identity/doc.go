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

// Package identity is deliberately small: it exists so diagnostics events
// and spictl's capability listing name a reflect.Type the same way
// everywhere, instead of each caller formatting reflect.Type.String() on
// its own (which leaks pointer/slice wrapping and package import paths
// verbatim into log lines).
//
//	identity.RegisterType(reflect.TypeOf((*Greeter)(nil)).Elem(), "svc.greeter")
//	identity.EntityType(reflect.TypeOf((*Greeter)(nil)).Elem()) // "svc.greeter"
//	identity.Entity(englishGreeter{})                 // "pkg.englishGreeter"
//
// It is not a general naming framework: there is one global registry, no
// pluggable strategy chain, and no snapshot/rebuild machinery. Diagnostics
// only ever needs "what do I call this type", never "swap the naming policy
// at runtime", so there is nothing here to swap.
package identity
