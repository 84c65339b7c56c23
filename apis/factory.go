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

import "reflect"

// ExtensionFactory supplies dependency values to the Injector. It is itself
// an extension point (capability ExtensionFactory); the cycle this creates
// is broken by the loader for ExtensionFactory itself, which is constructed
// with a nil factory chain and therefore skips injection entirely.
type ExtensionFactory interface {
	// GetExtension returns a value of the given parameter type for the
	// given derived property name, or (nil, false) if this factory cannot
	// provide one. Implementations must be safe for concurrent use.
	GetExtension(t reflect.Type, property string) (any, bool)
}

// FactoryStrategy is one link in an ExtensionFactory chain (see
// injector.NewFactoryChain). A Resolver-style chain tries each strategy in
// order until one handles the request.
type FactoryStrategy interface {
	TryProvide(t reflect.Type, property string) (any, bool)
}
