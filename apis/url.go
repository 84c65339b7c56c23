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

// URL is the opaque parameter bag consulted by the activation selector and
// by adaptive dispatchers. It is deliberately narrow: only the accessors
// those two components need are named here. Transport, serialization, and
// registry-client concerns that build and pass URL values around are out of
// scope for this module.
type URL interface {
	// Parameter returns the value for key and whether it was present.
	Parameter(key string) (string, bool)

	// ParameterOr returns the value for key, or def if absent.
	ParameterOr(key, def string) string

	// MethodParameter returns a per-method override for key (falling back to
	// the URL-wide parameter, then def), used when a call carries an
	// Invocation argument.
	MethodParameter(method, key, def string) string

	// Protocol returns the URL's scheme/protocol token, if any.
	Protocol() (string, bool)

	// Range iterates all parameters in unspecified order, stopping early if
	// fn returns false.
	Range(fn func(key, value string) bool)
}

// Invocation identifies the method being dispatched on a call that carries
// per-method configuration. Adaptive dispatchers use MethodParameter instead
// of Parameter when one of the call's arguments implements Invocation.
type Invocation interface {
	MethodName() string
}
