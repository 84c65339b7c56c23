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

package codegen

import "fmt"

// UnsupportedError is what a generated adaptive dispatcher panics with when
// a method carries no Adaptive marker, or when a genuinely unrecoverable
// dispatch condition (nil URL, empty resolved name) is hit on a method
// whose signature has no error result to report it through.
type UnsupportedError struct {
	Method string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("codegen: %s is not an adaptive method", e.Method)
}

// NewUnsupportedError constructs an UnsupportedError for method. Generated
// code calls this rather than allocating the struct literal directly so
// the generated source stays a one-line panic call.
func NewUnsupportedError(method string) *UnsupportedError {
	return &UnsupportedError{Method: method}
}
