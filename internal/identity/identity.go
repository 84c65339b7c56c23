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

// Package identity turns a Go value or reflect.Type into a stable,
// human-readable name for diagnostics events and spictl's listings.
//
// Resolution tries three things in order:
//
//  1. If the value implements Namer, use EntityName().
//  2. If the type was registered explicitly via RegisterType, use that name.
//  3. Otherwise derive "pkg.Type" from the reflected type, unwrapping
//     pointers and stripping any generic instantiation suffix.
//
// All three are safe for concurrent use; the registry and the reflect-derived
// name cache are both sync.Map-backed.
package identity

import (
	"path"
	"reflect"
	"strings"
	"sync"
)

// Namer lets a type override its own diagnostic name instead of falling
// back to reflection. The name must be a stable, type-level identifier, not
// something derived from instance state.
type Namer interface {
	EntityName() string
}

var overrides sync.Map // map[reflect.Type]string

// RegisterType fixes the name identity.EntityType/Entity report for t,
// taking priority over the reflect-derived fallback but not over Namer.
// Re-registering the same type with the same name is a no-op; registering
// it with a different name overwrites the previous one, since unlike
// classreg there is no ambiguity a conflicting name could cause here.
func RegisterType(t reflect.Type, name string) {
	if t == nil || name == "" {
		return
	}
	overrides.Store(t, name)
}

// Entity resolves a stable name for v's dynamic type.
func Entity(v any) string {
	if v == nil {
		return "nil"
	}
	if n, ok := v.(Namer); ok {
		if name := n.EntityName(); name != "" {
			return name
		}
	}
	return EntityType(reflect.TypeOf(v))
}

// EntityType resolves a stable name for t directly, for callers that only
// have a reflect.Type in hand (classreg.Capabilities, for instance).
func EntityType(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	if name, ok := overrides.Load(t); ok {
		return name.(string)
	}
	return reflectName(t)
}

var nameCache sync.Map // map[reflect.Type]string

// reflectName derives "pkg.Type" from t, unwrapping pointers first and
// stripping a generic instantiation suffix ("Loader[int]" -> "Loader").
// Results are memoized since reflect.Type.PkgPath/Name do real string work
// on every call.
func reflectName(t reflect.Type) string {
	if name, ok := nameCache.Load(t); ok {
		return name.(string)
	}

	base := t
	for base.Kind() == reflect.Ptr {
		base = base.Elem()
	}

	name := stripTypeParams(base.Name())
	if p := base.PkgPath(); p != "" {
		name = path.Base(p) + "." + name
	} else if name == "" {
		name = base.Kind().String()
	}

	nameCache.Store(t, name)
	return name
}

func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
