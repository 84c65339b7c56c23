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

package identity

import (
	"reflect"
	"testing"
)

type namedGreeter struct{}

func (namedGreeter) EntityName() string { return "svc.greeter" }

type plainGreeter struct{}

func TestEntity_PrefersNamerOverReflection(t *testing.T) {
	if got := Entity(namedGreeter{}); got != "svc.greeter" {
		t.Fatalf("Entity(namedGreeter{}) = %q, want svc.greeter", got)
	}
}

func TestEntity_FallsBackToReflectDerivedName(t *testing.T) {
	got := Entity(plainGreeter{})
	want := "identity.plainGreeter"
	if got != want {
		t.Fatalf("Entity(plainGreeter{}) = %q, want %q", got, want)
	}
}

func TestEntityType_UnwrapsPointers(t *testing.T) {
	got := EntityType(reflect.TypeOf(&plainGreeter{}))
	want := "identity.plainGreeter"
	if got != want {
		t.Fatalf("EntityType(*plainGreeter) = %q, want %q", got, want)
	}
}

func TestRegisterType_OverridesReflectedName(t *testing.T) {
	typ := reflect.TypeOf(plainGreeter{})
	RegisterType(typ, "overridden.name")
	t.Cleanup(func() { overrides.Delete(typ) })

	if got := EntityType(typ); got != "overridden.name" {
		t.Fatalf("EntityType after RegisterType = %q, want overridden.name", got)
	}
}

func TestEntity_NilIsStable(t *testing.T) {
	if got := Entity(nil); got != "nil" {
		t.Fatalf("Entity(nil) = %q, want nil", got)
	}
}
