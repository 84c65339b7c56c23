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

// Package classreg is the process-wide registration table that stands in
// for Class.forName-based dynamic class loading. Concrete extensions never
// get looked up by string and instantiated reflectively; instead each
// implementation file registers a constructor for its (capability, fqn)
// pair from an init function, the same way database/sql drivers and
// image.RegisterFormat codecs register themselves. Fqn is the same
// classFqn string a manifest line names on its right-hand side — it is a
// stable identity key, not a real Go import path. The manifest package
// only ever produces fqns; classreg turns a resolved fqn into a
// Descriptor, and never reads manifests or files itself.
package classreg

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/pengbina/dubbo/apis"
)

var (
	// ErrClassNotFound is returned when a capability/fqn pair has no
	// registered constructor.
	ErrClassNotFound = errors.New("classreg: no registered class for capability/fqn")
	// ErrConflictingRegistration is returned when an fqn is registered
	// twice for the same capability, or when a capability already has an
	// adaptive class registered under a different fqn.
	ErrConflictingRegistration = errors.New("classreg: conflicting registration")
	// ErrEmptyFqn is returned when fqn is the empty string.
	ErrEmptyFqn = errors.New("classreg: empty fqn")
	// ErrNilConstructor is returned when a nil constructor is supplied.
	ErrNilConstructor = errors.New("classreg: nil constructor")
)

// Kind distinguishes the three ways a registered class participates in
// loading. It has no Java analogue; there registration and role are both
// implicit in which annotation and interface a class carries.
type Kind int

const (
	// KindPlain is an ordinary named extension entered in the loader's
	// name table.
	KindPlain Kind = iota
	// KindWrapper decorates every plain instance of its capability and
	// never enters the name table itself.
	KindWrapper
	// KindAdaptive is the capability's adaptive implementation and never
	// enters the name table itself. At most one may exist per capability.
	KindAdaptive
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindWrapper:
		return "wrapper"
	case KindAdaptive:
		return "adaptive"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Descriptor is what a registration call deposits in the table. Loaders
// read Descriptors; they never call New/Wrap themselves without going
// through the descriptor so that instantiation stays uniform for plain,
// wrapper and adaptive classes alike.
type Descriptor struct {
	// Capability is the interface type this class implements.
	Capability reflect.Type
	// Fqn is the registration key, matching the classFqn a manifest line
	// names. Set for every Kind; a manifest line listing a KindWrapper fqn
	// has its alias names discarded by the loader.
	Fqn string
	// Kind is the registration kind.
	Kind Kind
	// New constructs a fresh instance. Set for KindPlain and KindAdaptive.
	New func() any
	// Wrap decorates an already-constructed instance. Set for KindWrapper
	// only; its signature is enforced structurally by RegisterWrapper's
	// type parameter rather than by reflection.
	Wrap func(any) any
}

type key struct {
	capability reflect.Type
	fqn        string
}

var (
	mu         sync.Mutex
	plain      sync.Map // map[key]*Descriptor
	wrappers   sync.Map // map[reflect.Type][]*Descriptor
	adaptive   sync.Map // map[reflect.Type]*Descriptor
	activation sync.Map // map[key]apis.Activate
)

func capabilityType[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register enters a plain implementation of capability T under fqn. A
// second Register call for the same fqn is always a conflict: function
// values are never comparable, so there is no way to tell "the same
// registration running twice" (safe to ignore) from "two different
// implementations racing for one fqn" (a bug), and treating the second
// call as a bug is the safer default.
func Register[T any](fqn string, ctor func() T) error {
	if fqn == "" {
		return ErrEmptyFqn
	}
	if ctor == nil {
		return ErrNilConstructor
	}
	cap := capabilityType[T]()
	k := key{capability: cap, fqn: fqn}
	d := &Descriptor{
		Capability: cap,
		Fqn:        fqn,
		Kind:       KindPlain,
		New:        func() any { return ctor() },
	}
	return store(&plain, k, d)
}

// RegisterWrapper enters a decorator for capability T under fqn. spi.Loader.Get
// applies the wrappers a capability's manifests list to every plain
// instance of T, in manifest discovery order; adaptive instances are not
// wrapped. Wrappers never occupy a name of their own, even though a
// manifest line may still list their fqn under one.
func RegisterWrapper[T any](fqn string, wrap func(T) T) error {
	if fqn == "" {
		return ErrEmptyFqn
	}
	if wrap == nil {
		return ErrNilConstructor
	}
	cap := capabilityType[T]()
	k := key{capability: cap, fqn: fqn}
	d := &Descriptor{
		Capability: cap,
		Fqn:        fqn,
		Kind:       KindWrapper,
		Wrap: func(v any) any {
			return wrap(v.(T))
		},
	}
	if err := store(&plain, k, d); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	list, _ := wrappers.Load(cap)
	var ds []*Descriptor
	if list != nil {
		ds = list.([]*Descriptor)
	}
	ds = append(ds, d)
	wrappers.Store(cap, ds)
	return nil
}

// RegisterAdaptive enters the adaptive implementation of capability T under
// fqn. At most one adaptive class may exist per capability; a second call
// is a conflict regardless of fqn, since two competing adaptive
// implementations would make dispatch ambiguous.
func RegisterAdaptive[T any](fqn string, ctor func() T) error {
	if fqn == "" {
		return ErrEmptyFqn
	}
	if ctor == nil {
		return ErrNilConstructor
	}
	cap := capabilityType[T]()
	k := key{capability: cap, fqn: fqn}
	d := &Descriptor{
		Capability: cap,
		Fqn:        fqn,
		Kind:       KindAdaptive,
		New:        func() any { return ctor() },
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := adaptive.Load(cap); exists {
		return ErrConflictingRegistration
	}
	if _, loaded := plain.Load(k); loaded {
		return ErrConflictingRegistration
	}
	plain.Store(k, d)
	adaptive.Store(cap, d)
	return nil
}

// RegisterActivate attaches auto-activation metadata to the class already
// registered under fqn for capability T (via Register). It is a separate
// call rather than an argument to Register because activation metadata is
// optional, mirroring how @Activate is an additional annotation layered
// onto a class that already satisfies @SPI.
func RegisterActivate[T any](fqn string, act apis.Activate) error {
	if fqn == "" {
		return ErrEmptyFqn
	}
	cap := capabilityType[T]()
	k := key{capability: cap, fqn: fqn}
	mu.Lock()
	defer mu.Unlock()
	activation.Store(k, act)
	return nil
}

func store(m *sync.Map, k key, d *Descriptor) error {
	if _, loaded := m.Load(k); loaded {
		return ErrConflictingRegistration
	}
	mu.Lock()
	defer mu.Unlock()
	if _, loaded := m.Load(k); loaded {
		return ErrConflictingRegistration
	}
	m.Store(k, d)
	return nil
}

// Lookup returns the descriptor (plain, wrapper, or adaptive) registered
// under fqn for capability T.
func Lookup[T any](fqn string) (*Descriptor, bool) {
	cap := capabilityType[T]()
	v, ok := plain.Load(key{capability: cap, fqn: fqn})
	if !ok {
		return nil, false
	}
	return v.(*Descriptor), true
}

// Wrappers returns the wrapper descriptors registered for capability T, in
// registration order.
func Wrappers[T any]() []*Descriptor {
	cap := capabilityType[T]()
	v, ok := wrappers.Load(cap)
	if !ok {
		return nil
	}
	return v.([]*Descriptor)
}

// Adaptive returns the adaptive descriptor registered for capability T, if
// any.
func Adaptive[T any]() (*Descriptor, bool) {
	cap := capabilityType[T]()
	v, ok := adaptive.Load(cap)
	if !ok {
		return nil, false
	}
	return v.(*Descriptor), true
}

// ActivateMeta returns the activation metadata attached to fqn for
// capability T, if RegisterActivate was ever called for that pair.
func ActivateMeta[T any](fqn string) (apis.Activate, bool) {
	cap := capabilityType[T]()
	v, ok := activation.Load(key{capability: cap, fqn: fqn})
	if !ok {
		return apis.Activate{}, false
	}
	return v.(apis.Activate), true
}

// Fqns returns every fqn registered for capability T, of any Kind. Order
// is unspecified; callers that need discovery order track it themselves
// from manifest entries (spi.Loader does).
func Fqns[T any]() []string {
	cap := capabilityType[T]()
	var out []string
	plain.Range(func(k, _ any) bool {
		kk := k.(key)
		if kk.capability == cap {
			out = append(out, kk.fqn)
		}
		return true
	})
	return out
}

// Capabilities returns every capability type with at least one
// registration, of any Kind. It exists for introspection tools (cmd/spictl)
// that need to enumerate what a process has registered without knowing any
// capability's Go type ahead of time — something the generic Lookup/Fqns
// functions can't do since they require T at the call site.
func Capabilities() []reflect.Type {
	seen := make(map[reflect.Type]bool)
	var out []reflect.Type
	plain.Range(func(k, _ any) bool {
		kk := k.(key)
		if !seen[kk.capability] {
			seen[kk.capability] = true
			out = append(out, kk.capability)
		}
		return true
	})
	return out
}

// DescriptorsFor returns every descriptor registered for capability cap,
// the type-erased counterpart to Fqns[T]/Lookup[T] for tools that only have
// a reflect.Type in hand.
func DescriptorsFor(cap reflect.Type) []*Descriptor {
	var out []*Descriptor
	plain.Range(func(k, v any) bool {
		kk := k.(key)
		if kk.capability == cap {
			out = append(out, v.(*Descriptor))
		}
		return true
	})
	return out
}

// Reset clears every registration table. It exists for tests that need a
// clean process-wide slate between cases; production code never calls it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	plain = sync.Map{}
	wrappers = sync.Map{}
	adaptive = sync.Map{}
	activation = sync.Map{}
}
