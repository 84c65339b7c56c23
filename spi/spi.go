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

// Package spi is the extension loader itself: Loader[T] ties classreg's
// registration table, manifest's parsed entries, injector's setter wiring,
// and activate's selection algorithm into the per-capability singleton
// cache the rest of this module is built around. Loader[T] is generic
// where the base spec's Loader<T> is type-parameterized; RegisterCapability
// and LoaderFor are the process-wide registry that stands in for a
// capability -> loader map keyed by java.lang.Class.
package spi

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pengbina/dubbo/activate"
	"github.com/pengbina/dubbo/apis"
	"github.com/pengbina/dubbo/classreg"
	"github.com/pengbina/dubbo/diagnostics"
	"github.com/pengbina/dubbo/injector"
	"github.com/pengbina/dubbo/manifest"
)

var (
	// ErrInvalidCapability is returned when a capability was never
	// registered with RegisterCapability, or was registered with a
	// malformed CapabilityDescriptor (empty name/fqn, multi-token
	// default).
	ErrInvalidCapability = errors.New("spi: invalid capability")
	// ErrInvalidName is returned by Get for an empty extension name.
	ErrInvalidName = errors.New("spi: invalid name")
	// ErrUnknownExtension is returned by Get for a name with no resolvable
	// class, wrapping the underlying classreg.ErrClassNotFound when the
	// manifest named a class that was never registered.
	ErrUnknownExtension = errors.New("spi: unknown extension")
	// ErrDuplicateAdaptive is returned when two manifest entries for the
	// same capability both resolve to (different) adaptive descriptors.
	ErrDuplicateAdaptive = errors.New("spi: duplicate adaptive class")
	// ErrAdaptiveUnavailable is returned by Adaptive when the capability
	// has no class-level adaptive descriptor and no synthesizer was
	// registered to build one at runtime.
	ErrAdaptiveUnavailable = errors.New("spi: no adaptive implementation available")
)

// holder is a lazily-published, double-checked cache slot, the same shape
// as the teacher's sync.Map-plus-mutex registration discipline scaled down
// to a single value.
type holder struct {
	mu    sync.Mutex
	ready bool
	value any
	err   error
}

// Loader is the per-capability extension loader. Obtain one with
// RegisterCapability (typically from the capability interface's own
// package init) or LoaderFor (from anywhere else, once registered).
type Loader[T any] struct {
	desc apis.CapabilityDescriptor
	cfg  apis.Config

	invalid atomic.Bool
	factory apis.ExtensionFactory
	diag    *diagnostics.Recorder

	classifyMu  sync.Mutex
	classified  atomic.Bool
	manifestErr error

	names         map[string]*classreg.Descriptor
	wrapperList   []*classreg.Descriptor
	adaptiveDesc  *classreg.Descriptor
	activates     map[string]apis.Activate
	activateOrder []string
	loadErrors    map[string]error

	instMu    sync.Mutex
	instances map[string]*holder

	classMu        sync.Mutex
	classInstances map[*classreg.Descriptor]*holder

	adaptiveMu       sync.Mutex
	adaptiveReady    bool
	adaptivePoisoned bool
	adaptiveInstance T
	adaptiveErr      error
}

func capabilityType[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

var (
	loaders             sync.Map // map[reflect.Type]any (*Loader[T])
	extensionAccessors  sync.Map // map[reflect.Type]func(string) (any, bool)
	adaptiveSynthesizer sync.Map // map[reflect.Type]func() (any, error)
	extensionFactoryT   = reflect.TypeOf((*apis.ExtensionFactory)(nil)).Elem()
)

func validateDescriptor(desc apis.CapabilityDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("%w: capability name is required", ErrInvalidCapability)
	}
	if desc.Fqn == "" {
		return fmt.Errorf("%w: capability %s: manifest fqn is required", ErrInvalidCapability, desc.Name)
	}
	if strings.ContainsAny(desc.DefaultName, ", \t\n") {
		return fmt.Errorf("%w: capability %s: SPI default %q must be a single token", ErrInvalidCapability, desc.Name, desc.DefaultName)
	}
	return nil
}

// RegisterCapability declares capability T with the given metadata and an
// optional Config (search directories, filesystem). It is idempotent: a
// second call for the same T returns the loader created by the first call
// and ignores desc. Validation of desc (SPI default single-token rule) is
// eager, per this module's resolution of the base spec's Open Question on
// when a multi-token default should fail.
//
// A LoaderFor call racing ahead of the first RegisterCapability for T may
// have already published an invalid stub loader; if so, that stub is
// promoted in place rather than shadowed, so every holder of the stub
// pointer (from LoaderFor) observes the same loader RegisterCapability
// returns here, instead of being stuck with a loader that always reports
// ErrInvalidCapability.
func RegisterCapability[T any](desc apis.CapabilityDescriptor, cfg apis.Config) (*Loader[T], error) {
	if err := validateDescriptor(desc); err != nil {
		return nil, err
	}
	cap := capabilityType[T]()
	l := &Loader[T]{desc: desc, cfg: cfg}
	actual, _ := loaders.LoadOrStore(cap, l)
	loaded := actual.(*Loader[T])
	if loaded != l && loaded.invalid.CompareAndSwap(true, false) {
		loaded.desc = desc
		loaded.cfg = cfg
	}

	extensionAccessors.Store(cap, func(name string) (any, bool) {
		inst, err := loaded.Get(name)
		if err != nil {
			return nil, false
		}
		return inst, true
	})
	if cap != extensionFactoryT {
		loaded.factory = DefaultExtensionFactory()
	}
	return loaded, nil
}

// LoaderFor returns the loader registered for capability T. A capability
// that was never registered yields a loader whose every operation fails
// with ErrInvalidCapability — the lazy-validation behavior the base spec
// describes for loader(T) itself.
func LoaderFor[T any]() *Loader[T] {
	cap := capabilityType[T]()
	if v, ok := loaders.Load(cap); ok {
		return v.(*Loader[T])
	}
	invalid := &Loader[T]{}
	invalid.invalid.Store(true)
	actual, _ := loaders.LoadOrStore(cap, invalid)
	return actual.(*Loader[T])
}

// RegisterAdaptiveSynthesizer wires a runtime fallback for capability T's
// Adaptive() when no class carries a class-level adaptive registration.
// This is the developer-time path (base spec's Compiler, driven by
// codegen.Generate); the preferred AOT path never needs it, since
// cmd/spigen's output self-registers via classreg.RegisterAdaptive like
// any hand-written adaptive class.
func RegisterAdaptiveSynthesizer[T any](fn func() (T, error)) {
	cap := capabilityType[T]()
	adaptiveSynthesizer.Store(cap, func() (any, error) { return fn() })
}

// Reset forgets every registered loader, extension accessor and adaptive
// synthesizer. It exists for tests that need a clean process-wide slate
// between cases; production code never calls it.
func Reset() {
	for _, m := range []*sync.Map{&loaders, &extensionAccessors, &adaptiveSynthesizer} {
		m.Range(func(k, _ any) bool {
			m.Delete(k)
			return true
		})
	}
}

// DefaultExtensionFactory returns the process-wide ExtensionFactory that
// resolves setter dependencies which are themselves extension points, by
// looking up the target type's own Loader and calling Get(property). It is
// wired automatically onto every capability's loader except
// ExtensionFactory's own, which breaks the cycle by loading with a nil
// factory (see the base spec's §4.E cycle-break note).
func DefaultExtensionFactory() apis.ExtensionFactory {
	return injector.NewFactoryChain(spiExtensionStrategy{})
}

type spiExtensionStrategy struct{}

func (spiExtensionStrategy) TryProvide(t reflect.Type, property string) (any, bool) {
	fn, ok := extensionAccessors.Load(t)
	if !ok {
		return nil, false
	}
	return fn.(func(string) (any, bool))(property)
}

func (l *Loader[T]) ensureClassified() {
	if l.classified.Load() {
		return
	}
	l.classifyMu.Lock()
	defer l.classifyMu.Unlock()
	if l.classified.Load() {
		return
	}
	l.classify()
	l.classified.Store(true)
}

func (l *Loader[T]) classify() {
	l.names = make(map[string]*classreg.Descriptor)
	l.loadErrors = make(map[string]error)

	entries, err := manifest.Load(l.cfg, l.desc.Fqn)
	if err != nil {
		l.manifestErr = err
		l.diag.ManifestError(capabilityType[T](), err)
		return
	}

	for _, e := range entries {
		d, ok := classreg.Lookup[T](e.Fqn)
		if !ok {
			cause := fmt.Errorf("%w: %s", classreg.ErrClassNotFound, e.Fqn)
			for _, n := range e.Names {
				l.loadErrors[n] = cause
				l.diag.ClassLoadError(capabilityType[T](), n, cause)
			}
			continue
		}
		switch d.Kind {
		case classreg.KindWrapper:
			l.wrapperList = append(l.wrapperList, d)
		case classreg.KindAdaptive:
			if l.adaptiveDesc != nil && l.adaptiveDesc != d {
				for _, n := range e.Names {
					l.loadErrors[n] = ErrDuplicateAdaptive
					l.diag.ClassLoadError(capabilityType[T](), n, ErrDuplicateAdaptive)
				}
				continue
			}
			l.adaptiveDesc = d
		default: // classreg.KindPlain
			first := e.Names[0]
			if act, ok := classreg.ActivateMeta[T](e.Fqn); ok {
				if l.activates == nil {
					l.activates = make(map[string]apis.Activate)
				}
				l.activates[first] = act
				l.activateOrder = append(l.activateOrder, first)
			}
			for _, n := range e.Names {
				l.names[n] = d
			}
		}
	}

	if l.adaptiveDesc == nil {
		if d, ok := classreg.Adaptive[T](); ok {
			l.adaptiveDesc = d
		}
	}
}

// Get returns the singleton instance for name. The literal sentinel "true"
// is special-cased to mean "the SPI default", matching the base spec.
func (l *Loader[T]) Get(name string) (T, error) {
	var zero T
	if l.invalid.Load() {
		return zero, fmt.Errorf("%w", ErrInvalidCapability)
	}
	if name == "" {
		return zero, ErrInvalidName
	}
	if name == "true" {
		return l.DefaultInstance()
	}

	l.ensureClassified()
	if l.manifestErr != nil {
		return zero, l.manifestErr
	}

	d, ok := l.names[name]
	if !ok {
		l.instMu.Lock()
		h := l.instances[name]
		l.instMu.Unlock()
		if h != nil {
			h.mu.Lock()
			v, ready, herr := h.value, h.ready, h.err
			h.mu.Unlock()
			if ready && herr == nil {
				return v.(T), nil
			}
		}
		if cause, ok := l.loadErrors[name]; ok {
			return zero, fmt.Errorf("%w: %s: %w", ErrUnknownExtension, name, cause)
		}
		return zero, fmt.Errorf("%w: %s", ErrUnknownExtension, name)
	}
	return l.instantiate(name, d)
}

// DefaultInstance returns Get(default-name) if the capability declares an
// SPI default, or the zero value with a nil error if it does not — the
// base spec is explicit that "no default configured" is not itself an
// error.
func (l *Loader[T]) DefaultInstance() (T, error) {
	var zero T
	if l.invalid.Load() {
		return zero, fmt.Errorf("%w", ErrInvalidCapability)
	}
	if l.desc.DefaultName == "" {
		return zero, nil
	}
	return l.Get(l.desc.DefaultName)
}

func (l *Loader[T]) instantiate(name string, d *classreg.Descriptor) (T, error) {
	var zero T
	h := l.nameHolder(name)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ready {
		if h.err != nil {
			return zero, h.err
		}
		return h.value.(T), nil
	}

	inner, err := l.classInstance(d)
	if err != nil {
		h.err = err
		h.ready = true
		return zero, err
	}

	wrapped := any(inner)
	for _, w := range l.wrapperList {
		wrapped = w.Wrap(wrapped)
		l.reportInjection(wrapped, injector.Inject(wrapped, l.factory))
	}
	h.value = wrapped
	h.ready = true
	return wrapped.(T), nil
}

func (l *Loader[T]) classInstance(d *classreg.Descriptor) (T, error) {
	var zero T
	l.classMu.Lock()
	if l.classInstances == nil {
		l.classInstances = make(map[*classreg.Descriptor]*holder)
	}
	h, ok := l.classInstances[d]
	if !ok {
		h = &holder{}
		l.classInstances[d] = h
	}
	l.classMu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ready {
		if h.err != nil {
			return zero, h.err
		}
		return h.value.(T), nil
	}
	inst := d.New().(T)
	l.reportInjection(inst, injector.Inject(inst, l.factory))
	h.value = inst
	h.ready = true
	return inst, nil
}

func (l *Loader[T]) reportInjection(instance any, warnings []error) {
	for _, w := range warnings {
		l.diag.InjectionWarning(capabilityType[T](), instance, w)
	}
}

func (l *Loader[T]) nameHolder(name string) *holder {
	l.instMu.Lock()
	defer l.instMu.Unlock()
	if l.instances == nil {
		l.instances = make(map[string]*holder)
	}
	h, ok := l.instances[name]
	if !ok {
		h = &holder{}
		l.instances[name] = h
	}
	return h
}

// Adaptive returns the capability's adaptive instance, synthesizing it on
// first use if necessary. Failure is sticky: once poisoned, every
// subsequent call rethrows the same error, per the base spec's adaptive
// slot state machine.
func (l *Loader[T]) Adaptive() (T, error) {
	var zero T
	if l.invalid.Load() {
		return zero, fmt.Errorf("%w", ErrInvalidCapability)
	}
	l.ensureClassified()

	l.adaptiveMu.Lock()
	defer l.adaptiveMu.Unlock()
	if l.adaptivePoisoned {
		return zero, l.adaptiveErr
	}
	if l.adaptiveReady {
		return l.adaptiveInstance, nil
	}

	var inst T
	switch {
	case l.adaptiveDesc != nil:
		inst = l.adaptiveDesc.New().(T)
	default:
		fn, ok := adaptiveSynthesizer.Load(capabilityType[T]())
		if !ok {
			l.adaptivePoisoned = true
			l.adaptiveErr = fmt.Errorf("%w: %s", ErrAdaptiveUnavailable, l.desc.Name)
			l.diag.AdaptivePoisoned(capabilityType[T](), l.adaptiveErr)
			return zero, l.adaptiveErr
		}
		v, err := fn.(func() (any, error))()
		if err != nil {
			l.adaptivePoisoned = true
			l.adaptiveErr = fmt.Errorf("%w: %s: %v", ErrAdaptiveUnavailable, l.desc.Name, err)
			l.diag.AdaptivePoisoned(capabilityType[T](), l.adaptiveErr)
			return zero, l.adaptiveErr
		}
		inst = v.(T)
	}

	l.reportInjection(inst, injector.Inject(inst, l.factory))
	l.adaptiveInstance = inst
	l.adaptiveReady = true
	return inst, nil
}

// Activate returns the ordered sequence of instances the auto-activation
// algorithm selects for url, group, and the caller's explicit values list.
// See package activate for the selection algorithm itself.
func (l *Loader[T]) Activate(url apis.URL, group string, values []string) ([]T, error) {
	if l.invalid.Load() {
		return nil, fmt.Errorf("%w", ErrInvalidCapability)
	}
	l.ensureClassified()
	if l.manifestErr != nil {
		return nil, l.manifestErr
	}

	cands := make([]activate.Candidate, 0, len(l.activateOrder))
	for _, name := range l.activateOrder {
		cands = append(cands, activate.Candidate{Name: name, Meta: l.activates[name]})
	}
	names := activate.Select(cands, url, group, values)

	out := make([]T, 0, len(names))
	for _, n := range names {
		inst, err := l.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// RegisterInstance publishes inst as the singleton for name, bypassing
// manifest resolution entirely. It is meant for tests that want a fixture
// instance without registering a classreg constructor and writing a
// manifest fixture for it.
func (l *Loader[T]) RegisterInstance(name string, inst T) error {
	if name == "" {
		return ErrInvalidName
	}
	h := l.nameHolder(name)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = inst
	h.err = nil
	h.ready = true
	return nil
}

// Replace overwrites whatever is currently cached for name with inst. It
// differs from RegisterInstance only in intent: Replace is for swapping out
// a previously loaded instance mid-test, not for seeding one that was never
// resolvable from a manifest.
func (l *Loader[T]) Replace(name string, inst T) error {
	return l.RegisterInstance(name, inst)
}

// SupportedNames returns every resolvable extension name for this
// capability, sorted.
func (l *Loader[T]) SupportedNames() []string {
	l.ensureClassified()
	out := make([]string, 0, len(l.names))
	for n := range l.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Errors returns a snapshot of per-name class-load failures recorded
// during classification (ClassLoadError in the base spec's taxonomy).
func (l *Loader[T]) Errors() map[string]error {
	l.ensureClassified()
	out := make(map[string]error, len(l.loadErrors))
	for k, v := range l.loadErrors {
		out[k] = v
	}
	return out
}

// SetDiagnostics attaches a Recorder that injection warnings, class-load
// failures, manifest errors, and adaptive poisoning are reported to. A nil
// Recorder (the default) makes every report a no-op.
func (l *Loader[T]) SetDiagnostics(d *diagnostics.Recorder) {
	l.diag = d
}

// SetExtensionFactory overrides the ExtensionFactory used for setter
// injection. RegisterCapability already wires DefaultExtensionFactory for
// every capability but ExtensionFactory itself; call this to supply a
// custom chain (see injector.NewFactoryChain).
func (l *Loader[T]) SetExtensionFactory(f apis.ExtensionFactory) {
	l.factory = f
}
