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

// Package diagnostics records the non-fatal events a Loader produces while
// it runs: injection warnings and per-name class-load failures. Nothing in
// this module raises these as errors, since the base spec treats them as
// observable but not terminal, so they need somewhere to go that isn't
// stderr. The event shape and JSONL sink are modeled directly on
// papapumpkin-quasar's internal/telemetry package; entity names in events
// are resolved through internal/identity rather than printed as bare
// %T/reflect.Type strings.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/pengbina/dubbo/internal/identity"
)

// Event kinds recorded by a Recorder.
const (
	KindInjectionWarning = "injection_warning"
	KindClassLoadError   = "class_load_error"
	KindAdaptivePoisoned = "adaptive_poisoned"
	KindManifestError    = "manifest_error"
)

// Event is one recorded diagnostic. Capability and Name identify which
// loader and extension the event concerns, when applicable; Message carries
// the underlying error text.
type Event struct {
	Timestamp  time.Time `json:"ts"`
	Kind       string    `json:"kind"`
	Capability string    `json:"capability,omitempty"`
	Name       string    `json:"name,omitempty"`
	Message    string    `json:"message"`
}

// Recorder writes diagnostic events to a JSONL sink. It is safe for
// concurrent use; a nil *Recorder is a valid no-op sink, so callers can pass
// one around unconditionally without a nil check at every call site.
type Recorder struct {
	mu  sync.Mutex
	enc *json.Encoder
	w   *os.File
}

// NewRecorder opens (creating if necessary, appending otherwise) a JSONL
// sink at path.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: open %s: %w", path, err)
	}
	return &Recorder{enc: json.NewEncoder(f), w: f}, nil
}

// record writes evt, stamping the timestamp. Calling record on a nil
// Recorder is a no-op.
func (r *Recorder) record(evt Event) {
	if r == nil {
		return
	}
	evt.Timestamp = now()
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(evt)
}

// InjectionWarning records a setter-injection failure for one property on
// an instance of capability T. The instance's dynamic type is named through
// internal/identity rather than reflect.Type.String(), matching the rest of
// this module's diagnostic surface.
func (r *Recorder) InjectionWarning(capability reflect.Type, instance any, err error) {
	r.record(Event{
		Kind:       KindInjectionWarning,
		Capability: identity.EntityType(capability),
		Name:       identity.Entity(instance),
		Message:    err.Error(),
	})
}

// ClassLoadError records a manifest entry whose fqn had no registered
// class, or any other per-name classification failure.
func (r *Recorder) ClassLoadError(capability reflect.Type, name string, err error) {
	r.record(Event{
		Kind:       KindClassLoadError,
		Capability: identity.EntityType(capability),
		Name:       name,
		Message:    err.Error(),
	})
}

// AdaptivePoisoned records an Adaptive() call that failed and entered the
// sticky-failure state for capability T.
func (r *Recorder) AdaptivePoisoned(capability reflect.Type, err error) {
	r.record(Event{
		Kind:       KindAdaptivePoisoned,
		Capability: identity.EntityType(capability),
		Message:    err.Error(),
	})
}

// ManifestError records a fatal manifest merge failure (a name resolving to
// two different classes, an unreadable resource) for capability T.
func (r *Recorder) ManifestError(capability reflect.Type, err error) {
	r.record(Event{
		Kind:       KindManifestError,
		Capability: identity.EntityType(capability),
		Message:    err.Error(),
	})
}

// Close flushes and closes the underlying sink. Calling Close on a nil
// Recorder is a no-op.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.w.Close(); err != nil {
		return fmt.Errorf("diagnostics: close: %w", err)
	}
	return nil
}

// now is a var so tests can stub it; time.Now itself is fine in production
// code (unlike the workflow-script sandbox this module is built under, a
// running process may call it freely).
var now = time.Now
