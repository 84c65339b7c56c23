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

package injector_test

import (
	"reflect"
	"testing"

	"github.com/pengbina/dubbo/injector"
)

type cache interface {
	Lookup(string) string
}

type memCache struct{}

func (memCache) Lookup(k string) string { return "v:" + k }

type widget struct {
	cache   cache
	label   string
	skipped string
}

func (w *widget) SetCache(c cache)      { w.cache = c }
func (w *widget) SetLabel(l string)     { w.label = l }
func (w *widget) SetSkipped(s string)   { w.skipped = s }
func (w *widget) DisableInject() []string { return []string{"skipped"} }

type mapFactory map[string]any

func (f mapFactory) GetExtension(t reflect.Type, property string) (any, bool) {
	v, ok := f[property]
	if !ok {
		return nil, false
	}
	if !reflect.TypeOf(v).AssignableTo(t) {
		return nil, false
	}
	return v, true
}

func TestInject_CallsMatchingSetters(t *testing.T) {
	w := &widget{}
	f := mapFactory{"cache": memCache{}, "label": "hello", "skipped": "nope"}

	warnings := injector.Inject(w, f)
	if len(warnings) != 0 {
		t.Fatalf("Inject: unexpected warnings: %v", warnings)
	}
	if w.cache == nil || w.cache.Lookup("k") != "v:k" {
		t.Fatalf("SetCache was not invoked correctly: %+v", w)
	}
	if w.label != "hello" {
		t.Fatalf("SetLabel = %q, want hello", w.label)
	}
	if w.skipped != "" {
		t.Fatalf("SetSkipped invoked despite DisableInject: %q", w.skipped)
	}
}

func TestInject_MissingValueLeavesSetterUncalled(t *testing.T) {
	w := &widget{}
	warnings := injector.Inject(w, mapFactory{})
	if len(warnings) != 0 {
		t.Fatalf("Inject: unexpected warnings: %v", warnings)
	}
	if w.cache != nil || w.label != "" {
		t.Fatalf("setters invoked with no factory values: %+v", w)
	}
}

func TestInject_NilFactoryIsNoOp(t *testing.T) {
	w := &widget{}
	if warnings := injector.Inject(w, nil); warnings != nil {
		t.Fatalf("Inject with nil factory: got %v warnings, want none", warnings)
	}
	if w.cache != nil {
		t.Fatalf("SetCache invoked despite nil factory")
	}
}

func TestInject_MismatchedTypeFilteredByFactoryNoWarningNoPanic(t *testing.T) {
	w := &widget{}
	badFactory := mapFactory{"label": 42} // wrong type for SetLabel(string)
	warnings := injector.Inject(w, badFactory)
	if len(warnings) != 0 {
		t.Fatalf("Inject: mismatched-type value should be filtered by factory, got warnings %v", warnings)
	}
	if w.label != "" {
		t.Fatalf("SetLabel invoked with mismatched type")
	}
}

func TestNewFactoryChain_TriesStrategiesInOrder(t *testing.T) {
	var calls []string
	strat := func(tag string, ok bool) chainStrategy {
		return chainStrategy{tag: tag, ok: ok, calls: &calls}
	}
	chain := injector.NewFactoryChain(strat("first", false), strat("second", true), strat("third", true))

	v, ok := chain.GetExtension(reflect.TypeOf(""), "prop")
	if !ok || v != "second" {
		t.Fatalf("GetExtension = (%v,%v), want (second,true)", v, ok)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("calls = %v, want [first second] (third never tried)", calls)
	}
}

type chainStrategy struct {
	tag   string
	ok    bool
	calls *[]string
}

func (s chainStrategy) TryProvide(_ reflect.Type, _ string) (any, bool) {
	*s.calls = append(*s.calls, s.tag)
	if !s.ok {
		return nil, false
	}
	return s.tag, true
}
