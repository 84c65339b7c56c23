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

// Package injector performs setter injection on freshly constructed
// extension instances. Go has full reflection, unlike the systems-language
// target the base spec has in mind, so unlike classreg's registration-time
// vtable substitute for constructors, injection is done here with real
// reflect.Value.Call — the same tradeoff the base spec's Design Notes §9(a)
// calls out explicitly as available to implementers with pervasive
// reflection.
package injector

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/pengbina/dubbo/apis"
)

// NoInject is an opt-in marker interface an extension can implement to
// exclude specific setters from injection. Go has no method-level
// annotations, so this stands in for a per-method DisableInject marker.
type NoInject interface {
	// DisableInject returns the property names (as derived by Inject) that
	// must never be auto-wired.
	DisableInject() []string
}

// Inject walks every exported, single-argument SetXxx method on instance
// and asks factory for a value of the parameter's type under the derived
// property name. A provided value is passed to the setter; a setter the
// factory has nothing for is left untouched. Injection failures are
// collected and returned rather than aborting: the base spec's
// InjectionWarning is logged, never thrown, so a single bad setter must
// not poison the rest of construction. A nil factory (the ExtensionFactory
// cycle-break case) makes Inject a no-op.
func Inject(instance any, factory apis.ExtensionFactory) []error {
	if instance == nil || factory == nil {
		return nil
	}
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return nil
	}
	t := v.Type()

	var disabled map[string]bool
	if ni, ok := instance.(NoInject); ok {
		disabled = make(map[string]bool)
		for _, p := range ni.DisableInject() {
			disabled[p] = true
		}
	}

	var warnings []error
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !strings.HasPrefix(m.Name, "Set") || len(m.Name) <= len("Set") {
			continue
		}
		mv := v.Method(i)
		mt := mv.Type()
		if mt.NumIn() != 1 || mt.NumOut() > 1 {
			continue
		}
		property := lowerFirst(strings.TrimPrefix(m.Name, "Set"))
		if disabled[property] {
			continue
		}
		paramType := mt.In(0)
		val, ok := factory.GetExtension(paramType, property)
		if !ok || val == nil {
			continue
		}
		rv := reflect.ValueOf(val)
		if !rv.Type().AssignableTo(paramType) {
			warnings = append(warnings, fmt.Errorf("injector: %s.%s: value of type %s not assignable to %s",
				t, m.Name, rv.Type(), paramType))
			continue
		}
		if err := call(mv, rv); err != nil {
			warnings = append(warnings, fmt.Errorf("injector: %s.%s: %w", t, m.Name, err))
		}
	}
	return warnings
}

func call(mv, arg reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during setter call: %v", r)
		}
	}()
	mv.Call([]reflect.Value{arg})
	return nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// NewFactoryChain builds an apis.ExtensionFactory that tries each strategy
// in order and returns the first match. Nil strategies are dropped.
func NewFactoryChain(strategies ...apis.FactoryStrategy) apis.ExtensionFactory {
	out := make([]apis.FactoryStrategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return factoryChain{strats: out}
}

type factoryChain struct {
	strats []apis.FactoryStrategy
}

func (c factoryChain) GetExtension(t reflect.Type, property string) (any, bool) {
	for _, s := range c.strats {
		if v, ok := s.TryProvide(t, property); ok {
			return v, true
		}
	}
	return nil, false
}
