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

// Package codegen synthesizes the Go source of a capability's adaptive
// dispatcher: a type implementing T whose adaptive methods resolve an
// extension name from a URL bag at call time and delegate to
// spi.LoaderFor[T]().Get(name). Go has no runtime bytecode weaving, so
// where the base spec's synthesizer hands a class to an in-process
// Compiler, this package only ever produces text — cmd/spigen is what
// turns that text into a file on disk that the Go toolchain compiles
// normally (see compiler.Compiler for the alternative, developer-time
// dynamic path).
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"regexp"
	"strings"
	"text/template"
)

// ErrNoAdaptiveMethod is returned when a capability has no method marked
// adaptive; there is nothing for the synthesizer to generate.
var ErrNoAdaptiveMethod = errors.New("codegen: capability has no adaptive method")

// ErrNoURLSource is returned when an adaptive method has neither a direct
// URL-typed parameter nor a parameter exposing a zero-argument getter that
// returns one.
var ErrNoURLSource = errors.New("codegen: adaptive method has no URL parameter or getter")

// ParamSpec describes one parameter of a capability method as source text;
// codegen never sees Go types directly; the caller (typically cmd/spigen,
// decoding a JSON Spec) supplies them in their string form.
type ParamSpec struct {
	Name string
	Type string
	// IsURL marks this parameter as directly implementing apis.URL.
	IsURL bool
	// URLGetter, when non-empty, is the name of a zero-argument method on
	// this parameter that returns an apis.URL — used when no parameter is
	// itself the URL bag (the base spec's getter-scan fallback).
	URLGetter string
	// IsInvocation marks this parameter as implementing apis.Invocation,
	// so the generated body reads url.MethodParameter(inv.MethodName(),
	// key, def) instead of url.ParameterOr(key, def).
	IsInvocation bool
}

// ResultSpec describes one return value as source text.
type ResultSpec struct {
	Type string
}

// MethodSpec describes one method of the capability interface.
type MethodSpec struct {
	Name    string
	Params  []ParamSpec
	Results []ResultSpec
	// Adaptive is nil for methods with no Adaptive marker; the generated
	// body for those unconditionally panics with an UnsupportedError.
	Adaptive *AdaptiveKeys
}

// AdaptiveKeys carries the value[] lookup schedule for one adaptive
// method. Empty Keys make Generate derive a single key from the
// capability name (see DeriveKey).
type AdaptiveKeys struct {
	Keys []string
}

// Spec is the full input to Generate: one capability interface, its
// methods, and the SPI default extension name used as the innermost
// fallback in every adaptive cascade.
type Spec struct {
	// Package is the package clause the generated file will carry. It is
	// always the capability interface's own package, per the base spec's
	// "same namespace as T".
	Package string
	// CapabilityName is T's simple name, e.g. "Transporter".
	CapabilityName string
	// DefaultName is the capability's SPI default extension name.
	DefaultName string
	// Methods lists every method of T, in declaration order.
	Methods []MethodSpec
}

// Generate renders the adaptive dispatcher source for spec. The returned
// string is gofmt-formatted Go source for a file named
// <lowercase CapabilityName>_adaptive_gen.go, whose init() registers
// itself with classreg.RegisterAdaptive — cmd/spigen is what actually
// writes it to disk.
func Generate(spec Spec) (string, error) {
	hasAdaptive := false
	for _, m := range spec.Methods {
		if m.Adaptive != nil {
			hasAdaptive = true
			if _, _, ok := findURLSource(m); !ok {
				return "", fmt.Errorf("%w: %s.%s", ErrNoURLSource, spec.CapabilityName, m.Name)
			}
		}
	}
	if !hasAdaptive {
		return "", fmt.Errorf("%w: %s", ErrNoAdaptiveMethod, spec.CapabilityName)
	}

	type methodView struct {
		MethodSpec
		ParamList  string
		ResultList string
		Body       string
	}
	view := struct {
		Package        string
		CapabilityName string
		TypeName       string
		DefaultName    string
		Methods        []methodView
	}{
		Package:        spec.Package,
		CapabilityName: spec.CapabilityName,
		TypeName:       lowerFirst(spec.CapabilityName) + "Adaptive",
		DefaultName:    spec.DefaultName,
	}

	for _, m := range spec.Methods {
		mv := methodView{MethodSpec: m}
		mv.ParamList = renderParams(m.Params)
		mv.ResultList = renderResults(m.Results)
		if m.Adaptive == nil {
			mv.Body = renderUnsupportedBody(m)
		} else {
			body, err := renderAdaptiveBody(spec, m)
			if err != nil {
				return "", err
			}
			mv.Body = body
		}
		view.Methods = append(view.Methods, mv)
	}

	var buf bytes.Buffer
	if err := adaptiveTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("codegen: rendering template: %w", err)
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return buf.String(), fmt.Errorf("codegen: gofmt: %w", err)
	}
	return string(out), nil
}

var boundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// DeriveKey implements the base spec's fallback key derivation: split the
// capability's simple name at uppercase boundaries, lowercase, join with
// ".". Used when an AdaptiveMethod declares no explicit Keys.
func DeriveKey(capabilityName string) string {
	spaced := boundary.ReplaceAllString(capabilityName, "$1.$2")
	return strings.ToLower(spaced)
}

func findURLSource(m MethodSpec) (paramIndex int, getter string, ok bool) {
	for i, p := range m.Params {
		if p.IsURL {
			return i, "", true
		}
	}
	for i, p := range m.Params {
		if p.URLGetter != "" {
			return i, p.URLGetter, true
		}
	}
	return 0, "", false
}

func renderParams(params []ParamSpec) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + " " + p.Type
	}
	return strings.Join(parts, ", ")
}

func renderResults(results []ResultSpec) string {
	if len(results) == 0 {
		return ""
	}
	if len(results) == 1 {
		return results[0].Type
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Type
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func renderUnsupportedBody(m MethodSpec) string {
	return fmt.Sprintf("\tpanic(codegen.NewUnsupportedError(%q))\n", m.Name)
}

func lastIsError(results []ResultSpec) bool {
	if len(results) == 0 {
		return false
	}
	return results[len(results)-1].Type == "error"
}

func renderAdaptiveBody(spec Spec, m MethodSpec) (string, error) {
	idx, getter, ok := findURLSource(m)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrNoURLSource, spec.CapabilityName, m.Name)
	}
	p := m.Params[idx]

	var b strings.Builder
	urlExpr := p.Name
	if getter != "" {
		fmt.Fprintf(&b, "\tif %s == nil {\n", p.Name)
		fmt.Fprintf(&b, "\t\tpanic(codegen.NewUnsupportedError(%q))\n", m.Name)
		b.WriteString("\t}\n")
		urlExpr = fmt.Sprintf("%s.%s()", p.Name, getter)
	}
	fmt.Fprintf(&b, "\turl := %s\n", urlExpr)
	b.WriteString("\tif url == nil {\n")
	if lastIsError(m.Results) {
		fmt.Fprintf(&b, "\t\t%s\n", errorReturn(m.Results, fmt.Sprintf("fmt.Errorf(%q)", spec.CapabilityName+": "+m.Name+": nil URL")))
	} else {
		fmt.Fprintf(&b, "\t\tpanic(codegen.NewUnsupportedError(%q))\n", m.Name)
	}
	b.WriteString("\t}\n")

	invParam := ""
	for _, pp := range m.Params {
		if pp.IsInvocation {
			invParam = pp.Name
			break
		}
	}

	keys := m.Adaptive.Keys
	if len(keys) == 0 {
		keys = []string{DeriveKey(spec.CapabilityName)}
	}
	expr := fmt.Sprintf("%q", spec.DefaultName)
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		if key == "protocol" {
			expr = fmt.Sprintf("protocolOr(url, %s)", expr)
			continue
		}
		if invParam != "" {
			expr = fmt.Sprintf("url.MethodParameter(%s.MethodName(), %q, %s)", invParam, key, expr)
		} else {
			expr = fmt.Sprintf("url.ParameterOr(%q, %s)", key, expr)
		}
	}
	fmt.Fprintf(&b, "\textName := %s\n", expr)
	b.WriteString("\tif extName == \"\" {\n")
	if lastIsError(m.Results) {
		fmt.Fprintf(&b, "\t\t%s\n", errorReturn(m.Results, fmt.Sprintf("fmt.Errorf(%q)", spec.CapabilityName+": "+m.Name+": empty extension name")))
	} else {
		fmt.Fprintf(&b, "\t\tpanic(codegen.NewUnsupportedError(%q))\n", m.Name)
	}
	b.WriteString("\t}\n")

	callArgs := make([]string, len(m.Params))
	for i, pp := range m.Params {
		callArgs[i] = pp.Name
	}

	fmt.Fprintf(&b, "\text, err := spi.LoaderFor[%s]().Get(extName)\n", spec.CapabilityName)
	b.WriteString("\tif err != nil {\n")
	if lastIsError(m.Results) {
		fmt.Fprintf(&b, "\t\t%s\n", errorReturn(m.Results, "err"))
	} else {
		b.WriteString("\t\tpanic(err)\n")
	}
	b.WriteString("\t}\n")
	fmt.Fprintf(&b, "\treturn ext.%s(%s)\n", m.Name, strings.Join(callArgs, ", "))
	return b.String(), nil
}

// errorReturn renders a "return ..." statement for a method whose last
// result is error, given the leading (non-error) results are zeroed and
// errExpr is the expression to use for the final error value.
func errorReturn(results []ResultSpec, errExpr string) string {
	if len(results) <= 1 {
		return fmt.Sprintf("return %s", errExpr)
	}
	parts := make([]string, len(results)-1)
	for i, r := range results[:len(results)-1] {
		parts[i] = fmt.Sprintf("*new(%s)", r.Type)
	}
	return fmt.Sprintf("return %s, %s", strings.Join(parts, ", "), errExpr)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

var adaptiveTemplate = template.Must(template.New("adaptive").Parse(`// Code generated by spigen. DO NOT EDIT.

package {{.Package}}

import (
	"fmt"

	"github.com/pengbina/dubbo/classreg"
	"github.com/pengbina/dubbo/codegen"
	"github.com/pengbina/dubbo/spi"
)

type {{.TypeName}} struct{}

func init() {
	classreg.RegisterAdaptive[{{.CapabilityName}}]("{{.CapabilityName}}$Adaptive", func() {{.CapabilityName}} {
		return &{{.TypeName}}{}
	})
}

{{range .Methods}}
func (a *{{$.TypeName}}) {{.Name}}({{.ParamList}}) {{.ResultList}} {
{{.Body}}}
{{end}}

func protocolOr(url interface{ Protocol() (string, bool) }, def string) string {
	if p, ok := url.Protocol(); ok && p != "" {
		return p
	}
	return def
}

var _ = fmt.Sprintf
`))
