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

package spi_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/pengbina/dubbo/apis"
	"github.com/pengbina/dubbo/classreg"
	"github.com/pengbina/dubbo/manifest"
	"github.com/pengbina/dubbo/spi"
)

type greeter interface {
	Greet() string
}

type englishGreeter struct{}

func (englishGreeter) Greet() string { return "hello" }

type frenchGreeter struct{}

func (frenchGreeter) Greet() string { return "bonjour" }

type loudGreeter struct {
	inner greeter
}

func (l loudGreeter) Greet() string { return l.inner.Greet() + "!" }

func wrapLoud(g greeter) greeter { return loudGreeter{inner: g} }

type mapURL map[string]string

func (u mapURL) Parameter(key string) (string, bool) { v, ok := u[key]; return v, ok }
func (u mapURL) ParameterOr(key, def string) string {
	if v, ok := u[key]; ok && v != "" {
		return v
	}
	return def
}
func (u mapURL) Protocol() (string, bool) { v, ok := u["protocol"]; return v, ok }
func (u mapURL) Range(fn func(key, value string) bool) {
	for k, v := range u {
		if !fn(k, v) {
			return
		}
	}
}
func (mapURL) MethodParameter(string, string, string) string { return "" }

func fixtureFS(content string) fstest.MapFS {
	return fstest.MapFS{
		"dubbo/cap.Greeter": &fstest.MapFile{Data: []byte(content)},
	}
}

func cleanup(t *testing.T) {
	t.Cleanup(classreg.Reset)
	t.Cleanup(spi.Reset)
}

func TestGet_BasicResolutionAndSingleton(t *testing.T) {
	cleanup(t)
	if err := classreg.Register[greeter]("pkg.EnglishGreeter", func() greeter { return englishGreeter{} }); err != nil {
		t.Fatalf("Register: %v", err)
	}
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("en=pkg.EnglishGreeter\n")}
	loader, err := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter", DefaultName: "en"}, cfg)
	if err != nil {
		t.Fatalf("RegisterCapability: %v", err)
	}

	g1, err := loader.Get("en")
	if err != nil {
		t.Fatalf("Get(en): %v", err)
	}
	if g1.Greet() != "hello" {
		t.Fatalf("Greet() = %q, want hello", g1.Greet())
	}

	g2, err := loader.Get("en")
	if err != nil {
		t.Fatalf("Get(en) again: %v", err)
	}
	if g1 != g2 {
		t.Fatalf("Get(en) returned different instances across calls")
	}

	def, err := loader.DefaultInstance()
	if err != nil || def.Greet() != "hello" {
		t.Fatalf("DefaultInstance() = (%v, %v), want (hello, nil)", def, err)
	}

	viaTrue, err := loader.Get("true")
	if err != nil || viaTrue != def {
		t.Fatalf(`Get("true") = (%v, %v), want same as DefaultInstance`, viaTrue, err)
	}
}

func TestGet_UnknownNameAndUnregisteredManifestClass(t *testing.T) {
	cleanup(t)
	classreg.Register[greeter]("pkg.EnglishGreeter", func() greeter { return englishGreeter{} })
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("en=pkg.EnglishGreeter\nfr=pkg.MissingFrenchGreeter\n")}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)

	if _, err := loader.Get("zz"); !errors.Is(err, spi.ErrUnknownExtension) {
		t.Fatalf("Get(zz): got %v, want ErrUnknownExtension", err)
	}
	if _, err := loader.Get("fr"); !errors.Is(err, classreg.ErrClassNotFound) {
		t.Fatalf("Get(fr): got %v, want wrapped ErrClassNotFound", err)
	}
	loadErrs := loader.Errors()
	if _, ok := loadErrs["fr"]; !ok {
		t.Fatalf("Errors() = %v, want entry for fr", loadErrs)
	}
}

func TestGet_EmptyNameIsInvalid(t *testing.T) {
	cleanup(t)
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("")}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)
	if _, err := loader.Get(""); !errors.Is(err, spi.ErrInvalidName) {
		t.Fatalf("Get(\"\"): got %v, want ErrInvalidName", err)
	}
}

func TestDefaultInstance_NoDefaultIsNotAnError(t *testing.T) {
	cleanup(t)
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("")}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)
	inst, err := loader.DefaultInstance()
	if err != nil {
		t.Fatalf("DefaultInstance(): unexpected error %v", err)
	}
	if inst != nil {
		t.Fatalf("DefaultInstance(): got %v, want zero value", inst)
	}
}

func TestRegisterCapability_ValidatesDescriptor(t *testing.T) {
	cleanup(t)
	if _, err := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Fqn: "cap.Greeter"}, apis.Config{}); !errors.Is(err, spi.ErrInvalidCapability) {
		t.Fatalf("empty name: got %v, want ErrInvalidCapability", err)
	}
	if _, err := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter"}, apis.Config{}); !errors.Is(err, spi.ErrInvalidCapability) {
		t.Fatalf("empty fqn: got %v, want ErrInvalidCapability", err)
	}
	if _, err := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter", DefaultName: "en,fr"}, apis.Config{}); !errors.Is(err, spi.ErrInvalidCapability) {
		t.Fatalf("multi-token default: got %v, want ErrInvalidCapability", err)
	}
}

type unregisteredCapability interface{ Noop() }

func TestLoaderFor_UnregisteredCapabilityIsInvalid(t *testing.T) {
	cleanup(t)
	loader := spi.LoaderFor[unregisteredCapability]()
	if _, err := loader.Get("anything"); !errors.Is(err, spi.ErrInvalidCapability) {
		t.Fatalf("Get on unregistered capability: got %v, want ErrInvalidCapability", err)
	}
	if _, err := loader.Adaptive(); !errors.Is(err, spi.ErrInvalidCapability) {
		t.Fatalf("Adaptive on unregistered capability: got %v, want ErrInvalidCapability", err)
	}
}

func TestWrapper_DecoratesPlainInstanceAndTakesNoName(t *testing.T) {
	cleanup(t)
	classreg.Register[greeter]("pkg.EnglishGreeter", func() greeter { return englishGreeter{} })
	classreg.RegisterWrapper[greeter]("pkg.LoudGreeter", wrapLoud)
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("en=pkg.EnglishGreeter\nloud=pkg.LoudGreeter\n")}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)

	g, err := loader.Get("en")
	if err != nil {
		t.Fatalf("Get(en): %v", err)
	}
	if g.Greet() != "hello!" {
		t.Fatalf("Greet() = %q, want hello! (wrapped)", g.Greet())
	}
	if names := loader.SupportedNames(); len(names) != 1 || names[0] != "en" {
		t.Fatalf("SupportedNames() = %v, want [en] (wrapper fqn must not occupy a name)", names)
	}
}

func TestAdaptive_ResolvesSelfRegisteredAdaptiveDescriptor(t *testing.T) {
	cleanup(t)
	classreg.RegisterAdaptive[greeter]("pkg.Greeter$Adaptive", func() greeter { return frenchGreeter{} })
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("")}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)

	inst, err := loader.Adaptive()
	if err != nil {
		t.Fatalf("Adaptive(): %v", err)
	}
	if inst.Greet() != "bonjour" {
		t.Fatalf("Adaptive().Greet() = %q, want bonjour", inst.Greet())
	}

	again, err := loader.Adaptive()
	if err != nil || again != inst {
		t.Fatalf("Adaptive() second call = (%v, %v), want cached same instance", again, err)
	}
}

func TestAdaptive_UnavailableWithoutClassOrSynthesizer(t *testing.T) {
	cleanup(t)
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("")}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)

	if _, err := loader.Adaptive(); !errors.Is(err, spi.ErrAdaptiveUnavailable) {
		t.Fatalf("Adaptive(): got %v, want ErrAdaptiveUnavailable", err)
	}
	// Failure is sticky.
	if _, err := loader.Adaptive(); !errors.Is(err, spi.ErrAdaptiveUnavailable) {
		t.Fatalf("Adaptive() second call: got %v, want ErrAdaptiveUnavailable again", err)
	}
}

func TestAdaptive_FallsBackToRegisteredSynthesizer(t *testing.T) {
	cleanup(t)
	spi.RegisterAdaptiveSynthesizer[greeter](func() (greeter, error) { return englishGreeter{}, nil })
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("")}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)

	inst, err := loader.Adaptive()
	if err != nil {
		t.Fatalf("Adaptive(): %v", err)
	}
	if inst.Greet() != "hello" {
		t.Fatalf("Adaptive().Greet() = %q, want hello", inst.Greet())
	}
}

func TestActivate_GroupAndValueFiltering(t *testing.T) {
	cleanup(t)
	classreg.Register[greeter]("pkg.EnglishGreeter", func() greeter { return englishGreeter{} })
	classreg.Register[greeter]("pkg.FrenchGreeter", func() greeter { return frenchGreeter{} })
	classreg.RegisterActivate[greeter]("pkg.EnglishGreeter", apis.Activate{Group: []string{"provider"}, Order: 1})
	classreg.RegisterActivate[greeter]("pkg.FrenchGreeter", apis.Activate{Group: []string{"consumer"}, Order: 1})
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("en=pkg.EnglishGreeter\nfr=pkg.FrenchGreeter\n")}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)

	insts, err := loader.Activate(mapURL{}, "provider", nil)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if len(insts) != 1 || insts[0].Greet() != "hello" {
		t.Fatalf("Activate(provider) = %v, want [hello]", insts)
	}
}

func TestManifest_DuplicateNameDifferentFqnIsFatal(t *testing.T) {
	cleanup(t)
	cfg := apis.Config{
		SearchDirs: []string{"a", "b"},
		FS: fstest.MapFS{
			"a/cap.Greeter": &fstest.MapFile{Data: []byte("en=pkg.EnglishGreeter\n")},
			"b/cap.Greeter": &fstest.MapFile{Data: []byte("en=pkg.OtherGreeter\n")},
		},
	}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)
	if _, err := loader.Get("en"); !errors.Is(err, manifest.ErrManifest) {
		t.Fatalf("Get(en): got %v, want ErrManifest", err)
	}
}

func TestRegisterInstance_BypassesManifestResolution(t *testing.T) {
	cleanup(t)
	cfg := apis.Config{SearchDirs: []string{"dubbo"}, FS: fixtureFS("")}
	loader, _ := spi.RegisterCapability[greeter](apis.CapabilityDescriptor{Name: "Greeter", Fqn: "cap.Greeter"}, cfg)

	fixture := englishGreeter{}
	if err := loader.RegisterInstance("fixture", fixture); err != nil {
		t.Fatalf("RegisterInstance: %v", err)
	}
	got, err := loader.Get("fixture")
	if err != nil || got.Greet() != "hello" {
		t.Fatalf("Get(fixture) = (%v, %v), want hello", got, err)
	}
}
