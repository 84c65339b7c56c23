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

// Package activate implements the auto-activation selector: given a set of
// candidates carrying apis.Activate metadata, a URL, a group tag, and an
// explicit value list, it produces the ordered extension-name sequence a
// Loader should resolve and return from Activate. It has no dependency on
// spi so it can be unit-tested against synthetic candidates without a real
// registration table.
package activate

import (
	"sort"
	"strings"

	"github.com/pengbina/dubbo/apis"
)

// Candidate is one extension eligible for auto-activation, in discovery
// order (the order manifest entries were merged for its capability).
type Candidate struct {
	Name string
	Meta apis.Activate
}

// Select computes the ordered name sequence per the base spec's activation
// algorithm: an auto-activated batch (filtered by group and value[]
// predicates, sorted by before/after/order/discovery), spliced into the
// explicit values list at the position of the literal "default" token (or
// prepended, if values never mentions "default" at all — this is what
// makes an empty values list yield the auto batch alone). "-default"
// suppresses the auto batch outright; any other "-name" token is a pure
// exclusion.
func Select(candidates []Candidate, url apis.URL, group string, values []string) []string {
	named := make(map[string]bool, len(values))
	excluded := make(map[string]bool, len(values))
	suppressDefault := false
	sawDefault := false
	for _, v := range values {
		switch {
		case v == "-default":
			suppressDefault = true
		case strings.HasPrefix(v, "-"):
			excluded[strings.TrimPrefix(v, "-")] = true
		case v == "default":
			sawDefault = true
		default:
			named[v] = true
		}
	}

	var auto []Candidate
	if !suppressDefault {
		for _, c := range candidates {
			if len(c.Meta.Group) > 0 && !containsStr(c.Meta.Group, group) {
				continue
			}
			if named[c.Name] || excluded[c.Name] {
				continue
			}
			if !isActive(c.Meta.Value, url) {
				continue
			}
			auto = append(auto, c)
		}
		sort.SliceStable(auto, func(i, j int) bool { return less(auto[i], auto[j]) })
	}

	var out []string
	for _, v := range values {
		switch {
		case v == "-default":
			continue
		case strings.HasPrefix(v, "-"):
			continue
		case v == "default":
			for _, c := range auto {
				out = append(out, c.Name)
			}
		default:
			out = append(out, v)
		}
	}
	if !suppressDefault && !sawDefault {
		prefixed := make([]string, 0, len(auto)+len(out))
		for _, c := range auto {
			prefixed = append(prefixed, c.Name)
		}
		out = append(prefixed, out...)
	}
	return out
}

// isActive reports whether an extension whose Activate.Value is keys
// should be considered active for url. An empty keys list always matches.
// A key matches a URL parameter either exactly or as the suffix of a
// dotted parameter name (e.g. key "cache" matches "provider.cache"), and
// only if that parameter's value is non-empty.
func isActive(keys []string, url apis.URL) bool {
	if len(keys) == 0 {
		return true
	}
	if url == nil {
		return false
	}
	for _, key := range keys {
		found := false
		url.Range(func(k, v string) bool {
			if v == "" {
				return true
			}
			if k == key || strings.HasSuffix(k, "."+key) {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// less orders a before b when a's Before or b's After names the other,
// falls back to ascending Order, and otherwise preserves discovery order
// (relying on sort.SliceStable).
func less(a, b Candidate) bool {
	if containsStr(a.Meta.Before, b.Name) || containsStr(b.Meta.After, a.Name) {
		return true
	}
	if containsStr(b.Meta.Before, a.Name) || containsStr(a.Meta.After, b.Name) {
		return false
	}
	if a.Meta.Order != b.Meta.Order {
		return a.Meta.Order < b.Meta.Order
	}
	return false
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
