// Copyright (C) 2024 The Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"
)

// Found reports the outcome of a Lookup. Lookup returns FoundValue when a
// variable matches the path and NotFound otherwise, including when a
// segment names no class; it never returns FoundClass.
type Found int

const (
	NotFound Found = iota
	FoundValue
	FoundClass
)

// Lookup resolves a ">>"-delimited path (e.g. "CfgFoo >> Bar >> value")
// against ast's root, case-insensitively, falling back to each class's
// parent chain when a segment is missing directly. Grounded on armake's
// seek_config_path.
func (a *AST) Lookup(path string) (Expr, Found) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return Expr{}, NotFound
	}
	return a.lookupIn(&a.Root, segments)
}

func splitPath(path string) []string {
	parts := strings.Split(path, ">>")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (a *AST) lookupIn(cls *Class, segments []string) (Expr, Found) {
	if len(segments) == 0 {
		return Expr{}, NotFound
	}
	name := segments[0]
	rest := segments[1:]

	if len(rest) == 0 {
		if v, ok := findVariable(cls, name); ok {
			return v, FoundValue
		}
		return a.lookupInherited(cls, segments)
	}

	if child, ok := findClass(a, cls, name); ok {
		if v, found := a.lookupIn(child, rest); found != NotFound {
			return v, found
		}
	}
	return a.lookupInherited(cls, segments)
}

// lookupInherited retries the same segment path against cls's parent class,
// walking the parent chain recursively. Parent names are looked up among
// the root's top-level classes only, and the classes enclosing cls are not
// searched.
func (a *AST) lookupInherited(cls *Class, segments []string) (Expr, Found) {
	if cls.Parent == "" {
		return Expr{}, NotFound
	}
	if parent, ok := findClass(a, &a.Root, cls.Parent); ok {
		return a.lookupIn(parent, segments)
	}
	return Expr{}, NotFound
}

func findVariable(cls *Class, name string) (Expr, bool) {
	for _, def := range cls.Defs {
		if def.Kind == DefVariable && strings.EqualFold(def.Variable.Name, name) {
			return def.Variable.Value, true
		}
	}
	return Expr{}, false
}

func findClass(a *AST, cls *Class, name string) (*Class, bool) {
	for _, def := range cls.Defs {
		if def.Kind == DefClass && strings.EqualFold(def.Name, name) {
			return a.ClassAt(def.Class), true
		}
	}
	return nil, false
}
