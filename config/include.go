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
	"path"
	"strings"

	"github.com/koffeinflummi/pbokit/core/fault"
)

const (
	// ErrIncludeNotFound is returned when a #include target cannot be
	// resolved by Resolver or against any configured include root.
	ErrIncludeNotFound = fault.Const("config: include target not found")
	// ErrCircularInclude is not returned by Preprocess: a file that
	// transitively includes itself fails with ErrIncludeDepth once
	// #include nesting passes 32 levels.
	ErrCircularInclude = fault.Const("config: circular #include")
)

// Resolver resolves an #include target relative to the including file's
// logical path. A relative target (no leading backslash) is resolved
// against the including file's directory before Resolver is consulted;
// Resolver is always responsible for absolute ("rooted") targets, walking
// each configured include root to find a matching $PBOPREFIX$ marker.
//
// The caller owns filesystem access (per §1, globbing and file I/O external
// collaborators own the filesystem); Resolver returns the included file's
// already-read source text and its canonical logical path (used for
// lineref and nested #include resolution).
type Resolver interface {
	Resolve(target, fromLogicalPath string) (src string, logicalPath string, ok bool)
}

// ResolverFunc adapts a plain function to a Resolver.
type ResolverFunc func(target, fromLogicalPath string) (string, string, bool)

func (f ResolverFunc) Resolve(target, from string) (string, string, bool) { return f(target, from) }

// normalizeLogicalPath converts forward slashes to the engine's backslash
// convention, matching the "path-separator-normalized to backslashes"
// invariant of §4.1.1's include resolution.
func normalizeLogicalPath(p string) string {
	return strings.ReplaceAll(p, "/", "\\")
}

func isRelativeInclude(target string) bool {
	return !strings.HasPrefix(target, "\\") && !strings.HasPrefix(target, "/")
}

// joinRelative resolves a relative include target against the directory of
// fromLogicalPath.
func joinRelative(fromLogicalPath, target string) string {
	dir := path.Dir(strings.ReplaceAll(fromLogicalPath, "\\", "/"))
	if dir == "." {
		dir = ""
	}
	joined := path.Join(dir, strings.ReplaceAll(target, "\\", "/"))
	return normalizeLogicalPath(joined)
}
