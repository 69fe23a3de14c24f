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

package pack

import "strings"

// Filter matches a logical archive entry name. The CLI dispatcher builds
// Filters from its --exclude/--include glob flags and passes them in; this
// package only evaluates them, per §1's "the caller owns globbing."
type Filter func(name string) bool

// Glob compiles one `*`/`?` glob pattern into a case-insensitive Filter, in
// the style armake's exclude/include lists use.
func Glob(pattern string) Filter {
	pattern = strings.ToLower(pattern)
	return func(name string) bool {
		return globMatch(pattern, strings.ToLower(name))
	}
}

// GlobAny ORs together a list of patterns into a single Filter that matches
// if any pattern matches.
func GlobAny(patterns []string) Filter {
	fs := make([]Filter, len(patterns))
	for i, p := range patterns {
		fs[i] = Glob(p)
	}
	return func(name string) bool {
		for _, f := range fs {
			if f(name) {
				return true
			}
		}
		return false
	}
}

// globMatch implements `*` (any run of characters) and `?` (any single
// character) matching without backtracking pathologies, via the classic
// two-pointer algorithm.
func globMatch(pattern, name string) bool {
	var pi, ni int
	starIdx, match := -1, 0
	for ni < len(name) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == name[ni]):
			pi++
			ni++
		case pi < len(pattern) && pattern[pi] == '*':
			starIdx = pi
			match = ni
			pi++
		case starIdx != -1:
			pi = starIdx + 1
			match++
			ni = match
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
