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

package fault

// List is a list of collected errors, used by parsers and preprocessors
// that want to report every syntax error found rather than stopping at the
// first one.
type List []error

// First returns the first error added, or nil if the list is empty.
func (l *List) First() error {
	if len(*l) == 0 {
		return nil
	}
	return (*l)[0]
}

// Collect appends err to the list. A nil err is ignored.
func (l *List) Collect(err error) {
	if err == nil {
		return
	}
	*l = append(*l, err)
}

// Err returns a combined error for the list, or nil if it is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return multiError(l)
}

type multiError []error

func (m multiError) Error() string {
	if len(m) == 1 {
		return m[0].Error()
	}
	s := m[0].Error()
	for _, e := range m[1:] {
		s += "; " + e.Error()
	}
	return s
}

// Unwrap exposes the individual errors for errors.Is/As.
func (m multiError) Unwrap() []error { return []error(m) }
