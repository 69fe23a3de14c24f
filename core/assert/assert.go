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

// Package assert is the small fluent assertion library used by every
// _test.go file in this module, in place of an external library such as
// testify. The entry point is For, which binds to a *testing.T (or anything
// with the same Fatal/Error/Log surface).
//
//	assert.For(t, "rapified size").That(len(got)).Equals(len(want))
package assert

import (
	"fmt"
	"reflect"
)

// Output matches the subset of *testing.T used to report failures.
type Output interface {
	Fatal(args ...interface{})
	Error(args ...interface{})
}

// Assertion is the start of a fluent assertion chain, named for the value
// under test so failures are easy to place.
type Assertion struct {
	out  Output
	name string
}

// For begins an assertion chain against out, labelled name.
func For(out Output, name string, args ...interface{}) Assertion {
	if len(args) > 0 {
		name = fmt.Sprintf(name, args...)
	}
	return Assertion{out: out, name: name}
}

func (a Assertion) fail(format string, args ...interface{}) {
	a.out.Error(fmt.Sprintf("%s: %s", a.name, fmt.Sprintf(format, args...)))
}

// OnValue is the fluent assertion surface returned by That.
type OnValue struct {
	Assertion
	value interface{}
}

// That starts a generic assertion on value.
func (a Assertion) That(value interface{}) OnValue {
	return OnValue{Assertion: a, value: value}
}

// Equals asserts the value deep-equals want.
func (o OnValue) Equals(want interface{}) bool {
	if reflect.DeepEqual(o.value, want) {
		return true
	}
	o.fail("got %#v, want %#v", o.value, want)
	return false
}

// DeepEquals is an explicit alias for Equals, matching call sites that
// assert equality of composite AST/mesh values.
func (o OnValue) DeepEquals(want interface{}) bool { return o.Equals(want) }

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Ptr, reflect.Interface, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}

// IsNil asserts the value is nil (including typed nils).
func (o OnValue) IsNil() bool {
	if isNil(o.value) {
		return true
	}
	o.fail("got %#v, want nil", o.value)
	return false
}

// IsNotNil asserts the value is not nil.
func (o OnValue) IsNotNil() bool {
	if !isNil(o.value) {
		return true
	}
	o.fail("got nil")
	return false
}

// IsTrue asserts a boolean value is true.
func (o OnValue) IsTrue() bool {
	if b, ok := o.value.(bool); ok && b {
		return true
	}
	o.fail("got %#v, want true", o.value)
	return false
}

// IsFalse asserts a boolean value is false.
func (o OnValue) IsFalse() bool {
	if b, ok := o.value.(bool); ok && !b {
		return true
	}
	o.fail("got %#v, want false", o.value)
	return false
}

// OnError is the fluent assertion surface returned by ThatError.
type OnError struct {
	Assertion
	err error
}

// ThatError starts an assertion chain on an error value.
func (a Assertion) ThatError(err error) OnError { return OnError{Assertion: a, err: err} }

// Succeeded asserts the error is nil.
func (o OnError) Succeeded() bool {
	if o.err == nil {
		return true
	}
	o.fail("unexpected error: %v", o.err)
	return false
}

// Failed asserts the error is non-nil.
func (o OnError) Failed() bool {
	if o.err != nil {
		return true
	}
	o.fail("expected an error, got nil")
	return false
}

// HasMessage asserts the error's message equals want.
func (o OnError) HasMessage(want string) bool {
	if o.err != nil && o.err.Error() == want {
		return true
	}
	o.fail("got error %v, want message %q", o.err, want)
	return false
}
