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

// Package fault holds the small set of error primitives shared by every
// format engine in this module: sentinel errors that compare with ==, and
// helpers for safely converting arbitrary values to errors.
package fault

// Const is the type for constant, comparable error values. Every sentinel
// error in this module (bad magic, circular include, unresolved include, …)
// is declared as a Const so callers can use errors.Is against it.
type Const string

// Error implements error for Const, returning the string value of the const.
func (e Const) Error() string { return string(e) }

// InvalidErrorType is returned by From when the value is non-nil but does
// not implement error.
const InvalidErrorType = Const("invalid type for error")

// From converts an arbitrary recovered value (e.g. from recover()) to an
// error safely. A nil value returns a nil error; a non-error, non-nil value
// returns InvalidErrorType.
func From(value interface{}) error {
	switch err := value.(type) {
	case nil:
		return nil
	case error:
		return err
	default:
		return InvalidErrorType
	}
}
